package stepper

import "math"

func dot(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		sum += a[i] * b[i]
	}

	return sum
}

func normSquared(a []float64) float64 { return dot(a, a) }

func norm(a []float64) float64 { return math.Sqrt(normSquared(a)) }

func scaled(a []float64, s float64) []float64 {
	out := make([]float64, len(a))
	for i, v := range a {
		out[i] = v * s
	}

	return out
}

func sub(a, b []float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		out[i] = a[i] - b[i]
	}

	return out
}

func add(a, b []float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		out[i] = a[i] + b[i]
	}

	return out
}

// interpolateToRadius returns sd + tau*(gn-sd) for the tau in [0,1] that
// places the result at distance radius from the origin, given
// ||sd|| < radius < ||gn||. Solves the quadratic
// ||sd + tau*d||^2 = radius^2 for the positive root.
func interpolateToRadius(sd, gn []float64, radius float64) []float64 {
	d := sub(gn, sd)
	a := dot(d, d)
	if a == 0 {
		return sd
	}
	b := 2 * dot(sd, d)
	c := dot(sd, sd) - radius*radius
	disc := b*b - 4*a*c
	if disc < 0 {
		disc = 0
	}
	tau := (-b + math.Sqrt(disc)) / (2 * a)
	if tau < 0 {
		tau = 0
	}
	if tau > 1 {
		tau = 1
	}

	return add(sd, scaled(d, tau))
}
