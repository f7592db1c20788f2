package numeric

import "math"

// SampleGamma draws from Gamma(shape, 1) using the Marsaglia-Tsang
// acceptance-rejection method, with the standard shape<1 boost.
//
// Reference: Marsaglia & Tsang, "A Simple Method for Generating Gamma
// Variables" (2000).
func SampleGamma(src Source, shape float64) float64 {
	if shape <= 0 {
		return 0
	}
	if shape < 1 {
		// Boost: Gamma(a) = Gamma(a+1) * U^(1/a)
		u := src.Float64()
		for u == 0 {
			u = src.Float64()
		}
		return SampleGamma(src, shape+1) * math.Pow(u, 1.0/shape)
	}

	d := shape - 1.0/3.0
	c := 1.0 / math.Sqrt(9.0*d)
	for {
		x := src.NormFloat64()
		v := 1.0 + c*x
		if v <= 0 {
			continue
		}
		v = v * v * v
		u := src.Float64()
		if u < 1.0-0.0331*x*x*x*x {
			return d * v
		}
		if u > 0 && math.Log(u) < 0.5*x*x+d*(1.0-v+math.Log(v)) {
			return d * v
		}
	}
}

// SampleBeta draws from Beta(alpha, beta) as the ratio of two Gamma
// draws. Degenerate parameters fall back to 0.5, the uninformed prior
// mean.
func SampleBeta(src Source, alpha, beta float64) float64 {
	if alpha <= 0 || beta <= 0 {
		return 0.5
	}
	x := SampleGamma(src, alpha)
	y := SampleGamma(src, beta)
	if x+y == 0 {
		return 0.5
	}
	return x / (x + y)
}
