package model

import "math"

// sigmoid is the logistic function. Large magnitudes saturate to 0 or 1;
// nothing is clamped.
func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// sigmoidDeriv takes the pre-activation value, not sigmoid(x).
func sigmoidDeriv(x float64) float64 {
	fx := sigmoid(x)
	return fx * (1 - fx)
}
