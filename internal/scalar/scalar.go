// Package scalar holds the scalar forms of the nonlinearities applied
// element-wise by the backends.
//
// Each function comes in a float64 form and a float32 form. The float32 forms
// evaluate exp/erf/tanh in float64 and round once, which keeps fused and
// composed kernel paths within float32 rounding of each other.
package scalar

import "math"

// Constants of the GELU approximations.
const (
	Sqrt2OverPi  = 0.7978845608028654 // sqrt(2/pi)
	GELUTanhCoef = 0.044715
	QuickGELUK   = 1.702
)

// Sigmoid returns 1 / (1 + exp(-x)).
func Sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// SiLU returns x * sigmoid(x).
func SiLU(x float64) float64 {
	return x / (1 + math.Exp(-x))
}

// GELU returns the exact Gaussian error linear unit 0.5*x*(1+erf(x/sqrt(2))).
func GELU(x float64) float64 {
	return 0.5 * x * (1 + math.Erf(x/math.Sqrt2))
}

// GELUTanh returns the tanh approximation of GELU:
// 0.5*x*(1+tanh(sqrt(2/pi)*(x+0.044715*x^3))).
func GELUTanh(x float64) float64 {
	inner := Sqrt2OverPi * (x + GELUTanhCoef*x*x*x)
	return 0.5 * x * (1 + math.Tanh(inner))
}

// QuickGELU returns x * sigmoid(1.702*x).
func QuickGELU(x float64) float64 {
	return x * Sigmoid(QuickGELUK*x)
}

// ReLU returns max(0, x).
func ReLU(x float64) float64 {
	if x > 0 {
		return x
	}
	return 0
}

// Tanh returns tanh(x).
func Tanh(x float64) float64 {
	return math.Tanh(x)
}

// Sigmoid32 is the float32 form of Sigmoid.
func Sigmoid32(x float32) float32 { return float32(Sigmoid(float64(x))) }

// SiLU32 is the float32 form of SiLU.
func SiLU32(x float32) float32 { return float32(SiLU(float64(x))) }

// GELU32 is the float32 form of GELU.
func GELU32(x float32) float32 { return float32(GELU(float64(x))) }

// GELUTanh32 is the float32 form of GELUTanh.
func GELUTanh32(x float32) float32 { return float32(GELUTanh(float64(x))) }

// QuickGELU32 is the float32 form of QuickGELU.
func QuickGELU32(x float32) float32 { return float32(QuickGELU(float64(x))) }

// ReLU32 is the float32 form of ReLU.
func ReLU32(x float32) float32 {
	if x > 0 {
		return x
	}
	return 0
}

// Tanh32 is the float32 form of Tanh.
func Tanh32(x float32) float32 { return float32(math.Tanh(float64(x))) }
