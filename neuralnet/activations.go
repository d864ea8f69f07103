package neuralnet

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// ActivationFunction is applied elementwise after every affine transform.
type ActivationFunction interface {
	Activate(x float64) float64
	Derivative(x float64) float64
}

type ReLU struct{}

func (r ReLU) Activate(x float64) float64 {
	return math.Max(x, 0)
}

// Derivative is 1 at exactly zero. Trained weights depend on this, keep it.
func (r ReLU) Derivative(x float64) float64 {
	if x < 0 {
		return 0
	}
	return 1
}

// applyVec writes fn(src[i]) into dst. dst and src must have equal length.
func applyVec(dst, src *mat.VecDense, fn func(float64) float64) {
	for i := 0; i < src.Len(); i++ {
		dst.SetVec(i, fn(src.AtVec(i)))
	}
}
