package neuralnet

import (
	"gonum.org/v1/gonum/floats"
)

// LossFunction defines the interface for computing loss and its gradient.
type LossFunction interface {
	// Compute returns the loss value given the network output and target.
	Compute(output []float64, target []float64) float64
	// Gradient returns the gradient ∂L/∂output for each output neuron.
	Gradient(output []float64, target []float64) []float64
}

// SquaredError implements 0.5 * ||output - target||².
type SquaredError struct{}

// Compute returns half the squared euclidean distance.
func (se SquaredError) Compute(output []float64, target []float64) float64 {
	d := floats.Distance(output, target, 2)
	return 0.5 * d * d
}

// Gradient returns the residual (output - target).
func (se SquaredError) Gradient(output []float64, target []float64) []float64 {
	grad := make([]float64, len(output))
	floats.SubTo(grad, output, target)
	return grad
}
