package neuralnet

import (
	"gonum.org/v1/gonum/mat"
)

// Gradients holds per-layer sums of weight and bias gradients for one
// minibatch. Samples are summed, never averaged, until the optimizer runs.
type Gradients struct {
	weights []*mat.Dense
	bias    []*mat.VecDense
}

// NewGradients allocates zeroed accumulators shaped like nn.
func NewGradients(nn *NeuralNetwork) *Gradients {
	g := &Gradients{
		weights: make([]*mat.Dense, nn.Len()),
		bias:    make([]*mat.VecDense, nn.Len()),
	}
	for i, layer := range nn.layers {
		g.weights[i] = mat.NewDense(layer.Out(), layer.In(), nil)
		g.bias[i] = mat.NewVecDense(layer.Out(), nil)
	}
	return g
}

// Reset zeroes every accumulator.
func (g *Gradients) Reset() {
	for i := range g.weights {
		g.weights[i].Zero()
		g.bias[i].Zero()
	}
}

// Add merges another partial sum into g.
func (g *Gradients) Add(other *Gradients) {
	for i := range g.weights {
		g.weights[i].Add(g.weights[i], other.weights[i])
		g.bias[i].AddVec(g.bias[i], other.bias[i])
	}
}

func (g *Gradients) Weights(i int) *mat.Dense {
	return g.weights[i]
}

func (g *Gradients) Bias(i int) *mat.VecDense {
	return g.bias[i]
}

// Len is the number of layers covered.
func (g *Gradients) Len() int {
	return len(g.weights)
}
