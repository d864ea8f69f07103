package neuralnet

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Layer is one dense transform followed by ReLU.
// Weights is out×in, Bias has out entries.
type Layer struct {
	Weights    *mat.Dense
	Bias       *mat.VecDense
	activation ActivationFunction
}

// NewLayer copies weights (one slice per output neuron) and bias into a layer.
func NewLayer(weights [][]float64, bias []float64) (*Layer, error) {
	rows := len(weights)
	if rows == 0 {
		return nil, errors.Wrap(ErrMalformed, "layer has no weight rows")
	}
	cols := len(weights[0])
	if cols == 0 {
		return nil, errors.Wrap(ErrMalformed, "layer has no weight columns")
	}
	data := make([]float64, 0, rows*cols)
	for r, row := range weights {
		if len(row) != cols {
			return nil, errors.Wrapf(ErrMalformed, "weight row %d has %d columns, want %d", r, len(row), cols)
		}
		data = append(data, row...)
	}
	if len(bias) != rows {
		return nil, errors.Wrapf(ErrMalformed, "bias has %d entries, want %d", len(bias), rows)
	}
	b := make([]float64, rows)
	copy(b, bias)

	return &Layer{
		Weights:    mat.NewDense(rows, cols, data),
		Bias:       mat.NewVecDense(rows, b),
		activation: ReLU{},
	}, nil
}

// In is the width of the vector the layer consumes.
func (l *Layer) In() int {
	_, c := l.Weights.Dims()
	return c
}

// Out is the width of the vector the layer produces.
func (l *Layer) Out() int {
	r, _ := l.Weights.Dims()
	return r
}

// affine returns W·x + b in a fresh vector.
func (l *Layer) affine(x mat.Vector) *mat.VecDense {
	pre := mat.NewVecDense(l.Out(), nil)
	pre.MulVec(l.Weights, x)
	pre.AddVec(pre, l.Bias)
	return pre
}

// Debug
func (l *Layer) String() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Weights (%dx%d):\n%v\n", l.Out(), l.In(), mat.Formatted(l.Weights, mat.Prefix(""), mat.Squeeze())))
	sb.WriteString(fmt.Sprintf("Bias: %v\n", l.Bias.RawVector().Data))
	return sb.String()
}
