package neuralnet

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

const (
	// InputSize is the (x, y) coordinate pair.
	InputSize = 2
	// OutputSize is one value per RGB channel.
	OutputSize = 3
)

// ErrMalformed is returned when layer shapes do not chain from InputSize to OutputSize.
var ErrMalformed = errors.New("malformed network parameters")

// NeuralNetwork is a fixed stack of dense ReLU layers. Only parameter values
// change after construction.
type NeuralNetwork struct {
	layers []*Layer
	loss   LossFunction
}

// Trace keeps what a training forward pass produced for every layer.
type Trace struct {
	input *mat.VecDense
	pre   []*mat.VecDense
	post  []*mat.VecDense
	masks []*mat.VecDense
}

// New validates the layer chain and takes ownership of the layers.
func New(layers ...*Layer) (*NeuralNetwork, error) {
	if len(layers) == 0 {
		return nil, errors.Wrap(ErrMalformed, "network has no layers")
	}
	prev := InputSize
	for i, l := range layers {
		if l == nil {
			return nil, errors.Wrapf(ErrMalformed, "layer %d is nil", i)
		}
		if l.In() != prev {
			return nil, errors.Wrapf(ErrMalformed, "layer %d takes %d inputs, previous layer gives %d", i, l.In(), prev)
		}
		if l.Bias.Len() != l.Out() {
			return nil, errors.Wrapf(ErrMalformed, "layer %d has %d biases for %d outputs", i, l.Bias.Len(), l.Out())
		}
		if l.activation == nil {
			l.activation = ReLU{}
		}
		prev = l.Out()
	}
	if prev != OutputSize {
		return nil, errors.Wrapf(ErrMalformed, "final layer gives %d outputs, want %d", prev, OutputSize)
	}
	return &NeuralNetwork{layers: layers, loss: SquaredError{}}, nil
}

// Len is the number of layers.
func (nn *NeuralNetwork) Len() int {
	return len(nn.layers)
}

// Layer returns layer i. The optimizer updates parameters through it.
func (nn *NeuralNetwork) Layer(i int) *Layer {
	return nn.layers[i]
}

func (nn *NeuralNetwork) checkInput(input []float64) {
	if len(input) != InputSize {
		panic(fmt.Sprintf("neuralnet: input has %d values, want %d", len(input), InputSize))
	}
}

// FeedForward runs the network on one input and records pre-activations,
// activations and ReLU derivative masks for Backpropagate.
func (nn *NeuralNetwork) FeedForward(input []float64) *Trace {
	nn.checkInput(input)
	x := mat.NewVecDense(InputSize, append([]float64(nil), input...))
	trace := &Trace{
		input: x,
		pre:   make([]*mat.VecDense, len(nn.layers)),
		post:  make([]*mat.VecDense, len(nn.layers)),
		masks: make([]*mat.VecDense, len(nn.layers)),
	}
	var in mat.Vector = x
	for i, layer := range nn.layers {
		pre := layer.affine(in)
		post := mat.NewVecDense(pre.Len(), nil)
		mask := mat.NewVecDense(pre.Len(), nil)
		applyVec(post, pre, layer.activation.Activate)
		applyVec(mask, pre, layer.activation.Derivative)
		trace.pre[i], trace.post[i], trace.masks[i] = pre, post, mask
		in = post
	}
	return trace
}

// Predict is the forward-only pass. output is the final pre-activation that
// the loss is measured against, activated is its ReLU image used for pixels.
func (nn *NeuralNetwork) Predict(input []float64) (output, activated *mat.VecDense) {
	nn.checkInput(input)
	var in mat.Vector = mat.NewVecDense(InputSize, append([]float64(nil), input...))
	for _, layer := range nn.layers {
		output = layer.affine(in)
		activated = mat.NewVecDense(output.Len(), nil)
		applyVec(activated, output, layer.activation.Activate)
		in = activated
	}
	return output, activated
}

// Backpropagate adds the gradients of 0.5*||output - target||² for one
// sample into grads and returns that sample's loss.
//
// The residual seeds the last layer directly; no ReLU derivative is applied
// to it.
func (nn *NeuralNetwork) Backpropagate(trace *Trace, target []float64, grads *Gradients) float64 {
	if len(target) != OutputSize {
		panic(fmt.Sprintf("neuralnet: target has %d values, want %d", len(target), OutputSize))
	}
	output := trace.Output().RawVector().Data
	loss := nn.loss.Compute(output, target)
	delta := mat.NewVecDense(OutputSize, nn.loss.Gradient(output, target))

	for i := len(nn.layers) - 1; i > 0; i-- {
		grads.weights[i].RankOne(grads.weights[i], 1, delta, trace.post[i-1])
		grads.bias[i].AddVec(grads.bias[i], delta)

		prev := mat.NewVecDense(nn.layers[i].In(), nil)
		prev.MulVec(nn.layers[i].Weights.T(), delta)
		prev.MulElemVec(prev, trace.masks[i-1])
		delta = prev
	}
	grads.weights[0].RankOne(grads.weights[0], 1, delta, trace.input)
	grads.bias[0].AddVec(grads.bias[0], delta)

	return loss
}

// Output is the last layer's pre-activation.
func (t *Trace) Output() *mat.VecDense {
	return t.pre[len(t.pre)-1]
}

// Activated is the last layer's ReLU output.
func (t *Trace) Activated() *mat.VecDense {
	return t.post[len(t.post)-1]
}

// Activation returns the vector fed into layer i; layer 0 gets the input.
func (t *Trace) Activation(i int) *mat.VecDense {
	if i == 0 {
		return t.input
	}
	return t.post[i-1]
}

// Define the String() method for the NeuralNetwork type
func (nn *NeuralNetwork) String() string {
	var sb strings.Builder
	for i, layer := range nn.layers {
		sb.WriteString(fmt.Sprintf("Layer %d:\n%s\n", i, layer.String()))
	}
	return sb.String()
}
