package neuralnet

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Optimizer applies summed minibatch gradients to the network parameters.
type Optimizer interface {
	Apply(grads *Gradients, batchSize int) error
}

// MomentumConfig holds the fixed hyperparameters of a run.
type MomentumConfig struct {
	LearningRate float64
	Momentum     float64
}

// Momentum implements SGD with momentum on the batch-mean gradient:
//
//	v = m*v - (lr/n)*g
//	p = p + v
//
// Velocity buffers live for the whole run and are never reset.
type Momentum struct {
	nn        *NeuralNetwork
	cfg       MomentumConfig
	weightVel []*mat.Dense
	biasVel   []*mat.VecDense
	scratch   []*mat.Dense
}

// NewMomentum allocates zero velocities for every layer of nn.
func NewMomentum(nn *NeuralNetwork, cfg MomentumConfig) *Momentum {
	o := &Momentum{
		nn:        nn,
		cfg:       cfg,
		weightVel: make([]*mat.Dense, nn.Len()),
		biasVel:   make([]*mat.VecDense, nn.Len()),
		scratch:   make([]*mat.Dense, nn.Len()),
	}
	for i, layer := range nn.layers {
		o.weightVel[i] = mat.NewDense(layer.Out(), layer.In(), nil)
		o.biasVel[i] = mat.NewVecDense(layer.Out(), nil)
		o.scratch[i] = mat.NewDense(layer.Out(), layer.In(), nil)
	}
	return o
}

// Apply updates every layer and zeroes grads for the next minibatch.
func (o *Momentum) Apply(grads *Gradients, batchSize int) error {
	if batchSize <= 0 {
		return errors.Errorf("invalid batch size %d", batchSize)
	}
	if grads.Len() != o.nn.Len() {
		return errors.Errorf("gradients cover %d layers, network has %d", grads.Len(), o.nn.Len())
	}
	step := -o.cfg.LearningRate / float64(batchSize)
	for i := 0; i < o.nn.Len(); i++ {
		layer := o.nn.Layer(i)

		wv := o.weightVel[i]
		wv.Scale(o.cfg.Momentum, wv)
		o.scratch[i].Scale(step, grads.weights[i])
		wv.Add(wv, o.scratch[i])
		layer.Weights.Add(layer.Weights, wv)

		bv := o.biasVel[i]
		bv.ScaleVec(o.cfg.Momentum, bv)
		bv.AddScaledVec(bv, step, grads.bias[i])
		layer.Bias.AddVec(layer.Bias, bv)
	}
	grads.Reset()
	return nil
}

// WeightVelocity returns the momentum buffer for layer i's weights.
func (o *Momentum) WeightVelocity(i int) *mat.Dense {
	return o.weightVel[i]
}

// BiasVelocity returns the momentum buffer for layer i's bias.
func (o *Momentum) BiasVelocity(i int) *mat.VecDense {
	return o.biasVel[i]
}
