package neuralnet

import (
	"fmt"
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"
)

// Helper function for comparing floats with a tolerance
func floatEquals(a, b, tolerance float64) bool {
	return math.Abs(a-b) < tolerance
}

func mustLayer(t *testing.T, weights [][]float64, bias []float64) *Layer {
	t.Helper()
	l, err := NewLayer(weights, bias)
	require.NoError(t, err)
	return l
}

// smallNetwork is 2→3→3. The third hidden unit is dead for testInput.
func smallNetwork(t *testing.T) *NeuralNetwork {
	t.Helper()
	nn, err := New(
		mustLayer(t, [][]float64{{0.5, -0.2}, {0.3, 0.8}, {-0.9, -0.5}}, []float64{0.1, 0.2, 0.1}),
		mustLayer(t, [][]float64{{0.4, -0.6, 0.1}, {0.7, 0.2, -0.3}, {-0.3, 0.5, 0.2}}, []float64{0.05, -0.1, 0.2}),
	)
	require.NoError(t, err)
	return nn
}

var (
	testInput  = []float64{0.4, 0.7}
	testTarget = []float64{0.9, 0.1, 0.5}
)

func TestNewRejectsMalformed(t *testing.T) {
	tests := []struct {
		description string
		layers      func(t *testing.T) []*Layer
	}{
		{
			description: "no layers",
			layers:      func(t *testing.T) []*Layer { return nil },
		},
		{
			description: "first layer does not take 2 inputs",
			layers: func(t *testing.T) []*Layer {
				return []*Layer{mustLayer(t, [][]float64{{1, 1, 1}, {1, 1, 1}, {1, 1, 1}}, []float64{0, 0, 0})}
			},
		},
		{
			description: "consecutive layers do not chain",
			layers: func(t *testing.T) []*Layer {
				return []*Layer{
					mustLayer(t, [][]float64{{1, 1}, {1, 1}}, []float64{0, 0}),
					mustLayer(t, [][]float64{{1, 1, 1}, {1, 1, 1}, {1, 1, 1}}, []float64{0, 0, 0}),
				}
			},
		},
		{
			description: "final layer does not give 3 outputs",
			layers: func(t *testing.T) []*Layer {
				return []*Layer{mustLayer(t, [][]float64{{1, 1}, {1, 1}}, []float64{0, 0})}
			},
		},
		{
			description: "nil layer",
			layers:      func(t *testing.T) []*Layer { return []*Layer{nil} },
		},
	}
	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			_, err := New(tt.layers(t)...)
			require.Error(t, err)
			assert.Equal(t, ErrMalformed, errors.Cause(err))
		})
	}
}

func TestNewLayerRejectsMalformed(t *testing.T) {
	tests := []struct {
		description string
		weights     [][]float64
		bias        []float64
	}{
		{"empty", nil, nil},
		{"empty row", [][]float64{{}}, []float64{0}},
		{"ragged rows", [][]float64{{1, 2}, {3}}, []float64{0, 0}},
		{"bias too short", [][]float64{{1, 2}, {3, 4}}, []float64{0}},
	}
	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			_, err := NewLayer(tt.weights, tt.bias)
			require.Error(t, err)
			assert.Equal(t, ErrMalformed, errors.Cause(err))
		})
	}
}

func TestNewLayerCopiesInput(t *testing.T) {
	weights := [][]float64{{1, 2}, {3, 4}}
	bias := []float64{5, 6}
	l := mustLayer(t, weights, bias)
	weights[0][0] = 100
	bias[0] = 100
	assert.Equal(t, 1.0, l.Weights.At(0, 0))
	assert.Equal(t, 5.0, l.Bias.AtVec(0))
	assert.Equal(t, 2, l.In())
	assert.Equal(t, 2, l.Out())
}

func TestFeedForwardShapesAndRange(t *testing.T) {
	nn := smallNetwork(t)
	inputs := [][]float64{{0, 0}, {0.4, 0.7}, {-0.5, -0.5}, {0.75, -0.25}, {10, -10}}
	for _, in := range inputs {
		trace := nn.FeedForward(in)
		require.Equal(t, OutputSize, trace.Output().Len())
		require.Equal(t, OutputSize, trace.Activated().Len())
		for i := 1; i <= nn.Len(); i++ {
			var act *mat.VecDense
			if i == nn.Len() {
				act = trace.Activated()
			} else {
				act = trace.Activation(i)
			}
			for j := 0; j < act.Len(); j++ {
				assert.GreaterOrEqual(t, act.AtVec(j), 0.0, "input %v layer %d unit %d", in, i, j)
			}
		}
	}
}

func TestFeedForwardValues(t *testing.T) {
	nn := smallNetwork(t)
	trace := nn.FeedForward(testInput)

	// hidden pre-activations: 0.16, 0.88, -0.61
	hidden := trace.Activation(1)
	assert.InDeltaSlice(t, []float64{0.16, 0.88, 0}, hidden.RawVector().Data, 1e-12)
	assert.InDeltaSlice(t, []float64{1, 1, 0}, trace.masks[0].RawVector().Data, 0)

	want := []float64{
		0.4*0.16 - 0.6*0.88 + 0.05,
		0.7*0.16 + 0.2*0.88 - 0.1,
		-0.3*0.16 + 0.5*0.88 + 0.2,
	}
	assert.InDeltaSlice(t, want, trace.Output().RawVector().Data, 1e-12)
	// the first output is negative, ReLU clips it for rendering only
	assert.Less(t, trace.Output().AtVec(0), 0.0)
	assert.Equal(t, 0.0, trace.Activated().AtVec(0))
}

func TestFeedForwardIdempotent(t *testing.T) {
	nn := smallNetwork(t)
	a := nn.FeedForward(testInput)
	b := nn.FeedForward(testInput)
	assert.Equal(t, a.Output().RawVector().Data, b.Output().RawVector().Data)
	assert.Equal(t, a.Activated().RawVector().Data, b.Activated().RawVector().Data)

	out, act := nn.Predict(testInput)
	assert.Equal(t, a.Output().RawVector().Data, out.RawVector().Data)
	assert.Equal(t, a.Activated().RawVector().Data, act.RawVector().Data)
}

func TestFeedForwardPanicsOnWrongInput(t *testing.T) {
	nn := smallNetwork(t)
	assert.Panics(t, func() { nn.FeedForward([]float64{1, 2, 3}) })
	assert.Panics(t, func() { nn.Predict([]float64{1}) })
}

// sampleLoss is the loss the analytic gradient is taken of.
func sampleLoss(nn *NeuralNetwork) float64 {
	out, _ := nn.Predict(testInput)
	return SquaredError{}.Compute(out.RawVector().Data, testTarget)
}

func TestBackpropagateMatchesFiniteDifference(t *testing.T) {
	nn := smallNetwork(t)
	grads := NewGradients(nn)
	nn.Backpropagate(nn.FeedForward(testInput), testTarget, grads)

	settings := &fd.Settings{Formula: fd.Central, Step: 1e-6}
	const tolerance = 1e-4

	for i := 0; i < nn.Len(); i++ {
		layer := nn.Layer(i)
		for r := 0; r < layer.Out(); r++ {
			for c := 0; c < layer.In(); c++ {
				orig := layer.Weights.At(r, c)
				numeric := fd.Derivative(func(w float64) float64 {
					layer.Weights.Set(r, c, w)
					defer layer.Weights.Set(r, c, orig)
					return sampleLoss(nn)
				}, orig, settings)
				analytic := grads.Weights(i).At(r, c)
				if !floatEquals(numeric, analytic, tolerance) {
					t.Errorf("layer %d weight (%d,%d): numeric %v, analytic %v", i, r, c, numeric, analytic)
				}
			}
			orig := layer.Bias.AtVec(r)
			numeric := fd.Derivative(func(b float64) float64 {
				layer.Bias.SetVec(r, b)
				defer layer.Bias.SetVec(r, orig)
				return sampleLoss(nn)
			}, orig, settings)
			analytic := grads.Bias(i).AtVec(r)
			if !floatEquals(numeric, analytic, tolerance) {
				t.Errorf("layer %d bias %d: numeric %v, analytic %v", i, r, numeric, analytic)
			}
		}
	}

	// the dead hidden unit receives no gradient
	assert.Equal(t, 0.0, grads.Bias(0).AtVec(2))
	assert.Equal(t, 0.0, grads.Weights(0).At(2, 0))
}

func TestBackpropagateReturnsLoss(t *testing.T) {
	nn := smallNetwork(t)
	trace := nn.FeedForward(testInput)
	loss := nn.Backpropagate(trace, testTarget, NewGradients(nn))
	assert.InDelta(t, sampleLoss(nn), loss, 1e-12)
}

func TestSingleSampleBatchIsRawGradient(t *testing.T) {
	nn := smallNetwork(t)
	grads := NewGradients(nn)
	trace := nn.FeedForward(testInput)
	nn.Backpropagate(trace, testTarget, grads)

	out := trace.Output().RawVector().Data
	hidden := trace.Activation(1).RawVector().Data
	delta := make([]float64, OutputSize)
	for k := range delta {
		delta[k] = out[k] - testTarget[k]
	}
	for r := 0; r < OutputSize; r++ {
		assert.InDelta(t, delta[r], grads.Bias(1).AtVec(r), 1e-12)
		for c := range hidden {
			assert.InDelta(t, delta[r]*hidden[c], grads.Weights(1).At(r, c), 1e-12)
		}
	}
	w := nn.Layer(1).Weights
	for h := range hidden {
		var back float64
		for k := 0; k < OutputSize; k++ {
			back += w.At(k, h) * delta[k]
		}
		back *= trace.masks[0].AtVec(h)
		assert.InDelta(t, back, grads.Bias(0).AtVec(h), 1e-12)
		for c := 0; c < InputSize; c++ {
			assert.InDelta(t, back*testInput[c], grads.Weights(0).At(h, c), 1e-12)
		}
	}
}

func TestGradientsAreSummed(t *testing.T) {
	nn := smallNetwork(t)
	once := NewGradients(nn)
	twice := NewGradients(nn)
	nn.Backpropagate(nn.FeedForward(testInput), testTarget, once)
	nn.Backpropagate(nn.FeedForward(testInput), testTarget, twice)
	nn.Backpropagate(nn.FeedForward(testInput), testTarget, twice)

	for i := 0; i < nn.Len(); i++ {
		var doubled mat.Dense
		doubled.Scale(2, once.Weights(i))
		assert.True(t, mat.EqualApprox(&doubled, twice.Weights(i), 1e-12), "layer %d", i)
	}
}

func TestGradientsAddIsOrderIndependent(t *testing.T) {
	nn := smallNetwork(t)
	a := NewGradients(nn)
	b := NewGradients(nn)
	nn.Backpropagate(nn.FeedForward([]float64{0.1, 0.2}), testTarget, a)
	nn.Backpropagate(nn.FeedForward([]float64{-0.3, 0.6}), []float64{0, 1, 0}, b)

	ab := NewGradients(nn)
	ab.Add(a)
	ab.Add(b)
	ba := NewGradients(nn)
	ba.Add(b)
	ba.Add(a)
	for i := 0; i < nn.Len(); i++ {
		assert.True(t, mat.EqualApprox(ab.Weights(i), ba.Weights(i), 1e-15))
		assert.True(t, mat.EqualApprox(ab.Bias(i), ba.Bias(i), 1e-15))
	}

	ab.Reset()
	for i := 0; i < nn.Len(); i++ {
		assert.Zero(t, mat.Norm(ab.Weights(i), 2))
		assert.Zero(t, mat.Norm(ab.Bias(i), 2))
	}
}

func TestString(t *testing.T) {
	s := smallNetwork(t).String()
	for i := 0; i < 2; i++ {
		assert.Contains(t, s, fmt.Sprintf("Layer %d:", i))
	}
}
