// Package trainer runs the endless sample → backprop → update cycle and the
// periodic full-grid evaluation.
package trainer

// State is everything the loop carries from one cycle to the next, apart
// from the parameters and momentum buffers.
type State struct {
	Cycle        uint64
	BatchSize    int
	LearningRate float64
	Momentum     float64
}
