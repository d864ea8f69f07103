package trainer

import (
	"context"
	"log"
	"time"

	"github.com/pkg/errors"

	"pixelfit/neuralnet"
	"pixelfit/pixels"
)

// DefaultEvalEvery is how often the whole grid is rendered.
const DefaultEvalEvery = 100

// Options captures the knobs required by the training loop.
type Options struct {
	BatchSize    int
	LearningRate float64
	Momentum     float64
	// EvalEvery is K: cycles where cycle%K == 0 end with an evaluation.
	EvalEvery int
	// LogEvery prints batch statistics every N cycles; 0 disables it.
	LogEvery    int
	Coordinates pixels.Coordinates
	// MaxCycles stops the loop after that many cycles; 0 runs until ctx ends.
	MaxCycles uint64
	Snapshots SnapshotSink
	Progress  ProgressSink
	Logger    *log.Logger
}

// Trainer owns one run. It is not safe for concurrent use.
type Trainer struct {
	nn      *neuralnet.NeuralNetwork
	sampler *pixels.Sampler
	img     *pixels.Image
	opt     neuralnet.Optimizer
	grads   *neuralnet.Gradients
	opts    Options
	state   State
	window  Window
	logger  *log.Logger
}

// New validates opts and prepares zeroed gradients and momentum buffers.
func New(nn *neuralnet.NeuralNetwork, sampler *pixels.Sampler, img *pixels.Image, opts Options) (*Trainer, error) {
	if nn == nil || sampler == nil || img == nil {
		return nil, errors.New("trainer: network, sampler and image are required")
	}
	if opts.BatchSize <= 0 {
		return nil, errors.Errorf("trainer: batch size must be > 0 (got %d)", opts.BatchSize)
	}
	if opts.LearningRate <= 0 {
		return nil, errors.Errorf("trainer: learning rate must be > 0 (got %v)", opts.LearningRate)
	}
	if opts.Momentum < 0 || opts.Momentum >= 1 {
		return nil, errors.Errorf("trainer: momentum must be in [0,1) (got %v)", opts.Momentum)
	}
	if opts.EvalEvery <= 0 {
		opts.EvalEvery = DefaultEvalEvery
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Trainer{
		nn:      nn,
		sampler: sampler,
		img:     img,
		opt: neuralnet.NewMomentum(nn, neuralnet.MomentumConfig{
			LearningRate: opts.LearningRate,
			Momentum:     opts.Momentum,
		}),
		grads:  neuralnet.NewGradients(nn),
		opts:   opts,
		logger: logger,
		state: State{
			BatchSize:    opts.BatchSize,
			LearningRate: opts.LearningRate,
			Momentum:     opts.Momentum,
		},
	}, nil
}

// State returns a copy of the loop state.
func (t *Trainer) State() State {
	return t.state
}

// Step runs one training phase: draw a minibatch, sum its gradients, apply
// the momentum update. It returns the summed batch loss. The cycle counter
// is advanced by Run, not here.
func (t *Trainer) Step() (float64, error) {
	var loss float64
	for _, s := range t.sampler.Batch(t.state.BatchSize) {
		trace := t.nn.FeedForward(s.Input[:])
		loss += t.nn.Backpropagate(trace, s.Target[:], t.grads)
	}
	if err := t.opt.Apply(t.grads, t.state.BatchSize); err != nil {
		return loss, errors.Wrapf(err, "cycle %d", t.state.Cycle)
	}
	return loss, nil
}

// Evaluate renders the whole grid with the current parameters.
func (t *Trainer) Evaluate() Evaluation {
	return Evaluate(t.nn, t.img, t.opts.Coordinates)
}

// Run trains until ctx is cancelled or MaxCycles is reached. Cancellation is
// a normal exit. Sink failures end the run.
func (t *Trainer) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		start := time.Now()
		loss, err := t.Step()
		if err != nil {
			return err
		}
		t.window.Record(t.state.BatchSize, time.Since(start), loss)

		if t.state.Cycle%uint64(t.opts.EvalEvery) == 0 {
			if err := t.evaluate(); err != nil {
				return err
			}
		}
		if t.opts.LogEvery > 0 && (t.state.Cycle+1)%uint64(t.opts.LogEvery) == 0 {
			snap := t.window.Snapshot()
			t.logger.Printf("cycle=%d samples_per_sec=%.1f compute_ms=%.3f batch_loss=%.6f last_loss=%.6f",
				t.state.Cycle,
				snap.SamplesPerSec,
				snap.AvgComputeMS,
				snap.AvgLoss,
				snap.LastLoss,
			)
		}

		t.state.Cycle++
		if t.opts.MaxCycles > 0 && t.state.Cycle >= t.opts.MaxCycles {
			return nil
		}
	}
}

func (t *Trainer) evaluate() error {
	eval := t.Evaluate()
	p := Progress{Cycle: t.state.Cycle, Loss: eval.Loss}
	if t.opts.Snapshots != nil {
		where, err := t.opts.Snapshots.WriteSnapshot(t.state.Cycle, eval.Loss, eval.Image)
		if err != nil {
			return errors.Wrapf(err, "write snapshot at cycle %d", t.state.Cycle)
		}
		p.Snapshot = where
	}
	if t.opts.Progress != nil {
		if err := t.opts.Progress.Report(p); err != nil {
			return errors.Wrapf(err, "report progress at cycle %d", t.state.Cycle)
		}
	}
	return nil
}
