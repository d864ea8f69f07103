package trainer

import "time"

// Window accumulates throughput and batch loss across multiple cycles.
type Window struct {
	samples int
	compute time.Duration
	cycles  int
	loss    float64
	last    float64
}

// Record adds one cycle to the window.
func (w *Window) Record(batchSize int, computeTime time.Duration, loss float64) {
	w.samples += batchSize
	w.compute += computeTime
	w.cycles++
	w.loss += loss
	w.last = loss
}

// Snapshot returns aggregated metrics and resets the window.
func (w *Window) Snapshot() WindowSnapshot {
	snap := WindowSnapshot{LastLoss: w.last, Cycles: w.cycles}
	if w.compute > 0 {
		snap.SamplesPerSec = float64(w.samples) / w.compute.Seconds()
	}
	if w.cycles > 0 {
		snap.AvgComputeMS = (w.compute.Seconds() * 1000) / float64(w.cycles)
		snap.AvgLoss = w.loss / float64(w.cycles)
	}
	*w = Window{}
	return snap
}

// WindowSnapshot represents loggable metrics.
type WindowSnapshot struct {
	Cycles        int
	SamplesPerSec float64
	AvgComputeMS  float64
	AvgLoss       float64
	LastLoss      float64
}
