package trainer

import (
	"image"
	"log"
)

// Progress is what the loop reports after every evaluation.
type Progress struct {
	Cycle    uint64
	Loss     float64
	Snapshot string
}

// ProgressSink receives evaluation losses.
type ProgressSink interface {
	Report(p Progress) error
}

// SnapshotSink stores a rendered image and returns where it went.
type SnapshotSink interface {
	WriteSnapshot(cycle uint64, loss float64, img *image.NRGBA) (string, error)
}

// LogProgress prints every evaluation through a standard logger.
type LogProgress struct {
	Logger *log.Logger
}

func (l LogProgress) Report(p Progress) error {
	logger := l.Logger
	if logger == nil {
		logger = log.Default()
	}
	if p.Snapshot != "" {
		logger.Printf("cycle=%d eval_loss=%.6f snapshot=%q", p.Cycle, p.Loss, p.Snapshot)
	} else {
		logger.Printf("cycle=%d eval_loss=%.6f", p.Cycle, p.Loss)
	}
	return nil
}

type multiProgress []ProgressSink

// MultiProgress fans a report out to every sink, stopping at the first error.
func MultiProgress(sinks ...ProgressSink) ProgressSink {
	return multiProgress(sinks)
}

func (m multiProgress) Report(p Progress) error {
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Report(p); err != nil {
			return err
		}
	}
	return nil
}
