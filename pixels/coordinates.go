package pixels

import (
	"strings"

	"github.com/pkg/errors"
)

// Coordinates selects how a grid position becomes a network input.
type Coordinates int

const (
	// Legacy is the historical mapping. Training feeds
	// (col/rows - 0.5, row/cols - 0.5) while rendering feeds
	// (row/cols, col/rows): uncentred, with the channels swapped. Switching
	// to Consistent changes both the learned target and the rendered image.
	Legacy Coordinates = iota
	// Consistent feeds (col/cols - 0.5, row/rows - 0.5) in both phases.
	Consistent
)

func (c Coordinates) String() string {
	switch c {
	case Legacy:
		return "legacy"
	case Consistent:
		return "consistent"
	}
	return "unknown"
}

// ParseCoordinates accepts "legacy" or "consistent"; empty means legacy.
func ParseCoordinates(s string) (Coordinates, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "legacy":
		return Legacy, nil
	case "consistent":
		return Consistent, nil
	}
	return Legacy, errors.Errorf("unknown coordinates %q", s)
}

// TrainingInput is the input used when sampling (row, col) for training.
func (c Coordinates) TrainingInput(row, col, rows, cols int) [2]float64 {
	if c == Consistent {
		return centred(row, col, rows, cols)
	}
	x := float64(col)/float64(rows) - 0.5
	y := float64(row)/float64(cols) - 0.5
	return [2]float64{x, y}
}

// GridInput is the input used when rendering (row, col).
func (c Coordinates) GridInput(row, col, rows, cols int) [2]float64 {
	if c == Consistent {
		return centred(row, col, rows, cols)
	}
	y := float64(row) / float64(cols)
	x := float64(col) / float64(rows)
	return [2]float64{y, x}
}

func centred(row, col, rows, cols int) [2]float64 {
	return [2]float64{float64(col)/float64(cols) - 0.5, float64(row)/float64(rows) - 0.5}
}
