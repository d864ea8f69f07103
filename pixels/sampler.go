package pixels

import (
	"math/rand"

	"github.com/pkg/errors"
)

// Sample is one (coordinate → colour) training pair.
type Sample struct {
	Row, Col int
	Input    [2]float64
	Target   [Channels]float64
}

// Sampler draws uniformly random pixels from the reference image.
type Sampler struct {
	img    *Image
	coords Coordinates
	rng    *rand.Rand
}

// NewSampler builds a sampler over img. rng is the only source of randomness.
func NewSampler(img *Image, coords Coordinates, rng *rand.Rand) (*Sampler, error) {
	if img == nil {
		return nil, errors.New("sampler: image is nil")
	}
	if rng == nil {
		return nil, errors.New("sampler: random source is nil")
	}
	return &Sampler{img: img, coords: coords, rng: rng}, nil
}

// Next draws one pixel. Row is in [0, rows) and column in [0, cols).
func (s *Sampler) Next() Sample {
	row := s.rng.Intn(s.img.rows)
	col := s.rng.Intn(s.img.cols)
	return Sample{
		Row:    row,
		Col:    col,
		Input:  s.coords.TrainingInput(row, col, s.img.rows, s.img.cols),
		Target: s.img.Pixel(row, col),
	}
}

// Batch draws n independent samples.
func (s *Sampler) Batch(n int) []Sample {
	batch := make([]Sample, n)
	for i := range batch {
		batch[i] = s.Next()
	}
	return batch
}
