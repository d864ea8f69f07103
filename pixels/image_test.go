package pixels

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewImageValidates(t *testing.T) {
	tests := []struct {
		description string
		rows, cols  int
		data        []float64
	}{
		{"zero rows", 0, 2, nil},
		{"short data", 1, 2, []float64{0, 0, 0}},
		{"value above one", 1, 1, []float64{0, 1.5, 0}},
		{"negative value", 1, 1, []float64{0, -0.1, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			_, err := NewImage(tt.rows, tt.cols, tt.data)
			assert.Error(t, err)
		})
	}
}

func TestPixelMatchesTensor(t *testing.T) {
	// 2x3 image, channel-major
	data := []float64{
		0.0, 0.1, 0.2, 0.3, 0.4, 0.5, // R
		0.6, 0.7, 0.8, 0.9, 1.0, 0.05, // G
		0.15, 0.25, 0.35, 0.45, 0.55, 0.65, // B
	}
	img, err := NewImage(2, 3, data)
	require.NoError(t, err)
	assert.Equal(t, 2, img.Rows())
	assert.Equal(t, 3, img.Cols())
	assert.Equal(t, []int{3, 2, 3}, []int(img.Tensor().Shape()))

	for row := 0; row < 2; row++ {
		for col := 0; col < 3; col++ {
			px := img.Pixel(row, col)
			for c := 0; c < Channels; c++ {
				v, err := img.Tensor().At(c, row, col)
				require.NoError(t, err)
				assert.Equal(t, v.(float64), px[c])
			}
		}
	}
	assert.Equal(t, [Channels]float64{0.4, 1.0, 0.55}, img.Pixel(1, 1))
	assert.Panics(t, func() { img.Pixel(2, 0) })
}

func TestFromImage(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 2, 2))
	src.Set(0, 0, color.RGBA{255, 0, 0, 255})
	src.Set(1, 0, color.RGBA{0, 255, 0, 255})
	src.Set(0, 1, color.RGBA{0, 0, 255, 255})
	src.Set(1, 1, color.RGBA{51, 102, 153, 255})

	img := FromImage(src)
	assert.Equal(t, 2, img.Rows())
	assert.Equal(t, 2, img.Cols())
	assert.Equal(t, [Channels]float64{1, 0, 0}, img.Pixel(0, 0))
	assert.Equal(t, [Channels]float64{0, 1, 0}, img.Pixel(0, 1))
	assert.Equal(t, [Channels]float64{0, 0, 1}, img.Pixel(1, 0))
	assert.InDeltaSlice(t, []float64{0.2, 0.4, 0.6}, sliceOf(img.Pixel(1, 1)), 1e-12)
}

func sliceOf(px [Channels]float64) []float64 {
	return px[:]
}

func TestPixelReadsThroughTensor(t *testing.T) {
	img, err := NewImage(1, 2, make([]float64, Channels*2))
	require.NoError(t, err)

	require.NoError(t, img.Tensor().SetAt(0.75, 2, 0, 1))
	require.NoError(t, img.Tensor().SetAt(0.25, 0, 0, 1))
	assert.Equal(t, [Channels]float64{0.25, 0, 0.75}, img.Pixel(0, 1))
	assert.Equal(t, [Channels]float64{0, 0, 0}, img.Pixel(0, 0))
}
