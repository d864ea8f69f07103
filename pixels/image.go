// Package pixels holds the reference image and turns its grid into
// (coordinate, colour) training pairs.
package pixels

import (
	"image"
	"image/color"

	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

// Channels is the number of colour channels per pixel (R, G, B).
const Channels = 3

// Image is a grid of RGB values in [0,1], stored channel-major as a
// (3, rows, cols) tensor.
type Image struct {
	rows, cols int
	t          *tensor.Dense
}

// NewImage wraps channel-major data: all red values row by row, then green, then blue.
func NewImage(rows, cols int, data []float64) (*Image, error) {
	if rows <= 0 || cols <= 0 {
		return nil, errors.Errorf("image must have positive size, got %dx%d", rows, cols)
	}
	if len(data) != Channels*rows*cols {
		return nil, errors.Errorf("image data has %d values, want %d", len(data), Channels*rows*cols)
	}
	for i, v := range data {
		if v < 0 || v > 1 {
			return nil, errors.Errorf("image value %d is %v, outside [0,1]", i, v)
		}
	}
	backing := make([]float64, len(data))
	copy(backing, data)
	t := tensor.New(tensor.Of(tensor.Float64), tensor.WithShape(Channels, rows, cols), tensor.WithBacking(backing))
	return &Image{rows: rows, cols: cols, t: t}, nil
}

// FromImage converts a decoded image, dividing 8-bit channels by 255.
func FromImage(img image.Image) *Image {
	bounds := img.Bounds()
	rows, cols := bounds.Dy(), bounds.Dx()
	plane := rows * cols
	norm := make([]float64, Channels*plane)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			c := color.NRGBAModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.NRGBA)
			i := y*cols + x
			norm[i] = float64(c.R) / 255.0
			norm[plane+i] = float64(c.G) / 255.0
			norm[2*plane+i] = float64(c.B) / 255.0
		}
	}
	t := tensor.New(tensor.Of(tensor.Float64), tensor.WithShape(Channels, rows, cols), tensor.WithBacking(norm))
	return &Image{rows: rows, cols: cols, t: t}
}

func (im *Image) Rows() int { return im.rows }
func (im *Image) Cols() int { return im.cols }

// Tensor exposes the (3, rows, cols) backing tensor.
func (im *Image) Tensor() *tensor.Dense { return im.t }

// Pixel returns the RGB value at (row, col).
func (im *Image) Pixel(row, col int) [Channels]float64 {
	if row < 0 || row >= im.rows || col < 0 || col >= im.cols {
		panic(errors.Errorf("pixel (%d,%d) outside %dx%d image", row, col, im.rows, im.cols))
	}
	var px [Channels]float64
	for c := range px {
		v, err := im.t.At(c, row, col)
		if err != nil {
			panic(errors.Wrapf(err, "pixel (%d,%d) channel %d", row, col, c))
		}
		px[c] = v.(float64)
	}
	return px
}
