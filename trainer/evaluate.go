package trainer

import (
	"image"
	"image/color"

	"pixelfit/neuralnet"
	"pixelfit/pixels"
)

// Evaluation is the result of one pass over the whole grid.
type Evaluation struct {
	Loss  float64
	Image *image.NRGBA
}

// Evaluate predicts every pixel of img, sums 0.5*||output - target||² and
// renders the ReLU outputs with full opacity.
func Evaluate(nn *neuralnet.NeuralNetwork, img *pixels.Image, coords pixels.Coordinates) Evaluation {
	rows, cols := img.Rows(), img.Cols()
	out := image.NewNRGBA(image.Rect(0, 0, cols, rows))
	loss := neuralnet.SquaredError{}
	var total float64
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			in := coords.GridInput(row, col, rows, cols)
			output, activated := nn.Predict(in[:])
			target := img.Pixel(row, col)
			total += loss.Compute(output.RawVector().Data, target[:])

			out.SetNRGBA(col, row, color.NRGBA{
				R: toByte(activated.AtVec(0)),
				G: toByte(activated.AtVec(1)),
				B: toByte(activated.AtVec(2)),
				A: 255,
			})
		}
	}
	return Evaluation{Loss: total, Image: out}
}

// toByte scales [0,1] to [0,255], truncating and saturating.
func toByte(v float64) uint8 {
	v *= 255
	if !(v > 0) {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v)
}
