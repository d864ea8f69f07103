package main

import (
	"encoding/json"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"pixelfit/neuralnet"
	"pixelfit/pixels"
)

// snapshotLayout names the per-run snapshot folder after the start time.
const snapshotLayout = "2006-01-02 15-04-05"

func loadImage(path string) (*pixels.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open image")
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, errors.Wrapf(err, "decode image %s", path)
	}
	if img.Bounds().Empty() {
		return nil, errors.Errorf("image %s is empty", path)
	}
	return pixels.FromImage(img), nil
}

// loadLayers reads weights as [layer][row][col] and biases as [layer][row].
func loadLayers(weightsPath, biasesPath string) ([]*neuralnet.Layer, error) {
	var weights [][][]float64
	if err := readJSON(weightsPath, &weights); err != nil {
		return nil, err
	}
	var biases [][]float64
	if err := readJSON(biasesPath, &biases); err != nil {
		return nil, err
	}
	if len(weights) != len(biases) {
		return nil, errors.Wrapf(neuralnet.ErrMalformed, "%d weight layers but %d bias layers", len(weights), len(biases))
	}
	layers := make([]*neuralnet.Layer, len(weights))
	for i := range weights {
		l, err := neuralnet.NewLayer(weights[i], biases[i])
		if err != nil {
			return nil, errors.Wrapf(err, "layer %d", i)
		}
		layers[i] = l
	}
	return layers, nil
}

func readJSON(path string, v interface{}) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "read %s", path)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return errors.Wrapf(err, "parse %s", path)
	}
	return nil
}

// snapshotDir writes PNG snapshots into one folder per run.
type snapshotDir struct {
	dir string
	now func() time.Time
}

func newSnapshotDir(root string, started time.Time) *snapshotDir {
	return &snapshotDir{
		dir: filepath.Join(root, started.Format(snapshotLayout)),
		now: time.Now,
	}
}

func (s *snapshotDir) WriteSnapshot(cycle uint64, loss float64, img *image.NRGBA) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", errors.Wrap(err, "create snapshot folder")
	}
	name := fmt.Sprintf("snapshot-%d-%s.png", s.now().UnixNano(), strconv.FormatFloat(loss, 'f', -1, 64))
	path := filepath.Join(s.dir, name)

	file, err := os.Create(path)
	if err != nil {
		return "", errors.Wrap(err, "create snapshot")
	}
	if err := png.Encode(file, img); err != nil {
		file.Close()
		return "", errors.Wrapf(err, "encode snapshot for cycle %d", cycle)
	}
	if err := file.Close(); err != nil {
		return "", errors.Wrap(err, "close snapshot")
	}
	return path, nil
}
