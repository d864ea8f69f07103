package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"pixelfit/pixels"
)

// Config captures the runtime knobs for a training run.
type Config struct {
	Image        string  `yaml:"image"`
	Weights      string  `yaml:"weights"`
	Biases       string  `yaml:"biases"`
	OutputDir    string  `yaml:"output_dir"`
	BatchSize    int     `yaml:"batch_size"`
	LearningRate float64 `yaml:"learning_rate"`
	Momentum     float64 `yaml:"momentum"`
	EvalEvery    int     `yaml:"eval_every"`
	LogEvery     int     `yaml:"log_every"`
	Seed         int64   `yaml:"seed"`
	Cycles       uint64  `yaml:"cycles"`
	Coordinates  string  `yaml:"coordinates"`
	HistoryDB    string  `yaml:"history_db"`
}

// Overrides captures CLI supplied values.
type Overrides struct {
	Image        string
	Weights      string
	Biases       string
	OutputDir    string
	BatchSize    int
	LearningRate float64
	// Momentum is a pointer so an explicit zero still overrides the file.
	Momentum     *float64
	EvalEvery    int
	LogEvery     int
	Seed         int64
	Cycles       uint64
	Coordinates  string
	HistoryDB    string
}

// Default returns the settings the trainer was tuned with.
func Default() *Config {
	return &Config{
		Image:        "Kitty.png",
		Weights:      "Weights.json",
		Biases:       "Biases.json",
		OutputDir:    ".",
		BatchSize:    5,
		LearningRate: 0.01,
		Momentum:     0.9,
		EvalEvery:    100,
		LogEvery:     50,
		Coordinates:  pixels.Legacy.String(),
	}
}

// Load reads a YAML file over the defaults and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "open config")
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, errors.Wrap(err, "parse config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOptional is Load for a path nobody asked for explicitly: a missing
// file yields the defaults.
func LoadOptional(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := Default()
		return cfg, cfg.Validate()
	}
	return Load(path)
}

// ApplyOverrides updates c using any non-zero override.
func (c *Config) ApplyOverrides(o Overrides) {
	if o.Image != "" {
		c.Image = o.Image
	}
	if o.Weights != "" {
		c.Weights = o.Weights
	}
	if o.Biases != "" {
		c.Biases = o.Biases
	}
	if o.OutputDir != "" {
		c.OutputDir = o.OutputDir
	}
	if o.BatchSize > 0 {
		c.BatchSize = o.BatchSize
	}
	if o.LearningRate > 0 {
		c.LearningRate = o.LearningRate
	}
	if o.Momentum != nil {
		c.Momentum = *o.Momentum
	}
	if o.EvalEvery > 0 {
		c.EvalEvery = o.EvalEvery
	}
	if o.LogEvery > 0 {
		c.LogEvery = o.LogEvery
	}
	if o.Seed != 0 {
		c.Seed = o.Seed
	}
	if o.Cycles > 0 {
		c.Cycles = o.Cycles
	}
	if o.Coordinates != "" {
		c.Coordinates = o.Coordinates
	}
	if o.HistoryDB != "" {
		c.HistoryDB = o.HistoryDB
	}
}

// Validate verifies the config is runnable.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.Image == "" {
		return errors.New("image must be set")
	}
	if c.Weights == "" || c.Biases == "" {
		return errors.New("weights and biases must both be set")
	}
	if c.BatchSize <= 0 {
		return errors.Errorf("batch_size must be > 0 (got %d)", c.BatchSize)
	}
	if c.LearningRate <= 0 {
		return errors.Errorf("learning_rate must be > 0 (got %v)", c.LearningRate)
	}
	if c.Momentum < 0 || c.Momentum >= 1 {
		return errors.Errorf("momentum must be in [0,1) (got %v)", c.Momentum)
	}
	if c.EvalEvery <= 0 {
		c.EvalEvery = 100
	}
	if c.LogEvery <= 0 {
		c.LogEvery = 50
	}
	if _, err := pixels.ParseCoordinates(c.Coordinates); err != nil {
		return err
	}
	if c.OutputDir == "" {
		c.OutputDir = "."
	}
	return nil
}

// CoordinateMode returns the parsed coordinates setting.
func (c *Config) CoordinateMode() pixels.Coordinates {
	mode, _ := pixels.ParseCoordinates(c.Coordinates)
	return mode
}
