package main

import (
	"context"
	"flag"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"

	"pixelfit/config"
	"pixelfit/history"
	"pixelfit/neuralnet"
	"pixelfit/pixels"
	"pixelfit/trainer"
)

func main() {
	cfgPath := flag.String("config", defaultConfig, "Path to YAML config")
	imagePath := flag.String("image", "", "Reference image")
	weightsPath := flag.String("weights", "", "Initial weights JSON")
	biasesPath := flag.String("biases", "", "Initial biases JSON")
	outDir := flag.String("out", "", "Directory for snapshot folders")
	batchSize := flag.Int("batch-size", 0, "Samples per cycle")
	learningRate := flag.Float64("lr", 0, "Learning rate")
	momentum := flag.Float64("momentum", 0, "Momentum coefficient")
	evalEvery := flag.Int("eval-every", 0, "Render the full image every N cycles")
	logEvery := flag.Int("log-every", 0, "Log batch loss every N cycles (default 50)")
	seed := flag.Int64("seed", 0, "PRNG seed (default: current time)")
	cycles := flag.Uint64("cycles", 0, "Stop after N cycles (default: run until interrupted)")
	coordinates := flag.String("coordinates", "", "Coordinate normalisation: legacy or consistent")
	historyDB := flag.String("history", "", "SQLite file recording evaluation losses")

	flag.Parse()

	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	cfg, err := loadConfig(*cfgPath, set["config"])
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	overrides := config.Overrides{
		Image:        *imagePath,
		Weights:      *weightsPath,
		Biases:       *biasesPath,
		OutputDir:    *outDir,
		BatchSize:    *batchSize,
		LearningRate: *learningRate,
		EvalEvery:    *evalEvery,
		LogEvery:     *logEvery,
		Seed:         *seed,
		Cycles:       *cycles,
		Coordinates:  *coordinates,
		HistoryDB:    *historyDB,
	}
	if set["momentum"] {
		overrides.Momentum = momentum
	}
	cfg.ApplyOverrides(overrides)

	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, cfg, time.Now())
	stop()
	if err != nil {
		log.Fatalf("training failed: %v", err)
	}
}

const defaultConfig = "pixelfit.yaml"

// loadConfig only tolerates a missing file when the path was not given
// explicitly.
func loadConfig(path string, explicit bool) (*config.Config, error) {
	if explicit {
		return config.Load(path)
	}
	return config.LoadOptional(path)
}

// run builds every collaborator from cfg and trains until ctx is done or
// cfg.Cycles is reached. Everything it opens is closed before it returns.
func run(ctx context.Context, cfg *config.Config, started time.Time) error {
	if cfg.Seed == 0 {
		cfg.Seed = started.UnixNano()
	}

	img, err := loadImage(cfg.Image)
	if err != nil {
		return errors.Wrap(err, "load image")
	}
	layers, err := loadLayers(cfg.Weights, cfg.Biases)
	if err != nil {
		return errors.Wrap(err, "load parameters")
	}
	nn, err := neuralnet.New(layers...)
	if err != nil {
		return errors.Wrap(err, "build network")
	}
	log.Printf("image=%s rows=%d cols=%d layers=%d seed=%d coordinates=%s",
		cfg.Image, img.Rows(), img.Cols(), nn.Len(), cfg.Seed, cfg.Coordinates)

	coords := cfg.CoordinateMode()
	sampler, err := pixels.NewSampler(img, coords, rand.New(rand.NewSource(cfg.Seed)))
	if err != nil {
		return errors.Wrap(err, "build sampler")
	}

	var progress trainer.ProgressSink = trainer.LogProgress{}
	if cfg.HistoryDB != "" {
		store, err := history.Open(cfg.HistoryDB)
		if err != nil {
			return err
		}
		defer store.Close()
		runID, err := store.StartRun(history.RunInfo{
			Image:        cfg.Image,
			BatchSize:    cfg.BatchSize,
			LearningRate: cfg.LearningRate,
			Momentum:     cfg.Momentum,
			Seed:         cfg.Seed,
			Coordinates:  coords.String(),
		})
		if err != nil {
			return errors.Wrap(err, "start run")
		}
		log.Printf("run=%s history=%s", runID, cfg.HistoryDB)
		progress = trainer.MultiProgress(progress, store.Sink(runID))
	}

	tr, err := trainer.New(nn, sampler, img, trainer.Options{
		BatchSize:    cfg.BatchSize,
		LearningRate: cfg.LearningRate,
		Momentum:     cfg.Momentum,
		EvalEvery:    cfg.EvalEvery,
		LogEvery:     cfg.LogEvery,
		Coordinates:  coords,
		MaxCycles:    cfg.Cycles,
		Snapshots:    newSnapshotDir(cfg.OutputDir, started),
		Progress:     progress,
	})
	if err != nil {
		return errors.Wrap(err, "build trainer")
	}

	if err := tr.Run(ctx); err != nil {
		return err
	}
	log.Printf("stopped after %d cycles", tr.State().Cycle)
	return nil
}
