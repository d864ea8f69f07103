// Package history keeps a SQLite record of runs and their evaluation losses.
package history

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"pixelfit/trainer"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id            TEXT PRIMARY KEY,
	started_at    INTEGER NOT NULL,
	image         TEXT NOT NULL,
	batch_size    INTEGER NOT NULL,
	learning_rate REAL NOT NULL,
	momentum      REAL NOT NULL,
	seed          INTEGER NOT NULL,
	coordinates   TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS evaluations (
	run_id   TEXT NOT NULL REFERENCES runs(id),
	cycle    INTEGER NOT NULL,
	loss     REAL NOT NULL,
	snapshot TEXT NOT NULL DEFAULT '',
	at       INTEGER NOT NULL,
	PRIMARY KEY (run_id, cycle)
);
`

// RunInfo describes a run when it starts.
type RunInfo struct {
	Image        string
	BatchSize    int
	LearningRate float64
	Momentum     float64
	Seed         int64
	Coordinates  string
}

// Evaluation is one stored full-grid loss.
type Evaluation struct {
	Cycle    uint64
	Loss     float64
	Snapshot string
}

// Store is a SQLite-backed run log.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (creating if needed) the database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, "open history %s", path)
	}
	// one writer; the trainer is single threaded anyway
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "create history schema")
	}
	return &Store{db: db, now: time.Now}, nil
}

// StartRun records a new run and returns its id.
func (s *Store) StartRun(info RunInfo) (string, error) {
	id := uuid.NewString()
	_, err := s.db.Exec(
		`INSERT INTO runs (id, started_at, image, batch_size, learning_rate, momentum, seed, coordinates)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, s.now().UnixNano(), info.Image, info.BatchSize, info.LearningRate, info.Momentum, info.Seed, info.Coordinates,
	)
	if err != nil {
		return "", errors.Wrap(err, "insert run")
	}
	return id, nil
}

// RecordEvaluation stores the loss of the evaluation at cycle.
func (s *Store) RecordEvaluation(runID string, cycle uint64, loss float64, snapshot string) error {
	_, err := s.db.Exec(
		`INSERT INTO evaluations (run_id, cycle, loss, snapshot, at) VALUES (?, ?, ?, ?, ?)`,
		runID, int64(cycle), loss, snapshot, s.now().UnixNano(),
	)
	return errors.Wrapf(err, "insert evaluation for cycle %d", cycle)
}

// Evaluations lists a run's evaluations in cycle order.
func (s *Store) Evaluations(runID string) ([]Evaluation, error) {
	rows, err := s.db.Query(
		`SELECT cycle, loss, snapshot FROM evaluations WHERE run_id = ? ORDER BY cycle`, runID)
	if err != nil {
		return nil, errors.Wrap(err, "query evaluations")
	}
	defer rows.Close()

	var out []Evaluation
	for rows.Next() {
		var (
			e     Evaluation
			cycle int64
		)
		if err := rows.Scan(&cycle, &e.Loss, &e.Snapshot); err != nil {
			return nil, errors.Wrap(err, "scan evaluation")
		}
		e.Cycle = uint64(cycle)
		out = append(out, e)
	}
	return out, errors.Wrap(rows.Err(), "read evaluations")
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Sink reports trainer progress into the store under runID.
func (s *Store) Sink(runID string) trainer.ProgressSink {
	return sink{store: s, runID: runID}
}

type sink struct {
	store *Store
	runID string
}

func (k sink) Report(p trainer.Progress) error {
	return k.store.RecordEvaluation(k.runID, p.Cycle, p.Loss, p.Snapshot)
}
