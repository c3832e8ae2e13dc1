package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vovakirdan/causal-sim/internal/sim"
)

// ErrRunNotFound is returned when a run id is unknown.
var ErrRunNotFound = errors.New("storage: run not found")

// Run is one recorded simulation, from a fresh start to either the end of
// recording or the next restart.
type Run struct {
	ID        string
	Scenario  string
	Seed      int64
	Epoch     uint64 // restarts of the same clock before this run
	Context   sim.Context
	CreatedAt time.Time

	// Filled by queries that aggregate snapshots.
	Snapshots int
	LastTick  uint64
}

// CreateRun records the start of a run and returns it with a fresh id.
// Together with the seed, the epoch identifies the initial velocities: the
// run starts after epoch restarts of a clock seeded with seed.
func (s *Store) CreateRun(scenario string, seed int64, epoch uint64, ctx sim.Context) (Run, error) {
	run := Run{
		ID:        uuid.NewString(),
		Scenario:  scenario,
		Seed:      seed,
		Epoch:     epoch,
		Context:   ctx,
		CreatedAt: time.Now().UTC(),
	}

	_, err := s.db.Exec(
		"INSERT INTO runs (id, scenario, seed, epoch, width, height, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		run.ID, run.Scenario, run.Seed, int64(epoch), ctx.Width, ctx.Height, run.CreatedAt.Format("2006-01-02 15:04:05"),
	)
	if err != nil {
		return Run{}, fmt.Errorf("storage: cannot create run: %w", err)
	}
	return run, nil
}

const runColumns = `r.id, r.scenario, r.seed, r.epoch, r.width, r.height, r.created_at,
	COUNT(s.tick), COALESCE(MAX(s.tick), 0)`

// GetRun retrieves a run by id.
func (s *Store) GetRun(id string) (Run, error) {
	row := s.db.QueryRow(
		`SELECT `+runColumns+`
		 FROM runs r LEFT JOIN snapshots s ON s.run_id = r.id
		 WHERE r.id = ?
		 GROUP BY r.id`,
		id,
	)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return Run{}, fmt.Errorf("storage: cannot query run: %w", err)
	}
	return run, nil
}

// ListRuns retrieves the most recent runs, optionally for one scenario.
func (s *Store) ListRuns(scenario string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(
		`SELECT `+runColumns+`
		 FROM runs r LEFT JOIN snapshots s ON s.run_id = r.id
		 WHERE ? = '' OR r.scenario = ?
		 GROUP BY r.id
		 ORDER BY r.created_at DESC, r.rowid DESC
		 LIMIT ?`,
		scenario, scenario, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return runs, nil
}

// DeleteRun removes a run and all of its snapshots.
func (s *Store) DeleteRun(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("storage: cannot begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.Exec("DELETE FROM snapshots WHERE run_id = ?", id); err != nil {
		return fmt.Errorf("storage: cannot delete snapshots: %w", err)
	}
	res, err := tx.Exec("DELETE FROM runs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("storage: cannot delete run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return tx.Commit()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var run Run
	var createdAt any
	var epoch, lastTick int64
	if err := sc.Scan(
		&run.ID,
		&run.Scenario,
		&run.Seed,
		&epoch,
		&run.Context.Width,
		&run.Context.Height,
		&createdAt,
		&run.Snapshots,
		&lastTick,
	); err != nil {
		return Run{}, err
	}
	run.CreatedAt = parseTime(createdAt)
	run.Epoch = uint64(epoch)
	run.LastTick = uint64(lastTick)
	return run, nil
}
