package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/vovakirdan/causal-sim/internal/sim"
)

// SaveSnapshots stores snapshots of a run in one transaction. Re-saving a
// tick replaces it, so a recorder may safely retry a batch.
func (s *Store) SaveSnapshots(runID string, snaps []sim.Snapshot) error {
	if len(snaps) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("storage: cannot begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.Prepare("INSERT OR REPLACE INTO snapshots (run_id, tick, hash, payload) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("storage: cannot prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, snap := range snaps {
		payload, err := json.Marshal(snap)
		if err != nil {
			return fmt.Errorf("storage: cannot encode snapshot %d: %w", snap.Tick, err)
		}
		if _, err := stmt.Exec(runID, int64(snap.Tick), formatHash(snap.Hash()), string(payload)); err != nil {
			return fmt.Errorf("storage: cannot save snapshot %d: %w", snap.Tick, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage: cannot commit snapshots: %w", err)
	}
	return nil
}

// EachSnapshot calls fn with the raw JSON of every stored snapshot of a run
// with tick >= since, in tick order. It stops at the first error fn returns.
func (s *Store) EachSnapshot(runID string, since uint64, fn func(tick uint64, payload []byte) error) error {
	rows, err := s.db.Query(
		`SELECT tick, payload FROM snapshots
		 WHERE run_id = ? AND tick >= ?
		 ORDER BY tick`,
		runID, int64(since),
	)
	if err != nil {
		return fmt.Errorf("storage: cannot query snapshots: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var tick int64
		var payload string
		if err := rows.Scan(&tick, &payload); err != nil {
			return fmt.Errorf("storage: cannot scan row: %w", err)
		}
		if err := fn(uint64(tick), []byte(payload)); err != nil {
			return err
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("storage: row iteration error: %w", err)
	}
	return nil
}

// Snapshots decodes up to limit snapshots of a run with tick >= since.
// Each one is checked against its stored hash. A limit <= 0 means all.
func (s *Store) Snapshots(runID string, since uint64, limit int) ([]sim.Snapshot, error) {
	query := `SELECT hash, payload FROM snapshots
		 WHERE run_id = ? AND tick >= ?
		 ORDER BY tick`
	args := []any{runID, int64(since)}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []sim.Snapshot
	for rows.Next() {
		var hash, payload string
		if err := rows.Scan(&hash, &payload); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		snap, err := decodeSnapshot(hash, payload)
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, snap)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}
	return snaps, nil
}

// LatestSnapshot returns the highest-tick snapshot of a run.
func (s *Store) LatestSnapshot(runID string) (sim.Snapshot, bool, error) {
	var hash, payload string
	err := s.db.QueryRow(
		`SELECT hash, payload FROM snapshots
		 WHERE run_id = ?
		 ORDER BY tick DESC
		 LIMIT 1`,
		runID,
	).Scan(&hash, &payload)
	if err != nil {
		if err == sql.ErrNoRows {
			return sim.Snapshot{}, false, nil
		}
		return sim.Snapshot{}, false, fmt.Errorf("storage: cannot query latest snapshot: %w", err)
	}

	snap, err := decodeSnapshot(hash, payload)
	if err != nil {
		return sim.Snapshot{}, false, err
	}
	return snap, true, nil
}

func decodeSnapshot(hash, payload string) (sim.Snapshot, error) {
	var snap sim.Snapshot
	if err := json.Unmarshal([]byte(payload), &snap); err != nil {
		return sim.Snapshot{}, fmt.Errorf("storage: cannot decode snapshot: %w", err)
	}
	if got := formatHash(snap.Hash()); got != hash {
		return sim.Snapshot{}, fmt.Errorf("storage: snapshot %d is corrupt: hash %s, stored %s", snap.Tick, got, hash)
	}
	return snap, nil
}

func formatHash(h uint64) string {
	return strconv.FormatUint(h, 16)
}
