package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vovakirdan/causal-sim/internal/sim"
)

// StateFileName returns the file name used for a state dump at a tick.
func StateFileName(tick uint64) string {
	return fmt.Sprintf("simulation_state_%d.json", tick)
}

// WriteStateFile writes a snapshot as indented JSON into dir and returns
// the path of the file.
func WriteStateFile(dir string, snap sim.Snapshot) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", fmt.Errorf("storage: cannot encode snapshot: %w", err)
	}

	path := filepath.Join(dir, StateFileName(snap.Tick))
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return "", fmt.Errorf("storage: cannot write %s: %w", path, err)
	}
	return path, nil
}

// ReadStateFile reads a snapshot written by WriteStateFile.
func ReadStateFile(path string) (sim.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return sim.Snapshot{}, fmt.Errorf("storage: cannot read %s: %w", path, err)
	}

	var snap sim.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return sim.Snapshot{}, fmt.Errorf("storage: cannot decode %s: %w", path, err)
	}
	return snap, nil
}
