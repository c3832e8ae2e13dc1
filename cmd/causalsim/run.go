package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vovakirdan/causal-sim/internal/core"
	"github.com/vovakirdan/causal-sim/internal/platform/tui"
	"github.com/vovakirdan/causal-sim/internal/recorder"
	"github.com/vovakirdan/causal-sim/internal/scenarios"
	"github.com/vovakirdan/causal-sim/internal/sim"
	"github.com/vovakirdan/causal-sim/internal/storage"
)

var (
	flagRecord   bool
	flagStateDir string
	flagLogFile  string
)

var runCmd = &cobra.Command{
	Use:   "run [scenario]",
	Short: "Watch and control a simulation",
	Long: `Open the terminal viewer on a scenario (default: causal).

The simulation starts paused in its initial state.

Controls:
  S          - Start
  Space/P    - Pause/resume
  R          - Restart with fresh initial velocities
  W          - Write the current state to simulation_state_<tick>.json
  ?          - Toggle full help
  Q/Ctrl+C   - Quit

With --record every snapshot is persisted to the runs database while you
watch. A restart begins a new run.

Examples:
  causalsim run
  causalsim run headon --seed 42
  causalsim run --record --state-dir ./states
  causalsim run --config ./my-layout.yaml --log-file sim.log`,
	Args: cobra.MaximumNArgs(1),
	Run:  runRun,
}

func init() {
	runCmd.Flags().BoolVar(&flagRecord, "record", false, "Persist every snapshot to the runs database")
	runCmd.Flags().StringVar(&flagStateDir, "state-dir", ".", "Directory for state files written with W")
	runCmd.Flags().StringVar(&flagLogFile, "log-file", "", "Write logs to this file (the viewer owns the terminal)")
}

func runRun(cmd *cobra.Command, args []string) {
	logger := log.New(io.Discard)
	if flagLogFile != "" {
		f, err := os.OpenFile(flagLogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening log file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		logger = newLogger(f, "causalsim")
	}

	loaded := loadScenario(scenarioArg(args), logger)

	clock, err := sim.NewClock(loaded.Setup)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating simulation: %v\n", err)
		os.Exit(1)
	}

	width, height := terminalSize()
	cfg := core.RuntimeConfig{
		ScreenW:  width,
		ScreenH:  height,
		TickRate: flagFPS,
		Seed:     loaded.Setup.Seed,
	}

	opts := []tui.Option{
		tui.WithTitle(scenarioTitle(loaded)),
		tui.WithStateDir(flagStateDir),
		tui.WithLogger(logger),
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	var rec *recorder.Recorder
	if flagRecord {
		store, openErr := storage.Open(flagDBPath)
		if openErr != nil {
			fmt.Fprintf(os.Stderr, "Error opening runs database: %v\n", openErr)
			os.Exit(1)
		}
		defer store.Close()

		rec = recorder.New(store, clock.Stream(), loaded.ID, loaded.Setup.Seed, recorder.WithLogger(logger))
		opts = append(opts, tui.WithRecorder(rec))
		g.Go(func() error {
			return rec.Run(gctx, 100*time.Millisecond)
		})
	}

	runErr := tui.Run(clock, cfg, opts...)
	cancel()
	recErr := g.Wait()

	if err := clock.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "Simulation stopped: %v\n", err)
	}
	if rec != nil {
		for _, run := range rec.Runs() {
			fmt.Printf("Recorded run %s (epoch %d)\n", run.ID, run.Epoch)
		}
		fmt.Printf("%d snapshots saved to %s\n", rec.Saved(), flagDBPath)
	}

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "Error running viewer: %v\n", runErr)
		os.Exit(1)
	}
	if recErr != nil {
		fmt.Fprintf(os.Stderr, "Error recording: %v\n", recErr)
		os.Exit(1)
	}
}

// scenarioTitle returns the configured title, falling back to the id.
func scenarioTitle(loaded scenarios.Loaded) string {
	if loaded.Config.Title != "" {
		return loaded.Config.Title
	}
	return loaded.ID
}
