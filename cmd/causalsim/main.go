// causalsim runs a causal 2D collision simulation in the terminal and records
// its per-tick state for offline learning.
//
// Usage:
//
//	causalsim list                  - List available scenarios
//	causalsim run [scenario]        - Watch and control a simulation
//	causalsim record [scenario]     - Record a simulation headlessly
//	causalsim runs                  - List recorded runs
//	causalsim export <run-id>       - Export a recorded run as JSON lines
//	causalsim serve                 - Start SSH server for remote viewing
//
// Global flags:
//
//	--fps <rate>        - Set tick rate (default: 60)
//	--seed <value>      - Set RNG seed for reproducible initial velocities
//	--db <path>         - Set database path (default: ~/.causalsim/runs.db)
//	--config <path>     - Use a custom scenario YAML
//	--log-level <level> - debug, info, warn or error (default: info)
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/causal-sim/internal/scenarios"
)

const defaultScenario = "causal"

var (
	// Global flags
	flagFPS      int
	flagSeed     int64
	flagDBPath   string
	flagConfig   string
	flagLogLevel string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "causalsim",
	Short: "Causal collision simulation for the terminal",
	Long: `causalsim advances a bounded 2D world of axis-aligned blocks one tick at
a time. Blocks move in straight lines and bounce off edges, static blocks and
each other with conserved speed. Every tick is available as an immutable
snapshot that can be watched live or recorded for offline learning.

Available commands:
  list     - Show all available scenarios
  run      - Watch and control a simulation
  record   - Record a simulation headlessly
  runs     - List or browse recorded runs
  export   - Export a recorded run as JSON lines
  serve    - Start SSH server for remote viewing

Examples:
  causalsim list
  causalsim run
  causalsim run headon --seed 42 --record
  causalsim record causal --ticks 5000 --metrics :9090
  causalsim runs --browse
  causalsim export 3f2c9a1e-... > run.jsonl
  causalsim serve --ssh :23235`,
	SilenceUsage: true,
}

func init() {
	// Global persistent flags
	rootCmd.PersistentFlags().IntVar(&flagFPS, "fps", 60, "Tick rate (ticks per second)")
	rootCmd.PersistentFlags().Int64Var(&flagSeed, "seed", 0, "RNG seed (0 = scenario seed, or time based)")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "~/.causalsim/runs.db", "Path to runs database")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to custom scenario config YAML")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level: debug, info, warn, error")

	// Add subcommands
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(recordCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(serveCmd)
}

// newLogger creates a logger writing to w at the level given by --log-level.
func newLogger(w io.Writer, prefix string) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Prefix:          prefix,
	})
	level, err := log.ParseLevel(flagLogLevel)
	if err != nil {
		logger.Warn("unknown log level, using info", "level", flagLogLevel)
		level = log.InfoLevel
	}
	logger.SetLevel(level)
	return logger
}

// scenarioArg returns the scenario named on the command line, or the default.
func scenarioArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return defaultScenario
}

// loadScenario resolves a scenario and logs its configuration warnings.
func loadScenario(id string, logger *log.Logger) scenarios.Loaded {
	loaded, err := scenarios.Load(id, flagConfig, flagSeed)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		fmt.Fprintln(os.Stderr, "Run 'causalsim list' to see available scenarios.")
		os.Exit(1)
	}
	for _, w := range loaded.Config.Warnings() {
		logger.Warn(w, "scenario", id)
	}
	logger.Debug("scenario loaded",
		"scenario", id,
		"source", loaded.Config.Source,
		"seed", loaded.Setup.Seed,
		"bodies", len(loaded.Setup.Bodies),
	)
	return loaded
}

// terminalSize returns the size of the terminal on stdout, or 80x24.
func terminalSize() (int, int) {
	width, height := 80, 24
	if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		width = w
		height = h
	}
	return width, height
}
