package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/causal-sim/internal/platform/tui"
	"github.com/vovakirdan/causal-sim/internal/registry"
	"github.com/vovakirdan/causal-sim/internal/storage"
)

var (
	flagRunsScenario string
	flagRunsLimit    int
	flagBrowse       bool
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded runs",
	Long: `Display the most recent runs stored in the runs database.

With --browse an interactive table opens instead, with a preview of each
run's last snapshot.

Examples:
  causalsim runs
  causalsim runs --scenario headon --limit 5
  causalsim runs --browse`,
	Args: cobra.NoArgs,
	Run:  runRuns,
}

func init() {
	runsCmd.Flags().StringVar(&flagRunsScenario, "scenario", "", "Only show runs of this scenario")
	runsCmd.Flags().IntVar(&flagRunsLimit, "limit", 20, "Maximum number of runs to list")
	runsCmd.Flags().BoolVar(&flagBrowse, "browse", false, "Open the interactive runs browser")
}

func runRuns(cmd *cobra.Command, args []string) {
	if flagRunsScenario != "" && !registry.Exists(flagRunsScenario) {
		fmt.Fprintf(os.Stderr, "Warning: %q is not a registered scenario\n", flagRunsScenario)
	}

	store, err := storage.Open(flagDBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening runs database: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	if flagBrowse {
		width, height := terminalSize()
		if err := tui.RunRunsBrowser(store, flagRunsScenario, width, height); err != nil {
			fmt.Fprintf(os.Stderr, "Error running browser: %v\n", err)
			os.Exit(1)
		}
		return
	}

	runs, err := store.ListRuns(flagRunsScenario, flagRunsLimit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error retrieving runs: %v\n", err)
		os.Exit(1)
	}

	if len(runs) == 0 {
		fmt.Println("No runs recorded yet.")
		fmt.Println()
		fmt.Println("Run 'causalsim record' to record one.")
		return
	}

	fmt.Printf("  %-36s  %-10s  %-20s  %-5s  %-8s  %s\n", "Run", "Scenario", "Seed", "Epoch", "Ticks", "Recorded")
	fmt.Printf("  %-36s  %-10s  %-20s  %-5s  %-8s  %s\n", "---", "--------", "----", "-----", "-----", "--------")

	for _, r := range runs {
		fmt.Printf("  %-36s  %-10s  %-20d  %-5d  %-8d  %s\n",
			r.ID, r.Scenario, r.Seed, r.Epoch, r.Snapshots, r.CreatedAt.Format("2006-01-02 15:04"))
	}

	fmt.Println()
	fmt.Println("Run 'causalsim export <run>' to export a run.")
}
