package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vovakirdan/causal-sim/internal/observability"
	"github.com/vovakirdan/causal-sim/internal/recorder"
	"github.com/vovakirdan/causal-sim/internal/sim"
	"github.com/vovakirdan/causal-sim/internal/storage"
)

var (
	flagTicks         int
	flagRealtime      bool
	flagRecordState   string
	flagMetricsAddr   string
	flagDrainInterval time.Duration
	flagBatchSize     int
)

var recordCmd = &cobra.Command{
	Use:   "record [scenario]",
	Short: "Record a simulation headlessly",
	Long: `Run a scenario (default: causal) without a viewer and persist every
snapshot to the runs database.

The simulation runs as fast as possible unless --realtime is set, in which
case it advances at --fps. The recorder drains the snapshot stream on its own
schedule, so a slow database never slows the simulation down.

Examples:
  causalsim record --ticks 10000
  causalsim record headon --seed 7 --state-dir ./states
  causalsim record --ticks 0 --realtime --metrics :9090   # until Ctrl+C`,
	Args: cobra.MaximumNArgs(1),
	Run:  runRecord,
}

func init() {
	recordCmd.Flags().IntVar(&flagTicks, "ticks", 1000, "Number of ticks to simulate (0 = until interrupted)")
	recordCmd.Flags().BoolVar(&flagRealtime, "realtime", false, "Advance at --fps instead of as fast as possible")
	recordCmd.Flags().StringVar(&flagRecordState, "state-dir", "", "Write the final state file to this directory")
	recordCmd.Flags().StringVar(&flagMetricsAddr, "metrics", "", "Expose Prometheus metrics on this address (e.g. :9090)")
	recordCmd.Flags().DurationVar(&flagDrainInterval, "drain-interval", 100*time.Millisecond, "How often the recorder drains the stream")
	recordCmd.Flags().IntVar(&flagBatchSize, "batch", 500, "Snapshots written per transaction")
}

func runRecord(cmd *cobra.Command, args []string) {
	logger := newLogger(os.Stderr, "causalsim")
	loaded := loadScenario(scenarioArg(args), logger)

	var collector *observability.Collector
	var clockOpts []sim.ClockOption
	if flagMetricsAddr != "" {
		c, err := observability.NewCollector(nil)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error registering metrics: %v\n", err)
			os.Exit(1)
		}
		collector = c
		clockOpts = append(clockOpts, sim.WithObserver(collector.ObserveStep))
	}

	clock, err := sim.NewClock(loaded.Setup, clockOpts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating simulation: %v\n", err)
		os.Exit(1)
	}

	store, err := storage.Open(flagDBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening runs database: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	rec := recorder.New(store, clock.Stream(), loaded.ID, loaded.Setup.Seed,
		recorder.WithLogger(logger),
		recorder.WithBatchSize(flagBatchSize),
		recorder.WithSaveHook(collector.ObservePersisted),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Consumers stop once the producer is done, after a final drain.
	done, finish := context.WithCancel(ctx)
	defer finish()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer finish()
		return produce(gctx, clock, collector)
	})
	g.Go(func() error {
		return rec.Run(done, flagDrainInterval)
	})
	if collector != nil {
		g.Go(func() error {
			return serveMetrics(done, flagMetricsAddr, collector, logger)
		})
	}

	logger.Info("recording",
		"scenario", loaded.ID,
		"seed", loaded.Setup.Seed,
		"ticks", flagTicks,
		"db", flagDBPath,
	)
	start := time.Now()
	waitErr := g.Wait()

	latest, ok := clock.Stream().Latest()
	if ok {
		logger.Info("recording finished",
			"tick", latest.Tick,
			"saved", rec.Saved(),
			"elapsed", time.Since(start).Round(time.Millisecond),
			"hash", fmt.Sprintf("%016x", latest.Hash()),
		)
	}
	for _, run := range rec.Runs() {
		fmt.Println(run.ID)
	}

	if ok && flagRecordState != "" {
		path, err := storage.WriteStateFile(flagRecordState, latest)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error writing state file: %v\n", err)
			os.Exit(1)
		}
		logger.Info("state saved", "path", path)
	}

	if waitErr != nil {
		fmt.Fprintf(os.Stderr, "Error recording: %v\n", waitErr)
		os.Exit(1)
	}
}

// produce advances the clock until the tick budget is spent, the clock stops
// or ctx is done. An interrupt ends the recording cleanly.
func produce(ctx context.Context, clock *sim.Clock, collector *observability.Collector) error {
	clock.Start()
	defer clock.Stop()

	var pace <-chan time.Time
	if flagRealtime && flagFPS > 0 {
		ticker := time.NewTicker(time.Second / time.Duration(flagFPS))
		defer ticker.Stop()
		pace = ticker.C
	}

	for n := 0; flagTicks == 0 || n < flagTicks; n++ {
		if pace != nil {
			select {
			case <-ctx.Done():
				return nil
			case <-pace:
			}
		} else if ctx.Err() != nil {
			return nil
		}

		if _, _, err := clock.Advance(); err != nil {
			return err
		}
		collector.SetStreamLength(clock.Stream().Len())
	}
	return nil
}
