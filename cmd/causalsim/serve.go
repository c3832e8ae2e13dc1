package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vovakirdan/causal-sim/internal/observability"
	"github.com/vovakirdan/causal-sim/internal/platform/tui"
)

var (
	flagSSHAddr      string
	flagHostKey      string
	flagIdleTimeout  int
	flagServeMetrics string
)

var serveCmd = &cobra.Command{
	Use:   "serve [scenario]",
	Short: "Start the causalsim SSH server",
	Long: `Start an SSH server that lets users connect and watch a simulation.

Each SSH connection gets its own independent simulation of the scenario
(default: causal) with the same controls as 'causalsim run'. Unless --seed is
given, every session starts from its own random initial velocities.

Host key handling:
  - If --host-key is provided, uses that key file
  - Otherwise, auto-generates a key at ~/.causalsim/host_key

Examples:
  causalsim serve                           # Listen on :23235 with auto-generated key
  causalsim serve headon --ssh :2222        # Serve the head-on scenario on port 2222
  causalsim serve --metrics :9090           # Also expose Prometheus metrics

Users can connect with:
  ssh localhost -p 23235`,
	Args: cobra.MaximumNArgs(1),
	Run:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagSSHAddr, "ssh", ":23235", "SSH server address (host:port)")
	serveCmd.Flags().StringVar(&flagHostKey, "host-key", "", "Path to host key file (auto-generated if not specified)")
	serveCmd.Flags().IntVar(&flagIdleTimeout, "idle-timeout", 30, "Idle timeout in minutes before disconnecting")
	serveCmd.Flags().StringVar(&flagServeMetrics, "metrics", "", "Expose Prometheus metrics on this address (e.g. :9090)")
}

func runServe(_ *cobra.Command, args []string) {
	logger := newLogger(os.Stderr, "causalsim-ssh")

	var collector *observability.Collector
	if flagServeMetrics != "" {
		c, err := observability.NewCollector(nil)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error registering metrics: %v\n", err)
			os.Exit(1)
		}
		collector = c
	}

	cfg := tui.SSHServerConfig{
		Address:     flagSSHAddr,
		HostKeyPath: flagHostKey,
		Scenario:    scenarioArg(args),
		ConfigPath:  flagConfig,
		Seed:        flagSeed,
		TickRate:    flagFPS,
		IdleTimeout: time.Duration(flagIdleTimeout) * time.Minute,
		Metrics:     collector,
		Logger:      logger,
	}

	server, err := tui.NewSSHServer(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating server: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Starting causalsim SSH server on %s\n", cfg.Address)
	fmt.Printf("Connect with: ssh localhost -p %s\n", portOf(cfg.Address))
	fmt.Println("Press Ctrl+C to stop")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.ListenAndServe(gctx)
	})
	if collector != nil {
		g.Go(func() error {
			return serveMetrics(gctx, flagServeMetrics, collector, logger)
		})
	}

	if err := g.Wait(); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}

// portOf returns the port of a host:port address.
func portOf(addr string) string {
	if _, port, err := net.SplitHostPort(addr); err == nil {
		return port
	}
	return addr
}
