package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/causal-sim/internal/registry"
)

func TestScenarioArg(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{nil, defaultScenario},
		{[]string{"headon"}, "headon"},
	}
	for _, tt := range tests {
		if got := scenarioArg(tt.args); got != tt.want {
			t.Errorf("scenarioArg(%v) = %q, want %q", tt.args, got, tt.want)
		}
	}
}

func TestDefaultScenarioIsRegistered(t *testing.T) {
	if !registry.Exists(defaultScenario) {
		t.Fatalf("default scenario %q is not registered", defaultScenario)
	}
}

func TestPortOf(t *testing.T) {
	tests := []struct {
		addr string
		want string
	}{
		{":23235", "23235"},
		{"0.0.0.0:2222", "2222"},
		{"[::1]:22", "22"},
		{"nonsense", "nonsense"},
	}
	for _, tt := range tests {
		if got := portOf(tt.addr); got != tt.want {
			t.Errorf("portOf(%q) = %q, want %q", tt.addr, got, tt.want)
		}
	}
}

func TestNewLoggerLevel(t *testing.T) {
	old := flagLogLevel
	t.Cleanup(func() { flagLogLevel = old })

	tests := []struct {
		level string
		want  log.Level
	}{
		{"debug", log.DebugLevel},
		{"warn", log.WarnLevel},
		{"bogus", log.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			flagLogLevel = tt.level
			var buf bytes.Buffer
			logger := newLogger(&buf, "test")
			if got := logger.GetLevel(); got != tt.want {
				t.Errorf("level = %v, want %v", got, tt.want)
			}
			if tt.level == "bogus" && !strings.Contains(buf.String(), "unknown log level") {
				t.Error("unknown level was not reported")
			}
		})
	}
}

func TestSubcommandsRegistered(t *testing.T) {
	want := []string{"list", "run", "record", "runs", "export", "serve"}
	for _, name := range want {
		cmd, _, err := rootCmd.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}
