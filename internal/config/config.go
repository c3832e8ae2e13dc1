// Package config loads simulation scenarios from YAML: the context, the body
// layout, the speed and optionally the rule table.
package config

import (
	"errors"
	"fmt"

	"github.com/vovakirdan/causal-sim/internal/core"
	"github.com/vovakirdan/causal-sim/internal/sim"
)

// SimConfig is the YAML form of a scenario.
type SimConfig struct {
	Title           string        `yaml:"title"`
	Context         ContextConfig `yaml:"context"`
	Speed           float64       `yaml:"speed"`
	Seed            int64         `yaml:"seed"`
	History         int           `yaml:"history"` // snapshots kept in memory, 0 = all
	CheckInvariants bool          `yaml:"check_invariants"`
	Bodies          []BodyConfig  `yaml:"bodies"`
	Rules           RulesConfig   `yaml:"rules"`

	// Source is the file the config was read from, or "embedded".
	Source string `yaml:"-"`
}

// ContextConfig is the size of the simulated space in grid units.
type ContextConfig struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// BodyConfig describes one body. Size is the full side length.
type BodyConfig struct {
	Type     string      `yaml:"type"`
	Position [2]float64  `yaml:"position"`
	Size     float64     `yaml:"size"`
	Static   bool        `yaml:"static"`
	Color    [3]uint8    `yaml:"color"`
	Velocity *[2]float64 `yaml:"velocity,omitempty"` // direction only, scaled to speed
}

// RulesConfig names the rules per type and per type pair. When it is empty
// the default table is derived from the bodies; otherwise it must cover
// every type and pair on its own.
type RulesConfig struct {
	Translation map[string]string   `yaml:"translation"`
	Interaction []InteractionConfig `yaml:"interaction"`
}

// InteractionConfig binds a rule to a pair of types. The entry also serves
// the reversed pair.
type InteractionConfig struct {
	Types [2]string `yaml:"types"`
	Rule  string    `yaml:"rule"`
}

// IsEmpty reports whether no rules were configured.
func (r RulesConfig) IsEmpty() bool {
	return len(r.Translation) == 0 && len(r.Interaction) == 0
}

// RuleTable builds the configured rule table, or nil when none is configured.
func (r RulesConfig) RuleTable() (*sim.RuleTable, error) {
	if r.IsEmpty() {
		return nil, nil
	}

	table := sim.NewRuleTable()
	for typ, name := range r.Translation {
		rule, err := sim.TranslationByName(name)
		if err != nil {
			return nil, err
		}
		table.SetTranslation(sim.ObjectType(typ), rule)
	}
	for _, ic := range r.Interaction {
		rule, err := sim.InteractionByName(ic.Rule)
		if err != nil {
			return nil, err
		}
		table.SetInteraction(sim.ObjectType(ic.Types[0]), sim.ObjectType(ic.Types[1]), rule)
	}
	return table, nil
}

// ToSetup converts the config into simulation initial conditions.
func (c SimConfig) ToSetup() (sim.Setup, error) {
	rules, err := c.Rules.RuleTable()
	if err != nil {
		return sim.Setup{}, fmt.Errorf("config: %w", err)
	}

	bodies := make([]sim.BodySpec, len(c.Bodies))
	for i, b := range c.Bodies {
		spec := sim.BodySpec{
			Type:       sim.ObjectType(b.Type),
			Pos:        core.V(b.Position[0], b.Position[1]),
			HalfExtent: b.Size / 2,
			Static:     b.Static,
			Color:      core.RGB(b.Color),
		}
		if b.Velocity != nil {
			v := core.V(b.Velocity[0], b.Velocity[1])
			spec.Vel = &v
		}
		bodies[i] = spec
	}

	return sim.Setup{
		Context:         sim.Context{Width: c.Context.Width, Height: c.Context.Height},
		Speed:           c.Speed,
		Bodies:          bodies,
		Rules:           rules,
		Seed:            c.Seed,
		History:         c.History,
		CheckInvariants: c.CheckInvariants,
	}, nil
}

// Validate checks the config by building the initial world once.
func (c SimConfig) Validate() error {
	setup, err := c.ToSetup()
	if err != nil {
		return err
	}
	if len(setup.Bodies) == 0 {
		return fmt.Errorf("config: %w: no bodies", sim.ErrConfiguration)
	}
	if c.History < 0 {
		return fmt.Errorf("config: %w: history must not be negative", sim.ErrConfiguration)
	}
	if _, err := setup.Build(setup.NewRand(), nil); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Warnings lists problems that do not stop the simulation but may corrupt
// its output, such as bodies small enough to tunnel through an obstacle.
func (c SimConfig) Warnings() []string {
	setup, err := c.ToSetup()
	if err != nil {
		return nil
	}
	var out []string
	for _, b := range setup.Tunneling() {
		out = append(out, fmt.Sprintf("%s with half extent %g can tunnel at speed %g", b.Type, b.HalfExtent, c.Speed))
	}
	return out
}

// IsConfigError reports whether err comes from an invalid configuration.
func IsConfigError(err error) bool {
	return errors.Is(err, sim.ErrConfiguration)
}
