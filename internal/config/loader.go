package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// SourceEmbedded marks a config read from the built-in defaults.
const SourceEmbedded = "embedded"

// Load loads the config of a scenario.
// Search order: customPath -> ~/.causalsim/configs/<scenario>.yaml -> ./configs/<scenario>.yaml -> embedded default
func Load(scenario, customPath string) (SimConfig, error) {
	// A custom path must exist
	if customPath != "" {
		data, err := os.ReadFile(customPath)
		if err != nil {
			return SimConfig{}, fmt.Errorf("config: failed to read %s: %w", customPath, err)
		}
		return parse(data, customPath)
	}

	filename := scenario + ".yaml"
	candidates := []string{
		userConfigPath(filename),
		filepath.Join("configs", filename),
	}
	for _, p := range candidates {
		if p == "" {
			continue
		}
		data, err := os.ReadFile(p)
		if err != nil {
			continue
		}
		return parse(data, p)
	}

	data := DefaultYAML(scenario)
	if data == nil {
		return SimConfig{}, fmt.Errorf("config: no configuration found for scenario %q", scenario)
	}
	return parse(data, SourceEmbedded)
}

// Parse decodes a config from YAML.
func Parse(data []byte) (SimConfig, error) {
	return parse(data, "")
}

func parse(data []byte, source string) (SimConfig, error) {
	var cfg SimConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		if source == "" {
			return SimConfig{}, fmt.Errorf("config: failed to parse: %w", err)
		}
		return SimConfig{}, fmt.Errorf("config: failed to parse %s: %w", source, err)
	}
	cfg.Source = source
	return cfg, nil
}

// userConfigPath returns the path to a user config file, or empty if home is unavailable.
func userConfigPath(filename string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".causalsim", "configs", filename)
}
