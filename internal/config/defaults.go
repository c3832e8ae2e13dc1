package config

import (
	"embed"
	"path"
)

//go:embed defaults/*.yaml
var defaultFS embed.FS

// DefaultYAML returns the embedded default config of a scenario, or nil.
func DefaultYAML(scenario string) []byte {
	data, err := defaultFS.ReadFile(path.Join("defaults", scenario+".yaml"))
	if err != nil {
		return nil
	}
	return data
}
