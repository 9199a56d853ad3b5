package settings

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/wielebenwir/commonsmap/internal/logger"
)

// Load reads a settings file, upgrading legacy layouts transparently.
// An empty path yields the defaults.
func Load(path string, log logger.Logger) (Settings, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("reading settings file: %w", err)
	}
	return Parse(data, log)
}

// Parse decodes settings YAML. Documents without a version field are
// treated as the legacy flat layout and upgraded.
func Parse(data []byte, log logger.Logger) (Settings, error) {
	var probe struct {
		Version int `yaml:"version"`
	}
	if err := yaml.Unmarshal(data, &probe); err != nil {
		return Settings{}, fmt.Errorf("parsing settings: %w", err)
	}

	var s Settings
	switch {
	case probe.Version >= CurrentVersion:
		if err := yaml.Unmarshal(data, &s); err != nil {
			return Settings{}, fmt.Errorf("parsing settings: %w", err)
		}
	default:
		var legacy Legacy
		if err := yaml.Unmarshal(data, &legacy); err != nil {
			return Settings{}, fmt.Errorf("parsing legacy settings: %w", err)
		}
		log.Info("upgrading legacy settings layout")
		s = Upgrade(legacy)
	}

	s.normalize()
	if err := s.validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}
