// Package yamlconfig loads site-specific probe definitions. A config
// file can add probes, override built-in entries (same id) and disable
// entries, so support teams extend the registry without recompiling.
package yamlconfig

import (
	"fmt"
	"os"

	"bytemomo/remora/internal/domain"

	"gopkg.in/yaml.v3"
)

// LoadProbes reads probe specs from a YAML file.
func LoadProbes(path string) ([]domain.ProbeSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var doc struct {
		Probes []domain.ProbeSpec `yaml:"probes"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse probe config: %w", err)
	}

	for i, spec := range doc.Probes {
		if err := spec.Validate(); err != nil {
			return nil, fmt.Errorf("invalid probe at entry %d: %w", i, err)
		}
	}
	return doc.Probes, nil
}
