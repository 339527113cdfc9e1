package domain

import "time"

// ManifestEntry records one probe's outcome inside a bundle.
type ManifestEntry struct {
	ProbeID    string  `yaml:"probe"`
	Status     Status  `yaml:"status"`
	OutputFile string  `yaml:"output_file,omitempty"`
	ExitCode   *int    `yaml:"exit_code,omitempty"`
	Note       string  `yaml:"note,omitempty"`
	DurationMS float64 `yaml:"duration_ms"`
}

// Manifest is the ordered index of a bundle: one entry per registry
// probe, in registry order, regardless of the order probes finished in.
type Manifest struct {
	HostTag     string          `yaml:"host_tag"`
	GeneratedAt time.Time       `yaml:"generated_at"`
	Probes      []ManifestEntry `yaml:"probes"`
}
