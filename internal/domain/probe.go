package domain

import (
	"fmt"
	"time"
)

// ProbeKind selects the executor family for a probe.
type ProbeKind string

const (
	// Exec probes spawn an external diagnostic command and capture its
	// combined output.
	Exec ProbeKind = "exec"
	// Builtin probes run inside the collector process itself.
	Builtin ProbeKind = "builtin"
)

// DefaultTimeout bounds probes that do not configure their own limit.
const DefaultTimeout = 30 * time.Second

// ProbeSpec describes one diagnostic probe: what to run, how long to let
// it run, and whether its absence on a host is worth calling out.
type ProbeSpec struct {
	ID             string    `yaml:"id"`
	Kind           ProbeKind `yaml:"kind"`
	Command        []string  `yaml:"command,omitempty"`
	TimeoutSeconds int       `yaml:"timeout_seconds,omitempty"`
	Required       bool      `yaml:"required,omitempty"`
	Disabled       bool      `yaml:"disabled,omitempty"`
}

// Timeout returns the probe's execution deadline.
func (s ProbeSpec) Timeout() time.Duration {
	if s.TimeoutSeconds <= 0 {
		return DefaultTimeout
	}
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// Validate validates the probe specification.
func (s ProbeSpec) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("probe id is required")
	}
	switch s.Kind {
	case Exec:
		if len(s.Command) == 0 {
			return fmt.Errorf("probe %q: exec probes require a command", s.ID)
		}
	case Builtin:
		if len(s.Command) != 1 {
			return fmt.Errorf("probe %q: builtin probes name exactly one builtin", s.ID)
		}
	default:
		return fmt.Errorf("probe %q: unknown kind %q", s.ID, s.Kind)
	}
	if s.TimeoutSeconds < 0 {
		return fmt.Errorf("probe %q: timeout_seconds must not be negative", s.ID)
	}
	return nil
}
