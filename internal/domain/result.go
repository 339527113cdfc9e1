package domain

import "time"

// Status is the terminal outcome of a single probe run.
type Status string

const (
	// StatusSuccess means the probe ran and exited zero.
	StatusSuccess Status = "success"
	// StatusFailed means the probe ran but exited nonzero or broke
	// mid-flight. Whatever output it produced is kept.
	StatusFailed Status = "failed"
	// StatusSkipped means the probe's underlying tool is not present on
	// this host. Never an error: optional tooling is expected to be
	// missing on plenty of machines.
	StatusSkipped Status = "skipped"
	// StatusTimedOut means the probe exceeded its deadline and was
	// killed. Partial output is kept.
	StatusTimedOut Status = "timed_out"
)

// ProbeResult is the outcome of running one ProbeSpec. It is created by
// the runner and never mutated afterwards.
type ProbeResult struct {
	ProbeID   string
	Status    Status
	ExitCode  *int
	RawOutput []byte
	Note      string
	StartedAt time.Time
	Duration  time.Duration
}
