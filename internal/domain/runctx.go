package domain

import (
	"os"
	"strings"
	"time"

	fqdn "github.com/Showmax/go-fqdn"
	"github.com/google/uuid"
)

// RunContext carries the per-run identity used for redaction and
// manifest building: the host names to scrub and the anonymization tag
// that replaces them. Constructed once per aggregator run and passed
// around read-only, so every probe's output is scrubbed with the same
// tag.
type RunContext struct {
	Hostname  string
	FQDN      string
	Tag       string
	StartedAt time.Time
}

// NewRunContext snapshots the host identity. A host where the hostname
// cannot be determined still gets a usable context; the redactor simply
// has nothing to scrub for that rule.
func NewRunContext() RunContext {
	rc := RunContext{
		Tag:       strings.ReplaceAll(uuid.NewString(), "-", "")[:12],
		StartedAt: time.Now(),
	}
	if name, err := os.Hostname(); err == nil {
		rc.Hostname, _, _ = strings.Cut(name, ".")
	}
	if full := fqdn.Get(); full != "" && full != "unknown" {
		rc.FQDN = full
	}
	return rc
}

// HostTag is the anonymized stand-in written wherever the hostname
// appeared in probe output.
func (rc RunContext) HostTag() string {
	return "host-" + rc.Tag
}
