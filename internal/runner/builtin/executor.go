// Package builtin hosts probes that run inside the collector process
// instead of shelling out. They obey the same timeout and degradation
// rules as external probes.
package builtin

import (
	"context"
	"fmt"

	"bytemomo/remora/internal/domain"
)

// probeFunc produces a probe's report text.
type probeFunc func(ctx context.Context) ([]byte, error)

// checkFunc reports whether a builtin can run here. A nil check means
// always available.
type checkFunc func() (bool, string)

type probe struct {
	run   probeFunc
	check checkFunc
}

// Executor runs builtin probes, looked up by the single name in the
// spec's command.
type Executor struct {
	probes map[string]probe
}

// NewExecutor registers the builtin probe set.
func NewExecutor() *Executor {
	return &Executor{probes: map[string]probe{
		"hostinfo":  {run: hostInfo},
		"listeners": {run: listeners, check: listenersAvailable},
	}}
}

// Supports reports whether the spec names a known builtin.
func (e *Executor) Supports(spec domain.ProbeSpec) bool {
	if spec.Kind != domain.Builtin || len(spec.Command) != 1 {
		return false
	}
	_, ok := e.probes[spec.Command[0]]
	return ok
}

// Available runs the builtin's own availability check, if it has one.
func (e *Executor) Available(spec domain.ProbeSpec) (bool, string) {
	p, ok := e.probes[spec.Command[0]]
	if !ok {
		return false, fmt.Sprintf("unknown builtin %q", spec.Command[0])
	}
	if p.check == nil {
		return true, ""
	}
	return p.check()
}

// Invoke runs the builtin under ctx.
func (e *Executor) Invoke(ctx context.Context, spec domain.ProbeSpec) ([]byte, int, error) {
	p, ok := e.probes[spec.Command[0]]
	if !ok {
		return nil, 0, fmt.Errorf("unknown builtin %q", spec.Command[0])
	}
	out, err := p.run(ctx)
	return out, 0, err
}
