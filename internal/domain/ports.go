package domain

import "context"

// ProbeExecutor runs the probes of one family (external commands,
// in-process builtins). The runner picks the first executor that
// supports a spec.
type ProbeExecutor interface {
	Supports(spec ProbeSpec) bool
	// Available reports whether the probe can run on this host, with a
	// short reason when it cannot.
	Available(spec ProbeSpec) (bool, string)
	// Invoke runs the probe under ctx and returns the captured output.
	// A nil error means the probe ran to completion and exitCode is
	// meaningful; a non-nil error means it could not run or broke
	// mid-flight. Partial output may accompany an error.
	Invoke(ctx context.Context, spec ProbeSpec) (output []byte, exitCode int, err error)
}
