package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"bytemomo/remora/internal/domain"
)

// CommandExecutor runs exec probes: external diagnostic commands whose
// combined stdout and stderr is captured as an opaque text block.
type CommandExecutor struct{}

// Supports reports whether the spec is an exec probe.
func (CommandExecutor) Supports(spec domain.ProbeSpec) bool {
	return spec.Kind == domain.Exec
}

// Available checks that the probe's command resolves on PATH.
func (CommandExecutor) Available(spec domain.ProbeSpec) (bool, string) {
	if len(spec.Command) == 0 {
		return false, "no command configured"
	}
	if _, err := exec.LookPath(spec.Command[0]); err != nil {
		return false, fmt.Sprintf("%s not found in PATH", spec.Command[0])
	}
	return true, ""
}

// Invoke spawns the command under ctx. On timeout the process is killed
// by the context and whatever it wrote so far is returned; the runner
// classifies that from the context state.
func (CommandExecutor) Invoke(ctx context.Context, spec domain.ProbeSpec) ([]byte, int, error) {
	cmd := exec.CommandContext(ctx, spec.Command[0], spec.Command[1:]...)
	// Orphaned grandchildren can hold the output pipe open after the
	// probe itself is killed; don't let them stall the run.
	cmd.WaitDelay = 2 * time.Second

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	err := cmd.Run()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return out.Bytes(), exitErr.ExitCode(), nil
		}
		return out.Bytes(), 0, fmt.Errorf("run %s: %w", spec.Command[0], err)
	}
	return out.Bytes(), 0, nil
}
