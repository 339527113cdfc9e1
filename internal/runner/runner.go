// Package runner executes single probes in isolation. A probe that is
// missing, crashes, or hangs produces a status, never an error: one
// failure stays local to that probe.
package runner

import (
	"context"
	"errors"
	"time"

	"bytemomo/remora/internal/domain"

	log "github.com/sirupsen/logrus"
)

// Runner dispatches a probe to the first executor that supports it and
// classifies the outcome.
type Runner struct {
	Executors []domain.ProbeExecutor
	Log       *log.Entry
}

// New builds a runner over the given executor families.
func New(logger *log.Entry, executors ...domain.ProbeExecutor) *Runner {
	return &Runner{Executors: executors, Log: logger}
}

// Run executes one probe. It never returns an error: every failure mode
// is captured in the result's status.
func (r *Runner) Run(ctx context.Context, spec domain.ProbeSpec) domain.ProbeResult {
	res := domain.ProbeResult{ProbeID: spec.ID, StartedAt: time.Now()}
	l := r.Log.WithField("probe", spec.ID)

	exec := r.executorFor(spec)
	if exec == nil {
		res.Status = domain.StatusSkipped
		res.Note = "no executor for probe kind " + string(spec.Kind)
		l.WithField("kind", spec.Kind).Warn("No executor for probe")
		return res
	}

	if ok, reason := exec.Available(spec); !ok {
		res.Status = domain.StatusSkipped
		res.Note = reason
		if spec.Required {
			res.Note = reason + " (required diagnostic)"
			l.WithField("reason", reason).Warn("Required probe unavailable")
		} else {
			l.WithField("reason", reason).Debug("Probe unavailable, skipping")
		}
		return res
	}

	cctx, cancel := context.WithTimeout(ctx, spec.Timeout())
	defer cancel()

	out, exit, err := exec.Invoke(cctx, spec)
	res.Duration = time.Since(res.StartedAt)
	res.RawOutput = out

	switch {
	case errors.Is(cctx.Err(), context.DeadlineExceeded):
		res.Status = domain.StatusTimedOut
		res.Note = "killed after " + spec.Timeout().String()
	case errors.Is(ctx.Err(), context.Canceled):
		res.Status = domain.StatusFailed
		res.Note = "run cancelled"
	case err != nil:
		res.Status = domain.StatusFailed
		res.Note = err.Error()
	case exit != 0:
		res.Status = domain.StatusFailed
		res.ExitCode = &exit
	default:
		res.Status = domain.StatusSuccess
		res.ExitCode = &exit
	}

	l.WithFields(log.Fields{
		"status":   res.Status,
		"duration": res.Duration.Round(time.Millisecond),
		"bytes":    len(res.RawOutput),
	}).Info("Probe finished")
	return res
}

func (r *Runner) executorFor(spec domain.ProbeSpec) domain.ProbeExecutor {
	for _, e := range r.Executors {
		if e.Supports(spec) {
			return e
		}
	}
	return nil
}
