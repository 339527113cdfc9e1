// Package bundle orchestrates a full diagnostics run: every registry
// probe is executed, outputs are redacted and written into a scoped
// working directory, a manifest is built in registry order, and the lot
// is packaged into a single tar.gz archive.
package bundle

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"bytemomo/remora/internal/domain"
	"bytemomo/remora/internal/redact"
	"bytemomo/remora/internal/registry"
	"bytemomo/remora/internal/runner"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// ManifestFile is the index file name inside every bundle.
const ManifestFile = "manifest.yaml"

// Config tunes one aggregator run.
type Config struct {
	// Jobs caps concurrent probes. Zero or one runs sequentially.
	Jobs int
	// Keep retains the scoped working directory after archiving.
	Keep bool
	// WorkRoot is where the scoped working directory is created.
	// Defaults to the system temp directory.
	WorkRoot string
	// OutputPath overrides the default archive location.
	OutputPath string
}

// Summary is the terminal report of a run: the archive on success, the
// kept working directory as fallback when packaging failed.
type Summary struct {
	ArchivePath string
	ArchiveSize int64
	WorkDir     string
	WorkDirKept bool
	Manifest    domain.Manifest
	Results     []domain.ProbeResult
	Elapsed     time.Duration
}

// Aggregator runs every probe in the registry and packages the results.
// Per-probe failures never abort a run; only packaging can.
type Aggregator struct {
	Registry *registry.Registry
	Runner   *runner.Runner
	Config   Config
	Log      *log.Entry
}

// Run executes the full bundle lifecycle. The returned error is non-nil
// only for cancellation or a packaging failure; in the packaging case
// the summary still describes the kept working directory when Keep was
// requested.
func (a *Aggregator) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()
	rc := domain.NewRunContext()

	workDir, err := a.makeWorkDir(rc)
	if err != nil {
		return nil, err
	}
	kept := false
	defer func() {
		if kept {
			return
		}
		if err := os.RemoveAll(workDir); err != nil {
			a.Log.WithError(err).Warn("Could not remove working directory")
		}
	}()

	specs := a.Registry.List()
	a.Log.WithFields(log.Fields{
		"probes":   len(specs),
		"jobs":     max(1, a.Config.Jobs),
		"work_dir": workDir,
	}).Info("Starting diagnostics run")

	results := a.dispatch(ctx, specs)
	if ctx.Err() != nil {
		return nil, fmt.Errorf("diagnostics run cancelled: %w", ctx.Err())
	}

	rules := redact.Rules(rc)
	manifest := domain.Manifest{HostTag: rc.HostTag(), GeneratedAt: rc.StartedAt}
	var files []string
	for _, res := range results {
		entry := domain.ManifestEntry{
			ProbeID:    res.ProbeID,
			Status:     res.Status,
			ExitCode:   res.ExitCode,
			Note:       res.Note,
			DurationMS: float64(res.Duration) / float64(time.Millisecond),
		}
		if res.Status != domain.StatusSkipped {
			name := res.ProbeID + ".txt"
			scrubbed := redact.Apply(rules, res.RawOutput)
			if err := os.WriteFile(filepath.Join(workDir, name), scrubbed, 0o600); err != nil {
				return a.packagingFailed(workDir, &kept), fmt.Errorf("write artifact %s: %w", name, err)
			}
			entry.OutputFile = name
			files = append(files, name)
		}
		manifest.Probes = append(manifest.Probes, entry)
	}

	manifestData, err := yaml.Marshal(&manifest)
	if err != nil {
		return a.packagingFailed(workDir, &kept), fmt.Errorf("encode manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(workDir, ManifestFile), manifestData, 0o600); err != nil {
		return a.packagingFailed(workDir, &kept), fmt.Errorf("write manifest: %w", err)
	}
	files = append(files, ManifestFile)

	archivePath := a.Config.OutputPath
	if archivePath == "" {
		archivePath = defaultArchiveName(rc)
	}
	if err := writeArchive(archivePath, workDir, files, rc.StartedAt); err != nil {
		return a.packagingFailed(workDir, &kept), fmt.Errorf("package bundle: %w", err)
	}

	kept = a.Config.Keep
	summary := &Summary{
		ArchivePath: archivePath,
		WorkDir:     workDir,
		WorkDirKept: kept,
		Manifest:    manifest,
		Results:     results,
		Elapsed:     time.Since(start),
	}
	if fi, err := os.Stat(archivePath); err == nil {
		summary.ArchiveSize = fi.Size()
	}
	return summary, nil
}

// dispatch runs every probe through a bounded worker pool and returns
// results in registry order regardless of completion order. Every spec
// yields exactly one result; nothing short-circuits on failure.
func (a *Aggregator) dispatch(ctx context.Context, specs []domain.ProbeSpec) []domain.ProbeResult {
	sem := make(chan struct{}, max(1, a.Config.Jobs))
	results := make([]domain.ProbeResult, len(specs))

	var wg sync.WaitGroup
	for i, spec := range specs {
		sem <- struct{}{}
		wg.Add(1)
		go func(i int, spec domain.ProbeSpec) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = a.Runner.Run(ctx, spec)
		}(i, spec)
	}
	wg.Wait()
	return results
}

func (a *Aggregator) makeWorkDir(rc domain.RunContext) (string, error) {
	root := a.Config.WorkRoot
	if root == "" {
		root = os.TempDir()
	}
	host := rc.Hostname
	if host == "" {
		host = "host"
	}
	dir := filepath.Join(root, fmt.Sprintf("remora-%s-%s-%s",
		host, rc.StartedAt.Format("20060102-150405"), rc.Tag[:8]))
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("create working directory: %w", err)
	}
	return dir, nil
}

// packagingFailed freezes the working directory decision for the error
// path: kept directories are reported as the fallback artifact location.
func (a *Aggregator) packagingFailed(workDir string, kept *bool) *Summary {
	*kept = a.Config.Keep
	if *kept {
		a.Log.WithField("work_dir", workDir).Warn("Packaging failed, working directory kept as fallback")
	}
	return &Summary{WorkDir: workDir, WorkDirKept: *kept}
}

func defaultArchiveName(rc domain.RunContext) string {
	host := rc.Hostname
	if host == "" {
		host = "host"
	}
	return fmt.Sprintf("support-bundle-%s-%s.tar.gz", host, rc.StartedAt.Format("20060102-150405"))
}
