package bundle

import (
	"archive/tar"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"bytemomo/remora/internal/domain"
	"bytemomo/remora/internal/registry"
	"bytemomo/remora/internal/runner"
	"bytemomo/remora/internal/runner/builtin"

	"github.com/klauspost/compress/gzip"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func shProbe(id, script string) domain.ProbeSpec {
	return domain.ProbeSpec{
		ID:             id,
		Kind:           domain.Exec,
		Command:        []string{"/bin/sh", "-c", script},
		TimeoutSeconds: 10,
	}
}

func newAggregator(t *testing.T, specs []domain.ProbeSpec, cfg Config) *Aggregator {
	t.Helper()
	reg, err := registry.New(specs)
	require.NoError(t, err)
	if cfg.WorkRoot == "" {
		cfg.WorkRoot = t.TempDir()
	}
	if cfg.OutputPath == "" {
		cfg.OutputPath = filepath.Join(t.TempDir(), "bundle.tar.gz")
	}
	return &Aggregator{
		Registry: reg,
		Runner:   runner.New(testLogger(), runner.CommandExecutor{}, builtin.NewExecutor()),
		Config:   cfg,
		Log:      testLogger(),
	}
}

// readArchive extracts every entry of a tar.gz into a map.
func readArchive(t *testing.T, path string) map[string][]byte {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	gz, err := gzip.NewReader(f)
	require.NoError(t, err)
	tr := tar.NewReader(gz)

	entries := map[string][]byte{}
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		data, err := io.ReadAll(tr)
		require.NoError(t, err)
		entries[hdr.Name] = data
	}
	return entries
}

func TestRunMixedOutcomes(t *testing.T) {
	t.Parallel()

	specs := []domain.ProbeSpec{
		shProbe("cpu", "echo cpu model at 10.1.2.3"),
		{ID: "gpu", Kind: domain.Exec, Command: []string{"remora-missing-gpu-tool"}, TimeoutSeconds: 10},
		shProbe("io", "echo disk stats; exit 2"),
	}
	agg := newAggregator(t, specs, Config{Jobs: 2})

	summary, err := agg.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, summary.Results, len(specs), "every spec yields exactly one result")
	require.Len(t, summary.Manifest.Probes, len(specs))

	entries := summary.Manifest.Probes
	assert.Equal(t, "cpu", entries[0].ProbeID)
	assert.Equal(t, domain.StatusSuccess, entries[0].Status)
	assert.Equal(t, "gpu", entries[1].ProbeID)
	assert.Equal(t, domain.StatusSkipped, entries[1].Status)
	assert.Equal(t, "io", entries[2].ProbeID)
	assert.Equal(t, domain.StatusFailed, entries[2].Status)
	require.NotNil(t, entries[2].ExitCode)
	assert.Equal(t, 2, *entries[2].ExitCode)

	archive := readArchive(t, summary.ArchivePath)
	assert.Contains(t, archive, "cpu.txt")
	assert.Contains(t, archive, "io.txt")
	assert.Contains(t, archive, ManifestFile)
	assert.NotContains(t, archive, "gpu.txt", "skipped probes leave no artifact")

	cpuOut := string(archive["cpu.txt"])
	assert.NotContains(t, cpuOut, "10.1.2.3", "private addresses must be redacted")
	assert.Contains(t, cpuOut, "XXX.PRIV.IP")
	assert.NotEmpty(t, archive["io.txt"], "failed probes keep their partial output")

	var manifest domain.Manifest
	require.NoError(t, yaml.Unmarshal(archive[ManifestFile], &manifest))
	assert.Equal(t, summary.Manifest.HostTag, manifest.HostTag)
	require.Len(t, manifest.Probes, len(specs))
	assert.Equal(t, "cpu.txt", manifest.Probes[0].OutputFile)
	assert.Empty(t, manifest.Probes[1].OutputFile)
}

func TestRunTimedOutProbeStillCompletes(t *testing.T) {
	t.Parallel()

	specs := []domain.ProbeSpec{
		{ID: "hang", Kind: domain.Exec, Command: []string{"/bin/sh", "-c", "echo early; exec sleep 30"}, TimeoutSeconds: 1},
		shProbe("cpu", "echo fine"),
	}
	agg := newAggregator(t, specs, Config{Jobs: 2})

	summary, err := agg.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, domain.StatusTimedOut, summary.Manifest.Probes[0].Status)
	assert.Equal(t, domain.StatusSuccess, summary.Manifest.Probes[1].Status)

	archive := readArchive(t, summary.ArchivePath)
	assert.Contains(t, string(archive["hang.txt"]), "early", "partial output survives the timeout")
}

func TestManifestOrderMatchesRegistryOrder(t *testing.T) {
	t.Parallel()

	// Reverse-sorted sleeps so completion order is the opposite of
	// registry order under a wide pool.
	specs := []domain.ProbeSpec{
		shProbe("slowest", "sleep 0.4; echo a"),
		shProbe("slower", "sleep 0.2; echo b"),
		shProbe("fast", "echo c"),
	}
	agg := newAggregator(t, specs, Config{Jobs: 3})

	summary, err := agg.Run(context.Background())
	require.NoError(t, err)

	var order []string
	for _, e := range summary.Manifest.Probes {
		order = append(order, e.ProbeID)
	}
	assert.Equal(t, []string{"slowest", "slower", "fast"}, order)
}

func TestRunSequentialWhenJobsIsZero(t *testing.T) {
	t.Parallel()

	specs := []domain.ProbeSpec{
		shProbe("one", "echo 1"),
		shProbe("two", "echo 2"),
	}
	agg := newAggregator(t, specs, Config{Jobs: 0})

	summary, err := agg.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, summary.Manifest.Probes, 2)
}

func TestCleanupRemovesWorkDir(t *testing.T) {
	t.Parallel()

	agg := newAggregator(t, []domain.ProbeSpec{shProbe("cpu", "echo ok")}, Config{})

	summary, err := agg.Run(context.Background())
	require.NoError(t, err)

	_, statErr := os.Stat(summary.WorkDir)
	assert.True(t, os.IsNotExist(statErr), "working directory must be removed without --keep")
	assert.False(t, summary.WorkDirKept)
}

func TestKeepRetainsWorkDir(t *testing.T) {
	t.Parallel()

	agg := newAggregator(t, []domain.ProbeSpec{shProbe("cpu", "echo ok")}, Config{Keep: true})

	summary, err := agg.Run(context.Background())
	require.NoError(t, err)

	fi, statErr := os.Stat(summary.WorkDir)
	require.NoError(t, statErr)
	assert.True(t, fi.IsDir())
	assert.True(t, summary.WorkDirKept)

	data, err := os.ReadFile(filepath.Join(summary.WorkDir, "cpu.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "ok")
}

func TestCancelledRunWritesNothing(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	workRoot := t.TempDir()
	out := filepath.Join(t.TempDir(), "bundle.tar.gz")
	agg := newAggregator(t, []domain.ProbeSpec{shProbe("cpu", "echo ok")},
		Config{WorkRoot: workRoot, OutputPath: out})

	_, err := agg.Run(ctx)
	require.Error(t, err)

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr), "no archive on cancellation")

	leftovers, readErr := os.ReadDir(workRoot)
	require.NoError(t, readErr)
	assert.Empty(t, leftovers, "working directory removed on cancellation")
}

func TestPackagingFailureKeepsWorkDirWhenRequested(t *testing.T) {
	t.Parallel()

	agg := newAggregator(t, []domain.ProbeSpec{shProbe("cpu", "echo ok")}, Config{
		Keep: true,
		// Unwritable archive location forces the packaging step to fail.
		OutputPath: filepath.Join(t.TempDir(), "no", "such", "dir", "bundle.tar.gz"),
	})

	summary, err := agg.Run(context.Background())
	require.Error(t, err)
	require.NotNil(t, summary)
	assert.True(t, summary.WorkDirKept)

	fi, statErr := os.Stat(summary.WorkDir)
	require.NoError(t, statErr)
	assert.True(t, fi.IsDir(), "kept working directory is the fallback artifact location")
}

func TestArchiveEntriesFollowRegistryOrder(t *testing.T) {
	t.Parallel()

	specs := []domain.ProbeSpec{
		shProbe("zeta", "echo z"),
		shProbe("alpha", "echo a"),
	}
	agg := newAggregator(t, specs, Config{Jobs: 2})

	summary, err := agg.Run(context.Background())
	require.NoError(t, err)

	f, err := os.Open(summary.ArchivePath)
	require.NoError(t, err)
	defer f.Close()
	gz, err := gzip.NewReader(f)
	require.NoError(t, err)
	tr := tar.NewReader(gz)

	var names []string
	var modTimes []time.Time
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		names = append(names, hdr.Name)
		modTimes = append(modTimes, hdr.ModTime)
	}

	assert.Equal(t, []string{"zeta.txt", "alpha.txt", ManifestFile}, names,
		"entries are laid out in registry order with the manifest last")
	for _, mt := range modTimes[1:] {
		assert.True(t, mt.Equal(modTimes[0]), "all entries share the run's timestamp")
	}
}
