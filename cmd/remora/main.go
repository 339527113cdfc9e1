// Command remora collects host diagnostics. `remora bundle` runs every
// registered probe and packages the redacted outputs into a support
// bundle; `remora probe <id>` runs a single probe and renders its
// report.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"bytemomo/remora/internal/adapter/logger"
	"bytemomo/remora/internal/adapter/yamlconfig"
	"bytemomo/remora/internal/bundle"
	"bytemomo/remora/internal/domain"
	"bytemomo/remora/internal/registry"
	"bytemomo/remora/internal/report"
	"bytemomo/remora/internal/runner"
	"bytemomo/remora/internal/runner/builtin"

	humanize "github.com/dustin/go-humanize"
	log "github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"
)

var (
	version = "1.2.0"
	commit  = "dev"
)

const (
	exitOK = 0
	// exitMissingDep is returned by standalone probe runs whose
	// underlying tool is absent. Bundle runs never use it: a missing
	// tool only marks that probe as skipped.
	exitMissingDep = 1
	// exitFatal is returned when a bundle run cannot produce an
	// archive (packaging failure or cancellation).
	exitFatal = 2
	exitUsage = 3
)

func main() { os.Exit(run(os.Args[1:])) }

func run(args []string) int {
	if len(args) == 0 {
		usage(os.Stderr)
		return exitUsage
	}

	switch args[0] {
	case "-V", "--version", "version":
		printVersion()
		return exitOK
	case "-h", "--help", "help":
		usage(os.Stdout)
		return exitOK
	case "bundle":
		return runBundle(args[1:])
	case "probe":
		return runProbe(args[1:])
	case "list":
		return runList(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "remora: unknown command %q\n\n", args[0])
		usage(os.Stderr)
		return exitUsage
	}
}

func usage(w *os.File) {
	fmt.Fprintf(w, `remora - host diagnostics collector

Usage:
  remora bundle [flags]      run all probes and build a support bundle
  remora probe <id> [flags]  run one probe and render its report
  remora list [flags]        show the effective probe registry
  remora -V | --version      print version
  remora -h | --help         print this help

Exit codes:
  0  success
  1  standalone probe dependency missing
  2  bundle run failed (packaging error or cancelled)
  3  usage error
`)
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	return fs
}

func printVersion() {
	fmt.Printf("remora host diagnostics collector v%s (%s)\n", version, commit)
}

// parseFlags maps pflag's parse outcome onto an exit code: -1 means
// parsing succeeded and the command should proceed.
func parseFlags(fs *flag.FlagSet, args []string) int {
	err := fs.Parse(args)
	if err == nil {
		return -1
	}
	if errors.Is(err, flag.ErrHelp) {
		return exitOK
	}
	return exitUsage
}

func setupLogging(verbose, jsonFormat bool, filePath string) {
	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}
	logger.Configure(level, jsonFormat, filePath)
}

// buildRegistry assembles the default probe set plus optional config
// file overrides.
func buildRegistry(configPath string) (*registry.Registry, error) {
	reg, err := registry.New(registry.Default())
	if err != nil {
		return nil, err
	}
	if configPath == "" {
		return reg, nil
	}
	extra, err := yamlconfig.LoadProbes(configPath)
	if err != nil {
		return nil, fmt.Errorf("load probe config: %w", err)
	}
	if err := reg.Apply(extra); err != nil {
		return nil, fmt.Errorf("apply probe config: %w", err)
	}
	return reg, nil
}

func newRunner(entry *log.Entry) *runner.Runner {
	return runner.New(entry, runner.CommandExecutor{}, builtin.NewExecutor())
}

func runBundle(args []string) int {
	fs := newFlagSet("bundle")
	var (
		output   = fs.StringP("output", "o", "", "write the archive to FILE instead of the default name")
		keep     = fs.BoolP("keep", "k", false, "retain the scoped working directory after archiving")
		jobs     = fs.IntP("jobs", "j", 4, "max probes running concurrently (0 or 1 = sequential)")
		config   = fs.StringP("config", "c", "", "YAML file with extra or overriding probe definitions")
		workRoot = fs.String("work-root", "", "directory to create the scoped working directory in")
		verbose  = fs.BoolP("verbose", "v", false, "enable debug logging")
		jsonLog  = fs.Bool("log-json", false, "emit logs as JSON")
		logFile  = fs.String("log-file", "", "also append logs to FILE")
		showVer  = fs.BoolP("version", "V", false, "print version and exit")
	)
	if code := parseFlags(fs, args); code >= 0 {
		return code
	}
	if *showVer {
		printVersion()
		return exitOK
	}
	if fs.NArg() != 0 {
		fmt.Fprintf(os.Stderr, "remora bundle: unexpected argument %q\n", fs.Arg(0))
		return exitUsage
	}
	setupLogging(*verbose, *jsonLog, *logFile)

	reg, err := buildRegistry(*config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "remora bundle: %v\n", err)
		return exitUsage
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	entry := log.WithField("component", "bundle")
	agg := &bundle.Aggregator{
		Registry: reg,
		Runner:   newRunner(log.WithField("component", "runner")),
		Config: bundle.Config{
			Jobs:       *jobs,
			Keep:       *keep,
			WorkRoot:   *workRoot,
			OutputPath: *output,
		},
		Log: entry,
	}

	summary, err := agg.Run(ctx)
	if err != nil {
		entry.WithError(err).Error("Bundle run failed")
		if summary != nil && summary.WorkDirKept {
			fmt.Fprintf(os.Stderr, "partial results kept in %s\n", summary.WorkDir)
		}
		return exitFatal
	}

	printSummary(summary)
	return exitOK
}

func printSummary(s *bundle.Summary) {
	counts := map[domain.Status]int{}
	for _, res := range s.Results {
		counts[res.Status]++
		line := fmt.Sprintf("  %-12s %s", res.ProbeID, res.Status)
		if res.Note != "" {
			line += " (" + res.Note + ")"
		}
		fmt.Println(line)
	}
	fmt.Printf("probes: %d ok, %d failed, %d timed out, %d skipped\n",
		counts[domain.StatusSuccess], counts[domain.StatusFailed],
		counts[domain.StatusTimedOut], counts[domain.StatusSkipped])
	fmt.Printf("bundle written: %s (%s) in %s\n",
		s.ArchivePath, humanize.Bytes(uint64(s.ArchiveSize)), s.Elapsed.Round(time.Millisecond))
	if s.WorkDirKept {
		fmt.Printf("working directory kept: %s\n", s.WorkDir)
	}
}

func runProbe(args []string) int {
	fs := newFlagSet("probe")
	var (
		output  = fs.StringP("output", "o", "", "write the report to FILE instead of stdout")
		format  = fs.StringP("format", "f", "human", "output mode: human, csv or structured")
		config  = fs.StringP("config", "c", "", "YAML file with extra or overriding probe definitions")
		verbose = fs.BoolP("verbose", "v", false, "enable debug logging")
		showVer = fs.BoolP("version", "V", false, "print version and exit")
	)
	if code := parseFlags(fs, args); code >= 0 {
		return code
	}
	if *showVer {
		printVersion()
		return exitOK
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "remora probe: exactly one probe id is required")
		return exitUsage
	}
	setupLogging(*verbose, false, "")

	mode, err := report.ParseMode(*format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "remora probe: %v\n", err)
		return exitUsage
	}

	reg, err := buildRegistry(*config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "remora probe: %v\n", err)
		return exitUsage
	}

	id := fs.Arg(0)
	spec, ok := reg.Lookup(id)
	if !ok {
		fmt.Fprintf(os.Stderr, "remora probe: unknown probe %q (see `remora list`)\n", id)
		return exitUsage
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res := newRunner(log.WithField("component", "runner")).Run(ctx, spec)
	if res.Status == domain.StatusSkipped {
		fmt.Fprintf(os.Stderr, "remora probe: %s unavailable: %s\n", id, res.Note)
		return exitMissingDep
	}

	rendered := report.Render(res, mode)
	if *output == "" {
		fmt.Print(rendered)
		return exitOK
	}
	if err := os.WriteFile(*output, []byte(rendered), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "remora probe: write report: %v\n", err)
		return exitFatal
	}
	return exitOK
}

func runList(args []string) int {
	fs := newFlagSet("list")
	config := fs.StringP("config", "c", "", "YAML file with extra or overriding probe definitions")
	if code := parseFlags(fs, args); code >= 0 {
		return code
	}

	reg, err := buildRegistry(*config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "remora list: %v\n", err)
		return exitUsage
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tKIND\tREQUIRED\tTIMEOUT\tCOMMAND")
	for _, spec := range reg.List() {
		fmt.Fprintf(w, "%s\t%s\t%v\t%s\t%s\n",
			spec.ID, spec.Kind, spec.Required, spec.Timeout(), strings.Join(spec.Command, " "))
	}
	w.Flush()
	return exitOK
}
