// Package report renders a single probe result for standalone
// invocations and for embedding in bundles.
package report

import (
	"encoding/csv"
	"fmt"
	"strings"
	"time"

	"bytemomo/remora/internal/domain"

	"gopkg.in/yaml.v3"
)

// Mode selects the rendering of a probe result.
type Mode string

const (
	// ModeHuman renders a banner-delimited text block.
	ModeHuman Mode = "human"
	// ModeCSV renders tabular probe output as header plus data rows.
	ModeCSV Mode = "csv"
	// ModeStructured renders a nested key/value record.
	ModeStructured Mode = "structured"
)

// ParseMode maps a CLI flag value onto a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(s)) {
	case ModeHuman:
		return ModeHuman, nil
	case ModeCSV:
		return ModeCSV, nil
	case ModeStructured:
		return ModeStructured, nil
	}
	return "", fmt.Errorf("unknown output mode %q (want human, csv or structured)", s)
}

// Render formats a probe result. It never fails: output that does not
// fit the requested mode degrades to the human rendering with a note.
func Render(res domain.ProbeResult, mode Mode) string {
	switch mode {
	case ModeCSV:
		if out, ok := renderCSV(res); ok {
			return out
		}
		return renderHuman(res, "output is not tabular; falling back to report view")
	case ModeStructured:
		if out, ok := renderStructured(res); ok {
			return out
		}
		return renderHuman(res, "output could not be structured; falling back to report view")
	default:
		return renderHuman(res, "")
	}
}

const banner = "================================================================"

func renderHuman(res domain.ProbeResult, note string) string {
	var b strings.Builder
	b.WriteString(banner + "\n")
	fmt.Fprintf(&b, " probe: %-12s status: %-10s elapsed: %s\n",
		res.ProbeID, res.Status, res.Duration.Round(time.Millisecond))
	if res.ExitCode != nil {
		fmt.Fprintf(&b, " exit code: %d\n", *res.ExitCode)
	}
	if res.Note != "" {
		fmt.Fprintf(&b, " note: %s\n", res.Note)
	}
	if note != "" {
		fmt.Fprintf(&b, " note: %s\n", note)
	}
	b.WriteString(banner + "\n")
	if len(res.RawOutput) > 0 {
		b.Write(res.RawOutput)
		if res.RawOutput[len(res.RawOutput)-1] != '\n' {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// renderCSV treats the output as tabular when every non-empty line
// splits into the same number of fields as the first, and there are at
// least a header and one data row.
func renderCSV(res domain.ProbeResult) (string, bool) {
	records, ok := tabularRecords(res.RawOutput)
	if !ok {
		return "", false
	}
	var b strings.Builder
	w := csv.NewWriter(&b)
	if err := w.WriteAll(records); err != nil {
		return "", false
	}
	w.Flush()
	return b.String(), true
}

func tabularRecords(raw []byte) ([][]string, bool) {
	var records [][]string
	for _, line := range strings.Split(string(raw), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		records = append(records, strings.Fields(line))
	}
	if len(records) < 2 {
		return nil, false
	}
	width := len(records[0])
	if width < 2 {
		return nil, false
	}
	for _, rec := range records[1:] {
		if len(rec) != width {
			return nil, false
		}
	}
	return records, true
}

func renderStructured(res domain.ProbeResult) (string, bool) {
	record := struct {
		Probe      string    `yaml:"probe"`
		Status     string    `yaml:"status"`
		ExitCode   *int      `yaml:"exit_code,omitempty"`
		Note       string    `yaml:"note,omitempty"`
		StartedAt  time.Time `yaml:"started_at"`
		DurationMS float64   `yaml:"duration_ms"`
		Output     string    `yaml:"output"`
	}{
		Probe:      res.ProbeID,
		Status:     string(res.Status),
		ExitCode:   res.ExitCode,
		Note:       res.Note,
		StartedAt:  res.StartedAt,
		DurationMS: float64(res.Duration) / float64(time.Millisecond),
		Output:     string(res.RawOutput),
	}
	out, err := yaml.Marshal(&record)
	if err != nil {
		return "", false
	}
	return string(out), true
}
