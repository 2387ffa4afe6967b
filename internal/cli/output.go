package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/joseph-ayodele/syllabus-sync/internal/batch"
)

// RunReport is the JSON form of a finished import run.
type RunReport struct {
	Kind       string `json:"kind"`
	Roster     string `json:"roster"`
	Status     string `json:"status"`
	Processed  int    `json:"processed"`
	Created    int    `json:"created"`
	Updated    int    `json:"updated"`
	Skipped    int    `json:"skipped"`
	Failed     int    `json:"failed"`
	DurationMS int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

func reportOf(run *batch.Run, cause error) RunReport {
	c := run.Counters()
	r := RunReport{
		Kind:       run.Kind,
		Roster:     run.Roster,
		Status:     string(run.Status()),
		Processed:  c.Processed,
		Created:    c.Created,
		Updated:    c.Updated,
		Skipped:    c.Skipped,
		Failed:     c.Failed,
		DurationMS: run.Duration().Milliseconds(),
	}
	if cause != nil {
		r.Error = cause.Error()
	}
	return r
}

// writeRuns prints one line per run, or a JSON array.
func writeRuns(w io.Writer, format string, runs []*batch.Run, causes []error) error {
	if format == "json" {
		reports := make([]RunReport, 0, len(runs))
		for i, run := range runs {
			reports = append(reports, reportOf(run, causes[i]))
		}
		return writeJSON(w, reports)
	}
	for i, run := range runs {
		if _, err := fmt.Fprintln(w, run.Summary()); err != nil {
			return err
		}
		if causes[i] != nil {
			if _, err := fmt.Fprintf(w, "  error: %v\n", causes[i]); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
