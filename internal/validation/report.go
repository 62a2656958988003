package validation

import (
	"fmt"
	"time"
)

// Report aggregates the outcome of one validation run.
type Report struct {
	RunID     string        `json:"run_id" yaml:"run_id"`
	StartedAt time.Time     `json:"started_at" yaml:"started_at"`
	Duration  time.Duration `json:"duration_ns" yaml:"duration_ns"`
	Passes    []string      `json:"passes" yaml:"passes"`
	Tasks     int           `json:"tasks" yaml:"tasks"`
	Issues    []Issue       `json:"issues" yaml:"issues"`
}

// Errors counts error-level issues.
func (r *Report) Errors() int { return r.count(SeverityError) }

// Warnings counts warning-level issues.
func (r *Report) Warnings() int { return r.count(SeverityWarning) }

func (r *Report) count(s Severity) int {
	n := 0
	for _, i := range r.Issues {
		if i.Severity == s {
			n++
		}
	}
	return n
}

// Failed reports whether the run should be treated as a failure. In strict
// mode warnings fail the run as well.
func (r *Report) Failed(strict bool) bool {
	if r.Errors() > 0 {
		return true
	}
	return strict && r.Warnings() > 0
}

// Summary is the compact form of a report sent to notification sinks.
type Summary struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	DurationMS int64     `json:"duration_ms"`
	Passes     []string  `json:"passes"`
	Tasks      int       `json:"tasks"`
	Errors     int       `json:"errors"`
	Warnings   int       `json:"warnings"`
	Failed     bool      `json:"failed"`
	ArchiveKey string    `json:"archive_key,omitempty"`
	ArchiveURL string    `json:"archive_url,omitempty"`
}

// Summarize condenses the report.
func (r *Report) Summarize(strict bool) Summary {
	return Summary{
		RunID:      r.RunID,
		StartedAt:  r.StartedAt,
		DurationMS: r.Duration.Milliseconds(),
		Passes:     r.Passes,
		Tasks:      r.Tasks,
		Errors:     r.Errors(),
		Warnings:   r.Warnings(),
		Failed:     r.Failed(strict),
	}
}

func (s Summary) String() string {
	status := "passed"
	if s.Failed {
		status = "failed"
	}
	return fmt.Sprintf("validation %s: %d error(s), %d warning(s) in %d task(s)", status, s.Errors, s.Warnings, s.Tasks)
}
