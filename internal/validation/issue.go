package validation

import (
	"fmt"
	"sort"
)

// Severity ranks an issue. Errors fail a run; warnings only fail strict runs.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is a single finding about a catalog file or directory.
type Issue struct {
	Severity Severity `json:"severity" yaml:"severity"`
	Rule     string   `json:"rule" yaml:"rule"`
	Path     string   `json:"path" yaml:"path"`
	Pointer  string   `json:"pointer,omitempty" yaml:"pointer,omitempty"`
	Message  string   `json:"message" yaml:"message"`
}

// Errorf builds an error-level issue.
func Errorf(rule, path, format string, args ...any) Issue {
	return Issue{Severity: SeverityError, Rule: rule, Path: path, Message: fmt.Sprintf(format, args...)}
}

// Warnf builds a warning-level issue.
func Warnf(rule, path, format string, args ...any) Issue {
	return Issue{Severity: SeverityWarning, Rule: rule, Path: path, Message: fmt.Sprintf(format, args...)}
}

// At returns a copy of the issue anchored at a JSON path inside the file.
func (i Issue) At(pointer string) Issue {
	i.Pointer = pointer
	return i
}

func (i Issue) String() string {
	return fmt.Sprintf("%s [%s] %s", i.Severity, i.Rule, i.Message)
}

// Merge concatenates task results and sorts them so the outcome does not
// depend on the order in which tasks finished.
func Merge(results ...[]Issue) []Issue {
	n := 0
	for _, r := range results {
		n += len(r)
	}
	out := make([]Issue, 0, n)
	for _, r := range results {
		out = append(out, r...)
	}
	sort.SliceStable(out, func(a, b int) bool {
		x, y := out[a], out[b]
		if x.Path != y.Path {
			return x.Path < y.Path
		}
		if x.Pointer != y.Pointer {
			return x.Pointer < y.Pointer
		}
		if x.Rule != y.Rule {
			return x.Rule < y.Rule
		}
		return x.Message < y.Message
	})
	return out
}
