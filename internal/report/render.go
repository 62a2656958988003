// Package report renders validation reports and archives them.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/tidwall/pretty"
	"gopkg.in/yaml.v3"

	"github.com/cuihairu/filacheck/internal/validation"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Formats lists the accepted output formats.
func Formats() []string { return []string{FormatText, FormatJSON, FormatYAML} }

// Render writes r to w in the given format.
func Render(w io.Writer, r *validation.Report, format string, strict bool) error {
	switch strings.ToLower(format) {
	case "", FormatText:
		return renderText(w, r, strict)
	case FormatJSON:
		b, err := Marshal(r)
		if err != nil {
			return err
		}
		_, err = w.Write(b)
		return err
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q (want one of %s)", format, strings.Join(Formats(), ", "))
	}
}

// Marshal encodes r as indented JSON.
func Marshal(r *validation.Report) ([]byte, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encode json: %w", err)
	}
	return pretty.Pretty(b), nil
}

func renderText(w io.Writer, r *validation.Report, strict bool) error {
	for _, i := range r.Issues {
		if _, err := fmt.Fprintln(w, Line(i)); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, r.Summarize(strict).String())
	return err
}

// Line formats one issue for terminal output.
func Line(i validation.Issue) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-7s [%s] ", i.Severity, i.Rule)
	if !strings.Contains(i.Message, i.Path) {
		b.WriteString(i.Path)
		if i.Pointer != "" {
			b.WriteString(" " + i.Pointer)
		}
		b.WriteString(": ")
	}
	b.WriteString(i.Message)
	return b.String()
}
