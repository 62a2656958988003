// Package migrate rewrites sizes.json files in bulk. Edits go through sjson
// so key order and untouched values survive.
package migrate

import (
	"errors"
	"fmt"
	"os"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/zeromicro/go-zero/core/mr"

	"github.com/cuihairu/filacheck/internal/catalog"
)

var ErrNotArray = errors.New("sizes file is not a JSON array")

// Options apply to every migration.
type Options struct {
	Workers int
	DryRun  bool
}

// Result describes what happened to one file.
type Result struct {
	Path    string
	Changed int
	Err     error
}

// editFunc returns the edited document and the number of edits made.
type editFunc func(raw []byte) ([]byte, int, error)

var indent = &pretty.Options{Width: 1, Prefix: "", Indent: "  "}

// apply runs edit over every sizes.json below dir. A file that fails is
// reported in its Result and does not stop the others.
func apply(dir string, opts Options, edit editFunc) ([]Result, error) {
	files, err := catalog.FindFiles(dir, catalog.EntitySizes.FileName())
	if err != nil {
		return nil, fmt.Errorf("find sizes files: %w", err)
	}
	results := make([]Result, len(files))
	var mrOpts []mr.Option
	if opts.Workers > 0 {
		mrOpts = append(mrOpts, mr.WithWorkers(opts.Workers))
	}
	mr.ForEach(func(source chan<- int) {
		for i := range files {
			source <- i
		}
	}, func(i int) {
		results[i] = applyFile(files[i], opts.DryRun, edit)
	}, mrOpts...)
	return results, nil
}

func applyFile(path string, dryRun bool, edit editFunc) Result {
	res := Result{Path: path}
	doc, err := catalog.ReadDocument(path)
	if err != nil {
		res.Err = err
		return res
	}
	if !gjson.ParseBytes(doc.Raw).IsArray() {
		res.Err = fmt.Errorf("%w: %s", ErrNotArray, path)
		return res
	}
	out, n, err := edit(doc.Raw)
	if err != nil {
		res.Err = fmt.Errorf("edit %s: %w", path, err)
		return res
	}
	res.Changed = n
	if n == 0 || dryRun {
		return res
	}
	if err := os.WriteFile(path, pretty.PrettyOptions(out, indent), 0o644); err != nil {
		res.Err = fmt.Errorf("write %s: %w", path, err)
	}
	return res
}

// Failed counts results carrying an error.
func Failed(results []Result) int {
	n := 0
	for _, r := range results {
		if r.Err != nil {
			n++
		}
	}
	return n
}
