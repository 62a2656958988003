package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/tidwall/gjson"
)

var (
	// ErrUnreadable wraps failures to open or read a catalog file.
	ErrUnreadable = errors.New("unreadable file")
	// ErrInvalidJSON wraps parse failures of a catalog file.
	ErrInvalidJSON = errors.New("invalid JSON")
)

// Document is a parsed catalog file. Raw always holds valid JSON.
type Document struct {
	Path string
	Raw  []byte
}

// ReadDocument loads and syntax-checks the JSON file at path.
func ReadDocument(path string) (Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("%w: %s: %v", ErrUnreadable, path, err)
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return Document{}, fmt.Errorf("%w: %s: %v", ErrInvalidJSON, path, err)
	}
	return Document{Path: path, Raw: raw}, nil
}

// Get looks up a gjson path in the document.
func (d Document) Get(path string) gjson.Result { return gjson.GetBytes(d.Raw, path) }

// Root returns the whole document as a gjson result.
func (d Document) Root() gjson.Result { return gjson.ParseBytes(d.Raw) }

// String returns the value at key, or "" when absent. Non-string scalars are
// rendered as their JSON text.
func (d Document) String(key string) string { return d.Get(key).String() }
