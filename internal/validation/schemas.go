package validation

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"github.com/zeromicro/go-zero/core/mr"

	"github.com/cuihairu/filacheck/internal/catalog"
)

// Rules produced while validating a single document.
const (
	RuleSchema      = "schema"
	RuleInvalidJSON = "invalid-json"
)

// rootField is how gojsonschema names the document root.
const rootField = "(root)"

// BuiltinSource marks a schema that came from the binary rather than disk.
const BuiltinSource = "builtin"

//go:embed schemas/*.json
var builtinSchemas embed.FS

// formats lists the format checkers gojsonschema enables by default.
var formats = []string{
	"date", "time", "date-time", "hostname", "email", "idn-email",
	"ipv4", "ipv6", "uri", "uri-reference", "iri", "iri-reference",
	"uri-template", "uuid", "regex", "json-pointer", "relative-json-pointer",
}

// "format" is treated as an annotation: catalog values are never rejected
// for not matching it.
func init() {
	for _, name := range formats {
		gojsonschema.FormatCheckers.Remove(name)
	}
}

// SchemaSet holds one compiled schema per catalog entity.
type SchemaSet struct {
	schemas map[catalog.Entity]*gojsonschema.Schema
	sources map[catalog.Entity]string
}

// LoadSchemas compiles the entity schemas found in dir. Entities without a
// schema file fall back to the built-in default; a file that exists but does
// not compile is an error. An empty dir loads only the defaults.
func LoadSchemas(dir string) (*SchemaSet, error) {
	entities := catalog.Entities()
	compiled := make([]*gojsonschema.Schema, len(entities))
	sources := make([]string, len(entities))

	fns := make([]func() error, 0, len(entities))
	for i, e := range entities {
		i, e := i, e
		fns = append(fns, func() error {
			raw, src, err := readSchema(dir, e)
			if err != nil {
				return err
			}
			s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
			if err != nil {
				return fmt.Errorf("compile %s schema (%s): %w", e, src, err)
			}
			compiled[i] = s
			sources[i] = src
			return nil
		})
	}
	if err := mr.Finish(fns...); err != nil {
		return nil, err
	}

	set := &SchemaSet{
		schemas: make(map[catalog.Entity]*gojsonschema.Schema, len(entities)),
		sources: make(map[catalog.Entity]string, len(entities)),
	}
	for i, e := range entities {
		set.schemas[e] = compiled[i]
		set.sources[e] = sources[i]
	}
	return set, nil
}

func readSchema(dir string, e catalog.Entity) ([]byte, string, error) {
	if dir != "" {
		p := filepath.Join(dir, e.SchemaFile())
		raw, err := os.ReadFile(p)
		if err == nil {
			return raw, p, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, p, fmt.Errorf("read %s schema: %w", e, err)
		}
	}
	raw, err := builtinSchemas.ReadFile("schemas/" + e.SchemaFile())
	if err != nil {
		return nil, BuiltinSource, fmt.Errorf("builtin %s schema: %w", e, err)
	}
	return raw, BuiltinSource, nil
}

// BuiltinSchema returns the embedded default schema for an entity.
func BuiltinSchema(e catalog.Entity) ([]byte, error) {
	return builtinSchemas.ReadFile("schemas/" + e.SchemaFile())
}

// Source reports where the schema for e was loaded from.
func (s *SchemaSet) Source(e catalog.Entity) string { return s.sources[e] }

// Validate checks raw against the schema of e and returns one issue per
// violation, each attributed to path.
func (s *SchemaSet) Validate(e catalog.Entity, path string, raw []byte) []Issue {
	schema, ok := s.schemas[e]
	if !ok {
		return []Issue{Errorf(RuleSchema, path, "no schema for entity %q", e)}
	}
	res, err := schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return []Issue{Errorf(RuleInvalidJSON, path, "%s is not valid JSON: %v", path, err)}
	}
	if res.Valid() {
		return nil
	}
	out := make([]Issue, 0, len(res.Errors()))
	for _, re := range res.Errors() {
		out = append(out, Errorf(RuleSchema, path, "%s", re.Description()).At(Pointer(re.Field())))
	}
	return out
}

// Pointer converts a gojsonschema field path such as
// "0.purchase_links.1.url" into "$[0].purchase_links[1].url".
func Pointer(field string) string {
	if field == "" || field == rootField {
		return "$"
	}
	field = strings.TrimPrefix(field, rootField+".")
	var b strings.Builder
	b.WriteString("$")
	for _, part := range strings.Split(field, ".") {
		if _, err := strconv.Atoi(part); err == nil {
			b.WriteString("[" + part + "]")
			continue
		}
		b.WriteString("." + part)
	}
	return b.String()
}
