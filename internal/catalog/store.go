package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
)

// ErrStoreNotFound is returned when no store folder matches an id.
var ErrStoreNotFound = errors.New("store not found")

// Store is the content of stores/<id>/store.json.
type Store struct {
	ID                      string   `json:"id" yaml:"id"`
	Name                    string   `json:"name" yaml:"name"`
	StorefrontURL           string   `json:"storefront_url" yaml:"storefront_url"`
	StorefrontAffiliateLink string   `json:"storefront_affiliate_link" yaml:"storefront_affiliate_link"`
	Logo                    string   `json:"logo" yaml:"logo"`
	ShipsFrom               []string `json:"ships_from" yaml:"ships_from"`
	ShipsTo                 []string `json:"ships_to" yaml:"ships_to"`
}

// Normalize trims every field and drops empty country entries.
func (s *Store) Normalize() {
	s.ID = strings.TrimSpace(s.ID)
	s.Name = strings.TrimSpace(s.Name)
	s.StorefrontURL = strings.TrimSpace(s.StorefrontURL)
	s.StorefrontAffiliateLink = strings.TrimSpace(s.StorefrontAffiliateLink)
	s.Logo = strings.TrimSpace(s.Logo)
	s.ShipsFrom = compact(s.ShipsFrom)
	s.ShipsTo = compact(s.ShipsTo)
}

// storeIndent matches the two-space layout of catalog files.
var storeIndent = &pretty.Options{Width: 1, Prefix: "", Indent: "  "}

// Marshal renders the store document the way it is stored on disk.
func (s Store) Marshal() ([]byte, error) {
	if s.ShipsFrom == nil {
		s.ShipsFrom = []string{}
	}
	if s.ShipsTo == nil {
		s.ShipsTo = []string{}
	}
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

// SplitList parses a comma separated list such as "DE, AT,  CH".
func SplitList(s string) []string {
	return compact(strings.Split(s, ","))
}

func compact(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// StoreDir is the folder holding the store with the given id.
func (l Layout) StoreDir(id string) string {
	return filepath.Join(l.StoresDir, Cleanse(id))
}

// ListStores loads every store document. Folders without a readable
// store.json are skipped.
func (l Layout) ListStores() ([]Store, error) {
	dirs, err := subdirs(l.StoresDir)
	if err != nil {
		return nil, err
	}
	out := make([]Store, 0, len(dirs))
	for _, dir := range dirs {
		s, err := readStore(filepath.Join(dir, EntityStore.FileName()))
		if err != nil {
			slog.Debug("skip store", "dir", dir, "error", err)
			continue
		}
		out = append(out, *s)
	}
	return out, nil
}

// LoadStore reads the store stored under the folder derived from id.
func (l Layout) LoadStore(id string) (*Store, error) {
	path := filepath.Join(l.StoreDir(id), EntityStore.FileName())
	if !Exists(path) {
		return nil, fmt.Errorf("%w: %s", ErrStoreNotFound, id)
	}
	return readStore(path)
}

// EncodeStore returns the document SaveStore would write for s. The
// existing store.json (under oldID, else under s.ID) is edited in place so
// keys Store does not know about and the key order survive.
func (l Layout) EncodeStore(s Store, oldID string) ([]byte, error) {
	s.Normalize()
	base, err := l.storeRaw(oldID)
	if err != nil {
		return nil, err
	}
	if base == nil {
		if base, err = l.storeRaw(s.ID); err != nil {
			return nil, err
		}
	}
	if base == nil {
		return s.Marshal()
	}
	if s.ShipsFrom == nil {
		s.ShipsFrom = []string{}
	}
	if s.ShipsTo == nil {
		s.ShipsTo = []string{}
	}
	for _, f := range []struct {
		key string
		val any
	}{
		{"id", s.ID},
		{"name", s.Name},
		{"storefront_url", s.StorefrontURL},
		{"storefront_affiliate_link", s.StorefrontAffiliateLink},
		{"logo", s.Logo},
		{"ships_from", s.ShipsFrom},
		{"ships_to", s.ShipsTo},
	} {
		if base, err = sjson.SetBytes(base, f.key, f.val); err != nil {
			return nil, fmt.Errorf("set %s: %w", f.key, err)
		}
	}
	return pretty.PrettyOptions(base, storeIndent), nil
}

// storeRaw returns the current store.json of id, or nil when there is none
// or it is not a JSON object.
func (l Layout) storeRaw(id string) ([]byte, error) {
	if strings.TrimSpace(id) == "" {
		return nil, nil
	}
	path := filepath.Join(l.StoreDir(id), EntityStore.FileName())
	if !Exists(path) {
		return nil, nil
	}
	doc, err := ReadDocument(path)
	if errors.Is(err, ErrInvalidJSON) {
		slog.Warn("store file replaced", "path", path, "error", err)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !doc.Root().IsObject() {
		return nil, nil
	}
	return doc.Raw, nil
}

// SaveStore writes s to stores/<Cleanse(s.ID)>/store.json. When oldID names
// a different existing folder, that folder is renamed first so logo files
// move along with the document.
func (l Layout) SaveStore(s Store, oldID string) (string, error) {
	s.Normalize()
	if s.ID == "" {
		return "", errors.New("store id is required")
	}
	b, err := l.EncodeStore(s, oldID)
	if err != nil {
		return "", err
	}
	dir := l.StoreDir(s.ID)
	if oldID != "" && Cleanse(oldID) != Cleanse(s.ID) {
		oldDir := l.StoreDir(oldID)
		if _, err := os.Stat(oldDir); err == nil {
			if _, err := os.Stat(dir); err == nil {
				return "", fmt.Errorf("store folder %s already exists", dir)
			}
			if err := os.Rename(oldDir, dir); err != nil {
				return "", fmt.Errorf("rename store folder: %w", err)
			}
			slog.Info("store renamed", "from", oldDir, "to", dir)
		}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(dir, EntityStore.FileName()), b, 0o644); err != nil {
		return "", err
	}
	return dir, nil
}

// DeleteStore removes the files of a store folder and then the folder.
// Nested directories are left alone, which makes the final removal fail.
func (l Layout) DeleteStore(id string) error {
	dir := l.StoreDir(id)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrStoreNotFound, id)
		}
		return err
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(dir, e.Name())); err != nil {
			return err
		}
	}
	return os.Remove(dir)
}

func readStore(path string) (*Store, error) {
	doc, err := ReadDocument(path)
	if err != nil {
		return nil, err
	}
	var s Store
	if err := json.Unmarshal(doc.Raw, &s); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &s, nil
}
