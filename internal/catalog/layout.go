package catalog

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Layout holds the directories that make up a catalog checkout.
type Layout struct {
	Root       string
	DataDir    string
	StoresDir  string
	SchemasDir string
}

// NewLayout returns the conventional layout below root.
func NewLayout(root string) Layout {
	return Layout{
		Root:       root,
		DataDir:    filepath.Join(root, "data"),
		StoresDir:  filepath.Join(root, "stores"),
		SchemasDir: filepath.Join(root, "schemas"),
	}
}

// Node is one directory of the catalog hierarchy together with the entity
// whose document it should hold.
type Node struct {
	Entity Entity
	Dir    string
}

// File is the path of the node's document.
func (n Node) File() string { return filepath.Join(n.Dir, n.Entity.FileName()) }

// Name is the directory name as found on disk.
func (n Node) Name() string { return filepath.Base(n.Dir) }

// Tree is the result of walking a layout. Every slice is sorted by path.
type Tree struct {
	Brands    []Node
	Materials []Node
	Filaments []Node
	Variants  []Node
	Sizes     []Node
	Stores    []Node
}

// Nodes returns all nodes in hierarchy order.
func (t *Tree) Nodes() []Node {
	out := make([]Node, 0, len(t.Brands)+len(t.Materials)+len(t.Filaments)+len(t.Variants)+len(t.Sizes)+len(t.Stores))
	out = append(out, t.Brands...)
	out = append(out, t.Materials...)
	out = append(out, t.Filaments...)
	out = append(out, t.Variants...)
	out = append(out, t.Sizes...)
	return append(out, t.Stores...)
}

// Named returns the nodes whose directory name is derived from a document key.
func (t *Tree) Named() []Node {
	out := make([]Node, 0, len(t.Brands)+len(t.Materials)+len(t.Filaments)+len(t.Variants)+len(t.Stores))
	out = append(out, t.Brands...)
	out = append(out, t.Materials...)
	out = append(out, t.Filaments...)
	out = append(out, t.Variants...)
	return append(out, t.Stores...)
}

// Walk lists the brand, material, filament and variant directories below
// the data directory and the store directories below the stores directory.
// Only directories count; files lying next to them are ignored.
func (l Layout) Walk() (*Tree, error) {
	t := &Tree{}
	brands, err := subdirs(l.DataDir)
	if err != nil {
		return nil, fmt.Errorf("data dir: %w", err)
	}
	for _, b := range brands {
		t.Brands = append(t.Brands, Node{Entity: EntityBrand, Dir: b})
		materials, err := subdirs(b)
		if err != nil {
			return nil, err
		}
		for _, m := range materials {
			t.Materials = append(t.Materials, Node{Entity: EntityMaterial, Dir: m})
			filaments, err := subdirs(m)
			if err != nil {
				return nil, err
			}
			for _, f := range filaments {
				t.Filaments = append(t.Filaments, Node{Entity: EntityFilament, Dir: f})
				variants, err := subdirs(f)
				if err != nil {
					return nil, err
				}
				for _, v := range variants {
					t.Variants = append(t.Variants, Node{Entity: EntityVariant, Dir: v})
					t.Sizes = append(t.Sizes, Node{Entity: EntitySizes, Dir: v})
				}
			}
		}
	}
	stores, err := subdirs(l.StoresDir)
	if err != nil {
		return nil, fmt.Errorf("stores dir: %w", err)
	}
	for _, s := range stores {
		t.Stores = append(t.Stores, Node{Entity: EntityStore, Dir: s})
	}
	return t, nil
}

// FindFiles returns every file called name below root, at any depth,
// sorted by path.
func FindFiles(root, name string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Name() == name {
			out = append(out, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}

// Exists reports whether path names an existing regular file.
func Exists(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && !fi.IsDir()
}

func subdirs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		isDir := e.IsDir()
		if e.Type()&fs.ModeSymlink != 0 {
			fi, err := os.Stat(path)
			isDir = err == nil && fi.IsDir()
		}
		if isDir {
			out = append(out, path)
		}
	}
	// os.ReadDir already sorts by file name
	return out, nil
}
