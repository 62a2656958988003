// Package catalog describes the on-disk layout of the filament catalog and
// provides read access to its directories and JSON documents.
package catalog

import "fmt"

// Entity identifies one kind of catalog document.
type Entity string

const (
	EntityBrand    Entity = "brand"
	EntityMaterial Entity = "material"
	EntityFilament Entity = "filament"
	EntityVariant  Entity = "variant"
	EntitySizes    Entity = "sizes"
	EntityStore    Entity = "store"
)

// Entities returns every entity in hierarchy order, stores last.
func Entities() []Entity {
	return []Entity{EntityBrand, EntityMaterial, EntityFilament, EntityVariant, EntitySizes, EntityStore}
}

// ParseEntity maps a name such as "brand" to its Entity.
func ParseEntity(s string) (Entity, error) {
	for _, e := range Entities() {
		if string(e) == s {
			return e, nil
		}
	}
	return "", fmt.Errorf("unknown entity %q", s)
}

// FileName is the document file stored in the entity's directory.
func (e Entity) FileName() string { return string(e) + ".json" }

// SchemaFile is the schema file name under the schemas directory.
func (e Entity) SchemaFile() string { return string(e) + "_schema.json" }

// NameKey returns the document key whose cleansed value must equal the
// directory name. Sizes documents do not name a directory.
func (e Entity) NameKey() string {
	switch e {
	case EntityBrand:
		return "brand"
	case EntityMaterial:
		return "material"
	case EntityFilament:
		return "name"
	case EntityVariant:
		return "color_name"
	case EntityStore:
		return "id"
	default:
		return ""
	}
}
