package catalog

import "strings"

// Cleanse turns a display name into the folder name used on disk: every
// "/" becomes a space and surrounding whitespace is dropped.
func Cleanse(name string) string {
	return strings.TrimSpace(strings.ReplaceAll(name, "/", " "))
}
