package contacts

import (
	"os"
	"path/filepath"
	"sort"
)

// DatabaseFile is the AddressBook database file name on macOS 10.9 and later.
const DatabaseFile = "AddressBook-v22.abcddb"

// DefaultRoot returns the AddressBook directory for the given user home.
func DefaultRoot(home string) string {
	return filepath.Join(home, "Library", "Application Support", "AddressBook")
}

// DiscoverSources lists the contact databases under root: every
// Sources/<id>/AddressBook-v22.abcddb that exists (following symlinked
// source directories), sorted by path, followed by
// the legacy root-level database if present. The returned order is the merge
// order, so later entries win on conflicting keys.
func DiscoverSources(root string) []string {
	var paths []string

	entries, err := os.ReadDir(filepath.Join(root, "Sources"))
	if err == nil {
		for _, e := range entries {
			p := filepath.Join(root, "Sources", e.Name(), DatabaseFile)
			if fileExists(p) {
				paths = append(paths, p)
			}
		}
	}
	sort.Strings(paths)

	if legacy := filepath.Join(root, DatabaseFile); fileExists(legacy) {
		paths = append(paths, legacy)
	}
	return paths
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
