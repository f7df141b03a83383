// Package contacts merges macOS AddressBook sources into a single
// identifier-to-name directory and resolves message handles against it.
package contacts

import (
	"strings"

	"github.com/wesm/imsgvault/internal/identifier"
)

// Sender names used when a handle cannot or need not be resolved.
const (
	NameMe      = "Me"
	NameUnknown = "Unknown"
)

// Directory maps identifier keys (raw phone, "+1"-prefixed normalized phone,
// normalized phone, lower-cased email) to display names. A nil *Directory
// behaves as an empty one.
type Directory struct {
	names map[string]string
}

// NewDirectory returns an empty directory.
func NewDirectory() *Directory {
	return &Directory{names: make(map[string]string)}
}

// Len returns the number of keys in the directory.
func (d *Directory) Len() int {
	if d == nil {
		return 0
	}
	return len(d.names)
}

// AddPhone stores name under every key variant of phone.
func (d *Directory) AddPhone(phone, name string) {
	for _, k := range identifier.PhoneKeys(phone) {
		d.names[k] = name
	}
}

// AddEmail stores name under the lower-cased email.
func (d *Directory) AddEmail(email, name string) {
	d.names[identifier.NormalizeEmail(email)] = name
}

// Resolve looks up a display name for a raw handle identifier. Lookups are
// tried in order: exact key, lower-cased key, normalized phone.
func (d *Directory) Resolve(id string) (string, bool) {
	if d == nil || id == "" {
		return "", false
	}
	if name, ok := d.names[id]; ok {
		return name, true
	}
	if name, ok := d.names[strings.ToLower(id)]; ok {
		return name, true
	}
	if n := identifier.NormalizePhone(id); n != "" {
		if name, ok := d.names[n]; ok {
			return name, true
		}
	}
	return "", false
}

// SenderName returns the name shown for a message or reaction author:
// NameMe for self-sent rows, NameUnknown for an empty identifier, otherwise
// the resolved name or the raw identifier.
func (d *Directory) SenderName(id string, isFromMe bool) string {
	if isFromMe {
		return NameMe
	}
	if id == "" {
		return NameUnknown
	}
	if name, ok := d.Resolve(id); ok {
		return name
	}
	return id
}

// Merge folds directories into a new one in argument order. On key
// collisions the later directory wins.
func Merge(dirs ...*Directory) *Directory {
	out := NewDirectory()
	for _, d := range dirs {
		if d == nil {
			continue
		}
		for k, v := range d.names {
			out.names[k] = v
		}
	}
	return out
}
