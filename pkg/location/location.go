// Package location models physical places to read and write bytes: local
// filesystem paths and object-store references. Locations are immutable
// values with no lifecycle beyond construction; templated locations carry
// {variable} placeholders substituted at access time.
package location

import (
	"fmt"
	"path"
	"strings"
)

// Kind discriminates the two location variants.
type Kind int

const (
	// KindLocal is a path on the local filesystem.
	KindLocal Kind = iota
	// KindObject is a key inside a named object store.
	KindObject
)

// Location identifies a physical place to read or write bytes.
// The zero value is an empty local path.
type Location struct {
	kind  Kind
	path  string // local path, KindLocal only
	store string // store identifier, KindObject only
	key   string // object key, KindObject only
}

// Local returns a local filesystem location.
func Local(p string) Location {
	return Location{kind: KindLocal, path: p}
}

// Object returns an object-store location addressed by store id and key.
func Object(store, key string) Location {
	return Location{kind: KindObject, store: store, key: key}
}

// Kind returns the location variant.
func (l Location) Kind() Kind { return l.kind }

// IsLocal reports whether the location is a local filesystem path.
func (l Location) IsLocal() bool { return l.kind == KindLocal }

// IsObject reports whether the location is an object-store reference.
func (l Location) IsObject() bool { return l.kind == KindObject }

// Path returns the local path. Empty for object locations.
func (l Location) Path() string { return l.path }

// Store returns the object store identifier. Empty for local locations.
func (l Location) Store() string { return l.store }

// Key returns the object key. Empty for local locations.
func (l Location) Key() string { return l.key }

// Append returns a new location with the given segments appended to the
// local path or object key. The receiver is unchanged.
func (l Location) Append(segments ...string) Location {
	if len(segments) == 0 {
		return l
	}
	joined := strings.Join(segments, "/")
	switch l.kind {
	case KindObject:
		out := l
		if l.key == "" {
			out.key = joined
		} else {
			out.key = path.Join(l.key, joined)
		}
		return out
	default:
		out := l
		if l.path == "" {
			out.path = joined
		} else {
			out.path = path.Join(l.path, joined)
		}
		return out
	}
}

// String renders the location in the same form accepted by ParseTemplate:
// "local:path" or "store://key".
func (l Location) String() string {
	if l.kind == KindObject {
		return fmt.Sprintf("%s://%s", l.store, l.key)
	}
	return "local:" + l.path
}
