// Package storage provides the byte-level backends accessors perform I/O
// against: a local filesystem store, an Azure Blob store, and a mount table
// routing locations to stores by identifier.
package storage

import (
	"context"
	"fmt"
	"sort"

	"github.com/wehubfusion/Daedalus/pkg/location"
)

// Store reads and writes whole objects addressed by a key. Implementations
// must be safe for concurrent use.
type Store interface {
	Read(ctx context.Context, key string) ([]byte, error)
	Write(ctx context.Context, key string, data []byte) error
	Exists(ctx context.Context, key string) (bool, error)
}

// Mounts routes locations to stores: local locations to the local store,
// object locations to the store mounted under their identifier. Mounts are
// assembled before binding and read-only afterwards.
type Mounts struct {
	local  Store
	stores map[string]Store
}

// NewMounts creates a mount table with the given local store. A nil local
// store defaults to the plain filesystem store.
func NewMounts(local Store) *Mounts {
	if local == nil {
		local = NewLocalStore("")
	}
	return &Mounts{
		local:  local,
		stores: make(map[string]Store),
	}
}

// Mount registers a store under an identifier, replacing any previous one.
func (m *Mounts) Mount(id string, s Store) {
	m.stores[id] = s
}

// Mounted reports whether a store identifier is registered.
func (m *Mounts) Mounted(id string) bool {
	_, ok := m.stores[id]
	return ok
}

// StoreIDs returns the mounted identifiers in sorted order.
func (m *Mounts) StoreIDs() []string {
	out := make([]string, 0, len(m.stores))
	for id := range m.stores {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (m *Mounts) route(loc location.Location) (Store, string, error) {
	if loc.IsLocal() {
		return m.local, loc.Path(), nil
	}
	s, ok := m.stores[loc.Store()]
	if !ok {
		return nil, "", fmt.Errorf("no store mounted for %q", loc.Store())
	}
	return s, loc.Key(), nil
}

// Read fetches the full contents at a location.
func (m *Mounts) Read(ctx context.Context, loc location.Location) ([]byte, error) {
	s, key, err := m.route(loc)
	if err != nil {
		return nil, err
	}
	return s.Read(ctx, key)
}

// Write stores data at a location, creating intermediate structure as the
// backend requires.
func (m *Mounts) Write(ctx context.Context, loc location.Location, data []byte) error {
	s, key, err := m.route(loc)
	if err != nil {
		return err
	}
	return s.Write(ctx, key, data)
}

// Exists probes a location without reading its contents.
func (m *Mounts) Exists(ctx context.Context, loc location.Location) (bool, error) {
	s, key, err := m.route(loc)
	if err != nil {
		return false, err
	}
	return s.Exists(ctx, key)
}
