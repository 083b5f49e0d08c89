// Package mapping binds logical tree paths to ordered lists of location
// templates. A mapping is built once from configuration and is immutable for
// the remainder of the run.
package mapping

import (
	"sort"
	"strings"

	sdkerrors "github.com/wehubfusion/Daedalus/pkg/errors"
	"github.com/wehubfusion/Daedalus/pkg/location"
)

// Mapping is a table from dotted tree paths to ordered location templates,
// plus one default root location used when a path has no explicit entry.
// One entry may name several physical layers for the same logical path:
// writes go to every layer in order, reads come from the first.
type Mapping struct {
	root    location.Location
	entries map[string][]location.Template
}

// New creates a mapping with the given default root location and no
// explicit entries.
func New(root location.Location) *Mapping {
	return &Mapping{
		root:    root,
		entries: make(map[string][]location.Template),
	}
}

// FromConfig builds a mapping from its configuration shape: a default root
// template string plus dotted path -> template strings. Malformed templates
// are a binding-time error naming the offending path.
func FromConfig(root string, entries map[string][]string) (*Mapping, error) {
	rootTpl, err := location.ParseTemplate(root)
	if err != nil {
		return nil, sdkerrors.Binding("", "malformed root location", err)
	}
	if len(rootTpl.Variables()) > 0 {
		return nil, sdkerrors.Binding("", "root location cannot contain placeholders", nil)
	}
	m := New(rootTpl.Raw())
	for dotted, raws := range entries {
		tpls := make([]location.Template, 0, len(raws))
		for _, raw := range raws {
			tpl, err := location.ParseTemplate(raw)
			if err != nil {
				return nil, sdkerrors.Binding(dotted, "malformed location template", err)
			}
			tpls = append(tpls, tpl)
		}
		m.Set(dotted, tpls...)
	}
	return m, nil
}

// Set records the ordered location templates for a dotted path, replacing
// any previous entry.
func (m *Mapping) Set(dotted string, templates ...location.Template) {
	m.entries[dotted] = append([]location.Template(nil), templates...)
}

// Root returns the default root location.
func (m *Mapping) Root() location.Location { return m.root }

// Resolve returns the location templates for a path: the explicit entry if
// one exists, otherwise a single template derived by appending the path's
// segments to the root. The returned slice is never empty.
func (m *Mapping) Resolve(path []string) []location.Template {
	if tpls, ok := m.entries[strings.Join(path, ".")]; ok && len(tpls) > 0 {
		out := make([]location.Template, len(tpls))
		copy(out, tpls)
		return out
	}
	tpl, err := location.TemplateOf(m.root.Append(path...))
	if err != nil {
		// The root is placeholder-free by construction, so appending plain
		// segments cannot produce a malformed template.
		panic(err)
	}
	return []location.Template{tpl}
}

// Explicit reports whether a dotted path has an explicit entry.
func (m *Mapping) Explicit(dotted string) bool {
	_, ok := m.entries[dotted]
	return ok
}

// Paths returns the explicitly mapped dotted paths in sorted order.
func (m *Mapping) Paths() []string {
	out := make([]string, 0, len(m.entries))
	for k := range m.entries {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
