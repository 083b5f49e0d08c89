package location

import (
	"fmt"
	"regexp"
	"strings"
)

var placeholderRe = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Template is a location whose local path or object key may contain
// {variable} placeholders. Templates are immutable; Resolve produces a new
// concrete Location without mutating the template.
type Template struct {
	loc  Location
	vars []string
}

// ParseTemplate parses a template string. Two forms are accepted:
//
//	"local:data/{i}.bin" or "data/{i}.bin"  local filesystem path
//	"blob://results/run-{i}.json"           key inside the store named "blob"
//
// Placeholder names must match [A-Za-z_][A-Za-z0-9_]*. Unbalanced or empty
// braces make the template malformed.
func ParseTemplate(s string) (Template, error) {
	if s == "" {
		return Template{}, fmt.Errorf("empty location template")
	}
	var loc Location
	if idx := strings.Index(s, "://"); idx >= 0 {
		store, key := s[:idx], s[idx+3:]
		if store == "" {
			return Template{}, fmt.Errorf("template %q: missing store identifier", s)
		}
		if key == "" {
			return Template{}, fmt.Errorf("template %q: missing object key", s)
		}
		loc = Object(store, key)
	} else {
		loc = Local(strings.TrimPrefix(s, "local:"))
		if loc.Path() == "" {
			return Template{}, fmt.Errorf("template %q: missing path", s)
		}
	}
	return TemplateOf(loc)
}

// TemplateOf wraps an existing location as a template, extracting its
// placeholder names. A location without placeholders is a valid template
// that resolves to itself.
func TemplateOf(loc Location) (Template, error) {
	target := templateTarget(loc)
	if err := checkBraces(target); err != nil {
		return Template{}, fmt.Errorf("template %q: %w", loc.String(), err)
	}
	var vars []string
	seen := map[string]bool{}
	for _, m := range placeholderRe.FindAllStringSubmatch(target, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			vars = append(vars, m[1])
		}
	}
	return Template{loc: loc, vars: vars}, nil
}

// MustTemplate is ParseTemplate for templates known to be well-formed,
// panicking otherwise. Intended for tests and fixed literals.
func MustTemplate(s string) Template {
	t, err := ParseTemplate(s)
	if err != nil {
		panic(err)
	}
	return t
}

// Variables returns the placeholder names in first-appearance order.
func (t Template) Variables() []string {
	out := make([]string, len(t.vars))
	copy(out, t.vars)
	return out
}

// Raw returns the underlying location with placeholders intact. Used by
// tree rendering, which must not require variable bindings.
func (t Template) Raw() Location { return t.loc }

// Resolve substitutes every placeholder from vars and returns the concrete
// location. It fails if any placeholder has no binding.
func (t Template) Resolve(vars Variables) (Location, error) {
	var missing []string
	replace := func(target string) string {
		return placeholderRe.ReplaceAllStringFunc(target, func(m string) string {
			name := m[1 : len(m)-1]
			val, ok := vars[name]
			if !ok {
				missing = append(missing, name)
				return m
			}
			return val
		})
	}
	out := t.loc
	if t.loc.IsObject() {
		out.key = replace(t.loc.key)
	} else {
		out.path = replace(t.loc.path)
	}
	if len(missing) > 0 {
		return Location{}, fmt.Errorf("template %q: unbound variables %v", t.loc.String(), missing)
	}
	return out, nil
}

// String renders the template with placeholders intact.
func (t Template) String() string { return t.loc.String() }

func templateTarget(loc Location) string {
	if loc.IsObject() {
		return loc.Key()
	}
	return loc.Path()
}

// checkBraces rejects braces that are not part of a valid placeholder.
func checkBraces(s string) error {
	stripped := placeholderRe.ReplaceAllString(s, "")
	if strings.ContainsAny(stripped, "{}") {
		return fmt.Errorf("malformed placeholder braces")
	}
	return nil
}
