package location

// Variables maps repetition-key names to their current string values.
// All operations copy; a Variables value handed to an accessor is never
// mutated, which is what makes bound accessors safe to share.
type Variables map[string]string

// With returns a copy of v with name bound to value.
func (v Variables) With(name, value string) Variables {
	out := make(Variables, len(v)+1)
	for k, val := range v {
		out[k] = val
	}
	out[name] = value
	return out
}

// Merge returns a copy of v with all bindings from other applied on top.
func (v Variables) Merge(other Variables) Variables {
	out := make(Variables, len(v)+len(other))
	for k, val := range v {
		out[k] = val
	}
	for k, val := range other {
		out[k] = val
	}
	return out
}
