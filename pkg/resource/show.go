package resource

import (
	"fmt"
	"io"
	"strings"
)

// Render writes the virtual tree's leaf paths to w, one per line, without
// any location information and without creating or touching any accessor.
func (n *Node) Render(w io.Writer) error {
	for _, p := range n.Paths() {
		if _, err := fmt.Fprintln(w, p); err != nil {
			return err
		}
	}
	return nil
}

// Render writes every bound path with its location templates to w. With
// withLocations false only paths are printed. Read-only introspection: no
// accessor performs I/O.
func (p *Physical) Render(w io.Writer, withLocations bool) error {
	for _, acc := range p.Accessors() {
		line := "/" + acc.PathString()
		if withLocations {
			tpls := acc.Templates()
			rendered := make([]string, len(tpls))
			for i, tpl := range tpls {
				rendered[i] = tpl.String()
			}
			line = fmt.Sprintf("%s -> %s", line, strings.Join(rendered, ", "))
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
