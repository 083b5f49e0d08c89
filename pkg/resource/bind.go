package resource

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	sdkerrors "github.com/wehubfusion/Daedalus/pkg/errors"
	"github.com/wehubfusion/Daedalus/pkg/mapping"
	"github.com/wehubfusion/Daedalus/pkg/storage"
)

// Physical is the resolved counterpart of a virtual tree: same path set,
// same folder shape, every file leaf replaced by a bound Accessor. Built
// once per run and read-only afterwards.
type Physical struct {
	root *pnode
}

type pnode struct {
	name     string
	children map[string]*pnode
	acc      *Accessor
}

// Bind merges a virtual tree with a location mapping into a physical tree.
// Binding is purely structural: it performs no I/O and cannot fail because
// a file is missing. It does fail on malformed mapping entries: a template
// placeholder that is not one of the leaf's repetition keys, or an object
// template whose store is not mounted.
func Bind(tree *Node, m *mapping.Mapping, mounts *storage.Mounts, logger *zap.Logger) (*Physical, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if mounts == nil {
		mounts = storage.NewMounts(nil)
	}

	root := &pnode{children: make(map[string]*pnode)}
	var bindErr error
	tree.walk(nil, func(path []string, node *Node) {
		if bindErr != nil {
			return
		}
		if len(path) == 0 {
			return
		}
		cur := root
		for _, seg := range path[:len(path)-1] {
			cur = cur.children[seg]
		}
		child := &pnode{name: path[len(path)-1], children: make(map[string]*pnode)}
		cur.children[child.name] = child

		vf := node.file
		if vf == nil {
			return
		}
		acc, err := bindFile(path, vf, m, mounts, logger)
		if err != nil {
			bindErr = err
			return
		}
		child.acc = acc
	})
	if bindErr != nil {
		return nil, bindErr
	}

	logger.Debug("Bound resource tree", zap.Int("leaves", len(tree.Files())))
	return &Physical{root: root}, nil
}

func bindFile(path []string, vf *VirtualFile, m *mapping.Mapping, mounts *storage.Mounts, logger *zap.Logger) (*Accessor, error) {
	pathStr := strings.Join(path, "/")
	templates := m.Resolve(path)

	allowed := make(map[string]bool, len(vf.repKeys))
	for _, k := range vf.repKeys {
		allowed[k] = true
	}
	for _, tpl := range templates {
		for _, v := range tpl.Variables() {
			if !allowed[v] {
				return nil, sdkerrors.Binding(pathStr,
					fmt.Sprintf("template %s references unknown placeholder {%s}", tpl, v), nil)
			}
		}
		if raw := tpl.Raw(); raw.IsObject() && !mounts.Mounted(raw.Store()) {
			return nil, sdkerrors.Binding(pathStr,
				fmt.Sprintf("template %s references unmounted store %q", tpl, raw.Store()), nil)
		}
	}

	return &Accessor{
		path:       append([]string(nil), path...),
		templates:  templates,
		readCodec:  vf.readCodec,
		writeCodec: vf.writeCodec,
		repKeys:    append([]string(nil), vf.repKeys...),
		mounts:     mounts,
		logger:     logger,
	}, nil
}

// Accessor returns the bound accessor at an exact path. A path with no
// accessor is a structural lookup error, never silently defaulted.
func (p *Physical) Accessor(path []string) (*Accessor, error) {
	cur := p.root
	for _, seg := range path {
		next, ok := cur.children[seg]
		if !ok {
			return nil, sdkerrors.Lookup(strings.Join(path, "/"))
		}
		cur = next
	}
	if cur.acc == nil {
		return nil, sdkerrors.Lookup(strings.Join(path, "/"))
	}
	return cur.acc, nil
}

// Accessors returns every bound accessor in deterministic path order.
func (p *Physical) Accessors() []*Accessor {
	var out []*Accessor
	p.root.walk(func(acc *Accessor) {
		out = append(out, acc)
	})
	return out
}

func (n *pnode) walk(fn func(acc *Accessor)) {
	if n.acc != nil {
		fn(n.acc)
	}
	names := make([]string, 0, len(n.children))
	for name := range n.children {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		n.children[name].walk(fn)
	}
}
