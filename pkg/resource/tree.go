package resource

import (
	"sort"
	"strings"

	sdkerrors "github.com/wehubfusion/Daedalus/pkg/errors"
)

// Node is a virtual resource tree node: an internal named folder, a plain
// folder leaf, or a VirtualFile leaf. The root node is the unnamed folder.
//
// Leaf paths are unique within a tree. Merging trees that declare the same
// leaf requires identical declarations; anything else fails before any task
// runs.
type Node struct {
	name     string
	children map[string]*Node
	file     *VirtualFile
}

// NewTree creates an empty virtual tree.
func NewTree() *Node {
	return &Node{children: make(map[string]*Node)}
}

// TreeOf builds a tree containing the given files, failing on conflicting
// declarations.
func TreeOf(files ...*VirtualFile) (*Node, error) {
	t := NewTree()
	for _, vf := range files {
		if err := t.Add(vf); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Name returns the node's name; empty for the root.
func (n *Node) Name() string { return n.name }

// File returns the VirtualFile declared at this node, or nil for folders.
func (n *Node) File() *VirtualFile { return n.file }

// IsEmpty reports whether the tree declares nothing at all.
func (n *Node) IsEmpty() bool { return n.file == nil && len(n.children) == 0 }

// Add declares a VirtualFile in the tree, creating folders along its path.
// Re-adding an identical declaration is a no-op; a differing declaration at
// an occupied path is a tree conflict.
func (n *Node) Add(vf *VirtualFile) error {
	return n.insert(vf.Path(), vf.clone())
}

// AddFolder declares a plain folder leaf at a slash-separated path.
func (n *Node) AddFolder(path string) error {
	segments := splitPath(path)
	if len(segments) == 0 {
		return nil
	}
	cur := n
	for _, seg := range segments {
		if cur.file != nil {
			return sdkerrors.TreeConflict(strings.Join(segments, "/"),
				"a file is already declared on this path")
		}
		next, ok := cur.children[seg]
		if !ok {
			next = &Node{name: seg, children: make(map[string]*Node)}
			cur.children[seg] = next
		}
		cur = next
	}
	if cur.file != nil {
		return sdkerrors.TreeConflict(strings.Join(segments, "/"),
			"a file is already declared at this path")
	}
	return nil
}

func (n *Node) insert(path []string, vf *VirtualFile) error {
	cur := n
	for i, seg := range path {
		if cur.file != nil {
			return sdkerrors.TreeConflict(strings.Join(path[:i], "/"),
				"a file is declared where a folder is required")
		}
		next, ok := cur.children[seg]
		if !ok {
			next = &Node{name: seg, children: make(map[string]*Node)}
			cur.children[seg] = next
		}
		cur = next
	}
	if len(cur.children) > 0 {
		return sdkerrors.TreeConflict(strings.Join(path, "/"),
			"a folder is declared where a file is required")
	}
	if cur.file != nil {
		if !sameDeclaration(cur.file, vf) {
			return sdkerrors.TreeConflict(strings.Join(path, "/"),
				"two stages declare this path with different types or capabilities")
		}
		return nil
	}
	cur.file = vf
	return nil
}

// Merge returns a new tree containing the union of a and b. Both inputs are
// left untouched. Identical leaf declarations merge; differing ones are a
// tree conflict.
func Merge(a, b *Node) (*Node, error) {
	out := a.Clone()
	if err := mergeInto(out, b, nil); err != nil {
		return nil, err
	}
	return out, nil
}

func mergeInto(dst, src *Node, path []string) error {
	if src.file != nil {
		return dst.insert(append([]string(nil), path...), src.file.clone())
	}
	for _, name := range src.childNames() {
		child := src.children[name]
		childPath := append(append([]string(nil), path...), name)
		if child.file != nil {
			if err := dst.insert(childPath, child.file.clone()); err != nil {
				return err
			}
			continue
		}
		if err := dst.ensureFolder(childPath); err != nil {
			return err
		}
		if err := mergeInto(dst, child, childPath); err != nil {
			return err
		}
	}
	return nil
}

func (n *Node) ensureFolder(path []string) error {
	cur := n
	for i, seg := range path {
		if cur.file != nil {
			return sdkerrors.TreeConflict(strings.Join(path[:i], "/"),
				"a file is declared where a folder is required")
		}
		next, ok := cur.children[seg]
		if !ok {
			next = &Node{name: seg, children: make(map[string]*Node)}
			cur.children[seg] = next
		}
		cur = next
	}
	if cur.file != nil {
		return sdkerrors.TreeConflict(strings.Join(path, "/"),
			"a file is declared where a folder is required")
	}
	return nil
}

// Clone returns a deep copy of the tree.
func (n *Node) Clone() *Node {
	out := &Node{name: n.name, children: make(map[string]*Node, len(n.children))}
	if n.file != nil {
		out.file = n.file.clone()
	}
	for name, child := range n.children {
		out.children[name] = child.Clone()
	}
	return out
}

// Lookup returns the node at an exact path relative to n.
func (n *Node) Lookup(path []string) (*Node, bool) {
	cur := n
	for _, seg := range path {
		next, ok := cur.children[seg]
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// FileEntry pairs a declared file with its path from the tree root.
type FileEntry struct {
	Path []string
	File *VirtualFile
}

// Files returns every VirtualFile declared under n, recursively, in
// deterministic path order.
func (n *Node) Files() []FileEntry {
	var out []FileEntry
	n.walk(nil, func(path []string, node *Node) {
		if node.file != nil {
			out = append(out, FileEntry{Path: append([]string(nil), path...), File: node.file})
		}
	})
	return out
}

// Paths returns every leaf path (files and empty folders) under n in
// deterministic order, slash-joined with a leading slash.
func (n *Node) Paths() []string {
	var out []string
	n.walk(nil, func(path []string, node *Node) {
		if node.file != nil || (len(node.children) == 0 && len(path) > 0) {
			out = append(out, "/"+strings.Join(path, "/"))
		}
	})
	return out
}

// PrefixRepetitionKey returns a copy of the tree in which every declared
// file gains key as its first repetition key. Used by the repetition engine;
// nesting preserves outer-before-inner ordering.
func (n *Node) PrefixRepetitionKey(key string) *Node {
	out := n.Clone()
	out.walk(nil, func(_ []string, node *Node) {
		if node.file != nil {
			node.file = node.file.prefixKey(key)
		}
	})
	return out
}

// Walk visits n and every descendant pre-order with sorted siblings. The
// path passed to fn is a copy the callback may retain.
func (n *Node) Walk(fn func(path []string, node *Node)) {
	n.walk(nil, func(path []string, node *Node) {
		fn(append([]string(nil), path...), node)
	})
}

func (n *Node) childNames() []string {
	names := make([]string, 0, len(n.children))
	for name := range n.children {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// walk visits every node pre-order with sorted siblings. The path passed to
// fn is owned by the walk; callers must copy it to retain it.
func (n *Node) walk(path []string, fn func(path []string, node *Node)) {
	fn(path, n)
	for _, name := range n.childNames() {
		n.children[name].walk(append(path, name), fn)
	}
}
