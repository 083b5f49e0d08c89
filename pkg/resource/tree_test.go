package resource

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wehubfusion/Daedalus/pkg/codec"
	sdkerrors "github.com/wehubfusion/Daedalus/pkg/errors"
)

func TestAddAndLookup(t *testing.T) {
	vf := MustVirtualFile("out/result", WithCodec(codec.JSON[int]()))
	tree := NewTree()
	require.NoError(t, tree.Add(vf))

	node, ok := tree.Lookup([]string{"out", "result"})
	require.True(t, ok)
	require.NotNil(t, node.File())
	assert.Equal(t, "out/result", node.File().PathString())

	_, ok = tree.Lookup([]string{"out", "missing"})
	assert.False(t, ok)
}

func TestReAddIdenticalDeclaration(t *testing.T) {
	vf := MustVirtualFile("out/result", WithCodec(codec.JSON[int]()))
	tree := NewTree()
	require.NoError(t, tree.Add(vf))
	require.NoError(t, tree.Add(vf))
	assert.Len(t, tree.Files(), 1)
}

func TestConflictingDeclarations(t *testing.T) {
	tree := NewTree()
	require.NoError(t, tree.Add(MustVirtualFile("out/result", WithCodec(codec.JSON[int]()))))

	err := tree.Add(MustVirtualFile("out/result", WithCodec(codec.JSON[string]())))
	require.Error(t, err)
	assert.True(t, sdkerrors.IsTreeConflict(err))
}

func TestFileVersusFolderConflicts(t *testing.T) {
	tree := NewTree()
	require.NoError(t, tree.Add(MustVirtualFile("out", WithCodec(codec.Bytes()))))

	err := tree.Add(MustVirtualFile("out/result", WithCodec(codec.Bytes())))
	require.Error(t, err)
	assert.True(t, sdkerrors.IsTreeConflict(err))

	tree2 := NewTree()
	require.NoError(t, tree2.Add(MustVirtualFile("out/result", WithCodec(codec.Bytes()))))
	err = tree2.Add(MustVirtualFile("out", WithCodec(codec.Bytes())))
	require.Error(t, err)
	assert.True(t, sdkerrors.IsTreeConflict(err))
}

func TestMergeUnion(t *testing.T) {
	a, err := TreeOf(MustVirtualFile("in/source", WithCodec(codec.Text())))
	require.NoError(t, err)
	b, err := TreeOf(MustVirtualFile("out/result", WithCodec(codec.JSON[int]())))
	require.NoError(t, err)

	merged, err := Merge(a, b)
	require.NoError(t, err)
	assert.Equal(t, []string{"/in/source", "/out/result"}, merged.Paths())

	// Inputs stay untouched.
	assert.Equal(t, []string{"/in/source"}, a.Paths())
	assert.Equal(t, []string{"/out/result"}, b.Paths())
}

func TestMergeAssociative(t *testing.T) {
	a, _ := TreeOf(MustVirtualFile("a/x", WithCodec(codec.Bytes())))
	b, _ := TreeOf(MustVirtualFile("b/y", WithCodec(codec.Bytes())))
	c, _ := TreeOf(MustVirtualFile("c/z", WithCodec(codec.Bytes())))

	ab, err := Merge(a, b)
	require.NoError(t, err)
	left, err := Merge(ab, c)
	require.NoError(t, err)

	bc, err := Merge(b, c)
	require.NoError(t, err)
	right, err := Merge(a, bc)
	require.NoError(t, err)

	assert.Equal(t, left.Paths(), right.Paths())
}

func TestMergeConflict(t *testing.T) {
	a, _ := TreeOf(MustVirtualFile("out/result", WithCodec(codec.JSON[int]())))
	b, _ := TreeOf(MustVirtualFile("out/result", WithReadCodec(codec.JSON[int]())))

	_, err := Merge(a, b)
	require.Error(t, err)
	assert.True(t, sdkerrors.IsTreeConflict(err))
}

func TestAddFolder(t *testing.T) {
	tree := NewTree()
	require.NoError(t, tree.AddFolder("scratch/tmp"))
	assert.Equal(t, []string{"/scratch/tmp"}, tree.Paths())

	require.NoError(t, tree.Add(MustVirtualFile("scratch/tmp/part", WithCodec(codec.Bytes()))))
	assert.Equal(t, []string{"/scratch/tmp/part"}, tree.Paths())
}

func TestFilesDeterministicOrder(t *testing.T) {
	tree, err := TreeOf(
		MustVirtualFile("b/y", WithCodec(codec.Bytes())),
		MustVirtualFile("a/z", WithCodec(codec.Bytes())),
		MustVirtualFile("a/x", WithCodec(codec.Bytes())),
	)
	require.NoError(t, err)

	var paths []string
	for _, e := range tree.Files() {
		paths = append(paths, strings.Join(e.Path, "/"))
	}
	assert.Equal(t, []string{"a/x", "a/z", "b/y"}, paths)
}

func TestCloneIsDeep(t *testing.T) {
	tree, _ := TreeOf(MustVirtualFile("a/x", WithCodec(codec.Bytes())))
	clone := tree.Clone()
	require.NoError(t, clone.Add(MustVirtualFile("b/y", WithCodec(codec.Bytes()))))

	assert.Equal(t, []string{"/a/x"}, tree.Paths())
	assert.Equal(t, []string{"/a/x", "/b/y"}, clone.Paths())
}

func TestPrefixRepetitionKey(t *testing.T) {
	vf := MustVirtualFile("out/item", WithCodec(codec.JSON[int]()), WithRepetitionKeys("j"))
	tree, _ := TreeOf(vf)

	prefixed := tree.PrefixRepetitionKey("i")
	files := prefixed.Files()
	require.Len(t, files, 1)
	assert.Equal(t, []string{"i", "j"}, files[0].File.RepetitionKeys())

	// The original tree keeps its keys.
	assert.Equal(t, []string{"j"}, tree.Files()[0].File.RepetitionKeys())
}

func TestWalkOrderAndPathOwnership(t *testing.T) {
	tree, _ := TreeOf(
		MustVirtualFile("b/y", WithCodec(codec.Bytes())),
		MustVirtualFile("a/x", WithCodec(codec.Bytes())),
	)

	var paths [][]string
	tree.Walk(func(path []string, _ *Node) {
		paths = append(paths, path)
	})

	var joined []string
	for _, p := range paths {
		joined = append(joined, strings.Join(p, "/"))
	}
	assert.Equal(t, []string{"", "a", "a/x", "b", "b/y"}, joined)
}

func TestRenderPaths(t *testing.T) {
	tree, _ := TreeOf(
		MustVirtualFile("in/source", WithCodec(codec.Text())),
		MustVirtualFile("out/result", WithCodec(codec.JSON[int]())),
	)
	var sb strings.Builder
	require.NoError(t, tree.Render(&sb))
	assert.Equal(t, "/in/source\n/out/result\n", sb.String())
}
