package task

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wehubfusion/Daedalus/pkg/codec"
	sdkerrors "github.com/wehubfusion/Daedalus/pkg/errors"
	"github.com/wehubfusion/Daedalus/pkg/resource"
)

func declared(t *testing.T, path string) *resource.Node {
	t.Helper()
	tree, err := resource.TreeOf(resource.MustVirtualFile(path, resource.WithCodec(codec.JSON[int]())))
	require.NoError(t, err)
	return tree
}

func TestPureAndLift(t *testing.T) {
	double := Pure(func(in int) int { return in * 2 })
	out, err := double.Invoke(context.Background(), nil, 21)
	require.NoError(t, err)
	assert.Equal(t, 42, out)

	boom := errors.New("boom")
	failing := Lift(func(context.Context, int) (int, error) { return 0, boom })
	_, err = failing.Invoke(context.Background(), nil, 1)
	require.ErrorIs(t, err, boom)
}

func TestTreeExtractionIsPureAndIdempotent(t *testing.T) {
	stage := New(declared(t, "out/result"), func(_ context.Context, _ *Runtime, in int) (int, error) {
		return in, nil
	})

	first := stage.Tree()
	second := stage.Tree()
	assert.Equal(t, first.Paths(), second.Paths())

	// Mutating an extracted tree cannot alter the stage's fragment.
	require.NoError(t, first.Add(resource.MustVirtualFile("extra/leaf", resource.WithCodec(codec.Bytes()))))
	assert.Equal(t, []string{"/out/result"}, stage.Tree().Paths())
}

func TestThenComposesValuesAndTrees(t *testing.T) {
	first := New(declared(t, "a/x"), func(_ context.Context, _ *Runtime, in int) (int, error) {
		return in + 1, nil
	})
	second := New(declared(t, "b/y"), func(_ context.Context, _ *Runtime, in int) (string, error) {
		if in == 2 {
			return "two", nil
		}
		return "other", nil
	})

	chained, err := Then(first, second)
	require.NoError(t, err)
	assert.Equal(t, []string{"/a/x", "/b/y"}, chained.Tree().Paths())

	out, err := chained.Invoke(context.Background(), nil, 1)
	require.NoError(t, err)
	assert.Equal(t, "two", out)
}

func TestThenConflictFailsBeforeRunning(t *testing.T) {
	ran := false
	intTree, err := resource.TreeOf(resource.MustVirtualFile("out/result", resource.WithCodec(codec.JSON[int]())))
	require.NoError(t, err)
	strTree, err := resource.TreeOf(resource.MustVirtualFile("out/result", resource.WithCodec(codec.JSON[string]())))
	require.NoError(t, err)

	x := New(intTree, func(_ context.Context, _ *Runtime, in int) (int, error) {
		ran = true
		return in, nil
	})
	y := New(strTree, func(_ context.Context, _ *Runtime, in int) (int, error) {
		ran = true
		return in, nil
	})

	_, err = Then(x, y)
	require.Error(t, err)
	assert.True(t, sdkerrors.IsTreeConflict(err))
	assert.False(t, ran)
}

func TestPar(t *testing.T) {
	left := Pure(func(in int) int { return in * 2 })
	right := Pure(func(in string) string { return in + "!" })

	paired, err := Par(left, right)
	require.NoError(t, err)

	out, err := paired.Invoke(context.Background(), nil, Pair[int, string]{Left: 3, Right: "go"})
	require.NoError(t, err)
	assert.Equal(t, Pair[int, string]{Left: 6, Right: "go!"}, out)
}

func TestExtractVirtualTree(t *testing.T) {
	stage := New(declared(t, "out/result"), func(_ context.Context, _ *Runtime, in int) (int, error) {
		return in, nil
	})
	tree := ExtractVirtualTree(stage)
	assert.Equal(t, []string{"/out/result"}, tree.Paths())
}

func TestRuntimeWithVar(t *testing.T) {
	rt := NewRuntime(nil, nil)
	derived := rt.WithVar("i", "3")

	assert.Empty(t, rt.Vars())
	assert.Equal(t, "3", derived.Vars()["i"])

	// Returned bindings are copies.
	vars := derived.Vars()
	vars["i"] = "mutated"
	assert.Equal(t, "3", derived.Vars()["i"])
}

func TestRuntimeAccessorWithoutTree(t *testing.T) {
	rt := NewRuntime(nil, nil)
	_, err := rt.Accessor([]string{"out", "result"})
	require.Error(t, err)
	assert.True(t, sdkerrors.IsLookup(err))
}

func TestInvokeWithoutRunnable(t *testing.T) {
	var empty Task[int, int]
	_, err := empty.Invoke(context.Background(), nil, 1)
	require.Error(t, err)
}
