package repeat

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wehubfusion/Daedalus/pkg/access"
	"github.com/wehubfusion/Daedalus/pkg/codec"
	"github.com/wehubfusion/Daedalus/pkg/location"
	"github.com/wehubfusion/Daedalus/pkg/mapping"
	"github.com/wehubfusion/Daedalus/pkg/resource"
	"github.com/wehubfusion/Daedalus/pkg/sequence"
	"github.com/wehubfusion/Daedalus/pkg/storage"
	"github.com/wehubfusion/Daedalus/pkg/task"
)

func boundRuntime(t *testing.T, tree *resource.Node, m *mapping.Mapping) *task.Runtime {
	t.Helper()
	phys, err := resource.Bind(tree, m, storage.NewMounts(nil), zap.NewNop())
	require.NoError(t, err)
	return task.NewRuntime(phys, zap.NewNop())
}

func indexed(vals ...int) []sequence.Indexed[int] {
	out := make([]sequence.Indexed[int], len(vals))
	for i, v := range vals {
		out[i] = sequence.Indexed[int]{Index: i, Value: v}
	}
	return out
}

func TestRunOverStreamWritesPerIndex(t *testing.T) {
	dir := t.TempDir()
	vf := resource.MustVirtualFile("out/item", resource.WithWriteCodec(codec.JSON[int]()))
	writer := access.Write[int](vf)

	var order []int
	counted := task.Lift(func(_ context.Context, in int) (int, error) {
		order = append(order, in)
		return in, nil
	})
	body, err := task.Then(counted, writer)
	require.NoError(t, err)

	lifted := RunOverStream[int, task.Unit, sequence.Unit]("i", body)

	m := mapping.New(location.Local(dir))
	m.Set("out.item", location.MustTemplate("local:"+dir+"/item-{i}.json"))
	rt := boundRuntime(t, lifted.Tree(), m)

	_, err = lifted.Invoke(context.Background(), rt, sequence.FromSlice(indexed(10, 20, 30)))
	require.NoError(t, err)

	assert.Equal(t, []int{10, 20, 30}, order, "elements run sequentially in stream order")
	for i, want := range []string{"10", "20", "30"} {
		raw, err := os.ReadFile(filepath.Join(dir, "item-"+strconv.Itoa(i)+".json"))
		require.NoError(t, err)
		assert.Equal(t, want, strings.TrimSpace(string(raw)))
	}
}

func TestRunOverStreamEmptyInput(t *testing.T) {
	dir := t.TempDir()
	vf := resource.MustVirtualFile("out/item", resource.WithWriteCodec(codec.JSON[int]()))
	writer := access.Write[int](vf)

	invoked := false
	body, err := task.Then(task.Lift(func(_ context.Context, in int) (int, error) {
		invoked = true
		return in, nil
	}), writer)
	require.NoError(t, err)

	lifted := RunOverStream[int, task.Unit, string]("i", body)

	m := mapping.New(location.Local(dir))
	m.Set("out.item", location.MustTemplate("local:"+dir+"/item-{i}.json"))
	rt := boundRuntime(t, lifted.Tree(), m)

	in := sequence.Exhausted[sequence.Indexed[int]](func(context.Context) (string, error) {
		return "nothing to do", nil
	})
	sum, err := lifted.Invoke(context.Background(), rt, in)
	require.NoError(t, err)
	assert.Equal(t, "nothing to do", sum)
	assert.False(t, invoked, "an empty stream must short-circuit without invoking the body")
}

func TestRunOverStreamDuplicateIndicesOverwrite(t *testing.T) {
	dir := t.TempDir()
	vf := resource.MustVirtualFile("out/item", resource.WithWriteCodec(codec.JSON[int]()))
	lifted := RunOverStream[int, task.Unit, sequence.Unit]("i", access.Write[int](vf))

	m := mapping.New(location.Local(dir))
	m.Set("out.item", location.MustTemplate("local:"+dir+"/item-{i}.json"))
	rt := boundRuntime(t, lifted.Tree(), m)

	in := sequence.FromSlice([]sequence.Indexed[int]{
		{Index: 1, Value: 10},
		{Index: 1, Value: 20},
	})
	_, err := lifted.Invoke(context.Background(), rt, in)
	require.NoError(t, err)

	raw, err := os.ReadFile(filepath.Join(dir, "item-1.json"))
	require.NoError(t, err)
	assert.Equal(t, "20", strings.TrimSpace(string(raw)), "later duplicates overwrite earlier writes")
}

func TestMapOverStreamIsLazy(t *testing.T) {
	calls := 0
	body := task.Lift(func(_ context.Context, in int) (int, error) {
		calls++
		return in * 2, nil
	})
	mapped := MapOverStream[int, int, sequence.Unit]("i", body)

	out, err := mapped.Invoke(context.Background(), task.NewRuntime(nil, nil),
		sequence.FromSlice(indexed(1, 2, 3)))
	require.NoError(t, err)
	// The first element is pulled up front to detect emptiness, but the body
	// does not run until the output stream is consumed.
	assert.Equal(t, 0, calls)

	st := out.Stream()
	first, ok, err := st.Next(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, sequence.Indexed[int]{Index: 0, Value: 2}, first)
	assert.Equal(t, 1, calls)
}

func TestMapOverStreamWrapsElementErrors(t *testing.T) {
	body := task.Lift(func(_ context.Context, in int) (int, error) {
		if in == 20 {
			return 0, assert.AnError
		}
		return in, nil
	})
	mapped := MapOverStream[int, int, sequence.Unit]("i", body)

	out, err := mapped.Invoke(context.Background(), task.NewRuntime(nil, nil),
		sequence.FromSlice(indexed(10, 20)))
	require.NoError(t, err)

	_, _, err = sequence.Collect(context.Background(), out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `repetition "i" element 1`)
	require.ErrorIs(t, err, assert.AnError)
}

func TestNestedRepetition(t *testing.T) {
	dir := t.TempDir()
	vf := resource.MustVirtualFile("grid/cell", resource.WithWriteCodec(codec.JSON[int]()))
	inner := RunOverStream[int, task.Unit, sequence.Unit]("j", access.Write[int](vf))
	outer := RunOverStream[sequence.Seq[sequence.Indexed[int], sequence.Unit], task.Unit, sequence.Unit]("i", inner)

	// The outer key precedes the inner one on every reachable file.
	files := outer.Tree().Files()
	require.Len(t, files, 1)
	assert.Equal(t, []string{"i", "j"}, files[0].File.RepetitionKeys())

	m := mapping.New(location.Local(dir))
	m.Set("grid.cell", location.MustTemplate("local:"+dir+"/cell-{i}-{j}.json"))
	rt := boundRuntime(t, outer.Tree(), m)

	rows := []sequence.Indexed[sequence.Seq[sequence.Indexed[int], sequence.Unit]]{
		{Index: 0, Value: sequence.FromSlice(indexed(1, 2))},
		{Index: 1, Value: sequence.FromSlice(indexed(3, 4))},
	}
	_, err := outer.Invoke(context.Background(), rt, sequence.FromSlice(rows))
	require.NoError(t, err)

	want := map[string]string{
		"cell-0-0.json": "1",
		"cell-0-1.json": "2",
		"cell-1-0.json": "3",
		"cell-1-1.json": "4",
	}
	for name, contents := range want {
		raw, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err)
		assert.Equal(t, contents, strings.TrimSpace(string(raw)))
	}
}
