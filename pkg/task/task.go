// Package task implements the composable pipeline-stage abstraction. A task
// pairs a virtual resource-tree fragment, obtainable without running
// anything, with a runnable invoked against a bound physical tree. Tree
// shape depends only on how tasks are composed, never on runtime data, so
// the tree can be extracted, rendered and bound before execution.
package task

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	sdkerrors "github.com/wehubfusion/Daedalus/pkg/errors"
	"github.com/wehubfusion/Daedalus/pkg/location"
	"github.com/wehubfusion/Daedalus/pkg/resource"
)

// Unit is the input or output of tasks that consume or produce nothing.
type Unit = struct{}

// Pair carries the inputs and outputs of parallel-composed tasks.
type Pair[L, R any] struct {
	Left  L
	Right R
}

// Runtime is the read-only execution context threaded through a run: the
// bound physical tree, the current repetition-variable bindings, and the
// logger. Derived runtimes share the tree; variable extension copies.
type Runtime struct {
	tree   *resource.Physical
	vars   location.Variables
	logger *zap.Logger
}

// NewRuntime creates a runtime over a bound physical tree. A nil logger
// falls back to a no-op logger.
func NewRuntime(tree *resource.Physical, logger *zap.Logger) *Runtime {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runtime{tree: tree, vars: location.Variables{}, logger: logger}
}

// Tree returns the bound physical tree, nil before binding.
func (rt *Runtime) Tree() *resource.Physical { return rt.tree }

// Vars returns the current repetition-variable bindings.
func (rt *Runtime) Vars() location.Variables {
	return location.Variables{}.Merge(rt.vars)
}

// Logger returns the runtime logger.
func (rt *Runtime) Logger() *zap.Logger { return rt.logger }

// WithVar returns a derived runtime with one additional variable binding.
// The receiver is unchanged.
func (rt *Runtime) WithVar(name, value string) *Runtime {
	return &Runtime{tree: rt.tree, vars: rt.vars.With(name, value), logger: rt.logger}
}

// Accessor looks up the bound accessor at path.
func (rt *Runtime) Accessor(path []string) (*resource.Accessor, error) {
	if rt.tree == nil {
		return nil, sdkerrors.NewError(sdkerrors.CodeLookup, joinPath(path),
			"no physical tree bound to this runtime", sdkerrors.ErrLookup)
	}
	return rt.tree.Accessor(path)
}

// Task is a pipeline stage from I to O.
type Task[I, O any] struct {
	tree *resource.Node
	run  func(ctx context.Context, rt *Runtime, in I) (O, error)
}

// New builds a task from a tree fragment and a runnable. A nil tree is the
// empty fragment.
func New[I, O any](tree *resource.Node, run func(ctx context.Context, rt *Runtime, in I) (O, error)) Task[I, O] {
	if tree == nil {
		tree = resource.NewTree()
	}
	return Task[I, O]{tree: tree, run: run}
}

// Lift wraps an effectful function as a task with an empty tree fragment.
func Lift[I, O any](f func(ctx context.Context, in I) (O, error)) Task[I, O] {
	return New(nil, func(ctx context.Context, _ *Runtime, in I) (O, error) {
		return f(ctx, in)
	})
}

// Pure wraps a pure function as a task with an empty tree fragment.
func Pure[I, O any](f func(in I) O) Task[I, O] {
	return Lift(func(_ context.Context, in I) (O, error) {
		return f(in), nil
	})
}

// Tree extracts the task's virtual resource tree. The extraction is pure
// and idempotent: it performs no I/O, and the returned tree is a deep copy,
// so callers cannot alter the task's fragment.
func (t Task[I, O]) Tree() *resource.Node {
	if t.tree == nil {
		return resource.NewTree()
	}
	return t.tree.Clone()
}

// Invoke runs the task's runnable against a runtime.
func (t Task[I, O]) Invoke(ctx context.Context, rt *Runtime, in I) (O, error) {
	var zero O
	if t.run == nil {
		return zero, errors.New("task has no runnable")
	}
	if rt == nil {
		rt = NewRuntime(nil, nil)
	}
	return t.run(ctx, rt, in)
}

// ExtractVirtualTree returns the stage's virtual resource tree. Pure and
// execution-independent: no input value is needed and no effect runs. This
// is the interface outer layers use to bind a tree before running.
func ExtractVirtualTree[I, O any](t Task[I, O]) *resource.Node {
	return t.Tree()
}

// Then composes x and y sequentially: y receives x's output and the same
// runtime. The tree fragments merge; a leaf conflict fails here, before
// anything runs.
func Then[A, B, C any](x Task[A, B], y Task[B, C]) (Task[A, C], error) {
	merged, err := resource.Merge(x.Tree(), y.Tree())
	if err != nil {
		return Task[A, C]{}, err
	}
	return New(merged, func(ctx context.Context, rt *Runtime, in A) (C, error) {
		var zero C
		mid, err := x.Invoke(ctx, rt, in)
		if err != nil {
			return zero, err
		}
		return y.Invoke(ctx, rt, mid)
	}), nil
}

// Par composes x and y in parallel shape: one task from the paired inputs
// to the paired outputs, both runnables sharing the same runtime. Execution
// remains strictly sequential; parallel composition is about tree merging
// and data shape, not goroutines.
func Par[A, B, C, D any](x Task[A, B], y Task[C, D]) (Task[Pair[A, C], Pair[B, D]], error) {
	merged, err := resource.Merge(x.Tree(), y.Tree())
	if err != nil {
		return Task[Pair[A, C], Pair[B, D]]{}, err
	}
	return New(merged, func(ctx context.Context, rt *Runtime, in Pair[A, C]) (Pair[B, D], error) {
		var zero Pair[B, D]
		left, err := x.Invoke(ctx, rt, in.Left)
		if err != nil {
			return zero, err
		}
		right, err := y.Invoke(ctx, rt, in.Right)
		if err != nil {
			return zero, err
		}
		return Pair[B, D]{Left: left, Right: right}, nil
	}), nil
}

func joinPath(path []string) string {
	return strings.Join(path, "/")
}
