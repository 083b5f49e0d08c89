// Package access is the single dispatch point for all reads and writes
// against virtual files. Every entry point routes through Apply, which maps
// an effect sequence of (index-list, input) pairs to an effect sequence of
// (index-list, output) pairs: indices are zipped with repetition keys into
// variable bindings, the physical tree's accessor for the file's path is
// looked up, type tags are checked, the requested operation runs, and
// results are re-paired with their indices.
package access

import (
	"context"
	"fmt"
	"reflect"
	"strconv"

	sdkerrors "github.com/wehubfusion/Daedalus/pkg/errors"
	"github.com/wehubfusion/Daedalus/pkg/location"
	"github.com/wehubfusion/Daedalus/pkg/resource"
	"github.com/wehubfusion/Daedalus/pkg/sequence"
	"github.com/wehubfusion/Daedalus/pkg/task"
)

// Element pairs a value with the repetition indices it belongs to, outer
// loops first.
type Element[T any] struct {
	Indices []int
	Value   T
}

// Tagged is a per-element result under the "try" access variant: either a
// value or the data-class error that replaced it. Which errors a caller
// treats as recoverable is the caller's policy; configuration-class errors
// never reach a Tagged.
type Tagged[T any] struct {
	Value T
	Err   error
}

// Op performs one operation against a bound accessor under the element's
// variable bindings.
type Op[In, Out any] func(ctx context.Context, acc *resource.Accessor, vars location.Variables, in In) (Out, error)

// Apply lifts an operation on a virtual file to a task over effect
// sequences. keys are the repetition-key names zipped positionally with
// each element's indices; they are appended to the file's declared keys in
// the task's tree fragment, innermost last.
func Apply[In, Out, S any](vf *resource.VirtualFile, keys []string, op Op[In, Out]) task.Task[sequence.Seq[Element[In], S], sequence.Seq[Element[Out], S]] {
	keyed := appendKeys(vf, keys)
	tree, err := resource.TreeOf(keyed)
	if err != nil {
		// A single-file tree cannot conflict with itself.
		panic(err)
	}

	run := func(ctx context.Context, rt *task.Runtime, in sequence.Seq[Element[In], S]) (sequence.Seq[Element[Out], S], error) {
		out := sequence.MapEff(in, func(ctx context.Context, el Element[In]) (Element[Out], error) {
			var zero Element[Out]
			if len(el.Indices) != len(keys) {
				return zero, fmt.Errorf("access %s: got %d indices for %d repetition keys",
					vf.PathString(), len(el.Indices), len(keys))
			}
			vars := rt.Vars()
			for i, k := range keys {
				vars[k] = strconv.Itoa(el.Indices[i])
			}
			acc, err := rt.Accessor(vf.Path())
			if err != nil {
				return zero, err
			}
			v, err := op(ctx, acc, vars, el.Value)
			if err != nil {
				return zero, err
			}
			return Element[Out]{Indices: el.Indices, Value: v}, nil
		})
		return out, nil
	}
	return task.New(tree, run)
}

func appendKeys(vf *resource.VirtualFile, keys []string) *resource.VirtualFile {
	if len(keys) == 0 {
		return vf
	}
	return vf.AppendRepetitionKeys(keys...)
}

// checkRead verifies that the requested type, the file's declared read type
// and the bound accessor's read type all agree. Disagreement is a
// configuration-class error naming the path.
func checkRead[R any](vf *resource.VirtualFile, acc *resource.Accessor) error {
	want := reflect.TypeOf((*R)(nil)).Elem()
	declared := vf.ReadType()
	if declared == nil {
		return sdkerrors.NewError(sdkerrors.CodeTypeMismatch, vf.PathString(),
			"read requested but resource declares no read capability", sdkerrors.ErrTypeMismatch)
	}
	if want.Kind() != reflect.Interface && declared != want {
		return sdkerrors.TypeMismatch(vf.PathString(), "read", want, declared)
	}
	if bound := acc.ReadType(); bound != declared {
		return sdkerrors.TypeMismatch(vf.PathString(), "read", declared, bound)
	}
	return nil
}

// checkWrite is the write-side counterpart of checkRead.
func checkWrite[W any](vf *resource.VirtualFile, acc *resource.Accessor) error {
	want := reflect.TypeOf((*W)(nil)).Elem()
	declared := vf.WriteType()
	if declared == nil {
		return sdkerrors.NewError(sdkerrors.CodeTypeMismatch, vf.PathString(),
			"write requested but resource declares no write capability", sdkerrors.ErrTypeMismatch)
	}
	if want.Kind() != reflect.Interface && declared != want {
		return sdkerrors.TypeMismatch(vf.PathString(), "write", want, declared)
	}
	if bound := acc.WriteType(); bound != declared {
		return sdkerrors.TypeMismatch(vf.PathString(), "write", declared, bound)
	}
	return nil
}

func readOp[R any](vf *resource.VirtualFile) Op[task.Unit, R] {
	return func(ctx context.Context, acc *resource.Accessor, vars location.Variables, _ task.Unit) (R, error) {
		var zero R
		if err := checkRead[R](vf, acc); err != nil {
			return zero, err
		}
		v, err := acc.Read(ctx, vars)
		if err != nil {
			return zero, err
		}
		r, ok := v.(R)
		if !ok {
			return zero, sdkerrors.TypeMismatch(vf.PathString(), "read",
				reflect.TypeOf((*R)(nil)).Elem(), reflect.TypeOf(v))
		}
		return r, nil
	}
}

func writeOp[W any](vf *resource.VirtualFile) Op[W, task.Unit] {
	return func(ctx context.Context, acc *resource.Accessor, vars location.Variables, in W) (task.Unit, error) {
		if err := checkWrite[W](vf, acc); err != nil {
			return task.Unit{}, err
		}
		return task.Unit{}, acc.Write(ctx, vars, in)
	}
}

func writeReadOp[W, R any](vf *resource.VirtualFile) Op[W, R] {
	return func(ctx context.Context, acc *resource.Accessor, vars location.Variables, in W) (R, error) {
		var zero R
		if err := checkWrite[W](vf, acc); err != nil {
			return zero, err
		}
		if err := checkRead[R](vf, acc); err != nil {
			return zero, err
		}
		if err := acc.Write(ctx, vars, in); err != nil {
			return zero, err
		}
		v, err := acc.Read(ctx, vars)
		if err != nil {
			return zero, err
		}
		r, ok := v.(R)
		if !ok {
			return zero, sdkerrors.TypeMismatch(vf.PathString(), "read",
				reflect.TypeOf((*R)(nil)).Elem(), reflect.TypeOf(v))
		}
		return r, nil
	}
}

// tryReadOp converts data-class errors into per-element tags instead of
// aborting the stream. Configuration-class errors stay fatal.
func tryReadOp[R any](vf *resource.VirtualFile) Op[task.Unit, Tagged[R]] {
	read := readOp[R](vf)
	return func(ctx context.Context, acc *resource.Accessor, vars location.Variables, in task.Unit) (Tagged[R], error) {
		v, err := read(ctx, acc, vars, in)
		if err != nil {
			if sdkerrors.IsAccess(err) {
				return Tagged[R]{Err: err}, nil
			}
			return Tagged[R]{}, err
		}
		return Tagged[R]{Value: v}, nil
	}
}
