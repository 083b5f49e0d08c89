package access

import (
	"context"
	"strings"

	"github.com/wehubfusion/Daedalus/pkg/location"
	"github.com/wehubfusion/Daedalus/pkg/resource"
	"github.com/wehubfusion/Daedalus/pkg/sequence"
	"github.com/wehubfusion/Daedalus/pkg/task"
)

// Load builds a task that reads one value of type R from a virtual file.
func Load[R any](vf *resource.VirtualFile) task.Task[task.Unit, R] {
	st := Apply[task.Unit, R, sequence.Unit](vf, nil, readOp[R](vf))
	return task.New(st.Tree(), func(ctx context.Context, rt *task.Runtime, _ task.Unit) (R, error) {
		return invokeSingleValue(ctx, rt, st, task.Unit{})
	})
}

// Write builds a task that writes one value of type W to a virtual file.
func Write[W any](vf *resource.VirtualFile) task.Task[W, task.Unit] {
	st := Apply[W, task.Unit, sequence.Unit](vf, nil, writeOp[W](vf))
	return task.New(st.Tree(), func(ctx context.Context, rt *task.Runtime, in W) (task.Unit, error) {
		return invokeSingleValue(ctx, rt, st, in)
	})
}

// WriteRead builds a task that writes a W to a virtual file and reads it
// back as an R through the file's read codec.
func WriteRead[W, R any](vf *resource.VirtualFile) task.Task[W, R] {
	st := Apply[W, R, sequence.Unit](vf, nil, writeReadOp[W, R](vf))
	return task.New(st.Tree(), func(ctx context.Context, rt *task.Runtime, in W) (R, error) {
		return invokeSingleValue(ctx, rt, st, in)
	})
}

// LoadStream builds a task that reads the file once per index in the input
// sequence, varying the location through the repetition key. The output
// pairs each value with its index; the input's terminal summary is
// preserved.
func LoadStream[R, S any](key string, vf *resource.VirtualFile) task.Task[sequence.Seq[int, S], sequence.Seq[sequence.Indexed[R], S]] {
	st := Apply[task.Unit, R, S](vf, []string{key}, readOp[R](vf))
	return task.New(st.Tree(), func(ctx context.Context, rt *task.Runtime, in sequence.Seq[int, S]) (sequence.Seq[sequence.Indexed[R], S], error) {
		elems := sequence.Map(in, func(i int) Element[task.Unit] {
			return Element[task.Unit]{Indices: []int{i}}
		})
		out, err := st.Invoke(ctx, rt, elems)
		if err != nil {
			return sequence.Seq[sequence.Indexed[R], S]{}, err
		}
		return sequence.Map(out, func(el Element[R]) sequence.Indexed[R] {
			return sequence.Indexed[R]{Index: el.Indices[0], Value: el.Value}
		}), nil
	})
}

// TryLoadStream is LoadStream with per-element error tagging: a data-class
// failure on one element becomes that element's Tagged.Err instead of
// aborting the stream. Configuration-class failures still abort.
func TryLoadStream[R, S any](key string, vf *resource.VirtualFile) task.Task[sequence.Seq[int, S], sequence.Seq[sequence.Indexed[Tagged[R]], S]] {
	st := Apply[task.Unit, Tagged[R], S](vf, []string{key}, tryReadOp[R](vf))
	return task.New(st.Tree(), func(ctx context.Context, rt *task.Runtime, in sequence.Seq[int, S]) (sequence.Seq[sequence.Indexed[Tagged[R]], S], error) {
		elems := sequence.Map(in, func(i int) Element[task.Unit] {
			return Element[task.Unit]{Indices: []int{i}}
		})
		out, err := st.Invoke(ctx, rt, elems)
		if err != nil {
			return sequence.Seq[sequence.Indexed[Tagged[R]], S]{}, err
		}
		return sequence.Map(out, func(el Element[Tagged[R]]) sequence.Indexed[Tagged[R]] {
			return sequence.Indexed[Tagged[R]]{Index: el.Indices[0], Value: el.Value}
		}), nil
	})
}

// WriteStream builds a task that writes each indexed value of the input
// sequence to the file, varying the location through the repetition key,
// and yields the written indices in order.
func WriteStream[W, S any](key string, vf *resource.VirtualFile) task.Task[sequence.Seq[sequence.Indexed[W], S], sequence.Seq[int, S]] {
	st := Apply[W, task.Unit, S](vf, []string{key}, writeOp[W](vf))
	return task.New(st.Tree(), func(ctx context.Context, rt *task.Runtime, in sequence.Seq[sequence.Indexed[W], S]) (sequence.Seq[int, S], error) {
		elems := sequence.Map(in, func(iv sequence.Indexed[W]) Element[W] {
			return Element[W]{Indices: []int{iv.Index}, Value: iv.Value}
		})
		out, err := st.Invoke(ctx, rt, elems)
		if err != nil {
			return sequence.Seq[int, S]{}, err
		}
		return sequence.Map(out, func(el Element[task.Unit]) int {
			return el.Indices[0]
		}), nil
	})
}

// LocationsMappedTo builds a task resolving the concrete locations mapped
// to a slash-separated path under the current variable bindings. The task
// carries an empty tree fragment, so asking does not register the path as a
// pipeline requirement.
func LocationsMappedTo(path string) task.Task[task.Unit, []location.Location] {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	return task.New(nil, func(ctx context.Context, rt *task.Runtime, _ task.Unit) ([]location.Location, error) {
		acc, err := rt.Accessor(segments)
		if err != nil {
			return nil, err
		}
		return acc.Locations(rt.Vars())
	})
}

// invokeSingleValue runs a sequence task over one carried value and returns
// its only output.
func invokeSingleValue[In, Out any](ctx context.Context, rt *task.Runtime, st task.Task[sequence.Seq[Element[In], sequence.Unit], sequence.Seq[Element[Out], sequence.Unit]], in In) (Out, error) {
	var zero Out
	out, err := st.Invoke(ctx, rt, sequence.Of(Element[In]{Value: in}))
	if err != nil {
		return zero, err
	}
	elems, _, err := sequence.Collect(ctx, out)
	if err != nil {
		return zero, err
	}
	return elems[0].Value, nil
}
