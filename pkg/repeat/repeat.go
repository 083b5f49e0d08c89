// Package repeat implements the repetition engine: lifting a task to run
// once per element of an indexed stream while deterministically varying the
// physical location of every resource it touches.
package repeat

import (
	"context"
	"fmt"
	"strconv"

	"github.com/wehubfusion/Daedalus/pkg/sequence"
	"github.com/wehubfusion/Daedalus/pkg/task"
)

// MapOverStream lifts base to a task over a stream of indexed inputs,
// yielding a stream of indexed outputs with the input's terminal summary.
//
// Every virtual file reachable in base's tree gains key as an additional
// repetition key, outer loops' keys preceding inner loops'. The physical
// tree is bound once, before iteration; per element, key is bound to the
// stringified index and base runs with that binding threaded to every
// access inside it. Processing is strictly sequential and order-preserving.
//
// An empty input stream short-circuits to the terminal summary with zero
// invocations of base. Nested engines compose independent variables as
// long as callers choose distinct key names; repeating over duplicate
// indices overwrites at the same location, which is the engine's documented
// at-least-once write semantics.
func MapOverStream[A, B, S any](key string, base task.Task[A, B]) task.Task[sequence.Seq[sequence.Indexed[A], S], sequence.Seq[sequence.Indexed[B], S]] {
	tree := base.Tree().PrefixRepetitionKey(key)

	run := func(ctx context.Context, rt *task.Runtime, in sequence.Seq[sequence.Indexed[A], S]) (sequence.Seq[sequence.Indexed[B], S], error) {
		st := in.Stream()

		// Run ahead one element so stream emptiness is known before base is
		// ever invoked.
		first, ok, err := st.Next(ctx)
		if err != nil {
			return sequence.Seq[sequence.Indexed[B], S]{}, err
		}
		if !ok {
			return sequence.Exhausted[sequence.Indexed[B]](st.SummaryEffect()), nil
		}

		pending := &first
		done := false
		pull := func(ctx context.Context) (sequence.Indexed[B], bool, error) {
			var zero sequence.Indexed[B]
			if done {
				return zero, false, nil
			}
			var el sequence.Indexed[A]
			if pending != nil {
				el = *pending
				pending = nil
			} else {
				next, ok, err := st.Next(ctx)
				if err != nil {
					return zero, false, err
				}
				if !ok {
					done = true
					return zero, false, nil
				}
				el = next
			}
			out, err := base.Invoke(ctx, rt.WithVar(key, strconv.Itoa(el.Index)), el.Value)
			if err != nil {
				return zero, false, fmt.Errorf("repetition %q element %d: %w", key, el.Index, err)
			}
			return sequence.Indexed[B]{Index: el.Index, Value: out}, true, nil
		}
		return sequence.FromStream(pull, st.SummaryEffect()), nil
	}

	return task.New(tree, run)
}

// RunOverStream is MapOverStream followed by a drain: the lifted task
// consumes the whole stream and returns only its terminal summary.
func RunOverStream[A, B, S any](key string, base task.Task[A, B]) task.Task[sequence.Seq[sequence.Indexed[A], S], S] {
	mapped := MapOverStream[A, B, S](key, base)
	return task.New(mapped.Tree(), func(ctx context.Context, rt *task.Runtime, in sequence.Seq[sequence.Indexed[A], S]) (S, error) {
		var zero S
		out, err := mapped.Invoke(ctx, rt, in)
		if err != nil {
			return zero, err
		}
		return sequence.Drain(ctx, out)
	})
}
