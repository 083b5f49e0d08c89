// Package sequence provides a uniform abstraction over the three access
// cardinalities the engine serves: exactly one pending effect, a finite list
// of pending effects, and a lazy unbounded stream of pending effects paired
// with a terminal summary value.
//
// Elements are pending effects: nothing runs until a consumer pulls the
// stream view or drains the sequence. Combinators are package-level generic
// functions because Go methods cannot introduce type parameters.
//
// A Seq is single-shot: once its stream view has been pulled, build a new
// one rather than re-reading it.
package sequence

import "context"

// Effect is a single pending effect producing an E.
type Effect[E any] func(ctx context.Context) (E, error)

// Pull produces the next element of a stream, reporting exhaustion with
// ok == false.
type Pull[E any] func(ctx context.Context) (E, bool, error)

// Unit is the neutral summary type for single and list sequences.
type Unit = struct{}

// Indexed pairs a stream element with its repetition index.
type Indexed[T any] struct {
	Index int
	Value T
}

type seqKind int

const (
	kindSingle seqKind = iota
	kindList
	kindStream
)

// Seq is an effect sequence with element type E and terminal summary type S.
type Seq[E, S any] struct {
	kind    seqKind
	effects []Effect[E]
	pull    Pull[E]
	summary Effect[S]
}

func unitSummary(context.Context) (Unit, error) { return Unit{}, nil }

// Single wraps one pending effect.
func Single[E any](eff Effect[E]) Seq[E, Unit] {
	return Seq[E, Unit]{kind: kindSingle, effects: []Effect[E]{eff}, summary: unitSummary}
}

// Of wraps one already-available value.
func Of[E any](v E) Seq[E, Unit] {
	return Single(func(context.Context) (E, error) { return v, nil })
}

// FromSlice wraps a finite list of already-available values.
func FromSlice[E any](vals []E) Seq[E, Unit] {
	effs := make([]Effect[E], len(vals))
	for i, v := range vals {
		v := v
		effs[i] = func(context.Context) (E, error) { return v, nil }
	}
	return FromEffects(effs)
}

// FromEffects wraps a finite ordered list of pending effects.
func FromEffects[E any](effs []Effect[E]) Seq[E, Unit] {
	return Seq[E, Unit]{kind: kindList, effects: effs, summary: unitSummary}
}

// FromStream wraps a lazy pull stream and its terminal summary. The summary
// effect is only invoked after the pull reports exhaustion.
func FromStream[E, S any](pull Pull[E], summary Effect[S]) Seq[E, S] {
	return Seq[E, S]{kind: kindStream, pull: pull, summary: summary}
}

// Exhausted returns a stream sequence with no elements and the given
// terminal summary.
func Exhausted[E, S any](summary Effect[S]) Seq[E, S] {
	return FromStream(func(context.Context) (E, bool, error) {
		var zero E
		return zero, false, nil
	}, summary)
}

// MapEff maps an effectful function over every element, preserving
// cardinality and summary. Nothing runs until the result is consumed.
func MapEff[E1, E2, S any](s Seq[E1, S], f func(ctx context.Context, v E1) (E2, error)) Seq[E2, S] {
	out := Seq[E2, S]{kind: s.kind, summary: s.summary}
	switch s.kind {
	case kindStream:
		pull := s.pull
		out.pull = func(ctx context.Context) (E2, bool, error) {
			var zero E2
			v, ok, err := pull(ctx)
			if err != nil || !ok {
				return zero, false, err
			}
			mapped, err := f(ctx, v)
			if err != nil {
				return zero, false, err
			}
			return mapped, true, nil
		}
	default:
		out.effects = make([]Effect[E2], len(s.effects))
		for i, eff := range s.effects {
			eff := eff
			out.effects[i] = func(ctx context.Context) (E2, error) {
				var zero E2
				v, err := eff(ctx)
				if err != nil {
					return zero, err
				}
				return f(ctx, v)
			}
		}
	}
	return out
}

// Map maps a pure function over every element.
func Map[E1, E2, S any](s Seq[E1, S], f func(v E1) E2) Seq[E2, S] {
	return MapEff(s, func(_ context.Context, v E1) (E2, error) {
		return f(v), nil
	})
}

// Stream is the pull view of a sequence: produce the next element or report
// end-of-stream, then read the terminal summary.
type Stream[E, S any] struct {
	next    Pull[E]
	summary Effect[S]
}

// Stream converts the sequence to its lazy pull view.
func (s Seq[E, S]) Stream() *Stream[E, S] {
	if s.kind == kindStream {
		return &Stream[E, S]{next: s.pull, summary: s.summary}
	}
	idx := 0
	effects := s.effects
	next := func(ctx context.Context) (E, bool, error) {
		var zero E
		if idx >= len(effects) {
			return zero, false, nil
		}
		eff := effects[idx]
		idx++
		v, err := eff(ctx)
		if err != nil {
			return zero, false, err
		}
		return v, true, nil
	}
	return &Stream[E, S]{next: next, summary: s.summary}
}

// Next produces the next element, or ok == false on exhaustion.
func (st *Stream[E, S]) Next(ctx context.Context) (E, bool, error) {
	return st.next(ctx)
}

// Summary runs the terminal summary effect. Call only after Next has
// reported exhaustion.
func (st *Stream[E, S]) Summary(ctx context.Context) (S, error) {
	return st.summary(ctx)
}

// SummaryEffect exposes the pending summary without running it.
func (st *Stream[E, S]) SummaryEffect() Effect[S] {
	return st.summary
}

// Drain runs the sequence to completion, discarding elements, and returns
// the terminal summary.
func Drain[E, S any](ctx context.Context, s Seq[E, S]) (S, error) {
	st := s.Stream()
	for {
		_, ok, err := st.Next(ctx)
		if err != nil {
			var zero S
			return zero, err
		}
		if !ok {
			return st.Summary(ctx)
		}
	}
}

// Collect runs the sequence to completion, returning all elements in order
// plus the terminal summary. Intended for finite sequences.
func Collect[E, S any](ctx context.Context, s Seq[E, S]) ([]E, S, error) {
	var (
		elems []E
		zero  S
	)
	st := s.Stream()
	for {
		v, ok, err := st.Next(ctx)
		if err != nil {
			return nil, zero, err
		}
		if !ok {
			sum, err := st.Summary(ctx)
			return elems, sum, err
		}
		elems = append(elems, v)
	}
}
