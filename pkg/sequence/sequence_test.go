package sequence

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSingleIsLazy(t *testing.T) {
	ran := false
	s := Single(func(context.Context) (int, error) {
		ran = true
		return 7, nil
	})
	assert.False(t, ran)

	elems, _, err := Collect(context.Background(), s)
	require.NoError(t, err)
	assert.True(t, ran)
	assert.Equal(t, []int{7}, elems)
}

func TestFromSliceOrder(t *testing.T) {
	elems, _, err := Collect(context.Background(), FromSlice([]string{"a", "b", "c"}))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, elems)
}

func TestMapEffPreservesLaziness(t *testing.T) {
	calls := 0
	s := MapEff(FromSlice([]int{1, 2, 3}), func(_ context.Context, v int) (int, error) {
		calls++
		return v * 10, nil
	})
	assert.Equal(t, 0, calls)

	st := s.Stream()
	v, ok, err := st.Next(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 10, v)
	assert.Equal(t, 1, calls)

	elems := []int{v}
	for {
		v, ok, err := st.Next(context.Background())
		require.NoError(t, err)
		if !ok {
			break
		}
		elems = append(elems, v)
	}
	assert.Equal(t, []int{10, 20, 30}, elems)
	assert.Equal(t, 3, calls)
}

func TestMapEffError(t *testing.T) {
	boom := errors.New("boom")
	s := MapEff(FromSlice([]int{1, 2}), func(_ context.Context, v int) (int, error) {
		if v == 2 {
			return 0, boom
		}
		return v, nil
	})
	_, _, err := Collect(context.Background(), s)
	require.ErrorIs(t, err, boom)
}

func TestMapPure(t *testing.T) {
	elems, _, err := Collect(context.Background(), Map(FromSlice([]int{1, 2}), func(v int) string {
		if v == 1 {
			return "one"
		}
		return "two"
	}))
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, elems)
}

func TestFromStreamSummaryAfterExhaustion(t *testing.T) {
	i := 0
	summaryRan := false
	s := FromStream(func(context.Context) (int, bool, error) {
		if i >= 3 {
			return 0, false, nil
		}
		i++
		return i, true, nil
	}, func(context.Context) (string, error) {
		summaryRan = true
		return "done", nil
	})

	elems, sum, err := Collect(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, elems)
	assert.Equal(t, "done", sum)
	assert.True(t, summaryRan)
}

func TestExhausted(t *testing.T) {
	s := Exhausted[int](func(context.Context) (string, error) { return "empty", nil })
	elems, sum, err := Collect(context.Background(), s)
	require.NoError(t, err)
	assert.Empty(t, elems)
	assert.Equal(t, "empty", sum)
}

func TestDrain(t *testing.T) {
	pulled := 0
	s := FromStream(func(context.Context) (int, bool, error) {
		if pulled >= 5 {
			return 0, false, nil
		}
		pulled++
		return pulled, true, nil
	}, func(context.Context) (int, error) { return pulled, nil })

	sum, err := Drain(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, 5, sum)
}

func TestStreamErrorStopsPull(t *testing.T) {
	boom := errors.New("boom")
	s := FromStream(func(context.Context) (int, bool, error) {
		return 0, false, boom
	}, func(context.Context) (Unit, error) { return Unit{}, nil })

	_, err := Drain(context.Background(), s)
	require.ErrorIs(t, err, boom)
}

func TestSummaryEffectIsPending(t *testing.T) {
	ran := false
	s := Exhausted[int](func(context.Context) (Unit, error) {
		ran = true
		return Unit{}, nil
	})
	st := s.Stream()
	_ = st.SummaryEffect()
	assert.False(t, ran)

	_, ok, err := st.Next(context.Background())
	require.NoError(t, err)
	require.False(t, ok)
	_, err = st.Summary(context.Background())
	require.NoError(t, err)
	assert.True(t, ran)
}
