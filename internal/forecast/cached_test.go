package forecast

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type countingForecaster struct {
	calls atomic.Int64
	err   error
}

func (f *countingForecaster) Forecast(_ context.Context, in Input) (*Result, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return &Result{AverageSpending: in.MonthlyBudget, Source: "counted"}, nil
}

func TestCached_ReusesFreshResult(t *testing.T) {
	t.Parallel()

	inner := &countingForecaster{}
	cached := NewCached(inner, time.Minute)
	ctx := context.Background()
	in := sampleInput()

	first, err := cached.Forecast(ctx, in)
	require.NoError(t, err)
	second, err := cached.Forecast(ctx, in)
	require.NoError(t, err)

	require.Same(t, first, second)
	require.EqualValues(t, 1, inner.calls.Load())
}

func TestCached_RecomputesWhenInputChanges(t *testing.T) {
	t.Parallel()

	inner := &countingForecaster{}
	cached := NewCached(inner, time.Minute)
	ctx := context.Background()

	in := sampleInput()
	_, err := cached.Forecast(ctx, in)
	require.NoError(t, err)

	in.CurrentMonthSpent = in.CurrentMonthSpent.Add(decimal.NewFromInt(50))
	_, err = cached.Forecast(ctx, in)
	require.NoError(t, err)

	require.EqualValues(t, 2, inner.calls.Load())
}

func TestCached_DoesNotCacheErrors(t *testing.T) {
	t.Parallel()

	inner := &countingForecaster{err: errors.New("boom")}
	cached := NewCached(inner, time.Minute)
	ctx := context.Background()
	in := sampleInput()

	_, err := cached.Forecast(ctx, in)
	require.Error(t, err)
	_, err = cached.Forecast(ctx, in)
	require.Error(t, err)

	require.EqualValues(t, 2, inner.calls.Load())
}

func TestCached_ConcurrentCallsShareOneComputation(t *testing.T) {
	t.Parallel()

	inner := &countingForecaster{}
	cached := NewCached(inner, time.Minute)
	in := sampleInput()

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := cached.Forecast(context.Background(), in)
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	require.EqualValues(t, 1, inner.calls.Load())
}
