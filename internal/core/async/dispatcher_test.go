package async

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompletionRunsOnlyOnDrain(t *testing.T) {
	d := NewDispatcher(4, time.Second)
	defer d.Close()

	var got int
	Go(d, func(context.Context) (int, error) { return 42, nil }, func(v int, err error) {
		require.NoError(t, err)
		got = v
	})

	assert.Equal(t, 0, got)
	require.Eventually(t, func() bool { return d.Drain() == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, 42, got)
	assert.Equal(t, 0, d.InFlight())
}

func TestInlineDispatcherDefersCompletion(t *testing.T) {
	d := NewInline(4)
	var calls []string
	Go(d, func(context.Context) (string, error) {
		calls = append(calls, "work")
		return "ok", nil
	}, func(v string, _ error) {
		calls = append(calls, "complete:"+v)
	})

	assert.Equal(t, []string{"work"}, calls)
	assert.Equal(t, 1, d.InFlight())
	assert.Equal(t, 1, d.Drain())
	assert.Equal(t, []string{"work", "complete:ok"}, calls)
}

func TestFireReportsOnlyErrors(t *testing.T) {
	d := NewInline(4)
	boom := errors.New("boom")
	var errs []error
	Fire(d, func(context.Context) error { return nil }, func(err error) { errs = append(errs, err) })
	Fire(d, func(context.Context) error { return boom }, func(err error) { errs = append(errs, err) })

	assert.Equal(t, 2, d.Drain())
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], boom)
}

func TestWorkHonoursTimeout(t *testing.T) {
	d := NewDispatcher(1, 10*time.Millisecond)
	defer d.Close()

	var err error
	Go(d, func(ctx context.Context) (struct{}, error) {
		<-ctx.Done()
		return struct{}{}, ctx.Err()
	}, func(_ struct{}, e error) { err = e })

	require.Eventually(t, func() bool { return d.Drain() == 1 }, time.Second, time.Millisecond)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCloseDiscardsUndrainedCompletions(t *testing.T) {
	d := NewDispatcher(0, 0)
	called := false
	Go(d, func(ctx context.Context) (int, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	}, func(int, error) { called = true })

	d.Close()
	assert.False(t, called)
	assert.Equal(t, 0, d.InFlight())
}
