package live_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/notepad/pkg/live"
)

func recv[T any](t *testing.T, sub *live.Subscription[T]) T {
	t.Helper()
	select {
	case v, ok := <-sub.C():
		require.True(t, ok, "subscription closed unexpectedly")
		return v
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for value")
	}
	var zero T
	return zero
}

func assertQuiet[T any](t *testing.T, sub *live.Subscription[T]) {
	t.Helper()
	select {
	case v := <-sub.C():
		t.Fatalf("unexpected value: %v", v)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestQuery_SubscribeDeliversCurrentValue(t *testing.T) {
	var n atomic.Int64
	n.Store(7)
	q := live.NewQuery("counter", func(ctx context.Context) (int64, error) {
		return n.Load(), nil
	})

	sub, err := q.Subscribe(context.Background())
	require.NoError(t, err)
	defer sub.Close()

	assert.Equal(t, int64(7), recv(t, sub))
	assert.Equal(t, 1, q.Subscribers())
}

func TestQuery_RefreshSuppressesEqualValues(t *testing.T) {
	var n atomic.Int64
	q := live.NewQuery("counter", func(ctx context.Context) (int64, error) {
		return n.Load(), nil
	}, live.WithEqual(func(a, b int64) bool { return a == b }))

	sub, err := q.Subscribe(context.Background())
	require.NoError(t, err)
	defer sub.Close()
	assert.Equal(t, int64(0), recv(t, sub))

	require.NoError(t, q.Refresh(context.Background()))
	assertQuiet(t, sub)

	n.Store(3)
	require.NoError(t, q.Refresh(context.Background()))
	assert.Equal(t, int64(3), recv(t, sub))
}

func TestQuery_LateSubscriberDoesNotHideChange(t *testing.T) {
	var n atomic.Int64
	n.Store(1)
	q := live.NewQuery("counter", func(ctx context.Context) (int64, error) {
		return n.Load(), nil
	}, live.WithEqual(func(a, b int64) bool { return a == b }))

	first, err := q.Subscribe(context.Background())
	require.NoError(t, err)
	defer first.Close()
	assert.Equal(t, int64(1), recv(t, first))

	// The value changes before any refresh runs.
	n.Store(2)
	second, err := q.Subscribe(context.Background())
	require.NoError(t, err)
	defer second.Close()
	assert.Equal(t, int64(2), recv(t, second))
	assert.Equal(t, int64(2), recv(t, first), "existing subscriber must see the change")

	require.NoError(t, q.Refresh(context.Background()))
	assertQuiet(t, first)
	assertQuiet(t, second)
}

func TestQuery_ConflatesForSlowReaders(t *testing.T) {
	var n atomic.Int64
	q := live.NewQuery("counter", func(ctx context.Context) (int64, error) {
		return n.Load(), nil
	})

	sub, err := q.Subscribe(context.Background())
	require.NoError(t, err)
	defer sub.Close()

	for i := 1; i <= 5; i++ {
		n.Store(int64(i))
		require.NoError(t, q.Refresh(context.Background()))
	}
	assert.Equal(t, int64(5), recv(t, sub))
	assertQuiet(t, sub)
}

func TestQuery_LoadErrorFailsSubscribe(t *testing.T) {
	boom := errors.New("boom")
	q := live.NewQuery("broken", func(ctx context.Context) (int, error) {
		return 0, boom
	})

	_, err := q.Subscribe(context.Background())
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 0, q.Subscribers())
}

func TestQuery_ContextCancelClosesSubscription(t *testing.T) {
	idle := make(chan struct{})
	q := live.NewQuery("x", func(ctx context.Context) (string, error) {
		return "v", nil
	}, live.WithIdle[string](func() { close(idle) }))

	ctx, cancel := context.WithCancel(context.Background())
	sub, err := q.Subscribe(ctx)
	require.NoError(t, err)
	assert.Equal(t, "v", recv(t, sub))

	cancel()
	select {
	case <-idle:
	case <-time.After(time.Second):
		t.Fatal("idle callback not invoked")
	}
	assert.True(t, sub.Closed())
	_, ok := <-sub.C()
	assert.False(t, ok)
}

func TestState_SubscribeAndSet(t *testing.T) {
	st := live.NewState("a")
	sub := st.Subscribe(context.Background())
	defer sub.Close()

	assert.Equal(t, "a", recv(t, sub))
	st.Set("b")
	assert.Equal(t, "b", recv(t, sub))
	assert.Equal(t, "bc", st.Update(func(s string) string { return s + "c" }))
	assert.Equal(t, "bc", recv(t, sub))
	assert.Equal(t, "bc", st.Value())
}

func TestShared_KeepAliveReusesUpstream(t *testing.T) {
	var opens atomic.Int32
	src := live.NewState(1)
	got := live.NewState(0)

	shared := live.NewShared(context.Background(), func(ctx context.Context) (*live.Subscription[int], error) {
		opens.Add(1)
		return src.Subscribe(ctx), nil
	}, got.Set, 200*time.Millisecond, nil)

	release, err := shared.Acquire()
	require.NoError(t, err)
	assert.Eventually(t, func() bool { return got.Value() == 1 }, time.Second, 5*time.Millisecond)

	release()
	release()
	assert.Equal(t, 0, shared.Refs())
	assert.True(t, shared.Active(), "upstream must survive inside keep-alive window")

	release, err = shared.Acquire()
	require.NoError(t, err)
	assert.Equal(t, int32(1), opens.Load())

	release()
	assert.Eventually(t, func() bool { return !shared.Active() }, time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool { return src.Subscribers() == 0 }, time.Second, 10*time.Millisecond)

	_, err = shared.Acquire()
	require.NoError(t, err)
	assert.Equal(t, int32(2), opens.Load())
	shared.Stop()
	assert.False(t, shared.Active())
}

func TestShared_ParentCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	shared := live.NewShared(ctx, func(ctx context.Context) (*live.Subscription[int], error) {
		t.Fatal("upstream must not open")
		return nil, nil
	}, func(int) {}, time.Second, nil)

	_, err := shared.Acquire()
	assert.ErrorIs(t, err, context.Canceled)
}

func TestShared_ConsumerPanicIsContained(t *testing.T) {
	src := live.NewState(1)
	shared := live.NewShared(context.Background(), func(ctx context.Context) (*live.Subscription[int], error) {
		return src.Subscribe(ctx), nil
	}, func(int) { panic("boom") }, 0, nil)

	_, err := shared.Acquire()
	require.NoError(t, err)

	// The consumer goroutine ends and drops its upstream subscription.
	assert.Eventually(t, func() bool { return src.Subscribers() == 0 }, time.Second, 5*time.Millisecond)

	stopped := make(chan struct{})
	go func() {
		shared.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Stop blocked after a consumer panic")
	}
}
