package search

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTimer struct {
	fn      func()
	delay   time.Duration
	stopped bool
	// fired: the callback is already running, Stop is too late.
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped && !t.fired
	t.stopped = true
	return was
}

type fakeScheduler struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (s *fakeScheduler) afterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &fakeTimer{fn: f, delay: d}
	s.timers = append(s.timers, t)
	return t
}

// fireActive runs the callbacks of timers that were not stopped.
func (s *fakeScheduler) fireActive() int {
	s.mu.Lock()
	var active []*fakeTimer
	for _, t := range s.timers {
		if !t.stopped {
			t.stopped = true
			active = append(active, t)
		}
	}
	s.mu.Unlock()

	for _, t := range active {
		t.fn()
	}
	return len(active)
}

func newTestDebouncer(fn Func[[]string], onResult func(Result[[]string])) (*Debouncer[[]string], *fakeScheduler) {
	sched := &fakeScheduler{}
	d := NewDebouncer(Config{}, fn, onResult)
	d.afterFunc = sched.afterFunc
	return d, sched
}

func TestShortQueryIssuesNoCall(t *testing.T) {
	var calls atomic.Int32
	d, sched := newTestDebouncer(func(ctx context.Context, q string) ([]string, error) {
		calls.Add(1)
		return []string{q}, nil
	}, nil)

	d.Input(context.Background(), "a")

	assert.Equal(t, 0, sched.fireActive())
	assert.Equal(t, int32(0), calls.Load())
	_, ok := d.Latest()
	assert.False(t, ok)
}

func TestTwoCharacterQueryIssuesOneCallAfterDelay(t *testing.T) {
	var calls atomic.Int32
	d, sched := newTestDebouncer(func(ctx context.Context, q string) ([]string, error) {
		calls.Add(1)
		return []string{"result for " + q}, nil
	}, nil)

	d.Input(context.Background(), "al")

	require.Len(t, sched.timers, 1)
	assert.Equal(t, DefaultDelay, sched.timers[0].delay)
	assert.Equal(t, int32(0), calls.Load(), "nothing sent before the quiet period")

	assert.Equal(t, 1, sched.fireActive())
	assert.Equal(t, int32(1), calls.Load())

	res, ok := d.Latest()
	require.True(t, ok)
	assert.Equal(t, "al", res.Query)
	assert.Equal(t, []string{"result for al"}, res.Value)
}

func TestKeystrokeRestartsTimer(t *testing.T) {
	var queries []string
	var mu sync.Mutex
	d, sched := newTestDebouncer(func(ctx context.Context, q string) ([]string, error) {
		mu.Lock()
		queries = append(queries, q)
		mu.Unlock()
		return nil, nil
	}, nil)

	d.Input(context.Background(), "al")
	d.Input(context.Background(), "ali")
	d.Input(context.Background(), "alic")

	assert.Equal(t, 1, sched.fireActive())
	assert.Equal(t, []string{"alic"}, queries)
}

func TestStaleResponseIsDropped(t *testing.T) {
	slowRelease := make(chan struct{})
	slowStarted := make(chan struct{})

	var delivered []Result[[]string]
	var mu sync.Mutex
	d, sched := newTestDebouncer(func(ctx context.Context, q string) ([]string, error) {
		if q == "al" {
			close(slowStarted)
			<-slowRelease
		}
		return []string{q}, nil
	}, func(r Result[[]string]) {
		mu.Lock()
		delivered = append(delivered, r)
		mu.Unlock()
	})

	d.Input(context.Background(), "al")
	done := make(chan struct{})
	go func() {
		defer close(done)
		sched.fireActive()
	}()
	<-slowStarted

	d.Input(context.Background(), "alice")
	sched.fireActive()

	close(slowRelease)
	<-done

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, delivered, 1)
	assert.Equal(t, "alice", delivered[0].Query)

	res, _ := d.Latest()
	assert.Equal(t, "alice", res.Query)
	assert.Equal(t, uint64(2), res.Seq)
}

func TestClearingQueryDropsInFlightResponse(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	d, sched := newTestDebouncer(func(ctx context.Context, q string) ([]string, error) {
		close(started)
		<-release
		return []string{q}, nil
	}, nil)

	d.Input(context.Background(), "bob")
	done := make(chan struct{})
	go func() {
		defer close(done)
		sched.fireActive()
	}()
	<-started

	d.Input(context.Background(), "")
	close(release)
	<-done

	_, ok := d.Latest()
	assert.False(t, ok)
}

func TestStop(t *testing.T) {
	var calls atomic.Int32
	d, sched := newTestDebouncer(func(ctx context.Context, q string) ([]string, error) {
		calls.Add(1)
		return nil, nil
	}, nil)

	d.Input(context.Background(), "tennis")
	d.Stop()
	d.Input(context.Background(), "tennis club")

	assert.Equal(t, 0, sched.fireActive())
	assert.Equal(t, int32(0), calls.Load())
}

func TestRealTimerDebounce(t *testing.T) {
	var calls atomic.Int32
	d := NewDebouncer(Config{Delay: 10 * time.Millisecond}, func(ctx context.Context, q string) (int, error) {
		calls.Add(1)
		return len(q), nil
	}, nil)

	d.Input(context.Background(), "ab")
	assert.Eventually(t, func() bool {
		res, ok := d.Latest()
		return ok && res.Value == 2
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
}

func TestFiredTimerCannotDispatchNewerQuery(t *testing.T) {
	var mu sync.Mutex
	var calls []string
	d, sched := newTestDebouncer(func(ctx context.Context, q string) ([]string, error) {
		mu.Lock()
		calls = append(calls, q)
		mu.Unlock()
		return []string{q}, nil
	}, nil)
	ctx := context.Background()

	d.Input(ctx, "ab")
	first := sched.timers[0]
	first.fired = true

	d.Input(ctx, "abc")
	// The first callback got the lock only after the second keystroke.
	first.fn()
	assert.Empty(t, calls)

	require.Equal(t, 1, sched.fireActive())
	assert.Equal(t, []string{"abc"}, calls)

	res, ok := d.Latest()
	require.True(t, ok)
	assert.Equal(t, "abc", res.Query)
}
