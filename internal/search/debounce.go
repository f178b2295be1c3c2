package search

import (
	"context"
	"strings"
	"sync"
	"time"

	"sportsbook/internal/logger"
)

const (
	DefaultDelay     = 300 * time.Millisecond
	DefaultMinLength = 2
)

// Config настройки поиска с задержкой
type Config struct {
	Delay     time.Duration
	MinLength int
}

// Func выполняет запрос поиска
type Func[T any] func(ctx context.Context, query string) (T, error)

// Result is the outcome of one dispatched search.
type Result[T any] struct {
	Seq   uint64
	Query string
	Value T
	Err   error
}

// Timer is the part of *time.Timer the debouncer needs.
type Timer interface {
	Stop() bool
}

// Debouncer waits for a quiet period after the last keystroke before searching.
// Every dispatched request gets a sequence number and only the response of the most
// recently dispatched request is delivered; older responses are dropped.
type Debouncer[T any] struct {
	delay     time.Duration
	minLength int
	fn        Func[T]
	onResult  func(Result[T])
	afterFunc func(d time.Duration, f func()) Timer

	mu      sync.Mutex
	ctx     context.Context
	timer   Timer
	// gen identifies the latest scheduled timer; callbacks of older ones are no-ops.
	gen     uint64
	pending string
	seq     uint64
	latest  Result[T]
	hasRes  bool
	stopped bool
}

// NewDebouncer создает поиск с задержкой. onResult may be nil.
func NewDebouncer[T any](cfg Config, fn Func[T], onResult func(Result[T])) *Debouncer[T] {
	if cfg.Delay <= 0 {
		cfg.Delay = DefaultDelay
	}
	if cfg.MinLength <= 0 {
		cfg.MinLength = DefaultMinLength
	}
	return &Debouncer[T]{
		delay:     cfg.Delay,
		minLength: cfg.MinLength,
		fn:        fn,
		onResult:  onResult,
		afterFunc: func(d time.Duration, f func()) Timer {
			return time.AfterFunc(d, f)
		},
	}
}

// Input records a keystroke. Queries shorter than the minimum length clear the current
// results and cancel any pending search.
func (d *Debouncer[T]) Input(ctx context.Context, query string) {
	query = strings.TrimSpace(query)

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}

	// Stop may lose to a callback that already fired; the generation bump
	// turns that callback into a no-op.
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}

	if len([]rune(query)) < d.minLength {
		// Bump the sequence so a response still in flight is dropped.
		d.seq++
		d.pending = ""
		d.latest = Result[T]{Seq: d.seq, Query: query}
		d.hasRes = false
		return
	}

	d.ctx = ctx
	d.pending = query
	gen := d.gen
	d.timer = d.afterFunc(d.delay, func() { d.fire(gen) })
}

func (d *Debouncer[T]) fire(gen uint64) {
	d.mu.Lock()
	if d.stopped || gen != d.gen || d.pending == "" {
		d.mu.Unlock()
		return
	}
	d.seq++
	seq := d.seq
	query := d.pending
	ctx := d.ctx
	d.pending = ""
	d.timer = nil
	d.mu.Unlock()

	value, err := d.fn(ctx, query)
	d.deliver(ctx, Result[T]{Seq: seq, Query: query, Value: value, Err: err})
}

func (d *Debouncer[T]) deliver(ctx context.Context, res Result[T]) {
	d.mu.Lock()
	if res.Seq != d.seq || d.stopped {
		d.mu.Unlock()
		logger.WithContext(ctx).Debug("Dropping stale search response", "query", res.Query, "seq", res.Seq)
		return
	}
	d.latest = res
	d.hasRes = true
	onResult := d.onResult
	d.mu.Unlock()

	if onResult != nil {
		onResult(res)
	}
}

// Latest returns the most recent delivered result.
func (d *Debouncer[T]) Latest() (Result[T], bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.latest, d.hasRes
}

// Stop cancels the pending search; responses arriving later are dropped.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
