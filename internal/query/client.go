package query

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"sportsbook/internal/logger"
	"sportsbook/internal/metrics"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// Config holds cache defaults.
type Config struct {
	// StaleTime is how long a fetched value counts as fresh when a query does not
	// set its own. Zero means values are stale as soon as they are stored.
	StaleTime time.Duration
	// Now is the clock; time.Now when nil.
	Now func() time.Time
}

// State is a snapshot of one cache entry.
type State struct {
	Data        any
	HasData     bool
	Err         error
	Fetching    bool
	Invalidated bool
	UpdatedAt   time.Time
	ErrorAt     time.Time
}

type fetchFunc func(ctx context.Context) (any, error)

type entry struct {
	key         Key
	data        any
	hasData     bool
	err         error
	fetching    bool
	invalidated bool
	updatedAt   time.Time
	errorAt     time.Time
	// generation changes on every invalidation and direct write, so a fetch that
	// started earlier cannot clear a newer invalidation.
	generation uint64

	staleTime      time.Duration
	refetchOnFocus bool
	fetcher        fetchFunc
}

func (e *entry) state() State {
	return State{
		Data:        e.data,
		HasData:     e.hasData,
		Err:         e.err,
		Fetching:    e.fetching,
		Invalidated: e.invalidated,
		UpdatedAt:   e.updatedAt,
		ErrorAt:     e.errorAt,
	}
}

func (e *entry) fresh(now time.Time) bool {
	return e.hasData && !e.invalidated && now.Sub(e.updatedAt) < e.staleTime
}

type listener struct {
	id int
	fn func(State)
}

// Client is the request cache. All methods are safe for concurrent use; the zero
// value is not usable, use NewClient.
type Client struct {
	cfg Config

	mu        sync.Mutex
	entries   map[string]*entry
	listeners map[string][]listener
	nextID    int

	group singleflight.Group
}

func NewClient(cfg Config) *Client {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Client{
		cfg:       cfg,
		entries:   make(map[string]*entry),
		listeners: make(map[string][]listener),
	}
}

// Query describes one cacheable read.
type Query[T any] struct {
	Key Key
	Fn  func(ctx context.Context) (T, error)
	// StaleTime overrides Config.StaleTime when positive.
	StaleTime time.Duration
	// RefetchOnFocus makes Focus refetch this entry once it is stale.
	RefetchOnFocus bool
}

// Fetch returns the cached value for q.Key when it is fresh and fetches it otherwise.
// Concurrent calls for the same key share a single in-flight fetch and its result.
// On failure the previously cached value, if any, is returned together with the error
// and stays in the cache.
func Fetch[T any](ctx context.Context, c *Client, q Query[T]) (T, error) {
	var zero T
	if len(q.Key) == 0 {
		return zero, errors.New("query: empty key")
	}

	fn := func(ctx context.Context) (any, error) {
		return q.Fn(ctx)
	}

	hash := q.Key.Hash()

	c.mu.Lock()
	e := c.entryLocked(q.Key, hash)
	e.fetcher = fn
	e.staleTime = c.cfg.StaleTime
	if q.StaleTime > 0 {
		e.staleTime = q.StaleTime
	}
	e.refetchOnFocus = q.RefetchOnFocus

	if e.fresh(c.cfg.Now()) {
		data := e.data
		c.mu.Unlock()
		metrics.QueryHits.WithLabelValues(q.Key.Name()).Inc()
		return cast[T](data), nil
	}
	joining := e.fetching
	c.mu.Unlock()

	metrics.QueryMisses.WithLabelValues(q.Key.Name()).Inc()
	if joining {
		metrics.QueryDeduplicated.WithLabelValues(q.Key.Name()).Inc()
	}

	v, err := c.fetch(ctx, hash, fn)
	if err != nil {
		if prev, ok := c.data(hash); ok {
			return cast[T](prev), err
		}
		return zero, err
	}
	return cast[T](v), nil
}

func (c *Client) fetch(ctx context.Context, hash string, fn fetchFunc) (any, error) {
	ch := c.group.DoChan(hash, func() (any, error) {
		c.mu.Lock()
		e := c.entries[hash]
		if e == nil {
			c.mu.Unlock()
			return nil, errors.New("query: entry removed")
		}
		e.fetching = true
		gen := e.generation
		key := e.key
		c.mu.Unlock()
		c.notify(hash)

		logger.WithContext(ctx).Debug("Fetching query", "key", key.String())

		// The fetch outlives a caller that gives up; other callers may be waiting on it.
		v, err := fn(context.WithoutCancel(ctx))

		c.mu.Lock()
		if cur := c.entries[hash]; cur == e {
			now := c.cfg.Now()
			e.fetching = false
			if err != nil {
				e.err = err
				e.errorAt = now
			} else {
				e.data = v
				e.hasData = true
				e.err = nil
				e.updatedAt = now
				if e.generation == gen {
					e.invalidated = false
				}
			}
		}
		c.mu.Unlock()
		c.notify(hash)

		if err != nil {
			metrics.QueryFetchErrors.WithLabelValues(key.Name()).Inc()
			logger.WithContext(ctx).Debug("Query fetch failed", "key", key.String(), "error", err)
		}
		return v, err
	})

	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Client) entryLocked(key Key, hash string) *entry {
	e, ok := c.entries[hash]
	if !ok {
		e = &entry{key: key, staleTime: c.cfg.StaleTime}
		c.entries[hash] = e
	}
	return e
}

func (c *Client) data(hash string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[hash]
	if !ok || !e.hasData {
		return nil, false
	}
	return e.data, true
}

// Peek returns the current state of key without fetching.
func (c *Client) Peek(key Key) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key.Hash()]; ok {
		return e.state()
	}
	return State{}
}

// GetData returns the cached value of key, typed.
func GetData[T any](c *Client, key Key) (T, bool) {
	v, ok := c.data(key.Hash())
	if !ok {
		var zero T
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}

// SetData stores value under key as if it had just been fetched.
func (c *Client) SetData(key Key, value any) {
	hash := key.Hash()
	c.mu.Lock()
	e := c.entryLocked(key, hash)
	e.data = value
	e.hasData = true
	e.err = nil
	e.invalidated = false
	e.updatedAt = c.cfg.Now()
	e.generation++
	c.mu.Unlock()
	c.notify(hash)
}

// Invalidate marks every entry whose key starts with prefix so the next read refetches
// it. It returns the number of entries marked.
func (c *Client) Invalidate(prefix Key) int {
	c.mu.Lock()
	var marked []string
	for hash, e := range c.entries {
		if e.key.HasPrefix(prefix) {
			e.invalidated = true
			e.generation++
			marked = append(marked, hash)
		}
	}
	c.mu.Unlock()

	for _, hash := range marked {
		c.notify(hash)
	}
	return len(marked)
}

// InvalidateAll marks every entry.
func (c *Client) InvalidateAll() int {
	return c.Invalidate(Key{})
}

// Remove drops key from the cache.
func (c *Client) Remove(key Key) {
	hash := key.Hash()
	c.mu.Lock()
	delete(c.entries, hash)
	c.mu.Unlock()
	c.notify(hash)
}

// Optimistic writes value under key before the server confirms it and returns a
// rollback that restores the exact previous state of the entry.
func (c *Client) Optimistic(key Key, value any) (rollback func()) {
	hash := key.Hash()

	c.mu.Lock()
	prev, existed := c.entries[hash]
	var snapshot entry
	if existed {
		snapshot = *prev
	}
	e := c.entryLocked(key, hash)
	e.data = value
	e.hasData = true
	e.updatedAt = c.cfg.Now()
	e.generation++
	c.mu.Unlock()
	c.notify(hash)

	return func() {
		c.mu.Lock()
		if !existed {
			delete(c.entries, hash)
		} else if cur, ok := c.entries[hash]; ok {
			cur.data = snapshot.data
			cur.hasData = snapshot.hasData
			cur.err = snapshot.err
			cur.invalidated = snapshot.invalidated
			cur.updatedAt = snapshot.updatedAt
			cur.errorAt = snapshot.errorAt
			cur.generation++
		}
		c.mu.Unlock()
		c.notify(hash)
	}
}

// Focus refetches every stale entry that opted into RefetchOnFocus, the way an app
// regaining focus would. It returns the number of entries refetched.
func (c *Client) Focus(ctx context.Context) (int, error) {
	now := c.cfg.Now()

	type target struct {
		hash string
		fn   fetchFunc
	}
	var targets []target

	c.mu.Lock()
	for hash, e := range c.entries {
		if e.refetchOnFocus && e.fetcher != nil && !e.fresh(now) {
			targets = append(targets, target{hash: hash, fn: e.fetcher})
		}
	}
	c.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	for _, t := range targets {
		g.Go(func() error {
			_, err := c.fetch(gctx, t.hash, t.fn)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return len(targets), fmt.Errorf("failed to refetch on focus: %w", err)
	}
	return len(targets), nil
}

// Subscribe calls fn with the new state of key after every change. The returned
// function removes the subscription.
func (c *Client) Subscribe(key Key, fn func(State)) (unsubscribe func()) {
	hash := key.Hash()

	c.mu.Lock()
	c.nextID++
	id := c.nextID
	c.listeners[hash] = append(c.listeners[hash], listener{id: id, fn: fn})
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		ls := c.listeners[hash]
		for i, l := range ls {
			if l.id == id {
				c.listeners[hash] = append(ls[:i:i], ls[i+1:]...)
				break
			}
		}
		if len(c.listeners[hash]) == 0 {
			delete(c.listeners, hash)
		}
	}
}

func (c *Client) notify(hash string) {
	c.mu.Lock()
	ls := append([]listener(nil), c.listeners[hash]...)
	var st State
	if e, ok := c.entries[hash]; ok {
		st = e.state()
	}
	c.mu.Unlock()

	for _, l := range ls {
		l.fn(st)
	}
}

func cast[T any](v any) T {
	t, _ := v.(T)
	return t
}
