package query

import (
	"context"

	"sportsbook/internal/logger"
)

// Mutation describes a write. Hooks run in order OnMutate, Fn, then OnSuccess or
// OnError, then OnSettled. Keys listed in Invalidates are invalidated after a
// successful write.
type Mutation[V, R any] struct {
	Name string
	Fn   func(ctx context.Context, vars V) (R, error)

	// OnMutate runs before Fn. The returned rollback, if any, is called when Fn fails.
	OnMutate  func(c *Client, vars V) (rollback func())
	OnSuccess func(c *Client, vars V, result R)
	OnError   func(c *Client, vars V, err error)
	OnSettled func(c *Client, vars V)

	Invalidates []Key
}

// Mutate runs m with vars. Mutations are never retried.
func Mutate[V, R any](ctx context.Context, c *Client, m Mutation[V, R], vars V) (R, error) {
	var rollback func()
	if m.OnMutate != nil {
		rollback = m.OnMutate(c, vars)
	}

	result, err := m.Fn(ctx, vars)
	if err != nil {
		if rollback != nil {
			rollback()
		}
		if m.OnError != nil {
			m.OnError(c, vars, err)
		}
		logger.WithContext(ctx).Debug("Mutation failed", "mutation", m.Name, "error", err)
	} else {
		for _, key := range m.Invalidates {
			c.Invalidate(key)
		}
		if m.OnSuccess != nil {
			m.OnSuccess(c, vars, result)
		}
	}

	if m.OnSettled != nil {
		m.OnSettled(c, vars)
	}
	return result, err
}
