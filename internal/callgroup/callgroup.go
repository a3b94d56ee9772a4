// Package callgroup provides call deduplication by key.
//
// If multiple goroutines request the same key concurrently, only one
// executes the function; the others wait and share its result. Once the
// function returns, the key is forgotten and future calls trigger a new
// execution. The persist store uses this to collapse concurrent refreshes
// of the same token into one materialization.
package callgroup

import (
	"context"
	"sync"
)

// Result is the shared outcome of one deduplicated call.
type Result[V any] struct {
	Val V
	Err error
}

// Group deduplicates concurrent function calls by key.
// The zero value is ready to use.
type Group[K comparable, V any] struct {
	mu    sync.Mutex
	calls map[K]*call[V]
}

type call[V any] struct {
	done chan struct{}
	val  V
	err  error
}

// wait returns a channel that receives the call's result once it is done.
// The channel receives exactly one value and is never closed.
func (c *call[V]) wait() <-chan Result[V] {
	ch := make(chan Result[V], 1)
	go func() {
		<-c.done
		ch <- Result[V]{Val: c.val, Err: c.err}
	}()
	return ch
}

// DoChan executes fn if no call is in flight for key. If a call is
// already in flight, the returned channel receives the result of that
// existing call instead and fn never runs.
func (g *Group[K, V]) DoChan(key K, fn func() (V, error)) <-chan Result[V] {
	g.mu.Lock()
	if g.calls == nil {
		g.calls = make(map[K]*call[V])
	}
	if c, ok := g.calls[key]; ok {
		g.mu.Unlock()
		return c.wait()
	}

	c := &call[V]{done: make(chan struct{})}
	g.calls[key] = c
	g.mu.Unlock()

	go func() {
		c.val, c.err = fn()
		close(c.done)

		g.mu.Lock()
		delete(g.calls, key)
		g.mu.Unlock()
	}()

	return c.wait()
}

// Do runs fn under key and waits for the shared result. If ctx is done
// first, Do returns the context error without cancelling the in-flight
// call; later callers for the same key still receive its result.
func (g *Group[K, V]) Do(ctx context.Context, key K, fn func() (V, error)) (V, error) {
	select {
	case r := <-g.DoChan(key, fn):
		return r.Val, r.Err
	case <-ctx.Done():
		var zero V
		return zero, ctx.Err()
	}
}
