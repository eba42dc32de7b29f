package cache

import (
	"context"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Producer computes the value for a key. It is invoked at most once
// concurrently per key; its ctx is cancelled once every waiter has
// withdrawn.
type Producer[V any] func(ctx context.Context, key string) (V, error)

// Cache is a bounded key/value cache which deduplicates concurrent
// requests for the same key. Completed values live in an LRU of the
// configured capacity; failed productions are not memoized.
type Cache[V any] struct {
	mu      sync.Mutex
	pending map[string]*inflight[V]
	done    *lru.Cache[string, V]
}

type inflight[V any] struct {
	cancel  context.CancelFunc
	waiters int
	ch      chan struct{}
	val     V
	err     error
}

// New creates a cache holding up to capacity completed values.
func New[V any](capacity int) *Cache[V] {
	done, err := lru.New[string, V](capacity)
	if err != nil {
		panic(err)
	}
	return &Cache[V]{
		pending: make(map[string]*inflight[V]),
		done:    done,
	}
}

// Get returns the value for key, attaching to an in-flight production if
// one exists, or starting one otherwise. When ctx fires the waiter
// withdraws; once the last waiter is gone the production itself is
// cancelled and the entry dropped.
func (c *Cache[V]) Get(ctx context.Context, key string, produce Producer[V]) (V, error) {
	c.mu.Lock()
	if v, ok := c.done.Get(key); ok {
		c.mu.Unlock()
		return v, nil
	}
	fl, ok := c.pending[key]
	if !ok {
		pctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		fl = &inflight[V]{cancel: cancel, ch: make(chan struct{})}
		c.pending[key] = fl
		go c.produce(pctx, key, fl, produce)
	}
	fl.waiters++
	c.mu.Unlock()

	select {
	case <-fl.ch:
		return fl.val, fl.err
	case <-ctx.Done():
	}

	c.mu.Lock()
	select {
	case <-fl.ch:
		// completed while we were cancelling, settle for the result
		c.mu.Unlock()
		return fl.val, fl.err
	default:
	}
	fl.waiters--
	if fl.waiters == 0 {
		fl.cancel()
		delete(c.pending, key)
	}
	c.mu.Unlock()

	var zero V
	return zero, ctx.Err()
}

func (c *Cache[V]) produce(ctx context.Context, key string, fl *inflight[V], produce Producer[V]) {
	v, err := produce(ctx, key)

	c.mu.Lock()
	fl.val, fl.err = v, err
	close(fl.ch)
	if c.pending[key] == fl {
		delete(c.pending, key)
	}
	if err == nil {
		c.done.Add(key, v)
	}
	c.mu.Unlock()

	fl.cancel()
}

// Len reports the number of completed entries currently held.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.done.Len()
}
