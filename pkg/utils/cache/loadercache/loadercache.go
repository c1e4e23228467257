package loadercache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/mpapenbr/racepace/log"
	"github.com/mpapenbr/racepace/pkg/utils/cache"
)

// based on github.com/kittpat1413/go-common/framework/cache/localcache/localcache.go

type (
	Option[K comparable, V any] func(*config[K, V])
	item[T any]                 struct {
		data    T
		expires time.Time
	}
	LoaderFunc[K comparable, V any] func(ctx context.Context, key K) (*V, error)
	config[K comparable, V any]     struct {
		expiration  time.Duration
		loadTimeout time.Duration
		loader      LoaderFunc[K, V]
		l           *log.Logger
		now         func() time.Time
	}
	loaderCache[K comparable, V any] struct {
		mutex  sync.Mutex
		items  map[K]item[*V]
		group  singleflight.Group
		config *config[K, V]
	}
)

// WithExpiration sets how long a loaded entry is served. A value <= 0 disables
// caching, every Get calls the loader.
func WithExpiration[K comparable, V any](expiration time.Duration) Option[K, V] {
	return func(c *config[K, V]) {
		c.expiration = expiration
	}
}

// WithLoadTimeout bounds a loader call (<= 0: no bound). The loader does not run with the
// context of the caller that triggered it, since other callers may wait for
// the same result.
func WithLoadTimeout[K comparable, V any](d time.Duration) Option[K, V] {
	return func(c *config[K, V]) {
		c.loadTimeout = d
	}
}

func WithLoader[K comparable, V any](lf LoaderFunc[K, V]) Option[K, V] {
	return func(c *config[K, V]) {
		c.loader = lf
	}
}

func WithLogger[K comparable, V any](arg *log.Logger) Option[K, V] {
	return func(c *config[K, V]) {
		c.l = arg
	}
}

func withClock[K comparable, V any](now func() time.Time) Option[K, V] {
	return func(c *config[K, V]) {
		c.now = now
	}
}

func New[K comparable, V any](opts ...Option[K, V]) cache.Cache[K, V] {
	c := &config[K, V]{
		expiration:  5 * time.Minute,
		loadTimeout: time.Minute,
		l:           log.Default().Named("cache"),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return &loaderCache[K, V]{
		items:  make(map[K]item[*V]),
		config: c,
	}
}

// Get returns the cached entry for key or loads it. Concurrent loads of the
// same key are merged into one loader call. Failed loads are not cached.
func (c *loaderCache[K, V]) Get(ctx context.Context, key K) (*V, error) {
	c.mutex.Lock()
	if cacheItem, ok := c.items[key]; ok {
		if cacheItem.expires.After(c.config.now()) {
			c.mutex.Unlock()
			return cacheItem.data, nil
		}
		delete(c.items, key)
	}
	c.mutex.Unlock()
	return c.load(ctx, key)
}

// load merges concurrent loads of key. A caller whose ctx is done stops
// waiting, the load itself continues for the remaining callers.
func (c *loaderCache[K, V]) load(ctx context.Context, key K) (*V, error) {
	if c.config.loader == nil {
		return nil, cache.ErrCacheMiss
	}
	ch := c.group.DoChan(fmt.Sprint(key), func() (any, error) {
		c.config.l.Debug("loaderCache.load", log.Any("key", key))
		loadCtx := context.WithoutCancel(ctx)
		if c.config.loadTimeout > 0 {
			var cancel context.CancelFunc
			loadCtx, cancel = context.WithTimeout(loadCtx, c.config.loadTimeout)
			defer cancel()
		}
		data, err := c.config.loader(loadCtx, key)
		if err != nil {
			return nil, err
		}
		if c.config.expiration > 0 {
			c.mutex.Lock()
			c.items[key] = item[*V]{data: data, expires: c.config.now().Add(c.config.expiration)}
			c.mutex.Unlock()
		}
		return data, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			c.config.l.Error("error loading entry", log.Any("key", key), log.ErrorField(res.Err))
			return nil, res.Err
		}
		data, _ := res.Val.(*V)
		return data, nil
	}
}

func (c *loaderCache[K, V]) Invalidate(ctx context.Context, key K) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.config.l.Debug("Invalidate", log.Any("key", key))

	delete(c.items, key)
	c.config.l.Debug("Invalidate", log.Int("remain items", len(c.items)))
}

func (c *loaderCache[K, V]) InvalidateAll(ctx context.Context) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.config.l.Debug("InvalidateAll", log.Int("items", len(c.items)))
	clear(c.items)
}
