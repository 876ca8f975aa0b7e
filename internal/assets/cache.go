package assets

import (
	"context"
	"errors"
	"path"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Cache resolves asset keys to files inside one job's workspace.
// Each key is fetched at most once; concurrent callers wait for the same fetch.
type Cache struct {
	fetcher Fetcher
	dir     string
	timeout time.Duration
	logger  zerolog.Logger

	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	done chan struct{}
	path string
	err  error
}

func NewCache(f Fetcher, dir string, timeout time.Duration, logger zerolog.Logger) *Cache {
	return &Cache{
		fetcher: f,
		dir:     dir,
		timeout: timeout,
		logger:  logger.With().Str("component", "assets").Logger(),
		entries: make(map[string]*entry),
	}
}

// Get returns the local path of key, fetching it on first use.
func (c *Cache) Get(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", errors.New("empty asset key")
	}

	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok {
		e = &entry{done: make(chan struct{})}
		c.entries[key] = e
	}
	c.mu.Unlock()

	if ok {
		select {
		case <-e.done:
			return e.path, e.err
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	e.path, e.err = c.fetch(ctx, key)
	close(e.done)
	return e.path, e.err
}

func (c *Cache) fetch(ctx context.Context, key string) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	dst := filepath.Join(c.dir, filepath.FromSlash(path.Clean("/"+key)))
	start := time.Now()
	if err := c.fetcher.Fetch(ctx, key, dst); err != nil {
		return "", err
	}
	c.logger.Debug().Str("key", key).Dur("took", time.Since(start)).Msg("asset fetched")
	return dst, nil
}

// Prefetch fetches keys in the background so later Get calls find them ready.
// Missing assets are logged, not returned; only cancellation is an error.
func (c *Cache) Prefetch(ctx context.Context, keys ...string) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, key := range keys {
		if key == "" {
			continue
		}
		key := key
		g.Go(func() error {
			if _, err := c.Get(gctx, key); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				c.logger.Warn().Err(err).Str("key", key).Msg("asset unavailable, a fallback will be used")
			}
			return nil
		})
	}
	return g.Wait()
}
