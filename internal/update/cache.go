package update

import (
	"context"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	appErrors "prochub/internal/errors"
)

// LocalVersionFunc resolves the version of the running build.
type LocalVersionFunc func(ctx context.Context) (string, error)

// StaticLocal returns a LocalVersionFunc reporting a version fixed at build time.
func StaticLocal(version string) LocalVersionFunc {
	return func(context.Context) (string, error) {
		return version, nil
	}
}

// VersionCache holds the local version once resolved. It starts empty, is set
// at most once, and is never invalidated; create one per process.
type VersionCache struct {
	fetch LocalVersionFunc

	mu       sync.RWMutex
	version  string
	resolved bool

	group singleflight.Group
}

// NewVersionCache returns an empty cache backed by fetch.
func NewVersionCache(fetch LocalVersionFunc) *VersionCache {
	return &VersionCache{fetch: fetch}
}

// Get returns the cached version, resolving it on first use. Callers that
// arrive while a lookup is in flight share its result. A failed lookup is
// returned as-is and not cached, so the next call retries.
func (c *VersionCache) Get(ctx context.Context) (string, error) {
	if v, ok := c.Peek(); ok {
		return v, nil
	}

	v, err, _ := c.group.Do("local", func() (any, error) {
		if v, ok := c.Peek(); ok {
			return v, nil
		}
		if c.fetch == nil {
			return "", appErrors.New(appErrors.CodeFetchFailed, "no local version source configured", nil)
		}
		raw, err := c.fetch(ctx)
		if err != nil {
			return "", appErrors.Wrap(appErrors.CodeFetchFailed, "fetch local version", err)
		}
		version := strings.TrimSpace(raw)
		if version == "" {
			version = Unknown
		}

		c.mu.Lock()
		defer c.mu.Unlock()
		if !c.resolved {
			c.version = version
			c.resolved = true
		}
		return c.version, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Peek reports the cached version without triggering a lookup.
func (c *VersionCache) Peek() (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version, c.resolved
}
