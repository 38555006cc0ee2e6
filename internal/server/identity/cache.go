package identity

import (
	"context"
	"strings"

	"github.com/simplegameutils/sgu/internal/logging"
)

// Cache stores resolved identities keyed by display name.
type Cache interface {
	Get(ctx context.Context, displayName string) (string, bool, error)
	Set(ctx context.Context, displayName, externalID string) error
}

// CachedResolver consults the cache before the wrapped resolver. Cache
// failures are logged and otherwise ignored.
type CachedResolver struct {
	next  Resolver
	cache Cache
	log   logging.Logger
}

func NewCachedResolver(next Resolver, cache Cache, log logging.Logger) *CachedResolver {
	return &CachedResolver{next: next, cache: cache, log: log.With("module", "identity")}
}

func (r *CachedResolver) Resolve(ctx context.Context, displayName string) (string, error) {
	id, ok, err := r.cache.Get(ctx, displayName)
	if err != nil {
		r.log.Warn(ctx, "identity cache read failed", "error", err)
	}
	if ok {
		return id, nil
	}
	return r.fetch(ctx, displayName)
}

// fetch asks the wrapped resolver and overwrites the cached entry.
func (r *CachedResolver) fetch(ctx context.Context, displayName string) (string, error) {
	id, err := r.next.Resolve(ctx, displayName)
	if err != nil {
		return "", err
	}

	if err := r.cache.Set(ctx, displayName, id); err != nil {
		r.log.Warn(ctx, "identity cache write failed", "error", err)
	}
	return id, nil
}

// ResolveFresh resolves displayName skipping any cache in front of r. A name
// can change hands in game while the cache still maps it to the previous
// holder, so lookups that rebind a name must not trust the cache.
func ResolveFresh(ctx context.Context, r Resolver, displayName string) (string, error) {
	if c, ok := r.(*CachedResolver); ok {
		return c.fetch(ctx, displayName)
	}
	return r.Resolve(ctx, displayName)
}

func cacheKey(displayName string) string {
	return "sgu:identity:" + strings.ToLower(displayName)
}
