package modules

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"addonshub-go/internal/addons"
)

const listCacheKey = "cache:native_modules"

// marketplaceLister is the slice of the marketplace client the cache needs.
type marketplaceLister interface {
	ListModules(ctx context.Context) ([]addons.ModuleInfo, error)
}

// ListCache caches the marketplace module list in redis. A nil receiver or
// nil client degrades to a pass-through fetch.
type ListCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	source marketplaceLister
}

func NewListCache(client *redis.Client, prefix string, ttl time.Duration, source marketplaceLister) *ListCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ListCache{client: client, prefix: prefix, ttl: ttl, source: source}
}

// List returns the cached marketplace list, refreshing it on a miss.
func (l *ListCache) List(ctx context.Context) ([]addons.ModuleInfo, error) {
	if l.client != nil {
		data, err := l.client.Get(ctx, l.prefix+listCacheKey).Bytes()
		if err == nil {
			var out []addons.ModuleInfo
			if jsonErr := json.Unmarshal(data, &out); jsonErr == nil {
				return out, nil
			}
			// corrupt entry, refetch below
		} else if err != redis.Nil {
			log.WithError(err).Warn("Module list cache read failed")
		}
	}

	out, err := l.source.ListModules(ctx)
	if err != nil {
		return nil, err
	}
	if l.client != nil {
		if data, err := json.Marshal(out); err == nil {
			if err := l.client.Set(ctx, l.prefix+listCacheKey, data, l.ttl).Err(); err != nil {
				log.WithError(err).Warn("Module list cache write failed")
			}
		}
	}
	return out, nil
}

// Clear drops the cached list. Called after a fresh login so the next
// list reflects the new account.
func (l *ListCache) Clear(ctx context.Context) {
	if l == nil || l.client == nil {
		return
	}
	if err := l.client.Del(ctx, l.prefix+listCacheKey).Err(); err != nil {
		log.WithError(err).Warn("Module list cache clear failed")
	}
}
