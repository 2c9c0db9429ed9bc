package registry

import (
	"context"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// FrequencyCache is the "symbol-cache frequency counter" spec.md §1 and §6
// name as an external collaborator: incremented after every successful
// insertion, never read by the core itself. Here it is backed by Redis so
// the counter is shared across worker processes, with an in-process
// go-cache layer absorbing bursts of repeated increments for the same
// symbol within a short window before they hit the network.
type FrequencyCache struct {
	rdb   *redis.Client
	burst *gocache.Cache
}

// NewFrequencyCache wraps an existing Redis client. rdb may be nil, in
// which case Bump is a no-op — the core never depends on this cache's
// outcome (spec.md §4.2: "Afterward, the symbol-cache frequency is bumped
// by an external collaborator; the core does not depend on the outcome").
func NewFrequencyCache(rdb *redis.Client) *FrequencyCache {
	return &FrequencyCache{
		rdb:   rdb,
		burst: gocache.New(2*time.Second, 10*time.Second),
	}
}

// Bump records one more hit for symbol. Best-effort: errors are swallowed,
// matching the collaborator contract that insertion never fails because of
// this counter.
func (f *FrequencyCache) Bump(ctx context.Context, symbol string) {
	if f == nil || f.rdb == nil {
		return
	}

	if _, found := f.burst.Get(symbol); found {
		f.burst.IncrementInt(symbol, 1)
		return
	}
	f.burst.Set(symbol, 0, gocache.DefaultExpiration)

	key := "symscore:freq:" + symbol
	f.rdb.Incr(ctx, key)
}

// Flush pushes any burst-absorbed counts to Redis immediately; intended to
// be called periodically or on shutdown so bursts aren't lost if the
// process exits before the burst window expires.
func (f *FrequencyCache) Flush(ctx context.Context) {
	if f == nil || f.rdb == nil {
		return
	}
	for symbol, count := range f.burst.Items() {
		n, ok := count.Object.(int)
		if !ok || n == 0 {
			continue
		}
		key := "symscore:freq:" + symbol
		f.rdb.IncrBy(ctx, key, int64(n))
	}
	f.burst.Flush()
}

// reloadGroup collapses concurrent LiveOverrideStore.Apply calls for the
// same Redis key into one: if ten workers refresh at once, only one of them
// actually reads the override hash from Redis.
var reloadGroup singleflight.Group

// LiveOverrideStore layers a Redis-backed weight override on top of the
// static registry: operators can push `HSET symscore:weights <symbol>
// <value>` to adjust a symbol's weight without a config reload, exactly as
// spec.md §9 anticipates for the "indirectly referenced" weight pointer.
type LiveOverrideStore struct {
	rdb *redis.Client
	key string
}

// NewLiveOverrideStore returns a store reading/writing the given Redis hash
// key. rdb may be nil, in which case Apply is a no-op.
func NewLiveOverrideStore(rdb *redis.Client, key string) *LiveOverrideStore {
	if key == "" {
		key = "symscore:weights"
	}
	return &LiveOverrideStore{rdb: rdb, key: key}
}

// Apply overwrites each symbol's *Weight in reg with any value found in
// Redis, deduplicating concurrent refreshes via reloadGroup.
func (s *LiveOverrideStore) Apply(ctx context.Context, reg *Registry) error {
	if s == nil || s.rdb == nil {
		return nil
	}

	_, err, _ := reloadGroup.Do(s.key, func() (any, error) {
		overrides, err := s.rdb.HGetAll(ctx, s.key).Result()
		if err != nil {
			return nil, err
		}
		reg.mu.RLock()
		defer reg.mu.RUnlock()
		for name, raw := range overrides {
			def, ok := reg.symbols[name]
			if !ok {
				continue
			}
			var v float64
			if _, err := fmt.Sscan(raw, &v); err == nil {
				*def.Weight = v
			}
		}
		return nil, nil
	})
	return err
}
