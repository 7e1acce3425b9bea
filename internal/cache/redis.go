// Package cache provides the optional Redis cache for the admin allow-list.
package cache

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	adminSetKey        = "assistix:admins"
	adminGenerationKey = "assistix:admins:gen"
	DefaultAdminTTL    = 5 * time.Minute
)

// ErrStale is returned by Set when the admin set changed after the caller
// read the generation.
var ErrStale = errors.New("admin set changed while loading")

// Connect dials Redis at addr (host:port or redis:// URL). A connection that
// fails its ping yields a nil client and the service continues without cache.
func Connect(ctx context.Context, addr string, log *slog.Logger) *redis.Client {
	if addr == "" {
		return nil
	}

	var opts *redis.Options
	if strings.Contains(addr, "://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			log.Warn("invalid REDIS_URL, continuing without cache", slog.String("error", err.Error()))
			return nil
		}
		opts = parsed
	} else {
		opts = &redis.Options{Addr: addr}
	}

	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Warn("redis unavailable, continuing without cache", slog.String("error", err.Error()))
		_ = client.Close()
		return nil
	}
	log.Info("redis connected")
	return client
}

// AdminCache caches the store-managed admin ids. A nil client turns every
// call into a miss.
type AdminCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewAdminCache(client *redis.Client, ttl time.Duration) *AdminCache {
	if ttl <= 0 {
		ttl = DefaultAdminTTL
	}
	return &AdminCache{client: client, ttl: ttl}
}

// Get returns the cached ids and whether the cache held a value.
func (c *AdminCache) Get(ctx context.Context) ([]int64, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, adminSetKey).Result()
	if err != nil {
		return nil, false
	}
	if raw == "" {
		return []int64{}, true
	}
	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, false
		}
		ids = append(ids, id)
	}
	return ids, true
}

// Generation returns the current change counter. Read it before loading the
// set from the store and hand it to Set.
func (c *AdminCache) Generation(ctx context.Context) (int64, error) {
	if c == nil || c.client == nil {
		return 0, nil
	}
	return generation(ctx, c.client)
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func generation(ctx context.Context, g getter) (int64, error) {
	gen, err := g.Get(ctx, adminGenerationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// Set stores ids only if no Invalidate ran since gen was read.
func (c *AdminCache) Set(ctx context.Context, gen int64, ids []int64) error {
	if c == nil || c.client == nil {
		return nil
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	value := strings.Join(parts, ",")

	err := c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := generation(ctx, tx)
		if err != nil {
			return err
		}
		if current != gen {
			return ErrStale
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, adminSetKey, value, c.ttl)
			return nil
		})
		return err
	}, adminGenerationKey)
	if errors.Is(err, redis.TxFailedErr) {
		return ErrStale
	}
	return err
}

// Invalidate drops the cached set and bumps the generation so loads that
// started earlier cannot write their result back.
func (c *AdminCache) Invalidate(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, adminGenerationKey)
		pipe.Del(ctx, adminSetKey)
		return nil
	})
	return err
}
