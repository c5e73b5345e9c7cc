package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis shares counters between instances. Each window gets its own key,
// created by INCR and expired once the window is over.
type Redis struct {
	client redis.Cmdable
	limit  int
	per    time.Duration
	prefix string
	now    func() time.Time
}

func NewRedis(client redis.Cmdable, limit int, per time.Duration) *Redis {
	return &Redis{
		client: client,
		limit:  limit,
		per:    per,
		prefix: "ratelimit:",
		now:    time.Now,
	}
}

func (r *Redis) Allow(ctx context.Context, key string) (Decision, error) {
	start := r.now().Truncate(r.per)
	redisKey := r.prefix + key + ":" + strconv.FormatInt(start.Unix(), 10)

	var incr *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.Incr(ctx, redisKey)
		p.Expire(ctx, redisKey, r.per+time.Second)
		return nil
	})
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit incr: %w", err)
	}

	count := int(incr.Val())
	d := Decision{Limit: r.limit, ResetAt: start.Add(r.per)}
	if count > r.limit {
		return d, nil
	}
	d.Allowed = true
	d.Remaining = r.limit - count
	return d, nil
}

// NewRedisClient parses a redis:// URL and checks the server is reachable.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}
