package scheduler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Lease grants at most one holder per key for ttl.
type Lease interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// RedisLease uses SET NX PX so that, across replicas sharing one Redis,
// only the first to reach a tick runs the job. The lease is left to expire
// rather than released, which also covers replicas whose tickers are a few
// milliseconds apart.
type RedisLease struct {
	client *redis.Client
	owner  string
}

// NewRedisLease returns a lease tagged with a random owner id.
func NewRedisLease(client *redis.Client) *RedisLease {
	return &RedisLease{client: client, owner: uuid.NewString()}
}

// Acquire reports whether this process now holds key.
func (l *RedisLease) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return l.client.SetNX(ctx, key, l.owner, ttl).Result()
}

// LocalLease always grants the lease. It is used when Redis is not
// configured, i.e. for single-replica deployments.
type LocalLease struct{}

// Acquire always succeeds.
func (LocalLease) Acquire(context.Context, string, time.Duration) (bool, error) { return true, nil }
