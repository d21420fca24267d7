package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/Skotchmaster/electro_shop/internal/logging"
)

var ErrNotAcquired = errors.New("lock not acquired")

var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker holds keys across processes with SET NX PX. The TTL bounds how long
// a crashed holder can block others. The TTL is not renewed: a holder that runs
// longer than TTL loses mutual exclusion, and its unlock then becomes a no-op.
type RedisLocker struct {
	Client *redis.Client
	Prefix string
	TTL    time.Duration
	Retry  time.Duration
}

func NewRedisLocker(client *redis.Client) *RedisLocker {
	return &RedisLocker{
		Client: client,
		Prefix: "lock:",
		TTL:    10 * time.Second,
		Retry:  25 * time.Millisecond,
	}
}

func (r *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	k := r.Prefix + key
	token := uuid.NewString()

	for {
		ok, err := r.Client.SetNX(ctx, k, token, r.TTL).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire %s: %w", k, err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s: %w", ErrNotAcquired, k, ctx.Err())
		case <-time.After(r.Retry):
		}
	}

	l := logging.FromContext(ctx)
	return func() {
		uctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		released, err := unlockScript.Run(uctx, r.Client, []string{k}, token).Int()
		if err != nil {
			l.Error("lock_release_failed", "key", k, "error", err)
			return
		}
		if released == 0 {
			l.Warn("lock_expired_before_release", "key", k, "ttl", r.TTL)
		}
	}, nil
}
