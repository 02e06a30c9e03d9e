package lock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	dErrors "complytrack/pkg/domain-errors"
)

const (
	defaultTTL        = 10 * time.Second
	defaultRetryDelay = 25 * time.Millisecond
	defaultMaxWait    = 5 * time.Second
	keyPrefix         = "complytrack:lock:"
)

// releaseScript deletes the key only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis is a lease lock shared by every node using the same Redis. Leases
// expire after the TTL so a crashed holder cannot block an item forever.
type Redis struct {
	client     redis.UniversalClient
	ttl        time.Duration
	retryDelay time.Duration
	maxWait    time.Duration
	logger     *slog.Logger
}

type RedisOption func(*Redis)

func WithTTL(d time.Duration) RedisOption {
	return func(r *Redis) { r.ttl = d }
}

func WithRetryDelay(d time.Duration) RedisOption {
	return func(r *Redis) { r.retryDelay = d }
}

// WithMaxWait bounds how long Lock keeps retrying when ctx has no deadline.
func WithMaxWait(d time.Duration) RedisOption {
	return func(r *Redis) { r.maxWait = d }
}

func WithLogger(logger *slog.Logger) RedisOption {
	return func(r *Redis) { r.logger = logger }
}

func NewRedis(client redis.UniversalClient, opts ...RedisOption) *Redis {
	r := &Redis{
		client:     client,
		ttl:        defaultTTL,
		retryDelay: defaultRetryDelay,
		maxWait:    defaultMaxWait,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Redis) Lock(ctx context.Context, key string) (Unlock, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.maxWait)
		defer cancel()
	}
	redisKey := keyPrefix + key
	token := uuid.NewString()

	ticker := time.NewTicker(r.retryDelay)
	defer ticker.Stop()
	for {
		ok, err := r.client.SetNX(ctx, redisKey, token, r.ttl).Result()
		if err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
			return nil, dErrors.Wrap(fmt.Errorf("acquire lock: %w", err), dErrors.CodeUnavailable, "lock service unavailable").WithEntity(key)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, dErrors.Wrap(ctx.Err(), dErrors.CodeTimeout, "timed out waiting for item lock").WithEntity(key)
		case <-ticker.C:
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			if err := releaseScript.Run(releaseCtx, r.client, []string{redisKey}, token).Err(); err != nil {
				r.logger.Warn("failed to release item lock", "key", key, "error", err)
			}
		})
	}, nil
}
