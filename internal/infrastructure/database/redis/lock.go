package redis

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/zsx0855/cosco-comprehensive-query/internal/infrastructure/monitoring/logging"
	"github.com/zsx0855/cosco-comprehensive-query/pkg/errors"
)

var (
	ErrLockNotAcquired = errors.New(errors.ErrCodeConflict, "failed to acquire lock")
	ErrLockNotHeld     = errors.New(errors.ErrCodeConflict, "lock not held by this owner")
)

// Mutex is a single-holder redis lock. The batch resolver takes one before
// a run so overlapping workers never truncate and rebuild the verdict
// table at the same time.
type Mutex struct {
	client *Client
	key    string
	value  string
	ttl    time.Duration
	retry  time.Duration
	tries  int
	logger logging.Logger
}

type MutexOption func(*Mutex)

func WithLockTTL(ttl time.Duration) MutexOption {
	return func(m *Mutex) { m.ttl = ttl }
}

func WithRetryDelay(delay time.Duration) MutexOption {
	return func(m *Mutex) { m.retry = delay }
}

func WithRetryCount(count int) MutexOption {
	return func(m *Mutex) { m.tries = count }
}

func NewMutex(client *Client, name string, log logging.Logger, opts ...MutexOption) *Mutex {
	if log == nil {
		log = logging.NewNopLogger()
	}
	m := &Mutex{
		client: client,
		key:    "screen:lock:" + name,
		value:  uuid.New().String(),
		ttl:    30 * time.Second,
		retry:  100 * time.Millisecond,
		tries:  30,
		logger: log,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

var unlockScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	else
		return 0
	end
`)

var extendScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("PEXPIRE", KEYS[1], ARGV[2])
	else
		return 0
	end
`)

// Lock blocks until the mutex is acquired, the retry budget runs out, or
// ctx is cancelled.
func (m *Mutex) Lock(ctx context.Context) error {
	for i := 0; i < m.tries; i++ {
		ok, err := m.TryLock(ctx)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(m.retry):
		}
	}
	return ErrLockNotAcquired
}

func (m *Mutex) TryLock(ctx context.Context) (bool, error) {
	ok, err := m.client.SetNX(ctx, m.key, m.value, m.ttl).Result()
	if err != nil {
		return false, errors.Wrap(err, errors.ErrCodeCacheError, "failed to set lock key")
	}
	return ok, nil
}

// Unlock releases the mutex only when this instance still holds it.
func (m *Mutex) Unlock(ctx context.Context) error {
	res, err := unlockScript.Run(ctx, m.client.rdb, []string{m.key}, m.value).Result()
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "failed to release lock")
	}
	if n, ok := res.(int64); !ok || n == 0 {
		return ErrLockNotHeld
	}
	return nil
}

// Extend renews the TTL while this instance holds the mutex. Long resolver
// runs call it between batches.
func (m *Mutex) Extend(ctx context.Context, ttl time.Duration) (bool, error) {
	res, err := extendScript.Run(ctx, m.client.rdb, []string{m.key}, m.value, ttl.Milliseconds()).Result()
	if err != nil {
		return false, errors.Wrap(err, errors.ErrCodeCacheError, "failed to extend lock")
	}
	n, ok := res.(int64)
	return ok && n == 1, nil
}
