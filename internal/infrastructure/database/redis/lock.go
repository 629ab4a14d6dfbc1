package redis

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/turtacn/OceanScout/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/OceanScout/pkg/errors"
)

var (
	ErrLockNotAcquired = errors.New(errors.ErrCodeConflict, "lock is held by another owner")
	ErrLockNotHeld     = errors.New(errors.ErrCodeConflict, "lock is not held by this owner")
)

// Both scripts act only while KEYS[1] still carries the caller's token.
var (
	releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)
	refreshScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0`)
)

const releaseTimeout = 5 * time.Second

type lockConfig struct {
	ttl      time.Duration
	attempts int
	interval time.Duration
}

type LockOption func(*lockConfig)

// WithLockTTL sets the expiry of the lock key.  Locks taken with Acquire are
// refreshed every third of it until released.
func WithLockTTL(ttl time.Duration) LockOption {
	return func(c *lockConfig) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithLockRetry sets how many times Lock tries a taken lock and the pause
// between tries.
func WithLockRetry(attempts int, interval time.Duration) LockOption {
	return func(c *lockConfig) {
		if attempts > 0 {
			c.attempts = attempts
		}
		if interval > 0 {
			c.interval = interval
		}
	}
}

// Mutex is a lock on one Redis key, owned through a random token.
type Mutex struct {
	client *Client
	key    string
	token  string
	cfg    lockConfig
}

// TryLock takes the lock if it is free and never waits.
func (m *Mutex) TryLock(ctx context.Context) (bool, error) {
	rdb, err := m.client.Cmd()
	if err != nil {
		return false, err
	}
	ok, err := rdb.SetNX(ctx, m.key, m.token, m.cfg.ttl).Result()
	if err != nil {
		return false, errors.Wrap(err, errors.ErrCodeCacheError, "redis SETNX failed")
	}
	return ok, nil
}

// Lock retries TryLock until it succeeds, the attempts run out or ctx ends.
func (m *Mutex) Lock(ctx context.Context) error {
	for attempt := 1; ; attempt++ {
		ok, err := m.TryLock(ctx)
		if err != nil || ok {
			return err
		}
		if attempt >= m.cfg.attempts {
			return ErrLockNotAcquired
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(m.cfg.interval):
		}
	}
}

func (m *Mutex) Unlock(ctx context.Context) error {
	n, err := m.run(ctx, releaseScript)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "failed to release lock")
	}
	if n == 0 {
		return ErrLockNotHeld
	}
	return nil
}

// Extend resets the expiry to ttl.  It reports false when the lock has
// expired or passed to another owner.
func (m *Mutex) Extend(ctx context.Context, ttl time.Duration) (bool, error) {
	n, err := m.run(ctx, refreshScript, ttl.Milliseconds())
	if err != nil {
		return false, errors.Wrap(err, errors.ErrCodeCacheError, "failed to extend lock")
	}
	return n == 1, nil
}

func (m *Mutex) run(ctx context.Context, script *redis.Script, args ...interface{}) (int64, error) {
	rdb, err := m.client.Cmd()
	if err != nil {
		return 0, err
	}
	return script.Run(ctx, rdb, []string{m.key}, append([]interface{}{m.token}, args...)...).Int64()
}

// keepAlive extends the lock every third of its TTL until stop is closed or
// the lock is lost.
func (m *Mutex) keepAlive(stop <-chan struct{}, log logging.Logger) {
	every := max(m.cfg.ttl/3, time.Millisecond)
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}
		ctx, cancel := context.WithTimeout(context.Background(), every)
		held, err := m.Extend(ctx, m.cfg.ttl)
		cancel()
		switch {
		case err != nil:
			log.Warn("Failed to refresh lock", logging.String("key", m.key), logging.Err(err))
		case !held:
			log.Warn("Lock lost before release", logging.String("key", m.key))
			return
		}
	}
}

// LockFactory hands out mutexes under a key prefix.
type LockFactory struct {
	client *Client
	prefix string
	log    logging.Logger
	cfg    lockConfig
}

// NewLockFactory returns a factory whose mutexes default to a 30s TTL and
// wait up to 30s for a taken lock.
func NewLockFactory(client *Client, prefix string, log logging.Logger, opts ...LockOption) *LockFactory {
	if log == nil {
		log = logging.NewNopLogger()
	}
	cfg := lockConfig{ttl: 30 * time.Second, attempts: 300, interval: 100 * time.Millisecond}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &LockFactory{client: client, prefix: prefix, log: log, cfg: cfg}
}

// NewMutex returns an unlocked mutex.  Every call gets its own owner token,
// so two mutexes of the same name exclude each other.
func (f *LockFactory) NewMutex(name string, opts ...LockOption) *Mutex {
	cfg := f.cfg
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Mutex{
		client: f.client,
		key:    f.prefix + "lock:" + name,
		token:  uuid.NewString(),
		cfg:    cfg,
	}
}

// Acquire locks name and keeps it alive until the returned release is
// called.  Release is idempotent and runs on a fresh context, so it still
// unlocks after ctx is cancelled.
func (f *LockFactory) Acquire(ctx context.Context, name string) (func(), error) {
	m := f.NewMutex(name)
	if err := m.Lock(ctx); err != nil {
		return nil, err
	}

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		m.keepAlive(stop, f.log)
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			wg.Wait()
			ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
			defer cancel()
			if err := m.Unlock(ctx); err != nil {
				f.log.Warn("Failed to release lock", logging.String("name", name), logging.Err(err))
			}
		})
	}, nil
}
