package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	defaultTTL  = 10 * time.Second
	defaultWait = 5 * time.Second
	pollEvery   = 20 * time.Millisecond
)

// ErrTimeout is returned when the lock could not be obtained within the wait budget.
var ErrTimeout = errors.New("lock wait timed out")

// Release frees a held lock. It is safe to call once.
type Release func(ctx context.Context) error

// Locker serializes work on a named resource.
type Locker interface {
	Acquire(ctx context.Context, name string) (Release, error)
}

// redisStore defines the operations used by Redis.
type redisStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	DelIfValue(ctx context.Context, key, value string) (bool, error)
}

// Redis implements Locker using SET NX with a TTL and an owner token, so a
// crashed holder cannot block a resource for longer than the TTL.
type Redis struct {
	client  redisStore
	keyFunc func(string) string
	ttl     time.Duration
	wait    time.Duration
}

// NewRedis constructs a Redis-backed locker. keyFunc maps a resource name to
// its Redis key.
func NewRedis(client redisStore, keyFunc func(string) string, ttl, wait time.Duration) (*Redis, error) {
	if client == nil {
		return nil, errors.New("redis client required for lock")
	}
	if keyFunc == nil {
		return nil, errors.New("lock key func is required")
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if wait <= 0 {
		wait = defaultWait
	}
	return &Redis{client: client, keyFunc: keyFunc, ttl: ttl, wait: wait}, nil
}

// Acquire polls until the key is owned, the wait budget elapses or ctx ends.
func (l *Redis) Acquire(ctx context.Context, name string) (Release, error) {
	key := l.keyFunc(name)
	owner := uuid.NewString()

	waitCtx, cancel := context.WithTimeout(ctx, l.wait)
	defer cancel()

	ticker := time.NewTicker(pollEvery)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(waitCtx, key, owner, l.ttl)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, fmt.Errorf("setnx %s: %w", key, err)
		}
		if ok {
			return l.release(key, owner), nil
		}

		select {
		case <-waitCtx.Done():
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			return nil, ErrTimeout
		case <-ticker.C:
		}
	}
}

func (l *Redis) release(key, owner string) Release {
	var once sync.Once
	return func(ctx context.Context) error {
		var err error
		once.Do(func() {
			if _, delErr := l.client.DelIfValue(ctx, key, owner); delErr != nil {
				err = fmt.Errorf("release %s: %w", key, delErr)
			}
		})
		return err
	}
}

// Local is an in-process keyed mutex used when no Redis is configured. It
// only coordinates callers inside one process.
type Local struct {
	wait time.Duration

	mu      sync.Mutex
	entries map[string]*localEntry
}

type localEntry struct {
	slot chan struct{}
	refs int
}

// NewLocal returns a keyed mutex with the given wait budget.
func NewLocal(wait time.Duration) *Local {
	if wait <= 0 {
		wait = defaultWait
	}
	return &Local{wait: wait, entries: make(map[string]*localEntry)}
}

// Acquire blocks until name is free, the wait budget elapses or ctx ends.
func (l *Local) Acquire(ctx context.Context, name string) (Release, error) {
	e := l.ref(name)

	timer := time.NewTimer(l.wait)
	defer timer.Stop()

	select {
	case e.slot <- struct{}{}:
	case <-ctx.Done():
		l.unref(name, e)
		return nil, ctx.Err()
	case <-timer.C:
		l.unref(name, e)
		return nil, ErrTimeout
	}

	var once sync.Once
	return func(context.Context) error {
		once.Do(func() {
			<-e.slot
			l.unref(name, e)
		})
		return nil
	}, nil
}

func (l *Local) ref(name string) *localEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[name]
	if !ok {
		e = &localEntry{slot: make(chan struct{}, 1)}
		l.entries[name] = e
	}
	e.refs++
	return e
}

func (l *Local) unref(name string, e *localEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.entries, name)
	}
}
