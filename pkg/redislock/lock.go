// Package redislock provides a single-holder lease on a Redis key.
package redislock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrNotHeld is returned by Release when the lease expired or belongs to someone else.
var ErrNotHeld = errors.New("lock not held")

const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`

type Locker struct {
	client redis.Cmdable
	owner  func() string
}

func New(client redis.Cmdable) *Locker {
	return &Locker{
		client: client,
		owner:  func() string { return uuid.NewString() },
	}
}

// Lease is a held lock. Release it when the guarded work is done.
type Lease struct {
	locker *Locker
	key    string
	token  string
}

// Acquire tries once to take key for ttl. ok is false when another holder has it.
func (l *Locker) Acquire(ctx context.Context, key string, ttl time.Duration) (*Lease, bool, error) {
	token := l.owner()
	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("acquire lock %s: %w", key, err)
	}
	if !ok {
		return nil, false, nil
	}
	return &Lease{locker: l, key: key, token: token}, true, nil
}

// Release deletes the key only if this lease still owns it.
func (le *Lease) Release(ctx context.Context) error {
	n, err := le.locker.client.Eval(ctx, releaseScript, []string{le.key}, le.token).Int64()
	if err != nil {
		return fmt.Errorf("release lock %s: %w", le.key, err)
	}
	if n == 0 {
		return ErrNotHeld
	}
	return nil
}
