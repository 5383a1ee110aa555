package ports

import (
	"context"
	"time"
)

// DistributedLocker serializes turns for one session across process
// boundaries. Optional: the session manager falls back to local mutexes
// when no locker is configured.
type DistributedLocker interface {
	// Lock acquires the lock for key, expiring after ttl if not released.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
