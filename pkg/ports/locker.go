package ports

import (
	"context"
	"time"
)

// UnlockFunc releases a distributed lock.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker extends the in-process single-flight guard across
// replicas: when several engine instances share one subject (or one visit
// store), only one of them may run a pipeline at a time.
type DistributedLocker interface {
	// Lock attempts to acquire the lock for key. It blocks until acquired,
	// the context is canceled, or the TTL expires (implementation
	// specific). The returned UnlockFunc MUST be called to release.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
