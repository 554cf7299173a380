package inventory

import (
	"context"
	"time"
)

// Locker is the distributed lock used to fence manual set-stock requests.
// Satisfied by pkg/cache.RedisClient.
type Locker interface {
	AcquireLock(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key, value string) error
}
