package idempotency

import "context"

// Store lets checkout deduplicate client retries. A missing store (nil)
// simply disables replay; checkout itself stays correct without it.
type Store interface {
	// TryLock claims the key for the scope. False means another request
	// holds or held it.
	TryLock(ctx context.Context, scope, key string) (bool, error)

	// Remember associates a value with the key for later recall.
	Remember(ctx context.Context, scope, key, value string) error

	// Recall returns the remembered value and whether one exists.
	Recall(ctx context.Context, scope, key string) (string, bool, error)
}
