package repository

import "context"

// KeyValueStore is the persistence adapter backing sessions and task lists.
// Get reports a missing key with found=false and a nil error.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
