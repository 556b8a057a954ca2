// Package broadcast is the shared key/value channel the break coordinator
// writes through. Every write or delete notifies all listeners with the key;
// listeners are expected to re-read rather than trust the notification.
package broadcast

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("key not found")

type Channel interface {
	// Write stores value under key. A ttl of zero keeps it until deleted.
	Write(ctx context.Context, key string, value []byte, ttl time.Duration) error

	Read(ctx context.Context, key string) ([]byte, error)

	// WriteIfAbsent stores value only when key is unset and reports whether
	// it did.
	WriteIfAbsent(ctx context.Context, key string, value []byte) (bool, error)

	Delete(ctx context.Context, key string) error

	// DeleteIfValue deletes key only while it still holds value.
	DeleteIfValue(ctx context.Context, key string, value []byte) (bool, error)

	Keys(ctx context.Context, prefix string) ([]string, error)

	// OnAnyWrite registers fn for every write and delete. The returned func
	// unregisters it.
	OnAnyWrite(fn func(key string)) (unsubscribe func())
}
