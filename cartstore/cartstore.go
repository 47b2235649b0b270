// Package cartstore abstracts the key-value backend used for cart
// persistence. Values are opaque bytes; one key per user.
package cartstore

import "context"

// UpdateFunc transforms the current value of a key during a
// read-modify-write cycle. found is false when the key does not exist.
// Returning nil bytes with a nil error leaves the key untouched.
type UpdateFunc func(current []byte, found bool) ([]byte, error)

// CartStore is the persistence contract for carts.
type CartStore interface {
	Initialize(ctx context.Context) error

	Exists(ctx context.Context, key string) (bool, error)
	// Get returns the stored bytes and whether the key exists.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes the key; deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)

	// Update runs a read-modify-write cycle against a single key. The
	// default strategy is plain get-then-set, which is last-write-wins
	// under contention; implementations may offer an optimistic variant.
	Update(ctx context.Context, key string, fn UpdateFunc) error

	// FlushAll drops every key. Used only by the demo seed path.
	FlushAll(ctx context.Context) error

	Info(ctx context.Context) (string, error)
	Ping(ctx context.Context) bool
}
