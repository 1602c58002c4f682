// Package metadata stores small named values (such as the session token) in
// the local client database.
package metadata

import (
	"context"
)

// Repository is a key/value view over the metadata table.
//
// Get returns (nil, nil) for a missing key. Delete is idempotent.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, keys ...string) error
	Clear(ctx context.Context) error
}
