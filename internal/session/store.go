// Package session holds the persisted identity of a signed-in client and
// answers permission questions against it.
package session

import (
	"context"
	"errors"
)

// Keys under which a session is persisted.
const (
	KeyToken = "token"
	KeyUser  = "user"
)

var ErrNotFound = errors.New("session: key not found")

// Store is the key-value persistence behind a Binder. Get returns ErrNotFound
// for absent keys.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}
