// Package store is the on-device key-value persistence used for cached
// reference data, submitted collections and the payment-method side-table.
//
// Every write is an independent Set; there is no atomicity across keys.
package store

import (
	"context"
	"errors"
)

// KV is a flat byte-oriented key-value store
type KV interface {
	// Get returns the value for key. ok is false when the key is absent.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}

// ErrClosed is returned by operations on a closed store
var ErrClosed = errors.New("store: closed")
