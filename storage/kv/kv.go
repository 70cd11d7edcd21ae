// Package kv provides the small durable key-value store backing the
// portal session: a serialized token pair and a serialized user snapshot.
package kv

import "github.com/pkg/errors"

var ErrNotFound = errors.New("key not found")

type Store interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Delete(keys ...string) error
}
