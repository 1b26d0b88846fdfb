// Package storage provides the key-value capability the account store persists
// into. Values are opaque JSON documents; every backend stores them byte for byte.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrKeyNotFound is returned by Get when nothing has been stored under a key.
var ErrKeyNotFound = errors.New("storage: key not found")

// Storage is a JSON key-value store.
type Storage interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Closer is implemented by backends holding files or connections.
type Closer interface {
	Close() error
}

// GetJSON decodes the value under key into out. found is false when the key
// is missing or holds an empty document, in which case out is untouched.
func GetJSON(ctx context.Context, s Storage, key string, out any) (found bool, err error) {
	raw, err := s.Get(ctx, key)
	if errors.Is(err, ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get %s: %w", key, err)
	}
	if len(raw) == 0 || string(raw) == "null" {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// SetJSON encodes value and stores it under key.
func SetJSON(ctx context.Context, s Storage, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.Set(ctx, key, raw); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// Prefixed namespaces every key of an underlying store.
type Prefixed struct {
	Storage
	Prefix string
}

func (p Prefixed) Get(ctx context.Context, key string) ([]byte, error) {
	return p.Storage.Get(ctx, p.Prefix+key)
}

func (p Prefixed) Set(ctx context.Context, key string, value []byte) error {
	return p.Storage.Set(ctx, p.Prefix+key, value)
}
