// Package store persists whole JSON documents under string keys.
//
// Every operation is a point read or write of a single key. Writes overwrite
// unconditionally and there is no atomicity across keys.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("key not found")
	ErrIO       = errors.New("store io error")
)

type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
	Close() error
}

// GetJSON loads the document under key into v.
func GetJSON(ctx context.Context, s Store, key string, v any) error {
	raw, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: decoding %q: %w", ErrIO, key, err)
	}
	return nil
}

// SetJSON replaces the document under key with the encoding of v.
func SetJSON(ctx context.Context, s Store, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%w: encoding %q: %w", ErrIO, key, err)
	}
	return s.Set(ctx, key, raw)
}

func ioError(op, key string, err error) error {
	return fmt.Errorf("%w: %s %q: %w", ErrIO, op, key, err)
}
