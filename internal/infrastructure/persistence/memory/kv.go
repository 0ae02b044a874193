// Package memory is an in-process KV backend. Data lives as long as the
// process; tests and the "memory" storage driver use it.
package memory

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned by every call after Close.
var ErrClosed = errors.New("memory: store is closed")

// KV keeps values in a map guarded by a RWMutex. Values are copied on the
// way in and out so callers cannot mutate stored bytes.
type KV struct {
	mu     sync.RWMutex
	data   map[string][]byte
	closed bool
}

// New creates an empty KV.
func New() *KV {
	return &KV{data: make(map[string][]byte)}
}

// Get returns a copy of the value under key.
func (kv *KV) Get(_ context.Context, key string) ([]byte, bool, error) {
	kv.mu.RLock()
	defer kv.mu.RUnlock()

	if kv.closed {
		return nil, false, ErrClosed
	}
	v, ok := kv.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

// Set stores a copy of value under key.
func (kv *KV) Set(_ context.Context, key string, value []byte) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()

	if kv.closed {
		return ErrClosed
	}
	kv.data[key] = append([]byte(nil), value...)
	return nil
}

// Delete removes keys; missing keys are ignored.
func (kv *KV) Delete(_ context.Context, keys ...string) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()

	if kv.closed {
		return ErrClosed
	}
	for _, k := range keys {
		delete(kv.data, k)
	}
	return nil
}

// Ping reports ErrClosed after Close.
func (kv *KV) Ping(context.Context) error {
	kv.mu.RLock()
	defer kv.mu.RUnlock()

	if kv.closed {
		return ErrClosed
	}
	return nil
}

// Close drops the data.
func (kv *KV) Close() error {
	kv.mu.Lock()
	defer kv.mu.Unlock()

	kv.closed = true
	kv.data = nil
	return nil
}

// Len returns the number of stored keys.
func (kv *KV) Len() int {
	kv.mu.RLock()
	defer kv.mu.RUnlock()
	return len(kv.data)
}
