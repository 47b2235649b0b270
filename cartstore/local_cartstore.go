package cartstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// LocalCartStore keeps carts in process memory. It backs the no-Redis
// development mode and the test suites. Update holds the write lock for the
// whole read-modify-write cycle, so unlike the Redis default it is
// serialized per store.
type LocalCartStore struct {
	mu    sync.RWMutex
	store map[string][]byte
}

func NewLocalCartStore() *LocalCartStore {
	return &LocalCartStore{store: make(map[string][]byte)}
}

func (l *LocalCartStore) Initialize(ctx context.Context) error {
	return nil
}

func (l *LocalCartStore) Exists(ctx context.Context, key string) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.store[key]
	return ok, nil
}

func (l *LocalCartStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	val, ok := l.store[key]
	if !ok {
		return nil, false, nil
	}
	cp := make([]byte, len(val))
	copy(cp, val)
	return cp, true, nil
}

func (l *LocalCartStore) Set(ctx context.Context, key string, value []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	cp := make([]byte, len(value))
	copy(cp, value)
	l.store[key] = cp
	return nil
}

func (l *LocalCartStore) Delete(ctx context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.store, key)
	return nil
}

func (l *LocalCartStore) Keys(ctx context.Context) ([]string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	keys := make([]string, 0, len(l.store))
	for k := range l.store {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (l *LocalCartStore) Update(ctx context.Context, key string, fn UpdateFunc) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	current, found := l.store[key]
	next, err := fn(current, found)
	if err != nil || next == nil {
		return err
	}
	cp := make([]byte, len(next))
	copy(cp, next)
	l.store[key] = cp
	return nil
}

func (l *LocalCartStore) FlushAll(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.store = make(map[string][]byte)
	return nil
}

func (l *LocalCartStore) Info(ctx context.Context) (string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return fmt.Sprintf("local cart store, %d keys", len(l.store)), nil
}

func (l *LocalCartStore) Ping(ctx context.Context) bool {
	return true
}
