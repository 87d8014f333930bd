// Package memory is a non-persistent ledger state for development and tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"walletguru/internal/ledger"
)

type Store struct {
	mu    sync.RWMutex
	items map[string][]byte
}

var _ ledger.State = (*Store)(nil)

func New() *Store {
	return &Store{items: make(map[string][]byte)}
}

func (s *Store) GetState(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.items[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), v...), nil
}

func (s *Store) PutState(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = append([]byte(nil), value...)
	return nil
}

func (s *Store) DeleteState(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, key)
	return nil
}

func (s *Store) GetStateByPartialKey(_ context.Context, prefix string) ([]ledger.KV, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []ledger.KV
	for k, v := range s.items {
		if strings.HasPrefix(k, prefix) {
			out = append(out, ledger.KV{Key: k, Value: append([]byte(nil), v...)})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// Len reports the number of stored entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func (s *Store) Close() error { return nil }
