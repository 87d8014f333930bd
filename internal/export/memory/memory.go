// Package memory keeps exported rows in process, for development and tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"walletguru/internal/export"
)

type Store struct {
	mu   sync.Mutex
	rows []export.Row
}

var _ export.Exporter = (*Store)(nil)

func New() *Store {
	return &Store{}
}

// Export stores the row and returns a synthetic row reference.
func (s *Store) Export(_ context.Context, row export.Row) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, row)
	return fmt.Sprintf("mem:%d", len(s.rows)), nil
}

func (s *Store) Rows() []export.Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]export.Row(nil), s.rows...)
}
