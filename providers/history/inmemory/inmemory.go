// Package inmemory is a process-local history.Provider, for tests and for
// runs whose history need not survive a restart.
package inmemory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/leofalp/uigen/providers/history"
)

// Store keeps records in a map guarded by an RWMutex.
type Store struct {
	mu      sync.RWMutex
	records map[string]history.Record
}

var _ history.Provider = (*Store)(nil)

func New() *Store {
	return &Store{records: map[string]history.Record{}}
}

func (s *Store) Save(_ context.Context, record history.Record) error {
	if record.RunID == "" {
		return fmt.Errorf("save run: empty run id")
	}
	s.mu.Lock()
	s.records[record.RunID] = record
	s.mu.Unlock()
	return nil
}

func (s *Store) Get(_ context.Context, runID string) (*history.Record, error) {
	s.mu.RLock()
	record, ok := s.records[runID]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", history.ErrNotFound, runID)
	}
	return &record, nil
}

// List returns matching records newest first, ties broken by run id.
func (s *Store) List(_ context.Context, filter history.Filter) ([]history.Record, error) {
	s.mu.RLock()
	out := make([]history.Record, 0, len(s.records))
	for _, record := range s.records {
		if filter.Matches(record) {
			out = append(out, record)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].RunID < out[j].RunID
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (s *Store) Stats(ctx context.Context) (history.Stats, error) {
	records, err := s.List(ctx, history.Filter{})
	if err != nil {
		return history.Stats{}, err
	}
	return history.ComputeStats(records), nil
}

// Len returns the number of stored runs.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
