package repository

import (
	"context"
	"sort"
	"sync"

	usagedomain "github.com/smallbiznis/grantgate/internal/usage/domain"
)

type memoryStore struct {
	mu       sync.RWMutex
	counters map[usagedomain.CounterKey]usagedomain.UsageCounter
}

// NewMemory returns a process-local store.
func NewMemory() usagedomain.Store {
	return &memoryStore{counters: make(map[usagedomain.CounterKey]usagedomain.UsageCounter)}
}

func (s *memoryStore) Get(ctx context.Context, key usagedomain.CounterKey) (usagedomain.UsageCounter, bool, error) {
	if err := ctx.Err(); err != nil {
		return usagedomain.UsageCounter{}, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	counter, ok := s.counters[key]
	return counter, ok, nil
}

func (s *memoryStore) Set(ctx context.Context, counter usagedomain.UsageCounter) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters[counter.Key()] = counter
	return nil
}

func (s *memoryStore) ListByUser(ctx context.Context, userID int64) ([]usagedomain.UsageCounter, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]usagedomain.UsageCounter, 0)
	for key, counter := range s.counters {
		if key.UserID == userID {
			out = append(out, counter)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FeatureName < out[j].FeatureName })
	return out, nil
}
