package resilience

import "sync"

// historyStore keeps attempt trails of failed operations, bounded by a fixed
// entry limit with oldest-key eviction. Operation ids are caller-chosen, so
// an unbounded map here would leak in long-running processes.
type historyStore struct {
	mu      sync.Mutex
	limit   int
	entries map[string][]RetryAttempt
	order   []string
}

func newHistoryStore(limit int) *historyStore {
	return &historyStore{
		limit:   limit,
		entries: make(map[string][]RetryAttempt),
	}
}

func (s *historyStore) put(operation string, attempts []RetryAttempt) {
	if len(attempts) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[operation]; !exists {
		s.order = append(s.order, operation)
	}
	s.entries[operation] = attempts

	for len(s.order) > s.limit {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.entries, oldest)
	}
}

func (s *historyStore) get(operation string) []RetryAttempt {
	s.mu.Lock()
	defer s.mu.Unlock()

	attempts, ok := s.entries[operation]
	if !ok {
		return nil
	}
	out := make([]RetryAttempt, len(attempts))
	copy(out, attempts)
	return out
}

func (s *historyStore) delete(operation string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[operation]; !ok {
		return
	}
	delete(s.entries, operation)
	for i, key := range s.order {
		if key == operation {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}
