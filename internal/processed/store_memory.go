package processed

import (
	"context"
	"sync"

	id "lineage/pkg/domain"
)

type scopeKey struct {
	owner  id.UserID
	person id.PersonID
}

// InMemoryStore keeps marks in memory for tests and databaseless mode.
type InMemoryStore struct {
	mu    sync.RWMutex
	marks map[scopeKey][]Mark
}

// NewInMemoryStore constructs an empty in-memory mark store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{marks: make(map[scopeKey][]Mark)}
}

func (s *InMemoryStore) Append(_ context.Context, mark Mark) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := scopeKey{owner: mark.OwnerID, person: mark.PersonID}
	s.marks[key] = append(s.marks[key], mark)
	return nil
}

func (s *InMemoryStore) ListByScope(_ context.Context, ownerID id.UserID, personID id.PersonID) ([]Mark, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Mark{}, s.marks[scopeKey{owner: ownerID, person: personID}]...), nil
}
