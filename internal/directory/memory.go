package directory

import (
	"context"
	"sync"

	"lineage/internal/sentinel"
	id "lineage/pkg/domain"
)

// InMemoryResolver resolves names from in-process maps. Tests and the
// databaseless development mode use it.
type InMemoryResolver struct {
	mu      sync.RWMutex
	users   map[id.UserID]string
	persons map[id.PersonID]string
}

// NewInMemory constructs an empty resolver.
func NewInMemory() *InMemoryResolver {
	return &InMemoryResolver{
		users:   make(map[id.UserID]string),
		persons: make(map[id.PersonID]string),
	}
}

// SetUser registers a user's display name.
func (r *InMemoryResolver) SetUser(userID id.UserID, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[userID] = name
}

// SetPerson registers a person's display name.
func (r *InMemoryResolver) SetPerson(personID id.PersonID, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.persons[personID] = name
}

func (r *InMemoryResolver) DisplayName(_ context.Context, userID id.UserID) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	name, ok := r.users[userID]
	if !ok {
		return "", sentinel.ErrNotFound
	}
	return name, nil
}

func (r *InMemoryResolver) PersonName(_ context.Context, personID id.PersonID) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	name, ok := r.persons[personID]
	if !ok {
		return "", sentinel.ErrNotFound
	}
	return name, nil
}
