package store

import (
	"context"
	"sync"
	"time"

	"lineage/internal/person/models"
	"lineage/internal/sentinel"
	id "lineage/pkg/domain"
)

// InMemoryStore keeps person records in memory. It backs tests and the
// databaseless development mode.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[id.PersonID]*models.Record
}

// New constructs an empty in-memory person store.
func New() *InMemoryStore {
	return &InMemoryStore{records: make(map[id.PersonID]*models.Record)}
}

func (s *InMemoryStore) Save(_ context.Context, record *models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := record.Clone()
	if existing, ok := s.records[record.ID]; ok {
		cp.CreatedAt = existing.CreatedAt
	} else if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	cp.UpdatedAt = time.Now()
	s.records[record.ID] = cp
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, personID id.PersonID) (*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[personID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return record.Clone(), nil
}

func (s *InMemoryStore) ListByOwner(_ context.Context, ownerID id.UserID, excludeID *id.PersonID) ([]*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Record
	for _, record := range s.records {
		if record.OwnerID != ownerID {
			continue
		}
		if excludeID != nil && record.ID == *excludeID {
			continue
		}
		out = append(out, record.Clone())
	}
	return out, nil
}

func (s *InMemoryStore) ListGroupedByOwner(_ context.Context, excludeOwner id.UserID) (map[id.UserID][]*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	grouped := make(map[id.UserID][]*models.Record)
	for _, record := range s.records {
		if record.OwnerID == excludeOwner {
			continue
		}
		grouped[record.OwnerID] = append(grouped[record.OwnerID], record.Clone())
	}
	return grouped, nil
}

func (s *InMemoryStore) ChildrenOf(_ context.Context, ownerID id.UserID, parentID id.PersonID) ([]*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Record
	for _, record := range s.records {
		if record.OwnerID != ownerID {
			continue
		}
		if (record.FatherID != nil && *record.FatherID == parentID) ||
			(record.MotherID != nil && *record.MotherID == parentID) {
			out = append(out, record.Clone())
		}
	}
	return out, nil
}

func (s *InMemoryStore) EarliestByOwner(_ context.Context, ownerID id.UserID) (*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var earliest *models.Record
	for _, record := range s.records {
		if record.OwnerID != ownerID {
			continue
		}
		if earliest == nil || record.CreatedAt.Before(earliest.CreatedAt) {
			earliest = record
		}
	}
	if earliest == nil {
		return nil, sentinel.ErrNotFound
	}
	return earliest.Clone(), nil
}

// Delete removes a record. Only used by tests to simulate dangling references.
func (s *InMemoryStore) Delete(_ context.Context, personID id.PersonID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, personID)
	return nil
}
