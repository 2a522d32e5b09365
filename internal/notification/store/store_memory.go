package store

import (
	"context"
	"sort"
	"sync"

	"lineage/internal/notification/models"
	"lineage/internal/sentinel"
	id "lineage/pkg/domain"
)

// InMemoryStore keeps notifications and access requests in memory for tests
// and the databaseless development mode.
type InMemoryStore struct {
	mu            sync.RWMutex
	notifications map[id.UserID][]*models.Notification
	requests      map[id.AccessRequestID]*models.AccessRequest
}

// New constructs an empty in-memory store.
func New() *InMemoryStore {
	return &InMemoryStore{
		notifications: make(map[id.UserID][]*models.Notification),
		requests:      make(map[id.AccessRequestID]*models.AccessRequest),
	}
}

func (s *InMemoryStore) SaveNotification(_ context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := cloneNotification(n)
	s.notifications[n.RecipientID] = append(s.notifications[n.RecipientID], cp)
	return nil
}

func (s *InMemoryStore) FindNotification(_ context.Context, recipientID id.UserID, notificationID id.NotificationID) (*models.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, n := range s.notifications[recipientID] {
		if n.ID == notificationID {
			return cloneNotification(n), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) ListByRecipient(_ context.Context, recipientID id.UserID) ([]*models.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := s.notifications[recipientID]
	out := make([]*models.Notification, 0, len(list))
	for _, n := range list {
		out = append(out, cloneNotification(n))
	}
	// Newest first, matching the postgres ordering.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *InMemoryStore) MarkRead(_ context.Context, recipientID id.UserID, notificationID id.NotificationID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.notifications[recipientID] {
		if n.ID == notificationID {
			n.Read = true
			return nil
		}
	}
	return sentinel.ErrNotFound
}

func (s *InMemoryStore) SaveRequest(_ context.Context, r *models.AccessRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *r
	s.requests[r.ID] = &cp
	return nil
}

func (s *InMemoryStore) FindRequest(_ context.Context, requestID id.AccessRequestID) (*models.AccessRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.requests[requestID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *InMemoryStore) LatestRequestByPair(_ context.Context, requester, target id.UserID) (*models.AccessRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var latest *models.AccessRequest
	for _, r := range s.requests {
		if r.RequesterID != requester || r.TargetID != target {
			continue
		}
		// Ties on CreatedAt break on id so equal timestamps do not leave
		// the winner to map iteration order.
		if latest == nil || r.CreatedAt.After(latest.CreatedAt) ||
			(r.CreatedAt.Equal(latest.CreatedAt) && r.ID.String() > latest.ID.String()) {
			latest = r
		}
	}
	if latest == nil {
		return nil, sentinel.ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

func (s *InMemoryStore) UpdateRequest(_ context.Context, r *models.AccessRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.requests[r.ID]; !ok {
		return sentinel.ErrNotFound
	}
	cp := *r
	s.requests[r.ID] = &cp
	return nil
}

func cloneNotification(n *models.Notification) *models.Notification {
	cp := *n
	cp.Groups = make([]models.MatchGroup, len(n.Groups))
	for i, g := range n.Groups {
		gc := g
		gc.Matches = append([]models.Match(nil), g.Matches...)
		gc.Suggestions = append([]models.SuggestionRef(nil), g.Suggestions...)
		cp.Groups[i] = gc
	}
	cp.RelatedFamilyMembers = append([]id.PersonID(nil), n.RelatedFamilyMembers...)
	if n.RequestID != nil {
		rid := *n.RequestID
		cp.RequestID = &rid
	}
	return &cp
}
