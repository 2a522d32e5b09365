package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	id "lineage/pkg/domain"
)

type PublisherSuite struct {
	suite.Suite
	ctx   context.Context
	store *InMemoryStore
}

func TestPublisherSuite(t *testing.T) {
	suite.Run(t, new(PublisherSuite))
}

func (s *PublisherSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = NewInMemoryStore()
}

func (s *PublisherSuite) TestSyncEmitPersistsImmediately() {
	p := NewPublisher(s.store)
	owner := id.NewUserID()

	err := p.Emit(s.ctx, Event{
		OwnerID: owner,
		Action:  ActionAnalysisStarted,
		Subject: "person-1",
	})
	s.Require().NoError(err)

	events, err := p.List(s.ctx, owner)
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal(ActionAnalysisStarted, events[0].Action)
	s.False(events[0].Timestamp.IsZero(), "timestamp defaults to now")
}

func (s *PublisherSuite) TestAsyncEmitDrainsOnClose() {
	p := NewPublisher(s.store, WithAsyncBuffer(16))
	owner := id.NewUserID()

	for range 5 {
		s.Require().NoError(p.Emit(s.ctx, Event{OwnerID: owner, Action: ActionAnalysisCompleted}))
	}
	p.Close()

	events, err := s.store.ListByOwner(s.ctx, owner)
	s.Require().NoError(err)
	s.Len(events, 5)
}

func (s *PublisherSuite) TestAsyncEmitDropsWhenBufferFull() {
	// The background consumer races drop counting, so only assert that Emit
	// never blocks when the buffer is saturated.
	p := NewPublisher(s.store, WithAsyncBuffer(1))
	owner := id.NewUserID()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for range 100 {
			_ = p.Emit(s.ctx, Event{OwnerID: owner, Action: ActionAnalysisStarted})
		}
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		s.Fail("emit blocked on a full buffer")
	}
	p.Close()
}

func (s *PublisherSuite) TestEmitPreservesExplicitTimestamp() {
	p := NewPublisher(s.store)
	owner := id.NewUserID()
	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	s.Require().NoError(p.Emit(s.ctx, Event{OwnerID: owner, Action: ActionAccessRequested, Timestamp: at}))

	events, err := p.List(s.ctx, owner)
	s.Require().NoError(err)
	s.Equal(at, events[0].Timestamp)
}
