//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"lineage/internal/notification/models"
	"lineage/internal/notification/store"
	"lineage/internal/sentinel"
	id "lineage/pkg/domain"
	"lineage/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres  *containers.PostgresContainer
	store     *store.PostgresStore
	recipient id.UserID
	other     id.UserID
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.postgres.TruncateAll(ctx))
	s.recipient = s.postgres.CreateTestUser(ctx, s.T())
	s.other = s.postgres.CreateTestUser(ctx, s.T())
}

func (s *PostgresStoreSuite) newNotification(recipient id.UserID, createdAt time.Time) *models.Notification {
	return &models.Notification{
		ID:          id.NewNotificationID(),
		RecipientID: recipient,
		Kind:        models.KindCrossOwnerMatch,
		Message:     "Maria may also appear in 1 other family tree(s)",
		TriggeredBy: models.RecordSummary{ID: id.NewPersonID(), Name: "Maria", Surname: "Costa"},
		CreatedAt:   createdAt,
	}
}

func (s *PostgresStoreSuite) TestNotificationRoundTrip() {
	ctx := context.Background()
	created := time.Date(2025, 2, 10, 9, 30, 0, 0, time.UTC)

	n := s.newNotification(s.recipient, created)
	requestID := id.NewAccessRequestID()
	n.RequestID = &requestID
	related := id.NewPersonID()
	n.RelatedFamilyMembers = []id.PersonID{n.TriggeredBy.ID, related}
	n.Groups = []models.MatchGroup{{
		CounterpartOwnerID:   s.other,
		CounterpartOwnerName: "Bob",
		Matches: []models.Match{{
			RecordID:            n.TriggeredBy.ID,
			CounterpartRecordID: related,
			Score:               0.92,
			MatchedFields:       []string{"name", "surname"},
		}},
		SuggestionCount: 1,
		Suggestions:     []models.SuggestionRef{{ID: id.SuggestionID(uuid.New()), Text: "Add the birth date 1950-03-14"}},
	}}

	s.Require().NoError(s.store.SaveNotification(ctx, n))

	found, err := s.store.FindNotification(ctx, s.recipient, n.ID)
	s.Require().NoError(err)
	s.Equal(n.ID, found.ID)
	s.Equal(models.KindCrossOwnerMatch, found.Kind)
	s.Equal(n.Message, found.Message)
	s.Equal(n.TriggeredBy, found.TriggeredBy)
	s.Equal(n.RelatedFamilyMembers, found.RelatedFamilyMembers)
	s.Require().NotNil(found.RequestID)
	s.Equal(requestID, *found.RequestID)
	s.Require().Len(found.Groups, 1)
	s.Equal(n.Groups[0], found.Groups[0])
	s.False(found.Read)
	s.True(found.CreatedAt.Equal(created))
}

func (s *PostgresStoreSuite) TestListByRecipientNewestFirst() {
	ctx := context.Background()
	base := time.Date(2025, 2, 10, 9, 0, 0, 0, time.UTC)

	oldest := s.newNotification(s.recipient, base)
	newest := s.newNotification(s.recipient, base.Add(2*time.Hour))
	middle := s.newNotification(s.recipient, base.Add(time.Hour))
	foreign := s.newNotification(s.other, base.Add(3*time.Hour))
	for _, n := range []*models.Notification{oldest, newest, middle, foreign} {
		s.Require().NoError(s.store.SaveNotification(ctx, n))
	}

	list, err := s.store.ListByRecipient(ctx, s.recipient)
	s.Require().NoError(err)
	s.Require().Len(list, 3)
	s.Equal(newest.ID, list[0].ID)
	s.Equal(middle.ID, list[1].ID)
	s.Equal(oldest.ID, list[2].ID)
}

func (s *PostgresStoreSuite) TestFindScopedToRecipient() {
	ctx := context.Background()
	n := s.newNotification(s.recipient, time.Now().UTC())
	s.Require().NoError(s.store.SaveNotification(ctx, n))

	_, err := s.store.FindNotification(ctx, s.other, n.ID)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestMarkRead() {
	ctx := context.Background()
	n := s.newNotification(s.recipient, time.Now().UTC())
	s.Require().NoError(s.store.SaveNotification(ctx, n))

	s.Require().NoError(s.store.MarkRead(ctx, s.recipient, n.ID))

	found, err := s.store.FindNotification(ctx, s.recipient, n.ID)
	s.Require().NoError(err)
	s.True(found.Read)

	err = s.store.MarkRead(ctx, s.other, n.ID)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestLatestRequestByPair() {
	ctx := context.Background()
	base := time.Date(2025, 2, 10, 9, 0, 0, 0, time.UTC)

	rejected, err := models.NewAccessRequest(id.NewAccessRequestID(), s.recipient, s.other, base)
	s.Require().NoError(err)
	s.Require().NoError(rejected.Respond(false, base.Add(time.Minute)))
	s.Require().NoError(s.store.SaveRequest(ctx, rejected))

	pending, err := models.NewAccessRequest(id.NewAccessRequestID(), s.recipient, s.other, base.Add(time.Hour))
	s.Require().NoError(err)
	s.Require().NoError(s.store.SaveRequest(ctx, pending))

	latest, err := s.store.LatestRequestByPair(ctx, s.recipient, s.other)
	s.Require().NoError(err)
	s.Equal(pending.ID, latest.ID)
	s.Equal(models.RequestPending, latest.Status)

	// The pair is directional: the reverse orientation has no requests.
	_, err = s.store.LatestRequestByPair(ctx, s.other, s.recipient)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestUpdateRequest() {
	ctx := context.Background()
	created := time.Date(2025, 2, 10, 9, 0, 0, 0, time.UTC)

	request, err := models.NewAccessRequest(id.NewAccessRequestID(), s.recipient, s.other, created)
	s.Require().NoError(err)
	s.Require().NoError(s.store.SaveRequest(ctx, request))

	s.Require().NoError(request.Respond(true, created.Add(time.Minute)))
	s.Require().NoError(s.store.UpdateRequest(ctx, request))

	found, err := s.store.FindRequest(ctx, request.ID)
	s.Require().NoError(err)
	s.Equal(models.RequestAccepted, found.Status)
	s.Require().NotNil(found.RespondedAt)
	s.True(found.RespondedAt.Equal(created.Add(time.Minute)))
}
