package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"lineage/internal/directory"
	"lineage/internal/notification/models"
	"lineage/internal/notification/store"
	id "lineage/pkg/domain"
	dErrors "lineage/pkg/domain-errors"
)

type ServiceSuite struct {
	suite.Suite
	ctx     context.Context
	store   *store.InMemoryStore
	users   *directory.InMemoryResolver
	service *Service
	clock   time.Time
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = store.New()
	s.users = directory.NewInMemory()
	s.clock = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	s.service = New(s.store, s.users, WithClock(func() time.Time {
		return s.clock
	}))
}

func (s *ServiceSuite) advance(d time.Duration) {
	s.clock = s.clock.Add(d)
}

func (s *ServiceSuite) crossOwnerNotification(recipient, counterpart id.UserID) *models.Notification {
	return &models.Notification{
		RecipientID: recipient,
		Kind:        models.KindCrossOwnerMatch,
		Message:     "similar records found in another user's tree",
		Groups: []models.MatchGroup{{
			CounterpartOwnerID: counterpart,
			Matches:            []models.Match{{Score: 0.86}},
			SuggestionCount:    2,
			Suggestions: []models.SuggestionRef{
				{ID: id.NewSuggestionID(), Text: "another user's family tree says John Smith is alive"},
				{ID: id.NewSuggestionID(), Text: "another user's family tree has a birth date for John Smith"},
			},
		}},
	}
}

func (s *ServiceSuite) TestPublishAssignsIDAndTimestamp() {
	recipient := id.NewUserID()
	n := &models.Notification{RecipientID: recipient, Kind: models.KindWithinOwnerMatch}
	s.Require().NoError(s.service.Publish(s.ctx, n))
	s.False(n.ID.IsNil())
	s.Equal(s.clock, n.CreatedAt)

	list, err := s.service.List(s.ctx, recipient)
	s.Require().NoError(err)
	s.Len(list, 1)
}

func (s *ServiceSuite) TestPublishRejectsMissingRecipient() {
	err := s.service.Publish(s.ctx, &models.Notification{})
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func (s *ServiceSuite) TestListWithoutGrantHidesSuggestionDetails() {
	recipient := id.NewUserID()
	counterpart := id.NewUserID()
	s.Require().NoError(s.service.Publish(s.ctx, s.crossOwnerNotification(recipient, counterpart)))

	list, err := s.service.List(s.ctx, recipient)
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	group := list[0].Groups[0]
	s.Nil(group.Suggestions, "details must be withheld without an accepted request")
	s.Equal(2, group.SuggestionCount, "the count stays visible")
	s.Len(group.Matches, 1, "match scores are not gated")
}

func (s *ServiceSuite) TestListPendingRequestStillHidesDetails() {
	recipient := id.NewUserID()
	counterpart := id.NewUserID()
	s.Require().NoError(s.service.Publish(s.ctx, s.crossOwnerNotification(recipient, counterpart)))
	_, err := s.service.RequestAccess(s.ctx, recipient, counterpart)
	s.Require().NoError(err)

	list, err := s.service.List(s.ctx, recipient)
	s.Require().NoError(err)
	s.Nil(list[0].Groups[0].Suggestions)
}

func (s *ServiceSuite) TestListAfterAcceptedRequestShowsDetails() {
	recipient := id.NewUserID()
	counterpart := id.NewUserID()
	s.Require().NoError(s.service.Publish(s.ctx, s.crossOwnerNotification(recipient, counterpart)))

	request, err := s.service.RequestAccess(s.ctx, recipient, counterpart)
	s.Require().NoError(err)
	_, err = s.service.Respond(s.ctx, counterpart, request.ID, true)
	s.Require().NoError(err)

	list, err := s.service.List(s.ctx, recipient)
	s.Require().NoError(err)
	s.Len(list[0].Groups[0].Suggestions, 2)
}

func (s *ServiceSuite) TestListGrantIsPerCounterpart() {
	recipient := id.NewUserID()
	granted := id.NewUserID()
	other := id.NewUserID()
	s.Require().NoError(s.service.Publish(s.ctx, s.crossOwnerNotification(recipient, granted)))
	s.Require().NoError(s.service.Publish(s.ctx, s.crossOwnerNotification(recipient, other)))

	request, err := s.service.RequestAccess(s.ctx, recipient, granted)
	s.Require().NoError(err)
	_, err = s.service.Respond(s.ctx, granted, request.ID, true)
	s.Require().NoError(err)

	list, err := s.service.List(s.ctx, recipient)
	s.Require().NoError(err)
	for _, n := range list {
		group := n.Groups[0]
		if group.CounterpartOwnerID == granted {
			s.NotEmpty(group.Suggestions)
		} else {
			s.Nil(group.Suggestions)
		}
	}
}

func (s *ServiceSuite) TestWithinOwnerNotificationsAreNeverRedacted() {
	recipient := id.NewUserID()
	n := &models.Notification{
		RecipientID: recipient,
		Kind:        models.KindWithinOwnerMatch,
		Groups: []models.MatchGroup{{
			CounterpartOwnerID: recipient,
			SuggestionCount:    1,
			Suggestions:        []models.SuggestionRef{{ID: id.NewSuggestionID(), Text: "merge duplicates"}},
		}},
	}
	s.Require().NoError(s.service.Publish(s.ctx, n))

	list, err := s.service.List(s.ctx, recipient)
	s.Require().NoError(err)
	s.Len(list[0].Groups[0].Suggestions, 1)
}

func (s *ServiceSuite) TestMarkRead() {
	recipient := id.NewUserID()
	n := &models.Notification{RecipientID: recipient, Kind: models.KindWithinOwnerMatch}
	s.Require().NoError(s.service.Publish(s.ctx, n))

	s.Require().NoError(s.service.MarkRead(s.ctx, recipient, n.ID))

	list, err := s.service.List(s.ctx, recipient)
	s.Require().NoError(err)
	s.True(list[0].Read)
}

func (s *ServiceSuite) TestMarkReadUnknownNotification() {
	err := s.service.MarkRead(s.ctx, id.NewUserID(), id.NewNotificationID())
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestRequestAccessNotifiesTarget() {
	requester := id.NewUserID()
	target := id.NewUserID()
	s.users.SetUser(requester, "Anna Kovacs")

	request, err := s.service.RequestAccess(s.ctx, requester, target)
	s.Require().NoError(err)
	s.Equal(models.RequestPending, request.Status)

	list, err := s.service.List(s.ctx, target)
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.Equal(models.KindSuggestionRequest, list[0].Kind)
	s.Contains(list[0].Message, "Anna Kovacs")
	s.Require().NotNil(list[0].RequestID)
	s.Equal(request.ID, *list[0].RequestID)
}

func (s *ServiceSuite) TestRequestAccessUnknownRequesterUsesPlaceholder() {
	target := id.NewUserID()
	_, err := s.service.RequestAccess(s.ctx, id.NewUserID(), target)
	s.Require().NoError(err)

	list, err := s.service.List(s.ctx, target)
	s.Require().NoError(err)
	s.Contains(list[0].Message, directory.UnknownUser)
}

func (s *ServiceSuite) TestRequestAccessConflictsWhilePending() {
	requester := id.NewUserID()
	target := id.NewUserID()
	_, err := s.service.RequestAccess(s.ctx, requester, target)
	s.Require().NoError(err)

	_, err = s.service.RequestAccess(s.ctx, requester, target)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *ServiceSuite) TestRequestAccessConflictsWhenGranted() {
	requester := id.NewUserID()
	target := id.NewUserID()
	request, err := s.service.RequestAccess(s.ctx, requester, target)
	s.Require().NoError(err)
	_, err = s.service.Respond(s.ctx, target, request.ID, true)
	s.Require().NoError(err)

	_, err = s.service.RequestAccess(s.ctx, requester, target)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *ServiceSuite) TestRequestAccessAllowedAfterRejection() {
	requester := id.NewUserID()
	target := id.NewUserID()
	request, err := s.service.RequestAccess(s.ctx, requester, target)
	s.Require().NoError(err)
	_, err = s.service.Respond(s.ctx, target, request.ID, false)
	s.Require().NoError(err)

	s.advance(time.Minute)
	second, err := s.service.RequestAccess(s.ctx, requester, target)
	s.Require().NoError(err)
	s.NotEqual(request.ID, second.ID)
	s.Equal(models.RequestPending, second.Status)
}

func (s *ServiceSuite) TestRequestAccessToSelfRejected() {
	owner := id.NewUserID()
	_, err := s.service.RequestAccess(s.ctx, owner, owner)
	s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
}

func (s *ServiceSuite) TestRespondOnlyTargetMayAnswer() {
	requester := id.NewUserID()
	target := id.NewUserID()
	request, err := s.service.RequestAccess(s.ctx, requester, target)
	s.Require().NoError(err)

	_, err = s.service.Respond(s.ctx, requester, request.ID, true)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

	_, err = s.service.Respond(s.ctx, id.NewUserID(), request.ID, true)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
}

func (s *ServiceSuite) TestRespondExactlyOnce() {
	requester := id.NewUserID()
	target := id.NewUserID()
	request, err := s.service.RequestAccess(s.ctx, requester, target)
	s.Require().NoError(err)

	answered, err := s.service.Respond(s.ctx, target, request.ID, false)
	s.Require().NoError(err)
	s.Equal(models.RequestRejected, answered.Status)

	_, err = s.service.Respond(s.ctx, target, request.ID, true)
	s.True(dErrors.HasCode(err, dErrors.CodeAlreadyAnswered))
}

func (s *ServiceSuite) TestRespondUnknownRequest() {
	_, err := s.service.Respond(s.ctx, id.NewUserID(), id.NewAccessRequestID(), true)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}
