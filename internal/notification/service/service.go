// Package service coordinates notification delivery, the access-request
// workflow, and suggestion visibility gating.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"lineage/internal/audit"
	"lineage/internal/directory"
	"lineage/internal/notification/metrics"
	"lineage/internal/notification/models"
	"lineage/internal/notification/store"
	"lineage/internal/sentinel"
	id "lineage/pkg/domain"
	dErrors "lineage/pkg/domain-errors"
)

// Service owns notification reads and the access-request lifecycle.
// Cross-owner suggestion details are withheld on read unless the recipient
// holds an accepted access request toward the counterpart owner.
type Service struct {
	store    store.Store
	resolver directory.Resolver
	logger   *slog.Logger
	metrics  *metrics.Metrics
	auditor  *audit.Publisher
	now      func() time.Time
}

// Option configures the Service.
type Option func(*Service)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics attaches Prometheus collectors.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithAuditor attaches the audit trail publisher.
func WithAuditor(a *audit.Publisher) Option {
	return func(s *Service) {
		s.auditor = a
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs the notification service.
func New(st store.Store, resolver directory.Resolver, opts ...Option) *Service {
	s := &Service{
		store:    st,
		resolver: resolver,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Publish persists a notification produced by an analysis pass, filling in
// the id and timestamp when the caller left them zero.
func (s *Service) Publish(ctx context.Context, n *models.Notification) error {
	if n == nil || n.RecipientID.IsNil() {
		return dErrors.New(dErrors.CodeInvalidInput, "notification recipient is required")
	}
	if n.ID.IsNil() {
		n.ID = id.NewNotificationID()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = s.now()
	}
	if err := s.store.SaveNotification(ctx, n); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "save notification")
	}
	if s.metrics != nil {
		s.metrics.NotificationsCreated.WithLabelValues(string(n.Kind)).Inc()
	}
	return nil
}

// List returns the recipient's notifications, newest first, with cross-owner
// suggestion details redacted unless access has been granted. Suggestion
// counts stay visible so the recipient knows what a request would unlock.
func (s *Service) List(ctx context.Context, recipientID id.UserID) ([]*models.Notification, error) {
	if recipientID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "recipient id is required")
	}
	start := s.now()
	list, err := s.store.ListByRecipient(ctx, recipientID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list notifications")
	}
	granted := make(map[id.UserID]bool)
	for _, n := range list {
		if n.Kind != models.KindCrossOwnerMatch {
			continue
		}
		for i := range n.Groups {
			group := &n.Groups[i]
			allowed, ok := granted[group.CounterpartOwnerID]
			if !ok {
				allowed = s.accessGranted(ctx, recipientID, group.CounterpartOwnerID)
				granted[group.CounterpartOwnerID] = allowed
			}
			if !allowed && len(group.Suggestions) > 0 {
				group.Suggestions = nil
				if s.metrics != nil {
					s.metrics.SuggestionsRedacted.Inc()
				}
			}
		}
	}
	if s.metrics != nil {
		s.metrics.ListLatency.Observe(s.now().Sub(start).Seconds())
	}
	return list, nil
}

// accessGranted reports whether recipient currently holds an accepted access
// request toward owner. Lookup failures close access rather than opening it.
func (s *Service) accessGranted(ctx context.Context, recipient, owner id.UserID) bool {
	latest, err := s.store.LatestRequestByPair(ctx, recipient, owner)
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			s.logger.Warn("access check failed, withholding details",
				"recipient_id", recipient, "owner_id", owner, "error", err)
		}
		return false
	}
	return latest.Granted()
}

// MarkRead flags a notification as read for its recipient.
func (s *Service) MarkRead(ctx context.Context, recipientID id.UserID, notificationID id.NotificationID) error {
	if recipientID.IsNil() || notificationID.IsNil() {
		return dErrors.New(dErrors.CodeInvalidInput, "recipient and notification ids are required")
	}
	if err := s.store.MarkRead(ctx, recipientID, notificationID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "notification not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "mark notification read")
	}
	if s.metrics != nil {
		s.metrics.NotificationsRead.Inc()
	}
	return nil
}

// RequestAccess opens a pending access request from requester to target and
// notifies the target. A pending or accepted request for the pair blocks a
// new one; a rejected request does not, so the requester may ask again.
func (s *Service) RequestAccess(ctx context.Context, requester, target id.UserID) (*models.AccessRequest, error) {
	latest, err := s.store.LatestRequestByPair(ctx, requester, target)
	switch {
	case err == nil:
		switch latest.Status {
		case models.RequestPending:
			return nil, dErrors.New(dErrors.CodeConflict, "access request already pending")
		case models.RequestAccepted:
			return nil, dErrors.New(dErrors.CodeConflict, "access already granted")
		}
	case errors.Is(err, sentinel.ErrNotFound):
		// First request for this pair.
	default:
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "check existing access request")
	}

	request, err := models.NewAccessRequest(id.NewAccessRequestID(), requester, target, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.store.SaveRequest(ctx, request); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "save access request")
	}
	if s.metrics != nil {
		s.metrics.AccessRequestsCreated.Inc()
	}
	s.audit(ctx, requester, audit.ActionAccessRequested, request.ID.String(), "")

	requesterName := directory.DisplayNameOr(ctx, s.resolver, requester)
	notice := &models.Notification{
		RecipientID: target,
		Kind:        models.KindSuggestionRequest,
		Message:     fmt.Sprintf("%s asked to see the suggestions generated from your family tree", requesterName),
		RequestID:   &request.ID,
	}
	if err := s.Publish(ctx, notice); err != nil {
		// The request stands either way; the target can still answer it.
		s.logger.Error("failed to notify target of access request",
			"request_id", request.ID, "target_id", target, "error", err)
	}
	return request, nil
}

// Respond records the target owner's accept or reject decision. Only the
// request's target may answer, and only once.
func (s *Service) Respond(ctx context.Context, responder id.UserID, requestID id.AccessRequestID, accept bool) (*models.AccessRequest, error) {
	if responder.IsNil() || requestID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "responder and request ids are required")
	}
	request, err := s.store.FindRequest(ctx, requestID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "access request not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "find access request")
	}
	if request.TargetID != responder {
		return nil, dErrors.New(dErrors.CodeForbidden, "only the request target may respond")
	}
	if err := request.Respond(accept, s.now()); err != nil {
		return nil, err
	}
	if err := s.store.UpdateRequest(ctx, request); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "update access request")
	}
	if s.metrics != nil {
		s.metrics.AccessRequestsAnswered.WithLabelValues(string(request.Status)).Inc()
	}
	s.audit(ctx, responder, audit.ActionAccessResponded, request.ID.String(), string(request.Status))
	return request, nil
}

func (s *Service) audit(ctx context.Context, ownerID id.UserID, action audit.Action, subject, outcome string) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.Emit(ctx, audit.Event{
		OwnerID: ownerID,
		Action:  action,
		Subject: subject,
		Outcome: outcome,
	}); err != nil {
		s.logger.Warn("audit emit failed", "action", action, "error", err)
	}
}
