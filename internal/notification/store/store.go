package store

import (
	"context"

	"lineage/internal/notification/models"
	id "lineage/pkg/domain"
)

// Store is the persistence boundary for notifications and access requests.
//
// Error Contract:
// - Find and MarkRead methods return sentinel.ErrNotFound for unknown ids
// - LatestRequestByPair returns sentinel.ErrNotFound when the pair has no history
// - Other methods return nil on success or wrapped errors on infrastructure failure
type Store interface {
	SaveNotification(ctx context.Context, n *models.Notification) error
	FindNotification(ctx context.Context, recipientID id.UserID, notificationID id.NotificationID) (*models.Notification, error)
	ListByRecipient(ctx context.Context, recipientID id.UserID) ([]*models.Notification, error)
	MarkRead(ctx context.Context, recipientID id.UserID, notificationID id.NotificationID) error

	SaveRequest(ctx context.Context, r *models.AccessRequest) error
	FindRequest(ctx context.Context, requestID id.AccessRequestID) (*models.AccessRequest, error)
	// LatestRequestByPair returns the most recent request from requester to
	// target. Rejected history stays behind it so a re-request is possible.
	LatestRequestByPair(ctx context.Context, requester, target id.UserID) (*models.AccessRequest, error)
	UpdateRequest(ctx context.Context, r *models.AccessRequest) error
}
