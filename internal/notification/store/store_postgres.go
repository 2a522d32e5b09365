package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"lineage/internal/notification/models"
	"lineage/internal/sentinel"
	id "lineage/pkg/domain"
)

// PostgresStore persists notifications and access requests in PostgreSQL.
// Structured payloads ride in a JSONB column so the match groups survive
// schema changes without migrations.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed notification store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// notificationPayload is the JSONB document stored per notification.
type notificationPayload struct {
	Message              string               `json:"message"`
	TriggeredBy          models.RecordSummary `json:"triggered_by"`
	Groups               []models.MatchGroup  `json:"groups,omitempty"`
	RelatedFamilyMembers []uuid.UUID          `json:"related_family_members,omitempty"`
	RequestID            *uuid.UUID           `json:"request_id,omitempty"`
}

func (s *PostgresStore) SaveNotification(ctx context.Context, n *models.Notification) error {
	if n == nil {
		return fmt.Errorf("notification is required")
	}
	payload := notificationPayload{
		Message:     n.Message,
		TriggeredBy: n.TriggeredBy,
		Groups:      n.Groups,
	}
	for _, p := range n.RelatedFamilyMembers {
		payload.RelatedFamilyMembers = append(payload.RelatedFamilyMembers, uuid.UUID(p))
	}
	if n.RequestID != nil {
		u := uuid.UUID(*n.RequestID)
		payload.RequestID = &u
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode notification payload: %w", err)
	}
	query := `
		INSERT INTO notifications (id, recipient_id, kind, payload, read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = s.db.ExecContext(ctx, query,
		uuid.UUID(n.ID), uuid.UUID(n.RecipientID), string(n.Kind), raw, n.Read, n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save notification: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindNotification(ctx context.Context, recipientID id.UserID, notificationID id.NotificationID) (*models.Notification, error) {
	query := `SELECT id, recipient_id, kind, payload, read, created_at
		FROM notifications WHERE id = $1 AND recipient_id = $2`
	n, err := scanNotification(s.db.QueryRowContext(ctx, query, uuid.UUID(notificationID), uuid.UUID(recipientID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find notification: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) ListByRecipient(ctx context.Context, recipientID id.UserID) ([]*models.Notification, error) {
	query := `SELECT id, recipient_id, kind, payload, read, created_at
		FROM notifications WHERE recipient_id = $1 ORDER BY created_at DESC`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(recipientID))
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var out []*models.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notifications: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) MarkRead(ctx context.Context, recipientID id.UserID, notificationID id.NotificationID) error {
	query := `UPDATE notifications SET read = TRUE WHERE id = $1 AND recipient_id = $2`
	res, err := s.db.ExecContext(ctx, query, uuid.UUID(notificationID), uuid.UUID(recipientID))
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) SaveRequest(ctx context.Context, r *models.AccessRequest) error {
	if r == nil {
		return fmt.Errorf("access request is required")
	}
	query := `
		INSERT INTO access_requests (id, requester_id, target_id, status, created_at, responded_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(r.ID), uuid.UUID(r.RequesterID), uuid.UUID(r.TargetID),
		string(r.Status), r.CreatedAt, r.RespondedAt,
	)
	if err != nil {
		return fmt.Errorf("save access request: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindRequest(ctx context.Context, requestID id.AccessRequestID) (*models.AccessRequest, error) {
	query := `SELECT id, requester_id, target_id, status, created_at, responded_at
		FROM access_requests WHERE id = $1`
	r, err := scanRequest(s.db.QueryRowContext(ctx, query, uuid.UUID(requestID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find access request: %w", err)
	}
	return r, nil
}

func (s *PostgresStore) LatestRequestByPair(ctx context.Context, requester, target id.UserID) (*models.AccessRequest, error) {
	query := `SELECT id, requester_id, target_id, status, created_at, responded_at
		FROM access_requests WHERE requester_id = $1 AND target_id = $2
		ORDER BY created_at DESC, id DESC LIMIT 1`
	r, err := scanRequest(s.db.QueryRowContext(ctx, query, uuid.UUID(requester), uuid.UUID(target)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("latest access request: %w", err)
	}
	return r, nil
}

func (s *PostgresStore) UpdateRequest(ctx context.Context, r *models.AccessRequest) error {
	query := `UPDATE access_requests SET status = $2, responded_at = $3 WHERE id = $1`
	res, err := s.db.ExecContext(ctx, query, uuid.UUID(r.ID), string(r.Status), r.RespondedAt)
	if err != nil {
		return fmt.Errorf("update access request: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update access request: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNotification(row rowScanner) (*models.Notification, error) {
	var (
		n                        models.Notification
		notificationID, userUUID uuid.UUID
		kind                     string
		raw                      []byte
	)
	if err := row.Scan(&notificationID, &userUUID, &kind, &raw, &n.Read, &n.CreatedAt); err != nil {
		return nil, err
	}
	var payload notificationPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("decode notification payload: %w", err)
	}
	n.ID = id.NotificationID(notificationID)
	n.RecipientID = id.UserID(userUUID)
	n.Kind = models.Kind(kind)
	n.Message = payload.Message
	n.TriggeredBy = payload.TriggeredBy
	n.Groups = payload.Groups
	for _, u := range payload.RelatedFamilyMembers {
		n.RelatedFamilyMembers = append(n.RelatedFamilyMembers, id.PersonID(u))
	}
	if payload.RequestID != nil {
		rid := id.AccessRequestID(*payload.RequestID)
		n.RequestID = &rid
	}
	return &n, nil
}

func scanRequest(row rowScanner) (*models.AccessRequest, error) {
	var (
		r                  models.AccessRequest
		requestID, reqUUID uuid.UUID
		targetUUID         uuid.UUID
		status             string
	)
	if err := row.Scan(&requestID, &reqUUID, &targetUUID, &status, &r.CreatedAt, &r.RespondedAt); err != nil {
		return nil, err
	}
	r.ID = id.AccessRequestID(requestID)
	r.RequesterID = id.UserID(reqUUID)
	r.TargetID = id.UserID(targetUUID)
	r.Status = models.RequestStatus(status)
	return &r, nil
}
