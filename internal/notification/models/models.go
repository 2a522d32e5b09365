package models

import (
	"time"

	id "lineage/pkg/domain"
	dErrors "lineage/pkg/domain-errors"
)

// Kind classifies a notification.
type Kind string

const (
	// KindWithinOwnerMatch reports similar records inside one owner's tree.
	KindWithinOwnerMatch Kind = "within_owner_match"
	// KindCrossOwnerMatch reports matches against other owners' records.
	KindCrossOwnerMatch Kind = "cross_owner_match"
	// KindSuggestionRequest tells an owner someone wants to see their
	// suggestion details.
	KindSuggestionRequest Kind = "suggestion_request"
)

// RecordSummary captures the identifying fields of a person record at
// notification creation time. The referenced id may dangle later; readers
// must not assume it still resolves.
type RecordSummary struct {
	ID      id.PersonID `json:"id"`
	Name    string      `json:"name"`
	Surname string      `json:"surname,omitempty"`
}

// Match is one similar record pair inside a notification payload.
type Match struct {
	RecordID            id.PersonID `json:"record_id"`
	CounterpartRecordID id.PersonID `json:"counterpart_record_id"`
	Score               float64     `json:"score"`
	MatchedFields       []string    `json:"matched_fields,omitempty"`
}

// SuggestionRef pairs a stable suggestion id with its rendered text so the
// UI can mark suggestions processed without re-deriving ids.
type SuggestionRef struct {
	ID   id.SuggestionID `json:"id"`
	Text string          `json:"text"`
}

// MatchGroup aggregates all matches against a single counterpart owner.
// SuggestionCount is always visible; Suggestions is subject to access
// gating and stripped for requesters without an accepted access request.
type MatchGroup struct {
	CounterpartOwnerID   id.UserID       `json:"counterpart_owner_id"`
	CounterpartOwnerName string          `json:"counterpart_owner_name"`
	Matches              []Match         `json:"matches"`
	SuggestionCount      int             `json:"suggestion_count"`
	Suggestions          []SuggestionRef `json:"suggestions,omitempty"`
}

// Notification is the persisted document fanned out to owners after an
// analysis pass.
type Notification struct {
	ID          id.NotificationID
	RecipientID id.UserID
	Kind        Kind
	Message     string
	TriggeredBy RecordSummary
	Groups      []MatchGroup
	// RelatedFamilyMembers lists every record id referenced by the payload.
	// The ids existed at creation time; they are not guaranteed to resolve
	// at read time.
	RelatedFamilyMembers []id.PersonID
	// RequestID links suggestion_request notifications to their workflow record.
	RequestID *id.AccessRequestID
	Read      bool
	CreatedAt time.Time
}

// RequestStatus is the lifecycle state of an access request.
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestAccepted RequestStatus = "accepted"
	RequestRejected RequestStatus = "rejected"
)

// IsValid reports whether the status is one of the known values.
func (s RequestStatus) IsValid() bool {
	switch s {
	case RequestPending, RequestAccepted, RequestRejected:
		return true
	}
	return false
}

// AccessRequest is one owner's request to see another owner's suggestion
// details. It transitions pending to accepted or rejected exactly once;
// a fresh request for the same pair is allowed only after a rejection.
type AccessRequest struct {
	ID          id.AccessRequestID
	RequesterID id.UserID
	TargetID    id.UserID
	Status      RequestStatus
	CreatedAt   time.Time
	RespondedAt *time.Time
}

// NewAccessRequest creates a pending request with domain invariant checks.
func NewAccessRequest(requestID id.AccessRequestID, requester, target id.UserID, createdAt time.Time) (*AccessRequest, error) {
	if requestID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "request ID required")
	}
	if requester.IsNil() || target.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "requester and target IDs required")
	}
	if requester == target {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "cannot request access to own suggestions")
	}
	return &AccessRequest{
		ID:          requestID,
		RequesterID: requester,
		TargetID:    target,
		Status:      RequestPending,
		CreatedAt:   createdAt,
	}, nil
}

// Respond applies the accept/reject decision. Only a pending request can be
// answered; answering twice fails.
func (r *AccessRequest) Respond(accept bool, at time.Time) error {
	if r.Status != RequestPending {
		return dErrors.New(dErrors.CodeAlreadyAnswered, "access request already answered")
	}
	if accept {
		r.Status = RequestAccepted
	} else {
		r.Status = RequestRejected
	}
	r.RespondedAt = &at
	return nil
}

// Granted reports whether the request currently grants detail visibility.
func (r *AccessRequest) Granted() bool {
	return r != nil && r.Status == RequestAccepted
}
