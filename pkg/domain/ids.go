// Package domain provides type-safe identifiers to prevent mixing up IDs at compile time.
package domain

import (
	"github.com/google/uuid"

	dErrors "lineage/pkg/domain-errors"
)

// Distinct ID types - compiler prevents passing a UserID where a PersonID is expected.
type (
	UserID          uuid.UUID
	PersonID        uuid.UUID
	NotificationID  uuid.UUID
	AccessRequestID uuid.UUID
	SuggestionID    uuid.UUID
)

// Parse functions - use at trust boundaries (handlers, API inputs).

func ParseUserID(s string) (UserID, error) {
	id, err := parseUUID(s, "user ID")
	return UserID(id), err
}

func ParsePersonID(s string) (PersonID, error) {
	id, err := parseUUID(s, "person ID")
	return PersonID(id), err
}

func ParseNotificationID(s string) (NotificationID, error) {
	id, err := parseUUID(s, "notification ID")
	return NotificationID(id), err
}

func ParseAccessRequestID(s string) (AccessRequestID, error) {
	id, err := parseUUID(s, "access request ID")
	return AccessRequestID(id), err
}

func ParseSuggestionID(s string) (SuggestionID, error) {
	id, err := parseUUID(s, "suggestion ID")
	return SuggestionID(id), err
}

// New functions - generate fresh identifiers.

func NewUserID() UserID                   { return UserID(uuid.New()) }
func NewPersonID() PersonID               { return PersonID(uuid.New()) }
func NewNotificationID() NotificationID   { return NotificationID(uuid.New()) }
func NewAccessRequestID() AccessRequestID { return AccessRequestID(uuid.New()) }
func NewSuggestionID() SuggestionID       { return SuggestionID(uuid.New()) }

// Text marshalling - named types do not inherit uuid.UUID's methods, so without
// these the IDs would encode as raw byte arrays in JSON payloads.

func (id UserID) MarshalText() ([]byte, error)          { return uuid.UUID(id).MarshalText() }
func (id PersonID) MarshalText() ([]byte, error)        { return uuid.UUID(id).MarshalText() }
func (id NotificationID) MarshalText() ([]byte, error)  { return uuid.UUID(id).MarshalText() }
func (id AccessRequestID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id SuggestionID) MarshalText() ([]byte, error)    { return uuid.UUID(id).MarshalText() }

func (id *UserID) UnmarshalText(b []byte) error          { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *PersonID) UnmarshalText(b []byte) error        { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *NotificationID) UnmarshalText(b []byte) error  { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *AccessRequestID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *SuggestionID) UnmarshalText(b []byte) error    { return (*uuid.UUID)(id).UnmarshalText(b) }

// String methods - for logging and debugging.

func (id UserID) String() string          { return uuid.UUID(id).String() }
func (id PersonID) String() string        { return uuid.UUID(id).String() }
func (id NotificationID) String() string  { return uuid.UUID(id).String() }
func (id AccessRequestID) String() string { return uuid.UUID(id).String() }
func (id SuggestionID) String() string    { return uuid.UUID(id).String() }

// IsNil checks - use for invariant validation.

func (id UserID) IsNil() bool          { return uuid.UUID(id) == uuid.Nil }
func (id PersonID) IsNil() bool        { return uuid.UUID(id) == uuid.Nil }
func (id NotificationID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id AccessRequestID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id SuggestionID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func parseUUID(s, label string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be empty")
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label)
	}
	return id, nil
}
