package models

import (
	"strings"
	"time"

	id "lineage/pkg/domain"
)

// Status describes whether a person is known to be alive or dead.
type Status string

const (
	StatusAlive   Status = "alive"
	StatusDead    Status = "dead"
	StatusUnknown Status = "unknown"
)

// IsValid reports whether the status is one of the known values.
func (s Status) IsValid() bool {
	switch s {
	case StatusAlive, StatusDead, StatusUnknown:
		return true
	}
	return false
}

// Known reports whether the status carries information. Unknown statuses are
// excluded from similarity comparison entirely.
func (s Status) Known() bool {
	return s == StatusAlive || s == StatusDead
}

// Record is a single family-tree entry owned by a user account. The matching
// engine only reads records; mutation belongs to the CRUD layer.
type Record struct {
	ID         id.PersonID
	OwnerID    id.UserID
	Name       string
	Surname    string
	Gender     string
	Status     Status
	BirthDate  *time.Time
	DeathDate  *time.Time
	Country    string
	Occupation string
	FatherID   *id.PersonID
	MotherID   *id.PersonID
	PartnerIDs []id.PersonID
	ChildIDs   []id.PersonID
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// FirstName returns the first whitespace-separated token of the name.
func (r *Record) FirstName() string {
	fields := strings.Fields(r.Name)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// FullName joins name and surname for display and comparison.
func (r *Record) FullName() string {
	name := strings.TrimSpace(r.Name)
	surname := strings.TrimSpace(r.Surname)
	switch {
	case name == "":
		return surname
	case surname == "":
		return name
	default:
		return name + " " + surname
	}
}

// SameName reports whether both name and surname match exactly after trimming
// and case folding. This is the gate for structural edit suggestions, which is
// intentionally stricter than the fuzzy threshold used for notifications.
func (r *Record) SameName(other *Record) bool {
	return strings.EqualFold(strings.TrimSpace(r.Name), strings.TrimSpace(other.Name)) &&
		strings.EqualFold(strings.TrimSpace(r.Surname), strings.TrimSpace(other.Surname))
}

// HasParent reports whether either parent reference is set.
func (r *Record) HasParent() bool {
	return r.FatherID != nil || r.MotherID != nil
}

// Clone returns a deep copy so stores can hand out records without aliasing.
func (r *Record) Clone() *Record {
	cp := *r
	if r.FatherID != nil {
		f := *r.FatherID
		cp.FatherID = &f
	}
	if r.MotherID != nil {
		m := *r.MotherID
		cp.MotherID = &m
	}
	if r.BirthDate != nil {
		b := *r.BirthDate
		cp.BirthDate = &b
	}
	if r.DeathDate != nil {
		d := *r.DeathDate
		cp.DeathDate = &d
	}
	cp.PartnerIDs = append([]id.PersonID(nil), r.PartnerIDs...)
	cp.ChildIDs = append([]id.PersonID(nil), r.ChildIDs...)
	return &cp
}
