// Package suggestion turns differences between matched person records into
// actionable edit suggestions. Suggestions are structured values with a
// stable, content-derived id; the human-readable text is rendered from the
// structure, never the other way around.
package suggestion

import (
	"fmt"

	"github.com/google/uuid"

	id "lineage/pkg/domain"
)

// Kind tags the action a suggestion proposes.
type Kind string

const (
	KindConfirmField Kind = "confirm_field"
	KindUpdateField  Kind = "update_field"
	KindAddField     Kind = "add_field"
	KindAddParent    Kind = "add_parent"
	KindAddPartner   Kind = "add_partner"
	KindAddChildren  Kind = "add_children"
)

// Field names a suggestion can target.
const (
	FieldStatus    = "status"
	FieldBirthDate = "birth date"
	FieldDeathDate = "death date"
	FieldCountry   = "country"
	FieldFather    = "father"
	FieldMother    = "mother"
)

// idNamespace scopes deterministic suggestion ids. Equal structural content
// always yields the same id, across processes and restarts, so the processed
// ledger survives wording changes in the rendered text.
var idNamespace = uuid.MustParse("7f3a1f6e-54c8-4a12-9d0b-2f8b0a6c9e41")

// Suggestion is a proposed edit to a person record, derived from comparing it
// against a similar record owned by the same or another user.
type Suggestion struct {
	ID         id.SuggestionID
	Kind       Kind
	Field      string
	Value      string
	SourceID   id.PersonID // record the value was observed on
	TargetID   id.PersonID // record the edit applies to
	SourceName string      // display name of the source record, rendering only
}

// New builds a Suggestion with its deterministic id filled in.
func New(kind Kind, field, value string, source, target id.PersonID) Suggestion {
	s := Suggestion{Kind: kind, Field: field, Value: value, SourceID: source, TargetID: target}
	s.ID = s.deriveID()
	return s
}

// WithSourceName attaches the display name of the record the value came from.
// The name only affects rendering; the id stays derived from structural
// content, so a renamed record does not reopen a processed suggestion.
func (s Suggestion) WithSourceName(name string) Suggestion {
	s.SourceName = name
	return s
}

func (s Suggestion) deriveID() id.SuggestionID {
	content := fmt.Sprintf("%s|%s|%s|%s|%s", s.Kind, s.Field, s.Value, s.SourceID, s.TargetID)
	return id.SuggestionID(uuid.NewSHA1(idNamespace, []byte(content)))
}

// Render produces the self-contained human-readable text shown to the owner.
// The text always carries provenance so the reader knows the value came from
// a record entered independently.
func (s Suggestion) Render() string {
	switch s.Kind {
	case KindConfirmField:
		if s.SourceName != "" {
			return fmt.Sprintf("Check the %s of this record: another user's record for %q lists %q.", s.Field, s.SourceName, s.Value)
		}
		return fmt.Sprintf("Check the %s of this record: another user recorded %q for what looks like the same person.", s.Field, s.Value)
	case KindUpdateField:
		return fmt.Sprintf("Consider updating the %s of this record to %q, recorded by another user for the same person.", s.Field, s.Value)
	case KindAddField:
		return fmt.Sprintf("Add %s %q to this record; it was recorded by another user for the same person.", s.Field, s.Value)
	case KindAddParent:
		return fmt.Sprintf("Add %s %q to this record; they were recorded by another user for the same person.", s.Field, s.Value)
	case KindAddPartner:
		return fmt.Sprintf("Add partner %q to this record; they were recorded by another user for the same person.", s.Value)
	case KindAddChildren:
		return fmt.Sprintf("Add children %q to this record; they were recorded by another user for the same person.", s.Value)
	default:
		return fmt.Sprintf("Review the %s of this record against a matching record by another user.", s.Field)
	}
}
