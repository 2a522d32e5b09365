package processed

import (
	"time"

	id "lineage/pkg/domain"
)

// Mark records that a suggestion has been acted on for a given owner/record
// pair. Marks are append-only; duplicates of the same tuple are tolerated
// because the read side treats membership, not count, as the signal.
type Mark struct {
	OwnerID      id.UserID
	PersonID     id.PersonID
	SuggestionID id.SuggestionID
	RenderedText string
	MarkedAt     time.Time
}
