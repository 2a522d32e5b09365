package processed

import (
	"context"

	id "lineage/pkg/domain"
)

// Store is the persistence boundary for processed-suggestion marks.
//
// Error Contract:
// - Append never fails on duplicates; there is no uniqueness to violate
// - ListByScope returns an empty slice, not an error, for unknown scopes
type Store interface {
	Append(ctx context.Context, mark Mark) error
	ListByScope(ctx context.Context, ownerID id.UserID, personID id.PersonID) ([]Mark, error)
}
