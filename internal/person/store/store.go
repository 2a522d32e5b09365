package store

import (
	"context"

	"lineage/internal/person/models"
	id "lineage/pkg/domain"
)

// Store is the persistence boundary for person records.
//
// Error Contract:
// - FindByID and EarliestByOwner return sentinel.ErrNotFound when no record exists
// - Other methods return nil on success or wrapped errors on infrastructure failure
type Store interface {
	Save(ctx context.Context, record *models.Record) error
	FindByID(ctx context.Context, personID id.PersonID) (*models.Record, error)
	// ListByOwner returns every record owned by ownerID, excluding excludeID
	// when non-nil (the triggering record compares against its siblings only).
	ListByOwner(ctx context.Context, ownerID id.UserID, excludeID *id.PersonID) ([]*models.Record, error)
	// ListGroupedByOwner returns all records owned by anyone except excludeOwner,
	// grouped by their owner. Used for the cross-owner similarity scan.
	ListGroupedByOwner(ctx context.Context, excludeOwner id.UserID) (map[id.UserID][]*models.Record, error)
	// ChildrenOf returns records whose father or mother reference equals parentID.
	ChildrenOf(ctx context.Context, ownerID id.UserID, parentID id.PersonID) ([]*models.Record, error)
	// EarliestByOwner returns the oldest record for an owner, the root fallback
	// when no record is parentless.
	EarliestByOwner(ctx context.Context, ownerID id.UserID) (*models.Record, error)
}
