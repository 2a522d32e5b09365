package audit

import (
	"context"

	id "lineage/pkg/domain"
)

// Store is the append-only persistence boundary for audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByOwner(ctx context.Context, ownerID id.UserID) ([]Event, error)
}
