package tree

import (
	"context"

	id "lineage/pkg/domain"
)

// Cache stores assembled trees per owner. Implementations degrade silently:
// a broken cache turns reads into rebuilds, never into errors.
type Cache interface {
	Get(ctx context.Context, ownerID id.UserID) ([]*Node, bool)
	Set(ctx context.Context, ownerID id.UserID, roots []*Node)
	Invalidate(ctx context.Context, ownerID id.UserID)
}
