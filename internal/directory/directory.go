// Package directory resolves owner and person ids to display names for
// notification and suggestion text. Lookups degrade to placeholders rather
// than failing the calling operation.
package directory

import (
	"context"

	id "lineage/pkg/domain"
)

// Placeholder names used when a lookup fails or the referenced id is dangling.
const (
	UnknownUser     = "another user"
	UnknownRelative = "an unnamed relative"
)

// Resolver maps ids to human-readable names.
//
// Error Contract:
// - Both methods return sentinel.ErrNotFound (optionally wrapped) for unknown ids
type Resolver interface {
	DisplayName(ctx context.Context, userID id.UserID) (string, error)
	PersonName(ctx context.Context, personID id.PersonID) (string, error)
}

// DisplayNameOr resolves a user's display name, falling back to the
// placeholder on any error.
func DisplayNameOr(ctx context.Context, r Resolver, userID id.UserID) string {
	name, err := r.DisplayName(ctx, userID)
	if err != nil || name == "" {
		return UnknownUser
	}
	return name
}

// PersonNameOr resolves a person's display name, falling back to the
// placeholder on any error.
func PersonNameOr(ctx context.Context, r Resolver, personID id.PersonID) string {
	name, err := r.PersonName(ctx, personID)
	if err != nil || name == "" {
		return UnknownRelative
	}
	return name
}
