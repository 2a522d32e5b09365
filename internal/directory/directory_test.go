package directory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lineage/internal/sentinel"
	id "lineage/pkg/domain"
)

func TestInMemoryResolver(t *testing.T) {
	r := NewInMemory()
	ctx := context.Background()

	userID := id.NewUserID()
	personID := id.NewPersonID()
	r.SetUser(userID, "Alice")
	r.SetPerson(personID, "Robert Smith")

	name, err := r.DisplayName(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", name)

	name, err = r.PersonName(ctx, personID)
	require.NoError(t, err)
	assert.Equal(t, "Robert Smith", name)

	_, err = r.DisplayName(ctx, id.NewUserID())
	require.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestFallbackHelpers(t *testing.T) {
	r := NewInMemory()
	ctx := context.Background()

	// Unknown ids degrade to placeholders, never errors.
	assert.Equal(t, UnknownUser, DisplayNameOr(ctx, r, id.NewUserID()))
	assert.Equal(t, UnknownRelative, PersonNameOr(ctx, r, id.NewPersonID()))

	userID := id.NewUserID()
	r.SetUser(userID, "Bea")
	assert.Equal(t, "Bea", DisplayNameOr(ctx, r, userID))
}
