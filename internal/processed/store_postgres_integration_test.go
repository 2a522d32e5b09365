//go:build integration

package processed_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"lineage/internal/processed"
	id "lineage/pkg/domain"
	"lineage/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *processed.PostgresStore
	owner    id.UserID
	person   id.PersonID
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = processed.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.postgres.TruncateAll(ctx))
	s.owner = s.postgres.CreateTestUser(ctx, s.T())
	s.person = id.NewPersonID()
}

func (s *PostgresStoreSuite) newMark(at time.Time) processed.Mark {
	return processed.Mark{
		OwnerID:      s.owner,
		PersonID:     s.person,
		SuggestionID: id.SuggestionID(uuid.New()),
		RenderedText: "Add the birth date 1950-03-14",
		MarkedAt:     at,
	}
}

func (s *PostgresStoreSuite) TestAppendAndListByScope() {
	ctx := context.Background()
	base := time.Date(2025, 2, 10, 9, 0, 0, 0, time.UTC)

	second := s.newMark(base.Add(time.Hour))
	first := s.newMark(base)
	s.Require().NoError(s.store.Append(ctx, second))
	s.Require().NoError(s.store.Append(ctx, first))

	marks, err := s.store.ListByScope(ctx, s.owner, s.person)
	s.Require().NoError(err)
	s.Require().Len(marks, 2)
	s.Equal(first.SuggestionID, marks[0].SuggestionID)
	s.Equal(second.SuggestionID, marks[1].SuggestionID)
	s.Equal(first.RenderedText, marks[0].RenderedText)
	s.True(marks[0].MarkedAt.Equal(base))
}

func (s *PostgresStoreSuite) TestDuplicateMarksAccumulate() {
	ctx := context.Background()
	mark := s.newMark(time.Date(2025, 2, 10, 9, 0, 0, 0, time.UTC))

	s.Require().NoError(s.store.Append(ctx, mark))
	s.Require().NoError(s.store.Append(ctx, mark))

	marks, err := s.store.ListByScope(ctx, s.owner, s.person)
	s.Require().NoError(err)
	s.Len(marks, 2)
}

func (s *PostgresStoreSuite) TestScopesAreIsolated() {
	ctx := context.Background()
	s.Require().NoError(s.store.Append(ctx, s.newMark(time.Now().UTC())))

	marks, err := s.store.ListByScope(ctx, s.owner, id.NewPersonID())
	s.Require().NoError(err)
	s.Empty(marks)

	marks, err = s.store.ListByScope(ctx, id.NewUserID(), s.person)
	s.Require().NoError(err)
	s.Empty(marks)
}
