package tree

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"lineage/internal/person/models"
	"lineage/internal/person/store"
	id "lineage/pkg/domain"
	dErrors "lineage/pkg/domain-errors"
)

type BuilderSuite struct {
	suite.Suite
	ctx     context.Context
	persons *store.InMemoryStore
	builder *Builder
}

func TestBuilderSuite(t *testing.T) {
	suite.Run(t, new(BuilderSuite))
}

func (s *BuilderSuite) SetupTest() {
	s.ctx = context.Background()
	s.persons = store.New()
	s.builder = NewBuilder(s.persons)
}

func (s *BuilderSuite) save(record *models.Record) *models.Record {
	if record.ID.IsNil() {
		record.ID = id.NewPersonID()
	}
	s.Require().NoError(s.persons.Save(s.ctx, record))
	return record
}

func (s *BuilderSuite) findRoot(roots []*Node, personID id.PersonID) *Node {
	for _, root := range roots {
		if root.ID == personID {
			return root
		}
	}
	return nil
}

func (s *BuilderSuite) TestEmptyOwnerBuildsNothing() {
	roots, err := s.builder.Build(s.ctx, id.NewUserID())
	s.Require().NoError(err)
	s.Empty(roots)
}

func (s *BuilderSuite) TestRequiresOwner() {
	_, err := s.builder.Build(s.ctx, id.UserID{})
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func (s *BuilderSuite) TestThreeGenerationTree() {
	owner := id.NewUserID()
	grandfather := s.save(&models.Record{OwnerID: owner, Name: "George", Surname: "Smith"})
	father := s.save(&models.Record{OwnerID: owner, Name: "John", Surname: "Smith", FatherID: &grandfather.ID})
	mother := s.save(&models.Record{OwnerID: owner, Name: "Mary", Surname: "Smith", PartnerIDs: []id.PersonID{father.ID}})
	child := s.save(&models.Record{OwnerID: owner, Name: "Anne", Surname: "Smith", FatherID: &father.ID, MotherID: &mother.ID})

	roots, err := s.builder.Build(s.ctx, owner)
	s.Require().NoError(err)

	// George's tree claims everyone: Mary is parentless too, but she is
	// reached through Anne's mother link before her own root turn comes.
	s.Require().Len(roots, 1)
	georgeNode := s.findRoot(roots, grandfather.ID)
	s.Require().NotNil(georgeNode)
	s.Require().Len(georgeNode.Children, 1)
	johnNode := georgeNode.Children[0]
	s.Equal(father.ID, johnNode.ID)
	s.Require().Len(johnNode.Children, 1)
	anneNode := johnNode.Children[0]
	s.Equal(child.ID, anneNode.ID)
	s.Require().NotNil(anneNode.Mother)
	s.Equal(mother.ID, anneNode.Mother.ID)
	s.Equal(4, georgeNode.Count())
}

func (s *BuilderSuite) TestFallbackAnchorWhenEveryRecordHasAParent() {
	owner := id.NewUserID()
	a := s.save(&models.Record{OwnerID: owner, Name: "First"})
	b := s.save(&models.Record{OwnerID: owner, Name: "Second", FatherID: &a.ID})
	// Make the first record point back so no record is parentless.
	a.FatherID = &b.ID
	s.Require().NoError(s.persons.Save(s.ctx, a))

	roots, err := s.builder.Build(s.ctx, owner)
	s.Require().NoError(err)
	s.Require().Len(roots, 1)
	s.Equal(a.ID, roots[0].ID, "the earliest-created record anchors the tree")
}

func (s *BuilderSuite) TestParentCycleTerminates() {
	owner := id.NewUserID()
	a := s.save(&models.Record{OwnerID: owner, Name: "Alpha"})
	b := s.save(&models.Record{OwnerID: owner, Name: "Beta", FatherID: &a.ID})
	a.FatherID = &b.ID
	s.Require().NoError(s.persons.Save(s.ctx, a))

	done := make(chan []*Node, 1)
	go func() {
		roots, err := s.builder.Build(s.ctx, owner)
		s.NoError(err)
		done <- roots
	}()

	select {
	case roots := <-done:
		s.Require().Len(roots, 1)
		anchor := roots[0]
		s.Equal(a.ID, anchor.ID)
		// Beta is both Alpha's father and Alpha's child, so it lands under
		// whichever relation claims it first. It appears exactly once and
		// the back-reference to Alpha is always cut.
		s.Equal(2, anchor.Count())
		if anchor.Father != nil {
			s.Equal(b.ID, anchor.Father.ID)
			s.Nil(anchor.Father.Father, "the cycle back to the anchor is cut")
		} else {
			s.Require().Len(anchor.Children, 1)
			s.Equal(b.ID, anchor.Children[0].ID)
			s.Nil(anchor.Children[0].Father)
		}
	case <-time.After(5 * time.Second):
		s.Fail("cycle did not terminate")
	}
}

func (s *BuilderSuite) TestDanglingParentReferenceOmitted() {
	owner := id.NewUserID()
	ghost := id.NewPersonID()
	record := s.save(&models.Record{OwnerID: owner, Name: "Orphaned", FatherID: &ghost})

	roots, err := s.builder.Build(s.ctx, owner)
	s.Require().NoError(err)
	s.Require().Len(roots, 1)
	s.Equal(record.ID, roots[0].ID)
	s.Nil(roots[0].Father)
}

func (s *BuilderSuite) TestCrossOwnerReferenceOmitted() {
	owner := id.NewUserID()
	stranger := s.save(&models.Record{OwnerID: id.NewUserID(), Name: "Stranger"})
	s.save(&models.Record{OwnerID: owner, Name: "Local", FatherID: &stranger.ID})

	roots, err := s.builder.Build(s.ctx, owner)
	s.Require().NoError(err)
	s.Require().Len(roots, 1)
	s.Nil(roots[0].Father, "records from other owners never join the tree")
}

func (s *BuilderSuite) TestPartnersResolved() {
	owner := id.NewUserID()
	wifeID := id.NewPersonID()
	husband := s.save(&models.Record{OwnerID: owner, Name: "John", PartnerIDs: []id.PersonID{wifeID}})
	s.save(&models.Record{ID: wifeID, OwnerID: owner, Name: "Mary"})

	roots, err := s.builder.Build(s.ctx, owner)
	s.Require().NoError(err)

	// John was created first, so his root claims Mary as a partner and her
	// own root candidacy collapses.
	s.Require().Len(roots, 1)
	s.Equal(husband.ID, roots[0].ID)
	s.Require().Len(roots[0].Partners, 1)
	s.Equal(wifeID, roots[0].Partners[0].ID)
}

func (s *BuilderSuite) TestSharedChildAppearsOnce() {
	owner := id.NewUserID()
	father := s.save(&models.Record{OwnerID: owner, Name: "John"})
	mother := s.save(&models.Record{OwnerID: owner, Name: "Mary"})
	s.save(&models.Record{OwnerID: owner, Name: "Anne", FatherID: &father.ID, MotherID: &mother.ID})

	roots, err := s.builder.Build(s.ctx, owner)
	s.Require().NoError(err)

	total := 0
	for _, root := range roots {
		total += root.Count()
	}
	s.Equal(3, total, "the shared child is placed exactly once")
}

func (s *BuilderSuite) TestCacheHitSkipsRebuild() {
	owner := id.NewUserID()
	s.save(&models.Record{OwnerID: owner, Name: "John"})

	cache := NewMemoryCache(time.Hour)
	builder := NewBuilder(s.persons, WithCache(cache))

	first, err := builder.Build(s.ctx, owner)
	s.Require().NoError(err)
	s.Require().Len(first, 1)

	// A write bypassing Invalidate is not visible until the entry expires.
	s.save(&models.Record{OwnerID: owner, Name: "Mary"})
	second, err := builder.Build(s.ctx, owner)
	s.Require().NoError(err)
	s.Len(second, 1)

	builder.Invalidate(s.ctx, owner)
	third, err := builder.Build(s.ctx, owner)
	s.Require().NoError(err)
	s.Len(third, 2)
}
