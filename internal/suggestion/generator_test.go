package suggestion

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"lineage/internal/directory"
	"lineage/internal/person/models"
	id "lineage/pkg/domain"
)

type GeneratorSuite struct {
	suite.Suite
	resolver  *directory.InMemoryResolver
	generator *Generator
	ctx       context.Context
}

func TestGeneratorSuite(t *testing.T) {
	suite.Run(t, new(GeneratorSuite))
}

func (s *GeneratorSuite) SetupTest() {
	s.resolver = directory.NewInMemory()
	s.generator = NewGenerator(s.resolver)
	s.ctx = context.Background()
}

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func record(name, surname string, status models.Status) *models.Record {
	return &models.Record{
		ID:      id.NewPersonID(),
		OwnerID: id.NewUserID(),
		Name:    name,
		Surname: surname,
		Status:  status,
	}
}

func kinds(suggestions []Suggestion) []Kind {
	out := make([]Kind, 0, len(suggestions))
	for _, sg := range suggestions {
		out = append(out, sg.Kind)
	}
	return out
}

func fields(suggestions []Suggestion) []string {
	out := make([]string, 0, len(suggestions))
	for _, sg := range suggestions {
		out = append(out, sg.Field)
	}
	return out
}

// The exact-name gate is stricter than the similarity threshold: a pair can
// score high on dates and country alone and still get no suggestions.
func (s *GeneratorSuite) TestExactNameGate() {
	a := record("John", "Smith", models.StatusAlive)
	a.BirthDate = date(1950, time.January, 1)
	a.Country = "US"
	b := record("James", "Smith", models.StatusAlive)
	b.BirthDate = date(1950, time.January, 1)
	b.Country = "US"

	forA, forB := s.generator.Generate(s.ctx, a, b, nil)
	s.Empty(forA)
	s.Empty(forB)
}

func (s *GeneratorSuite) TestGateIsCaseInsensitiveAndTrimmed() {
	a := record(" john ", "SMITH", models.StatusAlive)
	b := record("John", "smith", models.StatusDead)

	forA, forB := s.generator.Generate(s.ctx, a, b, nil)
	s.NotEmpty(forA)
	s.NotEmpty(forB)
}

// Scenario: a full record against a sparse one yields add suggestions for the
// sparse side and nothing about status when statuses agree.
func (s *GeneratorSuite) TestSparseSideGetsAddSuggestions() {
	x := record("John", "Smith", models.StatusAlive)
	x.BirthDate = date(1950, time.January, 1)
	x.Country = "US"
	y := record("John", "Smith", models.StatusAlive)

	forX, forY := s.generator.Generate(s.ctx, x, y, nil)
	s.Empty(forX)

	s.Len(forY, 2)
	s.ElementsMatch([]Kind{KindAddField, KindAddField}, kinds(forY))
	s.ElementsMatch([]string{FieldBirthDate, FieldCountry}, fields(forY))
	for _, sg := range forY {
		s.Equal(x.ID, sg.SourceID)
		s.Equal(y.ID, sg.TargetID)
		if sg.Field == FieldBirthDate {
			s.Equal("1950-01-01", sg.Value)
		}
		if sg.Field == FieldCountry {
			s.Equal("US", sg.Value)
		}
	}
}

// Scenario: divergent statuses produce bidirectional confirm suggestions,
// each referencing the other record's status.
func (s *GeneratorSuite) TestStatusDivergence() {
	x := record("John", "Smith", models.StatusAlive)
	y := record("John", "Smith", models.StatusDead)

	forX, forY := s.generator.Generate(s.ctx, x, y, nil)

	s.Require().Len(forX, 1)
	s.Equal(KindConfirmField, forX[0].Kind)
	s.Equal(FieldStatus, forX[0].Field)
	s.Equal("dead", forX[0].Value)
	s.Equal(y.ID, forX[0].SourceID)
	s.Equal(y.FullName(), forX[0].SourceName)
	s.Contains(forX[0].Render(), y.FullName(), "the owner must see which record disagrees")
	s.Contains(forX[0].Render(), "dead")

	s.Require().Len(forY, 1)
	s.Equal("alive", forY[0].Value)
	s.Equal(x.ID, forY[0].SourceID)
	s.Contains(forY[0].Render(), x.FullName())
}

func (s *GeneratorSuite) TestStatusAgreementIsSilent() {
	x := record("John", "Smith", models.StatusAlive)
	y := record("John", "Smith", models.StatusAlive)

	forX, forY := s.generator.Generate(s.ctx, x, y, nil)
	for _, sg := range append(forX, forY...) {
		s.NotEqual(FieldStatus, sg.Field)
	}
}

func (s *GeneratorSuite) TestDateDivergenceCrossReferencesBothSides() {
	x := record("John", "Smith", models.StatusUnknown)
	x.BirthDate = date(1950, time.January, 1)
	y := record("John", "Smith", models.StatusUnknown)
	y.BirthDate = date(1950, time.March, 20)

	forX, forY := s.generator.Generate(s.ctx, x, y, nil)
	s.Require().Len(forX, 1)
	s.Equal(KindConfirmField, forX[0].Kind)
	s.Equal("1950-03-20", forX[0].Value)
	s.Require().Len(forY, 1)
	s.Equal("1950-01-01", forY[0].Value)
}

func (s *GeneratorSuite) TestOneDayApartIsTolerated() {
	// Off-by-one dates are common transcription noise, not divergence.
	x := record("John", "Smith", models.StatusUnknown)
	x.BirthDate = date(1950, time.January, 1)
	y := record("John", "Smith", models.StatusUnknown)
	y.BirthDate = date(1950, time.January, 2)

	forX, forY := s.generator.Generate(s.ctx, x, y, nil)
	s.Empty(forX)
	s.Empty(forY)
}

func (s *GeneratorSuite) TestParentLinkageWithResolvedName() {
	father := id.NewPersonID()
	s.resolver.SetPerson(father, "Robert Smith")

	x := record("John", "Smith", models.StatusUnknown)
	x.FatherID = &father
	y := record("John", "Smith", models.StatusUnknown)

	forX, forY := s.generator.Generate(s.ctx, x, y, nil)
	s.Empty(forX)
	s.Require().Len(forY, 1)
	s.Equal(KindAddParent, forY[0].Kind)
	s.Equal(FieldFather, forY[0].Field)
	s.Equal("Robert Smith", forY[0].Value)
	s.Equal(x.ID, forY[0].SourceID, "applier needs the source record to copy fields from")
}

func (s *GeneratorSuite) TestParentLookupFailureFallsBackToPlaceholder() {
	mother := id.NewPersonID() // never registered with the resolver

	x := record("John", "Smith", models.StatusUnknown)
	x.MotherID = &mother
	y := record("John", "Smith", models.StatusUnknown)

	_, forY := s.generator.Generate(s.ctx, x, y, nil)
	s.Require().Len(forY, 1)
	s.Equal(directory.UnknownRelative, forY[0].Value)
}

func (s *GeneratorSuite) TestBothParentsPresentIsSilent() {
	fx, fy := id.NewPersonID(), id.NewPersonID()
	x := record("John", "Smith", models.StatusUnknown)
	x.FatherID = &fx
	y := record("John", "Smith", models.StatusUnknown)
	y.FatherID = &fy

	forX, forY := s.generator.Generate(s.ctx, x, y, nil)
	s.Empty(forX)
	s.Empty(forY)
}
