package suggestion

import (
	"context"
	"time"

	"lineage/internal/directory"
	"lineage/internal/person/models"
	id "lineage/pkg/domain"
)

const dateLayout = "2006-01-02"

// Generator derives edit suggestions from a matched record pair.
type Generator struct {
	resolver directory.Resolver
}

// NewGenerator constructs a Generator. The resolver supplies display names
// for parent-linkage suggestions; lookup failures degrade to a placeholder.
func NewGenerator(resolver directory.Resolver) *Generator {
	return &Generator{resolver: resolver}
}

// Generate produces suggestion lists for both sides of a matched pair.
//
// Suggestions are gated on exact (trimmed, case-insensitive) equality of name
// and surname. This is deliberately stricter than the similarity threshold
// that justified the notification: a fuzzy match is enough to tell a user
// "these records look alike", but not enough to propose structural edits.
func (g *Generator) Generate(ctx context.Context, a, b *models.Record, _ []string) (forA, forB []Suggestion) {
	if !a.SameName(b) {
		return nil, nil
	}

	// Each rule is independent: a failure or absence in one field never
	// suppresses suggestions from the others.
	forA, forB = g.statusSuggestions(a, b, forA, forB)
	forA, forB = g.dateSuggestions(FieldBirthDate, a, b, a.BirthDate, b.BirthDate, forA, forB)
	forA, forB = g.dateSuggestions(FieldDeathDate, a, b, a.DeathDate, b.DeathDate, forA, forB)
	forA, forB = g.countrySuggestions(a, b, forA, forB)
	forA, forB = g.parentSuggestions(ctx, FieldFather, a, b, a.FatherID, b.FatherID, forA, forB)
	forA, forB = g.parentSuggestions(ctx, FieldMother, a, b, a.MotherID, b.MotherID, forA, forB)
	return forA, forB
}

// statusSuggestions cross-references divergent known statuses. Nothing is
// suggested when either side is unknown or both agree.
func (g *Generator) statusSuggestions(a, b *models.Record, forA, forB []Suggestion) ([]Suggestion, []Suggestion) {
	if !a.Status.Known() || !b.Status.Known() || a.Status == b.Status {
		return forA, forB
	}
	forA = append(forA, New(KindConfirmField, FieldStatus, string(b.Status), b.ID, a.ID).WithSourceName(b.FullName()))
	forB = append(forB, New(KindConfirmField, FieldStatus, string(a.Status), a.ID, b.ID).WithSourceName(a.FullName()))
	return forA, forB
}

// dateSuggestions handles birth and death dates: an add when exactly one side
// has the value, a cross-reference when both do and they disagree by more
// than one day.
func (g *Generator) dateSuggestions(field string, a, b *models.Record, av, bv *time.Time, forA, forB []Suggestion) ([]Suggestion, []Suggestion) {
	switch {
	case av == nil && bv == nil:
		return forA, forB
	case av == nil:
		forA = append(forA, New(KindAddField, field, bv.Format(dateLayout), b.ID, a.ID))
	case bv == nil:
		forB = append(forB, New(KindAddField, field, av.Format(dateLayout), a.ID, b.ID))
	default:
		if daysApart(*av, *bv) > 1 {
			forA = append(forA, New(KindConfirmField, field, bv.Format(dateLayout), b.ID, a.ID).WithSourceName(b.FullName()))
			forB = append(forB, New(KindConfirmField, field, av.Format(dateLayout), a.ID, b.ID).WithSourceName(a.FullName()))
		}
	}
	return forA, forB
}

func (g *Generator) countrySuggestions(a, b *models.Record, forA, forB []Suggestion) ([]Suggestion, []Suggestion) {
	switch {
	case a.Country == "" && b.Country == "":
		return forA, forB
	case a.Country == "":
		forA = append(forA, New(KindAddField, FieldCountry, b.Country, b.ID, a.ID))
	case b.Country == "":
		forB = append(forB, New(KindAddField, FieldCountry, a.Country, a.ID, b.ID))
	default:
		if a.Country != b.Country {
			forA = append(forA, New(KindConfirmField, FieldCountry, b.Country, b.ID, a.ID).WithSourceName(b.FullName()))
			forB = append(forB, New(KindConfirmField, FieldCountry, a.Country, a.ID, b.ID).WithSourceName(a.FullName()))
		}
	}
	return forA, forB
}

// parentSuggestions proposes copying a parent link when exactly one side has
// it. The suggestion carries the parent's display name and references the
// source record so an applier can copy further fields from it.
func (g *Generator) parentSuggestions(ctx context.Context, field string, a, b *models.Record, ap, bp *id.PersonID, forA, forB []Suggestion) ([]Suggestion, []Suggestion) {
	switch {
	case ap == nil && bp != nil:
		name := directory.PersonNameOr(ctx, g.resolver, *bp)
		forA = append(forA, New(KindAddParent, field, name, b.ID, a.ID))
	case ap != nil && bp == nil:
		name := directory.PersonNameOr(ctx, g.resolver, *ap)
		forB = append(forB, New(KindAddParent, field, name, a.ID, b.ID))
	}
	return forA, forB
}

func daysApart(x, y time.Time) float64 {
	diff := x.Sub(y)
	if diff < 0 {
		diff = -diff
	}
	return diff.Hours() / 24
}

// RenderAll renders a slice of suggestions into display texts, preserving order.
func RenderAll(suggestions []Suggestion) []string {
	if len(suggestions) == 0 {
		return nil
	}
	out := make([]string, 0, len(suggestions))
	for _, s := range suggestions {
		out = append(out, s.Render())
	}
	return out
}
