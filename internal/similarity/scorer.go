// Package similarity implements pairwise comparison of person records.
// Scoring is pure and symmetric; persistence and notification concerns live
// in the engine package.
package similarity

import (
	"strings"
	"time"

	"lineage/internal/person/models"
	id "lineage/pkg/domain"
)

// Comparable field names reported in Result.MatchedFields.
const (
	FieldSurname   = "surname"
	FieldFirstName = "firstName"
	FieldFullName  = "fullName"
	FieldStatus    = "status"
	FieldBirthDate = "birthDate"
	FieldDeathDate = "deathDate"
	FieldCountry   = "country"
)

// InclusionThreshold is the per-field score a comparison must exceed to count
// toward the aggregate score. The same threshold gates the pair-level match:
// the boundary value itself is excluded on both levels.
const InclusionThreshold = 0.70

// dateWindowYears is the span beyond which two dates score zero.
const dateWindowYears = 10.0

// Result is the outcome of comparing two records. It is ephemeral: produced
// per comparison and discarded after notification creation.
type Result struct {
	AID           id.PersonID
	BID           id.PersonID
	Aggregate     float64
	MatchedFields []string
}

// Similar reports whether the pair qualifies for a notification: the
// aggregate must exceed the threshold and at least one field must have
// qualified individually.
func (r Result) Similar() bool {
	return r.Aggregate > InclusionThreshold && len(r.MatchedFields) > 0
}

// Scorer compares person records field by field.
type Scorer struct{}

// NewScorer constructs a Scorer.
func NewScorer() *Scorer {
	return &Scorer{}
}

// Score compares two records and returns the aggregate similarity with the
// list of fields that qualified. Score(a, b) == Score(b, a) up to the order
// of ids in the result.
func (s *Scorer) Score(a, b *models.Record) Result {
	result := Result{AID: a.ID, BID: b.ID}

	var sum float64
	var count int
	include := func(field string, score float64) {
		sum += score
		count++
		result.MatchedFields = append(result.MatchedFields, field)
	}

	if score := stringSimilarity(a.Surname, b.Surname); score > InclusionThreshold {
		include(FieldSurname, score)
	}
	if score := stringSimilarity(a.FirstName(), b.FirstName()); score > InclusionThreshold {
		include(FieldFirstName, score)
	}
	if score := stringSimilarity(a.FullName(), b.FullName()); score > InclusionThreshold {
		include(FieldFullName, score)
	}

	// Status is exact-match only. Two known statuses always count as a
	// compared field; a divergence drags the aggregate down instead of being
	// silently skipped. Unknown on either side excludes the field.
	if a.Status.Known() && b.Status.Known() {
		if a.Status == b.Status {
			include(FieldStatus, 1)
		} else {
			include(FieldStatus, 0)
		}
	}

	if score := dateSimilarity(a.BirthDate, b.BirthDate); score > InclusionThreshold {
		include(FieldBirthDate, score)
	}
	if score := dateSimilarity(a.DeathDate, b.DeathDate); score > InclusionThreshold {
		include(FieldDeathDate, score)
	}
	if score := stringSimilarity(a.Country, b.Country); score > InclusionThreshold {
		include(FieldCountry, score)
	}

	if count > 0 {
		result.Aggregate = sum / float64(count)
	}
	return result
}

// stringSimilarity returns a normalized edit-distance similarity in [0,1].
// Empty input on either side scores zero: absence is not evidence.
func stringSimilarity(x, y string) float64 {
	x = strings.ToLower(strings.TrimSpace(x))
	y = strings.ToLower(strings.TrimSpace(y))
	if x == "" || y == "" {
		return 0
	}
	if x == y {
		return 1
	}
	maxLen := len(x)
	if len(y) > maxLen {
		maxLen = len(y)
	}
	return 1 - float64(levenshtein(x, y))/float64(maxLen)
}

// dateSimilarity scores two dates: 1 for the same calendar day, 0 beyond a
// ten-year window, linear interpolation in between.
func dateSimilarity(x, y *time.Time) float64 {
	if x == nil || y == nil {
		return 0
	}
	xy, xm, xd := x.Date()
	yy, ym, yd := y.Date()
	if xy == yy && xm == ym && xd == yd {
		return 1
	}
	diff := x.Sub(*y)
	if diff < 0 {
		diff = -diff
	}
	years := diff.Hours() / 24 / 365.25
	if years > dateWindowYears {
		return 0
	}
	return 1 - years/dateWindowYears
}

// levenshtein computes the edit distance between two strings using the
// two-row dynamic programming formulation.
func levenshtein(x, y string) int {
	if x == y {
		return 0
	}
	if len(x) == 0 {
		return len(y)
	}
	if len(y) == 0 {
		return len(x)
	}

	prev := make([]int, len(y)+1)
	curr := make([]int, len(y)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(x); i++ {
		curr[0] = i
		for j := 1; j <= len(y); j++ {
			cost := 1
			if x[i-1] == y[j-1] {
				cost = 0
			}
			curr[j] = min3(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}
	return prev[len(y)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
