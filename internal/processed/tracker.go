// Package processed tracks which suggestions have already been acted on so
// the read side can hide them from live suggestion lists.
package processed

import (
	"context"
	"log/slog"
	"time"

	"lineage/internal/audit"
	"lineage/internal/suggestion"
	id "lineage/pkg/domain"
	dErrors "lineage/pkg/domain-errors"
)

// Tracker records and queries processed-suggestion marks. Identity is the
// stable suggestion id, so re-rendering the same structural suggestion with
// different wording does not resurrect it.
type Tracker struct {
	store   Store
	logger  *slog.Logger
	auditor *audit.Publisher
	now     func() time.Time
}

// TrackerOption configures the Tracker.
type TrackerOption func(*Tracker)

// WithLogger sets the logger used for mark failures.
func WithLogger(logger *slog.Logger) TrackerOption {
	return func(t *Tracker) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// WithAuditor attaches the audit trail publisher.
func WithAuditor(a *audit.Publisher) TrackerOption {
	return func(t *Tracker) {
		t.auditor = a
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) TrackerOption {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

// NewTracker constructs a Tracker.
func NewTracker(store Store, opts ...TrackerOption) *Tracker {
	t := &Tracker{
		store:  store,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Mark records that a suggestion was applied for the owner/record pair.
// Marking the same suggestion twice is harmless.
func (t *Tracker) Mark(ctx context.Context, ownerID id.UserID, personID id.PersonID, s suggestion.Suggestion) error {
	return t.MarkByID(ctx, ownerID, personID, s.ID, s.Render())
}

// MarkByID records a mark from a raw suggestion id, as the UI layer sends it.
func (t *Tracker) MarkByID(ctx context.Context, ownerID id.UserID, personID id.PersonID, suggestionID id.SuggestionID, renderedText string) error {
	if ownerID.IsNil() || personID.IsNil() || suggestionID.IsNil() {
		return dErrors.New(dErrors.CodeInvalidInput, "owner, person, and suggestion ids are required")
	}
	mark := Mark{
		OwnerID:      ownerID,
		PersonID:     personID,
		SuggestionID: suggestionID,
		RenderedText: renderedText,
		MarkedAt:     t.now(),
	}
	if err := t.store.Append(ctx, mark); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "record processed mark")
	}
	if t.auditor != nil {
		if err := t.auditor.Emit(ctx, audit.Event{
			OwnerID: ownerID,
			Action:  audit.ActionSuggestionProcessed,
			Subject: suggestionID.String(),
		}); err != nil {
			t.logger.Warn("audit emit failed", "suggestion_id", suggestionID, "error", err)
		}
	}
	return nil
}

// List returns every mark for the owner/record pair, oldest first.
func (t *Tracker) List(ctx context.Context, ownerID id.UserID, personID id.PersonID) ([]Mark, error) {
	marks, err := t.store.ListByScope(ctx, ownerID, personID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list processed marks")
	}
	return marks, nil
}

// FilterNew removes suggestions whose stable id is already marked. Duplicate
// marks collapse naturally: the check is membership, not count.
func FilterNew(live []suggestion.Suggestion, marks []Mark) []suggestion.Suggestion {
	if len(live) == 0 {
		return nil
	}
	seen := make(map[id.SuggestionID]struct{}, len(marks))
	for _, mark := range marks {
		seen[mark.SuggestionID] = struct{}{}
	}
	var out []suggestion.Suggestion
	for _, s := range live {
		if _, ok := seen[s.ID]; !ok {
			out = append(out, s)
		}
	}
	return out
}
