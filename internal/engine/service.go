// Package engine runs the similarity analysis that fans out match
// notifications after a person record is created or updated. Analysis is
// best-effort background work: failures are logged and audited, never
// surfaced to the write path that triggered them.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"lineage/internal/audit"
	"lineage/internal/directory"
	"lineage/internal/engine/metrics"
	"lineage/internal/engine/tracer"
	nmodels "lineage/internal/notification/models"
	"lineage/internal/person/models"
	"lineage/internal/person/store"
	"lineage/internal/similarity"
	"lineage/internal/suggestion"
	id "lineage/pkg/domain"
)

// Notifier delivers analysis results. The notification service satisfies it.
type Notifier interface {
	Publish(ctx context.Context, n *nmodels.Notification) error
}

// Service scans for similar records and fans out notifications.
type Service struct {
	persons   store.Store
	scorer    *similarity.Scorer
	generator *suggestion.Generator
	notifier  Notifier
	resolver  directory.Resolver
	auditor   *audit.Publisher
	logger    *slog.Logger
	metrics   *metrics.Metrics
	tracer    tracer.Tracer
}

// Option configures the Service.
type Option func(*Service)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics attaches Prometheus collectors.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithAuditor attaches the audit trail publisher.
func WithAuditor(a *audit.Publisher) Option {
	return func(s *Service) {
		s.auditor = a
	}
}

// WithTracer sets the tracer for analysis spans.
func WithTracer(t tracer.Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

// New constructs the analysis engine.
func New(persons store.Store, scorer *similarity.Scorer, generator *suggestion.Generator, notifier Notifier, resolver directory.Resolver, opts ...Option) *Service {
	s := &Service{
		persons:   persons,
		scorer:    scorer,
		generator: generator,
		notifier:  notifier,
		resolver:  resolver,
		logger:    slog.Default(),
		tracer:    tracer.NewNoop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// match pairs a qualified similarity result with the suggestions it produced.
type match struct {
	counterpart *models.Record
	result      similarity.Result
	forTrigger  []suggestion.Suggestion
	forOther    []suggestion.Suggestion
}

// Analyze scans the triggering record against its owner's tree and every
// other owner's tree, publishing one notification per affected audience.
// The returned error is for the worker's logging only; callers on the write
// path never see it.
func (s *Service) Analyze(ctx context.Context, record *models.Record) error {
	if record == nil || record.ID.IsNil() || record.OwnerID.IsNil() {
		return fmt.Errorf("analysis requires a persisted record with an owner")
	}
	ctx, span := s.tracer.Start(ctx, tracer.SpanAnalyze,
		tracer.String(tracer.AttrOwnerID, record.OwnerID.String()),
		tracer.String(tracer.AttrPersonID, record.ID.String()),
	)
	start := time.Now()
	s.audit(ctx, record.OwnerID, audit.ActionAnalysisStarted, record.ID.String(), "", "")

	err := s.analyze(ctx, record)
	span.End(err)
	if s.metrics != nil {
		s.metrics.AnalysisLatency.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		s.logger.Error("analysis failed",
			"owner_id", record.OwnerID, "person_id", record.ID, "error", err)
		s.audit(ctx, record.OwnerID, audit.ActionAnalysisFailed, record.ID.String(), "failure", err.Error())
		if s.metrics != nil {
			s.metrics.AnalysesTotal.WithLabelValues("failure").Inc()
		}
		return err
	}
	s.audit(ctx, record.OwnerID, audit.ActionAnalysisCompleted, record.ID.String(), "success", "")
	if s.metrics != nil {
		s.metrics.AnalysesTotal.WithLabelValues("success").Inc()
	}
	return nil
}

func (s *Service) analyze(ctx context.Context, record *models.Record) error {
	if err := s.withinOwnerScan(ctx, record); err != nil {
		return fmt.Errorf("within-owner scan: %w", err)
	}
	if err := s.crossOwnerScan(ctx, record); err != nil {
		return fmt.Errorf("cross-owner scan: %w", err)
	}
	return nil
}

// withinOwnerScan compares the record against the rest of its owner's tree
// and publishes a single summary notification when duplicates surface.
func (s *Service) withinOwnerScan(ctx context.Context, record *models.Record) error {
	ctx, span := s.tracer.Start(ctx, tracer.SpanWithinOwnerScan)
	var spanErr error
	defer func() { span.End(spanErr) }()

	others, err := s.persons.ListByOwner(ctx, record.OwnerID, &record.ID)
	if err != nil {
		spanErr = err
		return err
	}
	span.SetAttributes(tracer.Int64(tracer.AttrCandidateCount, int64(len(others))))

	matches := s.scan(ctx, record, others)
	span.SetAttributes(tracer.Int64(tracer.AttrMatchCount, int64(len(matches))))
	if len(matches) == 0 {
		return nil
	}
	if s.metrics != nil {
		s.metrics.MatchesFound.WithLabelValues("within_owner").Add(float64(len(matches)))
	}

	group := nmodels.MatchGroup{CounterpartOwnerID: record.OwnerID}
	related := []id.PersonID{record.ID}
	for _, m := range matches {
		group.Matches = append(group.Matches, matchPayload(record.ID, m))
		group.Suggestions = append(group.Suggestions, suggestionRefs(m.forTrigger)...)
		related = append(related, m.counterpart.ID)
	}
	group.SuggestionCount = len(group.Suggestions)

	notice := &nmodels.Notification{
		RecipientID: record.OwnerID,
		Kind:        nmodels.KindWithinOwnerMatch,
		Message: fmt.Sprintf("%d record(s) in your family tree look similar to %s",
			len(matches), record.FullName()),
		TriggeredBy:          summarize(record),
		Groups:               []nmodels.MatchGroup{group},
		RelatedFamilyMembers: related,
	}
	if err := s.notifier.Publish(ctx, notice); err != nil {
		spanErr = err
		return err
	}
	span.AddEvent(tracer.EventNotificationSent)
	return nil
}

// crossOwnerScan compares the record against every other owner's records.
// The triggering owner receives one aggregate notification grouped by
// counterpart owner; each counterpart owner with matches receives an
// oriented notification built from their side of the comparison.
func (s *Service) crossOwnerScan(ctx context.Context, record *models.Record) error {
	ctx, span := s.tracer.Start(ctx, tracer.SpanCrossOwnerScan)
	var spanErr error
	defer func() { span.End(spanErr) }()

	byOwner, err := s.persons.ListGroupedByOwner(ctx, record.OwnerID)
	if err != nil {
		spanErr = err
		return err
	}
	span.SetAttributes(tracer.Int64(tracer.AttrOwnerCount, int64(len(byOwner))))

	type ownerMatches struct {
		ownerID id.UserID
		matches []match
	}
	var matched []ownerMatches
	for ownerID, records := range byOwner {
		if ms := s.scan(ctx, record, records); len(ms) > 0 {
			matched = append(matched, ownerMatches{ownerID: ownerID, matches: ms})
		}
	}
	if len(matched) == 0 {
		return nil
	}
	// Map iteration order is random; fix it so notifications are stable.
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].ownerID.String() < matched[j].ownerID.String()
	})

	var total int
	triggerGroups := make([]nmodels.MatchGroup, 0, len(matched))
	related := []id.PersonID{record.ID}
	for _, om := range matched {
		total += len(om.matches)
		group := nmodels.MatchGroup{
			CounterpartOwnerID:   om.ownerID,
			CounterpartOwnerName: directory.DisplayNameOr(ctx, s.resolver, om.ownerID),
		}
		for _, m := range om.matches {
			group.Matches = append(group.Matches, matchPayload(record.ID, m))
			group.Suggestions = append(group.Suggestions, suggestionRefs(m.forTrigger)...)
			related = append(related, m.counterpart.ID)
		}
		group.SuggestionCount = len(group.Suggestions)
		triggerGroups = append(triggerGroups, group)
	}
	if s.metrics != nil {
		s.metrics.MatchesFound.WithLabelValues("cross_owner").Add(float64(total))
	}

	aggregate := &nmodels.Notification{
		RecipientID: record.OwnerID,
		Kind:        nmodels.KindCrossOwnerMatch,
		Message: fmt.Sprintf("%s may also appear in %d other family tree(s)",
			record.FullName(), len(matched)),
		TriggeredBy:          summarize(record),
		Groups:               triggerGroups,
		RelatedFamilyMembers: related,
	}
	if err := s.notifier.Publish(ctx, aggregate); err != nil {
		spanErr = err
		return err
	}
	span.AddEvent(tracer.EventNotificationSent)

	triggerOwnerName := directory.DisplayNameOr(ctx, s.resolver, record.OwnerID)
	for _, om := range matched {
		group := nmodels.MatchGroup{
			CounterpartOwnerID:   record.OwnerID,
			CounterpartOwnerName: triggerOwnerName,
		}
		counterpartRelated := []id.PersonID{record.ID}
		for _, m := range om.matches {
			group.Matches = append(group.Matches, nmodels.Match{
				RecordID:            m.counterpart.ID,
				CounterpartRecordID: record.ID,
				Score:               m.result.Aggregate,
				MatchedFields:       m.result.MatchedFields,
			})
			group.Suggestions = append(group.Suggestions, suggestionRefs(m.forOther)...)
			counterpartRelated = append(counterpartRelated, m.counterpart.ID)
		}
		group.SuggestionCount = len(group.Suggestions)

		notice := &nmodels.Notification{
			RecipientID: om.ownerID,
			Kind:        nmodels.KindCrossOwnerMatch,
			Message: fmt.Sprintf("%d record(s) in your family tree look similar to a record in another user's tree",
				len(om.matches)),
			TriggeredBy:          summarize(record),
			Groups:               []nmodels.MatchGroup{group},
			RelatedFamilyMembers: counterpartRelated,
		}
		if err := s.notifier.Publish(ctx, notice); err != nil {
			spanErr = err
			return err
		}
		span.AddEvent(tracer.EventNotificationSent)
	}
	return nil
}

// scan scores the record against each candidate and keeps qualified pairs
// with the suggestions both sides would see.
func (s *Service) scan(ctx context.Context, record *models.Record, candidates []*models.Record) []match {
	var matches []match
	for _, candidate := range candidates {
		result := s.scorer.Score(record, candidate)
		if !result.Similar() {
			continue
		}
		forTrigger, forOther := s.generator.Generate(ctx, record, candidate, result.MatchedFields)
		matches = append(matches, match{
			counterpart: candidate,
			result:      result,
			forTrigger:  forTrigger,
			forOther:    forOther,
		})
	}
	return matches
}

func (s *Service) audit(ctx context.Context, ownerID id.UserID, action audit.Action, subject, outcome, reason string) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.Emit(ctx, audit.Event{
		OwnerID: ownerID,
		Action:  action,
		Subject: subject,
		Outcome: outcome,
		Reason:  reason,
	}); err != nil {
		s.logger.Warn("audit emit failed", "action", action, "error", err)
	}
}

func matchPayload(recordID id.PersonID, m match) nmodels.Match {
	return nmodels.Match{
		RecordID:            recordID,
		CounterpartRecordID: m.counterpart.ID,
		Score:               m.result.Aggregate,
		MatchedFields:       m.result.MatchedFields,
	}
}

func suggestionRefs(suggestions []suggestion.Suggestion) []nmodels.SuggestionRef {
	refs := make([]nmodels.SuggestionRef, 0, len(suggestions))
	for _, sg := range suggestions {
		refs = append(refs, nmodels.SuggestionRef{ID: sg.ID, Text: sg.Render()})
	}
	return refs
}

func summarize(record *models.Record) nmodels.RecordSummary {
	return nmodels.RecordSummary{
		ID:      record.ID,
		Name:    record.Name,
		Surname: record.Surname,
	}
}
