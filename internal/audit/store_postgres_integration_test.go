//go:build integration

package audit_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	"lineage/internal/audit"
	"lineage/internal/platform/config"
	"lineage/internal/platform/kafka/producer"
	"lineage/internal/platform/logger"
	id "lineage/pkg/domain"
	"lineage/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *audit.PostgresStore
	owner    id.UserID
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
	s.store = audit.NewPostgresStore(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.postgres.TruncateAll(ctx))
	s.owner = id.NewUserID()
}

func (s *PostgresStoreSuite) TestAppendAndListByOwner() {
	ctx := context.Background()
	base := time.Date(2025, 2, 10, 9, 0, 0, 0, time.UTC)

	later := audit.Event{
		Timestamp: base.Add(time.Minute),
		OwnerID:   s.owner,
		Action:    audit.ActionAnalysisCompleted,
		Subject:   "person-2",
		Outcome:   "success",
	}
	earlier := audit.Event{
		Timestamp: base,
		OwnerID:   s.owner,
		Action:    audit.ActionAnalysisStarted,
		Subject:   "person-1",
		RequestID: "req-1",
	}
	s.Require().NoError(s.store.Append(ctx, later))
	s.Require().NoError(s.store.Append(ctx, earlier))
	s.Require().NoError(s.store.Append(ctx, audit.Event{
		Timestamp: base,
		OwnerID:   id.NewUserID(),
		Action:    audit.ActionAnalysisFailed,
	}))

	events, err := s.store.ListByOwner(ctx, s.owner)
	s.Require().NoError(err)
	s.Require().Len(events, 2)
	s.Equal(audit.ActionAnalysisStarted, events[0].Action)
	s.Equal("person-1", events[0].Subject)
	s.Equal("req-1", events[0].RequestID)
	s.Equal(audit.ActionAnalysisCompleted, events[1].Action)
	s.Equal("success", events[1].Outcome)
	s.True(events[0].Timestamp.Equal(base))
}

// TestPublisherMirrorsToKafka verifies the end-to-end trail: an emitted event
// lands in Postgres and is mirrored to the Kafka topic.
func TestPublisherMirrorsToKafka(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	mgr := containers.GetManager()
	pg := mgr.GetPostgres(t)
	kafka := mgr.GetKafka(t)

	const topic = "lineage.audit.integration"
	if err := kafka.CreateTopic(ctx, topic, 1, 1); err != nil {
		t.Fatalf("create topic: %v", err)
	}

	log := logger.New()
	prod, err := producer.New(config.Kafka{Brokers: kafka.Brokers, Acks: "all", Retries: 3}, log)
	if err != nil {
		t.Fatalf("create producer: %v", err)
	}
	defer prod.Close()

	publisher := audit.NewPublisher(audit.NewPostgresStore(pg.DB),
		audit.WithPublisherLogger(log),
		audit.WithKafkaSink(prod, topic),
	)
	defer publisher.Close()

	owner := id.NewUserID()
	event := audit.Event{
		OwnerID: owner,
		Action:  audit.ActionAccessRequested,
		Subject: owner.String(),
		Outcome: "pending",
	}
	if err := publisher.Emit(ctx, event); err != nil {
		t.Fatalf("emit: %v", err)
	}

	events, err := audit.NewPostgresStore(pg.DB).ListByOwner(ctx, owner)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 persisted event, got %d", len(events))
	}

	consumer, err := kafka.NewConsumer(ctx, "audit-integration", topic)
	if err != nil {
		t.Fatalf("create consumer: %v", err)
	}
	defer consumer.Close()

	record := kafka.WaitForMessage(ctx, consumer, 30*time.Second, func(r *kgo.Record) bool {
		return string(r.Key) == owner.String()
	})
	if record == nil {
		t.Fatal("audit event never reached kafka")
	}

	var mirrored audit.Event
	if err := json.Unmarshal(record.Value, &mirrored); err != nil {
		t.Fatalf("decode mirrored event: %v", err)
	}
	if mirrored.Action != audit.ActionAccessRequested {
		t.Fatalf("unexpected mirrored action %q", mirrored.Action)
	}
}
