// Package audit captures an append-only trail of analysis runs and access
// decisions.
package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"lineage/internal/platform/kafka/producer"
	id "lineage/pkg/domain"
)

// Publisher captures structured audit events. It is append-only and uses the
// storage layer for persistence so tests can swap sinks easily. An optional
// Kafka sink mirrors events for downstream consumers.
type Publisher struct {
	store    Store
	events   chan Event
	wg       sync.WaitGroup
	logger   *slog.Logger
	async    bool
	producer *producer.Producer
	topic    string
}

// PublisherOption configures the Publisher.
type PublisherOption func(*Publisher)

// WithAsyncBuffer enables async processing with the specified buffer size.
// Events are queued and persisted in a background goroutine.
func WithAsyncBuffer(size int) PublisherOption {
	return func(p *Publisher) {
		if size > 0 {
			p.events = make(chan Event, size)
			p.async = true
		}
	}
}

// WithPublisherLogger sets a logger for async error reporting.
func WithPublisherLogger(logger *slog.Logger) PublisherOption {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// WithKafkaSink mirrors events to the given topic. A nil producer disables
// the sink.
func WithKafkaSink(prod *producer.Producer, topic string) PublisherOption {
	return func(p *Publisher) {
		if prod != nil && topic != "" {
			p.producer = prod
			p.topic = topic
		}
	}
}

func NewPublisher(store Store, opts ...PublisherOption) *Publisher {
	p := &Publisher{store: store}
	for _, opt := range opts {
		opt(p)
	}
	if p.async {
		p.wg.Add(1)
		go p.processEvents()
	}
	return p
}

// processEvents runs in a goroutine and persists events from the channel.
func (p *Publisher) processEvents() {
	defer p.wg.Done()
	for event := range p.events {
		p.sink(context.Background(), event)
	}
}

func (p *Publisher) sink(ctx context.Context, event Event) {
	if err := p.store.Append(ctx, event); err != nil {
		if p.logger != nil {
			p.logger.Error("failed to persist audit event",
				"error", err,
				"action", event.Action,
				"owner_id", event.OwnerID,
			)
		}
	}
	if p.producer == nil {
		return
	}
	value, err := json.Marshal(event)
	if err != nil {
		if p.logger != nil {
			p.logger.Error("failed to encode audit event", "error", err, "action", event.Action)
		}
		return
	}
	if err := p.producer.ProduceAsync(&producer.Message{
		Topic: p.topic,
		Key:   []byte(event.OwnerID.String()),
		Value: value,
	}); err != nil && p.logger != nil {
		p.logger.Error("failed to publish audit event", "error", err, "action", event.Action)
	}
}

// Close shuts down the async publisher and waits for pending events to drain.
func (p *Publisher) Close() {
	if p.async && p.events != nil {
		close(p.events)
		p.wg.Wait()
	}
}

func (p *Publisher) Emit(ctx context.Context, base Event) error {
	if base.Timestamp.IsZero() {
		base.Timestamp = time.Now()
	}
	if p.async {
		// Non-blocking send; drop event if buffer is full to avoid blocking hot path
		select {
		case p.events <- base:
			return nil
		default:
			if p.logger != nil {
				p.logger.Warn("audit buffer full, event dropped",
					"action", base.Action,
					"owner_id", base.OwnerID,
				)
			}
			return nil
		}
	}
	p.sink(ctx, base)
	return nil
}

func (p *Publisher) List(ctx context.Context, ownerID id.UserID) ([]Event, error) {
	return p.store.ListByOwner(ctx, ownerID)
}
