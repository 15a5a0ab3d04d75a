package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/example/pos-backoffice/internal/domain/ledger"
)

const (
	EventMovementApplied = "MovementApplied"
	EventStockUpdated    = "StockUpdated"
)

// StockEvent is published to Kafka after every committed stock change. It
// carries the post-commit record snapshot, plus the ledger entry when the
// change was a movement (reservation and threshold changes update the record
// without one).
type StockEvent struct {
	ID        string             `json:"id"`
	EventType string             `json:"event_type"`
	Record    ledger.StockRecord `json:"record"`
	Movement  *ledger.Movement   `json:"movement,omitempty"`
	Timestamp time.Time          `json:"timestamp"`
}

// Publisher publishes committed stock events. Satisfied by kafka.Producer.
type Publisher interface {
	Publish(ctx context.Context, key string, event any) error
}

// buildEvents pairs each committed record with its movement (matched by key;
// a commit carries at most one movement per key) and wraps them as events.
func buildEvents(records []*ledger.StockRecord, movements []*ledger.Movement) []StockEvent {
	byKey := make(map[ledger.Key]*ledger.Movement, len(movements))
	for _, m := range movements {
		byKey[m.Key] = m
	}

	now := time.Now()
	events := make([]StockEvent, 0, len(records))
	for _, rec := range records {
		event := StockEvent{
			ID:        uuid.New().String(),
			EventType: EventStockUpdated,
			Record:    *rec,
			Timestamp: now,
		}
		if m, ok := byKey[rec.Key]; ok {
			event.EventType = EventMovementApplied
			event.Movement = m
		}
		events = append(events, event)
	}
	return events
}

// publishEvents sends events for a committed change. Publishing happens after
// the commit; a publish failure is surfaced but the commit stands.
func publishEvents(ctx context.Context, publisher Publisher, records []*ledger.StockRecord, movements []*ledger.Movement) error {
	if publisher == nil {
		return nil
	}
	for _, event := range buildEvents(records, movements) {
		if err := publisher.Publish(ctx, event.Record.Key.String(), event); err != nil {
			return err
		}
	}
	return nil
}
