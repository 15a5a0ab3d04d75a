package notification

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/example/pos-backoffice/internal/email"
	"github.com/example/pos-backoffice/internal/infrastructure/store"
)

// Handler watches the stock event stream and alerts when available stock
// drops to or below a record's reorder point. One alert per key until the
// level recovers above the threshold.
type Handler struct {
	emailService *email.Service
	recipient    string

	mu      sync.Mutex
	alerted map[string]bool
}

// NewHandler creates a new notification handler
func NewHandler(emailSvc *email.Service, recipient string) *Handler {
	return &Handler{
		emailService: emailSvc,
		recipient:    recipient,
		alerted:      make(map[string]bool),
	}
}

// HandleEvent processes an event from Kafka
func (h *Handler) HandleEvent(ctx context.Context, key, value []byte) error {
	var event store.StockEvent
	if err := json.Unmarshal(value, &event); err != nil {
		log.Printf("[Notifier] Failed to unmarshal event: %v", err)
		return err
	}

	rec := event.Record
	id := rec.Key.String()
	available := rec.AvailableQuantity()
	low := rec.ReorderPoint > 0 && available <= rec.ReorderPoint

	h.mu.Lock()
	alreadyAlerted := h.alerted[id]
	if low {
		h.alerted[id] = true
	} else {
		delete(h.alerted, id)
	}
	h.mu.Unlock()

	if !low || alreadyAlerted {
		return nil
	}

	log.Printf("[Notifier] Low stock at %s: %d available, reorder point %d", id, available, rec.ReorderPoint)

	err := h.emailService.SendLowStockAlert(h.recipient, email.LowStockAlert{
		ProductID:         rec.ProductID,
		WarehouseID:       rec.WarehouseID,
		LocationID:        rec.LocationID,
		Quantity:          rec.Quantity,
		ReservedQuantity:  rec.ReservedQuantity,
		AvailableQuantity: available,
		ReorderPoint:      rec.ReorderPoint,
	})
	if err != nil {
		log.Printf("[Notifier] Failed to send low-stock alert for %s: %v", id, err)
		// Alert stays marked; the next recovery/drop cycle retriggers it.
	}
	return nil
}
