package projection

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/example/pos-backoffice/internal/domain/ledger"
	"github.com/example/pos-backoffice/internal/infrastructure/store"
	"github.com/example/pos-backoffice/internal/readmodel"
)

// Projector maintains the stock-level and movement-history read models from
// the stream of committed stock events.
type Projector struct {
	readStore store.ReadStoreInterface
}

func NewProjector(readStore store.ReadStoreInterface) *Projector {
	return &Projector{readStore: readStore}
}

func (p *Projector) HandleEvent(ctx context.Context, key, value []byte) error {
	var event store.StockEvent
	if err := json.Unmarshal(value, &event); err != nil {
		return err
	}

	log.Printf("[Projector] Received event: %s (key: %s)", event.EventType, event.Record.Key)

	p.ProjectRecord(event.Record)
	if event.Movement != nil {
		p.ProjectMovement(*event.Movement)
	}
	return nil
}

// ProjectRecord upserts the stock-level read model for a record snapshot.
// Also used for replay on startup.
func (p *Projector) ProjectRecord(rec ledger.StockRecord) {
	available := rec.AvailableQuantity()
	p.readStore.Set("stock_levels", rec.Key.String(), &readmodel.StockLevelReadModel{
		ID:                rec.Key.String(),
		ProductID:         rec.ProductID,
		WarehouseID:       rec.WarehouseID,
		LocationID:        rec.LocationID,
		Quantity:          rec.Quantity,
		ReservedQuantity:  rec.ReservedQuantity,
		AvailableQuantity: available,
		MinStockLevel:     rec.MinStockLevel,
		MaxStockLevel:     rec.MaxStockLevel,
		ReorderPoint:      rec.ReorderPoint,
		LowStock:          rec.ReorderPoint > 0 && available <= rec.ReorderPoint,
		LastMovementAt:    rec.LastMovementAt,
		UpdatedAt:         time.Now(),
	})
}

// ProjectMovement appends one ledger entry to the movement history view.
func (p *Projector) ProjectMovement(m ledger.Movement) {
	p.readStore.Set("movements", m.ID, &readmodel.MovementReadModel{
		ID:              m.ID,
		ProductID:       m.ProductID,
		WarehouseID:     m.WarehouseID,
		LocationID:      m.LocationID,
		MovementType:    string(m.Type),
		Direction:       string(m.Direction),
		Quantity:        m.Quantity,
		ReferenceNumber: m.ReferenceNumber,
		TransferRef:     m.TransferRef,
		Notes:           m.Notes,
		UserID:          m.UserID,
		CreatedAt:       m.CreatedAt,
	})
}
