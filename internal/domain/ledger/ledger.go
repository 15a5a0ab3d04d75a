package ledger

import (
	"context"
	"fmt"
	"time"
)

// MovementType classifies a stock movement. Quantities on movements are
// always positive magnitudes; the type (plus, for ADJUST, an explicit
// direction) decides the sign.
type MovementType string

const (
	MovementIn       MovementType = "IN"
	MovementOut      MovementType = "OUT"
	MovementAdjust   MovementType = "ADJUST"
	MovementTransfer MovementType = "TRANSFER"
	MovementDamage   MovementType = "DAMAGE"
	MovementReturn   MovementType = "RETURN"
)

type Direction string

const (
	DirectionIncrease Direction = "increase"
	DirectionDecrease Direction = "decrease"
)

// Key identifies a stock record. LocationID may be empty for warehouses
// without sub-locations.
type Key struct {
	ProductID   string `json:"product_id"`
	WarehouseID string `json:"warehouse_id"`
	LocationID  string `json:"location_id,omitempty"`
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s/%s", k.ProductID, k.WarehouseID, k.LocationID)
}

type StockRecord struct {
	Key
	Quantity         int       `json:"quantity"`
	ReservedQuantity int       `json:"reserved_quantity"`
	MinStockLevel    int       `json:"min_stock_level"`
	MaxStockLevel    int       `json:"max_stock_level"`
	ReorderPoint     int       `json:"reorder_point"`
	LastMovementAt   time.Time `json:"last_movement_at"`
	Version          int       `json:"version"`
}

// AvailableQuantity is on-hand minus reserved. It is derived, never stored.
func (r *StockRecord) AvailableQuantity() int {
	return r.Quantity - r.ReservedQuantity
}

// Movement is an immutable ledger entry. Committed movements are never
// mutated or deleted; corrections are new opposing movements.
type Movement struct {
	ID string `json:"id"`
	Key
	Type            MovementType `json:"movement_type"`
	Direction       Direction    `json:"direction"`
	Quantity        int          `json:"quantity"`
	ReferenceNumber string       `json:"reference_number,omitempty"`
	TransferRef     string       `json:"transfer_ref,omitempty"`
	Notes           string       `json:"notes,omitempty"`
	UserID          string       `json:"user_id"`
	CreatedAt       time.Time    `json:"created_at"`
}

type MovementInput struct {
	ProductID       string
	WarehouseID     string
	LocationID      string
	Type            MovementType
	Direction       Direction // required for ADJUST, ignored otherwise
	Quantity        int
	ReferenceNumber string
	Notes           string
	UserID          string
}

func (in MovementInput) key() Key {
	return Key{ProductID: in.ProductID, WarehouseID: in.WarehouseID, LocationID: in.LocationID}
}

type TransferInput struct {
	ProductID       string
	FromWarehouseID string
	FromLocationID  string
	ToWarehouseID   string
	ToLocationID    string
	Quantity        int
	ReferenceNumber string
	Notes           string
	UserID          string
}

// TransferResult carries both sides of a committed transfer. Outbound and
// Inbound share a TransferRef linking them in the ledger.
type TransferResult struct {
	Source      *StockRecord `json:"source"`
	Destination *StockRecord `json:"destination"`
	Outbound    *Movement    `json:"outbound"`
	Inbound     *Movement    `json:"inbound"`
}

// Store is the persistence boundary for the ledger. Commit must apply the
// record updates and movement appends as a single atomic unit, rejecting
// stale record versions with ErrConcurrencyConflict.
type Store interface {
	// Get returns the record for key, or nil if none exists yet.
	Get(ctx context.Context, key Key) (*StockRecord, error)
	// List returns records for a product, optionally filtered to one warehouse.
	List(ctx context.Context, productID, warehouseID string) ([]*StockRecord, error)
	// All returns every stock record.
	All(ctx context.Context) ([]*StockRecord, error)
	// Commit atomically persists record updates and appends movements.
	Commit(ctx context.Context, records []*StockRecord, movements []*Movement) error
	// Movements returns the ledger entries for one key, oldest first.
	Movements(ctx context.Context, key Key) ([]Movement, error)
	// AllMovements returns every ledger entry, oldest first.
	AllMovements(ctx context.Context) ([]Movement, error)
}
