package readmodel

import "time"

// StockLevelReadModel is the denormalized stock view served to clients.
type StockLevelReadModel struct {
	ID                string    `json:"id"` // product/warehouse/location key
	ProductID         string    `json:"product_id"`
	WarehouseID       string    `json:"warehouse_id"`
	LocationID        string    `json:"location_id,omitempty"`
	Quantity          int       `json:"quantity"`
	ReservedQuantity  int       `json:"reserved_quantity"`
	AvailableQuantity int       `json:"available_quantity"`
	MinStockLevel     int       `json:"min_stock_level"`
	MaxStockLevel     int       `json:"max_stock_level"`
	ReorderPoint      int       `json:"reorder_point"`
	LowStock          bool      `json:"low_stock"`
	LastMovementAt    time.Time `json:"last_movement_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// MovementReadModel is one row of the audit trail view.
type MovementReadModel struct {
	ID              string    `json:"id"`
	ProductID       string    `json:"product_id"`
	WarehouseID     string    `json:"warehouse_id"`
	LocationID      string    `json:"location_id,omitempty"`
	MovementType    string    `json:"movement_type"`
	Direction       string    `json:"direction"`
	Quantity        int       `json:"quantity"`
	ReferenceNumber string    `json:"reference_number,omitempty"`
	TransferRef     string    `json:"transfer_ref,omitempty"`
	Notes           string    `json:"notes,omitempty"`
	UserID          string    `json:"user_id"`
	CreatedAt       time.Time `json:"created_at"`
}
