package command

import "github.com/shopspring/decimal"

// Stock Commands

type ReceiveStock struct {
	ProductID       string `json:"product_id"`
	WarehouseID     string `json:"warehouse_id"`
	LocationID      string `json:"location_id,omitempty"`
	Quantity        int    `json:"quantity"`
	ReferenceNumber string `json:"reference_number,omitempty"`
	Notes           string `json:"notes,omitempty"`
	UserID          string `json:"user_id"`
}

type IssueStock struct {
	ProductID       string `json:"product_id"`
	WarehouseID     string `json:"warehouse_id"`
	LocationID      string `json:"location_id,omitempty"`
	Quantity        int    `json:"quantity"`
	ReferenceNumber string `json:"reference_number,omitempty"`
	Notes           string `json:"notes,omitempty"`
	UserID          string `json:"user_id"`
}

type AdjustStock struct {
	ProductID       string `json:"product_id"`
	WarehouseID     string `json:"warehouse_id"`
	LocationID      string `json:"location_id,omitempty"`
	Direction       string `json:"direction"` // "increase" or "decrease"
	Quantity        int    `json:"quantity"`
	ReferenceNumber string `json:"reference_number,omitempty"`
	Notes           string `json:"notes,omitempty"`
	UserID          string `json:"user_id"`
}

type RecordDamage struct {
	ProductID       string `json:"product_id"`
	WarehouseID     string `json:"warehouse_id"`
	LocationID      string `json:"location_id,omitempty"`
	Quantity        int    `json:"quantity"`
	ReferenceNumber string `json:"reference_number,omitempty"`
	Notes           string `json:"notes,omitempty"`
	UserID          string `json:"user_id"`
}

type ReturnStock struct {
	ProductID       string `json:"product_id"`
	WarehouseID     string `json:"warehouse_id"`
	LocationID      string `json:"location_id,omitempty"`
	Quantity        int    `json:"quantity"`
	ReferenceNumber string `json:"reference_number,omitempty"`
	Notes           string `json:"notes,omitempty"`
	UserID          string `json:"user_id"`
}

type TransferStock struct {
	ProductID       string `json:"product_id"`
	FromWarehouseID string `json:"from_warehouse_id"`
	FromLocationID  string `json:"from_location_id,omitempty"`
	ToWarehouseID   string `json:"to_warehouse_id"`
	ToLocationID    string `json:"to_location_id,omitempty"`
	Quantity        int    `json:"quantity"`
	ReferenceNumber string `json:"reference_number,omitempty"`
	Notes           string `json:"notes,omitempty"`
	UserID          string `json:"user_id"`
}

// Reservation Commands

type ReserveStock struct {
	ProductID   string `json:"product_id"`
	WarehouseID string `json:"warehouse_id"`
	LocationID  string `json:"location_id,omitempty"`
	Quantity    int    `json:"quantity"`
}

type ReleaseStock struct {
	ProductID   string `json:"product_id"`
	WarehouseID string `json:"warehouse_id"`
	LocationID  string `json:"location_id,omitempty"`
	Quantity    int    `json:"quantity"`
}

type SetStockThresholds struct {
	ProductID     string `json:"product_id"`
	WarehouseID   string `json:"warehouse_id"`
	LocationID    string `json:"location_id,omitempty"`
	MinStockLevel int    `json:"min_stock_level"`
	MaxStockLevel int    `json:"max_stock_level"`
	ReorderPoint  int    `json:"reorder_point"`
}

// Sale Commands

type SaleLine struct {
	ProductID string          `json:"product_id"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// PriceOrder computes totals without touching stock.
type PriceOrder struct {
	Lines          []SaleLine      `json:"lines"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	PaidAmount     decimal.Decimal `json:"paid_amount"`
}

// CheckoutSale prices an order and issues the corresponding stock.
type CheckoutSale struct {
	WarehouseID     string          `json:"warehouse_id"`
	LocationID      string          `json:"location_id,omitempty"`
	Lines           []SaleLine      `json:"lines"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
	PaidAmount      decimal.Decimal `json:"paid_amount"`
	ReferenceNumber string          `json:"reference_number,omitempty"`
	UserID          string          `json:"user_id"`
	FromReservation bool            `json:"from_reservation,omitempty"`
}
