package command

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/example/pos-backoffice/internal/domain/ledger"
	"github.com/example/pos-backoffice/internal/domain/pricing"
)

var ErrEmptySale = errors.New("sale must have at least one line")

const (
	maxCommitAttempts = 3
	retryBackoff      = 50 * time.Millisecond
)

// Handler orchestrates the ledger and the calculator. Version conflicts
// signal contention rather than invalid input, so they are retried here a
// bounded number of times with backoff; every other error goes straight back
// to the caller.
type Handler struct {
	ledgerSvc  *ledger.Service
	calculator *pricing.Calculator
}

func NewHandler(ledgerSvc *ledger.Service, calculator *pricing.Calculator) *Handler {
	return &Handler{
		ledgerSvc:  ledgerSvc,
		calculator: calculator,
	}
}

func (h *Handler) retry(op func() error) error {
	var err error
	for attempt := 1; attempt <= maxCommitAttempts; attempt++ {
		err = op()
		if err == nil || !errors.Is(err, ledger.ErrConcurrencyConflict) {
			return err
		}
		if attempt < maxCommitAttempts {
			log.Printf("[Command] Commit conflict, retrying (attempt %d/%d)", attempt, maxCommitAttempts)
			time.Sleep(time.Duration(attempt) * retryBackoff)
		}
	}
	return err
}

func (h *Handler) applyMovement(ctx context.Context, in ledger.MovementInput) (*ledger.StockRecord, *ledger.Movement, error) {
	var rec *ledger.StockRecord
	var mv *ledger.Movement
	err := h.retry(func() error {
		var err error
		rec, mv, err = h.ledgerSvc.ApplyMovement(ctx, in)
		return err
	})
	return rec, mv, err
}

// ReceiveStock records incoming stock (purchase receipt, supplier delivery)
func (h *Handler) ReceiveStock(ctx context.Context, cmd ReceiveStock) (*ledger.StockRecord, *ledger.Movement, error) {
	return h.applyMovement(ctx, ledger.MovementInput{
		ProductID:       cmd.ProductID,
		WarehouseID:     cmd.WarehouseID,
		LocationID:      cmd.LocationID,
		Type:            ledger.MovementIn,
		Quantity:        cmd.Quantity,
		ReferenceNumber: cmd.ReferenceNumber,
		Notes:           cmd.Notes,
		UserID:          cmd.UserID,
	})
}

// IssueStock records outgoing stock
func (h *Handler) IssueStock(ctx context.Context, cmd IssueStock) (*ledger.StockRecord, *ledger.Movement, error) {
	return h.applyMovement(ctx, ledger.MovementInput{
		ProductID:       cmd.ProductID,
		WarehouseID:     cmd.WarehouseID,
		LocationID:      cmd.LocationID,
		Type:            ledger.MovementOut,
		Quantity:        cmd.Quantity,
		ReferenceNumber: cmd.ReferenceNumber,
		Notes:           cmd.Notes,
		UserID:          cmd.UserID,
	})
}

// AdjustStock records a signed correction (cycle count, shrinkage fix)
func (h *Handler) AdjustStock(ctx context.Context, cmd AdjustStock) (*ledger.StockRecord, *ledger.Movement, error) {
	return h.applyMovement(ctx, ledger.MovementInput{
		ProductID:       cmd.ProductID,
		WarehouseID:     cmd.WarehouseID,
		LocationID:      cmd.LocationID,
		Type:            ledger.MovementAdjust,
		Direction:       ledger.Direction(cmd.Direction),
		Quantity:        cmd.Quantity,
		ReferenceNumber: cmd.ReferenceNumber,
		Notes:           cmd.Notes,
		UserID:          cmd.UserID,
	})
}

// RecordDamage writes off damaged stock
func (h *Handler) RecordDamage(ctx context.Context, cmd RecordDamage) (*ledger.StockRecord, *ledger.Movement, error) {
	return h.applyMovement(ctx, ledger.MovementInput{
		ProductID:       cmd.ProductID,
		WarehouseID:     cmd.WarehouseID,
		LocationID:      cmd.LocationID,
		Type:            ledger.MovementDamage,
		Quantity:        cmd.Quantity,
		ReferenceNumber: cmd.ReferenceNumber,
		Notes:           cmd.Notes,
		UserID:          cmd.UserID,
	})
}

// ReturnStock records a customer return
func (h *Handler) ReturnStock(ctx context.Context, cmd ReturnStock) (*ledger.StockRecord, *ledger.Movement, error) {
	return h.applyMovement(ctx, ledger.MovementInput{
		ProductID:       cmd.ProductID,
		WarehouseID:     cmd.WarehouseID,
		LocationID:      cmd.LocationID,
		Type:            ledger.MovementReturn,
		Quantity:        cmd.Quantity,
		ReferenceNumber: cmd.ReferenceNumber,
		Notes:           cmd.Notes,
		UserID:          cmd.UserID,
	})
}

// TransferStock moves stock between locations as one atomic unit
func (h *Handler) TransferStock(ctx context.Context, cmd TransferStock) (*ledger.TransferResult, error) {
	var result *ledger.TransferResult
	err := h.retry(func() error {
		var err error
		result, err = h.ledgerSvc.Transfer(ctx, ledger.TransferInput{
			ProductID:       cmd.ProductID,
			FromWarehouseID: cmd.FromWarehouseID,
			FromLocationID:  cmd.FromLocationID,
			ToWarehouseID:   cmd.ToWarehouseID,
			ToLocationID:    cmd.ToLocationID,
			Quantity:        cmd.Quantity,
			ReferenceNumber: cmd.ReferenceNumber,
			Notes:           cmd.Notes,
			UserID:          cmd.UserID,
		})
		return err
	})
	return result, err
}

// ReserveStock earmarks available stock for an unfulfilled order
func (h *Handler) ReserveStock(ctx context.Context, cmd ReserveStock) (*ledger.StockRecord, error) {
	key := ledger.Key{ProductID: cmd.ProductID, WarehouseID: cmd.WarehouseID, LocationID: cmd.LocationID}
	var rec *ledger.StockRecord
	err := h.retry(func() error {
		var err error
		rec, err = h.ledgerSvc.Reserve(ctx, key, cmd.Quantity)
		return err
	})
	return rec, err
}

// ReleaseStock returns earmarked stock
func (h *Handler) ReleaseStock(ctx context.Context, cmd ReleaseStock) (*ledger.StockRecord, error) {
	key := ledger.Key{ProductID: cmd.ProductID, WarehouseID: cmd.WarehouseID, LocationID: cmd.LocationID}
	var rec *ledger.StockRecord
	err := h.retry(func() error {
		var err error
		rec, err = h.ledgerSvc.Release(ctx, key, cmd.Quantity)
		return err
	})
	return rec, err
}

// SetStockThresholds updates min/max/reorder levels
func (h *Handler) SetStockThresholds(ctx context.Context, cmd SetStockThresholds) (*ledger.StockRecord, error) {
	key := ledger.Key{ProductID: cmd.ProductID, WarehouseID: cmd.WarehouseID, LocationID: cmd.LocationID}
	var rec *ledger.StockRecord
	err := h.retry(func() error {
		var err error
		rec, err = h.ledgerSvc.SetThresholds(ctx, key, cmd.MinStockLevel, cmd.MaxStockLevel, cmd.ReorderPoint)
		return err
	})
	return rec, err
}

// GetStock returns strongly consistent record snapshots from the ledger
func (h *Handler) GetStock(ctx context.Context, productID, warehouseID string) ([]ledger.StockRecord, error) {
	return h.ledgerSvc.GetStock(ctx, productID, warehouseID)
}

// SaleResult is the outcome of a priced (and, for checkout, committed) sale.
type SaleResult struct {
	SaleID        string                `json:"sale_id,omitempty"`
	Lines         []pricing.PricedLine  `json:"lines"`
	Totals        pricing.OrderTotals   `json:"totals"`
	PaymentStatus pricing.PaymentStatus `json:"payment_status"`
	Movements     []*ledger.Movement    `json:"movements,omitempty"`
}

// PriceOrder computes line prices, totals, and payment status without
// touching stock.
func (h *Handler) PriceOrder(cmd PriceOrder) (*SaleResult, error) {
	if len(cmd.Lines) == 0 {
		return nil, ErrEmptySale
	}

	priced := h.calculator.PriceLines(toOrderLines(cmd.Lines))
	totals := h.calculator.AggregateTotals(priced, cmd.DiscountAmount)
	return &SaleResult{
		Lines:         priced,
		Totals:        totals,
		PaymentStatus: pricing.DerivePaymentStatus(totals.TotalAmount, cmd.PaidAmount),
	}, nil
}

// CheckoutSale prices the order, then issues stock for every line under the
// sale reference. When the sale was reserved up front, each line's
// reservation is released before the physical issue.
func (h *Handler) CheckoutSale(ctx context.Context, cmd CheckoutSale) (*SaleResult, error) {
	if len(cmd.Lines) == 0 {
		return nil, ErrEmptySale
	}

	// 1. Price the order (pure computation, no side effects)
	priced := h.calculator.PriceLines(toOrderLines(cmd.Lines))
	totals := h.calculator.AggregateTotals(priced, cmd.DiscountAmount)
	status := pricing.DerivePaymentStatus(totals.TotalAmount, cmd.PaidAmount)

	saleID := uuid.New().String()
	reference := cmd.ReferenceNumber
	if reference == "" {
		reference = saleID
	}

	// 2. Commit the corresponding stock movements
	var movements []*ledger.Movement
	for _, line := range cmd.Lines {
		if cmd.FromReservation {
			_, err := h.ReleaseStock(ctx, ReleaseStock{
				ProductID:   line.ProductID,
				WarehouseID: cmd.WarehouseID,
				LocationID:  cmd.LocationID,
				Quantity:    int(line.Quantity),
			})
			if err != nil {
				return nil, err
			}
		}

		_, mv, err := h.applyMovement(ctx, ledger.MovementInput{
			ProductID:       line.ProductID,
			WarehouseID:     cmd.WarehouseID,
			LocationID:      cmd.LocationID,
			Type:            ledger.MovementOut,
			Quantity:        int(line.Quantity),
			ReferenceNumber: reference,
			Notes:           "sale checkout",
			UserID:          cmd.UserID,
		})
		if err != nil {
			return nil, err
		}
		movements = append(movements, mv)
	}

	return &SaleResult{
		SaleID:        saleID,
		Lines:         priced,
		Totals:        totals,
		PaymentStatus: status,
		Movements:     movements,
	}, nil
}

func toOrderLines(lines []SaleLine) []pricing.OrderLine {
	orderLines := make([]pricing.OrderLine, 0, len(lines))
	for _, line := range lines {
		orderLines = append(orderLines, pricing.OrderLine{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
		})
	}
	return orderLines
}
