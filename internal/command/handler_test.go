package command

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/pos-backoffice/internal/domain/ledger"
	"github.com/example/pos-backoffice/internal/domain/pricing"
	"github.com/example/pos-backoffice/internal/infrastructure/store/mocks"
)

func newTestHandler() (*Handler, *mocks.MockStockStore) {
	stockStore := mocks.NewMockStockStore()
	handler := NewHandler(
		ledger.NewService(stockStore),
		pricing.NewCalculator(decimal.RequireFromString("0.10")),
	)
	return handler, stockStore
}

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// ============================================
// Stock Command Tests
// ============================================

func TestHandler_ReceiveStock(t *testing.T) {
	handler, stockStore := newTestHandler()
	ctx := context.Background()

	rec, mv, err := handler.ReceiveStock(ctx, ReceiveStock{
		ProductID:       "prod-1",
		WarehouseID:     "wh-1",
		Quantity:        25,
		ReferenceNumber: "PO-1001",
		UserID:          "user-1",
	})

	require.NoError(t, err)
	assert.Equal(t, 25, rec.Quantity)
	assert.Equal(t, ledger.MovementIn, mv.Type)
	assert.Equal(t, "PO-1001", mv.ReferenceNumber)
	assert.Len(t, stockStore.CommitCalls, 1)
}

func TestHandler_IssueStock(t *testing.T) {
	handler, stockStore := newTestHandler()
	ctx := context.Background()

	stockStore.SetRecord(ledger.StockRecord{
		Key:      ledger.Key{ProductID: "prod-1", WarehouseID: "wh-1"},
		Quantity: 25, Version: 1,
	})

	rec, mv, err := handler.IssueStock(ctx, IssueStock{
		ProductID:   "prod-1",
		WarehouseID: "wh-1",
		Quantity:    10,
	})

	require.NoError(t, err)
	assert.Equal(t, 15, rec.Quantity)
	assert.Equal(t, ledger.MovementOut, mv.Type)
}

func TestHandler_AdjustStock_PassesDirection(t *testing.T) {
	handler, _ := newTestHandler()
	ctx := context.Background()

	rec, mv, err := handler.AdjustStock(ctx, AdjustStock{
		ProductID:   "prod-1",
		WarehouseID: "wh-1",
		Direction:   "increase",
		Quantity:    3,
	})

	require.NoError(t, err)
	assert.Equal(t, 3, rec.Quantity)
	assert.Equal(t, ledger.MovementAdjust, mv.Type)
	assert.Equal(t, ledger.DirectionIncrease, mv.Direction)
}

func TestHandler_AdjustStock_MissingDirection(t *testing.T) {
	handler, _ := newTestHandler()
	ctx := context.Background()

	_, _, err := handler.AdjustStock(ctx, AdjustStock{
		ProductID:   "prod-1",
		WarehouseID: "wh-1",
		Quantity:    3,
	})

	assert.ErrorIs(t, err, ledger.ErrInvalidMovement)
}

func TestHandler_RecordDamage(t *testing.T) {
	handler, stockStore := newTestHandler()
	ctx := context.Background()

	stockStore.SetRecord(ledger.StockRecord{
		Key:      ledger.Key{ProductID: "prod-1", WarehouseID: "wh-1"},
		Quantity: 5, Version: 1,
	})

	rec, mv, err := handler.RecordDamage(ctx, RecordDamage{
		ProductID:   "prod-1",
		WarehouseID: "wh-1",
		Quantity:    2,
	})

	require.NoError(t, err)
	assert.Equal(t, 3, rec.Quantity)
	assert.Equal(t, ledger.MovementDamage, mv.Type)
}

func TestHandler_TransferStock(t *testing.T) {
	handler, stockStore := newTestHandler()
	ctx := context.Background()

	stockStore.SetRecord(ledger.StockRecord{
		Key:      ledger.Key{ProductID: "prod-1", WarehouseID: "wh-1"},
		Quantity: 20, Version: 1,
	})

	result, err := handler.TransferStock(ctx, TransferStock{
		ProductID:       "prod-1",
		FromWarehouseID: "wh-1",
		ToWarehouseID:   "wh-2",
		Quantity:        8,
	})

	require.NoError(t, err)
	assert.Equal(t, 12, result.Source.Quantity)
	assert.Equal(t, 8, result.Destination.Quantity)
	assert.Equal(t, result.Outbound.TransferRef, result.Inbound.TransferRef)
}

func TestHandler_ReserveAndReleaseStock(t *testing.T) {
	handler, stockStore := newTestHandler()
	ctx := context.Background()

	stockStore.SetRecord(ledger.StockRecord{
		Key:      ledger.Key{ProductID: "prod-1", WarehouseID: "wh-1"},
		Quantity: 10, Version: 1,
	})

	rec, err := handler.ReserveStock(ctx, ReserveStock{
		ProductID: "prod-1", WarehouseID: "wh-1", Quantity: 4,
	})
	require.NoError(t, err)
	assert.Equal(t, 4, rec.ReservedQuantity)

	rec, err = handler.ReleaseStock(ctx, ReleaseStock{
		ProductID: "prod-1", WarehouseID: "wh-1", Quantity: 4,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, rec.ReservedQuantity)
}

func TestHandler_SetStockThresholds(t *testing.T) {
	handler, _ := newTestHandler()
	ctx := context.Background()

	rec, err := handler.SetStockThresholds(ctx, SetStockThresholds{
		ProductID:     "prod-1",
		WarehouseID:   "wh-1",
		MinStockLevel: 5,
		MaxStockLevel: 50,
		ReorderPoint:  10,
	})

	require.NoError(t, err)
	assert.Equal(t, 5, rec.MinStockLevel)
	assert.Equal(t, 50, rec.MaxStockLevel)
	assert.Equal(t, 10, rec.ReorderPoint)
}

// ============================================
// Conflict Retry Tests
// ============================================

func TestHandler_RetriesOnConcurrencyConflict(t *testing.T) {
	handler, stockStore := newTestHandler()
	ctx := context.Background()

	attempts := 0
	stockStore.CommitCallback = func(ctx context.Context, records []*ledger.StockRecord, movements []*ledger.Movement) error {
		attempts++
		if attempts < 3 {
			return ledger.ErrConcurrencyConflict
		}
		return nil
	}

	rec, _, err := handler.ReceiveStock(ctx, ReceiveStock{
		ProductID: "prod-1", WarehouseID: "wh-1", Quantity: 5,
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, 5, rec.Quantity)
}

func TestHandler_GivesUpAfterMaxAttempts(t *testing.T) {
	handler, stockStore := newTestHandler()
	ctx := context.Background()

	stockStore.CommitCallback = func(ctx context.Context, records []*ledger.StockRecord, movements []*ledger.Movement) error {
		return ledger.ErrConcurrencyConflict
	}

	_, _, err := handler.ReceiveStock(ctx, ReceiveStock{
		ProductID: "prod-1", WarehouseID: "wh-1", Quantity: 5,
	})

	assert.ErrorIs(t, err, ledger.ErrConcurrencyConflict)
	assert.Len(t, stockStore.CommitCalls, maxCommitAttempts)
}

func TestHandler_DoesNotRetryDomainErrors(t *testing.T) {
	handler, stockStore := newTestHandler()
	ctx := context.Background()

	_, _, err := handler.IssueStock(ctx, IssueStock{
		ProductID: "prod-1", WarehouseID: "wh-1", Quantity: 5,
	})

	assert.ErrorIs(t, err, ledger.ErrInsufficientStock)
	assert.Empty(t, stockStore.CommitCalls)
}

// ============================================
// PriceOrder Tests
// ============================================

func TestHandler_PriceOrder(t *testing.T) {
	handler, stockStore := newTestHandler()

	result, err := handler.PriceOrder(PriceOrder{
		Lines: []SaleLine{
			{ProductID: "prod-1", Quantity: 2, UnitPrice: price("10.00")},
		},
		DiscountAmount: price("2.00"),
		PaidAmount:     price("20.00"),
	})

	require.NoError(t, err)
	assert.True(t, result.Totals.Subtotal.Equal(price("20.00")))
	assert.True(t, result.Totals.TaxAmount.Equal(price("2.00")))
	assert.True(t, result.Totals.TotalAmount.Equal(price("20.00")))
	assert.Equal(t, pricing.PaymentPaid, result.PaymentStatus)

	// Pure computation, nothing committed
	assert.Empty(t, stockStore.CommitCalls)
	assert.Empty(t, result.Movements)
}

func TestHandler_PriceOrder_EmptySale(t *testing.T) {
	handler, _ := newTestHandler()

	_, err := handler.PriceOrder(PriceOrder{})

	assert.ErrorIs(t, err, ErrEmptySale)
}

// ============================================
// CheckoutSale Tests
// ============================================

func TestHandler_CheckoutSale(t *testing.T) {
	handler, stockStore := newTestHandler()
	ctx := context.Background()

	stockStore.SetRecord(ledger.StockRecord{
		Key:      ledger.Key{ProductID: "prod-1", WarehouseID: "wh-1"},
		Quantity: 10, Version: 1,
	})
	stockStore.SetRecord(ledger.StockRecord{
		Key:      ledger.Key{ProductID: "prod-2", WarehouseID: "wh-1"},
		Quantity: 4, Version: 1,
	})

	result, err := handler.CheckoutSale(ctx, CheckoutSale{
		WarehouseID: "wh-1",
		Lines: []SaleLine{
			{ProductID: "prod-1", Quantity: 3, UnitPrice: price("15.00")},
			{ProductID: "prod-2", Quantity: 1, UnitPrice: price("5.00")},
		},
		PaidAmount: price("30.00"),
		UserID:     "cashier-1",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, result.SaleID)
	assert.True(t, result.Totals.Subtotal.Equal(price("50.00")))
	assert.True(t, result.Totals.TotalAmount.Equal(price("55.00")))
	assert.Equal(t, pricing.PaymentPartiallyPaid, result.PaymentStatus)

	// One OUT movement per line, all under the sale reference
	require.Len(t, result.Movements, 2)
	for _, mv := range result.Movements {
		assert.Equal(t, ledger.MovementOut, mv.Type)
		assert.Equal(t, result.SaleID, mv.ReferenceNumber)
	}

	// Stock was decremented
	rec, err := stockStore.Get(ctx, ledger.Key{ProductID: "prod-1", WarehouseID: "wh-1"})
	require.NoError(t, err)
	assert.Equal(t, 7, rec.Quantity)
}

func TestHandler_CheckoutSale_EmptySale(t *testing.T) {
	handler, stockStore := newTestHandler()
	ctx := context.Background()

	_, err := handler.CheckoutSale(ctx, CheckoutSale{WarehouseID: "wh-1"})

	assert.ErrorIs(t, err, ErrEmptySale)
	assert.Empty(t, stockStore.CommitCalls)
}

func TestHandler_CheckoutSale_InsufficientStock(t *testing.T) {
	handler, stockStore := newTestHandler()
	ctx := context.Background()

	stockStore.SetRecord(ledger.StockRecord{
		Key:      ledger.Key{ProductID: "prod-1", WarehouseID: "wh-1"},
		Quantity: 2, Version: 1,
	})

	_, err := handler.CheckoutSale(ctx, CheckoutSale{
		WarehouseID: "wh-1",
		Lines: []SaleLine{
			{ProductID: "prod-1", Quantity: 3, UnitPrice: price("15.00")},
		},
	})

	assert.ErrorIs(t, err, ledger.ErrInsufficientStock)
}

func TestHandler_CheckoutSale_FromReservation(t *testing.T) {
	handler, stockStore := newTestHandler()
	ctx := context.Background()

	stockStore.SetRecord(ledger.StockRecord{
		Key:      ledger.Key{ProductID: "prod-1", WarehouseID: "wh-1"},
		Quantity: 10, ReservedQuantity: 3, Version: 1,
	})

	result, err := handler.CheckoutSale(ctx, CheckoutSale{
		WarehouseID:     "wh-1",
		FromReservation: true,
		Lines: []SaleLine{
			{ProductID: "prod-1", Quantity: 3, UnitPrice: price("10.00")},
		},
		PaidAmount: price("33.00"),
	})

	require.NoError(t, err)
	assert.Equal(t, pricing.PaymentPaid, result.PaymentStatus)

	rec, err := stockStore.Get(ctx, ledger.Key{ProductID: "prod-1", WarehouseID: "wh-1"})
	require.NoError(t, err)
	assert.Equal(t, 7, rec.Quantity)
	assert.Equal(t, 0, rec.ReservedQuantity)
}

func TestHandler_CheckoutSale_CustomReference(t *testing.T) {
	handler, stockStore := newTestHandler()
	ctx := context.Background()

	stockStore.SetRecord(ledger.StockRecord{
		Key:      ledger.Key{ProductID: "prod-1", WarehouseID: "wh-1"},
		Quantity: 5, Version: 1,
	})

	result, err := handler.CheckoutSale(ctx, CheckoutSale{
		WarehouseID:     "wh-1",
		ReferenceNumber: "POS-REG1-42",
		Lines: []SaleLine{
			{ProductID: "prod-1", Quantity: 1, UnitPrice: price("1.00")},
		},
	})

	require.NoError(t, err)
	require.Len(t, result.Movements, 1)
	assert.Equal(t, "POS-REG1-42", result.Movements[0].ReferenceNumber)
}
