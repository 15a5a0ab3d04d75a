package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidMovement            = errors.New("invalid movement")
	ErrInsufficientStock          = errors.New("insufficient stock")
	ErrInsufficientAvailableStock = errors.New("insufficient available stock")
	ErrInvalidReservation         = errors.New("invalid reservation")
	ErrConcurrencyConflict        = errors.New("stock record modified concurrently")
)

// Service maintains per-(product, warehouse, location) stock records, driven
// exclusively by appending movements. All writes go through the store as a
// single atomic commit; concurrent writers on the same key are serialized by
// the store's version check.
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// resolveDirection is the single place that maps a movement type to a sign.
func resolveDirection(t MovementType, d Direction) (Direction, error) {
	switch t {
	case MovementIn, MovementReturn:
		return DirectionIncrease, nil
	case MovementOut, MovementDamage:
		return DirectionDecrease, nil
	case MovementAdjust:
		if d != DirectionIncrease && d != DirectionDecrease {
			return "", fmt.Errorf("%w: ADJUST requires an explicit direction", ErrInvalidMovement)
		}
		return d, nil
	default:
		return "", fmt.Errorf("%w: unknown movement type %q", ErrInvalidMovement, t)
	}
}

// applyDelta mutates on-hand stock, enforcing the non-negative invariant.
// When a physical decrease dips below the reserved amount, the reservation is
// clamped down so reserved never exceeds on-hand.
func applyDelta(rec *StockRecord, dir Direction, amount int) error {
	if dir == DirectionDecrease {
		if rec.Quantity-amount < 0 {
			return fmt.Errorf("%w: %d on hand at %s, %d requested",
				ErrInsufficientStock, rec.Quantity, rec.Key, amount)
		}
		rec.Quantity -= amount
		if rec.ReservedQuantity > rec.Quantity {
			rec.ReservedQuantity = rec.Quantity
		}
		return nil
	}
	rec.Quantity += amount
	return nil
}

// ApplyMovement appends one ledger entry and updates the target record in a
// single atomic commit. The record is created on demand with zero quantity
// when no stock has been tracked at the key before. Returns the updated
// record snapshot together with the committed movement.
func (s *Service) ApplyMovement(ctx context.Context, in MovementInput) (*StockRecord, *Movement, error) {
	if in.Quantity <= 0 {
		return nil, nil, fmt.Errorf("%w: quantity must be positive, got %d", ErrInvalidMovement, in.Quantity)
	}
	if in.Type == MovementTransfer {
		return nil, nil, fmt.Errorf("%w: transfers must go through Transfer", ErrInvalidMovement)
	}
	dir, err := resolveDirection(in.Type, in.Direction)
	if err != nil {
		return nil, nil, err
	}

	key := in.key()
	rec, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load stock record: %w", err)
	}
	if rec == nil {
		rec = &StockRecord{Key: key}
	}

	if err := applyDelta(rec, dir, in.Quantity); err != nil {
		return nil, nil, err
	}

	now := time.Now()
	rec.LastMovementAt = now
	rec.Version++

	movement := &Movement{
		ID:              uuid.New().String(),
		Key:             key,
		Type:            in.Type,
		Direction:       dir,
		Quantity:        in.Quantity,
		ReferenceNumber: in.ReferenceNumber,
		Notes:           in.Notes,
		UserID:          in.UserID,
		CreatedAt:       now,
	}

	if err := s.store.Commit(ctx, []*StockRecord{rec}, []*Movement{movement}); err != nil {
		return nil, nil, err
	}

	snapshot := *rec
	return &snapshot, movement, nil
}

// Transfer moves stock between two keys as one atomic unit: the source is
// decremented, the destination incremented, and two linked movements sharing
// a transfer reference are appended together.
func (s *Service) Transfer(ctx context.Context, in TransferInput) (*TransferResult, error) {
	if in.Quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive, got %d", ErrInvalidMovement, in.Quantity)
	}
	from := Key{ProductID: in.ProductID, WarehouseID: in.FromWarehouseID, LocationID: in.FromLocationID}
	to := Key{ProductID: in.ProductID, WarehouseID: in.ToWarehouseID, LocationID: in.ToLocationID}
	if from == to {
		return nil, fmt.Errorf("%w: transfer source and destination are identical", ErrInvalidMovement)
	}

	src, err := s.store.Get(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("failed to load source record: %w", err)
	}
	if src == nil {
		src = &StockRecord{Key: from}
	}
	dst, err := s.store.Get(ctx, to)
	if err != nil {
		return nil, fmt.Errorf("failed to load destination record: %w", err)
	}
	if dst == nil {
		dst = &StockRecord{Key: to}
	}

	if err := applyDelta(src, DirectionDecrease, in.Quantity); err != nil {
		return nil, err
	}
	if err := applyDelta(dst, DirectionIncrease, in.Quantity); err != nil {
		return nil, err
	}

	now := time.Now()
	src.LastMovementAt = now
	src.Version++
	dst.LastMovementAt = now
	dst.Version++

	transferRef := uuid.New().String()
	outbound := &Movement{
		ID:              uuid.New().String(),
		Key:             from,
		Type:            MovementTransfer,
		Direction:       DirectionDecrease,
		Quantity:        in.Quantity,
		ReferenceNumber: in.ReferenceNumber,
		TransferRef:     transferRef,
		Notes:           in.Notes,
		UserID:          in.UserID,
		CreatedAt:       now,
	}
	inbound := &Movement{
		ID:              uuid.New().String(),
		Key:             to,
		Type:            MovementTransfer,
		Direction:       DirectionIncrease,
		Quantity:        in.Quantity,
		ReferenceNumber: in.ReferenceNumber,
		TransferRef:     transferRef,
		Notes:           in.Notes,
		UserID:          in.UserID,
		CreatedAt:       now,
	}

	// Stable commit order across concurrent opposite-direction transfers.
	records := []*StockRecord{src, dst}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Key.String() < records[j].Key.String()
	})

	if err := s.store.Commit(ctx, records, []*Movement{outbound, inbound}); err != nil {
		return nil, err
	}

	srcSnap, dstSnap := *src, *dst
	return &TransferResult{
		Source:      &srcSnap,
		Destination: &dstSnap,
		Outbound:    outbound,
		Inbound:     inbound,
	}, nil
}

// Reserve earmarks available stock. A reservation never appends a ledger
// entry; it changes no physical quantity.
func (s *Service) Reserve(ctx context.Context, key Key, amount int) (*StockRecord, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive, got %d", ErrInvalidReservation, amount)
	}
	rec, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to load stock record: %w", err)
	}
	if rec == nil {
		rec = &StockRecord{Key: key}
	}
	if amount > rec.AvailableQuantity() {
		return nil, fmt.Errorf("%w: %d available at %s, %d requested",
			ErrInsufficientAvailableStock, rec.AvailableQuantity(), key, amount)
	}

	rec.ReservedQuantity += amount
	rec.Version++
	if err := s.store.Commit(ctx, []*StockRecord{rec}, nil); err != nil {
		return nil, err
	}

	snapshot := *rec
	return &snapshot, nil
}

// Release returns earmarked stock. Over-release is rejected rather than
// clamped, to surface caller bugs.
func (s *Service) Release(ctx context.Context, key Key, amount int) (*StockRecord, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive, got %d", ErrInvalidReservation, amount)
	}
	rec, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to load stock record: %w", err)
	}
	if rec == nil || amount > rec.ReservedQuantity {
		reserved := 0
		if rec != nil {
			reserved = rec.ReservedQuantity
		}
		return nil, fmt.Errorf("%w: %d reserved at %s, release of %d requested",
			ErrInvalidReservation, reserved, key, amount)
	}

	rec.ReservedQuantity -= amount
	rec.Version++
	if err := s.store.Commit(ctx, []*StockRecord{rec}, nil); err != nil {
		return nil, err
	}

	snapshot := *rec
	return &snapshot, nil
}

// SetThresholds updates informational stock levels (min/max/reorder) without
// touching quantities.
func (s *Service) SetThresholds(ctx context.Context, key Key, min, max, reorderPoint int) (*StockRecord, error) {
	rec, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to load stock record: %w", err)
	}
	if rec == nil {
		rec = &StockRecord{Key: key}
	}

	rec.MinStockLevel = min
	rec.MaxStockLevel = max
	rec.ReorderPoint = reorderPoint
	rec.Version++
	if err := s.store.Commit(ctx, []*StockRecord{rec}, nil); err != nil {
		return nil, err
	}

	snapshot := *rec
	return &snapshot, nil
}

// GetStock returns record snapshots for a product, optionally filtered to one
// warehouse. Read-only.
func (s *Service) GetStock(ctx context.Context, productID, warehouseID string) ([]StockRecord, error) {
	records, err := s.store.List(ctx, productID, warehouseID)
	if err != nil {
		return nil, err
	}
	snapshots := make([]StockRecord, 0, len(records))
	for _, rec := range records {
		snapshots = append(snapshots, *rec)
	}
	return snapshots, nil
}

// Movements returns the ledger entries for one key, oldest first.
func (s *Service) Movements(ctx context.Context, key Key) ([]Movement, error) {
	return s.store.Movements(ctx, key)
}
