package query

import (
	"sort"

	"github.com/example/pos-backoffice/internal/infrastructure/store"
	"github.com/example/pos-backoffice/internal/readmodel"
)

type Handler struct {
	readStore store.ReadStoreInterface
}

func NewHandler(readStore store.ReadStoreInterface) *Handler {
	return &Handler{readStore: readStore}
}

// Stock levels

func (h *Handler) GetStockLevel(id string) (*readmodel.StockLevelReadModel, bool) {
	data, ok := h.readStore.Get("stock_levels", id)
	if !ok {
		return nil, false
	}
	return data.(*readmodel.StockLevelReadModel), true
}

func (h *Handler) ListStockLevels() []*readmodel.StockLevelReadModel {
	items := h.readStore.GetAll("stock_levels")
	levels := make([]*readmodel.StockLevelReadModel, 0, len(items))
	for _, item := range items {
		levels = append(levels, item.(*readmodel.StockLevelReadModel))
	}
	sort.Slice(levels, func(i, j int) bool { return levels[i].ID < levels[j].ID })
	return levels
}

func (h *Handler) ListStockLevelsByProduct(productID string) []*readmodel.StockLevelReadModel {
	var levels []*readmodel.StockLevelReadModel
	for _, level := range h.ListStockLevels() {
		if level.ProductID == productID {
			levels = append(levels, level)
		}
	}
	return levels
}

// ListLowStock returns levels at or below their reorder point.
func (h *Handler) ListLowStock() []*readmodel.StockLevelReadModel {
	var levels []*readmodel.StockLevelReadModel
	for _, level := range h.ListStockLevels() {
		if level.LowStock {
			levels = append(levels, level)
		}
	}
	return levels
}

// Movements

func (h *Handler) ListMovements() []*readmodel.MovementReadModel {
	items := h.readStore.GetAll("movements")
	movements := make([]*readmodel.MovementReadModel, 0, len(items))
	for _, item := range items {
		movements = append(movements, item.(*readmodel.MovementReadModel))
	}
	sort.Slice(movements, func(i, j int) bool {
		return movements[i].CreatedAt.Before(movements[j].CreatedAt)
	})
	return movements
}

func (h *Handler) ListMovementsByProduct(productID string) []*readmodel.MovementReadModel {
	var movements []*readmodel.MovementReadModel
	for _, m := range h.ListMovements() {
		if m.ProductID == productID {
			movements = append(movements, m)
		}
	}
	return movements
}
