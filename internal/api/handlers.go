package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/example/pos-backoffice/internal/command"
	"github.com/example/pos-backoffice/internal/domain/ledger"
	"github.com/example/pos-backoffice/internal/query"
)

type Handlers struct {
	cmdHandler   *command.Handler
	queryHandler *query.Handler
}

func NewHandlers(cmdHandler *command.Handler, queryHandler *query.Handler) *Handlers {
	return &Handlers{
		cmdHandler:   cmdHandler,
		queryHandler: queryHandler,
	}
}

// Stock Movement Handlers

func (h *Handlers) ReceiveStock(w http.ResponseWriter, r *http.Request) {
	var cmd command.ReceiveStock
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	rec, mv, err := h.cmdHandler.ReceiveStock(r.Context(), cmd)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, movementResponse{Record: rec, Movement: mv})
}

func (h *Handlers) IssueStock(w http.ResponseWriter, r *http.Request) {
	var cmd command.IssueStock
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	rec, mv, err := h.cmdHandler.IssueStock(r.Context(), cmd)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, movementResponse{Record: rec, Movement: mv})
}

func (h *Handlers) AdjustStock(w http.ResponseWriter, r *http.Request) {
	var cmd command.AdjustStock
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	rec, mv, err := h.cmdHandler.AdjustStock(r.Context(), cmd)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, movementResponse{Record: rec, Movement: mv})
}

func (h *Handlers) RecordDamage(w http.ResponseWriter, r *http.Request) {
	var cmd command.RecordDamage
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	rec, mv, err := h.cmdHandler.RecordDamage(r.Context(), cmd)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, movementResponse{Record: rec, Movement: mv})
}

func (h *Handlers) ReturnStock(w http.ResponseWriter, r *http.Request) {
	var cmd command.ReturnStock
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	rec, mv, err := h.cmdHandler.ReturnStock(r.Context(), cmd)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, movementResponse{Record: rec, Movement: mv})
}

func (h *Handlers) TransferStock(w http.ResponseWriter, r *http.Request) {
	var cmd command.TransferStock
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.cmdHandler.TransferStock(r.Context(), cmd)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, result)
}

// Reservation Handlers

func (h *Handlers) ReserveStock(w http.ResponseWriter, r *http.Request) {
	var cmd command.ReserveStock
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	rec, err := h.cmdHandler.ReserveStock(r.Context(), cmd)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, rec)
}

func (h *Handlers) ReleaseStock(w http.ResponseWriter, r *http.Request) {
	var cmd command.ReleaseStock
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	rec, err := h.cmdHandler.ReleaseStock(r.Context(), cmd)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, rec)
}

func (h *Handlers) SetStockThresholds(w http.ResponseWriter, r *http.Request) {
	var cmd command.SetStockThresholds
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	rec, err := h.cmdHandler.SetStockThresholds(r.Context(), cmd)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, rec)
}

// Stock Query Handlers

// GetStock serves live, strongly consistent record snapshots from the ledger.
func (h *Handlers) GetStock(w http.ResponseWriter, r *http.Request) {
	productID := r.URL.Query().Get("product_id")
	if productID == "" {
		http.Error(w, "product_id is required", http.StatusBadRequest)
		return
	}
	warehouseID := r.URL.Query().Get("warehouse_id")

	records, err := h.cmdHandler.GetStock(r.Context(), productID, warehouseID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, records)
}

// GetStockLevels serves the (asynchronously projected) stock-level view.
func (h *Handlers) GetStockLevels(w http.ResponseWriter, r *http.Request) {
	if productID := r.URL.Query().Get("product_id"); productID != "" {
		respondJSON(w, http.StatusOK, h.queryHandler.ListStockLevelsByProduct(productID))
		return
	}
	respondJSON(w, http.StatusOK, h.queryHandler.ListStockLevels())
}

func (h *Handlers) GetMovements(w http.ResponseWriter, r *http.Request) {
	if productID := r.URL.Query().Get("product_id"); productID != "" {
		respondJSON(w, http.StatusOK, h.queryHandler.ListMovementsByProduct(productID))
		return
	}
	respondJSON(w, http.StatusOK, h.queryHandler.ListMovements())
}

func (h *Handlers) GetLowStock(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.queryHandler.ListLowStock())
}

// Sale Handlers

func (h *Handlers) PriceOrder(w http.ResponseWriter, r *http.Request) {
	var cmd command.PriceOrder
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.cmdHandler.PriceOrder(cmd)
	if err != nil {
		if errors.Is(err, command.ErrEmptySale) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (h *Handlers) CheckoutSale(w http.ResponseWriter, r *http.Request) {
	var cmd command.CheckoutSale
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.cmdHandler.CheckoutSale(r.Context(), cmd)
	if err != nil {
		if errors.Is(err, command.ErrEmptySale) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeLedgerError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, result)
}

// Helpers

type movementResponse struct {
	Record   *ledger.StockRecord `json:"record"`
	Movement *ledger.Movement    `json:"movement"`
}

func writeLedgerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrInvalidMovement),
		errors.Is(err, ledger.ErrInvalidReservation):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ledger.ErrInsufficientStock),
		errors.Is(err, ledger.ErrInsufficientAvailableStock),
		errors.Is(err, ledger.ErrConcurrencyConflict):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
