package store

import (
	"database/sql"
	"log"

	"github.com/example/pos-backoffice/internal/readmodel"
)

// PostgresReadStore implements ReadStoreInterface using PostgreSQL. Read
// models live in their own tables (read_stock_levels, read_movements) so the
// read side can be rebuilt from the ledger at any time.
type PostgresReadStore struct {
	db *sql.DB
}

// NewPostgresReadStore creates a new PostgreSQL-based read store
func NewPostgresReadStore(db *sql.DB) *PostgresReadStore {
	return &PostgresReadStore{db: db}
}

// Set stores a read model
func (rs *PostgresReadStore) Set(collection, id string, data any) {
	switch collection {
	case "stock_levels":
		rs.setStockLevel(id, data.(*readmodel.StockLevelReadModel))
	case "movements":
		rs.setMovement(id, data.(*readmodel.MovementReadModel))
	}
}

// Get retrieves a read model by id
func (rs *PostgresReadStore) Get(collection, id string) (any, bool) {
	switch collection {
	case "stock_levels":
		return rs.getStockLevel(id)
	case "movements":
		return rs.getMovement(id)
	}
	return nil, false
}

// GetAll retrieves all items in a collection
func (rs *PostgresReadStore) GetAll(collection string) []any {
	switch collection {
	case "stock_levels":
		return rs.getAllStockLevels()
	case "movements":
		return rs.getAllMovements()
	}
	return nil
}

// Delete removes a read model
func (rs *PostgresReadStore) Delete(collection, id string) {
	var table string
	switch collection {
	case "stock_levels":
		table = "read_stock_levels"
	case "movements":
		table = "read_movements"
	default:
		return
	}
	if _, err := rs.db.Exec(`DELETE FROM `+table+` WHERE id = $1`, id); err != nil {
		log.Printf("[ReadStore] Failed to delete %s/%s: %v", collection, id, err)
	}
}

// Update modifies a read model using an update function
func (rs *PostgresReadStore) Update(collection, id string, updateFn func(current any) any) bool {
	current, ok := rs.Get(collection, id)
	if !ok {
		return false
	}
	rs.Set(collection, id, updateFn(current))
	return true
}

func (rs *PostgresReadStore) setStockLevel(id string, m *readmodel.StockLevelReadModel) {
	_, err := rs.db.Exec(
		`INSERT INTO read_stock_levels
		 (id, product_id, warehouse_id, location_id, quantity, reserved_quantity,
		  available_quantity, min_stock_level, max_stock_level, reorder_point,
		  low_stock, last_movement_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 ON CONFLICT (id) DO UPDATE SET
		   quantity = EXCLUDED.quantity,
		   reserved_quantity = EXCLUDED.reserved_quantity,
		   available_quantity = EXCLUDED.available_quantity,
		   min_stock_level = EXCLUDED.min_stock_level,
		   max_stock_level = EXCLUDED.max_stock_level,
		   reorder_point = EXCLUDED.reorder_point,
		   low_stock = EXCLUDED.low_stock,
		   last_movement_at = EXCLUDED.last_movement_at,
		   updated_at = EXCLUDED.updated_at`,
		id, m.ProductID, m.WarehouseID, m.LocationID, m.Quantity, m.ReservedQuantity,
		m.AvailableQuantity, m.MinStockLevel, m.MaxStockLevel, m.ReorderPoint,
		m.LowStock, m.LastMovementAt, m.UpdatedAt,
	)
	if err != nil {
		log.Printf("[ReadStore] Failed to set stock level %s: %v", id, err)
	}
}

func (rs *PostgresReadStore) getStockLevel(id string) (any, bool) {
	row := rs.db.QueryRow(
		`SELECT id, product_id, warehouse_id, location_id, quantity, reserved_quantity,
		        available_quantity, min_stock_level, max_stock_level, reorder_point,
		        low_stock, last_movement_at, updated_at
		 FROM read_stock_levels WHERE id = $1`, id)

	m, err := scanStockLevel(row)
	if err != nil {
		if err != sql.ErrNoRows {
			log.Printf("[ReadStore] Failed to get stock level %s: %v", id, err)
		}
		return nil, false
	}
	return m, true
}

func (rs *PostgresReadStore) getAllStockLevels() []any {
	rows, err := rs.db.Query(
		`SELECT id, product_id, warehouse_id, location_id, quantity, reserved_quantity,
		        available_quantity, min_stock_level, max_stock_level, reorder_point,
		        low_stock, last_movement_at, updated_at
		 FROM read_stock_levels ORDER BY id`)
	if err != nil {
		log.Printf("[ReadStore] Failed to list stock levels: %v", err)
		return nil
	}
	defer rows.Close()

	var items []any
	for rows.Next() {
		m, err := scanStockLevel(rows)
		if err != nil {
			log.Printf("[ReadStore] Failed to scan stock level: %v", err)
			continue
		}
		items = append(items, m)
	}
	return items
}

func scanStockLevel(row rowScanner) (*readmodel.StockLevelReadModel, error) {
	var m readmodel.StockLevelReadModel
	err := row.Scan(
		&m.ID, &m.ProductID, &m.WarehouseID, &m.LocationID, &m.Quantity, &m.ReservedQuantity,
		&m.AvailableQuantity, &m.MinStockLevel, &m.MaxStockLevel, &m.ReorderPoint,
		&m.LowStock, &m.LastMovementAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (rs *PostgresReadStore) setMovement(id string, m *readmodel.MovementReadModel) {
	_, err := rs.db.Exec(
		`INSERT INTO read_movements
		 (id, product_id, warehouse_id, location_id, movement_type, direction,
		  quantity, reference_number, transfer_ref, notes, user_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 ON CONFLICT (id) DO NOTHING`,
		id, m.ProductID, m.WarehouseID, m.LocationID, m.MovementType, m.Direction,
		m.Quantity, m.ReferenceNumber, m.TransferRef, m.Notes, m.UserID, m.CreatedAt,
	)
	if err != nil {
		log.Printf("[ReadStore] Failed to set movement %s: %v", id, err)
	}
}

func (rs *PostgresReadStore) getMovement(id string) (any, bool) {
	row := rs.db.QueryRow(
		`SELECT id, product_id, warehouse_id, location_id, movement_type, direction,
		        quantity, reference_number, transfer_ref, notes, user_id, created_at
		 FROM read_movements WHERE id = $1`, id)

	m, err := scanMovementReadModel(row)
	if err != nil {
		if err != sql.ErrNoRows {
			log.Printf("[ReadStore] Failed to get movement %s: %v", id, err)
		}
		return nil, false
	}
	return m, true
}

func (rs *PostgresReadStore) getAllMovements() []any {
	rows, err := rs.db.Query(
		`SELECT id, product_id, warehouse_id, location_id, movement_type, direction,
		        quantity, reference_number, transfer_ref, notes, user_id, created_at
		 FROM read_movements ORDER BY created_at ASC`)
	if err != nil {
		log.Printf("[ReadStore] Failed to list movements: %v", err)
		return nil
	}
	defer rows.Close()

	var items []any
	for rows.Next() {
		m, err := scanMovementReadModel(rows)
		if err != nil {
			log.Printf("[ReadStore] Failed to scan movement: %v", err)
			continue
		}
		items = append(items, m)
	}
	return items
}

func scanMovementReadModel(row rowScanner) (*readmodel.MovementReadModel, error) {
	var m readmodel.MovementReadModel
	err := row.Scan(
		&m.ID, &m.ProductID, &m.WarehouseID, &m.LocationID, &m.MovementType, &m.Direction,
		&m.Quantity, &m.ReferenceNumber, &m.TransferRef, &m.Notes, &m.UserID, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}
