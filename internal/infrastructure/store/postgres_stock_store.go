package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	_ "github.com/lib/pq"

	"github.com/example/pos-backoffice/internal/domain/ledger"
)

// PostgresStockStore persists stock records and the movement ledger in
// PostgreSQL. A commit runs in one transaction: version-checked record
// upserts plus movement inserts, so a record update is never observable
// without its ledger entry.
type PostgresStockStore struct {
	db        *sql.DB
	publisher Publisher
}

// NewPostgresStockStore creates a PostgreSQL-backed store. publisher may be nil.
func NewPostgresStockStore(db *sql.DB, publisher Publisher) *PostgresStockStore {
	return &PostgresStockStore{db: db, publisher: publisher}
}

const stockRecordColumns = `product_id, warehouse_id, location_id, quantity, reserved_quantity,
	min_stock_level, max_stock_level, reorder_point, last_movement_at, version`

func (ps *PostgresStockStore) Get(ctx context.Context, key ledger.Key) (*ledger.StockRecord, error) {
	row := ps.db.QueryRowContext(ctx,
		`SELECT `+stockRecordColumns+`
		 FROM stock_records
		 WHERE product_id = $1 AND warehouse_id = $2 AND location_id = $3`,
		key.ProductID, key.WarehouseID, key.LocationID,
	)

	rec, err := scanStockRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return rec, err
}

func (ps *PostgresStockStore) List(ctx context.Context, productID, warehouseID string) ([]*ledger.StockRecord, error) {
	query := `SELECT ` + stockRecordColumns + ` FROM stock_records WHERE product_id = $1`
	args := []any{productID}
	if warehouseID != "" {
		query += ` AND warehouse_id = $2`
		args = append(args, warehouseID)
	}
	query += ` ORDER BY warehouse_id, location_id`

	return ps.queryRecords(ctx, query, args...)
}

func (ps *PostgresStockStore) All(ctx context.Context) ([]*ledger.StockRecord, error) {
	return ps.queryRecords(ctx,
		`SELECT `+stockRecordColumns+` FROM stock_records ORDER BY product_id, warehouse_id, location_id`)
}

func (ps *PostgresStockStore) queryRecords(ctx context.Context, query string, args ...any) ([]*ledger.StockRecord, error) {
	rows, err := ps.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*ledger.StockRecord
	for rows.Next() {
		rec, err := scanStockRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStockRecord(row rowScanner) (*ledger.StockRecord, error) {
	var rec ledger.StockRecord
	err := row.Scan(
		&rec.ProductID, &rec.WarehouseID, &rec.LocationID,
		&rec.Quantity, &rec.ReservedQuantity,
		&rec.MinStockLevel, &rec.MaxStockLevel, &rec.ReorderPoint,
		&rec.LastMovementAt, &rec.Version,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (ps *PostgresStockStore) Commit(ctx context.Context, records []*ledger.StockRecord, movements []*ledger.Movement) error {
	tx, err := ps.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Deterministic row order avoids deadlock between concurrent
	// opposite-direction transfers.
	ordered := make([]*ledger.StockRecord, len(records))
	copy(ordered, records)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].Key.String() < ordered[j].Key.String()
	})

	for _, rec := range ordered {
		if rec.Version == 1 {
			res, err := tx.ExecContext(ctx,
				`INSERT INTO stock_records (`+stockRecordColumns+`)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
				 ON CONFLICT (product_id, warehouse_id, location_id) DO NOTHING`,
				rec.ProductID, rec.WarehouseID, rec.LocationID,
				rec.Quantity, rec.ReservedQuantity,
				rec.MinStockLevel, rec.MaxStockLevel, rec.ReorderPoint,
				rec.LastMovementAt, rec.Version,
			)
			if err != nil {
				return err
			}
			if n, _ := res.RowsAffected(); n == 0 {
				return fmt.Errorf("%w: record already exists at %s", ledger.ErrConcurrencyConflict, rec.Key)
			}
			continue
		}

		res, err := tx.ExecContext(ctx,
			`UPDATE stock_records
			 SET quantity = $4, reserved_quantity = $5,
			     min_stock_level = $6, max_stock_level = $7, reorder_point = $8,
			     last_movement_at = $9, version = $10
			 WHERE product_id = $1 AND warehouse_id = $2 AND location_id = $3
			   AND version = $11`,
			rec.ProductID, rec.WarehouseID, rec.LocationID,
			rec.Quantity, rec.ReservedQuantity,
			rec.MinStockLevel, rec.MaxStockLevel, rec.ReorderPoint,
			rec.LastMovementAt, rec.Version,
			rec.Version-1,
		)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("%w: stale version %d at %s", ledger.ErrConcurrencyConflict, rec.Version, rec.Key)
		}
	}

	for _, m := range movements {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO stock_movements
			 (id, product_id, warehouse_id, location_id, movement_type, direction,
			  quantity, reference_number, transfer_ref, notes, user_id, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			m.ID, m.ProductID, m.WarehouseID, m.LocationID, m.Type, m.Direction,
			m.Quantity, m.ReferenceNumber, m.TransferRef, m.Notes, m.UserID, m.CreatedAt,
		)
		if err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	return publishEvents(ctx, ps.publisher, records, movements)
}

const movementColumns = `id, product_id, warehouse_id, location_id, movement_type, direction,
	quantity, reference_number, transfer_ref, notes, user_id, created_at`

func (ps *PostgresStockStore) Movements(ctx context.Context, key ledger.Key) ([]ledger.Movement, error) {
	return ps.queryMovements(ctx,
		`SELECT `+movementColumns+`
		 FROM stock_movements
		 WHERE product_id = $1 AND warehouse_id = $2 AND location_id = $3
		 ORDER BY created_at ASC`,
		key.ProductID, key.WarehouseID, key.LocationID,
	)
}

func (ps *PostgresStockStore) AllMovements(ctx context.Context) ([]ledger.Movement, error) {
	return ps.queryMovements(ctx,
		`SELECT `+movementColumns+` FROM stock_movements ORDER BY created_at ASC`)
}

func (ps *PostgresStockStore) queryMovements(ctx context.Context, query string, args ...any) ([]ledger.Movement, error) {
	rows, err := ps.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var movements []ledger.Movement
	for rows.Next() {
		var m ledger.Movement
		if err := rows.Scan(
			&m.ID, &m.ProductID, &m.WarehouseID, &m.LocationID, &m.Type, &m.Direction,
			&m.Quantity, &m.ReferenceNumber, &m.TransferRef, &m.Notes, &m.UserID, &m.CreatedAt,
		); err != nil {
			return nil, err
		}
		movements = append(movements, m)
	}
	return movements, rows.Err()
}

// ConnectPostgres establishes a connection to PostgreSQL
func ConnectPostgres(connStr string) (*sql.DB, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	// Test connection
	if err := db.Ping(); err != nil {
		return nil, err
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}
