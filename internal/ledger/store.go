package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx so the store can run
// standalone or inside a caller-owned transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store performs atomic stock operations against products rows.
type Store struct {
	db DBTX
}

// NewStore constructs a Store over a pool or transaction.
func NewStore(db DBTX) *Store {
	return &Store{db: db}
}

// ReserveAndDeduct atomically decrements a product's quantity, failing when
// fewer than qty units are available. It returns the quantity before the
// deduction. The guard is a single conditional update so two concurrent
// sales can never both win the last unit.
func (s *Store) ReserveAndDeduct(ctx context.Context, productID int64, qty int) (int, error) {
	if qty <= 0 {
		return 0, fmt.Errorf("ledger: deduct quantity must be positive, got %d", qty)
	}
	var prev int
	err := s.db.QueryRow(ctx,
		`UPDATE products SET quantity = quantity - $2, updated_at = NOW() WHERE id = $1 AND quantity >= $2 RETURNING quantity + $2`,
		productID, qty,
	).Scan(&prev)
	if err == nil {
		return prev, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("ledger: deduct product %d: %w", productID, err)
	}

	// No row updated: distinguish a missing product from a failed guard.
	var name string
	var available int
	err = s.db.QueryRow(ctx, `SELECT name, quantity FROM products WHERE id = $1`, productID).Scan(&name, &available)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrProductMissing
	}
	if err != nil {
		return 0, fmt.Errorf("ledger: inspect product %d: %w", productID, err)
	}
	return 0, &InsufficientStockError{ProductName: name, Requested: qty, Available: available}
}

// Restore atomically increments a product's quantity, reversing a prior
// deduction. Quantity has no upper bound so this never fails a guard.
func (s *Store) Restore(ctx context.Context, productID int64, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("ledger: restore quantity must be positive, got %d", qty)
	}
	tag, err := s.db.Exec(ctx,
		`UPDATE products SET quantity = quantity + $2, updated_at = NOW() WHERE id = $1`,
		productID, qty,
	)
	if err != nil {
		return fmt.Errorf("ledger: restore product %d: %w", productID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProductMissing
	}
	return nil
}

// GetQuantity returns the current on-hand quantity.
func (s *Store) GetQuantity(ctx context.Context, productID int64) (int, error) {
	var qty int
	err := s.db.QueryRow(ctx, `SELECT quantity FROM products WHERE id = $1`, productID).Scan(&qty)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrProductMissing
	}
	if err != nil {
		return 0, err
	}
	return qty, nil
}

// RecordMovement appends a stock card entry.
func (s *Store) RecordMovement(ctx context.Context, m Movement) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO stock_movements (product_id, sale_id, movement_type, qty, unit_price, note, occurred_at) VALUES ($1, $2, $3, $4, $5, $6, NOW())`,
		m.ProductID, m.SaleID, string(m.Type), m.Qty, m.UnitPrice, m.Note,
	)
	if err != nil {
		return fmt.Errorf("ledger: record movement: %w", err)
	}
	return nil
}

// ListMovements returns the stock card for a product, newest first.
func (s *Store) ListMovements(ctx context.Context, productID int64, limit int) ([]Movement, error) {
	if limit <= 0 {
		limit = 200
	}
	rows, err := s.db.Query(ctx,
		`SELECT id, product_id, sale_id, movement_type, qty, unit_price, note, occurred_at
		 FROM stock_movements WHERE product_id = $1 ORDER BY occurred_at DESC, id DESC LIMIT $2`,
		productID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var movements []Movement
	for rows.Next() {
		var m Movement
		var mtype string
		if err := rows.Scan(&m.ID, &m.ProductID, &m.SaleID, &mtype, &m.Qty, &m.UnitPrice, &m.Note, &m.OccurredAt); err != nil {
			return nil, err
		}
		m.Type = MovementType(mtype)
		movements = append(movements, m)
	}
	return movements, rows.Err()
}

// MarkUnitsSold flips qty oldest in-stock units of a product to sold and
// stamps them with the sale and selling price. Fails the stock guard when
// fewer than qty units are in stock.
func (s *Store) MarkUnitsSold(ctx context.Context, productID, saleID int64, qty int, unitPrice float64) error {
	if qty <= 0 {
		return fmt.Errorf("ledger: unit quantity must be positive, got %d", qty)
	}
	tag, err := s.db.Exec(ctx,
		`UPDATE product_items SET status = $4, sale_id = $2, selling_price = $5
		 WHERE id IN (
			SELECT id FROM product_items
			WHERE product_id = $1 AND status = $6
			ORDER BY id
			LIMIT $3
			FOR UPDATE SKIP LOCKED
		 )`,
		productID, saleID, qty, string(UnitSold), unitPrice, string(UnitInStock),
	)
	if err != nil {
		return fmt.Errorf("ledger: mark units sold: %w", err)
	}
	if int(tag.RowsAffected()) < qty {
		var name string
		if err := s.db.QueryRow(ctx, `SELECT name FROM products WHERE id = $1`, productID).Scan(&name); err != nil {
			name = fmt.Sprintf("#%d", productID)
		}
		return &InsufficientStockError{ProductName: name, Requested: qty, Available: int(tag.RowsAffected())}
	}
	return nil
}

// RestoreUnits reverses MarkUnitsSold for a whole sale, returning its units
// to stock and detaching the sale reference.
func (s *Store) RestoreUnits(ctx context.Context, saleID int64) error {
	_, err := s.db.Exec(ctx,
		`UPDATE product_items SET status = $2, sale_id = NULL, selling_price = 0 WHERE sale_id = $1`,
		saleID, string(UnitInStock),
	)
	if err != nil {
		return fmt.Errorf("ledger: restore units for sale %d: %w", saleID, err)
	}
	return nil
}
