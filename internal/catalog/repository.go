package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists catalog data in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const productColumns = `p.id, p.name, p.barcode, p.description, p.category, p.price, p.cost, p.quantity, p.reorder_level, p.vendor_id, COALESCE(v.name, ''), p.created_at, p.updated_at`

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.Barcode, &p.Description, &p.Category, &p.Price, &p.Cost, &p.Quantity, &p.ReorderLevel, &p.VendorID, &p.VendorName, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// ListProducts returns the catalog, newest first.
func (r *Repository) ListProducts(ctx context.Context) ([]Product, error) {
	rows, err := r.pool.Query(ctx, fmt.Sprintf(
		`SELECT %s FROM products p LEFT JOIN vendors v ON v.id = p.vendor_id ORDER BY p.created_at DESC`, productColumns))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// GetProduct fetches one product by id.
func (r *Repository) GetProduct(ctx context.Context, id int64) (*Product, error) {
	p, err := scanProduct(r.pool.QueryRow(ctx, fmt.Sprintf(
		`SELECT %s FROM products p LEFT JOIN vendors v ON v.id = p.vendor_id WHERE p.id = $1`, productColumns), id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetProductByBarcode fetches one product by its barcode.
func (r *Repository) GetProductByBarcode(ctx context.Context, barcode string) (*Product, error) {
	p, err := scanProduct(r.pool.QueryRow(ctx, fmt.Sprintf(
		`SELECT %s FROM products p LEFT JOIN vendors v ON v.id = p.vendor_id WHERE p.barcode = $1`, productColumns), barcode))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateProduct inserts a product and returns its id.
func (r *Repository) CreateProduct(ctx context.Context, p Product) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO products (name, barcode, description, category, price, cost, quantity, reorder_level, vendor_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW()) RETURNING id`,
		p.Name, p.Barcode, p.Description, p.Category, p.Price, p.Cost, p.Quantity, p.ReorderLevel, p.VendorID,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, ErrBarcodeTaken
		}
		return 0, err
	}
	return id, nil
}

// UpdateProduct replaces the mutable fields of a product. Quantity is owned
// by the ledger and deliberately not writable here.
func (r *Repository) UpdateProduct(ctx context.Context, id int64, p Product) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE products SET name = $2, description = $3, category = $4, price = $5, cost = $6, reorder_level = $7, vendor_id = $8, updated_at = NOW() WHERE id = $1`,
		id, p.Name, p.Description, p.Category, p.Price, p.Cost, p.ReorderLevel, p.VendorID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}

// DeleteProduct removes a product row.
func (r *Repository) DeleteProduct(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}

// NextBarcodeSeq atomically increments and returns the barcode sequence for
// a prefix. Single round trip so concurrent creators never read the same
// value.
func (r *Repository) NextBarcodeSeq(ctx context.Context, prefix string) (int64, error) {
	var seq int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO barcode_counters (prefix, seq) VALUES ($1, 1)
		 ON CONFLICT (prefix) DO UPDATE SET seq = barcode_counters.seq + 1
		 RETURNING seq`,
		prefix,
	).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("catalog: next barcode seq: %w", err)
	}
	return seq, nil
}

// ListBuyers returns all buyers for display population.
func (r *Repository) ListBuyers(ctx context.Context) ([]Buyer, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, phone, email, address FROM buyers ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var buyers []Buyer
	for rows.Next() {
		var b Buyer
		if err := rows.Scan(&b.ID, &b.Name, &b.Phone, &b.Email, &b.Address); err != nil {
			return nil, err
		}
		buyers = append(buyers, b)
	}
	return buyers, rows.Err()
}

// GetBuyer fetches one buyer.
func (r *Repository) GetBuyer(ctx context.Context, id int64) (*Buyer, error) {
	var b Buyer
	err := r.pool.QueryRow(ctx, `SELECT id, name, phone, email, address FROM buyers WHERE id = $1`, id).
		Scan(&b.ID, &b.Name, &b.Phone, &b.Email, &b.Address)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrBuyerNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// InsertUnits creates serialized unit rows for a product, used when unit
// tracking is enabled and stock is received.
func (r *Repository) InsertUnits(ctx context.Context, productID int64, count int) error {
	for i := 0; i < count; i++ {
		if _, err := r.pool.Exec(ctx,
			`INSERT INTO product_items (product_id, status, selling_price) VALUES ($1, 'in_stock', 0)`, productID); err != nil {
			return err
		}
	}
	return nil
}
