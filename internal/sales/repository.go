package sales

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stockline/stockline/internal/catalog"
	"github.com/stockline/stockline/internal/ledger"
	"github.com/stockline/stockline/internal/platform/db"
)

// StockLedger is the slice of ledger operations the processor commits
// inside its transactions.
type StockLedger interface {
	ReserveAndDeduct(ctx context.Context, productID int64, qty int) (int, error)
	Restore(ctx context.Context, productID int64, qty int) error
	RecordMovement(ctx context.Context, m ledger.Movement) error
	MarkUnitsSold(ctx context.Context, productID, saleID int64, qty int, unitPrice float64) error
	RestoreUnits(ctx context.Context, saleID int64) error
}

// Repository is the sale record store plus the collaborator lookups the
// processor needs. WithTx hands the callback a transaction-scoped
// Repository whose Stock shares the same transaction.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	List(ctx context.Context) ([]Sale, error)
	Get(ctx context.Context, id int64) (*Sale, error)
	Insert(ctx context.Context, s *Sale) (int64, error)
	Replace(ctx context.Context, s *Sale) error
	Delete(ctx context.Context, id int64) error

	ResolveProducts(ctx context.Context, ids []int64) (map[int64]catalog.Product, error)
	UpdateProductPrice(ctx context.Context, id int64, price float64) error
	GetBuyer(ctx context.Context, id int64) (*catalog.Buyer, error)

	Stock() StockLedger
}

type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type repository struct {
	db    dbtx
	pool  *pgxpool.Pool
	stock *ledger.Store
}

// NewRepository constructs the PostgreSQL-backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool, stock: ledger.NewStore(pool)}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		scoped := &repository{db: tx, pool: r.pool, stock: ledger.NewStore(tx)}
		return fn(ctx, scoped)
	})
}

func (r *repository) Stock() StockLedger {
	return r.stock
}

const saleColumns = `s.id, s.buyer_id, COALESCE(b.name, ''), COALESCE(b.phone, ''), s.subtotal, s.discount, s.discount_amount, s.tax, s.tax_amount, s.shipping, s.other, s.total_amount, s.sale_date, s.comments, s.created_at, s.updated_at`

func scanSale(row pgx.Row) (Sale, error) {
	var s Sale
	err := row.Scan(&s.ID, &s.BuyerID, &s.BuyerName, &s.BuyerPhone, &s.Subtotal, &s.Discount, &s.DiscountAmount,
		&s.Tax, &s.TaxAmount, &s.Shipping, &s.Other, &s.TotalAmount, &s.SaleDate, &s.Comments, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

func (r *repository) List(ctx context.Context) ([]Sale, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+saleColumns+` FROM sales s LEFT JOIN buyers b ON b.id = s.buyer_id ORDER BY s.sale_date DESC, s.id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sales []Sale
	index := make(map[int64]int)
	var ids []int64
	for rows.Next() {
		s, err := scanSale(rows)
		if err != nil {
			return nil, err
		}
		index[s.ID] = len(sales)
		ids = append(ids, s.ID)
		sales = append(sales, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(sales) == 0 {
		return sales, nil
	}

	itemRows, err := r.db.Query(ctx,
		`SELECT i.sale_id, i.product_id, COALESCE(p.name, ''), COALESCE(p.category, ''), i.quantity, i.unit_price, i.total, i.barcode
		 FROM sale_items i LEFT JOIN products p ON p.id = i.product_id
		 WHERE i.sale_id = ANY($1) ORDER BY i.id`, ids)
	if err != nil {
		return nil, err
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var saleID int64
		var item LineItem
		if err := itemRows.Scan(&saleID, &item.ProductID, &item.ProductName, &item.Category, &item.Quantity, &item.UnitPrice, &item.Total, &item.Barcode); err != nil {
			return nil, err
		}
		if i, ok := index[saleID]; ok {
			sales[i].Items = append(sales[i].Items, item)
		}
	}
	return sales, itemRows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (*Sale, error) {
	s, err := scanSale(r.db.QueryRow(ctx,
		`SELECT `+saleColumns+` FROM sales s LEFT JOIN buyers b ON b.id = s.buyer_id WHERE s.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSaleNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx,
		`SELECT i.product_id, COALESCE(p.name, ''), COALESCE(p.category, ''), i.quantity, i.unit_price, i.total, i.barcode
		 FROM sale_items i LEFT JOIN products p ON p.id = i.product_id
		 WHERE i.sale_id = $1 ORDER BY i.id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var item LineItem
		if err := rows.Scan(&item.ProductID, &item.ProductName, &item.Category, &item.Quantity, &item.UnitPrice, &item.Total, &item.Barcode); err != nil {
			return nil, err
		}
		s.Items = append(s.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *repository) Insert(ctx context.Context, s *Sale) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx,
		`INSERT INTO sales (buyer_id, subtotal, discount, discount_amount, tax, tax_amount, shipping, other, total_amount, sale_date, comments, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW()) RETURNING id`,
		s.BuyerID, s.Subtotal, s.Discount, s.DiscountAmount, s.Tax, s.TaxAmount, s.Shipping, s.Other, s.TotalAmount, s.SaleDate, s.Comments,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	if err := r.insertItems(ctx, id, s.Items); err != nil {
		return 0, err
	}
	return id, nil
}

func (r *repository) Replace(ctx context.Context, s *Sale) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE sales SET buyer_id = $2, subtotal = $3, discount = $4, discount_amount = $5, tax = $6, tax_amount = $7, shipping = $8, other = $9, total_amount = $10, sale_date = $11, comments = $12, updated_at = NOW()
		 WHERE id = $1`,
		s.ID, s.BuyerID, s.Subtotal, s.Discount, s.DiscountAmount, s.Tax, s.TaxAmount, s.Shipping, s.Other, s.TotalAmount, s.SaleDate, s.Comments,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSaleNotFound
	}
	if _, err := r.db.Exec(ctx, `DELETE FROM sale_items WHERE sale_id = $1`, s.ID); err != nil {
		return err
	}
	return r.insertItems(ctx, s.ID, s.Items)
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM sale_items WHERE sale_id = $1`, id); err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx, `DELETE FROM sales WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSaleNotFound
	}
	return nil
}

func (r *repository) insertItems(ctx context.Context, saleID int64, items []LineItem) error {
	for _, item := range items {
		_, err := r.db.Exec(ctx,
			`INSERT INTO sale_items (sale_id, product_id, quantity, unit_price, total, barcode) VALUES ($1, $2, $3, $4, $5, $6)`,
			saleID, item.ProductID, item.Quantity, item.UnitPrice, item.Total, item.Barcode)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *repository) ResolveProducts(ctx context.Context, ids []int64) (map[int64]catalog.Product, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, name, barcode, category, price, quantity, reorder_level FROM products WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make(map[int64]catalog.Product, len(ids))
	for rows.Next() {
		var p catalog.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Barcode, &p.Category, &p.Price, &p.Quantity, &p.ReorderLevel); err != nil {
			return nil, err
		}
		products[p.ID] = p
	}
	return products, rows.Err()
}

func (r *repository) UpdateProductPrice(ctx context.Context, id int64, price float64) error {
	_, err := r.db.Exec(ctx, `UPDATE products SET price = $2, updated_at = NOW() WHERE id = $1`, id, price)
	return err
}

func (r *repository) GetBuyer(ctx context.Context, id int64) (*catalog.Buyer, error) {
	var b catalog.Buyer
	err := r.db.QueryRow(ctx, `SELECT id, name, phone, email, address FROM buyers WHERE id = $1`, id).
		Scan(&b.ID, &b.Name, &b.Phone, &b.Email, &b.Address)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, catalog.ErrBuyerNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}
