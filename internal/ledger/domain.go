// Package ledger is the authoritative per-product stock quantity store.
// All quantity mutation goes through its atomic operations.
package ledger

import (
	"errors"
	"fmt"
	"time"
)

// MovementType enumerates stock movements.
type MovementType string

const (
	// MovementIn represents stock returning to the shelf (restore, receipt).
	MovementIn MovementType = "IN"
	// MovementOut represents stock leaving on a sale.
	MovementOut MovementType = "OUT"
)

// Movement records one quantity change for the stock card.
type Movement struct {
	ID         int64
	ProductID  int64
	SaleID     *int64
	Type       MovementType
	Qty        int
	UnitPrice  float64
	Note       string
	OccurredAt time.Time
}

// UnitStatus tracks a serialized product unit through its lifecycle.
type UnitStatus string

const (
	// UnitInStock marks a unit available for sale.
	UnitInStock UnitStatus = "in_stock"
	// UnitSold marks a unit committed to a sale.
	UnitSold UnitStatus = "sold"
)

// Unit is one physical unit of a product in the serialized variant.
type Unit struct {
	ID           int64
	ProductID    int64
	Status       UnitStatus
	SellingPrice float64
	SaleID       *int64
}

// ErrInsufficientStock is the base sentinel for stock-guard failures.
var ErrInsufficientStock = errors.New("insufficient stock")

// ErrProductMissing indicates the referenced product row does not exist.
var ErrProductMissing = errors.New("product not found")

// InsufficientStockError names the offending product and quantities.
type InsufficientStockError struct {
	ProductName string
	Requested   int
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("Product %s does not have enough stock (requested %d, available %d)", e.ProductName, e.Requested, e.Available)
}

// Is makes errors.Is(err, ErrInsufficientStock) succeed.
func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}
