// Package sales implements the sale transaction processor: creating a sale
// atomically deducts stock, editing or deleting one reverses prior stock
// effects before applying new ones.
package sales

import (
	"errors"
	"fmt"
	"time"
)

// LineItem is one product's contribution to a sale. UnitPrice is the price
// at the time of sale and Barcode a denormalised snapshot for receipts.
type LineItem struct {
	ProductID   int64   `json:"product"`
	ProductName string  `json:"productName,omitempty"`
	Category    string  `json:"category,omitempty"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
	Total       float64 `json:"total"`
	Barcode     string  `json:"barcode,omitempty"`
}

// Sale is a completed transaction aggregate.
type Sale struct {
	ID             int64      `json:"id"`
	BuyerID        int64      `json:"buyer"`
	BuyerName      string     `json:"buyerName,omitempty"`
	BuyerPhone     string     `json:"buyerPhone,omitempty"`
	Items          []LineItem `json:"items"`
	Subtotal       float64    `json:"subtotal"`
	Discount       float64    `json:"discount"`
	DiscountAmount float64    `json:"discountAmount"`
	Tax            float64    `json:"tax"`
	TaxAmount      float64    `json:"taxAmount"`
	Shipping       float64    `json:"shipping"`
	Other          float64    `json:"other"`
	TotalAmount    float64    `json:"totalAmount"`
	SaleDate       time.Time  `json:"saleDate"`
	Comments       string     `json:"comments,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// ErrSaleNotFound indicates a missing sale record.
var ErrSaleNotFound = errors.New("Sale not found")

// ErrProductNotFound is the base sentinel for unresolvable line items.
var ErrProductNotFound = errors.New("product not found")

// ProductNotFoundError names the id that failed to resolve.
type ProductNotFoundError struct {
	ProductID int64
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("Product with id %d not found", e.ProductID)
}

// Is makes errors.Is(err, ErrProductNotFound) succeed.
func (e *ProductNotFoundError) Is(target error) bool {
	return target == ErrProductNotFound
}
