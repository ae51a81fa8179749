// Package catalog manages the product catalog, buyer/vendor lookups and
// barcode resolution consumed by the sale processor.
package catalog

import (
	"errors"
	"time"
)

// Product is a stocked good.
type Product struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Barcode      string    `json:"barcode"`
	Description  string    `json:"description,omitempty"`
	Category     string    `json:"category"`
	Price        float64   `json:"price"`
	Cost         float64   `json:"cost"`
	Quantity     int       `json:"quantity"`
	ReorderLevel int       `json:"reorderLevel"`
	VendorID     *int64    `json:"vendor,omitempty"`
	VendorName   string    `json:"vendorName,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Buyer is a customer reference attached to sales.
type Buyer struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
	Address string `json:"address,omitempty"`
}

// Vendor supplies products; read-only here.
type Vendor struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	ContactPerson string `json:"contactPerson,omitempty"`
	Phone         string `json:"phone,omitempty"`
}

// ScanResult is the minimal projection returned for a scanned barcode.
type ScanResult struct {
	Product struct {
		ID          int64   `json:"id"`
		Name        string  `json:"name"`
		Description string  `json:"description,omitempty"`
		Category    string  `json:"category"`
		Price       float64 `json:"price"`
		Barcode     string  `json:"barcode"`
	} `json:"product"`
	Price   float64 `json:"price"`
	Barcode string  `json:"barcode"`
}

var (
	// ErrProductNotFound indicates a missing or out-of-stock product.
	ErrProductNotFound = errors.New("Product not found")
	// ErrBuyerNotFound indicates a missing buyer record.
	ErrBuyerNotFound = errors.New("Buyer not found")
	// ErrBarcodeTaken indicates a barcode uniqueness violation.
	ErrBarcodeTaken = errors.New("barcode already assigned")
)
