package sales

import "time"

// LineItemRequest is one requested line. Quantity defaults to 1 when
// omitted; UnitPrice overrides the catalog price when it differs.
type LineItemRequest struct {
	ProductID int64    `json:"product" validate:"required,gt=0"`
	Quantity  int      `json:"quantity" validate:"gte=0"`
	UnitPrice *float64 `json:"unitPrice,omitempty" validate:"omitempty,gt=0"`
}

// SaleRequest is the create/edit payload. Subtotal and Total are accepted
// for wire compatibility but always recomputed server-side.
type SaleRequest struct {
	Buyer    int64             `json:"buyer" validate:"required,gt=0"`
	Items    []LineItemRequest `json:"items" validate:"required,min=1,dive"`
	SaleDate *time.Time        `json:"saleDate,omitempty"`
	Subtotal *float64          `json:"subtotal,omitempty"`
	Discount float64           `json:"discount" validate:"gte=0,lte=100"`
	Tax      float64           `json:"tax" validate:"gte=0,lte=100"`
	Shipping float64           `json:"shipping" validate:"gte=0"`
	Other    float64           `json:"other" validate:"gte=0"`
	Total    *float64          `json:"total,omitempty"`
	Comments string            `json:"comments,omitempty"`
}

// ScanRequest resolves a scanned barcode.
type ScanRequest struct {
	Barcode string `json:"barcode" validate:"required"`
}

// AuthenticateEditRequest carries the edit/delete passcode.
type AuthenticateEditRequest struct {
	Password string `json:"password" validate:"required"`
}
