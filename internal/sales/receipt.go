package sales

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var amountPrinter = message.NewPrinter(language.English)

// formatAmount renders a monetary value with thousands separators for
// receipt display, e.g. 1234.5 -> "1,234.50".
func formatAmount(v float64) string {
	return amountPrinter.Sprintf("%.2f", v)
}

// ReceiptLine is one formatted line item.
type ReceiptLine struct {
	Product   string `json:"product"`
	Barcode   string `json:"barcode,omitempty"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unitPrice"`
	Total     string `json:"total"`
}

// Receipt is a display-ready projection of a sale for the cashier UI.
// Amounts are strings; the Sale JSON remains the numeric source of truth.
type Receipt struct {
	SaleID         int64         `json:"sale"`
	Buyer          string        `json:"buyer"`
	Date           string        `json:"date"`
	Lines          []ReceiptLine `json:"lines"`
	Subtotal       string        `json:"subtotal"`
	DiscountAmount string        `json:"discountAmount"`
	TaxAmount      string        `json:"taxAmount"`
	Shipping       string        `json:"shipping"`
	Other          string        `json:"other"`
	Total          string        `json:"total"`
	Comments       string        `json:"comments,omitempty"`
}

// BuildReceipt formats a sale for display.
func BuildReceipt(s *Sale) Receipt {
	lines := make([]ReceiptLine, 0, len(s.Items))
	for _, item := range s.Items {
		lines = append(lines, ReceiptLine{
			Product:   item.ProductName,
			Barcode:   item.Barcode,
			Quantity:  item.Quantity,
			UnitPrice: formatAmount(item.UnitPrice),
			Total:     formatAmount(item.Total),
		})
	}
	return Receipt{
		SaleID:         s.ID,
		Buyer:          s.BuyerName,
		Date:           s.SaleDate.UTC().Format("2006-01-02"),
		Lines:          lines,
		Subtotal:       formatAmount(s.Subtotal),
		DiscountAmount: formatAmount(s.DiscountAmount),
		TaxAmount:      formatAmount(s.TaxAmount),
		Shipping:       formatAmount(s.Shipping),
		Other:          formatAmount(s.Other),
		Total:          formatAmount(s.TotalAmount),
		Comments:       s.Comments,
	}
}
