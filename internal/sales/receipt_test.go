package sales

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBuildReceipt(t *testing.T) {
	sale := &Sale{
		ID:        7,
		BuyerName: "Walk-in",
		SaleDate:  time.Date(2026, 3, 14, 15, 9, 0, 0, time.UTC),
		Items: []LineItem{
			{ProductName: "Widget", Barcode: "IM001VP0042", Quantity: 2, UnitPrice: 1234.5, Total: 2469},
		},
		Subtotal:       2469,
		DiscountAmount: 246.9,
		TaxAmount:      111.11,
		Shipping:       5,
		TotalAmount:    2338.21,
	}

	receipt := BuildReceipt(sale)
	require.Equal(t, int64(7), receipt.SaleID)
	require.Equal(t, "Walk-in", receipt.Buyer)
	require.Equal(t, "2026-03-14", receipt.Date)
	require.Len(t, receipt.Lines, 1)
	require.Equal(t, "1,234.50", receipt.Lines[0].UnitPrice)
	require.Equal(t, "2,469.00", receipt.Lines[0].Total)
	require.Equal(t, "246.90", receipt.DiscountAmount)
	require.Equal(t, "2,338.21", receipt.Total)
}

func TestBuildReceiptEmptySale(t *testing.T) {
	receipt := BuildReceipt(&Sale{SaleDate: time.Unix(0, 0)})
	require.Empty(t, receipt.Lines)
	require.Equal(t, "0.00", receipt.Total)
}
