package ledger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

func newLedgerRouter(store *memStore) http.Handler {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	h := NewHandler(logger, NewService(store))
	r := chi.NewRouter()
	h.MountRoutes(r)
	return r
}

func TestStockCardEndpoint(t *testing.T) {
	saleID := int64(3)
	store := &memStore{
		quantities: map[int64]int{10: 4},
		movements: map[int64][]Movement{
			10: {{
				ID: 1, ProductID: 10, SaleID: &saleID, Type: MovementOut,
				Qty: 2, UnitPrice: 9.5,
				OccurredAt: time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC),
			}},
		},
	}
	router := newLedgerRouter(store)

	req := httptest.NewRequest(http.MethodGet, "/products/10/movements", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var out []struct {
		Product  int64  `json:"product"`
		Sale     *int64 `json:"sale"`
		Type     string `json:"type"`
		Quantity int    `json:"quantity"`
		At       string `json:"occurredAt"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out, 1)
	require.Equal(t, int64(10), out[0].Product)
	require.Equal(t, "OUT", out[0].Type)
	require.Equal(t, 2, out[0].Quantity)
	require.NotNil(t, out[0].Sale)
	require.Equal(t, saleID, *out[0].Sale)
	require.Equal(t, "2026-03-14T12:00:00Z", out[0].At)
}

func TestStockCardEndpointMissingProduct(t *testing.T) {
	router := newLedgerRouter(&memStore{quantities: map[int64]int{}})

	req := httptest.NewRequest(http.MethodGet, "/products/99/movements", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStockCardEndpointBadID(t *testing.T) {
	router := newLedgerRouter(&memStore{})

	req := httptest.NewRequest(http.MethodGet, "/products/abc/movements", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
