package catalog

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

func newCatalogRouter(repo *memCatalogRepo) http.Handler {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	svc := NewService(repo, nil, logger, ServiceConfig{BarcodePrefix: "IM001VP"})
	h := NewHandler(logger, svc)
	r := chi.NewRouter()
	h.MountRoutes(r)
	return r
}

func catalogRequest(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestCreateProductEndpoint(t *testing.T) {
	router := newCatalogRouter(newMemCatalogRepo())

	rec := catalogRequest(t, router, http.MethodPost, "/products",
		`{"name":"Widget","category":"tools","price":10,"cost":6,"quantity":5}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var got Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, "IM001VP0001", got.Barcode)
	require.Equal(t, 5, got.Quantity)
}

func TestCreateProductValidation(t *testing.T) {
	router := newCatalogRouter(newMemCatalogRepo())

	rec := catalogRequest(t, router, http.MethodPost, "/products", `{"category":"tools"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = catalogRequest(t, router, http.MethodPost, "/products", `{"name":"X","category":"tools","price":-1}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestShowProductNotFound(t *testing.T) {
	router := newCatalogRouter(newMemCatalogRepo())
	rec := catalogRequest(t, router, http.MethodGet, "/products/99", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateProductKeepsQuantity(t *testing.T) {
	repo := newMemCatalogRepo()
	router := newCatalogRouter(repo)

	rec := catalogRequest(t, router, http.MethodPost, "/products",
		`{"name":"Widget","category":"tools","price":10,"quantity":5}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	// Quantity on the update payload is ignored; only sales move stock.
	rec = catalogRequest(t, router, http.MethodPut, "/products/1",
		`{"name":"Widget","category":"tools","price":12,"quantity":999}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var updated Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	require.Equal(t, 5, updated.Quantity)
	require.InDelta(t, 12.0, updated.Price, 0.0001)
}

func TestDeleteProductEndpoint(t *testing.T) {
	repo := newMemCatalogRepo()
	router := newCatalogRouter(repo)

	rec := catalogRequest(t, router, http.MethodPost, "/products",
		`{"name":"Widget","category":"tools","price":10}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = catalogRequest(t, router, http.MethodDelete, "/products/1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = catalogRequest(t, router, http.MethodDelete, "/products/1", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListBuyersEndpoint(t *testing.T) {
	repo := newMemCatalogRepo()
	repo.buyers[1] = Buyer{ID: 1, Name: "Walk-in"}
	router := newCatalogRouter(repo)

	rec := catalogRequest(t, router, http.MethodGet, "/buyers", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var buyers []Buyer
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &buyers))
	require.Len(t, buyers, 1)
	require.Equal(t, "Walk-in", buyers[0].Name)
}
