package sales

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/stockline/stockline/internal/catalog"
	"github.com/stockline/stockline/internal/ledger"
	"github.com/stockline/stockline/internal/platform/httpx"
	"github.com/stockline/stockline/internal/shared"
)

// ServicePort abstracts the processor for the handler.
type ServicePort interface {
	List(ctx context.Context) ([]Sale, error)
	Get(ctx context.Context, id int64) (*Sale, error)
	Create(ctx context.Context, req SaleRequest, idemKey string) (*Sale, error)
	Edit(ctx context.Context, id int64, req SaleRequest) (*Sale, error)
	Delete(ctx context.Context, id int64) error
}

// BarcodeLookup resolves scanned codes.
type BarcodeLookup interface {
	ByBarcode(ctx context.Context, barcode string) (*catalog.ScanResult, error)
}

// Handler serves the sale endpoints.
type Handler struct {
	logger       *slog.Logger
	service      ServicePort
	lookup       BarcodeLookup
	validate     *validator.Validate
	passcodeHash string
}

// NewHandler constructs Handler. passcodeHash is a bcrypt hash guarding
// edit/delete; empty disables the gate.
func NewHandler(logger *slog.Logger, service ServicePort, lookup BarcodeLookup, passcodeHash string) *Handler {
	return &Handler{
		logger:       logger,
		service:      service,
		lookup:       lookup,
		validate:     validator.New(),
		passcodeHash: passcodeHash,
	}
}

// MountRoutes attaches sale routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/sales", h.List)
	r.Post("/sales", h.Create)
	r.Post("/sales/scan", h.Scan)
	r.Post("/sales/authenticate-edit", h.AuthenticateEdit)
	r.Get("/sales/{id}", h.Show)
	r.Get("/sales/{id}/receipt", h.Receipt)
	r.Put("/sales/{id}", h.Update)
	r.Delete("/sales/{id}", h.Delete)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	sales, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list sales", slog.Any("error", err))
		httpx.Message(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if sales == nil {
		sales = []Sale{}
	}
	httpx.JSON(w, http.StatusOK, sales)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, ok := h.saleID(w, r)
	if !ok {
		return
	}
	sale, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, sale)
}

func (h *Handler) Receipt(w http.ResponseWriter, r *http.Request) {
	id, ok := h.saleID(w, r)
	if !ok {
		return
	}
	sale, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, BuildReceipt(sale))
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeSale(w, r)
	if !ok {
		return
	}
	sale, err := h.service.Create(r.Context(), req, r.Header.Get("Idempotency-Key"))
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, sale)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	if !h.gate(w, r) {
		return
	}
	id, ok := h.saleID(w, r)
	if !ok {
		return
	}
	req, ok := h.decodeSale(w, r)
	if !ok {
		return
	}
	sale, err := h.service.Edit(r.Context(), id, req)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, sale)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if !h.gate(w, r) {
		return
	}
	id, ok := h.saleID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.Message(w, http.StatusOK, "Sale deleted and product quantities restored")
}

func (h *Handler) Scan(w http.ResponseWriter, r *http.Request) {
	var req ScanRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Message(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Message(w, http.StatusBadRequest, err.Error())
		return
	}
	result, err := h.lookup.ByBarcode(r.Context(), req.Barcode)
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			httpx.Message(w, http.StatusNotFound, "Product not found")
			return
		}
		h.logger.Error("scan barcode", slog.Any("error", err))
		httpx.Message(w, http.StatusInternalServerError, "internal server error")
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

// AuthenticateEdit verifies the shared edit passcode for the UI.
func (h *Handler) AuthenticateEdit(w http.ResponseWriter, r *http.Request) {
	var req AuthenticateEditRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Message(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Message(w, http.StatusBadRequest, err.Error())
		return
	}
	if !h.passcodeOK(req.Password) {
		httpx.Message(w, http.StatusUnauthorized, "Invalid password")
		return
	}
	httpx.Message(w, http.StatusOK, "Authorized")
}

// gate enforces the passcode on edit/delete when one is configured. The
// check sits at the API boundary; the processor never sees it.
func (h *Handler) gate(w http.ResponseWriter, r *http.Request) bool {
	if h.passcodeHash == "" {
		return true
	}
	if h.passcodeOK(r.Header.Get("X-Edit-Passcode")) {
		return true
	}
	httpx.Message(w, http.StatusUnauthorized, "Invalid password")
	return false
}

func (h *Handler) passcodeOK(passcode string) bool {
	if h.passcodeHash == "" || passcode == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(h.passcodeHash), []byte(passcode)) == nil
}

func (h *Handler) saleID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Message(w, http.StatusBadRequest, "invalid sale id")
		return 0, false
	}
	return id, true
}

func (h *Handler) decodeSale(w http.ResponseWriter, r *http.Request) (SaleRequest, bool) {
	var req SaleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Message(w, http.StatusBadRequest, "invalid request body")
		return req, false
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Message(w, http.StatusBadRequest, err.Error())
		return req, false
	}
	return req, true
}

func (h *Handler) respondErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrSaleNotFound):
		httpx.Message(w, http.StatusNotFound, "Sale not found")
	case errors.Is(err, ErrProductNotFound):
		httpx.Message(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ledger.ErrInsufficientStock):
		httpx.Message(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ledger.ErrProductMissing):
		httpx.Message(w, http.StatusBadRequest, "Some products are not available")
	case errors.Is(err, catalog.ErrBuyerNotFound):
		httpx.Message(w, http.StatusBadRequest, "Buyer not found")
	case errors.Is(err, shared.ErrIdempotencyConflict):
		httpx.Message(w, http.StatusConflict, err.Error())
	default:
		h.logger.Error("sales", slog.Any("error", err))
		httpx.Message(w, http.StatusInternalServerError, "internal server error")
	}
}
