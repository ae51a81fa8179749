package catalog

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/stockline/stockline/internal/platform/httpx"
)

// ProductRequest is the product create/update payload.
type ProductRequest struct {
	Name         string  `json:"name" validate:"required"`
	Description  string  `json:"description"`
	Category     string  `json:"category" validate:"required"`
	Price        float64 `json:"price" validate:"gte=0"`
	Cost         float64 `json:"cost" validate:"gte=0"`
	Quantity     int     `json:"quantity" validate:"gte=0"`
	ReorderLevel int     `json:"reorderLevel" validate:"gte=0"`
	VendorID     *int64  `json:"vendor,omitempty"`
}

// Handler serves catalog endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes attaches catalog routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/products", h.List)
	r.Post("/products", h.Create)
	r.Get("/products/{id}", h.Show)
	r.Put("/products/{id}", h.Update)
	r.Delete("/products/{id}", h.Delete)
	r.Get("/buyers", h.ListBuyers)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.ListProducts(r.Context())
	if err != nil {
		h.logger.Error("list products", slog.Any("error", err))
		httpx.Message(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if products == nil {
		products = []Product{}
	}
	httpx.JSON(w, http.StatusOK, products)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Message(w, http.StatusBadRequest, "invalid product id")
		return
	}
	product, err := h.service.GetProduct(r.Context(), id)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, product)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Message(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Message(w, http.StatusBadRequest, err.Error())
		return
	}

	product, err := h.service.CreateProduct(r.Context(), Product{
		Name:         req.Name,
		Description:  req.Description,
		Category:     req.Category,
		Price:        req.Price,
		Cost:         req.Cost,
		Quantity:     req.Quantity,
		ReorderLevel: req.ReorderLevel,
		VendorID:     req.VendorID,
	})
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, product)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Message(w, http.StatusBadRequest, "invalid product id")
		return
	}
	var req ProductRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Message(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Message(w, http.StatusBadRequest, err.Error())
		return
	}

	product, err := h.service.UpdateProduct(r.Context(), id, Product{
		Name:         req.Name,
		Description:  req.Description,
		Category:     req.Category,
		Price:        req.Price,
		Cost:         req.Cost,
		ReorderLevel: req.ReorderLevel,
		VendorID:     req.VendorID,
	})
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, product)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Message(w, http.StatusBadRequest, "invalid product id")
		return
	}
	if err := h.service.DeleteProduct(r.Context(), id); err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.Message(w, http.StatusOK, "Product deleted")
}

func (h *Handler) ListBuyers(w http.ResponseWriter, r *http.Request) {
	buyers, err := h.service.ListBuyers(r.Context())
	if err != nil {
		h.logger.Error("list buyers", slog.Any("error", err))
		httpx.Message(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if buyers == nil {
		buyers = []Buyer{}
	}
	httpx.JSON(w, http.StatusOK, buyers)
}

func (h *Handler) respondErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrProductNotFound):
		httpx.Message(w, http.StatusNotFound, "Product not found")
	case errors.Is(err, ErrBuyerNotFound):
		httpx.Message(w, http.StatusNotFound, "Buyer not found")
	case errors.Is(err, ErrBarcodeTaken):
		httpx.Message(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("catalog", slog.Any("error", err))
		httpx.Message(w, http.StatusInternalServerError, "internal server error")
	}
}
