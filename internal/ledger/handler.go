package ledger

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/stockline/stockline/internal/platform/httpx"
)

// Handler serves the stock card endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes attaches ledger routes under the given router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/products/{id}/movements", h.StockCard)
}

// StockCard returns the movement history for one product.
func (h *Handler) StockCard(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Message(w, http.StatusBadRequest, "invalid product id")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	movements, err := h.service.StockCard(r.Context(), id, limit)
	if err != nil {
		if errors.Is(err, ErrProductMissing) {
			httpx.Message(w, http.StatusNotFound, "Product not found")
			return
		}
		h.logger.Error("stock card", slog.Any("error", err))
		httpx.Message(w, http.StatusInternalServerError, "internal server error")
		return
	}

	type movementJSON struct {
		ID        int64   `json:"id"`
		ProductID int64   `json:"product"`
		SaleID    *int64  `json:"sale,omitempty"`
		Type      string  `json:"type"`
		Quantity  int     `json:"quantity"`
		UnitPrice float64 `json:"unitPrice"`
		Note      string  `json:"note,omitempty"`
		At        string  `json:"occurredAt"`
	}
	out := make([]movementJSON, 0, len(movements))
	for _, m := range movements {
		out = append(out, movementJSON{
			ID:        m.ID,
			ProductID: m.ProductID,
			SaleID:    m.SaleID,
			Type:      string(m.Type),
			Quantity:  m.Qty,
			UnitPrice: m.UnitPrice,
			Note:      m.Note,
			At:        m.OccurredAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	httpx.JSON(w, http.StatusOK, out)
}
