package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stockline/stockline/internal/catalog"
	"github.com/stockline/stockline/internal/ledger"
	"github.com/stockline/stockline/internal/sales"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SalesHandler   *sales.Handler
	CatalogHandler *catalog.Handler
	LedgerHandler  *ledger.Handler
}

// NewRouter constructs the chi.Router with stockline defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	params.SalesHandler.MountRoutes(r)
	params.CatalogHandler.MountRoutes(r)
	params.LedgerHandler.MountRoutes(r)

	return r
}
