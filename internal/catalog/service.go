package catalog

import (
	"context"
	"fmt"
	"log/slog"
)

// RepositoryPort abstracts persistence for the service.
type RepositoryPort interface {
	ListProducts(ctx context.Context) ([]Product, error)
	GetProduct(ctx context.Context, id int64) (*Product, error)
	GetProductByBarcode(ctx context.Context, barcode string) (*Product, error)
	CreateProduct(ctx context.Context, p Product) (int64, error)
	UpdateProduct(ctx context.Context, id int64, p Product) error
	DeleteProduct(ctx context.Context, id int64) error
	NextBarcodeSeq(ctx context.Context, prefix string) (int64, error)
	ListBuyers(ctx context.Context) ([]Buyer, error)
	GetBuyer(ctx context.Context, id int64) (*Buyer, error)
	InsertUnits(ctx context.Context, productID int64, count int) error
}

// BarcodeCache invalidates cached scan lookups.
type BarcodeCache interface {
	Invalidate(ctx context.Context, barcode string) error
}

// ServiceConfig groups optional settings.
type ServiceConfig struct {
	BarcodePrefix string
	UnitTracking  bool
}

// Service coordinates catalog operations.
type Service struct {
	repo         RepositoryPort
	cache        BarcodeCache
	logger       *slog.Logger
	prefix       string
	unitTracking bool
}

// NewService builds Service.
func NewService(repo RepositoryPort, cache BarcodeCache, logger *slog.Logger, cfg ServiceConfig) *Service {
	prefix := cfg.BarcodePrefix
	if prefix == "" {
		prefix = "IM001VP"
	}
	return &Service{repo: repo, cache: cache, logger: logger, prefix: prefix, unitTracking: cfg.UnitTracking}
}

// ListProducts returns the catalog, newest first.
func (s *Service) ListProducts(ctx context.Context) ([]Product, error) {
	return s.repo.ListProducts(ctx)
}

// GetProduct fetches one product.
func (s *Service) GetProduct(ctx context.Context, id int64) (*Product, error) {
	return s.repo.GetProduct(ctx, id)
}

// CreateProduct assigns the next barcode in the configured prefix sequence
// and inserts the product. When unit tracking is on, initial stock also
// materialises serialized unit rows.
func (s *Service) CreateProduct(ctx context.Context, p Product) (*Product, error) {
	seq, err := s.repo.NextBarcodeSeq(ctx, s.prefix)
	if err != nil {
		return nil, err
	}
	p.Barcode = fmt.Sprintf("%s%04d", s.prefix, seq)

	id, err := s.repo.CreateProduct(ctx, p)
	if err != nil {
		return nil, err
	}
	if s.unitTracking && p.Quantity > 0 {
		if err := s.repo.InsertUnits(ctx, id, p.Quantity); err != nil {
			return nil, fmt.Errorf("catalog: seed units: %w", err)
		}
	}
	return s.repo.GetProduct(ctx, id)
}

// UpdateProduct replaces a product's mutable fields and drops any cached
// scan projection for its barcode.
func (s *Service) UpdateProduct(ctx context.Context, id int64, p Product) (*Product, error) {
	existing, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateProduct(ctx, id, p); err != nil {
		return nil, err
	}
	s.invalidate(ctx, existing.Barcode)
	return s.repo.GetProduct(ctx, id)
}

// DeleteProduct removes a product and its cached scan projection.
func (s *Service) DeleteProduct(ctx context.Context, id int64) error {
	existing, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, existing.Barcode)
	return nil
}

// ListBuyers returns buyers for display population.
func (s *Service) ListBuyers(ctx context.Context) ([]Buyer, error) {
	return s.repo.ListBuyers(ctx)
}

// GetBuyer fetches one buyer.
func (s *Service) GetBuyer(ctx context.Context, id int64) (*Buyer, error) {
	return s.repo.GetBuyer(ctx, id)
}

func (s *Service) invalidate(ctx context.Context, barcode string) {
	if s.cache == nil || barcode == "" {
		return
	}
	if err := s.cache.Invalidate(ctx, barcode); err != nil && s.logger != nil {
		s.logger.Warn("invalidate barcode cache", slog.String("barcode", barcode), slog.Any("error", err))
	}
}
