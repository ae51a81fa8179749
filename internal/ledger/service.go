package ledger

import (
	"context"
	"errors"
)

// StorePort abstracts store reads used by the service.
type StorePort interface {
	ListMovements(ctx context.Context, productID int64, limit int) ([]Movement, error)
	GetQuantity(ctx context.Context, productID int64) (int, error)
}

// Service exposes read-side ledger operations. Mutation happens inside the
// sale processor's transactions, never here.
type Service struct {
	store StorePort
}

// NewService builds Service.
func NewService(store StorePort) *Service {
	return &Service{store: store}
}

// StockCard lists the movement history for a product, newest first.
func (s *Service) StockCard(ctx context.Context, productID int64, limit int) ([]Movement, error) {
	if productID <= 0 {
		return nil, errors.New("ledger: product id required")
	}
	if _, err := s.store.GetQuantity(ctx, productID); err != nil {
		return nil, err
	}
	return s.store.ListMovements(ctx, productID, limit)
}

// OnHand reports the current quantity for a product.
func (s *Service) OnHand(ctx context.Context, productID int64) (int, error) {
	if productID <= 0 {
		return 0, errors.New("ledger: product id required")
	}
	return s.store.GetQuantity(ctx, productID)
}
