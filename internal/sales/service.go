package sales

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/stockline/stockline/internal/ledger"
	"github.com/stockline/stockline/internal/shared"
)

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// AlertEnqueuer submits reorder alerts after a committed sale.
type AlertEnqueuer interface {
	ReorderAlert(ctx context.Context, productID int64, productName string, quantity, reorderLevel int) error
}

// CacheInvalidator drops cached barcode projections after a price writeback.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, barcode string) error
}

// IdempotencyGuard reserves request keys so a duplicate submit cannot deduct
// stock twice.
type IdempotencyGuard interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key string) error
}

// ServiceConfig groups optional settings.
type ServiceConfig struct {
	// UnitTracking switches commits to the serialized per-unit variant.
	UnitTracking bool
}

// Service is the sale transaction processor.
type Service struct {
	repo         Repository
	audit        AuditPort
	idempotency  IdempotencyGuard
	alerts       AlertEnqueuer
	invalidator  CacheInvalidator
	logger       *slog.Logger
	unitTracking bool
}

// NewService builds Service. audit, idem, alerts and invalidator may be nil.
func NewService(repo Repository, audit AuditPort, idem IdempotencyGuard, alerts AlertEnqueuer, invalidator CacheInvalidator, logger *slog.Logger, cfg ServiceConfig) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:         repo,
		audit:        audit,
		idempotency:  idem,
		alerts:       alerts,
		invalidator:  invalidator,
		logger:       logger,
		unitTracking: cfg.UnitTracking,
	}
}

// mergedItem is a deduplicated line request. Requests listing the same
// product twice are equivalent to one entry with the summed quantity.
type mergedItem struct {
	ProductID int64
	Quantity  int
	UnitPrice *float64
}

func mergeItems(items []LineItemRequest) []mergedItem {
	index := make(map[int64]int, len(items))
	var merged []mergedItem
	for _, item := range items {
		qty := item.Quantity
		if qty <= 0 {
			qty = 1
		}
		if i, ok := index[item.ProductID]; ok {
			merged[i].Quantity += qty
			if item.UnitPrice != nil {
				merged[i].UnitPrice = item.UnitPrice
			}
			continue
		}
		index[item.ProductID] = len(merged)
		merged = append(merged, mergedItem{ProductID: item.ProductID, Quantity: qty, UnitPrice: item.UnitPrice})
	}
	return merged
}

// commitResult carries side effects out of the commit transaction.
type commitResult struct {
	sale          *Sale
	lowStock      []lowStockProduct
	staleBarcodes []string
}

type lowStockProduct struct {
	ID           int64
	Name         string
	Quantity     int
	ReorderLevel int
}

// List returns all sales, newest first, with buyer/product summaries.
func (s *Service) List(ctx context.Context) ([]Sale, error) {
	return s.repo.List(ctx)
}

// Get returns one sale with full detail.
func (s *Service) Get(ctx context.Context, id int64) (*Sale, error) {
	return s.repo.Get(ctx, id)
}

// Create validates the requested line items against available stock,
// computes totals server-side and commits the deductions and the sale
// record in one transaction. idemKey is optional.
func (s *Service) Create(ctx context.Context, req SaleRequest, idemKey string) (*Sale, error) {
	if _, err := s.repo.GetBuyer(ctx, req.Buyer); err != nil {
		return nil, err
	}

	insertedKey := false
	if idemKey != "" && s.idempotency != nil {
		if err := s.idempotency.CheckAndInsert(ctx, idemKey, "sales"); err != nil {
			return nil, err
		}
		insertedKey = true
	}

	var result *commitResult
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		var err error
		result, err = s.commitSale(ctx, repo, nil, req)
		return err
	})
	if err != nil {
		if insertedKey {
			_ = s.idempotency.Delete(ctx, idemKey)
		}
		return nil, err
	}

	s.afterCommit(ctx, "sale:create", result)
	return s.repo.Get(ctx, result.sale.ID)
}

// Edit replaces a sale's line items and totals. The old reservation is
// released first in its own committed transaction; the new item set then
// runs the create path. A rejected edit leaves the restore in place.
func (s *Service) Edit(ctx context.Context, id int64, req SaleRequest) (*Sale, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.GetBuyer(ctx, req.Buyer); err != nil {
		return nil, err
	}

	if err := s.releaseSale(ctx, existing, "sale edit"); err != nil {
		return nil, err
	}

	var result *commitResult
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		var err error
		result, err = s.commitSale(ctx, repo, existing, req)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, "sale:edit", result)
	return s.repo.Get(ctx, id)
}

// Delete removes a sale after restoring each product's quantity by exactly
// the quantities recorded in its line items.
func (s *Service) Delete(ctx context.Context, id int64) error {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		stock := repo.Stock()
		for _, item := range existing.Items {
			if err := stock.Restore(ctx, item.ProductID, item.Quantity); err != nil {
				return err
			}
			if err := stock.RecordMovement(ctx, ledger.Movement{
				ProductID: item.ProductID,
				SaleID:    &existing.ID,
				Type:      ledger.MovementIn,
				Qty:       item.Quantity,
				UnitPrice: item.UnitPrice,
				Note:      "sale deleted",
			}); err != nil {
				return err
			}
		}
		if s.unitTracking {
			if err := stock.RestoreUnits(ctx, existing.ID); err != nil {
				return err
			}
		}
		return repo.Delete(ctx, existing.ID)
	})
	if err != nil {
		return err
	}

	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			Action:   "sale:delete",
			Entity:   "sale",
			EntityID: fmt.Sprintf("%d", existing.ID),
			Meta:     map[string]any{"total": existing.TotalAmount, "items": len(existing.Items)},
		})
	}
	return nil
}

// releaseSale restores ledger quantities for every line item of a sale in
// one committed transaction.
func (s *Service) releaseSale(ctx context.Context, sale *Sale, note string) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		stock := repo.Stock()
		for _, item := range sale.Items {
			if err := stock.Restore(ctx, item.ProductID, item.Quantity); err != nil {
				return err
			}
			if err := stock.RecordMovement(ctx, ledger.Movement{
				ProductID: item.ProductID,
				SaleID:    &sale.ID,
				Type:      ledger.MovementIn,
				Qty:       item.Quantity,
				UnitPrice: item.UnitPrice,
				Note:      note,
			}); err != nil {
				return err
			}
		}
		if s.unitTracking {
			return stock.RestoreUnits(ctx, sale.ID)
		}
		return nil
	})
}

// commitSale runs the shared create path inside repo's transaction. When
// existing is non-nil the sale record is replaced in place, preserving its
// id; otherwise a new record is inserted.
func (s *Service) commitSale(ctx context.Context, repo Repository, existing *Sale, req SaleRequest) (*commitResult, error) {
	merged := mergeItems(req.Items)

	ids := make([]int64, 0, len(merged))
	for _, m := range merged {
		ids = append(ids, m.ProductID)
	}
	products, err := repo.ResolveProducts(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, m := range merged {
		if _, ok := products[m.ProductID]; !ok {
			return nil, &ProductNotFoundError{ProductID: m.ProductID}
		}
	}

	result := &commitResult{}
	var items []LineItem
	var subtotal float64
	for _, m := range merged {
		product := products[m.ProductID]

		// Explicit override price wins and floats the catalog price with
		// the latest sale.
		price := product.Price
		if m.UnitPrice != nil && *m.UnitPrice != product.Price {
			price = *m.UnitPrice
			if err := repo.UpdateProductPrice(ctx, product.ID, price); err != nil {
				return nil, err
			}
			result.staleBarcodes = append(result.staleBarcodes, product.Barcode)
		}

		lineTotal := price * float64(m.Quantity)
		subtotal += lineTotal
		items = append(items, LineItem{
			ProductID: product.ID,
			Quantity:  m.Quantity,
			UnitPrice: price,
			Total:     lineTotal,
			Barcode:   product.Barcode,
		})
	}

	discountAmount := subtotal * req.Discount / 100
	taxable := subtotal - discountAmount
	taxAmount := taxable * req.Tax / 100
	total := taxable + taxAmount + req.Shipping + req.Other

	saleDate := time.Now().UTC()
	if req.SaleDate != nil {
		saleDate = *req.SaleDate
	}

	sale := &Sale{
		BuyerID:        req.Buyer,
		Items:          items,
		Subtotal:       subtotal,
		Discount:       req.Discount,
		DiscountAmount: discountAmount,
		Tax:            req.Tax,
		TaxAmount:      taxAmount,
		Shipping:       req.Shipping,
		Other:          req.Other,
		TotalAmount:    total,
		SaleDate:       saleDate,
		Comments:       req.Comments,
	}

	if existing != nil {
		sale.ID = existing.ID
		if err := repo.Replace(ctx, sale); err != nil {
			return nil, err
		}
	} else {
		id, err := repo.Insert(ctx, sale)
		if err != nil {
			return nil, err
		}
		sale.ID = id
	}

	stock := repo.Stock()
	for _, item := range sale.Items {
		prev, err := stock.ReserveAndDeduct(ctx, item.ProductID, item.Quantity)
		if err != nil {
			return nil, err
		}
		if err := stock.RecordMovement(ctx, ledger.Movement{
			ProductID: item.ProductID,
			SaleID:    &sale.ID,
			Type:      ledger.MovementOut,
			Qty:       item.Quantity,
			UnitPrice: item.UnitPrice,
			Note:      "sale",
		}); err != nil {
			return nil, err
		}
		if s.unitTracking {
			if err := stock.MarkUnitsSold(ctx, item.ProductID, sale.ID, item.Quantity, item.UnitPrice); err != nil {
				return nil, err
			}
		}

		product := products[item.ProductID]
		if newQty := prev - item.Quantity; newQty <= product.ReorderLevel {
			result.lowStock = append(result.lowStock, lowStockProduct{
				ID:           product.ID,
				Name:         product.Name,
				Quantity:     newQty,
				ReorderLevel: product.ReorderLevel,
			})
		}
	}

	result.sale = sale
	return result, nil
}

// afterCommit performs best-effort side effects once a sale has committed:
// audit, reorder alerts, cache invalidation. Failures are logged, never
// surfaced to the caller.
func (s *Service) afterCommit(ctx context.Context, action string, result *commitResult) {
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			Action:   action,
			Entity:   "sale",
			EntityID: fmt.Sprintf("%d", result.sale.ID),
			Meta: map[string]any{
				"total":    result.sale.TotalAmount,
				"subtotal": result.sale.Subtotal,
				"items":    len(result.sale.Items),
			},
		})
	}
	if s.alerts != nil {
		for _, p := range result.lowStock {
			if err := s.alerts.ReorderAlert(ctx, p.ID, p.Name, p.Quantity, p.ReorderLevel); err != nil {
				s.logger.Warn("enqueue reorder alert", slog.Int64("product", p.ID), slog.Any("error", err))
			}
		}
	}
	if s.invalidator != nil {
		for _, barcode := range result.staleBarcodes {
			if err := s.invalidator.Invalidate(ctx, barcode); err != nil {
				s.logger.Warn("invalidate barcode cache", slog.String("barcode", barcode), slog.Any("error", err))
			}
		}
	}
}
