package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// LookupRepo resolves barcodes against the catalog.
type LookupRepo interface {
	GetProductByBarcode(ctx context.Context, barcode string) (*Product, error)
}

// StockChecker reports live on-hand quantity; the cached projection never
// carries stock because it goes stale the moment a sale commits.
type StockChecker interface {
	GetQuantity(ctx context.Context, productID int64) (int, error)
}

// Lookup resolves scanned barcodes with a redis read-through cache. The
// stable product fields are cached; availability is always checked live.
type Lookup struct {
	repo  LookupRepo
	stock StockChecker
	redis *redis.Client
	ttl   time.Duration
	group singleflight.Group
}

// NewLookup builds Lookup. redis may be nil, which disables caching.
func NewLookup(repo LookupRepo, stock StockChecker, rdb *redis.Client, ttl time.Duration) *Lookup {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Lookup{repo: repo, stock: stock, redis: rdb, ttl: ttl}
}

func scanKey(barcode string) string {
	return "scan:" + barcode
}

// ByBarcode resolves a barcode to a sellable product projection. It fails
// with ErrProductNotFound when no product matches or nothing is in stock.
func (l *Lookup) ByBarcode(ctx context.Context, barcode string) (*ScanResult, error) {
	if barcode == "" {
		return nil, ErrProductNotFound
	}

	product, err := l.cachedProduct(ctx, barcode)
	if err != nil {
		return nil, err
	}

	qty, err := l.stock.GetQuantity(ctx, product.ID)
	if err != nil {
		return nil, ErrProductNotFound
	}
	if qty <= 0 {
		return nil, ErrProductNotFound
	}

	result := &ScanResult{Price: product.Price, Barcode: product.Barcode}
	result.Product.ID = product.ID
	result.Product.Name = product.Name
	result.Product.Description = product.Description
	result.Product.Category = product.Category
	result.Product.Price = product.Price
	result.Product.Barcode = product.Barcode
	return result, nil
}

// Invalidate drops the cached projection for a barcode.
func (l *Lookup) Invalidate(ctx context.Context, barcode string) error {
	if l.redis == nil || barcode == "" {
		return nil
	}
	return l.redis.Del(ctx, scanKey(barcode)).Err()
}

func (l *Lookup) cachedProduct(ctx context.Context, barcode string) (*Product, error) {
	if l.redis != nil {
		raw, err := l.redis.Get(ctx, scanKey(barcode)).Bytes()
		if err == nil {
			var p Product
			if jsonErr := json.Unmarshal(raw, &p); jsonErr == nil {
				return &p, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			// Cache trouble is not a lookup failure; fall through to the
			// repository.
			_ = err
		}
	}

	// Collapse concurrent scans of the same code into one repository hit.
	v, err, _ := l.group.Do(barcode, func() (any, error) {
		p, err := l.repo.GetProductByBarcode(ctx, barcode)
		if err != nil {
			return nil, err
		}
		if l.redis != nil {
			if raw, err := json.Marshal(p); err == nil {
				_ = l.redis.Set(ctx, scanKey(barcode), raw, l.ttl).Err()
			}
		}
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Product), nil
}
