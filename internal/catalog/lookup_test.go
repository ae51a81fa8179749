package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type fakeLookupRepo struct {
	product *Product
	calls   int
}

func (f *fakeLookupRepo) GetProductByBarcode(ctx context.Context, barcode string) (*Product, error) {
	f.calls++
	if f.product == nil || f.product.Barcode != barcode {
		return nil, ErrProductNotFound
	}
	p := *f.product
	return &p, nil
}

type fakeStock struct {
	qty map[int64]int
}

func (f *fakeStock) GetQuantity(ctx context.Context, productID int64) (int, error) {
	qty, ok := f.qty[productID]
	if !ok {
		return 0, ErrProductNotFound
	}
	return qty, nil
}

func newLookupFixture(t *testing.T) (*Lookup, *fakeLookupRepo, *fakeStock, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	repo := &fakeLookupRepo{product: &Product{
		ID: 42, Name: "Widget", Category: "tools", Price: 9.5, Barcode: "IM001VP0042",
	}}
	stock := &fakeStock{qty: map[int64]int{42: 3}}
	return NewLookup(repo, stock, rdb, time.Minute), repo, stock, mr
}

func TestByBarcodeCachesProduct(t *testing.T) {
	lookup, repo, _, mr := newLookupFixture(t)
	ctx := context.Background()

	result, err := lookup.ByBarcode(ctx, "IM001VP0042")
	require.NoError(t, err)
	require.Equal(t, int64(42), result.Product.ID)
	require.Equal(t, "Widget", result.Product.Name)
	require.InDelta(t, 9.5, result.Price, 0.0001)
	require.Equal(t, "IM001VP0042", result.Barcode)
	require.Equal(t, 1, repo.calls)
	require.True(t, mr.Exists("scan:IM001VP0042"))

	// Second scan is served from the cache.
	_, err = lookup.ByBarcode(ctx, "IM001VP0042")
	require.NoError(t, err)
	require.Equal(t, 1, repo.calls)
}

func TestByBarcodeStockAlwaysLive(t *testing.T) {
	lookup, _, stock, _ := newLookupFixture(t)
	ctx := context.Background()

	_, err := lookup.ByBarcode(ctx, "IM001VP0042")
	require.NoError(t, err)

	// Stock drains between scans; the cached projection must not mask it.
	stock.qty[42] = 0
	_, err = lookup.ByBarcode(ctx, "IM001VP0042")
	require.ErrorIs(t, err, ErrProductNotFound)
}

func TestByBarcodeUnknownCode(t *testing.T) {
	lookup, _, _, _ := newLookupFixture(t)
	_, err := lookup.ByBarcode(context.Background(), "missing")
	require.ErrorIs(t, err, ErrProductNotFound)

	_, err = lookup.ByBarcode(context.Background(), "")
	require.ErrorIs(t, err, ErrProductNotFound)
}

func TestInvalidateDropsCache(t *testing.T) {
	lookup, repo, _, mr := newLookupFixture(t)
	ctx := context.Background()

	_, err := lookup.ByBarcode(ctx, "IM001VP0042")
	require.NoError(t, err)
	require.True(t, mr.Exists("scan:IM001VP0042"))

	require.NoError(t, lookup.Invalidate(ctx, "IM001VP0042"))
	require.False(t, mr.Exists("scan:IM001VP0042"))

	_, err = lookup.ByBarcode(ctx, "IM001VP0042")
	require.NoError(t, err)
	require.Equal(t, 2, repo.calls)
}

func TestLookupWithoutRedis(t *testing.T) {
	repo := &fakeLookupRepo{product: &Product{ID: 42, Name: "Widget", Price: 9.5, Barcode: "IM001VP0042"}}
	stock := &fakeStock{qty: map[int64]int{42: 1}}
	lookup := NewLookup(repo, stock, nil, 0)

	result, err := lookup.ByBarcode(context.Background(), "IM001VP0042")
	require.NoError(t, err)
	require.Equal(t, int64(42), result.Product.ID)
	require.NoError(t, lookup.Invalidate(context.Background(), "IM001VP0042"))
}
