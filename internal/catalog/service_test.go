package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type memCatalogRepo struct {
	products map[int64]Product
	buyers   map[int64]Buyer
	seqs     map[string]int64
	units    map[int64]int
	nextID   int64
}

func newMemCatalogRepo() *memCatalogRepo {
	return &memCatalogRepo{
		products: make(map[int64]Product),
		buyers:   make(map[int64]Buyer),
		seqs:     make(map[string]int64),
		units:    make(map[int64]int),
		nextID:   1,
	}
}

func (r *memCatalogRepo) ListProducts(ctx context.Context) ([]Product, error) {
	var out []Product
	for _, p := range r.products {
		out = append(out, p)
	}
	return out, nil
}

func (r *memCatalogRepo) GetProduct(ctx context.Context, id int64) (*Product, error) {
	p, ok := r.products[id]
	if !ok {
		return nil, ErrProductNotFound
	}
	return &p, nil
}

func (r *memCatalogRepo) GetProductByBarcode(ctx context.Context, barcode string) (*Product, error) {
	for _, p := range r.products {
		if p.Barcode == barcode {
			return &p, nil
		}
	}
	return nil, ErrProductNotFound
}

func (r *memCatalogRepo) CreateProduct(ctx context.Context, p Product) (int64, error) {
	id := r.nextID
	r.nextID++
	p.ID = id
	r.products[id] = p
	return id, nil
}

func (r *memCatalogRepo) UpdateProduct(ctx context.Context, id int64, p Product) error {
	existing, ok := r.products[id]
	if !ok {
		return ErrProductNotFound
	}
	p.ID = id
	p.Barcode = existing.Barcode
	p.Quantity = existing.Quantity
	r.products[id] = p
	return nil
}

func (r *memCatalogRepo) DeleteProduct(ctx context.Context, id int64) error {
	if _, ok := r.products[id]; !ok {
		return ErrProductNotFound
	}
	delete(r.products, id)
	return nil
}

func (r *memCatalogRepo) NextBarcodeSeq(ctx context.Context, prefix string) (int64, error) {
	r.seqs[prefix]++
	return r.seqs[prefix], nil
}

func (r *memCatalogRepo) ListBuyers(ctx context.Context) ([]Buyer, error) {
	var out []Buyer
	for _, b := range r.buyers {
		out = append(out, b)
	}
	return out, nil
}

func (r *memCatalogRepo) GetBuyer(ctx context.Context, id int64) (*Buyer, error) {
	b, ok := r.buyers[id]
	if !ok {
		return nil, ErrBuyerNotFound
	}
	return &b, nil
}

func (r *memCatalogRepo) InsertUnits(ctx context.Context, productID int64, count int) error {
	r.units[productID] += count
	return nil
}

type memCache struct {
	invalidated []string
}

func (c *memCache) Invalidate(ctx context.Context, barcode string) error {
	c.invalidated = append(c.invalidated, barcode)
	return nil
}

func TestCreateProductAssignsBarcodes(t *testing.T) {
	repo := newMemCatalogRepo()
	svc := NewService(repo, nil, nil, ServiceConfig{BarcodePrefix: "IM001VP"})
	ctx := context.Background()

	first, err := svc.CreateProduct(ctx, Product{Name: "Widget", Category: "tools", Price: 10})
	require.NoError(t, err)
	require.Equal(t, "IM001VP0001", first.Barcode)

	second, err := svc.CreateProduct(ctx, Product{Name: "Gadget", Category: "tools", Price: 5})
	require.NoError(t, err)
	require.Equal(t, "IM001VP0002", second.Barcode)
	require.NotEqual(t, first.ID, second.ID)
}

func TestCreateProductDefaultPrefix(t *testing.T) {
	repo := newMemCatalogRepo()
	svc := NewService(repo, nil, nil, ServiceConfig{})

	p, err := svc.CreateProduct(context.Background(), Product{Name: "Widget", Category: "tools"})
	require.NoError(t, err)
	require.Equal(t, "IM001VP0001", p.Barcode)
}

func TestCreateProductSeedsUnits(t *testing.T) {
	repo := newMemCatalogRepo()
	svc := NewService(repo, nil, nil, ServiceConfig{UnitTracking: true})

	p, err := svc.CreateProduct(context.Background(), Product{Name: "Widget", Category: "tools", Quantity: 4})
	require.NoError(t, err)
	require.Equal(t, 4, repo.units[p.ID])
}

func TestUpdateProductInvalidatesCache(t *testing.T) {
	repo := newMemCatalogRepo()
	cache := &memCache{}
	svc := NewService(repo, cache, nil, ServiceConfig{})
	ctx := context.Background()

	p, err := svc.CreateProduct(ctx, Product{Name: "Widget", Category: "tools", Price: 10})
	require.NoError(t, err)

	updated, err := svc.UpdateProduct(ctx, p.ID, Product{Name: "Widget v2", Category: "tools", Price: 12})
	require.NoError(t, err)
	require.Equal(t, "Widget v2", updated.Name)
	require.Equal(t, p.Barcode, updated.Barcode)
	require.Equal(t, []string{p.Barcode}, cache.invalidated)
}

func TestDeleteProductInvalidatesCache(t *testing.T) {
	repo := newMemCatalogRepo()
	cache := &memCache{}
	svc := NewService(repo, cache, nil, ServiceConfig{})
	ctx := context.Background()

	p, err := svc.CreateProduct(ctx, Product{Name: "Widget", Category: "tools", Price: 10})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteProduct(ctx, p.ID))
	require.Equal(t, []string{p.Barcode}, cache.invalidated)

	_, err = svc.GetProduct(ctx, p.ID)
	require.ErrorIs(t, err, ErrProductNotFound)
}

func TestDeleteProductMissing(t *testing.T) {
	svc := NewService(newMemCatalogRepo(), nil, nil, ServiceConfig{})
	require.ErrorIs(t, svc.DeleteProduct(context.Background(), 404), ErrProductNotFound)
}
