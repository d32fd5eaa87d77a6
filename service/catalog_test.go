package service_test

import (
	"context"
	"testing"
	"time"

	"storefront/database/memstore"
	"storefront/model"
	"storefront/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCatalog(t *testing.T) (*service.CatalogService, *memstore.Store) {
	t.Helper()
	store := memstore.New()
	return service.NewCatalogService(store.Products()), store
}

func productInput(name, brand, category, price string) model.ProductInput {
	return model.ProductInput{
		Name:        name,
		Description: name + " description",
		Price:       dec(price),
		Stock:       5,
		Category:    category,
		Brand:       brand,
	}
}

func TestCatalogCreate(t *testing.T) {
	svc, _ := newCatalog(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, buyer, productInput("Headphones", "Acme", "", "99.99"))
	requireKind(t, err, model.KindForbidden)

	_, err = svc.Create(ctx, admin, productInput("Headphones", "", "", "99.99"))
	requireKind(t, err, model.KindValidation)
	assert.Equal(t, "All fields are required and must be valid", err.Error())

	_, err = svc.Create(ctx, admin, productInput("Headphones", "Acme", "", "-1"))
	requireKind(t, err, model.KindValidation)
	_, err = svc.Create(ctx, admin, productInput("Headphones", "Acme", "", "9.999"))
	requireKind(t, err, model.KindValidation)

	p, err := svc.Create(ctx, admin, productInput("Headphones", "Acme", "", "99.99"))
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, model.DefaultCategory, p.Category)
	assert.True(t, p.IsActive)

	got, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Headphones", got.Name)

	_, err = svc.Get(ctx, "missing")
	requireKind(t, err, model.KindNotFound)
}

func TestCatalogListings(t *testing.T) {
	svc, store := newCatalog(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	seedProduct(t, store, "a", "10.00", func(p *model.Product) {
		p.Name, p.Category, p.Brand, p.CreatedAt = "Wireless Mouse", "Accessories", "Logi", base
	})
	seedProduct(t, store, "b", "250.00", func(p *model.Product) {
		p.Name, p.Category, p.Brand, p.CreatedAt = "Studio Monitor", "Audio", "Yamaha", base.Add(time.Minute)
	})
	seedProduct(t, store, "c", "40.00", func(p *model.Product) {
		p.Name, p.Category, p.Brand, p.IsActive, p.CreatedAt = "Mouse Pad", "Accessories", "Zeta", false, base.Add(2*time.Minute)
	})

	active, err := svc.Active(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 2)

	_, err = svc.All(ctx, buyer)
	requireKind(t, err, model.KindForbidden)
	all, err := svc.All(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	byCategory, err := svc.ByCategory(ctx, "accessories")
	require.NoError(t, err)
	require.Len(t, byCategory, 1, "case-insensitive and active only")
	assert.Equal(t, "a", byCategory[0].ID)

	_, err = svc.ByCategory(ctx, "Garden")
	requireKind(t, err, model.KindNotFound)

	_, err = svc.ByBrand(ctx, "Zeta")
	requireKind(t, err, model.KindNotFound)

	byName, err := svc.SearchByName(ctx, "MOUSE")
	require.NoError(t, err)
	require.Len(t, byName, 1)
	assert.Equal(t, "a", byName[0].ID)

	_, err = svc.SearchByPrice(ctx, model.SearchByPriceRequest{})
	requireKind(t, err, model.KindValidation)
	byPrice, err := svc.SearchByPrice(ctx, model.SearchByPriceRequest{MinPrice: decPtr("20")})
	require.NoError(t, err)
	require.Len(t, byPrice, 1)
	assert.Equal(t, "b", byPrice[0].ID)

	onSale, err := svc.OnSale(ctx)
	require.NoError(t, err)
	assert.Empty(t, onSale, "empty sale listing is not an error")

	categories, err := svc.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Accessories", "Audio"}, categories)
	brands, err := svc.Brands(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Logi", "Yamaha", "Zeta"}, brands)
}

func TestCatalogUpdateRecomputesSalePrice(t *testing.T) {
	svc, store := newCatalog(t)
	ctx := context.Background()
	seedProduct(t, store, "p1", "100.00")

	p, err := svc.UpdateSale(ctx, admin, "p1", model.SaleInput{IsOnSale: true, DiscountPercentage: dec("20")})
	require.NoError(t, err)
	assert.Equal(t, "80.00", p.Sale.SalePrice.StringFixed(2))

	_, err = svc.UpdateSale(ctx, admin, "p1", model.SaleInput{IsOnSale: true, DiscountPercentage: dec("150")})
	requireKind(t, err, model.KindValidation)

	p, err = svc.Update(ctx, admin, "p1", model.UpdateProductRequest{Price: decPtr("50.00")})
	require.NoError(t, err)
	assert.Equal(t, "40.00", p.Sale.SalePrice.StringFixed(2))

	stored, err := store.Products().Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "40.00", stored.Sale.SalePrice.StringFixed(2))
	assert.True(t, stored.Sale.SalePrice.LessThan(stored.Price))

	onSale, err := svc.OnSale(ctx)
	require.NoError(t, err)
	assert.Len(t, onSale, 1)

	_, err = svc.Update(ctx, admin, "p1", model.UpdateProductRequest{Price: decPtr("50.005")})
	requireKind(t, err, model.KindValidation)

	_, err = svc.Update(ctx, buyer, "p1", model.UpdateProductRequest{})
	requireKind(t, err, model.KindForbidden)
	_, err = svc.Update(ctx, admin, "missing", model.UpdateProductRequest{})
	requireKind(t, err, model.KindNotFound)
}

func TestCatalogArchiveActivateDelete(t *testing.T) {
	svc, store := newCatalog(t)
	ctx := context.Background()
	seedProduct(t, store, "p1", "10.00")

	p, err := svc.Archive(ctx, admin, "p1")
	require.NoError(t, err)
	assert.False(t, p.IsActive)
	_, err = svc.Active(ctx)
	requireKind(t, err, model.KindNotFound)

	p, err = svc.Activate(ctx, admin, "p1")
	require.NoError(t, err)
	assert.True(t, p.IsActive)

	_, err = svc.Delete(ctx, buyer, "p1")
	requireKind(t, err, model.KindForbidden)
	deleted, err := svc.Delete(ctx, admin, "p1")
	require.NoError(t, err)
	assert.Equal(t, "p1", deleted.ID)
	_, err = svc.Delete(ctx, admin, "p1")
	requireKind(t, err, model.KindNotFound)

	exported, err := svc.Export(ctx, admin)
	require.NoError(t, err)
	assert.Empty(t, exported)
}
