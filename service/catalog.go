package service

import (
	"context"
	"strings"
	"time"

	"storefront/model"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type CatalogService struct {
	products ProductRepository
	now      func() time.Time
}

func NewCatalogService(products ProductRepository) *CatalogService {
	return &CatalogService{products: products, now: time.Now}
}

func (s *CatalogService) Create(ctx context.Context, actor model.Principal, in model.ProductInput) (*model.Product, error) {
	if err := RequireAdmin(actor); err != nil {
		return nil, err
	}
	in.Name = strings.TrimSpace(in.Name)
	in.Brand = strings.TrimSpace(in.Brand)
	if err := validate.Struct(in); err != nil {
		return nil, model.Validation("All fields are required and must be valid", details(fieldErrors(err))...)
	}
	if in.Price.IsNegative() {
		return nil, model.Validation("All fields are required and must be valid", "Price must not be negative")
	}
	if !cents(in.Price) {
		return nil, model.Validation("All fields are required and must be valid", "Price must have at most 2 decimal places")
	}
	category := strings.TrimSpace(in.Category)
	if category == "" {
		category = model.DefaultCategory
	}

	now := s.now().UTC()
	p := &model.Product{
		ID:            uuid.NewString(),
		Name:          in.Name,
		Description:   in.Description,
		Price:         in.Price,
		Stock:         in.Stock,
		Category:      category,
		Brand:         in.Brand,
		ImageFilename: in.ImageFilename,
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.products.Create(ctx, p); err != nil {
		return nil, storeErr(err, "Product not found")
	}
	logrus.WithField("productId", p.ID).Info("product created")
	return p, nil
}

func (s *CatalogService) Get(ctx context.Context, id string) (*model.Product, error) {
	if strings.TrimSpace(id) == "" {
		return nil, model.Validation("Product ID is required")
	}
	p, err := s.products.Get(ctx, id)
	if err != nil {
		return nil, storeErr(err, "Product not found")
	}
	return p, nil
}

func (s *CatalogService) All(ctx context.Context, actor model.Principal) ([]model.Product, error) {
	if err := RequireAdmin(actor); err != nil {
		return nil, err
	}
	return s.list(ctx, model.ProductFilter{}, "No products found")
}

func (s *CatalogService) Active(ctx context.Context) ([]model.Product, error) {
	return s.list(ctx, model.ProductFilter{ActiveOnly: true}, "No active products found")
}

func (s *CatalogService) ByCategory(ctx context.Context, category string) ([]model.Product, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return nil, model.Validation("Category is required")
	}
	return s.list(ctx, model.ProductFilter{ActiveOnly: true, Category: category}, "No products found in category: "+category)
}

func (s *CatalogService) ByBrand(ctx context.Context, brand string) ([]model.Product, error) {
	brand = strings.TrimSpace(brand)
	if brand == "" {
		return nil, model.Validation("Brand is required")
	}
	return s.list(ctx, model.ProductFilter{ActiveOnly: true, Brand: brand}, "No products found for this brand")
}

// OnSale lists products flagged as on sale. An empty result is not an error.
func (s *CatalogService) OnSale(ctx context.Context) ([]model.Product, error) {
	products, err := s.products.List(ctx, model.ProductFilter{OnSale: true})
	if err != nil {
		return nil, storeErr(err, "")
	}
	return products, nil
}

func (s *CatalogService) SearchByName(ctx context.Context, name string) ([]model.Product, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, model.Validation("Product name is required")
	}
	return s.list(ctx, model.ProductFilter{ActiveOnly: true, NameContains: name}, "No products found")
}

func (s *CatalogService) SearchByPrice(ctx context.Context, req model.SearchByPriceRequest) ([]model.Product, error) {
	if req.MinPrice == nil && req.MaxPrice == nil {
		return nil, model.Validation("Price range is required")
	}
	if req.MinPrice != nil && req.MaxPrice != nil && req.MinPrice.GreaterThan(*req.MaxPrice) {
		return nil, model.Validation("Minimum price must not exceed maximum price")
	}
	filter := model.ProductFilter{ActiveOnly: true, MinPrice: req.MinPrice, MaxPrice: req.MaxPrice}
	return s.list(ctx, filter, "No products found in this price range")
}

func (s *CatalogService) Categories(ctx context.Context) ([]string, error) {
	values, err := s.products.Distinct(ctx, model.ProductFieldCategory, true)
	if err != nil {
		return nil, storeErr(err, "")
	}
	return values, nil
}

func (s *CatalogService) Brands(ctx context.Context) ([]string, error) {
	values, err := s.products.Distinct(ctx, model.ProductFieldBrand, false)
	if err != nil {
		return nil, storeErr(err, "")
	}
	return values, nil
}

func (s *CatalogService) Update(ctx context.Context, actor model.Principal, id string, req model.UpdateProductRequest) (*model.Product, error) {
	if err := RequireAdmin(actor); err != nil {
		return nil, err
	}
	p, err := s.products.Get(ctx, id)
	if err != nil {
		return nil, storeErr(err, "Product not found.")
	}
	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, model.Validation("Product name must not be empty")
		}
		p.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.Brand != nil {
		if strings.TrimSpace(*req.Brand) == "" {
			return nil, model.Validation("Brand must not be empty")
		}
		p.Brand = strings.TrimSpace(*req.Brand)
	}
	if req.Category != nil {
		p.Category = strings.TrimSpace(*req.Category)
		if p.Category == "" {
			p.Category = model.DefaultCategory
		}
	}
	if req.Stock != nil {
		if *req.Stock < 0 {
			return nil, model.Validation("Stock must not be negative")
		}
		p.Stock = *req.Stock
	}
	if req.Price != nil {
		if req.Price.IsNegative() {
			return nil, model.Validation("Price must not be negative")
		}
		if !cents(*req.Price) {
			return nil, model.Validation("Price must have at most 2 decimal places")
		}
		p.Price = *req.Price
	}
	if err := refreshSalePrice(p); err != nil {
		return nil, err
	}
	p.UpdatedAt = s.now().UTC()
	if err := s.products.Update(ctx, p); err != nil {
		return nil, storeErr(err, "Product not found.")
	}
	return p, nil
}

func (s *CatalogService) Archive(ctx context.Context, actor model.Principal, id string) (*model.Product, error) {
	return s.setActive(ctx, actor, id, false)
}

func (s *CatalogService) Activate(ctx context.Context, actor model.Principal, id string) (*model.Product, error) {
	return s.setActive(ctx, actor, id, true)
}

func (s *CatalogService) setActive(ctx context.Context, actor model.Principal, id string, active bool) (*model.Product, error) {
	if err := RequireAdmin(actor); err != nil {
		return nil, err
	}
	p, err := s.products.SetActive(ctx, id, active)
	if err != nil {
		return nil, storeErr(err, "Product not found.")
	}
	return p, nil
}

func (s *CatalogService) Delete(ctx context.Context, actor model.Principal, id string) (*model.Product, error) {
	if err := RequireAdmin(actor); err != nil {
		return nil, err
	}
	p, err := s.products.Delete(ctx, id)
	if err != nil {
		return nil, storeErr(err, "Product not found")
	}
	logrus.WithField("productId", id).Info("product deleted")
	return p, nil
}

// UpdateSale applies a sale change; the cached sale price is written in the same update.
func (s *CatalogService) UpdateSale(ctx context.Context, actor model.Principal, id string, in model.SaleInput) (*model.Product, error) {
	if err := RequireAdmin(actor); err != nil {
		return nil, err
	}
	p, err := s.products.Get(ctx, id)
	if err != nil {
		return nil, storeErr(err, "Product not found")
	}
	if err := ApplySale(p, in); err != nil {
		return nil, err
	}
	p.UpdatedAt = s.now().UTC()
	if err := s.products.Update(ctx, p); err != nil {
		return nil, storeErr(err, "Product not found")
	}
	return p, nil
}

func (s *CatalogService) list(ctx context.Context, filter model.ProductFilter, emptyMessage string) ([]model.Product, error) {
	products, err := s.products.List(ctx, filter)
	if err != nil {
		return nil, storeErr(err, "")
	}
	if len(products) == 0 {
		return nil, model.NotFound(emptyMessage)
	}
	return products, nil
}

// Export returns every product for the admin spreadsheet, empty catalog included.
func (s *CatalogService) Export(ctx context.Context, actor model.Principal) ([]model.Product, error) {
	if err := RequireAdmin(actor); err != nil {
		return nil, err
	}
	products, err := s.products.List(ctx, model.ProductFilter{})
	if err != nil {
		return nil, storeErr(err, "")
	}
	return products, nil
}
