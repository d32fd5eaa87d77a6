package dbHelper

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/model"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

const productColumns = `id, name, description, price, stock, category, brand, image_filename, is_active,
	is_on_sale, discount_percentage, sale_price, sale_start, sale_end, created_at, updated_at`

type productRow struct {
	ID                 string              `db:"id"`
	Name               string              `db:"name"`
	Description        string              `db:"description"`
	Price              decimal.Decimal     `db:"price"`
	Stock              int                 `db:"stock"`
	Category           string              `db:"category"`
	Brand              string              `db:"brand"`
	ImageFilename      string              `db:"image_filename"`
	IsActive           bool                `db:"is_active"`
	IsOnSale           bool                `db:"is_on_sale"`
	DiscountPercentage decimal.Decimal     `db:"discount_percentage"`
	SalePrice          decimal.NullDecimal `db:"sale_price"`
	SaleStart          sql.NullTime        `db:"sale_start"`
	SaleEnd            sql.NullTime        `db:"sale_end"`
	CreatedAt          time.Time           `db:"created_at"`
	UpdatedAt          time.Time           `db:"updated_at"`
}

func toProductRow(p *model.Product) productRow {
	row := productRow{
		ID:                 p.ID,
		Name:               p.Name,
		Description:        p.Description,
		Price:              p.Price,
		Stock:              p.Stock,
		Category:           p.Category,
		Brand:              p.Brand,
		ImageFilename:      p.ImageFilename,
		IsActive:           p.IsActive,
		IsOnSale:           p.Sale.IsOnSale,
		DiscountPercentage: p.Sale.DiscountPercentage,
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
	}
	if p.Sale.SalePrice != nil {
		row.SalePrice = decimal.NullDecimal{Decimal: *p.Sale.SalePrice, Valid: true}
	}
	if p.Sale.SaleStart != nil {
		row.SaleStart = sql.NullTime{Time: *p.Sale.SaleStart, Valid: true}
	}
	if p.Sale.SaleEnd != nil {
		row.SaleEnd = sql.NullTime{Time: *p.Sale.SaleEnd, Valid: true}
	}
	return row
}

func (r productRow) toModel() model.Product {
	p := model.Product{
		ID:            r.ID,
		Name:          r.Name,
		Description:   r.Description,
		Price:         r.Price,
		Stock:         r.Stock,
		Category:      r.Category,
		Brand:         r.Brand,
		ImageFilename: r.ImageFilename,
		IsActive:      r.IsActive,
		Sale: model.Sale{
			IsOnSale:           r.IsOnSale,
			DiscountPercentage: r.DiscountPercentage,
		},
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if r.SalePrice.Valid {
		v := r.SalePrice.Decimal
		p.Sale.SalePrice = &v
	}
	if r.SaleStart.Valid {
		v := r.SaleStart.Time
		p.Sale.SaleStart = &v
	}
	if r.SaleEnd.Valid {
		v := r.SaleEnd.Time
		p.Sale.SaleEnd = &v
	}
	return p
}

type ProductRepo struct {
	db *sqlx.DB
}

func (r *ProductRepo) Create(ctx context.Context, p *model.Product) error {
	SQL := `INSERT INTO products(` + productColumns + `)
			VALUES (:id, :name, :description, :price, :stock, :category, :brand, :image_filename, :is_active,
			        :is_on_sale, :discount_percentage, :sale_price, :sale_start, :sale_end, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, SQL, toProductRow(p)); err != nil {
		if pqCode(err) == uniqueViolation {
			return model.ErrDuplicate
		}
		return err
	}
	return nil
}

func (r *ProductRepo) Get(ctx context.Context, id string) (*model.Product, error) {
	SQL := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	var row productRow
	if err := r.db.GetContext(ctx, &row, SQL, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	p := row.toModel()
	return &p, nil
}

func (r *ProductRepo) FindByIDs(ctx context.Context, ids []string) (map[string]*model.Product, error) {
	out := make(map[string]*model.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	SQL := `SELECT ` + productColumns + ` FROM products WHERE id = ANY($1)`
	rows := make([]productRow, 0)
	if err := r.db.SelectContext(ctx, &rows, SQL, pq.Array(ids)); err != nil {
		return nil, err
	}
	for _, row := range rows {
		p := row.toModel()
		out[p.ID] = &p
	}
	return out, nil
}

func (r *ProductRepo) List(ctx context.Context, filter model.ProductFilter) ([]model.Product, error) {
	where, args := productWhere(filter)
	SQL := `SELECT ` + productColumns + ` FROM products` + where + ` ORDER BY created_at, id`
	rows := make([]productRow, 0)
	if err := r.db.SelectContext(ctx, &rows, SQL, args...); err != nil {
		return nil, err
	}
	list := make([]model.Product, 0, len(rows))
	for _, row := range rows {
		list = append(list, row.toModel())
	}
	return list, nil
}

// productWhere renders filter as a WHERE clause with positional arguments.
func productWhere(filter model.ProductFilter) (string, []interface{}) {
	var conds []string
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if filter.ActiveOnly {
		conds = append(conds, "is_active = TRUE")
	}
	if filter.OnSale {
		conds = append(conds, "is_on_sale = TRUE")
	}
	if filter.Category != "" {
		conds = append(conds, "LOWER(category) = LOWER("+arg(filter.Category)+")")
	}
	if filter.Brand != "" {
		conds = append(conds, "brand = "+arg(filter.Brand))
	}
	if filter.NameContains != "" {
		conds = append(conds, "name ILIKE "+arg("%"+escapeLike(filter.NameContains)+"%"))
	}
	if filter.MinPrice != nil {
		conds = append(conds, "price >= "+arg(*filter.MinPrice))
	}
	if filter.MaxPrice != nil {
		conds = append(conds, "price <= "+arg(*filter.MaxPrice))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (r *ProductRepo) Distinct(ctx context.Context, field model.ProductField, activeOnly bool) ([]string, error) {
	var column string
	switch field {
	case model.ProductFieldCategory:
		column = "category"
	case model.ProductFieldBrand:
		column = "brand"
	default:
		return nil, fmt.Errorf("unsupported distinct field %q", field)
	}
	SQL := `SELECT DISTINCT ` + column + ` FROM products`
	if activeOnly {
		SQL += ` WHERE is_active = TRUE`
	}
	SQL += ` ORDER BY ` + column
	values := make([]string, 0)
	err := r.db.SelectContext(ctx, &values, SQL)
	return values, err
}

func (r *ProductRepo) Update(ctx context.Context, p *model.Product) error {
	SQL := `UPDATE products SET
				name = :name,
				description = :description,
				price = :price,
				stock = :stock,
				category = :category,
				brand = :brand,
				image_filename = :image_filename,
				is_active = :is_active,
				is_on_sale = :is_on_sale,
				discount_percentage = :discount_percentage,
				sale_price = :sale_price,
				sale_start = :sale_start,
				sale_end = :sale_end,
				updated_at = :updated_at
			WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, SQL, toProductRow(p))
	if err != nil {
		return err
	}
	return expectOne(result)
}

func (r *ProductRepo) SetActive(ctx context.Context, id string, active bool) (*model.Product, error) {
	SQL := `UPDATE products SET is_active = $2, updated_at = NOW() WHERE id = $1 RETURNING ` + productColumns
	var row productRow
	if err := r.db.GetContext(ctx, &row, SQL, id, active); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	p := row.toModel()
	return &p, nil
}

func (r *ProductRepo) Delete(ctx context.Context, id string) (*model.Product, error) {
	SQL := `DELETE FROM products WHERE id = $1 RETURNING ` + productColumns
	var row productRow
	if err := r.db.GetContext(ctx, &row, SQL, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	p := row.toModel()
	return &p, nil
}

func expectOne(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return model.ErrNotFound
	}
	return nil
}
