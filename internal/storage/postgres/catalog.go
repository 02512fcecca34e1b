package postgres

import (
	"context"
	"database/sql"

	"github.com/Heidric/storefront/internal/model"
	"github.com/Heidric/storefront/internal/storage"
	"github.com/huandu/go-sqlbuilder"
	"github.com/pkg/errors"
)

var productColumns = []string{
	"products.id", "products.name", "products.slug", "products.description",
	"products.price", "products.image_url", "products.stock", "products.supplier_id",
	"products.category_id", "products.rating", "products.is_active",
}

var categoryColumns = []string{"id", "name", "slug", "is_active", "parent_id"}

func (s *Storage) selectProducts(ctx context.Context, sb *sqlbuilder.SelectBuilder, op string) ([]model.Product, error) {
	query, args := sb.BuildWithFlavor(sqlbuilder.PostgreSQL)

	out := make([]model.Product, 0)
	conn := s.db.GetConn()
	if err := conn.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, errors.Wrap(err, op)
	}

	return out, nil
}

// ListActiveProducts returns active, in-stock products of active categories.
func (s *Storage) ListActiveProducts(ctx context.Context) ([]model.Product, error) {
	sb := sqlbuilder.NewSelectBuilder()
	sb.Select(productColumns...).
		From("products").
		Join("categories", "categories.id = products.category_id").
		Where(
			sb.Equal("products.is_active", true),
			sb.Equal("categories.is_active", true),
			sb.GreaterThan("products.stock", 0),
		).
		OrderBy("products.id")

	return s.selectProducts(ctx, sb, "list active products")
}

// ListActiveProductsByCategories returns active, in-stock products that belong
// to any of the given categories.
func (s *Storage) ListActiveProductsByCategories(ctx context.Context, categoryIDs []int64) ([]model.Product, error) {
	if len(categoryIDs) == 0 {
		return []model.Product{}, nil
	}

	sb := sqlbuilder.NewSelectBuilder()
	sb.Select(productColumns...).
		From("products").
		Where(
			sb.In("products.category_id", sqlbuilder.Flatten(categoryIDs)...),
			sb.Equal("products.is_active", true),
			sb.GreaterThan("products.stock", 0),
		).
		OrderBy("products.id")

	return s.selectProducts(ctx, sb, "list products by categories")
}

func (s *Storage) getCategory(ctx context.Context, column string, value any) (*model.Category, error) {
	sb := sqlbuilder.NewSelectBuilder()
	sb.Select(categoryColumns...).
		From("categories").
		Where(sb.Equal(column, value), sb.Equal("is_active", true))

	query, args := sb.BuildWithFlavor(sqlbuilder.PostgreSQL)

	var category model.Category
	conn := s.db.GetConn()
	if err := conn.GetContext(ctx, &category, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrEntityNotFound
		}
		return nil, errors.Wrapf(err, "get category by %s", column)
	}

	return &category, nil
}

func (s *Storage) GetCategoryByID(ctx context.Context, id int64) (*model.Category, error) {
	return s.getCategory(ctx, "id", id)
}

func (s *Storage) GetCategoryBySlug(ctx context.Context, slug string) (*model.Category, error) {
	return s.getCategory(ctx, "slug", slug)
}

// ListSubcategoryIDs returns the ids of the direct children of parentID.
func (s *Storage) ListSubcategoryIDs(ctx context.Context, parentID int64) ([]int64, error) {
	sb := sqlbuilder.NewSelectBuilder()
	sb.Select("id").
		From("categories").
		Where(sb.Equal("parent_id", parentID), sb.Equal("is_active", true))

	query, args := sb.BuildWithFlavor(sqlbuilder.PostgreSQL)

	ids := make([]int64, 0)
	conn := s.db.GetConn()
	if err := conn.SelectContext(ctx, &ids, query, args...); err != nil {
		return nil, errors.Wrap(err, "list subcategories")
	}

	return ids, nil
}

type productFilter int

const (
	anyProduct productFilter = iota
	activeProduct
	availableProduct
)

func (s *Storage) getProduct(ctx context.Context, column string, value any, filter productFilter) (*model.Product, error) {
	sb := sqlbuilder.NewSelectBuilder()
	sb.Select(productColumns...).
		From("products").
		Where(sb.Equal("products."+column, value))
	if filter >= activeProduct {
		sb.Where(sb.Equal("products.is_active", true))
	}
	if filter == availableProduct {
		sb.Where(sb.GreaterThan("products.stock", 0))
	}

	query, args := sb.BuildWithFlavor(sqlbuilder.PostgreSQL)

	var product model.Product
	conn := s.db.GetConn()
	if err := conn.GetContext(ctx, &product, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrEntityNotFound
		}
		return nil, errors.Wrapf(err, "get product by %s", column)
	}

	return &product, nil
}

// GetProductBySlug looks up an active product regardless of stock.
func (s *Storage) GetProductBySlug(ctx context.Context, slug string) (*model.Product, error) {
	return s.getProduct(ctx, "slug", slug, activeProduct)
}

// GetAvailableProductBySlug looks up an active product that is in stock.
func (s *Storage) GetAvailableProductBySlug(ctx context.Context, slug string) (*model.Product, error) {
	return s.getProduct(ctx, "slug", slug, availableProduct)
}

// GetProductByID looks up an active product.
func (s *Storage) GetProductByID(ctx context.Context, id int64) (*model.Product, error) {
	return s.getProduct(ctx, "id", id, activeProduct)
}

// FindProductByID looks up a product whether or not it was soft-deleted.
func (s *Storage) FindProductByID(ctx context.Context, id int64) (*model.Product, error) {
	return s.getProduct(ctx, "id", id, anyProduct)
}

func (s *Storage) CreateProduct(ctx context.Context, p *model.Product) (int64, error) {
	ib := sqlbuilder.NewInsertBuilder()
	ib.InsertInto("products").
		Cols("name", "slug", "description", "price", "image_url", "stock",
			"supplier_id", "category_id", "rating", "is_active").
		Values(p.Name, p.Slug, p.Description, p.Price, p.ImageURL, p.Stock,
			p.SupplierID, p.CategoryID, p.Rating, p.IsActive).
		SQL("RETURNING id")

	query, args := ib.BuildWithFlavor(sqlbuilder.PostgreSQL)

	var id int64
	conn := s.db.GetConn()
	if err := conn.GetContext(ctx, &id, query, args...); err != nil {
		if isUniqueViolation(err) {
			return 0, storage.ErrEntityNotUnique
		}
		return 0, errors.Wrap(err, "create product")
	}

	p.ID = id
	return id, nil
}

// UpdateProduct overwrites the editable columns of the product with p.ID.
// Owner, rating and active flag are left as they are.
func (s *Storage) UpdateProduct(ctx context.Context, p *model.Product) error {
	ub := sqlbuilder.NewUpdateBuilder()
	ub.Update("products").
		Set(
			ub.Assign("name", p.Name),
			ub.Assign("slug", p.Slug),
			ub.Assign("description", p.Description),
			ub.Assign("price", p.Price),
			ub.Assign("image_url", p.ImageURL),
			ub.Assign("stock", p.Stock),
			ub.Assign("category_id", p.CategoryID),
		).
		Where(ub.Equal("id", p.ID))

	query, args := ub.BuildWithFlavor(sqlbuilder.PostgreSQL)

	conn := s.db.GetConn()
	res, err := conn.ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrEntityNotUnique
		}
		return errors.Wrap(err, "update product")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return storage.ErrEntityNotFound
	}

	return nil
}

func (s *Storage) DeactivateProduct(ctx context.Context, id int64) error {
	ub := sqlbuilder.NewUpdateBuilder()
	ub.Update("products").
		Set(ub.Assign("is_active", false)).
		Where(ub.Equal("id", id))

	query, args := ub.BuildWithFlavor(sqlbuilder.PostgreSQL)

	conn := s.db.GetConn()
	res, err := conn.ExecContext(ctx, query, args...)
	if err != nil {
		return errors.Wrap(err, "deactivate product")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return storage.ErrEntityNotFound
	}

	return nil
}
