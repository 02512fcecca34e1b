package catalog

import (
	"context"

	"github.com/Heidric/storefront/internal/logger"
	"github.com/Heidric/storefront/internal/model"
	"github.com/Heidric/storefront/internal/services/guard"
	"github.com/Heidric/storefront/internal/storage"
	"github.com/gosimple/slug"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

var log zerolog.Logger

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrCategoryNotFound = errors.New("category not found")
	ErrProductNotUnique = errors.New("product with this name already exists")
	ErrEmptySlug        = errors.New("product name has no sluggable characters")
)

type CatalogStorage interface {
	ListActiveProducts(ctx context.Context) ([]model.Product, error)
	ListActiveProductsByCategories(ctx context.Context, categoryIDs []int64) ([]model.Product, error)
	GetCategoryByID(ctx context.Context, id int64) (*model.Category, error)
	GetCategoryBySlug(ctx context.Context, slug string) (*model.Category, error)
	ListSubcategoryIDs(ctx context.Context, parentID int64) ([]int64, error)
	GetProductBySlug(ctx context.Context, slug string) (*model.Product, error)
	GetAvailableProductBySlug(ctx context.Context, slug string) (*model.Product, error)
	CreateProduct(ctx context.Context, p *model.Product) (int64, error)
	UpdateProduct(ctx context.Context, p *model.Product) error
	DeactivateProduct(ctx context.Context, id int64) error
}

type Catalog struct {
	storage CatalogStorage
}

func New(storage CatalogStorage) *Catalog {
	log = *logger.Log
	log = log.With().Str("name", "catalog-service").Logger()

	return &Catalog{storage: storage}
}

func (c *Catalog) List(ctx context.Context) ([]model.Product, error) {
	return c.storage.ListActiveProducts(ctx)
}

// ListByCategory returns the products of the category and of its direct
// subcategories.
func (c *Catalog) ListByCategory(ctx context.Context, categorySlug string) ([]model.Product, error) {
	category, err := c.storage.GetCategoryBySlug(ctx, categorySlug)
	if err != nil {
		if errors.Is(err, storage.ErrEntityNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, errors.Wrap(err, "get category")
	}

	subIDs, err := c.storage.ListSubcategoryIDs(ctx, category.ID)
	if err != nil {
		return nil, errors.Wrap(err, "list subcategories")
	}

	return c.storage.ListActiveProductsByCategories(ctx, append([]int64{category.ID}, subIDs...))
}

// Detail returns an active product only while it is in stock.
func (c *Catalog) Detail(ctx context.Context, productSlug string) (*model.Product, error) {
	product, err := c.storage.GetAvailableProductBySlug(ctx, productSlug)
	if err != nil {
		if errors.Is(err, storage.ErrEntityNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, errors.Wrap(err, "get product")
	}

	return product, nil
}

// Create lists a new product owned by the caller. Only admins and suppliers
// may do so.
func (c *Catalog) Create(ctx context.Context, claims *model.ClaimSet, dto model.ProductDTO) (*model.Product, error) {
	if err := guard.Authorize(claims, guard.Create()); err != nil {
		return nil, err
	}

	if err := c.ensureCategory(ctx, dto.Category); err != nil {
		return nil, err
	}

	productSlug := slug.Make(dto.Name)
	if productSlug == "" {
		return nil, ErrEmptySlug
	}

	supplierID := claims.UserID
	product := &model.Product{
		Name:        dto.Name,
		Slug:        productSlug,
		Description: dto.Description,
		Price:       dto.Price,
		ImageURL:    dto.ImageURL,
		Stock:       dto.Stock,
		SupplierID:  &supplierID,
		CategoryID:  dto.Category,
		Rating:      0,
		IsActive:    true,
	}

	if _, err := c.storage.CreateProduct(ctx, product); err != nil {
		if errors.Is(err, storage.ErrEntityNotUnique) {
			return nil, ErrProductNotUnique
		}
		return nil, errors.Wrap(err, "create product")
	}

	log.Info().Int64("product_id", product.ID).Int64("supplier_id", supplierID).Msg("product created")

	return product, nil
}

// Update rewrites the product identified by productSlug. Callers without a
// catalog role are refused before the product is looked up.
func (c *Catalog) Update(ctx context.Context, claims *model.ClaimSet, productSlug string, dto model.ProductDTO) (*model.Product, error) {
	product, err := c.loadForMutation(ctx, claims, productSlug)
	if err != nil {
		return nil, err
	}

	if err := c.ensureCategory(ctx, dto.Category); err != nil {
		return nil, err
	}

	newSlug := slug.Make(dto.Name)
	if newSlug == "" {
		return nil, ErrEmptySlug
	}

	product.Name = dto.Name
	product.Slug = newSlug
	product.Description = dto.Description
	product.Price = dto.Price
	product.ImageURL = dto.ImageURL
	product.Stock = dto.Stock
	product.CategoryID = dto.Category

	if err := c.storage.UpdateProduct(ctx, product); err != nil {
		switch {
		case errors.Is(err, storage.ErrEntityNotUnique):
			return nil, ErrProductNotUnique
		case errors.Is(err, storage.ErrEntityNotFound):
			return nil, ErrProductNotFound
		default:
			return nil, errors.Wrap(err, "update product")
		}
	}

	return product, nil
}

// Delete soft-deletes the product.
func (c *Catalog) Delete(ctx context.Context, claims *model.ClaimSet, productSlug string) error {
	product, err := c.loadForMutation(ctx, claims, productSlug)
	if err != nil {
		return err
	}

	if err := c.storage.DeactivateProduct(ctx, product.ID); err != nil {
		if errors.Is(err, storage.ErrEntityNotFound) {
			return ErrProductNotFound
		}
		return errors.Wrap(err, "deactivate product")
	}

	log.Info().Int64("product_id", product.ID).Int64("user_id", claims.UserID).Msg("product deactivated")

	return nil
}

func (c *Catalog) loadForMutation(ctx context.Context, claims *model.ClaimSet, productSlug string) (*model.Product, error) {
	// Only catalog writers get to learn whether a slug exists.
	if err := guard.Authorize(claims, guard.Create()); err != nil {
		return nil, err
	}

	product, err := c.getProduct(ctx, productSlug)
	if err != nil {
		return nil, err
	}

	if err := guard.Authorize(claims, guard.Mutate(product)); err != nil {
		return nil, err
	}

	return product, nil
}

func (c *Catalog) getProduct(ctx context.Context, productSlug string) (*model.Product, error) {
	product, err := c.storage.GetProductBySlug(ctx, productSlug)
	if err != nil {
		if errors.Is(err, storage.ErrEntityNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, errors.Wrap(err, "get product")
	}

	return product, nil
}

func (c *Catalog) ensureCategory(ctx context.Context, id int64) error {
	if _, err := c.storage.GetCategoryByID(ctx, id); err != nil {
		if errors.Is(err, storage.ErrEntityNotFound) {
			return ErrCategoryNotFound
		}
		return errors.Wrap(err, "get category")
	}

	return nil
}
