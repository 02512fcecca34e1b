package review

import (
	"context"

	"github.com/Heidric/storefront/internal/logger"
	"github.com/Heidric/storefront/internal/model"
	"github.com/Heidric/storefront/internal/services/guard"
	"github.com/Heidric/storefront/internal/storage"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

var log zerolog.Logger

var (
	ErrProductNotFound      = errors.New("product not found")
	ErrReviewNotFound       = errors.New("review not found")
	ErrReviewAlreadyDeleted = errors.New("review already deleted")
)

type ReviewStorage interface {
	GetProductByID(ctx context.Context, id int64) (*model.Product, error)
	FindProductByID(ctx context.Context, id int64) (*model.Product, error)
	AddReview(ctx context.Context, r *model.Review) (int64, error)
	GetReviewByID(ctx context.Context, id int64) (*model.Review, error)
	DeactivateReview(ctx context.Context, id, productID int64) error
	ListActiveReviews(ctx context.Context) ([]model.Review, error)
	ListReviewsByProduct(ctx context.Context, productID int64) ([]model.Review, error)
}

type Reviews struct {
	storage ReviewStorage
}

func New(storage ReviewStorage) *Reviews {
	log = *logger.Log
	log = log.With().Str("name", "review-service").Logger()

	return &Reviews{storage: storage}
}

func (r *Reviews) List(ctx context.Context) ([]model.Review, error) {
	return r.storage.ListActiveReviews(ctx)
}

// ListByProduct also answers for soft-deleted products; only an unknown id
// is an error.
func (r *Reviews) ListByProduct(ctx context.Context, productID int64) ([]model.Review, error) {
	if _, err := r.storage.FindProductByID(ctx, productID); err != nil {
		if errors.Is(err, storage.ErrEntityNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, errors.Wrap(err, "find product")
	}

	return r.storage.ListReviewsByProduct(ctx, productID)
}

// Add records a customer review and refreshes the product rating.
func (r *Reviews) Add(ctx context.Context, claims *model.ClaimSet, dto model.ReviewDTO) (*model.Review, error) {
	if err := guard.Authorize(claims, guard.Review()); err != nil {
		return nil, err
	}

	if err := r.ensureProduct(ctx, dto.ProductID); err != nil {
		return nil, err
	}

	review := &model.Review{
		UserID:    claims.UserID,
		ProductID: dto.ProductID,
		Comment:   dto.Comment,
		Grade:     dto.Grade,
		IsActive:  true,
	}
	if _, err := r.storage.AddReview(ctx, review); err != nil {
		return nil, errors.Wrap(err, "add review")
	}

	log.Info().Int64("review_id", review.ID).Int64("product_id", review.ProductID).Msg("review added")

	return review, nil
}

// Delete soft-deletes a review. Admin only.
func (r *Reviews) Delete(ctx context.Context, claims *model.ClaimSet, id int64) error {
	if err := guard.Authorize(claims, guard.RemoveReview()); err != nil {
		return err
	}

	review, err := r.storage.GetReviewByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrEntityNotFound) {
			return ErrReviewNotFound
		}
		return errors.Wrap(err, "get review")
	}
	if !review.IsActive {
		return ErrReviewAlreadyDeleted
	}

	if err := r.storage.DeactivateReview(ctx, review.ID, review.ProductID); err != nil {
		if errors.Is(err, storage.ErrEntityNotFound) {
			return ErrReviewNotFound
		}
		return errors.Wrap(err, "deactivate review")
	}

	return nil
}

func (r *Reviews) ensureProduct(ctx context.Context, productID int64) error {
	if _, err := r.storage.GetProductByID(ctx, productID); err != nil {
		if errors.Is(err, storage.ErrEntityNotFound) {
			return ErrProductNotFound
		}
		return errors.Wrap(err, "get product")
	}

	return nil
}
