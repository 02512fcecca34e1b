package postgres

import (
	"context"
	"database/sql"

	"github.com/Heidric/storefront/internal/model"
	"github.com/Heidric/storefront/internal/storage"
	"github.com/huandu/go-sqlbuilder"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

var reviewColumns = []string{"id", "user_id", "product_id", "comment", "comment_date", "grade", "is_active"}

// AddReview inserts the review and refreshes the product rating in the same
// transaction.
func (s *Storage) AddReview(ctx context.Context, r *model.Review) (int64, error) {
	var id int64

	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		ib := sqlbuilder.NewInsertBuilder()
		ib.InsertInto("reviews").
			Cols("user_id", "product_id", "comment", "grade", "is_active").
			Values(r.UserID, r.ProductID, r.Comment, r.Grade, true).
			SQL("RETURNING id")

		query, args := ib.BuildWithFlavor(sqlbuilder.PostgreSQL)
		if err := tx.GetContext(ctx, &id, query, args...); err != nil {
			return errors.Wrap(err, "insert review")
		}

		return refreshRating(ctx, tx, r.ProductID)
	})
	if err != nil {
		return 0, err
	}

	r.ID = id
	return id, nil
}

// GetReviewByID returns the review regardless of its active flag.
func (s *Storage) GetReviewByID(ctx context.Context, id int64) (*model.Review, error) {
	sb := sqlbuilder.NewSelectBuilder()
	sb.Select(reviewColumns...).
		From("reviews").
		Where(sb.Equal("id", id))

	query, args := sb.BuildWithFlavor(sqlbuilder.PostgreSQL)

	var review model.Review
	conn := s.db.GetConn()
	if err := conn.GetContext(ctx, &review, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrEntityNotFound
		}
		return nil, errors.Wrap(err, "get review by id")
	}

	return &review, nil
}

// DeactivateReview soft-deletes the review and refreshes the rating of its
// product in the same transaction.
func (s *Storage) DeactivateReview(ctx context.Context, id, productID int64) error {
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		ub := sqlbuilder.NewUpdateBuilder()
		ub.Update("reviews").
			Set(ub.Assign("is_active", false)).
			Where(ub.Equal("id", id))

		query, args := ub.BuildWithFlavor(sqlbuilder.PostgreSQL)
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return errors.Wrap(err, "deactivate review")
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return storage.ErrEntityNotFound
		}

		return refreshRating(ctx, tx, productID)
	})
}

func (s *Storage) ListActiveReviews(ctx context.Context) ([]model.Review, error) {
	sb := sqlbuilder.NewSelectBuilder()
	sb.Select(reviewColumns...).
		From("reviews").
		Where(sb.Equal("is_active", true)).
		OrderBy("id")

	return s.selectReviews(ctx, sb, "list active reviews")
}

func (s *Storage) ListReviewsByProduct(ctx context.Context, productID int64) ([]model.Review, error) {
	sb := sqlbuilder.NewSelectBuilder()
	sb.Select(reviewColumns...).
		From("reviews").
		Where(sb.Equal("product_id", productID), sb.Equal("is_active", true)).
		OrderBy("id")

	return s.selectReviews(ctx, sb, "list reviews by product")
}

func (s *Storage) selectReviews(ctx context.Context, sb *sqlbuilder.SelectBuilder, op string) ([]model.Review, error) {
	query, args := sb.BuildWithFlavor(sqlbuilder.PostgreSQL)

	out := make([]model.Review, 0)
	conn := s.db.GetConn()
	if err := conn.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, errors.Wrap(err, op)
	}

	return out, nil
}

// refreshRating sets products.rating to the mean grade of the active reviews
// of the product, or 0 when none are left.
func refreshRating(ctx context.Context, tx *sqlx.Tx, productID int64) error {
	sb := sqlbuilder.NewSelectBuilder()
	sb.Select("COALESCE(AVG(grade), 0)::float8").
		From("reviews").
		Where(sb.Equal("product_id", productID), sb.Equal("is_active", true))

	query, args := sb.BuildWithFlavor(sqlbuilder.PostgreSQL)

	var rating float64
	if err := tx.GetContext(ctx, &rating, query, args...); err != nil {
		return errors.Wrap(err, "average grade")
	}

	ub := sqlbuilder.NewUpdateBuilder()
	ub.Update("products").
		Set(ub.Assign("rating", rating)).
		Where(ub.Equal("id", productID))

	query, args = ub.BuildWithFlavor(sqlbuilder.PostgreSQL)
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrap(err, "update rating")
	}

	return nil
}
