package postgres

import (
	"context"
	"database/sql"

	"github.com/Heidric/storefront/internal/model"
	"github.com/Heidric/storefront/internal/storage"
	"github.com/huandu/go-sqlbuilder"
	"github.com/pkg/errors"
)

var userColumns = []string{
	"id", "first_name", "last_name", "username", "email", "hashed_password",
	"is_active", "is_admin", "is_supplier", "is_customer",
}

// GetUserByUsername returns the credential record for username. An empty
// username never matches.
func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	if username == "" {
		return nil, storage.ErrEntityNotFound
	}

	sb := sqlbuilder.NewSelectBuilder()
	sb.Select(userColumns...).
		From("users").
		Where(sb.Equal("username", username))

	query, args := sb.BuildWithFlavor(sqlbuilder.PostgreSQL)

	var user model.User
	conn := s.db.GetConn()
	if err := conn.GetContext(ctx, &user, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrEntityNotFound
		}
		return nil, errors.Wrap(err, "get user by username")
	}

	return &user, nil
}

func (s *Storage) CreateUser(ctx context.Context, user *model.User) (int64, error) {
	ib := sqlbuilder.NewInsertBuilder()
	ib.InsertInto("users").
		Cols("first_name", "last_name", "username", "email", "hashed_password",
			"is_active", "is_admin", "is_supplier", "is_customer").
		Values(user.FirstName, user.LastName, user.Username, user.Email, user.Password,
			user.IsActive, user.IsAdmin, user.IsSupplier, user.IsCustomer).
		SQL("RETURNING id")

	query, args := ib.BuildWithFlavor(sqlbuilder.PostgreSQL)

	var id int64
	conn := s.db.GetConn()
	if err := conn.GetContext(ctx, &id, query, args...); err != nil {
		if isUniqueViolation(err) {
			return 0, storage.ErrEntityNotUnique
		}
		return 0, errors.Wrap(err, "create user")
	}

	user.ID = id
	return id, nil
}

func (s *Storage) SetPasswordHash(ctx context.Context, userID int64, hash string) error {
	ub := sqlbuilder.NewUpdateBuilder()
	ub.Update("users").
		Set(ub.Assign("hashed_password", hash)).
		Where(ub.Equal("id", userID))

	query, args := ub.BuildWithFlavor(sqlbuilder.PostgreSQL)

	conn := s.db.GetConn()
	res, err := conn.ExecContext(ctx, query, args...)
	if err != nil {
		return errors.Wrap(err, "set password hash")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return storage.ErrEntityNotFound
	}

	return nil
}
