package postgres

import (
	"context"

	"github.com/Heidric/storefront/internal/logger"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

var log zerolog.Logger

const pgUniqueViolation = "23505"

// DB is satisfied by *pgx.Postgres.
type DB interface {
	GetConn() *sqlx.DB
}

type Storage struct {
	db DB
}

func NewStorage(ctx context.Context, db DB) *Storage {
	log = *logger.Log
	log = log.With().Str("name", "storage").Logger()

	return &Storage{db: db}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// inTx runs fn in a transaction, committing on success and rolling back on
// any error returned by fn.
func (s *Storage) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.GetConn().BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Error().Err(rbErr).Msg("rollback failed")
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "commit tx")
	}

	return nil
}
