package pgx

import (
	"context"
	"sync/atomic"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const ProviderName = "pgx"

// Postgres wraps the sqlx pool together with an optional liveness watcher.
type Postgres struct {
	conn          *sqlx.DB
	config        *Config
	watcherActive atomic.Bool
	watcherDone   chan struct{}
}

func NewPostgres(ctx context.Context, config *Config) (*Postgres, error) {
	if config == nil {
		return nil, errors.New("invalid passed options pointer")
	}

	return &Postgres{config: config.SetDefault()}, nil
}

func (p *Postgres) GetConn() *sqlx.DB {
	return p.conn
}

func (p *Postgres) GetConfig() *Config {
	return p.config
}

// Start opens the pool and, when configured, launches the watcher inside the
// given errgroup. Calling Start on an open pool is a no-op.
func (p *Postgres) Start(ctx context.Context, runner *errgroup.Group) error {
	logger := p.GetLogger(ctx)

	if p.conn != nil {
		return nil
	}

	logger.Info().Msg("establishing connection...")
	conn, err := sqlx.ConnectContext(ctx, ProviderName, p.config.DSN)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	p.conn = conn
	logger.Info().Msg("connection established")

	p.conn.SetConnMaxLifetime(p.config.MaxConnectionLifetime)
	p.conn.SetMaxIdleConns(p.config.MaxIdleConnections)
	p.conn.SetMaxOpenConns(p.config.MaxOpenedConnections)

	if p.config.StartWatcher && p.watcherActive.CompareAndSwap(false, true) {
		p.watcherDone = make(chan struct{})
		runner.Go(func() error {
			return p.watch(ctx)
		})
	}

	return nil
}

func (p *Postgres) GetLogger(ctx context.Context) *zerolog.Logger {
	logger := zerolog.Ctx(ctx).With().Str("name", "pgx").Logger()

	return &logger
}

func (p *Postgres) watch(ctx context.Context) error {
	defer close(p.watcherDone)
	defer p.watcherActive.Store(false)

	logger := p.GetLogger(ctx)
	logger.Info().Msg("starting connection watcher")

	ticker := time.NewTicker(p.config.Timeout)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("connection watcher stopped")
			return nil
		case <-ticker.C:
			if err := p.Ping(ctx); err != nil {
				logger.Error().Err(err).Msg("connection lost")
			}
		}
	}
}

// Shutdown waits for the watcher to exit and closes the pool. This is a
// blocking call.
func (p *Postgres) Shutdown(ctx context.Context) error {
	logger := p.GetLogger(ctx)
	logger.Info().Msg("shutting down")

	if p.watcherDone != nil {
		<-p.watcherDone
	}

	if p.conn == nil {
		return nil
	}

	logger.Info().Msg("closing connection...")
	if err := p.conn.Close(); err != nil {
		return errors.Wrap(err, "close connection")
	}
	p.conn = nil

	logger.Info().Msg("shut down")
	return nil
}

func (p *Postgres) Ping(ctx context.Context) error {
	if p.conn == nil {
		return nil
	}

	if err := p.conn.PingContext(ctx); err != nil {
		return errors.Wrap(err, "ping connection")
	}

	return nil
}
