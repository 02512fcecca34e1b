package server

import (
	"context"
	"net/http"
	"time"

	"github.com/Heidric/storefront/internal/logger"
	"github.com/Heidric/storefront/internal/model"
	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

var log zerolog.Logger

type Auth interface {
	Login(ctx context.Context, username, password string) (*model.LoginResponse, error)
	Authenticate(ctx context.Context, token string) (*model.ClaimSet, error)
	Register(ctx context.Context, dto model.CreateUserDTO) error
}

type Catalog interface {
	List(ctx context.Context) ([]model.Product, error)
	ListByCategory(ctx context.Context, categorySlug string) ([]model.Product, error)
	Detail(ctx context.Context, productSlug string) (*model.Product, error)
	Create(ctx context.Context, claims *model.ClaimSet, dto model.ProductDTO) (*model.Product, error)
	Update(ctx context.Context, claims *model.ClaimSet, productSlug string, dto model.ProductDTO) (*model.Product, error)
	Delete(ctx context.Context, claims *model.ClaimSet, productSlug string) error
}

type Reviews interface {
	List(ctx context.Context) ([]model.Review, error)
	ListByProduct(ctx context.Context, productID int64) ([]model.Review, error)
	Add(ctx context.Context, claims *model.ClaimSet, dto model.ReviewDTO) (*model.Review, error)
	Delete(ctx context.Context, claims *model.ClaimSet, id int64) error
}

type Server struct {
	srv     *http.Server
	auth    Auth
	catalog Catalog
	reviews Reviews
	health  func(ctx context.Context) error
}

type Option func(*Server)

// WithHealthCheck makes /health report 503 while check fails.
func WithHealthCheck(check func(ctx context.Context) error) Option {
	return func(s *Server) { s.health = check }
}

func NewServer(addr string, auth Auth, catalog Catalog, reviews Reviews, opts ...Option) *Server {
	log = *logger.Log
	log = log.With().Str("name", "http").Logger()

	r := chi.NewRouter()

	s := &Server{
		srv:     &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: time.Second * 10},
		auth:    auth,
		catalog: catalog,
		reviews: reviews,
	}
	for _, opt := range opts {
		opt(s)
	}

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logger.Middleware)
	r.Use(instrument)
	r.Use(middleware.Recoverer)

	r.Get(`/health`, s.healthHandler)
	r.Method(http.MethodGet, `/metrics`, promhttp.Handler())

	r.Route(`/auth`, func(r chi.Router) {
		r.Post(`/token`, s.loginHandler)
		r.Post(`/`, s.registerHandler)

		r.With(s.authenticate).Get(`/read_current_user`, s.currentUserHandler)
	})

	r.Route(`/products`, func(r chi.Router) {
		r.Get(`/`, s.listProductsHandler)
		r.Get(`/detail/{product_slug}`, s.productDetailHandler)
		r.Get(`/{category_slug}`, s.productsByCategoryHandler)

		r.Group(func(r chi.Router) {
			r.Use(s.authenticate)

			r.Post(`/`, s.createProductHandler)
			r.Put(`/{product_slug}`, s.updateProductHandler)
			r.Delete(`/{product_slug}`, s.deleteProductHandler)
		})
	})

	r.Route(`/reviews`, func(r chi.Router) {
		r.Get(`/`, s.listReviewsHandler)
		r.Get(`/product/{product_id}`, s.productReviewsHandler)

		r.Group(func(r chi.Router) {
			r.Use(s.authenticate)

			r.Post(`/`, s.addReviewHandler)
			r.Delete(`/{review_id}`, s.deleteReviewHandler)
		})
	})

	r.NotFound(notFoundHandler)
	r.MethodNotAllowed(methodNotAllowedHandler)

	return s
}

// Handler exposes the router so it can be driven without a listener.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

func (s *Server) Run(ctx context.Context, runner *errgroup.Group) {
	logger.Log.Info().Str("addr", s.srv.Addr).Msg("Http server started.")

	runner.Go(func() error {
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
}

func (s *Server) Shutdown(ctx context.Context) error {
	logger.Log.Info().Msg("Http server stopped.")

	nctx, stop := context.WithTimeout(context.WithoutCancel(ctx), time.Second*10)
	defer stop()

	return s.srv.Shutdown(nctx)
}
