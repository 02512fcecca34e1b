package auth

import (
	"context"
	"sync"
	"time"

	"github.com/Heidric/storefront/internal/lib/jwt"
	"github.com/Heidric/storefront/internal/logger"
	"github.com/Heidric/storefront/internal/metrics"
	"github.com/Heidric/storefront/internal/model"
	"github.com/Heidric/storefront/internal/storage"
	"github.com/Heidric/storefront/pkg/security"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

var log zerolog.Logger

var (
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrMalformedToken      = errors.New("token is missing identity claims")
	ErrMissingExpiry       = errors.New("token has no expiry")
	ErrInvalidExpiryFormat = errors.New("token expiry is not an integer")
	ErrTokenExpired        = errors.New("token expired")
	ErrInvalidToken        = errors.New("could not validate token")
	ErrUsernameNotUnique   = errors.New("username or email not unique")
	ErrPasswordRejected    = errors.New("password cannot be hashed")
)

type AuthStorage interface {
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	CreateUser(ctx context.Context, user *model.User) (int64, error)
	SetPasswordHash(ctx context.Context, userID int64, hash string) error
}

type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hash string) bool
	NeedsRehash(hash string) bool
}

type TokenCodec interface {
	Issue(claims model.ClaimSet, ttl time.Duration) (string, error)
	Decode(token string) (*model.TokenClaims, error)
}

type Auth struct {
	storage AuthStorage
	hasher  PasswordHasher
	codec   TokenCodec
	ttl     time.Duration
	now     func() time.Time

	decoyOnce sync.Once
	decoyHash string
}

type Option func(*Auth)

func WithTTL(ttl time.Duration) Option {
	return func(a *Auth) { a.ttl = ttl }
}

func WithClock(now func() time.Time) Option {
	return func(a *Auth) { a.now = now }
}

func New(storage AuthStorage, hasher PasswordHasher, codec TokenCodec, opts ...Option) *Auth {
	log = *logger.Log
	log = log.With().Str("name", "auth-service").Logger()

	a := &Auth{
		storage: storage,
		hasher:  hasher,
		codec:   codec,
		ttl:     jwt.DefaultTokenTTL,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Login exchanges a username and password for an access token. An unknown
// username and a wrong password produce the same error, and both run a
// password verification so the two cases take comparable time.
func (a *Auth) Login(ctx context.Context, username, password string) (*model.LoginResponse, error) {
	user, err := a.storage.GetUserByUsername(ctx, username)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrEntityNotFound):
			a.hasher.Verify(password, a.decoy())
			metrics.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
			return nil, ErrInvalidCredentials
		default:
			metrics.LoginsTotal.WithLabelValues("error").Inc()
			return nil, errors.Wrap(err, "login")
		}
	}

	if !a.hasher.Verify(password, user.Password) {
		metrics.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
		return nil, ErrInvalidCredentials
	}

	if a.hasher.NeedsRehash(user.Password) {
		a.rehash(ctx, user.ID, password)
	}

	token, err := a.codec.Issue(model.ClaimSet{
		Username:   user.Username,
		UserID:     user.ID,
		IsAdmin:    user.IsAdmin,
		IsSupplier: user.IsSupplier,
		IsCustomer: user.IsCustomer,
	}, a.ttl)
	if err != nil {
		log.Error().Err(err).Msg("failed to generate access token")
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		return nil, errors.Wrap(err, "generate access token")
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()

	return &model.LoginResponse{
		AccessToken: token,
		TokenType:   model.TokenTypeBearer,
	}, nil
}

// Authenticate turns a bearer token into a claim set. Checks run in a fixed
// order and the first failure is returned: signature, identity claims,
// presence of exp, type of exp, value of exp.
func (a *Auth) Authenticate(ctx context.Context, token string) (*model.ClaimSet, error) {
	claims, err := a.authenticate(token)
	if err != nil {
		metrics.AuthenticationsTotal.WithLabelValues(outcome(err)).Inc()
		return nil, err
	}

	metrics.AuthenticationsTotal.WithLabelValues("success").Inc()
	return claims, nil
}

func (a *Auth) authenticate(token string) (*model.ClaimSet, error) {
	payload, err := a.codec.Decode(token)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidToken, "decode: %v", err)
	}

	if payload.Username == nil || *payload.Username == "" || payload.UserID == nil {
		return nil, ErrMalformedToken
	}

	exp, present, integer := payload.Expiry()
	if !present {
		return nil, ErrMissingExpiry
	}
	if !integer {
		return nil, ErrInvalidExpiryFormat
	}
	if time.Unix(exp, 0).Before(a.now()) {
		return nil, ErrTokenExpired
	}

	return &model.ClaimSet{
		Username:   *payload.Username,
		UserID:     *payload.UserID,
		IsAdmin:    payload.IsAdmin,
		IsSupplier: payload.IsSupplier,
		IsCustomer: payload.IsCustomer,
		ExpiresAt:  exp,
	}, nil
}

// Register creates a customer account. Role elevation is an administrative
// database operation and cannot be requested here.
func (a *Auth) Register(ctx context.Context, dto model.CreateUserDTO) error {
	hash, err := a.hasher.Hash(dto.Password)
	if err != nil {
		switch {
		case errors.Is(err, security.ErrPasswordTooLong), errors.Is(err, security.ErrEmptyPassword):
			return errors.Wrap(ErrPasswordRejected, err.Error())
		default:
			return errors.Wrap(err, "hash password")
		}
	}

	_, err = a.storage.CreateUser(ctx, &model.User{
		FirstName:  dto.FirstName,
		LastName:   dto.LastName,
		Username:   dto.Username,
		Email:      dto.Email,
		Password:   hash,
		IsActive:   true,
		IsCustomer: true,
	})
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrEntityNotUnique):
			return ErrUsernameNotUnique
		default:
			return errors.Wrap(err, "create user")
		}
	}

	return nil
}

func (a *Auth) rehash(ctx context.Context, userID int64, password string) {
	hash, err := a.hasher.Hash(password)
	if err != nil {
		log.Warn().Err(err).Int64("user_id", userID).Msg("failed to rehash password")
		return
	}
	if err := a.storage.SetPasswordHash(ctx, userID, hash); err != nil {
		log.Warn().Err(err).Int64("user_id", userID).Msg("failed to store rehashed password")
	}
}

func (a *Auth) decoy() string {
	a.decoyOnce.Do(func() {
		hash, err := a.hasher.Hash("decoy-password")
		if err != nil {
			log.Error().Err(err).Msg("failed to build decoy hash")
			return
		}
		a.decoyHash = hash
	})

	return a.decoyHash
}

func outcome(err error) string {
	switch {
	case errors.Is(err, ErrMalformedToken):
		return "malformed_token"
	case errors.Is(err, ErrMissingExpiry):
		return "missing_expiry"
	case errors.Is(err, ErrInvalidExpiryFormat):
		return "invalid_expiry_format"
	case errors.Is(err, ErrTokenExpired):
		return "token_expired"
	default:
		return "invalid_token"
	}
}
