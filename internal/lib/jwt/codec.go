package jwt

import (
	"time"

	"github.com/Heidric/storefront/internal/model"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var (
	ErrMalformedToken = errors.New("malformed token")
	ErrBadSignature   = errors.New("bad token signature")
	ErrEmptySecret    = errors.New("signing secret is empty")
)

var signingMethod = jwt.SigningMethodHS256

// Codec signs and verifies HS256 tokens. It only checks authenticity; whether
// a token is still within its lifetime is left to the caller.
type Codec struct {
	secret []byte
	now    func() time.Time
	parser *jwt.Parser
}

type Option func(*Codec)

// WithClock overrides the time source used to compute exp.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) { c.now = now }
}

func NewCodec(cfg *Config, opts ...Option) (*Codec, error) {
	if cfg == nil || cfg.SecretKey == "" {
		return nil, ErrEmptySecret
	}

	c := &Codec{
		secret: []byte(cfg.SecretKey),
		now:    time.Now,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{signingMethod.Alg()}),
			jwt.WithoutClaimsValidation(),
			jwt.WithStrictDecoding(),
			jwt.WithJSONNumber(),
		),
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Issue signs claims with exp set to now+ttl, truncated to whole seconds. The
// ExpiresAt value of the passed claims is ignored.
func (c *Codec) Issue(claims model.ClaimSet, ttl time.Duration) (string, error) {
	username := claims.Username
	userID := claims.UserID

	payload := &model.TokenClaims{
		Username:   &username,
		UserID:     &userID,
		IsAdmin:    claims.IsAdmin,
		IsSupplier: claims.IsSupplier,
		IsCustomer: claims.IsCustomer,
		ExpiresAt:  c.now().Add(ttl).Unix(),
		TokenID:    uuid.NewString(),
	}

	token, err := jwt.NewWithClaims(signingMethod, payload).SignedString(c.secret)
	if err != nil {
		return "", errors.Wrap(err, "sign token")
	}

	return token, nil
}

// Decode verifies the signature and returns the payload as sent. A token whose
// exp lies in the past still decodes.
func (c *Codec) Decode(token string) (*model.TokenClaims, error) {
	claims := &model.TokenClaims{}

	_, err := c.parser.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return c.secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
			return nil, errors.Wrap(ErrBadSignature, err.Error())
		default:
			return nil, errors.Wrap(ErrMalformedToken, err.Error())
		}
	}

	return claims, nil
}
