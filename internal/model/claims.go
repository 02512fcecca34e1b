package model

import (
	"encoding/json"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ClaimSet is the verified identity attached to an authenticated request.
type ClaimSet struct {
	Username   string `json:"username"`
	UserID     int64  `json:"id"`
	IsAdmin    bool   `json:"is_admin"`
	IsSupplier bool   `json:"is_supplier"`
	IsCustomer bool   `json:"is_customer"`
	ExpiresAt  int64  `json:"expires_at,omitempty"`
}

// TokenClaims is the JWT payload as it travels on the wire. Identity fields
// and exp are optional here so that a signed token with a missing or oddly
// typed field can be reported precisely instead of failing to unmarshal.
type TokenClaims struct {
	Username   *string `json:"sub,omitempty"`
	UserID     *int64  `json:"id,omitempty"`
	IsAdmin    bool    `json:"is_admin"`
	IsSupplier bool    `json:"is_supplier"`
	IsCustomer bool    `json:"is_customer"`
	ExpiresAt  any     `json:"exp,omitempty"`
	TokenID    string  `json:"jti,omitempty"`
}

// Expiry reports the exp claim in epoch seconds. present is false when the
// claim is missing; integer is false when it is not a whole JSON number.
func (c *TokenClaims) Expiry() (exp int64, present, integer bool) {
	switch v := c.ExpiresAt.(type) {
	case nil:
		return 0, false, false
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, true, false
		}
		return n, true, true
	case int64:
		return v, true, true
	case int:
		return int64(v), true, true
	default:
		return 0, true, false
	}
}

func (c *TokenClaims) GetExpirationTime() (*jwt.NumericDate, error) {
	exp, present, integer := c.Expiry()
	if !present || !integer {
		return nil, nil
	}
	return jwt.NewNumericDate(time.Unix(exp, 0)), nil
}

func (c *TokenClaims) GetIssuedAt() (*jwt.NumericDate, error)  { return nil, nil }
func (c *TokenClaims) GetNotBefore() (*jwt.NumericDate, error) { return nil, nil }
func (c *TokenClaims) GetIssuer() (string, error)              { return "", nil }
func (c *TokenClaims) GetAudience() (jwt.ClaimStrings, error)  { return nil, nil }

func (c *TokenClaims) GetSubject() (string, error) {
	if c.Username == nil {
		return "", nil
	}
	return *c.Username, nil
}
