package jwt

import (
	"context"
	"net/http"
	"strings"

	"github.com/Heidric/storefront/internal/model"
)

type ctxKey string

const CtxKeyClaims ctxKey = "claims"

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header. The scheme name is matched case-insensitively.
func BearerToken(r *http.Request) (string, bool) {
	const prefix = "bearer "

	header := r.Header.Get("Authorization")
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}

	token := strings.TrimSpace(header[len(prefix):])
	if token == "" {
		return "", false
	}

	return token, true
}

func WithClaims(ctx context.Context, claims model.ClaimSet) context.Context {
	return context.WithValue(ctx, CtxKeyClaims, claims)
}

func ClaimsFromContext(ctx context.Context) (model.ClaimSet, bool) {
	claims, ok := ctx.Value(CtxKeyClaims).(model.ClaimSet)
	return claims, ok
}
