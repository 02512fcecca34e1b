package server

import (
	"encoding/json"
	"net/http"

	"github.com/Heidric/storefront/internal/services/auth"
	"github.com/Heidric/storefront/internal/services/catalog"
	"github.com/Heidric/storefront/internal/services/guard"
	"github.com/Heidric/storefront/internal/services/review"
	"github.com/pkg/errors"
)

const (
	ErrInvalidCredentials   = "INVALID_CREDENTIALS"
	ErrMalformedToken       = "MALFORMED_TOKEN"
	ErrMissingExpiry        = "MISSING_EXPIRY"
	ErrInvalidExpiryFormat  = "INVALID_EXPIRY_FORMAT"
	ErrTokenExpired         = "TOKEN_EXPIRED"
	ErrTokenInvalid         = "TOKEN_INVALID"
	ErrForbidden            = "FORBIDDEN"
	ErrUsernameNotUnique    = "USERNAME_NOT_UNIQUE"
	ErrProductNotFound      = "PRODUCT_NOT_FOUND"
	ErrProductNotUnique     = "PRODUCT_NOT_UNIQUE"
	ErrCategoryNotFound     = "CATEGORY_NOT_FOUND"
	ErrReviewNotFound       = "REVIEW_NOT_FOUND"
	ErrReviewAlreadyDeleted = "REVIEW_ALREADY_DELETED"
)

type CommonError struct {
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail"`
	Code   string `json:"code"`
}

type Validation struct {
	Title  string            `json:"title"`
	Status int               `json:"status"`
	Detail string            `json:"detail"`
	Code   string            `json:"code"`
	Errors map[string]string `json:"errors"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Error encoding response")
	}
}

func writeError(w http.ResponseWriter, title string, status int, detail, code string) {
	writeJSON(w, status, CommonError{
		Title:  title,
		Status: status,
		Detail: detail,
		Code:   code,
	})
}

func ParsingError(w http.ResponseWriter) {
	writeError(w, "Parsing error occurred", http.StatusBadRequest, "Parsing error", "PARSING_ERROR")
}

func ValidationError(w http.ResponseWriter, err map[string]string) {
	writeJSON(w, http.StatusUnprocessableEntity, Validation{
		Title:  "One or more model validation errors occurred",
		Status: http.StatusUnprocessableEntity,
		Detail: "See the errors property for details",
		Code:   "VALIDATION_ERROR",
		Errors: err,
	})
}

func LogicError(w http.ResponseWriter, code string) {
	writeError(w, "Logic error occurred", http.StatusBadRequest, "Logic error", code)
}

func ConflictError(w http.ResponseWriter, code string) {
	writeError(w, "Conflict error", http.StatusConflict, "Conflict error", code)
}

// UnauthorizedError answers 401 with a bearer challenge.
func UnauthorizedError(w http.ResponseWriter, detail, code string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	writeError(w, "Unauthorized", http.StatusUnauthorized, detail, code)
}

func ForbiddenError(w http.ResponseWriter) {
	writeError(w, "Forbidden", http.StatusForbidden, "Not enough permissions", ErrForbidden)
}

func NotFoundError(w http.ResponseWriter) {
	writeError(w, "Endpoint not found", http.StatusNotFound, "Not found", "ENDPOINT_NOT_FOUND")
}

func EntityNotFoundError(w http.ResponseWriter, detail, code string) {
	writeError(w, "Entity not found", http.StatusNotFound, detail, code)
}

func MethodNotAllowedError(w http.ResponseWriter) {
	writeError(w, "Method not allowed", http.StatusMethodNotAllowed, "Method not allowed", "METHOD_NOT_ALLOWED")
}

func InternalError(w http.ResponseWriter) {
	writeError(w, "Resource temporarily unavailable", http.StatusInternalServerError,
		"Resource temporarily unavailable", "UNKNOWN_ERROR")
}

// AuthError maps login and token failures. Details are fixed strings so a
// response never echoes the submitted password or token.
func AuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		UnauthorizedError(w, "Could not validate user", ErrInvalidCredentials)
	case errors.Is(err, auth.ErrMalformedToken):
		LogicErrorDetail(w, "Could not validate user", ErrMalformedToken)
	case errors.Is(err, auth.ErrMissingExpiry):
		LogicErrorDetail(w, "No access token supplied", ErrMissingExpiry)
	case errors.Is(err, auth.ErrInvalidExpiryFormat):
		LogicErrorDetail(w, "Invalid token format", ErrInvalidExpiryFormat)
	case errors.Is(err, auth.ErrTokenExpired):
		UnauthorizedError(w, "Token expired!", ErrTokenExpired)
	default:
		UnauthorizedError(w, "Could not validate credentials", ErrTokenInvalid)
	}
}

func LogicErrorDetail(w http.ResponseWriter, detail, code string) {
	writeError(w, "Logic error occurred", http.StatusBadRequest, detail, code)
}

// ServiceError maps catalog and review failures. Anything unrecognised is
// logged and reported as 500 without detail.
func ServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, guard.ErrForbidden):
		ForbiddenError(w)
	case errors.Is(err, catalog.ErrProductNotFound), errors.Is(err, review.ErrProductNotFound):
		EntityNotFoundError(w, "Product not found", ErrProductNotFound)
	case errors.Is(err, catalog.ErrCategoryNotFound):
		EntityNotFoundError(w, "Category not found", ErrCategoryNotFound)
	case errors.Is(err, review.ErrReviewNotFound):
		EntityNotFoundError(w, "Review not found", ErrReviewNotFound)
	case errors.Is(err, review.ErrReviewAlreadyDeleted):
		EntityNotFoundError(w, "Review already deleted", ErrReviewAlreadyDeleted)
	case errors.Is(err, catalog.ErrProductNotUnique):
		ConflictError(w, ErrProductNotUnique)
	case errors.Is(err, catalog.ErrEmptySlug):
		ValidationError(w, map[string]string{"name": "INVALID_VALUE"})
	default:
		log.Error().Err(err).Msg("Unexpected service error")
		InternalError(w)
	}
}
