package server

import (
	"encoding/json"
	"net/http"

	"github.com/Heidric/storefront/internal/lib/jwt"
	"github.com/Heidric/storefront/internal/model"
	"github.com/go-chi/chi"
)

func (s *Server) listProductsHandler(w http.ResponseWriter, r *http.Request) {
	products, err := s.catalog.List(r.Context())
	if err != nil {
		ServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, products)
}

func (s *Server) productsByCategoryHandler(w http.ResponseWriter, r *http.Request) {
	products, err := s.catalog.ListByCategory(r.Context(), chi.URLParam(r, "category_slug"))
	if err != nil {
		ServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, products)
}

func (s *Server) productDetailHandler(w http.ResponseWriter, r *http.Request) {
	product, err := s.catalog.Detail(r.Context(), chi.URLParam(r, "product_slug"))
	if err != nil {
		ServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, product)
}

func (s *Server) createProductHandler(w http.ResponseWriter, r *http.Request) {
	claims, dto, ok := decodeProduct(w, r)
	if !ok {
		return
	}

	if _, err := s.catalog.Create(r.Context(), claims, *dto); err != nil {
		ServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, model.TransactionResponse{
		StatusCode:  http.StatusCreated,
		Transaction: "Successful",
	})
}

func (s *Server) updateProductHandler(w http.ResponseWriter, r *http.Request) {
	claims, dto, ok := decodeProduct(w, r)
	if !ok {
		return
	}

	if _, err := s.catalog.Update(r.Context(), claims, chi.URLParam(r, "product_slug"), *dto); err != nil {
		ServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, model.TransactionResponse{
		StatusCode:  http.StatusOK,
		Transaction: "Product update is successful",
	})
}

func (s *Server) deleteProductHandler(w http.ResponseWriter, r *http.Request) {
	claims, ok := jwt.ClaimsFromContext(r.Context())
	if !ok {
		UnauthorizedError(w, "Could not validate credentials", ErrTokenInvalid)
		return
	}

	if err := s.catalog.Delete(r.Context(), &claims, chi.URLParam(r, "product_slug")); err != nil {
		ServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, model.TransactionResponse{
		StatusCode:  http.StatusOK,
		Transaction: "Product delete is successful",
	})
}

// decodeProduct writes the error response itself and reports false when the
// request cannot proceed.
func decodeProduct(w http.ResponseWriter, r *http.Request) (*model.ClaimSet, *model.ProductDTO, bool) {
	claims, ok := jwt.ClaimsFromContext(r.Context())
	if !ok {
		UnauthorizedError(w, "Could not validate credentials", ErrTokenInvalid)
		return nil, nil, false
	}

	var dto model.ProductDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		log.Error().Err(err).Msg("Error parsing request body")
		ParsingError(w)
		return nil, nil, false
	}

	if err := dto.Validate(); len(err) > 0 {
		log.Error().Msgf("Error validating request body: %v", err)
		ValidationError(w, err)
		return nil, nil, false
	}

	return &claims, &dto, true
}
