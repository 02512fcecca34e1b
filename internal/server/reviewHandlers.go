package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/Heidric/storefront/internal/lib/jwt"
	"github.com/Heidric/storefront/internal/model"
	"github.com/go-chi/chi"
)

func (s *Server) listReviewsHandler(w http.ResponseWriter, r *http.Request) {
	reviews, err := s.reviews.List(r.Context())
	if err != nil {
		ServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, reviews)
}

func (s *Server) productReviewsHandler(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "product_id"), 10, 64)
	if err != nil {
		ParsingError(w)
		return
	}

	reviews, err := s.reviews.ListByProduct(r.Context(), productID)
	if err != nil {
		ServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, reviews)
}

func (s *Server) addReviewHandler(w http.ResponseWriter, r *http.Request) {
	claims, ok := jwt.ClaimsFromContext(r.Context())
	if !ok {
		UnauthorizedError(w, "Could not validate credentials", ErrTokenInvalid)
		return
	}

	var dto model.ReviewDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		log.Error().Err(err).Msg("Error parsing request body")
		ParsingError(w)
		return
	}

	if err := dto.Validate(); len(err) > 0 {
		log.Error().Msgf("Error validating request body: %v", err)
		ValidationError(w, err)
		return
	}

	if _, err := s.reviews.Add(r.Context(), &claims, dto); err != nil {
		ServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, model.TransactionResponse{
		StatusCode:  http.StatusCreated,
		Transaction: "Successful",
	})
}

func (s *Server) deleteReviewHandler(w http.ResponseWriter, r *http.Request) {
	claims, ok := jwt.ClaimsFromContext(r.Context())
	if !ok {
		UnauthorizedError(w, "Could not validate credentials", ErrTokenInvalid)
		return
	}

	reviewID, err := strconv.ParseInt(chi.URLParam(r, "review_id"), 10, 64)
	if err != nil {
		ParsingError(w)
		return
	}

	if err := s.reviews.Delete(r.Context(), &claims, reviewID); err != nil {
		ServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, model.TransactionResponse{
		StatusCode:  http.StatusOK,
		Transaction: "Review delete is successful",
	})
}
