package server

import (
	"encoding/json"
	"mime"
	"net/http"

	"github.com/Heidric/storefront/internal/lib/jwt"
	"github.com/Heidric/storefront/internal/model"
	"github.com/Heidric/storefront/internal/services/auth"
	"github.com/pkg/errors"
)

const maxFormMemory = 1 << 20

// loginHandler accepts the OAuth2 password form (urlencoded or multipart)
// and, for API clients, the same fields as JSON.
func (s *Server) loginHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	dto, err := decodeLogin(r)
	if err != nil {
		log.Error().Err(err).Msg("Error parsing request body")
		ParsingError(w)
		return
	}

	if err := dto.Validate(); len(err) > 0 {
		log.Error().Msgf("Error validating request body: %v", err)
		ValidationError(w, err)
		return
	}

	res, err := s.auth.Login(ctx, dto.Username, dto.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			AuthError(w, err)
		default:
			log.Error().Err(err).Msg("Error login")
			InternalError(w)
		}
		return
	}

	writeJSON(w, http.StatusOK, res)
}

func decodeLogin(r *http.Request) (*model.LoginDTO, error) {
	var dto model.LoginDTO

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/json":
		if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
			return nil, errors.Wrap(err, "decode json")
		}
		return &dto, nil
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxFormMemory); err != nil {
			return nil, errors.Wrap(err, "parse multipart form")
		}
	default:
		if err := r.ParseForm(); err != nil {
			return nil, errors.Wrap(err, "parse form")
		}
	}

	dto.Username = r.PostFormValue("username")
	dto.Password = r.PostFormValue("password")

	return &dto, nil
}

func (s *Server) registerHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var dto model.CreateUserDTO
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

	err := s.auth.Register(ctx, dto)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrUsernameNotUnique):
			ConflictError(w, ErrUsernameNotUnique)
		case errors.Is(err, auth.ErrPasswordRejected):
			ValidationError(w, map[string]string{"password": model.ErrInvalidField})
		default:
			log.Error().Err(err).Msg("Error register")
			InternalError(w)
		}
		return
	}

	writeJSON(w, http.StatusCreated, model.TransactionResponse{
		StatusCode:  http.StatusCreated,
		Transaction: "Successful",
	})
}

func (s *Server) currentUserHandler(w http.ResponseWriter, r *http.Request) {
	claims, ok := jwt.ClaimsFromContext(r.Context())
	if !ok {
		UnauthorizedError(w, "Could not validate credentials", ErrTokenInvalid)
		return
	}

	writeJSON(w, http.StatusOK, model.CurrentUserResponse{User: claims})
}
