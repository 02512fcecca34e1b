package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Heidric/storefront/internal/lib/jwt"
	"github.com/Heidric/storefront/internal/model"
	"github.com/Heidric/storefront/internal/server"
	"github.com/Heidric/storefront/internal/services/auth"
	"github.com/Heidric/storefront/internal/services/catalog"
	"github.com/Heidric/storefront/internal/services/guard"
	"github.com/Heidric/storefront/internal/services/review"
	"github.com/Heidric/storefront/internal/storage"
	"github.com/Heidric/storefront/pkg/security"
	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "server-test-secret"

type memUsers struct {
	mu    sync.Mutex
	users map[string]*model.User
}

func (m *memUsers) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[username]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, storage.ErrEntityNotFound
}

func (m *memUsers) CreateUser(ctx context.Context, user *model.User) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[user.Username]; ok {
		return 0, storage.ErrEntityNotUnique
	}
	user.ID = int64(len(m.users) + 1)
	cp := *user
	m.users[user.Username] = &cp
	return user.ID, nil
}

func (m *memUsers) SetPasswordHash(ctx context.Context, userID int64, hash string) error {
	return nil
}

type fakeCatalog struct {
	detailErr error
	deleted   []string
}

func (f *fakeCatalog) List(ctx context.Context) ([]model.Product, error) {
	return []model.Product{{ID: 1, Name: "Lamp", Slug: "lamp", Stock: 2, IsActive: true}}, nil
}

func (f *fakeCatalog) ListByCategory(ctx context.Context, categorySlug string) ([]model.Product, error) {
	if categorySlug != "home" {
		return nil, catalog.ErrCategoryNotFound
	}
	return []model.Product{}, nil
}

func (f *fakeCatalog) Detail(ctx context.Context, productSlug string) (*model.Product, error) {
	if f.detailErr != nil {
		return nil, f.detailErr
	}
	return &model.Product{ID: 1, Slug: productSlug}, nil
}

func (f *fakeCatalog) Create(ctx context.Context, claims *model.ClaimSet, dto model.ProductDTO) (*model.Product, error) {
	if err := guard.Authorize(claims, guard.Create()); err != nil {
		return nil, err
	}
	return &model.Product{ID: 2, Name: dto.Name}, nil
}

func (f *fakeCatalog) Update(ctx context.Context, claims *model.ClaimSet, productSlug string, dto model.ProductDTO) (*model.Product, error) {
	owner := int64(7)
	if err := guard.Authorize(claims, guard.Mutate(&model.Product{SupplierID: &owner})); err != nil {
		return nil, err
	}
	return &model.Product{ID: 1, Name: dto.Name}, nil
}

func (f *fakeCatalog) Delete(ctx context.Context, claims *model.ClaimSet, productSlug string) error {
	f.deleted = append(f.deleted, productSlug)
	return nil
}

type fakeReviews struct {
	deleted []int64
}

func (f *fakeReviews) List(ctx context.Context) ([]model.Review, error) {
	return []model.Review{}, nil
}

func (f *fakeReviews) ListByProduct(ctx context.Context, productID int64) ([]model.Review, error) {
	if productID != 1 {
		return nil, review.ErrProductNotFound
	}
	return []model.Review{{ID: 1, ProductID: 1, Grade: 7}}, nil
}

func (f *fakeReviews) Add(ctx context.Context, claims *model.ClaimSet, dto model.ReviewDTO) (*model.Review, error) {
	if err := guard.Authorize(claims, guard.Review()); err != nil {
		return nil, err
	}
	return &model.Review{ID: 3}, nil
}

func (f *fakeReviews) Delete(ctx context.Context, claims *model.ClaimSet, id int64) error {
	if err := guard.Authorize(claims, guard.RemoveReview()); err != nil {
		return err
	}
	f.deleted = append(f.deleted, id)
	return nil
}

type env struct {
	handler http.Handler
	catalog *fakeCatalog
	reviews *fakeReviews
}

func newEnv(t *testing.T, opts ...server.Option) *env {
	t.Helper()

	codec, err := jwt.NewCodec(&jwt.Config{SecretKey: testSecret})
	require.NoError(t, err)
	hasher := security.NewHasher(security.WithBcryptCost(bcrypt.MinCost))

	users := &memUsers{users: map[string]*model.User{}}
	for _, u := range []model.User{
		{Username: "root", IsAdmin: true},
		{Username: "seven", IsSupplier: true},
		{Username: "cus", IsCustomer: true},
	} {
		u.Password, err = hasher.Hash("pw-" + u.Username)
		require.NoError(t, err)
		_, err = users.CreateUser(context.Background(), &u)
		require.NoError(t, err)
	}

	e := &env{catalog: &fakeCatalog{}, reviews: &fakeReviews{}}
	srv := server.NewServer(":0", auth.New(users, hasher, codec), e.catalog, e.reviews, opts...)
	e.handler = srv.Handler()

	return e
}

func (e *env) do(t *testing.T, method, path, token string, body []byte, contentType string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	return w
}

func (e *env) login(t *testing.T, username string) string {
	t.Helper()

	form := url.Values{"username": {username}, "password": {"pw-" + username}}
	w := e.do(t, http.MethodPost, "/auth/token", "", []byte(form.Encode()), "application/x-www-form-urlencoded")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var res model.LoginResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&res))
	assert.Equal(t, "bearer", res.TokenType)
	return res.AccessToken
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()

	var body server.CommonError
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, w.Code, body.Status)
	return body.Code
}

func sign(t *testing.T, claims gojwt.MapClaims) string {
	t.Helper()
	token, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func TestLoginAndReadCurrentUser(t *testing.T) {
	e := newEnv(t)
	token := e.login(t, "seven")

	w := e.do(t, http.MethodGet, "/auth/read_current_user", token, nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var res model.CurrentUserResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&res))
	assert.Equal(t, "seven", res.User.Username)
	assert.Equal(t, int64(2), res.User.UserID)
	assert.True(t, res.User.IsSupplier)
	assert.False(t, res.User.IsAdmin)
}

func TestLoginJSON(t *testing.T) {
	e := newEnv(t)

	w := e.do(t, http.MethodPost, "/auth/token", "", []byte(`{"username":"cus","password":"pw-cus"}`), "application/json")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"token_type":"bearer"`)
}

func TestLoginFailures(t *testing.T) {
	e := newEnv(t)

	form := url.Values{"username": {"cus"}, "password": {"hunter2-guess"}}
	wrong := e.do(t, http.MethodPost, "/auth/token", "", []byte(form.Encode()), "application/x-www-form-urlencoded")
	form.Set("username", "nobody")
	unknown := e.do(t, http.MethodPost, "/auth/token", "", []byte(form.Encode()), "application/x-www-form-urlencoded")

	assert.Equal(t, http.StatusUnauthorized, wrong.Code)
	assert.Equal(t, "Bearer", wrong.Header().Get("WWW-Authenticate"))
	assert.Equal(t, wrong.Body.String(), unknown.Body.String())
	assert.NotContains(t, wrong.Body.String(), "hunter2-guess")
	assert.Equal(t, server.ErrInvalidCredentials, errorCode(t, wrong))

	empty := e.do(t, http.MethodPost, "/auth/token", "", nil, "application/x-www-form-urlencoded")
	assert.Equal(t, http.StatusUnprocessableEntity, empty.Code)

	garbled := e.do(t, http.MethodPost, "/auth/token", "", []byte(`{`), "application/json")
	assert.Equal(t, http.StatusBadRequest, garbled.Code)
}

func TestTokenErrors(t *testing.T) {
	e := newEnv(t)
	now := time.Now().Unix()

	tests := []struct {
		name   string
		token  string
		status int
		code   string
	}{
		{"missing header", "", http.StatusUnauthorized, server.ErrTokenInvalid},
		{"garbage", "abc.def.ghi", http.StatusUnauthorized, server.ErrTokenInvalid},
		{"no subject", sign(t, gojwt.MapClaims{"id": 1, "exp": now + 60}), http.StatusBadRequest, server.ErrMalformedToken},
		{"no exp", sign(t, gojwt.MapClaims{"sub": "cus", "id": 3}), http.StatusBadRequest, server.ErrMissingExpiry},
		{"string exp", sign(t, gojwt.MapClaims{"sub": "cus", "id": 3, "exp": "later"}), http.StatusBadRequest, server.ErrInvalidExpiryFormat},
		{"expired", sign(t, gojwt.MapClaims{"sub": "cus", "id": 3, "exp": now - 60}), http.StatusUnauthorized, server.ErrTokenExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := e.do(t, http.MethodGet, "/auth/read_current_user", tt.token, nil, "")
			require.Equal(t, tt.status, w.Code, w.Body.String())
			assert.Equal(t, tt.code, errorCode(t, w))
		})
	}
}

func TestRegister(t *testing.T) {
	e := newEnv(t)
	body := []byte(`{"username":"dave","email":"dave@example.com","password":"secret-pw"}`)

	w := e.do(t, http.MethodPost, "/auth/", "", body, "application/json")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = e.do(t, http.MethodPost, "/auth/", "", body, "application/json")
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, server.ErrUsernameNotUnique, errorCode(t, w))

	w = e.do(t, http.MethodPost, "/auth/", "", []byte(`{"username":"eve","password":"x"}`), "application/json")
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var v server.Validation
	require.NoError(t, json.NewDecoder(w.Body).Decode(&v))
	assert.Equal(t, "EMPTY", v.Errors["email"])
	assert.Equal(t, "INVALID_VALUE", v.Errors["password"])
}

func TestRegisterPasswordByteLimit(t *testing.T) {
	e := newEnv(t)

	tests := []struct {
		name     string
		username string
		password string
		status   int
	}{
		{"72 ascii bytes", "ascii72", strings.Repeat("a", 72), http.StatusCreated},
		{"73 ascii bytes", "ascii73", strings.Repeat("a", 73), http.StatusUnprocessableEntity},
		{"36 two-byte runes", "accent36", strings.Repeat("é", 36), http.StatusCreated},
		{"40 two-byte runes", "accent40", strings.Repeat("é", 40), http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, err := json.Marshal(model.CreateUserDTO{
				Username: tt.username,
				Email:    tt.username + "@example.com",
				Password: tt.password,
			})
			require.NoError(t, err)

			w := e.do(t, http.MethodPost, "/auth/", "", body, "application/json")
			require.Equal(t, tt.status, w.Code, w.Body.String())

			if tt.status == http.StatusUnprocessableEntity {
				var v server.Validation
				require.NoError(t, json.NewDecoder(w.Body).Decode(&v))
				assert.Equal(t, "INVALID_VALUE", v.Errors["password"])
			}
		})
	}
}

func TestProductRoutes(t *testing.T) {
	e := newEnv(t)
	product := []byte(`{"name":"Desk Lamp","price":1500,"stock":3,"category":2}`)

	w := e.do(t, http.MethodGet, "/products/", "", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"slug":"lamp"`)

	w = e.do(t, http.MethodPost, "/products/", "", product, "application/json")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = e.do(t, http.MethodPost, "/products/", e.login(t, "cus"), product, "application/json")
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, server.ErrForbidden, errorCode(t, w))

	w = e.do(t, http.MethodPost, "/products/", e.login(t, "seven"), product, "application/json")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = e.do(t, http.MethodPost, "/products/", e.login(t, "seven"), []byte(`{"price":-1}`), "application/json")
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = e.do(t, http.MethodGet, "/products/garden", "", nil, "")
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, server.ErrCategoryNotFound, errorCode(t, w))

	e.catalog.detailErr = errors.Wrap(catalog.ErrProductNotFound, "lookup")
	w = e.do(t, http.MethodGet, "/products/detail/ghost", "", nil, "")
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, server.ErrProductNotFound, errorCode(t, w))

	e.catalog.detailErr = errors.New("connection reset")
	w = e.do(t, http.MethodGet, "/products/detail/lamp", "", nil, "")
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "connection reset")
}

func TestProductOwnership(t *testing.T) {
	e := newEnv(t)
	product := []byte(`{"name":"Floor Lamp","price":1500,"stock":3,"category":2}`)

	w := e.do(t, http.MethodPut, "/products/lamp", e.login(t, "root"), product, "application/json")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// the fake product belongs to user 7; "seven" is user 2
	w = e.do(t, http.MethodPut, "/products/lamp", e.login(t, "seven"), product, "application/json")
	require.Equal(t, http.StatusForbidden, w.Code)

	w = e.do(t, http.MethodDelete, "/products/lamp", e.login(t, "root"), nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"lamp"}, e.catalog.deleted)
}

func TestReviewRoutes(t *testing.T) {
	e := newEnv(t)

	w := e.do(t, http.MethodGet, "/reviews/product/1", "", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = e.do(t, http.MethodGet, "/reviews/product/2", "", nil, "")
	require.Equal(t, http.StatusNotFound, w.Code)

	w = e.do(t, http.MethodGet, "/reviews/product/abc", "", nil, "")
	require.Equal(t, http.StatusBadRequest, w.Code)

	review := []byte(`{"product_id":1,"comment":"ok","grade":7}`)
	w = e.do(t, http.MethodPost, "/reviews/", e.login(t, "seven"), review, "application/json")
	require.Equal(t, http.StatusForbidden, w.Code)

	w = e.do(t, http.MethodPost, "/reviews/", e.login(t, "cus"), review, "application/json")
	require.Equal(t, http.StatusCreated, w.Code)

	w = e.do(t, http.MethodPost, "/reviews/", e.login(t, "cus"), []byte(`{"product_id":1,"grade":11}`), "application/json")
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = e.do(t, http.MethodDelete, "/reviews/5", e.login(t, "cus"), nil, "")
	require.Equal(t, http.StatusForbidden, w.Code)

	w = e.do(t, http.MethodDelete, "/reviews/5", e.login(t, "root"), nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []int64{5}, e.reviews.deleted)
}

func TestHealthAndMetrics(t *testing.T) {
	e := newEnv(t)

	w := e.do(t, http.MethodGet, "/health", "", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = e.do(t, http.MethodGet, "/metrics", "", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "storefront_http_request_duration_seconds"))

	down := newEnv(t, server.WithHealthCheck(func(ctx context.Context) error {
		return errors.New("db down")
	}))
	w = down.do(t, http.MethodGet, "/health", "", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestUnknownRoute(t *testing.T) {
	e := newEnv(t)

	w := e.do(t, http.MethodGet, "/nope", "", nil, "")
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "ENDPOINT_NOT_FOUND", errorCode(t, w))
}
