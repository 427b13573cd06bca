package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"regexp"
	"strings"
	"testing"

	"zozotech/internal/domain/models"
	"zozotech/internal/services/auth"
	"zozotech/internal/storage"
	httprouters "zozotech/internal/transport/http"
	"zozotech/internal/transport/http/dto"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockAuthService struct{ mock.Mock }

func (m *MockAuthService) Login(ctx context.Context, email, password string) (models.User, *models.TokenPair, error) {
	args := m.Called(ctx, email, password)
	if args.Get(1) == nil {
		return args.Get(0).(models.User), nil, args.Error(2)
	}
	return args.Get(0).(models.User), args.Get(1).(*models.TokenPair), args.Error(2)
}

func (m *MockAuthService) Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TokenPair), args.Error(1)
}

func (m *MockAuthService) Logout(ctx context.Context, userID uuid.UUID) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *MockAuthService) ParseAccessToken(token string) (models.Principal, error) {
	args := m.Called(token)
	return args.Get(0).(models.Principal), args.Error(1)
}

type MockPackageService struct{ mock.Mock }

func (m *MockPackageService) CreatePackage(ctx context.Context, req dto.PackageRequest) (models.PricedPackage, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(models.PricedPackage), args.Error(1)
}

func (m *MockPackageService) UpdatePackage(ctx context.Context, id uuid.UUID, req dto.PackageRequest) (models.PricedPackage, error) {
	args := m.Called(ctx, id, req)
	return args.Get(0).(models.PricedPackage), args.Error(1)
}

func (m *MockPackageService) DeletePackage(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockPackageService) GetPackage(ctx context.Context, id uuid.UUID) (models.PricedPackage, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.PricedPackage), args.Error(1)
}

func (m *MockPackageService) ListPackages(ctx context.Context) ([]models.PricedPackage, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.PricedPackage), args.Error(1)
}

func (m *MockPackageService) ListRanked(ctx context.Context) (dto.RankedPackages, error) {
	args := m.Called(ctx)
	return args.Get(0).(dto.RankedPackages), args.Error(1)
}

type MockPostService struct{ mock.Mock }

func (m *MockPostService) CreatePost(ctx context.Context, req dto.PostRequest) (models.Post, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(models.Post), args.Error(1)
}

func (m *MockPostService) UpdatePost(ctx context.Context, id uuid.UUID, req dto.PostRequest) (models.Post, error) {
	args := m.Called(ctx, id, req)
	return args.Get(0).(models.Post), args.Error(1)
}

func (m *MockPostService) DeletePost(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockPostService) GetPost(ctx context.Context, id uuid.UUID) (models.Post, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.Post), args.Error(1)
}

func (m *MockPostService) GetPublishedPost(ctx context.Context, slug string) (models.Post, error) {
	args := m.Called(ctx, slug)
	return args.Get(0).(models.Post), args.Error(1)
}

func (m *MockPostService) ListPublished(ctx context.Context, limit int) ([]models.Post, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]models.Post), args.Error(1)
}

func (m *MockPostService) ListAll(ctx context.Context) ([]models.Post, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.Post), args.Error(1)
}

type MockSettingsService struct{ mock.Mock }

func (m *MockSettingsService) Get(ctx context.Context) (models.SiteSettings, error) {
	args := m.Called(ctx)
	return args.Get(0).(models.SiteSettings), args.Error(1)
}

func (m *MockSettingsService) Update(ctx context.Context, req dto.SettingsRequest) (models.SiteSettings, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(models.SiteSettings), args.Error(1)
}

func (m *MockSettingsService) UploadAsset(ctx context.Context, kind string, file *multipart.FileHeader) (string, error) {
	args := m.Called(ctx, kind, file)
	return args.String(0), args.Error(1)
}

type MockGalleryService struct{ mock.Mock }

func (m *MockGalleryService) ListProducts(ctx context.Context) ([]models.Product, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.Product), args.Error(1)
}

func (m *MockGalleryService) ListMedia(ctx context.Context, slug string, includeUnpublished bool) (models.Product, []models.GalleryMedia, error) {
	args := m.Called(ctx, slug, includeUnpublished)
	return args.Get(0).(models.Product), args.Get(1).([]models.GalleryMedia), args.Error(2)
}

func (m *MockGalleryService) UploadBatch(ctx context.Context, in dto.GalleryUploadInput) ([]models.GalleryMedia, error) {
	args := m.Called(ctx, in)
	return args.Get(0).([]models.GalleryMedia), args.Error(1)
}

func (m *MockGalleryService) UpdateMedia(ctx context.Context, id int64, req dto.MediaPatchRequest) (models.GalleryMedia, error) {
	args := m.Called(ctx, id, req)
	return args.Get(0).(models.GalleryMedia), args.Error(1)
}

func (m *MockGalleryService) SetCoverByID(ctx context.Context, id int64) (models.GalleryMedia, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.GalleryMedia), args.Error(1)
}

func (m *MockGalleryService) ReorderBySlug(ctx context.Context, slug string, ids []int64) ([]models.SortKey, error) {
	args := m.Called(ctx, slug, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SortKey), args.Error(1)
}

func (m *MockGalleryService) DeleteMedia(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

type testValidator struct {
	v *validator.Validate
}

func (tv *testValidator) Validate(i interface{}) error {
	return tv.v.Struct(i)
}

type harness struct {
	e        *echo.Echo
	auth     *MockAuthService
	packages *MockPackageService
	posts    *MockPostService
	settings *MockSettingsService
	gallery  *MockGalleryService
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	h := &harness{
		e:        echo.New(),
		auth:     new(MockAuthService),
		packages: new(MockPackageService),
		posts:    new(MockPostService),
		settings: new(MockSettingsService),
		gallery:  new(MockGalleryService),
	}

	v := validator.New()
	slugRe := regexp.MustCompile(`^[a-z0-9-]+$`)
	require.NoError(t, v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return slugRe.MatchString(fl.Field().String())
	}))
	h.e.Validator = &testValidator{v: v}
	h.e.Use(session.Middleware(sessions.NewCookieStore([]byte("test-session-secret"))))

	r := httprouters.NewRouter(log, h.auth, h.packages, h.posts, h.settings, h.gallery)

	api := h.e.Group("/api/v1")
	api.GET("/site", r.Site)
	api.GET("/posts/:slug", r.GetPublishedPost)
	api.GET("/gallery", r.ListGallery)
	api.POST("/auth/login", r.Login)

	admin := api.Group("/admin", r.RequireAdmin)
	admin.POST("/packages", r.CreatePackage)
	admin.POST("/gallery", r.UploadGallery)
	admin.POST("/gallery/reorder", r.ReorderGallery)
	admin.POST("/gallery/:id/cover", r.SetGalleryCover)

	return h
}

func (h *harness) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.e.ServeHTTP(rec, req)

	return rec
}

func jsonRequest(method, target string, body interface{}) *http.Request {
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(method, target, bytes.NewReader(raw))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)

	return req
}

func withAdminToken(h *harness, req *http.Request) *http.Request {
	req.Header.Set(echo.HeaderAuthorization, "Bearer admin-token")
	h.auth.On("ParseAccessToken", "admin-token").
		Return(models.Principal{UserID: uuid.New(), Role: models.RoleAdmin}, nil).Maybe()

	return req
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	return body
}

func TestParseBoolean(t *testing.T) {
	tests := []struct {
		raw      string
		fallback bool
		want     bool
	}{
		{"1", false, true},
		{"true", false, true},
		{"ON", false, true},
		{" yes ", false, true},
		{"0", true, false},
		{"off", true, false},
		{"", true, true},
		{"maybe", false, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, httprouters.ParseBoolean(tt.raw, tt.fallback), "raw=%q", tt.raw)
	}
}

func TestSite(t *testing.T) {
	h := newHarness(t)

	highlight := uuid.New()
	h.settings.On("Get", mock.Anything).Return(models.SiteSettings{SiteName: "ZOZOTECH", Currency: "Rp"}, nil)
	h.packages.On("ListRanked", mock.Anything).Return(dto.RankedPackages{
		Packages:    []models.PricedPackage{{Package: models.Package{ID: highlight, Name: "Basic"}}},
		HighlightID: &highlight,
	}, nil)
	h.posts.On("ListPublished", mock.Anything, 3).Return([]models.Post{{Slug: "hello", Title: "Hello"}}, nil)

	rec := h.do(httptest.NewRequest(http.MethodGet, "/api/v1/site", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "ZOZOTECH", data["settings"].(map[string]interface{})["site_name"])
	assert.Equal(t, highlight.String(), data["pricing"].(map[string]interface{})["highlight_id"])
	assert.Len(t, data["posts"], 1)
}

func TestGetPublishedPost_NotFound(t *testing.T) {
	h := newHarness(t)

	h.posts.On("GetPublishedPost", mock.Anything, "draft").
		Return(models.Post{}, errors.Join(errors.New("service.PostService.GetPublishedPost"), storage.ErrPostNotFound))

	rec := h.do(httptest.NewRequest(http.MethodGet, "/api/v1/posts/draft", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decode(t, rec)["error"])
}

func TestCreatePackage_Errors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{
			name:       "duplicate name",
			err:        storage.ErrPackageExists,
			wantStatus: http.StatusConflict,
			wantError:  "conflict",
		},
		{
			name:       "invalid fields",
			err:        models.ValidationErrors{{Field: "name", Message: "must be at least 2 characters"}},
			wantStatus: http.StatusBadRequest,
			wantError:  "validation_failed",
		},
		{
			name:       "unexpected",
			err:        errors.New("connection reset"),
			wantStatus: http.StatusInternalServerError,
			wantError:  "internal_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)

			h.packages.On("CreatePackage", mock.Anything, mock.AnythingOfType("dto.PackageRequest")).
				Return(models.PricedPackage{}, tt.err)

			req := withAdminToken(h, jsonRequest(http.MethodPost, "/api/v1/admin/packages", map[string]interface{}{
				"name":               "Basic",
				"price_original_idr": 100000,
				"features":           "Kasir\nLaporan\n",
			}))

			rec := h.do(req)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantError, decode(t, rec)["error"])
		})
	}
}

func TestAdminRoutes_RequireAdmin(t *testing.T) {
	h := newHarness(t)

	rec := h.do(jsonRequest(http.MethodPost, "/api/v1/admin/packages", map[string]interface{}{"name": "x"}))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := jsonRequest(http.MethodPost, "/api/v1/admin/packages", map[string]interface{}{"name": "x"})
	req.Header.Set(echo.HeaderAuthorization, "Bearer editor-token")
	h.auth.On("ParseAccessToken", "editor-token").Return(models.Principal{UserID: uuid.New(), Role: "editor"}, nil)

	rec = h.do(req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	h.packages.AssertNotCalled(t, "CreatePackage", mock.Anything, mock.Anything)
}

func TestListGallery_AdminFlag(t *testing.T) {
	h := newHarness(t)

	product := models.Product{ID: 1, Slug: "eco-pos", Name: "Eco POS (Android)"}
	h.gallery.On("ListMedia", mock.Anything, "eco-pos", false).Return(product, []models.GalleryMedia{{ID: 1}}, nil)
	h.gallery.On("ListMedia", mock.Anything, "eco-pos", true).Return(product, []models.GalleryMedia{{ID: 1}, {ID: 2}}, nil)

	rec := h.do(httptest.NewRequest(http.MethodGet, "/api/v1/gallery?slug=eco-pos", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["data"].(map[string]interface{})["items"], 1)

	rec = h.do(httptest.NewRequest(http.MethodGet, "/api/v1/gallery?product=eco-pos&admin=1", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := withAdminToken(h, httptest.NewRequest(http.MethodGet, "/api/v1/gallery?product=eco-pos&admin=1", nil))
	rec = h.do(req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["data"].(map[string]interface{})["items"], 2)

	rec = h.do(httptest.NewRequest(http.MethodGet, "/api/v1/gallery", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadGallery(t *testing.T) {
	h := newHarness(t)

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	require.NoError(t, w.WriteField("product_slug", "open-retail"))
	require.NoError(t, w.WriteField("sort_order", "20"))
	require.NoError(t, w.WriteField("is_cover", "on"))
	require.NoError(t, w.WriteField("title", "  Kasir  "))
	for _, name := range []string{"a.png", "b.png"} {
		part, err := w.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write([]byte("fake"))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	h.gallery.On("UploadBatch", mock.Anything, mock.MatchedBy(func(in dto.GalleryUploadInput) bool {
		return in.ProductSlug == "open-retail" &&
			len(in.Files) == 2 &&
			in.BaseSortOrder == 20 &&
			in.IsCover &&
			in.IsPublished &&
			in.Title != nil && *in.Title == "Kasir" &&
			in.Caption == nil
	})).Return([]models.GalleryMedia{{ID: 7, SortOrder: 20, IsCover: true}, {ID: 8, SortOrder: 30}}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/gallery", &body)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	rec := h.do(withAdminToken(h, req))

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Len(t, decode(t, rec)["data"], 2)
	h.gallery.AssertExpectations(t)
}

func TestUploadGallery_TooLarge(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
	}{
		{name: "file over size cap", err: storage.ErrFileTooLarge, code: "file_too_large"},
		{name: "canvas over pixel budget", err: fmt.Errorf("upload: %w", storage.ErrImageTooLarge), code: "image_too_large"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)

			var body bytes.Buffer
			w := multipart.NewWriter(&body)
			require.NoError(t, w.WriteField("product_slug", "open-retail"))
			part, err := w.CreateFormFile("files", "big.png")
			require.NoError(t, err)
			_, err = part.Write([]byte("fake"))
			require.NoError(t, err)
			require.NoError(t, w.Close())

			h.gallery.On("UploadBatch", mock.Anything, mock.Anything).Return([]models.GalleryMedia(nil), tt.err)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/gallery", &body)
			req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
			rec := h.do(withAdminToken(h, req))

			assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.code)
		})
	}
}

func TestReorderGallery(t *testing.T) {
	h := newHarness(t)

	h.gallery.On("ReorderBySlug", mock.Anything, "open-retail", []int64{3, 1, 2}).
		Return([]models.SortKey{{ID: 3, SortOrder: 0}, {ID: 1, SortOrder: 10}, {ID: 2, SortOrder: 20}}, nil)
	h.gallery.On("ReorderBySlug", mock.Anything, "eco-pos", []int64{5, 4}).
		Return(nil, &models.ReorderError{Failed: []int64{4}, Err: errors.New("timeout")})

	rec := h.do(withAdminToken(h, jsonRequest(http.MethodPost, "/api/v1/admin/gallery/reorder", map[string]interface{}{
		"product_slug": "open-retail",
		"ids":          []int64{3, 1, 2},
	})))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["data"], 3)

	rec = h.do(withAdminToken(h, jsonRequest(http.MethodPost, "/api/v1/admin/gallery/reorder", map[string]interface{}{
		"product_slug": "eco-pos",
		"ids":          []int64{5, 4},
	})))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "reorder_incomplete", body["error"])
	assert.Contains(t, body["details"], "4")

	rec = h.do(withAdminToken(h, jsonRequest(http.MethodPost, "/api/v1/admin/gallery/reorder", map[string]interface{}{
		"product_slug": "eco-pos",
		"ids":          []int64{},
	})))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSetGalleryCover_NotFound(t *testing.T) {
	h := newHarness(t)

	h.gallery.On("SetCoverByID", mock.Anything, int64(42)).Return(models.GalleryMedia{}, storage.ErrMediaNotFound)

	rec := h.do(withAdminToken(h, httptest.NewRequest(http.MethodPost, "/api/v1/admin/gallery/42/cover", nil)))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = h.do(withAdminToken(h, httptest.NewRequest(http.MethodPost, "/api/v1/admin/gallery/abc/cover", nil)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogin(t *testing.T) {
	h := newHarness(t)

	user := models.User{ID: uuid.New(), Email: "admin@zozotech.test", Role: models.RoleAdmin}
	h.auth.On("Login", mock.Anything, "admin@zozotech.test", "secret").
		Return(user, &models.TokenPair{UserID: user.ID, AccessToken: "acc", RefreshToken: "ref"}, nil)
	h.auth.On("Login", mock.Anything, "admin@zozotech.test", "wrong").
		Return(models.User{}, nil, auth.ErrInvalidCredentials)

	rec := h.do(jsonRequest(http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email":    "admin@zozotech.test",
		"password": "secret",
	}))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "acc", decode(t, rec)["data"].(map[string]interface{})["access_token"])

	cookie := rec.Header().Get("Set-Cookie")
	assert.True(t, strings.HasPrefix(cookie, httprouters.SessionName+"="))

	rec = h.do(jsonRequest(http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email":    "admin@zozotech.test",
		"password": "wrong",
	}))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = h.do(jsonRequest(http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email": "not-an-email",
	}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
