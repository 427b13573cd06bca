package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"zozotech/internal/domain/models"
	"zozotech/internal/lib/logger/sl"
	"zozotech/internal/services/auth"
	"zozotech/internal/storage"
	"zozotech/internal/transport/http/dto"
	"zozotech/internal/transport/http/dto/request"
	"zozotech/internal/transport/http/dto/response"

	"github.com/google/uuid"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
)

const (
	SessionName   = "session"
	sessionUserID = "user_id"
	sessionRole   = "role"
	principalKey  = "principal"

	latestPostsOnSite = 3
)

type AuthService interface {
	Login(ctx context.Context, email, password string) (models.User, *models.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, error)
	Logout(ctx context.Context, userID uuid.UUID) error
	ParseAccessToken(token string) (models.Principal, error)
}

type PackageService interface {
	CreatePackage(ctx context.Context, req dto.PackageRequest) (models.PricedPackage, error)
	UpdatePackage(ctx context.Context, id uuid.UUID, req dto.PackageRequest) (models.PricedPackage, error)
	DeletePackage(ctx context.Context, id uuid.UUID) error
	GetPackage(ctx context.Context, id uuid.UUID) (models.PricedPackage, error)
	ListPackages(ctx context.Context) ([]models.PricedPackage, error)
	ListRanked(ctx context.Context) (dto.RankedPackages, error)
}

type PostService interface {
	CreatePost(ctx context.Context, req dto.PostRequest) (models.Post, error)
	UpdatePost(ctx context.Context, id uuid.UUID, req dto.PostRequest) (models.Post, error)
	DeletePost(ctx context.Context, id uuid.UUID) error
	GetPost(ctx context.Context, id uuid.UUID) (models.Post, error)
	GetPublishedPost(ctx context.Context, slug string) (models.Post, error)
	ListPublished(ctx context.Context, limit int) ([]models.Post, error)
	ListAll(ctx context.Context) ([]models.Post, error)
}

type SettingsService interface {
	Get(ctx context.Context) (models.SiteSettings, error)
	Update(ctx context.Context, req dto.SettingsRequest) (models.SiteSettings, error)
	UploadAsset(ctx context.Context, kind string, file *multipart.FileHeader) (string, error)
}

type GalleryService interface {
	ListProducts(ctx context.Context) ([]models.Product, error)
	ListMedia(ctx context.Context, slug string, includeUnpublished bool) (models.Product, []models.GalleryMedia, error)
	UploadBatch(ctx context.Context, in dto.GalleryUploadInput) ([]models.GalleryMedia, error)
	UpdateMedia(ctx context.Context, id int64, req dto.MediaPatchRequest) (models.GalleryMedia, error)
	SetCoverByID(ctx context.Context, id int64) (models.GalleryMedia, error)
	ReorderBySlug(ctx context.Context, slug string, ids []int64) ([]models.SortKey, error)
	DeleteMedia(ctx context.Context, id int64) error
}

type Routers struct {
	log             *slog.Logger
	AuthService     AuthService
	PackageService  PackageService
	PostService     PostService
	SettingsService SettingsService
	GalleryService  GalleryService
}

func NewRouter(
	log *slog.Logger,
	authService AuthService,
	packageService PackageService,
	postService PostService,
	settingsService SettingsService,
	galleryService GalleryService,
) *Routers {
	return &Routers{
		log:             log,
		AuthService:     authService,
		PackageService:  packageService,
		PostService:     postService,
		SettingsService: settingsService,
		GalleryService:  galleryService,
	}
}

var ErrInvalidUUID = errors.New("not valid UUID")

// fail maps a service error to a status code and a response body.
func (r *Routers) fail(c echo.Context, log *slog.Logger, err error) error {
	var verrs models.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, v := range verrs {
			fields[v.Field] = v.Message
		}
		return c.JSON(http.StatusBadRequest, response.ValidationResponse{
			Status: "error",
			Error:  "validation_failed",
			Fields: fields,
		})
	}

	var reorderErr *models.ReorderError
	if errors.As(err, &reorderErr) {
		log.Error("reorder incomplete", sl.Err(err))
		return c.JSON(http.StatusInternalServerError, response.ErrorResponseWithDetails(
			"reorder_incomplete",
			fmt.Sprintf("failed ids: %v", reorderErr.Failed),
		))
	}

	switch {
	case errors.Is(err, storage.ErrPackageNotFound),
		errors.Is(err, storage.ErrPostNotFound),
		errors.Is(err, storage.ErrMediaNotFound),
		errors.Is(err, storage.ErrProductNotFound),
		errors.Is(err, storage.ErrUserNotFound):
		return c.JSON(http.StatusNotFound, response.ErrorResponseWithDetails(response.ErrNotFound.Error, notFoundDetails(err)))
	case errors.Is(err, storage.ErrPackageExists),
		errors.Is(err, storage.ErrSlugTaken):
		return c.JSON(http.StatusConflict, response.ErrorResponseWithDetails(response.ErrConflict.Error, conflictDetails(err)))
	case errors.Is(err, storage.ErrFileTooLarge):
		return c.JSON(http.StatusRequestEntityTooLarge, response.ErrorResponseWithDetails("file_too_large", storage.ErrFileTooLarge.Error()))
	case errors.Is(err, storage.ErrImageTooLarge):
		return c.JSON(http.StatusRequestEntityTooLarge, response.ErrorResponseWithDetails("image_too_large", storage.ErrImageTooLarge.Error()))
	case errors.Is(err, storage.ErrInvalidFileType):
		return c.JSON(http.StatusBadRequest, response.ErrorResponseWithDetails("invalid_file_type", storage.ErrInvalidFileType.Error()))
	case errors.Is(err, storage.ErrEmptyFile):
		return c.JSON(http.StatusBadRequest, response.ErrorResponseWithDetails("empty_file", storage.ErrEmptyFile.Error()))
	case errors.Is(err, auth.ErrInvalidCredentials):
		return c.JSON(http.StatusUnauthorized, response.ErrAuthenticationFailed)
	case errors.Is(err, auth.ErrNotAdmin):
		return c.JSON(http.StatusForbidden, response.ErrAdminRequired)
	}

	log.Error("request failed", sl.Err(err))

	return c.JSON(http.StatusInternalServerError, response.ErrInternal)
}

func notFoundDetails(err error) string {
	for _, target := range []error{
		storage.ErrPackageNotFound,
		storage.ErrPostNotFound,
		storage.ErrMediaNotFound,
		storage.ErrProductNotFound,
		storage.ErrUserNotFound,
	} {
		if errors.Is(err, target) {
			return target.Error()
		}
	}

	return ""
}

func conflictDetails(err error) string {
	if errors.Is(err, storage.ErrSlugTaken) {
		return storage.ErrSlugTaken.Error()
	}

	return storage.ErrPackageExists.Error()
}

func badRequest(c echo.Context, details string) error {
	return c.JSON(http.StatusBadRequest, response.ErrorResponseWithDetails(response.ErrInvalidRequestFormat.Error, details))
}

func parseUUIDParam(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, ErrInvalidUUID
	}

	return id, nil
}

// ParseBoolean accepts the checkbox values browsers and scripts send.
func ParseBoolean(raw string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "on", "yes":
		return true
	case "0", "false", "off", "no":
		return false
	default:
		return fallback
	}
}

// Principal resolves the caller from the admin session or a bearer token.
func (r *Routers) Principal(c echo.Context) (models.Principal, bool) {
	if p, ok := c.Get(principalKey).(models.Principal); ok {
		return p, true
	}

	if header := c.Request().Header.Get(echo.HeaderAuthorization); strings.HasPrefix(header, "Bearer ") {
		p, err := r.AuthService.ParseAccessToken(strings.TrimSpace(strings.TrimPrefix(header, "Bearer ")))
		if err == nil {
			c.Set(principalKey, p)
			return p, true
		}
	}

	sess, err := session.Get(SessionName, c)
	if err != nil {
		return models.Principal{}, false
	}

	raw, _ := sess.Values[sessionUserID].(string)
	id, err := uuid.Parse(raw)
	if err != nil {
		return models.Principal{}, false
	}
	role, _ := sess.Values[sessionRole].(string)

	p := models.Principal{UserID: id, Role: role}
	c.Set(principalKey, p)

	return p, true
}

// RequireAdmin rejects callers without an admin session or token.
func (r *Routers) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		p, ok := r.Principal(c)
		if !ok {
			return c.JSON(http.StatusUnauthorized, response.ErrAuthenticationRequired)
		}
		if p.Role != models.RoleAdmin {
			return c.JSON(http.StatusForbidden, response.ErrAdminRequired)
		}

		return next(c)
	}
}

// Login godoc
// @Summary Admin login
// @Accept json
// @Produce json
// @Param request body request.LoginRequest true "credentials"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse
// @Router /api/v1/auth/login [post]
func (r *Routers) Login(c echo.Context) error {
	const op = "http.routers.Login"

	log := r.log.With(
		slog.String("op", op),
	)

	var req request.LoginRequest

	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}

	if err := c.Validate(req); err != nil {
		log.Warn("invalid format request", slog.String("email", req.Email))
		return badRequest(c, err.Error())
	}

	user, pair, err := r.AuthService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return r.fail(c, log, err)
	}

	sess, err := session.Get(SessionName, c)
	if err != nil {
		log.Error("failed to open session", sl.Err(err))
		return c.JSON(http.StatusInternalServerError, response.ErrInternal)
	}
	sess.Values[sessionUserID] = user.ID.String()
	sess.Values[sessionRole] = user.Role
	if err := sess.Save(c.Request(), c.Response()); err != nil {
		log.Error("failed to save session", sl.Err(err))
		return c.JSON(http.StatusInternalServerError, response.ErrInternal)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(map[string]string{
		"user_id":       pair.UserID.String(),
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
	}))
}

// Refresh godoc
// @Summary Rotate a refresh token
// @Router /api/v1/auth/refresh [post]
func (r *Routers) Refresh(c echo.Context) error {
	const op = "http.routers.Refresh"

	log := r.log.With(
		slog.String("op", op),
	)

	var req request.RefreshRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}
	if err := c.Validate(req); err != nil {
		return badRequest(c, err.Error())
	}

	pair, err := r.AuthService.Refresh(c.Request().Context(), req.RefreshToken)
	if err != nil {
		return r.fail(c, log, err)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(map[string]string{
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
	}))
}

// Logout godoc
// @Summary Clear the admin session and revoke refresh tokens
// @Router /api/v1/auth/logout [post]
func (r *Routers) Logout(c echo.Context) error {
	const op = "http.routers.Logout"

	log := r.log.With(
		slog.String("op", op),
	)

	if p, ok := r.Principal(c); ok {
		if err := r.AuthService.Logout(c.Request().Context(), p.UserID); err != nil {
			return r.fail(c, log, err)
		}
	}

	if sess, err := session.Get(SessionName, c); err == nil {
		delete(sess.Values, sessionUserID)
		delete(sess.Values, sessionRole)
		sess.Options.MaxAge = -1
		if err := sess.Save(c.Request(), c.Response()); err != nil {
			log.Warn("failed to clear session", sl.Err(err))
		}
	}

	return c.JSON(http.StatusOK, response.Response{Status: "success", Message: "logged out"})
}

// Site godoc
// @Summary Landing page read model
// @Router /api/v1/site [get]
func (r *Routers) Site(c echo.Context) error {
	const op = "http.routers.Site"

	log := r.log.With(
		slog.String("op", op),
	)
	ctx := c.Request().Context()

	settings, err := r.SettingsService.Get(ctx)
	if err != nil {
		return r.fail(c, log, err)
	}

	pricing, err := r.PackageService.ListRanked(ctx)
	if err != nil {
		return r.fail(c, log, err)
	}

	posts, err := r.PostService.ListPublished(ctx, latestPostsOnSite)
	if err != nil {
		return r.fail(c, log, err)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(dto.SiteResponse{
		Settings: settings,
		Pricing:  pricing,
		Posts:    posts,
	}))
}

func (r *Routers) ListRankedPackages(c echo.Context) error {
	log := r.log.With(slog.String("op", "http.routers.ListRankedPackages"))

	ranked, err := r.PackageService.ListRanked(c.Request().Context())
	if err != nil {
		return r.fail(c, log, err)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(ranked))
}

func (r *Routers) ListPublishedPosts(c echo.Context) error {
	log := r.log.With(slog.String("op", "http.routers.ListPublishedPosts"))

	posts, err := r.PostService.ListPublished(c.Request().Context(), 0)
	if err != nil {
		return r.fail(c, log, err)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(posts))
}

func (r *Routers) GetPublishedPost(c echo.Context) error {
	log := r.log.With(slog.String("op", "http.routers.GetPublishedPost"))

	post, err := r.PostService.GetPublishedPost(c.Request().Context(), c.Param("slug"))
	if err != nil {
		return r.fail(c, log, err)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(post))
}

// Admin: packages

func (r *Routers) AdminListPackages(c echo.Context) error {
	log := r.log.With(slog.String("op", "http.routers.AdminListPackages"))

	pkgs, err := r.PackageService.ListPackages(c.Request().Context())
	if err != nil {
		return r.fail(c, log, err)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(pkgs))
}

func (r *Routers) AdminGetPackage(c echo.Context) error {
	log := r.log.With(slog.String("op", "http.routers.AdminGetPackage"))

	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	pkg, err := r.PackageService.GetPackage(c.Request().Context(), id)
	if err != nil {
		return r.fail(c, log, err)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(pkg))
}

func (r *Routers) CreatePackage(c echo.Context) error {
	const op = "http.routers.CreatePackage"

	log := r.log.With(
		slog.String("op", op),
	)

	var req dto.PackageRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, err.Error())
	}

	pkg, err := r.PackageService.CreatePackage(c.Request().Context(), req)
	if err != nil {
		return r.fail(c, log, err)
	}

	return c.JSON(http.StatusCreated, response.SuccessResponse(pkg))
}

func (r *Routers) UpdatePackage(c echo.Context) error {
	const op = "http.routers.UpdatePackage"

	log := r.log.With(
		slog.String("op", op),
	)

	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	var req dto.PackageRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, err.Error())
	}

	pkg, err := r.PackageService.UpdatePackage(c.Request().Context(), id, req)
	if err != nil {
		return r.fail(c, log, err)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(pkg))
}

func (r *Routers) DeletePackage(c echo.Context) error {
	log := r.log.With(slog.String("op", "http.routers.DeletePackage"))

	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	if err := r.PackageService.DeletePackage(c.Request().Context(), id); err != nil {
		return r.fail(c, log, err)
	}

	return c.NoContent(http.StatusNoContent)
}

// Admin: posts

func (r *Routers) AdminListPosts(c echo.Context) error {
	log := r.log.With(slog.String("op", "http.routers.AdminListPosts"))

	posts, err := r.PostService.ListAll(c.Request().Context())
	if err != nil {
		return r.fail(c, log, err)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(posts))
}

func (r *Routers) AdminGetPost(c echo.Context) error {
	log := r.log.With(slog.String("op", "http.routers.AdminGetPost"))

	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	post, err := r.PostService.GetPost(c.Request().Context(), id)
	if err != nil {
		return r.fail(c, log, err)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(post))
}

func (r *Routers) CreatePost(c echo.Context) error {
	const op = "http.routers.CreatePost"

	log := r.log.With(
		slog.String("op", op),
	)

	var req dto.PostRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, err.Error())
	}

	post, err := r.PostService.CreatePost(c.Request().Context(), req)
	if err != nil {
		return r.fail(c, log, err)
	}

	return c.JSON(http.StatusCreated, response.SuccessResponse(post))
}

func (r *Routers) UpdatePost(c echo.Context) error {
	const op = "http.routers.UpdatePost"

	log := r.log.With(
		slog.String("op", op),
	)

	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	var req dto.PostRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, err.Error())
	}

	post, err := r.PostService.UpdatePost(c.Request().Context(), id, req)
	if err != nil {
		return r.fail(c, log, err)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(post))
}

func (r *Routers) DeletePost(c echo.Context) error {
	log := r.log.With(slog.String("op", "http.routers.DeletePost"))

	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	if err := r.PostService.DeletePost(c.Request().Context(), id); err != nil {
		return r.fail(c, log, err)
	}

	return c.NoContent(http.StatusNoContent)
}

// Admin: settings

func (r *Routers) GetSettings(c echo.Context) error {
	log := r.log.With(slog.String("op", "http.routers.GetSettings"))

	settings, err := r.SettingsService.Get(c.Request().Context())
	if err != nil {
		return r.fail(c, log, err)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(settings))
}

func (r *Routers) UpdateSettings(c echo.Context) error {
	const op = "http.routers.UpdateSettings"

	log := r.log.With(
		slog.String("op", op),
	)

	var req dto.SettingsRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, err.Error())
	}

	settings, err := r.SettingsService.Update(c.Request().Context(), req)
	if err != nil {
		return r.fail(c, log, err)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(settings))
}

func (r *Routers) UploadAsset(c echo.Context) error {
	const op = "http.routers.UploadAsset"

	log := r.log.With(
		slog.String("op", op),
		slog.String("kind", c.Param("kind")),
	)

	file, err := c.FormFile("file")
	if err != nil {
		log.Warn("empty file in request", sl.Err(err))
		return badRequest(c, "file is required")
	}

	url, err := r.SettingsService.UploadAsset(c.Request().Context(), c.Param("kind"), file)
	if err != nil {
		return r.fail(c, log, err)
	}

	return c.JSON(http.StatusCreated, response.SuccessResponse(map[string]string{"url": url}))
}
