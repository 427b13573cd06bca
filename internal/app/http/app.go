package httpapp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"regexp"
	"time"

	"zozotech/internal/config"
	"zozotech/internal/lib/logger/sl"
	appmiddleware "zozotech/internal/middleware"
	httprouters "zozotech/internal/transport/http"
	"zozotech/internal/transport/http/dto/response"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9-]+$`)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

func NewValidator() *CustomValidator {
	validate := validator.New()
	_ = validate.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return slugPattern.MatchString(fl.Field().String())
	})

	return &CustomValidator{validator: validate}
}

// HealthChecker is pinged by /healthz.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

type HealthFunc func(ctx context.Context) error

func (f HealthFunc) Ping(ctx context.Context) error { return f(ctx) }

type Server struct {
	log     *slog.Logger
	e       *echo.Echo
	routers *httprouters.Routers
	cfg     config.HTTPConfig
	files   config.FileStorageConfig
	checks  map[string]HealthChecker
}

func New(
	log *slog.Logger,
	cfg config.HTTPConfig,
	sessionSecret string,
	files config.FileStorageConfig,
	routers *httprouters.Routers,
	checks map[string]HealthChecker,
) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = NewValidator()

	e.Server.ReadTimeout = cfg.Timeout
	e.Server.WriteTimeout = cfg.Timeout
	e.Server.IdleTimeout = cfg.IdleTimeout

	store := sessions.NewCookieStore([]byte(sessionSecret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int((7 * 24 * time.Hour).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	e.Use(session.Middleware(store))

	if len(cfg.CORSOrigins) > 0 {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins:     cfg.CORSOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
			AllowCredentials: true,
		}))
	} else {
		e.Use(middleware.CORS())
	}
	e.Use(middleware.Recover())
	e.Use(appmiddleware.PrometheusMetrics)

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:      true,
		LogStatus:   true,
		LogMethod:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				slog.String("method", v.Method),
				slog.String("URI", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
				slog.String("remote ip", v.RemoteIP),
			}
			if v.Error != nil {
				attrs = append(attrs, sl.Err(v.Error))
			}
			log.Info("request", attrs...)

			return nil
		},
	}))

	e.HTTPErrorHandler = func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var he *echo.HTTPError
		if errors.As(err, &he) {
			_ = c.JSON(he.Code, response.ErrorResponseWithDetails(http.StatusText(he.Code), fmt.Sprint(he.Message)))
			return
		}

		log.Error("unhandled error", sl.Err(err))
		_ = c.JSON(http.StatusInternalServerError, response.ErrInternal)
	}

	return &Server{
		log:     log,
		e:       e,
		routers: routers,
		cfg:     cfg,
		files:   files,
		checks:  checks,
	}
}

// Echo exposes the router for tests.
func (s *Server) Echo() *echo.Echo {
	return s.e
}

func (s *Server) MustRun() {
	const op = "http.Server.MustRun"

	s.log.Info(op, slog.String("addr", s.addr()))

	if err := s.Start(); err != nil {
		panic(err)
	}
}

func (s *Server) addr() string {
	return net.JoinHostPort(s.cfg.Host, s.cfg.Port)
}

func (s *Server) Start() error {
	const op = "http.Server.Start"

	if err := s.e.Start(s.addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("%s server stopped: %w", op, err)
	}

	return nil
}

func (s *Server) Stop() error {
	const op = "http.Server.Stop"

	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	optCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.log.Info("stopping http server", slog.String("op", op))

	if err := s.e.Shutdown(optCtx); err != nil {
		return fmt.Errorf("%s could not shutdown server gracefuly: %w", op, err)
	}

	return nil
}

func (s *Server) healthz(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	status := map[string]string{}
	healthy := true
	for name, check := range s.checks {
		if err := check.Ping(ctx); err != nil {
			s.log.Warn("health check failed", slog.String("component", name), sl.Err(err))
			status[name] = "down"
			healthy = false
			continue
		}
		status[name] = "up"
	}

	if !healthy {
		return c.JSON(http.StatusServiceUnavailable, response.Response{Status: "error", Data: status})
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(status))
}

func (s *Server) BuildRouters() {
	s.e.GET("/healthz", s.healthz)
	s.e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	s.e.Static(s.files.BaseURL, s.files.BaseDir)

	api := s.e.Group("/api/v1")
	{
		api.GET("/site", s.routers.Site)
		api.GET("/packages", s.routers.ListRankedPackages)
		api.GET("/posts", s.routers.ListPublishedPosts)
		api.GET("/posts/:slug", s.routers.GetPublishedPost)
		api.GET("/products", s.routers.ListProducts)
		api.GET("/gallery", s.routers.ListGallery)

		authGroup := api.Group("/auth")
		{
			authGroup.POST("/login", s.routers.Login)
			authGroup.POST("/refresh", s.routers.Refresh)
			authGroup.POST("/logout", s.routers.Logout)
		}

		admin := api.Group("/admin", s.routers.RequireAdmin)
		{
			admin.GET("/packages", s.routers.AdminListPackages)
			admin.POST("/packages", s.routers.CreatePackage)
			admin.GET("/packages/:id", s.routers.AdminGetPackage)
			admin.PUT("/packages/:id", s.routers.UpdatePackage)
			admin.DELETE("/packages/:id", s.routers.DeletePackage)

			admin.GET("/posts", s.routers.AdminListPosts)
			admin.POST("/posts", s.routers.CreatePost)
			admin.GET("/posts/:id", s.routers.AdminGetPost)
			admin.PUT("/posts/:id", s.routers.UpdatePost)
			admin.DELETE("/posts/:id", s.routers.DeletePost)

			admin.GET("/settings", s.routers.GetSettings)
			admin.PUT("/settings", s.routers.UpdateSettings)
			admin.POST("/uploads/:kind", s.routers.UploadAsset)

			admin.GET("/gallery", s.routers.AdminListGallery)
			admin.POST("/gallery", s.routers.UploadGallery)
			admin.POST("/gallery/reorder", s.routers.ReorderGallery)
			admin.PUT("/gallery/:id", s.routers.UpdateGalleryItem)
			admin.DELETE("/gallery/:id", s.routers.DeleteGalleryItem)
			admin.POST("/gallery/:id/cover", s.routers.SetGalleryCover)
		}
	}
}
