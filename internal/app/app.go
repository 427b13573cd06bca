package app

import (
	"context"
	"fmt"
	"log/slog"

	httpapp "zozotech/internal/app/http"
	"zozotech/internal/config"
	"zozotech/internal/domain/models"
	"zozotech/internal/importer"
	"zozotech/internal/lib/logger/sl"
	"zozotech/internal/repository"
	"zozotech/internal/services/auth"
	gallery "zozotech/internal/services/gallery_service"
	packages "zozotech/internal/services/package_service"
	posts "zozotech/internal/services/post_service"
	settings "zozotech/internal/services/settings_service"
	tokens "zozotech/internal/services/token_service"
	filestorage "zozotech/internal/storage/filestorage"
	"zozotech/internal/storage/postgresql"
	redisapp "zozotech/internal/storage/redis"
	httprouters "zozotech/internal/transport/http"

	"github.com/patrickmn/go-cache"
)

type App struct {
	HTTPServer *httpapp.Server
	Importer   *importer.Importer

	log      *slog.Logger
	repo     *repository.Repository
	redis    *redisapp.Client
	auth     *auth.Auth
	settings *settings.SettingsService
	admin    config.AdminConfig
}

// New connects to postgres and redis, applies the schema and wires every
// service. It panics when a dependency is unreachable.
func New(ctx context.Context, log *slog.Logger, cfg *config.Config) *App {
	const op = "app.New"

	db, err := postgresql.New(ctx, cfg.DSN)
	if err != nil {
		panic(fmt.Errorf("%s: %w", op, err))
	}

	if err := postgresql.Migrate(ctx, db); err != nil {
		panic(fmt.Errorf("%s: %w", op, err))
	}

	repo := repository.NewRepository(db)
	redisClient := redisapp.NewClient(cfg.Redis.RedisAddr, cfg.Redis.RedisPassword, cfg.Redis.RedisDB)

	files, err := filestorage.NewLocalFileStorage(cfg.FileStorage.BaseDir, cfg.FileStorage.BaseURL)
	if err != nil {
		panic(fmt.Errorf("%s: %w", op, err))
	}

	readCache := cache.New(cfg.Cache.TTL, cfg.Cache.Cleanup)

	tokenService := tokens.NewTokenService(
		log,
		repository.NewRedisTokenRepo(redisClient),
		cfg.Auth.TokenSecret,
		cfg.Auth.AccessTTL,
		cfg.Auth.RefreshTTL,
	)
	authService := auth.New(log, repo.User, tokenService)

	packageService := packages.NewPackageService(log, repo.Package, readCache)
	postService := posts.NewPostService(log, repo.Post)
	settingsService := settings.NewSettingsService(
		log,
		repo.Settings,
		files,
		readCache,
		siteDefaults(cfg.Site),
		cfg.FileStorage.MaxSize,
	)
	galleryService := gallery.NewGalleryService(
		log,
		repo.Product,
		repo.Gallery,
		repo.Legacy,
		files,
		gallery.Options{
			ThumbWidth: cfg.Gallery.ThumbWidth,
			Quality:    cfg.Gallery.JPEGQuality,
			Workers:    cfg.Gallery.Workers,
			MaxSize:    cfg.FileStorage.MaxSize,
			MaxPixels:  cfg.Gallery.MaxPixels,
		},
	)

	routers := httprouters.NewRouter(log, authService, packageService, postService, settingsService, galleryService)

	server := httpapp.New(log, cfg.HTTP, cfg.Auth.SessionSecret, cfg.FileStorage, routers, map[string]httpapp.HealthChecker{
		"postgres": repo,
		"redis":    httpapp.HealthFunc(redisClient.HealthCheck),
	})

	return &App{
		HTTPServer: server,
		Importer:   importer.New(log, postService, packageService),
		log:        log,
		repo:       repo,
		redis:      redisClient,
		auth:       authService,
		settings:   settingsService,
		admin:      cfg.Admin,
	}
}

func siteDefaults(site config.SiteConfig) models.SiteSettings {
	msg := site.WhatsappMessage

	return models.SiteSettings{
		SiteName:        site.Name,
		Currency:        site.Currency,
		WhatsappMessage: &msg,
		NavbarLogoURL:   site.NavbarLogoURL,
		Clients:         []models.ClientLogo{},
	}
}

// Seed writes the default settings row and the configured admin account.
func (a *App) Seed(ctx context.Context) error {
	const op = "app.Seed"

	if err := a.settings.SeedDefaults(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if a.admin.Email == "" {
		a.log.Info("admin seed skipped, no email configured")
		return nil
	}

	if _, err := a.auth.EnsureAdmin(ctx, a.admin.Email, a.admin.Password); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (a *App) Close() {
	if err := a.redis.Close(); err != nil {
		a.log.Warn("failed to close redis", sl.Err(err))
	}
	a.repo.Close()
}
