package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"path"
	"strings"
	"unicode/utf8"

	"zozotech/internal/domain/models"
	"zozotech/internal/lib/logger/sl"
	"zozotech/internal/repository"
	"zozotech/internal/storage"
	filestorage "zozotech/internal/storage/filestorage"
	"zozotech/internal/transport/http/dto"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

const settingsCacheKey = "settings:site"

// Asset kinds accepted by UploadAsset. Each one is also the storage folder.
const (
	AssetNavbarLogo = "navbar-logos"
	AssetFavicon    = "favicons"
	AssetClientLogo = "client-logos"
)

var assetKinds = map[string]struct{}{
	AssetNavbarLogo: {},
	AssetFavicon:    {},
	AssetClientLogo: {},
}

var assetTypes = []string{
	"image/png",
	"image/jpeg",
	"image/webp",
	"image/gif",
	"image/svg+xml",
	"image/x-icon",
	"image/vnd.microsoft.icon",
}

type SettingsService struct {
	log      *slog.Logger
	repo     repository.SettingsRepository
	files    filestorage.FileStorage
	cache    *cache.Cache
	defaults models.SiteSettings
	maxSize  int64
}

func NewSettingsService(
	log *slog.Logger,
	repo repository.SettingsRepository,
	files filestorage.FileStorage,
	c *cache.Cache,
	defaults models.SiteSettings,
	maxSize int64,
) *SettingsService {
	if defaults.Clients == nil {
		defaults.Clients = []models.ClientLogo{}
	}

	return &SettingsService{
		log:      log,
		repo:     repo,
		files:    files,
		cache:    c,
		defaults: defaults,
		maxSize:  maxSize,
	}
}

// merge lays the stored row over the configured defaults.
func (s *SettingsService) merge(stored *models.SiteSettings) models.SiteSettings {
	out := s.defaults
	if stored == nil {
		return out
	}

	if stored.SiteName != "" {
		out.SiteName = stored.SiteName
	}
	if stored.WhatsappNumber != nil {
		out.WhatsappNumber = stored.WhatsappNumber
	}
	if stored.WhatsappMessage != nil {
		out.WhatsappMessage = stored.WhatsappMessage
	}
	if stored.Currency != "" {
		out.Currency = stored.Currency
	}
	if stored.NavbarLogoURL != "" {
		out.NavbarLogoURL = stored.NavbarLogoURL
	}
	if stored.FaviconURL != nil {
		out.FaviconURL = stored.FaviconURL
	}
	out.Clients = validClients(stored.Clients)
	out.UpdatedAt = stored.UpdatedAt

	return out
}

func validClients(in []models.ClientLogo) []models.ClientLogo {
	out := make([]models.ClientLogo, 0, len(in))
	for _, c := range in {
		if !c.Valid() {
			continue
		}
		out = append(out, models.ClientLogo{
			Name:       strings.TrimSpace(c.Name),
			LogoURL:    strings.TrimSpace(c.LogoURL),
			WebsiteURL: strings.TrimSpace(c.WebsiteURL),
		})
	}

	return out
}

func (s *SettingsService) Get(ctx context.Context) (models.SiteSettings, error) {
	const op = "service.SettingsService.Get"

	if cached, ok := s.cache.Get(settingsCacheKey); ok {
		return cached.(models.SiteSettings), nil
	}

	stored, err := s.repo.GetSettings(ctx)
	if err != nil {
		s.log.Error("failed to load settings", slog.String("op", op), sl.Err(err))
		return models.SiteSettings{}, fmt.Errorf("%s: %w", op, err)
	}

	merged := s.merge(stored)
	s.cache.SetDefault(settingsCacheKey, merged)

	return merged, nil
}

func (s *SettingsService) Update(ctx context.Context, req dto.SettingsRequest) (models.SiteSettings, error) {
	const op = "service.SettingsService.Update"

	log := s.log.With(slog.String("op", op))

	var verrs models.ValidationErrors

	siteName := strings.TrimSpace(req.SiteName)
	if utf8.RuneCountInString(siteName) < 2 {
		verrs.Add("site_name", "must be at least 2 characters")
	}

	number := trimmed(req.WhatsappNumber)
	if number != nil && len(*number) < 6 {
		verrs.Add("whatsapp_number", "must be at least 6 characters")
	}

	currency := strings.TrimSpace(req.Currency)
	if currency == "" {
		verrs.Add("currency", "is required")
	}

	if err := verrs.Err(); err != nil {
		log.Warn("invalid settings", sl.Err(err))
		return models.SiteSettings{}, fmt.Errorf("%s: %w", op, err)
	}

	next := models.SiteSettings{
		SiteName:        siteName,
		WhatsappNumber:  number,
		WhatsappMessage: trimmed(req.WhatsappMessage),
		Currency:        currency,
		NavbarLogoURL:   s.defaults.NavbarLogoURL,
		FaviconURL:      trimmed(req.FaviconURL),
		Clients:         validClients(req.Clients),
	}
	if logo := trimmed(req.NavbarLogoURL); logo != nil {
		next.NavbarLogoURL = *logo
	}

	if err := s.repo.UpsertSettings(ctx, next); err != nil {
		log.Error("failed to save settings", sl.Err(err))
		return models.SiteSettings{}, fmt.Errorf("%s: %w", op, err)
	}

	s.cache.Delete(settingsCacheKey)
	log.Info("settings updated", slog.Int("clients", len(next.Clients)))

	return s.Get(ctx)
}

// SeedDefaults writes the configured defaults when no row exists yet.
func (s *SettingsService) SeedDefaults(ctx context.Context) error {
	const op = "service.SettingsService.SeedDefaults"

	if err := s.repo.InsertDefaults(ctx, s.defaults); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// UploadAsset stores a logo or favicon and returns its public URL.
func (s *SettingsService) UploadAsset(ctx context.Context, kind string, file *multipart.FileHeader) (string, error) {
	const op = "service.SettingsService.UploadAsset"

	log := s.log.With(
		slog.String("op", op),
		slog.String("kind", kind),
	)

	if _, ok := assetKinds[kind]; !ok {
		return "", fmt.Errorf("%s: %w", op, models.ValidationErrors{{Field: "kind", Message: "unknown asset kind"}})
	}

	data, err := readUpload(file, s.maxSize)
	if err != nil {
		log.Warn("upload rejected", sl.Err(err))
		return "", fmt.Errorf("%s: %w", op, err)
	}

	mt := mimetype.Detect(data)
	if !mimetype.EqualsAny(mt.String(), assetTypes...) {
		log.Warn("unsupported asset type", slog.String("mime", mt.String()))
		return "", fmt.Errorf("%s: %w", op, storage.ErrInvalidFileType)
	}

	rel := path.Join(kind, uuid.NewString()+mt.Extension())
	if _, err := s.files.Put(ctx, rel, bytes.NewReader(data)); err != nil {
		log.Error("failed to store asset", sl.Err(err))
		return "", fmt.Errorf("%s: %w", op, err)
	}

	url := s.files.URL(rel)
	log.Info("asset stored", slog.String("url", url))

	return url, nil
}

// readUpload loads a multipart file, enforcing the size limit.
func readUpload(file *multipart.FileHeader, maxSize int64) ([]byte, error) {
	if file == nil || file.Size == 0 {
		return nil, storage.ErrEmptyFile
	}
	if maxSize > 0 && file.Size > maxSize {
		return nil, storage.ErrFileTooLarge
	}

	src, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	limit := maxSize
	if limit <= 0 {
		limit = file.Size
	}

	data, err := io.ReadAll(io.LimitReader(src, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, storage.ErrFileTooLarge
	}
	if len(data) == 0 {
		return nil, storage.ErrEmptyFile
	}

	return data, nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}

	return &v
}
