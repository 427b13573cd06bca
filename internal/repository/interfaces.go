package repository

import (
	"context"
	"time"

	"zozotech/internal/domain/models"

	"github.com/google/uuid"
)

type UserRepository interface {
	SaveUser(ctx context.Context, user models.User) (uuid.UUID, error)
	UpsertAdmin(ctx context.Context, email string, hash []byte) (uuid.UUID, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
	GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error)
	IsAdmin(ctx context.Context, userID uuid.UUID) (bool, error)
}

type TokenRepository interface {
	SaveRefreshToken(ctx context.Context, userID, token string, exp time.Duration) error
	GetRefreshToken(ctx context.Context, userID, token string) (bool, error)
	DeleteRefreshToken(ctx context.Context, userID, token string) error
	DeleteAllUserTokens(ctx context.Context, userID string) error
}

type PackageRepository interface {
	CreatePackage(ctx context.Context, p models.Package) (models.Package, error)
	UpdatePackage(ctx context.Context, p models.Package) (models.Package, error)
	DeletePackage(ctx context.Context, id uuid.UUID) error
	GetPackage(ctx context.Context, id uuid.UUID) (models.Package, error)
	ListPackages(ctx context.Context) ([]models.Package, error)
	NameTaken(ctx context.Context, name string, exclude uuid.UUID) (bool, error)
}

type ProductRepository interface {
	EnsureProduct(ctx context.Context, slug, name string) (models.Product, error)
	GetProductBySlug(ctx context.Context, slug string) (models.Product, error)
	ListProducts(ctx context.Context) ([]models.Product, error)
}

type LegacyGalleryRepository interface {
	ListLegacyEntries(ctx context.Context, slug string) ([]models.LegacyGalleryEntry, error)
}

// GalleryRepository is the media store behind the gallery service. Cover and
// ordering writes must keep at most one cover per product.
type GalleryRepository interface {
	ListMedia(ctx context.Context, productID int64, publishedOnly bool) ([]models.GalleryMedia, error)
	GetMedia(ctx context.Context, id int64) (models.GalleryMedia, error)
	CountMedia(ctx context.Context, productID int64) (int, error)
	CreateBatch(ctx context.Context, productID int64, rows []models.NewMediaRow) ([]models.GalleryMedia, error)
	BackfillIfEmpty(ctx context.Context, productID int64, rows []models.NewMediaRow) (bool, error)
	SetCover(ctx context.Context, productID, mediaID int64) error
	UpdateMedia(ctx context.Context, id int64, patch models.MediaPatch) (models.GalleryMedia, error)
	UpdateSortOrders(ctx context.Context, productID int64, keys []models.SortKey) error
	DeleteMedia(ctx context.Context, id int64) (models.GalleryMedia, error)
}

type PostRepository interface {
	SavePost(ctx context.Context, p models.Post) (models.Post, error)
	UpdatePost(ctx context.Context, p models.Post) (models.Post, error)
	DeletePost(ctx context.Context, id uuid.UUID) error
	GetPostByID(ctx context.Context, id uuid.UUID) (models.Post, error)
	GetPostBySlug(ctx context.Context, slug string) (models.Post, error)
	ListPosts(ctx context.Context, publishedOnly bool, limit int) ([]models.Post, error)
	SlugTaken(ctx context.Context, slug string, exclude uuid.UUID) (bool, error)
}

type SettingsRepository interface {
	GetSettings(ctx context.Context) (*models.SiteSettings, error)
	UpsertSettings(ctx context.Context, s models.SiteSettings) error
	InsertDefaults(ctx context.Context, s models.SiteSettings) error
}

var (
	_ UserRepository          = (*UserRepo)(nil)
	_ TokenRepository         = (*RedisTokenRepo)(nil)
	_ PackageRepository       = (*PackageRepo)(nil)
	_ ProductRepository       = (*ProductRepo)(nil)
	_ LegacyGalleryRepository = (*LegacyGalleryRepo)(nil)
	_ GalleryRepository       = (*GalleryRepo)(nil)
	_ PostRepository          = (*PostRepo)(nil)
	_ SettingsRepository      = (*SettingsRepo)(nil)
)
