package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"zozotech/internal/domain/models"
	"zozotech/internal/domain/pricing"
	"zozotech/internal/lib/logger/sl"
	"zozotech/internal/repository"
	"zozotech/internal/storage"
	"zozotech/internal/transport/http/dto"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

const packagesCacheKey = "packages:all"

type PackageService struct {
	log   *slog.Logger
	repo  repository.PackageRepository
	cache *cache.Cache
	now   func() time.Time
}

func NewPackageService(log *slog.Logger, repo repository.PackageRepository, c *cache.Cache) *PackageService {
	return &PackageService{
		log:   log,
		repo:  repo,
		cache: c,
		now:   time.Now,
	}
}

// WithClock replaces the time source used for discount windows.
func (s *PackageService) WithClock(now func() time.Time) *PackageService {
	s.now = now
	return s
}

// buildPackage validates req and converts it to a model.
func buildPackage(req dto.PackageRequest) (models.Package, error) {
	var verrs models.ValidationErrors

	name := strings.TrimSpace(req.Name)
	if utf8.RuneCountInString(name) < 2 {
		verrs.Add("name", "must be at least 2 characters")
	}

	if req.PriceOriginalIDR < 0 {
		verrs.Add("price_original_idr", "must not be negative")
	}

	if err := verrs.Err(); err != nil {
		return models.Package{}, err
	}

	percent := req.DiscountPercent
	if math.IsNaN(percent) || math.IsInf(percent, 0) {
		percent = 0
	}
	percent = math.Max(0, math.Min(100, math.Trunc(percent)))

	p := models.Package{
		Name:             name,
		PriceOriginalIDR: req.PriceOriginalIDR,
		DiscountPercent:  pricing.ClampPercent(int(percent)),
		DiscountActive:   req.DiscountActive,
		Detail:           trimmed(req.Detail),
		Icon:             trimmed(req.Icon),
		Featured:         req.Featured,
		Features:         dto.NormalizeFeatures(req.Features),
	}

	if req.DiscountStartAt != nil {
		p.DiscountStartAt = pricing.ParseWindowBound(*req.DiscountStartAt)
	}
	if req.DiscountEndAt != nil {
		p.DiscountEndAt = pricing.ParseWindowBound(*req.DiscountEndAt)
	}

	return p, nil
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

func (s *PackageService) ensureNameFree(ctx context.Context, name string, exclude uuid.UUID) error {
	taken, err := s.repo.NameTaken(ctx, name, exclude)
	if err != nil {
		return err
	}
	if taken {
		return storage.ErrPackageExists
	}

	return nil
}

func (s *PackageService) CreatePackage(ctx context.Context, req dto.PackageRequest) (models.PricedPackage, error) {
	const op = "service.PackageService.CreatePackage"

	log := s.log.With(
		slog.String("op", op),
		slog.String("name", req.Name),
	)

	p, err := buildPackage(req)
	if err != nil {
		log.Warn("invalid package", sl.Err(err))
		return models.PricedPackage{}, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.ensureNameFree(ctx, p.Name, uuid.Nil); err != nil {
		log.Warn("package name rejected", sl.Err(err))
		return models.PricedPackage{}, fmt.Errorf("%s: %w", op, err)
	}

	created, err := s.repo.CreatePackage(ctx, p)
	if err != nil {
		log.Error("failed to create package", sl.Err(err))
		return models.PricedPackage{}, fmt.Errorf("%s: %w", op, err)
	}

	s.cache.Delete(packagesCacheKey)
	log.Info("package created", slog.String("id", created.ID.String()))

	return pricing.Price(created, s.now()), nil
}

func (s *PackageService) UpdatePackage(ctx context.Context, id uuid.UUID, req dto.PackageRequest) (models.PricedPackage, error) {
	const op = "service.PackageService.UpdatePackage"

	log := s.log.With(
		slog.String("op", op),
		slog.String("id", id.String()),
	)

	p, err := buildPackage(req)
	if err != nil {
		log.Warn("invalid package", sl.Err(err))
		return models.PricedPackage{}, fmt.Errorf("%s: %w", op, err)
	}
	p.ID = id

	if _, err := s.repo.GetPackage(ctx, id); err != nil {
		if errors.Is(err, storage.ErrPackageNotFound) {
			log.Warn("package not found")
		} else {
			log.Error("failed to load package", sl.Err(err))
		}
		return models.PricedPackage{}, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.ensureNameFree(ctx, p.Name, id); err != nil {
		log.Warn("package name rejected", sl.Err(err))
		return models.PricedPackage{}, fmt.Errorf("%s: %w", op, err)
	}

	updated, err := s.repo.UpdatePackage(ctx, p)
	if err != nil {
		log.Error("failed to update package", sl.Err(err))
		return models.PricedPackage{}, fmt.Errorf("%s: %w", op, err)
	}

	s.cache.Delete(packagesCacheKey)
	log.Info("package updated")

	return pricing.Price(updated, s.now()), nil
}

func (s *PackageService) DeletePackage(ctx context.Context, id uuid.UUID) error {
	const op = "service.PackageService.DeletePackage"

	log := s.log.With(
		slog.String("op", op),
		slog.String("id", id.String()),
	)

	if err := s.repo.DeletePackage(ctx, id); err != nil {
		log.Warn("failed to delete package", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	s.cache.Delete(packagesCacheKey)
	log.Info("package deleted")

	return nil
}

func (s *PackageService) GetPackage(ctx context.Context, id uuid.UUID) (models.PricedPackage, error) {
	const op = "service.PackageService.GetPackage"

	p, err := s.repo.GetPackage(ctx, id)
	if err != nil {
		return models.PricedPackage{}, fmt.Errorf("%s: %w", op, err)
	}

	return pricing.Price(p, s.now()), nil
}

func (s *PackageService) listAll(ctx context.Context) ([]models.Package, error) {
	if cached, ok := s.cache.Get(packagesCacheKey); ok {
		return cached.([]models.Package), nil
	}

	pkgs, err := s.repo.ListPackages(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.SetDefault(packagesCacheKey, pkgs)

	return pkgs, nil
}

// ListPackages returns every package in storage order for the admin table.
func (s *PackageService) ListPackages(ctx context.Context) ([]models.PricedPackage, error) {
	const op = "service.PackageService.ListPackages"

	pkgs, err := s.listAll(ctx)
	if err != nil {
		s.log.Error("failed to list packages", slog.String("op", op), sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return pricing.PriceAll(pkgs, s.now()), nil
}

// ListRanked returns packages in display order with the promoted one marked.
// Prices are derived on every call so discount windows open and close on time.
func (s *PackageService) ListRanked(ctx context.Context) (dto.RankedPackages, error) {
	const op = "service.PackageService.ListRanked"

	pkgs, err := s.listAll(ctx)
	if err != nil {
		s.log.Error("failed to list packages", slog.String("op", op), sl.Err(err))
		return dto.RankedPackages{}, fmt.Errorf("%s: %w", op, err)
	}

	priced := pricing.PriceAll(pkgs, s.now())
	out := dto.RankedPackages{Packages: pricing.RankPackages(priced)}

	if h, ok := pricing.Highlight(priced); ok {
		id := h.ID
		out.HighlightID = &id
	}

	return out, nil
}
