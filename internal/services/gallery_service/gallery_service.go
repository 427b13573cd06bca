package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"path"
	"strings"
	"sync"
	"time"

	"zozotech/internal/domain/gallery"
	"zozotech/internal/domain/models"
	"zozotech/internal/lib/imaging"
	"zozotech/internal/lib/logger/sl"
	"zozotech/internal/metrics"
	"zozotech/internal/repository"
	"zozotech/internal/storage"
	filestorage "zozotech/internal/storage/filestorage"
	"zozotech/internal/transport/http/dto"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Options tune upload handling.
type Options struct {
	ThumbWidth uint
	Quality    int
	Workers    int
	MaxSize    int64
	MaxPixels  int
}

type GalleryService struct {
	log      *slog.Logger
	products repository.ProductRepository
	media    repository.GalleryRepository
	legacy   repository.LegacyGalleryRepository
	files    filestorage.FileStorage
	opts     Options
}

func NewGalleryService(
	log *slog.Logger,
	products repository.ProductRepository,
	media repository.GalleryRepository,
	legacy repository.LegacyGalleryRepository,
	files filestorage.FileStorage,
	opts Options,
) *GalleryService {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}

	return &GalleryService{
		log:      log,
		products: products,
		media:    media,
		legacy:   legacy,
		files:    files,
		opts:     opts,
	}
}

func invalid(field, message string) error {
	return models.ValidationErrors{{Field: field, Message: message}}
}

// Product resolves a slug from the allow-list and makes sure the row exists.
func (s *GalleryService) Product(ctx context.Context, slug string) (models.Product, error) {
	const op = "service.GalleryService.Product"

	known, ok := gallery.LookupProduct(slug)
	if !ok {
		return models.Product{}, fmt.Errorf("%s: %w", op, invalid("product_slug", "unknown product"))
	}

	p, err := s.products.EnsureProduct(ctx, known.Slug, known.Name)
	if err != nil {
		return models.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	return p, nil
}

func (s *GalleryService) ListProducts(ctx context.Context) ([]models.Product, error) {
	const op = "service.GalleryService.ListProducts"

	known := gallery.KnownProducts()
	out := make([]models.Product, 0, len(known))
	for _, k := range known {
		p, err := s.products.EnsureProduct(ctx, k.Slug, k.Name)
		if err != nil {
			s.log.Error("failed to ensure product", slog.String("op", op), slog.String("slug", k.Slug), sl.Err(err))
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		out = append(out, p)
	}

	return out, nil
}

// ListMedia returns a product gallery in display order. A product without
// media is first back-filled from the legacy gallery table.
func (s *GalleryService) ListMedia(ctx context.Context, slug string, includeUnpublished bool) (models.Product, []models.GalleryMedia, error) {
	const op = "service.GalleryService.ListMedia"

	log := s.log.With(
		slog.String("op", op),
		slog.String("product", slug),
	)

	p, err := s.Product(ctx, slug)
	if err != nil {
		return models.Product{}, nil, fmt.Errorf("%s: %w", op, err)
	}

	n, err := s.media.CountMedia(ctx, p.ID)
	if err != nil {
		log.Error("failed to count media", sl.Err(err))
		return models.Product{}, nil, fmt.Errorf("%s: %w", op, err)
	}

	if n == 0 {
		if err := s.backfill(ctx, p); err != nil {
			log.Error("legacy backfill failed", sl.Err(err))
			return models.Product{}, nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	items, err := s.media.ListMedia(ctx, p.ID, !includeUnpublished)
	if err != nil {
		log.Error("failed to list media", sl.Err(err))
		return models.Product{}, nil, fmt.Errorf("%s: %w", op, err)
	}

	return p, gallery.OrderItems(items), nil
}

func (s *GalleryService) backfill(ctx context.Context, p models.Product) error {
	entries, err := s.legacy.ListLegacyEntries(ctx, p.Slug)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	written, err := s.media.BackfillIfEmpty(ctx, p.ID, gallery.BackfillRows(entries))
	if err != nil {
		return err
	}
	if written {
		s.log.Info("gallery back-filled from legacy entries",
			slog.String("product", p.Slug),
			slog.Int("count", len(entries)),
		)
	}

	return nil
}

type uploadFile struct {
	index int
	name  string
	data  []byte
}

// UploadBatch transcodes every file, stores both renditions and inserts the
// rows in one write. Any failure removes the files stored so far and leaves
// the database untouched.
func (s *GalleryService) UploadBatch(ctx context.Context, in dto.GalleryUploadInput) ([]models.GalleryMedia, error) {
	const op = "service.GalleryService.UploadBatch"

	log := s.log.With(
		slog.String("op", op),
		slog.String("product", in.ProductSlug),
		slog.Int("files", len(in.Files)),
	)

	p, err := s.Product(ctx, in.ProductSlug)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if len(in.Files) == 0 {
		return nil, fmt.Errorf("%s: %w", op, invalid("files", "at least one file is required"))
	}

	files := make([]uploadFile, 0, len(in.Files))
	for i, fh := range in.Files {
		data, err := s.readFile(fh)
		if err != nil {
			log.Warn("file rejected", slog.Int("index", i), sl.Err(err))
			metrics.GalleryUploads.WithLabelValues(p.Slug, "rejected").Inc()
			return nil, fmt.Errorf("%s: file %d: %w", op, i, err)
		}
		files = append(files, uploadFile{index: i, name: fh.Filename, data: data})
	}

	var (
		mu     sync.Mutex
		stored []string
	)
	renditions := make([]gallery.Rendition, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)

	for _, f := range files {
		f := f
		g.Go(func() error {
			paths, r, err := s.storeRenditions(gctx, p.Slug, f)

			mu.Lock()
			stored = append(stored, paths...)
			mu.Unlock()

			if err != nil {
				return fmt.Errorf("file %d (%s): %w", f.index, f.name, err)
			}
			renditions[f.index] = r

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		log.Error("upload batch aborted", sl.Err(err))
		s.removeFiles(stored)
		metrics.GalleryUploads.WithLabelValues(p.Slug, "failed").Inc()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rows := gallery.UploadRows(gallery.UploadMeta{
		Title:         trimmed(in.Title),
		Caption:       trimmed(in.Caption),
		Alt:           trimmed(in.Alt),
		BaseSortOrder: in.BaseSortOrder,
		IsCover:       in.IsCover,
		IsPublished:   in.IsPublished,
	}, renditions)

	created, err := s.media.CreateBatch(ctx, p.ID, rows)
	if err != nil {
		log.Error("failed to insert media rows", sl.Err(err))
		s.removeFiles(stored)
		metrics.GalleryUploads.WithLabelValues(p.Slug, "failed").Inc()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	metrics.GalleryUploads.WithLabelValues(p.Slug, "ok").Inc()
	log.Info("upload batch stored", slog.Int("created", len(created)))

	return created, nil
}

func (s *GalleryService) readFile(fh *multipart.FileHeader) ([]byte, error) {
	if fh == nil || fh.Size == 0 {
		return nil, storage.ErrEmptyFile
	}
	if s.opts.MaxSize > 0 && fh.Size > s.opts.MaxSize {
		return nil, storage.ErrFileTooLarge
	}

	src, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	limit := s.opts.MaxSize
	if limit <= 0 {
		limit = fh.Size
	}

	data, err := io.ReadAll(io.LimitReader(src, limit+1))
	if err != nil {
		return nil, err
	}
	switch {
	case len(data) == 0:
		return nil, storage.ErrEmptyFile
	case int64(len(data)) > limit:
		return nil, storage.ErrFileTooLarge
	}

	if _, _, err := imaging.Sniff(data); err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrInvalidFileType, err)
	}
	if err := imageError(imaging.CheckDimensions(data, s.opts.MaxPixels)); err != nil {
		return nil, err
	}

	return data, nil
}

// imageError maps imaging failures onto the storage sentinels.
func imageError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, imaging.ErrTooManyPixels):
		return fmt.Errorf("%w: %v", storage.ErrImageTooLarge, err)
	default:
		return fmt.Errorf("%w: %v", storage.ErrInvalidFileType, err)
	}
}

// storeRenditions returns every path it wrote, even on failure, so the caller
// can clean up.
func (s *GalleryService) storeRenditions(ctx context.Context, slug string, f uploadFile) ([]string, gallery.Rendition, error) {
	if err := ctx.Err(); err != nil {
		return nil, gallery.Rendition{}, err
	}

	start := time.Now()
	res, err := imaging.Transcode(f.data, imaging.Options{
		ThumbWidth: s.opts.ThumbWidth,
		Quality:    s.opts.Quality,
		MaxPixels:  s.opts.MaxPixels,
	})
	if err != nil {
		return nil, gallery.Rendition{}, imageError(err)
	}
	metrics.GalleryTranscodeDuration.Observe(time.Since(start).Seconds())
	metrics.GalleryFilesTranscoded.Inc()

	base := uuid.NewString()
	fullPath := path.Join("gallery", slug, base+".jpg")
	thumbPath := path.Join("gallery", slug, base+"_thumb.jpg")

	var written []string

	if _, err := s.files.Put(ctx, fullPath, bytes.NewReader(res.Full)); err != nil {
		return written, gallery.Rendition{}, err
	}
	written = append(written, fullPath)

	if _, err := s.files.Put(ctx, thumbPath, bytes.NewReader(res.Thumb)); err != nil {
		return written, gallery.Rendition{}, err
	}
	written = append(written, thumbPath)

	return written, gallery.Rendition{
		ImageURL: s.files.URL(fullPath),
		ThumbURL: s.files.URL(thumbPath),
	}, nil
}

// removeFiles runs on a fresh context so a cancelled request still cleans up.
func (s *GalleryService) removeFiles(paths []string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for _, p := range paths {
		if err := s.files.Delete(ctx, p); err != nil {
			s.log.Warn("failed to remove file", slog.String("path", p), sl.Err(err))
		}
	}
}

func (s *GalleryService) UpdateMedia(ctx context.Context, id int64, req dto.MediaPatchRequest) (models.GalleryMedia, error) {
	const op = "service.GalleryService.UpdateMedia"

	log := s.log.With(
		slog.String("op", op),
		slog.Int64("id", id),
	)

	patch := models.MediaPatch{
		Title:       blankable(req.Title),
		Caption:     blankable(req.Caption),
		Alt:         blankable(req.Alt),
		SortOrder:   req.SortOrder,
		IsPublished: req.IsPublished,
		IsCover:     req.IsCover,
	}

	if req.ProductSlug != nil {
		p, err := s.Product(ctx, *req.ProductSlug)
		if err != nil {
			return models.GalleryMedia{}, fmt.Errorf("%s: %w", op, err)
		}
		patch.ProductID = &p.ID
	}

	if patch.Empty() {
		return models.GalleryMedia{}, fmt.Errorf("%s: %w", op, invalid("patch", "nothing to update"))
	}

	updated, err := s.media.UpdateMedia(ctx, id, patch)
	if err != nil {
		if !errors.Is(err, storage.ErrMediaNotFound) {
			log.Error("failed to update media", sl.Err(err))
		}
		return models.GalleryMedia{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("media updated")

	return updated, nil
}

// SetCover makes itemID the single cover of productID.
func (s *GalleryService) SetCover(ctx context.Context, productID, itemID int64) error {
	const op = "service.GalleryService.SetCover"

	if err := s.media.SetCover(ctx, productID, itemID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("cover changed",
		slog.String("op", op),
		slog.Int64("product_id", productID),
		slog.Int64("id", itemID),
	)

	return nil
}

// SetCoverByID looks up the owning product of id before setting the cover.
func (s *GalleryService) SetCoverByID(ctx context.Context, id int64) (models.GalleryMedia, error) {
	const op = "service.GalleryService.SetCoverByID"

	m, err := s.media.GetMedia(ctx, id)
	if err != nil {
		return models.GalleryMedia{}, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.SetCover(ctx, m.ProductID, id); err != nil {
		return models.GalleryMedia{}, fmt.Errorf("%s: %w", op, err)
	}
	m.IsCover = true

	return m, nil
}

// Reorder assigns index*10 to ids in the given order and writes every key, so
// the stored order is exactly the returned one even if another reorder landed
// after the read. Every id must belong to the product.
func (s *GalleryService) Reorder(ctx context.Context, productID int64, ids []int64) ([]models.SortKey, error) {
	const op = "service.GalleryService.Reorder"

	log := s.log.With(
		slog.String("op", op),
		slog.Int64("product_id", productID),
		slog.Int("items", len(ids)),
	)

	current, err := s.media.ListMedia(ctx, productID, false)
	if err != nil {
		log.Error("failed to load media", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	plan, err := gallery.PlanReorder(current, ids)
	if err != nil {
		switch {
		case errors.Is(err, gallery.ErrUnknownItem):
			return nil, fmt.Errorf("%s: %w: %w", op, storage.ErrMediaNotFound, err)
		default:
			return nil, fmt.Errorf("%s: %w", op, invalid("ids", err.Error()))
		}
	}

	if err := s.media.UpdateSortOrders(ctx, productID, plan.Keys); err != nil {
		var reorderErr *models.ReorderError
		if errors.As(err, &reorderErr) {
			metrics.GalleryReorderFailures.Add(float64(len(reorderErr.Failed)))
			log.Error("reorder partially failed", slog.Any("failed_ids", reorderErr.Failed), sl.Err(err))
		} else {
			log.Error("reorder failed", sl.Err(err))
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("gallery reordered", slog.Int("changed", len(plan.Changed)))

	return plan.Keys, nil
}

func (s *GalleryService) ReorderBySlug(ctx context.Context, slug string, ids []int64) ([]models.SortKey, error) {
	p, err := s.Product(ctx, slug)
	if err != nil {
		return nil, err
	}

	return s.Reorder(ctx, p.ID, ids)
}

func (s *GalleryService) SetPublished(ctx context.Context, id int64, published bool) (models.GalleryMedia, error) {
	const op = "service.GalleryService.SetPublished"

	m, err := s.media.UpdateMedia(ctx, id, models.MediaPatch{IsPublished: &published})
	if err != nil {
		return models.GalleryMedia{}, fmt.Errorf("%s: %w", op, err)
	}

	return m, nil
}

// DeleteMedia removes the row, then its files. Files that are already gone
// or live outside the upload store are skipped.
func (s *GalleryService) DeleteMedia(ctx context.Context, id int64) error {
	const op = "service.GalleryService.DeleteMedia"

	log := s.log.With(
		slog.String("op", op),
		slog.Int64("id", id),
	)

	m, err := s.media.DeleteMedia(ctx, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	seen := map[string]struct{}{}
	for _, url := range []string{m.ImageURL, m.ThumbURL} {
		rel, ok := s.files.PathFromURL(url)
		if !ok {
			continue
		}
		if _, dup := seen[rel]; dup {
			continue
		}
		seen[rel] = struct{}{}

		if err := s.files.Delete(ctx, rel); err != nil {
			log.Warn("failed to delete file", slog.String("path", rel), sl.Err(err))
		}
	}

	log.Info("media deleted")

	return nil
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

// blankable trims s but keeps an empty result, which clears the column.
func blankable(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)

	return &v
}
