// Package memory holds an in-process gallery store used as a test double by
// the service and repository tests. It is not wired into the application.
// Writes are applied one row at a time, so a failing sort-key write (see
// FailSortOrder) leaves earlier rows updated and is reported through
// models.ReorderError.
package memory

import (
	"context"
	"sync"
	"time"

	"zozotech/internal/domain/gallery"
	"zozotech/internal/domain/models"
	"zozotech/internal/repository"
	"zozotech/internal/storage"
)

var (
	_ repository.GalleryRepository       = (*GalleryStore)(nil)
	_ repository.ProductRepository       = (*GalleryStore)(nil)
	_ repository.LegacyGalleryRepository = (*GalleryStore)(nil)
)

type GalleryStore struct {
	mu       sync.Mutex
	now      func() time.Time
	nextID   int64
	products map[string]models.Product
	media    map[int64]models.GalleryMedia
	legacy   map[string][]models.LegacyGalleryEntry

	// failSort makes UpdateSortOrders fail for the listed ids.
	failSort map[int64]error
}

func NewGalleryStore() *GalleryStore {
	return &GalleryStore{
		now:      time.Now,
		products: make(map[string]models.Product),
		media:    make(map[int64]models.GalleryMedia),
		legacy:   make(map[string][]models.LegacyGalleryEntry),
		failSort: make(map[int64]error),
	}
}

// FailSortOrder makes the next sort-key writes for id return err. Tests only.
func (s *GalleryStore) FailSortOrder(id int64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failSort[id] = err
}

// AddLegacy seeds a row of the old flat gallery.
func (s *GalleryStore) AddLegacy(slug, url string, createdAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	s.legacy[slug] = append(s.legacy[slug], models.LegacyGalleryEntry{
		ID:        s.nextID,
		Slug:      slug,
		URL:       url,
		CreatedAt: createdAt,
	})
}

// tick returns strictly increasing timestamps so creation order is observable.
func (s *GalleryStore) tick() time.Time {
	s.nextID++
	return s.now().Add(time.Duration(s.nextID) * time.Microsecond)
}

func (s *GalleryStore) EnsureProduct(_ context.Context, slug, name string) (models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.products[slug]; ok {
		return p, nil
	}

	s.nextID++
	p := models.Product{ID: s.nextID, Slug: slug, Name: name, CreatedAt: s.now()}
	s.products[slug] = p

	return p, nil
}

func (s *GalleryStore) GetProductBySlug(_ context.Context, slug string) (models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[slug]
	if !ok {
		return models.Product{}, storage.ErrProductNotFound
	}

	return p, nil
}

func (s *GalleryStore) ListProducts(_ context.Context) ([]models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p)
	}

	return out, nil
}

func (s *GalleryStore) ListLegacyEntries(_ context.Context, slug string) ([]models.LegacyGalleryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]models.LegacyGalleryEntry(nil), s.legacy[slug]...), nil
}

func (s *GalleryStore) productItems(productID int64) []models.GalleryMedia {
	var out []models.GalleryMedia
	for _, m := range s.media {
		if m.ProductID == productID {
			out = append(out, m)
		}
	}

	return out
}

func (s *GalleryStore) ListMedia(_ context.Context, productID int64, publishedOnly bool) ([]models.GalleryMedia, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.productItems(productID)
	if publishedOnly {
		items = gallery.Published(items)
	}

	return gallery.OrderItems(items), nil
}

func (s *GalleryStore) GetMedia(_ context.Context, id int64) (models.GalleryMedia, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.media[id]
	if !ok {
		return models.GalleryMedia{}, storage.ErrMediaNotFound
	}

	return m, nil
}

func (s *GalleryStore) CountMedia(_ context.Context, productID int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.productItems(productID)), nil
}

func (s *GalleryStore) clearCovers(productID, except int64) {
	for id, m := range s.media {
		if m.ProductID == productID && m.IsCover && id != except {
			m.IsCover = false
			s.media[id] = m
		}
	}
}

func (s *GalleryStore) insertRows(productID int64, rows []models.NewMediaRow) []models.GalleryMedia {
	for _, r := range rows {
		if r.IsCover {
			s.clearCovers(productID, 0)
			break
		}
	}

	created := make([]models.GalleryMedia, 0, len(rows))
	for _, r := range rows {
		ts := s.tick()
		m := models.GalleryMedia{
			ID:          s.nextID,
			ProductID:   productID,
			Title:       r.Title,
			Caption:     r.Caption,
			Alt:         r.Alt,
			ImageURL:    r.ImageURL,
			ThumbURL:    r.ThumbURL,
			SortOrder:   r.SortOrder,
			IsCover:     r.IsCover,
			IsPublished: r.IsPublished,
			CreatedAt:   ts,
			UpdatedAt:   ts,
		}
		s.media[m.ID] = m
		created = append(created, m)
	}

	return created
}

func (s *GalleryStore) CreateBatch(_ context.Context, productID int64, rows []models.NewMediaRow) ([]models.GalleryMedia, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.insertRows(productID, rows), nil
}

func (s *GalleryStore) BackfillIfEmpty(_ context.Context, productID int64, rows []models.NewMediaRow) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.productItems(productID)) > 0 {
		return false, nil
	}

	return len(s.insertRows(productID, rows)) > 0, nil
}

func (s *GalleryStore) SetCover(_ context.Context, productID, mediaID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.productItems(productID)
	if err := gallery.ApplyCover(items, mediaID); err != nil {
		return storage.ErrMediaNotFound
	}

	for _, m := range items {
		s.media[m.ID] = m
	}

	return nil
}

func (s *GalleryStore) UpdateMedia(_ context.Context, id int64, patch models.MediaPatch) (models.GalleryMedia, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.media[id]
	if !ok {
		return models.GalleryMedia{}, storage.ErrMediaNotFound
	}

	if patch.Title != nil {
		m.Title = emptyToNil(patch.Title)
	}
	if patch.Caption != nil {
		m.Caption = emptyToNil(patch.Caption)
	}
	if patch.Alt != nil {
		m.Alt = emptyToNil(patch.Alt)
	}
	if patch.SortOrder != nil {
		m.SortOrder = *patch.SortOrder
	}
	if patch.IsPublished != nil {
		m.IsPublished = *patch.IsPublished
	}
	if patch.ProductID != nil && *patch.ProductID != m.ProductID {
		m.ProductID = *patch.ProductID
		if patch.IsCover == nil {
			m.IsCover = false
		}
	}
	if patch.IsCover != nil {
		if *patch.IsCover {
			s.clearCovers(m.ProductID, id)
		}
		m.IsCover = *patch.IsCover
	}
	m.UpdatedAt = s.now()

	s.media[id] = m

	return m, nil
}

// UpdateSortOrders writes keys in order and keeps going past failures.
func (s *GalleryStore) UpdateSortOrders(_ context.Context, productID int64, keys []models.SortKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		failed  []int64
		lastErr error
	)

	for _, k := range keys {
		if err, ok := s.failSort[k.ID]; ok {
			failed = append(failed, k.ID)
			lastErr = err
			continue
		}

		m, ok := s.media[k.ID]
		if !ok || m.ProductID != productID {
			failed = append(failed, k.ID)
			lastErr = storage.ErrMediaNotFound
			continue
		}

		m.SortOrder = k.SortOrder
		m.UpdatedAt = s.now()
		s.media[k.ID] = m
	}

	if len(failed) > 0 {
		return &models.ReorderError{Failed: failed, Err: lastErr}
	}

	return nil
}

func (s *GalleryStore) DeleteMedia(_ context.Context, id int64) (models.GalleryMedia, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.media[id]
	if !ok {
		return models.GalleryMedia{}, storage.ErrMediaNotFound
	}
	delete(s.media, id)

	return m, nil
}

func emptyToNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	v := *s

	return &v
}
