package models

import "time"

const SortOrderStep = 10

// Product owns a gallery. Slugs come from a fixed allow-list.
type Product struct {
	ID        int64     `json:"id"`
	Slug      string    `json:"slug"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// GalleryMedia is one image of a product gallery.
type GalleryMedia struct {
	ID          int64     `json:"id"`
	ProductID   int64     `json:"product_id"`
	Title       *string   `json:"title"`
	Caption     *string   `json:"caption"`
	Alt         *string   `json:"alt"`
	ImageURL    string    `json:"image_url"`
	ThumbURL    string    `json:"thumb_url"`
	SortOrder   int       `json:"sort_order"`
	IsCover     bool      `json:"is_cover"`
	IsPublished bool      `json:"is_published"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// LegacyGalleryEntry is a row of the old flat gallery table.
type LegacyGalleryEntry struct {
	ID        int64     `json:"id"`
	Slug      string    `json:"slug"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
}

type SortKey struct {
	ID        int64 `json:"id"`
	SortOrder int   `json:"sort_order"`
}

// MediaPatch lists the fields an admin edit may change. Nil means untouched;
// an empty text value clears the column.
type MediaPatch struct {
	Title       *string
	Caption     *string
	Alt         *string
	SortOrder   *int
	IsPublished *bool
	IsCover     *bool
	ProductID   *int64
}

func (p MediaPatch) Empty() bool {
	return p.Title == nil && p.Caption == nil && p.Alt == nil &&
		p.SortOrder == nil && p.IsPublished == nil && p.IsCover == nil && p.ProductID == nil
}

// NewMediaRow is what an upload batch hands to the store for each file.
type NewMediaRow struct {
	Title       *string
	Caption     *string
	Alt         *string
	ImageURL    string
	ThumbURL    string
	SortOrder   int
	IsCover     bool
	IsPublished bool
}
