package gallery

import (
	"sort"

	"zozotech/internal/domain/models"
)

// Rendition is a stored image and its thumbnail.
type Rendition struct {
	ImageURL string
	ThumbURL string
}

// UploadMeta is shared by every file of one upload batch.
type UploadMeta struct {
	Title         *string
	Caption       *string
	Alt           *string
	BaseSortOrder int
	IsCover       bool
	IsPublished   bool
}

// UploadRows builds the rows of a batch. Only the first file can become the cover.
func UploadRows(meta UploadMeta, renditions []Rendition) []models.NewMediaRow {
	rows := make([]models.NewMediaRow, 0, len(renditions))
	for i, r := range renditions {
		rows = append(rows, models.NewMediaRow{
			Title:       meta.Title,
			Caption:     meta.Caption,
			Alt:         meta.Alt,
			ImageURL:    r.ImageURL,
			ThumbURL:    r.ThumbURL,
			SortOrder:   SortOrderAt(meta.BaseSortOrder, i),
			IsCover:     meta.IsCover && i == 0,
			IsPublished: meta.IsPublished,
		})
	}

	return rows
}

// BackfillRows converts legacy entries, oldest first. The oldest becomes the cover.
func BackfillRows(entries []models.LegacyGalleryEntry) []models.NewMediaRow {
	sorted := make([]models.LegacyGalleryEntry, len(entries))
	copy(sorted, entries)

	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
			return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
		}

		return sorted[i].ID < sorted[j].ID
	})

	rows := make([]models.NewMediaRow, 0, len(sorted))
	for i, e := range sorted {
		rows = append(rows, models.NewMediaRow{
			ImageURL:    e.URL,
			ThumbURL:    e.URL,
			SortOrder:   SortOrderAt(0, i),
			IsCover:     i == 0,
			IsPublished: true,
		})
	}

	return rows
}
