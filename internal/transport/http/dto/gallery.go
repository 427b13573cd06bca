package dto

import (
	"mime/multipart"

	"zozotech/internal/domain/models"
)

// GalleryUploadInput is one multipart batch upload.
type GalleryUploadInput struct {
	ProductSlug   string
	Files         []*multipart.FileHeader
	Title         *string
	Caption       *string
	Alt           *string
	BaseSortOrder int
	IsCover       bool
	IsPublished   bool
}

type MediaPatchRequest struct {
	Title       *string `json:"title"`
	Caption     *string `json:"caption"`
	Alt         *string `json:"alt"`
	SortOrder   *int    `json:"sort_order"`
	IsPublished *bool   `json:"is_published"`
	IsCover     *bool   `json:"is_cover"`
	ProductSlug *string `json:"product_slug"`
}

type ReorderRequest struct {
	ProductSlug string  `json:"product_slug" validate:"required,slug"`
	IDs         []int64 `json:"ids" validate:"required,min=1"`
}

type GalleryListResponse struct {
	Product models.Product        `json:"product"`
	Items   []models.GalleryMedia `json:"items"`
}
