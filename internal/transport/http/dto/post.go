package dto

type PostRequest struct {
	Slug      string  `json:"slug" validate:"required"`
	Title     string  `json:"title" validate:"required"`
	Date      string  `json:"date" validate:"required"`
	Excerpt   *string `json:"excerpt"`
	Content   *string `json:"content"`
	Icon      *string `json:"icon"`
	Published *bool   `json:"published"`
}
