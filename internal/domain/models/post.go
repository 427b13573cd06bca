package models

import (
	"time"

	"github.com/google/uuid"
)

// Post is an article shown under /artikel.
type Post struct {
	ID        uuid.UUID `json:"id"`
	Slug      string    `json:"slug"`
	Title     string    `json:"title"`
	Date      string    `json:"date"`
	Excerpt   *string   `json:"excerpt"`
	Content   *string   `json:"content"`
	Icon      *string   `json:"icon"`
	Published bool      `json:"published"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
