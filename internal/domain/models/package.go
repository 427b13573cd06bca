package models

import (
	"time"

	"github.com/google/uuid"
)

// Package is a priced offering shown on the pricing page.
type Package struct {
	ID               uuid.UUID  `json:"id"`
	Name             string     `json:"name"`
	PriceOriginalIDR int64      `json:"price_original_idr"`
	DiscountPercent  int        `json:"discount_percent"`
	DiscountActive   *bool      `json:"discount_active"`
	DiscountStartAt  *time.Time `json:"discount_start_at"`
	DiscountEndAt    *time.Time `json:"discount_end_at"`
	Detail           *string    `json:"detail"`
	Icon             *string    `json:"icon"`
	Featured         bool       `json:"featured"`
	Features         []string   `json:"features"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

type PackageComputed struct {
	IsDiscountActive bool   `json:"is_discount_active"`
	PriceFinalIDR    int64  `json:"price_final_idr"`
	PriceFinalLabel  string `json:"price_final_label"`
}

// PricedPackage carries the derived price values next to the stored record.
type PricedPackage struct {
	Package
	Computed PackageComputed `json:"computed"`
}
