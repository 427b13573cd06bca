package dto

import (
	"encoding/json"
	"strings"

	"zozotech/internal/domain/models"

	"github.com/google/uuid"
)

// FeatureList accepts either a JSON array of strings or a single string with
// one feature per line.
type FeatureList []string

func (f *FeatureList) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = nil
		return nil
	}

	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*f = NormalizeFeatures(list)
		return nil
	}

	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		return err
	}
	*f = NormalizeFeatures(strings.Split(text, "\n"))

	return nil
}

// NormalizeFeatures trims every entry and drops empty ones.
func NormalizeFeatures(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}

	return out
}

type PackageRequest struct {
	Name             string      `json:"name" validate:"required"`
	PriceOriginalIDR int64       `json:"price_original_idr"`
	DiscountPercent  float64     `json:"discount_percent"`
	DiscountActive   *bool       `json:"discount_active"`
	DiscountStartAt  *string     `json:"discount_start_at"`
	DiscountEndAt    *string     `json:"discount_end_at"`
	Detail           *string     `json:"detail"`
	Icon             *string     `json:"icon"`
	Featured         bool        `json:"featured"`
	Features         FeatureList `json:"features"`
}

// RankedPackages is the public pricing read model.
type RankedPackages struct {
	Packages    []models.PricedPackage `json:"packages"`
	HighlightID *uuid.UUID             `json:"highlight_id"`
}
