package pricing

import (
	"math"
	"sort"
	"time"

	"zozotech/internal/domain/models"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// ClampPercent bounds a discount percent to [0,100].
func ClampPercent(v int) int {
	return min(100, max(0, v))
}

// ComputeFinalPrice returns floor(priceOriginal*(100-discountPercent)/100),
// never below zero. The percent is expected to be clamped already.
func ComputeFinalPrice(priceOriginal, discountPercent int64) int64 {
	k := 100 - discountPercent
	q, r := priceOriginal/100, priceOriginal%100

	final := q*k + floorDiv(r*k, 100)
	if final < 0 {
		return 0
	}

	return final
}

// ComputeFinalPriceFloat is the same rule for loosely typed input such as
// imported JSON. NaN and infinities count as zero.
func ComputeFinalPriceFloat(priceOriginal, discountPercent float64) int64 {
	if !finite(priceOriginal) {
		priceOriginal = 0
	}
	if !finite(discountPercent) {
		discountPercent = 0
	}

	v := math.Floor(priceOriginal * (100 - discountPercent) / 100)
	if v <= 0 || !finite(v) {
		return 0
	}

	return int64(v)
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}

	return q
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// SourceOf extracts the discount columns of a package.
func SourceOf(p models.Package) *Source {
	return &Source{
		Percent: float64(p.DiscountPercent),
		Active:  p.DiscountActive,
		StartAt: p.DiscountStartAt,
		EndAt:   p.DiscountEndAt,
	}
}

// Compute derives the displayed price of a package at the given instant.
func Compute(p models.Package, now time.Time) models.PackageComputed {
	active := IsDiscountActive(SourceOf(p), now)

	final := p.PriceOriginalIDR
	if active {
		final = ComputeFinalPrice(p.PriceOriginalIDR, int64(ClampPercent(p.DiscountPercent)))
	}

	return models.PackageComputed{
		IsDiscountActive: active,
		PriceFinalIDR:    final,
		PriceFinalLabel:  FormatIDR(final),
	}
}

func Price(p models.Package, now time.Time) models.PricedPackage {
	return models.PricedPackage{
		Package:  p,
		Computed: Compute(p, now),
	}
}

func PriceAll(pkgs []models.Package, now time.Time) []models.PricedPackage {
	out := make([]models.PricedPackage, 0, len(pkgs))
	for _, p := range pkgs {
		out = append(out, Price(p, now))
	}

	return out
}

// RankPackages orders featured packages first, then by final price ascending.
// Ties keep their input order. The input slice is not modified.
func RankPackages(pkgs []models.PricedPackage) []models.PricedPackage {
	ranked := make([]models.PricedPackage, len(pkgs))
	copy(ranked, pkgs)

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Featured != ranked[j].Featured {
			return ranked[i].Featured
		}

		return ranked[i].Computed.PriceFinalIDR < ranked[j].Computed.PriceFinalIDR
	})

	return ranked
}

// Cheapest picks the lowest final price regardless of the featured flag.
func Cheapest(pkgs []models.PricedPackage) (models.PricedPackage, bool) {
	if len(pkgs) == 0 {
		return models.PricedPackage{}, false
	}

	best := pkgs[0]
	for _, p := range pkgs[1:] {
		if p.Computed.PriceFinalIDR < best.Computed.PriceFinalIDR {
			best = p
		}
	}

	return best, true
}

// Highlight selects the package promoted on the landing page: the cheapest
// featured one, or the cheapest overall when nothing is featured.
func Highlight(pkgs []models.PricedPackage) (models.PricedPackage, bool) {
	var featured []models.PricedPackage
	for _, p := range pkgs {
		if p.Featured {
			featured = append(featured, p)
		}
	}

	if len(featured) > 0 {
		return Cheapest(featured)
	}

	return Cheapest(pkgs)
}

// Format renders a whole amount with Indonesian digit grouping.
func Format(label string, amount int64) string {
	p := message.NewPrinter(language.Indonesian)
	if label == "" {
		return p.Sprintf("%d", amount)
	}

	return p.Sprintf("%s %d", label, amount)
}

func FormatIDR(amount int64) string {
	return Format("Rp", amount)
}
