package gallery

import "strings"

type KnownProduct struct {
	Slug string
	Name string
}

var knownProducts = []KnownProduct{
	{Slug: "open-retail", Name: "Open Retail (PC)"},
	{Slug: "eco-pos", Name: "Eco POS (Android)"},
}

func KnownProducts() []KnownProduct {
	out := make([]KnownProduct, len(knownProducts))
	copy(out, knownProducts)

	return out
}

func NormalizeSlug(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// LookupProduct resolves a slug against the allow-list.
func LookupProduct(raw string) (KnownProduct, bool) {
	slug := NormalizeSlug(raw)
	for _, p := range knownProducts {
		if p.Slug == slug {
			return p, true
		}
	}

	return KnownProduct{}, false
}
