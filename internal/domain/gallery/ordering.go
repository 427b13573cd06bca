package gallery

import (
	"errors"
	"fmt"
	"sort"

	"zozotech/internal/domain/models"
)

var (
	ErrUnknownItem   = errors.New("item does not belong to product")
	ErrDuplicateItem = errors.New("item listed more than once")
	ErrEmptyOrder    = errors.New("order is empty")
)

// OrderItems returns items in display order: the cover first, then sort key
// ascending, then newest first. The input is left untouched.
func OrderItems(items []models.GalleryMedia) []models.GalleryMedia {
	ordered := make([]models.GalleryMedia, len(items))
	copy(ordered, items)

	sort.SliceStable(ordered, func(i, j int) bool {
		return less(ordered[i], ordered[j])
	})

	return ordered
}

func less(a, b models.GalleryMedia) bool {
	if a.IsCover != b.IsCover {
		return a.IsCover
	}
	if a.SortOrder != b.SortOrder {
		return a.SortOrder < b.SortOrder
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}

	return a.ID > b.ID
}

// SortOrderAt is the key assigned to position i of a batch starting at base.
func SortOrderAt(base, i int) int {
	return base + i*models.SortOrderStep
}

func BatchSortOrders(base, n int) []int {
	keys := make([]int, n)
	for i := range keys {
		keys[i] = SortOrderAt(base, i)
	}

	return keys
}

// ReorderPlan is the outcome of PlanReorder.
type ReorderPlan struct {
	// Keys holds the target key of every listed id, in the requested order.
	Keys []models.SortKey
	// Changed is the subset of Keys whose stored value differs.
	Changed []models.SortKey
}

// PlanReorder assigns index*10 to each id in the requested order.
// Every id must belong to current and appear once.
func PlanReorder(current []models.GalleryMedia, ids []int64) (ReorderPlan, error) {
	if len(ids) == 0 {
		return ReorderPlan{}, ErrEmptyOrder
	}

	byID := make(map[int64]models.GalleryMedia, len(current))
	for _, m := range current {
		byID[m.ID] = m
	}

	seen := make(map[int64]struct{}, len(ids))
	plan := ReorderPlan{Keys: make([]models.SortKey, 0, len(ids))}

	for i, id := range ids {
		if _, dup := seen[id]; dup {
			return ReorderPlan{}, fmt.Errorf("%w: %d", ErrDuplicateItem, id)
		}
		seen[id] = struct{}{}

		item, ok := byID[id]
		if !ok {
			return ReorderPlan{}, fmt.Errorf("%w: %d", ErrUnknownItem, id)
		}

		key := models.SortKey{ID: id, SortOrder: SortOrderAt(0, i)}
		plan.Keys = append(plan.Keys, key)

		if item.SortOrder != key.SortOrder {
			plan.Changed = append(plan.Changed, key)
		}
	}

	return plan, nil
}

// ApplyCover makes target the only cover among items.
func ApplyCover(items []models.GalleryMedia, target int64) error {
	idx := -1
	for i := range items {
		if items[i].ID == target {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("%w: %d", ErrUnknownItem, target)
	}

	for i := range items {
		items[i].IsCover = i == idx
	}

	return nil
}

func CoverCount(items []models.GalleryMedia) int {
	n := 0
	for _, m := range items {
		if m.IsCover {
			n++
		}
	}

	return n
}

// Published keeps only items visible on the public site.
func Published(items []models.GalleryMedia) []models.GalleryMedia {
	out := make([]models.GalleryMedia, 0, len(items))
	for _, m := range items {
		if m.IsPublished {
			out = append(out, m)
		}
	}

	return out
}
