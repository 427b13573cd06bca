package gallery_test

import (
	"math/rand"
	"testing"
	"time"

	"zozotech/internal/domain/gallery"
	"zozotech/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func item(id int64, sort int, cover bool, age time.Duration) models.GalleryMedia {
	return models.GalleryMedia{
		ID:          id,
		ProductID:   1,
		SortOrder:   sort,
		IsCover:     cover,
		IsPublished: true,
		CreatedAt:   base.Add(age),
	}
}

func ids(items []models.GalleryMedia) []int64 {
	out := make([]int64, 0, len(items))
	for _, m := range items {
		out = append(out, m.ID)
	}

	return out
}

func TestOrderItems(t *testing.T) {
	tests := []struct {
		name     string
		items    []models.GalleryMedia
		expected []int64
	}{
		{
			name:     "empty",
			items:    nil,
			expected: []int64{},
		},
		{
			name: "sort key ascending",
			items: []models.GalleryMedia{
				item(1, 20, false, 0),
				item(2, 0, false, 0),
				item(3, 10, false, 0),
			},
			expected: []int64{2, 3, 1},
		},
		{
			name: "cover first regardless of key",
			items: []models.GalleryMedia{
				item(1, 0, false, 0),
				item(2, 500, true, 0),
				item(3, 10, false, 0),
			},
			expected: []int64{2, 1, 3},
		},
		{
			name: "ties broken newest first",
			items: []models.GalleryMedia{
				item(1, 0, false, time.Minute),
				item(2, 0, false, 3*time.Minute),
				item(3, 0, false, 2*time.Minute),
			},
			expected: []int64{2, 3, 1},
		},
		{
			name: "same timestamp falls back to id",
			items: []models.GalleryMedia{
				item(4, 0, false, 0),
				item(9, 0, false, 0),
			},
			expected: []int64{9, 4},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ids(gallery.OrderItems(tt.items)))
		})
	}
}

func TestOrderItems_CoverAlwaysFirst(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))

	for round := 0; round < 200; round++ {
		n := 1 + rnd.Intn(12)
		items := make([]models.GalleryMedia, n)
		for i := range items {
			items[i] = item(int64(i+1), rnd.Intn(1000)-500, false, time.Duration(rnd.Intn(100))*time.Second)
		}
		cover := rnd.Intn(n)
		items[cover].IsCover = true

		ordered := gallery.OrderItems(items)
		require.Equal(t, items[cover].ID, ordered[0].ID)
	}
}

func TestBatchSortOrders(t *testing.T) {
	assert.Equal(t, []int{0, 10, 20}, gallery.BatchSortOrders(0, 3))
	assert.Equal(t, []int{35, 45}, gallery.BatchSortOrders(35, 2))
	assert.Empty(t, gallery.BatchSortOrders(0, 0))
}

func TestPlanReorder(t *testing.T) {
	current := []models.GalleryMedia{
		item(1, 0, false, 0),
		item(2, 10, false, 0),
		item(3, 20, false, 0),
	}

	plan, err := gallery.PlanReorder(current, []int64{3, 2, 1})
	require.NoError(t, err)

	assert.Equal(t, []models.SortKey{{ID: 3, SortOrder: 0}, {ID: 2, SortOrder: 10}, {ID: 1, SortOrder: 20}}, plan.Keys)
	assert.Equal(t, []models.SortKey{{ID: 3, SortOrder: 0}, {ID: 1, SortOrder: 20}}, plan.Changed)

	_, err = gallery.PlanReorder(current, []int64{1, 1})
	assert.ErrorIs(t, err, gallery.ErrDuplicateItem)

	_, err = gallery.PlanReorder(current, []int64{1, 99})
	assert.ErrorIs(t, err, gallery.ErrUnknownItem)

	_, err = gallery.PlanReorder(current, nil)
	assert.ErrorIs(t, err, gallery.ErrEmptyOrder)
}

func TestPlanReorder_RoundTrip(t *testing.T) {
	rnd := rand.New(rand.NewSource(11))

	for round := 0; round < 100; round++ {
		n := 2 + rnd.Intn(10)
		items := make([]models.GalleryMedia, n)
		for i := range items {
			items[i] = item(int64(i+1), rnd.Intn(100), false, time.Duration(i)*time.Second)
		}

		order := ids(items)
		rnd.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

		plan, err := gallery.PlanReorder(items, order)
		require.NoError(t, err)

		keys := make(map[int64]int, len(plan.Keys))
		for i, k := range plan.Keys {
			require.Equal(t, i*10, k.SortOrder)
			keys[k.ID] = k.SortOrder
		}
		for i := range items {
			items[i].SortOrder = keys[items[i].ID]
		}

		assert.Equal(t, order, ids(gallery.OrderItems(items)))
	}
}

func TestApplyCover(t *testing.T) {
	items := []models.GalleryMedia{
		item(1, 0, true, 0),
		item(2, 10, false, 0),
		item(3, 20, false, 0),
	}

	require.NoError(t, gallery.ApplyCover(items, 2))
	assert.False(t, items[0].IsCover)
	assert.True(t, items[1].IsCover)
	assert.Equal(t, 1, gallery.CoverCount(items))

	err := gallery.ApplyCover(items, 42)
	assert.ErrorIs(t, err, gallery.ErrUnknownItem)
	assert.True(t, items[1].IsCover, "failed call must not change state")
}

func TestUploadRows(t *testing.T) {
	title := "Kasir"
	rows := gallery.UploadRows(gallery.UploadMeta{
		Title:       &title,
		IsCover:     true,
		IsPublished: true,
	}, []gallery.Rendition{
		{ImageURL: "/a.jpg", ThumbURL: "/a_thumb.jpg"},
		{ImageURL: "/b.jpg", ThumbURL: "/b_thumb.jpg"},
		{ImageURL: "/c.jpg", ThumbURL: "/c_thumb.jpg"},
	})

	require.Len(t, rows, 3)
	assert.Equal(t, 0, rows[0].SortOrder)
	assert.Equal(t, 10, rows[1].SortOrder)
	assert.Equal(t, 20, rows[2].SortOrder)
	assert.True(t, rows[0].IsCover)
	assert.False(t, rows[1].IsCover)
	assert.False(t, rows[2].IsCover)
	assert.Equal(t, "/b_thumb.jpg", rows[1].ThumbURL)
}

func TestBackfillRows(t *testing.T) {
	rows := gallery.BackfillRows([]models.LegacyGalleryEntry{
		{ID: 7, Slug: "eco-pos", URL: "/late.jpg", CreatedAt: base.Add(time.Hour)},
		{ID: 3, Slug: "eco-pos", URL: "/early.jpg", CreatedAt: base},
	})

	require.Len(t, rows, 2)
	assert.Equal(t, "/early.jpg", rows[0].ImageURL)
	assert.Equal(t, "/early.jpg", rows[0].ThumbURL)
	assert.True(t, rows[0].IsCover)
	assert.False(t, rows[1].IsCover)
	assert.Equal(t, 0, rows[0].SortOrder)
	assert.Equal(t, 10, rows[1].SortOrder)
	assert.True(t, rows[0].IsPublished && rows[1].IsPublished)
}

func TestLookupProduct(t *testing.T) {
	p, ok := gallery.LookupProduct("  Open-Retail ")
	require.True(t, ok)
	assert.Equal(t, "open-retail", p.Slug)
	assert.Equal(t, "Open Retail (PC)", p.Name)

	_, ok = gallery.LookupProduct("unknown")
	assert.False(t, ok)

	assert.Len(t, gallery.KnownProducts(), 2)
}
