package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"zozotech/internal/domain/models"
	"zozotech/internal/storage"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// galleryLockSpace namespaces the advisory locks that serialize cover and
// ordering changes of one product.
const galleryLockSpace = 7301

var mediaColumns = []string{
	"id",
	"product_id",
	"title",
	"caption",
	"alt",
	"image_url",
	"thumb_url",
	"sort_order",
	"is_cover",
	"is_published",
	"created_at",
	"updated_at",
}

type GalleryRepo struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

func NewGalleryRepo(db *pgxpool.Pool) *GalleryRepo {
	return &GalleryRepo{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func scanMedia(row pgx.Row) (models.GalleryMedia, error) {
	var m models.GalleryMedia
	err := row.Scan(
		&m.ID,
		&m.ProductID,
		&m.Title,
		&m.Caption,
		&m.Alt,
		&m.ImageURL,
		&m.ThumbURL,
		&m.SortOrder,
		&m.IsCover,
		&m.IsPublished,
		&m.CreatedAt,
		&m.UpdatedAt,
	)

	return m, err
}

// lockProducts takes the per-product advisory locks in ascending order.
func lockProducts(ctx context.Context, tx pgx.Tx, productIDs ...int64) error {
	ids := append([]int64(nil), productIDs...)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var prev int64 = -1
	for _, id := range ids {
		if id == prev {
			continue
		}
		prev = id

		if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1::int, $2::int)", int32(galleryLockSpace), int32(id)); err != nil {
			return fmt.Errorf("lock product %d: %w", id, err)
		}
	}

	return nil
}

func (r *GalleryRepo) clearCovers(ctx context.Context, q querier, productID, except int64) error {
	qb := r.sb.Update("gallery_media").
		Set("is_cover", false).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"product_id": productID, "is_cover": true})
	if except > 0 {
		qb = qb.Where(squirrel.NotEq{"id": except})
	}

	query, args, err := qb.ToSql()
	if err != nil {
		return err
	}

	_, err = q.Exec(ctx, query, args...)
	return err
}

func (r *GalleryRepo) insertRow(ctx context.Context, q querier, productID int64, row models.NewMediaRow) (models.GalleryMedia, error) {
	query, args, err := r.sb.Insert("gallery_media").
		Columns(
			"product_id",
			"title",
			"caption",
			"alt",
			"image_url",
			"thumb_url",
			"sort_order",
			"is_cover",
			"is_published",
		).
		Values(
			productID,
			nullIfEmpty(row.Title),
			nullIfEmpty(row.Caption),
			nullIfEmpty(row.Alt),
			row.ImageURL,
			row.ThumbURL,
			row.SortOrder,
			row.IsCover,
			row.IsPublished,
		).
		Suffix("RETURNING " + joinColumns(mediaColumns)).
		ToSql()
	if err != nil {
		return models.GalleryMedia{}, err
	}

	return scanMedia(q.QueryRow(ctx, query, args...))
}

func (r *GalleryRepo) getMedia(ctx context.Context, q querier, id int64, forUpdate bool) (models.GalleryMedia, error) {
	qb := r.sb.Select(mediaColumns...).
		From("gallery_media").
		Where(squirrel.Eq{"id": id})
	if forUpdate {
		qb = qb.Suffix("FOR UPDATE")
	}

	query, args, err := qb.ToSql()
	if err != nil {
		return models.GalleryMedia{}, err
	}

	m, err := scanMedia(q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.GalleryMedia{}, storage.ErrMediaNotFound
		}
		return models.GalleryMedia{}, err
	}

	return m, nil
}

// ListMedia returns the product's media in display order.
func (r *GalleryRepo) ListMedia(ctx context.Context, productID int64, publishedOnly bool) ([]models.GalleryMedia, error) {
	const op = "repository.GalleryRepo.ListMedia"

	where := squirrel.Eq{"product_id": productID}
	if publishedOnly {
		where["is_published"] = true
	}

	query, args, err := r.sb.Select(mediaColumns...).
		From("gallery_media").
		Where(where).
		OrderBy("is_cover DESC", "sort_order ASC", "created_at DESC", "id DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	items := []models.GalleryMedia{}
	for rows.Next() {
		m, err := scanMedia(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		items = append(items, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return items, nil
}

func (r *GalleryRepo) GetMedia(ctx context.Context, id int64) (models.GalleryMedia, error) {
	const op = "repository.GalleryRepo.GetMedia"

	m, err := r.getMedia(ctx, r.db, id, false)
	if err != nil {
		return models.GalleryMedia{}, fmt.Errorf("%s: %w", op, err)
	}

	return m, nil
}

func (r *GalleryRepo) CountMedia(ctx context.Context, productID int64) (int, error) {
	const op = "repository.GalleryRepo.CountMedia"

	n, err := r.countMedia(ctx, r.db, productID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return n, nil
}

func (r *GalleryRepo) countMedia(ctx context.Context, q querier, productID int64) (int, error) {
	query, args, err := r.sb.Select("COUNT(*)").
		From("gallery_media").
		Where(squirrel.Eq{"product_id": productID}).
		ToSql()
	if err != nil {
		return 0, err
	}

	var n int
	if err := q.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, err
	}

	return n, nil
}

// CreateBatch inserts all rows of one upload in a single transaction. When a
// row is marked as cover, the existing cover is cleared before the insert.
func (r *GalleryRepo) CreateBatch(ctx context.Context, productID int64, rows []models.NewMediaRow) ([]models.GalleryMedia, error) {
	const op = "repository.GalleryRepo.CreateBatch"

	var created []models.GalleryMedia

	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		if err := lockProducts(ctx, tx, productID); err != nil {
			return err
		}

		created = make([]models.GalleryMedia, 0, len(rows))
		return r.insertRows(ctx, tx, productID, rows, &created)
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return created, nil
}

func (r *GalleryRepo) insertRows(ctx context.Context, tx pgx.Tx, productID int64, rows []models.NewMediaRow, out *[]models.GalleryMedia) error {
	for _, row := range rows {
		if row.IsCover {
			if err := r.clearCovers(ctx, tx, productID, 0); err != nil {
				return err
			}
			break
		}
	}

	for _, row := range rows {
		m, err := r.insertRow(ctx, tx, productID, row)
		if err != nil {
			return err
		}
		*out = append(*out, m)
	}

	return nil
}

// BackfillIfEmpty inserts rows only when the product still has no media.
// It reports whether anything was written.
func (r *GalleryRepo) BackfillIfEmpty(ctx context.Context, productID int64, rows []models.NewMediaRow) (bool, error) {
	const op = "repository.GalleryRepo.BackfillIfEmpty"

	written := false

	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		if err := lockProducts(ctx, tx, productID); err != nil {
			return err
		}

		n, err := r.countMedia(ctx, tx, productID)
		if err != nil {
			return err
		}
		if n > 0 {
			return nil
		}

		var created []models.GalleryMedia
		if err := r.insertRows(ctx, tx, productID, rows, &created); err != nil {
			return err
		}
		written = len(created) > 0

		return nil
	})
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return written, nil
}

// SetCover makes mediaID the only cover of productID.
func (r *GalleryRepo) SetCover(ctx context.Context, productID, mediaID int64) error {
	const op = "repository.GalleryRepo.SetCover"

	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		if err := lockProducts(ctx, tx, productID); err != nil {
			return err
		}

		m, err := r.getMedia(ctx, tx, mediaID, true)
		if err != nil {
			return err
		}
		if m.ProductID != productID {
			return storage.ErrMediaNotFound
		}

		if err := r.clearCovers(ctx, tx, productID, mediaID); err != nil {
			return err
		}

		query, args, err := r.sb.Update("gallery_media").
			Set("is_cover", true).
			Set("updated_at", squirrel.Expr("NOW()")).
			Where(squirrel.Eq{"id": mediaID}).
			ToSql()
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx, query, args...)
		return err
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// UpdateMedia applies an admin edit. Setting the cover flag clears the other
// covers of the target product in the same transaction; moving a cover to
// another product without asking for the cover drops the flag.
func (r *GalleryRepo) UpdateMedia(ctx context.Context, id int64, patch models.MediaPatch) (models.GalleryMedia, error) {
	const op = "repository.GalleryRepo.UpdateMedia"

	current, err := r.getMedia(ctx, r.db, id, false)
	if err != nil {
		return models.GalleryMedia{}, fmt.Errorf("%s: %w", op, err)
	}

	targetProduct := current.ProductID
	if patch.ProductID != nil {
		targetProduct = *patch.ProductID
	}

	var updated models.GalleryMedia

	err = withTx(ctx, r.db, func(tx pgx.Tx) error {
		if err := lockProducts(ctx, tx, current.ProductID, targetProduct); err != nil {
			return err
		}

		locked, err := r.getMedia(ctx, tx, id, true)
		if err != nil {
			return err
		}

		qb := r.sb.Update("gallery_media").
			Set("updated_at", squirrel.Expr("NOW()")).
			Where(squirrel.Eq{"id": id})

		if patch.Title != nil {
			qb = qb.Set("title", nullIfEmpty(patch.Title))
		}
		if patch.Caption != nil {
			qb = qb.Set("caption", nullIfEmpty(patch.Caption))
		}
		if patch.Alt != nil {
			qb = qb.Set("alt", nullIfEmpty(patch.Alt))
		}
		if patch.SortOrder != nil {
			qb = qb.Set("sort_order", *patch.SortOrder)
		}
		if patch.IsPublished != nil {
			qb = qb.Set("is_published", *patch.IsPublished)
		}
		if patch.ProductID != nil {
			qb = qb.Set("product_id", targetProduct)
		}

		switch {
		case patch.IsCover != nil && *patch.IsCover:
			if err := r.clearCovers(ctx, tx, targetProduct, id); err != nil {
				return err
			}
			qb = qb.Set("is_cover", true)
		case patch.IsCover != nil:
			qb = qb.Set("is_cover", false)
		case locked.IsCover && targetProduct != locked.ProductID:
			qb = qb.Set("is_cover", false)
		}

		query, args, err := qb.Suffix("RETURNING " + joinColumns(mediaColumns)).ToSql()
		if err != nil {
			return err
		}

		updated, err = scanMedia(tx.QueryRow(ctx, query, args...))
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = storage.ErrMediaNotFound
		}
		return models.GalleryMedia{}, fmt.Errorf("%s: %w", op, err)
	}

	return updated, nil
}

// UpdateSortOrders writes the given sort keys in one transaction under the
// product lock. Keys for ids that are not part of the product abort the whole
// write.
func (r *GalleryRepo) UpdateSortOrders(ctx context.Context, productID int64, keys []models.SortKey) error {
	const op = "repository.GalleryRepo.UpdateSortOrders"

	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		if err := lockProducts(ctx, tx, productID); err != nil {
			return err
		}

		var failed []int64
		for _, k := range keys {
			query, args, err := r.sb.Update("gallery_media").
				Set("sort_order", k.SortOrder).
				Set("updated_at", squirrel.Expr("NOW()")).
				Where(squirrel.Eq{"id": k.ID, "product_id": productID}).
				ToSql()
			if err != nil {
				return err
			}

			tag, err := tx.Exec(ctx, query, args...)
			if err != nil {
				return &models.ReorderError{Failed: []int64{k.ID}, Err: err}
			}
			if tag.RowsAffected() == 0 {
				failed = append(failed, k.ID)
			}
		}

		if len(failed) > 0 {
			return &models.ReorderError{Failed: failed, Err: storage.ErrMediaNotFound}
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// DeleteMedia removes the row and returns it so the caller can drop the files.
func (r *GalleryRepo) DeleteMedia(ctx context.Context, id int64) (models.GalleryMedia, error) {
	const op = "repository.GalleryRepo.DeleteMedia"

	query, args, err := r.sb.Delete("gallery_media").
		Where(squirrel.Eq{"id": id}).
		Suffix("RETURNING " + joinColumns(mediaColumns)).
		ToSql()
	if err != nil {
		return models.GalleryMedia{}, fmt.Errorf("%s: %w", op, err)
	}

	m, err := scanMedia(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.GalleryMedia{}, fmt.Errorf("%s: %w", op, storage.ErrMediaNotFound)
		}
		return models.GalleryMedia{}, fmt.Errorf("%s: %w", op, err)
	}

	return m, nil
}
