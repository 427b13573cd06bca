package repository

import (
	"context"
	"errors"
	"fmt"

	"zozotech/internal/domain/models"
	"zozotech/internal/storage"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

type ProductRepo struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

func NewProductRepo(db *pgxpool.Pool) *ProductRepo {
	return &ProductRepo{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// EnsureProduct creates the product when it is missing and returns it.
func (r *ProductRepo) EnsureProduct(ctx context.Context, slug, name string) (models.Product, error) {
	const op = "repository.ProductRepo.EnsureProduct"

	query, args, err := r.sb.Insert("products").
		Columns("slug", "name").
		Values(slug, name).
		Suffix("ON CONFLICT (slug) DO NOTHING").
		ToSql()
	if err != nil {
		return models.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return models.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	return r.GetProductBySlug(ctx, slug)
}

func (r *ProductRepo) GetProductBySlug(ctx context.Context, slug string) (models.Product, error) {
	const op = "repository.ProductRepo.GetProductBySlug"

	query, args, err := r.sb.Select("id", "slug", "name", "created_at").
		From("products").
		Where(squirrel.Eq{"slug": slug}).
		ToSql()
	if err != nil {
		return models.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	var p models.Product
	err = r.db.QueryRow(ctx, query, args...).Scan(&p.ID, &p.Slug, &p.Name, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Product{}, fmt.Errorf("%s: %w", op, storage.ErrProductNotFound)
		}
		return models.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	return p, nil
}

func (r *ProductRepo) ListProducts(ctx context.Context) ([]models.Product, error) {
	const op = "repository.ProductRepo.ListProducts"

	query, args, err := r.sb.Select("id", "slug", "name", "created_at").
		From("products").
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	products := []models.Product{}
	for rows.Next() {
		var p models.Product
		if err := rows.Scan(&p.ID, &p.Slug, &p.Name, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		products = append(products, p)
	}

	return products, rows.Err()
}

// LegacyGalleryRepo reads the flat gallery table that predates gallery_media.
type LegacyGalleryRepo struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

func NewLegacyGalleryRepo(db *pgxpool.Pool) *LegacyGalleryRepo {
	return &LegacyGalleryRepo{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *LegacyGalleryRepo) ListLegacyEntries(ctx context.Context, slug string) ([]models.LegacyGalleryEntry, error) {
	const op = "repository.LegacyGalleryRepo.ListLegacyEntries"

	query, args, err := r.sb.Select("id", "slug", "url", "created_at").
		From("gallery").
		Where(squirrel.Eq{"slug": slug}).
		OrderBy("created_at ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var entries []models.LegacyGalleryEntry
	for rows.Next() {
		var e models.LegacyGalleryEntry
		if err := rows.Scan(&e.ID, &e.Slug, &e.URL, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}
