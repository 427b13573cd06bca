package repository

import (
	"context"
	"errors"
	"fmt"

	"zozotech/internal/domain/models"
	"zozotech/internal/storage"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/lib/pq"
)

var packageColumns = []string{
	"id",
	"name",
	"price_original_idr",
	"discount_percent",
	"discount_active",
	"discount_start_at",
	"discount_end_at",
	"detail",
	"icon",
	"featured",
	"features",
	"created_at",
	"updated_at",
}

type PackageRepo struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

func NewPackageRepo(db *pgxpool.Pool) *PackageRepo {
	return &PackageRepo{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func scanPackage(row pgx.Row) (models.Package, error) {
	var p models.Package
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.PriceOriginalIDR,
		&p.DiscountPercent,
		&p.DiscountActive,
		&p.DiscountStartAt,
		&p.DiscountEndAt,
		&p.Detail,
		&p.Icon,
		&p.Featured,
		&p.Features,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if p.Features == nil {
		p.Features = []string{}
	}

	return p, err
}

// CreatePackage inserts a package. A duplicate name yields storage.ErrPackageExists.
func (r *PackageRepo) CreatePackage(ctx context.Context, p models.Package) (models.Package, error) {
	const op = "repository.PackageRepo.CreatePackage"

	query, args, err := r.sb.Insert("packages").
		Columns(
			"name",
			"price_original_idr",
			"discount_percent",
			"discount_active",
			"discount_start_at",
			"discount_end_at",
			"detail",
			"icon",
			"featured",
			"features",
		).
		Values(
			p.Name,
			p.PriceOriginalIDR,
			p.DiscountPercent,
			p.DiscountActive,
			p.DiscountStartAt,
			p.DiscountEndAt,
			nullIfEmpty(p.Detail),
			nullIfEmpty(p.Icon),
			p.Featured,
			pq.Array(nonNilStrings(p.Features)),
		).
		Suffix("RETURNING " + joinColumns(packageColumns)).
		ToSql()
	if err != nil {
		return models.Package{}, fmt.Errorf("%s: %w", op, err)
	}

	created, err := scanPackage(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if isUniqueViolation(err) {
			return models.Package{}, fmt.Errorf("%s: %w", op, storage.ErrPackageExists)
		}
		return models.Package{}, fmt.Errorf("%s: %w", op, err)
	}

	return created, nil
}

func (r *PackageRepo) UpdatePackage(ctx context.Context, p models.Package) (models.Package, error) {
	const op = "repository.PackageRepo.UpdatePackage"

	query, args, err := r.sb.Update("packages").
		Set("name", p.Name).
		Set("price_original_idr", p.PriceOriginalIDR).
		Set("discount_percent", p.DiscountPercent).
		Set("discount_active", p.DiscountActive).
		Set("discount_start_at", p.DiscountStartAt).
		Set("discount_end_at", p.DiscountEndAt).
		Set("detail", nullIfEmpty(p.Detail)).
		Set("icon", nullIfEmpty(p.Icon)).
		Set("featured", p.Featured).
		Set("features", pq.Array(nonNilStrings(p.Features))).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": p.ID}).
		Suffix("RETURNING " + joinColumns(packageColumns)).
		ToSql()
	if err != nil {
		return models.Package{}, fmt.Errorf("%s: %w", op, err)
	}

	updated, err := scanPackage(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Package{}, fmt.Errorf("%s: %w", op, storage.ErrPackageNotFound)
		}
		if isUniqueViolation(err) {
			return models.Package{}, fmt.Errorf("%s: %w", op, storage.ErrPackageExists)
		}
		return models.Package{}, fmt.Errorf("%s: %w", op, err)
	}

	return updated, nil
}

func (r *PackageRepo) DeletePackage(ctx context.Context, id uuid.UUID) error {
	const op = "repository.PackageRepo.DeletePackage"

	query, args, err := r.sb.Delete("packages").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrPackageNotFound)
	}

	return nil
}

func (r *PackageRepo) GetPackage(ctx context.Context, id uuid.UUID) (models.Package, error) {
	const op = "repository.PackageRepo.GetPackage"

	query, args, err := r.sb.Select(packageColumns...).
		From("packages").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return models.Package{}, fmt.Errorf("%s: %w", op, err)
	}

	p, err := scanPackage(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Package{}, fmt.Errorf("%s: %w", op, storage.ErrPackageNotFound)
		}
		return models.Package{}, fmt.Errorf("%s: %w", op, err)
	}

	return p, nil
}

// ListPackages returns packages featured first, newest first. Display ranking
// by final price happens in the pricing package.
func (r *PackageRepo) ListPackages(ctx context.Context) ([]models.Package, error) {
	const op = "repository.PackageRepo.ListPackages"

	query, args, err := r.sb.Select(packageColumns...).
		From("packages").
		OrderBy("featured DESC", "created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	pkgs := []models.Package{}
	for rows.Next() {
		p, err := scanPackage(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		pkgs = append(pkgs, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return pkgs, nil
}

// NameTaken reports whether another package already uses name.
// Pass uuid.Nil as exclude when creating.
func (r *PackageRepo) NameTaken(ctx context.Context, name string, exclude uuid.UUID) (bool, error) {
	const op = "repository.PackageRepo.NameTaken"

	qb := r.sb.Select("1").
		From("packages").
		Where(squirrel.Eq{"name": name}).
		Limit(1)
	if exclude != uuid.Nil {
		qb = qb.Where(squirrel.NotEq{"id": exclude})
	}

	query, args, err := qb.ToSql()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	var one int
	err = r.db.QueryRow(ctx, query, args...).Scan(&one)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return true, nil
}

func nonNilStrings(v []string) []string {
	if v == nil {
		return []string{}
	}

	return v
}
