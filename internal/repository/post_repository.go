package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"zozotech/internal/domain/models"
	"zozotech/internal/storage"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

const postDateLayout = "2006-01-02"

var postColumns = []string{
	"id",
	"slug",
	"title",
	"date",
	"excerpt",
	"content",
	"icon",
	"published",
	"created_at",
	"updated_at",
}

type PostRepo struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

func NewPostRepo(db *pgxpool.Pool) *PostRepo {
	return &PostRepo{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func scanPost(row pgx.Row) (models.Post, error) {
	var (
		p    models.Post
		date time.Time
	)

	err := row.Scan(
		&p.ID,
		&p.Slug,
		&p.Title,
		&date,
		&p.Excerpt,
		&p.Content,
		&p.Icon,
		&p.Published,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	p.Date = date.Format(postDateLayout)

	return p, err
}

func (r *PostRepo) SavePost(ctx context.Context, p models.Post) (models.Post, error) {
	const op = "repository.PostRepo.SavePost"

	query, args, err := r.sb.Insert("posts").
		Columns("slug", "title", "date", "excerpt", "content", "icon", "published").
		Values(
			p.Slug,
			p.Title,
			p.Date,
			nullIfEmpty(p.Excerpt),
			nullIfEmpty(p.Content),
			nullIfEmpty(p.Icon),
			p.Published,
		).
		Suffix("RETURNING " + joinColumns(postColumns)).
		ToSql()
	if err != nil {
		return models.Post{}, fmt.Errorf("%s: %w", op, err)
	}

	created, err := scanPost(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if isUniqueViolation(err) {
			return models.Post{}, fmt.Errorf("%s: %w", op, storage.ErrSlugTaken)
		}
		return models.Post{}, fmt.Errorf("%s: %w", op, err)
	}

	return created, nil
}

func (r *PostRepo) UpdatePost(ctx context.Context, p models.Post) (models.Post, error) {
	const op = "repository.PostRepo.UpdatePost"

	query, args, err := r.sb.Update("posts").
		Set("slug", p.Slug).
		Set("title", p.Title).
		Set("date", p.Date).
		Set("excerpt", nullIfEmpty(p.Excerpt)).
		Set("content", nullIfEmpty(p.Content)).
		Set("icon", nullIfEmpty(p.Icon)).
		Set("published", p.Published).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": p.ID}).
		Suffix("RETURNING " + joinColumns(postColumns)).
		ToSql()
	if err != nil {
		return models.Post{}, fmt.Errorf("%s: %w", op, err)
	}

	updated, err := scanPost(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Post{}, fmt.Errorf("%s: %w", op, storage.ErrPostNotFound)
		}
		if isUniqueViolation(err) {
			return models.Post{}, fmt.Errorf("%s: %w", op, storage.ErrSlugTaken)
		}
		return models.Post{}, fmt.Errorf("%s: %w", op, err)
	}

	return updated, nil
}

func (r *PostRepo) DeletePost(ctx context.Context, id uuid.UUID) error {
	const op = "repository.PostRepo.DeletePost"

	query, args, err := r.sb.Delete("posts").
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
		return fmt.Errorf("%s: %w", op, storage.ErrPostNotFound)
	}

	return nil
}

func (r *PostRepo) getPost(ctx context.Context, op string, where squirrel.Sqlizer) (models.Post, error) {
	query, args, err := r.sb.Select(postColumns...).
		From("posts").
		Where(where).
		ToSql()
	if err != nil {
		return models.Post{}, fmt.Errorf("%s: %w", op, err)
	}

	p, err := scanPost(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Post{}, fmt.Errorf("%s: %w", op, storage.ErrPostNotFound)
		}
		return models.Post{}, fmt.Errorf("%s: %w", op, err)
	}

	return p, nil
}

func (r *PostRepo) GetPostByID(ctx context.Context, id uuid.UUID) (models.Post, error) {
	return r.getPost(ctx, "repository.PostRepo.GetPostByID", squirrel.Eq{"id": id})
}

func (r *PostRepo) GetPostBySlug(ctx context.Context, slug string) (models.Post, error) {
	return r.getPost(ctx, "repository.PostRepo.GetPostBySlug", squirrel.Eq{"slug": slug})
}

// ListPosts returns posts newest first by date. publishedOnly hides drafts;
// limit <= 0 means no limit.
func (r *PostRepo) ListPosts(ctx context.Context, publishedOnly bool, limit int) ([]models.Post, error) {
	const op = "repository.PostRepo.ListPosts"

	qb := r.sb.Select(postColumns...).
		From("posts").
		OrderBy("date DESC", "created_at DESC")
	if publishedOnly {
		qb = qb.Where(squirrel.Eq{"published": true})
	}
	if limit > 0 {
		qb = qb.Limit(uint64(limit))
	}

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	posts := []models.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		posts = append(posts, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return posts, nil
}

func (r *PostRepo) SlugTaken(ctx context.Context, slug string, exclude uuid.UUID) (bool, error) {
	const op = "repository.PostRepo.SlugTaken"

	qb := r.sb.Select("1").
		From("posts").
		Where(squirrel.Eq{"slug": slug}).
		Limit(1)
	if exclude != uuid.Nil {
		qb = qb.Where(squirrel.NotEq{"id": exclude})
	}

	query, args, err := qb.ToSql()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	var one int
	if err := r.db.QueryRow(ctx, query, args...).Scan(&one); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return true, nil
}
