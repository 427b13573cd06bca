package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

const uniqueViolation = "23505"

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

type Repository struct {
	db       *pgxpool.Pool
	User     *UserRepo
	Package  *PackageRepo
	Product  *ProductRepo
	Gallery  *GalleryRepo
	Legacy   *LegacyGalleryRepo
	Post     *PostRepo
	Settings *SettingsRepo
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{
		db:       db,
		User:     NewUserRepository(db),
		Package:  NewPackageRepo(db),
		Product:  NewProductRepo(db),
		Gallery:  NewGalleryRepo(db),
		Legacy:   NewLegacyGalleryRepo(db),
		Post:     NewPostRepo(db),
		Settings: NewSettingsRepo(db),
	}
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

func (r *Repository) Close() {
	r.db.Close()
}

// withTx runs fn inside a transaction and commits when fn returns nil.
func withTx(ctx context.Context, db *pgxpool.Pool, fn func(tx pgx.Tx) error) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func nullIfEmpty(s *string) interface{} {
	if s == nil || *s == "" {
		return nil
	}

	return *s
}

func joinColumns(cols []string) string {
	return strings.Join(cols, ", ")
}
