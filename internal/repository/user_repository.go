package repository

import (
	"context"
	"errors"
	"fmt"

	"zozotech/internal/domain/models"
	"zozotech/internal/storage"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

type UserRepo struct {
	db *pgxpool.Pool
	sb sq.StatementBuilderType
}

func NewUserRepository(db *pgxpool.Pool) *UserRepo {
	return &UserRepo{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *UserRepo) SaveUser(ctx context.Context, user models.User) (uuid.UUID, error) {
	const op = "repository.user_repository.SaveUser"

	role := user.Role
	if role == "" {
		role = models.RoleAdmin
	}

	query, args, err := r.sb.Insert("users").
		Columns("email", "password_hash", "role").
		Values(user.Email, string(user.PasswordHash), role).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	var id uuid.UUID
	err = r.db.QueryRow(ctx, query, args...).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return uuid.Nil, fmt.Errorf("%s: %w", op, storage.ErrUserExists)
		}
		return uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

// UpsertAdmin creates the user or resets its password hash and role.
func (r *UserRepo) UpsertAdmin(ctx context.Context, email string, hash []byte) (uuid.UUID, error) {
	const op = "repository.user_repository.UpsertAdmin"

	query, args, err := r.sb.Insert("users").
		Columns("email", "password_hash", "role").
		Values(email, string(hash), models.RoleAdmin).
		Suffix("ON CONFLICT (email) DO UPDATE SET password_hash = EXCLUDED.password_hash, role = EXCLUDED.role RETURNING id").
		ToSql()
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	var id uuid.UUID
	if err := r.db.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

func (r *UserRepo) getUser(ctx context.Context, op string, where sq.Sqlizer) (models.User, error) {
	query, args, err := r.sb.Select("id", "email", "password_hash", "role", "created_at").
		From("users").
		Where(where).
		ToSql()
	if err != nil {
		return models.User{}, fmt.Errorf("%s: can't build sql: %w", op, err)
	}

	var (
		user models.User
		hash string
	)

	err = r.db.QueryRow(ctx, query, args...).Scan(&user.ID, &user.Email, &hash, &user.Role, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
		}
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}
	user.PasswordHash = []byte(hash)

	return user, nil
}

func (r *UserRepo) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	return r.getUser(ctx, "repository.user_repository.GetUserByEmail", sq.Eq{"email": email})
}

func (r *UserRepo) GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error) {
	return r.getUser(ctx, "repository.user_repository.GetUserByID", sq.Eq{"id": userID})
}

func (r *UserRepo) IsAdmin(ctx context.Context, userID uuid.UUID) (bool, error) {
	const op = "repository.user_repository.IsAdmin"

	sql, args, err := r.sb.Select("role").From("users").Where(sq.Eq{"id": userID}).ToSql()
	if err != nil {
		return false, fmt.Errorf("%s: can't build sql: %w", op, err)
	}

	var role string
	err = r.db.QueryRow(ctx, sql, args...).Scan(&role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
		}
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return role == models.RoleAdmin, nil
}
