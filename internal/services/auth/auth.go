package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"zozotech/internal/domain/models"
	"zozotech/internal/lib/logger/sl"
	"zozotech/internal/metrics"
	"zozotech/internal/storage"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotAdmin           = errors.New("admin role required")
)

const passwordCost = 10

type UserStore interface {
	UpsertAdmin(ctx context.Context, email string, hash []byte) (uuid.UUID, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
}

type TokenIssuer interface {
	GenerateTokens(ctx context.Context, user models.User) (*models.TokenPair, error)
	RefreshTokens(ctx context.Context, refreshToken string) (*models.TokenPair, error)
	ParseAccess(token string) (models.Principal, error)
	RevokeAll(ctx context.Context, userID string) error
}

type Auth struct {
	log    *slog.Logger
	users  UserStore
	tokens TokenIssuer
}

func New(log *slog.Logger, users UserStore, tokens TokenIssuer) *Auth {
	return &Auth{
		log:    log,
		users:  users,
		tokens: tokens,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Login checks an admin's password and issues a token pair. Unknown emails
// and wrong passwords produce the same error.
func (a *Auth) Login(ctx context.Context, email, password string) (models.User, *models.TokenPair, error) {
	const op = "auth.Login"

	email = normalizeEmail(email)

	log := a.log.With(
		slog.String("op", op),
		slog.String("email", email),
	)

	log.Info("attempting to login user")

	user, err := a.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			log.Warn("user not found", sl.Err(err))
			metrics.LoginAttempts.WithLabelValues("rejected").Inc()

			return models.User{}, nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}
		log.Error("failed to get user", sl.Err(err))
		metrics.LoginAttempts.WithLabelValues("error").Inc()

		return models.User{}, nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		log.Info("invalid credentials", sl.Err(err))
		metrics.LoginAttempts.WithLabelValues("rejected").Inc()

		return models.User{}, nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	if !user.IsAdmin() {
		log.Warn("non-admin login refused")
		metrics.LoginAttempts.WithLabelValues("rejected").Inc()

		return models.User{}, nil, fmt.Errorf("%s: %w", op, ErrNotAdmin)
	}

	pair, err := a.tokens.GenerateTokens(ctx, user)
	if err != nil {
		log.Error("failed to generate token", sl.Err(err))
		metrics.LoginAttempts.WithLabelValues("error").Inc()

		return models.User{}, nil, fmt.Errorf("%s: %w", op, err)
	}

	metrics.LoginAttempts.WithLabelValues("ok").Inc()
	log.Info("user logged in successfully")

	return user, pair, nil
}

func (a *Auth) Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, error) {
	const op = "auth.Refresh"

	pair, err := a.tokens.RefreshTokens(ctx, refreshToken)
	if err != nil {
		a.log.Info("refresh rejected", slog.String("op", op), sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	return pair, nil
}

// Logout revokes every refresh token of the user.
func (a *Auth) Logout(ctx context.Context, userID uuid.UUID) error {
	const op = "auth.Logout"

	if userID == uuid.Nil {
		return nil
	}

	if err := a.tokens.RevokeAll(ctx, userID.String()); err != nil {
		a.log.Error("failed to revoke tokens", slog.String("op", op), sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (a *Auth) ParseAccessToken(token string) (models.Principal, error) {
	principal, err := a.tokens.ParseAccess(token)
	if err != nil {
		return models.Principal{}, fmt.Errorf("auth.ParseAccessToken: %w", ErrInvalidCredentials)
	}

	return principal, nil
}

// EnsureAdmin creates the admin account or resets its password.
func (a *Auth) EnsureAdmin(ctx context.Context, email, password string) (uuid.UUID, error) {
	const op = "auth.EnsureAdmin"

	email = normalizeEmail(email)

	log := a.log.With(
		slog.String("op", op),
		slog.String("email", email),
	)

	if email == "" || password == "" {
		return uuid.Nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	passHash, err := bcrypt.GenerateFromPassword([]byte(password), passwordCost)
	if err != nil {
		log.Error("failed to generate password hash", sl.Err(err))

		return uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	id, err := a.users.UpsertAdmin(ctx, email, passHash)
	if err != nil {
		log.Error("failed to save admin", sl.Err(err))

		return uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("admin account ready")

	return id, nil
}
