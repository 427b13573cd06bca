package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"zozotech/internal/domain/models"
	"zozotech/internal/lib/jwt"
	"zozotech/internal/lib/logger/sl"
	"zozotech/internal/repository"
)

var (
	ErrInvalidToken      = jwt.ErrInvalidToken
	ErrTokenExpired      = jwt.ErrTokenExpired
	ErrTokenNotInStorage = errors.New("token not found in storage")
	ErrWrongTokenKind    = errors.New("wrong token kind")
)

const (
	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

// TokenService issues access/refresh pairs. Refresh tokens are single use:
// each one is kept in redis until it is exchanged or revoked.
type TokenService struct {
	log        *slog.Logger
	repo       repository.TokenRepository
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewTokenService(log *slog.Logger, repo repository.TokenRepository, secret string, accessTTL, refreshTTL time.Duration) *TokenService {
	if accessTTL <= 0 {
		accessTTL = DefaultAccessTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = DefaultRefreshTTL
	}

	return &TokenService{
		log:        log,
		repo:       repo,
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

func (s *TokenService) GenerateTokens(ctx context.Context, user models.User) (*models.TokenPair, error) {
	const op = "service.TokenService.GenerateTokens"

	accessToken, err := jwt.NewToken(user, s.secret, jwt.KindAccess, s.accessTTL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	refreshToken, err := jwt.NewToken(user, s.secret, jwt.KindRefresh, s.refreshTTL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.repo.SaveRefreshToken(ctx, user.ID.String(), refreshToken, s.refreshTTL); err != nil {
		s.log.Error("failed to store refresh token", slog.String("op", op), sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &models.TokenPair{
		UserID:       user.ID,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// RefreshTokens exchanges a stored refresh token for a new pair.
func (s *TokenService) RefreshTokens(ctx context.Context, refreshToken string) (*models.TokenPair, error) {
	const op = "service.TokenService.RefreshTokens"

	claims, err := jwt.Parse(refreshToken, s.secret)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if claims.Kind != jwt.KindRefresh {
		return nil, fmt.Errorf("%s: %w", op, ErrWrongTokenKind)
	}

	userID := claims.UserID.String()

	exists, err := s.repo.GetRefreshToken(ctx, userID, refreshToken)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !exists {
		return nil, fmt.Errorf("%s: %w", op, ErrTokenNotInStorage)
	}

	if err := s.repo.DeleteRefreshToken(ctx, userID, refreshToken); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.GenerateTokens(ctx, models.User{
		ID:    claims.UserID,
		Email: claims.Email,
		Role:  claims.Role,
	})
}

// ParseAccess verifies an access token and returns its principal.
func (s *TokenService) ParseAccess(token string) (models.Principal, error) {
	claims, err := jwt.Parse(token, s.secret)
	if err != nil {
		return models.Principal{}, err
	}
	if claims.Kind != jwt.KindAccess {
		return models.Principal{}, ErrWrongTokenKind
	}

	return models.Principal{
		UserID: claims.UserID,
		Email:  claims.Email,
		Role:   claims.Role,
	}, nil
}

func (s *TokenService) RevokeAll(ctx context.Context, userID string) error {
	const op = "service.TokenService.RevokeAll"

	if err := s.repo.DeleteAllUserTokens(ctx, userID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
