package jwt

import (
	"errors"
	"fmt"
	"time"

	"zozotech/internal/domain/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	KindAccess  = "access"
	KindRefresh = "refresh"
)

var (
	ErrInvalidToken       = errors.New("invalid token")
	ErrInvalidTokenClaims = errors.New("invalid token claims")
	ErrTokenExpired       = errors.New("token expired")
)

// Claims is what the service reads back from a verified token.
type Claims struct {
	UserID    uuid.UUID
	Email     string
	Role      string
	Kind      string
	ExpiresAt time.Time
}

func NewToken(user models.User, secret []byte, kind string, duration time.Duration) (string, error) {
	now := time.Now()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"uid":   user.ID.String(),
		"email": user.Email,
		"role":  user.Role,
		"kind":  kind,
		"jti":   uuid.NewString(),
		"iat":   now.Unix(),
		"exp":   now.Add(duration).Unix(),
	})

	return token.SignedString(secret)
}

// Parse verifies signature and expiry and returns the claims.
func Parse(tokenString string, secret []byte) (Claims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrTokenExpired
		}
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return Claims{}, ErrInvalidToken
	}

	uid, _ := mc["uid"].(string)
	id, err := uuid.Parse(uid)
	if err != nil {
		return Claims{}, ErrInvalidTokenClaims
	}

	claims := Claims{UserID: id}
	claims.Email, _ = mc["email"].(string)
	claims.Role, _ = mc["role"].(string)
	claims.Kind, _ = mc["kind"].(string)

	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		claims.ExpiresAt = exp.Time
	}

	return claims, nil
}
