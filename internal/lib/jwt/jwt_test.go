package jwt_test

import (
	"testing"
	"time"

	"zozotech/internal/domain/models"
	"zozotech/internal/lib/jwt"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("test-secret")

func TestNewTokenAndParse(t *testing.T) {
	user := models.User{ID: uuid.New(), Email: "admin@zozotech.id", Role: models.RoleAdmin}

	token, err := jwt.NewToken(user, secret, jwt.KindAccess, time.Minute)
	require.NoError(t, err)

	claims, err := jwt.Parse(token, secret)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, user.Email, claims.Email)
	assert.Equal(t, models.RoleAdmin, claims.Role)
	assert.Equal(t, jwt.KindAccess, claims.Kind)
	assert.WithinDuration(t, time.Now().Add(time.Minute), claims.ExpiresAt, 5*time.Second)
}

func TestParse_Errors(t *testing.T) {
	user := models.User{ID: uuid.New(), Email: "admin@zozotech.id"}

	expired, err := jwt.NewToken(user, secret, jwt.KindAccess, -time.Minute)
	require.NoError(t, err)

	other, err := jwt.NewToken(user, []byte("other"), jwt.KindAccess, time.Minute)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		err   error
	}{
		{name: "expired", token: expired, err: jwt.ErrTokenExpired},
		{name: "wrong secret", token: other, err: jwt.ErrInvalidToken},
		{name: "garbage", token: "not.a.token", err: jwt.ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := jwt.Parse(tt.token, secret)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}
