package models

import "github.com/google/uuid"

type TokenPair struct {
	UserID       uuid.UUID `json:"user_id"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
}

// Principal is the identity extracted from a session or an access token.
type Principal struct {
	UserID uuid.UUID
	Email  string
	Role   string
}
