package auth

import (
	"github.com/angelmondragon/hauler-backend/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID      uuid.UUID
	Role        enums.UserRole
	DisplayName string
	// SessionID scopes the cart and survives refresh; JTI rotates with every token.
	SessionID string
	JTI       string
}

// AccessTokenClaims represents the typed JWT issued to clients.
type AccessTokenClaims struct {
	UserID      uuid.UUID      `json:"user_id"`
	Role        enums.UserRole `json:"role"`
	DisplayName string         `json:"display_name"`
	SessionID   string         `json:"sid"`
	jwt.RegisteredClaims
}
