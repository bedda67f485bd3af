package auth

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/tradepost-labs/tradepost-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID  int64
	Role    enums.UserRole
	StoreID *int64
	JTI     string
}

// AccessTokenClaims represents the typed JWT issued to clients.
type AccessTokenClaims struct {
	UserID  int64          `json:"user_id,string"`
	Role    enums.UserRole `json:"role"`
	StoreID *int64         `json:"store_id,string,omitempty"`
	jwt.RegisteredClaims
}
