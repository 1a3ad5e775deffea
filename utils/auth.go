package utils

import (
	"time"

	"github.com/dgrijalva/jwt-go"
)

// JwtKey signs session tokens. Loaded from JWT_SECRET in main.
var JwtKey = []byte("your_secret_key")

// Token lifetime. Expiry is enforced on every parse; there is no
// revocation list.
const tokenTTL = 24 * time.Hour

// Claims carries the authenticated user's id.
type Claims struct {
	UserID string `json:"user_id"`
	jwt.StandardClaims
}

// GenerateToken signs a session token for the given user id.
func GenerateToken(userID string) (string, error) {
	claims := &Claims{
		UserID: userID,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: time.Now().Add(tokenTTL).Unix(),
			IssuedAt:  time.Now().Unix(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(JwtKey)
}

// ParseToken validates a session token and returns its claims. It fails on
// a bad signature, malformed token, or expired token.
func ParseToken(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return JwtKey, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.NewValidationError("invalid token", jwt.ValidationErrorClaimsInvalid)
	}
	return claims, nil
}
