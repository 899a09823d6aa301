package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/iamasit07/code-clash/client/internal/config"
	"github.com/iamasit07/code-clash/client/internal/domain"
)

// Claims represents JWT claims for access tokens.
type Claims struct {
	UserID    int64  `json:"user_id"`
	Username  string `json:"username"`
	AvatarRef string `json:"avatar_ref,omitempty"`
	jwt.RegisteredClaims
}

// GenerateAccessToken creates a JWT access token for a user.
func GenerateAccessToken(userID int64, username, avatarRef string, ttl time.Duration) (string, error) {
	secret := config.AppConfig.JWTSecret

	claims := &Claims{
		UserID:    userID,
		Username:  username,
		AvatarRef: avatarRef,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ValidateAccessToken validates a JWT access token and returns the claims.
func ValidateAccessToken(tokenString string) (*Claims, error) {
	secret := config.AppConfig.JWTSecret

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(secret), nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}

// IdentityFromToken builds an authenticated session identity from a token.
func IdentityFromToken(tokenString string) (domain.Identity, error) {
	claims, err := ValidateAccessToken(tokenString)
	if err != nil {
		return domain.Identity{}, err
	}
	return domain.Identity{
		UserID:    claims.UserID,
		Username:  claims.Username,
		AvatarRef: claims.AvatarRef,
	}, nil
}
