package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/alvifsandana/qms-be/internal/models"
)

var jwtKey []byte

// Init sets the process-wide signing secret. Must be called once at
// startup before any token is issued or verified.
func Init(secret string) {
	jwtKey = []byte(secret)
}

// Claims defines the JWT claims structure. SessionToken references the
// persisted session row, which stays the source of truth: a token whose
// row has been deleted no longer resolves.
type Claims struct {
	UserID       string `json:"userId"`
	Username     string `json:"username"`
	Level        int    `json:"level"`
	HakAkses     string `json:"hak_akses"`
	SessionToken string `json:"sid"`
	jwt.RegisteredClaims
}

// GenerateJWT creates a new JWT mirroring a persisted session.
func GenerateJWT(user models.User, sessionToken string, expiresAt time.Time) (string, error) {
	claims := &Claims{
		UserID:       user.ID,
		Username:     user.Username,
		Level:        user.Level,
		HakAkses:     user.HakAkses,
		SessionToken: sessionToken,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtKey)
}

// ValidateJWT parses and validates a JWT string.
func ValidateJWT(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return jwtKey, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}
