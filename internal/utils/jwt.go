package utils

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/joho/godotenv"
)

const accessTokenTTL = 15 * time.Minute

// fallbackSecret keeps tests runnable without env setup. ValidateJWTSecret
// rejects it at server startup.
const fallbackSecret = "test_secret_key_minimum_32_characters_long_for_testing_only"

var jwtKey []byte

func init() {
	if err := godotenv.Load(); err != nil {
		log.Default().Println("No .env file found")
	}
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = fallbackSecret
	}
	jwtKey = []byte(secret)
}

func ValidateJWTSecret() error {
	secret := os.Getenv("JWT_SECRET")
	switch {
	case secret == "":
		return fmt.Errorf("JWT_SECRET environment variable is required")
	case len(secret) < 32:
		return fmt.Errorf("JWT_SECRET must be at least 32 characters long (current: %d)", len(secret))
	case secret == fallbackSecret:
		return fmt.Errorf("cannot use default test secret in production")
	}
	return nil
}

// AccessClaims carries the authenticated user's id and role name.
type AccessClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

func GenerateJWT(userID uint, roleName string) (string, error) {
	now := time.Now()
	claims := AccessClaims{
		Role: roleName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(accessTokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(jwtKey)
}

func ParseJWT(tokenStr string) (uint, error) {
	var claims AccessClaims
	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return jwtKey, nil
	})
	if err != nil {
		return 0, err
	}
	if !token.Valid {
		return 0, fmt.Errorf("invalid token")
	}

	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid token subject: %w", err)
	}
	return uint(id), nil
}
