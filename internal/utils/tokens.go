package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/strata-cms/strata/internal/database"
	"github.com/strata-cms/strata/internal/models"
)

const refreshTokenTTL = 7 * 24 * time.Hour

// GenerateRefreshToken mints an opaque refresh token and stores only its
// hash. The plain token goes to the client and is never persisted.
func GenerateRefreshToken(userID uint) (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	plain := hex.EncodeToString(raw)

	row := models.RefreshToken{
		UserID:    userID,
		TokenHash: hashToken(plain),
		ExpiresAt: time.Now().Add(refreshTokenTTL),
	}
	if err := database.DB.Create(&row).Error; err != nil {
		return "", err
	}
	return plain, nil
}

// RefreshTokenPair rotates the refresh token: the presented token is
// revoked in the same update that validates it, so a replayed token
// can never mint a second pair.
func RefreshTokenPair(userID uint, oldToken string) (string, string, error) {
	result := database.DB.Model(&models.RefreshToken{}).
		Where("user_id = ? AND token_hash = ? AND revoked = false AND expires_at > ?",
			userID, hashToken(oldToken), time.Now()).
		Update("revoked", true)
	if result.Error != nil {
		return "", "", result.Error
	}
	if result.RowsAffected != 1 {
		return "", "", fmt.Errorf("invalid or expired refresh token")
	}

	var user models.User
	if err := database.DB.Preload("Role").First(&user, userID).Error; err != nil {
		return "", "", fmt.Errorf("user not found")
	}

	accessToken, err := GenerateJWT(user.ID, user.Role.Name)
	if err != nil {
		return "", "", err
	}
	newRefreshToken, err := GenerateRefreshToken(userID)
	if err != nil {
		return "", "", err
	}
	return accessToken, newRefreshToken, nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
