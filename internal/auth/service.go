package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"time"

	"github.com/strata-cms/strata/internal/database"
	"github.com/strata-cms/strata/internal/models"
	"github.com/strata-cms/strata/internal/utils"
	"gorm.io/gorm"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidResetToken  = errors.New("invalid or expired reset token")
)

const resetTokenTTL = 1 * time.Hour

// TokenPair is what every successful authentication hands back.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

// RegisterUser creates a local account with the seeded viewer role and
// signs the new user in.
func RegisterUser(name, email, password string) (*models.User, *TokenPair, error) {
	var existing models.User
	if err := database.DB.Where("email = ?", email).First(&existing).Error; err == nil {
		return nil, nil, ErrEmailTaken
	}

	hashed, err := utils.HashPassword(password)
	if err != nil {
		return nil, nil, err
	}

	roleID, err := defaultRoleID()
	if err != nil {
		return nil, nil, err
	}

	u := models.User{
		Name:     name,
		Email:    email,
		Password: hashed,
		Provider: "local",
		Status:   "active",
		RoleID:   roleID,
	}
	if err := database.DB.Create(&u).Error; err != nil {
		return nil, nil, err
	}
	if err := database.DB.Preload("Role").First(&u, u.ID).Error; err != nil {
		return nil, nil, err
	}

	pair, err := issueTokens(&u)
	if err != nil {
		return nil, nil, err
	}
	u.Password = ""
	return &u, pair, nil
}

// LoginUser checks the credentials and issues a fresh token pair. It
// answers the same error for an unknown email and a wrong password.
func LoginUser(email, password string) (*TokenPair, error) {
	var user models.User
	if err := database.DB.Preload("Role").Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !utils.CheckPasswordHash(password, user.Password) {
		return nil, ErrInvalidCredentials
	}
	return issueTokens(&user)
}

// StartPasswordReset stores a hashed single-use token and returns the
// plain token for delivery. A nil error with an empty token means the
// email is unknown; callers must not reveal which case happened.
func StartPasswordReset(email string) (string, error) {
	var user models.User
	if err := database.DB.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}

	plain, hash, err := newResetToken()
	if err != nil {
		return "", err
	}

	row := models.ResetToken{
		UserID:    user.ID,
		TokenHash: hash,
		ExpiresAt: time.Now().Add(resetTokenTTL),
	}
	if err := database.DB.Create(&row).Error; err != nil {
		return "", err
	}
	return plain, nil
}

// CompletePasswordReset burns the token and sets the new password.
func CompletePasswordReset(token, newPassword string) error {
	var reset models.ResetToken
	if err := database.DB.Where("token_hash = ?", hashResetToken(token)).First(&reset).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidResetToken
		}
		return err
	}
	if reset.ExpiresAt.Before(time.Now()) {
		database.DB.Delete(&reset)
		return ErrInvalidResetToken
	}

	var user models.User
	if err := database.DB.First(&user, reset.UserID).Error; err != nil {
		return err
	}

	hashed, err := utils.HashPassword(newPassword)
	if err != nil {
		return err
	}
	user.Password = hashed
	if err := database.DB.Save(&user).Error; err != nil {
		return err
	}
	return database.DB.Delete(&reset).Error
}

// findOrCreateOAuthUser maps an external identity onto a local account,
// creating a viewer on first sign-in.
func findOrCreateOAuthUser(name, email, provider string) (*models.User, error) {
	var u models.User
	err := database.DB.Where("email = ?", email).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		roleID, err := defaultRoleID()
		if err != nil {
			return nil, err
		}
		u = models.User{
			Name:     name,
			Email:    email,
			Provider: provider,
			Status:   "active",
			RoleID:   roleID,
		}
		if err := database.DB.Create(&u).Error; err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}

	if err := database.DB.Preload("Role").First(&u, u.ID).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func issueTokens(u *models.User) (*TokenPair, error) {
	roleName := ""
	if u.Role != nil {
		roleName = u.Role.Name
	}
	access, err := utils.GenerateJWT(u.ID, roleName)
	if err != nil {
		return nil, err
	}
	refresh, err := utils.GenerateRefreshToken(u.ID)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh, ExpiresIn: 900}, nil
}

func defaultRoleID() (uint, error) {
	var role models.Role
	if err := database.DB.Where("name = ?", "viewer").First(&role).Error; err != nil {
		return 0, err
	}
	return role.ID, nil
}

func newResetToken() (string, string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", "", err
	}
	plain := base64.URLEncoding.EncodeToString(b)
	return plain, hashResetToken(plain), nil
}

func hashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.URLEncoding.EncodeToString(sum[:])
}
