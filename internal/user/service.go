package user

import (
	"errors"

	"github.com/strata-cms/strata/internal/database"
	"github.com/strata-cms/strata/internal/models"
	"github.com/strata-cms/strata/internal/utils"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrRoleNotFound = errors.New("role not found")
	ErrEmailTaken   = errors.New("email already taken")
	// ErrSelfDelete stops an admin from locking everyone out by
	// removing their own account.
	ErrSelfDelete = errors.New("cannot delete your own account")
)

type SaveUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	RoleID   uint   `json:"role_id"`
}

func CreateUser(req SaveUserRequest) (*models.User, error) {
	if req.RoleID != 0 {
		if err := ensureRole(req.RoleID); err != nil {
			return nil, err
		}
	}

	var existing models.User
	if err := database.DB.Where("email = ?", req.Email).First(&existing).Error; err == nil {
		return nil, ErrEmailTaken
	}

	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	u := models.User{
		Name:     req.Name,
		Email:    req.Email,
		Password: hashed,
		Provider: "local",
		Status:   "active",
		RoleID:   req.RoleID,
	}
	if err := database.DB.Create(&u).Error; err != nil {
		return nil, err
	}
	return reload(u.ID)
}

func GetUser(id uint) (*models.User, error) {
	return reload(id)
}

func ListUsers() ([]models.User, error) {
	var users []models.User
	if err := database.DB.Preload("Role").Find(&users).Error; err != nil {
		return nil, err
	}
	for i := range users {
		users[i].Password = ""
	}
	return users, nil
}

// UpdateUser applies the non-empty fields of req. Password changes go
// through the reset flow, not here.
func UpdateUser(id uint, req SaveUserRequest) (*models.User, error) {
	var u models.User
	if err := database.DB.First(&u, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if req.Email != "" && req.Email != u.Email {
		var existing models.User
		if err := database.DB.Where("email = ? AND id != ?", req.Email, id).First(&existing).Error; err == nil {
			return nil, ErrEmailTaken
		}
		u.Email = req.Email
	}
	if req.Name != "" {
		u.Name = req.Name
	}
	if req.RoleID != 0 {
		if err := ensureRole(req.RoleID); err != nil {
			return nil, err
		}
		u.RoleID = req.RoleID
	}

	if err := database.DB.Save(&u).Error; err != nil {
		return nil, err
	}
	return reload(u.ID)
}

func DeleteUser(id, actorID uint) error {
	if id == actorID {
		return ErrSelfDelete
	}

	var u models.User
	if err := database.DB.First(&u, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return database.DB.Delete(&u).Error
}

func ensureRole(roleID uint) error {
	var role models.Role
	if err := database.DB.First(&role, roleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRoleNotFound
		}
		return err
	}
	return nil
}

func reload(id uint) (*models.User, error) {
	var u models.User
	if err := database.DB.Preload("Role.Permissions").First(&u, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	u.Password = ""
	return &u, nil
}
