package middleware

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/strata-cms/strata/internal/database"
	"github.com/strata-cms/strata/internal/models"
	"github.com/strata-cms/strata/internal/response"
)

func PermissionProtected(module string, action string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(uint)

		var user models.User
		if err := database.DB.Preload("Role.Permissions").First(&user, userID).Error; err != nil {
			return response.Unauthorized(c, "Unauthorized")
		}

		if user.Role == nil {
			return response.Forbidden(c, "User has no role assigned")
		}

		hasPermission := false
		for _, perm := range user.Role.Permissions {
			if perm.Module == module && perm.Action == action {
				hasPermission = true
				break
			}
		}

		if !hasPermission {
			return response.Forbidden(c, "You don't have permission to perform this action")
		}

		return c.Next()
	}
}

func HasPermission(userID uint, module, action string) bool {
	var user models.User
	if err := database.DB.Preload("Role.Permissions").First(&user, userID).Error; err != nil {
		return false
	}

	if user.Role == nil {
		return false
	}

	for _, perm := range user.Role.Permissions {
		if perm.Module == module && perm.Action == action {
			return true
		}
	}
	return false
}

func HasAnyPermission(userID uint, permissions []struct{ Module, Action string }) bool {
	var user models.User
	if err := database.DB.Preload("Role.Permissions").First(&user, userID).Error; err != nil {
		return false
	}

	if user.Role == nil {
		return false
	}

	for _, reqPerm := range permissions {
		for _, userPerm := range user.Role.Permissions {
			if userPerm.Module == reqPerm.Module && userPerm.Action == reqPerm.Action {
				return true
			}
		}
	}
	return false
}

func IsFullAccessRole(user *models.User) bool {
	if user.Role == nil {
		return false
	}

	if user.Role.Name == "admin" {
		return true
	}

	requiredPerms := map[string]map[string]bool{
		"Collection":    {"create": false, "read": false, "update": false, "delete": false},
		"Content":       {"create": false, "read": false, "update": false, "delete": false},
		"CustomElement": {"create": false, "read": false, "update": false, "delete": false},
		"Media":         {"create": false, "read": false, "update": false, "delete": false},
	}

	for _, perm := range user.Role.Permissions {
		if actions, exists := requiredPerms[perm.Module]; exists {
			if _, actionExists := actions[perm.Action]; actionExists {
				requiredPerms[perm.Module][perm.Action] = true
			}
		}
	}

	for _, actions := range requiredPerms {
		for _, has := range actions {
			if !has {
				return false
			}
		}
	}

	return true
}

// CanAccessCollection checks whether a permission row restricted to specific
// collections covers the given collection. An empty CollectionIDs list means
// the permission applies to all collections.
func CanAccessCollection(userID uint, action string, collectionID uint) bool {
	var user models.User
	if err := database.DB.Preload("Role.Permissions").First(&user, userID).Error; err != nil {
		return false
	}

	if user.Role == nil {
		return false
	}

	if IsFullAccessRole(&user) {
		return true
	}

	for _, perm := range user.Role.Permissions {
		if perm.Module != string(ContentModule) || perm.Action != action {
			continue
		}

		if perm.CollectionIDs == nil {
			return true
		}

		var collectionIDs []uint
		json.Unmarshal(perm.CollectionIDs, &collectionIDs)
		if len(collectionIDs) == 0 {
			return true
		}

		for _, id := range collectionIDs {
			if id == collectionID {
				return true
			}
		}
	}

	return false
}

// CollectionScoped wraps PermissionProtected with a per-collection check
// based on the :collection_id route param.
func CollectionScoped(action string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(uint)

		collectionID, err := c.ParamsInt("collection_id")
		if err != nil || collectionID <= 0 {
			return response.BadRequest(c, "Invalid collection ID", nil)
		}

		if !CanAccessCollection(userID, action, uint(collectionID)) {
			return response.Forbidden(c, "You don't have permission for this collection")
		}

		return c.Next()
	}
}

type Module string
type Action string

const (
	CollectionModule    Module = "Collection"
	ContentModule       Module = "Content"
	CustomElementModule Module = "CustomElement"
	MediaModule         Module = "Media"
	CreateAction        Action = "create"
	ReadAction          Action = "read"
	UpdateAction        Action = "update"
	DeleteAction        Action = "delete"
	PublishAction       Action = "publish"
)
