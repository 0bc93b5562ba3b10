package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/strata-cms/strata/internal/database"
	"github.com/strata-cms/strata/internal/models"
	"github.com/strata-cms/strata/internal/response"
	"github.com/strata-cms/strata/internal/utils"
)

// JWTProtected authenticates the request and stores the user id in
// c.Locals("user_id") for everything downstream.
func JWTProtected() fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get("Authorization")
		if header == "" {
			return response.Unauthorized(c, "Missing authorization token")
		}

		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			return response.Error(c, fiber.StatusUnauthorized, "INVALID_TOKEN_FORMAT", "Invalid token format", nil)
		}

		userID, err := utils.ParseJWT(token)
		if err != nil {
			return response.Error(c, fiber.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token", nil)
		}

		c.Locals("user_id", userID)
		return c.Next()
	}
}

// RoleProtected allows only the named roles past. The role is read from
// the database, not the token, so a role change takes effect on the
// next request.
func RoleProtected(allowedRoles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(uint)

		var u models.User
		if err := database.DB.Preload("Role").First(&u, userID).Error; err != nil {
			return response.Unauthorized(c, "User not found")
		}

		for _, role := range allowedRoles {
			if u.Role != nil && u.Role.Name == role {
				return c.Next()
			}
		}
		return response.Forbidden(c, "You don't have permission to access this resource")
	}
}
