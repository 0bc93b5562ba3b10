package server

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/strata-cms/strata/internal/response"
	"gorm.io/gorm"
)

// New builds the Fiber app: error handling in the standard envelope,
// the static upload route, and the full route table.
func New(db *gorm.DB) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:   "strata",
		BodyLimit: 100 * 1024 * 1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fiberErr *fiber.Error
			if errors.As(err, &fiberErr) {
				if fiberErr.Code == fiber.StatusNotFound {
					return response.Error(c, fiberErr.Code, response.CodeNotFound, fiberErr.Message, nil)
				}
				return response.Error(c, fiberErr.Code, response.CodeBadRequest, fiberErr.Message, nil)
			}
			return response.InternalError(c, "Something went wrong")
		},
	})

	// Locally stored media is served straight off disk.
	app.Static("/uploads", "./uploads", fiber.Static{
		Compress:  true,
		ByteRange: true,
		Browse:    false,
		MaxAge:    3600,
	})

	SetupRoutes(app)

	return app
}
