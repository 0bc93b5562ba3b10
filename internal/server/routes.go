package server

import (
	"time"

	"github.com/strata-cms/strata/internal/auth"
	"github.com/strata-cms/strata/internal/collection"
	"github.com/strata-cms/strata/internal/content"
	"github.com/strata-cms/strata/internal/customelement"
	"github.com/strata-cms/strata/internal/media"
	"github.com/strata-cms/strata/internal/middleware"
	"github.com/strata-cms/strata/internal/role"
	"github.com/strata-cms/strata/internal/user"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

func SetupRoutes(app *fiber.App) {
	// Middleware
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS, PATCH",
	}))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"message": "CMS API is running",
		})
	})

	// ==========================================
	// AUTH ROUTES (No authentication required)
	// ==========================================
	authGroup := app.Group("/auth")
	app.Use("/auth", limiter.New(limiter.Config{
		Max:        5,
		Expiration: 1 * time.Minute,
	}))
	authGroup.Post("/register", auth.RegisterHandler)
	authGroup.Post("/login", limiter.New(limiter.Config{
		Max:        5,
		Expiration: 15 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
	}), auth.LoginHandler)
	authGroup.Get("/google/login", auth.GoogleLogin)
	authGroup.Get("/google/callback", auth.GoogleCallback)
	authGroup.Post("/forgot-password", auth.ForgotPasswordHandler)
	authGroup.Post("/reset-password", auth.ResetPasswordHandler)
	authGroup.Post("/refresh", limiter.New(limiter.Config{
		Max:        3,
		Expiration: 5 * time.Minute,
	}), auth.RefreshHandler)
	authGroup.Post("/logout", auth.JWTProtected(), auth.LogoutHandler)

	// ==========================================
	// USER MANAGEMENT (Admin only)
	// ==========================================
	userGroup := app.Group("/users")
	userGroup.Use(auth.JWTProtected())
	userGroup.Use(auth.RoleProtected("admin"))
	userGroup.Post("/", user.CreateUserHandler)
	userGroup.Get("/", user.ListUsersHandler)
	userGroup.Get("/:id", user.GetUserHandler)
	userGroup.Put("/:id", user.UpdateUserHandler)
	userGroup.Delete("/:id", user.DeleteUserHandler)

	// ==========================================
	// ROLE MANAGEMENT (Admin only)
	// ==========================================
	roleGroup := app.Group("/roles")
	roleGroup.Use(auth.JWTProtected())
	roleGroup.Use(auth.RoleProtected("admin"))
	roleGroup.Post("/", role.CreateRoleHandler)
	roleGroup.Get("/", role.ListRolesHandler)
	roleGroup.Get("/:id", role.GetRoleHandler)
	roleGroup.Put("/:id", role.UpdateRoleHandler)
	roleGroup.Delete("/:id", role.DeleteRoleHandler)
	roleGroup.Post("/:id/duplicate", role.DuplicateRoleHandler)
	roleGroup.Post("/assign", role.AssignRoleToUserHandler)

	// ==========================================
	// COLLECTIONS
	// ==========================================
	collectionGroup := app.Group("/collections")
	collectionGroup.Use(auth.JWTProtected())

	collectionGroup.Post("/",
		middleware.PermissionProtected("Collection", "create"),
		collection.CreateCollectionHandler)
	collectionGroup.Get("/",
		middleware.PermissionProtected("Collection", "read"),
		collection.ListCollectionsHandler)
	collectionGroup.Get("/:id",
		middleware.PermissionProtected("Collection", "read"),
		collection.GetCollectionHandler)
	collectionGroup.Get("/:id/schema",
		middleware.PermissionProtected("Collection", "read"),
		collection.GetResolvedSchemaHandler)
	collectionGroup.Put("/:id",
		middleware.PermissionProtected("Collection", "update"),
		collection.UpdateCollectionHandler)
	collectionGroup.Delete("/:id",
		middleware.PermissionProtected("Collection", "delete"),
		collection.DeleteCollectionHandler)

	// ==========================================
	// CONTENT
	// ==========================================
	contentGroup := app.Group("/content")
	contentGroup.Use(auth.JWTProtected())

	// Per-collection operations
	contentGroup.Post("/collections/:collection_id",
		middleware.PermissionProtected("Content", "create"),
		middleware.CollectionScoped("create"),
		content.CreateContentHandler)
	contentGroup.Get("/collections/:collection_id",
		middleware.PermissionProtected("Content", "read"),
		content.ListContentsHandler)
	contentGroup.Post("/collections/:collection_id/query",
		middleware.PermissionProtected("Content", "read"),
		content.QueryContentsHandler)

	// Single content operations
	contentGroup.Get("/:content_id",
		middleware.PermissionProtected("Content", "read"),
		content.GetContentHandler)
	contentGroup.Put("/:content_id",
		middleware.PermissionProtected("Content", "update"),
		content.UpdateContentHandler)
	contentGroup.Delete("/:content_id",
		middleware.PermissionProtected("Content", "delete"),
		content.DeleteContentHandler)
	contentGroup.Post("/:content_id/move",
		middleware.PermissionProtected("Content", "update"),
		content.MoveElementHandler)

	// Versions
	contentGroup.Get("/:content_id/versions",
		middleware.PermissionProtected("Content", "read"),
		content.ListVersionsHandler)
	contentGroup.Get("/:content_id/versions/:number",
		middleware.PermissionProtected("Content", "read"),
		content.GetVersionHandler)
	contentGroup.Get("/:content_id/diff",
		middleware.PermissionProtected("Content", "read"),
		content.DiffVersionsHandler)
	contentGroup.Post("/:content_id/restore",
		middleware.PermissionProtected("Content", "update"),
		content.RestoreVersionHandler)

	// Status transitions
	contentGroup.Post("/:content_id/publish",
		middleware.PermissionProtected("Content", "publish"),
		content.PublishHandler)
	contentGroup.Post("/:content_id/unpublish",
		middleware.PermissionProtected("Content", "publish"),
		content.UnpublishHandler)
	contentGroup.Post("/:content_id/archive",
		middleware.PermissionProtected("Content", "publish"),
		content.ArchiveHandler)

	// ==========================================
	// CUSTOM ELEMENTS
	// ==========================================
	elementGroup := app.Group("/custom-elements")
	elementGroup.Use(auth.JWTProtected())

	elementGroup.Post("/",
		middleware.PermissionProtected("CustomElement", "create"),
		customelement.CreateDefinitionHandler)
	elementGroup.Get("/",
		middleware.PermissionProtected("CustomElement", "read"),
		customelement.ListDefinitionsHandler)
	elementGroup.Post("/generate-type",
		middleware.PermissionProtected("CustomElement", "read"),
		customelement.GenerateTypeHandler)
	elementGroup.Put("/reorder",
		middleware.PermissionProtected("CustomElement", "update"),
		customelement.ReorderDefinitionsHandler)
	elementGroup.Get("/:type",
		middleware.PermissionProtected("CustomElement", "read"),
		customelement.GetDefinitionHandler)
	elementGroup.Put("/:type",
		middleware.PermissionProtected("CustomElement", "update"),
		customelement.UpdateDefinitionHandler)
	elementGroup.Delete("/:type",
		middleware.PermissionProtected("CustomElement", "delete"),
		customelement.DeleteDefinitionHandler)

	// ==========================================
	// MEDIA LIBRARY
	// ==========================================
	mediaGroup := app.Group("/media")
	mediaGroup.Use(auth.JWTProtected())

	// Media Folders
	mediaGroup.Get("/folders",
		middleware.PermissionProtected("Media", "read"),
		media.ListFoldersHandler)
	mediaGroup.Post("/folders",
		middleware.PermissionProtected("Media", "create"),
		media.CreateFolderHandler)

	mediaGroup.Post("/upload",
		middleware.PermissionProtected("Media", "create"),
		media.UploadMediaHandler)
	mediaGroup.Post("/bulk-upload",
		middleware.PermissionProtected("Media", "create"),
		media.BulkUploadMediaHandler)
	mediaGroup.Get("/",
		middleware.PermissionProtected("Media", "read"),
		media.ListMediaHandler)
	mediaGroup.Get("/search",
		middleware.PermissionProtected("Media", "read"),
		media.SearchMediaHandler)
	mediaGroup.Get("/stats",
		middleware.PermissionProtected("Media", "read"),
		media.GetMediaStatsHandler)
	mediaGroup.Get("/:id",
		middleware.PermissionProtected("Media", "read"),
		media.GetMediaHandler)
	mediaGroup.Put("/:id",
		middleware.PermissionProtected("Media", "update"),
		media.UpdateMediaHandler)
	mediaGroup.Delete("/:id",
		middleware.PermissionProtected("Media", "delete"),
		media.DeleteMediaHandler)
}
