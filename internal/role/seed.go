package role

import (
	"github.com/strata-cms/strata/internal/database"
	"github.com/strata-cms/strata/internal/models"
)

func SeedDefaultRoles() error {
	// Editor Role - Can create/edit content and upload media
	editorPerms := []models.Permission{
		{Module: "Content", Action: "create"},
		{Module: "Content", Action: "read"},
		{Module: "Content", Action: "update"},
		{Module: "Collection", Action: "read"},
		{Module: "CustomElement", Action: "read"},
		{Module: "Media", Action: "create"},
		{Module: "Media", Action: "read"},
		{Module: "Media", Action: "update"},
	}
	_, _ = CreateRole(database.DB, "editor", "Can create/edit content and upload media", editorPerms)

	// Publisher Role - Can publish/unpublish content
	publisherPerms := []models.Permission{
		{Module: "Content", Action: "read"},
		{Module: "Content", Action: "publish"},
		{Module: "Collection", Action: "read"},
		{Module: "CustomElement", Action: "read"},
		{Module: "Media", Action: "read"},
	}
	_, _ = CreateRole(database.DB, "publisher", "Can publish and unpublish content", publisherPerms)

	// Viewer Role - Read only
	viewerPerms := []models.Permission{
		{Module: "Content", Action: "read"},
		{Module: "Collection", Action: "read"},
		{Module: "CustomElement", Action: "read"},
		{Module: "Media", Action: "read"},
	}
	_, _ = CreateRole(database.DB, "viewer", "Can view content only", viewerPerms)

	// Admin Role - Full access
	adminPerms := []models.Permission{
		{Module: "Content", Action: "create"},
		{Module: "Content", Action: "read"},
		{Module: "Content", Action: "update"},
		{Module: "Content", Action: "delete"},
		{Module: "Content", Action: "publish"},
		{Module: "Collection", Action: "create"},
		{Module: "Collection", Action: "read"},
		{Module: "Collection", Action: "update"},
		{Module: "Collection", Action: "delete"},
		{Module: "CustomElement", Action: "create"},
		{Module: "CustomElement", Action: "read"},
		{Module: "CustomElement", Action: "update"},
		{Module: "CustomElement", Action: "delete"},
		{Module: "Media", Action: "create"},
		{Module: "Media", Action: "read"},
		{Module: "Media", Action: "update"},
		{Module: "Media", Action: "delete"},
	}
	_, _ = CreateRole(database.DB, "admin", "Full access to all resources", adminPerms)

	return nil
}
