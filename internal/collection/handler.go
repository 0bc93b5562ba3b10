package collection

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/strata-cms/strata/internal/response"
)

type SaveCollectionRequest struct {
	Name   string          `json:"name"`
	Slug   string          `json:"slug"`
	Schema json.RawMessage `json:"schema,omitempty"`
}

func CreateCollectionHandler(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(uint)

	var body SaveCollectionRequest
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}
	if body.Name == "" || body.Slug == "" {
		return response.ValidationError(c, map[string]string{
			"name": "name is required",
			"slug": "slug is required",
		})
	}

	row, err := CreateCollection(body.Name, body.Slug, body.Schema, userID)
	if err != nil {
		return respondError(c, err)
	}
	return response.Created(c, row, "Collection created successfully")
}

func UpdateCollectionHandler(c *fiber.Ctx) error {
	collectionID, err := c.ParamsInt("id")
	if err != nil {
		return response.BadRequest(c, "Invalid collection ID", nil)
	}

	var body SaveCollectionRequest
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}

	row, err := UpdateCollection(uint(collectionID), body.Name, body.Slug, body.Schema)
	if err != nil {
		return respondError(c, err)
	}
	return response.Success(c, row, "Collection updated successfully")
}

func DeleteCollectionHandler(c *fiber.Ctx) error {
	collectionID, err := c.ParamsInt("id")
	if err != nil {
		return response.BadRequest(c, "Invalid collection ID", nil)
	}

	confirmed := c.QueryBool("confirm", false)
	if err := DeleteCollection(uint(collectionID), confirmed); err != nil {
		return respondError(c, err)
	}
	return response.NoContent(c)
}

func GetCollectionHandler(c *fiber.Ctx) error {
	collectionID, err := c.ParamsInt("id")
	if err != nil {
		return response.BadRequest(c, "Invalid collection ID", nil)
	}

	row, err := GetCollection(uint(collectionID))
	if err != nil {
		return respondError(c, err)
	}
	return response.Success(c, row, "")
}

// GetResolvedSchemaHandler serves the schema the editor UI builds its
// element palette and metadata forms from.
func GetResolvedSchemaHandler(c *fiber.Ctx) error {
	collectionID, err := c.ParamsInt("id")
	if err != nil {
		return response.BadRequest(c, "Invalid collection ID", nil)
	}

	resolved, err := ResolvedSchema(uint(collectionID))
	if err != nil {
		return respondError(c, err)
	}
	return response.Success(c, resolved, "")
}

func ListCollectionsHandler(c *fiber.Ctx) error {
	rows, err := ListCollections()
	if err != nil {
		return response.InternalError(c, "Failed to list collections")
	}
	return response.Success(c, rows, "")
}

func respondError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ErrInvalidSlug):
		return response.BadRequest(c, err.Error(), nil)
	case errors.Is(err, ErrCollectionNotFound):
		return response.NotFound(c, "Collection")
	case errors.Is(err, ErrSlugImmutable):
		return response.Conflict(c, err.Error())
	case errors.Is(err, ErrHasContents):
		return response.Conflict(c, err.Error())
	default:
		return response.InternalError(c, "Something went wrong")
	}
}
