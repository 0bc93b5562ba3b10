package customelement

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/strata-cms/strata/internal/response"
)

type ReorderRequest struct {
	Types []string `json:"types"`
}

type GenerateTypeRequest struct {
	Label string `json:"label"`
}

func CreateDefinitionHandler(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(uint)

	var body Definition
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}

	if body.Type == "" && body.Label != "" {
		body.Type = GenerateType(body.Label)
	}
	if body.Label == "" {
		return response.ValidationError(c, map[string]string{"label": "label is required"})
	}

	row, err := CreateDefinition(&body, userID)
	if err != nil {
		return respondError(c, err)
	}
	return response.Created(c, row, "Custom element created successfully")
}

func UpdateDefinitionHandler(c *fiber.Ctx) error {
	elementType := c.Params("type")

	var body Definition
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}

	row, err := UpdateDefinition(elementType, &body)
	if err != nil {
		return respondError(c, err)
	}
	return response.Success(c, row, "Custom element updated successfully")
}

func DeleteDefinitionHandler(c *fiber.Ctx) error {
	elementType := c.Params("type")

	if err := DeleteDefinition(elementType); err != nil {
		return respondError(c, err)
	}
	return response.NoContent(c)
}

func GetDefinitionHandler(c *fiber.Ctx) error {
	row, err := GetDefinition(c.Params("type"))
	if err != nil {
		return respondError(c, err)
	}
	return response.Success(c, row, "")
}

func ListDefinitionsHandler(c *fiber.Ctx) error {
	category := c.Query("category")
	if category != "" && !IsValidCategory(category) {
		return response.BadRequest(c, "Unknown category", category)
	}

	rows, err := ListDefinitions(category)
	if err != nil {
		return response.InternalError(c, "Failed to list custom elements")
	}
	return response.Success(c, rows, "")
}

func ReorderDefinitionsHandler(c *fiber.Ctx) error {
	var body ReorderRequest
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}
	if len(body.Types) == 0 {
		return response.ValidationError(c, map[string]string{"types": "types list is required"})
	}

	if err := ReorderDefinitions(body.Types); err != nil {
		return respondError(c, err)
	}
	return response.Success(c, nil, "Custom elements reordered successfully")
}

// GenerateTypeHandler previews the type slug a label would produce, so
// the admin UI can show it before the definition is created.
func GenerateTypeHandler(c *fiber.Ctx) error {
	var body GenerateTypeRequest
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}
	if body.Label == "" {
		return response.ValidationError(c, map[string]string{"label": "label is required"})
	}

	return response.Success(c, fiber.Map{"type": GenerateType(body.Label)}, "")
}

func respondError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ErrDuplicateType):
		return response.Error(c, fiber.StatusConflict, "DUPLICATE_TYPE", err.Error(), nil)
	case errors.Is(err, ErrSystemElementProtected):
		return response.Error(c, fiber.StatusForbidden, "SYSTEM_ELEMENT_PROTECTED", err.Error(), nil)
	case errors.Is(err, ErrDefinitionNotFound):
		return response.NotFound(c, "Custom element definition")
	default:
		return response.BadRequest(c, err.Error(), nil)
	}
}
