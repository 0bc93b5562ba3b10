package content

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/strata-cms/strata/internal/customelement"
	"github.com/strata-cms/strata/internal/element"
	"github.com/strata-cms/strata/internal/filter"
	"github.com/strata-cms/strata/internal/response"
	"github.com/strata-cms/strata/internal/version"
	"gorm.io/gorm"
)

type MoveElementRequest struct {
	ElementID   string `json:"element_id"`
	NewParentID string `json:"new_parent_id,omitempty"`
	NewOrder    int    `json:"new_order"`
}

type RestoreRequest struct {
	VersionNumber int `json:"version_number"`
}

func CreateContentHandler(c *fiber.Ctx) error {
	collectionID, err := c.ParamsInt("collection_id")
	if err != nil {
		return response.BadRequest(c, "Invalid collection ID", nil)
	}
	userID := c.Locals("user_id").(uint)

	var body SaveRequest
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}

	row, err := CreateContent(uint(collectionID), body, userID, customelement.DefaultRegistry())
	if err != nil {
		return respondError(c, err)
	}

	return response.Created(c, row, "Content created successfully")
}

func GetContentHandler(c *fiber.Ctx) error {
	contentID, err := c.ParamsInt("content_id")
	if err != nil {
		return response.BadRequest(c, "Invalid content ID", nil)
	}

	row, err := GetContent(uint(contentID))
	if err != nil {
		return respondError(c, err)
	}
	return response.Success(c, row, "")
}

func UpdateContentHandler(c *fiber.Ctx) error {
	contentID, err := c.ParamsInt("content_id")
	if err != nil {
		return response.BadRequest(c, "Invalid content ID", nil)
	}
	userID := c.Locals("user_id").(uint)

	var body SaveRequest
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}

	row, err := UpdateContent(uint(contentID), body, userID, customelement.DefaultRegistry())
	if err != nil {
		return respondError(c, err)
	}
	return response.Success(c, row, "Content updated successfully")
}

func DeleteContentHandler(c *fiber.Ctx) error {
	contentID, err := c.ParamsInt("content_id")
	if err != nil {
		return response.BadRequest(c, "Invalid content ID", nil)
	}

	if err := DeleteContent(uint(contentID)); err != nil {
		return respondError(c, err)
	}
	return response.NoContent(c)
}

func ListContentsHandler(c *fiber.Ctx) error {
	collectionID, err := c.ParamsInt("collection_id")
	if err != nil {
		return response.BadRequest(c, "Invalid collection ID", nil)
	}

	params := ListParams{
		Status: c.Query("status"),
		Page:   c.QueryInt("page", 1),
		Limit:  c.QueryInt("limit", 0),
	}

	result, err := ListContents(uint(collectionID), params)
	if err != nil {
		return respondError(c, err)
	}

	meta := response.CalculateMeta(result.Page, result.Limit, result.Total)
	return response.SuccessWithMeta(c, result.Contents, meta, "")
}

// QueryContentsHandler accepts a filter condition tree and sort rules in
// the body, for the saved-filter UI.
func QueryContentsHandler(c *fiber.Ctx) error {
	collectionID, err := c.ParamsInt("collection_id")
	if err != nil {
		return response.BadRequest(c, "Invalid collection ID", nil)
	}

	var params ListParams
	if err := c.BodyParser(&params); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}

	result, err := ListContents(uint(collectionID), params)
	if err != nil {
		return respondError(c, err)
	}

	meta := response.CalculateMeta(result.Page, result.Limit, result.Total)
	return response.SuccessWithMeta(c, result.Contents, meta, "")
}

func MoveElementHandler(c *fiber.Ctx) error {
	contentID, err := c.ParamsInt("content_id")
	if err != nil {
		return response.BadRequest(c, "Invalid content ID", nil)
	}
	userID := c.Locals("user_id").(uint)

	var body MoveElementRequest
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}
	if body.ElementID == "" {
		return response.ValidationError(c, map[string]string{"element_id": "element_id is required"})
	}

	row, err := MoveElement(uint(contentID), body.ElementID, body.NewParentID, body.NewOrder, userID, customelement.DefaultRegistry())
	if err != nil {
		return respondError(c, err)
	}
	return response.Success(c, row, "Element moved successfully")
}

func ListVersionsHandler(c *fiber.Ctx) error {
	contentID, err := c.ParamsInt("content_id")
	if err != nil {
		return response.BadRequest(c, "Invalid content ID", nil)
	}

	versions, err := version.ListVersions(uint(contentID))
	if err != nil {
		return respondError(c, err)
	}
	return response.Success(c, versions, "")
}

func GetVersionHandler(c *fiber.Ctx) error {
	contentID, err := c.ParamsInt("content_id")
	if err != nil {
		return response.BadRequest(c, "Invalid content ID", nil)
	}
	number, err := c.ParamsInt("number")
	if err != nil {
		return response.BadRequest(c, "Invalid version number", nil)
	}

	row, err := version.GetVersion(uint(contentID), number)
	if err != nil {
		return respondError(c, err)
	}
	return response.Success(c, row, "")
}

// DiffVersionsHandler summarizes the changes between two versions of the
// same content, ?from=N&to=M.
func DiffVersionsHandler(c *fiber.Ctx) error {
	contentID, err := c.ParamsInt("content_id")
	if err != nil {
		return response.BadRequest(c, "Invalid content ID", nil)
	}

	from := c.QueryInt("from", 0)
	to := c.QueryInt("to", 0)
	if from <= 0 || to <= 0 {
		return response.BadRequest(c, "Both from and to version numbers are required", nil)
	}

	oldTree, err := versionTree(uint(contentID), from)
	if err != nil {
		return respondError(c, err)
	}
	newTree, err := versionTree(uint(contentID), to)
	if err != nil {
		return respondError(c, err)
	}

	return response.Success(c, version.DiffSummary(oldTree, newTree), "")
}

func RestoreVersionHandler(c *fiber.Ctx) error {
	contentID, err := c.ParamsInt("content_id")
	if err != nil {
		return response.BadRequest(c, "Invalid content ID", nil)
	}
	userID := c.Locals("user_id").(uint)

	var body RestoreRequest
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}
	if body.VersionNumber <= 0 {
		return response.ValidationError(c, map[string]string{"version_number": "version_number is required"})
	}

	restored, err := version.RestoreVersion(uint(contentID), body.VersionNumber, userID)
	if err != nil {
		return respondError(c, err)
	}
	return response.Created(c, restored, "Version restored successfully")
}

func PublishHandler(c *fiber.Ctx) error {
	contentID, err := c.ParamsInt("content_id")
	if err != nil {
		return response.BadRequest(c, "Invalid content ID", nil)
	}
	userID := c.Locals("user_id").(uint)

	row, err := version.Publish(uint(contentID), userID, customelement.DefaultRegistry())
	if err != nil {
		return respondError(c, err)
	}
	return response.Success(c, row, "Content published successfully")
}

func UnpublishHandler(c *fiber.Ctx) error {
	contentID, err := c.ParamsInt("content_id")
	if err != nil {
		return response.BadRequest(c, "Invalid content ID", nil)
	}
	userID := c.Locals("user_id").(uint)

	row, err := version.Unpublish(uint(contentID), userID)
	if err != nil {
		return respondError(c, err)
	}
	return response.Success(c, row, "Content unpublished successfully")
}

func ArchiveHandler(c *fiber.Ctx) error {
	contentID, err := c.ParamsInt("content_id")
	if err != nil {
		return response.BadRequest(c, "Invalid content ID", nil)
	}
	userID := c.Locals("user_id").(uint)

	row, err := version.Archive(uint(contentID), userID)
	if err != nil {
		return respondError(c, err)
	}
	return response.Success(c, row, "Content archived successfully")
}

func versionTree(contentID uint, number int) ([]element.BlockElement, error) {
	row, err := version.GetVersion(contentID, number)
	if err != nil {
		return nil, err
	}

	var tree []element.BlockElement
	if len(row.Elements) > 0 {
		if err := json.Unmarshal(row.Elements, &tree); err != nil {
			return nil, err
		}
	}
	return tree, nil
}

// respondError maps the core's typed errors onto the response envelope.
func respondError(c *fiber.Ctx, err error) error {
	var verr *element.ValidationError
	switch {
	case errors.As(err, &verr):
		return response.ValidationError(c, verr.Errors)
	case errors.Is(err, element.ErrInvalidMove):
		return response.Error(c, fiber.StatusUnprocessableEntity, "INVALID_MOVE", err.Error(), nil)
	case errors.Is(err, element.ErrElementNotFound):
		return response.Error(c, fiber.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	case errors.Is(err, version.ErrVersionNotFound):
		return response.Error(c, fiber.StatusNotFound, "VERSION_NOT_FOUND", "Version not found", nil)
	case errors.Is(err, version.ErrContentNotFound):
		return response.NotFound(c, "Content")
	case errors.Is(err, version.ErrConflict):
		return response.Conflict(c, err.Error())
	case errors.Is(err, version.ErrInvalidTransition):
		return response.Error(c, fiber.StatusConflict, "INVALID_TRANSITION", err.Error(), nil)
	case errors.Is(err, filter.ErrInvalidCondition):
		return response.Error(c, fiber.StatusUnprocessableEntity, "INVALID_FILTER_CONDITION", err.Error(), nil)
	case errors.Is(err, filter.ErrInvalidSort):
		return response.Error(c, fiber.StatusUnprocessableEntity, "INVALID_SORT", err.Error(), nil)
	case errors.Is(err, gorm.ErrRecordNotFound):
		return response.NotFound(c, "Resource")
	default:
		return response.InternalError(c, "Something went wrong")
	}
}
