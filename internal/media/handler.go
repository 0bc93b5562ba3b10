package media

import (
	"encoding/json"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/microcosm-cc/bluemonday"
	"github.com/strata-cms/strata/internal/database"
	"github.com/strata-cms/strata/internal/models"
	"github.com/strata-cms/strata/internal/response"
	"github.com/strata-cms/strata/internal/utils"
)

var captionPolicy = bluemonday.UGCPolicy()

// mediaKinds is the filter vocabulary: the same kinds the media element
// accepts in its data.
var mediaKinds = map[string]bool{"image": true, "video": true, "audio": true, "file": true}

func UploadMediaHandler(c *fiber.Ctx) error {
	actor := c.Locals("user_id").(uint)

	file, err := c.FormFile("file")
	if err != nil {
		return response.BadRequest(c, "File is required", nil)
	}

	var tags []string
	json.Unmarshal([]byte(c.FormValue("tags", "[]")), &tags)

	uploaded, err := StoreUpload(file, actor, UploadOptions{
		Folder:  c.FormValue("folder", ""),
		Alt:     c.FormValue("alt", ""),
		Caption: captionPolicy.Sanitize(c.FormValue("caption", "")),
		Tags:    tags,
	})
	if err != nil {
		return respondError(c, err)
	}
	return response.Created(c, uploaded, "Media uploaded successfully")
}

func BulkUploadMediaHandler(c *fiber.Ctx) error {
	actor := c.Locals("user_id").(uint)
	folder := c.FormValue("folder", "")

	form, err := c.MultipartForm()
	if err != nil {
		return response.BadRequest(c, "Invalid form data", err.Error())
	}
	files := form.File["files"]
	if len(files) == 0 {
		return response.BadRequest(c, "No files provided", nil)
	}

	uploaded := []UploadedMedia{}
	failed := []map[string]string{}
	for _, file := range files {
		result, err := StoreUpload(file, actor, UploadOptions{Folder: folder})
		if err != nil {
			failed = append(failed, map[string]string{
				"filename": file.Filename,
				"error":    err.Error(),
			})
			continue
		}
		uploaded = append(uploaded, *result)
	}

	result := fiber.Map{
		"uploaded": len(uploaded),
		"failed":   len(failed),
		"files":    uploaded,
	}
	if len(failed) > 0 {
		result["errors"] = failed
	}
	return response.Created(c, result, "Bulk upload completed")
}

func ListMediaHandler(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	query := database.DB.Model(&models.MediaFile{})

	if kind := c.Query("kind", ""); kind != "" {
		if !mediaKinds[kind] {
			return response.BadRequest(c, "Unknown media kind", map[string]string{"kind": kind})
		}
		query = query.Where("kind = ?", kind)
	}
	if folder := c.Query("folder", ""); folder != "" {
		query = query.Where("folder = ?", folder)
	}
	if search := c.Query("search", ""); search != "" {
		like := "%" + search + "%"
		query = query.Where("file_name LIKE ? OR alt LIKE ? OR caption LIKE ?", like, like, like)
	}

	var total int64
	query.Count(&total)

	var rows []models.MediaFile
	query.Preload("Uploader").
		Offset((page - 1) * limit).
		Limit(limit).
		Order("created_at DESC").
		Find(&rows)

	meta := response.CalculateMeta(page, limit, total)
	return response.SuccessWithMeta(c, rows, meta, "Media files retrieved successfully")
}

func SearchMediaHandler(c *fiber.Ctx) error {
	q := c.Query("q", "")
	if q == "" {
		return response.BadRequest(c, "Search query is required", nil)
	}
	// Search is list with the search filter pinned.
	c.Request().URI().QueryArgs().Set("search", q)
	return ListMediaHandler(c)
}

func GetMediaHandler(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return response.BadRequest(c, "Invalid media ID", nil)
	}

	row, usage, err := GetMedia(uint(id))
	if err != nil {
		return respondError(c, err)
	}
	return response.Success(c, fiber.Map{
		"file":    row,
		"element": elementPayload(row),
		"usage":   usage,
	}, "Media retrieved successfully")
}

func UpdateMediaHandler(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return response.BadRequest(c, "Invalid media ID", nil)
	}

	var row models.MediaFile
	if err := database.DB.First(&row, id).Error; err != nil {
		return response.NotFound(c, "Media")
	}

	var body struct {
		Alt     string   `json:"alt"`
		Caption string   `json:"caption"`
		Folder  string   `json:"folder"`
		Tags    []string `json:"tags"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}

	row.Alt = body.Alt
	row.Caption = captionPolicy.Sanitize(body.Caption)
	row.Folder = body.Folder
	if len(body.Tags) > 0 {
		if tagsJSON, err := json.Marshal(body.Tags); err == nil {
			row.Tags = tagsJSON
		}
	}

	if err := database.DB.Save(&row).Error; err != nil {
		return response.InternalError(c, "Failed to update media")
	}
	return response.Success(c, row, "Media updated successfully")
}

func DeleteMediaHandler(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return response.BadRequest(c, "Invalid media ID", nil)
	}

	if err := DeleteMedia(uint(id), c.QueryBool("force", false)); err != nil {
		return respondError(c, err)
	}
	return response.NoContent(c)
}

func GetMediaStatsHandler(c *fiber.Ctx) error {
	var stats struct {
		TotalFiles  int64            `json:"total_files"`
		TotalSize   int64            `json:"total_size_bytes"`
		ByKind      map[string]int64 `json:"by_kind"`
		StorageMode string           `json:"storage_mode"`
	}

	database.DB.Model(&models.MediaFile{}).Count(&stats.TotalFiles)
	database.DB.Model(&models.MediaFile{}).
		Select("COALESCE(SUM(size), 0)").
		Row().Scan(&stats.TotalSize)

	stats.ByKind = make(map[string]int64)
	rows, err := database.DB.Model(&models.MediaFile{}).
		Select("kind, COUNT(*) as count").
		Group("kind").Rows()
	if err == nil {
		defer rows.Close()
		for rows.Next() {
			var kind string
			var count int64
			rows.Scan(&kind, &count)
			stats.ByKind[kind] = count
		}
	}

	stats.StorageMode = utils.GetStorageMode()
	return response.Success(c, stats, "Media statistics retrieved successfully")
}

func CreateFolderHandler(c *fiber.Ctx) error {
	actor := c.Locals("user_id").(uint)

	var body struct {
		Name     string `json:"name"`
		ParentID *uint  `json:"parent_id,omitempty"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}
	if body.Name == "" {
		return response.ValidationError(c, map[string]string{"name": "folder name is required"})
	}

	folder, err := CreateFolder(body.Name, body.ParentID, actor)
	if err != nil {
		return respondError(c, err)
	}
	return response.Created(c, folder, "Folder created successfully")
}

func ListFoldersHandler(c *fiber.Ctx) error {
	var folders []models.MediaFolder
	if err := database.DB.Preload("Parent").Order("path").Find(&folders).Error; err != nil {
		return response.InternalError(c, "Failed to fetch folders")
	}
	return response.Success(c, folders, "Folders retrieved successfully")
}

func respondError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ErrMediaNotFound):
		return response.NotFound(c, "Media")
	case errors.Is(err, ErrFolderNotFound):
		return response.NotFound(c, "Parent folder")
	case errors.Is(err, ErrMediaInUse):
		return response.Conflict(c, err.Error())
	case errors.Is(err, ErrFileTooLarge):
		return response.BadRequest(c, err.Error(), nil)
	default:
		return response.InternalError(c, "Something went wrong")
	}
}
