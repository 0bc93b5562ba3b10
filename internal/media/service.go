package media

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"mime/multipart"

	"github.com/strata-cms/strata/internal/database"
	"github.com/strata-cms/strata/internal/element"
	"github.com/strata-cms/strata/internal/models"
	"github.com/strata-cms/strata/internal/schema"
	"github.com/strata-cms/strata/internal/utils"
	"gorm.io/gorm"
)

var (
	ErrMediaNotFound  = errors.New("media not found")
	ErrFolderNotFound = errors.New("folder not found")
	// ErrMediaInUse protects element trees from dangling media URLs:
	// a referenced asset needs an explicit forced delete.
	ErrMediaInUse   = errors.New("media is referenced by content")
	ErrFileTooLarge = errors.New("file too large")
)

// maxUploadSize comes from the media element's default config so the
// library refuses exactly what the element tree would refuse.
func maxUploadSize() int64 {
	cfg := schema.Default().GetElementConfig("media")
	if size, ok := cfg["max_size"].(float64); ok {
		return int64(size)
	}
	return 50 * 1024 * 1024
}

type UploadedMedia struct {
	File    models.MediaFile `json:"file"`
	Element ElementPayload   `json:"element"`
}

// ElementPayload is a ready-to-insert media node for the element tree
// editor: the caller drops it into a content's elements as-is.
type ElementPayload struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}

type UploadOptions struct {
	Folder  string
	Alt     string
	Caption string
	Tags    []string
}

// StoreUpload saves the file to the active storage backend and records
// it in the library.
func StoreUpload(file *multipart.FileHeader, actor uint, opts UploadOptions) (*UploadedMedia, error) {
	if file.Size > maxUploadSize() {
		return nil, fmt.Errorf("%w: %d bytes, limit is %d", ErrFileTooLarge, file.Size, maxUploadSize())
	}

	url, err := utils.UploadFile(file)
	if err != nil {
		return nil, err
	}

	mime := file.Header.Get("Content-Type")
	row := models.MediaFile{
		FileName:   file.Filename,
		URL:        url,
		Kind:       utils.KindFromMIME(mime),
		MIME:       mime,
		Size:       file.Size,
		Folder:     opts.Folder,
		Alt:        opts.Alt,
		Caption:    opts.Caption,
		UploadedBy: actor,
	}

	if row.Kind == "image" {
		if width, height, err := imageDimensions(file); err == nil {
			row.Width = &width
			row.Height = &height
		}
	}

	if len(opts.Tags) > 0 {
		tagsJSON, err := json.Marshal(opts.Tags)
		if err == nil {
			row.Tags = tagsJSON
		}
	}

	if err := database.DB.Create(&row).Error; err != nil {
		utils.DeleteFile(url)
		return nil, err
	}
	database.DB.Preload("Uploader").First(&row, row.ID)

	return &UploadedMedia{File: row, Element: elementPayload(&row)}, nil
}

func GetMedia(id uint) (*models.MediaFile, int64, error) {
	var row models.MediaFile
	if err := database.DB.Preload("Uploader").First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, ErrMediaNotFound
		}
		return nil, 0, err
	}
	return &row, countUsage(row.URL), nil
}

// DeleteMedia removes the record and the stored file. Assets still
// referenced from content element trees are kept unless force is set.
func DeleteMedia(id uint, force bool) error {
	var row models.MediaFile
	if err := database.DB.First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMediaNotFound
		}
		return err
	}

	if !force {
		if used := countUsage(row.URL); used > 0 {
			return fmt.Errorf("%w: %d contents reference it, pass force to delete anyway", ErrMediaInUse, used)
		}
	}

	storageErr := utils.DeleteFile(row.URL)
	if err := database.DB.Delete(&row).Error; err != nil {
		return err
	}
	return storageErr
}

// countUsage scans content element trees for the media URL. Trees are
// stored as JSON, so a substring match on the serialized column finds
// every media node pointing at the asset.
func countUsage(url string) int64 {
	if url == "" {
		return 0
	}
	pattern := fmt.Sprintf(`%%%q%%`, url)
	var count int64
	database.DB.Model(&models.Content{}).
		Where("elements LIKE ?", pattern).
		Count(&count)
	return count
}

func elementPayload(row *models.MediaFile) ElementPayload {
	data := map[string]any{
		"url":  row.URL,
		"kind": row.Kind,
	}
	if row.Alt != "" {
		data["alt"] = row.Alt
	}
	if row.Caption != "" {
		data["caption"] = row.Caption
	}
	return ElementPayload{Type: string(element.TypeMedia), Data: data}
}

func imageDimensions(file *multipart.FileHeader) (int, int, error) {
	src, err := file.Open()
	if err != nil {
		return 0, 0, err
	}
	defer src.Close()

	img, _, err := image.DecodeConfig(src)
	if err != nil {
		return 0, 0, err
	}
	return img.Width, img.Height, nil
}

// CreateFolder materializes the path from the parent chain.
func CreateFolder(name string, parentID *uint, actor uint) (*models.MediaFolder, error) {
	path := "/" + name
	if parentID != nil {
		var parent models.MediaFolder
		if err := database.DB.First(&parent, *parentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrFolderNotFound
			}
			return nil, err
		}
		path = parent.Path + "/" + name
	}

	folder := models.MediaFolder{
		Name:      name,
		Path:      path,
		ParentID:  parentID,
		CreatedBy: actor,
	}
	if err := database.DB.Create(&folder).Error; err != nil {
		return nil, err
	}
	return &folder, nil
}
