package utils

import (
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Storage puts uploaded files somewhere URL-addressable. The local disk
// and S3 implementations lay keys out the same way so a library can be
// migrated between backends without rewriting stored URLs structurally.
type Storage interface {
	Put(file *multipart.FileHeader) (string, error)
	Remove(url string) error
	Mode() string
}

var activeStorage Storage = &LocalStorage{BaseDir: "./uploads"}

// KindFromMIME buckets a content type into the media kinds the element
// tree understands: image, video, audio or file.
func KindFromMIME(contentType string) string {
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return "image"
	case strings.HasPrefix(contentType, "video/"):
		return "video"
	case strings.HasPrefix(contentType, "audio/"):
		return "audio"
	default:
		return "file"
	}
}

// objectKey builds the storage key for an upload: kind/yyyy/mm/uuid.ext.
// The original filename never reaches the key, only its extension.
func objectKey(file *multipart.FileHeader) string {
	ext := strings.ToLower(filepath.Ext(file.Filename))
	return fmt.Sprintf("%s/%s/%s%s",
		KindFromMIME(file.Header.Get("Content-Type")),
		time.Now().Format("2006/01"),
		uuid.New().String(),
		ext,
	)
}

func UploadFile(file *multipart.FileHeader) (string, error) {
	return activeStorage.Put(file)
}

func DeleteFile(url string) error {
	return activeStorage.Remove(url)
}

func GetStorageMode() string {
	return activeStorage.Mode()
}

// SetStorageMode forces local storage when useLocal is true. It exists
// for the S3 fallback path at startup and for tests.
func SetStorageMode(useLocal bool) {
	if useLocal {
		activeStorage = &LocalStorage{BaseDir: "./uploads"}
	}
}
