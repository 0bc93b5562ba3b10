package utils

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
)

// LocalStorage writes uploads under BaseDir and serves them from the
// /uploads static route.
type LocalStorage struct {
	BaseDir string
}

// InitLocalStorage creates the upload directories for every media kind
// and selects local storage as the active backend.
func InitLocalStorage() error {
	store := &LocalStorage{BaseDir: "./uploads"}
	for _, kind := range []string{"image", "video", "audio", "file"} {
		if err := os.MkdirAll(filepath.Join(store.BaseDir, kind), 0755); err != nil {
			return fmt.Errorf("failed to create upload directory for %s: %w", kind, err)
		}
	}
	activeStorage = store
	return nil
}

func (s *LocalStorage) Put(file *multipart.FileHeader) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	key := objectKey(file)
	fullPath := filepath.Join(s.BaseDir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", err
	}

	dst, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	return "/uploads/" + key, nil
}

func (s *LocalStorage) Remove(url string) error {
	key := strings.TrimPrefix(url, "/uploads/")
	fullPath := filepath.Join(s.BaseDir, filepath.FromSlash(key))

	// Resolve both sides so a crafted URL cannot escape the upload root.
	absPath, err := filepath.Abs(fullPath)
	if err != nil {
		return fmt.Errorf("invalid file path: %w", err)
	}
	baseAbs, err := filepath.Abs(s.BaseDir)
	if err != nil {
		return fmt.Errorf("invalid base path: %w", err)
	}
	if real, err := filepath.EvalSymlinks(absPath); err == nil {
		absPath = real
	}
	if !strings.HasPrefix(absPath, baseAbs+string(os.PathSeparator)) {
		return fmt.Errorf("file path outside upload directory")
	}

	if _, err := os.Stat(absPath); os.IsNotExist(err) {
		return fmt.Errorf("file not found: %s", key)
	}
	return os.Remove(absPath)
}

func (s *LocalStorage) Mode() string { return "local" }
