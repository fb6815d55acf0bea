// Package storage persists uploaded recipe images on local disk.
// Image writes are not transactional with the database row that records
// the path; a crash between the two may orphan a file.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// recipeSubdir is the subdirectory for recipe images under the upload root.
const recipeSubdir = "recipe"

// ImageStore writes images below a fixed upload directory.
type ImageStore struct {
	root string
}

// NewImageStore creates an ImageStore rooted at the given directory.
// The directory is created on first write, not here.
func NewImageStore(root string) *ImageStore {
	return &ImageStore{root: filepath.Clean(root)}
}

// Root returns the upload root directory.
func (s *ImageStore) Root() string {
	return s.root
}

// SaveRecipeImage stores image bytes under a freshly generated filename
// and returns the stored path relative to the process working directory,
// e.g. "uploads/recipe/8c1f6a52-6a3e-4d1b-9a8f-0c2d4e6f8a1b.jpg".
func (s *ImageStore) SaveRecipeImage(ext string, data []byte) (string, error) {
	ext = normalizeExt(ext)

	dir := filepath.Join(s.root, recipeSubdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload directory: %w", err)
	}

	name := uuid.New().String() + ext
	path := filepath.Join(dir, name)

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write image file: %w", err)
	}

	return filepath.ToSlash(path), nil
}

// Remove deletes a previously stored image. Missing files are not an error;
// replacement cleanup is best effort.
func (s *ImageStore) Remove(path string) error {
	if path == "" {
		return nil
	}

	// Refuse paths outside the upload root.
	clean := filepath.Clean(filepath.FromSlash(path))
	if !strings.HasPrefix(clean, s.root+string(filepath.Separator)) {
		return fmt.Errorf("path %q is outside the upload root", path)
	}

	if err := os.Remove(clean); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove image file: %w", err)
	}

	return nil
}

// normalizeExt lowercases an extension and ensures a leading dot.
func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" {
		return ""
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
