package utils

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

func GetFileExtension(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}

func IsAllowedFileType(filename string, allowedTypes []string) bool {
	ext := strings.TrimPrefix(GetFileExtension(filename), ".")
	for _, allowedType := range allowedTypes {
		if ext == allowedType {
			return true
		}
	}
	return false
}

func IsImageFile(filename string) bool {
	return IsAllowedFileType(filename, AllowedImageTypes)
}

// GenerateStorageKey builds a collision-free object key under folder, e.g.
// cars/2024/05/1715000000_<uuid>.jpg.
func GenerateStorageKey(folder, extension string) string {
	now := time.Now().UTC()
	name := fmt.Sprintf("%d_%s%s", now.Unix(), uuid.NewString(), strings.ToLower(extension))
	return path.Join(folder, now.Format("2006"), now.Format("01"), name)
}
