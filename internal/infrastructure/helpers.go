package infrastructure

import (
	"mime"
	"path/filepath"
	"strings"
)

// GetExtensionFromMIME возвращает расширение файла по MIME-типу загрузки.
// Если тип неизвестен, используется расширение исходного имени файла, иначе "bin".
func GetExtensionFromMIME(contentType, fileName string) string {
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		switch strings.ToLower(mediaType) {
		case "text/csv", "application/csv", "application/vnd.ms-excel":
			return "csv"
		}
	}

	if ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(fileName)), "."); ext != "" {
		return ext
	}

	return "bin"
}
