// Package validation содержит функции валидации входных данных.
package validation

import (
	"path/filepath"
	"regexp"
	"strings"
)

// Ограничения на загружаемые файлы.
const (
	// MaxFileSize — предельный размер одного файла (100 МиБ).
	MaxFileSize = 100 * 1024 * 1024
	// MaxPDFSize — предельный размер PDF для заявки в формате base64 (50 МиБ).
	MaxPDFSize = 50 * 1024 * 1024
	// MaxFiles — максимальное число файлов в одной заявке.
	MaxFiles = 10
)

// AllowedExtensions — допустимые расширения загружаемых файлов.
var AllowedExtensions = []string{"pdf", "dwg", "jpg", "jpeg", "png", "zip"}

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// IsValidEmail проверяет адрес на соответствие форме local@domain.tld.
func IsValidEmail(email string) bool {
	return emailRe.MatchString(email)
}

// IsAllowedExtension проверяет расширение файла по белому списку.
func IsAllowedExtension(filename string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	for _, allowed := range AllowedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// AcceptedFormats возвращает список допустимых форматов для сообщения об ошибке.
func AcceptedFormats() string {
	return "PDF, DWG, JPG, PNG, ZIP"
}
