// Package basket реализует корзину загружаемых файлов до отправки заявки.
package basket

import (
	"errors"
	"fmt"

	"github.com/houseinmeta/backend/internal/model"
	"github.com/houseinmeta/backend/internal/validation"
)

// ErrIndexOutOfRange возвращается при удалении файла по несуществующему индексу.
var ErrIndexOutOfRange = errors.New("file index out of range")

// RejectReason — причина отклонения файла корзиной.
type RejectReason string

const (
	RejectBadExtension RejectReason = "bad_extension"
	RejectTooLarge     RejectReason = "too_large"
)

// RejectError описывает отклонённый файл и причину отклонения.
type RejectError struct {
	File   string
	Reason RejectReason
}

func (e *RejectError) Error() string {
	switch e.Reason {
	case RejectBadExtension:
		return fmt.Sprintf("invalid file format: %s. Accepted: %s", e.File, validation.AcceptedFormats())
	case RejectTooLarge:
		return fmt.Sprintf("file size exceeds 100MB limit: %s", e.File)
	}
	return fmt.Sprintf("file rejected: %s", e.File)
}

// Basket — упорядоченная коллекция принятых файлов.
// Не потокобезопасна: корзина принадлежит одной сессии оформления.
type Basket struct {
	files []model.UploadedFile
}

// New создаёт пустую корзину.
func New() *Basket {
	return &Basket{}
}

func validate(f model.UploadedFile) error {
	if !validation.IsAllowedExtension(f.Name) {
		return &RejectError{File: f.Name, Reason: RejectBadExtension}
	}
	if f.Size > validation.MaxFileSize {
		return &RejectError{File: f.Name, Reason: RejectTooLarge}
	}
	return nil
}

// Add принимает один файл либо возвращает причину отклонения.
func (b *Basket) Add(f model.UploadedFile) error {
	if err := validate(f); err != nil {
		return err
	}
	b.files = append(b.files, f)
	return nil
}

// AddBatch принимает группу файлов целиком: один невалидный файл
// отклоняет всю группу, состав корзины при этом не меняется.
func (b *Basket) AddBatch(files []model.UploadedFile) error {
	for _, f := range files {
		if err := validate(f); err != nil {
			return err
		}
	}
	b.files = append(b.files, files...)
	return nil
}

// Remove удаляет файл по индексу с сохранением порядка остальных.
func (b *Basket) Remove(index int) error {
	if index < 0 || index >= len(b.files) {
		return ErrIndexOutOfRange
	}
	b.files = append(b.files[:index], b.files[index+1:]...)
	return nil
}

// List возвращает файлы в порядке добавления.
func (b *Basket) List() []model.UploadedFile {
	out := make([]model.UploadedFile, len(b.files))
	copy(out, b.files)
	return out
}

// Len возвращает число файлов в корзине.
func (b *Basket) Len() int {
	return len(b.files)
}

// Clear очищает корзину после отправки или сброса формы.
func (b *Basket) Clear() {
	b.files = nil
}
