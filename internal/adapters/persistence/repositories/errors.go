package repositories

import (
	"errors"

	"gorm.io/gorm"
)

// translate maps gorm errors to store-agnostic repository errors.
// Requires gorm.Config.TranslateError for duplicate detection.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrRecordNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	default:
		return err
	}
}
