package validators

import (
	"sync"

	"github.com/go-playground/validator/v10"

	"musicstore/domain/core/entities"
	"musicstore/pkg/errors"
)

var (
	once     sync.Once
	validate *validator.Validate
)

func instance() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// ValidateAlbum checks an album against the catalog rules and returns a
// VALIDATION AppError listing every failed field.
func ValidateAlbum(album *entities.Album) error {
	if album == nil {
		return errors.NewValidationError("album is required")
	}
	if err := instance().Struct(album); err != nil {
		return errors.FromValidation(err)
	}
	return nil
}
