// Package validate wraps go-playground/validator for request-DTO
// validation at HTTP and message-consumer boundaries.
package validate

import (
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/apperr"
)

var (
	instance *validator.Validate
	once     sync.Once
)

func get() *validator.Validate {
	once.Do(func() {
		instance = validator.New(validator.WithRequiredStructEnabled())
	})
	return instance
}

// Struct validates v against its `validate:"..."` tags and returns a
// *apperr.Error of KindValidation describing every failing field, or nil.
func Struct(v any) error {
	if err := get().Struct(v); err != nil {
		var fieldErrs validator.ValidationErrors
		if errsAs(err, &fieldErrs) {
			return apperr.New(apperr.KindValidation, summarize(fieldErrs))
		}
		return apperr.Wrap(apperr.KindValidation, "validation failed", err)
	}
	return nil
}

func errsAs(err error, target *validator.ValidationErrors) bool {
	ve, ok := err.(validator.ValidationErrors)
	if !ok {
		return false
	}
	*target = ve
	return true
}

func summarize(errs validator.ValidationErrors) string {
	parts := make([]string, 0, len(errs))
	for _, fe := range errs {
		parts = append(parts, fmt.Sprintf("%s failed on %q", fe.Field(), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}
