package validate

import (
	"errors"
	"strconv"
	"sync"
	"unicode/utf16"

	"github.com/go-playground/validator/v10"
)

var (
	instance *validator.Validate
	once     sync.Once
)

func get() *validator.Validate {
	once.Do(func() {
		instance = validator.New(validator.WithRequiredStructEnabled())
		if err := instance.RegisterValidation("utf16min", utf16Min); err != nil {
			panic(err)
		}
	})
	return instance
}

func Struct(s interface{}) error {
	return get().Struct(s)
}

// FailedTags returns the set of validation tags that failed, or nil when err
// is not a validation error.
func FailedTags(err error) map[string]bool {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return nil
	}
	tags := make(map[string]bool, len(errs))
	for _, fe := range errs {
		tags[fe.Tag()] = true
	}
	return tags
}

// utf16Min checks a string is at least param UTF-16 code units long, the way
// browsers measure input length.
func utf16Min(fl validator.FieldLevel) bool {
	n, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}
	return len(utf16.Encode([]rune(fl.Field().String()))) >= n
}
