package records

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate checks a record, or every element of a slice of records, against
// its struct tags. A single invalid element rejects the whole collection.
func Validate(v interface{}) error {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return fmt.Errorf("nil record")
		}
		rv = rv.Elem()
	}

	if rv.Kind() == reflect.Slice {
		for i := 0; i < rv.Len(); i++ {
			if err := validatorInstance().Struct(rv.Index(i).Interface()); err != nil {
				return fmt.Errorf("record %d: %w", i, err)
			}
		}
		return nil
	}

	return validatorInstance().Struct(rv.Interface())
}
