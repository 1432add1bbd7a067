package domain

import (
	"sync"

	"github.com/go-playground/validator/v10"

	perr "citypulse/internal/platform/errors"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func v() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// ValidateRecord checks structural invariants before a record may be persisted
func ValidateRecord(r Record) error {
	if err := v().Struct(r); err != nil {
		if ferr, ok := err.(validator.ValidationErrors); ok && len(ferr) > 0 {
			e := perr.Validationf("record %q: invalid %s", r.ID, ferr[0].Field())
			return e
		}
		return perr.Validationf("record %q: %v", r.ID, err)
	}
	return nil
}

// ValidateQuery checks a read query before it hits storage
func ValidateQuery(q Query) error {
	if err := v().Struct(q); err != nil {
		return perr.InvalidArgf("query: %v", err)
	}
	return nil
}
