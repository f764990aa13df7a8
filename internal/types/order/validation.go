package order

import (
	"errors"
	"fmt"
)

// ErrValidation is matched by every input validation failure.
var ErrValidation = errors.New("validation failed")

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// ParseDepartment accepts an empty value as "any department".
func ParseDepartment(v string) (Department, error) {
	d := Department(v)
	if d != "" && !d.Valid() {
		return "", Invalid("department", "must be machinery or assembly")
	}
	return d, nil
}
