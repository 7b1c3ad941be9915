package domain

import (
	"fmt"
	"math"
)

// ValidationError некорректные входные данные (HTTP 422).
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// NonNegative проверяет, что число конечно и не меньше нуля.
func NonNegative(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Invalid(field, "must be a finite number")
	}
	if v < 0 {
		return Invalid(field, "must be >= 0")
	}
	return nil
}
