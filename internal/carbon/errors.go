package carbon

import (
	"fmt"
	"math"
)

// InvalidInputError is the panic value raised when a calculator function is
// given a value the caller was required to validate: a negative or
// non-finite distance or emission, or a negative passenger count.
type InvalidInputError struct {
	Field string
	Value float64
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("carbon: invalid %s: %v", e.Field, e.Value)
}

// mustNonNegative panics with an *InvalidInputError unless v is finite and >= 0.
func mustNonNegative(field string, v float64) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		panic(&InvalidInputError{Field: field, Value: v})
	}
}

// ValidNonNegative reports whether v is finite and >= 0. Callers use it to
// validate input before it reaches the calculator.
func ValidNonNegative(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}
