package wizard

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is wrapped by every *ValidationError.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidStep is returned when an operation is called from a step
	// that does not allow it.
	ErrInvalidStep = errors.New("operation not allowed at current step")

	// ErrOriginRequired is returned by Calculate when no origin is set. The
	// session is moved back to the origin step.
	ErrOriginRequired = errors.New("origin is required")

	// ErrTransportRequired is returned by Calculate when no transport is
	// set. The session is moved back to the transport step.
	ErrTransportRequired = errors.New("transport is required")

	// ErrCalculationRequired is returned when leaving the calculation step
	// before a calculation exists.
	ErrCalculationRequired = errors.New("calculation is required")

	// ErrPaymentRequired is returned when confirming without a payment.
	ErrPaymentRequired = errors.New("payment is required")
)

// ValidationError reports a rejected form field. Message is user-facing.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Unwrap lets errors.Is match ErrInvalidInput.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// stepError wraps ErrInvalidStep with the current and allowed steps.
func stepError(op string, current Step, allowed ...Step) error {
	return fmt.Errorf("%s at step %s (allowed: %v): %w", op, current, allowed, ErrInvalidStep)
}
