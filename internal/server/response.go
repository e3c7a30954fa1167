package server

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/rshade/tripcarbon/internal/payment"
	"github.com/rshade/tripcarbon/internal/store"
	"github.com/rshade/tripcarbon/internal/wizard"
)

// errorResponse is the body of every non-2xx response.
type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
	// Step is the session step after a failed wizard operation.
	Step *wizard.Step `json:"step,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string, step *wizard.Step) {
	writeJSON(w, status, errorResponse{Error: msg, Step: step})
}

// errBadBody wraps JSON decoding failures.
var errBadBody = errors.New("invalid request body")

// decodeJSON decodes the request body into v. An empty body leaves v
// untouched.
func decodeJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", errBadBody, err)
	}
	return nil
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, errBadBody),
		errors.Is(err, wizard.ErrInvalidInput),
		errors.Is(err, store.ErrInvalidID):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, wizard.ErrInvalidStep),
		errors.Is(err, wizard.ErrOriginRequired),
		errors.Is(err, wizard.ErrTransportRequired),
		errors.Is(err, wizard.ErrCalculationRequired),
		errors.Is(err, wizard.ErrPaymentRequired),
		errors.Is(err, payment.ErrAlreadyConfirmed):
		return http.StatusConflict
	case errors.Is(err, payment.ErrInvalidAmount):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// writeDomainError writes err with its mapped status. Internal errors are
// not echoed to the client.
func writeDomainError(w http.ResponseWriter, err error, step *wizard.Step) {
	status := statusFor(err)
	resp := errorResponse{Error: err.Error(), Step: step}

	var verr *wizard.ValidationError
	if errors.As(err, &verr) {
		resp.Error = verr.Message
		resp.Field = verr.Field
	}
	if status == http.StatusInternalServerError {
		resp.Error = "internal error"
	}
	writeJSON(w, status, resp)
}
