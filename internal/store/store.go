// Package store persists wizard sessions so that a visitor can close the
// page and pick up where they left off.
//
// Each session is saved under the same keys the wizard has always used:
// user, origin, transport, calculation, currentStep and payment.
package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/goccy/go-json"

	"github.com/rshade/tripcarbon/internal/wizard"
)

// Persisted keys.
const (
	KeyUser        = "user"
	KeyOrigin      = "origin"
	KeyTransport   = "transport"
	KeyCalculation = "calculation"
	KeyCurrentStep = "currentStep"
	KeyPayment     = "payment"
)

// Backend names accepted by New.
const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverSQLite = "sqlite"
)

// ErrNotFound is returned by Load and Delete for unknown session IDs.
var ErrNotFound = errors.New("session not found")

// ErrInvalidID is returned for session IDs outside [A-Za-z0-9_-]. Every
// backend applies the same rule, so an ID valid in one is valid in all.
var ErrInvalidID = errors.New("invalid session id")

// idPattern also keeps file store names inside their directory.
var idPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Store saves and loads wizard state by session ID.
type Store interface {
	Save(ctx context.Context, state wizard.State) error
	Load(ctx context.Context, id string) (wizard.State, error)
	Delete(ctx context.Context, id string) error
	Close() error
}

// Config selects and configures a backend.
type Config struct {
	// Driver is one of DriverMemory, DriverFile or DriverSQLite.
	Driver string
	// Path is the directory for the file backend or the database file for
	// SQLite. Ignored by the memory backend.
	Path string
}

// New opens the backend named by cfg.Driver.
func New(cfg Config) (Store, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", DriverMemory:
		return NewMemoryStore(), nil
	case DriverFile:
		return NewFileStore(cfg.Path)
	case DriverSQLite:
		return OpenSQLite(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// encodeKeys splits a state into one JSON value per persisted key. Unset
// optional parts are omitted.
func encodeKeys(state wizard.State) (map[string][]byte, error) {
	values := map[string]any{
		KeyUser:        state.User,
		KeyCurrentStep: state.CurrentStep,
	}
	if state.Origin != nil {
		values[KeyOrigin] = state.Origin
	}
	if state.Transport != nil {
		values[KeyTransport] = state.Transport
	}
	if state.Calculation != nil {
		values[KeyCalculation] = state.Calculation
	}
	if state.Payment != nil {
		values[KeyPayment] = state.Payment
	}

	out := make(map[string][]byte, len(values))
	for key, v := range values {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encoding %s: %w", key, err)
		}
		out[key] = b
	}
	return out, nil
}

// decodeKeys rebuilds a state from the values written by encodeKeys.
// Unknown keys are ignored.
func decodeKeys(id string, values map[string][]byte) (wizard.State, error) {
	state := wizard.State{ID: id}
	targets := map[string]any{
		KeyUser:        &state.User,
		KeyCurrentStep: &state.CurrentStep,
		KeyOrigin:      &state.Origin,
		KeyTransport:   &state.Transport,
		KeyCalculation: &state.Calculation,
		KeyPayment:     &state.Payment,
	}
	for key, raw := range values {
		target, ok := targets[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(raw, target); err != nil {
			return wizard.State{}, fmt.Errorf("decoding %s for session %s: %w", key, id, err)
		}
	}
	return state, nil
}

func validID(id string) error {
	if !idPattern.MatchString(id) {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}
