// Package payment builds the simulated PIX payment shown at the end of the
// wizard. No money moves: a request is created, displayed as a QR payload
// and confirmed by the user.
package payment

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rshade/tripcarbon/internal/carbon"
)

// DefaultPixKey is the receiving PIX key shown when none is configured.
const DefaultPixKey = "ipass@exemplo.com.br"

// IDPrefix prefixes every payment identifier.
const IDPrefix = "E2CARBON-"

// payloadSeparator joins the fields of the QR payload.
const payloadSeparator = "|"

var (
	// ErrAlreadyConfirmed is returned when confirming a confirmed request.
	ErrAlreadyConfirmed = errors.New("payment already confirmed")

	// ErrInvalidAmount is returned for amounts that are not finite and > 0.
	ErrInvalidAmount = errors.New("payment amount must be a finite value > 0")

	// ErrMissingKey is returned when no PIX key is given.
	ErrMissingKey = errors.New("pix key is required")
)

// Request is a simulated PIX charge.
type Request struct {
	// ID identifies the charge, e.g. "E2CARBON-9F2C41AB".
	ID string `json:"id"`

	// Key is the receiving PIX key.
	Key string `json:"pixKey"`

	// Amount is the value charged in BRL.
	Amount float64 `json:"amount"`

	// FormattedAmount is Amount formatted for display ("R$ 9,84").
	FormattedAmount string `json:"formattedAmount"`

	// Payload is the QR code content: "key|amount|id".
	Payload string `json:"payload"`

	CreatedAt   time.Time  `json:"createdAt"`
	ConfirmedAt *time.Time `json:"confirmedAt,omitempty"`
}

// NewRequest creates a PIX request for amount, payable to key.
func NewRequest(key string, amount float64, now time.Time) (*Request, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, ErrMissingKey
	}
	if !carbon.ValidNonNegative(amount) || amount == 0 {
		return nil, ErrInvalidAmount
	}

	id := NewID()
	return &Request{
		ID:              id,
		Key:             key,
		Amount:          amount,
		FormattedAmount: carbon.FormatCurrencyBRL(amount),
		Payload:         BuildPayload(key, amount, id),
		CreatedAt:       now.UTC(),
	}, nil
}

// NewID returns a fresh payment identifier.
func NewID() string {
	raw := strings.ReplaceAll(uuid.New().String(), "-", "")
	return IDPrefix + strings.ToUpper(raw[:8])
}

// BuildPayload renders the QR payload for a charge. The amount is written in
// its shortest decimal form, e.g. 9.84 or 20.
func BuildPayload(key string, amount float64, id string) string {
	return strings.Join([]string{
		key,
		strconv.FormatFloat(amount, 'f', -1, 64),
		id,
	}, payloadSeparator)
}

// Confirm marks the request as paid. The confirmation is simulated.
func (r *Request) Confirm(now time.Time) error {
	if r.ConfirmedAt != nil {
		return ErrAlreadyConfirmed
	}
	confirmed := now.UTC()
	r.ConfirmedAt = &confirmed
	return nil
}

// Confirmed reports whether the request has been confirmed.
func (r *Request) Confirmed() bool {
	return r.ConfirmedAt != nil
}
