package wizard

import (
	"time"

	"github.com/google/uuid"

	"github.com/rshade/tripcarbon/internal/carbon"
	"github.com/rshade/tripcarbon/internal/payment"
)

// DefaultUserName is shown before and after login; the simulated login does
// not look anyone up.
const DefaultUserName = "João Silva"

// DefaultSuccessResetAfter is how long the success page stays up before the
// session restarts on its own.
const DefaultSuccessResetAfter = 2 * time.Minute

// User is the logged-in visitor.
type User struct {
	Name  string `json:"name"`
	CPF   string `json:"cpf,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// Transport is the transport chosen in the wizard plus whether its distance
// is derived from the origin or typed in by the user.
type Transport struct {
	carbon.Transport

	// AutomaticDistance keeps DistanceKm equal to the origin's round trip.
	AutomaticDistance bool `json:"isAutomaticCalc"`
}

// State is the persisted form of a session. Field names match the keys the
// wizard has always saved: user, origin, transport, calculation, currentStep.
type State struct {
	ID          string              `json:"id"`
	CurrentStep Step                `json:"currentStep"`
	User        User                `json:"user"`
	Origin      *carbon.Origin      `json:"origin,omitempty"`
	Transport   *Transport          `json:"transport,omitempty"`
	Calculation *carbon.Calculation `json:"calculation,omitempty"`
	Payment     *payment.Request    `json:"payment,omitempty"`
	UpdatedAt   time.Time           `json:"updatedAt"`
}

// clone returns a copy of s that shares no pointers with it.
func (s State) clone() State {
	out := s
	if s.Origin != nil {
		o := *s.Origin
		out.Origin = &o
	}
	if s.Transport != nil {
		t := *s.Transport
		out.Transport = &t
	}
	if s.Calculation != nil {
		c := *s.Calculation
		out.Calculation = &c
	}
	if s.Payment != nil {
		p := *s.Payment
		if s.Payment.ConfirmedAt != nil {
			at := *s.Payment.ConfirmedAt
			p.ConfirmedAt = &at
		}
		out.Payment = &p
	}
	return out
}

// Option configures a Session.
type Option func(*Session)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		s.now = now
	}
}

// WithPixKey sets the PIX key used for payments.
func WithPixKey(key string) Option {
	return func(s *Session) {
		s.pixKey = key
	}
}

// Session drives one pass through the wizard. It is not safe for concurrent
// use; callers serialize access per session.
type Session struct {
	state  State
	calc   carbon.CarbonCalculator
	now    func() time.Time
	pixKey string
}

// NewSession starts a wizard at the login step with a fresh ID.
func NewSession(calc carbon.CarbonCalculator, opts ...Option) *Session {
	s := newSession(calc, opts...)
	s.state = State{
		ID:          uuid.New().String(),
		CurrentStep: StepLogin,
		User:        User{Name: DefaultUserName},
	}
	s.touch()
	return s
}

// Restore rehydrates a session from persisted state. The calculation is not
// trusted: it is recomputed from the restored origin and transport.
func Restore(state State, calc carbon.CarbonCalculator, opts ...Option) *Session {
	s := newSession(calc, opts...)
	s.state = state.clone()
	if !s.state.CurrentStep.Valid() {
		s.state.CurrentStep = StepLogin
	}
	if s.state.Calculation != nil {
		s.recalculate()
	}
	return s
}

func newSession(calc carbon.CarbonCalculator, opts ...Option) *Session {
	s := &Session{
		calc:   calc,
		now:    time.Now,
		pixKey: payment.DefaultPixKey,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.state.ID }

// Step returns the current step.
func (s *Session) Step() Step { return s.state.CurrentStep }

// State returns a copy of the session state for persistence or display.
func (s *Session) State() State { return s.state.clone() }

// Login records the visitor and moves to the origin step.
func (s *Session) Login(cpf, phone string) error {
	if err := s.require("login", StepLogin); err != nil {
		return err
	}
	if err := ValidateLogin(cpf, phone); err != nil {
		return err
	}
	s.state.User = User{Name: DefaultUserName, CPF: cpf, Phone: phone}
	s.advance(StepOrigin)
	return nil
}

// SetOrigin stores the origin and moves to the transport step. An automatic
// transport distance follows the new origin.
func (s *Session) SetOrigin(form OriginForm) error {
	if err := s.require("set origin", StepOrigin); err != nil {
		return err
	}
	origin, err := form.Origin()
	if err != nil {
		return err
	}
	s.state.Origin = &origin

	if t := s.state.Transport; t != nil && t.AutomaticDistance {
		t.DistanceKm = s.calc.ResolveRoundTripDistanceKm(origin)
	}
	if s.state.Calculation != nil {
		s.recalculate()
	}
	s.advance(StepTransport)
	return nil
}

// SetTransport stores the transport, calculates, and moves to the
// calculation step. The distance is the origin's round trip unless the user
// previously entered one by hand.
func (s *Session) SetTransport(form TransportForm) error {
	if err := s.require("set transport", StepTransport); err != nil {
		return err
	}
	if s.state.Origin == nil {
		s.state.CurrentStep = StepOrigin
		s.touch()
		return ErrOriginRequired
	}
	vehicle, fuel, err := form.Validate()
	if err != nil {
		return err
	}

	t := Transport{
		Transport: carbon.Transport{
			Vehicle:    vehicle,
			Fuel:       fuel,
			Passengers: form.Passengers,
		},
		AutomaticDistance: true,
	}
	if prev := s.state.Transport; prev != nil && !prev.AutomaticDistance {
		t.DistanceKm = prev.DistanceKm
		t.AutomaticDistance = false
	} else {
		t.DistanceKm = s.calc.ResolveRoundTripDistanceKm(*s.state.Origin)
	}
	s.state.Transport = &t

	s.recalculate()
	s.advance(StepCalculation)
	return nil
}

// SetManualDistance replaces the automatic distance with a typed-in round
// trip and recalculates.
func (s *Session) SetManualDistance(km float64) error {
	if err := s.require("set distance", StepCalculation); err != nil {
		return err
	}
	if s.state.Transport == nil {
		return ErrTransportRequired
	}
	if err := ValidateDistance(km); err != nil {
		return err
	}
	s.state.Transport.DistanceKm = km
	s.state.Transport.AutomaticDistance = false
	s.recalculate()
	s.touch()
	return nil
}

// EnableAutomaticDistance switches back to the origin's round trip and
// recalculates.
func (s *Session) EnableAutomaticDistance() error {
	if err := s.require("enable automatic distance", StepCalculation); err != nil {
		return err
	}
	if s.state.Origin == nil {
		return ErrOriginRequired
	}
	if s.state.Transport == nil {
		return ErrTransportRequired
	}
	s.state.Transport.DistanceKm = s.calc.ResolveRoundTripDistanceKm(*s.state.Origin)
	s.state.Transport.AutomaticDistance = true
	s.recalculate()
	s.touch()
	return nil
}

// Calculate recomputes the calculation. Without an origin or a transport the
// session is sent back to the page that collects it.
func (s *Session) Calculate() (carbon.Calculation, error) {
	if err := s.require("calculate", StepCalculation, StepResult); err != nil {
		return carbon.Calculation{}, err
	}
	if s.state.Origin == nil {
		s.state.CurrentStep = StepOrigin
		s.touch()
		return carbon.Calculation{}, ErrOriginRequired
	}
	if s.state.Transport == nil {
		s.state.CurrentStep = StepTransport
		s.touch()
		return carbon.Calculation{}, ErrTransportRequired
	}
	s.recalculate()
	s.touch()
	return *s.state.Calculation, nil
}

// ConfirmResult moves from the calculation to the result page.
func (s *Session) ConfirmResult() error {
	if err := s.require("confirm result", StepCalculation); err != nil {
		return err
	}
	if s.state.Calculation == nil {
		return ErrCalculationRequired
	}
	s.advance(StepResult)
	return nil
}

// StartPayment creates the PIX charge for the compensation value and moves
// to the payment page.
func (s *Session) StartPayment() (*payment.Request, error) {
	if err := s.require("start payment", StepResult); err != nil {
		return nil, err
	}
	if s.state.Calculation == nil {
		return nil, ErrCalculationRequired
	}
	req, err := payment.NewRequest(s.pixKey, s.state.Calculation.CompensationValue, s.now())
	if err != nil {
		return nil, err
	}
	s.state.Payment = req
	s.advance(StepPayment)
	p := *req
	return &p, nil
}

// ConfirmPayment simulates the PIX confirmation and moves to success.
func (s *Session) ConfirmPayment() error {
	if err := s.require("confirm payment", StepPayment); err != nil {
		return err
	}
	if s.state.Payment == nil {
		return ErrPaymentRequired
	}
	if err := s.state.Payment.Confirm(s.now()); err != nil {
		return err
	}
	s.advance(StepSuccess)
	return nil
}

// Back returns to the previous page. Leaving the payment page drops the
// pending charge. The login and success pages have no way back.
func (s *Session) Back() error {
	switch s.state.CurrentStep {
	case StepLogin, StepSuccess:
		return stepError("back", s.state.CurrentStep,
			StepOrigin, StepTransport, StepCalculation, StepResult, StepPayment)
	case StepPayment:
		s.state.Payment = nil
	}
	s.state.CurrentStep--
	s.touch()
	return nil
}

// Restart discards the trip and returns to the login page. The user is kept.
func (s *Session) Restart() {
	s.state.Origin = nil
	s.state.Transport = nil
	s.state.Calculation = nil
	s.state.Payment = nil
	s.state.CurrentStep = StepLogin
	s.touch()
}

// Expired reports whether the session has shown the success page for longer
// than after.
func (s *Session) Expired(now time.Time, after time.Duration) bool {
	if s.state.CurrentStep != StepSuccess {
		return false
	}
	since := s.state.UpdatedAt
	if p := s.state.Payment; p != nil && p.ConfirmedAt != nil {
		since = *p.ConfirmedAt
	}
	return now.Sub(since) > after
}

// MinimumApplied reports whether the current compensation is the minimum
// charge rather than the proportional value.
func (s *Session) MinimumApplied() bool {
	if s.state.Calculation == nil {
		return false
	}
	return s.state.Calculation.CompensationValue <= minimumCompensation(s.calc)
}

func minimumCompensation(calc carbon.CarbonCalculator) float64 {
	return calc.PriceCompensation(0)
}

// recalculate derives the calculation from the current transport.
func (s *Session) recalculate() {
	if s.state.Transport == nil {
		s.state.Calculation = nil
		return
	}
	calc := s.calc.Calculate(s.state.Transport.Transport)
	s.state.Calculation = &calc
}

func (s *Session) require(op string, allowed ...Step) error {
	for _, step := range allowed {
		if s.state.CurrentStep == step {
			return nil
		}
	}
	return stepError(op, s.state.CurrentStep, allowed...)
}

func (s *Session) advance(to Step) {
	s.state.CurrentStep = to
	s.touch()
}

func (s *Session) touch() {
	s.state.UpdatedAt = s.now().UTC()
}
