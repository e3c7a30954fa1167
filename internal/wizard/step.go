// Package wizard holds the state of one user's pass through the offset
// wizard: login → origin → transport → calculation → result → payment →
// success.
//
// A Session is an explicit mutable context object owned by its caller. The
// carbon calculator never sees it; the session calls the calculator with
// plain values whenever the origin or the transport changes.
package wizard

import (
	"fmt"
	"strings"
)

// Step is a page of the wizard. Values match the original step indices.
type Step int

// Wizard steps in order.
const (
	StepLogin Step = iota
	StepOrigin
	StepTransport
	StepCalculation
	StepResult
	StepPayment
	StepSuccess
)

var stepNames = [...]string{
	StepLogin:       "login",
	StepOrigin:      "origin",
	StepTransport:   "transport",
	StepCalculation: "calculation",
	StepResult:      "result",
	StepPayment:     "payment",
	StepSuccess:     "success",
}

// String returns the lowercase step name.
func (s Step) String() string {
	if s.Valid() {
		return stepNames[s]
	}
	return fmt.Sprintf("step(%d)", int(s))
}

// Valid reports whether s is a known step.
func (s Step) Valid() bool {
	return s >= StepLogin && s <= StepSuccess
}

// ParseStep maps a step name to a Step.
func ParseStep(name string) (Step, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range stepNames {
		if n == name {
			return Step(i), true
		}
	}
	return 0, false
}
