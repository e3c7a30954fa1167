package carbon

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidPolicy is returned by Policy.Validate.
var ErrInvalidPolicy = errors.New("invalid calculator policy")

// Policy holds the business constants of the calculator. They have no
// physical derivation and are tuned by the operator, not the code.
type Policy struct {
	// PassengerSurchargeRate is the share of the base emission added per
	// passenger (default: 0.15).
	PassengerSurchargeRate float64 `json:"passengerSurchargeRate" yaml:"passenger_surcharge_rate"`

	// DefaultEmissionFactor is used for vehicle/fuel pairs missing from the
	// factor table, in kg/km (default: 0.12).
	DefaultEmissionFactor float64 `json:"defaultEmissionFactor" yaml:"default_emission_factor"`

	// PricePerTonBRL is the offset price per metric ton of CO2 (default: 40).
	PricePerTonBRL float64 `json:"pricePerTonBRL" yaml:"price_per_ton_brl"`

	// MinimumCompensationBRL is the floor of every offset charge (default: 9.84).
	MinimumCompensationBRL float64 `json:"minimumCompensationBRL" yaml:"minimum_compensation_brl"`
}

// DefaultPolicy returns the policy the festival runs with.
func DefaultPolicy() Policy {
	return Policy{
		PassengerSurchargeRate: PassengerSurchargeRate,
		DefaultEmissionFactor:  DefaultEmissionFactor,
		PricePerTonBRL:         PricePerTonBRL,
		MinimumCompensationBRL: MinimumCompensationBRL,
	}
}

// Validate checks that every field is finite and non-negative.
func (p Policy) Validate() error {
	fields := []struct {
		name  string
		value float64
	}{
		{"passenger_surcharge_rate", p.PassengerSurchargeRate},
		{"default_emission_factor", p.DefaultEmissionFactor},
		{"price_per_ton_brl", p.PricePerTonBRL},
		{"minimum_compensation_brl", p.MinimumCompensationBRL},
	}
	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) || f.value < 0 {
			return fmt.Errorf("%w: %s must be a finite value >= 0, got %v", ErrInvalidPolicy, f.name, f.value)
		}
	}
	return nil
}
