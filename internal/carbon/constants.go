// Package carbon estimates the CO2 emitted by a round trip to the festival
// venue and prices the offset in BRL.
//
// The package is a set of pure functions over static, embedded tables:
// distance resolution (state → city → one-way km), emission estimation
// (vehicle → fuel → kg/km) and compensation pricing (kg → BRL).
package carbon

const (
	// DefaultKey is the sentinel key present at every level of the lookup
	// tables. It is resolved when the exact key is absent.
	DefaultKey = "DEFAULT"

	// RoundTripMultiplier turns a one-way distance into a round trip.
	RoundTripMultiplier = 2.0

	// DefaultEmissionFactor is the kg/km factor used when a vehicle and fuel
	// combination is missing from the factor table.
	// Calibrated to an average car running on gasoline.
	DefaultEmissionFactor = 0.12

	// PassengerSurchargeRate is the share of the base emission added per
	// passenger beyond the driver. Linear approximation, tunable.
	PassengerSurchargeRate = 0.15

	// PricePerTonBRL is the offset price of one metric ton of CO2 in BRL.
	// Source: market price of carbon credits used by the festival.
	PricePerTonBRL = 40.0

	// MinimumCompensationBRL is the smallest amount ever charged for an
	// offset. Below this the payment is not operationally viable.
	MinimumCompensationBRL = 9.84

	// KgPerTon converts kilograms to metric tons.
	KgPerTon = 1000.0

	// VenueName is the destination every distance in the table points to.
	VenueName = "São Thomé das Letras, MG"
)
