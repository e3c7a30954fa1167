package carbon

// CarbonCalculator provides the trip emission and compensation calculations.
type CarbonCalculator interface {
	// ResolveRoundTripDistanceKm returns the round-trip distance for an origin.
	ResolveRoundTripDistanceKm(origin Origin) float64

	// EstimateEmission returns the factor used and the total emission in kg.
	EstimateEmission(transport Transport) Emission

	// PriceCompensation converts a total emission in kg to BRL.
	PriceCompensation(totalEmissionKg float64) float64

	// Calculate runs the estimator and the pricer for a transport.
	Calculate(transport Transport) Calculation
}

// Calculator implements CarbonCalculator for a Policy. The zero value is not
// usable; create one with NewCalculator.
type Calculator struct {
	policy Policy
}

// NewCalculator creates a calculator for the given policy. The policy is
// copied and never changes afterwards, so a Calculator is safe for
// concurrent use.
func NewCalculator(policy Policy) *Calculator {
	return &Calculator{policy: policy}
}

// defaultCalculator backs the package-level functions.
var defaultCalculator = NewCalculator(DefaultPolicy())

// Policy returns the policy the calculator was built with.
func (c *Calculator) Policy() Policy {
	return c.policy
}

// ResolveRoundTripDistanceKm returns the round-trip distance for origin.
// Distances do not depend on the policy.
func (c *Calculator) ResolveRoundTripDistanceKm(origin Origin) float64 {
	return ResolveRoundTripDistanceKm(origin)
}

// EmissionFactor returns the kg/km factor for the pair, falling back to the
// policy default for combinations missing from the table.
func (c *Calculator) EmissionFactor(vehicle Vehicle, fuel Fuel) float64 {
	if factor, ok := GetEmissionFactor(vehicle, fuel); ok {
		return factor
	}
	logger.Debug().
		Str("vehicle", string(vehicle)).
		Str("fuel", string(fuel)).
		Float64("factor", c.policy.DefaultEmissionFactor).
		Msg("emission factor not found, using default")
	return c.policy.DefaultEmissionFactor
}

// EstimateEmission estimates the trip emission.
//
// The calculation:
//  1. Factor = table[vehicle][fuel], else the policy default (0.12 kg/km)
//  2. Base emission (kg) = distance × factor
//  3. Total emission (kg) = base × (1 + surcharge rate × passengers)
//
// Panics with *InvalidInputError on a negative or non-finite distance or a
// negative passenger count.
func (c *Calculator) EstimateEmission(transport Transport) Emission {
	mustNonNegative("distance", transport.DistanceKm)
	mustNonNegative("passengers", float64(transport.Passengers))

	factor := c.EmissionFactor(transport.Vehicle, transport.Fuel)

	return Emission{
		EmissionFactor: factor,
		TotalEmission:  CalculateEmissionKg(transport.DistanceKm, factor, transport.Passengers, c.policy.PassengerSurchargeRate),
	}
}

// Calculate estimates the emission for transport and prices its offset.
func (c *Calculator) Calculate(transport Transport) Calculation {
	emission := c.EstimateEmission(transport)
	return Calculation{
		EmissionFactor:    emission.EmissionFactor,
		TotalEmission:     emission.TotalEmission,
		CompensationValue: c.PriceCompensation(emission.TotalEmission),
	}
}

// CalculateEmissionKg applies the trip emission formula.
//
// Parameters:
//   - distanceKm: Round-trip distance in kilometers
//   - factor: Emission factor in kg CO2 per km
//   - passengers: Occupants besides the driver
//   - surchargeRate: Share of the base emission added per passenger
//
// Returns the total emission in kg CO2.
func CalculateEmissionKg(distanceKm, factor float64, passengers int, surchargeRate float64) float64 {
	base := distanceKm * factor
	return base * PassengerMultiplier(passengers, surchargeRate)
}

// PassengerMultiplier returns 1 + surchargeRate × passengers.
func PassengerMultiplier(passengers int, surchargeRate float64) float64 {
	return 1 + surchargeRate*float64(passengers)
}

// EstimateEmission estimates the trip emission with the default policy.
func EstimateEmission(transport Transport) Emission {
	return defaultCalculator.EstimateEmission(transport)
}

// Calculate runs the estimator and the pricer with the default policy.
func Calculate(transport Transport) Calculation {
	return defaultCalculator.Calculate(transport)
}
