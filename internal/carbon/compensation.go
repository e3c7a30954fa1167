package carbon

import "math"

// PriceCompensation converts a total emission in kg to the BRL offset value:
// max(kg / 1000 × price per ton, minimum charge).
//
// The result is monotonically non-decreasing in the emission and never
// below the policy minimum. Panics with *InvalidInputError on a negative or
// non-finite emission.
func (c *Calculator) PriceCompensation(totalEmissionKg float64) float64 {
	mustNonNegative("total emission", totalEmissionKg)

	emissionTons := totalEmissionKg / KgPerTon
	rawValue := emissionTons * c.policy.PricePerTonBRL

	return math.Max(rawValue, c.policy.MinimumCompensationBRL)
}

// MinimumApplied reports whether pricing totalEmissionKg charges the floor
// instead of the proportional value.
func (c *Calculator) MinimumApplied(totalEmissionKg float64) bool {
	mustNonNegative("total emission", totalEmissionKg)
	return totalEmissionKg/KgPerTon*c.policy.PricePerTonBRL <= c.policy.MinimumCompensationBRL
}

// BreakevenEmissionKg returns the emission at which the proportional value
// reaches the minimum charge. Emissions at or below it are charged the floor.
func (c *Calculator) BreakevenEmissionKg() float64 {
	if c.policy.PricePerTonBRL == 0 {
		return math.Inf(1)
	}
	return c.policy.MinimumCompensationBRL / c.policy.PricePerTonBRL * KgPerTon
}

// PriceCompensation prices an emission with the default policy.
func PriceCompensation(totalEmissionKg float64) float64 {
	return defaultCalculator.PriceCompensation(totalEmissionKg)
}

// MinimumApplied reports whether the default policy charges the floor.
func MinimumApplied(totalEmissionKg float64) bool {
	return defaultCalculator.MinimumApplied(totalEmissionKg)
}
