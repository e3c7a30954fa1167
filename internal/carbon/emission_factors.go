package carbon

import (
	_ "embed"
	"encoding/csv"
	"io"
	"strconv"
	"strings"
	"sync"
)

// CSV column indices for the emission factor table.
const (
	colFactorVehicle = 0 // vehicle
	colFactorFuel    = 1 // fuel
	colFactorKgPerKm = 2 // kg_per_km
)

//go:embed data/emission_factors.csv
var emissionFactorsCSV string

var (
	emissionFactors     map[Vehicle]map[Fuel]float64
	emissionFactorsOnce sync.Once
)

// parseEmissionFactors builds the vehicle → fuel → kg/km table from the
// embedded CSV. Rows naming an unknown vehicle or fuel are skipped.
func parseEmissionFactors() {
	emissionFactors = make(map[Vehicle]map[Fuel]float64)

	reader := csv.NewReader(strings.NewReader(emissionFactorsCSV))

	// Skip header row
	if _, err := reader.Read(); err != nil {
		logger.Error().Err(err).Msg("failed to read emission factor CSV header")
		return
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			logger.Warn().Err(err).Msg("skipping malformed emission factor CSV row")
			continue
		}
		if len(record) <= colFactorKgPerKm {
			continue
		}

		vehicle := Vehicle(strings.TrimSpace(record[colFactorVehicle]))
		fuel := Fuel(strings.TrimSpace(record[colFactorFuel]))
		if !vehicle.Valid() || !fuel.Valid() {
			logger.Warn().
				Str("vehicle", string(vehicle)).
				Str("fuel", string(fuel)).
				Msg("skipping emission factor row for unknown vehicle or fuel")
			continue
		}

		factor, err := strconv.ParseFloat(strings.TrimSpace(record[colFactorKgPerKm]), 64)
		if err != nil || !ValidNonNegative(factor) {
			continue
		}

		fuels, ok := emissionFactors[vehicle]
		if !ok {
			fuels = make(map[Fuel]float64)
			emissionFactors[vehicle] = fuels
		}
		fuels[fuel] = factor
	}
}

// GetEmissionFactor returns the kg/km factor for the vehicle and fuel pair.
// Returns (0, false) when the combination is not in the table.
func GetEmissionFactor(vehicle Vehicle, fuel Fuel) (float64, bool) {
	emissionFactorsOnce.Do(parseEmissionFactors)

	fuels, ok := emissionFactors[vehicle]
	if !ok {
		return 0, false
	}
	factor, ok := fuels[fuel]
	return factor, ok
}
