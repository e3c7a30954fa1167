package carbon

import (
	_ "embed"
	"encoding/csv"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// CSV column indices for the distance table.
const (
	colDistanceState = 0 // state
	colDistanceCity  = 1 // city
	colDistanceKm    = 2 // one_way_km
)

// globalDefaultOneWayKm backs the outer DEFAULT/DEFAULT pair when the
// embedded table does not carry one, so resolution always terminates.
const globalDefaultOneWayKm = 1500.0

//go:embed data/distances.csv
var distancesCSV string

// DistanceSource tells which level of the table produced a distance.
type DistanceSource string

// Distance sources, from most to least specific.
const (
	SourceCity          DistanceSource = "city"
	SourceStateDefault  DistanceSource = "state_default"
	SourceGlobalDefault DistanceSource = "global_default"
)

// distanceTable maps state → city → one-way km. Every state carries a
// DefaultKey entry and the table carries a DefaultKey state.
type distanceTable map[string]map[string]float64

var (
	distances     distanceTable
	distancesOnce sync.Once
)

// parseDistances builds the package-level distance table from the embedded
// CSV. Malformed rows are skipped with a warning.
func parseDistances() {
	distances = make(distanceTable)

	reader := csv.NewReader(strings.NewReader(distancesCSV))

	// Skip header row
	if _, err := reader.Read(); err != nil {
		logger.Error().Err(err).Msg("failed to read distance CSV header")
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			logger.Warn().Err(err).Msg("skipping malformed distance CSV row")
			continue
		}
		if len(record) <= colDistanceKm {
			continue
		}

		state := strings.TrimSpace(record[colDistanceState])
		city := strings.TrimSpace(record[colDistanceCity])
		if state == "" || city == "" {
			continue
		}

		km, err := strconv.ParseFloat(strings.TrimSpace(record[colDistanceKm]), 64)
		if err != nil || !ValidNonNegative(km) {
			logger.Warn().
				Str("state", state).
				Str("city", city).
				Str("value", record[colDistanceKm]).
				Msg("skipping distance row with invalid km")
			continue
		}

		cities, ok := distances[state]
		if !ok {
			cities = make(map[string]float64)
			distances[state] = cities
		}
		cities[city] = km
	}

	// Guarantee the DEFAULT sentinel at both levels.
	global, ok := distances[DefaultKey]
	if !ok {
		global = make(map[string]float64)
		distances[DefaultKey] = global
	}
	if _, ok := global[DefaultKey]; !ok {
		global[DefaultKey] = globalDefaultOneWayKm
	}
	for state, cities := range distances {
		if _, ok := cities[DefaultKey]; !ok {
			logger.Warn().Str("state", state).Msg("state has no DEFAULT distance; using global default")
			cities[DefaultKey] = global[DefaultKey]
		}
	}
}

func ensureDistances() distanceTable {
	distancesOnce.Do(parseDistances)
	return distances
}

// stateTable returns the city table for state, falling back to the global
// DEFAULT table.
func (t distanceTable) stateTable(state string) (map[string]float64, bool) {
	if cities, ok := t[state]; ok && state != DefaultKey {
		return cities, true
	}
	return t[DefaultKey], false
}

// LookupOneWayDistanceKm resolves the one-way distance from origin to the
// venue and reports which table level it came from.
//
// Resolution order:
//  1. The state's table, else the global DEFAULT table.
//  2. The exact city key, else the state's DEFAULT entry.
//  3. CustomCity forces the state's DEFAULT entry even when the city name
//     matches a table key.
//
// Key presence decides the fallback, so a city stored as 0 km resolves to 0.
func LookupOneWayDistanceKm(origin Origin) (float64, DistanceSource) {
	table := ensureDistances()

	cities, stateFound := table.stateTable(origin.State)
	defaultSource := SourceStateDefault
	if !stateFound {
		defaultSource = SourceGlobalDefault
	}

	if !origin.CustomCity && origin.City != DefaultKey {
		if km, ok := cities[origin.City]; ok {
			return km, SourceCity
		}
	}
	return cities[DefaultKey], defaultSource
}

// ResolveRoundTripDistanceKm returns the round-trip distance in kilometers
// for origin. It never fails: every table level has a DEFAULT fallback.
func ResolveRoundTripDistanceKm(origin Origin) float64 {
	km, _ := LookupOneWayDistanceKm(origin)
	return km * RoundTripMultiplier
}

// States returns the state codes present in the distance table, sorted.
// The DEFAULT sentinel is not included.
func States() []string {
	table := ensureDistances()
	states := make([]string, 0, len(table))
	for state := range table {
		if state == DefaultKey {
			continue
		}
		states = append(states, state)
	}
	sort.Strings(states)
	return states
}

// Cities returns the city names listed for state in pt-BR collation order,
// without the DEFAULT sentinel. Unknown states return nil.
func Cities(state string) []string {
	table := ensureDistances()
	entries, ok := table[state]
	if !ok || state == DefaultKey {
		return nil
	}
	cities := make([]string, 0, len(entries))
	for city := range entries {
		if city == DefaultKey {
			continue
		}
		cities = append(cities, city)
	}
	collate.New(language.BrazilianPortuguese).SortStrings(cities)
	return cities
}
