package carbon

import (
	"encoding/csv"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// distanceRows reads the embedded CSV directly so the tests do not depend on
// the parsed table they are checking.
func distanceRows(t *testing.T) [][]string {
	t.Helper()
	rows, err := csv.NewReader(strings.NewReader(distancesCSV)).ReadAll()
	require.NoError(t, err)
	require.Greater(t, len(rows), 1, "distance CSV should have data rows")
	return rows[1:]
}

func TestResolveRoundTripDistanceKm_AllKnownCities(t *testing.T) {
	for _, row := range distanceRows(t) {
		state, city := row[colDistanceState], row[colDistanceCity]
		if state == DefaultKey || city == DefaultKey {
			continue
		}
		oneWay, err := strconv.ParseFloat(row[colDistanceKm], 64)
		require.NoError(t, err)

		t.Run(state+"/"+city, func(t *testing.T) {
			got := ResolveRoundTripDistanceKm(Origin{State: state, City: city})
			assert.Equal(t, oneWay*2, got)
		})
	}
}

func TestResolveRoundTripDistanceKm(t *testing.T) {
	tests := []struct {
		name   string
		origin Origin
		want   float64
	}{
		{"known city", Origin{State: "SP", City: "São Paulo"}, 640},
		{"venue city is zero", Origin{State: "MG", City: "São Thomé das Letras"}, 0},
		{"unknown city uses state default", Origin{State: "RJ", City: "Paraty"}, 900},
		{"empty city uses state default", Origin{State: "PR"}, 1500},
		{"unknown state uses global default", Origin{State: "XX", City: "Anywhere"}, 3000},
		{"empty state uses global default", Origin{}, 3000},
		{"DEFAULT state uses global default", Origin{State: DefaultKey, City: "São Paulo"}, 3000},
		{"city match is case sensitive", Origin{State: "SP", City: "são paulo"}, 700},
		{"custom city uses state default", Origin{State: "SP", City: "Itu", CustomCity: true}, 700},
		{"custom city ignores a known name", Origin{State: "SP", City: "São Paulo", CustomCity: true}, 700},
		{"custom venue city still uses state default", Origin{State: "MG", City: "São Thomé das Letras", CustomCity: true}, 600},
		{"custom city in unknown state", Origin{State: "ZZ", City: "Nowhere", CustomCity: true}, 3000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveRoundTripDistanceKm(tt.origin))
		})
	}
}

func TestLookupOneWayDistanceKm_Source(t *testing.T) {
	tests := []struct {
		name       string
		origin     Origin
		wantKm     float64
		wantSource DistanceSource
	}{
		{"city", Origin{State: "GO", City: "Goiânia"}, 800, SourceCity},
		{"zero km city", Origin{State: "MG", City: "São Thomé das Letras"}, 0, SourceCity},
		{"state default", Origin{State: "GO", City: "Pirenópolis"}, 800, SourceStateDefault},
		{"custom city", Origin{State: "AM", City: "Manaus", CustomCity: true}, 3600, SourceStateDefault},
		{"global default", Origin{State: "XX"}, 1500, SourceGlobalDefault},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			km, source := LookupOneWayDistanceKm(tt.origin)
			assert.Equal(t, tt.wantKm, km)
			assert.Equal(t, tt.wantSource, source)
		})
	}
}

func TestCustomCity_AlwaysStateDefault(t *testing.T) {
	for _, state := range States() {
		stateDefault := ResolveRoundTripDistanceKm(Origin{State: state, City: DefaultKey})
		for _, city := range Cities(state) {
			got := ResolveRoundTripDistanceKm(Origin{State: state, City: city, CustomCity: true})
			assert.Equal(t, stateDefault, got, "%s/%s as custom city", state, city)
		}
	}
}

// TestDistanceTable_EveryStateHasDefault validates that resolution always
// terminates at a DEFAULT entry.
func TestDistanceTable_EveryStateHasDefault(t *testing.T) {
	table := ensureDistances()

	require.Contains(t, table, DefaultKey)
	assert.Equal(t, 1500.0, table[DefaultKey][DefaultKey])

	for state, cities := range table {
		_, ok := cities[DefaultKey]
		assert.True(t, ok, "state %s should have a DEFAULT distance", state)
		for city, km := range cities {
			assert.GreaterOrEqual(t, km, 0.0, "%s/%s distance should be >= 0", state, city)
		}
	}
}

func TestStates(t *testing.T) {
	states := States()

	assert.Len(t, states, 27, "all Brazilian states and the federal district")
	assert.NotContains(t, states, DefaultKey)
	assert.IsIncreasing(t, states)
	for _, s := range []string{"AC", "MG", "SP", "TO", "DF"} {
		assert.Contains(t, states, s)
	}
}

func TestCities(t *testing.T) {
	sp := Cities("SP")
	assert.Len(t, sp, 8)
	assert.Contains(t, sp, "São Paulo")
	assert.Contains(t, sp, "Ribeirão Preto")
	assert.NotContains(t, sp, DefaultKey)

	assert.Contains(t, Cities("MG"), "São Thomé das Letras")
	assert.Nil(t, Cities("XX"))
	assert.Nil(t, Cities(DefaultKey))
}
