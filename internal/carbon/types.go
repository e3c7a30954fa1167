package carbon

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Origin is where the trip starts.
type Origin struct {
	// State is the two-letter Brazilian state code (e.g., "SP").
	State string `json:"state"`

	// City is the city name. For custom cities it is the user-entered name,
	// kept for display only.
	City string `json:"city"`

	// CustomCity marks a city typed in by the user instead of picked from the
	// table. Custom cities always resolve to the state's default distance.
	CustomCity bool `json:"customCity,omitempty"`
}

// Vehicle is the type of vehicle used for the trip.
type Vehicle string

// Supported vehicles.
const (
	VehicleMoto   Vehicle = "Moto"
	VehicleCarro  Vehicle = "Carro"
	VehicleVan    Vehicle = "Van"
	VehicleOnibus Vehicle = "Ônibus"
)

// Vehicles lists every supported vehicle in display order.
var Vehicles = []Vehicle{VehicleMoto, VehicleCarro, VehicleVan, VehicleOnibus}

// Capacity returns the maximum number of passengers the vehicle carries
// besides the driver. Unknown vehicles have no capacity.
func (v Vehicle) Capacity() int {
	switch v {
	case VehicleMoto:
		return 1
	case VehicleCarro:
		return 4
	case VehicleVan, VehicleOnibus:
		return 15
	default:
		return 0
	}
}

// Valid reports whether v is one of the supported vehicles.
func (v Vehicle) Valid() bool {
	for _, known := range Vehicles {
		if v == known {
			return true
		}
	}
	return false
}

// Fuel is the fuel or energy source of the vehicle.
type Fuel string

// Supported fuels.
const (
	FuelGasolina Fuel = "Gasolina"
	FuelAlcool   Fuel = "Álcool"
	FuelDiesel   Fuel = "Diesel"
	FuelFlex     Fuel = "Flex"
	FuelEletrico Fuel = "Elétrico"
	FuelGNV      Fuel = "GNV"
)

// Fuels lists every supported fuel in display order.
var Fuels = []Fuel{FuelGasolina, FuelAlcool, FuelDiesel, FuelFlex, FuelEletrico, FuelGNV}

// Valid reports whether f is one of the supported fuels.
func (f Fuel) Valid() bool {
	for _, known := range Fuels {
		if f == known {
			return true
		}
	}
	return false
}

// ParseVehicle maps user input to a Vehicle. Matching ignores case and
// accents, so "onibus" and "ÔNIBUS" both resolve to VehicleOnibus.
func ParseVehicle(s string) (Vehicle, bool) {
	key := foldName(s)
	for _, v := range Vehicles {
		if foldName(string(v)) == key {
			return v, true
		}
	}
	return "", false
}

// ParseFuel maps user input to a Fuel, ignoring case and accents.
func ParseFuel(s string) (Fuel, bool) {
	key := foldName(s)
	for _, f := range Fuels {
		if foldName(string(f)) == key {
			return f, true
		}
	}
	return "", false
}

// foldName lowercases s and strips combining marks.
func foldName(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, strings.TrimSpace(s))
	if err != nil {
		folded = strings.TrimSpace(s)
	}
	return strings.ToLower(folded)
}

// Transport describes how the trip is made.
type Transport struct {
	Vehicle Vehicle `json:"vehicle"`
	Fuel    Fuel    `json:"fuel"`

	// DistanceKm is the total round-trip distance in kilometers.
	DistanceKm float64 `json:"distance"`

	// Passengers is the number of occupants besides the driver.
	Passengers int `json:"passengers"`
}

// Emission is the output of the emission estimator.
type Emission struct {
	// EmissionFactor is the kg/km factor used, informational.
	EmissionFactor float64 `json:"emissionFactor"`

	// TotalEmission is the trip emission in kg CO2 after the passenger surcharge.
	TotalEmission float64 `json:"totalEmission"`
}

// Calculation is the full derived result for a trip. It is always recomputed
// from an Origin and a Transport and never edited directly.
type Calculation struct {
	EmissionFactor    float64 `json:"emissionFactor"`
	TotalEmission     float64 `json:"totalEmission"`
	CompensationValue float64 `json:"compensationValue"`
}
