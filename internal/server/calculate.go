package server

import (
	"net/http"
	"strings"

	"github.com/rshade/tripcarbon/internal/carbon"
	"github.com/rshade/tripcarbon/internal/metrics"
	"github.com/rshade/tripcarbon/internal/wizard"
)

// calculateRequest is the body of POST /api/v1/calculate. A missing
// distance is resolved from the origin.
type calculateRequest struct {
	Origin    wizard.OriginForm `json:"origin"`
	Transport struct {
		wizard.TransportForm
		DistanceKm *float64 `json:"distance,omitempty"`
	} `json:"transport"`
}

// Formatted holds the pt-BR display strings for a calculation.
type Formatted struct {
	Distance          string `json:"distance"`
	EmissionFactor    string `json:"emissionFactor"`
	TotalEmission     string `json:"totalEmission"`
	CompensationValue string `json:"compensationValue"`
}

func formatCalculation(distanceKm float64, c carbon.Calculation) Formatted {
	return Formatted{
		Distance:          carbon.FormatDistanceKm(distanceKm),
		EmissionFactor:    carbon.FormatFactor(c.EmissionFactor),
		TotalEmission:     carbon.FormatKg(c.TotalEmission),
		CompensationValue: carbon.FormatCurrencyBRL(c.CompensationValue),
	}
}

type calculateResponse struct {
	Origin            carbon.Origin         `json:"origin"`
	DistanceSource    carbon.DistanceSource `json:"distanceSource,omitempty"`
	AutomaticDistance bool                  `json:"isAutomaticCalc"`
	Transport         carbon.Transport      `json:"transport"`
	Calculation       carbon.Calculation    `json:"calculation"`
	MinimumApplied    bool                  `json:"minimumApplied"`
	Formatted         Formatted             `json:"formatted"`
}

func (s *Server) handleCalculate(w http.ResponseWriter, r *http.Request) {
	var req calculateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, err, nil)
		return
	}

	origin, err := req.Origin.Origin()
	if err != nil {
		writeDomainError(w, err, nil)
		return
	}
	vehicle, fuel, err := req.Transport.Validate()
	if err != nil {
		writeDomainError(w, err, nil)
		return
	}

	resp := calculateResponse{Origin: origin}
	transport := carbon.Transport{Vehicle: vehicle, Fuel: fuel, Passengers: req.Transport.Passengers}
	if req.Transport.DistanceKm != nil {
		if err := wizard.ValidateDistance(*req.Transport.DistanceKm); err != nil {
			writeDomainError(w, err, nil)
			return
		}
		transport.DistanceKm = *req.Transport.DistanceKm
	} else {
		oneWay, source := carbon.LookupOneWayDistanceKm(origin)
		transport.DistanceKm = oneWay * carbon.RoundTripMultiplier
		resp.DistanceSource = source
		resp.AutomaticDistance = true
	}

	calc := s.calc.Calculate(transport)
	minimum := s.calc.MinimumApplied(calc.TotalEmission)
	metrics.RecordCalculation(string(vehicle), string(fuel), calc.TotalEmission, minimum)

	resp.Transport = transport
	resp.Calculation = calc
	resp.MinimumApplied = minimum
	resp.Formatted = formatCalculation(transport.DistanceKm, calc)

	s.logger.Debug().
		Str("trace_id", TraceIDFromContext(r.Context())).
		Str("state", origin.State).
		Str("city", origin.City).
		Str("vehicle", string(vehicle)).
		Str("fuel", string(fuel)).
		Float64("distance_km", transport.DistanceKm).
		Float64("emission_kg", calc.TotalEmission).
		Float64("compensation_brl", calc.CompensationValue).
		Msg("calculated")

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStates(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"states": carbon.States()})
}

func (s *Server) handleCities(w http.ResponseWriter, r *http.Request) {
	state := strings.ToUpper(r.PathValue("state"))
	cities := carbon.Cities(state)
	if cities == nil {
		writeError(w, http.StatusNotFound, "unknown state "+state, nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"state": state, "cities": cities})
}

type vehicleInfo struct {
	Name     carbon.Vehicle `json:"name"`
	Capacity int            `json:"capacity"`
	Fuels    []fuelFactor   `json:"fuels"`
}

type fuelFactor struct {
	Fuel           carbon.Fuel `json:"fuel"`
	EmissionFactor float64     `json:"emissionFactor"`
}

func (s *Server) handleVehicles(w http.ResponseWriter, _ *http.Request) {
	out := make([]vehicleInfo, 0, len(carbon.Vehicles))
	for _, v := range carbon.Vehicles {
		info := vehicleInfo{Name: v, Capacity: v.Capacity()}
		for _, f := range carbon.Fuels {
			info.Fuels = append(info.Fuels, fuelFactor{Fuel: f, EmissionFactor: s.calc.EmissionFactor(v, f)})
		}
		out = append(out, info)
	}
	writeJSON(w, http.StatusOK, map[string]any{"vehicles": out})
}
