package rpc

import (
	"context"
	"errors"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/rshade/tripcarbon/internal/carbon"
	"github.com/rshade/tripcarbon/internal/metrics"
	"github.com/rshade/tripcarbon/internal/wizard"
)

// TraceIDMetadataKey is the incoming metadata key holding the trace ID.
const TraceIDMetadataKey = "x-trace-id"

const errorDomain = "tripcarbon"

// Service implements CalculatorServer.
type Service struct {
	calc   *carbon.Calculator
	logger zerolog.Logger
}

// NewService creates the Calculator service.
func NewService(calc *carbon.Calculator, logger zerolog.Logger) *Service {
	return &Service{
		calc:   calc,
		logger: logger.With().Str("component", "grpc").Logger(),
	}
}

// traceID reads the trace ID from incoming metadata or generates one.
func traceID(ctx context.Context) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get(TraceIDMetadataKey); len(values) > 0 && values[0] != "" {
			return values[0]
		}
	}
	return uuid.New().String()
}

// newErrorWithID builds a status error carrying the trace ID and, for
// validation failures, the rejected field.
func (s *Service) newErrorWithID(traceID string, code codes.Code, msg, reason, field string) error {
	info := &errdetails.ErrorInfo{
		Reason:   reason,
		Domain:   errorDomain,
		Metadata: map[string]string{"trace_id": traceID},
	}
	if field != "" {
		info.Metadata["field"] = field
	}

	st := status.New(code, msg)
	withDetails, err := st.WithDetails(info)
	if err != nil {
		s.logger.Warn().
			Str("trace_id", traceID).
			Str("grpc_code", code.String()).
			Err(err).
			Msg("failed to attach error details to gRPC status")
		return st.Err()
	}
	return withDetails.Err()
}

// invalidArgument converts a validation error into a status error.
func (s *Service) invalidArgument(traceID, op string, err error) error {
	field := ""
	msg := err.Error()
	var verr *wizard.ValidationError
	if errors.As(err, &verr) {
		field = verr.Field
		msg = verr.Message
	}
	s.logger.Debug().
		Str("trace_id", traceID).
		Str("operation", op).
		Str("field", field).
		Msg(msg)
	return s.newErrorWithID(traceID, codes.InvalidArgument, msg, "INVALID_INPUT", field)
}

// Calculate implements CalculatorServer.
//
// Request fields: state, city, customCity, customCityName, vehicle, fuel,
// passengers and an optional distance in km.
func (s *Service) Calculate(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	id := traceID(ctx)
	req := fields{in.GetFields()}

	originForm := wizard.OriginForm{
		State:          req.str("state"),
		City:           req.str("city"),
		CustomCity:     req.boolean("customCity"),
		CustomCityName: req.str("customCityName"),
	}
	origin, err := originForm.Origin()
	if err != nil {
		return nil, s.invalidArgument(id, "Calculate", err)
	}

	passengers, ok := req.integer("passengers")
	if !ok {
		return nil, s.invalidArgument(id, "Calculate",
			&wizard.ValidationError{Field: "passengers", Message: "Número de passageiros deve ser inteiro"})
	}
	transportForm := wizard.TransportForm{
		Vehicle:    req.str("vehicle"),
		Fuel:       req.str("fuel"),
		Passengers: passengers,
	}
	vehicle, fuel, err := transportForm.Validate()
	if err != nil {
		return nil, s.invalidArgument(id, "Calculate", err)
	}

	transport := carbon.Transport{Vehicle: vehicle, Fuel: fuel, Passengers: passengers}
	source := ""
	if km, present := req.number("distance"); present {
		if err := wizard.ValidateDistance(km); err != nil {
			return nil, s.invalidArgument(id, "Calculate", err)
		}
		transport.DistanceKm = km
	} else {
		oneWay, src := carbon.LookupOneWayDistanceKm(origin)
		transport.DistanceKm = oneWay * carbon.RoundTripMultiplier
		source = string(src)
	}

	calc := s.calc.Calculate(transport)
	minimum := s.calc.MinimumApplied(calc.TotalEmission)
	metrics.RecordCalculation(string(vehicle), string(fuel), calc.TotalEmission, minimum)

	s.logger.Debug().
		Str("trace_id", id).
		Str("operation", "Calculate").
		Float64("distance_km", transport.DistanceKm).
		Float64("emission_kg", calc.TotalEmission).
		Msg("calculated")

	out, err := structpb.NewStruct(map[string]any{
		"state":             origin.State,
		"city":              origin.City,
		"customCity":        origin.CustomCity,
		"vehicle":           string(vehicle),
		"fuel":              string(fuel),
		"passengers":        passengers,
		"distance":          transport.DistanceKm,
		"distanceSource":    source,
		"isAutomaticCalc":   source != "",
		"emissionFactor":    calc.EmissionFactor,
		"totalEmission":     calc.TotalEmission,
		"compensationValue": calc.CompensationValue,
		"minimumApplied":    minimum,
		"formatted": map[string]any{
			"distance":          carbon.FormatDistanceKm(transport.DistanceKm),
			"emissionFactor":    carbon.FormatFactor(calc.EmissionFactor),
			"totalEmission":     carbon.FormatKg(calc.TotalEmission),
			"compensationValue": carbon.FormatCurrencyBRL(calc.CompensationValue),
		},
	})
	if err != nil {
		return nil, s.newErrorWithID(id, codes.Internal, "failed to build response", "INTERNAL", "")
	}
	return out, nil
}

// ListCities implements CalculatorServer.
func (s *Service) ListCities(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	id := traceID(ctx)
	state := strings.ToUpper(fields{in.GetFields()}.str("state"))

	if state == "" {
		return structpb.NewStruct(map[string]any{"states": toAny(carbon.States())})
	}
	cities := carbon.Cities(state)
	if cities == nil {
		return nil, s.newErrorWithID(id, codes.NotFound, "unknown state "+state, "UNKNOWN_STATE", "state")
	}
	return structpb.NewStruct(map[string]any{"state": state, "cities": toAny(cities)})
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

// fields reads typed values from a Struct. Missing or mistyped values read
// as zero.
type fields struct {
	m map[string]*structpb.Value
}

func (f fields) str(key string) string {
	return f.m[key].GetStringValue()
}

func (f fields) boolean(key string) bool {
	return f.m[key].GetBoolValue()
}

// number returns the numeric value and whether the key is present and
// numeric.
func (f fields) number(key string) (float64, bool) {
	v, ok := f.m[key]
	if !ok {
		return 0, false
	}
	if _, isNum := v.GetKind().(*structpb.Value_NumberValue); !isNum {
		return math.NaN(), true
	}
	return v.GetNumberValue(), true
}

// integer returns the value as an int; absent reads as 0. Fractional or
// non-numeric values report false.
func (f fields) integer(key string) (int, bool) {
	n, present := f.number(key)
	if !present {
		return 0, true
	}
	if math.IsNaN(n) || n != math.Trunc(n) || math.Abs(n) > math.MaxInt32 {
		return 0, false
	}
	return int(n), true
}
