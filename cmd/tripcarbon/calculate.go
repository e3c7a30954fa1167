package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/rshade/tripcarbon/internal/carbon"
	"github.com/rshade/tripcarbon/internal/config"
	"github.com/rshade/tripcarbon/internal/rpc"
	"github.com/rshade/tripcarbon/internal/wizard"
)

type calculateFlags struct {
	state      string
	city       string
	customCity bool
	vehicle    string
	fuel       string
	passengers int
	distance   float64
	policyFile string
	remote     string
	jsonOutput bool
}

// tripResult is the output of the calculate command.
type tripResult struct {
	Origin            carbon.Origin      `json:"origin"`
	Transport         carbon.Transport   `json:"transport"`
	AutomaticDistance bool               `json:"isAutomaticCalc"`
	Calculation       carbon.Calculation `json:"calculation"`
	MinimumApplied    bool               `json:"minimumApplied"`
}

func newCalculateCmd(a *app) *cobra.Command {
	var f calculateFlags

	cmd := &cobra.Command{
		Use:   "calculate",
		Short: "Estimate the emission and compensation for one trip",
		Example: `  tripcarbon calculate --state RJ --city Búzios --vehicle Van --fuel Diesel --passengers 8
  tripcarbon calculate --state BA --city Ilhéus --vehicle Ônibus --fuel Diesel --distance 2900 --json
  tripcarbon calculate --remote localhost:9090 --state SP --city Santos --vehicle Carro --fuel Flex`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			withDistance := cmd.Flags().Changed("distance")

			var (
				res tripResult
				err error
			)
			if f.remote != "" {
				res, err = calculateRemote(cmd.Context(), f, withDistance)
			} else {
				if cmd.Flags().Changed("policy") {
					a.cfg.PolicyFile = f.policyFile
				}
				res, err = calculateLocal(a.cfg.PolicyFile, f, withDistance)
			}
			if err != nil {
				return err
			}

			if f.jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			return printTrip(cmd.OutOrStdout(), res)
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&f.state, "state", "", "origin state code, e.g. SP")
	fs.StringVar(&f.city, "city", "", "origin city")
	fs.BoolVar(&f.customCity, "custom-city", false, "the city is not in the table; use the state default distance")
	fs.StringVar(&f.vehicle, "vehicle", "Carro", "vehicle (Moto, Carro, Van, Ônibus)")
	fs.StringVar(&f.fuel, "fuel", string(carbon.FuelGasolina), "fuel (Gasolina, Álcool, Diesel, Flex, Elétrico, GNV)")
	fs.IntVar(&f.passengers, "passengers", 0, "passengers besides the driver")
	fs.Float64Var(&f.distance, "distance", 0, "round-trip distance in km (default: resolved from the origin)")
	fs.StringVar(&f.policyFile, "policy", "", "YAML file overriding the pricing policy")
	fs.StringVar(&f.remote, "remote", "", "gRPC address of a tripcarbon server to calculate on")
	fs.BoolVar(&f.jsonOutput, "json", false, "print JSON")

	return cmd
}

func calculateLocal(policyFile string, f calculateFlags, withDistance bool) (tripResult, error) {
	policy, err := config.LoadPolicy(policyFile)
	if err != nil {
		return tripResult{}, err
	}
	calc := carbon.NewCalculator(policy)

	origin, err := wizard.OriginForm{State: f.state, City: f.city, CustomCity: f.customCity}.Origin()
	if err != nil {
		return tripResult{}, err
	}
	vehicle, fuel, err := wizard.TransportForm{Vehicle: f.vehicle, Fuel: f.fuel, Passengers: f.passengers}.Validate()
	if err != nil {
		return tripResult{}, err
	}

	res := tripResult{
		Origin:    origin,
		Transport: carbon.Transport{Vehicle: vehicle, Fuel: fuel, Passengers: f.passengers},
	}
	if withDistance {
		if err := wizard.ValidateDistance(f.distance); err != nil {
			return tripResult{}, err
		}
		res.Transport.DistanceKm = f.distance
	} else {
		res.Transport.DistanceKm = calc.ResolveRoundTripDistanceKm(origin)
		res.AutomaticDistance = true
	}

	res.Calculation = calc.Calculate(res.Transport)
	res.MinimumApplied = calc.MinimumApplied(res.Calculation.TotalEmission)
	return res, nil
}

func calculateRemote(ctx context.Context, f calculateFlags, withDistance bool) (tripResult, error) {
	conn, err := grpc.NewClient(f.remote, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return tripResult{}, fmt.Errorf("failed to connect to %s: %w", f.remote, err)
	}
	defer conn.Close()

	fields := map[string]any{
		"state":      f.state,
		"city":       f.city,
		"customCity": f.customCity,
		"vehicle":    f.vehicle,
		"fuel":       f.fuel,
		"passengers": f.passengers,
	}
	if withDistance {
		fields["distance"] = f.distance
	}
	in, err := structpb.NewStruct(fields)
	if err != nil {
		return tripResult{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	out, err := rpc.NewClient(conn).Calculate(ctx, in)
	if err != nil {
		return tripResult{}, err
	}

	m := out.GetFields()
	return tripResult{
		Origin: carbon.Origin{
			State:      m["state"].GetStringValue(),
			City:       m["city"].GetStringValue(),
			CustomCity: m["customCity"].GetBoolValue(),
		},
		Transport: carbon.Transport{
			Vehicle:    carbon.Vehicle(m["vehicle"].GetStringValue()),
			Fuel:       carbon.Fuel(m["fuel"].GetStringValue()),
			DistanceKm: m["distance"].GetNumberValue(),
			Passengers: int(m["passengers"].GetNumberValue()),
		},
		AutomaticDistance: m["isAutomaticCalc"].GetBoolValue(),
		Calculation: carbon.Calculation{
			EmissionFactor:    m["emissionFactor"].GetNumberValue(),
			TotalEmission:     m["totalEmission"].GetNumberValue(),
			CompensationValue: m["compensationValue"].GetNumberValue(),
		},
		MinimumApplied: m["minimumApplied"].GetBoolValue(),
	}, nil
}

func printTrip(w io.Writer, res tripResult) error {
	distanceNote := "informada"
	if res.AutomaticDistance {
		distanceNote = "ida e volta"
	}
	city := res.Origin.City
	if city == "" {
		city = "-"
	}
	compensation := carbon.FormatCurrencyBRL(res.Calculation.CompensationValue)
	if res.MinimumApplied {
		compensation += " (valor mínimo)"
	}

	_, err := fmt.Fprintf(w,
		"Origem:        %s, %s\n"+
			"Destino:       %s\n"+
			"Transporte:    %s (%s), %d passageiro(s)\n"+
			"Distância:     %s (%s)\n"+
			"Fator:         %s\n"+
			"Emissão:       %s CO2\n"+
			"Compensação:   %s\n",
		city, res.Origin.State,
		carbon.VenueName,
		res.Transport.Vehicle, res.Transport.Fuel, res.Transport.Passengers,
		carbon.FormatDistanceKm(res.Transport.DistanceKm), distanceNote,
		carbon.FormatFactor(res.Calculation.EmissionFactor),
		carbon.FormatKg(res.Calculation.TotalEmission),
		compensation,
	)
	return err
}
