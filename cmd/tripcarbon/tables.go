package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rshade/tripcarbon/internal/carbon"
)

func newTablesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tables",
		Short: "Show the built-in distance and emission factor tables",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "states",
		Short: "List the states with distance data",
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, s := range carbon.States() {
				fmt.Fprintln(cmd.OutOrStdout(), s)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "cities STATE",
		Short: "List the cities of a state with their round-trip distance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			state := strings.ToUpper(args[0])
			cities := carbon.Cities(state)
			if cities == nil {
				return fmt.Errorf("unknown state %q", args[0])
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "CITY\tROUND TRIP")
			for _, city := range cities {
				km := carbon.ResolveRoundTripDistanceKm(carbon.Origin{State: state, City: city})
				fmt.Fprintf(tw, "%s\t%s\n", city, carbon.FormatDistanceKm(km))
			}
			other := carbon.ResolveRoundTripDistanceKm(carbon.Origin{State: state, CustomCity: true})
			fmt.Fprintf(tw, "(outra cidade)\t%s\n", carbon.FormatDistanceKm(other))
			return tw.Flush()
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "factors",
		Short: "Show the emission factor table in kg CO2 per km",
		RunE: func(cmd *cobra.Command, _ []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			header := []string{"VEHICLE", "CAPACITY"}
			for _, f := range carbon.Fuels {
				header = append(header, strings.ToUpper(string(f)))
			}
			fmt.Fprintln(tw, strings.Join(header, "\t"))
			for _, v := range carbon.Vehicles {
				row := []string{string(v), fmt.Sprint(v.Capacity())}
				for _, f := range carbon.Fuels {
					factor, ok := carbon.GetEmissionFactor(v, f)
					if !ok {
						row = append(row, "-")
						continue
					}
					row = append(row, fmt.Sprintf("%.2f", factor))
				}
				fmt.Fprintln(tw, strings.Join(row, "\t"))
			}
			return tw.Flush()
		},
	})

	return cmd
}
