package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rshade/tripcarbon/internal/carbon"
	"github.com/rshade/tripcarbon/internal/config"
)

// app carries state shared by the subcommands.
type app struct {
	cfg       config.Config
	logger    zerolog.Logger
	lookupEnv func(string) (string, bool)

	logLevel  string
	logFormat string
}

// NewRootCmd creates the root command for the tripcarbon CLI.
func NewRootCmd(ver string) *cobra.Command {
	return newRootCmd(ver, os.LookupEnv)
}

func newRootCmd(ver string, lookup func(string) (string, bool)) *cobra.Command {
	a := &app{lookupEnv: lookup}
	def := config.Default()

	cmd := &cobra.Command{
		Use:     "tripcarbon",
		Short:   "Trip carbon emission and compensation calculator",
		Long:    "tripcarbon estimates the CO2 emitted travelling to " + carbon.VenueName + " and prices its offset.",
		Version: ver,
		Example: rootCmdExample,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", def.LogLevel, "log level (trace, debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&a.logFormat, "log-format", def.LogFormat, "log format (json, console)")
	cmd.AddCommand(newServeCmd(a), newCalculateCmd(a), newTablesCmd())

	return cmd
}

const rootCmdExample = `  # Start the HTTP and gRPC servers
  tripcarbon serve --http-addr :8080 --grpc-addr :9090

  # Price a car trip from Campinas with two passengers
  tripcarbon calculate --state SP --city Campinas --vehicle Carro --fuel Flex --passengers 2

  # List the cities with known distances in Minas Gerais
  tripcarbon tables cities MG`

// setup resolves the configuration from environment and flags and builds
// the logger.
func (a *app) setup(cmd *cobra.Command) error {
	bootstrap := zerolog.New(cmd.ErrOrStderr()).With().Timestamp().Logger()

	a.cfg = config.Default()
	a.cfg.ApplyEnv(a.lookupEnv, bootstrap)

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		a.cfg.LogLevel = a.logLevel
	}
	if flags.Changed("log-format") {
		a.cfg.LogFormat = a.logFormat
	}

	a.logger = a.cfg.NewLogger(cmd.ErrOrStderr())
	carbon.SetLogger(a.logger)
	return nil
}
