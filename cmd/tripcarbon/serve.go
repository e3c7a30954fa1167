package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/rshade/tripcarbon/internal/carbon"
	"github.com/rshade/tripcarbon/internal/config"
	"github.com/rshade/tripcarbon/internal/rpc"
	"github.com/rshade/tripcarbon/internal/server"
	"github.com/rshade/tripcarbon/internal/store"
)

const shutdownTimeout = 10 * time.Second

type serveFlags struct {
	httpAddr       string
	grpcAddr       string
	storeDriver    string
	storePath      string
	policyFile     string
	pixKey         string
	successReset   time.Duration
	rateLimit      float64
	rateBurst      int
	trustProxy     bool
	allowedOrigins []string
}

func newServeCmd(a *app) *cobra.Command {
	var f serveFlags
	def := config.Default()

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the gRPC calculator service",
		RunE: func(cmd *cobra.Command, _ []string) error {
			f.apply(cmd, &a.cfg)
			if err := a.cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			return serve(cmd.Context(), a.cfg, a.logger, nil)
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&f.httpAddr, "http-addr", def.HTTPAddr, "HTTP listen address")
	fs.StringVar(&f.grpcAddr, "grpc-addr", def.GRPCAddr, "gRPC listen address (empty disables gRPC)")
	fs.StringVar(&f.storeDriver, "store", def.StoreDriver, "session store (memory, file, sqlite)")
	fs.StringVar(&f.storePath, "store-path", def.StorePath, "directory for the file store or database file for sqlite")
	fs.StringVar(&f.policyFile, "policy", def.PolicyFile, "YAML file overriding the pricing policy")
	fs.StringVar(&f.pixKey, "pix-key", def.PixKey, "PIX key receiving compensation payments")
	fs.DurationVar(&f.successReset, "success-reset", def.SuccessReset, "time on the success page before a session restarts")
	fs.Float64Var(&f.rateLimit, "rate-limit", def.RateLimit, "requests per second per client (0 disables)")
	fs.IntVar(&f.rateBurst, "rate-burst", def.RateBurst, "rate limiter burst size")
	fs.BoolVar(&f.trustProxy, "trust-proxy", def.TrustProxy, "rate limit on X-Forwarded-For/X-Real-IP (only behind a trusted proxy)")
	fs.StringSliceVar(&f.allowedOrigins, "cors-origins", nil, "allowed CORS origins")

	return cmd
}

// apply overrides cfg with the flags set on the command line.
func (f *serveFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	fs := cmd.Flags()
	if fs.Changed("http-addr") {
		cfg.HTTPAddr = f.httpAddr
	}
	if fs.Changed("grpc-addr") {
		cfg.GRPCAddr = f.grpcAddr
	}
	if fs.Changed("store") {
		cfg.StoreDriver = f.storeDriver
	}
	if fs.Changed("store-path") {
		cfg.StorePath = f.storePath
	}
	if fs.Changed("policy") {
		cfg.PolicyFile = f.policyFile
	}
	if fs.Changed("pix-key") {
		cfg.PixKey = f.pixKey
	}
	if fs.Changed("success-reset") {
		cfg.SuccessReset = f.successReset
	}
	if fs.Changed("rate-limit") {
		cfg.RateLimit = f.rateLimit
	}
	if fs.Changed("rate-burst") {
		cfg.RateBurst = f.rateBurst
	}
	if fs.Changed("trust-proxy") {
		cfg.TrustProxy = f.trustProxy
	}
	if fs.Changed("cors-origins") {
		cfg.AllowedOrigins = f.allowedOrigins
	}
}

// listeners reports the bound addresses once both servers are listening.
// grpcAddr is nil when gRPC is disabled.
type listeners func(httpAddr, grpcAddr net.Addr)

// serve runs the servers until ctx is canceled, then shuts them down.
func serve(ctx context.Context, cfg config.Config, logger zerolog.Logger, ready listeners) error {
	policy, err := config.LoadPolicy(cfg.PolicyFile)
	if err != nil {
		return err
	}
	calc := carbon.NewCalculator(policy)

	st, err := store.New(cfg.Store())
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close store")
		}
	}()

	api := server.New(server.Options{
		Calculator:     calc,
		Store:          st,
		Logger:         logger,
		PixKey:         cfg.PixKey,
		SuccessReset:   cfg.SuccessReset,
		RateLimit:      cfg.RateLimit,
		RateBurst:      cfg.RateBurst,
		TrustProxy:     cfg.TrustProxy,
		AllowedOrigins: cfg.AllowedOrigins,
	})
	defer api.Close()

	httpLis, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.HTTPAddr, err)
	}
	httpServer := &http.Server{
		Handler:           api,
		ReadHeaderTimeout: 10 * time.Second,
	}

	var grpcLis net.Listener
	if cfg.GRPCAddr != "" {
		grpcLis, err = net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			httpLis.Close()
			return fmt.Errorf("failed to listen on %s: %w", cfg.GRPCAddr, err)
		}
	}
	grpcServer, health := rpc.NewServer(rpc.NewService(calc, logger), logger)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info().
			Str("addr", httpLis.Addr().String()).
			Str("store", cfg.StoreDriver).
			Float64("price_per_ton_brl", policy.PricePerTonBRL).
			Float64("minimum_compensation_brl", policy.MinimumCompensationBRL).
			Msg("starting HTTP server")
		if err := httpServer.Serve(httpLis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	if grpcLis != nil {
		g.Go(func() error {
			logger.Info().Str("addr", grpcLis.Addr().String()).Msg("starting gRPC server")
			if err := grpcServer.Serve(grpcLis); err != nil && !errors.Is(err, net.ErrClosed) {
				return fmt.Errorf("grpc server: %w", err)
			}
			return nil
		})
	}

	if ready != nil {
		var grpcAddr net.Addr
		if grpcLis != nil {
			grpcAddr = grpcLis.Addr()
		}
		ready(httpLis.Addr(), grpcAddr)
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down")

		health.Shutdown()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		stopped := make(chan struct{})
		go func() {
			grpcServer.GracefulStop()
			close(stopped)
		}()
		err := httpServer.Shutdown(shutdownCtx)
		select {
		case <-stopped:
		case <-shutdownCtx.Done():
			grpcServer.Stop()
		}
		if err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}
