package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/comparador-uy/backend/config"
	httpDelivery "github.com/comparador-uy/backend/internal/delivery/http"
	"github.com/comparador-uy/backend/internal/domain"
	"github.com/comparador-uy/backend/internal/metrics"
	"github.com/comparador-uy/backend/internal/observability"
)

const shutdownTimeout = 15 * time.Second

var cfgFile string

// newRootCmd builds the command tree
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "comparador",
		Short: "Match grocery items against competitor storefront catalogs",
		Long: `comparador resolves free-text grocery items to the best matching product
of a competitor storefront and reports its price, list price and availability.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default searches ./config.yaml, ./config/config.yaml, /etc/comparador/config.yaml)")

	root.AddCommand(newServeCmd(), newResolveCmd())
	return root
}

// newServeCmd starts the HTTP API
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg, logger)
		},
	}
}

// newResolveCmd compares items from the command line and prints the JSON result
func newResolveCmd() *cobra.Command {
	var (
		competitor string
		store      string
	)
	cmd := &cobra.Command{
		Use:   "resolve [items...]",
		Short: "Resolve items against one competitor and print the results",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			app, err := buildApp(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer app.Close()

			resp, err := app.compare.Compare(ctx, &domain.CompareRequest{
				Competitor: competitor,
				Store:      store,
				Limit:      len(args),
				Items:      args,
			})
			if err != nil {
				return fmt.Errorf("compare: %w", err)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(resp)
		},
	}
	cmd.Flags().StringVarP(&competitor, "competitor", "c", "tata", "backend key to query")
	cmd.Flags().StringVarP(&store, "store", "s", "", "store name to select on the storefront")
	return cmd
}

func loadConfig() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("failed to load configuration: %w", err)
	}
	logger := observability.NewLogger(observability.LogConfig{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		ServiceName: "comparador",
	})
	return cfg, logger, nil
}

// serve runs the API until SIGINT/SIGTERM and then drains in-flight requests
func serve(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}

	app, err := buildApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	metrics.Register()

	backends := make([]string, 0, len(cfg.Backends))
	for _, b := range cfg.BackendProfiles() {
		backends = append(backends, b.Key)
	}
	logger.Info().
		Str("environment", cfg.Server.Environment).
		Str("cache", cfg.Cache.Type).
		Dur("cache_ttl", cfg.Cache.TTL).
		Int("score_threshold", cfg.Resolver.ScoreThreshold).
		Bool("browser", cfg.Browser.Enabled).
		Str("backends", strings.Join(backends, ",")).
		Msg("starting comparador backend")

	handler := httpDelivery.NewHandler(app.compare, cfg.BackendProfiles(), observability.Component(logger, "http"))
	router := httpDelivery.SetupRouter(cfg, handler, observability.Component(logger, "http"))

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("HTTP server listening")
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case sig := <-shutdown:
		logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
		return srv.Close()
	}

	logger.Info().Msg("server stopped")
	return nil
}
