package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"blogledger/app/events"
	"blogledger/app/pda"
	"blogledger/app/repositories"
	"blogledger/app/routes"
	"blogledger/app/services"
	"blogledger/internal/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

// server owns everything the HTTP API needs at runtime
type server struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   *repositories.Repository
	bus     *events.EventBus
	handler http.Handler
}

func newServer(cfg *config.Config, logger *slog.Logger) (*server, error) {
	store, err := repositories.NewRepository(cfg.StorePath(), logger.With("component", "store"))
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	bus := events.NewEventBus(reg, logger)
	svc := services.NewBlogService(
		store,
		pda.NewDeriver(cfg.ProgramKey()),
		bus,
		services.WithLogger(logger),
	)
	handler := routes.SetupRoutes(routes.Dependencies{
		Service:  svc,
		Bus:      bus,
		Registry: reg,
		Logger:   logger,
	})
	return &server{
		cfg:     cfg,
		logger:  logger,
		store:   store,
		bus:     bus,
		handler: handler,
	}, nil
}

// Close stops the event bus, then closes the store
func (s *server) Close() error {
	s.bus.Stop()
	return s.store.Close()
}

// Run serves until ctx is canceled, then drains in-flight requests
func (s *server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.cfg.ListenAddr(),
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting API listener",
			"address", s.cfg.ListenAddr(),
			"programId", s.cfg.ProgramKey().String(),
			"inMemory", s.cfg.InMemory,
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("API listener: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down", "timeout", s.cfg.ShutdownDuration().String())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownDuration())
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down cleanly: %w", err)
	}
	return nil
}

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := configFrom(cmd)
			if err != nil {
				return err
			}
			logger := commonRun(cmd, cfg)

			srv, err := newServer(cfg, logger)
			if err != nil {
				return err
			}
			defer func() {
				if err := srv.Close(); err != nil {
					logger.Error("failed to close store", "error", err)
				}
			}()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.Run(ctx)
		},
	}
}
