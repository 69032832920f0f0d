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

	"github.com/spf13/cobra"

	"mealplanner"
	"mealplanner/coordinator"
	"mealplanner/slack"
	"mealplanner/stream"
)

func newServeCmd() *cobra.Command {
	var (
		addr    string
		backend string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the streaming meal plan API",
		Long: `Serve POST /api/generate (server-sent events) and GET /api/health.

The listen address defaults to HTTP_ADDR.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), addr, backend)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default $HTTP_ADDR)")
	cmd.Flags().StringVar(&backend, "backend", backendBedrock, "oracle backend: mock, bedrock or ollama")
	return cmd
}

func runServe(ctx context.Context, addr, backend string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadPlannerConfig()
	if err != nil {
		return err
	}
	if addr == "" {
		addr = cfg.HTTPAddr
	}

	tracerProvider, meterProvider, otelShutdown, err := mealplanner.InitOtel(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}
	defer func() {
		if err := otelShutdown(context.Background()); err != nil {
			slog.Error("SETUP: Failed to shutdown OpenTelemetry", "error", err)
		}
	}()

	llm, _, err := newOracle(ctx, backend, cfg, tracerProvider, meterProvider)
	if err != nil {
		return err
	}
	prices, recipes := newLookups(cfg)
	mergerOpts, err := emergencyMenu(ctx, cfg.ArtifactsEmergencyMenuPath)
	if err != nil {
		return err
	}

	base := []coordinator.Option{
		coordinator.WithTracer(tracerProvider.Tracer("coordinator")),
		coordinator.WithMeter(meterProvider.Meter("coordinator")),
		coordinator.WithPriceLookup(prices),
		coordinator.WithRecipeFinder(recipes),
		coordinator.WithMaxRetries(cfg.MaxRetries),
		coordinator.WithMergerOptions(mergerOpts),
	}
	planner := func(sinks ...mealplanner.EventSink) mealplanner.Coordinator {
		opts := append([]coordinator.Option(nil), base...)
		for _, s := range sinks {
			opts = append(opts, coordinator.WithEventSink(s))
		}
		return coordinator.New(llm, opts...)
	}

	handlerOpts := []stream.HandlerOption{stream.WithVersion(version)}
	if cfg.SlackWebhookURL != "" {
		notifier := slack.NewEventNotifier(slack.NewClient(cfg.SlackWebhookURL, nil), cfg.SlackChannel)
		defer notifier.Wait()
		handlerOpts = append(handlerOpts, stream.WithSink(notifier.Sink(ctx)))
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           stream.NewHandler(planner, handlerOpts...).Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("STREAM: Listening", "addr", addr, "backend", backend)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("STREAM: Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
