package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/joeshaw/envdecode"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"mealplanner"
	"mealplanner/coordinator"
	"mealplanner/coordinator/bedrock"
	"mealplanner/coordinator/mock"
	"mealplanner/coordinator/ollama"
	"mealplanner/oracle"
	"mealplanner/tools"
	"mealplanner/tools/storage"
)

const (
	backendMock    = "mock"
	backendBedrock = "bedrock"
	backendOllama  = "ollama"
)

func loadPlannerConfig() (mealplanner.PlannerConfig, error) {
	var cfg mealplanner.PlannerConfig
	if err := envdecode.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to decode planner config: %w", err)
	}
	return cfg, nil
}

// newOracle builds the backend and wraps it so every attempt is traced and
// rate limited calls are retried.
func newOracle(ctx context.Context, backend string, cfg mealplanner.PlannerConfig, tp trace.TracerProvider, mp metric.MeterProvider) (mealplanner.Oracle, string, error) {
	if cfg.MockMode {
		backend = backendMock
	}

	var (
		base       mealplanner.Oracle
		model      string
		tracerName string
	)
	switch backend {
	case backendMock:
		base, model, tracerName = mock.NewLLMClient(), backendMock, mealplanner.TracerNameMock
	case backendBedrock, backendOllama:
		var modelConfig mealplanner.ModelConfig
		if err := envdecode.Decode(&modelConfig); err != nil {
			return nil, "", fmt.Errorf("failed to decode model config: %w", err)
		}
		model = modelConfig.ModelID
		if backend == backendBedrock {
			brc, err := newBedrockRuntimeClient(ctx)
			if err != nil {
				return nil, "", fmt.Errorf("failed to create Bedrock client: %w", err)
			}
			base = bedrock.NewLLMClient(brc, bedrock.LLMOptions{
				ModelID:     modelConfig.ModelID,
				MaxTokens:   modelConfig.MaxTokens,
				Temperature: modelConfig.Temperature,
				TopP:        modelConfig.TopP,
				Meter:       mp.Meter(mealplanner.TracerNameBedrock),
			})
			tracerName = mealplanner.TracerNameBedrock
		} else {
			client, err := ollama.NewClient(ollama.ClientOpts{
				BaseEndpoint: cfg.BaseOllamaEndpoint,
				ModelID:      modelConfig.ModelID,
				Temperature:  float64(modelConfig.Temperature),
				MaxTokens:    int(modelConfig.MaxTokens),
			})
			if err != nil {
				return nil, "", fmt.Errorf("failed to create Ollama client: %w", err)
			}
			base, tracerName = client, mealplanner.TracerNameOllama
		}
	default:
		return nil, "", fmt.Errorf("unknown backend %q: want %s, %s or %s", backend, backendMock, backendBedrock, backendOllama)
	}

	slog.Info("SETUP: Oracle ready", "backend", backend, "model", model)
	instrumented := oracle.NewInstrumented(base, tp.Tracer(tracerName), mp.Meter(tracerName))
	return oracle.NewResilient(instrumented, oracle.Options{
		Timeout:       cfg.OracleTimeout,
		MaxRetries:    cfg.OracleMaxRetries,
		RatePerSecond: cfg.OracleRatePerSecond,
	}), model, nil
}

func newBedrockRuntimeClient(ctx context.Context) (*bedrockruntime.Client, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRetryMaxAttempts(5))
	if err != nil {
		return nil, err
	}
	return bedrockruntime.NewFromConfig(awsCfg), nil
}

func newLookups(cfg mealplanner.PlannerConfig) (*tools.PriceLookup, *tools.RecipeSearch) {
	web := tools.NewWebSearch(tools.WebSearchOpts{Endpoint: cfg.SearchEndpoint, APIKey: cfg.SearchAPIKey})
	if !web.Enabled() {
		slog.Info("SETUP: Web search disabled, using local artifacts only")
	}
	prices := tools.NewPriceLookup(tools.PriceLookupOpts{
		Cache: storage.NewPriceCache(cfg.PriceCacheDir, cfg.PriceCacheDays),
		Web:   web,
		Table: storage.NewFileState(cfg.ArtifactsPricesPath),
	})
	recipes := tools.NewRecipeSearch(tools.RecipeSearchOpts{
		Web:     web,
		Catalog: storage.NewFileState(cfg.ArtifactsRecipesPath),
		TTL:     cfg.RecipeCacheTTL,
		Limit:   cfg.RecipeSearchLimit,
	})
	return prices, recipes
}

// emergencyMenu loads the configured fallback menu. An unset path keeps the built-in one.
func emergencyMenu(ctx context.Context, path string) (coordinator.MergerOptions, error) {
	if path == "" {
		return coordinator.MergerOptions{}, nil
	}
	menu, err := storage.LoadMenu(ctx, storage.NewFileState(path))
	if err != nil {
		return coordinator.MergerOptions{}, err
	}
	slog.Info("SETUP: Emergency menu loaded", "menu", menu.MenuName, "path", path)
	return coordinator.MergerOptions{EmergencyMenu: menu}, nil
}

func newCoordinationLogger(model string) (mealplanner.CoordinationLogger, func() error, error) {
	logFilePath := mealplanner.NewCoordinationLogFilePath(model)
	if err := os.MkdirAll(filepath.Dir(logFilePath), 0o755); err != nil {
		return nil, func() error { return err }, fmt.Errorf("failed to create log dir: %w", err)
	}
	logFile, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, func() error { return err }, fmt.Errorf("failed to open log file: %w", err)
	}

	logger := mealplanner.NewFileCoordinationLogger(logFile)
	cleanup := func() error {
		return errors.Join(logger.Flush(), logFile.Close())
	}
	return logger, cleanup, nil
}
