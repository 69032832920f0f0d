package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/joeshaw/envdecode"

	"mealplanner"
	"mealplanner/coordinator"
	"mealplanner/coordinator/bedrock"
	"mealplanner/oracle"
	"mealplanner/tools"
	"mealplanner/tools/storage"
)

type Params struct {
	Profile mealplanner.Profile `json:"profile"`
}

type Results struct {
	Plan   mealplanner.Plan    `json:"plan"`
	Events []mealplanner.Event `json:"events,omitempty"`
}

func main() {
	fn := func(ctx context.Context, params Params) (Results, error) {
		var modelConfig mealplanner.ModelConfig
		if err := envdecode.Decode(&modelConfig); err != nil {
			return Results{}, fmt.Errorf("failed to decode model config: %w", err)
		}

		var plannerConfig mealplanner.PlannerConfig
		if err := envdecode.Decode(&plannerConfig); err != nil {
			return Results{}, fmt.Errorf("failed to decode planner config: %w", err)
		}

		var s3Config mealplanner.S3Config
		if err := envdecode.Decode(&s3Config); err != nil {
			return Results{}, fmt.Errorf("missing S3 config: %w", err)
		}

		profile := params.Profile.WithDefaults()
		if err := profile.Validate(); err != nil {
			return Results{}, fmt.Errorf("invalid profile: %w", err)
		}

		awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRetryMaxAttempts(5))
		if err != nil {
			return Results{}, fmt.Errorf("failed to load AWS config: %w", err)
		}
		s3Client := s3.NewFromConfig(awsCfg)

		web := tools.NewWebSearch(tools.WebSearchOpts{Endpoint: plannerConfig.SearchEndpoint, APIKey: plannerConfig.SearchAPIKey})
		prices := tools.NewPriceLookup(tools.PriceLookupOpts{
			Cache: storage.NewPriceCache("/tmp/prices", plannerConfig.PriceCacheDays),
			Web:   web,
			Table: storage.NewS3State(s3Client, s3Config.Bucket, s3Config.PricesKey),
		})
		recipes := tools.NewRecipeSearch(tools.RecipeSearchOpts{
			Web:     web,
			Catalog: storage.NewS3State(s3Client, s3Config.Bucket, s3Config.RecipesKey),
			TTL:     plannerConfig.RecipeCacheTTL,
			Limit:   plannerConfig.RecipeSearchLimit,
		})
		slog.Info("SETUP: S3 price table and recipe catalog configured", "bucket", s3Config.Bucket)

		var mergerOpts coordinator.MergerOptions
		if s3Config.EmergencyMenuKey != "" {
			menu, err := storage.LoadMenu(ctx, storage.NewS3State(s3Client, s3Config.Bucket, s3Config.EmergencyMenuKey))
			if err != nil {
				slog.Error("SETUP: Failed to load emergency menu from S3", "error", err)
				return Results{}, err
			}
			mergerOpts.EmergencyMenu = menu
		}

		tracerProvider, meterProvider, otelShutdown, err := mealplanner.InitOtel(ctx)
		if err != nil {
			slog.Error("SETUP: Failed to initialize OpenTelemetry", "error", err)
			return Results{}, err
		}
		defer func() {
			if err := otelShutdown(ctx); err != nil {
				slog.Error("SETUP: Failed to shutdown OpenTelemetry", "error", err)
			}
		}()

		llm := bedrock.NewLLMClient(bedrockruntime.NewFromConfig(awsCfg), bedrock.LLMOptions{
			ModelID:     modelConfig.ModelID,
			MaxTokens:   modelConfig.MaxTokens,
			Temperature: modelConfig.Temperature,
			TopP:        modelConfig.TopP,
			Meter:       meterProvider.Meter(mealplanner.TracerNameBedrock),
		})
		resilient := oracle.NewResilient(
			oracle.NewInstrumented(llm, tracerProvider.Tracer(mealplanner.TracerNameBedrock), meterProvider.Meter(mealplanner.TracerNameBedrock)),
			oracle.Options{
				Timeout:       plannerConfig.OracleTimeout,
				MaxRetries:    plannerConfig.OracleMaxRetries,
				RatePerSecond: plannerConfig.OracleRatePerSecond,
			},
		)

		var events []mealplanner.Event
		plan, err := coordinator.New(resilient,
			coordinator.WithTracer(tracerProvider.Tracer("coordinator")),
			coordinator.WithMeter(meterProvider.Meter("coordinator")),
			coordinator.WithLogger(mealplanner.NewStdoutCoordinationLogger()),
			coordinator.WithPriceLookup(prices),
			coordinator.WithRecipeFinder(recipes),
			coordinator.WithMaxRetries(plannerConfig.MaxRetries),
			coordinator.WithMergerOptions(mergerOpts),
			coordinator.WithEventSink(func(e mealplanner.Event) {
				if e.Type != mealplanner.EventProgress {
					events = append(events, e)
				}
			}),
		).Run(ctx, profile)
		if err != nil {
			slog.Error("RESULT: Error generating plan", "error", err)
			return Results{Events: events}, err
		}

		slog.Info("RESULT: Plan generated", "run_id", plan.RunID, "days", len(plan.Days))
		return Results{Plan: plan, Events: events}, nil
	}

	lambda.Start(fn)
}
