package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"mealplanner"
	"mealplanner/coordinator"
	"mealplanner/slack"
)

type generateOptions struct {
	backend     string
	profilePath string
	dump        bool
	logSteps    bool
	verbose     bool
	profile     mealplanner.Profile
}

func newGenerateCmd() *cobra.Command {
	opts := &generateOptions{}
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a meal plan and print its progress",
		Long: `Generate a meal plan from profile flags or a JSON profile file.

Examples:
  mealplanner generate --goal diet --weight 68 --height 170 --age 29 --gender female --budget 70000 --days 3
  mealplanner generate --profile profile.json --backend bedrock --dump`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.backend, "backend", backendMock, "oracle backend: mock, bedrock or ollama")
	f.StringVar(&opts.profilePath, "profile", "", "JSON profile file; overrides the profile flags")
	f.BoolVar(&opts.dump, "dump", false, "dump the full plan structure")
	f.BoolVar(&opts.logSteps, "log-steps", false, "write a coordination log under ./logs")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "print progress events too")

	p := &opts.profile
	f.StringVar((*string)(&p.Goal), "goal", string(mealplanner.GoalMaintain), "diet, bulk, maintain or disease_management")
	f.Float64Var(&p.Weight, "weight", 70, "weight in kg")
	f.Float64Var(&p.Height, "height", 170, "height in cm")
	f.IntVar(&p.Age, "age", 30, "age in years")
	f.StringVar(&p.Gender, "gender", "male", "male or female")
	f.StringVar((*string)(&p.ActivityLevel), "activity", string(mealplanner.ActivityModerate), "low, moderate, high or very_high")
	f.StringSliceVar(&p.Restrictions, "restrictions", nil, "ingredients to avoid")
	f.StringSliceVar(&p.HealthConditions, "conditions", nil, "diabetes, hypertension, hyperlipidemia")
	f.IntVar(&p.Budget, "budget", 100000, "budget in won")
	f.StringVar((*string)(&p.BudgetType), "budget-type", string(mealplanner.BudgetWeekly), "weekly, daily or per_meal")
	f.StringVar((*string)(&p.BudgetDistribution), "budget-distribution", string(mealplanner.DistributionEqual), "equal or weighted")
	f.StringVar((*string)(&p.CookingTime), "cooking-time", string(mealplanner.CookingTimeUnlimited), "15min, 30min or unlimited")
	f.StringVar((*string)(&p.SkillLevel), "skill", string(mealplanner.SkillIntermediate), "beginner, intermediate or advanced")
	f.IntVar(&p.MealsPerDay, "meals", 3, "meals per day (1-4)")
	f.IntVar(&p.Days, "days", 1, "number of days (1-7)")

	return cmd
}

func runGenerate(cmd *cobra.Command, opts *generateOptions) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	profile := opts.profile
	if opts.profilePath != "" {
		b, err := os.ReadFile(opts.profilePath)
		if err != nil {
			return fmt.Errorf("read profile: %w", err)
		}
		profile = mealplanner.Profile{}
		if err := json.Unmarshal(b, &profile); err != nil {
			return fmt.Errorf("parse profile: %w", err)
		}
	}
	profile = profile.WithDefaults()
	if err := profile.Validate(); err != nil {
		return fmt.Errorf("invalid profile: %w", err)
	}

	cfg, err := loadPlannerConfig()
	if err != nil {
		return err
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

	llm, model, err := newOracle(ctx, opts.backend, cfg, tracerProvider, meterProvider)
	if err != nil {
		return err
	}
	prices, recipes := newLookups(cfg)
	mergerOpts, err := emergencyMenu(ctx, cfg.ArtifactsEmergencyMenuPath)
	if err != nil {
		return err
	}

	printer := newEventPrinter(cmd.OutOrStdout(), opts.verbose)
	coordOpts := []coordinator.Option{
		coordinator.WithTracer(tracerProvider.Tracer("coordinator")),
		coordinator.WithMeter(meterProvider.Meter("coordinator")),
		coordinator.WithPriceLookup(prices),
		coordinator.WithRecipeFinder(recipes),
		coordinator.WithMaxRetries(cfg.MaxRetries),
		coordinator.WithMergerOptions(mergerOpts),
		coordinator.WithEventSink(printer.sink),
	}

	if opts.logSteps {
		logger, cleanup, err := newCoordinationLogger(model)
		if err != nil {
			return err
		}
		defer func() {
			if err := cleanup(); err != nil {
				slog.Error("Failed to flush coordination log", "error", err)
			}
		}()
		coordOpts = append(coordOpts, coordinator.WithLogger(logger))
	}

	if cfg.SlackWebhookURL != "" {
		notifier := slack.NewEventNotifier(slack.NewClient(cfg.SlackWebhookURL, nil), cfg.SlackChannel)
		defer notifier.Wait()
		coordOpts = append(coordOpts, coordinator.WithEventSink(notifier.Sink(ctx)))
	}

	ctx, span := tracerProvider.Tracer("mealplanner").Start(ctx, "generate", trace.WithAttributes(
		attribute.String("backend", opts.backend),
		attribute.String("model.id", model),
		attribute.Int("plan.days", profile.Days),
		attribute.Int("plan.meals_per_day", profile.MealsPerDay),
	))
	defer span.End()

	plan, err := coordinator.New(llm, coordOpts...).Run(ctx, profile)
	if err != nil {
		slog.Error("RESULT: Error generating plan", "error", err)
		return err
	}

	out := cmd.OutOrStdout()
	printPlan(out, plan)
	if opts.dump {
		mealplanner.Dump(out, plan)
	}
	return nil
}
