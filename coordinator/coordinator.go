package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"

	"mealplanner"
)

const DefaultMaxRetries = 5

var (
	ErrInvalidConfig      = errors.New("invalid plan configuration")
	ErrMergeFailed        = errors.New("merge failed")
	ErrStepBudgetExceeded = errors.New("stage budget exceeded")
)

type stage int

const (
	stageProduce stage = iota
	stageMerge
	stageValidate
	stageAggregate
	stageIterate
	stageRetry
	stageDone
)

func (s stage) String() string {
	switch s {
	case stageProduce:
		return "produce"
	case stageMerge:
		return "merge"
	case stageValidate:
		return "validate"
	case stageAggregate:
		return "aggregate"
	case stageIterate:
		return "iterate"
	case stageRetry:
		return "retry"
	case stageDone:
		return "done"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

type Option func(*Coordinator)

func WithTracer(t trace.Tracer) Option { return func(c *Coordinator) { c.tracer = t } }

func WithMeter(m metric.Meter) Option { return func(c *Coordinator) { c.meter = m } }

// WithEventSink registers a sink. Sinks are called in registration order on
// the executor goroutine and must not block for long.
func WithEventSink(s mealplanner.EventSink) Option {
	return func(c *Coordinator) { c.sinks = append(c.sinks, s) }
}

func WithLogger(l mealplanner.CoordinationLogger) Option { return func(c *Coordinator) { c.logger = l } }

func WithPriceLookup(p PriceLookup) Option { return func(c *Coordinator) { c.prices = p } }

func WithRecipeFinder(f RecipeFinder) Option { return func(c *Coordinator) { c.recipes = f } }

func WithMaxRetries(n int) Option {
	return func(c *Coordinator) {
		if n >= 0 {
			c.maxRetries = n
		}
	}
}

func WithMergerOptions(o MergerOptions) Option { return func(c *Coordinator) { c.mergerOpts = o } }

// Coordinator drives the meal planning workflow over one PlanState per run.
type Coordinator struct {
	oracle     mealplanner.Oracle
	prices     PriceLookup
	recipes    RecipeFinder
	logger     mealplanner.CoordinationLogger
	sinks      []mealplanner.EventSink
	tracer     trace.Tracer
	meter      metric.Meter
	maxRetries int
	mergerOpts MergerOptions
	metrics    instruments

	// observe, when set, sees the state after every stage.
	observe func(stage, *PlanState)
}

var _ mealplanner.Coordinator = (*Coordinator)(nil)

func New(o mealplanner.Oracle, opts ...Option) *Coordinator {
	c := &Coordinator{
		oracle:     o,
		logger:     mealplanner.NewNoOpCoordinationLogger(),
		tracer:     tracenoop.NewTracerProvider().Tracer("coordinator"),
		meter:      metricnoop.NewMeterProvider().Meter("coordinator"),
		maxRetries: DefaultMaxRetries,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.metrics = newInstruments(c.meter)
	return c
}

type instruments struct {
	runs             metric.Int64Counter
	runsFailed       metric.Int64Counter
	oracleCalls      metric.Int64Counter
	producerFailures metric.Int64Counter
	retries          metric.Int64Counter
	forcedAdvances   metric.Int64Counter
	mealsCompleted   metric.Int64Counter
	stageDuration    metric.Float64Histogram
	oracleLatency    metric.Float64Histogram
	eventsBuffered   metric.Int64Gauge
}

func newInstruments(m metric.Meter) instruments {
	var in instruments
	in.runs, _ = m.Int64Counter("planner_runs_total",
		metric.WithDescription("Total number of plan runs started"))
	in.runsFailed, _ = m.Int64Counter("planner_runs_failed_total",
		metric.WithDescription("Total number of plan runs that ended with an error"))
	in.oracleCalls, _ = m.Int64Counter("oracle_calls_total",
		metric.WithDescription("Total number of oracle calls"))
	in.producerFailures, _ = m.Int64Counter("producer_failures_total",
		metric.WithDescription("Total number of producer attempts that yielded no candidate"))
	in.retries, _ = m.Int64Counter("planner_retries_total",
		metric.WithDescription("Total number of meal retries"))
	in.forcedAdvances, _ = m.Int64Counter("planner_forced_advances_total",
		metric.WithDescription("Total number of meals accepted with warnings after max retries"))
	in.mealsCompleted, _ = m.Int64Counter("planner_meals_completed_total",
		metric.WithDescription("Total number of meals accepted into a plan"))
	in.stageDuration, _ = m.Float64Histogram("stage_duration_seconds",
		metric.WithDescription("Duration of workflow stages in seconds"))
	in.oracleLatency, _ = m.Float64Histogram("oracle_latency_seconds",
		metric.WithDescription("Time taken to receive an oracle response in seconds"))
	in.eventsBuffered, _ = m.Int64Gauge("events_buffered",
		metric.WithDescription("Number of events held in the bounded event history"))
	return in
}

// run carries the per-run bookkeeping the stages share.
type run struct {
	id          string
	state       *PlanState
	steps       atomic.Int64
	pending     []mealplanner.Role
	results     []mealplanner.ValidationResult
	failed      []mealplanner.ValidationResult
	stageEvents []mealplanner.Event
}

// Run generates a plan for profile. It returns ErrInvalidConfig for schedules
// the iterator cannot walk, ErrMergeFailed when the merger cannot produce a
// menu, and ctx.Err() when cancelled.
func (c *Coordinator) Run(ctx context.Context, profile mealplanner.Profile) (mealplanner.Plan, error) {
	_, plan, err := c.execute(ctx, profile)
	return plan, err
}

func (c *Coordinator) execute(ctx context.Context, profile mealplanner.Profile) (*PlanState, mealplanner.Plan, error) {
	r := &run{id: uuid.NewString(), state: newPlanState(profile, c.maxRetries)}

	ctx, span := c.tracer.Start(ctx, "Coordinator.Run", trace.WithAttributes(
		attribute.String("run_id", r.id),
		attribute.Int("days", profile.Days),
		attribute.Int("meals_per_day", profile.MealsPerDay),
	))
	defer span.End()

	c.metrics.runs.Add(ctx, 1)
	slog.Info("COORDINATOR: Starting run", "run_id", r.id, "days", profile.Days, "meals_per_day", profile.MealsPerDay, "goal", profile.Goal)

	fail := func(status string, err error) (*PlanState, mealplanner.Plan, error) {
		c.fail(ctx, r, status, err)
		c.metrics.runsFailed.Add(ctx, 1)
		span.SetStatus(codes.Error, status)
		span.RecordError(err)
		return r.state, mealplanner.Plan{RunID: r.id}, err
	}

	if err := ValidateSchedule(profile); err != nil {
		return fail("config_error", err)
	}

	budget := 1 + profile.TotalMeals()*(c.maxRetries+1)*5
	r.pending = allRoles

	st := stageProduce
	for n := 0; st != stageDone; n++ {
		if n >= budget {
			return fail("step_budget_exceeded", fmt.Errorf("%w: %d stages", ErrStepBudgetExceeded, budget))
		}
		if err := ctx.Err(); err != nil {
			return fail("cancelled", err)
		}

		next, err := c.runStage(ctx, r, st)
		if err != nil {
			status := "stage_failed"
			switch {
			case ctx.Err() != nil:
				status = "cancelled"
				err = ctx.Err()
			case errors.Is(err, ErrMergeFailed):
				status = "merge_failed"
			}
			return fail(status, err)
		}
		if c.observe != nil {
			c.observe(st, r.state)
		}
		st = next
	}

	plan := mealplanner.Plan{RunID: r.id, Days: r.state.WeeklyPlan}
	slog.Info("RESULT: Plan complete", "run_id", r.id, "days", len(plan.Days), "warnings", len(plan.Warnings()))
	span.SetStatus(codes.Ok, "plan complete")
	return r.state, plan, nil
}

func (c *Coordinator) runStage(ctx context.Context, r *run, st stage) (stage, error) {
	s := r.state
	ctx, span := c.tracer.Start(ctx, "Coordinator."+st.String(), trace.WithAttributes(
		attribute.Int("day", s.CurrentDay),
		attribute.String("meal_type", string(s.CurrentMealType)),
		attribute.Int("retry_count", s.RetryCount),
	))
	defer span.End()

	r.stageEvents = nil
	day, mealType, retry := s.CurrentDay, s.CurrentMealType, s.RetryCount
	start := time.Now()

	var next stage
	var err error
	switch st {
	case stageProduce:
		next, err = c.stageProduce(ctx, r)
	case stageMerge:
		next, err = c.stageMerge(ctx, r)
	case stageValidate:
		next, err = c.stageValidate(ctx, r)
	case stageAggregate:
		next = c.stageAggregate(ctx, r)
	case stageIterate:
		next = c.stageIterate(ctx, r)
	case stageRetry:
		next = c.stageRetry(ctx, r)
	default:
		err = fmt.Errorf("unknown stage %s", st)
	}

	c.metrics.stageDuration.Record(ctx, time.Since(start).Seconds(),
		metric.WithAttributes(attribute.String("stage", st.String())))

	entry := mealplanner.StepLog{
		RunID:      r.id,
		Step:       int(r.steps.Add(1)),
		Node:       st.String(),
		Day:        day,
		MealType:   mealType,
		RetryCount: retry,
		Timestamp:  start,
		Events:     r.stageEvents,
	}
	if err != nil {
		entry.Error = err.Error()
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
	}
	c.logStep(entry)

	return next, err
}

func (c *Coordinator) stageProduce(ctx context.Context, r *run) (stage, error) {
	roles := r.pending
	snap := r.state.snapshot()
	results := make([]producerResult, len(roles))

	g, gctx := errgroup.WithContext(ctx)
	for i, role := range roles {
		g.Go(func() error {
			results[i] = c.produce(gctx, r, role, snap)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return stageDone, err
	}
	if err := ctx.Err(); err != nil {
		return stageDone, err
	}

	for _, res := range results {
		r.state.setCandidate(res.role, res.candidate)
		if res.candidate == nil {
			c.metrics.producerFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("role", string(res.role))))
		}
		c.emit(ctx, r, res.events...)
	}
	return stageMerge, nil
}

func (c *Coordinator) stageMerge(ctx context.Context, r *run) (stage, error) {
	res, err := c.merge(ctx, r, r.state.snapshot())
	if err != nil {
		return stageDone, err
	}
	if err := ctx.Err(); err != nil {
		return stageDone, err
	}

	r.state.FinalizedMenu = res.menu
	r.state.ValidationResults = nil
	c.emit(ctx, r, res.events...)
	return stageValidate, nil
}

func (c *Coordinator) stageValidate(ctx context.Context, r *run) (stage, error) {
	snap := r.state.snapshot()
	in := ValidationInput{
		Menu:       *snap.FinalizedMenu,
		Profile:    snap.Profile,
		Targets:    snap.PerMealTargets,
		Budget:     snap.Budget(),
		RetryCount: snap.RetryCount,
	}

	results := make([]mealplanner.ValidationResult, len(validators))
	var g errgroup.Group
	for i, v := range validators {
		g.Go(func() error {
			results[i] = v.check(in)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return stageDone, err
	}
	if err := ctx.Err(); err != nil {
		return stageDone, err
	}

	r.results = results
	for _, res := range results {
		if !res.Passed {
			slog.Info("VALIDATOR: Check failed", "validator", res.Validator, "issues", res.Issues)
		}
		c.emit(ctx, r, validationEvent(res))
	}
	return stageAggregate, nil
}

func (c *Coordinator) stageAggregate(ctx context.Context, r *run) stage {
	agg := aggregate(r.state.snapshot(), r.results)
	r.state.ValidationResults = Merge(r.state.ValidationResults, agg.results, ValidationHistoryCap)
	r.state.PreviousFailures = Merge(r.state.PreviousFailures, agg.failures, FailureHistoryCap)
	c.emit(ctx, r, agg.event)

	decision, warnings := Decide(agg.failed, r.state.RetryCount, r.state.MaxRetries)
	if decision == Retry {
		r.failed = agg.failed
		return stageRetry
	}

	if len(warnings) > 0 {
		c.metrics.forcedAdvances.Add(ctx, 1)
		menu := cloneMenu(*r.state.FinalizedMenu)
		menu.Warnings = append(menu.Warnings, warnings...)
		r.state.FinalizedMenu = menu

		slog.Warn("COORDINATOR: Max retries reached, accepting menu with warnings", "menu", menu.MenuName, "warnings", len(warnings))
		c.emit(ctx, r, mealplanner.Event{
			Type:   mealplanner.EventWarning,
			Node:   "decision",
			Status: "max_retries_reached",
			Data: map[string]any{
				"menu_name":   menu.MenuName,
				"warnings":    warnings,
				"day":         r.state.CurrentDay,
				"meal_type":   r.state.CurrentMealType,
				"retry_count": r.state.RetryCount,
			},
		})
	}
	return stageIterate
}

func (c *Coordinator) stageIterate(ctx context.Context, r *run) stage {
	events := r.state.advance()
	c.metrics.mealsCompleted.Add(ctx, 1)
	c.emit(ctx, r, events...)

	if r.state.Done {
		return stageDone
	}
	r.pending = allRoles
	r.failed = nil
	return stageProduce
}

func (c *Coordinator) stageRetry(ctx context.Context, r *run) stage {
	plan := planRetry(r.state.snapshot(), r.failed)
	for _, role := range plan.roles {
		r.state.setCandidate(role, nil)
	}
	r.state.RetryCount++
	r.state.ValidationResults = nil
	r.pending = plan.roles

	c.metrics.retries.Add(ctx, 1, metric.WithAttributes(attribute.String("strategy", plan.event.Status)))
	slog.Info("COORDINATOR: Retrying meal", "strategy", plan.event.Status, "attempt", r.state.RetryCount, "roles", plan.roles)
	c.emit(ctx, r, plan.event)
	return stageProduce
}

// emit stamps events, forwards them to the sinks in order, and folds them
// into the bounded event history.
func (c *Coordinator) emit(ctx context.Context, r *run, events ...mealplanner.Event) {
	if len(events) == 0 {
		return
	}
	stamped := slices.Clone(events)
	now := time.Now()
	for i := range stamped {
		stamped[i].RunID = r.id
		if stamped[i].Timestamp.IsZero() {
			stamped[i].Timestamp = now
		}
		for _, sink := range c.sinks {
			sink(stamped[i])
		}
	}
	r.stageEvents = append(r.stageEvents, stamped...)
	r.state.Events = Merge(r.state.Events, stamped, EventHistoryCap)
	c.metrics.eventsBuffered.Record(ctx, int64(len(r.state.Events)))
}

func (c *Coordinator) fail(ctx context.Context, r *run, status string, err error) {
	msg := err.Error()
	r.state.ErrorMessage = &msg
	slog.Error("COORDINATOR: Run failed", "run_id", r.id, "status", status, "error", err)
	c.emit(ctx, r, mealplanner.Event{
		Type:   mealplanner.EventError,
		Node:   "coordinator",
		Status: status,
		Data:   map[string]any{"message": msg},
	})
}

// invoke calls the oracle and records the call. It is safe to call from
// producer goroutines.
func (c *Coordinator) invoke(ctx context.Context, r *run, node string, snap PlanState, prompt string) (string, error) {
	start := time.Now()
	out, err := c.oracle.Invoke(ctx, prompt)
	elapsed := time.Since(start)

	attrs := metric.WithAttributes(attribute.String("node", node), attribute.Bool("error", err != nil))
	c.metrics.oracleCalls.Add(ctx, 1, attrs)
	c.metrics.oracleLatency.Record(ctx, elapsed.Seconds(), attrs)

	entry := mealplanner.StepLog{
		RunID:        r.id,
		Step:         int(r.steps.Add(1)),
		Node:         node,
		Day:          snap.CurrentDay,
		MealType:     snap.CurrentMealType,
		RetryCount:   snap.RetryCount,
		Timestamp:    start,
		OracleInput:  prompt,
		OracleOutput: out,
	}
	if err != nil {
		entry.Error = err.Error()
	}
	c.logStep(entry)
	return out, err
}

func (c *Coordinator) logStep(entry mealplanner.StepLog) {
	if err := c.logger.LogStep(entry); err != nil {
		slog.Error("COORDINATOR: Failed to log step", "error", err)
	}
}
