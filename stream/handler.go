package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"mealplanner"
)

const maxRequestBytes = 1 << 20

// Planner builds a coordinator that reports to the given sinks. The handler
// builds one per request.
type Planner func(sinks ...mealplanner.EventSink) mealplanner.Coordinator

type Handler struct {
	planner Planner
	guard   *Guard
	version string
	extra   []mealplanner.EventSink
}

type HandlerOption func(*Handler)

func WithVersion(v string) HandlerOption { return func(h *Handler) { h.version = v } }

func WithGuard(g *Guard) HandlerOption { return func(h *Handler) { h.guard = g } }

// WithSink adds a sink that sees every run's events alongside the client.
func WithSink(s mealplanner.EventSink) HandlerOption {
	return func(h *Handler) { h.extra = append(h.extra, s) }
}

func NewHandler(planner Planner, opts ...HandlerOption) *Handler {
	h := &Handler{
		planner: planner,
		guard:   NewGuard(),
		version: "1.0.0",
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes returns the API mux.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", h.health)
	mux.HandleFunc("POST /api/generate", h.generate)
	return mux
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": h.version})
}

func (h *Handler) generate(w http.ResponseWriter, r *http.Request) {
	var profile mealplanner.Profile
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&profile); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("invalid request body: %v", err)})
		return
	}
	profile = profile.WithDefaults()
	if err := profile.Validate(); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return
	}

	key := profile.Fingerprint()
	release, err := h.guard.Acquire(key)
	if errors.Is(err, ErrDuplicateRun) {
		slog.Warn("STREAM: Duplicate request rejected", "request_key", key, "goal", profile.Goal)
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error(), "request_key": key})
		return
	}
	defer release()

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "streaming unsupported"})
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	sse := &eventWriter{w: w, flusher: flusher}
	var completion *mealplanner.Event
	forward := func(e mealplanner.Event) {
		if e.Type == mealplanner.EventComplete {
			// Held back and sent with the plan once the run returns.
			completion = &e
			return
		}
		if e.Type == mealplanner.EventError && e.Node == "coordinator" {
			sse.fatal = true
		}
		sse.send(e)
	}

	sinks := append([]mealplanner.EventSink{forward}, h.extra...)
	start := time.Now()
	slog.Info("STREAM: Run started", "request_key", key, "days", profile.Days, "meals_per_day", profile.MealsPerDay)

	plan, err := h.planner(sinks...).Run(r.Context(), profile)
	switch {
	case err == nil:
		sse.send(completeEvent(plan, completion))
		slog.Info("STREAM: Run completed", "request_key", key, "run_id", plan.RunID, "days", len(plan.Days), "events", sse.sent, "duration", time.Since(start))
	case errors.Is(err, context.Canceled) && r.Context().Err() != nil:
		slog.Warn("STREAM: Client disconnected", "request_key", key, "events", sse.sent)
	default:
		if !sse.fatal {
			sse.send(mealplanner.Event{
				Type:      mealplanner.EventError,
				Node:      "stream",
				Status:    "failed",
				RunID:     plan.RunID,
				Data:      map[string]any{"message": err.Error(), "code": "RUN_ERROR"},
				Timestamp: time.Now(),
			})
		}
		slog.Error("STREAM: Run failed", "request_key", key, "error", err)
	}
}

func completeEvent(plan mealplanner.Plan, held *mealplanner.Event) mealplanner.Event {
	e := mealplanner.Event{
		Type:      mealplanner.EventComplete,
		Node:      "stream",
		Status:    "completed",
		RunID:     plan.RunID,
		Timestamp: time.Now(),
	}
	if held != nil {
		e = *held
	}
	meals := 0
	for _, d := range plan.Days {
		meals += len(d.Meals)
	}
	e.Data = map[string]any{
		"days":      len(plan.Days),
		"meals":     meals,
		"meal_plan": plan.Days,
	}
	return e
}

type eventWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
	sent    int
	fatal   bool
	broken  bool
}

func (s *eventWriter) send(e mealplanner.Event) {
	if s.broken {
		return
	}
	b, err := json.Marshal(e)
	if err != nil {
		slog.Warn("STREAM: Dropping event", "type", e.Type, "node", e.Node, "error", err)
		return
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", b); err != nil {
		s.broken = true
		slog.Warn("STREAM: Write failed", "error", err)
		return
	}
	s.flusher.Flush()
	s.sent++
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("STREAM: Failed to write response", "error", err)
	}
}
