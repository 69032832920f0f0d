package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/fatih/color"

	"mealplanner"
)

// eventPrinter writes one colored line per telemetry event.
type eventPrinter struct {
	mu      sync.Mutex
	w       io.Writer
	verbose bool
}

func newEventPrinter(w io.Writer, verbose bool) *eventPrinter {
	return &eventPrinter{w: w, verbose: verbose}
}

func (p *eventPrinter) sink(e mealplanner.Event) {
	if e.Type == mealplanner.EventProgress && !p.verbose {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.w, formatEvent(e))
}

var (
	okMark   = color.New(color.FgGreen).SprintFunc()
	failMark = color.New(color.FgRed).SprintFunc()
	warnMark = color.New(color.FgYellow).SprintFunc()
	infoMark = color.New(color.FgCyan).SprintFunc()
)

func formatEvent(e mealplanner.Event) string {
	var mark string
	switch e.Type {
	case mealplanner.EventMealComplete, mealplanner.EventComplete:
		mark = okMark("✓")
	case mealplanner.EventError:
		mark = failMark("✗")
	case mealplanner.EventValidation:
		if passed, _ := e.Data["passed"].(bool); passed {
			mark = okMark("✓")
		} else {
			mark = failMark("✗")
		}
	case mealplanner.EventRetry, mealplanner.EventWarning:
		mark = warnMark("!")
	default:
		mark = infoMark("•")
	}
	line := fmt.Sprintf("%s %-14s %-24s %s", mark, e.Type, e.Node, e.Status)
	if details := formatData(e.Data); details != "" {
		line += "  " + details
	}
	return line
}

// formatData renders scalar fields only; nested plan data is left to --dump.
func formatData(data map[string]any) string {
	keys := make([]string, 0, len(data))
	for k, v := range data {
		switch v.(type) {
		case string, bool, int, int64, float64:
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, data[k]))
	}
	return strings.Join(parts, " ")
}

func printPlan(w io.Writer, plan mealplanner.Plan) {
	bold := color.New(color.Bold).SprintFunc()
	for _, day := range plan.Days {
		fmt.Fprintf(w, "\n%s  %.0f kcal  %d won\n", bold(fmt.Sprintf("Day %d", day.Day)), day.TotalCalories, day.TotalCost)
		for _, m := range day.Meals {
			fmt.Fprintf(w, "  %-10s %s (%.0f kcal, %d min, %d won)\n", m.MealType, m.MenuName, m.Calories, m.CookingTimeMinutes, m.EstimatedCost)
			for _, warning := range m.Warnings {
				fmt.Fprintf(w, "             %s %s\n", warnMark("!"), warning)
			}
		}
	}
}
