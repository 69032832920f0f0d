package coordinator

import (
	"mealplanner"
)

type aggregateResult struct {
	results  []mealplanner.ValidationResult
	failed   []mealplanner.ValidationResult
	failures []mealplanner.Failure
	event    mealplanner.Event
}

// aggregate folds validator outputs, already in validator order, into the
// history delta, the failure feedback and one telemetry event.
func aggregate(snap PlanState, results []mealplanner.ValidationResult) aggregateResult {
	out := aggregateResult{results: results}

	menuName := ""
	var calories float64
	var cost int
	if snap.FinalizedMenu != nil {
		menuName = snap.FinalizedMenu.MenuName
		calories = snap.FinalizedMenu.Calories
		cost = snap.FinalizedMenu.EstimatedCost
	}

	failedNames := make([]string, 0)
	for _, r := range results {
		if r.Passed {
			continue
		}
		out.failed = append(out.failed, r)
		failedNames = append(failedNames, r.Validator)
		out.failures = append(out.failures, mealplanner.Failure{
			Validator:  r.Validator,
			Issues:     r.Issues,
			RetryCount: snap.RetryCount,
			MenuName:   menuName,
		})
	}

	allPassed := len(out.failed) == 0
	completed := snap.CompletedMeals()
	evType, status := mealplanner.EventProgress, "validation_failed"
	if allPassed {
		evType, status = mealplanner.EventMealComplete, "passed"
		completed++
	}

	out.event = mealplanner.Event{
		Type:   evType,
		Node:   "validation_aggregator",
		Status: status,
		Data: map[string]any{
			"passed_count":      len(results) - len(out.failed),
			"failed_count":      len(out.failed),
			"failed_validators": failedNames,
			"day":               snap.CurrentDay,
			"meal_index":        snap.CurrentMealIndex,
			"meal_type":         snap.CurrentMealType,
			"menu_name":         menuName,
			"calories":          calories,
			"cost":              cost,
			"retry_count":       snap.RetryCount,
			"completed_meals":   completed,
			"total_meals":       snap.Profile.TotalMeals(),
		},
	}
	return out
}
