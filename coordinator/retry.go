package coordinator

import (
	"mealplanner"
)

// retryRoles maps a failed validator to the producer that can fix it.
var retryRoles = map[string]mealplanner.Role{
	ValidatorNutrition: mealplanner.RoleNutrition,
	ValidatorAllergy:   mealplanner.RoleCooking,
	ValidatorTime:      mealplanner.RoleCooking,
	ValidatorHealth:    mealplanner.RoleNutrition,
	ValidatorBudget:    mealplanner.RoleCost,
}

var allRoles = []mealplanner.Role{mealplanner.RoleNutrition, mealplanner.RoleCooking, mealplanner.RoleCost}

type retryPlan struct {
	roles []mealplanner.Role
	event mealplanner.Event
}

// planRetry picks the producers to re-run. The first retry of a meal re-runs
// only the producer mapped from the first failed validator; later retries
// re-run all three.
func planRetry(snap PlanState, failed []mealplanner.ValidationResult) retryPlan {
	roles := allRoles
	selective := false
	if snap.RetryCount == 0 && len(failed) > 0 {
		if role, ok := retryRoles[failed[0].Validator]; ok {
			roles = []mealplanner.Role{role}
			selective = true
		}
	}

	reason := ""
	if len(failed) > 0 {
		reason = failed[0].Reason
		if len(failed[0].Issues) > 0 {
			reason = failed[0].Issues[0]
		}
	}

	names := make([]string, 0, len(roles))
	for _, r := range roles {
		names = append(names, string(r))
	}

	strategy := "full"
	if selective {
		strategy = "selective"
	}

	return retryPlan{
		roles: roles,
		event: mealplanner.Event{
			Type:   mealplanner.EventRetry,
			Node:   "retry_router",
			Status: strategy,
			Data: map[string]any{
				"attempt":   snap.RetryCount + 1,
				"reason":    reason,
				"targets":   names,
				"day":       snap.CurrentDay,
				"meal_type": snap.CurrentMealType,
			},
		},
	}
}
