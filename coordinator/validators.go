package coordinator

import (
	"fmt"
	"math"
	"strings"

	"mealplanner"
)

const (
	ValidatorNutrition = "nutrition_checker"
	ValidatorAllergy   = "allergy_checker"
	ValidatorTime      = "time_checker"
	ValidatorHealth    = "health_checker"
	ValidatorBudget    = "budget_checker"
)

// relaxAfterRetry is the retry count from which tolerances widen.
const relaxAfterRetry = 3

const (
	diabetesSugarMaxG          = 30.0
	hypertensionSodiumMaxMg    = 2000.0
	hyperlipidemiaSatFatMaxG   = 7.0
	estimatedSugarShareOfCarbs = 0.3
	estimatedSaturatedFatShare = 0.3
)

// ValidationInput is everything a rule check may look at.
type ValidationInput struct {
	Menu       mealplanner.Menu
	Profile    mealplanner.Profile
	Targets    mealplanner.NutritionTargets
	Budget     int
	RetryCount int
}

type validator struct {
	name  string
	check func(ValidationInput) mealplanner.ValidationResult
}

// validators run in this order and their results are aggregated in it.
var validators = []validator{
	{ValidatorNutrition, CheckNutrition},
	{ValidatorAllergy, CheckAllergy},
	{ValidatorTime, CheckTime},
	{ValidatorHealth, CheckHealth},
	{ValidatorBudget, CheckBudget},
}

func result(name string, issues []string, reason string) mealplanner.ValidationResult {
	r := mealplanner.ValidationResult{Validator: name, Passed: len(issues) == 0, Issues: issues}
	if !r.Passed {
		r.Reason = reason
	}
	return r
}

func outside(actual, target, tol float64) bool {
	if target <= 0 {
		return false
	}
	return math.Abs(actual-target)/target > tol
}

func CheckNutrition(in ValidationInput) mealplanner.ValidationResult {
	calTol, macroTol := 0.20, 0.30
	if in.RetryCount >= relaxAfterRetry {
		calTol, macroTol = 0.25, 0.35
	}

	var issues []string
	if outside(in.Menu.Calories, in.Targets.Calories, calTol) {
		issues = append(issues, fmt.Sprintf("calories %.0f kcal outside %.0f kcal ±%.0f%%",
			in.Menu.Calories, in.Targets.Calories, calTol*100))
	}
	macros := []struct {
		name           string
		actual, target float64
	}{
		{"carb", in.Menu.CarbG, in.Targets.CarbG},
		{"protein", in.Menu.ProteinG, in.Targets.ProteinG},
		{"fat", in.Menu.FatG, in.Targets.FatG},
	}
	for _, m := range macros {
		if outside(m.actual, m.target, macroTol) {
			issues = append(issues, fmt.Sprintf("%s %.1fg outside %.1fg ±%.0f%%", m.name, m.actual, m.target, macroTol*100))
		}
	}
	return result(ValidatorNutrition, issues, "nutrition targets not met")
}

func CheckAllergy(in ValidationInput) mealplanner.ValidationResult {
	var issues []string
	for _, r := range in.Profile.Restrictions {
		restriction := strings.ToLower(strings.TrimSpace(r))
		if restriction == "" {
			continue
		}
		for _, ing := range in.Menu.Ingredients {
			name := strings.ToLower(strings.TrimSpace(ing.Name))
			if name == "" {
				continue
			}
			if strings.Contains(name, restriction) || strings.Contains(restriction, name) {
				issues = append(issues, fmt.Sprintf("ingredient %q conflicts with restriction %q", ing.Name, r))
			}
		}
	}
	return result(ValidatorAllergy, issues, "restricted ingredient present")
}

func CheckTime(in ValidationInput) mealplanner.ValidationResult {
	var issues []string
	if limit := in.Profile.CookingTimeLimit(); in.Menu.CookingTimeMinutes > limit {
		issues = append(issues, fmt.Sprintf("cooking time %d min exceeds %d min", in.Menu.CookingTimeMinutes, limit))
	}
	return result(ValidatorTime, issues, "cooking time limit exceeded")
}

// CheckHealth applies per-condition limits. Sugar and saturated fat are
// estimated from carbs and fat. Unknown conditions are ignored.
func CheckHealth(in ValidationInput) mealplanner.ValidationResult {
	var issues []string
	for _, c := range in.Profile.HealthConditions {
		switch strings.ToLower(strings.TrimSpace(c)) {
		case mealplanner.ConditionDiabetes:
			if sugar := in.Menu.CarbG * estimatedSugarShareOfCarbs; sugar > diabetesSugarMaxG {
				issues = append(issues, fmt.Sprintf("diabetes: estimated sugar %.1fg exceeds %.0fg", sugar, diabetesSugarMaxG))
			}
		case mealplanner.ConditionHypertension:
			if in.Menu.SodiumMg > hypertensionSodiumMaxMg {
				issues = append(issues, fmt.Sprintf("hypertension: sodium %.0fmg exceeds %.0fmg", in.Menu.SodiumMg, hypertensionSodiumMaxMg))
			}
		case mealplanner.ConditionHyperlipidemia:
			if sat := in.Menu.FatG * estimatedSaturatedFatShare; sat > hyperlipidemiaSatFatMaxG {
				issues = append(issues, fmt.Sprintf("hyperlipidemia: estimated saturated fat %.1fg exceeds %.0fg", sat, hyperlipidemiaSatFatMaxG))
			}
		}
	}
	return result(ValidatorHealth, issues, "health condition limits exceeded")
}

func CheckBudget(in ValidationInput) mealplanner.ValidationResult {
	tol := 0.10
	if in.RetryCount >= relaxAfterRetry {
		tol = 0.15
	}

	var issues []string
	if limit := float64(in.Budget) * (1 + tol); float64(in.Menu.EstimatedCost) > limit {
		issues = append(issues, fmt.Sprintf("cost %d exceeds budget %d (+%.0f%%)", in.Menu.EstimatedCost, in.Budget, tol*100))
	}
	return result(ValidatorBudget, issues, "over budget")
}

func validationEvent(r mealplanner.ValidationResult) mealplanner.Event {
	status := "passed"
	if !r.Passed {
		status = "failed"
	}
	return mealplanner.Event{
		Type:   mealplanner.EventValidation,
		Node:   r.Validator,
		Status: status,
		Data: map[string]any{
			"passed": r.Passed,
			"issues": r.Issues,
			"reason": r.Reason,
		},
	}
}
