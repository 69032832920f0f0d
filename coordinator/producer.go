package coordinator

import (
	"context"
	"log/slog"
	"strings"

	"mealplanner"
	"mealplanner/oracle"
)

const (
	recentMenusToAvoid = 5
	maxRecipeHints     = 3
	costFeedbackWindow = 3
)

// PriceLookup quotes ingredient prices. It never fails; unknown items fall
// back to defaults.
type PriceLookup interface {
	Quote(ctx context.Context, name string, grams float64) mealplanner.PriceQuote
}

// RecipeFinder suggests recipes. It never fails; an empty result is valid.
type RecipeFinder interface {
	Search(ctx context.Context, query string, filters mealplanner.RecipeFilters) []mealplanner.RecipeHint
}

type producerResult struct {
	role      mealplanner.Role
	candidate *mealplanner.Recommendation
	events    []mealplanner.Event
}

func producerNode(role mealplanner.Role) string {
	return string(role) + "_producer"
}

// feedbackFor selects the failures a producer can act on.
func feedbackFor(role mealplanner.Role, failures []mealplanner.Failure, retryCount int) []mealplanner.Failure {
	if retryCount == 0 || len(failures) == 0 {
		return nil
	}

	if role == mealplanner.RoleCost {
		if len(failures) > costFeedbackWindow {
			return failures[len(failures)-costFeedbackWindow:]
		}
		return failures
	}

	var owned []string
	switch role {
	case mealplanner.RoleNutrition:
		owned = []string{ValidatorNutrition, ValidatorHealth}
	case mealplanner.RoleCooking:
		owned = []string{ValidatorAllergy, ValidatorTime}
	}

	var out []mealplanner.Failure
	for _, f := range failures {
		if f.RetryCount != retryCount-1 {
			continue
		}
		for _, v := range owned {
			if f.Validator == v {
				out = append(out, f)
			}
		}
	}
	return out
}

// produce asks the oracle for one role's candidate. Failures never escape:
// they become a nil candidate and an error event.
func (c *Coordinator) produce(ctx context.Context, r *run, role mealplanner.Role, snap PlanState) producerResult {
	node := producerNode(role)
	res := producerResult{role: role}

	var quotes []mealplanner.PriceQuote
	var hints []mealplanner.RecipeHint
	switch role {
	case mealplanner.RoleCost:
		quotes = c.priceCandidate(ctx, snap.CandidateB)
	case mealplanner.RoleCooking:
		hints = c.recipeHints(ctx, snap)
	}

	prompt := producerPrompt(role, snap, feedbackFor(role, snap.PreviousFailures, snap.RetryCount), hints, quotes)
	out, err := c.invoke(ctx, r, node, snap, prompt)
	if err != nil {
		return res.failed(node, "oracle_failed", err)
	}

	rec, err := oracle.Decode[mealplanner.Recommendation](out)
	if err != nil {
		return res.failed(node, "json_decode_failed", err)
	}
	if err := rec.Validate(); err != nil {
		return res.failed(node, "validation_failed", err)
	}

	rec.Reused = false
	if role == mealplanner.RoleCost && len(quotes) > 0 {
		rec.IngredientPrices = quotes
	}
	if role == mealplanner.RoleCooking && rec.RecipeURL == "" {
		rec.RecipeURL = hintURL(rec.MenuName, hints)
	}

	slog.Info("PRODUCER: Candidate ready", "role", role, "menu", rec.MenuName, "calories", rec.EstimatedCalories, "cost", rec.EstimatedCost)

	res.candidate = &rec
	res.events = append(res.events, mealplanner.Event{
		Type:   mealplanner.EventProgress,
		Node:   node,
		Status: "completed",
		Data: map[string]any{
			"role":               role,
			"menu_name":          rec.MenuName,
			"estimated_calories": rec.EstimatedCalories,
			"estimated_cost":     rec.EstimatedCost,
			"retry_count":        snap.RetryCount,
		},
	})
	return res
}

func (res producerResult) failed(node, status string, err error) producerResult {
	slog.Warn("PRODUCER: No candidate", "role", res.role, "status", status, "error", err)
	res.candidate = nil
	res.events = append(res.events, mealplanner.Event{
		Type:   mealplanner.EventError,
		Node:   node,
		Status: status,
		Data: map[string]any{
			"role":  res.role,
			"error": err.Error(),
		},
	})
	return res
}

func (c *Coordinator) priceCandidate(ctx context.Context, rec *mealplanner.Recommendation) []mealplanner.PriceQuote {
	if c.prices == nil || rec == nil {
		return nil
	}
	quotes := make([]mealplanner.PriceQuote, 0, len(rec.Ingredients))
	for _, ing := range rec.Ingredients {
		quotes = append(quotes, c.prices.Quote(ctx, ing.Name, mealplanner.ParseGrams(ing.Amount)))
	}
	return quotes
}

func (c *Coordinator) recipeHints(ctx context.Context, snap PlanState) []mealplanner.RecipeHint {
	if c.recipes == nil {
		return nil
	}
	filters := mealplanner.RecipeFilters{
		MealType:         snap.CurrentMealType,
		MaxCookingTime:   snap.Profile.CookingTimeLimit(),
		Difficulty:       difficultyFor(snap.Profile.SkillLevel),
		Exclude:          snap.Profile.Restrictions,
		TargetCalories:   snap.PerMealTargets.Calories,
		CalorieTolerance: 0.2,
	}
	hints := c.recipes.Search(ctx, string(snap.CurrentMealType), filters)
	if len(hints) > maxRecipeHints {
		hints = hints[:maxRecipeHints]
	}
	return hints
}

func difficultyFor(skill mealplanner.SkillLevel) string {
	switch skill {
	case mealplanner.SkillBeginner:
		return "easy"
	case mealplanner.SkillIntermediate:
		return "medium"
	default:
		return ""
	}
}

func hintURL(menuName string, hints []mealplanner.RecipeHint) string {
	name := strings.ToLower(menuName)
	for _, h := range hints {
		if h.URL != "" && strings.Contains(name, strings.ToLower(h.Name)) {
			return h.URL
		}
	}
	return ""
}
