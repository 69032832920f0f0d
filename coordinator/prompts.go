package coordinator

import (
	"fmt"
	"strings"

	"mealplanner"
)

// Prompt lines in the KEY: value form are stable; the mock oracle and tests
// read them back.
const (
	keyMeal             = "MEAL"
	keyTargetCalories   = "TARGET_CALORIES"
	keyTargetCarb       = "TARGET_CARB_G"
	keyTargetProtein    = "TARGET_PROTEIN_G"
	keyTargetFat        = "TARGET_FAT_G"
	keyBudget           = "BUDGET"
	keyCookingTimeLimit = "COOKING_TIME_LIMIT"
	keySkillLevel       = "SKILL_LEVEL"
	keyRestrictions     = "RESTRICTIONS"
	keyConditions       = "HEALTH_CONDITIONS"
	keyAvoid            = "AVOID"
)

var roleBriefs = map[mealplanner.Role]string{
	mealplanner.RoleNutrition: "You are a clinical nutritionist. Propose one meal that hits the calorie and macro targets and respects every health condition.",
	mealplanner.RoleCooking:   "You are a home-cooking chef. Propose one meal that is tasty, fits the cooking time limit and skill level, and never uses a restricted ingredient.",
	mealplanner.RoleCost:      "You are a grocery budget planner. Propose one meal that fits the budget, using the known ingredient prices where possible.",
}

const candidateFormat = `Respond with ONLY a JSON object, no prose and no markdown:
{"menu_name": string, "ingredients": [{"name": string, "amount": string}], "estimated_calories": number, "estimated_cost": integer, "cooking_time_minutes": integer, "reasoning": string}
Write amounts with units such as "150g" or "200ml". Numbers must not contain thousands separators.`

const menuFormat = `Respond with ONLY a JSON object, no prose and no markdown:
{"menu_name": string, "ingredients": [{"name": string, "amount": string}], "calories": number, "carb_g": number, "protein_g": number, "fat_g": number, "sodium_mg": number, "sugar_g": number, "cooking_time_minutes": integer, "estimated_cost": integer, "recipe_steps": [string], "recipe_url": string}
Every field is required. Numbers must not contain thousands separators.`

func joinOrNone(values []string) string {
	if len(values) == 0 {
		return "none"
	}
	escaped := make([]string, 0, len(values))
	for _, v := range values {
		escaped = append(escaped, mealplanner.EscapeForPrompt(v))
	}
	return strings.Join(escaped, ", ")
}

func writeConstraints(b *strings.Builder, snap PlanState) {
	t := snap.PerMealTargets
	fmt.Fprintf(b, "%s: day %d of %d, %s\n", keyMeal, snap.CurrentDay, snap.Profile.Days, snap.CurrentMealType)
	fmt.Fprintf(b, "%s: %.0f\n", keyTargetCalories, t.Calories)
	fmt.Fprintf(b, "%s: %.1f\n", keyTargetCarb, t.CarbG)
	fmt.Fprintf(b, "%s: %.1f\n", keyTargetProtein, t.ProteinG)
	fmt.Fprintf(b, "%s: %.1f\n", keyTargetFat, t.FatG)
	fmt.Fprintf(b, "%s: %d\n", keyBudget, snap.Budget())
	fmt.Fprintf(b, "%s: %d\n", keyCookingTimeLimit, snap.Profile.CookingTimeLimit())
	fmt.Fprintf(b, "%s: %s\n", keySkillLevel, snap.Profile.SkillLevel)
	fmt.Fprintf(b, "%s: %s\n", keyRestrictions, joinOrNone(snap.Profile.Restrictions))
	fmt.Fprintf(b, "%s: %s\n", keyConditions, joinOrNone(snap.Profile.HealthConditions))
}

func producerPrompt(role mealplanner.Role, snap PlanState, feedback []mealplanner.Failure, hints []mealplanner.RecipeHint, quotes []mealplanner.PriceQuote) string {
	var b strings.Builder
	b.WriteString(mealplanner.PromptRoleHeader(role))
	b.WriteString("\n")
	b.WriteString(roleBriefs[role])
	b.WriteString("\n\n")
	writeConstraints(&b, snap)

	switch role {
	case mealplanner.RoleCooking:
		fmt.Fprintf(&b, "%s: %s\n", keyAvoid, joinOrNone(snap.RecentMenuNames(5)))
		if len(hints) > 0 {
			b.WriteString("\nRecipe ideas:\n")
			for _, h := range hints {
				fmt.Fprintf(&b, "- %s (%d min", mealplanner.EscapeForPrompt(h.Name), h.CookingTimeMinutes)
				if h.Calories > 0 {
					fmt.Fprintf(&b, ", %.0f kcal", h.Calories)
				}
				b.WriteString(")")
				if h.URL != "" {
					fmt.Fprintf(&b, " %s", h.URL)
				}
				b.WriteString("\n")
			}
		}
	case mealplanner.RoleCost:
		if snap.CandidateB != nil {
			fmt.Fprintf(&b, "\nThe chef proposed %q. Price it, or swap ingredients for cheaper ones.\n", snap.CandidateB.MenuName)
		}
		if len(quotes) > 0 {
			b.WriteString("Ingredient prices:\n")
			for _, q := range quotes {
				fmt.Fprintf(&b, "- %s %.0fg: %d (%.2f per g, %s)\n", mealplanner.EscapeForPrompt(q.Name), q.AmountG, q.TotalPrice, q.PricePerGram, q.Source)
			}
		}
	}

	if len(feedback) > 0 {
		b.WriteString("\nThe previous menu failed these checks. Fix them:\n")
		for _, f := range feedback {
			fmt.Fprintf(&b, "- [%s] %s: %s\n", f.Validator, mealplanner.EscapeForPrompt(f.MenuName), strings.Join(f.Issues, "; "))
		}
	}

	b.WriteString("\n")
	b.WriteString(candidateFormat)
	return b.String()
}

func mergerPrompt(snap PlanState, candidates []*mealplanner.Recommendation) string {
	var b strings.Builder
	b.WriteString(mealplanner.PromptRoleHeader(mealplanner.RoleMerger))
	b.WriteString("\nYou are the head meal planner. Three experts proposed menus for the same meal. Choose one or combine them into a single menu that satisfies every constraint below, in priority order: nutrition targets (calories ±20%), restrictions, cooking time, budget.\n\n")
	writeConstraints(&b, snap)

	labels := []string{"Nutritionist", "Chef", "Budget planner"}
	for i, c := range candidates {
		if c == nil {
			continue
		}
		fmt.Fprintf(&b, "\n%s: %s", labels[i], mealplanner.EscapeForPrompt(c.MenuName))
		if c.Reused {
			b.WriteString(" (previous menu)")
		}
		fmt.Fprintf(&b, "\n  calories %.0f, cost %d, %d min\n", c.EstimatedCalories, c.EstimatedCost, c.CookingTimeMinutes)
		names := make([]string, 0, len(c.Ingredients))
		for _, ing := range c.Ingredients {
			names = append(names, fmt.Sprintf("%s %s", ing.Name, ing.Amount))
		}
		fmt.Fprintf(&b, "  ingredients: %s\n", mealplanner.EscapeForPrompt(strings.Join(names, ", ")))
		fmt.Fprintf(&b, "  reasoning: %s\n", mealplanner.EscapeForPrompt(c.Reasoning))
	}

	b.WriteString("\n")
	b.WriteString(menuFormat)
	return b.String()
}
