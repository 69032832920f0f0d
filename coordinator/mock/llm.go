package mock

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"strconv"
	"strings"
	"sync/atomic"

	"mealplanner"
)

// LLMClient is a deterministic oracle. It reads the ROLE header and the KEY
// lines of a prompt and answers with a menu that satisfies them, cycling
// through a fixed set of dishes. It only serves as a learning aid and for
// offline runs; real models may not be so kind :)
type LLMClient struct {
	next atomic.Uint64
}

var _ mealplanner.Oracle = (*LLMClient)(nil)

func NewLLMClient() *LLMClient {
	return &LLMClient{}
}

var keyLine = regexp.MustCompile(`(?m)^([A-Z_]+):[ \t]*(.*)$`)

// constraints holds the KEY: value lines of a prompt.
type constraints map[string]string

func parseConstraints(prompt string) constraints {
	c := constraints{}
	for _, m := range keyLine.FindAllStringSubmatch(prompt, -1) {
		if _, seen := c[m[1]]; !seen {
			c[m[1]] = strings.TrimSpace(m[2])
		}
	}
	return c
}

func (c constraints) float(key string) float64 {
	v, err := strconv.ParseFloat(c[key], 64)
	if err != nil {
		return 0
	}
	return v
}

func (c constraints) list(key string) []string {
	raw := c[key]
	if raw == "" || raw == "none" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if s := strings.ToLower(strings.TrimSpace(part)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func (m *LLMClient) Invoke(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	c := parseConstraints(prompt)
	role := mealplanner.Role(c["ROLE"])
	slog.Info("LLM_CLIENT: Invoked", "role", role, "prompt_len", len(prompt))

	d := m.pick(c)

	var v any
	switch role {
	case mealplanner.RoleNutrition, mealplanner.RoleCooking, mealplanner.RoleCost:
		v = recommendation(role, d, c)
	case mealplanner.RoleMerger:
		v = menu(d, c)
	default:
		return "", fmt.Errorf("mock oracle: unknown role %q", role)
	}

	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	slog.Info("LLM_CLIENT: Returning canned response", "role", role, "menu", d.name)
	return string(b), nil
}

// pick returns the next dish that avoids the restrictions and recent menus.
// When nothing qualifies the restrictions still win over variety.
func (m *LLMClient) pick(c constraints) dish {
	restrictions := c.list("RESTRICTIONS")
	avoid := c.list("AVOID")
	limit := int(c.float("COOKING_TIME_LIMIT"))

	start := m.next.Add(1) - 1
	var fallback *dish
	for i := range uint64(len(dishes)) {
		d := dishes[(start+i)%uint64(len(dishes))]
		if conflicts(d, restrictions) || (limit > 0 && d.minutes > limit) {
			continue
		}
		if fallback == nil {
			fallback = &d
		}
		if !contains(avoid, strings.ToLower(d.name)) {
			return d
		}
	}
	if fallback != nil {
		return *fallback
	}
	return dish{
		name:        "Steamed vegetables",
		ingredients: []mealplanner.Ingredient{{Name: "cabbage", Amount: "150g"}, {Name: "carrot", Amount: "100g"}},
		steps:       []string{"Steam the vegetables until tender."},
		minutes:     10,
	}
}

func conflicts(d dish, restrictions []string) bool {
	for _, r := range restrictions {
		for _, ing := range d.ingredients {
			name := strings.ToLower(ing.Name)
			if strings.Contains(name, r) || strings.Contains(r, name) {
				return true
			}
		}
	}
	return false
}

func contains(values []string, s string) bool {
	for _, v := range values {
		if v == s {
			return true
		}
	}
	return false
}

func cookingTime(d dish, c constraints) int {
	if limit := int(c.float("COOKING_TIME_LIMIT")); limit > 0 && d.minutes > limit {
		return limit
	}
	return d.minutes
}

// cost lands at 80% of the meal budget so the budget check passes with room.
func cost(c constraints) int {
	return int(math.Round(c.float("BUDGET") * 0.8))
}

func recommendation(role mealplanner.Role, d dish, c constraints) mealplanner.Recommendation {
	return mealplanner.Recommendation{
		MenuName:           d.name,
		Ingredients:        d.ingredients,
		EstimatedCalories:  c.float("TARGET_CALORIES"),
		EstimatedCost:      cost(c),
		CookingTimeMinutes: cookingTime(d, c),
		Reasoning:          fmt.Sprintf("%s pick for %s", role, c["MEAL"]),
	}
}

// menu hits the targets exactly and keeps sodium and sugar under every
// health limit.
func menu(d dish, c constraints) mealplanner.Menu {
	carb := c.float("TARGET_CARB_G")
	fat := c.float("TARGET_FAT_G")
	for _, cond := range c.list("HEALTH_CONDITIONS") {
		switch cond {
		case mealplanner.ConditionDiabetes:
			carb = math.Min(carb, 90)
		case mealplanner.ConditionHyperlipidemia:
			fat = math.Min(fat, 20)
		}
	}
	return mealplanner.Menu{
		MenuName:           d.name,
		Ingredients:        d.ingredients,
		Calories:           c.float("TARGET_CALORIES"),
		CarbG:              carb,
		ProteinG:           c.float("TARGET_PROTEIN_G"),
		FatG:               fat,
		SodiumMg:           600,
		SugarG:             8,
		CookingTimeMinutes: cookingTime(d, c),
		EstimatedCost:      cost(c),
		RecipeSteps:        d.steps,
	}
}
