package coordinator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"mealplanner"
)

// scriptedOracle answers by role and records every prompt it sees.
type scriptedOracle struct {
	mu      sync.Mutex
	prompts map[mealplanner.Role][]string

	// respond overrides the default answer when it returns ok.
	respond func(role mealplanner.Role, call int, prompt string) (out string, err error, ok bool)
	menu    func(call int) mealplanner.Menu
}

func newScriptedOracle(p mealplanner.Profile) *scriptedOracle {
	good := passingMenu(p)
	return &scriptedOracle{
		prompts: map[mealplanner.Role][]string{},
		menu: func(call int) mealplanner.Menu {
			m := good
			m.MenuName = fmt.Sprintf("menu %d", call)
			return m
		},
	}
}

func roleOf(prompt string) mealplanner.Role {
	first, _, _ := strings.Cut(prompt, "\n")
	return mealplanner.Role(strings.TrimPrefix(first, "ROLE: "))
}

func (o *scriptedOracle) Invoke(ctx context.Context, prompt string) (string, error) {
	role := roleOf(prompt)

	o.mu.Lock()
	o.prompts[role] = append(o.prompts[role], prompt)
	call := len(o.prompts[role])
	o.mu.Unlock()

	if o.respond != nil {
		if out, err, ok := o.respond(role, call, prompt); ok {
			return out, err
		}
	}

	if role == mealplanner.RoleMerger {
		b, _ := json.Marshal(o.menu(call))
		return "```json\n" + string(b) + "\n```", nil
	}
	return candidateJSON(fmt.Sprintf("%s idea %d", role, call)), nil
}

func (o *scriptedOracle) calls(role mealplanner.Role) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.prompts[role])
}

func (o *scriptedOracle) prompt(role mealplanner.Role, call int) string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.prompts[role][call-1]
}

func candidateJSON(name string) string {
	b, _ := json.Marshal(mealplanner.Recommendation{
		MenuName:           name,
		Ingredients:        []mealplanner.Ingredient{{Name: "tofu", Amount: "150g"}, {Name: "rice", Amount: "0.2kg"}},
		EstimatedCalories:  700,
		EstimatedCost:      4000,
		CookingTimeMinutes: 20,
		Reasoning:          "balanced",
	})
	return "Here you go:\n" + string(b)
}

func testProfile() mealplanner.Profile {
	return mealplanner.Profile{
		Goal:               mealplanner.GoalMaintain,
		Weight:             70,
		Height:             175,
		Age:                30,
		Gender:             "male",
		ActivityLevel:      mealplanner.ActivityModerate,
		Budget:             60000,
		BudgetType:         mealplanner.BudgetWeekly,
		BudgetDistribution: mealplanner.DistributionEqual,
		CookingTime:        mealplanner.CookingTime30Min,
		SkillLevel:         mealplanner.SkillIntermediate,
		MealsPerDay:        3,
		Days:               2,
	}
}

// passingMenu hits the per-meal targets of p exactly.
func passingMenu(p mealplanner.Profile) mealplanner.Menu {
	t := mealplanner.PerMealTargets(mealplanner.DailyTargets(p), p.MealsPerDay)
	perMeal, _ := mealplanner.MealBudgets(p)
	return mealplanner.Menu{
		MenuName:           "balanced bowl",
		Ingredients:        []mealplanner.Ingredient{{Name: "tofu", Amount: "150g"}, {Name: "rice", Amount: "200g"}},
		Calories:           t.Calories,
		CarbG:              t.CarbG,
		ProteinG:           t.ProteinG,
		FatG:               t.FatG,
		SodiumMg:           600,
		SugarG:             8,
		CookingTimeMinutes: 20,
		EstimatedCost:      perMeal / 2,
		RecipeSteps:        []string{"cook rice", "pan fry tofu"},
	}
}

type eventLog struct {
	mu     sync.Mutex
	events []mealplanner.Event
}

func (l *eventLog) sink(e mealplanner.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func (l *eventLog) find(typ mealplanner.EventType, status string) []mealplanner.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []mealplanner.Event
	for _, e := range l.events {
		if e.Type == typ && (status == "" || e.Status == status) {
			out = append(out, e)
		}
	}
	return out
}

type recordingPrices struct {
	mu    sync.Mutex
	names []string
}

func (p *recordingPrices) Quote(_ context.Context, name string, grams float64) mealplanner.PriceQuote {
	p.mu.Lock()
	p.names = append(p.names, name)
	p.mu.Unlock()
	return mealplanner.PriceQuote{Name: name, AmountG: grams, PricePerGram: 10, TotalPrice: int(grams * 10), Source: "test"}
}

type staticRecipes struct {
	hints []mealplanner.RecipeHint
	seen  []mealplanner.RecipeFilters
	mu    sync.Mutex
}

func (r *staticRecipes) Search(_ context.Context, _ string, f mealplanner.RecipeFilters) []mealplanner.RecipeHint {
	r.mu.Lock()
	r.seen = append(r.seen, f)
	r.mu.Unlock()
	return r.hints
}
