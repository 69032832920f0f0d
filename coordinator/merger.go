package coordinator

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"mealplanner"
	"mealplanner/oracle"
)

const mergerNode = "merger"

type MergerOptions struct {
	// EmergencyMenu is served when every producer failed on the first attempt
	// of a meal. Nil means DefaultEmergencyMenu.
	EmergencyMenu *mealplanner.Menu
}

// DefaultEmergencyMenu is a plain brown rice and egg meal.
func DefaultEmergencyMenu() mealplanner.Menu {
	return mealplanner.Menu{
		MenuName: "Brown rice and egg (fallback)",
		Ingredients: []mealplanner.Ingredient{
			{Name: "brown rice", Amount: "210g"},
			{Name: "egg", Amount: "1ea"},
		},
		Calories:           500,
		CarbG:              70,
		ProteinG:           15,
		FatG:               10,
		SodiumMg:           400,
		SugarG:             5,
		CookingTimeMinutes: 10,
		EstimatedCost:      3000,
		RecipeSteps: []string{
			"A default menu was served because no recommendation was available.",
			"Generating the plan again is recommended.",
		},
	}
}

type mergeResult struct {
	menu   *mealplanner.Menu
	events []mealplanner.Event
}

func reusedCandidate(prev *mealplanner.Menu) *mealplanner.Recommendation {
	return &mealplanner.Recommendation{
		MenuName:           prev.MenuName,
		Ingredients:        prev.Ingredients,
		EstimatedCalories:  prev.Calories,
		EstimatedCost:      prev.EstimatedCost,
		CookingTimeMinutes: prev.CookingTimeMinutes,
		Reasoning:          "previous menu reused",
		RecipeURL:          prev.RecipeURL,
		Reused:             true,
	}
}

func cloneMenu(m mealplanner.Menu) *mealplanner.Menu {
	m.Ingredients = slices.Clone(m.Ingredients)
	m.RecipeSteps = slices.Clone(m.RecipeSteps)
	m.Warnings = slices.Clone(m.Warnings)
	return &m
}

func (c *Coordinator) emergencyMenu(mealType mealplanner.MealType) *mealplanner.Menu {
	base := DefaultEmergencyMenu()
	if c.mergerOpts.EmergencyMenu != nil {
		base = *c.mergerOpts.EmergencyMenu
	}
	m := cloneMenu(base)
	m.MealType = mealType
	return m
}

// merge reduces the candidates to one menu. Oracle and schema errors are
// returned wrapped in ErrMergeFailed.
func (c *Coordinator) merge(ctx context.Context, r *run, snap PlanState) (mergeResult, error) {
	candidates := []*mealplanner.Recommendation{snap.CandidateA, snap.CandidateB, snap.CandidateC}
	prev := snap.FinalizedMenu

	if snap.CandidateA == nil && snap.CandidateB == nil && snap.CandidateC == nil {
		if prev == nil {
			menu := c.emergencyMenu(snap.CurrentMealType)
			slog.Error("MERGER: Every producer failed, serving emergency menu", "day", snap.CurrentDay, "meal_type", snap.CurrentMealType)
			return mergeResult{
				menu: menu,
				events: []mealplanner.Event{{
					Type:   mealplanner.EventError,
					Node:   mergerNode,
					Status: "fallback",
					Data: map[string]any{
						"message": "every recommendation failed, serving the emergency menu",
						"menu":    menu.MenuName,
					},
				}},
			}, nil
		}

		slog.Warn("MERGER: Every producer failed, reusing previous menu", "menu", prev.MenuName)
		return mergeResult{
			menu: cloneMenu(*prev),
			events: []mealplanner.Event{{
				Type:   mealplanner.EventWarning,
				Node:   mergerNode,
				Status: "reused_previous",
				Data: map[string]any{
					"message": "every recommendation failed, reusing the previous menu",
					"menu":    prev.MenuName,
				},
			}},
		}, nil
	}

	if prev != nil {
		for i, cand := range candidates {
			if cand == nil {
				candidates[i] = reusedCandidate(prev)
			}
		}
	}

	out, err := c.invoke(ctx, r, mergerNode, snap, mergerPrompt(snap, candidates))
	if err != nil {
		return mergeResult{}, fmt.Errorf("%w: %w", ErrMergeFailed, err)
	}
	menu, err := oracle.Decode[mealplanner.Menu](out)
	if err != nil {
		return mergeResult{}, fmt.Errorf("%w: %w", ErrMergeFailed, err)
	}
	if err := menu.Validate(); err != nil {
		return mergeResult{}, fmt.Errorf("%w: %w", ErrMergeFailed, err)
	}

	menu.MealType = snap.CurrentMealType
	menu.Warnings = nil
	if menu.RecipeURL == "" && snap.CandidateB != nil {
		menu.RecipeURL = snap.CandidateB.RecipeURL
	}

	slog.Info("MERGER: Menu finalized", "menu", menu.MenuName, "calories", menu.Calories, "cost", menu.EstimatedCost)

	return mergeResult{
		menu: &menu,
		events: []mealplanner.Event{{
			Type:   mealplanner.EventProgress,
			Node:   mergerNode,
			Status: "completed",
			Data: map[string]any{
				"menu_name":      menu.MenuName,
				"calories":       menu.Calories,
				"estimated_cost": menu.EstimatedCost,
				"cooking_time":   menu.CookingTimeMinutes,
				"day":            snap.CurrentDay,
				"meal_type":      snap.CurrentMealType,
			},
		}},
	}, nil
}
