package coordinator

import (
	"fmt"

	"mealplanner"
)

// ValidateSchedule rejects meal and day counts the iterator cannot walk.
func ValidateSchedule(p mealplanner.Profile) error {
	if p.MealsPerDay < 1 || p.MealsPerDay > len(mealplanner.MealTypes) {
		return fmt.Errorf("%w: meals per day must be in [1, %d], got %d", ErrInvalidConfig, len(mealplanner.MealTypes), p.MealsPerDay)
	}
	if p.Days < 1 {
		return fmt.Errorf("%w: days must be at least 1, got %d", ErrInvalidConfig, p.Days)
	}
	return nil
}

// mealTypeAt clamps out of range indexes to the last meal type of the day.
func mealTypeAt(mealsPerDay, idx int) mealplanner.MealType {
	seq := mealplanner.MealTypesFor(mealsPerDay)
	if len(seq) == 0 {
		return ""
	}
	if idx < 0 {
		idx = 0
	}
	if idx >= len(seq) {
		idx = len(seq) - 1
	}
	return seq[idx]
}

func summarizeDay(day int, meals []mealplanner.Menu) mealplanner.DaySummary {
	s := mealplanner.DaySummary{Day: day, Meals: meals}
	for _, m := range meals {
		s.TotalCalories += m.Calories
		s.TotalCarbG += m.CarbG
		s.TotalProteinG += m.ProteinG
		s.TotalFatG += m.FatG
		s.TotalSodiumMg += m.SodiumMg
		s.TotalCost += m.EstimatedCost
	}
	return s
}

// advance accepts the finalized menu and moves the cursor to the next meal,
// the next day, or the end of the plan. It returns the events to record.
func (s *PlanState) advance() []mealplanner.Event {
	if s.FinalizedMenu != nil {
		s.CompletedMealsToday = append(s.CompletedMealsToday, *s.FinalizedMenu)
	}

	next := s.CurrentMealIndex + 1
	if next < s.Profile.MealsPerDay {
		s.CurrentMealIndex = next
		s.CurrentMealType = mealTypeAt(s.Profile.MealsPerDay, next)
		s.resetMeal()
		return nil
	}

	summary := summarizeDay(s.CurrentDay, s.CompletedMealsToday)
	s.WeeklyPlan = append(s.WeeklyPlan, summary)
	s.CompletedMealsToday = nil

	events := []mealplanner.Event{{
		Type:   mealplanner.EventProgress,
		Node:   "day_iterator",
		Status: "day_complete",
		Data: map[string]any{
			"day":            summary.Day,
			"meals":          len(summary.Meals),
			"total_calories": summary.TotalCalories,
			"total_cost":     summary.TotalCost,
		},
	}}

	if s.CurrentDay+1 > s.Profile.Days {
		s.resetMeal()
		s.Done = true
		return append(events, mealplanner.Event{
			Type:   mealplanner.EventComplete,
			Node:   "day_iterator",
			Status: "completed",
			Data: map[string]any{
				"days":      len(s.WeeklyPlan),
				"meals":     s.CompletedMeals(),
				"meal_plan": s.WeeklyPlan,
			},
		})
	}

	s.CurrentDay++
	s.CurrentMealIndex = 0
	s.CurrentMealType = mealTypeAt(s.Profile.MealsPerDay, 0)
	s.resetMeal()
	return events
}
