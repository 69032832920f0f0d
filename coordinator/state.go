package coordinator

import (
	"mealplanner"
)

// PlanState is the shared state of one run. Only the executor mutates it;
// stages receive a copy and return deltas.
type PlanState struct {
	Profile        mealplanner.Profile
	DailyTargets   mealplanner.NutritionTargets
	PerMealTargets mealplanner.NutritionTargets
	PerMealBudget  int
	// PerMealBudgets is nil under equal distribution.
	PerMealBudgets map[mealplanner.MealType]int

	CurrentDay       int
	CurrentMealIndex int
	CurrentMealType  mealplanner.MealType

	CandidateA    *mealplanner.Recommendation
	CandidateB    *mealplanner.Recommendation
	CandidateC    *mealplanner.Recommendation
	FinalizedMenu *mealplanner.Menu

	ValidationResults   []mealplanner.ValidationResult
	CompletedMealsToday []mealplanner.Menu
	WeeklyPlan          []mealplanner.DaySummary
	RetryCount          int
	MaxRetries          int
	PreviousFailures    []mealplanner.Failure
	Events              []mealplanner.Event
	ErrorMessage        *string
	Done                bool
}

func newPlanState(profile mealplanner.Profile, maxRetries int) *PlanState {
	daily := mealplanner.DailyTargets(profile)
	perMeal, perType := mealplanner.MealBudgets(profile)

	s := &PlanState{
		Profile:        profile,
		DailyTargets:   daily,
		PerMealTargets: mealplanner.PerMealTargets(daily, profile.MealsPerDay),
		PerMealBudget:  perMeal,
		PerMealBudgets: perType,
		CurrentDay:     1,
		MaxRetries:     maxRetries,
	}
	s.CurrentMealType = mealTypeAt(profile.MealsPerDay, 0)
	return s
}

// Budget returns the budget of the current meal.
func (s *PlanState) Budget() int {
	if b, ok := s.PerMealBudgets[s.CurrentMealType]; ok {
		return b
	}
	return s.PerMealBudget
}

func (s *PlanState) Candidate(role mealplanner.Role) *mealplanner.Recommendation {
	switch role {
	case mealplanner.RoleNutrition:
		return s.CandidateA
	case mealplanner.RoleCooking:
		return s.CandidateB
	case mealplanner.RoleCost:
		return s.CandidateC
	}
	return nil
}

func (s *PlanState) setCandidate(role mealplanner.Role, rec *mealplanner.Recommendation) {
	switch role {
	case mealplanner.RoleNutrition:
		s.CandidateA = rec
	case mealplanner.RoleCooking:
		s.CandidateB = rec
	case mealplanner.RoleCost:
		s.CandidateC = rec
	}
}

// RecentMenuNames returns up to n of the most recently completed menu names,
// newest last. Earlier days come before today.
func (s *PlanState) RecentMenuNames(n int) []string {
	var names []string
	for _, day := range s.WeeklyPlan {
		for _, m := range day.Meals {
			names = append(names, m.MenuName)
		}
	}
	for _, m := range s.CompletedMealsToday {
		names = append(names, m.MenuName)
	}
	if len(names) > n {
		names = names[len(names)-n:]
	}
	return names
}

// CompletedMeals counts accepted meals across all days.
func (s *PlanState) CompletedMeals() int {
	n := len(s.CompletedMealsToday)
	for _, day := range s.WeeklyPlan {
		n += len(day.Meals)
	}
	return n
}

// snapshot returns a copy for stage functions. Slices are shared and must be
// treated as read-only.
func (s *PlanState) snapshot() PlanState {
	return *s
}

func (s *PlanState) resetMeal() {
	s.CandidateA = nil
	s.CandidateB = nil
	s.CandidateC = nil
	s.FinalizedMenu = nil
	s.ValidationResults = nil
	s.PreviousFailures = nil
	s.RetryCount = 0
}
