package coordinator

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mealplanner"
)

func TestValidateSchedule(t *testing.T) {
	tests := []struct {
		mealsPerDay int
		days        int
		wantErr     bool
	}{
		{1, 1, false},
		{4, 7, false},
		{0, 1, true},
		{5, 1, true},
		{-1, 1, true},
		{3, 0, true},
	}

	for _, tt := range tests {
		p := testProfile()
		p.MealsPerDay, p.Days = tt.mealsPerDay, tt.days
		err := ValidateSchedule(p)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrInvalidConfig, "%d meals, %d days", tt.mealsPerDay, tt.days)
		} else {
			assert.NoError(t, err)
		}
	}
}

func TestMealTypeAt(t *testing.T) {
	assert.Equal(t, mealplanner.Lunch, mealTypeAt(1, 0))
	assert.Equal(t, mealplanner.Dinner, mealTypeAt(2, 1))
	assert.Equal(t, mealplanner.Snack, mealTypeAt(4, 3))
	assert.Equal(t, mealplanner.Dinner, mealTypeAt(3, 9))
	assert.Equal(t, mealplanner.Breakfast, mealTypeAt(3, -1))
	assert.Equal(t, mealplanner.MealType(""), mealTypeAt(0, 0))
}

func TestAdvance(t *testing.T) {
	p := testProfile()
	p.MealsPerDay = 2
	p.Days = 2
	s := newPlanState(p, DefaultMaxRetries)

	accept := func(name string) []mealplanner.Event {
		m := passingMenu(p)
		m.MenuName = name
		m.MealType = s.CurrentMealType
		s.FinalizedMenu = &m
		s.CandidateA = &mealplanner.Recommendation{MenuName: "a"}
		s.RetryCount = 2
		s.PreviousFailures = []mealplanner.Failure{{Validator: ValidatorTime}}
		return s.advance()
	}

	require.Equal(t, mealplanner.Breakfast, s.CurrentMealType)

	events := accept("d1 breakfast")
	assert.Empty(t, events)
	assert.Equal(t, 1, s.CurrentDay)
	assert.Equal(t, 1, s.CurrentMealIndex)
	assert.Equal(t, mealplanner.Dinner, s.CurrentMealType)
	assert.Nil(t, s.CandidateA)
	assert.Nil(t, s.FinalizedMenu)
	assert.Zero(t, s.RetryCount)
	assert.Empty(t, s.PreviousFailures)
	assert.Len(t, s.CompletedMealsToday, 1)

	events = accept("d1 dinner")
	require.Len(t, events, 1)
	assert.Equal(t, "day_complete", events[0].Status)
	assert.Equal(t, 1, events[0].Data["day"])
	assert.Equal(t, 2, s.CurrentDay)
	assert.Zero(t, s.CurrentMealIndex)
	assert.Equal(t, mealplanner.Breakfast, s.CurrentMealType)
	assert.Empty(t, s.CompletedMealsToday)
	require.Len(t, s.WeeklyPlan, 1)
	assert.False(t, s.Done)

	accept("d2 breakfast")
	events = accept("d2 dinner")
	require.Len(t, events, 2)
	assert.Equal(t, mealplanner.EventComplete, events[1].Type)
	assert.Equal(t, 2, events[1].Data["days"])
	assert.Equal(t, 4, events[1].Data["meals"])
	assert.True(t, s.Done)
	assert.Equal(t, 2, s.CurrentDay)
	assert.Equal(t, []string{"d1 breakfast", "d1 dinner", "d2 breakfast", "d2 dinner"}, s.RecentMenuNames(10))
	assert.Equal(t, []string{"d2 breakfast", "d2 dinner"}, s.RecentMenuNames(2))
}

func TestSummarizeDay(t *testing.T) {
	meals := []mealplanner.Menu{
		{Calories: 500, CarbG: 60, ProteinG: 30, FatG: 10, SodiumMg: 400, EstimatedCost: 3000},
		{Calories: 700, CarbG: 80, ProteinG: 40, FatG: 20, SodiumMg: 800, EstimatedCost: 5000},
	}

	s := summarizeDay(3, meals)
	assert.Equal(t, 3, s.Day)
	assert.InDelta(t, 1200, s.TotalCalories, 0.001)
	assert.InDelta(t, 140, s.TotalCarbG, 0.001)
	assert.InDelta(t, 70, s.TotalProteinG, 0.001)
	assert.InDelta(t, 30, s.TotalFatG, 0.001)
	assert.InDelta(t, 1200, s.TotalSodiumMg, 0.001)
	assert.Equal(t, 8000, s.TotalCost)
}

func TestAggregate(t *testing.T) {
	s := newPlanState(testProfile(), DefaultMaxRetries)
	menu := passingMenu(s.Profile)
	s.FinalizedMenu = &menu
	s.RetryCount = 1
	s.CompletedMealsToday = []mealplanner.Menu{menu}

	pass := func(name string) mealplanner.ValidationResult {
		return mealplanner.ValidationResult{Validator: name, Passed: true}
	}

	t.Run("all passed", func(t *testing.T) {
		results := []mealplanner.ValidationResult{pass(ValidatorNutrition), pass(ValidatorBudget)}
		agg := aggregate(s.snapshot(), results)
		assert.Empty(t, agg.failed)
		assert.Empty(t, agg.failures)
		assert.Equal(t, mealplanner.EventMealComplete, agg.event.Type)
		assert.Equal(t, "passed", agg.event.Status)
		assert.Equal(t, 2, agg.event.Data["completed_meals"])
		assert.Equal(t, 6, agg.event.Data["total_meals"])
	})

	t.Run("some failed", func(t *testing.T) {
		results := []mealplanner.ValidationResult{
			pass(ValidatorNutrition),
			{Validator: ValidatorTime, Issues: []string{"slow"}, Reason: "cooking time limit exceeded"},
			{Validator: ValidatorBudget, Issues: []string{"pricey"}, Reason: "over budget"},
		}
		agg := aggregate(s.snapshot(), results)
		require.Len(t, agg.failed, 2)
		assert.Equal(t, ValidatorTime, agg.failed[0].Validator)
		require.Len(t, agg.failures, 2)
		assert.Equal(t, mealplanner.Failure{Validator: ValidatorBudget, Issues: []string{"pricey"}, RetryCount: 1, MenuName: menu.MenuName}, agg.failures[1])
		assert.Equal(t, "validation_failed", agg.event.Status)
		assert.Equal(t, 1, agg.event.Data["passed_count"])
		assert.Equal(t, []string{ValidatorTime, ValidatorBudget}, agg.event.Data["failed_validators"])
		assert.Equal(t, 1, agg.event.Data["completed_meals"])
	})
}

func TestStage_String(t *testing.T) {
	for st, want := range map[stage]string{stageProduce: "produce", stageRetry: "retry", stageDone: "done"} {
		assert.Equal(t, want, st.String())
	}
	assert.Equal(t, fmt.Sprintf("stage(%d)", 42), stage(42).String())
}
