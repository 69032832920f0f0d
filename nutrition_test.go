package mealplanner

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func baseProfile() Profile {
	return Profile{
		Goal:               GoalMaintain,
		Weight:             70,
		Height:             175,
		Age:                30,
		Gender:             "male",
		ActivityLevel:      ActivityModerate,
		Budget:             70000,
		BudgetType:         BudgetWeekly,
		BudgetDistribution: DistributionEqual,
		CookingTime:        CookingTime30Min,
		SkillLevel:         SkillIntermediate,
		MealsPerDay:        3,
		Days:               7,
	}
}

func TestBMR(t *testing.T) {
	tests := []struct {
		name     string
		weight   float64
		height   float64
		age      int
		gender   string
		expected float64
	}{
		{name: "male", weight: 70, height: 175, age: 30, gender: "male", expected: 1648.75},
		{name: "female", weight: 60, height: 165, age: 25, gender: "female", expected: 1345.25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, BMR(tt.weight, tt.height, tt.age, tt.gender), 0.001)
		})
	}
}

func TestDailyTargets(t *testing.T) {
	t.Run("maintain uses goal ratio", func(t *testing.T) {
		got := DailyTargets(baseProfile())

		assert.InDelta(t, 2267.03, got.Calories, 0.01)
		assert.Equal(t, 55, got.CarbRatio)
		assert.InDelta(t, 2267.03*0.55/4, got.CarbG, 0.01)
		assert.InDelta(t, 2267.03*0.20/4, got.ProteinG, 0.01)
		assert.InDelta(t, 2267.03*0.25/9, got.FatG, 0.01)
	})

	t.Run("diet subtracts 500", func(t *testing.T) {
		p := baseProfile()
		p.Goal = GoalDiet
		assert.InDelta(t, 2267.03-500, DailyTargets(p).Calories, 0.01)
	})

	t.Run("explicit adjustment overrides goal", func(t *testing.T) {
		p := baseProfile()
		p.Goal = GoalBulk
		adj := 200
		p.CalorieAdjustment = &adj
		assert.InDelta(t, 2267.03+200, DailyTargets(p).Calories, 0.01)
	})
}

func TestMacroRatioFor(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Profile)
		expected MacroRatio
	}{
		{
			name:     "goal ratio",
			mutate:   func(p *Profile) { p.Goal = GoalBulk },
			expected: MacroRatio{Carb: 40, Protein: 40, Fat: 20},
		},
		{
			name:     "disease management falls back to maintain",
			mutate:   func(p *Profile) { p.Goal = GoalDiseaseManagement },
			expected: MacroRatio{Carb: 55, Protein: 20, Fat: 25},
		},
		{
			name: "strictest across conditions",
			mutate: func(p *Profile) {
				p.HealthConditions = []string{ConditionDiabetes, ConditionHyperlipidemia}
			},
			expected: MacroRatio{Carb: 45, Protein: 25, Fat: 30},
		},
		{
			name:     "unknown condition ignored",
			mutate:   func(p *Profile) { p.HealthConditions = []string{"gout"} },
			expected: MacroRatio{Carb: 55, Protein: 20, Fat: 25},
		},
		{
			name: "custom ratio wins",
			mutate: func(p *Profile) {
				p.HealthConditions = []string{ConditionDiabetes}
				p.MacroRatio = &MacroRatio{Carb: 30, Protein: 40, Fat: 30}
			},
			expected: MacroRatio{Carb: 30, Protein: 40, Fat: 30},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := baseProfile()
			tt.mutate(&p)
			assert.Equal(t, tt.expected, MacroRatioFor(p))
		})
	}
}

func TestPerMealTargets(t *testing.T) {
	daily := NutritionTargets{Calories: 2100, CarbG: 300, ProteinG: 90, FatG: 60, CarbRatio: 55}
	got := PerMealTargets(daily, 3)

	assert.InDelta(t, 700, got.Calories, 0.001)
	assert.InDelta(t, 100, got.CarbG, 0.001)
	assert.InDelta(t, 30, got.ProteinG, 0.001)
	assert.InDelta(t, 20, got.FatG, 0.001)
	assert.Equal(t, 55, got.CarbRatio)
}

func TestMealTypesFor(t *testing.T) {
	tests := []struct {
		meals    int
		expected []MealType
	}{
		{0, nil},
		{1, []MealType{Lunch}},
		{2, []MealType{Breakfast, Dinner}},
		{3, []MealType{Breakfast, Lunch, Dinner}},
		{4, []MealType{Breakfast, Lunch, Dinner, Snack}},
		{5, nil},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, MealTypesFor(tt.meals), "meals per day %d", tt.meals)
	}
}

func TestMealBudgets(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Profile)
		perMeal     int
		perMealType map[MealType]int
	}{
		{
			name:    "weekly equal",
			mutate:  func(p *Profile) {},
			perMeal: 3333,
		},
		{
			name: "daily",
			mutate: func(p *Profile) {
				p.BudgetType = BudgetDaily
				p.Budget = 15000
			},
			perMeal: 5000,
		},
		{
			name: "per meal",
			mutate: func(p *Profile) {
				p.BudgetType = BudgetPerMeal
				p.Budget = 4000
			},
			perMeal: 4000,
		},
		{
			name:    "weighted",
			mutate:  func(p *Profile) { p.BudgetDistribution = DistributionWeighted },
			perMeal: 3333,
			perMealType: map[MealType]int{
				Breakfast: 2352,
				Lunch:     3529,
				Dinner:    4117,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := baseProfile()
			tt.mutate(&p)
			perMeal, perType := MealBudgets(p)
			assert.Equal(t, tt.perMeal, perMeal)
			assert.Equal(t, tt.perMealType, perType)
		})
	}
}
