package mealplanner

import "math"

var activityMultipliers = map[ActivityLevel]float64{
	ActivityLow:      1.2,
	ActivityModerate: 1.375,
	ActivityHigh:     1.55,
	ActivityVeryHigh: 1.725,
}

var calorieAdjustments = map[Goal]float64{
	GoalDiet:              -500,
	GoalBulk:              500,
	GoalMaintain:          0,
	GoalDiseaseManagement: 0,
}

var goalMacroRatios = map[Goal]MacroRatio{
	GoalDiet:     {Carb: 50, Protein: 30, Fat: 20},
	GoalBulk:     {Carb: 40, Protein: 40, Fat: 20},
	GoalMaintain: {Carb: 55, Protein: 20, Fat: 25},
}

var conditionMacroRatios = map[string]MacroRatio{
	ConditionDiabetes:       {Carb: 45, Protein: 25, Fat: 30},
	ConditionHypertension:   {Carb: 55, Protein: 20, Fat: 25},
	ConditionHyperlipidemia: {Carb: 55, Protein: 25, Fat: 20},
}

// budgetWeights drive weighted budget distribution.
var budgetWeights = map[MealType]float64{
	Breakfast: 2.0,
	Lunch:     3.0,
	Dinner:    3.5,
	Snack:     1.5,
}

// BMR uses the Mifflin-St Jeor equation.
func BMR(weight, height float64, age int, gender string) float64 {
	base := 10*weight + 6.25*height - 5*float64(age)
	if gender == "male" {
		return base + 5
	}
	return base - 161
}

func TDEE(bmr float64, level ActivityLevel) float64 {
	m, ok := activityMultipliers[level]
	if !ok {
		m = activityMultipliers[ActivityModerate]
	}
	return bmr * m
}

// MacroRatioFor picks the ratio for a profile. An explicit ratio wins, then the
// strictest ratio across known health conditions, then the goal ratio.
func MacroRatioFor(p Profile) MacroRatio {
	if p.MacroRatio != nil {
		return *p.MacroRatio
	}

	var strictest *MacroRatio
	for _, c := range p.HealthConditions {
		r, ok := conditionMacroRatios[c]
		if !ok {
			continue
		}
		if strictest == nil {
			strictest = &MacroRatio{Carb: r.Carb, Protein: r.Protein, Fat: r.Fat}
			continue
		}
		strictest.Carb = min(strictest.Carb, r.Carb)
		strictest.Protein = max(strictest.Protein, r.Protein)
		strictest.Fat = max(strictest.Fat, r.Fat)
	}
	if strictest != nil {
		return *strictest
	}

	if r, ok := goalMacroRatios[p.Goal]; ok {
		return r
	}
	return goalMacroRatios[GoalMaintain]
}

// DailyTargets derives daily calorie and macro targets from a profile.
func DailyTargets(p Profile) NutritionTargets {
	tdee := TDEE(BMR(p.Weight, p.Height, p.Age, p.Gender), p.ActivityLevel)

	adjustment := calorieAdjustments[p.Goal]
	if p.CalorieAdjustment != nil {
		adjustment = float64(*p.CalorieAdjustment)
	}
	calories := tdee + adjustment
	r := MacroRatioFor(p)

	return NutritionTargets{
		Calories:     calories,
		CarbG:        calories * float64(r.Carb) / 100 / 4,
		ProteinG:     calories * float64(r.Protein) / 100 / 4,
		FatG:         calories * float64(r.Fat) / 100 / 9,
		CarbRatio:    r.Carb,
		ProteinRatio: r.Protein,
		FatRatio:     r.Fat,
	}
}

// PerMealTargets splits daily targets evenly across meals.
func PerMealTargets(daily NutritionTargets, mealsPerDay int) NutritionTargets {
	if mealsPerDay <= 0 {
		return daily
	}
	n := float64(mealsPerDay)
	return NutritionTargets{
		Calories:     daily.Calories / n,
		CarbG:        daily.CarbG / n,
		ProteinG:     daily.ProteinG / n,
		FatG:         daily.FatG / n,
		CarbRatio:    daily.CarbRatio,
		ProteinRatio: daily.ProteinRatio,
		FatRatio:     daily.FatRatio,
	}
}

// MealTypesFor returns the meal type sequence of a day with the given number
// of meals. Out of range counts yield nil.
func MealTypesFor(mealsPerDay int) []MealType {
	switch mealsPerDay {
	case 1:
		return []MealType{Lunch}
	case 2:
		return []MealType{Breakfast, Dinner}
	case 3:
		return []MealType{Breakfast, Lunch, Dinner}
	case 4:
		return []MealType{Breakfast, Lunch, Dinner, Snack}
	default:
		return nil
	}
}

// MealBudgets computes the average per-meal budget and, for weighted
// distribution, a per meal type budget.
func MealBudgets(p Profile) (int, map[MealType]int) {
	totalMeals := p.TotalMeals()
	if totalMeals <= 0 {
		return 0, nil
	}

	var total int
	switch p.BudgetType {
	case BudgetDaily:
		total = p.Budget * p.Days
	case BudgetPerMeal:
		total = p.Budget * totalMeals
	default:
		total = p.Budget
	}
	perMeal := total / totalMeals

	if p.BudgetDistribution != DistributionWeighted {
		return perMeal, nil
	}

	types := MealTypesFor(p.MealsPerDay)
	var weightSum float64
	for _, mt := range types {
		weightSum += budgetWeights[mt]
	}
	daily := float64(total) / float64(p.Days)

	perType := make(map[MealType]int, len(types))
	for _, mt := range types {
		perType[mt] = int(math.Floor(daily * budgetWeights[mt] / weightSum))
	}
	return perMeal, perType
}
