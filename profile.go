package mealplanner

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

type Goal string

const (
	GoalDiet              Goal = "diet"
	GoalBulk              Goal = "bulk"
	GoalMaintain          Goal = "maintain"
	GoalDiseaseManagement Goal = "disease_management"
)

type ActivityLevel string

const (
	ActivityLow      ActivityLevel = "low"
	ActivityModerate ActivityLevel = "moderate"
	ActivityHigh     ActivityLevel = "high"
	ActivityVeryHigh ActivityLevel = "very_high"
)

type BudgetType string

const (
	BudgetWeekly  BudgetType = "weekly"
	BudgetDaily   BudgetType = "daily"
	BudgetPerMeal BudgetType = "per_meal"
)

type BudgetDistribution string

const (
	DistributionEqual    BudgetDistribution = "equal"
	DistributionWeighted BudgetDistribution = "weighted"
)

type CookingTime string

const (
	CookingTime15Min     CookingTime = "15min"
	CookingTime30Min     CookingTime = "30min"
	CookingTimeUnlimited CookingTime = "unlimited"
)

type SkillLevel string

const (
	SkillBeginner     SkillLevel = "beginner"
	SkillIntermediate SkillLevel = "intermediate"
	SkillAdvanced     SkillLevel = "advanced"
)

const (
	ConditionDiabetes       = "diabetes"
	ConditionHypertension   = "hypertension"
	ConditionHyperlipidemia = "hyperlipidemia"
)

const (
	MinBudget        = 10_000
	MaxBudget        = 1_000_000
	MinPerMealBudget = 2_000
	MaxPlanDays      = 7
)

// MacroRatio is a carb:protein:fat percentage split.
type MacroRatio struct {
	Carb    int `json:"carb"`
	Protein int `json:"protein"`
	Fat     int `json:"fat"`
}

// Profile is the immutable input of a plan run.
type Profile struct {
	Goal               Goal               `json:"goal"`
	Weight             float64            `json:"weight"`
	Height             float64            `json:"height"`
	Age                int                `json:"age"`
	Gender             string             `json:"gender"`
	ActivityLevel      ActivityLevel      `json:"activity_level"`
	Restrictions       []string           `json:"restrictions,omitempty"`
	HealthConditions   []string           `json:"health_conditions,omitempty"`
	CalorieAdjustment  *int               `json:"calorie_adjustment,omitempty"`
	MacroRatio         *MacroRatio        `json:"macro_ratio,omitempty"`
	Budget             int                `json:"budget"`
	BudgetType         BudgetType         `json:"budget_type"`
	BudgetDistribution BudgetDistribution `json:"budget_distribution"`
	CookingTime        CookingTime        `json:"cooking_time"`
	SkillLevel         SkillLevel         `json:"skill_level"`
	MealsPerDay        int                `json:"meals_per_day"`
	Days               int                `json:"days"`
}

// TotalMeals is the number of meals the plan will contain.
func (p Profile) TotalMeals() int {
	return p.MealsPerDay * p.Days
}

// CookingTimeLimit returns the cooking time ceiling in minutes.
func (p Profile) CookingTimeLimit() int {
	switch p.CookingTime {
	case CookingTime15Min:
		return 15
	case CookingTime30Min:
		return 30
	default:
		return 180
	}
}

// Fingerprint identifies requests that would produce the same plan. Restrictions
// and health conditions are intentionally left out.
func (p Profile) Fingerprint() string {
	key := strings.Join([]string{
		string(p.Goal),
		strconv.FormatFloat(p.Weight, 'f', -1, 64),
		strconv.FormatFloat(p.Height, 'f', -1, 64),
		strconv.Itoa(p.Age),
		p.Gender,
		string(p.ActivityLevel),
		strconv.Itoa(p.Budget),
		string(p.BudgetType),
		strconv.Itoa(p.MealsPerDay),
		strconv.Itoa(p.Days),
	}, "|")
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])[:16]
}

// WithDefaults fills optional enum fields left empty by callers.
func (p Profile) WithDefaults() Profile {
	if p.BudgetType == "" {
		p.BudgetType = BudgetWeekly
	}
	if p.BudgetDistribution == "" {
		p.BudgetDistribution = DistributionEqual
	}
	if p.CookingTime == "" {
		p.CookingTime = CookingTimeUnlimited
	}
	if p.SkillLevel == "" {
		p.SkillLevel = SkillIntermediate
	}
	return p
}

// Validate checks a request profile at the API boundary. Meal and day counts
// are range-checked by the coordinator so that a run can report them.
func (p *Profile) Validate() error {
	var errs []error

	if !slices.Contains([]Goal{GoalDiet, GoalBulk, GoalMaintain, GoalDiseaseManagement}, p.Goal) {
		errs = append(errs, fmt.Errorf("goal %q is not supported", p.Goal))
	}
	if p.Weight <= 0 || p.Weight > 300 {
		errs = append(errs, fmt.Errorf("weight must be in (0, 300], got %v", p.Weight))
	}
	if p.Height <= 50 || p.Height > 250 {
		errs = append(errs, fmt.Errorf("height must be in (50, 250], got %v", p.Height))
	}
	if p.Age <= 0 || p.Age > 150 {
		errs = append(errs, fmt.Errorf("age must be in (0, 150], got %d", p.Age))
	}
	if p.Gender != "male" && p.Gender != "female" {
		errs = append(errs, fmt.Errorf("gender %q is not supported", p.Gender))
	}
	if _, ok := activityMultipliers[p.ActivityLevel]; !ok {
		errs = append(errs, fmt.Errorf("activity level %q is not supported", p.ActivityLevel))
	}
	if p.Budget < MinBudget || p.Budget > MaxBudget {
		errs = append(errs, fmt.Errorf("budget must be in [%d, %d], got %d", MinBudget, MaxBudget, p.Budget))
	}
	if !slices.Contains([]BudgetType{BudgetWeekly, BudgetDaily, BudgetPerMeal}, p.BudgetType) {
		errs = append(errs, fmt.Errorf("budget type %q is not supported", p.BudgetType))
	}
	if !slices.Contains([]BudgetDistribution{DistributionEqual, DistributionWeighted}, p.BudgetDistribution) {
		errs = append(errs, fmt.Errorf("budget distribution %q is not supported", p.BudgetDistribution))
	}
	if !slices.Contains([]CookingTime{CookingTime15Min, CookingTime30Min, CookingTimeUnlimited}, p.CookingTime) {
		errs = append(errs, fmt.Errorf("cooking time %q is not supported", p.CookingTime))
	}
	if !slices.Contains([]SkillLevel{SkillBeginner, SkillIntermediate, SkillAdvanced}, p.SkillLevel) {
		errs = append(errs, fmt.Errorf("skill level %q is not supported", p.SkillLevel))
	}
	if p.Days > MaxPlanDays {
		errs = append(errs, fmt.Errorf("days must be at most %d, got %d", MaxPlanDays, p.Days))
	}
	if p.MacroRatio != nil && p.MacroRatio.Carb+p.MacroRatio.Protein+p.MacroRatio.Fat != 100 {
		errs = append(errs, errors.New("macro ratio must sum to 100"))
	}

	if p.MealsPerDay > 0 && p.Days > 0 {
		if perMeal := perMealAmount(p.Budget, p.BudgetType, p.MealsPerDay, p.Days); perMeal < MinPerMealBudget {
			errs = append(errs, fmt.Errorf("per-meal budget %d is below the minimum of %d", perMeal, MinPerMealBudget))
		}
	}

	restrictions, err := SanitizeList(p.Restrictions, "restrictions")
	if err != nil {
		errs = append(errs, err)
	} else {
		p.Restrictions = restrictions
	}
	conditions, err := SanitizeList(p.HealthConditions, "health_conditions")
	if err != nil {
		errs = append(errs, err)
	} else {
		p.HealthConditions = conditions
	}

	return errors.Join(errs...)
}

func perMealAmount(budget int, bt BudgetType, mealsPerDay, days int) int {
	switch bt {
	case BudgetDaily:
		return budget / mealsPerDay
	case BudgetPerMeal:
		return budget
	default:
		return budget / (mealsPerDay * days)
	}
}
