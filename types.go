package mealplanner

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type SlackClient interface {
	PostMessage(ctx context.Context, channel string, message string) error
}

// Oracle turns a natural-language prompt into free text that is expected to
// contain a JSON object.
type Oracle interface {
	Invoke(ctx context.Context, prompt string) (string, error)
}

type Coordinator interface {
	Run(ctx context.Context, profile Profile) (Plan, error)
}

// EventSink receives every telemetry event in emission order.
type EventSink func(Event)

// Role identifies one of the recommendation sources, or the merger.
type Role string

const (
	RoleNutrition Role = "nutrition"
	RoleCooking   Role = "cooking"
	RoleCost      Role = "cost"
	RoleMerger    Role = "merger"
)

// PromptRoleHeader is the first line of every oracle prompt. Backends that
// fake responses key off it.
func PromptRoleHeader(r Role) string {
	return "ROLE: " + string(r)
}

type MealType string

const (
	Breakfast MealType = "breakfast"
	Lunch     MealType = "lunch"
	Dinner    MealType = "dinner"
	Snack     MealType = "snack"
)

// MealTypes is the full meal type sequence. A day never has more meals than this.
var MealTypes = []MealType{Breakfast, Lunch, Dinner, Snack}

type EventType string

const (
	EventProgress     EventType = "progress"
	EventValidation   EventType = "validation"
	EventRetry        EventType = "retry"
	EventMealComplete EventType = "meal_complete"
	EventComplete     EventType = "complete"
	EventError        EventType = "error"
	EventWarning      EventType = "warning"
)

// Event is one telemetry record for the transport layer.
type Event struct {
	Type      EventType      `json:"type"`
	Node      string         `json:"node"`
	Status    string         `json:"status"`
	Data      map[string]any `json:"data,omitempty"`
	RunID     string         `json:"run_id,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

type Ingredient struct {
	Name   string `json:"name"`
	Amount string `json:"amount"`
}

// Recommendation is one producer's candidate menu for the current meal.
type Recommendation struct {
	MenuName           string       `json:"menu_name"`
	Ingredients        []Ingredient `json:"ingredients"`
	EstimatedCalories  float64      `json:"estimated_calories"`
	EstimatedCost      int          `json:"estimated_cost"`
	CookingTimeMinutes int          `json:"cooking_time_minutes"`
	Reasoning          string       `json:"reasoning"`
	IngredientPrices   []PriceQuote `json:"ingredient_prices,omitempty"`
	RecipeURL          string       `json:"recipe_url,omitempty"`
	Reused             bool         `json:"reused,omitempty"`
}

// Validate reports the required fields the oracle left out.
func (r *Recommendation) Validate() error {
	var missing []string
	if strings.TrimSpace(r.MenuName) == "" {
		missing = append(missing, "menu_name")
	}
	if len(r.Ingredients) == 0 {
		missing = append(missing, "ingredients")
	}
	if r.EstimatedCalories <= 0 {
		missing = append(missing, "estimated_calories")
	}
	if r.EstimatedCost < 0 {
		missing = append(missing, "estimated_cost")
	}
	if r.CookingTimeMinutes <= 0 {
		missing = append(missing, "cooking_time_minutes")
	}
	if strings.TrimSpace(r.Reasoning) == "" {
		missing = append(missing, "reasoning")
	}
	if len(missing) > 0 {
		return &SchemaError{Fields: missing}
	}
	return nil
}

// Menu is the finalized, merged menu for one meal.
type Menu struct {
	MealType           MealType     `json:"meal_type"`
	MenuName           string       `json:"menu_name"`
	Ingredients        []Ingredient `json:"ingredients"`
	Calories           float64      `json:"calories"`
	CarbG              float64      `json:"carb_g"`
	ProteinG           float64      `json:"protein_g"`
	FatG               float64      `json:"fat_g"`
	SodiumMg           float64      `json:"sodium_mg"`
	SugarG             float64      `json:"sugar_g"`
	CookingTimeMinutes int          `json:"cooking_time_minutes"`
	EstimatedCost      int          `json:"estimated_cost"`
	RecipeSteps        []string     `json:"recipe_steps"`
	RecipeURL          string       `json:"recipe_url,omitempty"`
	Warnings           []string     `json:"validation_warnings,omitempty"`
}

// Validate reports the required fields the oracle left out.
func (m *Menu) Validate() error {
	var missing []string
	if strings.TrimSpace(m.MenuName) == "" {
		missing = append(missing, "menu_name")
	}
	if len(m.Ingredients) == 0 {
		missing = append(missing, "ingredients")
	}
	if m.Calories <= 0 {
		missing = append(missing, "calories")
	}
	if m.CarbG < 0 || m.ProteinG < 0 || m.FatG < 0 || m.SodiumMg < 0 || m.SugarG < 0 {
		missing = append(missing, "nutrients")
	}
	if m.CookingTimeMinutes <= 0 {
		missing = append(missing, "cooking_time_minutes")
	}
	if m.EstimatedCost < 0 {
		missing = append(missing, "estimated_cost")
	}
	if len(m.RecipeSteps) == 0 {
		missing = append(missing, "recipe_steps")
	}
	if len(missing) > 0 {
		return &SchemaError{Fields: missing}
	}
	return nil
}

// SchemaError lists the fields that failed structural validation.
type SchemaError struct {
	Fields []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("missing or invalid fields: %s", strings.Join(e.Fields, ", "))
}

// IsSchemaError reports whether err carries a SchemaError.
func IsSchemaError(err error) bool {
	var se *SchemaError
	return errors.As(err, &se)
}

// DaySummary is one completed day of the plan with its totals.
type DaySummary struct {
	Day           int     `json:"day"`
	Meals         []Menu  `json:"meals"`
	TotalCalories float64 `json:"total_calories"`
	TotalCarbG    float64 `json:"total_carb_g"`
	TotalProteinG float64 `json:"total_protein_g"`
	TotalFatG     float64 `json:"total_fat_g"`
	TotalSodiumMg float64 `json:"total_sodium_mg"`
	TotalCost     int     `json:"total_cost"`
}

// Plan is the result of a completed run.
type Plan struct {
	RunID string       `json:"run_id"`
	Days  []DaySummary `json:"days"`
}

// IsValid checks if the Plan meets basic validation requirements
func (p *Plan) IsValid() bool {
	if len(p.Days) == 0 {
		return false
	}
	for _, day := range p.Days {
		if len(day.Meals) == 0 {
			return false
		}
		for _, meal := range day.Meals {
			if meal.MenuName == "" || meal.MealType == "" {
				return false
			}
		}
	}
	return true
}

// Warnings returns every warning attached to a menu in the plan.
func (p *Plan) Warnings() []string {
	var out []string
	for _, day := range p.Days {
		for _, meal := range day.Meals {
			for _, w := range meal.Warnings {
				out = append(out, fmt.Sprintf("day %d %s: %s", day.Day, meal.MealType, w))
			}
		}
	}
	return out
}

// ValidationResult is one rule check outcome.
type ValidationResult struct {
	Validator string   `json:"validator"`
	Passed    bool     `json:"passed"`
	Issues    []string `json:"issues,omitempty"`
	Reason    string   `json:"reason,omitempty"`
}

// Failure is a recorded validation failure used as producer feedback.
type Failure struct {
	Validator  string   `json:"validator"`
	Issues     []string `json:"issues"`
	RetryCount int      `json:"retry_count"`
	MenuName   string   `json:"menu_name"`
}

type NutritionTargets struct {
	Calories     float64 `json:"calories"`
	CarbG        float64 `json:"carb_g"`
	ProteinG     float64 `json:"protein_g"`
	FatG         float64 `json:"fat_g"`
	CarbRatio    int     `json:"carb_ratio"`
	ProteinRatio int     `json:"protein_ratio"`
	FatRatio     int     `json:"fat_ratio"`
}

// PriceQuote is the best known price for an ingredient amount.
type PriceQuote struct {
	Name         string  `json:"name"`
	AmountG      float64 `json:"amount_g"`
	PricePerGram float64 `json:"price_per_gram"`
	TotalPrice   int     `json:"total_price"`
	Source       string  `json:"source"`
}

type RecipeHint struct {
	Name               string   `json:"name"`
	URL                string   `json:"url,omitempty"`
	Ingredients        []string `json:"ingredients,omitempty"`
	CookingTimeMinutes int      `json:"cooking_time"`
	Calories           float64  `json:"calories,omitempty"`
	Difficulty         string   `json:"difficulty,omitempty"`
	MealTypes          []string `json:"meal_types,omitempty"`
	Source             string   `json:"source,omitempty"`
}

type RecipeFilters struct {
	MealType         MealType `json:"meal_type,omitempty"`
	MaxCookingTime   int      `json:"max_cooking_time,omitempty"`
	Difficulty       string   `json:"difficulty,omitempty"`
	Exclude          []string `json:"exclude_ingredients,omitempty"`
	TargetCalories   float64  `json:"target_calories,omitempty"`
	CalorieTolerance float64  `json:"calorie_tolerance,omitempty"`
}
