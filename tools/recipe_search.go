package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"

	"mealplanner"
)

type RecipeSearchTool struct{ recipes Finder }

func NewRecipeSearchTool(recipes Finder) *RecipeSearchTool {
	return &RecipeSearchTool{recipes: recipes}
}

func (t *RecipeSearchTool) Name() string  { return "recipe_search" }
func (t *RecipeSearchTool) Title() string { return "Search Recipes" }
func (t *RecipeSearchTool) Description() string {
	return "Searches recipes by keyword, filtered by meal type, cooking time, difficulty, calories and excluded ingredients (all optional)."
}

func (t *RecipeSearchTool) InputSchema() *jsonschema.Schema {
	zero := 0.0
	one := 1.0
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"query": {Type: "string"},
			"meal_type": {
				Type: "string",
				Enum: []any{"breakfast", "lunch", "dinner", "snack"},
			},
			"max_cooking_time": {Type: "integer", Minimum: &zero},
			"difficulty": {
				Type: "string",
				Enum: []any{"easy", "medium", "hard"},
			},
			"exclude_ingredients": {
				Type:  "array",
				Items: &jsonschema.Schema{Type: "string"},
			},
			"target_calories":   {Type: "number", Minimum: &zero},
			"calorie_tolerance": {Type: "number", Minimum: &zero, Maximum: &one},
		},
	}
}

func (t *RecipeSearchTool) OutputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"recipes": {
				Type: "array",
				Items: &jsonschema.Schema{
					Type: "object",
					Properties: map[string]*jsonschema.Schema{
						"name":         {Type: "string"},
						"url":          {Type: "string"},
						"ingredients":  {Type: "array", Items: &jsonschema.Schema{Type: "string"}},
						"cooking_time": {Type: "integer"},
						"calories":     {Type: "number"},
						"source":       {Type: "string"},
					},
					Required: []string{"name"},
				},
			},
		},
		Required: []string{"recipes"},
	}
}

func (t *RecipeSearchTool) Run(ctx context.Context, input map[string]any) (map[string]any, error) {
	query, err := mealplanner.Sanitize(stringInput(input, "query"), "query")
	if err != nil {
		return nil, err
	}
	exclude, err := mealplanner.SanitizeList(stringsInput(input, "exclude_ingredients"), "exclude_ingredients")
	if err != nil {
		return nil, err
	}
	filters := mealplanner.RecipeFilters{
		MealType:         mealplanner.MealType(stringInput(input, "meal_type")),
		MaxCookingTime:   int(numberInput(input, "max_cooking_time")),
		Difficulty:       stringInput(input, "difficulty"),
		Exclude:          exclude,
		TargetCalories:   numberInput(input, "target_calories"),
		CalorieTolerance: numberInput(input, "calorie_tolerance"),
	}

	recipes := t.recipes.Search(ctx, query, filters)
	if recipes == nil {
		recipes = make([]mealplanner.RecipeHint, 0)
	}
	return toMap(struct {
		Recipes []mealplanner.RecipeHint `json:"recipes"`
	}{recipes})
}
