package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"

	"mealplanner"
)

type IngredientPrice struct{ prices Quoter }

func NewIngredientPrice(prices Quoter) *IngredientPrice { return &IngredientPrice{prices: prices} }

func (t *IngredientPrice) Name() string  { return "ingredient_price" }
func (t *IngredientPrice) Title() string { return "Ingredient Price" }
func (t *IngredientPrice) Description() string {
	return "Quotes the price of an ingredient amount such as 150g or 1.5kg. Amounts without a unit count as 100g."
}

func (t *IngredientPrice) InputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"name":   {Type: "string"},
			"amount": {Type: "string"},
		},
		Required: []string{"name"},
	}
}

func (t *IngredientPrice) OutputSchema() *jsonschema.Schema {
	zero := 0.0
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"name":           {Type: "string"},
			"amount_g":       {Type: "number", Minimum: &zero},
			"price_per_gram": {Type: "number", Minimum: &zero},
			"total_price":    {Type: "integer", Minimum: &zero},
			"source": {
				Type: "string",
				Enum: []any{PriceSourceCache, PriceSourceWeb, PriceSourceDefault, PriceSourceFallback},
			},
		},
		Required: []string{"name", "amount_g", "price_per_gram", "total_price", "source"},
	}
}

func (t *IngredientPrice) Run(ctx context.Context, input map[string]any) (map[string]any, error) {
	name := strings.TrimSpace(stringInput(input, "name"))
	if name == "" {
		return nil, fmt.Errorf("name is required")
	}
	name, err := mealplanner.Sanitize(name, "name")
	if err != nil {
		return nil, err
	}
	grams := mealplanner.ParseGrams(stringInput(input, "amount"))
	return toMap(t.prices.Quote(ctx, name, grams))
}
