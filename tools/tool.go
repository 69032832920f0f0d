package tools

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"

	"mealplanner"
)

type Tool interface {
	Name() string
	Title() string
	Description() string
	InputSchema() *jsonschema.Schema
	OutputSchema() *jsonschema.Schema
	Run(ctx context.Context, input map[string]any) (output map[string]any, err error)
}

type Call struct {
	Name      string         `json:"name"`
	Input     map[string]any `json:"input"`
	ToolUseID string         `json:"tool_use_id,omitempty"`
}

// Quoter is satisfied by PriceLookup.
type Quoter interface {
	Quote(ctx context.Context, name string, grams float64) mealplanner.PriceQuote
}

// Finder is satisfied by RecipeSearch.
type Finder interface {
	Search(ctx context.Context, query string, filters mealplanner.RecipeFilters) []mealplanner.RecipeHint
}

// toMap keeps tool outputs uniform.
func toMap(v any) (map[string]any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func stringInput(input map[string]any, key string) string {
	s, _ := input[key].(string)
	return s
}

// numberInput accepts JSON numbers and numeric strings.
func numberInput(input map[string]any, key string) float64 {
	switch v := input[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case string:
		var f float64
		if err := json.Unmarshal([]byte(v), &f); err == nil {
			return f
		}
	}
	return 0
}

func stringsInput(input map[string]any, key string) []string {
	var out []string
	switch v := input[key].(type) {
	case []any:
		for _, item := range v {
			if s, _ := item.(string); s != "" {
				out = append(out, s)
			}
		}
	case []string:
		out = append(out, v...)
	}
	return out
}
