package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"mealplanner"
)

// PriceTableState loads the default ingredient price table.
type PriceTableState interface {
	Load(ctx context.Context) ([]byte, error)
}

// RecipeState loads the recipe catalog.
type RecipeState interface {
	Load(ctx context.Context) ([]byte, error)
}

// MenuState loads a configured emergency menu.
type MenuState interface {
	Load(ctx context.Context) ([]byte, error)
}

// PriceEntry is one known ingredient price.
type PriceEntry struct {
	PricePerGram float64 `json:"price_per_gram" yaml:"price_per_gram"`
	SourceURL    string  `json:"source_url,omitempty" yaml:"source_url,omitempty"`
	SearchDate   string  `json:"search_date,omitempty" yaml:"search_date,omitempty"`
}

// PriceTable maps ingredient names to prices.
type PriceTable map[string]PriceEntry

// unmarshal decodes YAML or JSON into v through its JSON tags, so the domain
// types need only one set of tags.
func unmarshal(b []byte, v any) error {
	var doc any
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return err
	}
	if doc == nil {
		return errors.New("empty document")
	}
	j, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return json.Unmarshal(j, v)
}

func LoadPriceTable(ctx context.Context, st PriceTableState) (PriceTable, error) {
	b, err := st.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("read price table: %w", err)
	}
	var table PriceTable
	if err := unmarshal(b, &table); err != nil {
		return nil, fmt.Errorf("parse price table: %w", err)
	}
	return table, nil
}

func LoadRecipes(ctx context.Context, st RecipeState) ([]mealplanner.RecipeHint, error) {
	b, err := st.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("read recipes: %w", err)
	}
	var recipes []mealplanner.RecipeHint
	if err := unmarshal(b, &recipes); err != nil {
		return nil, fmt.Errorf("parse recipes: %w", err)
	}
	return recipes, nil
}

// LoadMenu reads an emergency menu and checks it is complete.
func LoadMenu(ctx context.Context, st MenuState) (*mealplanner.Menu, error) {
	b, err := st.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("read menu: %w", err)
	}
	var menu mealplanner.Menu
	if err := unmarshal(b, &menu); err != nil {
		return nil, fmt.Errorf("parse menu: %w", err)
	}
	if err := menu.Validate(); err != nil {
		return nil, fmt.Errorf("invalid menu: %w", err)
	}
	return &menu, nil
}

// TestState is a simple in-memory implementation for testing
type TestState struct {
	data []byte
	err  error
}

func NewTestState(data []byte) *TestState {
	return &TestState{data: data}
}

func NewTestStateWithError() *TestState {
	return &TestState{err: errors.New("not found")}
}

func (t *TestState) Load(ctx context.Context) ([]byte, error) {
	if t.err != nil {
		return nil, t.err
	}
	return t.data, nil
}
