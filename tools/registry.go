package tools

import (
	"context"
	"fmt"
	"sort"
)

// Registry maps tool names to implementations
type Registry map[string]Tool

// NewRegistry creates a new tool registry backed by the given price and recipe lookups.
func NewRegistry(prices Quoter, recipes Finder) (*Registry, error) {
	if prices == nil || recipes == nil {
		return nil, fmt.Errorf("registry needs both a price lookup and a recipe finder")
	}
	tools := map[string]Tool{
		"ingredient_price": NewIngredientPrice(prices),
		"recipe_search":    NewRecipeSearchTool(recipes),
	}

	registry := Registry(tools)
	return &registry, nil
}

// GetTools returns all tools in the registry sorted by name
func (r *Registry) GetTools() []Tool {
	tools := make([]Tool, 0, len(*r))
	for _, tool := range *r {
		tools = append(tools, tool)
	}
	sort.Slice(tools, func(i, j int) bool { return tools[i].Name() < tools[j].Name() })
	return tools
}

// GetTool retrieves a tool by name from the registry
func (r Registry) GetTool(name string) (Tool, error) {
	tool, exists := r[name]
	if !exists {
		return nil, fmt.Errorf("tool %q not found in registry", name)
	}
	return tool, nil
}

// Run dispatches a call to the named tool.
func (r Registry) Run(ctx context.Context, call Call) (map[string]any, error) {
	tool, err := r.GetTool(call.Name)
	if err != nil {
		return nil, err
	}
	if call.Input == nil {
		call.Input = map[string]any{}
	}
	return tool.Run(ctx, call.Input)
}
