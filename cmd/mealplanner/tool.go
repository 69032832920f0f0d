package main

import (
	"encoding/json"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"mealplanner/tools"
)

func newToolCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tool",
		Short: "Inspect or run the lookup tools",
	}
	cmd.AddCommand(newToolListCmd(), newToolRunCmd())
	return cmd
}

func newRegistry() (*tools.Registry, error) {
	cfg, err := loadPlannerConfig()
	if err != nil {
		return nil, err
	}
	prices, recipes := newLookups(cfg)
	return tools.NewRegistry(prices, recipes)
}

func newToolListCmd() *cobra.Command {
	var schemas bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List available tools",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := newRegistry()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, t := range registry.GetTools() {
				fmt.Fprintf(out, "%s  %s\n    %s\n", color.CyanString(t.Name()), t.Title(), t.Description())
				if schemas {
					b, err := json.MarshalIndent(t.InputSchema(), "    ", "  ")
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "    input: %s\n", b)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&schemas, "schemas", false, "print input schemas")
	return cmd
}

func newToolRunCmd() *cobra.Command {
	var input string
	cmd := &cobra.Command{
		Use:   "run <tool>",
		Short: "Run a tool with a JSON input",
		Long: `Run a tool with a JSON input and print its JSON output.

Examples:
  mealplanner tool run ingredient_price --input '{"name": "tofu", "amount": "150g"}'
  mealplanner tool run recipe_search --input '{"query": "lunch", "max_cooking_time": 20}'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := newRegistry()
			if err != nil {
				return err
			}
			call := tools.Call{Name: args[0], Input: map[string]any{}}
			if input != "" {
				if err := json.Unmarshal([]byte(input), &call.Input); err != nil {
					return fmt.Errorf("parse input: %w", err)
				}
			}
			result, err := registry.Run(cmd.Context(), call)
			if err != nil {
				return err
			}
			b, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(b))
			return nil
		},
	}
	cmd.Flags().StringVar(&input, "input", "", "tool input as a JSON object")
	return cmd
}
