package mealplanner

import (
	"regexp"
	"strconv"
	"strings"
)

// DefaultIngredientGrams is assumed when an amount has no usable unit.
const DefaultIngredientGrams = 100.0

var amountPattern = regexp.MustCompile(`(?i)([\d.]+)\s*(kg|g|ml|l)\b`)

// ParseGrams converts an ingredient amount such as "150g", "1.5kg" or "200ml"
// into grams. Millilitres count as grams. Anything else is DefaultIngredientGrams.
func ParseGrams(amount string) float64 {
	m := amountPattern.FindStringSubmatch(strings.TrimSpace(amount))
	if m == nil {
		return DefaultIngredientGrams
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil || v <= 0 {
		return DefaultIngredientGrams
	}
	switch strings.ToLower(m[2]) {
	case "kg", "l":
		return v * 1000
	default:
		return v
	}
}
