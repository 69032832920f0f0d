package mock

import "mealplanner"

type dish struct {
	name        string
	ingredients []mealplanner.Ingredient
	steps       []string
	minutes     int
}

// dishes is the rotation the mock oracle serves from.
var dishes = []dish{
	{
		name:        "Tofu rice bowl",
		ingredients: []mealplanner.Ingredient{{Name: "tofu", Amount: "150g"}, {Name: "rice", Amount: "200g"}, {Name: "spinach", Amount: "50g"}},
		steps:       []string{"Cook the rice.", "Pan fry the tofu until golden.", "Blanch the spinach and serve everything in a bowl."},
		minutes:     20,
	},
	{
		name:        "Chicken breast salad",
		ingredients: []mealplanner.Ingredient{{Name: "chicken breast", Amount: "150g"}, {Name: "lettuce", Amount: "100g"}, {Name: "cherry tomato", Amount: "80g"}},
		steps:       []string{"Grill the chicken breast.", "Slice and toss with the vegetables."},
		minutes:     15,
	},
	{
		name:        "Salmon with sweet potato",
		ingredients: []mealplanner.Ingredient{{Name: "salmon", Amount: "120g"}, {Name: "sweet potato", Amount: "200g"}, {Name: "broccoli", Amount: "80g"}},
		steps:       []string{"Roast the sweet potato.", "Sear the salmon.", "Steam the broccoli and plate."},
		minutes:     25,
	},
	{
		name:        "Oatmeal with banana",
		ingredients: []mealplanner.Ingredient{{Name: "oats", Amount: "80g"}, {Name: "milk", Amount: "200ml"}, {Name: "banana", Amount: "100g"}},
		steps:       []string{"Simmer the oats in milk.", "Top with sliced banana."},
		minutes:     10,
	},
	{
		name:        "Beef bulgogi",
		ingredients: []mealplanner.Ingredient{{Name: "beef", Amount: "150g"}, {Name: "onion", Amount: "50g"}, {Name: "rice", Amount: "180g"}},
		steps:       []string{"Marinate the beef with soy sauce and garlic.", "Stir fry with onion.", "Serve over rice."},
		minutes:     25,
	},
	{
		name:        "Egg fried rice",
		ingredients: []mealplanner.Ingredient{{Name: "egg", Amount: "100g"}, {Name: "rice", Amount: "200g"}, {Name: "green onion", Amount: "20g"}},
		steps:       []string{"Scramble the eggs.", "Fry the rice and fold in the eggs and green onion."},
		minutes:     15,
	},
}
