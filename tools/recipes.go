package tools

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"mealplanner"
	"mealplanner/tools/storage"
)

const (
	DefaultRecipeCacheTTL    = 300 * time.Second
	DefaultRecipeSearchLimit = 5
	defaultCalorieTolerance  = 0.3
	maxWebRecipeName         = 30
)

var recipeDomains = []string{"10000recipe.com", "wtable.co.kr", "haemukja.com"}

// difficultyAllowed lists the catalog difficulties each requested level can handle.
var difficultyAllowed = map[string][]string{
	"easy":   {"", "easy"},
	"medium": {"", "easy", "medium"},
}

type cachedRecipes struct {
	hints   []mealplanner.RecipeHint
	expires time.Time
}

// RecipeSearch finds recipe hints from a TTL cache, the web, and the local
// catalog, in that order.
type RecipeSearch struct {
	web     *WebSearch
	catalog storage.RecipeState
	ttl     time.Duration
	limit   int

	mu    sync.Mutex
	cache map[string]cachedRecipes

	once    sync.Once
	recipes []mealplanner.RecipeHint
	now     func() time.Time
}

type RecipeSearchOpts struct {
	Web     *WebSearch
	Catalog storage.RecipeState
	TTL     time.Duration
	Limit   int
}

func NewRecipeSearch(opts RecipeSearchOpts) *RecipeSearch {
	if opts.TTL <= 0 {
		opts.TTL = DefaultRecipeCacheTTL
	}
	if opts.Limit <= 0 {
		opts.Limit = DefaultRecipeSearchLimit
	}
	return &RecipeSearch{
		web:     opts.Web,
		catalog: opts.Catalog,
		ttl:     opts.TTL,
		limit:   opts.Limit,
		cache:   make(map[string]cachedRecipes),
		now:     time.Now,
	}
}

// Search never fails; no match is an empty result.
func (s *RecipeSearch) Search(ctx context.Context, query string, filters mealplanner.RecipeFilters) []mealplanner.RecipeHint {
	key := s.cacheKey(query, filters)
	if hints, ok := s.cached(key); ok {
		slog.Info("RECIPES: Cache hit", "query", query, "count", len(hints))
		return hints
	}

	if s.web.Enabled() {
		hints, err := s.searchWeb(ctx, query, filters)
		switch {
		case err != nil:
			slog.Warn("RECIPES: Web search failed", "query", query, "error", err)
		case len(hints) > 0:
			slog.Info("RECIPES: Web results", "query", query, "count", len(hints))
			s.store(key, hints)
			return hints
		}
	}

	hints := s.searchCatalog(ctx, query, filters)
	if len(hints) == 0 {
		slog.Warn("RECIPES: No results", "query", query)
	}
	s.store(key, hints)
	return hints
}

func (s *RecipeSearch) cacheKey(query string, filters mealplanner.RecipeFilters) string {
	b, _ := json.Marshal(struct {
		Query   string                    `json:"query"`
		Filters mealplanner.RecipeFilters `json:"filters"`
		Limit   int                       `json:"limit"`
	}{query, filters, s.limit})
	return string(b)
}

func (s *RecipeSearch) cached(key string) ([]mealplanner.RecipeHint, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.cache[key]
	if !ok {
		return nil, false
	}
	if !s.now().Before(entry.expires) {
		delete(s.cache, key)
		return nil, false
	}
	return slices.Clone(entry.hints), true
}

func (s *RecipeSearch) store(key string, hints []mealplanner.RecipeHint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache[key] = cachedRecipes{hints: slices.Clone(hints), expires: s.now().Add(s.ttl)}
}

func (s *RecipeSearch) searchWeb(ctx context.Context, query string, filters mealplanner.RecipeFilters) ([]mealplanner.RecipeHint, error) {
	results, err := s.web.Search(ctx, "한국 레시피 "+query, s.limit*2, recipeDomains...)
	if err != nil {
		return nil, err
	}
	hints := make([]mealplanner.RecipeHint, 0, s.limit)
	for _, r := range results {
		if r.Title == "" || mentionsAny(r.Title, filters.Exclude) {
			continue
		}
		hints = append(hints, mealplanner.RecipeHint{
			Name:   webRecipeName(r.Title),
			URL:    r.URL,
			Source: "web",
		})
		if len(hints) == s.limit {
			break
		}
	}
	return hints, nil
}

// webRecipeName takes the part of a page title before the site suffix.
func webRecipeName(title string) string {
	if name, _, ok := strings.Cut(title, " - "); ok && strings.TrimSpace(name) != "" {
		return strings.TrimSpace(name)
	}
	r := []rune(strings.TrimSpace(title))
	if len(r) > maxWebRecipeName {
		r = r[:maxWebRecipeName]
	}
	return string(r)
}

func (s *RecipeSearch) loadCatalog(ctx context.Context) []mealplanner.RecipeHint {
	if s.catalog == nil {
		return nil
	}
	s.once.Do(func() {
		recipes, err := storage.LoadRecipes(ctx, s.catalog)
		if err != nil {
			slog.Warn("RECIPES: Catalog unavailable", "error", err)
			return
		}
		s.recipes = recipes
		slog.Info("RECIPES: Catalog loaded", "recipes", len(recipes))
	})
	return s.recipes
}

func (s *RecipeSearch) searchCatalog(ctx context.Context, query string, filters mealplanner.RecipeFilters) []mealplanner.RecipeHint {
	keywords := strings.Fields(strings.ToLower(query))

	type scored struct {
		hint      mealplanner.RecipeHint
		relevance int
		distance  float64
	}
	var matches []scored
	for _, r := range s.loadCatalog(ctx) {
		if !MatchesFilters(r, filters) {
			continue
		}
		r.Source = "catalog"
		matches = append(matches, scored{
			hint:      r,
			relevance: relevance(r, keywords),
			distance:  math.Abs(r.Calories - filters.TargetCalories),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].relevance != matches[j].relevance {
			return matches[i].relevance > matches[j].relevance
		}
		return matches[i].distance < matches[j].distance
	})

	out := make([]mealplanner.RecipeHint, 0, min(len(matches), s.limit))
	for _, m := range matches {
		if len(out) == s.limit {
			break
		}
		out = append(out, m.hint)
	}
	return out
}

// MatchesFilters reports whether a catalog recipe satisfies every set filter.
// Unknown recipe fields (zero time or calories, no meal types) do not exclude it.
func MatchesFilters(r mealplanner.RecipeHint, f mealplanner.RecipeFilters) bool {
	if f.MealType != "" && len(r.MealTypes) > 0 && !slices.Contains(r.MealTypes, string(f.MealType)) {
		return false
	}
	if f.MaxCookingTime > 0 && r.CookingTimeMinutes > f.MaxCookingTime {
		return false
	}
	if allowed, ok := difficultyAllowed[f.Difficulty]; ok && !slices.Contains(allowed, strings.ToLower(r.Difficulty)) {
		return false
	}
	if f.TargetCalories > 0 && r.Calories > 0 {
		tol := f.CalorieTolerance
		if tol <= 0 {
			tol = defaultCalorieTolerance
		}
		if r.Calories < f.TargetCalories*(1-tol) || r.Calories > f.TargetCalories*(1+tol) {
			return false
		}
	}
	if mentionsAny(r.Name, f.Exclude) {
		return false
	}
	for _, ing := range r.Ingredients {
		if mentionsAny(ing, f.Exclude) {
			return false
		}
	}
	return true
}

func relevance(r mealplanner.RecipeHint, keywords []string) int {
	n := 0
	name := strings.ToLower(r.Name)
	for _, k := range keywords {
		switch {
		case strings.Contains(name, k):
			n++
		case slices.Contains(r.MealTypes, k):
			n++
		case slices.ContainsFunc(r.Ingredients, func(ing string) bool { return strings.Contains(strings.ToLower(ing), k) }):
			n++
		}
	}
	return n
}

func mentionsAny(s string, terms []string) bool {
	s = strings.ToLower(s)
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" && strings.Contains(s, t) {
			return true
		}
	}
	return false
}
