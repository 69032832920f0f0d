package tools

import (
	"context"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"mealplanner"
	"mealplanner/tools/storage"
)

// FallbackPricePerGram is used when no source knows an ingredient.
const FallbackPricePerGram = 0.02

const (
	PriceSourceCache    = "cache"
	PriceSourceWeb      = "web"
	PriceSourceDefault  = "default"
	PriceSourceFallback = "fallback"
)

const priceSearchResults = 3

var (
	perGramsPattern = regexp.MustCompile(`(\d+)\s*g당?\s*(\d[\d,]*)\s*(?:원|won)`)
	perKiloPattern  = regexp.MustCompile(`(\d+)\s*kg\s*(\d[\d,]*)\s*(?:원|won)`)
)

// PriceLookup quotes ingredient prices from the daily cache, the web, the
// default table and finally a flat rate, in that order.
type PriceLookup struct {
	cache *storage.PriceCache
	web   *WebSearch
	table storage.PriceTableState

	once     sync.Once
	defaults storage.PriceTable
	now      func() time.Time
}

type PriceLookupOpts struct {
	Cache *storage.PriceCache
	Web   *WebSearch
	Table storage.PriceTableState
}

func NewPriceLookup(opts PriceLookupOpts) *PriceLookup {
	return &PriceLookup{
		cache: opts.Cache,
		web:   opts.Web,
		table: opts.Table,
		now:   time.Now,
	}
}

// Quote never fails. Every source is optional.
func (p *PriceLookup) Quote(ctx context.Context, name string, grams float64) mealplanner.PriceQuote {
	key := normalizeIngredient(name)

	if p.cache != nil {
		if entry, ok := p.cache.Get(key); ok {
			return quote(name, grams, entry.PricePerGram, PriceSourceCache)
		}
	}

	if p.web.Enabled() {
		entry, err := p.searchPrice(ctx, name)
		if err == nil {
			if p.cache != nil {
				if err := p.cache.Put(key, entry); err != nil {
					slog.Warn("PRICING: Failed to cache price", "ingredient", name, "error", err)
				}
			}
			return quote(name, grams, entry.PricePerGram, PriceSourceWeb)
		}
		slog.Warn("PRICING: Web lookup failed", "ingredient", name, "error", err)
	}

	if entry, ok := p.defaultPrice(ctx, key); ok {
		return quote(name, grams, entry.PricePerGram, PriceSourceDefault)
	}

	slog.Warn("PRICING: Using fallback price", "ingredient", name, "price_per_gram", FallbackPricePerGram)
	return quote(name, grams, FallbackPricePerGram, PriceSourceFallback)
}

func (p *PriceLookup) searchPrice(ctx context.Context, name string) (storage.PriceEntry, error) {
	results, err := p.web.Search(ctx, name+" 가격 그램당 100g 마트", priceSearchResults)
	if err != nil {
		return storage.PriceEntry{}, err
	}
	for _, r := range results {
		if ppg, ok := ExtractPricePerGram(r.Content); ok {
			slog.Info("PRICING: Price found", "ingredient", name, "price_per_gram", ppg, "url", r.URL)
			return storage.PriceEntry{
				PricePerGram: ppg,
				SourceURL:    r.URL,
				SearchDate:   p.now().Format(time.DateOnly),
			}, nil
		}
	}
	return storage.PriceEntry{}, errNoPrice
}

// defaultPrice loads the table on first use. A table that fails to load is
// treated as empty for the lifetime of the lookup.
func (p *PriceLookup) defaultPrice(ctx context.Context, key string) (storage.PriceEntry, bool) {
	if p.table == nil {
		return storage.PriceEntry{}, false
	}
	p.once.Do(func() {
		table, err := storage.LoadPriceTable(ctx, p.table)
		if err != nil {
			slog.Warn("PRICING: Default price table unavailable", "error", err)
			return
		}
		p.defaults = make(storage.PriceTable, len(table))
		for k, v := range table {
			p.defaults[normalizeIngredient(k)] = v
		}
		slog.Info("PRICING: Default price table loaded", "entries", len(table))
	})
	entry, ok := p.defaults[key]
	if !ok || entry.PricePerGram <= 0 {
		return storage.PriceEntry{}, false
	}
	return entry, true
}

// ExtractPricePerGram finds a price such as "100g당 3,500원" or "1kg 35,000원"
// in free text.
func ExtractPricePerGram(content string) (float64, bool) {
	if m := perGramsPattern.FindStringSubmatch(content); m != nil {
		if ppg, ok := ratio(m[2], m[1], 1); ok {
			return ppg, true
		}
	}
	if m := perKiloPattern.FindStringSubmatch(content); m != nil {
		if ppg, ok := ratio(m[2], m[1], 1000); ok {
			return ppg, true
		}
	}
	return 0, false
}

func ratio(price, amount string, unit float64) (float64, bool) {
	p, err := strconv.ParseFloat(strings.ReplaceAll(price, ",", ""), 64)
	if err != nil || p <= 0 {
		return 0, false
	}
	a, err := strconv.ParseFloat(amount, 64)
	if err != nil || a <= 0 {
		return 0, false
	}
	return p / (a * unit), true
}

func quote(name string, grams, ppg float64, source string) mealplanner.PriceQuote {
	return mealplanner.PriceQuote{
		Name:         name,
		AmountG:      grams,
		PricePerGram: ppg,
		TotalPrice:   int(grams * ppg),
		Source:       source,
	}
}

func normalizeIngredient(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
