package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// PriceCache keeps looked up prices in one JSON file per day.
type PriceCache struct {
	dir  string
	days int
	mu   sync.Mutex
	now  func() time.Time
}

// NewPriceCache returns a cache that reads entries written in the last days
// days, today included.
func NewPriceCache(dir string, days int) *PriceCache {
	if days < 1 {
		days = 1
	}
	return &PriceCache{dir: dir, days: days, now: time.Now}
}

func (c *PriceCache) fileFor(day time.Time) string {
	return filepath.Join(c.dir, fmt.Sprintf("prices_%s.json", day.Format(time.DateOnly)))
}

func (c *PriceCache) read(path string) (PriceTable, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var table PriceTable
	if err := json.Unmarshal(b, &table); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return table, nil
}

// Get returns the newest cached entry for name.
func (c *PriceCache) Get(name string) (PriceEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	today := c.now()
	for i := range c.days {
		table, err := c.read(c.fileFor(today.AddDate(0, 0, -i)))
		if err != nil {
			continue
		}
		if e, ok := table[name]; ok {
			return e, true
		}
	}
	return PriceEntry{}, false
}

// Put records entry under today's file.
func (c *PriceCache) Put(name string, entry PriceEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("create price cache dir: %w", err)
	}

	path := c.fileFor(c.now())
	table, err := c.read(path)
	if err != nil {
		// A missing or corrupt file starts over.
		table = PriceTable{}
	}
	table[name] = entry

	b, err := json.MarshalIndent(table, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
