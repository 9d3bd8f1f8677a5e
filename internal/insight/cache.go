package insight

import (
	"sync"

	"github.com/insightdb/insightdb/internal/models"
)

// lookupOrder fixes the probe order for Lookup across intent key spaces.
var lookupOrder = []models.Intent{
	models.IntentDataQuery,
	models.IntentDescriptive,
	models.IntentDestructive,
}

// Cache memoizes full responses keyed by exact question text and intent
// category. Entries live for the process lifetime, bounded by maxEntries
// with oldest-insertion eviction. Concurrent writers race with
// last-writer-wins semantics, which is accepted: duplicate upstream work
// is wasted, not incorrect.
type Cache struct {
	mu         sync.RWMutex
	entries    map[string]*models.InsightResponse
	order      []string
	maxEntries int
}

func NewCache(maxEntries int) *Cache {
	return &Cache{
		entries:    make(map[string]*models.InsightResponse),
		maxEntries: maxEntries,
	}
}

func cacheKey(question string, intent models.Intent) string {
	return string(intent) + "\x00" + question
}

// Get returns the entry for the exact question under the given intent.
func (c *Cache) Get(question string, intent models.Intent) (*models.InsightResponse, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	resp, ok := c.entries[cacheKey(question, intent)]
	return resp, ok
}

// Lookup probes every intent key space in fixed order. It lets a
// repeated identical question short-circuit before any classification
// call while keeping the key spaces separate: a question that later
// classifies differently lands in its own space and is never confused
// with this one.
func (c *Cache) Lookup(question string) (*models.InsightResponse, models.Intent, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, intent := range lookupOrder {
		if resp, ok := c.entries[cacheKey(question, intent)]; ok {
			return resp, intent, true
		}
	}
	return nil, "", false
}

// Put stores the response, evicting the oldest insertion once the bound
// is reached. A zero or negative bound disables eviction.
func (c *Cache) Put(question string, intent models.Intent, resp *models.InsightResponse) {
	key := cacheKey(question, intent)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists {
		if c.maxEntries > 0 && len(c.entries) >= c.maxEntries {
			oldest := c.order[0]
			c.order = c.order[1:]
			delete(c.entries, oldest)
		}
		c.order = append(c.order, key)
	}
	c.entries[key] = resp
}

// Len reports the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
