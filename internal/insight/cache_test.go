package insight

import (
	"fmt"
	"testing"

	"github.com/insightdb/insightdb/internal/models"
)

func cachedResponse(q string) *models.InsightResponse {
	return &models.InsightResponse{Query: q, SQL: "SELECT 1", Data: []models.Row{}}
}

func TestCacheGetMissesAcrossIntents(t *testing.T) {
	c := NewCache(10)
	c.Put("how many orders", models.IntentDataQuery, cachedResponse("how many orders"))

	if _, ok := c.Get("how many orders", models.IntentDescriptive); ok {
		t.Error("intent key spaces must be separate")
	}
	if _, ok := c.Get("how many orders", models.IntentDataQuery); !ok {
		t.Error("expected hit under the stored intent")
	}
}

func TestCacheLookupProbesAllIntents(t *testing.T) {
	c := NewCache(10)
	c.Put("what tables exist", models.IntentDescriptive, cachedResponse("what tables exist"))

	resp, intent, ok := c.Lookup("what tables exist")
	if !ok {
		t.Fatal("expected lookup hit")
	}
	if intent != models.IntentDescriptive {
		t.Errorf("intent = %q", intent)
	}
	if resp.Query != "what tables exist" {
		t.Errorf("resp.Query = %q", resp.Query)
	}

	if _, _, ok := c.Lookup("unseen question"); ok {
		t.Error("expected lookup miss")
	}
}

func TestCacheExactMatchOnly(t *testing.T) {
	c := NewCache(10)
	c.Put("how many orders", models.IntentDataQuery, cachedResponse("how many orders"))

	if _, _, ok := c.Lookup("How many orders"); ok {
		t.Error("keys are exact question text, case included")
	}
}

func TestCacheEvictsOldestInsertion(t *testing.T) {
	c := NewCache(3)
	for i := 0; i < 3; i++ {
		q := fmt.Sprintf("q%d", i)
		c.Put(q, models.IntentDataQuery, cachedResponse(q))
	}
	c.Put("q3", models.IntentDataQuery, cachedResponse("q3"))

	if c.Len() != 3 {
		t.Fatalf("len = %d, want 3", c.Len())
	}
	if _, ok := c.Get("q0", models.IntentDataQuery); ok {
		t.Error("oldest entry should be evicted")
	}
	if _, ok := c.Get("q3", models.IntentDataQuery); !ok {
		t.Error("newest entry should be present")
	}
}

func TestCacheOverwriteDoesNotEvict(t *testing.T) {
	c := NewCache(2)
	c.Put("a", models.IntentDataQuery, cachedResponse("a"))
	c.Put("b", models.IntentDataQuery, cachedResponse("b"))
	c.Put("a", models.IntentDataQuery, cachedResponse("a2"))

	if c.Len() != 2 {
		t.Errorf("len = %d, want 2", c.Len())
	}
	resp, _ := c.Get("a", models.IntentDataQuery)
	if resp.Query != "a2" {
		t.Errorf("overwrite should win, got %q", resp.Query)
	}
}

func TestCacheZeroBound(t *testing.T) {
	c := NewCache(0)
	for i := 0; i < 50; i++ {
		q := fmt.Sprintf("q%d", i)
		c.Put(q, models.IntentDataQuery, cachedResponse(q))
	}
	if c.Len() != 50 {
		t.Errorf("zero bound disables eviction, len = %d", c.Len())
	}
}
