package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestCacheEntryFreshness(t *testing.T) {
	fetched := time.Now()
	entry := &CacheEntry{ID: uuid.New(), FetchedAt: fetched}
	window := 5 * time.Minute

	if !entry.IsFresh(fetched.Add(time.Minute), window) {
		t.Error("entry inside the window reported stale")
	}
	// The boundary itself is stale: validity is strictly less than the
	// window.
	if entry.IsFresh(fetched.Add(window), window) {
		t.Error("entry exactly at the window reported fresh")
	}
	if entry.IsFresh(fetched.Add(window+time.Second), window) {
		t.Error("entry past the window reported fresh")
	}
}

func TestCacheEntryAge(t *testing.T) {
	fetched := time.Now()
	entry := &CacheEntry{FetchedAt: fetched}

	if got := entry.Age(fetched.Add(90 * time.Second)); got != 90*time.Second {
		t.Errorf("age = %v, want 90s", got)
	}
}

func TestUpdateEventOmitsEmptyError(t *testing.T) {
	event := UpdateEvent{Type: EventReady, State: StateReady, Timestamp: time.Now()}

	payload, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if strings.Contains(string(payload), `"error"`) {
		t.Errorf("payload %s carries an empty error field", payload)
	}

	event.Error = "feed exploded"
	payload, err = json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if !strings.Contains(string(payload), `"error":"feed exploded"`) {
		t.Errorf("payload %s misses the error field", payload)
	}
}
