package history

import (
	"testing"
	"time"
)

func TestCacheSetGet(t *testing.T) {
	c := newTTLCache(time.Minute)

	c.set("conv", []Message{{ID: "1", Content: "a"}})
	msgs, ok := c.get("conv")
	if !ok || len(msgs) != 1 || msgs[0].Content != "a" {
		t.Fatalf("expected cached messages, got %v %v", msgs, ok)
	}
}

func TestCacheMiss(t *testing.T) {
	c := newTTLCache(time.Minute)
	if _, ok := c.get("missing"); ok {
		t.Fatal("expected miss")
	}
}

func TestCacheExpiry(t *testing.T) {
	c := newTTLCache(10 * time.Millisecond)

	c.set("conv", []Message{{ID: "1"}})
	time.Sleep(25 * time.Millisecond)

	if _, ok := c.get("conv"); ok {
		t.Fatal("expected expired entry")
	}
}

func TestCacheAppendToLiveEntry(t *testing.T) {
	c := newTTLCache(time.Minute)

	c.set("conv", []Message{{ID: "1"}})
	c.append("conv", Message{ID: "2"})

	msgs, ok := c.get("conv")
	if !ok || len(msgs) != 2 || msgs[1].ID != "2" {
		t.Fatalf("expected appended entry, got %v", msgs)
	}
}

func TestCacheAppendWithoutEntry(t *testing.T) {
	c := newTTLCache(time.Minute)

	// No cached log yet: append is a no-op, next read must repopulate.
	c.append("conv", Message{ID: "1"})
	if _, ok := c.get("conv"); ok {
		t.Fatal("append must not create a partial entry")
	}
}

func TestCacheReturnsCopy(t *testing.T) {
	c := newTTLCache(time.Minute)

	c.set("conv", []Message{{ID: "1", Content: "orig"}})
	msgs, _ := c.get("conv")
	msgs[0].Content = "mutated"

	again, _ := c.get("conv")
	if again[0].Content != "orig" {
		t.Fatal("cache entry was mutated through a returned slice")
	}
}

func TestCacheDisabled(t *testing.T) {
	c := newTTLCache(0)

	c.set("conv", []Message{{ID: "1"}})
	if _, ok := c.get("conv"); ok {
		t.Fatal("zero TTL must disable the cache")
	}
}
