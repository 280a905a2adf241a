package person

import "testing"

func TestTemplateCache_PutGetRoundTrip(t *testing.T) {
	c := NewTemplateCache(2)
	key := Key("hello {{name}}", map[string]any{"name": "world"})

	if _, ok := c.Get(key); ok {
		t.Fatalf("expected miss before Put")
	}

	c.Put(key, "hello world")

	got, ok := c.Get(key)
	if !ok || got != "hello world" {
		t.Fatalf("expected cached value %q, got %q ok=%v", "hello world", got, ok)
	}
}

func TestTemplateCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := NewTemplateCache(2)

	c.Put("a", "A")
	c.Put("b", "B")
	c.Get("a") // a is now most recently used, b is least
	c.Put("c", "C")

	if _, ok := c.Get("b"); ok {
		t.Fatalf("expected b to be evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Fatalf("expected a to survive eviction")
	}
	if _, ok := c.Get("c"); !ok {
		t.Fatalf("expected c to be present")
	}
	if c.Len() != 2 {
		t.Fatalf("expected len 2, got %d", c.Len())
	}
}

func TestTemplateCache_ZeroCapacityDisablesCaching(t *testing.T) {
	c := NewTemplateCache(0)
	c.Put("k", "v")
	if _, ok := c.Get("k"); ok {
		t.Fatalf("expected zero-capacity cache to never hit")
	}
}

func TestKey_DiffersByVariables(t *testing.T) {
	k1 := Key("hi {{name}}", map[string]any{"name": "a"})
	k2 := Key("hi {{name}}", map[string]any{"name": "b"})
	if k1 == k2 {
		t.Fatalf("expected different variable sets to produce different keys")
	}
}
