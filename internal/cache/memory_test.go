package cache

import (
	"fmt"
	"testing"
)

func TestMemoryPutGet(t *testing.T) {
	c := NewMemory(1024)

	c.Put("a", []byte("hello"))
	got, ok := c.Get("a")
	if !ok || string(got) != "hello" {
		t.Fatalf("Get(a) = %q, %v", got, ok)
	}

	if _, ok := c.Get("missing"); ok {
		t.Fatal("Get(missing) should miss")
	}

	stats := c.GetStats()
	if stats.Hits != 1 || stats.Misses != 1 {
		t.Fatalf("stats = %+v, want 1 hit 1 miss", stats)
	}
}

func TestMemoryLRUEviction(t *testing.T) {
	// Room for exactly three 10-byte entries.
	c := NewMemory(30)
	payload := []byte("0123456789")

	c.Put("a", payload)
	c.Put("b", payload)
	c.Put("c", payload)

	// Touch a so b becomes the oldest.
	c.Get("a")

	c.Put("d", payload)

	if _, ok := c.Get("b"); ok {
		t.Fatal("b should have been evicted")
	}
	for _, key := range []string{"a", "c", "d"} {
		if _, ok := c.Get(key); !ok {
			t.Fatalf("%s should still be cached", key)
		}
	}
	if c.Size() != 30 {
		t.Fatalf("size = %d, want 30", c.Size())
	}
}

func TestMemoryUpdateExisting(t *testing.T) {
	c := NewMemory(100)
	c.Put("a", []byte("short"))
	c.Put("a", []byte("a longer replacement"))

	got, ok := c.Get("a")
	if !ok || string(got) != "a longer replacement" {
		t.Fatalf("Get(a) = %q, %v", got, ok)
	}
	if c.Size() != 20 {
		t.Fatalf("size = %d, want 20", c.Size())
	}
	if c.GetStats().ItemCount != 1 {
		t.Fatal("update must not duplicate the entry")
	}
}

func TestMemoryOversizedValueSkipped(t *testing.T) {
	c := NewMemory(10)
	c.Put("big", make([]byte, 11))
	if _, ok := c.Get("big"); ok {
		t.Fatal("value larger than capacity should be skipped")
	}
	if c.Size() != 0 {
		t.Fatalf("size = %d, want 0", c.Size())
	}
}

func TestMemoryDeleteAndClear(t *testing.T) {
	c := NewMemory(1024)
	for i := range 5 {
		c.Put(fmt.Sprintf("k%d", i), []byte("value"))
	}

	c.Delete("k2")
	if _, ok := c.Get("k2"); ok {
		t.Fatal("k2 should be gone")
	}
	if c.GetStats().ItemCount != 4 {
		t.Fatalf("item count = %d, want 4", c.GetStats().ItemCount)
	}

	c.Clear()
	if c.Size() != 0 || c.GetStats().ItemCount != 0 {
		t.Fatal("clear should empty the cache")
	}
}
