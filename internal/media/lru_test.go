package media

import "testing"

func TestLRU_PutThenBorrowHits(t *testing.T) {
	c := NewLRU(2)
	c.Put("a", []byte("1"))
	b, ok := c.Borrow("a")
	if !ok || string(b) != "1" {
		t.Fatalf("expected hit with 1, got %v %v", b, ok)
	}
	c.Release("a")
}

func TestLRU_EvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRU(2)
	c.Put("a", []byte("1"))
	c.Put("b", []byte("2"))
	c.Borrow("a")
	c.Release("a")
	c.Put("c", []byte("3"))

	if _, ok := c.Borrow("b"); ok {
		t.Fatal("expected b to be evicted as least recently used")
	}
	if _, ok := c.Borrow("a"); !ok {
		t.Fatal("expected a to survive (most recently used)")
	}
	if _, ok := c.Borrow("c"); !ok {
		t.Fatal("expected c to survive (just inserted)")
	}
}

func TestLRU_DoesNotEvictBorrowedEntry(t *testing.T) {
	c := NewLRU(1)
	c.Put("a", []byte("1"))
	c.Borrow("a") // refs=1, not released

	c.Put("b", []byte("2"))

	if _, ok := c.Borrow("a"); !ok {
		t.Fatal("expected borrowed entry a to survive eviction pressure")
	}
	if c.Len() < 2 {
		t.Fatalf("expected cache to grow past capacity rather than evict a live borrow, len=%d", c.Len())
	}
}

func TestLRU_InvalidateRemovesRegardlessOfRefs(t *testing.T) {
	c := NewLRU(2)
	c.Put("a", []byte("1"))
	c.Borrow("a")
	c.Invalidate("a")
	if _, ok := c.Borrow("a"); ok {
		t.Fatal("expected a to be gone after Invalidate")
	}
}
