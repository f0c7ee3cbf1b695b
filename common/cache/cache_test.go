package cache

import (
	"context"
	"testing"
	"time"

	"github.com/inkwell/studio/common/logger"
)

func newTestCache(t *testing.T) *MemoryCache {
	t.Helper()
	c := NewMemoryCache(logger.New("error", "json"))
	t.Cleanup(func() {
		if err := c.Close(); err != nil {
			t.Errorf("Close failed: %v", err)
		}
	})
	return c
}

func TestMemoryCache_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t)

	if err := c.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	value, found, err := c.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !found {
		t.Fatal("expected key to be found")
	}
	if string(value) != "v" {
		t.Errorf("expected %q, got %q", "v", value)
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, found, _ := c.Get(ctx, "k"); found {
		t.Error("deleted key still found")
	}
}

func TestMemoryCache_ExpiredEntryNotServed(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t)

	// Negative TTL makes the entry already expired
	if err := c.Set(ctx, "k", []byte("v"), -time.Second); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if _, found, _ := c.Get(ctx, "k"); found {
		t.Error("expired entry served")
	}
}

func TestMemoryCache_CloseIsIdempotent(t *testing.T) {
	c := NewMemoryCache(logger.New("error", "json"))

	if err := c.Close(); err != nil {
		t.Fatalf("first Close failed: %v", err)
	}
	// A second Close must not panic or close the done channel twice
	if err := c.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}
}

func TestMemoryCache_UsableStateAfterClose(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(logger.New("error", "json"))

	if err := c.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if _, found, _ := c.Get(ctx, "k"); found {
		t.Error("closed cache still serves entries")
	}
	if err := c.Set(ctx, "k2", []byte("v2"), time.Minute); err != nil {
		t.Errorf("Set after Close should be a no-op, got %v", err)
	}
}
