package clientcache

import (
	"testing"

	"github.com/authcore-dev/authd/internal/store"
)

func TestCache_SetGetEvict(t *testing.T) {
	c := New()

	if _, ok := c.Get("cli_1"); ok {
		t.Fatal("expected miss on empty cache")
	}

	c.Set(store.Client{ID: "cli_1", Version: 1})
	got, ok := c.Get("cli_1")
	if !ok {
		t.Fatal("expected hit after Set")
	}
	if got.Version != 1 {
		t.Fatalf("expected version 1, got %d", got.Version)
	}

	c.Evict("cli_1")
	if _, ok := c.Get("cli_1"); ok {
		t.Fatal("expected miss after Evict")
	}
}

func TestCache_EvictUnknownIsNoop(t *testing.T) {
	c := New()
	c.Evict("cli_never_seen") // must not panic
}
