//go:build integration

package internal

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestRedisStore_Integration(t *testing.T) {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		t.Skip("REDIS_URL not set")
	}

	ctx := context.Background()
	store, err := OpenRedisStore(ctx, redisURL, time.Minute)
	if err != nil {
		t.Fatalf("OpenRedisStore() error = %v", err)
	}
	defer store.Close()

	key := "test:" + uuid.NewString()
	if _, ok, err := store.Get(ctx, key); err != nil || ok {
		t.Fatalf("Get() on missing key = ok %v, err %v", ok, err)
	}

	if err := store.Set(ctx, key, "value-1"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	got, ok, err := store.Get(ctx, key)
	if err != nil || !ok || got != "value-1" {
		t.Errorf("Get() = %q, %v, %v; want value-1, true, nil", got, ok, err)
	}

	pairs, err := store.List(ctx, key)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(pairs) != 1 || pairs[0].Key != key || pairs[0].Value != "value-1" {
		t.Errorf("List() = %+v, want the single stored key", pairs)
	}
}
