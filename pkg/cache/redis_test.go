package cache

import (
	"context"
	"os"
	"testing"
	"time"
)

// TestRedisCache runs against a real server when REDIS_URL is set.
func TestRedisCache(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" || testing.Short() {
		t.Skip("REDIS_URL not set")
	}

	ctx := context.Background()
	c, err := NewRedisCache(ctx, url)
	if err != nil {
		t.Fatalf("NewRedisCache: %v", err)
	}
	defer c.Close()

	key := "cratedeps:test:" + time.Now().Format(time.RFC3339Nano)
	defer c.Delete(ctx, key)

	if _, hit, err := c.Get(ctx, key); err != nil || hit {
		t.Fatalf("Get before Set = hit %v, err %v", hit, err)
	}
	if err := c.Set(ctx, key, []byte("value"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, hit, err := c.Get(ctx, key)
	if err != nil || !hit || string(data) != "value" {
		t.Fatalf("Get after Set = %q, hit %v, err %v", data, hit, err)
	}
}

func TestNewRedisCacheInvalidURL(t *testing.T) {
	if _, err := NewRedisCache(context.Background(), "not a url"); err == nil {
		t.Error("expected error for invalid redis url")
	}
}
