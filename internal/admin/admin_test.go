package admin

import (
	"context"
	"testing"

	"github.com/redis/go-redis/v9"
)

// newTestChecker connects to a local Redis and clears test admin sets.
// Tests that call this helper require a running Redis on localhost:6379.
func newTestChecker(t *testing.T) *Checker {
	t.Helper()
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("redis not available: %v", err)
	}
	cleanup := func() {
		iter := client.Scan(ctx, 0, KeyPrefix+"8080*", 100).Iterator()
		for iter.Next(ctx) {
			client.Del(ctx, iter.Val())
		}
	}
	cleanup()
	t.Cleanup(func() {
		cleanup()
		client.Close()
	})
	return NewChecker(client)
}

func TestIsAdmin(t *testing.T) {
	checker := newTestChecker(t)
	ctx := context.Background()

	ok, err := checker.IsAdmin(ctx, 80801, 5)
	if err != nil {
		t.Fatalf("IsAdmin() error: %v", err)
	}
	if ok {
		t.Error("unknown user reported as admin")
	}

	if err := checker.Grant(ctx, 80801, 5); err != nil {
		t.Fatalf("Grant() error: %v", err)
	}
	ok, err = checker.IsAdmin(ctx, 80801, 5)
	if err != nil {
		t.Fatalf("IsAdmin() error: %v", err)
	}
	if !ok {
		t.Error("granted user not reported as admin")
	}

	// Membership is per group.
	ok, err = checker.IsAdmin(ctx, 80802, 5)
	if err != nil {
		t.Fatalf("IsAdmin() error: %v", err)
	}
	if ok {
		t.Error("admin of one group reported as admin of another")
	}

	if err := checker.Revoke(ctx, 80801, 5); err != nil {
		t.Fatalf("Revoke() error: %v", err)
	}
	ok, _ = checker.IsAdmin(ctx, 80801, 5)
	if ok {
		t.Error("revoked user still reported as admin")
	}
}
