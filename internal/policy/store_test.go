package policy

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/redis/go-redis/v9"
)

// countingPersister wraps MemoryPersister and counts Save calls, so tests can
// assert that the defaults pass persists only when something changed.
type countingPersister struct {
	*MemoryPersister
	mu    sync.Mutex
	saves int
}

func newCountingPersister() *countingPersister {
	return &countingPersister{MemoryPersister: NewMemoryPersister()}
}

func (c *countingPersister) Save(ctx context.Context, groupID int64, data []byte) error {
	c.mu.Lock()
	c.saves++
	c.mu.Unlock()
	return c.MemoryPersister.Save(ctx, groupID, data)
}

func (c *countingPersister) saveCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.saves
}

func TestEnsureDefaults_PersistsOnlyOnce(t *testing.T) {
	p := newCountingPersister()
	store := NewStore(p)
	ctx := context.Background()

	doc, err := store.EnsureDefaults(ctx, 100)
	if err != nil {
		t.Fatalf("EnsureDefaults() error: %v", err)
	}
	if doc != DefaultDocument() {
		t.Errorf("fresh group did not yield defaults: %+v", doc)
	}
	if got := p.saveCount(); got != 1 {
		t.Fatalf("first EnsureDefaults saved %d times, want 1", got)
	}

	// Second pass finds a fully shaped document and must not write.
	if _, err := store.EnsureDefaults(ctx, 100); err != nil {
		t.Fatalf("EnsureDefaults() error: %v", err)
	}
	if got := p.saveCount(); got != 1 {
		t.Errorf("second EnsureDefaults saved again (%d total), want 1", got)
	}
}

func TestEnsureDefaults_MigratesLegacyShape(t *testing.T) {
	p := newCountingPersister()
	p.Seed(200, []byte(`{"enabled": true, "forwarding": {"channels": true}}`))
	store := NewStore(p)
	ctx := context.Background()

	doc, err := store.EnsureDefaults(ctx, 200)
	if err != nil {
		t.Fatalf("EnsureDefaults() error: %v", err)
	}
	if !doc.Forwarding.Channels.Delete {
		t.Error("legacy boolean was not migrated to the deletion flag")
	}
	if got := p.saveCount(); got != 1 {
		t.Fatalf("migration saved %d times, want 1", got)
	}

	// The migrated shape is now stable.
	if _, err := store.EnsureDefaults(ctx, 200); err != nil {
		t.Fatalf("EnsureDefaults() error: %v", err)
	}
	if got := p.saveCount(); got != 1 {
		t.Errorf("stable document saved again (%d total), want 1", got)
	}
}

func TestMutate_GroupIsolation(t *testing.T) {
	store := NewStore(NewMemoryPersister())
	ctx := context.Background()

	if _, err := store.Mutate(ctx, 1, func(d *Document) {
		d.TgLinks.Penalty = PenaltyBan
	}); err != nil {
		t.Fatalf("Mutate() error: %v", err)
	}

	other, err := store.Get(ctx, 2)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if other.TgLinks.Penalty != PenaltyOff {
		t.Errorf("group 2 saw group 1's mutation: penalty=%q", other.TgLinks.Penalty)
	}
}

// Concurrent mutations on the same group must all land; the slot lock
// serializes each read-modify-write so no writer overwrites another.
func TestMutate_NoLostUpdates(t *testing.T) {
	store := NewStore(NewMemoryPersister())
	ctx := context.Background()

	transforms := []func(*Document){
		func(d *Document) { d.TgLinks.Penalty = PenaltyMute },
		func(d *Document) { d.TotalLinks.MuteSecs = 3600 },
		func(d *Document) { d.Forwarding.Users.Penalty = PenaltyBan },
		func(d *Document) { d.QuoteBlock.Expanded = true },
	}

	var wg sync.WaitGroup
	for _, tf := range transforms {
		wg.Add(1)
		go func(tf func(*Document)) {
			defer wg.Done()
			if _, err := store.Mutate(ctx, 42, tf); err != nil {
				t.Errorf("Mutate() error: %v", err)
			}
		}(tf)
	}
	wg.Wait()

	doc, err := store.Get(ctx, 42)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if doc.TgLinks.Penalty != PenaltyMute {
		t.Error("tg links mutation was lost")
	}
	if doc.TotalLinks.MuteSecs != 3600 {
		t.Error("total links mutation was lost")
	}
	if doc.Forwarding.Users.Penalty != PenaltyBan {
		t.Error("forwarding mutation was lost")
	}
	if !doc.QuoteBlock.Expanded {
		t.Error("quote block mutation was lost")
	}
}

func TestMutate_LoadErrorPropagates(t *testing.T) {
	store := NewStore(failingPersister{})
	_, err := store.Mutate(context.Background(), 7, func(d *Document) {})
	if err == nil {
		t.Fatal("expected error from failing persister")
	}
}

type failingPersister struct{}

func (failingPersister) Load(context.Context, int64) ([]byte, bool, error) {
	return nil, false, errors.New("backend down")
}

func (failingPersister) Save(context.Context, int64, []byte) error {
	return errors.New("backend down")
}

// newTestRedisStore connects to a local Redis and clears test policy keys.
// Requires a running Redis on localhost:6379.
func newTestRedisStore(t *testing.T) *Store {
	t.Helper()
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("redis not available: %v", err)
	}
	iter := client.Scan(ctx, 0, KeyPrefix+"9090*", 100).Iterator()
	for iter.Next(ctx) {
		client.Del(ctx, iter.Val())
	}
	t.Cleanup(func() {
		iter := client.Scan(ctx, 0, KeyPrefix+"9090*", 100).Iterator()
		for iter.Next(ctx) {
			client.Del(ctx, iter.Val())
		}
		client.Close()
	})
	return NewStore(NewRedisPersister(client))
}

func TestRedisStore_MutateRoundTrip(t *testing.T) {
	store := newTestRedisStore(t)
	ctx := context.Background()

	if _, err := store.Mutate(ctx, 90901, func(d *Document) {
		d.TotalLinks.Penalty = PenaltyMute
		d.TotalLinks.MuteSecs = 7200
	}); err != nil {
		t.Fatalf("Mutate() error: %v", err)
	}

	doc, err := store.Get(ctx, 90901)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if doc.TotalLinks.Penalty != PenaltyMute || doc.TotalLinks.MuteSecs != 7200 {
		t.Errorf("mutation did not persist through Redis: %+v", doc.TotalLinks)
	}
}
