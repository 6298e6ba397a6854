package policy

import (
	"context"
	"fmt"
	"sync"

	"github.com/sentinel/antispam/internal/metrics"
)

// Persister is the durable backend for policy documents. Load returns the
// raw stored bytes and whether a value exists; Save overwrites the stored
// value. Both are expected to be fast synchronous writes; Save errors are
// propagated to the caller, since silently losing a moderation-policy change
// is worse than an explicit failure.
type Persister interface {
	Load(ctx context.Context, groupID int64) ([]byte, bool, error)
	Save(ctx context.Context, groupID int64, data []byte) error
}

// Store provides fully shaped policy documents per group with all access
// serialized per group ID. Every read path runs the defaults/migration
// decode, so no caller can ever observe a partially shaped document; every
// write path goes through the group's slot mutex, so no interleaved
// read-modify-write can lose an update. Groups never contend with each other.
type Store struct {
	mu        sync.RWMutex
	slots     map[int64]*sync.Mutex
	persister Persister
}

// NewStore creates a Store backed by the given persister.
func NewStore(p Persister) *Store {
	return &Store{
		slots:     make(map[int64]*sync.Mutex),
		persister: p,
	}
}

// slotFor returns the mutex serializing all operations on one group,
// creating it on first use.
func (s *Store) slotFor(groupID int64) *sync.Mutex {
	s.mu.RLock()
	slot, ok := s.slots[groupID]
	s.mu.RUnlock()
	if ok {
		return slot
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if slot, ok = s.slots[groupID]; !ok {
		slot = &sync.Mutex{}
		s.slots[groupID] = slot
	}
	return slot
}

// load reads and decodes the group's document, persisting it back when the
// decode had to backfill or migrate anything. Callers must hold the slot.
func (s *Store) load(ctx context.Context, groupID int64) (Document, error) {
	data, _, err := s.persister.Load(ctx, groupID)
	if err != nil {
		return Document{}, fmt.Errorf("policy: load group %d: %w", groupID, err)
	}

	doc, changed := Decode(data)
	if changed {
		if err := s.save(ctx, groupID, doc); err != nil {
			return Document{}, err
		}
		metrics.DocumentsMigratedTotal.Inc()
	}
	return doc, nil
}

func (s *Store) save(ctx context.Context, groupID int64, doc Document) error {
	data, err := Encode(doc)
	if err != nil {
		return fmt.Errorf("policy: encode group %d: %w", groupID, err)
	}
	if err := s.persister.Save(ctx, groupID, data); err != nil {
		return fmt.Errorf("policy: save group %d: %w", groupID, err)
	}
	return nil
}

// Get returns the group's current fully shaped document, running the
// defaults/migration pass first if the stored value needs it.
func (s *Store) Get(ctx context.Context, groupID int64) (Document, error) {
	return s.EnsureDefaults(ctx, groupID)
}

// EnsureDefaults loads the group's document, backfills missing fields and
// migrates legacy shapes, and persists the result only when something
// actually changed. Calling it twice in a row persists at most once.
func (s *Store) EnsureDefaults(ctx context.Context, groupID int64) (Document, error) {
	slot := s.slotFor(groupID)
	slot.Lock()
	defer slot.Unlock()
	return s.load(ctx, groupID)
}

// Replace atomically swaps the group's stored document.
func (s *Store) Replace(ctx context.Context, groupID int64, doc Document) error {
	slot := s.slotFor(groupID)
	slot.Lock()
	defer slot.Unlock()
	return s.save(ctx, groupID, doc)
}

// Mutate applies transform to a private, fully shaped copy of the group's
// document and persists the result. The whole read-modify-write sequence
// holds the group's slot, so concurrent Mutate calls on the same group are
// applied one after the other and no writer's change is lost. The mutated
// document is returned for rendering.
func (s *Store) Mutate(ctx context.Context, groupID int64, transform func(*Document)) (Document, error) {
	slot := s.slotFor(groupID)
	slot.Lock()
	defer slot.Unlock()

	doc, err := s.load(ctx, groupID)
	if err != nil {
		return Document{}, err
	}

	// Document holds no reference types; doc is already a private copy.
	transform(&doc)

	if err := s.save(ctx, groupID, doc); err != nil {
		return Document{}, err
	}
	return doc, nil
}
