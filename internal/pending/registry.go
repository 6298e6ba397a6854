// Package pending tracks, per user, that the next free-text message should be
// interpreted as a duration value for an in-progress configuration change.
// Each user has at most one live request: issuing a new prompt silently
// replaces the previous one, and a request is consumed exactly once, either
// by a successful capture or an explicit cancel. Requests live only in
// process memory and never survive a restart.
package pending

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sentinel/antispam/internal/metrics"
	"github.com/sentinel/antispam/internal/policy"
)

// ChatRef locates the menu message a completed capture should return to.
// The transport layer treats it as opaque.
type ChatRef struct {
	ChatID    int64 `json:"chat_id"`
	MessageID int64 `json:"message_id"`
}

// Request records which configuration field the next free-text message from
// a user is meant to satisfy.
type Request struct {
	ID       string
	Category policy.Category
	Scope    policy.Scope // zero value for flat categories
	Kind     policy.DurationKind
	GroupID  int64
	Return   ChatRef
	IssuedAt time.Time
}

// NewRequest builds a Request with a fresh ID and timestamp.
func NewRequest(cat policy.Category, scope policy.Scope, kind policy.DurationKind, groupID int64, ret ChatRef) Request {
	return Request{
		ID:       uuid.New().String(),
		Category: cat,
		Scope:    scope,
		Kind:     kind,
		GroupID:  groupID,
		Return:   ret,
		IssuedAt: time.Now(),
	}
}

// shardCount spreads users across independent locks so unrelated users never
// contend. Must be a power of two.
const shardCount = 16

type shard struct {
	mu       sync.Mutex
	requests map[int64]Request
}

// Registry is the per-user single-slot store of pending capture requests.
// The zero value is not usable; call NewRegistry.
type Registry struct {
	shards [shardCount]*shard
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	r := &Registry{}
	for i := range r.shards {
		r.shards[i] = &shard{requests: make(map[int64]Request)}
	}
	return r
}

func (r *Registry) shardFor(userID int64) *shard {
	return r.shards[uint64(userID)&(shardCount-1)]
}

// Put records a pending request for a user, silently replacing any previous
// one. There is no queueing of multiple prompts per user.
func (r *Registry) Put(userID int64, req Request) {
	sh := r.shardFor(userID)
	sh.mu.Lock()
	_, existed := sh.requests[userID]
	sh.requests[userID] = req
	sh.mu.Unlock()

	if !existed {
		metrics.PendingPrompts.Inc()
	}
}

// Take removes and returns the user's pending request. The second result is
// false when the user has none; a request can only ever be taken once.
func (r *Registry) Take(userID int64) (Request, bool) {
	sh := r.shardFor(userID)
	sh.mu.Lock()
	req, ok := sh.requests[userID]
	if ok {
		delete(sh.requests, userID)
	}
	sh.mu.Unlock()

	if ok {
		metrics.PendingPrompts.Dec()
	}
	return req, ok
}

// Peek returns the user's pending request without consuming it.
func (r *Registry) Peek(userID int64) (Request, bool) {
	sh := r.shardFor(userID)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	req, ok := sh.requests[userID]
	return req, ok
}

// Len returns the total number of outstanding requests.
func (r *Registry) Len() int {
	n := 0
	for _, sh := range r.shards {
		sh.mu.Lock()
		n += len(sh.requests)
		sh.mu.Unlock()
	}
	return n
}
