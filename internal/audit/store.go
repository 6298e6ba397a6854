// Package audit provides PostgreSQL-backed storage for the policy-change
// audit trail. Each record captures which admin changed what in which group,
// so moderation disputes can be traced back to a configuration change.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Entry is a single applied policy mutation.
type Entry struct {
	ID        string
	GroupID   int64
	UserID    int64
	Action    string // "penalty", "delete", "username_antispam", "bots_antispam", "duration", "select"
	Category  string
	Scope     string // empty for flat categories
	Kind      string // duration kind, empty otherwise
	Detail    string // new value, formatted for humans
	CreatedAt time.Time
}

// Store manages audit records in PostgreSQL.
type Store struct {
	db *sql.DB
}

// NewStore creates an audit store backed by the given database handle.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Record inserts one audit entry. The ID is generated here; callers only
// describe the change.
func (s *Store) Record(ctx context.Context, e Entry) error {
	const query = `
		INSERT INTO policy_audit (id, group_id, user_id, action, category, scope, kind, detail)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := s.db.ExecContext(ctx, query,
		uuid.New().String(),
		e.GroupID,
		e.UserID,
		e.Action,
		e.Category,
		e.Scope,
		e.Kind,
		e.Detail,
	)
	if err != nil {
		return fmt.Errorf("audit: insert: %w", err)
	}
	return nil
}

// RecentByGroup returns the latest entries for a group, newest first.
func (s *Store) RecentByGroup(ctx context.Context, groupID int64, limit int) ([]Entry, error) {
	const query = `
		SELECT id, group_id, user_id, action, category, scope, kind, detail, created_at
		FROM policy_audit
		WHERE group_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := s.db.QueryContext(ctx, query, groupID, limit)
	if err != nil {
		return nil, fmt.Errorf("audit: query recent: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.GroupID, &e.UserID, &e.Action, &e.Category, &e.Scope, &e.Kind, &e.Detail, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("audit: scan: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("audit: rows: %w", err)
	}
	return entries, nil
}
