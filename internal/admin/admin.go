// Package admin answers "may this user change this group's policy" from a
// Redis-backed membership set maintained by the platform gateway:
//
//	Key:     admins:<groupID>
//	Members: user IDs (decimal strings)
//
// The gateway refreshes the set whenever group membership changes, so a
// lookup here never has to round-trip to the chat platform.
package admin

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// KeyPrefix is the Redis key prefix for per-group admin sets.
const KeyPrefix = "admins:"

// Checker looks up group admin membership in Redis.
type Checker struct {
	client *redis.Client
}

// NewChecker creates a checker using the provided Redis client.
func NewChecker(client *redis.Client) *Checker {
	return &Checker{client: client}
}

// IsAdmin reports whether userID is an admin of groupID. Redis errors are
// returned so callers can fail closed; an unreadable admin set must never
// grant access.
func (c *Checker) IsAdmin(ctx context.Context, groupID, userID int64) (bool, error) {
	key := KeyPrefix + strconv.FormatInt(groupID, 10)
	ok, err := c.client.SIsMember(ctx, key, strconv.FormatInt(userID, 10)).Result()
	if err != nil {
		return false, fmt.Errorf("admin: check group %d user %d: %w", groupID, userID, err)
	}
	return ok, nil
}

// Grant adds userID to the group's admin set.
func (c *Checker) Grant(ctx context.Context, groupID, userID int64) error {
	key := KeyPrefix + strconv.FormatInt(groupID, 10)
	return c.client.SAdd(ctx, key, strconv.FormatInt(userID, 10)).Err()
}

// Revoke removes userID from the group's admin set.
func (c *Checker) Revoke(ctx context.Context, groupID, userID int64) error {
	key := KeyPrefix + strconv.FormatInt(groupID, 10)
	return c.client.SRem(ctx, key, strconv.FormatInt(userID, 10)).Err()
}
