package policy

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// KeyPrefix is the Redis key prefix for stored policy documents.
// Documents live at policy:<group_id> as JSON, with no TTL: a group's
// moderation configuration never expires.
const KeyPrefix = "policy:"

// RedisPersister stores policy documents in Redis.
type RedisPersister struct {
	client *redis.Client
}

// NewRedisPersister creates a persister using the provided Redis client.
func NewRedisPersister(client *redis.Client) *RedisPersister {
	return &RedisPersister{client: client}
}

func key(groupID int64) string {
	return KeyPrefix + strconv.FormatInt(groupID, 10)
}

// Load fetches the stored document bytes for a group. A missing key is not
// an error; it simply means the group has no stored policy yet.
func (r *RedisPersister) Load(ctx context.Context, groupID int64) ([]byte, bool, error) {
	data, err := r.client.Get(ctx, key(groupID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("policy: redis get group %d: %w", groupID, err)
	}
	return data, true, nil
}

// Save overwrites the stored document bytes for a group.
func (r *RedisPersister) Save(ctx context.Context, groupID int64, data []byte) error {
	if err := r.client.Set(ctx, key(groupID), data, 0).Err(); err != nil {
		return fmt.Errorf("policy: redis set group %d: %w", groupID, err)
	}
	return nil
}
