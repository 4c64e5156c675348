package store

import (
	"context"
	"fmt"
	"sort"

	"availability-notifier/internal/models"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps a hash per pending location: field recipient, value language.
type RedisStore struct {
	client redis.Cmdable
	prefix string
}

func NewRedisStore(client redis.Cmdable, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "subscriptions"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(locationID string) string {
	return fmt.Sprintf("%s:%s:%d", s.prefix, locationID, models.Pending)
}

func (s *RedisStore) Put(ctx context.Context, sub models.Subscription) error {
	if err := s.client.HSet(ctx, s.key(sub.LocationID), sub.Recipient, sub.Language).Err(); err != nil {
		return fmt.Errorf("hset subscription: %w", err)
	}
	return nil
}

func (s *RedisStore) QueryPending(ctx context.Context, locationID string) ([]models.Subscription, error) {
	fields, err := s.client.HGetAll(ctx, s.key(locationID)).Result()
	if err != nil {
		return nil, fmt.Errorf("hgetall subscriptions: %w", err)
	}

	recipients := make([]string, 0, len(fields))
	for r := range fields {
		recipients = append(recipients, r)
	}
	sort.Strings(recipients)

	subs := make([]models.Subscription, 0, len(recipients))
	for _, r := range recipients {
		subs = append(subs, models.Subscription{
			LocationID: locationID,
			IsSent:     models.Pending,
			Recipient:  r,
			Language:   fields[r],
		})
	}
	return subs, nil
}

// ConditionalDelete relies on HDEL being atomic: it removes the field only if present.
func (s *RedisStore) ConditionalDelete(ctx context.Context, locationID, expectedRecipient string) error {
	n, err := s.client.HDel(ctx, s.key(locationID), expectedRecipient).Result()
	if err != nil {
		return fmt.Errorf("hdel subscription: %w", err)
	}
	if n == 0 {
		return ErrConditionFailed
	}
	return nil
}
