package store

import (
	"context"
	"errors"
	"testing"

	"availability-notifier/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client, "subscriptions"), mr
}

func TestRedisStore_PutAndQuery(t *testing.T) {
	s, mr := newRedisStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, models.Subscription{LocationID: "L1", Recipient: "+15559870000", Language: "es"}))
	require.NoError(t, s.Put(ctx, models.Subscription{LocationID: "L1", Recipient: "+15551230000", Language: "en"}))
	require.NoError(t, s.Put(ctx, models.Subscription{LocationID: "L2", Recipient: "+15551230000", Language: "en"}))

	assert.Equal(t, "es", mr.HGet("subscriptions:L1:0", "+15559870000"))

	subs, err := s.QueryPending(ctx, "L1")
	require.NoError(t, err)
	require.Len(t, subs, 2)
	assert.Equal(t, "+15551230000", subs[0].Recipient)
	assert.Equal(t, "+15559870000", subs[1].Recipient)
	assert.Equal(t, "L1", subs[1].LocationID)

	empty, err := s.QueryPending(ctx, "L3")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestRedisStore_ConditionalDelete(t *testing.T) {
	s, mr := newRedisStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, models.Subscription{LocationID: "L1", Recipient: "+15551230000", Language: "en"}))
	require.NoError(t, s.Put(ctx, models.Subscription{LocationID: "L1", Recipient: "+15559870000", Language: "en"}))

	require.NoError(t, s.ConditionalDelete(ctx, "L1", "+15551230000"))

	err := s.ConditionalDelete(ctx, "L1", "+15551230000")
	assert.ErrorIs(t, err, ErrConditionFailed)

	// the other recipient's record is untouched
	assert.Equal(t, "en", mr.HGet("subscriptions:L1:0", "+15559870000"))
}

func TestRedisStore_Errors(t *testing.T) {
	client, mock := redismock.NewClientMock()
	s := NewRedisStore(client, "")
	ctx := context.Background()

	mock.ExpectHGetAll("subscriptions:L1:0").SetErr(errors.New("READONLY"))
	_, err := s.QueryPending(ctx, "L1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "READONLY")

	mock.ExpectHDel("subscriptions:L1:0", "+15551230000").SetErr(errors.New("timeout"))
	err = s.ConditionalDelete(ctx, "L1", "+15551230000")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrConditionFailed))

	assert.NoError(t, mock.ExpectationsWereMet())
}
