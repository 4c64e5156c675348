// Package store persists pending subscriptions.
package store

import (
	"context"
	"errors"

	"availability-notifier/internal/models"
)

// ErrConditionFailed is returned by ConditionalDelete when the pending record
// for the location no longer belongs to the expected recipient.
var ErrConditionFailed = errors.New("store: delete condition not met")

// Store is the subscription table.
type Store interface {
	// Put writes a pending subscription.
	Put(ctx context.Context, sub models.Subscription) error

	// QueryPending returns the unsent subscriptions for a location.
	QueryPending(ctx context.Context, locationID string) ([]models.Subscription, error)

	// ConditionalDelete removes the pending record for locationID only if it
	// is still held by expectedRecipient. Otherwise it returns ErrConditionFailed.
	ConditionalDelete(ctx context.Context, locationID, expectedRecipient string) error
}
