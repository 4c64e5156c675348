package notify

import (
	"context"

	apperrors "availability-notifier/internal/common/errors"
	"availability-notifier/internal/common/logger"
	"availability-notifier/internal/models"
	"availability-notifier/internal/store"

	"golang.org/x/sync/errgroup"
)

// Aggregation is the per-recipient view of one run, in the order recipients
// were first seen across the eligible locations.
type Aggregation struct {
	Batches []*models.RecipientBatch
}

// Subscriptions counts the (recipient, location) pairs in the aggregation.
func (a *Aggregation) Subscriptions() int {
	n := 0
	for _, b := range a.Batches {
		n += len(b.Locations)
	}
	return n
}

type Aggregator struct {
	store       store.Store
	templates   *Templates
	logger      logger.Logger
	concurrency int
}

// NewAggregator queries the store for every eligible location. concurrency
// caps in-flight queries; 0 means no cap.
func NewAggregator(s store.Store, templates *Templates, log logger.Logger, concurrency int) *Aggregator {
	return &Aggregator{
		store:       s,
		templates:   templates,
		logger:      log,
		concurrency: concurrency,
	}
}

// Aggregate fails as soon as any location query fails.
func (a *Aggregator) Aggregate(ctx context.Context, eligible []models.EligibleLocation) (*Aggregation, error) {
	pending := make([][]models.Subscription, len(eligible))

	g, gctx := errgroup.WithContext(ctx)
	if a.concurrency > 0 {
		g.SetLimit(a.concurrency)
	}
	for i, loc := range eligible {
		i, loc := i, loc
		g.Go(func() error {
			subs, err := a.store.QueryPending(gctx, loc.ID)
			if err != nil {
				return apperrors.NewAggregationError(loc.ID, err)
			}
			pending[i] = subs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return a.reduce(eligible, pending), nil
}

func (a *Aggregator) reduce(eligible []models.EligibleLocation, pending [][]models.Subscription) *Aggregation {
	agg := &Aggregation{}
	byRecipient := make(map[string]*models.RecipientBatch)

	for i, loc := range eligible {
		for _, sub := range pending[i] {
			batch, ok := byRecipient[sub.Recipient]
			if !ok {
				lang, recognized := a.templates.Resolve(sub.Language)
				if !recognized {
					a.logger.Info("unrecognized language, using default", map[string]interface{}{
						"language":  sub.Language,
						"default":   lang,
						"recipient": logger.MaskAddress(sub.Recipient),
					})
				}
				batch = &models.RecipientBatch{
					Recipient: sub.Recipient,
					Language:  lang,
					Status:    models.StatusUnsent,
				}
				byRecipient[sub.Recipient] = batch
				agg.Batches = append(agg.Batches, batch)
			}
			if batch.HasLocation(loc.ID) {
				continue
			}
			batch.Locations = append(batch.Locations, models.BatchLocation{
				LocationID: loc.ID,
				Name:       loc.Name,
				URL:        loc.URL,
			})
		}
	}
	return agg
}
