package notify

import (
	"context"
	"errors"
	"sync"

	apperrors "availability-notifier/internal/common/errors"
	"availability-notifier/internal/common/logger"
	"availability-notifier/internal/common/metrics"
	"availability-notifier/internal/models"
	"availability-notifier/internal/store"
)

// RetirementResult counts the outcome of every conditional delete.
type RetirementResult struct {
	Deleted int
	Raced   int
	Failed  int
}

type Retirer struct {
	store  store.Store
	logger logger.Logger
}

func NewRetirer(s store.Store, log logger.Logger) *Retirer {
	return &Retirer{store: s, logger: log}
}

type deleteOutcome struct {
	locationID string
	recipient  string
	err        error
}

// Retire deletes the pending subscription behind every location of every
// successful batch. Deletes that lose to a newer subscription are skipped.
// All deletes run to completion; other failures are joined and returned.
func (r *Retirer) Retire(ctx context.Context, batches []*models.RecipientBatch) (*RetirementResult, error) {
	var outcomes []*deleteOutcome
	for _, b := range batches {
		if b.Status != models.StatusSuccess {
			continue
		}
		for _, loc := range b.Locations {
			outcomes = append(outcomes, &deleteOutcome{locationID: loc.LocationID, recipient: b.Recipient})
		}
	}

	result := &RetirementResult{}
	if len(outcomes) == 0 {
		return result, nil
	}

	var wg sync.WaitGroup
	for _, o := range outcomes {
		wg.Add(1)
		go func(o *deleteOutcome) {
			defer wg.Done()
			o.err = r.store.ConditionalDelete(ctx, o.locationID, o.recipient)
		}(o)
	}
	wg.Wait()

	var errs []error
	for _, o := range outcomes {
		switch {
		case o.err == nil:
			result.Deleted++
			metrics.Retirements.WithLabelValues("deleted").Inc()
		case errors.Is(o.err, store.ErrConditionFailed):
			result.Raced++
			metrics.Retirements.WithLabelValues("raced").Inc()
			r.logger.Info("subscription changed since aggregation, keeping it", map[string]interface{}{
				"locationId": o.locationID,
				"recipient":  logger.MaskAddress(o.recipient),
			})
		default:
			result.Failed++
			metrics.Retirements.WithLabelValues("failed").Inc()
			r.logger.Error("failed to retire subscription", map[string]interface{}{
				"locationId": o.locationID,
				"recipient":  logger.MaskAddress(o.recipient),
				"error":      o.err.Error(),
			})
			errs = append(errs, o.err)
		}
	}

	if len(errs) > 0 {
		return result, apperrors.NewRetirementError(errors.Join(errs...))
	}
	return result, nil
}
