package notify

import (
	"context"
	"fmt"
	"sync"

	apperrors "availability-notifier/internal/common/errors"
	"availability-notifier/internal/common/logger"
	"availability-notifier/internal/common/metrics"
	"availability-notifier/internal/models"
	"availability-notifier/internal/sender"

	"golang.org/x/time/rate"
)

// DispatchResult holds every batch with its final status.
type DispatchResult struct {
	Batches []*models.RecipientBatch
	Sent    int
	Failed  int
}

// Succeeded returns the batches whose delivery was confirmed.
func (r *DispatchResult) Succeeded() []*models.RecipientBatch {
	var out []*models.RecipientBatch
	for _, b := range r.Batches {
		if b.Status == models.StatusSuccess {
			out = append(out, b)
		}
	}
	return out
}

type channelRouter interface {
	ChannelFor(recipient string) string
}

type Dispatcher struct {
	sender         sender.Sender
	templates      *Templates
	logger         logger.Logger
	limiter        *rate.Limiter
	maxConcurrency int
}

type DispatcherOption func(*Dispatcher)

// WithRateLimit allows at most perSecond sends per second. Zero or less disables it.
func WithRateLimit(perSecond float64) DispatcherOption {
	return func(d *Dispatcher) {
		if perSecond > 0 {
			d.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

// WithMaxConcurrency caps in-flight sends. Zero or less means no cap.
func WithMaxConcurrency(n int) DispatcherOption {
	return func(d *Dispatcher) {
		d.maxConcurrency = n
	}
}

func NewDispatcher(s sender.Sender, templates *Templates, log logger.Logger, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		sender:    s,
		templates: templates,
		logger:    log,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch sends one message per batch. Each send is independent: a failure
// marks only its own batch failed and is never returned.
func (d *Dispatcher) Dispatch(ctx context.Context, agg *Aggregation) *DispatchResult {
	result := &DispatchResult{Batches: agg.Batches}
	if len(agg.Batches) == 0 {
		return result
	}

	var sem chan struct{}
	if d.maxConcurrency > 0 {
		sem = make(chan struct{}, d.maxConcurrency)
	}

	var wg sync.WaitGroup
	for _, batch := range agg.Batches {
		batch.Status = models.StatusPending
		wg.Add(1)
		go func(b *models.RecipientBatch) {
			defer wg.Done()
			if sem != nil {
				select {
				case sem <- struct{}{}:
					defer func() { <-sem }()
				case <-ctx.Done():
					d.fail(b, ctx.Err())
					return
				}
			}
			d.send(ctx, b)
		}(batch)
	}
	wg.Wait()

	for _, b := range agg.Batches {
		if b.Status == models.StatusSuccess {
			result.Sent++
		} else {
			result.Failed++
		}
	}
	return result
}

func (d *Dispatcher) send(ctx context.Context, b *models.RecipientBatch) {
	if d.limiter != nil {
		if err := d.limiter.Wait(ctx); err != nil {
			d.fail(b, err)
			return
		}
	}

	subject, body := d.templates.Render(b.Language, b.Locations)
	delivery, err := d.sender.Send(ctx, sender.Message{
		Recipient: b.Recipient,
		Subject:   subject,
		Body:      body,
	})
	if err != nil {
		d.fail(b, err)
		return
	}
	if !delivery.Delivered || delivery.Address != b.Recipient {
		d.fail(b, fmt.Errorf("delivery not confirmed: %s", delivery.Status))
		return
	}

	b.Status = models.StatusSuccess
	b.MessageID = delivery.MessageID
	metrics.DispatchOutcomes.WithLabelValues(d.channel(b.Recipient), "success").Inc()
	d.logger.Debug("notification sent", map[string]interface{}{
		"recipient": logger.MaskAddress(b.Recipient),
		"locations": len(b.Locations),
		"messageId": delivery.MessageID,
	})
}

func (d *Dispatcher) fail(b *models.RecipientBatch, err error) {
	channel := d.channel(b.Recipient)
	b.Status = models.StatusFailed
	b.Err = apperrors.NewNotificationSendError(channel, err)
	metrics.DispatchOutcomes.WithLabelValues(channel, "failed").Inc()
	d.logger.Warn("notification failed", map[string]interface{}{
		"recipient": logger.MaskAddress(b.Recipient),
		"locations": len(b.Locations),
		"error":     err.Error(),
	})
}

func (d *Dispatcher) channel(recipient string) string {
	if r, ok := d.sender.(channelRouter); ok {
		return r.ChannelFor(recipient)
	}
	return d.sender.Channel()
}
