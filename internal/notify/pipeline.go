package notify

import (
	"context"
	"time"

	apperrors "availability-notifier/internal/common/errors"
	"availability-notifier/internal/common/logger"
	"availability-notifier/internal/common/metrics"
	"availability-notifier/internal/common/observability"
	"availability-notifier/internal/models"
	"availability-notifier/internal/source"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// Stage is a step of one pipeline run.
type Stage int

const (
	StageStart Stage = iota
	StageMatch
	StageAggregate
	StageDispatch
	StageRetire
	StageDone
	StageFailed
)

func (s Stage) String() string {
	switch s {
	case StageStart:
		return "START"
	case StageMatch:
		return "MATCH"
	case StageAggregate:
		return "AGGREGATE"
	case StageDispatch:
		return "DISPATCH"
	case StageRetire:
		return "RETIRE"
	case StageDone:
		return "DONE"
	case StageFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// NoopRegion is the region token the scraper sends when it found nothing to check.
const NoopRegion = "none"

// Trigger starts a run. Init runs and the NoopRegion never touch the store.
type Trigger struct {
	Region string `json:"state"`
	Init   bool   `json:"init"`
}

// RunReport summarizes one run.
type RunReport struct {
	RunID      string        `json:"runId"`
	Region     string        `json:"region"`
	Stage      string        `json:"stage"`
	FailedAt   string        `json:"failedAt,omitempty"`
	Skipped    bool          `json:"skipped"`
	Locations  int           `json:"locations"`
	Eligible   int           `json:"eligible"`
	Recipients int           `json:"recipients"`
	Sent       int           `json:"sent"`
	Failed     int           `json:"failed"`
	Retired    int           `json:"retired"`
	Raced      int           `json:"raced"`
	Error      string        `json:"error,omitempty"`
	StartedAt  time.Time     `json:"startedAt"`
	Duration   time.Duration `json:"durationNs"`
}

// Reporter publishes run reports.
type Reporter interface {
	Report(ctx context.Context, report *RunReport) error
}

type ControllerOptions struct {
	Source        source.Source
	Aggregator    *Aggregator
	Dispatcher    *Dispatcher
	Retirer       *Retirer
	Reporter      Reporter
	Observability *observability.Observability
	Logger        logger.Logger
	NewRunID      func() string
}

// Controller sequences the stages of a run.
type Controller struct {
	source     source.Source
	aggregator *Aggregator
	dispatcher *Dispatcher
	retirer    *Retirer
	reporter   Reporter
	obs        *observability.Observability
	tracer     trace.Tracer
	logger     logger.Logger
	newRunID   func() string
}

func NewController(opts ControllerOptions) *Controller {
	newRunID := opts.NewRunID
	if newRunID == nil {
		newRunID = func() string { return "" }
	}
	return &Controller{
		source:     opts.Source,
		aggregator: opts.Aggregator,
		dispatcher: opts.Dispatcher,
		retirer:    opts.Retirer,
		reporter:   opts.Reporter,
		obs:        opts.Observability,
		tracer:     otel.Tracer("availability-notifier/notify"),
		logger:     opts.Logger,
		newRunID:   newRunID,
	}
}

// Run executes one cycle for the trigger's region. The returned report is
// never nil; err is set when the run ends in StageFailed.
func (c *Controller) Run(ctx context.Context, trig Trigger) (*RunReport, error) {
	report := &RunReport{
		RunID:     c.newRunID(),
		Region:    trig.Region,
		Stage:     StageStart.String(),
		StartedAt: time.Now().UTC(),
	}
	log := c.logger.WithFields(map[string]interface{}{
		"region": trig.Region,
		"runId":  report.RunID,
	})

	ctx, span := c.tracer.Start(ctx, "notify.run", trace.WithAttributes(
		attribute.String("region", trig.Region),
		attribute.Bool("init", trig.Init),
	))
	defer span.End()

	err := c.run(ctx, trig, report, log)
	report.Duration = time.Since(report.StartedAt)
	if err != nil {
		report.FailedAt = report.Stage
		report.Stage = StageFailed.String()
		report.Error = err.Error()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Error("pipeline failed", map[string]interface{}{
			"stage": report.FailedAt,
			"error": err.Error(),
		})
	} else {
		report.Stage = StageDone.String()
		log.Info("pipeline finished", map[string]interface{}{
			"skipped":    report.Skipped,
			"eligible":   report.Eligible,
			"recipients": report.Recipients,
			"sent":       report.Sent,
			"failed":     report.Failed,
			"retired":    report.Retired,
			"raced":      report.Raced,
			"durationMs": report.Duration.Milliseconds(),
		})
	}

	metrics.PipelineRuns.WithLabelValues(trig.Region, report.Stage).Inc()
	c.obs.RecordRun(ctx, trig.Region, report.Stage, report.Duration)
	c.obs.RecordSends(ctx, trig.Region, report.Sent, report.Failed)

	if c.reporter != nil {
		if rerr := c.reporter.Report(ctx, report); rerr != nil {
			log.Warn("failed to publish run report", map[string]interface{}{"error": rerr.Error()})
		}
	}
	return report, err
}

func (c *Controller) run(ctx context.Context, trig Trigger, report *RunReport, log logger.Logger) error {
	if trig.Init || trig.Region == NoopRegion {
		report.Skipped = true
		log.Info("no-op trigger, skipping run", map[string]interface{}{"init": trig.Init})
		return nil
	}
	if trig.Region == "" {
		return apperrors.NewValidationError("missing state param")
	}

	var eligible []models.EligibleLocation
	err := c.stage(ctx, StageMatch, report, log, func(ctx context.Context) error {
		locations, availability, err := c.fetch(ctx, trig.Region)
		if err != nil {
			return err
		}
		eligible = Match(locations, availability)
		report.Locations = len(locations)
		report.Eligible = len(eligible)
		metrics.EligibleLocations.WithLabelValues(trig.Region).Set(float64(len(eligible)))
		return nil
	})
	if err != nil {
		return err
	}

	var agg *Aggregation
	err = c.stage(ctx, StageAggregate, report, log, func(ctx context.Context) error {
		var err error
		agg, err = c.aggregator.Aggregate(ctx, eligible)
		if err != nil {
			return err
		}
		report.Recipients = len(agg.Batches)
		return nil
	})
	if err != nil {
		return err
	}

	var dispatched *DispatchResult
	_ = c.stage(ctx, StageDispatch, report, log, func(ctx context.Context) error {
		dispatched = c.dispatcher.Dispatch(ctx, agg)
		report.Sent = dispatched.Sent
		report.Failed = dispatched.Failed
		return nil
	})

	return c.stage(ctx, StageRetire, report, log, func(ctx context.Context) error {
		if dispatched.Sent == 0 {
			log.Info("nothing delivered, nothing to retire", nil)
			return nil
		}
		res, err := c.retirer.Retire(ctx, dispatched.Succeeded())
		report.Retired = res.Deleted
		report.Raced = res.Raced
		return err
	})
}

// fetch loads locations and availability concurrently.
func (c *Controller) fetch(ctx context.Context, region string) ([]models.Location, []models.LocationAvailability, error) {
	var (
		locations    []models.Location
		availability []models.LocationAvailability
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		locations, err = c.source.GetLocations(gctx, region)
		if err != nil {
			return apperrors.NewUpstreamFetchError("locations", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		availability, err = c.source.GetAvailability(gctx, region)
		if err != nil {
			return apperrors.NewUpstreamFetchError("availability", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return locations, availability, nil
}

func (c *Controller) stage(ctx context.Context, s Stage, report *RunReport, log logger.Logger, fn func(context.Context) error) error {
	report.Stage = s.String()
	log.Debug("stage started", map[string]interface{}{"stage": report.Stage})

	ctx, span := c.tracer.Start(ctx, "notify."+report.Stage)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	metrics.PipelineStageDuration.WithLabelValues(report.Stage).Observe(time.Since(start).Seconds())

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
