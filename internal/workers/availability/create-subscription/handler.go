// internal/workers/availability/create-subscription/handler.go
package createsubscription

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"availability-notifier/internal/common/config"
	apperrors "availability-notifier/internal/common/errors"
	"availability-notifier/internal/common/logger"
	"availability-notifier/internal/common/metrics"
	"availability-notifier/internal/common/validation"
	"availability-notifier/internal/models"
	"availability-notifier/internal/store"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const TaskType = "create-subscription"

var nonDigits = regexp.MustCompile(`\D`)

type Handler struct {
	config       *Config
	store        store.Store
	logger       logger.Logger
	errorHandler *apperrors.ErrorHandler
}

type HandlerOptions struct {
	AppConfig    *config.Config
	Store        store.Store
	CustomConfig *Config
	Logger       logger.Logger
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	cfg := createConfigFromAppConfig(opts.AppConfig, opts.CustomConfig)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", TaskType, err)
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("subscription store is required")
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewStructured("info", "json")
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})

	return &Handler{
		config:       cfg,
		store:        opts.Store,
		logger:       log,
		errorHandler: apperrors.NewErrorHandler(log),
	}, nil
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	startTime := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":             job.GetKey(),
		"processInstanceKey": job.GetProcessInstanceKey(),
	})

	input, err := h.parseInput(job)
	if err == nil {
		var output *Output
		output, err = h.Execute(ctx, input)
		if err == nil {
			h.completeJob(ctx, client, job, output)
			metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
			metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
			return
		}
	}

	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(apperrors.AsStandardError(err).Code)).Inc()
	h.errorHandler.HandleJobError(ctx, client, job, err)
}

func (h *Handler) parseInput(job entities.Job) (*Input, error) {
	variables, err := job.GetVariablesAsMap()
	if err != nil {
		return nil, apperrors.NewInputParsingError(err)
	}

	result := validation.ValidateInput(variables, GetInputSchema())
	if !result.Valid {
		return nil, apperrors.NewValidationError(strings.Join(result.GetErrorMessages(), "; "))
	}

	return &Input{
		Location: variables["location"].(string),
		SMS:      variables["sms"].(string),
		Lang:     variables["lang"].(string),
	}, nil
}

// Execute normalizes and stores one subscription as pending.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	sub, err := h.normalize(input)
	if err != nil {
		return nil, err
	}

	if err := h.store.Put(ctx, sub); err != nil {
		return nil, apperrors.NewSubscriptionWriteError(err)
	}
	metrics.SubscriptionsCreated.WithLabelValues(sub.Language).Inc()

	h.logger.Info("subscription stored", map[string]interface{}{
		"location":  sub.LocationID,
		"recipient": logger.MaskAddress(sub.Recipient),
		"language":  sub.Language,
	})

	return &Output{
		Subscribed: true,
		Location:   sub.LocationID,
		Recipient:  sub.Recipient,
		Language:   sub.Language,
	}, nil
}

func (h *Handler) normalize(input *Input) (models.Subscription, error) {
	id, err := uuid.Parse(strings.TrimSpace(input.Location))
	if err != nil {
		return models.Subscription{}, apperrors.NewValidationError("invalid location uuid")
	}

	recipient, ok := NormalizeRecipient(h.config.CountryCode, input.SMS)
	if !ok {
		return models.Subscription{}, apperrors.NewValidationError("invalid sms number")
	}

	lang := strings.ToLower(strings.TrimSpace(input.Lang))
	if len(lang) != 2 {
		return models.Subscription{}, apperrors.NewValidationError(
			`invalid language id (must be a two char string like "en" or "fr")`)
	}

	return models.Subscription{
		LocationID: id.String(),
		IsSent:     models.Pending,
		Recipient:  recipient,
		Language:   lang,
	}, nil
}

// NormalizeRecipient strips formatting from a national number and prefixes
// the country code. A number that already carries the country code is
// accepted once.
func NormalizeRecipient(countryCode, raw string) (string, bool) {
	digits := nonDigits.ReplaceAllString(raw, "")
	cc := strings.TrimPrefix(countryCode, "+")
	if len(digits) == 10+len(cc) && strings.HasPrefix(digits, cc) {
		digits = digits[len(cc):]
	}
	if len(digits) != 10 {
		return "", false
	}
	return countryCode + digits, true
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().JobKey(job.GetKey()).VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
	}
}

func (h *Handler) GetTaskType() string {
	return TaskType
}

func createConfigFromAppConfig(appConfig *config.Config, customConfig *Config) *Config {
	if customConfig != nil {
		return customConfig
	}

	cfg := DefaultConfig()
	if appConfig != nil {
		if workerCfg, exists := appConfig.Workers[TaskType]; exists {
			cfg.Enabled = workerCfg.Enabled
			if workerCfg.MaxJobsActive > 0 {
				cfg.MaxJobsActive = workerCfg.MaxJobsActive
			}
			if workerCfg.Timeout > 0 {
				cfg.Timeout = config.GetDuration(workerCfg.Timeout)
			}
		}
	}
	return cfg
}
