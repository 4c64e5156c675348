package notifysubscribers

import (
	"context"
	"testing"
	"time"

	"availability-notifier/internal/common/config"
	apperrors "availability-notifier/internal/common/errors"
	"availability-notifier/internal/common/logger"
	"availability-notifier/internal/notify"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// ==========================
// Mock Runner Implementation
// ==========================

type MockRunner struct {
	mock.Mock
}

func (m *MockRunner) Run(ctx context.Context, trig notify.Trigger) (*notify.RunReport, error) {
	args := m.Called(ctx, trig)
	report, _ := args.Get(0).(*notify.RunReport)
	return report, args.Error(1)
}

func createMockJob(variables string) entities.Job {
	return entities.Job{ActivatedJob: &pb.ActivatedJob{
		Key:                7,
		Type:               TaskType,
		ProcessInstanceKey: 70,
		BpmnProcessId:      "availability-check",
		CustomHeaders:      "{}",
		Retries:            3,
		Variables:          variables,
	}}
}

func createTestHandler(t *testing.T, r Runner) *Handler {
	h, err := NewHandler(HandlerOptions{
		Runner:       r,
		CustomConfig: DefaultConfig(),
		Logger:       logger.NewTestLogger(t),
	})
	require.NoError(t, err)
	return h
}

// ==========================
// Tests
// ==========================

func TestHandler_NewHandler(t *testing.T) {
	_, err := NewHandler(HandlerOptions{CustomConfig: DefaultConfig()})
	assert.ErrorContains(t, err, "pipeline runner is required")

	_, err = NewHandler(HandlerOptions{
		Runner:       new(MockRunner),
		CustomConfig: &Config{MaxJobsActive: 0, Timeout: time.Minute},
	})
	assert.ErrorContains(t, err, "max_jobs_active must be positive")
}

func TestCreateConfigFromAppConfig(t *testing.T) {
	appCfg := &config.Config{Workers: map[string]config.WorkerConfig{
		TaskType: {Enabled: true, MaxJobsActive: 2, Timeout: 120000},
	}}
	cfg := createConfigFromAppConfig(appCfg, nil)
	assert.Equal(t, 2, cfg.MaxJobsActive)
	assert.Equal(t, 2*time.Minute, cfg.Timeout)

	assert.Equal(t, DefaultConfig(), createConfigFromAppConfig(nil, nil))
}

func TestParseInput(t *testing.T) {
	input, err := parseInput(createMockJob(`{"state":"MA","scrapedAt":"2021-03-01T12:00:00Z"}`))
	require.NoError(t, err)
	assert.Equal(t, &Input{State: "MA"}, input)

	input, err = parseInput(createMockJob(`{"init":true}`))
	require.NoError(t, err)
	assert.True(t, input.Init)

	_, err = parseInput(createMockJob(`{"init":"yes"}`))
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInputParsing))
}

func TestHandler_Execute(t *testing.T) {
	t.Run("maps the run report", func(t *testing.T) {
		r := new(MockRunner)
		r.On("Run", mock.Anything, notify.Trigger{Region: "MA"}).Return(&notify.RunReport{
			RunID:      "run-1",
			Stage:      "DONE",
			Eligible:   2,
			Recipients: 3,
			Sent:       2,
			Failed:     1,
			Retired:    3,
		}, nil)

		out, err := createTestHandler(t, r).Execute(context.Background(), &Input{State: "MA"})
		require.NoError(t, err)
		assert.Equal(t, &Output{
			RunID:      "run-1",
			Stage:      "DONE",
			Eligible:   2,
			Recipients: 3,
			Sent:       2,
			Failed:     1,
			Retired:    3,
		}, out)
	})

	t.Run("propagates run failure", func(t *testing.T) {
		r := new(MockRunner)
		r.On("Run", mock.Anything, mock.Anything).Return(
			&notify.RunReport{Stage: "FAILED", FailedAt: "MATCH"},
			apperrors.NewUpstreamFetchError("locations", context.DeadlineExceeded),
		)

		out, err := createTestHandler(t, r).Execute(context.Background(), &Input{State: "MA"})
		assert.Nil(t, out)
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeUpstreamFetchFailed))
	})
}
