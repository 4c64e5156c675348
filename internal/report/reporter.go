package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"availability-notifier/internal/common/logger"
	"availability-notifier/internal/notify"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// ElasticsearchReporter indexes one document per run, keyed by run ID.
type ElasticsearchReporter struct {
	client *elasticsearch.Client
	index  string
	logger logger.Logger
}

func NewElasticsearchReporter(client *elasticsearch.Client, index string, log logger.Logger) *ElasticsearchReporter {
	return &ElasticsearchReporter{
		client: client,
		index:  index,
		logger: log.WithFields(map[string]interface{}{"index": index}),
	}
}

func (r *ElasticsearchReporter) Report(ctx context.Context, report *notify.RunReport) error {
	body, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal run report: %w", err)
	}

	opts := []func(*esapi.IndexRequest){r.client.Index.WithContext(ctx)}
	if report.RunID != "" {
		opts = append(opts, r.client.Index.WithDocumentID(report.RunID))
	}

	res, err := r.client.Index(r.index, bytes.NewReader(body), opts...)
	if err != nil {
		return fmt.Errorf("index run report: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		msg, _ := io.ReadAll(res.Body)
		return fmt.Errorf("index run report: %s: %s", res.Status(), bytes.TrimSpace(msg))
	}

	r.logger.Debug("run report indexed", map[string]interface{}{"runId": report.RunID})
	return nil
}

// NopReporter discards reports.
type NopReporter struct{}

func (NopReporter) Report(context.Context, *notify.RunReport) error { return nil }
