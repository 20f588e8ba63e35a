package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"imobiliaria-sync/internal/contextkeys"
	"imobiliaria-sync/internal/core/domain"
	"imobiliaria-sync/internal/core/port"
	"imobiliaria-sync/pkg/rabbitmq"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// RunReportDTO is the message published after every sync run.
type RunReportDTO struct {
	RunID      uuid.UUID      `json:"run_id"`
	Provider   string         `json:"provider"`
	ExecutedAt time.Time      `json:"executed_at"`
	Fatal      bool           `json:"fatal"`
	Results    map[string]int `json:"results"`
}

type RunReporterAdapter struct {
	producer   *rabbitmq.Publisher
	routingKey string
}

func NewRunReporterAdapter(producer *rabbitmq.Publisher, routingKey string) (*RunReporterAdapter, error) {
	if producer == nil {
		return nil, fmt.Errorf("rabbitmq adapter: producer cannot be nil")
	}
	if routingKey == "" {
		return nil, fmt.Errorf("rabbitmq adapter: routingKey cannot be empty")
	}
	return &RunReporterAdapter{
		producer:   producer,
		routingKey: routingKey,
	}, nil
}

func (a *RunReporterAdapter) PublishRunReport(ctx context.Context, summary domain.RunSummary) error {
	logger := contextkeys.LoggerFromContext(ctx)
	adapterLogger := logger.WithFields(port.Fields{
		"component":   "RunReporterAdapter",
		"routing_key": a.routingKey,
		"run_id":      summary.RunID.String(),
	})

	dto := RunReportDTO{
		RunID:      summary.RunID,
		Provider:   summary.Provider,
		ExecutedAt: summary.ExecutedAt,
		Fatal:      summary.Fatal,
		Results: map[string]int{
			"total_feed":  summary.TotalFeed,
			"new":         summary.New,
			"updated":     summary.Updated,
			"reactivated": summary.Reactivated,
			"unchanged":   summary.Unchanged,
			"retired":     summary.Retired,
			"duplicates":  summary.Duplicates,
			"errors":      summary.Errors,
		},
	}

	body, _ := json.Marshal(dto)

	msg := amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Headers:      make(amqp.Table),
	}

	traceID := contextkeys.TraceIDFromContext(ctx)
	if traceID != "" {
		msg.Headers["x-trace-id"] = traceID
	}

	publishCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	adapterLogger.Info("Publishing run report", port.Fields{"results": dto.Results})
	err := a.producer.Publish(publishCtx, a.routingKey, msg)
	if err != nil {
		adapterLogger.Error("Failed to publish run report", err, nil)
		return fmt.Errorf("rabbitmq adapter: failed to publish report for run %s: %w", summary.RunID, err)
	}

	return nil
}
