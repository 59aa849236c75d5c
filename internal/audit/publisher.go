package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	"phishsim/internal/models"
)

// Sink delivers a batch of committed audit entries somewhere outside the
// store.
type Sink interface {
	Publish(ctx context.Context, entries []*models.AuditLog) error
}

// LogSink writes each entry as a structured log line.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Publish(ctx context.Context, entries []*models.AuditLog) error {
	for _, e := range entries {
		tenant := ""
		if e.TenantID != nil {
			tenant = e.TenantID.String()
		}
		s.logger.InfoContext(ctx, "audit",
			"audit_id", e.ID.String(),
			"tenant_id", tenant,
			"actor_type", string(e.ActorType),
			"actor_id", e.ActorID,
			"action", e.Action,
			"resource_type", e.ResourceType,
			"resource_id", e.ResourceID,
		)
	}
	return nil
}

// Producer is the subset of *kgo.Client used by KafkaSink.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// KafkaSink publishes entries as JSON records keyed by tenant id, so one
// tenant's actions stay ordered within a partition. Global actions use the
// key "global".
type KafkaSink struct {
	producer Producer
	topic    string
}

func NewKafkaSink(producer Producer, topic string) *KafkaSink {
	return &KafkaSink{producer: producer, topic: topic}
}

func (s *KafkaSink) Publish(ctx context.Context, entries []*models.AuditLog) error {
	records := make([]*kgo.Record, 0, len(entries))
	for _, e := range entries {
		value, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("encode audit entry %s: %w", e.ID, err)
		}
		key := "global"
		if e.TenantID != nil {
			key = e.TenantID.String()
		}
		records = append(records, &kgo.Record{
			Topic: s.topic,
			Key:   []byte(key),
			Value: value,
			Headers: []kgo.RecordHeader{
				{Key: "action", Value: []byte(e.Action)},
			},
		})
	}
	if err := s.producer.ProduceSync(ctx, records...).FirstErr(); err != nil {
		return fmt.Errorf("produce audit records: %w", err)
	}
	return nil
}
