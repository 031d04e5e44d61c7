// Package kafka exports completed fusion cycles to a Kafka topic for offline
// analytics. The publisher is optional and disabled by default; the dashboard
// itself never consumes from Kafka.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/railmet/platform-risk-service/internal/config"
	"github.com/railmet/platform-risk-service/internal/pipeline"
	kafkago "github.com/segmentio/kafka-go"
)

// Publisher produces one snapshot message per fusion cycle.
// It implements pipeline.SnapshotPublisher.
type Publisher struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for the configured snapshot topic.
func NewPublisher(cfg *config.Config, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Publisher{writer: w, logger: logger}
}

// snapshotRecord is the serialized message body: the fused reading plus the
// per-platform scores and warning level of the cycle.
type snapshotRecord struct {
	Fused      json.RawMessage `json:"fused"`
	Platforms  json.RawMessage `json:"platforms"`
	Warning    string          `json:"warningLevel"`
	Simulated  bool            `json:"simulated"`
	Confidence int             `json:"confidence"`
}

// Publish serializes and writes one snapshot, keyed by cycle ID so replays
// and duplicate publishes compact cleanly downstream.
func (p *Publisher) Publish(ctx context.Context, snap pipeline.Snapshot) error {
	msg, err := serializeToMessage(snap)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, msg)
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

func serializeToMessage(snap pipeline.Snapshot) (kafkago.Message, error) {
	fused, err := json.Marshal(snap.Fused)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize fused reading: %w", err)
	}
	platforms, err := json.Marshal(snap.Platforms)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize platforms: %w", err)
	}
	value, err := json.Marshal(snapshotRecord{
		Fused:      fused,
		Platforms:  platforms,
		Warning:    string(snap.Assessment.Warning),
		Simulated:  snap.Simulated,
		Confidence: snap.Fused.Confidence,
	})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize snapshot: %w", err)
	}

	return kafkago.Message{
		Key:   []byte(snap.Fused.CycleID),
		Value: value,
		Headers: []kafkago.Header{
			{Key: "strategy", Value: []byte(snap.Fused.Strategy)},
			{Key: "data_quality", Value: []byte(snap.Fused.DataQuality)},
			{Key: "fused_at", Value: []byte(snap.Fused.FusedAt.Format(time.RFC3339))},
		},
	}, nil
}
