// Package events mirrors committed audit entries to a Kafka topic so
// external observers can follow registry history without polling the
// database. The mirror is strictly one-way and best-effort: entries are
// produced after their transaction commits, and a failed produce is logged,
// never retried into registry state.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hashicorp/go-hclog"
	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/hashicorp-forge/docvault/pkg/models"
)

// Config holds Kafka publisher settings.
type Config struct {
	Brokers string
	Topic   string
}

// Publisher produces audit entries to Kafka. It satisfies the registry's
// AuditPublisher interface.
type Publisher struct {
	client *kgo.Client
	topic  string
	log    hclog.Logger
}

// NewPublisher creates a Kafka publisher for audit entries.
func NewPublisher(cfg Config, log hclog.Logger) (*Publisher, error) {
	if cfg.Brokers == "" {
		return nil, fmt.Errorf("kafka brokers are required")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("kafka topic is required")
	}
	if log == nil {
		log = hclog.NewNullLogger()
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka client: %w", err)
	}

	return &Publisher{
		client: client,
		topic:  cfg.Topic,
		log:    log,
	}, nil
}

// Publish produces the entry asynchronously, keyed by subject document ID so
// per-document history stays ordered within a partition.
func (p *Publisher) Publish(ctx context.Context, entry models.AuditEntry) {
	value, err := json.Marshal(entry)
	if err != nil {
		p.log.Error("failed to encode audit entry", "seq", entry.ID, "error", err)
		return
	}

	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(entry.DocID.String()),
		Value: value,
	}
	p.client.Produce(ctx, record, func(_ *kgo.Record, err error) {
		if err != nil {
			p.log.Error("failed to publish audit entry",
				"seq", entry.ID,
				"kind", entry.Kind,
				"error", err,
			)
		}
	})
}

// Close flushes buffered records and releases the client.
func (p *Publisher) Close(ctx context.Context) error {
	if err := p.client.Flush(ctx); err != nil {
		return fmt.Errorf("failed to flush kafka producer: %w", err)
	}
	p.client.Close()
	return nil
}
