// Package events publishes domain events for downstream consumers.
package events

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/oklog/ulid/v2"
	"github.com/oldski/sportsfestDashboard-sub002/internal/config"
	"github.com/segmentio/kafka-go"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	TypeOrderFulfilled    = "order.fulfilled"
	TypeOrderReconciled   = "order.reconciled"
	TypeRosterGenerated   = "roster.generated"
	TypePlayerTransferred = "player.transferred"
)

var Module = fx.Module("events",
	fx.Provide(NewPublisher),
)

type Event struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	OrgID      string         `json:"org_id"`
	OccurredAt time.Time      `json:"occurred_at"`
	Data       map[string]any `json:"data,omitempty"`
}

// New stamps an event with a ULID so consumers can order and dedupe it.
func New(eventType string, orgID snowflake.ID, at time.Time, data map[string]any) Event {
	return Event{
		ID:         ulid.MustNew(ulid.Timestamp(at), rand.Reader).String(),
		Type:       eventType,
		OrgID:      orgID.String(),
		OccurredAt: at.UTC(),
		Data:       data,
	}
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// messageWriter abstracts kafka.Writer for tests.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	writer messageWriter
	log    *zap.Logger
}

// NewPublisher publishes to kafka when brokers are configured and drops
// events otherwise.
func NewPublisher(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) Publisher {
	if len(cfg.KafkaBrokers) == 0 {
		log.Info("kafka disabled, domain events are dropped")
		return Noop{}
	}

	publisher := NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, log)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return publisher.Close()
		},
	})
	return publisher
}

func NewKafkaPublisher(brokers []string, topic string, log *zap.Logger) *KafkaPublisher {
	addrs := make([]string, 0, len(brokers))
	for _, b := range brokers {
		if b = strings.TrimSpace(b); b != "" {
			addrs = append(addrs, b)
		}
	}
	return NewKafkaPublisherWith(&kafka.Writer{
		Addr:         kafka.TCP(addrs...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 50 * time.Millisecond,
	}, log)
}

func NewKafkaPublisherWith(w messageWriter, log *zap.Logger) *KafkaPublisher {
	return &KafkaPublisher{writer: w, log: log.Named("events.kafka")}
}

// Publish keys messages by organization so one organization's events stay ordered.
func (k *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.OrgID),
		Value: body,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
			{Key: "event_id", Value: []byte(event.ID)},
		},
	}); err != nil {
		k.log.Warn("failed to publish event",
			zap.String("event_type", event.Type),
			zap.String("event_id", event.ID),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func (k *KafkaPublisher) Close() error {
	return k.writer.Close()
}

type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }
