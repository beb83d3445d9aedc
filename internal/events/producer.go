package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/Skotchmaster/shopfront/pkg/logging"
)

const (
	TopicUsers    = "user_events"
	TopicProducts = "product_events"
	TopicOrders   = "order_events"
)

const (
	UserSignedUp       = "user.signed_up"
	ProductCreated     = "product.created"
	ProductDeleted     = "product.deleted"
	ProductFeaturedSet = "product.featured_toggled"
	OrderCreated       = "order.created"
)

type Event struct {
	Type    string    `json:"type"`
	ID      string    `json:"id"`
	At      time.Time `json:"at"`
	Payload any       `json:"payload,omitempty"`
}

type Publisher interface {
	Publish(ctx context.Context, topic string, ev Event) error
	Close() error
}

// Writer is the part of kafka.Writer the producer uses.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	w Writer
}

func NewKafkaPublisher(brokers []string) *KafkaPublisher {
	return &KafkaPublisher{w: &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		BatchTimeout:           50 * time.Millisecond,
	}}
}

func NewKafkaPublisherWithWriter(w Writer) *KafkaPublisher {
	return &KafkaPublisher{w: w}
}

// Publish writes ev keyed by its entity id so one entity's events keep
// their order within a partition.
func (p *KafkaPublisher) Publish(ctx context.Context, topic string, ev Event) error {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	b, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("kafka: marshal %s: %w", ev.Type, err)
	}
	msg := kafka.Message{
		Topic: topic,
		Key:   []byte(ev.ID),
		Value: b,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(ev.Type)},
		},
	}
	if err := p.w.WriteMessages(ctx, msg); err != nil {
		logging.FromContext(ctx).Error("kafka_write_failed", "topic", topic, "type", ev.Type, "error", err)
		return fmt.Errorf("kafka: write %s: %w", topic, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.w.Close()
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, string, Event) error { return nil }
func (Nop) Close() error                                 { return nil }
