package kafka

import (
	"context"
	"encoding/json"

	"grabeat/internal/models"

	"github.com/segmentio/kafka-go"
)

const (
	TopicOrderCreated       = "grabeat.order.created"
	TopicOrderStatusChanged = "grabeat.order.status_changed"
)

// RequiredTopics is ensured at startup.
var RequiredTopics = []string{
	TopicOrderCreated,
	TopicOrderStatusChanged,
}

type Producer struct {
	Writer *kafka.Writer
}

func NewProducer(brokers []string) *Producer {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Balancer: &kafka.LeastBytes{},
	}
	return &Producer{Writer: writer}
}

// Publish writes one message to the given topic.
func (p *Producer) Publish(topic, key string, value []byte) error {
	return p.Writer.WriteMessages(context.Background(),
		kafka.Message{
			Topic: topic,
			Key:   []byte(key),
			Value: value,
		},
	)
}

// PublishOrderCreated streams the order creation event.
func (p *Producer) PublishOrderCreated(order *models.Order) error {
	msgBytes, err := json.Marshal(order)
	if err != nil {
		return err
	}
	return p.Publish(TopicOrderCreated, order.ID, msgBytes)
}

// PublishOrderStatusChanged streams status transitions, including the
// ones applied by the payment webhook.
func (p *Producer) PublishOrderStatusChanged(order *models.Order) error {
	msgBytes, err := json.Marshal(order)
	if err != nil {
		return err
	}
	return p.Publish(TopicOrderStatusChanged, order.ID, msgBytes)
}

func (p *Producer) Close() error {
	return p.Writer.Close()
}

// NopProducer satisfies the publisher interfaces when Kafka is
// disabled by configuration.
type NopProducer struct{}

func (NopProducer) PublishOrderCreated(*models.Order) error       { return nil }
func (NopProducer) PublishOrderStatusChanged(*models.Order) error { return nil }
