// Package events publishes order lifecycle events.
package events

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"storefront/model"

	"github.com/segmentio/kafka-go"
)

const (
	// batchTimeout bounds how long one event waits in the writer batch.
	batchTimeout   = 10 * time.Millisecond
	publishTimeout = 3 * time.Second
)

const (
	TypeOrderCreated       = "order.created"
	TypeOrderStatusChanged = "order.status_changed"
)

type OrderEvent struct {
	Type       string            `json:"type"`
	OrderID    string            `json:"orderId"`
	Reference  string            `json:"reference"`
	UserID     string            `json:"userId"`
	Status     model.OrderStatus `json:"status"`
	FromStatus model.OrderStatus `json:"fromStatus,omitempty"`
	Items      []model.OrderItem `json:"items,omitempty"`
	OccurredAt time.Time         `json:"occurredAt"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	writer messageWriter
	now    func() time.Time
}

// ParseBrokers splits a comma separated broker list.
func ParseBrokers(csv string) []string {
	brokers := []string{}
	for _, b := range strings.Split(csv, ",") {
		b = strings.TrimSpace(b)
		if b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			BatchTimeout: batchTimeout,
			WriteTimeout: publishTimeout,
			MaxAttempts:  3,
		},
		now: time.Now,
	}
}

func (p *KafkaPublisher) OrderCreated(ctx context.Context, o *model.Order) error {
	return p.publish(ctx, OrderEvent{
		Type:       TypeOrderCreated,
		OrderID:    o.ID,
		Reference:  o.Reference,
		UserID:     o.UserID,
		Status:     o.Status,
		Items:      o.Items,
		OccurredAt: p.now().UTC(),
	})
}

func (p *KafkaPublisher) OrderStatusChanged(ctx context.Context, o *model.Order, from model.OrderStatus) error {
	return p.publish(ctx, OrderEvent{
		Type:       TypeOrderStatusChanged,
		OrderID:    o.ID,
		Reference:  o.Reference,
		UserID:     o.UserID,
		Status:     o.Status,
		FromStatus: from,
		OccurredAt: p.now().UTC(),
	})
}

// publish keys messages by order id so one order's events stay on one partition.
func (p *KafkaPublisher) publish(ctx context.Context, event OrderEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	return p.writer.WriteMessages(ctx, kafka.Message{Key: []byte(event.OrderID), Value: data, Time: event.OccurredAt})
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NopPublisher drops every event. It is used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) OrderCreated(context.Context, *model.Order) error { return nil }

func (NopPublisher) OrderStatusChanged(context.Context, *model.Order, model.OrderStatus) error {
	return nil
}

func (NopPublisher) Close() error { return nil }
