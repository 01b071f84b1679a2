package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

const (
	TopicAccountCreated = `accounts.account-created`
	TopicOrderConfirmed = `orders.order-confirmed`
)

// AccountCreatedEvent announces a new registration.
type AccountCreatedEvent struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// OrderConfirmedEvent tells downstream consumers (warehouse) to decrement
// inventory for the frozen order lines.
type OrderConfirmedEvent struct {
	OrderID     int64                `json:"order_id"`
	CartID      int64                `json:"cart_id"`
	UserID      string               `json:"user_id"`
	TotalPrice  int64                `json:"total_price"`
	Items       []OrderConfirmedItem `json:"items"`
	ConfirmedAt time.Time            `json:"confirmed_at"`
}

type OrderConfirmedItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type Conf struct {
	client *kgo.Client
}

func NewConf(brokers string) (*Conf, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(strings.Split(brokers, ",")...),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka client: %w", err)
	}
	return &Conf{client: client}, nil
}

// Publish sends one event synchronously. Callers treat failures as
// best-effort and only log them; no request fails on a broker outage.
func (c *Conf) Publish(ctx context.Context, topic string, key string, event any) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event for %s: %w", topic, err)
	}

	record := &kgo.Record{
		Topic: topic,
		Key:   []byte(key),
		Value: value,
	}
	if err := c.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("failed to produce to %s: %w", topic, err)
	}
	return nil
}

func (c *Conf) Close() {
	c.client.Close()
}
