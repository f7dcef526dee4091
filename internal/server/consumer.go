package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"garasiku/internal/intake"
	"garasiku/pkg/domain"
)

const reconnectDelay = 5 * time.Second

// OutboundMessage is the reply envelope published for the gateway to send
// back over WhatsApp.
type OutboundMessage struct {
	TenantID string `json:"tenantId"`
	User     string `json:"user"`
	Text     string `json:"text"`
}

// Consumer drains the inbound message queue and publishes replies. It is the
// queue-backed twin of the webhook endpoint: same pipeline, at-least-once
// delivery instead of request/response.
type Consumer struct {
	url      string
	inQueue  string
	outQueue string
	pipeline *intake.Pipeline
}

// NewConsumer constructs the AMQP consumer.
func NewConsumer(url, inQueue, outQueue string, pipeline *intake.Pipeline) *Consumer {
	return &Consumer{url: url, inQueue: inQueue, outQueue: outQueue, pipeline: pipeline}
}

// Run consumes until ctx is cancelled, reconnecting on broker failures.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		err := c.consume(ctx)
		if ctx.Err() != nil {
			return nil
		}
		slog.Error("amqp consume", "queue", c.inQueue, "err", err)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(reconnectDelay):
		}
	}
}

func (c *Consumer) consume(ctx context.Context) error {
	conn, err := amqp.Dial(c.url)
	if err != nil {
		return fmt.Errorf("dial amqp: %w", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()

	for _, queue := range []string{c.inQueue, c.outQueue} {
		if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare queue %s: %w", queue, err)
		}
	}
	if err := ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("set qos: %w", err)
	}
	deliveries, err := ch.Consume(c.inQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}
	slog.Info("amqp consumer started", "queue", c.inQueue)

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("delivery channel closed")
			}
			c.handleDelivery(ctx, ch, d)
		}
	}
}

func (c *Consumer) handleDelivery(ctx context.Context, ch *amqp.Channel, d amqp.Delivery) {
	var msg domain.InboundMessage
	if err := json.Unmarshal(d.Body, &msg); err != nil {
		slog.Warn("drop malformed inbound message", "err", err)
		_ = d.Nack(false, false)
		return
	}
	if msg.TenantID == "" || msg.User == "" {
		slog.Warn("drop inbound message without tenant or user")
		_ = d.Nack(false, false)
		return
	}

	reply := c.pipeline.Handle(ctx, msg)
	if reply != "" {
		if err := c.publishReply(ctx, ch, OutboundMessage{
			TenantID: msg.TenantID,
			User:     msg.User,
			Text:     reply,
		}); err != nil {
			slog.Error("publish reply", "tenant", msg.TenantID, "err", err)
			// Redeliver so the reply is not lost.
			_ = d.Nack(false, true)
			return
		}
	}
	_ = d.Ack(false)
}

func (c *Consumer) publishReply(ctx context.Context, ch *amqp.Channel, out OutboundMessage) error {
	body, err := json.Marshal(out)
	if err != nil {
		return fmt.Errorf("marshal outbound message: %w", err)
	}
	return ch.PublishWithContext(ctx, "", c.outQueue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
}
