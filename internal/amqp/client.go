// Package amqp decouples transaction mutations from the offsite export:
// the tracker publishes lightweight messages and the sync worker consumes
// them at its own pace.
package amqp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

const (
	typeSync   = "transaction.sync"
	typeDelete = "transaction.delete"
)

type Client struct {
	conn         *amqp091.Connection
	channel      *amqp091.Channel
	exchangeName string
	queueName    string
}

func NewClient(url, exchangeName, queueName string) (*Client, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	client := &Client{
		conn:         conn,
		channel:      channel,
		exchangeName: exchangeName,
		queueName:    queueName,
	}
	if err := client.setup(); err != nil {
		client.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}
	return client, nil
}

func (c *Client) setup() error {
	err := c.channel.ExchangeDeclare(
		c.exchangeName,
		"direct",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	_, err = c.channel.QueueDeclare(
		c.queueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	// Routing key equals the queue name on a direct exchange.
	if err := c.channel.QueueBind(c.queueName, c.queueName, c.exchangeName, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	return nil
}

// PublishTransactionSync enqueues a sync request for one transaction.
func (c *Client) PublishTransactionSync(ctx context.Context, id string) error {
	body, err := NewSyncMessage(id).ToJSON()
	if err != nil {
		return fmt.Errorf("marshal sync message: %w", err)
	}
	return c.publish(ctx, typeSync, body)
}

// PublishTransactionDelete enqueues a delete request for one transaction.
func (c *Client) PublishTransactionDelete(ctx context.Context, id string) error {
	body, err := NewDeleteMessage(id).ToJSON()
	if err != nil {
		return fmt.Errorf("marshal delete message: %w", err)
	}
	return c.publish(ctx, typeDelete, body)
}

func (c *Client) publish(ctx context.Context, msgType string, body []byte) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := c.channel.PublishWithContext(
		ctx,
		c.exchangeName,
		c.queueName,
		false, // mandatory
		false, // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			Type:         msgType,
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish %s: %w", msgType, err)
	}

	slog.InfoContext(ctx, "Published message",
		"type", msgType,
		"exchange", c.exchangeName,
		"queue", c.queueName)
	return nil
}

// Consume blocks, dispatching queue messages to the handlers by type.
// Handler errors requeue the delivery; malformed or unknown messages are
// dropped so they cannot poison the queue.
func (c *Client) Consume(ctx context.Context, onSync func(context.Context, *SyncMessage) error, onDelete func(context.Context, *DeleteMessage) error) error {
	deliveries, err := c.channel.Consume(
		c.queueName,
		"",    // consumer
		false, // manual ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	slog.InfoContext(ctx, "Started consuming messages", "queue", c.queueName)

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Stopping message consumption", "reason", ctx.Err())
			return ctx.Err()
		case delivery, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("message channel closed")
			}
			err := c.dispatch(ctx, delivery, onSync, onDelete)
			switch {
			case err == nil:
				delivery.Ack(false)
			case errors.Is(err, errDropMessage):
				slog.WarnContext(ctx, "Dropping message",
					"type", delivery.Type,
					"error", err)
				delivery.Nack(false, false)
			default:
				slog.ErrorContext(ctx, "Failed to handle message, requeueing",
					"type", delivery.Type,
					"error", err)
				delivery.Nack(false, true)
			}
		}
	}
}

// errDropMessage marks deliveries that must not be requeued.
var errDropMessage = errors.New("drop message")

func (c *Client) dispatch(ctx context.Context, delivery amqp091.Delivery, onSync func(context.Context, *SyncMessage) error, onDelete func(context.Context, *DeleteMessage) error) error {
	switch delivery.Type {
	case typeSync:
		msg, err := SyncMessageFromJSON(delivery.Body)
		if err != nil {
			return fmt.Errorf("malformed sync message: %v: %w", err, errDropMessage)
		}
		return onSync(ctx, msg)
	case typeDelete:
		msg, err := DeleteMessageFromJSON(delivery.Body)
		if err != nil {
			return fmt.Errorf("malformed delete message: %v: %w", err, errDropMessage)
		}
		return onDelete(ctx, msg)
	default:
		return fmt.Errorf("unknown message type %q: %w", delivery.Type, errDropMessage)
	}
}

func (c *Client) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
