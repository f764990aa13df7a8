package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// confirmation is the broker's answer to one published message.
type confirmation interface {
	WaitContext(ctx context.Context) (bool, error)
}

// channel is the part of *amqp.Channel the publisher needs.
type channel interface {
	publish(ctx context.Context, exchange, key string, msg amqp.Publishing) (confirmation, error)
	Close() error
}

// amqpChannel ties each publish to its own deferred confirm.
type amqpChannel struct {
	*amqp.Channel
}

func (c amqpChannel) publish(ctx context.Context, exchange, key string, msg amqp.Publishing) (confirmation, error) {
	dc, err := c.PublishWithDeferredConfirmWithContext(ctx, exchange, key, false, false, msg)
	if err != nil {
		return nil, err
	}
	if dc == nil {
		return nil, errors.New("channel is not in confirm mode")
	}
	return dc, nil
}

// RabbitPublisher sends events to a durable topic exchange and waits for
// the broker's publisher confirm.
type RabbitPublisher struct {
	conn     *amqp.Connection
	ch       channel
	exchange string
}

func DialRabbit(url, exchange string) (*RabbitPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}

	// Включаем publisher confirms: каждое сообщение получает своё подтверждение
	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("enable confirms: %w", err)
	}

	return &RabbitPublisher{conn: conn, ch: amqpChannel{ch}, exchange: exchange}, nil
}

// Publish публикует событие и ждёт ack/nack от брокера.
func (p *RabbitPublisher) Publish(ctx context.Context, e StatusChanged) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	conf, err := p.ch.publish(ctx, p.exchange, e.RoutingKey(), amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		MessageId:    e.EventID,
		Type:         e.Type,
		Timestamp:    e.OccurredAt,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", e.RoutingKey(), err)
	}

	// ждём подтверждение именно этого сообщения или отмену контекста
	ack, err := conf.WaitContext(ctx)
	if err != nil {
		return err
	}
	if !ack {
		return errors.New("publish NACK from broker")
	}
	return nil
}

func (p *RabbitPublisher) Close() error {
	var errs []error
	if p.ch != nil {
		errs = append(errs, p.ch.Close())
	}
	if p.conn != nil {
		errs = append(errs, p.conn.Close())
	}
	return errors.Join(errs...)
}
