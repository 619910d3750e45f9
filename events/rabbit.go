package events

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Rabbit publishes events to a durable topic exchange, routed by event type.
type Rabbit struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
}

func NewRabbit(amqpURL, exchange string) (*Rabbit, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	return &Rabbit{conn: conn, channel: ch, exchange: exchange}, nil
}

func (r *Rabbit) Publish(ctx context.Context, e Event) error {
	body, err := Encode(e)
	if err != nil {
		return err
	}
	return r.channel.PublishWithContext(ctx,
		r.exchange,
		e.Type,
		false, false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			Timestamp:    e.OccurredAt,
			Type:         e.Type,
			DeliveryMode: amqp.Persistent,
		},
	)
}

func (r *Rabbit) Close() error {
	if err := r.channel.Close(); err != nil {
		r.conn.Close()
		return err
	}
	return r.conn.Close()
}

// Encode is the wire form of an event.
func Encode(e Event) ([]byte, error) {
	return json.Marshal(e)
}
