package internal

import (
	"context"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Routing keys of the order topic exchange.
const (
	keyOrderPlaced    = "order.placed.event"
	keyOrderCancelled = "order.cancelled.event"
	keyOrderPaid      = "order.paid.event"
	keyOrderFulfilled = "order.fulfilled.event"
)

type RabbitMQ interface {
	Publish(ctx context.Context, routingKey string, msg amqp.Publishing) error
	Subscribe(ctx context.Context, queue, key string) (<-chan amqp.Delivery, error)
}

type rabbitMQ struct {
	conn     *amqp.Connection
	exchange string
}

func NewRabbitMQ(conn *amqp.Connection, exchange string) RabbitMQ {
	return &rabbitMQ{conn: conn, exchange: exchange}
}

// routing key example i.e order.placed.event
func (r *rabbitMQ) Publish(ctx context.Context, routingKey string, msg amqp.Publishing) error {

	ch, err := r.conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	if err := r.declareExchange(ch); err != nil {
		return err
	}

	return ch.PublishWithContext(
		ctx,
		r.exchange, // exchange
		routingKey, // routing key
		false,      // mandatory
		false,      // immediate
		msg,
	)
}

func (r *rabbitMQ) Subscribe(ctx context.Context, queue, key string) (<-chan amqp.Delivery, error) {

	ch, err := r.conn.Channel()
	if err != nil {
		return nil, err
	}

	if err := r.declareExchange(ch); err != nil {
		return nil, err
	}

	q, err := ch.QueueDeclare(
		queue, // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return nil, err
	}

	err = ch.QueueBind(
		q.Name,     // queue name
		key,        // routing key
		r.exchange, // exchange
		false,      // no-wait
		nil,        // arguments
	)
	if err != nil {
		return nil, err
	}

	return ch.ConsumeWithContext(
		ctx,
		q.Name,          // queue
		"order_service", // consumer
		false,           // auto-ack
		false,           // exclusive
		false,           // no-local
		false,           // no-wait
		nil,             // arguments
	)
}

func (r *rabbitMQ) declareExchange(ch *amqp.Channel) error {
	return ch.ExchangeDeclare(
		r.exchange, // name
		"topic",    // type
		true,       // durable
		false,      // auto-deleted
		false,      // internal
		false,      // no-wait
		nil,        // arguments
	)
}

// discardRabbitMQ is used when no broker is configured. Events are logged
// and dropped; nothing is ever delivered.
type discardRabbitMQ struct{}

func NewDiscardRabbitMQ() RabbitMQ { return discardRabbitMQ{} }

func (discardRabbitMQ) Publish(ctx context.Context, routingKey string, msg amqp.Publishing) error {
	slog.Debug("event dropped, no broker configured", "routingKey", routingKey)
	return nil
}

func (discardRabbitMQ) Subscribe(ctx context.Context, queue, key string) (<-chan amqp.Delivery, error) {
	deliveries := make(chan amqp.Delivery)
	go func() {
		<-ctx.Done()
		close(deliveries)
	}()
	return deliveries, nil
}
