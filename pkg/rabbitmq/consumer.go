package rabbitmq

import (
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"
)

type Consumer struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

func NewConsumer(url string) (*Consumer, error) {
	conn, ch, err := dial(url)
	if err != nil {
		return nil, err
	}

	if err := declareDeadLetter(ch); err != nil {
		closeAll(ch, conn)
		return nil, err
	}

	// quorum queues track x-delivery-count and enforce the delivery limit
	q, err := ch.QueueDeclare(QueueName, true, false, false, false, amqp.Table{
		"x-queue-type":           "quorum",
		"x-delivery-limit":       MaxDeliver,
		"x-dead-letter-exchange": DeadLetterExchange,
	})
	if err != nil {
		closeAll(ch, conn)
		return nil, fmt.Errorf("rabbitmq queue declare: %w", err)
	}

	if err := ch.QueueBind(q.Name, BindingKey, ExchangeName, false, nil); err != nil {
		closeAll(ch, conn)
		return nil, fmt.Errorf("rabbitmq queue bind: %w", err)
	}

	// one unacked cleanup at a time per consumer
	if err := ch.Qos(1, 0, false); err != nil {
		closeAll(ch, conn)
		return nil, fmt.Errorf("rabbitmq qos: %w", err)
	}

	return &Consumer{conn: conn, channel: ch}, nil
}

func declareDeadLetter(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(DeadLetterExchange, "fanout", true, false, false, false, nil); err != nil {
		return fmt.Errorf("rabbitmq dead-letter exchange declare: %w", err)
	}
	if _, err := ch.QueueDeclare(DeadLetterQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("rabbitmq dead-letter queue declare: %w", err)
	}
	if err := ch.QueueBind(DeadLetterQueue, "", DeadLetterExchange, false, nil); err != nil {
		return fmt.Errorf("rabbitmq dead-letter queue bind: %w", err)
	}
	return nil
}

func (c *Consumer) Consume() (<-chan amqp.Delivery, error) {
	msgs, err := c.channel.Consume(
		QueueName,
		"",    // consumer tag
		false, // manual ack after the cleanup commits
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq consume: %w", err)
	}

	slog.Info("consuming from queue", "queue", QueueName, "binding", BindingKey)
	return msgs, nil
}

func (c *Consumer) Close() {
	closeAll(c.channel, c.conn)
}
