package queue

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/thesrcielos/TopCodeBattle/internal/logger"
)

var log = logger.NewNamedLogger("queue")

// Connection is a RabbitMQ connection with one channel bound to a durable queue.
type Connection struct {
	conn    *amqp.Connection
	Channel *amqp.Channel
	Queue   string
}

// Dial connects, opens a channel, declares the queue and limits unacknowledged
// deliveries to prefetch.
func Dial(url, queue string, prefetch int) (*Connection, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue %s: %w", queue, err)
	}
	if err := ch.Qos(prefetch, 0, false); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to set QoS: %w", err)
	}
	log.Infof("Connected to RabbitMQ, queue %s", queue)
	return &Connection{conn: conn, Channel: ch, Queue: queue}, nil
}

func (c *Connection) Close() {
	if err := c.Channel.Close(); err != nil {
		log.Warnw("Error closing channel", "error", err)
	}
	if err := c.conn.Close(); err != nil {
		log.Warnw("Error closing connection", "error", err)
	}
}
