package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"inventory-service/config"
	"inventory-service/models"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	defaultPriority = 5
	deletePriority  = 8
)

type RabbitMQ struct {
	Conn    *amqp.Connection
	Channel *amqp.Channel
	Cfg     *config.Config

	mu sync.Mutex
}

func NewRabbitMQ(cfg *config.Config) (*RabbitMQ, error) {
	conn, err := amqp.Dial(cfg.RabbitMQURL)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	return &RabbitMQ{
		Conn:    conn,
		Channel: ch,
		Cfg:     cfg,
	}, nil
}

func (r *RabbitMQ) deadLetterExchange() string { return r.Cfg.DeadLetterQueue + "_exchange" }

// SetupQueues declares the dead-letter exchange and queue, then the order and
// alert fanout exchanges, each with a priority queue that dead-letters rejects.
func (r *RabbitMQ) SetupQueues() error {
	if err := r.Channel.ExchangeDeclare(
		r.deadLetterExchange(),
		"direct",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		return err
	}
	if _, err := r.Channel.QueueDeclare(
		r.Cfg.DeadLetterQueue,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		amqp.Table{"x-queue-type": "classic"},
	); err != nil {
		return err
	}
	if err := r.Channel.QueueBind(r.Cfg.DeadLetterQueue, r.Cfg.DeadLetterQueue, r.deadLetterExchange(), false, nil); err != nil {
		return err
	}

	for exchange, queue := range map[string]string{
		r.Cfg.OrderExchange: r.Cfg.OrderQueue,
		r.Cfg.AlertExchange: r.Cfg.AlertQueue,
	} {
		if err := r.declareFanout(exchange, queue); err != nil {
			return fmt.Errorf("declare %s: %w", exchange, err)
		}
	}
	return nil
}

func (r *RabbitMQ) declareFanout(exchange, queue string) error {
	if err := r.Channel.ExchangeDeclare(exchange, "fanout", true, false, false, false, nil); err != nil {
		return err
	}
	if _, err := r.Channel.QueueDeclare(
		queue,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		amqp.Table{
			"x-max-priority":            r.Cfg.MaxPriority,
			"x-dead-letter-exchange":    r.deadLetterExchange(),
			"x-dead-letter-routing-key": r.Cfg.DeadLetterQueue,
		},
	); err != nil {
		return err
	}
	return r.Channel.QueueBind(queue, "", exchange, false, nil)
}

// PublishOrderEvent sends a committed order change to the order exchange.
// Deletions jump the queue so restocked quantities are re-checked first.
func (r *RabbitMQ) PublishOrderEvent(ctx context.Context, evt models.OrderEvent) error {
	priority := defaultPriority
	if evt.Type == models.EventOrderDeleted {
		priority = deletePriority
	}
	return r.publishJSON(ctx, r.Cfg.OrderExchange, evt.EventID, string(evt.Type), priority, evt)
}

// NotifyLowStock sends a vendor notification to the alert exchange.
func (r *RabbitMQ) NotifyLowStock(ctx context.Context, n models.LowStockNotification) error {
	return r.publishJSON(ctx, r.Cfg.AlertExchange, uuid.NewString(), "low_stock", defaultPriority, n)
}

func (r *RabbitMQ) publishJSON(ctx context.Context, exchange, messageID, messageType string, priority int, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", messageType, err)
	}
	msg := amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		ContentType:  "application/json",
		MessageId:    messageID,
		Type:         messageType,
		Body:         body,
		Priority:     uint8(min(priority, r.Cfg.MaxPriority)),
	}

	// amqp channels are not safe for concurrent publishers
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Channel.PublishWithContext(ctx, exchange, "", false, false, msg)
}

func (r *RabbitMQ) Close() {
	if r.Channel != nil {
		_ = r.Channel.Close()
	}
	if r.Conn != nil {
		_ = r.Conn.Close()
	}
}
