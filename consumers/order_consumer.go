package consumers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"inventory-service/config"
	"inventory-service/models"

	amqp "github.com/rabbitmq/amqp091-go"
)

// StockChecker re-evaluates the stock alerts of products an order touched.
type StockChecker interface {
	CheckProducts(ctx context.Context, accountID int64, productIDs []int64) (int, error)
}

const handleTimeout = 10 * time.Second

// StartOrderConsumer consumes order events and the dead-letter queue until the
// channel closes.
func StartOrderConsumer(ch *amqp.Channel, cfg *config.Config, checker StockChecker) error {
	msgs, err := ch.Consume(
		cfg.OrderQueue,
		"inventory-service", // consumer tag
		false,               // auto-ack
		false,               // exclusive
		false,               // no-local
		false,               // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("register order consumer: %w", err)
	}

	go func() {
		for msg := range msgs {
			processOrderMessage(msg, checker)
		}
	}()

	dlqMsgs, err := ch.Consume(
		cfg.DeadLetterQueue,
		"inventory-service-dlq",
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		log.Printf("Failed to register DLQ consumer: %v", err)
		return nil
	}

	go func() {
		for msg := range dlqMsgs {
			processDeadLetterMessage(msg)
		}
	}()
	return nil
}

// Acknowledger is the part of amqp.Delivery the handlers settle messages with.
type Acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

func processOrderMessage(msg amqp.Delivery, checker StockChecker) {
	handleOrderEvent(msg.Body, msg, checker)
}

// handleOrderEvent acks processed events and dead-letters the rest.
func handleOrderEvent(body []byte, ack Acknowledger, checker StockChecker) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic in message processing: %v", r)
			_ = ack.Nack(false, false)
		}
	}()

	var evt models.OrderEvent
	if err := json.Unmarshal(body, &evt); err != nil || evt.AccountID <= 0 {
		log.Printf("Invalid order event: %s", body)
		_ = ack.Nack(false, false)
		return
	}
	log.Printf("Processing order event: ID=%d, Type=%s", evt.OrderID, evt.Type)

	ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
	defer cancel()
	sent, err := checker.CheckProducts(ctx, evt.AccountID, evt.ProductIDs)
	if err != nil {
		log.Printf("Stock alert check failed for order %d: %v", evt.OrderID, err)
		_ = ack.Nack(false, false)
		return
	}
	if sent > 0 {
		log.Printf("Order %d triggered %d low stock notifications", evt.OrderID, sent)
	}
	_ = ack.Ack(false)
}

func processDeadLetterMessage(msg amqp.Delivery) {
	log.Printf("Received dead letter: type=%s id=%s body=%s", msg.Type, msg.MessageId, msg.Body)
	_ = msg.Ack(false)
}
