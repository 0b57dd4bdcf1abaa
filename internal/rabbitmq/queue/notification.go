package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/rabbitmq"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"
)

const (
	ExchangeName   = "scheduled-notifications"
	MainQueueName  = "scheduled-notifications.due"
	RetryQueueName = "scheduled-notifications.retry"
	DLQName        = "scheduled-notifications.dlq"
	RoutingKey     = "due"

	retryTTL = 5 * time.Second
)

// NotificationMessage announces that a scheduled notification is due. The
// record itself stays in the store; consumers load it by ID.
type NotificationMessage struct {
	ID     uuid.UUID `json:"id"`
	SendAt time.Time `json:"send_at"`
}

type NotificationQueue struct {
	Publisher *rabbitmq.Publisher
	Consumer  *rabbitmq.Consumer
}

// NewNotificationQueue declares the exchange, the main queue with its
// dead-letter queue and a retry queue that feeds back into the main queue.
func NewNotificationQueue(ch *rabbitmq.Channel) (*NotificationQueue, error) {
	exchange := rabbitmq.NewExchange(ExchangeName, "direct")
	if err := exchange.BindToChannel(ch); err != nil {
		return nil, fmt.Errorf("failed to bind to exchange: %w", err)
	}

	qm := rabbitmq.NewQueueManager(ch)

	_, err := qm.DeclareQueue(DLQName, rabbitmq.QueueConfig{Durable: true})
	if err != nil {
		return nil, fmt.Errorf("failed to declare DLQ queue: %w", err)
	}

	_, err = qm.DeclareQueue(RetryQueueName, rabbitmq.QueueConfig{
		Durable: true,
		Args: map[string]interface{}{
			"x-dead-letter-exchange":    "",
			"x-dead-letter-routing-key": MainQueueName,
			"x-message-ttl":             int32(retryTTL.Milliseconds()),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to declare retry queue: %w", err)
	}

	mainQ, err := qm.DeclareQueue(MainQueueName, rabbitmq.QueueConfig{
		Durable: true,
		Args: map[string]interface{}{
			"x-dead-letter-exchange":    "",
			"x-dead-letter-routing-key": DLQName,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to declare main queue: %w", err)
	}

	if err := ch.QueueBind(mainQ.Name, RoutingKey, exchange.Name(), false, nil); err != nil {
		return nil, fmt.Errorf("failed to bind the exchange to the main queue: %w", err)
	}

	pub := rabbitmq.NewPublisher(ch, exchange.Name())
	cons := rabbitmq.NewConsumer(ch, rabbitmq.NewConsumerConfig(mainQ.Name))

	return &NotificationQueue{Publisher: pub, Consumer: cons}, nil
}

func (q *NotificationQueue) Publish(msg NotificationMessage, strategy retry.Strategy) error {
	body, err := encode(msg)
	if err != nil {
		return err
	}

	return q.Publisher.PublishWithRetry(body, RoutingKey, "application/json", strategy)
}

// Consume delivers decoded messages to out until ctx is done. It blocks for
// as long as the underlying consumer runs.
func (q *NotificationQueue) Consume(ctx context.Context, out chan<- NotificationMessage, strategy retry.Strategy) error {
	msgChan := make(chan []byte)

	go decode(ctx, msgChan, out)

	return q.Consumer.ConsumeWithRetry(msgChan, strategy)
}

func encode(msg NotificationMessage) ([]byte, error) {
	body, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message: %w", err)
	}

	return body, nil
}

func decode(ctx context.Context, in <-chan []byte, out chan<- NotificationMessage) {
	for {
		select {
		case <-ctx.Done():
			return
		case body, ok := <-in:
			if !ok {
				return
			}

			var msg NotificationMessage
			if err := json.Unmarshal(body, &msg); err != nil {
				zlog.Logger.Error().Err(err).Msg("failed to unmarshal message")
				continue
			}
			if msg.ID == uuid.Nil {
				zlog.Logger.Warn().Msg("message without notification id, dropping")
				continue
			}

			select {
			case out <- msg:
			case <-ctx.Done():
				return
			}
		}
	}
}
