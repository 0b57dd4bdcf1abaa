package worker

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/scheduled-notifier/internal/model"
	"github.com/aliskhannn/scheduled-notifier/internal/rabbitmq/queue"
)

//go:generate mockgen -source=notifier.go -destination=../mocks/worker/mock.go -package=mocks

type notificationConsumer interface {
	Consume(ctx context.Context, out chan<- queue.NotificationMessage, strategy retry.Strategy) error
}

type messageHandler interface {
	HandleMessage(ctx context.Context, msg queue.NotificationMessage)
}

type notificationService interface {
	Status(ctx context.Context, id uuid.UUID) (string, error)
}

// Notifier runs a pool of workers that take due notifications off the queue
// and hand them to the message handler.
type Notifier struct {
	consumer notificationConsumer
	handler  messageHandler
	service  notificationService
}

func NewNotifier(c notificationConsumer, h messageHandler, s notificationService) *Notifier {
	return &Notifier{
		consumer: c,
		handler:  h,
		service:  s,
	}
}

func (n *Notifier) Run(ctx context.Context, strategy retry.Strategy, workerCount int) {
	if workerCount < 1 {
		workerCount = 1
	}

	log := zlog.Logger.With().Str("component", "notifier").Logger()

	var wg sync.WaitGroup
	msgChan := make(chan queue.NotificationMessage, workerCount*10)

	go func() {
		if err := n.consumer.Consume(ctx, msgChan, strategy); err != nil {
			log.Error().Err(err).Msg("failed to consume messages")
		}
	}()

	wg.Add(workerCount)
	for i := 0; i < workerCount; i++ {
		go func(id int) {
			defer wg.Done()

			log.Debug().Int("worker", id).Msg("worker started")

			for {
				select {
				case <-ctx.Done():
					log.Debug().Int("worker", id).Msg("worker shutting down")
					return
				case msg, ok := <-msgChan:
					if !ok {
						return
					}

					// The cache is a shortcut only; SendNow re-checks under a row lock.
					status, err := n.service.Status(ctx, msg.ID)
					if err != nil {
						log.Error().Err(err).Str("id", msg.ID.String()).Msg("failed to get notification status")
						continue
					}

					if status == model.StatusCancelled || status == model.StatusSent {
						log.Debug().Str("id", msg.ID.String()).Str("status", status).Msg("notification finished, skipping")
						continue
					}

					n.handler.HandleMessage(ctx, msg)
				}
			}
		}(i)
	}

	<-ctx.Done()
	wg.Wait()
	log.Info().Msg("notifier stopped")
}
