package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/wb-go/wbf/retry"

	mocks "github.com/aliskhannn/scheduled-notifier/internal/mocks/worker"
	"github.com/aliskhannn/scheduled-notifier/internal/model"
	"github.com/aliskhannn/scheduled-notifier/internal/rabbitmq/queue"
)

func runNotifier(t *testing.T, n *Notifier, strategy retry.Strategy) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		n.Run(ctx, strategy, 1)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("notifier did not stop")
	}
}

func deliver(msg queue.NotificationMessage) func(context.Context, chan<- queue.NotificationMessage, retry.Strategy) error {
	return func(_ context.Context, out chan<- queue.NotificationMessage, _ retry.Strategy) error {
		out <- msg
		return nil
	}
}

func TestNotifier_Run_HandleMessage(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockConsumer := mocks.NewMocknotificationConsumer(ctrl)
	mockHandler := mocks.NewMockmessageHandler(ctrl)
	mockService := mocks.NewMocknotificationService(ctrl)

	n := NewNotifier(mockConsumer, mockHandler, mockService)

	strategy := retry.Strategy{Attempts: 1, Delay: time.Millisecond}
	msg := queue.NotificationMessage{ID: uuid.New(), SendAt: time.Now()}

	mockConsumer.EXPECT().Consume(gomock.Any(), gomock.Any(), strategy).DoAndReturn(deliver(msg))
	mockService.EXPECT().Status(gomock.Any(), msg.ID).Return(model.StatusPending, nil)
	mockHandler.EXPECT().HandleMessage(gomock.Any(), msg)

	runNotifier(t, n, strategy)
}

func TestNotifier_Run_SkipsFinished(t *testing.T) {
	for _, status := range []string{model.StatusCancelled, model.StatusSent} {
		t.Run(status, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockConsumer := mocks.NewMocknotificationConsumer(ctrl)
			mockHandler := mocks.NewMockmessageHandler(ctrl)
			mockService := mocks.NewMocknotificationService(ctrl)

			n := NewNotifier(mockConsumer, mockHandler, mockService)

			strategy := retry.Strategy{Attempts: 1, Delay: time.Millisecond}
			msg := queue.NotificationMessage{ID: uuid.New()}

			mockConsumer.EXPECT().Consume(gomock.Any(), gomock.Any(), strategy).DoAndReturn(deliver(msg))
			mockService.EXPECT().Status(gomock.Any(), msg.ID).Return(status, nil)

			runNotifier(t, n, strategy)
		})
	}
}

func TestNotifier_Run_GetStatusError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockConsumer := mocks.NewMocknotificationConsumer(ctrl)
	mockHandler := mocks.NewMockmessageHandler(ctrl)
	mockService := mocks.NewMocknotificationService(ctrl)

	n := NewNotifier(mockConsumer, mockHandler, mockService)

	strategy := retry.Strategy{Attempts: 1, Delay: time.Millisecond}
	msg := queue.NotificationMessage{ID: uuid.New()}

	mockConsumer.EXPECT().Consume(gomock.Any(), gomock.Any(), strategy).DoAndReturn(deliver(msg))
	mockService.EXPECT().Status(gomock.Any(), msg.ID).Return("", errors.New("db error"))

	runNotifier(t, n, strategy)
}

func TestNotifier_Run_ContextCancelled(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockConsumer := mocks.NewMocknotificationConsumer(ctrl)
	mockHandler := mocks.NewMockmessageHandler(ctrl)
	mockService := mocks.NewMocknotificationService(ctrl)

	n := NewNotifier(mockConsumer, mockHandler, mockService)

	ctx, cancel := context.WithCancel(context.Background())
	strategy := retry.Strategy{Attempts: 1, Delay: time.Millisecond}

	mockConsumer.EXPECT().Consume(gomock.Any(), gomock.Any(), strategy).DoAndReturn(
		func(ctx context.Context, out chan<- queue.NotificationMessage, _ retry.Strategy) error {
			<-ctx.Done()
			return nil
		},
	).AnyTimes()

	done := make(chan struct{})
	go func() {
		n.Run(ctx, strategy, 3)
		close(done)
	}()

	cancel()

	assert.Eventually(t, func() bool {
		select {
		case <-done:
			return true
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)
}
