package worker

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/retry"

	svcmocks "github.com/aliskhannn/scheduled-notifier/internal/mocks/service/notification"
	mocks "github.com/aliskhannn/scheduled-notifier/internal/mocks/worker"
	"github.com/aliskhannn/scheduled-notifier/internal/notify"
	"github.com/aliskhannn/scheduled-notifier/internal/rabbitmq/queue"
	repo "github.com/aliskhannn/scheduled-notifier/internal/repository/notification"
	"github.com/aliskhannn/scheduled-notifier/internal/service/notification"
)

// scheduled creates count pending notifications in a throwaway store.
func scheduled(t *testing.T, count int) []*notification.ScheduledNotification {
	t.Helper()

	ctx := context.Background()
	ctrl := gomock.NewController(t)

	cache := svcmocks.NewMockcache(ctrl)
	cache.EXPECT().SetWithRetry(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	db, err := repo.OpenSQLite(ctx, ":memory:", 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Master.Close() })

	r := repo.NewRepository(db, repo.SQLite)
	require.NoError(t, r.EnsureSchema(ctx))

	svc := notification.NewService(r, notify.NewJSONCodec(), nil, cache, retry.Strategy{Attempts: 1})

	out := make([]*notification.ScheduledNotification, 0, count)
	for i := 0; i < count; i++ {
		target := &notify.Recipient{ID: fmt.Sprint(i), Email: "user@example.com"}
		msg := &notify.Message{Text: "hi", Via: []string{notify.ChannelEmail}}

		n, err := svc.Create(ctx, target, msg, time.Now().Add(time.Hour))
		require.NoError(t, err)
		out = append(out, n)
	}

	return out
}

func TestScanner_Scan(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	source := mocks.NewMockdueSource(ctrl)
	publisher := mocks.NewMocknotificationPublisher(ctrl)
	strategy := retry.Strategy{Attempts: 1}

	s := NewScanner(source, publisher, time.Second, strategy)
	due := scheduled(t, 2)

	source.EXPECT().Due(gomock.Any()).Return(due, nil).Times(2)
	for _, n := range due {
		publisher.EXPECT().Publish(queue.NotificationMessage{ID: n.ID(), SendAt: n.SendAt()}, strategy).Return(nil)
	}

	count, err := s.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	// still in flight, not republished
	count, err = s.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestScanner_Scan_RepublishesAfterHoldoff(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	source := mocks.NewMockdueSource(ctrl)
	publisher := mocks.NewMocknotificationPublisher(ctrl)

	s := NewScanner(source, publisher, time.Second, retry.Strategy{})
	due := scheduled(t, 1)

	source.EXPECT().Due(gomock.Any()).Return(due, nil).Times(2)
	publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil).Times(2)

	_, err := s.Scan(context.Background())
	require.NoError(t, err)

	later := time.Now().Add(time.Hour)
	s.now = func() time.Time { return later }

	count, err := s.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestScanner_Scan_PublishError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	source := mocks.NewMockdueSource(ctrl)
	publisher := mocks.NewMocknotificationPublisher(ctrl)

	s := NewScanner(source, publisher, time.Second, retry.Strategy{})
	due := scheduled(t, 1)

	source.EXPECT().Due(gomock.Any()).Return(due, nil).Times(2)
	gomock.InOrder(
		publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(errors.New("broker down")),
		publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil),
	)

	count, err := s.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	count, err = s.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestScanner_Scan_SourceError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	source := mocks.NewMockdueSource(ctrl)
	publisher := mocks.NewMocknotificationPublisher(ctrl)

	s := NewScanner(source, publisher, time.Second, retry.Strategy{})

	source.EXPECT().Due(gomock.Any()).Return(nil, errors.New("db down"))

	_, err := s.Scan(context.Background())
	assert.Error(t, err)
}

func TestScanner_Run(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	source := mocks.NewMockdueSource(ctrl)
	publisher := mocks.NewMocknotificationPublisher(ctrl)

	s := NewScanner(source, publisher, time.Second, retry.Strategy{})
	due := scheduled(t, 1)

	var published int32
	source.EXPECT().Due(gomock.Any()).Return(due, nil).MinTimes(1)
	publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).DoAndReturn(
		func(queue.NotificationMessage, retry.Strategy) error {
			atomic.AddInt32(&published, 1)
			return nil
		},
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return atomic.LoadInt32(&published) == 1 }, 3*time.Second, 50*time.Millisecond)

	cancel()
	<-done
}
