package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/scheduled-notifier/internal/rabbitmq/queue"
	"github.com/aliskhannn/scheduled-notifier/internal/service/notification"
)

//go:generate mockgen -source=scanner.go -destination=../mocks/worker/scanner_mock.go -package=mocks

type dueSource interface {
	Due(ctx context.Context) ([]*notification.ScheduledNotification, error)
}

type notificationPublisher interface {
	Publish(msg queue.NotificationMessage, strategy retry.Strategy) error
}

// Scanner periodically looks up due notifications and publishes them to the
// queue. A record is not republished while an earlier announcement of it may
// still be in flight.
type Scanner struct {
	source    dueSource
	publisher notificationPublisher
	strategy  retry.Strategy
	interval  time.Duration
	holdoff   time.Duration
	log       zerolog.Logger

	mu        sync.Mutex
	published map[uuid.UUID]time.Time
	now       func() time.Time
}

func NewScanner(source dueSource, publisher notificationPublisher, interval time.Duration, strategy retry.Strategy) *Scanner {
	if interval < time.Second {
		interval = time.Second
	}

	return &Scanner{
		source:    source,
		publisher: publisher,
		strategy:  strategy,
		interval:  interval,
		holdoff:   10 * interval,
		log:       zlog.Logger.With().Str("component", "scanner").Logger(),
		published: make(map[uuid.UUID]time.Time),
		now:       time.Now,
	}
}

// Run scans every interval until ctx is done. Overlapping scans are skipped.
func (s *Scanner) Run(ctx context.Context) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))

	c.Schedule(cron.Every(s.interval), cron.FuncJob(func() {
		n, err := s.Scan(ctx)
		if err != nil {
			s.log.Error().Err(err).Msg("scan failed")
			return
		}
		if n > 0 {
			s.log.Info().Int("published", n).Msg("due notifications published")
		}
	}))

	s.log.Info().Dur("interval", s.interval).Msg("scanner started")
	c.Start()

	<-ctx.Done()
	<-c.Stop().Done()
	s.log.Info().Msg("scanner stopped")
}

// Scan publishes the currently due notifications once and returns how many
// messages were published.
func (s *Scanner) Scan(ctx context.Context) (int, error) {
	due, err := s.source.Due(ctx)
	if err != nil {
		return 0, fmt.Errorf("find due notifications: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for id, at := range s.published {
		if now.Sub(at) > s.holdoff {
			delete(s.published, id)
		}
	}

	published := 0
	for _, n := range due {
		if _, ok := s.published[n.ID()]; ok {
			continue
		}

		msg := queue.NotificationMessage{ID: n.ID(), SendAt: n.SendAt()}
		if err := s.publisher.Publish(msg, s.strategy); err != nil {
			s.log.Error().Err(err).Str("id", n.ID().String()).Msg("failed to publish notification")
			continue
		}

		s.published[n.ID()] = now
		published++
	}

	return published, nil
}
