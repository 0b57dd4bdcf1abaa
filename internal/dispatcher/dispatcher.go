// Package dispatcher delivers rendered notifications over the configured
// channels. Sends are rate limited globally and retried per channel.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"
	"golang.org/x/time/rate"

	"github.com/aliskhannn/scheduled-notifier/internal/notify"
)

var (
	ErrNoRoute        = errors.New("target has no route for any notification channel")
	ErrUnknownChannel = errors.New("unknown delivery channel")
)

//go:generate mockgen -source=dispatcher.go -destination=../mocks/dispatcher/mock.go -package=mocks

// Sender delivers a message to an address on one channel.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

type Dispatcher struct {
	senders  map[string]Sender
	strategy retry.Strategy
	log      zerolog.Logger

	mu      sync.RWMutex
	limiter *rate.Limiter
}

// New creates a dispatcher over senders keyed by channel name. A perSecond of
// zero or less disables rate limiting.
func New(senders map[string]Sender, strategy retry.Strategy, perSecond, burst int) *Dispatcher {
	if strategy.Attempts < 1 {
		strategy.Attempts = 1
	}

	return &Dispatcher{
		senders:  senders,
		strategy: strategy,
		log:      zlog.Logger.With().Str("component", "dispatcher").Logger(),
		limiter:  rate.NewLimiter(limitOf(perSecond), burstOf(perSecond, burst)),
	}
}

// SetRate changes the send rate at runtime.
func (d *Dispatcher) SetRate(perSecond, burst int) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.limiter.SetLimit(limitOf(perSecond))
	d.limiter.SetBurst(burstOf(perSecond, burst))

	d.log.Info().Int("rate", perSecond).Int("burst", burst).Msg("dispatch rate updated")
}

// Dispatch sends n to target on every channel the target can be reached on.
// It fails if any addressed channel fails, or if no channel could be addressed.
func (d *Dispatcher) Dispatch(ctx context.Context, target notify.Notifiable, n notify.Notification) error {
	delivered := 0

	for _, channel := range n.Channels() {
		to, ok := target.RouteNotificationFor(channel)
		if !ok {
			d.log.Debug().Str("channel", channel).Str("target_type", target.NotifiableType()).Msg("no route, skipping channel")
			continue
		}

		sender, ok := d.senders[channel]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownChannel, channel)
		}

		content, err := n.Render(channel, target)
		if err != nil {
			return fmt.Errorf("render %s notification: %w", channel, err)
		}

		if err := d.wait(ctx); err != nil {
			return fmt.Errorf("rate limit: %w", err)
		}

		err = retry.Do(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return sender.Send(ctx, to, content.Subject, content.Body)
		}, d.strategy)
		if err != nil {
			return fmt.Errorf("send via %s: %w", channel, err)
		}

		delivered++
		d.log.Debug().Str("channel", channel).Msg("notification delivered")
	}

	if delivered == 0 {
		return ErrNoRoute
	}

	return nil
}

func (d *Dispatcher) wait(ctx context.Context) error {
	d.mu.RLock()
	limiter := d.limiter
	d.mu.RUnlock()

	return limiter.Wait(ctx)
}

func limitOf(perSecond int) rate.Limit {
	if perSecond <= 0 {
		return rate.Inf
	}
	return rate.Limit(perSecond)
}

func burstOf(perSecond, burst int) int {
	if burst > 0 {
		return burst
	}
	if perSecond > 0 {
		return perSecond
	}
	return 1
}
