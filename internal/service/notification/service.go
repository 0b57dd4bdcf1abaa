package notification

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/scheduled-notifier/internal/model"
	"github.com/aliskhannn/scheduled-notifier/internal/notify"
	"github.com/aliskhannn/scheduled-notifier/internal/repository/notification"
)

//go:generate mockgen -source=service.go -destination=../../mocks/service/notification/mock.go -package=mocks

type notificationRepository interface {
	Create(ctx context.Context, n model.ScheduledNotification) (model.ScheduledNotification, error)
	FindByID(ctx context.Context, id uuid.UUID) (model.ScheduledNotification, error)
	FindByType(ctx context.Context, notificationType string, includeSent bool) ([]model.ScheduledNotification, error)
	FindAll(ctx context.Context, includeSent bool) ([]model.ScheduledNotification, error)
	FindByTarget(ctx context.Context, target model.TargetKey) ([]model.ScheduledNotification, error)
	FindDue(ctx context.Context, from, until time.Time, limit int) ([]model.ScheduledNotification, error)
	UpdateFields(ctx context.Context, id uuid.UUID, guard model.Guard, fields model.Fields) (model.ScheduledNotification, error)
	Transition(ctx context.Context, id uuid.UUID, fn func(model.ScheduledNotification) (model.Fields, error)) (model.ScheduledNotification, error)
	Replicate(ctx context.Context, id uuid.UUID, sendAt time.Time) (model.ScheduledNotification, error)
	CancelByTarget(ctx context.Context, target model.TargetKey, at time.Time) (int64, error)
}

// Codec turns targets and notifications into opaque payloads and back.
type Codec interface {
	EncodeTarget(target notify.Notifiable) ([]byte, error)
	DecodeTarget(typ string, data []byte) (notify.Notifiable, error)
	EncodeNotification(n notify.Notification) ([]byte, error)
	DecodeNotification(typ string, data []byte) (notify.Notification, error)
}

// Dispatcher delivers a notification to a target. A nil error means the
// delivery is confirmed.
type Dispatcher interface {
	Dispatch(ctx context.Context, target notify.Notifiable, n notify.Notification) error
}

type cache interface {
	SetWithRetry(ctx context.Context, strategy retry.Strategy, key string, value interface{}) error
	GetWithRetry(ctx context.Context, strategy retry.Strategy, key string) (string, error)
}

const (
	DefaultSendTolerance = 24 * time.Hour
	DefaultBatchSize     = 100
)

// Option configures a Service.
type Option func(*Service)

// WithSendTolerance sets how far in the past a pending notification may be
// and still be picked up by Due.
func WithSendTolerance(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.sendTolerance = d
		}
	}
}

// WithBatchSize caps the number of records returned by Due.
func WithBatchSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// Service controls the lifecycle of scheduled notifications: it creates them,
// looks them up and moves them through their sent, cancelled and rescheduled
// states.
type Service struct {
	repo       notificationRepository
	codec      Codec
	dispatcher Dispatcher
	cache      cache
	strategy   retry.Strategy

	sendTolerance time.Duration
	batchSize     int
	now           func() time.Time
}

func NewService(
	repo notificationRepository,
	codec Codec,
	dispatcher Dispatcher,
	cache cache,
	strategy retry.Strategy,
	opts ...Option,
) *Service {
	s := &Service{
		repo:          repo,
		codec:         codec,
		dispatcher:    dispatcher,
		cache:         cache,
		strategy:      strategy,
		sendTolerance: DefaultSendTolerance,
		batchSize:     DefaultBatchSize,
		now:           time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Create schedules n for target at sendAt.
func (s *Service) Create(ctx context.Context, target notify.Notifiable, n notify.Notification, sendAt time.Time) (*ScheduledNotification, error) {
	if isNil(target) {
		return nil, schedulingError("target", "target is not notifiable")
	}
	if target.NotifiableType() == "" {
		return nil, schedulingError("target", "target type is empty")
	}
	if isNil(n) {
		return nil, schedulingError("notification", "notification is required")
	}
	if n.NotificationType() == "" {
		return nil, schedulingError("notification", "notification type is empty")
	}
	if err := s.validateSendAt(sendAt); err != nil {
		return nil, err
	}

	targetPayload, err := s.codec.EncodeTarget(target)
	if err != nil {
		return nil, schedulingError("target", "%v", err)
	}

	notificationPayload, err := s.codec.EncodeNotification(n)
	if err != nil {
		return nil, schedulingError("notification", "%v", err)
	}

	record, err := s.repo.Create(ctx, model.ScheduledNotification{
		Target:              targetKey(target),
		TargetPayload:       targetPayload,
		NotificationType:    n.NotificationType(),
		NotificationPayload: notificationPayload,
		SendAt:              sendAt,
	})
	if err != nil {
		return nil, fmt.Errorf("create notification: %w", err)
	}

	s.cacheStatus(ctx, record)

	return s.wrap(record), nil
}

// Find returns the notification with the given id or ErrNotificationNotFound.
func (s *Service) Find(ctx context.Context, id uuid.UUID) (*ScheduledNotification, error) {
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find notification: %w", err)
	}

	return s.wrap(record), nil
}

// FindByType returns notifications of the given type. Sent notifications are
// only included when includeSent is set.
func (s *Service) FindByType(ctx context.Context, notificationType string, includeSent bool) ([]*ScheduledNotification, error) {
	records, err := s.repo.FindByType(ctx, notificationType, includeSent)
	if err != nil {
		return nil, fmt.Errorf("find notifications by type: %w", err)
	}

	return s.wrapAll(records), nil
}

// All returns every notification. Sent notifications are only included when
// includeSent is set.
func (s *Service) All(ctx context.Context, includeSent bool) ([]*ScheduledNotification, error) {
	records, err := s.repo.FindAll(ctx, includeSent)
	if err != nil {
		return nil, fmt.Errorf("get all notifications: %w", err)
	}

	return s.wrapAll(records), nil
}

// FindByTarget returns every notification addressed to target.
func (s *Service) FindByTarget(ctx context.Context, target notify.Notifiable) ([]*ScheduledNotification, error) {
	if isNil(target) {
		return nil, schedulingError("target", "target is not notifiable")
	}

	records, err := s.repo.FindByTarget(ctx, targetKey(target))
	if err != nil {
		return nil, fmt.Errorf("find notifications by target: %w", err)
	}

	return s.wrapAll(records), nil
}

// CancelByTarget cancels every pending notification of target and returns
// how many were cancelled.
func (s *Service) CancelByTarget(ctx context.Context, target notify.Notifiable) (int64, error) {
	if isNil(target) {
		return 0, schedulingError("target", "target is not notifiable")
	}

	key := targetKey(target)
	at := model.Timestamp(s.now())

	count, err := s.repo.CancelByTarget(ctx, key, at)
	if err != nil {
		return 0, fmt.Errorf("cancel notifications by target: %w", err)
	}

	if count > 0 {
		s.refreshCancelled(ctx, key, at)
	}

	return count, nil
}

// Cancel cancels a pending notification. Cancelling a cancelled notification
// is a no-op.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) error {
	_, err := s.cancel(ctx, id)
	return err
}

// SendNow dispatches the notification immediately and marks it sent once the
// dispatcher confirms delivery. A notification that asks to be interrupted is
// cancelled instead.
func (s *Service) SendNow(ctx context.Context, id uuid.UUID) error {
	_, err := s.send(ctx, id, nil)
	return err
}

// SendDue sends the notification only if it is still due at sendAt, the send
// time it was announced with. A record moved to another time in the meantime
// is left alone and ErrNotificationNotDue is returned.
func (s *Service) SendDue(ctx context.Context, id uuid.UUID, sendAt time.Time) error {
	_, err := s.send(ctx, id, &sendAt)
	return err
}

// Reschedule moves the notification to sendAt. Without force only pending
// notifications can be moved. With force the send time of a sent or
// cancelled record is overwritten while its terminal timestamps are kept.
func (s *Service) Reschedule(ctx context.Context, id uuid.UUID, sendAt time.Time, force bool) (*ScheduledNotification, error) {
	record, err := s.reschedule(ctx, id, sendAt, force)
	if err != nil {
		return nil, err
	}

	return s.wrap(record), nil
}

// ScheduleAgainAt creates a new pending notification with the same target and
// payload, due at sendAt. The original is marked rescheduled.
func (s *Service) ScheduleAgainAt(ctx context.Context, id uuid.UUID, sendAt time.Time) (*ScheduledNotification, error) {
	if err := s.validateSendAt(sendAt); err != nil {
		return nil, err
	}

	successor, err := s.repo.Replicate(ctx, id, sendAt)
	if err != nil {
		return nil, fmt.Errorf("schedule notification again: %w", err)
	}

	s.cacheStatus(ctx, successor)

	return s.wrap(successor), nil
}

// Status returns the status of the notification, served from the cache when possible.
func (s *Service) Status(ctx context.Context, id uuid.UUID) (string, error) {
	status, err := s.cache.GetWithRetry(ctx, s.strategy, id.String())
	if err == nil {
		return status, nil
	}

	if !isCacheMiss(err) {
		zlog.Logger.Error().Err(err).Str("id", id.String()).Msg("failed to get notification status from cache")
	}

	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return "", fmt.Errorf("get notification status: %w", err)
	}

	s.cacheStatus(ctx, record)

	return model.StatusOf(record), nil
}

// Due returns pending notifications whose send time has come, skipping those
// overdue by more than the send tolerance.
func (s *Service) Due(ctx context.Context) ([]*ScheduledNotification, error) {
	now := s.now()

	records, err := s.repo.FindDue(ctx, now.Add(-s.sendTolerance), now, s.batchSize)
	if err != nil {
		return nil, fmt.Errorf("find due notifications: %w", err)
	}

	return s.wrapAll(records), nil
}

func (s *Service) cancel(ctx context.Context, id uuid.UUID) (model.ScheduledNotification, error) {
	at := s.now()

	record, err := s.repo.UpdateFields(ctx, id, model.GuardPending, model.Fields{CancelledAt: &at})
	if errors.Is(err, notification.ErrGuardRejected) {
		if record.IsSent() {
			return record, ErrNotificationAlreadySent
		}
		return record, nil
	}
	if err != nil {
		return model.ScheduledNotification{}, fmt.Errorf("cancel notification: %w", err)
	}

	s.cacheStatus(ctx, record)

	return record, nil
}

func (s *Service) send(ctx context.Context, id uuid.UUID, due *time.Time) (model.ScheduledNotification, error) {
	interrupted := false

	record, err := s.repo.Transition(ctx, id, func(current model.ScheduledNotification) (model.Fields, error) {
		if err := terminalError(current); err != nil {
			return model.Fields{}, err
		}

		if due != nil && !isDue(current, *due, s.now()) {
			return model.Fields{}, ErrNotificationNotDue
		}

		target, n, err := s.decode(current)
		if err != nil {
			return model.Fields{}, err
		}

		if in, ok := n.(notify.Interrupter); ok && in.ShouldInterrupt(target) {
			interrupted = true
			at := s.now()
			return model.Fields{CancelledAt: &at}, nil
		}

		if err := s.dispatcher.Dispatch(ctx, target, n); err != nil {
			return model.Fields{}, fmt.Errorf("dispatch notification: %w", err)
		}

		at := s.now()
		return model.Fields{SentAt: &at}, nil
	})
	if err != nil {
		if errors.Is(err, ErrNotificationAlreadySent) ||
			errors.Is(err, ErrNotificationCancelled) ||
			errors.Is(err, ErrNotificationNotDue) {
			return record, err
		}
		return record, fmt.Errorf("send notification: %w", err)
	}

	if interrupted {
		zlog.Logger.Info().Str("id", id.String()).Msg("notification interrupted, cancelled instead of sent")
	}

	s.cacheStatus(ctx, record)

	return record, nil
}

func (s *Service) reschedule(ctx context.Context, id uuid.UUID, sendAt time.Time, force bool) (model.ScheduledNotification, error) {
	if err := s.validateSendAt(sendAt); err != nil {
		return model.ScheduledNotification{}, err
	}

	guard := model.GuardPending
	if force {
		guard = model.GuardNone
	}

	record, err := s.repo.UpdateFields(ctx, id, guard, model.Fields{SendAt: &sendAt})
	if errors.Is(err, notification.ErrGuardRejected) {
		return record, terminalError(record)
	}
	if err != nil {
		return model.ScheduledNotification{}, fmt.Errorf("reschedule notification: %w", err)
	}

	if force && (record.IsSent() || record.IsCancelled()) {
		zlog.Logger.Warn().
			Str("id", id.String()).
			Str("status", model.StatusOf(record)).
			Time("send_at", record.SendAt).
			Msg("forced reschedule of a finished notification, terminal timestamps kept")
	}

	return record, nil
}

func (s *Service) decode(record model.ScheduledNotification) (notify.Notifiable, notify.Notification, error) {
	target, err := s.codec.DecodeTarget(record.Target.Type, record.TargetPayload)
	if err != nil {
		return nil, nil, fmt.Errorf("decode target: %w", err)
	}

	n, err := s.codec.DecodeNotification(record.NotificationType, record.NotificationPayload)
	if err != nil {
		return nil, nil, fmt.Errorf("decode notification: %w", err)
	}

	return target, n, nil
}

func (s *Service) validateSendAt(sendAt time.Time) error {
	if sendAt.IsZero() {
		return schedulingError("send_at", "send time is required")
	}
	if !model.Timestamp(sendAt).After(model.Timestamp(s.now())) {
		return schedulingError("send_at", "send time %s is not in the future", sendAt.Format(time.RFC3339))
	}
	return nil
}

func (s *Service) cacheStatus(ctx context.Context, record model.ScheduledNotification) {
	err := s.cache.SetWithRetry(ctx, s.strategy, record.ID.String(), model.StatusOf(record))
	if err != nil {
		zlog.Logger.Error().Err(err).Str("id", record.ID.String()).Msg("failed to cache notification")
	}
}

// refreshCancelled overwrites cached statuses of records cancelled by a bulk update.
func (s *Service) refreshCancelled(ctx context.Context, key model.TargetKey, at time.Time) {
	records, err := s.repo.FindByTarget(ctx, key)
	if err != nil {
		zlog.Logger.Error().Err(err).Str("target_type", key.Type).Msg("failed to refresh cached statuses")
		return
	}

	for _, r := range records {
		if r.CancelledAt != nil && r.CancelledAt.Equal(at) {
			s.cacheStatus(ctx, r)
		}
	}
}

func (s *Service) wrap(record model.ScheduledNotification) *ScheduledNotification {
	return &ScheduledNotification{svc: s, record: record}
}

func (s *Service) wrapAll(records []model.ScheduledNotification) []*ScheduledNotification {
	out := make([]*ScheduledNotification, 0, len(records))
	for _, r := range records {
		out = append(out, s.wrap(r))
	}
	return out
}

// isDue reports whether record still has the send time it was announced with
// and that time has come.
func isDue(record model.ScheduledNotification, announced, now time.Time) bool {
	sendAt := model.Timestamp(record.SendAt)
	return sendAt.Equal(model.Timestamp(announced)) && !sendAt.After(model.Timestamp(now))
}

func isCacheMiss(err error) bool {
	return errors.Is(err, redis.Nil)
}

func terminalError(record model.ScheduledNotification) error {
	switch {
	case record.IsSent():
		return ErrNotificationAlreadySent
	case record.IsCancelled():
		return ErrNotificationCancelled
	default:
		return nil
	}
}

func targetKey(target notify.Notifiable) model.TargetKey {
	key := model.TargetKey{Type: target.NotifiableType()}
	if identifiable, ok := target.(notify.Identifiable); ok {
		if id := identifiable.NotifiableID(); id != "" {
			key.ID = model.NewTargetID(id)
		}
	}
	return key
}

func isNil(v any) bool {
	if v == nil {
		return true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Func, reflect.Interface, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}
