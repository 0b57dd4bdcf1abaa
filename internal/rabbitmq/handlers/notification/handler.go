package notification

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/scheduled-notifier/internal/rabbitmq/queue"
	"github.com/aliskhannn/scheduled-notifier/internal/service/notification"
)

//go:generate mockgen -source=handler.go -destination=../../../mocks/rabbitmq/handlers/notification/mock.go -package=mocks
type notificationService interface {
	SendDue(ctx context.Context, id uuid.UUID, sendAt time.Time) error
}

type Handler struct {
	service notificationService
}

func NewHandler(svc notificationService) *Handler {
	return &Handler{
		service: svc,
	}
}

// HandleMessage sends the due notification. Records that were sent, cancelled,
// rescheduled or deleted since the message was published are skipped.
func (h *Handler) HandleMessage(ctx context.Context, msg queue.NotificationMessage) {
	zlog.Logger.Info().Str("id", msg.ID.String()).Time("send_at", msg.SendAt).Msg("handle message: notification due")

	err := h.service.SendDue(ctx, msg.ID, msg.SendAt)
	switch {
	case err == nil:
		zlog.Logger.Info().Str("id", msg.ID.String()).Msg("handle message: notification sent")
	case errors.Is(err, notification.ErrNotificationAlreadySent):
		zlog.Logger.Info().Str("id", msg.ID.String()).Msg("handle message: already sent, skipping")
	case errors.Is(err, notification.ErrNotificationCancelled):
		zlog.Logger.Info().Str("id", msg.ID.String()).Msg("handle message: cancelled, skipping")
	case errors.Is(err, notification.ErrNotificationNotDue):
		zlog.Logger.Info().Str("id", msg.ID.String()).Msg("handle message: moved to another time, skipping")
	case errors.Is(err, notification.ErrNotificationNotFound):
		zlog.Logger.Warn().Str("id", msg.ID.String()).Msg("handle message: notification not found")
	default:
		zlog.Logger.Error().Err(err).Str("id", msg.ID.String()).Msg("handle message: failed to send notification")
	}
}
