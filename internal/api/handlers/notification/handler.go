package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/scheduled-notifier/internal/api/dto"
	"github.com/aliskhannn/scheduled-notifier/internal/api/respond"
	"github.com/aliskhannn/scheduled-notifier/internal/notify"
	notifsvc "github.com/aliskhannn/scheduled-notifier/internal/service/notification"
)

// notificationService defines the operations the Handler exposes over HTTP.
//
//go:generate mockgen -source=handler.go -destination=../../../mocks/api/handlers/notification/mock.go -package=mocks
type notificationService interface {
	Create(ctx context.Context, target notify.Notifiable, n notify.Notification, sendAt time.Time) (*notifsvc.ScheduledNotification, error)
	Find(ctx context.Context, id uuid.UUID) (*notifsvc.ScheduledNotification, error)
	FindByType(ctx context.Context, notificationType string, includeSent bool) ([]*notifsvc.ScheduledNotification, error)
	All(ctx context.Context, includeSent bool) ([]*notifsvc.ScheduledNotification, error)
	FindByTarget(ctx context.Context, target notify.Notifiable) ([]*notifsvc.ScheduledNotification, error)
	CancelByTarget(ctx context.Context, target notify.Notifiable) (int64, error)
	Cancel(ctx context.Context, id uuid.UUID) error
	SendNow(ctx context.Context, id uuid.UUID) error
	Reschedule(ctx context.Context, id uuid.UUID, sendAt time.Time, force bool) (*notifsvc.ScheduledNotification, error)
	ScheduleAgainAt(ctx context.Context, id uuid.UUID, sendAt time.Time) (*notifsvc.ScheduledNotification, error)
	Status(ctx context.Context, id uuid.UUID) (string, error)
}

// Handler handles HTTP requests related to scheduled notifications.
type Handler struct {
	service   notificationService
	validator *validator.Validate
}

// NewHandler creates a new Handler instance.
//
// Parameters:
//   - s: implementation of notificationService
//   - v: validator instance for request validation
func NewHandler(s notificationService, v *validator.Validate) *Handler {
	return &Handler{service: s, validator: v}
}

// Create handles POST requests scheduling a message for a recipient.
//
// It validates the body, parses the send time and returns the created
// notification.
func (h *Handler) Create(c *ginext.Context) {
	var req dto.CreateRequest
	if !h.bind(c, &req) {
		return
	}

	if req.Recipient.Email == "" && req.Recipient.TelegramChatID == "" {
		zlog.Logger.Warn().Msg("recipient has no address")
		respond.Fail(c.Writer, http.StatusBadRequest, fmt.Errorf("validation error: recipient needs an email or a telegram_chat_id"))
		return
	}

	sendAt, ok := parseTime(c, "send_at", req.SendAt)
	if !ok {
		return
	}

	msg := &notify.Message{
		Subject: req.Message.Subject,
		Text:    req.Message.Text,
		Via:     req.Message.Channels,
	}

	if req.Message.ExpiresAt != "" {
		expiresAt, ok := parseTime(c, "expires_at", req.Message.ExpiresAt)
		if !ok {
			return
		}
		msg.ExpiresAt = &expiresAt
	}

	target := &notify.Recipient{
		ID:         req.Recipient.ID,
		Email:      req.Recipient.Email,
		TelegramID: req.Recipient.TelegramChatID,
	}

	n, err := h.service.Create(c.Request.Context(), target, msg, sendAt)
	if err != nil {
		h.fail(c, err, uuid.Nil, "failed to create notification")
		return
	}

	respond.Created(c.Writer, dto.FromScheduled(n))
}

// GetAll handles GET requests listing notifications.
//
// Sent notifications are left out unless include_sent=true. The optional type
// parameter narrows the list to one notification type.
func (h *Handler) GetAll(c *ginext.Context) {
	includeSent := false
	if raw := c.Query("include_sent"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			respond.Fail(c.Writer, http.StatusBadRequest, fmt.Errorf("invalid include_sent"))
			return
		}
		includeSent = v
	}

	var (
		list []*notifsvc.ScheduledNotification
		err  error
	)

	if typ := c.Query("type"); typ != "" {
		list, err = h.service.FindByType(c.Request.Context(), typ, includeSent)
	} else {
		list, err = h.service.All(c.Request.Context(), includeSent)
	}
	if err != nil {
		h.fail(c, err, uuid.Nil, "failed to list notifications")
		return
	}

	respond.OK(c.Writer, dto.FromScheduledList(list))
}

// Get handles GET requests for a single notification.
func (h *Handler) Get(c *ginext.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	n, err := h.service.Find(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err, id, "failed to get notification")
		return
	}

	respond.OK(c.Writer, dto.FromScheduled(n))
}

// GetStatus handles GET requests for the status of a notification.
func (h *Handler) GetStatus(c *ginext.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	status, err := h.service.Status(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err, id, "failed to get notification status")
		return
	}

	respond.OK(c.Writer, status)
}

// Cancel handles DELETE requests. Cancelling twice is not an error.
func (h *Handler) Cancel(c *ginext.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.service.Cancel(c.Request.Context(), id); err != nil {
		h.fail(c, err, id, "failed to cancel notification")
		return
	}

	respond.OK(c.Writer, "notification cancelled")
}

// SendNow dispatches a pending notification immediately.
func (h *Handler) SendNow(c *ginext.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.service.SendNow(c.Request.Context(), id); err != nil {
		h.fail(c, err, id, "failed to send notification")
		return
	}

	respond.OK(c.Writer, "notification sent")
}

// Reschedule moves the send time of a notification in place.
func (h *Handler) Reschedule(c *ginext.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req dto.RescheduleRequest
	if !h.bind(c, &req) {
		return
	}

	sendAt, ok := parseTime(c, "send_at", req.SendAt)
	if !ok {
		return
	}

	n, err := h.service.Reschedule(c.Request.Context(), id, sendAt, req.Force)
	if err != nil {
		h.fail(c, err, id, "failed to reschedule notification")
		return
	}

	respond.OK(c.Writer, dto.FromScheduled(n))
}

// ScheduleAgain creates a successor of a notification at a new time.
func (h *Handler) ScheduleAgain(c *ginext.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req dto.ScheduleAgainRequest
	if !h.bind(c, &req) {
		return
	}

	sendAt, ok := parseTime(c, "send_at", req.SendAt)
	if !ok {
		return
	}

	n, err := h.service.ScheduleAgainAt(c.Request.Context(), id, sendAt)
	if err != nil {
		h.fail(c, err, id, "failed to schedule notification again")
		return
	}

	respond.Created(c.Writer, dto.FromScheduled(n))
}

// GetByTarget lists every notification addressed to a recipient.
func (h *Handler) GetByTarget(c *ginext.Context) {
	target := &notify.Recipient{ID: c.Param("target_id")}

	list, err := h.service.FindByTarget(c.Request.Context(), target)
	if err != nil {
		h.fail(c, err, uuid.Nil, "failed to list notifications by target")
		return
	}

	respond.OK(c.Writer, dto.FromScheduledList(list))
}

// CancelByTarget cancels every pending notification addressed to a recipient.
func (h *Handler) CancelByTarget(c *ginext.Context) {
	target := &notify.Recipient{ID: c.Param("target_id")}

	count, err := h.service.CancelByTarget(c.Request.Context(), target)
	if err != nil {
		h.fail(c, err, uuid.Nil, "failed to cancel notifications by target")
		return
	}

	respond.OK(c.Writer, map[string]int64{"cancelled": count})
}

// bind decodes and validates a JSON body, answering 400 on failure.
func (h *Handler) bind(c *ginext.Context, req any) bool {
	if err := json.NewDecoder(c.Request.Body).Decode(req); err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to decode request body")
		respond.Fail(c.Writer, http.StatusBadRequest, fmt.Errorf("invalid request body"))
		return false
	}

	if err := h.validator.Struct(req); err != nil {
		zlog.Logger.Warn().Err(err).Msg("failed to validate request body")
		respond.Fail(c.Writer, http.StatusBadRequest, fmt.Errorf("validation error: %s", err.Error()))
		return false
	}

	return true
}

// fail maps service errors to HTTP statuses.
func (h *Handler) fail(c *ginext.Context, err error, id uuid.UUID, msg string) {
	switch {
	case errors.Is(err, notifsvc.ErrSchedulingFailed):
		zlog.Logger.Warn().Err(err).Str("id", id.String()).Msg(msg)
		respond.Fail(c.Writer, http.StatusBadRequest, err)
	case errors.Is(err, notifsvc.ErrNotificationNotFound):
		zlog.Logger.Warn().Err(err).Str("id", id.String()).Msg("notification not found")
		respond.Fail(c.Writer, http.StatusNotFound, fmt.Errorf("notification not found"))
	case errors.Is(err, notifsvc.ErrNotificationAlreadySent):
		respond.Fail(c.Writer, http.StatusConflict, fmt.Errorf("notification already sent"))
	case errors.Is(err, notifsvc.ErrNotificationCancelled):
		respond.Fail(c.Writer, http.StatusConflict, fmt.Errorf("notification cancelled"))
	default:
		zlog.Logger.Error().Err(err).Str("id", id.String()).Msg(msg)
		respond.Fail(c.Writer, http.StatusInternalServerError, fmt.Errorf("internal server error"))
	}
}

func parseID(c *ginext.Context) (uuid.UUID, bool) {
	idStr := c.Param("id")

	id, err := uuid.Parse(idStr)
	if err != nil {
		zlog.Logger.Error().Err(err).Str("idStr", idStr).Msg("failed to parse id")
		respond.Fail(c.Writer, http.StatusBadRequest, fmt.Errorf("invalid id"))
		return uuid.Nil, false
	}

	if id == uuid.Nil {
		zlog.Logger.Warn().Msg("missing id")
		respond.Fail(c.Writer, http.StatusBadRequest, fmt.Errorf("missing id"))
		return uuid.Nil, false
	}

	return id, true
}

func parseTime(c *ginext.Context, field, value string) (time.Time, bool) {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		zlog.Logger.Warn().Err(err).Str("field", field).Msg("failed to parse time")
		respond.Fail(c.Writer, http.StatusBadRequest, fmt.Errorf("invalid %s format, expected RFC3339", field))
		return time.Time{}, false
	}

	return t, true
}
