package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/aliskhannn/scheduled-notifier/internal/model"
	"github.com/aliskhannn/scheduled-notifier/internal/service/notification"
)

// Notification is the public view of a scheduled notification.
type Notification struct {
	ID               uuid.UUID      `json:"id"`
	NotificationType string         `json:"notification_type"`
	TargetType       string         `json:"target_type"`
	TargetID         model.TargetID `json:"target_id"`
	Status           string         `json:"status"`
	SendAt           time.Time      `json:"send_at"`
	SentAt           *time.Time     `json:"sent_at,omitempty"`
	CancelledAt      *time.Time     `json:"cancelled_at,omitempty"`
	RescheduledAt    *time.Time     `json:"rescheduled_at,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

func FromScheduled(n *notification.ScheduledNotification) Notification {
	return Notification{
		ID:               n.ID(),
		NotificationType: n.Type(),
		TargetType:       n.TargetType(),
		TargetID:         n.TargetID(),
		Status:           n.Status(),
		SendAt:           n.SendAt(),
		SentAt:           n.SentAt(),
		CancelledAt:      n.CancelledAt(),
		RescheduledAt:    n.RescheduledAt(),
		CreatedAt:        n.CreatedAt(),
		UpdatedAt:        n.UpdatedAt(),
	}
}

func FromScheduledList(list []*notification.ScheduledNotification) []Notification {
	out := make([]Notification, 0, len(list))
	for _, n := range list {
		out = append(out, FromScheduled(n))
	}
	return out
}
