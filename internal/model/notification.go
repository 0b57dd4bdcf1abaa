package model

import (
	"time"

	"github.com/google/uuid"
)

// Notification statuses derived from the terminal timestamps.
const (
	StatusPending   = "pending"
	StatusSent      = "sent"
	StatusCancelled = "cancelled"
)

// ScheduledNotification represents a persisted scheduled notification record.
type ScheduledNotification struct {
	ID                  uuid.UUID  `json:"id"`                // unique identifier, assigned by the store
	Target              TargetKey  `json:"target"`            // addressee type and optional identity
	TargetPayload       []byte     `json:"-"`                 // opaque encoded target
	NotificationType    string     `json:"notification_type"` // discriminator of the payload kind
	NotificationPayload []byte     `json:"-"`                 // opaque encoded notification
	SendAt              time.Time  `json:"send_at"`           // time when the notification should be sent
	SentAt              *time.Time `json:"sent_at"`           // set once the dispatch is confirmed
	CancelledAt         *time.Time `json:"cancelled_at"`      // set once the notification is cancelled
	RescheduledAt       *time.Time `json:"rescheduled_at"`    // set once a successor record is created
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// IsSent reports whether the notification has been dispatched.
func (n ScheduledNotification) IsSent() bool { return n.SentAt != nil }

// IsCancelled reports whether the notification has been cancelled.
func (n ScheduledNotification) IsCancelled() bool { return n.CancelledAt != nil }

// IsRescheduled reports whether the notification has been superseded by a successor.
func (n ScheduledNotification) IsRescheduled() bool { return n.RescheduledAt != nil }

// StatusOf returns the disposition of the record: sent, cancelled or pending.
func StatusOf(n ScheduledNotification) string {
	switch {
	case n.SentAt != nil:
		return StatusSent
	case n.CancelledAt != nil:
		return StatusCancelled
	default:
		return StatusPending
	}
}

// Fields is a partial update of a record. Nil fields are left untouched.
type Fields struct {
	SendAt        *time.Time
	SentAt        *time.Time
	CancelledAt   *time.Time
	RescheduledAt *time.Time
}

// Empty reports whether the update changes nothing.
func (f Fields) Empty() bool {
	return f.SendAt == nil && f.SentAt == nil && f.CancelledAt == nil && f.RescheduledAt == nil
}

// Guard is a predicate over the current terminal fields of a record that
// must hold for a conditional update to apply.
type Guard uint8

const (
	// GuardNone applies the update unconditionally.
	GuardNone Guard = 0
	// GuardUnsent requires sent_at to be null.
	GuardUnsent Guard = 1 << 0
	// GuardUncancelled requires cancelled_at to be null.
	GuardUncancelled Guard = 1 << 1
	// GuardPending requires both terminal fields to be null.
	GuardPending = GuardUnsent | GuardUncancelled
)

// Has reports whether g includes all predicates of other.
func (g Guard) Has(other Guard) bool { return g&other == other }

// Allows reports whether the record satisfies the guard.
func (g Guard) Allows(n ScheduledNotification) bool {
	if g.Has(GuardUnsent) && n.SentAt != nil {
		return false
	}
	if g.Has(GuardUncancelled) && n.CancelledAt != nil {
		return false
	}
	return true
}

// Timestamp normalises t to the precision and zone the stores persist.
func Timestamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}
