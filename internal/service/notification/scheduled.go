package notification

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/aliskhannn/scheduled-notifier/internal/model"
	"github.com/aliskhannn/scheduled-notifier/internal/notify"
)

// ScheduledNotification is a handle on a stored notification. It holds the
// snapshot read from the store; state-changing methods refresh it.
type ScheduledNotification struct {
	svc    *Service
	record model.ScheduledNotification
}

func (n *ScheduledNotification) ID() uuid.UUID             { return n.record.ID }
func (n *ScheduledNotification) Type() string              { return n.record.NotificationType }
func (n *ScheduledNotification) TargetType() string        { return n.record.Target.Type }
func (n *ScheduledNotification) TargetID() model.TargetID  { return n.record.Target.ID }
func (n *ScheduledNotification) SendAt() time.Time         { return n.record.SendAt }
func (n *ScheduledNotification) SentAt() *time.Time        { return n.record.SentAt }
func (n *ScheduledNotification) CancelledAt() *time.Time   { return n.record.CancelledAt }
func (n *ScheduledNotification) RescheduledAt() *time.Time { return n.record.RescheduledAt }
func (n *ScheduledNotification) CreatedAt() time.Time      { return n.record.CreatedAt }
func (n *ScheduledNotification) UpdatedAt() time.Time      { return n.record.UpdatedAt }

func (n *ScheduledNotification) IsSent() bool        { return n.record.IsSent() }
func (n *ScheduledNotification) IsCancelled() bool   { return n.record.IsCancelled() }
func (n *ScheduledNotification) IsRescheduled() bool { return n.record.IsRescheduled() }

// Status returns pending, sent or cancelled.
func (n *ScheduledNotification) Status() string { return model.StatusOf(n.record) }

// Record returns a copy of the underlying snapshot.
func (n *ScheduledNotification) Record() model.ScheduledNotification { return n.record }

// Cancel cancels the notification. See Service.Cancel.
func (n *ScheduledNotification) Cancel(ctx context.Context) error {
	record, err := n.svc.cancel(ctx, n.record.ID)
	n.refresh(record)
	return err
}

// SendNow dispatches the notification. See Service.SendNow.
func (n *ScheduledNotification) SendNow(ctx context.Context) error {
	record, err := n.svc.send(ctx, n.record.ID, nil)
	n.refresh(record)
	return err
}

// Reschedule moves the notification to sendAt. See Service.Reschedule.
func (n *ScheduledNotification) Reschedule(ctx context.Context, sendAt time.Time, force bool) (*ScheduledNotification, error) {
	record, err := n.svc.reschedule(ctx, n.record.ID, sendAt, force)
	n.refresh(record)
	if err != nil {
		return nil, err
	}

	return n, nil
}

// ScheduleAgainAt creates a successor due at sendAt. See Service.ScheduleAgainAt.
func (n *ScheduledNotification) ScheduleAgainAt(ctx context.Context, sendAt time.Time) (*ScheduledNotification, error) {
	successor, err := n.svc.ScheduleAgainAt(ctx, n.record.ID, sendAt)
	if err != nil {
		return nil, err
	}

	if record, err := n.svc.repo.FindByID(ctx, n.record.ID); err == nil {
		n.refresh(record)
	}

	return successor, nil
}

// ShouldInterrupt rehydrates the payload and reports whether it asks not to be
// delivered anymore.
func (n *ScheduledNotification) ShouldInterrupt() (bool, error) {
	target, payload, err := n.svc.decode(n.record)
	if err != nil {
		return false, err
	}

	in, ok := payload.(notify.Interrupter)
	return ok && in.ShouldInterrupt(target), nil
}

// refresh replaces the snapshot unless the store returned nothing.
func (n *ScheduledNotification) refresh(record model.ScheduledNotification) {
	if record.ID == n.record.ID {
		n.record = record
	}
}
