package notification

import (
	"errors"
	"fmt"

	"github.com/aliskhannn/scheduled-notifier/internal/repository/notification"
)

var (
	ErrSchedulingFailed        = errors.New("scheduling failed")
	ErrNotificationAlreadySent = errors.New("notification already sent")
	ErrNotificationCancelled   = errors.New("notification cancelled")
	ErrNotificationNotDue      = errors.New("notification not due")
	ErrNotificationNotFound    = notification.ErrNotificationNotFound
)

// SchedulingError reports which argument of a scheduling call was rejected.
// It matches ErrSchedulingFailed under errors.Is.
type SchedulingError struct {
	Argument string
	Reason   string
}

func (e *SchedulingError) Error() string {
	return fmt.Sprintf("scheduling failed: %s: %s", e.Argument, e.Reason)
}

func (e *SchedulingError) Unwrap() error { return ErrSchedulingFailed }

func schedulingError(argument, format string, args ...any) error {
	return &SchedulingError{Argument: argument, Reason: fmt.Sprintf(format, args...)}
}
