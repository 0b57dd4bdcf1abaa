package notification

import (
	"context"
	"fmt"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS scheduled_notifications (
	id                UUID PRIMARY KEY,
	target_id         TEXT,
	target_type       TEXT NOT NULL,
	target            BYTEA NOT NULL,
	notification_type TEXT NOT NULL,
	notification      BYTEA NOT NULL,
	send_at           TIMESTAMPTZ NOT NULL,
	sent_at           TIMESTAMPTZ,
	rescheduled_at    TIMESTAMPTZ,
	cancelled_at      TIMESTAMPTZ,
	created_at        TIMESTAMPTZ NOT NULL,
	updated_at        TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS scheduled_notifications_type_idx ON scheduled_notifications (notification_type);
CREATE INDEX IF NOT EXISTS scheduled_notifications_target_idx ON scheduled_notifications (target_type, target_id);
CREATE INDEX IF NOT EXISTS scheduled_notifications_send_at_idx ON scheduled_notifications (send_at);
`

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS scheduled_notifications (
	id                TEXT PRIMARY KEY,
	target_id         TEXT,
	target_type       TEXT NOT NULL,
	target            BLOB NOT NULL,
	notification_type TEXT NOT NULL,
	notification      BLOB NOT NULL,
	send_at           TEXT NOT NULL,
	sent_at           TEXT,
	rescheduled_at    TEXT,
	cancelled_at      TEXT,
	created_at        TEXT NOT NULL,
	updated_at        TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS scheduled_notifications_type_idx ON scheduled_notifications (notification_type);
CREATE INDEX IF NOT EXISTS scheduled_notifications_target_idx ON scheduled_notifications (target_type, target_id);
CREATE INDEX IF NOT EXISTS scheduled_notifications_send_at_idx ON scheduled_notifications (send_at);
`

// EnsureSchema creates the scheduled_notifications table and its indexes if they do not exist.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Master.ExecContext(ctx, r.dialect.schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}
