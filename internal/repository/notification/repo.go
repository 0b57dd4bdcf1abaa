package notification

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/dbpg"

	"github.com/aliskhannn/scheduled-notifier/internal/model"
)

var (
	ErrNotificationNotFound = errors.New("notification not found")
	ErrGuardRejected        = errors.New("notification state does not allow this update")
)

const columns = `id, target_id, target_type, target, notification_type, notification,
		       send_at, sent_at, rescheduled_at, cancelled_at, created_at, updated_at`

// Repository provides methods to interact with the scheduled_notifications table.
//
// Reads that tolerate replica lag go through dbpg's read routing, everything
// that writes or must observe its own writes goes to the master.
type Repository struct {
	db      *dbpg.DB
	dialect Dialect
	now     func() time.Time
}

// NewRepository creates a new scheduled notification repository.
func NewRepository(db *dbpg.DB, dialect Dialect) *Repository {
	return &Repository{db: db, dialect: dialect, now: time.Now}
}

type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type rowScanner interface {
	Scan(dest ...any) error
}

// Create inserts a new record, assigning its ID and bookkeeping timestamps.
func (r *Repository) Create(ctx context.Context, n model.ScheduledNotification) (model.ScheduledNotification, error) {
	now := model.Timestamp(r.now())

	n.ID = uuid.New()
	n.SendAt = model.Timestamp(n.SendAt)
	n.SentAt, n.CancelledAt, n.RescheduledAt = nil, nil, nil
	n.CreatedAt = now
	n.UpdatedAt = now

	if err := r.insert(ctx, r.db.Master, n); err != nil {
		return model.ScheduledNotification{}, fmt.Errorf("failed to create notification: %w", err)
	}

	return n, nil
}

func (r *Repository) insert(ctx context.Context, db execer, n model.ScheduledNotification) error {
	query := `
		INSERT INTO scheduled_notifications (
		    id, target_id, target_type, target, notification_type, notification,
		    send_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?);
    `

	_, err := db.ExecContext(ctx, r.dialect.rebind(query),
		n.ID, targetIDArg(n.Target.ID), n.Target.Type, n.TargetPayload, n.NotificationType, n.NotificationPayload,
		r.dialect.timeArg(n.SendAt), r.dialect.timeArg(n.CreatedAt), r.dialect.timeArg(n.UpdatedAt),
	)

	return err
}

// FindByID retrieves a record by its ID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (model.ScheduledNotification, error) {
	return r.findByID(ctx, r.db.Master, id, false)
}

// FindByType retrieves records of the given notification type. Sent records
// are excluded unless includeSent is set.
func (r *Repository) FindByType(ctx context.Context, notificationType string, includeSent bool) ([]model.ScheduledNotification, error) {
	query := `
		SELECT ` + columns + `
		FROM scheduled_notifications
		WHERE notification_type = ?`

	if !includeSent {
		query += ` AND sent_at IS NULL`
	}
	query += `
		ORDER BY send_at, created_at;`

	return r.list(ctx, query, notificationType)
}

// FindAll retrieves all records. Sent records are excluded unless includeSent is set.
func (r *Repository) FindAll(ctx context.Context, includeSent bool) ([]model.ScheduledNotification, error) {
	query := `
		SELECT ` + columns + `
		FROM scheduled_notifications`

	if !includeSent {
		query += `
		WHERE sent_at IS NULL`
	}
	query += `
		ORDER BY send_at, created_at;`

	return r.list(ctx, query)
}

// FindByTarget retrieves every record addressed to the target.
func (r *Repository) FindByTarget(ctx context.Context, target model.TargetKey) ([]model.ScheduledNotification, error) {
	predicate, args := targetPredicate(target)

	query := `
		SELECT ` + columns + `
		FROM scheduled_notifications
		WHERE ` + predicate + `
		ORDER BY send_at, created_at;`

	return r.list(ctx, query, args...)
}

// FindDue retrieves pending records whose send time falls within [from, until],
// oldest first.
func (r *Repository) FindDue(ctx context.Context, from, until time.Time, limit int) ([]model.ScheduledNotification, error) {
	query := `
		SELECT ` + columns + `
		FROM scheduled_notifications
		WHERE sent_at IS NULL AND cancelled_at IS NULL
		  AND send_at >= ? AND send_at <= ?
		ORDER BY send_at
		LIMIT ?;`

	return r.list(ctx, query, r.dialect.timeArg(from), r.dialect.timeArg(until), limit)
}

// UpdateFields applies fields to the record in a single conditional statement.
//
// If the record exists but does not satisfy guard, the current record is
// returned together with ErrGuardRejected.
func (r *Repository) UpdateFields(ctx context.Context, id uuid.UUID, guard model.Guard, fields model.Fields) (model.ScheduledNotification, error) {
	n, err := r.update(ctx, r.db.Master, id, guard, fields)
	if err == nil {
		return n, nil
	}

	if !errors.Is(err, sql.ErrNoRows) {
		return model.ScheduledNotification{}, fmt.Errorf("failed to update notification: %w", err)
	}

	current, err := r.findByID(ctx, r.db.Master, id, false)
	if err != nil {
		return model.ScheduledNotification{}, err
	}

	return current, ErrGuardRejected
}

// Transition locks the record, passes its current state to fn and applies the
// fields fn returns, all within one transaction. If fn fails nothing is
// written and its error is returned together with the current record.
func (r *Repository) Transition(
	ctx context.Context,
	id uuid.UUID,
	fn func(model.ScheduledNotification) (model.Fields, error),
) (model.ScheduledNotification, error) {
	tx, err := r.db.Master.BeginTx(ctx, nil)
	if err != nil {
		return model.ScheduledNotification{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	current, err := r.findByID(ctx, tx, id, true)
	if err != nil {
		return model.ScheduledNotification{}, err
	}

	fields, err := fn(current)
	if err != nil {
		return current, err
	}

	updated := current
	if !fields.Empty() {
		updated, err = r.update(ctx, tx, id, model.GuardNone, fields)
		if err != nil {
			return current, fmt.Errorf("failed to update notification: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return current, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return updated, nil
}

// Replicate creates a successor of the record with the same target and
// payload scheduled at sendAt, and marks the original as rescheduled.
func (r *Repository) Replicate(ctx context.Context, id uuid.UUID, sendAt time.Time) (model.ScheduledNotification, error) {
	tx, err := r.db.Master.BeginTx(ctx, nil)
	if err != nil {
		return model.ScheduledNotification{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	original, err := r.findByID(ctx, tx, id, true)
	if err != nil {
		return model.ScheduledNotification{}, err
	}

	now := model.Timestamp(r.now())

	successor := original
	successor.ID = uuid.New()
	successor.SendAt = model.Timestamp(sendAt)
	successor.SentAt, successor.CancelledAt, successor.RescheduledAt = nil, nil, nil
	successor.CreatedAt = now
	successor.UpdatedAt = now

	if err := r.insert(ctx, tx, successor); err != nil {
		return model.ScheduledNotification{}, fmt.Errorf("failed to create successor: %w", err)
	}

	query := `
		UPDATE scheduled_notifications
		SET rescheduled_at = COALESCE(rescheduled_at, ?), updated_at = ?
		WHERE id = ?;
    `

	if _, err := tx.ExecContext(ctx, r.dialect.rebind(query), r.dialect.timeArg(now), r.dialect.timeArg(now), id); err != nil {
		return model.ScheduledNotification{}, fmt.Errorf("failed to mark notification rescheduled: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return model.ScheduledNotification{}, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return successor, nil
}

// CancelByTarget cancels every pending record of the target in a single
// statement and returns how many records were cancelled.
func (r *Repository) CancelByTarget(ctx context.Context, target model.TargetKey, at time.Time) (int64, error) {
	predicate, args := targetPredicate(target)

	query := `
		UPDATE scheduled_notifications
		SET cancelled_at = ?, updated_at = ?
		WHERE sent_at IS NULL AND cancelled_at IS NULL AND ` + predicate + `;`

	ts := r.dialect.timeArg(at)
	res, err := r.db.Master.ExecContext(ctx, r.dialect.rebind(query), append([]any{ts, ts}, args...)...)
	if err != nil {
		return 0, fmt.Errorf("failed to cancel notifications by target: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count cancelled notifications: %w", err)
	}

	return rows, nil
}

func (r *Repository) findByID(ctx context.Context, db rowQuerier, id uuid.UUID, lock bool) (model.ScheduledNotification, error) {
	query := `
		SELECT ` + columns + `
		FROM scheduled_notifications
		WHERE id = ?`

	if lock {
		query += r.dialect.lockClause
	}

	n, err := scanNotification(db.QueryRowContext(ctx, r.dialect.rebind(query+";"), id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.ScheduledNotification{}, ErrNotificationNotFound
		}

		return model.ScheduledNotification{}, fmt.Errorf("failed to get notification: %w", err)
	}

	return n, nil
}

// update runs a conditional UPDATE ... RETURNING. sql.ErrNoRows means that
// either the record does not exist or the guard rejected it.
func (r *Repository) update(ctx context.Context, db rowQuerier, id uuid.UUID, guard model.Guard, fields model.Fields) (model.ScheduledNotification, error) {
	sets := make([]string, 0, 5)
	args := make([]any, 0, 6)

	if fields.SendAt != nil {
		sets = append(sets, "send_at = ?")
		args = append(args, r.dialect.timeArg(*fields.SendAt))
	}
	if fields.SentAt != nil {
		sets = append(sets, "sent_at = ?")
		args = append(args, r.dialect.timeArg(*fields.SentAt))
	}
	if fields.CancelledAt != nil {
		sets = append(sets, "cancelled_at = ?")
		args = append(args, r.dialect.timeArg(*fields.CancelledAt))
	}
	if fields.RescheduledAt != nil {
		sets = append(sets, "rescheduled_at = ?")
		args = append(args, r.dialect.timeArg(*fields.RescheduledAt))
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, r.dialect.timeArg(r.now()), id)

	query := `
		UPDATE scheduled_notifications
		SET ` + strings.Join(sets, ", ") + `
		WHERE id = ?` + guardPredicate(guard) + `
		RETURNING ` + columns + `;`

	return scanNotification(db.QueryRowContext(ctx, r.dialect.rebind(query), args...))
}

func (r *Repository) list(ctx context.Context, query string, args ...any) ([]model.ScheduledNotification, error) {
	rows, err := r.db.QueryContext(ctx, r.dialect.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []model.ScheduledNotification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}

		notifications = append(notifications, n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	return notifications, nil
}

func scanNotification(row rowScanner) (model.ScheduledNotification, error) {
	var n model.ScheduledNotification
	var targetID sql.NullString
	var sendAt, sentAt, rescheduledAt, cancelledAt, created, updated nullTime

	err := row.Scan(
		&n.ID, &targetID, &n.Target.Type, &n.TargetPayload, &n.NotificationType, &n.NotificationPayload,
		&sendAt, &sentAt, &rescheduledAt, &cancelledAt, &created, &updated,
	)
	if err != nil {
		return model.ScheduledNotification{}, err
	}

	if targetID.Valid {
		n.Target.ID = model.NewTargetID(targetID.String)
	}

	n.SendAt = sendAt.Time
	n.SentAt = sentAt.ptr()
	n.RescheduledAt = rescheduledAt.ptr()
	n.CancelledAt = cancelledAt.ptr()
	n.CreatedAt = created.Time
	n.UpdatedAt = updated.Time

	return n, nil
}

func targetIDArg(id model.TargetID) any {
	if v, ok := id.Get(); ok {
		return v
	}
	return nil
}

func targetPredicate(target model.TargetKey) (string, []any) {
	if id, ok := target.ID.Get(); ok {
		return "target_type = ? AND target_id = ?", []any{target.Type, id}
	}
	return "target_type = ? AND target_id IS NULL", []any{target.Type}
}

func guardPredicate(guard model.Guard) string {
	var b strings.Builder
	if guard.Has(model.GuardUnsent) {
		b.WriteString(" AND sent_at IS NULL")
	}
	if guard.Has(model.GuardUncancelled) {
		b.WriteString(" AND cancelled_at IS NULL")
	}
	return b.String()
}
