package notification

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/dbpg"

	"github.com/aliskhannn/scheduled-notifier/internal/model"
)

var rowColumns = []string{
	"id", "target_id", "target_type", "target", "notification_type", "notification",
	"send_at", "sent_at", "rescheduled_at", "cancelled_at", "created_at", "updated_at",
}

func setupMockDB(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open mock db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	wrappedDB := &dbpg.DB{Master: db}
	repo := NewRepository(wrappedDB, Postgres)

	return repo, mock
}

func mockRow(n model.ScheduledNotification) *sqlmock.Rows {
	var targetID any
	if id, ok := n.Target.ID.Get(); ok {
		targetID = id
	}

	opt := func(t *time.Time) any {
		if t == nil {
			return nil
		}
		return *t
	}

	return sqlmock.NewRows(rowColumns).AddRow(
		n.ID.String(), targetID, n.Target.Type, n.TargetPayload, n.NotificationType, n.NotificationPayload,
		n.SendAt, opt(n.SentAt), opt(n.RescheduledAt), opt(n.CancelledAt), n.CreatedAt, n.UpdatedAt,
	)
}

func sample() model.ScheduledNotification {
	now := model.Timestamp(time.Now())
	return model.ScheduledNotification{
		ID:                  uuid.New(),
		Target:              model.TargetKey{Type: "recipient", ID: model.NewTargetID("1")},
		TargetPayload:       []byte(`{"id":"1"}`),
		NotificationType:    "message",
		NotificationPayload: []byte(`{"text":"hi"}`),
		SendAt:              now.Add(time.Hour),
		CreatedAt:           now,
		UpdatedAt:           now,
	}
}

func TestDialect_Rebind(t *testing.T) {
	assert.Equal(t, "a = $1 AND b = $2", Postgres.rebind("a = ? AND b = ?"))
	assert.Equal(t, "a = ? AND b = ?", SQLite.rebind("a = ? AND b = ?"))
}

func TestDialectByName(t *testing.T) {
	d, err := DialectByName("sqlite")
	require.NoError(t, err)
	assert.Equal(t, "sqlite", d.Name())

	d, err = DialectByName("postgres")
	require.NoError(t, err)
	assert.Equal(t, "postgres", d.Name())

	_, err = DialectByName("oracle")
	assert.Error(t, err)
}

func TestCreate(t *testing.T) {
	repo, mock := setupMockDB(t)

	n := sample()

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO scheduled_notifications (`)).
		WithArgs(sqlmock.AnyArg(), "1", "recipient", n.TargetPayload, "message", n.NotificationPayload,
			n.SendAt, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	created, err := repo.Create(context.Background(), n)
	require.NoError(t, err)
	assert.NotEqual(t, n.ID, created.ID)
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.False(t, created.CreatedAt.IsZero())
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)
	assert.Nil(t, created.SentAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_NullTargetID(t *testing.T) {
	repo, mock := setupMockDB(t)

	n := sample()
	n.Target.ID = model.NoTargetID()

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO scheduled_notifications (`)).
		WithArgs(sqlmock.AnyArg(), nil, "recipient", n.TargetPayload, "message", n.NotificationPayload,
			n.SendAt, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	_, err := repo.Create(context.Background(), n)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByID(t *testing.T) {
	repo, mock := setupMockDB(t)

	n := sample()

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE id = $1;`)).
		WithArgs(n.ID).
		WillReturnRows(mockRow(n))

	got, err := repo.FindByID(context.Background(), n.ID)
	require.NoError(t, err)
	assert.Equal(t, n.ID, got.ID)
	assert.Equal(t, n.Target, got.Target)
	assert.True(t, n.SendAt.Equal(got.SendAt))
	assert.Nil(t, got.SentAt)
	assert.NoError(t, mock.ExpectationsWereMet())

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE id = $1;`)).
		WithArgs(n.ID).
		WillReturnError(sql.ErrNoRows)

	_, err = repo.FindByID(context.Background(), n.ID)
	assert.ErrorIs(t, err, ErrNotificationNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByType(t *testing.T) {
	repo, mock := setupMockDB(t)

	n := sample()

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE notification_type = $1 AND sent_at IS NULL`)).
		WithArgs("message").
		WillReturnRows(mockRow(n))

	list, err := repo.FindByType(context.Background(), "message", false)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	mock.ExpectQuery(`WHERE notification_type = \$1\s+ORDER BY`).
		WithArgs("message").
		WillReturnRows(sqlmock.NewRows(rowColumns))

	list, err = repo.FindByType(context.Background(), "message", true)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindAll(t *testing.T) {
	repo, mock := setupMockDB(t)

	sent := sample()
	at := model.Timestamp(time.Now())
	sent.SentAt = &at

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE sent_at IS NULL`)).
		WillReturnRows(mockRow(sample()).AddRow(
			uuid.NewString(), nil, "recipient", []byte(`{}`), "message", []byte(`{}`),
			at, nil, nil, nil, at, at,
		))

	list, err := repo.FindAll(context.Background(), false)
	require.NoError(t, err)
	assert.Len(t, list, 2)
	assert.False(t, list[1].Target.ID.Valid())

	mock.ExpectQuery(`FROM scheduled_notifications\s+ORDER BY send_at, created_at;`).
		WillReturnRows(mockRow(sent))

	list, err = repo.FindAll(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.NotNil(t, list[0].SentAt)
	assert.True(t, at.Equal(*list[0].SentAt))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByTarget(t *testing.T) {
	repo, mock := setupMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE target_type = $1 AND target_id = $2`)).
		WithArgs("recipient", "1").
		WillReturnRows(mockRow(sample()))

	list, err := repo.FindByTarget(context.Background(), model.TargetKey{Type: "recipient", ID: model.NewTargetID("1")})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE target_type = $1 AND target_id IS NULL`)).
		WithArgs("anonymous").
		WillReturnRows(sqlmock.NewRows(rowColumns))

	list, err = repo.FindByTarget(context.Background(), model.TargetKey{Type: "anonymous"})
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateFields(t *testing.T) {
	repo, mock := setupMockDB(t)

	n := sample()
	at := model.Timestamp(time.Now())
	cancelled := n
	cancelled.CancelledAt = &at

	mock.ExpectQuery(regexp.QuoteMeta(`SET cancelled_at = $1, updated_at = $2
		WHERE id = $3 AND sent_at IS NULL AND cancelled_at IS NULL
		RETURNING`)).
		WithArgs(at, sqlmock.AnyArg(), n.ID).
		WillReturnRows(mockRow(cancelled))

	got, err := repo.UpdateFields(context.Background(), n.ID, model.GuardPending, model.Fields{CancelledAt: &at})
	require.NoError(t, err)
	require.NotNil(t, got.CancelledAt)
	assert.True(t, at.Equal(*got.CancelledAt))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateFields_GuardRejected(t *testing.T) {
	repo, mock := setupMockDB(t)

	n := sample()
	at := model.Timestamp(time.Now())
	sent := n
	sent.SentAt = &at

	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE scheduled_notifications`)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE id = $1;`)).
		WithArgs(n.ID).
		WillReturnRows(mockRow(sent))

	got, err := repo.UpdateFields(context.Background(), n.ID, model.GuardPending, model.Fields{CancelledAt: &at})
	assert.ErrorIs(t, err, ErrGuardRejected)
	assert.True(t, got.IsSent())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateFields_NotFound(t *testing.T) {
	repo, mock := setupMockDB(t)

	id := uuid.New()
	at := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE scheduled_notifications`)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE id = $1;`)).
		WithArgs(id).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.UpdateFields(context.Background(), id, model.GuardNone, model.Fields{SendAt: &at})
	assert.ErrorIs(t, err, ErrNotificationNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransition_LocksRow(t *testing.T) {
	repo, mock := setupMockDB(t)

	n := sample()
	at := model.Timestamp(time.Now())
	sent := n
	sent.SentAt = &at

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE id = $1 FOR UPDATE;`)).
		WithArgs(n.ID).
		WillReturnRows(mockRow(n))
	mock.ExpectQuery(regexp.QuoteMeta(`SET sent_at = $1, updated_at = $2`)).
		WithArgs(at, sqlmock.AnyArg(), n.ID).
		WillReturnRows(mockRow(sent))
	mock.ExpectCommit()

	got, err := repo.Transition(context.Background(), n.ID, func(cur model.ScheduledNotification) (model.Fields, error) {
		assert.Equal(t, n.ID, cur.ID)
		return model.Fields{SentAt: &at}, nil
	})
	require.NoError(t, err)
	assert.True(t, got.IsSent())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransition_RollsBackOnError(t *testing.T) {
	repo, mock := setupMockDB(t)

	n := sample()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`FOR UPDATE`)).
		WithArgs(n.ID).
		WillReturnRows(mockRow(n))
	mock.ExpectRollback()

	_, err := repo.Transition(context.Background(), n.ID, func(model.ScheduledNotification) (model.Fields, error) {
		return model.Fields{}, assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReplicate(t *testing.T) {
	repo, mock := setupMockDB(t)

	n := sample()
	sendAt := model.Timestamp(time.Now().Add(24 * time.Hour))

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`FOR UPDATE`)).
		WithArgs(n.ID).
		WillReturnRows(mockRow(n))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO scheduled_notifications (`)).
		WithArgs(sqlmock.AnyArg(), "1", "recipient", n.TargetPayload, "message", n.NotificationPayload,
			sendAt, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta(`SET rescheduled_at = COALESCE(rescheduled_at, $1), updated_at = $2`)).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), n.ID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	successor, err := repo.Replicate(context.Background(), n.ID, sendAt)
	require.NoError(t, err)
	assert.NotEqual(t, n.ID, successor.ID)
	assert.True(t, sendAt.Equal(successor.SendAt))
	assert.Nil(t, successor.RescheduledAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelByTarget(t *testing.T) {
	repo, mock := setupMockDB(t)

	at := model.Timestamp(time.Now())

	mock.ExpectExec(regexp.QuoteMeta(`SET cancelled_at = $1, updated_at = $2
		WHERE sent_at IS NULL AND cancelled_at IS NULL AND target_type = $3 AND target_id = $4;`)).
		WithArgs(at, at, "recipient", "1").
		WillReturnResult(sqlmock.NewResult(0, 3))

	count, err := repo.CancelByTarget(context.Background(), model.TargetKey{Type: "recipient", ID: model.NewTargetID("1")}, at)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindDue(t *testing.T) {
	repo, mock := setupMockDB(t)

	until := model.Timestamp(time.Now())
	from := until.Add(-time.Hour)

	mock.ExpectQuery(regexp.QuoteMeta(`AND send_at >= $1 AND send_at <= $2`)).
		WithArgs(from, until, 10).
		WillReturnRows(mockRow(sample()))

	list, err := repo.FindDue(context.Background(), from, until, 10)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}
