package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusOf(t *testing.T) {
	now := time.Now()

	assert.Equal(t, StatusPending, StatusOf(ScheduledNotification{}))
	assert.Equal(t, StatusSent, StatusOf(ScheduledNotification{SentAt: &now}))
	assert.Equal(t, StatusCancelled, StatusOf(ScheduledNotification{CancelledAt: &now}))
	// a rescheduled original is still pending until sent or cancelled
	assert.Equal(t, StatusPending, StatusOf(ScheduledNotification{RescheduledAt: &now}))
}

func TestGuard_Allows(t *testing.T) {
	now := time.Now()
	sent := ScheduledNotification{SentAt: &now}
	cancelled := ScheduledNotification{CancelledAt: &now}

	assert.True(t, GuardNone.Allows(sent))
	assert.False(t, GuardUnsent.Allows(sent))
	assert.True(t, GuardUnsent.Allows(cancelled))
	assert.False(t, GuardPending.Allows(cancelled))
	assert.True(t, GuardPending.Allows(ScheduledNotification{}))
	assert.True(t, GuardPending.Has(GuardUncancelled))
	assert.False(t, GuardUnsent.Has(GuardPending))
}

func TestFields_Empty(t *testing.T) {
	now := time.Now()
	assert.True(t, Fields{}.Empty())
	assert.False(t, Fields{SendAt: &now}.Empty())
}

func TestTimestamp(t *testing.T) {
	loc := time.FixedZone("test", 3*60*60)
	in := time.Date(2026, 1, 2, 3, 4, 5, 123456789, loc)

	out := Timestamp(in)
	assert.Equal(t, time.UTC, out.Location())
	assert.Equal(t, 123456000, out.Nanosecond())
	assert.True(t, in.Truncate(time.Microsecond).Equal(out))
}

func TestTargetID_JSON(t *testing.T) {
	data, err := json.Marshal(TargetKey{Type: "recipient", ID: NewTargetID("42")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"recipient","id":"42"}`, string(data))

	data, err = json.Marshal(TargetKey{Type: "anonymous"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"anonymous","id":null}`, string(data))

	var key TargetKey
	require.NoError(t, json.Unmarshal([]byte(`{"type":"recipient","id":null}`), &key))
	assert.False(t, key.ID.Valid())

	require.NoError(t, json.Unmarshal([]byte(`{"type":"recipient","id":""}`), &key))
	id, ok := key.ID.Get()
	assert.True(t, ok)
	assert.Equal(t, "", id)
}
