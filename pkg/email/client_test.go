package email

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Message(t *testing.T) {
	c := NewClient("localhost", 25, "", "", "noreply@example.com", 0)

	m := c.message("user@example.com", "Reminder", "Your meeting starts soon")
	assert.Equal(t, []string{"noreply@example.com"}, m.GetHeader("From"))
	assert.Equal(t, []string{"user@example.com"}, m.GetHeader("To"))
	assert.Equal(t, []string{"Reminder"}, m.GetHeader("Subject"))

	var buf bytes.Buffer
	_, err := m.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Your meeting starts soon")
}

func TestClient_Message_DefaultSubject(t *testing.T) {
	c := NewClient("localhost", 25, "", "", "noreply@example.com", 0)

	m := c.message("user@example.com", "", "body")
	assert.Equal(t, []string{defaultSubject}, m.GetHeader("Subject"))
}

func TestClient_Send_ContextCancelled(t *testing.T) {
	c := NewClient("localhost", 25, "", "", "noreply@example.com", 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.Send(ctx, "user@example.com", "s", "b")
	assert.ErrorIs(t, err, context.Canceled)
}
