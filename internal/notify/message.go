package notify

import (
	"fmt"
	"time"
)

// Delivery channels supported out of the box.
const (
	ChannelEmail    = "email"
	ChannelTelegram = "telegram"
)

// Built-in type names.
const (
	RecipientType = "recipient"
	MessageType   = "message"
)

// Recipient is a user addressable by email and/or telegram.
type Recipient struct {
	ID         string `json:"id"`
	Email      string `json:"email,omitempty"`
	TelegramID string `json:"telegram_chat_id,omitempty"`
}

func (r *Recipient) NotifiableType() string { return RecipientType }

// NotifiableID returns the recipient id.
func (r *Recipient) NotifiableID() string { return r.ID }

func (r *Recipient) RouteNotificationFor(channel string) (string, bool) {
	switch channel {
	case ChannelEmail:
		return r.Email, r.Email != ""
	case ChannelTelegram:
		return r.TelegramID, r.TelegramID != ""
	default:
		return "", false
	}
}

// Message is a plain text notification.
type Message struct {
	Subject   string     `json:"subject"`
	Text      string     `json:"text"`
	Via       []string   `json:"channels"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"` // message is dropped if not sent before this moment
}

func (m *Message) NotificationType() string { return MessageType }

func (m *Message) Channels() []string { return m.Via }

func (m *Message) Render(channel string, _ Notifiable) (Content, error) {
	if m.Text == "" {
		return Content{}, fmt.Errorf("empty message text for channel %s", channel)
	}

	return Content{Subject: m.Subject, Body: m.Text}, nil
}

// ShouldInterrupt reports true once the message has expired.
func (m *Message) ShouldInterrupt(Notifiable) bool {
	return m.ExpiresAt != nil && !time.Now().Before(*m.ExpiresAt)
}
