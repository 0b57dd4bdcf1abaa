package dto

// CreateRequest is the body of a scheduling request.
type CreateRequest struct {
	Recipient Recipient `json:"recipient"`
	Message   Message   `json:"message"`
	SendAt    string    `json:"send_at" validate:"required"` // RFC3339
}

// Recipient describes who receives the notification. An empty ID schedules
// for an anonymous recipient. At least one address is required.
type Recipient struct {
	ID             string `json:"id"`
	Email          string `json:"email" validate:"omitempty,email"`
	TelegramChatID string `json:"telegram_chat_id" validate:"omitempty,numeric"`
}

type Message struct {
	Subject   string   `json:"subject"`
	Text      string   `json:"text" validate:"required"`
	Channels  []string `json:"channels" validate:"required,min=1,dive,oneof=email telegram"`
	ExpiresAt string   `json:"expires_at"` // optional, RFC3339
}

// RescheduleRequest moves a notification in place.
type RescheduleRequest struct {
	SendAt string `json:"send_at" validate:"required"`
	Force  bool   `json:"force"`
}

// ScheduleAgainRequest creates a successor of a notification.
type ScheduleAgainRequest struct {
	SendAt string `json:"send_at" validate:"required"`
}
