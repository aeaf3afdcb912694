package models

import "time"

// Message log status values
const (
	MessageStatusPending = "pending"
	MessageStatusSent    = "sent"
	MessageStatusFailed  = "failed"
)

// Message types
const (
	MessageTypeVerification = "verification"
	MessageTypeNotification = "notification"
)

// MessageLog records one outbound gateway message (SMS or WhatsApp).
type MessageLog struct {
	ID           int       `json:"id"`
	AccountID    string    `json:"account_id"`
	Phone        string    `json:"phone"`
	Channel      string    `json:"channel"`
	MessageType  string    `json:"message_type"`
	Message      string    `json:"message"`
	Status       string    `json:"status"`
	ErrorMessage string    `json:"error_message,omitempty"`
	ReferenceID  string    `json:"reference_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
