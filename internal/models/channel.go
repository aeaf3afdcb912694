package models

import "time"

// ChannelKind identifies a notification delivery medium.
type ChannelKind string

const (
	ChannelSMS      ChannelKind = "sms"
	ChannelWhatsApp ChannelKind = "whatsapp"
)

// Valid reports whether the kind is one of the supported channels.
func (k ChannelKind) Valid() bool {
	return k == ChannelSMS || k == ChannelWhatsApp
}

// ChannelPhase is the verification lifecycle position of a channel.
type ChannelPhase string

const (
	PhaseNoNumber     ChannelPhase = "no_number"
	PhaseAwaitingCode ChannelPhase = "awaiting_code"
	PhaseVerified     ChannelPhase = "verified"
)

// NotificationChannel is the authoritative per-account channel record.
type NotificationChannel struct {
	ID          int         `json:"id"`
	AccountID   string      `json:"account_id"`
	Kind        ChannelKind `json:"kind"`
	PhoneNumber string      `json:"phone_number"`
	Verified    bool        `json:"verified"`
	Enabled     bool        `json:"enabled"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// ChannelSettings is the settings-store view consumed by the verification flow.
type ChannelSettings struct {
	PhoneNumber string `json:"phone_number"`
	Verified    bool   `json:"verified"`
	Enabled     bool   `json:"enabled"`
}

// VerificationCode is a one-time code sent to a candidate number.
type VerificationCode struct {
	ID        int         `json:"id"`
	AccountID string      `json:"account_id"`
	Kind      ChannelKind `json:"kind"`
	Phone     string      `json:"phone"`
	Code      string      `json:"-"` // never expose the code in JSON responses
	CreatedAt time.Time   `json:"created_at"`
	ExpiresAt time.Time   `json:"expires_at"`
	Verified  bool        `json:"verified"`
	Attempts  int         `json:"attempts"`
}

// SubmitNumberRequest is the candidate-number submission payload.
type SubmitNumberRequest struct {
	Number   string `json:"number"`
	DialCode string `json:"dial_code,omitempty"`
}

// SubmitCodeRequest is the verification-code submission payload.
type SubmitCodeRequest struct {
	Code string `json:"code"`
}

// SetEnabledRequest toggles notification delivery on a verified channel.
type SetEnabledRequest struct {
	Enabled bool `json:"enabled"`
}

// ChannelView is the machine snapshot returned to the dashboard.
type ChannelView struct {
	Kind              ChannelKind  `json:"kind"`
	Phase             ChannelPhase `json:"phase"`
	PhoneNumber       string       `json:"phone_number,omitempty"`
	PendingNumber     string       `json:"pending_number,omitempty"`
	Enabled           bool         `json:"enabled"`
	CooldownSeconds   int          `json:"cooldown_seconds"`
	Busy              bool         `json:"busy"`
	ConfirmingRemoval bool         `json:"confirming_removal"`
	Error             string       `json:"error,omitempty"`
}
