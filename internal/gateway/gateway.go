package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"frontdesk-backend/internal/models"
)

// Provider is an interface for delivering messages over one channel.
type Provider interface {
	SendVerificationCode(phone, code string) error
	SendMessage(phone, message, messageType, accountID string) error
	SetLogRepository(repo MessageLogRepo)
}

// MessageLogRepo interface for logging
type MessageLogRepo interface {
	Create(ctx context.Context, log *models.MessageLog) error
}

// SMSService implements Provider over a bulk SMS HTTP gateway.
type SMSService struct {
	APIKey  string
	BaseURL string
	LogRepo MessageLogRepo
	client  *http.Client
}

// NewSMSService creates a new SMS gateway client.
func NewSMSService(apiKey, baseURL string) *SMSService {
	return &SMSService{
		APIKey:  apiKey,
		BaseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// SetLogRepository sets the message log repository
func (s *SMSService) SetLogRepository(repo MessageLogRepo) {
	s.LogRepo = repo
}

// SendVerificationCode sends a one-time code via SMS
func (s *SMSService) SendVerificationCode(phone, code string) error {
	message := fmt.Sprintf("Your Frontdesk verification code is %s. Valid for 5 minutes. Do not share this code with anyone.", code)
	return s.SendMessage(phone, message, models.MessageTypeVerification, "")
}

// SendMessage sends a single SMS message
func (s *SMSService) SendMessage(phone, message, messageType, accountID string) error {
	apiURL := fmt.Sprintf(
		"%s/messages?authorization=%s&message=%s&numbers=%s",
		s.BaseURL,
		url.QueryEscape(s.APIKey),
		url.QueryEscape(message),
		url.QueryEscape(phone),
	)

	msgLog := &models.MessageLog{
		AccountID:   accountID,
		Phone:       phone,
		Channel:     string(models.ChannelSMS),
		MessageType: messageType,
		Message:     message,
		Status:      models.MessageStatusPending,
	}

	req, err := http.NewRequest("GET", apiURL, nil)
	if err != nil {
		msgLog.Status = models.MessageStatusFailed
		msgLog.ErrorMessage = err.Error()
		s.logMessage(msgLog)
		return fmt.Errorf("failed to create SMS request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		msgLog.Status = models.MessageStatusFailed
		msgLog.ErrorMessage = err.Error()
		s.logMessage(msgLog)
		return fmt.Errorf("failed to send SMS: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		msgLog.Status = models.MessageStatusFailed
		msgLog.ErrorMessage = fmt.Sprintf("HTTP %d: %s", resp.StatusCode, string(body))
		s.logMessage(msgLog)
		return fmt.Errorf("SMS gateway error (status %d): %s", resp.StatusCode, string(body))
	}

	var apiResp map[string]interface{}
	json.Unmarshal(body, &apiResp)

	msgLog.Status = models.MessageStatusSent
	if requestID, ok := apiResp["request_id"].(string); ok {
		msgLog.ReferenceID = requestID
	}
	s.logMessage(msgLog)

	return nil
}

// logMessage logs the message to database
func (s *SMSService) logMessage(log *models.MessageLog) {
	if s.LogRepo == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.LogRepo.Create(ctx, log)
	}()
}

// WhatsAppService implements Provider over the Meta WhatsApp Cloud API.
type WhatsAppService struct {
	APIKey        string
	PhoneNumberID string
	LogRepo       MessageLogRepo
	client        *http.Client
}

// NewWhatsAppService creates a new WhatsApp Cloud API client.
func NewWhatsAppService(apiKey, phoneNumberID string) *WhatsAppService {
	return &WhatsAppService{
		APIKey:        apiKey,
		PhoneNumberID: phoneNumberID,
		client:        &http.Client{Timeout: 30 * time.Second},
	}
}

// SetLogRepository sets the message log repository
func (s *WhatsAppService) SetLogRepository(repo MessageLogRepo) {
	s.LogRepo = repo
}

// SendVerificationCode sends a one-time code via WhatsApp
func (s *WhatsAppService) SendVerificationCode(phone, code string) error {
	message := fmt.Sprintf("Your Frontdesk verification code is %s. Valid for 5 minutes. Do not share this code with anyone.", code)
	return s.SendMessage(phone, message, models.MessageTypeVerification, "")
}

// SendMessage sends a single WhatsApp text message
func (s *WhatsAppService) SendMessage(phone, message, messageType, accountID string) error {
	msgLog := &models.MessageLog{
		AccountID:   accountID,
		Phone:       phone,
		Channel:     string(models.ChannelWhatsApp),
		MessageType: messageType,
		Message:     message,
		Status:      models.MessageStatusPending,
	}

	payload := map[string]interface{}{
		"messaging_product": "whatsapp",
		"recipient_type":    "individual",
		"to":                stripPlus(phone),
		"type":              "text",
		"text": map[string]string{
			"preview_url": "false",
			"body":        message,
		},
	}

	jsonData, _ := json.Marshal(payload)
	apiURL := fmt.Sprintf("https://graph.facebook.com/v18.0/%s/messages", s.PhoneNumberID)

	req, err := http.NewRequest("POST", apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		msgLog.Status = models.MessageStatusFailed
		msgLog.ErrorMessage = err.Error()
		s.logMessage(msgLog)
		return err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		msgLog.Status = models.MessageStatusFailed
		msgLog.ErrorMessage = err.Error()
		s.logMessage(msgLog)
		return err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		msgLog.Status = models.MessageStatusFailed
		msgLog.ErrorMessage = string(body)
		s.logMessage(msgLog)
		return fmt.Errorf("WhatsApp API error: %s", string(body))
	}

	msgLog.Status = models.MessageStatusSent
	s.logMessage(msgLog)
	return nil
}

// logMessage logs to database
func (s *WhatsAppService) logMessage(log *models.MessageLog) {
	if s.LogRepo == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.LogRepo.Create(ctx, log)
	}()
}

// stripPlus removes a leading + for providers that want bare digits.
func stripPlus(phone string) string {
	if len(phone) > 0 && phone[0] == '+' {
		return phone[1:]
	}
	return phone
}

// MockProvider is a mock implementation for testing (prints to console).
type MockProvider struct {
	Channel models.ChannelKind
	LogRepo MessageLogRepo

	Sent    []string // phones, in send order
	FailAll bool
}

// NewMockProvider creates a new mock provider for a channel.
func NewMockProvider(channel models.ChannelKind) *MockProvider {
	return &MockProvider{Channel: channel}
}

// SetLogRepository sets the message log repository
func (s *MockProvider) SetLogRepository(repo MessageLogRepo) {
	s.LogRepo = repo
}

// SendVerificationCode prints the code to console instead of delivering it
func (s *MockProvider) SendVerificationCode(phone, code string) error {
	message := fmt.Sprintf("Your Frontdesk verification code is %s. Valid for 5 minutes.", code)
	return s.SendMessage(phone, message, models.MessageTypeVerification, "")
}

// SendMessage logs the message to console
func (s *MockProvider) SendMessage(phone, message, messageType, accountID string) error {
	if s.FailAll {
		return fmt.Errorf("mock %s gateway failure", s.Channel)
	}
	s.Sent = append(s.Sent, phone)

	fmt.Printf("\n========== MOCK %s ==========\n", s.Channel)
	fmt.Printf("To: %s\n", phone)
	fmt.Printf("Type: %s\n", messageType)
	fmt.Printf("Message: %s\n", message)
	fmt.Printf("==============================\n\n")

	if s.LogRepo != nil {
		msgLog := &models.MessageLog{
			AccountID:   accountID,
			Phone:       phone,
			Channel:     string(s.Channel),
			MessageType: messageType,
			Message:     message,
			Status:      models.MessageStatusSent,
		}
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			s.LogRepo.Create(ctx, msgLog)
		}()
	}

	return nil
}
