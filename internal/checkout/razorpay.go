package checkout

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"strconv"
	"time"

	"frontdesk-backend/internal/acquisition"
	"frontdesk-backend/internal/models"
	"frontdesk-backend/internal/repositories"

	razorpay "github.com/razorpay/razorpay-go"
)

const defaultMonthlyPricePaise = 149900 // fallback when no price is configured

type RazorpayService struct {
	sessionRepo       *repositories.CheckoutSessionRepository
	systemSettingRepo *repositories.SystemSettingRepository
	returnBaseURL     string
	// Fallback credentials from environment (used if DB credentials not set)
	envKeyID         string
	envKeySecret     string
	envWebhookSecret string
}

func NewRazorpayService(
	keyID, keySecret, webhookSecret, returnBaseURL string,
	sessionRepo *repositories.CheckoutSessionRepository,
	systemSettingRepo *repositories.SystemSettingRepository,
) *RazorpayService {
	return &RazorpayService{
		sessionRepo:       sessionRepo,
		systemSettingRepo: systemSettingRepo,
		returnBaseURL:     returnBaseURL,
		envKeyID:          keyID,
		envKeySecret:      keySecret,
		envWebhookSecret:  webhookSecret,
	}
}

// getCredentials returns the Razorpay credentials (from DB first, then env fallback)
func (s *RazorpayService) getCredentials(ctx context.Context) (keyID, keySecret, webhookSecret string) {
	if s.systemSettingRepo != nil {
		if setting, err := s.systemSettingRepo.Get(ctx, "razorpay_key_id"); err == nil && setting != nil && setting.SettingValue != "" {
			keyID = setting.SettingValue
		}
		if setting, err := s.systemSettingRepo.Get(ctx, "razorpay_key_secret"); err == nil && setting != nil && setting.SettingValue != "" {
			keySecret = setting.SettingValue
		}
		if setting, err := s.systemSettingRepo.Get(ctx, "razorpay_webhook_secret"); err == nil && setting != nil && setting.SettingValue != "" {
			webhookSecret = setting.SettingValue
		}
	}

	if keyID == "" {
		keyID = s.envKeyID
	}
	if keySecret == "" {
		keySecret = s.envKeySecret
	}
	if webhookSecret == "" {
		webhookSecret = s.envWebhookSecret
	}

	return keyID, keySecret, webhookSecret
}

// getClient returns a Razorpay client with current credentials
func (s *RazorpayService) getClient(ctx context.Context) *razorpay.Client {
	keyID, keySecret, _ := s.getCredentials(ctx)
	if keyID == "" || keySecret == "" {
		return nil
	}
	return razorpay.NewClient(keyID, keySecret)
}

// monthlyPricePaise returns the configured number price in paise
func (s *RazorpayService) monthlyPricePaise(ctx context.Context) int {
	if s.systemSettingRepo == nil {
		return defaultMonthlyPricePaise
	}
	setting, err := s.systemSettingRepo.Get(ctx, "number_monthly_price_paise")
	if err != nil || setting == nil {
		return defaultMonthlyPricePaise
	}
	price, err := strconv.Atoi(setting.SettingValue)
	if err != nil || price <= 0 {
		return defaultMonthlyPricePaise
	}
	return price
}

// CreateCheckoutSession creates a hosted payment link for the selected number
// and returns its redirect URL. The session row is stored before the URL is
// handed back so the return trip always finds something to reconcile.
func (s *RazorpayService) CreateCheckoutSession(ctx context.Context, req acquisition.CheckoutRequest) (string, error) {
	client := s.getClient(ctx)
	if client == nil {
		return "", fmt.Errorf("razorpay client not configured")
	}

	callbackURL := fmt.Sprintf("%s/api/acquisitions/%s/return", s.returnBaseURL, req.DraftID)

	linkData := map[string]interface{}{
		"amount":      s.monthlyPricePaise(ctx),
		"currency":    "INR",
		"description": fmt.Sprintf("Phone number %s", req.PhoneNumber),
		"reference_id": fmt.Sprintf("acq_%s_%d", req.DraftID, time.Now().Unix()),
		"callback_url":    callbackURL,
		"callback_method": "get",
		"notes": map[string]interface{}{
			"draft_id":     req.DraftID,
			"business_id":  req.BusinessID,
			"phone_number": req.PhoneNumber,
		},
	}

	link, err := client.PaymentLink.Create(linkData, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create payment link: %w", err)
	}

	linkID, _ := link["id"].(string)
	shortURL, _ := link["short_url"].(string)
	if shortURL == "" {
		return "", fmt.Errorf("payment link response missing redirect URL")
	}

	session := &models.CheckoutSession{
		SessionID:   req.DraftID,
		BusinessID:  req.BusinessID,
		PhoneNumber: req.PhoneNumber,
		ProviderRef: linkID,
		CheckoutURL: shortURL,
		Outcome:     string(models.OutcomeNone),
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return "", fmt.Errorf("failed to store checkout session: %w", err)
	}

	return shortURL, nil
}

// VerifyWebhookSignature verifies the webhook signature
func (s *RazorpayService) VerifyWebhookSignature(ctx context.Context, body []byte, signature string) bool {
	_, _, webhookSecret := s.getCredentials(ctx)
	if webhookSecret == "" {
		return true // Skip verification if not configured
	}

	h := hmac.New(sha256.New, []byte(webhookSecret))
	h.Write(body)
	expectedSignature := hex.EncodeToString(h.Sum(nil))
	return hmac.Equal([]byte(expectedSignature), []byte(signature))
}

// ProcessWebhook maps provider events onto the stored session. It records the
// outcome but does not consume it; consumption happens on the return trip or
// on webhook-driven reconciliation by the acquisition service.
func (s *RazorpayService) ProcessWebhook(ctx context.Context, event string, payload map[string]interface{}) (*models.CheckoutSession, models.CheckoutOutcome, error) {
	var outcome models.CheckoutOutcome
	switch event {
	case "payment_link.paid":
		outcome = models.OutcomeSuccess
	case "payment_link.cancelled", "payment_link.expired":
		outcome = models.OutcomeCancelled
	default:
		log.Printf("[Checkout] Unhandled webhook event: %s", event)
		return nil, models.OutcomeNone, nil
	}

	linkID := extractLinkID(payload)
	if linkID == "" {
		return nil, models.OutcomeNone, fmt.Errorf("webhook payload missing payment link id")
	}

	session, err := s.sessionRepo.SetOutcomeByProviderRef(ctx, linkID, string(outcome))
	if err != nil {
		return nil, models.OutcomeNone, fmt.Errorf("failed to record webhook outcome: %w", err)
	}
	if session == nil {
		// Already reconciled or unknown link; nothing left to apply.
		log.Printf("[Checkout] Webhook for link %s matched no open session", linkID)
		return nil, models.OutcomeNone, nil
	}

	return session, outcome, nil
}

// Consume reads the session outcome exactly once and marks it reconciled.
func (s *RazorpayService) Consume(ctx context.Context, sessionID string, outcome models.CheckoutOutcome) (*models.CheckoutSession, error) {
	return s.sessionRepo.Consume(ctx, sessionID, string(outcome))
}

func extractLinkID(payload map[string]interface{}) string {
	entity, ok := payload["payment_link"].(map[string]interface{})
	if !ok {
		return ""
	}
	inner, ok := entity["entity"].(map[string]interface{})
	if !ok {
		return ""
	}
	id, _ := inner["id"].(string)
	return id
}

// MockCheckout is a CheckoutStarter for tests; it hands out canned URLs.
type MockCheckout struct {
	URL      string
	Err      error
	Requests []acquisition.CheckoutRequest
}

func (m *MockCheckout) CreateCheckoutSession(_ context.Context, req acquisition.CheckoutRequest) (string, error) {
	m.Requests = append(m.Requests, req)
	if m.Err != nil {
		return "", m.Err
	}
	if m.URL == "" {
		return "https://checkout.example/session", nil
	}
	return m.URL, nil
}
