package services

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"log"
	"math/big"
	"strconv"
	"time"

	"frontdesk-backend/internal/cache"
	"frontdesk-backend/internal/gateway"
	"frontdesk-backend/internal/metrics"
	"frontdesk-backend/internal/models"
	"frontdesk-backend/internal/repositories"
)

const (
	CodeLength        = 6
	CodeExpiryMinutes = 5
	MaxCodeAttempts   = 3

	// Default rate limits (configurable via system settings, 0 = disabled)
	DefaultMaxCodesPerHour = 0
)

// Rate limit setting keys
const (
	SettingMaxCodesPerHour = "verification_max_codes_per_hour"
)

// ChannelStore persists channel records. Implemented by
// repositories.ChannelRepository.
type ChannelStore interface {
	Get(ctx context.Context, accountID string, kind models.ChannelKind) (*models.NotificationChannel, error)
	UpsertPending(ctx context.Context, accountID string, kind models.ChannelKind, phone string) error
	MarkVerified(ctx context.Context, accountID string, kind models.ChannelKind) error
	SetEnabled(ctx context.Context, accountID string, kind models.ChannelKind, enabled bool) error
	Remove(ctx context.Context, accountID string, kind models.ChannelKind) error
}

// CodeStore persists issued verification codes. Implemented by
// repositories.VerificationCodeRepository.
type CodeStore interface {
	Create(ctx context.Context, code *models.VerificationCode) error
	GetLatest(ctx context.Context, accountID string, kind models.ChannelKind) (*models.VerificationCode, error)
	IncrementAttempts(ctx context.Context, id int) error
	MarkVerified(ctx context.Context, id int) error
	CountRecentRequests(ctx context.Context, accountID string, kind models.ChannelKind, duration time.Duration) (int, error)
}

// ChannelSettingsService is the authoritative store behind the verification
// flow. Every external call the verification machines make lands here.
type ChannelSettingsService struct {
	ChannelRepo ChannelStore
	CodeRepo    CodeStore
	Providers   map[models.ChannelKind]gateway.Provider
	SettingRepo *repositories.SystemSettingRepository
}

func NewChannelSettingsService(
	channelRepo ChannelStore,
	codeRepo CodeStore,
	providers map[models.ChannelKind]gateway.Provider,
) *ChannelSettingsService {
	return &ChannelSettingsService{
		ChannelRepo: channelRepo,
		CodeRepo:    codeRepo,
		Providers:   providers,
	}
}

// SetSettingRepo sets the system setting repository for configurable rate limits
func (s *ChannelSettingsService) SetSettingRepo(repo *repositories.SystemSettingRepository) {
	s.SettingRepo = repo
}

// GetChannelSettings returns the stored settings for one channel. A channel
// with no record yet reads as empty, not as an error.
func (s *ChannelSettingsService) GetChannelSettings(ctx context.Context, accountID string, kind models.ChannelKind) (*models.ChannelSettings, error) {
	if data, ok := cache.GetCachedChannel(ctx, accountID, string(kind)); ok {
		var settings models.ChannelSettings
		if err := json.Unmarshal(data, &settings); err == nil {
			return &settings, nil
		}
	}

	ch, err := s.ChannelRepo.Get(ctx, accountID, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to load channel settings: %w", err)
	}

	settings := &models.ChannelSettings{}
	if ch != nil {
		settings.PhoneNumber = ch.PhoneNumber
		settings.Verified = ch.Verified
		settings.Enabled = ch.Enabled
	}

	if data, err := json.Marshal(settings); err == nil {
		cache.CacheChannel(ctx, accountID, string(kind), data)
	}

	return settings, nil
}

// GenerateCode creates a secure 6-digit verification code
func (s *ChannelSettingsService) GenerateCode() string {
	max := big.NewInt(999999)
	n, _ := rand.Int(rand.Reader, max)
	return fmt.Sprintf("%06d", n.Int64())
}

// getRateLimitSetting fetches a rate limit setting with fallback to default
func (s *ChannelSettingsService) getRateLimitSetting(ctx context.Context, key string, defaultValue int) int {
	if s.SettingRepo == nil {
		return defaultValue
	}

	setting, err := s.SettingRepo.Get(ctx, key)
	if err != nil || setting == nil {
		return defaultValue
	}

	value, err := strconv.Atoi(setting.SettingValue)
	if err != nil {
		return defaultValue
	}

	return value
}

// SendCode stores a fresh code for the candidate number and delivers it over
// the channel's own gateway. The channel record records the candidate as an
// unverified number; it only becomes authoritative once a code confirms.
func (s *ChannelSettingsService) SendCode(ctx context.Context, accountID string, kind models.ChannelKind, number string) error {
	provider, ok := s.Providers[kind]
	if !ok || provider == nil {
		return fmt.Errorf("no gateway configured for channel %s", kind)
	}

	maxPerHour := s.getRateLimitSetting(ctx, SettingMaxCodesPerHour, DefaultMaxCodesPerHour)
	if maxPerHour > 0 {
		count, err := s.CodeRepo.CountRecentRequests(ctx, accountID, kind, time.Hour)
		if err != nil {
			return fmt.Errorf("failed to check recent requests: %w", err)
		}
		if count >= maxPerHour {
			return fmt.Errorf("too many verification codes requested, please try again later")
		}
	}

	code := &models.VerificationCode{
		AccountID: accountID,
		Kind:      kind,
		Phone:     number,
		Code:      s.GenerateCode(),
		ExpiresAt: time.Now().Add(CodeExpiryMinutes * time.Minute),
	}

	// Nothing persists until the gateway confirms the send. A failed delivery
	// must leave no code row and no pending candidate behind.
	if err := provider.SendVerificationCode(number, code.Code); err != nil {
		log.Printf("[Channel] Code delivery to %s failed on %s: %v", number, kind, err)
		return fmt.Errorf("failed to deliver verification code: %w", err)
	}

	if err := s.CodeRepo.Create(ctx, code); err != nil {
		return fmt.Errorf("failed to store verification code: %w", err)
	}
	if err := s.ChannelRepo.UpsertPending(ctx, accountID, kind, number); err != nil {
		return fmt.Errorf("failed to store candidate number: %w", err)
	}
	cache.InvalidateChannel(ctx, accountID, string(kind))

	metrics.VerificationCodesSent.WithLabelValues(string(kind)).Inc()
	log.Printf("[Channel] Verification code sent on %s for account %s", kind, accountID)
	return nil
}

// VerifyCode checks a submitted code against the latest one issued for the
// channel and, on a match, flips the channel to verified.
func (s *ChannelSettingsService) VerifyCode(ctx context.Context, accountID string, kind models.ChannelKind, submitted string) error {
	code, err := s.CodeRepo.GetLatest(ctx, accountID, kind)
	if err != nil {
		return fmt.Errorf("no verification code found, request a new one")
	}

	if code.Verified {
		return fmt.Errorf("code already used, request a new one")
	}
	if time.Now().After(code.ExpiresAt) {
		return fmt.Errorf("verification code expired, request a new one")
	}
	if code.Attempts >= MaxCodeAttempts {
		return fmt.Errorf("too many incorrect attempts, request a new code")
	}

	if code.Code != submitted {
		if err := s.CodeRepo.IncrementAttempts(ctx, code.ID); err != nil {
			log.Printf("[Channel] Failed to record attempt: %v", err)
		}
		return fmt.Errorf("incorrect verification code")
	}

	if err := s.CodeRepo.MarkVerified(ctx, code.ID); err != nil {
		return fmt.Errorf("failed to mark code verified: %w", err)
	}
	if err := s.ChannelRepo.MarkVerified(ctx, accountID, kind); err != nil {
		return fmt.Errorf("failed to mark channel verified: %w", err)
	}
	cache.InvalidateChannel(ctx, accountID, string(kind))

	log.Printf("[Channel] %s channel verified for account %s", kind, accountID)
	return nil
}

// SetEnabled toggles notification delivery on a verified channel
func (s *ChannelSettingsService) SetEnabled(ctx context.Context, accountID string, kind models.ChannelKind, enabled bool) error {
	if err := s.ChannelRepo.SetEnabled(ctx, accountID, kind, enabled); err != nil {
		return err
	}
	cache.InvalidateChannel(ctx, accountID, string(kind))
	return nil
}

// RemoveNumber deletes the channel record entirely
func (s *ChannelSettingsService) RemoveNumber(ctx context.Context, accountID string, kind models.ChannelKind) error {
	if err := s.ChannelRepo.Remove(ctx, accountID, kind); err != nil {
		return fmt.Errorf("failed to remove channel: %w", err)
	}
	cache.InvalidateChannel(ctx, accountID, string(kind))

	log.Printf("[Channel] %s channel removed for account %s", kind, accountID)
	return nil
}
