package services

import (
	"context"
	"fmt"
	"log"

	"frontdesk-backend/internal/gateway"
	"frontdesk-backend/internal/models"
)

// NotificationService fans a message out over every channel the account has
// verified and enabled. Channels that are unverified or switched off are
// skipped without error.
type NotificationService struct {
	Store     *ChannelSettingsService
	Providers map[models.ChannelKind]gateway.Provider
}

func NewNotificationService(store *ChannelSettingsService, providers map[models.ChannelKind]gateway.Provider) *NotificationService {
	return &NotificationService{
		Store:     store,
		Providers: providers,
	}
}

// Notify sends the message to the account over all deliverable channels.
// It returns an error only when every attempted channel failed.
func (s *NotificationService) Notify(ctx context.Context, accountID, message string) error {
	attempted := 0
	failed := 0

	for kind, provider := range s.Providers {
		settings, err := s.Store.GetChannelSettings(ctx, accountID, kind)
		if err != nil {
			log.Printf("[Notify] Failed to load %s settings for %s: %v", kind, accountID, err)
			continue
		}
		if !settings.Verified || !settings.Enabled || settings.PhoneNumber == "" {
			continue
		}

		attempted++
		if err := provider.SendMessage(settings.PhoneNumber, message, models.MessageTypeNotification, accountID); err != nil {
			failed++
			log.Printf("[Notify] %s delivery to account %s failed: %v", kind, accountID, err)
		}
	}

	if attempted > 0 && failed == attempted {
		return fmt.Errorf("notification delivery failed on all %d channels", attempted)
	}
	return nil
}
