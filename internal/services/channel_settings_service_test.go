package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"frontdesk-backend/internal/gateway"
	"frontdesk-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChannelRepo struct {
	upserts  []string
	verified int
	removed  int
}

func (f *fakeChannelRepo) Get(context.Context, string, models.ChannelKind) (*models.NotificationChannel, error) {
	return nil, nil
}

func (f *fakeChannelRepo) UpsertPending(_ context.Context, _ string, _ models.ChannelKind, phone string) error {
	f.upserts = append(f.upserts, phone)
	return nil
}

func (f *fakeChannelRepo) MarkVerified(context.Context, string, models.ChannelKind) error {
	f.verified++
	return nil
}

func (f *fakeChannelRepo) SetEnabled(context.Context, string, models.ChannelKind, bool) error {
	return nil
}

func (f *fakeChannelRepo) Remove(context.Context, string, models.ChannelKind) error {
	f.removed++
	return nil
}

type fakeCodeRepo struct {
	created []*models.VerificationCode
}

func (f *fakeCodeRepo) Create(_ context.Context, code *models.VerificationCode) error {
	code.ID = len(f.created) + 1
	f.created = append(f.created, code)
	return nil
}

func (f *fakeCodeRepo) GetLatest(context.Context, string, models.ChannelKind) (*models.VerificationCode, error) {
	if len(f.created) == 0 {
		return nil, errors.New("no rows")
	}
	return f.created[len(f.created)-1], nil
}

func (f *fakeCodeRepo) IncrementAttempts(_ context.Context, id int) error {
	f.created[id-1].Attempts++
	return nil
}

func (f *fakeCodeRepo) MarkVerified(_ context.Context, id int) error {
	f.created[id-1].Verified = true
	return nil
}

func (f *fakeCodeRepo) CountRecentRequests(context.Context, string, models.ChannelKind, time.Duration) (int, error) {
	return len(f.created), nil
}

func newTestSettingsService(provider gateway.Provider) (*ChannelSettingsService, *fakeChannelRepo, *fakeCodeRepo) {
	channels := &fakeChannelRepo{}
	codes := &fakeCodeRepo{}
	svc := NewChannelSettingsService(channels, codes, map[models.ChannelKind]gateway.Provider{
		models.ChannelSMS: provider,
	})
	return svc, channels, codes
}

func TestGenerateCodeFormat(t *testing.T) {
	s := &ChannelSettingsService{}

	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		code := s.GenerateCode()
		require.Len(t, code, CodeLength)
		for _, r := range code {
			require.True(t, r >= '0' && r <= '9', "code %q must be digits only", code)
		}
		seen[code] = true
	}
	// 200 draws from a million-value space colliding down to a handful would
	// mean the generator is broken, not unlucky.
	assert.Greater(t, len(seen), 150)
}

func TestSendCodePersistsNothingOnDeliveryFailure(t *testing.T) {
	provider := gateway.NewMockProvider(models.ChannelSMS)
	provider.FailAll = true
	svc, channels, codes := newTestSettingsService(provider)

	err := svc.SendCode(context.Background(), "acct-1", models.ChannelSMS, "+905321112233")
	require.Error(t, err)
	assert.Empty(t, codes.created, "no code row survives a failed delivery")
	assert.Empty(t, channels.upserts, "no pending candidate survives a failed delivery")
}

func TestSendCodePersistsAfterConfirmedDelivery(t *testing.T) {
	provider := gateway.NewMockProvider(models.ChannelSMS)
	svc, channels, codes := newTestSettingsService(provider)

	err := svc.SendCode(context.Background(), "acct-1", models.ChannelSMS, "+905321112233")
	require.NoError(t, err)

	require.Equal(t, []string{"+905321112233"}, provider.Sent)
	require.Len(t, codes.created, 1)
	assert.Len(t, codes.created[0].Code, CodeLength)
	assert.Equal(t, []string{"+905321112233"}, channels.upserts)
}

func TestVerifyCodeConfirmsLatestSentCode(t *testing.T) {
	provider := gateway.NewMockProvider(models.ChannelSMS)
	svc, channels, codes := newTestSettingsService(provider)
	ctx := context.Background()

	require.NoError(t, svc.SendCode(ctx, "acct-1", models.ChannelSMS, "+905321112233"))
	issued := codes.created[0].Code

	wrong := "000000"
	if issued == wrong {
		wrong = "000001"
	}
	err := svc.VerifyCode(ctx, "acct-1", models.ChannelSMS, wrong)
	require.Error(t, err)
	assert.Equal(t, 1, codes.created[0].Attempts)
	assert.Equal(t, 0, channels.verified)

	require.NoError(t, svc.VerifyCode(ctx, "acct-1", models.ChannelSMS, issued))
	assert.True(t, codes.created[0].Verified)
	assert.Equal(t, 1, channels.verified)

	// A confirmed code cannot be replayed.
	err = svc.VerifyCode(ctx, "acct-1", models.ChannelSMS, issued)
	require.Error(t, err)
}
