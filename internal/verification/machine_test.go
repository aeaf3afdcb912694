package verification

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"frontdesk-backend/internal/models"

	"github.com/stretchr/testify/require"
)

// fakeStore is an in-memory SettingsStore. VerifyCode success marks the last
// sent target as the verified number, mirroring what the real store does.
type fakeStore struct {
	mu       sync.Mutex
	settings models.ChannelSettings

	sendErr   error
	verifyErr error

	sent        []string
	verifyCalls int
	removeCalls int

	verifyStarted chan struct{}
	verifyRelease chan struct{}
}

func (f *fakeStore) GetChannelSettings(_ context.Context, _ string, _ models.ChannelKind) (*models.ChannelSettings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.settings
	return &s, nil
}

func (f *fakeStore) SendCode(_ context.Context, _ string, _ models.ChannelKind, number string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, number)
	return nil
}

func (f *fakeStore) VerifyCode(_ context.Context, _ string, _ models.ChannelKind, _ string) error {
	if f.verifyStarted != nil {
		close(f.verifyStarted)
		f.verifyStarted = nil
	}
	if f.verifyRelease != nil {
		<-f.verifyRelease
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.verifyCalls++
	if f.verifyErr != nil {
		return f.verifyErr
	}
	if len(f.sent) > 0 {
		f.settings = models.ChannelSettings{
			PhoneNumber: f.sent[len(f.sent)-1],
			Verified:    true,
			Enabled:     true,
		}
	}
	return nil
}

func (f *fakeStore) SetEnabled(_ context.Context, _ string, _ models.ChannelKind, enabled bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.settings.Enabled = enabled
	return nil
}

func (f *fakeStore) RemoveNumber(_ context.Context, _ string, _ models.ChannelKind) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removeCalls++
	f.settings = models.ChannelSettings{}
	return nil
}

func (f *fakeStore) sentTo() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

func newSMSMachine(t *testing.T, store *fakeStore, clk *fakeClock) *Machine {
	t.Helper()
	m, err := NewMachine(context.Background(), "acct-1", SMSSpec(), store, clk)
	require.NoError(t, err)
	return m
}

func TestMachineMountsVerifiedFromRecord(t *testing.T) {
	store := &fakeStore{settings: models.ChannelSettings{
		PhoneNumber: "+905321112233",
		Verified:    true,
		Enabled:     true,
	}}
	m := newSMSMachine(t, store, &fakeClock{})

	v := m.View()
	require.Equal(t, models.PhaseVerified, v.Phase)
	require.Equal(t, "+905321112233", v.PhoneNumber)
	require.True(t, v.Enabled)
	require.Equal(t, 0, v.CooldownSeconds)
}

func TestSubmitNumberRejectsInvalidInputLocally(t *testing.T) {
	store := &fakeStore{}
	m := newSMSMachine(t, store, &fakeClock{})

	m.SetCandidate("123", "+90")
	err := m.SubmitNumber(context.Background())
	require.Error(t, err)
	require.Equal(t, models.PhaseNoNumber, m.Phase())
	require.Empty(t, store.sentTo(), "no gateway call for invalid input")
	require.NotEmpty(t, m.View().Error)
}

func TestSubmitNumberComposesDialCodeAndDigits(t *testing.T) {
	store := &fakeStore{}
	m := newSMSMachine(t, store, &fakeClock{})

	m.SetCandidate("532 111 22 33", "+90")
	require.NoError(t, m.SubmitNumber(context.Background()))

	require.Equal(t, []string{"+905321112233"}, store.sentTo())
	v := m.View()
	require.Equal(t, models.PhaseAwaitingCode, v.Phase)
	require.Equal(t, "+905321112233", v.PendingNumber)
	require.Equal(t, ResendCooldownSeconds, v.CooldownSeconds)
}

func TestSubmitNumberFailureLeavesStateUntouched(t *testing.T) {
	store := &fakeStore{sendErr: errors.New("gateway unreachable")}
	m := newSMSMachine(t, store, &fakeClock{})

	m.SetCandidate("5321112233", "+90")
	err := m.SubmitNumber(context.Background())
	require.Error(t, err)

	v := m.View()
	require.Equal(t, models.PhaseNoNumber, v.Phase)
	require.Empty(t, v.PendingNumber)
	require.Equal(t, 0, v.CooldownSeconds, "cooldown must not start on a failed send")
	require.Equal(t, "gateway unreachable", v.Error)
}

func TestWhatsAppRequiresInternationalFormat(t *testing.T) {
	store := &fakeStore{}
	m, err := NewMachine(context.Background(), "acct-1", WhatsAppSpec(), store, &fakeClock{})
	require.NoError(t, err)

	m.SetCandidate("5321112233", "")
	require.Error(t, m.SubmitNumber(context.Background()))
	require.Equal(t, models.PhaseNoNumber, m.Phase())

	m.SetCandidate("+905321112233", "")
	require.NoError(t, m.SubmitNumber(context.Background()))
	require.Equal(t, []string{"+905321112233"}, store.sentTo())
}

func TestSubmitCodeRequiresSixDigits(t *testing.T) {
	store := &fakeStore{}
	m := newSMSMachine(t, store, &fakeClock{})
	m.SetCandidate("5321112233", "+90")
	require.NoError(t, m.SubmitNumber(context.Background()))

	m.SetCode("12345")
	err := m.SubmitCode(context.Background())
	require.ErrorIs(t, err, ErrCodeIncomplete)
	require.Equal(t, 0, store.verifyCalls, "short code must not reach the store")
	require.Equal(t, models.PhaseAwaitingCode, m.Phase())
}

func TestSetCodeSanitizesInput(t *testing.T) {
	store := &fakeStore{}
	m := newSMSMachine(t, store, &fakeClock{})
	m.SetCandidate("5321112233", "+90")
	require.NoError(t, m.SubmitNumber(context.Background()))

	// Separators stripped, overflow digits truncated.
	m.SetCode("12-34-56-78")
	require.NoError(t, m.SubmitCode(context.Background()))
	require.Equal(t, 1, store.verifyCalls)
}

func TestSubmitCodeWrongCodeKeepsPending(t *testing.T) {
	store := &fakeStore{verifyErr: errors.New("incorrect verification code")}
	m := newSMSMachine(t, store, &fakeClock{})
	m.SetCandidate("5321112233", "+90")
	require.NoError(t, m.SubmitNumber(context.Background()))

	m.SetCode("000000")
	require.Error(t, m.SubmitCode(context.Background()))

	v := m.View()
	require.Equal(t, models.PhaseAwaitingCode, v.Phase)
	require.Equal(t, "+905321112233", v.PendingNumber, "pending number survives a failed verify")
	require.Equal(t, "incorrect verification code", v.Error)
}

func TestSubmitCodeSuccessVerifies(t *testing.T) {
	store := &fakeStore{}
	m := newSMSMachine(t, store, &fakeClock{})
	m.SetCandidate("5321112233", "+90")
	require.NoError(t, m.SubmitNumber(context.Background()))

	m.SetCode("123456")
	require.NoError(t, m.SubmitCode(context.Background()))

	v := m.View()
	require.Equal(t, models.PhaseVerified, v.Phase)
	require.Equal(t, "+905321112233", v.PhoneNumber)
	require.Empty(t, v.PendingNumber)
	require.True(t, v.Enabled)
	require.Equal(t, 0, v.CooldownSeconds, "verify clears the resend cooldown")
}

func TestResendGatedByCooldown(t *testing.T) {
	store := &fakeStore{}
	m := newSMSMachine(t, store, &fakeClock{})
	m.SetCandidate("5321112233", "+90")
	require.NoError(t, m.SubmitNumber(context.Background()))

	err := m.Resend(context.Background())
	require.ErrorIs(t, err, ErrCooldownActive)
	require.Len(t, store.sentTo(), 1, "resend during cooldown must not hit the gateway")
}

func TestFailedResendDoesNotRestartCooldown(t *testing.T) {
	store := &fakeStore{}
	clk := &fakeClock{}
	m := newSMSMachine(t, store, clk)
	m.SetCandidate("5321112233", "+90")
	require.NoError(t, m.SubmitNumber(context.Background()))

	for i := 0; i < ResendCooldownSeconds; i++ {
		clk.tick()
	}
	require.Eventually(t, func() bool {
		return m.CooldownSeconds() == 0
	}, time.Second, time.Millisecond)

	store.mu.Lock()
	store.sendErr = errors.New("gateway unreachable")
	store.mu.Unlock()
	require.Error(t, m.Resend(context.Background()))
	require.Equal(t, 0, m.CooldownSeconds(), "failed resend must leave retry open")

	store.mu.Lock()
	store.sendErr = nil
	store.mu.Unlock()
	require.NoError(t, m.Resend(context.Background()))
	require.Equal(t, ResendCooldownSeconds, m.CooldownSeconds())
	require.Equal(t, []string{"+905321112233", "+905321112233"}, store.sentTo())
}

func TestChangeNumberDropsLateVerifySuccess(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	store := &fakeStore{verifyStarted: started, verifyRelease: release}
	m := newSMSMachine(t, store, &fakeClock{})
	m.SetCandidate("5321112233", "+90")
	require.NoError(t, m.SubmitNumber(context.Background()))
	m.SetCode("123456")

	done := make(chan error, 1)
	go func() { done <- m.SubmitCode(context.Background()) }()
	<-started

	// The user abandons this attempt while the verify is still in flight.
	require.NoError(t, m.ChangeNumber())
	close(release)
	require.NoError(t, <-done)

	v := m.View()
	require.Equal(t, models.PhaseNoNumber, v.Phase, "late verify success must not re-verify")
	require.Empty(t, v.PhoneNumber)
	require.False(t, v.Busy)
}

func TestChangeNumberReturnsToEntry(t *testing.T) {
	store := &fakeStore{}
	m := newSMSMachine(t, store, &fakeClock{})
	m.SetCandidate("5321112233", "+90")
	require.NoError(t, m.SubmitNumber(context.Background()))

	require.NoError(t, m.ChangeNumber())
	v := m.View()
	require.Equal(t, models.PhaseNoNumber, v.Phase)
	require.Empty(t, v.PendingNumber)
	require.Equal(t, 0, v.CooldownSeconds)
	require.Len(t, store.sentTo(), 1, "abandoning makes no external call")
}

func TestRemoveClearsVerifiedChannel(t *testing.T) {
	store := &fakeStore{settings: models.ChannelSettings{
		PhoneNumber: "+905321112233",
		Verified:    true,
		Enabled:     true,
	}}
	m := newSMSMachine(t, store, &fakeClock{})

	require.NoError(t, m.Remove(context.Background()))
	v := m.View()
	require.Equal(t, models.PhaseNoNumber, v.Phase)
	require.Empty(t, v.PhoneNumber)
	require.False(t, v.Enabled)
	require.Equal(t, 1, store.removeCalls)
}

func TestOperationsRejectedInWrongPhase(t *testing.T) {
	store := &fakeStore{}
	m := newSMSMachine(t, store, &fakeClock{})

	require.ErrorIs(t, m.SubmitCode(context.Background()), ErrBadPhase)
	require.ErrorIs(t, m.Resend(context.Background()), ErrBadPhase)
	require.ErrorIs(t, m.ChangeNumber(), ErrBadPhase)
	require.ErrorIs(t, m.SetEnabled(context.Background(), true), ErrBadPhase)
	require.ErrorIs(t, m.Remove(context.Background()), ErrBadPhase)
}
