package verification

import (
	"context"
	"errors"
	"sync"

	"frontdesk-backend/internal/clock"
	"frontdesk-backend/internal/models"
)

// CodeLength is the one-time code length; submission is gated on exactly
// this many digits.
const CodeLength = 6

// SettingsStore is the external collaborator holding the authoritative
// channel record. The store, not the machine, is the system of record.
type SettingsStore interface {
	GetChannelSettings(ctx context.Context, accountID string, kind models.ChannelKind) (*models.ChannelSettings, error)
	SendCode(ctx context.Context, accountID string, kind models.ChannelKind, number string) error
	VerifyCode(ctx context.Context, accountID string, kind models.ChannelKind, code string) error
	SetEnabled(ctx context.Context, accountID string, kind models.ChannelKind, enabled bool) error
	RemoveNumber(ctx context.Context, accountID string, kind models.ChannelKind) error
}

var (
	ErrBusy           = errors.New("another verification call is in flight")
	ErrCooldownActive = errors.New("resend is on cooldown")
	ErrBadPhase       = errors.New("operation not allowed in current phase")
	ErrCodeIncomplete = errors.New("enter the 6-digit code")
)

// Machine drives one channel through NoNumber -> AwaitingCode -> Verified.
// All transitions are gated on confirmed store success; a failed call leaves
// the machine exactly where it was so the user can retry. Responses that
// resolve after the machine moved on (change number, remove) are dropped.
type Machine struct {
	accountID string
	spec      ChannelSpec
	store     SettingsStore
	cooldown  *Cooldown

	mu        sync.Mutex
	phase     models.ChannelPhase
	number    string // persisted verified number
	pending   string // target of the current verification attempt
	candidate string
	dialCode  string
	code      string
	enabled   bool
	busy      bool
	gen       uint64
	errMsg    string
}

// NewMachine builds a machine from the authoritative record. A machine is
// created fresh on page mount; cooldown always starts cleared.
func NewMachine(ctx context.Context, accountID string, spec ChannelSpec, store SettingsStore, clk clock.Clock) (*Machine, error) {
	settings, err := store.GetChannelSettings(ctx, accountID, spec.Kind)
	if err != nil {
		return nil, err
	}

	m := &Machine{
		accountID: accountID,
		spec:      spec,
		store:     store,
		cooldown:  NewCooldown(clk),
		phase:     models.PhaseNoNumber,
	}
	if settings.Verified && settings.PhoneNumber != "" {
		m.phase = models.PhaseVerified
		m.number = settings.PhoneNumber
		m.enabled = settings.Enabled
	}
	return m, nil
}

// SetCandidate updates the draft number input. Any input change clears the
// channel-local error.
func (m *Machine) SetCandidate(input, dialCode string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.candidate = input
	if dialCode != "" {
		m.dialCode = dialCode
	}
	m.errMsg = ""
}

// SetCode updates the draft code input, digits only, truncated to 6.
func (m *Machine) SetCode(input string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.code = sanitizeCode(input)
	m.errMsg = ""
}

// SubmitNumber validates the candidate and asks the store to send a code.
// Only on confirmed success does the machine enter AwaitingCode and start
// the resend cooldown.
func (m *Machine) SubmitNumber(ctx context.Context) error {
	m.mu.Lock()
	if m.phase != models.PhaseNoNumber {
		m.mu.Unlock()
		return ErrBadPhase
	}
	if m.busy {
		m.mu.Unlock()
		return ErrBusy
	}
	target, err := m.spec.Validate(m.candidate, m.dialCode)
	if err != nil {
		m.errMsg = err.Error()
		m.mu.Unlock()
		return err
	}
	m.busy = true
	gen := m.gen
	m.mu.Unlock()

	sendErr := m.store.SendCode(ctx, m.accountID, m.spec.Kind, target)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.busy = false
	if gen != m.gen {
		// Superseded while in flight; the result no longer applies.
		return nil
	}
	if sendErr != nil {
		m.errMsg = sendErr.Error()
		return sendErr
	}
	m.pending = target
	m.phase = models.PhaseAwaitingCode
	m.code = ""
	m.errMsg = ""
	m.cooldown.Start(ResendCooldownSeconds)
	return nil
}

// SubmitCode verifies the entered code. Requires exactly 6 digits before any
// external call is made.
func (m *Machine) SubmitCode(ctx context.Context) error {
	m.mu.Lock()
	if m.phase != models.PhaseAwaitingCode {
		m.mu.Unlock()
		return ErrBadPhase
	}
	if m.busy {
		m.mu.Unlock()
		return ErrBusy
	}
	if len(m.code) != CodeLength {
		m.errMsg = ErrCodeIncomplete.Error()
		m.mu.Unlock()
		return ErrCodeIncomplete
	}
	code := m.code
	m.busy = true
	gen := m.gen
	m.mu.Unlock()

	verifyErr := m.store.VerifyCode(ctx, m.accountID, m.spec.Kind, code)
	var settings *models.ChannelSettings
	if verifyErr == nil {
		// Refetch the authoritative record rather than patching locally.
		settings, verifyErr = m.store.GetChannelSettings(ctx, m.accountID, m.spec.Kind)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.busy = false
	if gen != m.gen {
		// The user changed or removed the number while the verify was in
		// flight; a late success must not re-verify the channel.
		return nil
	}
	if verifyErr != nil {
		// The pending number survives so the user can retry without
		// re-requesting a code.
		m.errMsg = verifyErr.Error()
		return verifyErr
	}
	m.phase = models.PhaseVerified
	m.number = settings.PhoneNumber
	m.enabled = settings.Enabled
	m.pending = ""
	m.candidate = ""
	m.code = ""
	m.errMsg = ""
	m.cooldown.Clear()
	return nil
}

// Resend re-sends the code to the pending number. Gated on the cooldown
// being inactive; the cooldown restarts only on confirmed gateway success.
func (m *Machine) Resend(ctx context.Context) error {
	m.mu.Lock()
	if m.phase != models.PhaseAwaitingCode {
		m.mu.Unlock()
		return ErrBadPhase
	}
	if m.cooldown.Active() {
		m.mu.Unlock()
		return ErrCooldownActive
	}
	if m.busy {
		m.mu.Unlock()
		return ErrBusy
	}
	target := m.pending
	m.busy = true
	gen := m.gen
	m.mu.Unlock()

	sendErr := m.store.SendCode(ctx, m.accountID, m.spec.Kind, target)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.busy = false
	if gen != m.gen {
		return nil
	}
	if sendErr != nil {
		// Deliberate asymmetry: a failed resend does not restart the
		// cooldown, so the user may retry immediately.
		m.errMsg = sendErr.Error()
		return sendErr
	}
	m.errMsg = ""
	m.cooldown.Start(ResendCooldownSeconds)
	return nil
}

// ChangeNumber abandons the current attempt with no external call.
func (m *Machine) ChangeNumber() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.phase != models.PhaseAwaitingCode {
		return ErrBadPhase
	}
	m.phase = models.PhaseNoNumber
	m.pending = ""
	m.code = ""
	m.errMsg = ""
	m.gen++
	m.cooldown.Clear()
	return nil
}

// SetEnabled toggles delivery on a verified channel and refetches on success.
func (m *Machine) SetEnabled(ctx context.Context, enabled bool) error {
	m.mu.Lock()
	if m.phase != models.PhaseVerified {
		m.mu.Unlock()
		return ErrBadPhase
	}
	if m.busy {
		m.mu.Unlock()
		return ErrBusy
	}
	m.busy = true
	gen := m.gen
	m.mu.Unlock()

	err := m.store.SetEnabled(ctx, m.accountID, m.spec.Kind, enabled)
	var settings *models.ChannelSettings
	if err == nil {
		settings, err = m.store.GetChannelSettings(ctx, m.accountID, m.spec.Kind)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.busy = false
	if gen != m.gen {
		return nil
	}
	if err != nil {
		m.errMsg = err.Error()
		return err
	}
	m.enabled = settings.Enabled
	m.number = settings.PhoneNumber
	m.errMsg = ""
	return nil
}

// Remove deletes the verified number. Confirmation is the caller's job (the
// channel manager gates this behind an explicit second click).
func (m *Machine) Remove(ctx context.Context) error {
	m.mu.Lock()
	if m.phase != models.PhaseVerified {
		m.mu.Unlock()
		return ErrBadPhase
	}
	gen := m.gen
	m.mu.Unlock()

	err := m.store.RemoveNumber(ctx, m.accountID, m.spec.Kind)

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		if gen == m.gen {
			m.errMsg = err.Error()
		}
		return err
	}
	m.phase = models.PhaseNoNumber
	m.number = ""
	m.pending = ""
	m.candidate = ""
	m.code = ""
	m.enabled = false
	m.errMsg = ""
	m.gen++
	m.cooldown.Clear()
	return nil
}

// Phase returns the current lifecycle position.
func (m *Machine) Phase() models.ChannelPhase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase
}

// CooldownSeconds returns the remaining resend cooldown.
func (m *Machine) CooldownSeconds() int {
	return m.cooldown.Remaining()
}

// View snapshots the machine for the dashboard.
func (m *Machine) View() models.ChannelView {
	m.mu.Lock()
	defer m.mu.Unlock()
	return models.ChannelView{
		Kind:            m.spec.Kind,
		Phase:           m.phase,
		PhoneNumber:     m.number,
		PendingNumber:   m.pending,
		Enabled:         m.enabled,
		CooldownSeconds: m.cooldown.Remaining(),
		Busy:            m.busy,
		Error:           m.errMsg,
	}
}
