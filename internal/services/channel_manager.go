package services

import (
	"context"
	"fmt"
	"sync"

	"frontdesk-backend/internal/clock"
	"frontdesk-backend/internal/models"
	"frontdesk-backend/internal/verification"
)

// ChannelManager holds the live verification machines, one per account and
// channel kind, plus the removal-confirmation step that sits above them.
// Machines are built fresh on mount from the settings store; nothing about
// an old session leaks into a new one.
type ChannelManager struct {
	store verification.SettingsStore
	clk   clock.Clock

	mu       sync.Mutex
	channels map[string]*managedChannel
}

// managedChannel pairs a machine with the manager-level removal arm flag.
// The machine locks its own fields; mu guards confirmingRemoval, which is
// read and written by concurrent requests against the same channel.
type managedChannel struct {
	machine *verification.Machine

	mu                sync.Mutex
	confirmingRemoval bool
}

func NewChannelManager(store verification.SettingsStore, clk clock.Clock) *ChannelManager {
	return &ChannelManager{
		store:    store,
		clk:      clk,
		channels: make(map[string]*managedChannel),
	}
}

func channelKey(accountID string, kind models.ChannelKind) string {
	return accountID + ":" + string(kind)
}

// Mount builds a fresh machine for the channel from the authoritative record,
// replacing any machine left over from a previous session.
func (cm *ChannelManager) Mount(ctx context.Context, accountID string, kind models.ChannelKind) (models.ChannelView, error) {
	spec, err := verification.SpecFor(kind)
	if err != nil {
		return models.ChannelView{}, err
	}

	machine, err := verification.NewMachine(ctx, accountID, spec, cm.store, cm.clk)
	if err != nil {
		return models.ChannelView{}, fmt.Errorf("failed to mount %s channel: %w", kind, err)
	}

	mc := &managedChannel{machine: machine}
	cm.mu.Lock()
	cm.channels[channelKey(accountID, kind)] = mc
	cm.mu.Unlock()

	return cm.viewOf(mc), nil
}

// Get returns the current snapshot, mounting on first access.
func (cm *ChannelManager) Get(ctx context.Context, accountID string, kind models.ChannelKind) (models.ChannelView, error) {
	mc, err := cm.find(ctx, accountID, kind)
	if err != nil {
		return models.ChannelView{}, err
	}
	return cm.viewOf(mc), nil
}

// SetCandidate updates the draft number input on the channel.
func (cm *ChannelManager) SetCandidate(ctx context.Context, accountID string, kind models.ChannelKind, input, dialCode string) (models.ChannelView, error) {
	mc, err := cm.find(ctx, accountID, kind)
	if err != nil {
		return models.ChannelView{}, err
	}
	mc.machine.SetCandidate(input, dialCode)
	return cm.viewOf(mc), nil
}

// SetCode updates the draft code input on the channel.
func (cm *ChannelManager) SetCode(ctx context.Context, accountID string, kind models.ChannelKind, input string) (models.ChannelView, error) {
	mc, err := cm.find(ctx, accountID, kind)
	if err != nil {
		return models.ChannelView{}, err
	}
	mc.machine.SetCode(input)
	return cm.viewOf(mc), nil
}

// SubmitNumber runs the send-code transition.
func (cm *ChannelManager) SubmitNumber(ctx context.Context, accountID string, kind models.ChannelKind) (models.ChannelView, error) {
	mc, err := cm.find(ctx, accountID, kind)
	if err != nil {
		return models.ChannelView{}, err
	}
	opErr := mc.machine.SubmitNumber(ctx)
	return cm.viewOf(mc), opErr
}

// SubmitCode runs the confirm-code transition.
func (cm *ChannelManager) SubmitCode(ctx context.Context, accountID string, kind models.ChannelKind) (models.ChannelView, error) {
	mc, err := cm.find(ctx, accountID, kind)
	if err != nil {
		return models.ChannelView{}, err
	}
	opErr := mc.machine.SubmitCode(ctx)
	return cm.viewOf(mc), opErr
}

// Resend re-sends the code to the pending number, subject to the cooldown.
func (cm *ChannelManager) Resend(ctx context.Context, accountID string, kind models.ChannelKind) (models.ChannelView, error) {
	mc, err := cm.find(ctx, accountID, kind)
	if err != nil {
		return models.ChannelView{}, err
	}
	opErr := mc.machine.Resend(ctx)
	return cm.viewOf(mc), opErr
}

// ChangeNumber abandons the pending verification and returns to number entry.
func (cm *ChannelManager) ChangeNumber(ctx context.Context, accountID string, kind models.ChannelKind) (models.ChannelView, error) {
	mc, err := cm.find(ctx, accountID, kind)
	if err != nil {
		return models.ChannelView{}, err
	}
	opErr := mc.machine.ChangeNumber()
	return cm.viewOf(mc), opErr
}

// SetEnabled toggles delivery on a verified channel.
func (cm *ChannelManager) SetEnabled(ctx context.Context, accountID string, kind models.ChannelKind, enabled bool) (models.ChannelView, error) {
	mc, err := cm.find(ctx, accountID, kind)
	if err != nil {
		return models.ChannelView{}, err
	}
	opErr := mc.machine.SetEnabled(ctx, enabled)
	return cm.viewOf(mc), opErr
}

// RequestRemoval arms the confirmation step. Nothing is removed yet.
func (cm *ChannelManager) RequestRemoval(ctx context.Context, accountID string, kind models.ChannelKind) (models.ChannelView, error) {
	mc, err := cm.find(ctx, accountID, kind)
	if err != nil {
		return models.ChannelView{}, err
	}
	if mc.machine.Phase() != models.PhaseVerified {
		return cm.viewOf(mc), verification.ErrBadPhase
	}
	mc.mu.Lock()
	mc.confirmingRemoval = true
	mc.mu.Unlock()
	return cm.viewOf(mc), nil
}

// CancelRemoval disarms the confirmation step.
func (cm *ChannelManager) CancelRemoval(ctx context.Context, accountID string, kind models.ChannelKind) (models.ChannelView, error) {
	mc, err := cm.find(ctx, accountID, kind)
	if err != nil {
		return models.ChannelView{}, err
	}
	mc.mu.Lock()
	mc.confirmingRemoval = false
	mc.mu.Unlock()
	return cm.viewOf(mc), nil
}

// ConfirmRemoval deletes the number. Only reachable after RequestRemoval.
func (cm *ChannelManager) ConfirmRemoval(ctx context.Context, accountID string, kind models.ChannelKind) (models.ChannelView, error) {
	mc, err := cm.find(ctx, accountID, kind)
	if err != nil {
		return models.ChannelView{}, err
	}
	mc.mu.Lock()
	armed := mc.confirmingRemoval
	mc.mu.Unlock()
	if !armed {
		return cm.viewOf(mc), fmt.Errorf("removal was not requested")
	}
	opErr := mc.machine.Remove(ctx)
	if opErr == nil {
		mc.mu.Lock()
		mc.confirmingRemoval = false
		mc.mu.Unlock()
	}
	return cm.viewOf(mc), opErr
}

func (cm *ChannelManager) find(ctx context.Context, accountID string, kind models.ChannelKind) (*managedChannel, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown channel kind %q", kind)
	}

	cm.mu.Lock()
	mc, ok := cm.channels[channelKey(accountID, kind)]
	cm.mu.Unlock()
	if ok {
		return mc, nil
	}

	if _, err := cm.Mount(ctx, accountID, kind); err != nil {
		return nil, err
	}

	cm.mu.Lock()
	mc = cm.channels[channelKey(accountID, kind)]
	cm.mu.Unlock()
	return mc, nil
}

func (cm *ChannelManager) viewOf(mc *managedChannel) models.ChannelView {
	v := mc.machine.View()
	mc.mu.Lock()
	v.ConfirmingRemoval = mc.confirmingRemoval
	mc.mu.Unlock()
	return v
}
