package acquisition

import (
	"context"
	"sync"
	"testing"
	"time"

	"frontdesk-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvisioner struct {
	mu       sync.Mutex
	err      error
	requests []models.ProvisionRequest
}

func (f *fakeProvisioner) Provision(_ context.Context, req models.ProvisionRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	return f.err
}

func (f *fakeProvisioner) calls() []models.ProvisionRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.ProvisionRequest(nil), f.requests...)
}

type fakeCheckout struct {
	mu       sync.Mutex
	url      string
	err      error
	requests []CheckoutRequest

	started chan struct{}
	release chan struct{}
}

func (f *fakeCheckout) CreateCheckoutSession(_ context.Context, req CheckoutRequest) (string, error) {
	if f.started != nil {
		close(f.started)
		f.started = nil
	}
	if f.release != nil {
		<-f.release
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return "", f.err
	}
	return f.url, nil
}

func newTestWorkflow(prov *fakeProvisioner, co *fakeCheckout, searcher NumberSearcher) *Workflow {
	if searcher == nil {
		searcher = &fakeSearcher{}
	}
	return NewWorkflow(prov, co, searcher)
}

func strPtr(s string) *string                         { return &s }
func pathPtr(p models.SourcingPath) *models.SourcingPath { return &p }

func TestOpenDraftDefaults(t *testing.T) {
	w := newTestWorkflow(&fakeProvisioner{}, &fakeCheckout{}, nil)
	v := w.Open("biz-1")

	assert.NotEmpty(t, v.ID)
	assert.Equal(t, "biz-1", v.BusinessID)
	assert.Equal(t, models.PathInstantAssign, v.SourcingPath)
	assert.Equal(t, models.OutcomeNone, v.Outcome)
	assert.False(t, v.Locked)
	assert.False(t, v.Terminal)
	assert.NotNil(t, v.Results)
}

func TestUpdateCapsAreaCodeDigits(t *testing.T) {
	w := newTestWorkflow(&fakeProvisioner{}, &fakeCheckout{}, nil)
	v := w.Open("biz-1")

	v, err := w.Update(v.ID, models.UpdateDraftRequest{AreaCode: strPtr("41-59x7")})
	require.NoError(t, err)
	assert.Equal(t, "415", v.AreaCode)
}

func TestPathSwitchClearsSearchState(t *testing.T) {
	searcher := &fakeSearcher{results: []models.CandidateNumber{{PhoneNumber: "+14155550101"}}}
	w := newTestWorkflow(&fakeProvisioner{}, &fakeCheckout{}, searcher)
	v := w.Open("biz-1")

	_, err := w.Update(v.ID, models.UpdateDraftRequest{SourcingPath: pathPtr(models.PathSearchAndCheckout)})
	require.NoError(t, err)
	_, err = w.Search(context.Background(), v.ID, models.NumberSearchQuery{Country: "US"})
	require.NoError(t, err)
	_, err = w.Select(v.ID, "+14155550101")
	require.NoError(t, err)

	v, err = w.Update(v.ID, models.UpdateDraftRequest{SourcingPath: pathPtr(models.PathInstantAssign)})
	require.NoError(t, err)
	assert.False(t, v.Searched)
	assert.Empty(t, v.Results)
	assert.Nil(t, v.Selected)
}

func TestSubmitInstantRequiresThreeDigitAreaCode(t *testing.T) {
	prov := &fakeProvisioner{}
	w := newTestWorkflow(prov, &fakeCheckout{}, nil)
	v := w.Open("biz-1")

	_, _, err := w.Submit(context.Background(), v.ID)
	require.ErrorIs(t, err, ErrBadAreaCode)

	_, err = w.Update(v.ID, models.UpdateDraftRequest{AreaCode: strPtr("41")})
	require.NoError(t, err)
	_, dv, err := w.Submit(context.Background(), v.ID)
	require.ErrorIs(t, err, ErrBadAreaCode)
	assert.Equal(t, ErrBadAreaCode.Error(), dv.Error)
	assert.Empty(t, prov.calls(), "validation failure must not reach the carrier")
}

func TestSubmitInstantIssuesOneProvisioningCall(t *testing.T) {
	prov := &fakeProvisioner{}
	w := newTestWorkflow(prov, &fakeCheckout{}, nil)
	v := w.Open("biz-1")

	_, err := w.Update(v.ID, models.UpdateDraftRequest{AreaCode: strPtr("415")})
	require.NoError(t, err)

	result, dv, err := w.Submit(context.Background(), v.ID)
	require.NoError(t, err)
	assert.True(t, result.Completed)
	assert.Empty(t, result.RedirectURL)
	assert.True(t, dv.Terminal)

	calls := prov.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, models.ProvisionInstant, calls[0].Provider)
	assert.Equal(t, "biz-1", calls[0].BusinessID)
	assert.Equal(t, "415", calls[0].AreaCode)
}

func TestSubmitRequiresBusiness(t *testing.T) {
	w := newTestWorkflow(&fakeProvisioner{}, &fakeCheckout{}, nil)
	v := w.Open("")

	_, dv, err := w.Submit(context.Background(), v.ID)
	require.ErrorIs(t, err, ErrBusinessMissing)
	assert.Equal(t, ErrBusinessMissing.Error(), dv.Error)
}

func TestSubmitInstantSurfacesCuratedRejection(t *testing.T) {
	prov := &fakeProvisioner{err: &ProvisionError{Code: CodeNumberUnavailable}}
	w := newTestWorkflow(prov, &fakeCheckout{}, nil)
	v := w.Open("biz-1")

	_, err := w.Update(v.ID, models.UpdateDraftRequest{AreaCode: strPtr("415")})
	require.NoError(t, err)

	_, dv, err := w.Submit(context.Background(), v.ID)
	require.Error(t, err)
	assert.Equal(t, "This number is no longer available. Please search again.", dv.Error)
	assert.False(t, dv.Terminal, "rejection leaves the draft editable")
}

func checkoutDraft(t *testing.T, w *Workflow, searcher *fakeSearcher) models.DraftView {
	t.Helper()
	v := w.Open("biz-1")
	_, err := w.Update(v.ID, models.UpdateDraftRequest{SourcingPath: pathPtr(models.PathSearchAndCheckout)})
	require.NoError(t, err)
	v, err = w.Search(context.Background(), v.ID, models.NumberSearchQuery{Country: "US"})
	require.NoError(t, err)
	return v
}

func TestSelectMustBeInResults(t *testing.T) {
	searcher := &fakeSearcher{results: []models.CandidateNumber{{PhoneNumber: "+14155550101"}}}
	w := newTestWorkflow(&fakeProvisioner{}, &fakeCheckout{}, searcher)
	v := checkoutDraft(t, w, searcher)

	_, err := w.Select(v.ID, "+19995550000")
	require.ErrorIs(t, err, ErrNotInResults)

	dv, err := w.Select(v.ID, "+14155550101")
	require.NoError(t, err)
	require.NotNil(t, dv.Selected)
	assert.Equal(t, "+14155550101", dv.Selected.PhoneNumber)
}

func TestSubmitCheckoutRequiresSelection(t *testing.T) {
	searcher := &fakeSearcher{results: []models.CandidateNumber{{PhoneNumber: "+14155550101"}}}
	co := &fakeCheckout{url: "https://pay.example/session"}
	w := newTestWorkflow(&fakeProvisioner{}, co, searcher)
	v := checkoutDraft(t, w, searcher)

	_, _, err := w.Submit(context.Background(), v.ID)
	require.ErrorIs(t, err, ErrNoSelection)
	assert.Empty(t, co.requests)
}

func TestSubmitCheckoutHandsOffWithRedirect(t *testing.T) {
	searcher := &fakeSearcher{results: []models.CandidateNumber{{PhoneNumber: "+14155550101"}}}
	co := &fakeCheckout{url: "https://pay.example/session"}
	w := newTestWorkflow(&fakeProvisioner{}, co, searcher)
	v := checkoutDraft(t, w, searcher)

	_, err := w.Select(v.ID, "+14155550101")
	require.NoError(t, err)

	result, dv, err := w.Submit(context.Background(), v.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example/session", result.RedirectURL)
	assert.True(t, dv.Locked, "handed-off draft stays locked until reconciliation")

	require.Len(t, co.requests, 1)
	assert.Equal(t, v.ID, co.requests[0].DraftID)
	assert.Equal(t, "biz-1", co.requests[0].BusinessID)
	assert.Equal(t, "+14155550101", co.requests[0].PhoneNumber)

	// No edits while waiting for the return trip.
	_, _, err = w.Submit(context.Background(), v.ID)
	require.ErrorIs(t, err, ErrDraftLocked)
	_, err = w.Update(v.ID, models.UpdateDraftRequest{AreaCode: strPtr("415")})
	require.ErrorIs(t, err, ErrDraftLocked)
}

func TestDraftLockedWhileCheckoutInFlight(t *testing.T) {
	searcher := &fakeSearcher{results: []models.CandidateNumber{{PhoneNumber: "+14155550101"}}}
	co := &fakeCheckout{
		url:     "https://pay.example/session",
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	started := co.started
	w := newTestWorkflow(&fakeProvisioner{}, co, searcher)
	v := checkoutDraft(t, w, searcher)
	_, err := w.Select(v.ID, "+14155550101")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, _, submitErr := w.Submit(context.Background(), v.ID)
		done <- submitErr
	}()
	<-started

	require.ErrorIs(t, w.Close(v.ID), ErrDraftLocked)
	dv, err := w.Get(v.ID)
	require.NoError(t, err)
	assert.True(t, dv.Locked)

	close(co.release)
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("submit did not finish")
	}
}

func TestReconcileEntersResultMode(t *testing.T) {
	searcher := &fakeSearcher{results: []models.CandidateNumber{{PhoneNumber: "+14155550101"}}}
	co := &fakeCheckout{url: "https://pay.example/session"}
	w := newTestWorkflow(&fakeProvisioner{}, co, searcher)
	v := checkoutDraft(t, w, searcher)
	_, err := w.Select(v.ID, "+14155550101")
	require.NoError(t, err)
	_, _, err = w.Submit(context.Background(), v.ID)
	require.NoError(t, err)

	dv := w.Reconcile(v.ID, models.OutcomeSuccess)
	assert.Equal(t, models.OutcomeSuccess, dv.Outcome)
	assert.True(t, dv.Terminal)
	assert.False(t, dv.Locked)
}

func TestReconcileUnknownDraftStillRenders(t *testing.T) {
	w := newTestWorkflow(&fakeProvisioner{}, &fakeCheckout{}, nil)

	// Return trips can land after a restart dropped the in-memory draft.
	dv := w.Reconcile("draft-after-restart", models.OutcomeCancelled)
	assert.Equal(t, "draft-after-restart", dv.ID)
	assert.Equal(t, models.OutcomeCancelled, dv.Outcome)
	assert.True(t, dv.Terminal)
}

func TestCloseDiscardsDraft(t *testing.T) {
	w := newTestWorkflow(&fakeProvisioner{}, &fakeCheckout{}, nil)
	v := w.Open("biz-1")

	require.NoError(t, w.Close(v.ID))
	_, err := w.Get(v.ID)
	require.ErrorIs(t, err, ErrDraftNotFound)
}

func TestTerminalDraftRejectsFurtherEdits(t *testing.T) {
	prov := &fakeProvisioner{}
	w := newTestWorkflow(prov, &fakeCheckout{}, nil)
	v := w.Open("biz-1")
	_, err := w.Update(v.ID, models.UpdateDraftRequest{AreaCode: strPtr("415")})
	require.NoError(t, err)
	_, _, err = w.Submit(context.Background(), v.ID)
	require.NoError(t, err)

	_, err = w.Update(v.ID, models.UpdateDraftRequest{AreaCode: strPtr("212")})
	require.ErrorIs(t, err, ErrDraftTerminal)
	_, _, err = w.Submit(context.Background(), v.ID)
	require.ErrorIs(t, err, ErrDraftTerminal)
	require.Len(t, prov.calls(), 1, "a completed submission is never replayed")
}
