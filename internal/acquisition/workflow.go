package acquisition

import (
	"context"
	"errors"
	"regexp"
	"sync"

	"frontdesk-backend/internal/models"

	"github.com/google/uuid"
)

// Provisioner issues a number order. Rejections come back as *ProvisionError
// where the service can attribute a code.
type Provisioner interface {
	Provision(ctx context.Context, req models.ProvisionRequest) error
}

// CheckoutRequest asks the payment provider for a hosted checkout session.
type CheckoutRequest struct {
	DraftID     string
	BusinessID  string
	PhoneNumber string
}

// CheckoutStarter creates an external checkout session and returns the
// redirect URL. The outcome comes back out-of-band via reconciliation.
type CheckoutStarter interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (string, error)
}

var (
	ErrDraftNotFound   = errors.New("acquisition draft not found")
	ErrDraftLocked     = errors.New("a checkout session is being created")
	ErrDraftTerminal   = errors.New("acquisition draft is already completed")
	ErrBusinessMissing = errors.New("select a business first")
	ErrBadAreaCode     = errors.New("area code must be exactly 3 digits")
	ErrNoSelection     = errors.New("select a number from the search results")
	ErrNotInResults    = errors.New("selected number is not in the current results")
)

var areaCodeRe = regexp.MustCompile(`^[0-9]{3}$`)

// Draft is one purchase interaction. It exists only to drive the in-progress
// multi-step flow; the external store remains authoritative throughout.
type Draft struct {
	mu sync.Mutex

	id         string
	businessID string
	path       models.SourcingPath
	areaCode   string
	filters    models.NumberSearchQuery
	results    []models.CandidateNumber
	searched   bool
	selected   *models.CandidateNumber
	outcome    models.CheckoutOutcome
	inFlight   bool // checkout-session request running; draft non-closable
	handedOff  bool // redirect issued; waiting for the return trip
	terminal   bool
	errMsg     string
}

// Workflow owns the draft registry and orchestrates both provisioning paths.
type Workflow struct {
	provisioner Provisioner
	checkout    CheckoutStarter
	searcher    NumberSearcher

	mu     sync.RWMutex
	drafts map[string]*Draft
}

func NewWorkflow(provisioner Provisioner, checkout CheckoutStarter, searcher NumberSearcher) *Workflow {
	return &Workflow{
		provisioner: provisioner,
		checkout:    checkout,
		searcher:    searcher,
		drafts:      make(map[string]*Draft),
	}
}

// Open creates a draft for a purchase interaction.
func (w *Workflow) Open(businessID string) models.DraftView {
	d := &Draft{
		id:         uuid.New().String(),
		businessID: businessID,
		path:       models.PathInstantAssign,
		outcome:    models.OutcomeNone,
	}
	w.mu.Lock()
	w.drafts[d.id] = d
	w.mu.Unlock()
	return d.view()
}

// Get returns a draft snapshot.
func (w *Workflow) Get(draftID string) (models.DraftView, error) {
	d, err := w.find(draftID)
	if err != nil {
		return models.DraftView{}, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.viewLocked(), nil
}

// Update mutates the draft's path, business, or area code. Switching the
// sourcing path or the business always clears results, selection, and error.
func (w *Workflow) Update(draftID string, req models.UpdateDraftRequest) (models.DraftView, error) {
	d, err := w.find(draftID)
	if err != nil {
		return models.DraftView{}, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.mutableLocked(); err != nil {
		return d.viewLocked(), err
	}
	if req.SourcingPath != nil && *req.SourcingPath != d.path {
		d.path = *req.SourcingPath
		d.clearSearchLocked()
	}
	if req.BusinessID != nil && *req.BusinessID != d.businessID {
		d.businessID = *req.BusinessID
		d.clearSearchLocked()
	}
	if req.AreaCode != nil {
		d.areaCode = capDigits(*req.AreaCode, maxAreaCodeLen)
		d.errMsg = ""
	}
	return d.viewLocked(), nil
}

// Search runs a directory query and replaces the result set wholesale.
func (w *Workflow) Search(ctx context.Context, draftID string, q models.NumberSearchQuery) (models.DraftView, error) {
	d, err := w.find(draftID)
	if err != nil {
		return models.DraftView{}, err
	}

	d.mu.Lock()
	if mErr := d.mutableLocked(); mErr != nil {
		v := d.viewLocked()
		d.mu.Unlock()
		return v, mErr
	}
	q.BusinessID = d.businessID
	d.mu.Unlock()

	results, searchErr := Search(ctx, w.searcher, q)

	d.mu.Lock()
	defer d.mu.Unlock()
	if searchErr != nil {
		d.errMsg = searchErr.Error()
		return d.viewLocked(), searchErr
	}
	d.filters = SanitizeQuery(q)
	d.results = results
	d.searched = true
	d.selected = nil
	d.errMsg = ""
	return d.viewLocked(), nil
}

// Select picks a candidate; it must belong to the current result set.
func (w *Workflow) Select(draftID, phoneNumber string) (models.DraftView, error) {
	d, err := w.find(draftID)
	if err != nil {
		return models.DraftView{}, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if mErr := d.mutableLocked(); mErr != nil {
		return d.viewLocked(), mErr
	}
	for i := range d.results {
		if d.results[i].PhoneNumber == phoneNumber {
			c := d.results[i]
			d.selected = &c
			d.errMsg = ""
			return d.viewLocked(), nil
		}
	}
	d.errMsg = ErrNotInResults.Error()
	return d.viewLocked(), ErrNotInResults
}

// Submit runs the path-specific submission. The instant path issues one
// provisioning call and completes; the paid path creates a checkout session
// and returns the redirect URL, locking the draft for the duration.
func (w *Workflow) Submit(ctx context.Context, draftID string) (models.SubmitResult, models.DraftView, error) {
	d, err := w.find(draftID)
	if err != nil {
		return models.SubmitResult{}, models.DraftView{}, err
	}

	d.mu.Lock()
	if mErr := d.mutableLocked(); mErr != nil {
		v := d.viewLocked()
		d.mu.Unlock()
		return models.SubmitResult{}, v, mErr
	}
	if d.businessID == "" {
		d.errMsg = ErrBusinessMissing.Error()
		v := d.viewLocked()
		d.mu.Unlock()
		return models.SubmitResult{}, v, ErrBusinessMissing
	}

	switch d.path {
	case models.PathInstantAssign:
		if !areaCodeRe.MatchString(d.areaCode) {
			d.errMsg = ErrBadAreaCode.Error()
			v := d.viewLocked()
			d.mu.Unlock()
			return models.SubmitResult{}, v, ErrBadAreaCode
		}
		req := models.ProvisionRequest{
			Provider:   models.ProvisionInstant,
			BusinessID: d.businessID,
			AreaCode:   d.areaCode,
			NumberType: "phone",
		}
		d.mu.Unlock()

		provErr := w.provisioner.Provision(ctx, req)

		d.mu.Lock()
		defer d.mu.Unlock()
		if provErr != nil {
			d.errMsg = UserMessage(provErr)
			return models.SubmitResult{}, d.viewLocked(), provErr
		}
		// No number is returned synchronously; the caller refetches the
		// authoritative list.
		d.terminal = true
		d.errMsg = ""
		return models.SubmitResult{Completed: true}, d.viewLocked(), nil

	case models.PathSearchAndCheckout:
		if d.selected == nil {
			d.errMsg = ErrNoSelection.Error()
			v := d.viewLocked()
			d.mu.Unlock()
			return models.SubmitResult{}, v, ErrNoSelection
		}
		req := CheckoutRequest{
			DraftID:     d.id,
			BusinessID:  d.businessID,
			PhoneNumber: d.selected.PhoneNumber,
		}
		d.inFlight = true
		d.mu.Unlock()

		url, checkoutErr := w.checkout.CreateCheckoutSession(ctx, req)

		d.mu.Lock()
		defer d.mu.Unlock()
		d.inFlight = false
		if checkoutErr != nil {
			d.errMsg = UserMessage(checkoutErr)
			return models.SubmitResult{}, d.viewLocked(), checkoutErr
		}
		// One-way transition: the browser leaves for the checkout page and
		// the workflow does not resume locally.
		d.handedOff = true
		d.errMsg = ""
		return models.SubmitResult{RedirectURL: url}, d.viewLocked(), nil

	default:
		d.errMsg = "unknown sourcing path"
		v := d.viewLocked()
		d.mu.Unlock()
		return models.SubmitResult{}, v, errors.New("unknown sourcing path")
	}
}

// Reconcile applies an externally-delivered checkout outcome. The draft
// re-opens in a terminal result mode; the submission is never replayed.
func (w *Workflow) Reconcile(draftID string, outcome models.CheckoutOutcome) models.DraftView {
	w.mu.Lock()
	d, ok := w.drafts[draftID]
	if !ok {
		// The return trip may land on a different node or after the draft
		// was discarded; result mode still has to render.
		d = &Draft{id: draftID, path: models.PathSearchAndCheckout}
		w.drafts[draftID] = d
	}
	w.mu.Unlock()

	d.mu.Lock()
	defer d.mu.Unlock()
	d.outcome = outcome
	d.terminal = true
	d.handedOff = false
	d.inFlight = false
	d.errMsg = ""
	return d.viewLocked()
}

// Close discards a draft. Rejected while a checkout-session request is in
// flight, which is exactly the double-click window being guarded.
func (w *Workflow) Close(draftID string) error {
	d, err := w.find(draftID)
	if err != nil {
		return err
	}
	d.mu.Lock()
	if d.inFlight {
		d.mu.Unlock()
		return ErrDraftLocked
	}
	d.mu.Unlock()

	w.mu.Lock()
	delete(w.drafts, draftID)
	w.mu.Unlock()
	return nil
}

func (w *Workflow) find(draftID string) (*Draft, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	d, ok := w.drafts[draftID]
	if !ok {
		return nil, ErrDraftNotFound
	}
	return d, nil
}

func (d *Draft) mutableLocked() error {
	if d.inFlight || d.handedOff {
		return ErrDraftLocked
	}
	if d.terminal {
		return ErrDraftTerminal
	}
	return nil
}

func (d *Draft) clearSearchLocked() {
	d.results = nil
	d.searched = false
	d.selected = nil
	d.errMsg = ""
}

func (d *Draft) view() models.DraftView {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.viewLocked()
}

func (d *Draft) viewLocked() models.DraftView {
	results := d.results
	if results == nil {
		results = []models.CandidateNumber{}
	}
	v := models.DraftView{
		ID:           d.id,
		BusinessID:   d.businessID,
		SourcingPath: d.path,
		AreaCode:     d.areaCode,
		Searched:     d.searched,
		Results:      results,
		Outcome:      d.outcome,
		Locked:       d.inFlight || d.handedOff,
		Terminal:     d.terminal,
		Error:        d.errMsg,
	}
	if d.outcome == "" {
		v.Outcome = models.OutcomeNone
	}
	if d.selected != nil {
		c := *d.selected
		v.Selected = &c
	}
	return v
}
