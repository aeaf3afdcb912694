package models

import "time"

// SourcingPath selects how a phone number is provisioned.
type SourcingPath string

const (
	PathInstantAssign     SourcingPath = "instant_assign"
	PathSearchAndCheckout SourcingPath = "search_and_checkout"
)

// CheckoutOutcome is the externally-delivered result of a checkout redirect.
type CheckoutOutcome string

const (
	OutcomeNone      CheckoutOutcome = "none"
	OutcomeSuccess   CheckoutOutcome = "success"
	OutcomeCancelled CheckoutOutcome = "cancelled"
)

// CandidateNumber is one entry in a paid-inventory search result.
type CandidateNumber struct {
	PhoneNumber  string  `json:"phone_number"`
	Locality     string  `json:"locality,omitempty"`
	Region       string  `json:"region,omitempty"`
	MonthlyPrice float64 `json:"monthly_price,omitempty"`
}

// NumberSearchQuery holds the directory-search filters. AreaCode and Contains
// are optional; empty means the filter is omitted from the provider request.
type NumberSearchQuery struct {
	BusinessID string `json:"business_id"`
	Country    string `json:"country"`
	NumberType string `json:"number_type"`
	AreaCode   string `json:"area_code,omitempty"`
	Contains   string `json:"contains,omitempty"`
}

// ProvisionProvider distinguishes the two provisioning paths on the wire.
type ProvisionProvider string

const (
	ProvisionInstant  ProvisionProvider = "instant"
	ProvisionCheckout ProvisionProvider = "checkout"
)

// ProvisionRequest is the provisioning-service call payload.
type ProvisionRequest struct {
	Provider    ProvisionProvider `json:"provider"`
	BusinessID  string            `json:"business_id"`
	AreaCode    string            `json:"area_code,omitempty"`
	NumberType  string            `json:"number_type,omitempty"`
	PhoneNumber string            `json:"phone_number,omitempty"`
}

// ProvisionOrder tracks an in-flight or completed number order.
type ProvisionOrder struct {
	ID          int               `json:"id"`
	BusinessID  string            `json:"business_id"`
	Provider    ProvisionProvider `json:"provider"`
	PhoneNumber string            `json:"phone_number,omitempty"`
	AreaCode    string            `json:"area_code,omitempty"`
	Status      string            `json:"status"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

const (
	OrderStatusPending   = "pending"
	OrderStatusCompleted = "completed"
	OrderStatusCancelled = "cancelled"
)

// CheckoutSession is a handed-off external payment session.
type CheckoutSession struct {
	ID            int       `json:"id"`
	SessionID     string    `json:"session_id"`
	BusinessID    string    `json:"business_id"`
	PhoneNumber   string    `json:"phone_number"`
	ProviderRef   string    `json:"provider_ref,omitempty"`
	CheckoutURL   string    `json:"checkout_url"`
	Outcome       string    `json:"outcome"`
	Reconciled    bool      `json:"reconciled"`
	CreatedAt     time.Time `json:"created_at"`
	ReconciledAt  *time.Time `json:"reconciled_at,omitempty"`
}

// OpenDraftRequest opens an acquisition draft for a business.
type OpenDraftRequest struct {
	BusinessID string `json:"business_id"`
}

// UpdateDraftRequest mutates draft fields before submission.
type UpdateDraftRequest struct {
	SourcingPath *SourcingPath `json:"sourcing_path,omitempty"`
	BusinessID   *string       `json:"business_id,omitempty"`
	AreaCode     *string       `json:"area_code,omitempty"`
}

// SelectCandidateRequest picks one number from the current search results.
type SelectCandidateRequest struct {
	PhoneNumber string `json:"phone_number"`
}

// DraftView is the workflow snapshot returned to the dashboard.
type DraftView struct {
	ID              string            `json:"id"`
	BusinessID      string            `json:"business_id"`
	SourcingPath    SourcingPath      `json:"sourcing_path"`
	AreaCode        string            `json:"area_code,omitempty"`
	Searched        bool              `json:"searched"`
	Results         []CandidateNumber `json:"results"`
	Selected        *CandidateNumber  `json:"selected,omitempty"`
	Outcome         CheckoutOutcome   `json:"outcome"`
	Locked          bool              `json:"locked"`
	Terminal        bool              `json:"terminal"`
	Error           string            `json:"error,omitempty"`
}

// SubmitResult is returned by draft submission. RedirectURL is set only on
// the paid path; the instant path completes without one.
type SubmitResult struct {
	RedirectURL string `json:"redirect_url,omitempty"`
	Completed   bool   `json:"completed"`
}
