package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"frontdesk-backend/internal/acquisition"
	"frontdesk-backend/internal/checkout"
	"frontdesk-backend/internal/models"
	"frontdesk-backend/internal/services"
	"frontdesk-backend/pkg/utils"

	"github.com/gorilla/mux"
)

type AcquisitionHandler struct {
	Service  *services.AcquisitionService
	Checkout *checkout.RazorpayService
}

func NewAcquisitionHandler(service *services.AcquisitionService, checkoutSvc *checkout.RazorpayService) *AcquisitionHandler {
	return &AcquisitionHandler{Service: service, Checkout: checkoutSvc}
}

// writeDraftView returns the draft snapshot with a status matching the error.
func writeDraftView(w http.ResponseWriter, view models.DraftView, err error) {
	status := http.StatusOK
	switch {
	case err == nil:
		// fallthrough to OK
	case errors.Is(err, acquisition.ErrDraftNotFound):
		status = http.StatusNotFound
	case errors.Is(err, acquisition.ErrDraftLocked), errors.Is(err, acquisition.ErrDraftTerminal):
		status = http.StatusConflict
	default:
		status = http.StatusBadRequest
	}
	utils.JSON(w, status, view)
}

// OpenDraft starts a purchase interaction.
func (h *AcquisitionHandler) OpenDraft(w http.ResponseWriter, r *http.Request) {
	var req models.OpenDraftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	view := h.Service.Workflow.Open(req.BusinessID)
	utils.JSON(w, http.StatusCreated, view)
}

// GetDraft returns a draft snapshot.
func (h *AcquisitionHandler) GetDraft(w http.ResponseWriter, r *http.Request) {
	view, err := h.Service.Workflow.Get(mux.Vars(r)["id"])
	writeDraftView(w, view, err)
}

// UpdateDraft mutates path, business, or area code.
func (h *AcquisitionHandler) UpdateDraft(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateDraftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	view, err := h.Service.Workflow.Update(mux.Vars(r)["id"], req)
	writeDraftView(w, view, err)
}

// SearchNumbers runs a directory query on the paid path.
func (h *AcquisitionHandler) SearchNumbers(w http.ResponseWriter, r *http.Request) {
	var q models.NumberSearchQuery
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	view, err := h.Service.Workflow.Search(r.Context(), mux.Vars(r)["id"], q)
	writeDraftView(w, view, err)
}

// SelectCandidate picks a number from the current results.
func (h *AcquisitionHandler) SelectCandidate(w http.ResponseWriter, r *http.Request) {
	var req models.SelectCandidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	view, err := h.Service.Workflow.Select(mux.Vars(r)["id"], req.PhoneNumber)
	writeDraftView(w, view, err)
}

// SubmitDraft runs the path-specific submission.
func (h *AcquisitionHandler) SubmitDraft(w http.ResponseWriter, r *http.Request) {
	result, view, err := h.Service.Workflow.Submit(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeDraftView(w, view, err)
		return
	}

	utils.JSON(w, http.StatusOK, map[string]interface{}{
		"result": result,
		"draft":  view,
	})
}

// CloseDraft discards the draft. Rejected mid-checkout-creation.
func (h *AcquisitionHandler) CloseDraft(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Workflow.Close(mux.Vars(r)["id"]); err != nil {
		if errors.Is(err, acquisition.ErrDraftLocked) {
			utils.Error(w, http.StatusConflict, err.Error())
			return
		}
		utils.Error(w, http.StatusNotFound, err.Error())
		return
	}
	utils.JSON(w, http.StatusOK, map[string]string{"message": "Draft closed"})
}

// HandleReturn is the redirect target after the external checkout page.
func (h *AcquisitionHandler) HandleReturn(w http.ResponseWriter, r *http.Request) {
	draftID := mux.Vars(r)["id"]
	outcome := r.URL.Query().Get("outcome")
	if outcome == "" {
		// Razorpay reports payment link status on the callback query.
		if r.URL.Query().Get("razorpay_payment_link_status") == "paid" {
			outcome = "success"
		}
	}

	view, err := h.Service.HandleReturn(r.Context(), draftID, outcome)
	if err != nil {
		if errors.Is(err, acquisition.ErrDraftNotFound) {
			utils.Error(w, http.StatusNotFound, err.Error())
			return
		}
		utils.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.JSON(w, http.StatusOK, view)
}

// HandleWebhook receives provider events for checkout sessions.
func (h *AcquisitionHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Failed to read body")
		return
	}

	signature := r.Header.Get("X-Razorpay-Signature")
	if !h.Checkout.VerifyWebhookSignature(r.Context(), body, signature) {
		utils.Error(w, http.StatusUnauthorized, "Invalid webhook signature")
		return
	}

	var event struct {
		Event   string                 `json:"event"`
		Payload map[string]interface{} `json:"payload"`
	}
	if err := json.Unmarshal(body, &event); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid webhook payload")
		return
	}

	session, outcome, err := h.Checkout.ProcessWebhook(r.Context(), event.Event, event.Payload)
	if err != nil {
		log.Printf("[Webhook] Failed to process %s: %v", event.Event, err)
		utils.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	if session == nil {
		utils.JSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}

	if _, err := h.Service.ApplySessionOutcome(r.Context(), session, outcome); err != nil {
		log.Printf("[Webhook] Failed to reconcile session %s: %v", session.SessionID, err)
		utils.Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	utils.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
