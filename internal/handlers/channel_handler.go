package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"frontdesk-backend/internal/models"
	"frontdesk-backend/internal/services"
	"frontdesk-backend/internal/verification"
	"frontdesk-backend/pkg/utils"

	"github.com/gorilla/mux"
)

type ChannelHandler struct {
	Manager *services.ChannelManager
}

func NewChannelHandler(manager *services.ChannelManager) *ChannelHandler {
	return &ChannelHandler{Manager: manager}
}

// accountID resolves the acting account. Auth is out of scope here; the
// dashboard forwards the account in a header.
func accountID(r *http.Request) string {
	if id := r.Header.Get("X-Account-ID"); id != "" {
		return id
	}
	return "default"
}

func channelKind(r *http.Request) (models.ChannelKind, bool) {
	kind := models.ChannelKind(mux.Vars(r)["kind"])
	return kind, kind.Valid()
}

// writeChannelView returns the machine snapshot. Operation failures are part
// of the snapshot (the error field); the status code signals the category.
func writeChannelView(w http.ResponseWriter, view models.ChannelView, err error) {
	status := http.StatusOK
	switch {
	case err == nil:
		// fallthrough to OK
	case errors.Is(err, verification.ErrBusy):
		status = http.StatusConflict
	case errors.Is(err, verification.ErrCooldownActive):
		status = http.StatusTooManyRequests
	case errors.Is(err, verification.ErrBadPhase):
		status = http.StatusConflict
	default:
		status = http.StatusBadRequest
	}
	utils.JSON(w, status, view)
}

// ListChannels returns snapshots for both channels.
func (h *ChannelHandler) ListChannels(w http.ResponseWriter, r *http.Request) {
	account := accountID(r)

	views := make(map[string]models.ChannelView)
	for _, kind := range []models.ChannelKind{models.ChannelSMS, models.ChannelWhatsApp} {
		view, err := h.Manager.Get(r.Context(), account, kind)
		if err != nil {
			utils.Error(w, http.StatusInternalServerError, err.Error())
			return
		}
		views[string(kind)] = view
	}

	utils.JSON(w, http.StatusOK, views)
}

// Mount rebuilds the channel's machine from the authoritative record.
func (h *ChannelHandler) Mount(w http.ResponseWriter, r *http.Request) {
	kind, ok := channelKind(r)
	if !ok {
		utils.Error(w, http.StatusNotFound, "unknown channel kind")
		return
	}

	view, err := h.Manager.Mount(r.Context(), accountID(r), kind)
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.JSON(w, http.StatusOK, view)
}

// GetChannel returns the current snapshot.
func (h *ChannelHandler) GetChannel(w http.ResponseWriter, r *http.Request) {
	kind, ok := channelKind(r)
	if !ok {
		utils.Error(w, http.StatusNotFound, "unknown channel kind")
		return
	}

	view, err := h.Manager.Get(r.Context(), accountID(r), kind)
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.JSON(w, http.StatusOK, view)
}

// SetNumberInput updates the draft number input.
func (h *ChannelHandler) SetNumberInput(w http.ResponseWriter, r *http.Request) {
	kind, ok := channelKind(r)
	if !ok {
		utils.Error(w, http.StatusNotFound, "unknown channel kind")
		return
	}

	var req models.SubmitNumberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	view, err := h.Manager.SetCandidate(r.Context(), accountID(r), kind, req.Number, req.DialCode)
	writeChannelView(w, view, err)
}

// SetCodeInput updates the draft code input.
func (h *ChannelHandler) SetCodeInput(w http.ResponseWriter, r *http.Request) {
	kind, ok := channelKind(r)
	if !ok {
		utils.Error(w, http.StatusNotFound, "unknown channel kind")
		return
	}

	var req models.SubmitCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	view, err := h.Manager.SetCode(r.Context(), accountID(r), kind, req.Code)
	writeChannelView(w, view, err)
}

// SubmitNumber asks for a verification code to be sent to the candidate.
func (h *ChannelHandler) SubmitNumber(w http.ResponseWriter, r *http.Request) {
	kind, ok := channelKind(r)
	if !ok {
		utils.Error(w, http.StatusNotFound, "unknown channel kind")
		return
	}

	view, err := h.Manager.SubmitNumber(r.Context(), accountID(r), kind)
	writeChannelView(w, view, err)
}

// SubmitCode confirms the entered code.
func (h *ChannelHandler) SubmitCode(w http.ResponseWriter, r *http.Request) {
	kind, ok := channelKind(r)
	if !ok {
		utils.Error(w, http.StatusNotFound, "unknown channel kind")
		return
	}

	view, err := h.Manager.SubmitCode(r.Context(), accountID(r), kind)
	writeChannelView(w, view, err)
}

// Resend re-sends the code to the pending number.
func (h *ChannelHandler) Resend(w http.ResponseWriter, r *http.Request) {
	kind, ok := channelKind(r)
	if !ok {
		utils.Error(w, http.StatusNotFound, "unknown channel kind")
		return
	}

	view, err := h.Manager.Resend(r.Context(), accountID(r), kind)
	writeChannelView(w, view, err)
}

// ChangeNumber abandons the pending verification.
func (h *ChannelHandler) ChangeNumber(w http.ResponseWriter, r *http.Request) {
	kind, ok := channelKind(r)
	if !ok {
		utils.Error(w, http.StatusNotFound, "unknown channel kind")
		return
	}

	view, err := h.Manager.ChangeNumber(r.Context(), accountID(r), kind)
	writeChannelView(w, view, err)
}

// SetEnabled toggles notification delivery.
func (h *ChannelHandler) SetEnabled(w http.ResponseWriter, r *http.Request) {
	kind, ok := channelKind(r)
	if !ok {
		utils.Error(w, http.StatusNotFound, "unknown channel kind")
		return
	}

	var req models.SetEnabledRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	view, err := h.Manager.SetEnabled(r.Context(), accountID(r), kind, req.Enabled)
	writeChannelView(w, view, err)
}

// RequestRemoval arms the removal confirmation.
func (h *ChannelHandler) RequestRemoval(w http.ResponseWriter, r *http.Request) {
	kind, ok := channelKind(r)
	if !ok {
		utils.Error(w, http.StatusNotFound, "unknown channel kind")
		return
	}

	view, err := h.Manager.RequestRemoval(r.Context(), accountID(r), kind)
	writeChannelView(w, view, err)
}

// CancelRemoval disarms the removal confirmation.
func (h *ChannelHandler) CancelRemoval(w http.ResponseWriter, r *http.Request) {
	kind, ok := channelKind(r)
	if !ok {
		utils.Error(w, http.StatusNotFound, "unknown channel kind")
		return
	}

	view, err := h.Manager.CancelRemoval(r.Context(), accountID(r), kind)
	writeChannelView(w, view, err)
}

// ConfirmRemoval deletes the verified number.
func (h *ChannelHandler) ConfirmRemoval(w http.ResponseWriter, r *http.Request) {
	kind, ok := channelKind(r)
	if !ok {
		utils.Error(w, http.StatusNotFound, "unknown channel kind")
		return
	}

	view, err := h.Manager.ConfirmRemoval(r.Context(), accountID(r), kind)
	writeChannelView(w, view, err)
}
