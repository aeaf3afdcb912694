package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"frontdesk-backend/internal/models"
	"frontdesk-backend/internal/repositories"
	"frontdesk-backend/internal/services"
	"frontdesk-backend/pkg/utils"
)

type NotificationHandler struct {
	Service *services.NotificationService
	LogRepo *repositories.MessageLogRepository
}

func NewNotificationHandler(service *services.NotificationService, logRepo *repositories.MessageLogRepository) *NotificationHandler {
	return &NotificationHandler{Service: service, LogRepo: logRepo}
}

// Send delivers a message over every verified and enabled channel.
func (h *NotificationHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Message == "" {
		utils.Error(w, http.StatusBadRequest, "Message is required")
		return
	}

	if err := h.Service.Notify(r.Context(), accountID(r), req.Message); err != nil {
		utils.Error(w, http.StatusBadGateway, err.Error())
		return
	}

	utils.JSON(w, http.StatusOK, map[string]string{"message": "Notification sent"})
}

// ListLogs returns recent outbound messages for the account.
func (h *NotificationHandler) ListLogs(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	logs, err := h.LogRepo.ListByAccount(r.Context(), accountID(r), limit)
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	if logs == nil {
		logs = []*models.MessageLog{}
	}
	utils.JSON(w, http.StatusOK, logs)
}
