package handlers

import (
	"encoding/json"
	"net/http"

	"frontdesk-backend/internal/cache"
	"frontdesk-backend/internal/models"
	"frontdesk-backend/internal/repositories"
	"frontdesk-backend/pkg/utils"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type BusinessHandler struct {
	BusinessRepo *repositories.BusinessRepository
	NumberRepo   *repositories.PhoneNumberRepository
}

func NewBusinessHandler(businessRepo *repositories.BusinessRepository, numberRepo *repositories.PhoneNumberRepository) *BusinessHandler {
	return &BusinessHandler{BusinessRepo: businessRepo, NumberRepo: numberRepo}
}

// ListBusinesses returns the account's business profiles.
func (h *BusinessHandler) ListBusinesses(w http.ResponseWriter, r *http.Request) {
	businesses, err := h.BusinessRepo.ListByAccount(r.Context(), accountID(r))
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	if businesses == nil {
		businesses = []*models.Business{}
	}
	utils.JSON(w, http.StatusOK, businesses)
}

// CreateBusiness registers a new business profile.
func (h *BusinessHandler) CreateBusiness(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name    string `json:"name"`
		Country string `json:"country"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name == "" {
		utils.Error(w, http.StatusBadRequest, "Business name is required")
		return
	}

	b := &models.Business{
		ID:        uuid.New().String(),
		AccountID: accountID(r),
		Name:      req.Name,
		Country:   req.Country,
	}
	if err := h.BusinessRepo.Create(r.Context(), b); err != nil {
		utils.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.JSON(w, http.StatusCreated, b)
}

// GetBusiness returns one business profile.
func (h *BusinessHandler) GetBusiness(w http.ResponseWriter, r *http.Request) {
	b, err := h.BusinessRepo.GetByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	if b == nil {
		utils.Error(w, http.StatusNotFound, "Business not found")
		return
	}
	utils.JSON(w, http.StatusOK, b)
}

// ListNumbers returns the numbers assigned to a business. This is the
// authoritative list the dashboard refetches after provisioning.
func (h *BusinessHandler) ListNumbers(w http.ResponseWriter, r *http.Request) {
	businessID := mux.Vars(r)["id"]

	if data, ok := cache.GetCachedBusinessNumbers(r.Context(), businessID); ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(data)
		return
	}

	numbers, err := h.NumberRepo.ListByBusiness(r.Context(), businessID)
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	if numbers == nil {
		numbers = []*models.PhoneNumber{}
	}

	if data, err := json.Marshal(numbers); err == nil {
		cache.CacheBusinessNumbers(r.Context(), businessID, data)
	}
	utils.JSON(w, http.StatusOK, numbers)
}
