package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"frontdesk-backend/internal/acquisition"
	"frontdesk-backend/internal/cache"
	"frontdesk-backend/internal/inventory"
	"frontdesk-backend/internal/metrics"
	"frontdesk-backend/internal/models"
	"frontdesk-backend/internal/repositories"
)

// InventoryClient is the carrier-side port used for both provisioning paths.
type InventoryClient interface {
	SearchNumbers(ctx context.Context, q models.NumberSearchQuery) ([]models.CandidateNumber, error)
	InstantAssign(ctx context.Context, areaCode, numberType string) (string, error)
}

// ProvisioningService turns provisioning requests into carrier calls and
// records. Rejections are surfaced as *acquisition.ProvisionError so the
// workflow can attribute a code.
type ProvisioningService struct {
	Inventory    InventoryClient
	OrderRepo    *repositories.ProvisionOrderRepository
	NumberRepo   *repositories.PhoneNumberRepository
	BusinessRepo *repositories.BusinessRepository
}

func NewProvisioningService(
	inv InventoryClient,
	orderRepo *repositories.ProvisionOrderRepository,
	numberRepo *repositories.PhoneNumberRepository,
	businessRepo *repositories.BusinessRepository,
) *ProvisioningService {
	return &ProvisioningService{
		Inventory:    inv,
		OrderRepo:    orderRepo,
		NumberRepo:   numberRepo,
		BusinessRepo: businessRepo,
	}
}

// Provision executes one provisioning request. The instant path asks the
// carrier for any free number in the area code; the checkout path records
// the already-paid number that reconciliation confirmed.
func (s *ProvisioningService) Provision(ctx context.Context, req models.ProvisionRequest) error {
	business, err := s.BusinessRepo.GetByID(ctx, req.BusinessID)
	if err != nil {
		return fmt.Errorf("failed to load business: %w", err)
	}
	if business == nil {
		return &acquisition.ProvisionError{Code: "BUSINESS_NOT_FOUND", Message: "Business not found."}
	}

	switch req.Provider {
	case models.ProvisionInstant:
		return s.provisionInstant(ctx, req)
	case models.ProvisionCheckout:
		return s.provisionCheckout(ctx, req)
	default:
		return fmt.Errorf("unknown provisioning provider %q", req.Provider)
	}
}

func (s *ProvisioningService) provisionInstant(ctx context.Context, req models.ProvisionRequest) error {
	order := &models.ProvisionOrder{
		BusinessID: req.BusinessID,
		Provider:   models.ProvisionInstant,
		AreaCode:   req.AreaCode,
		Status:     models.OrderStatusPending,
	}
	if err := s.OrderRepo.Create(ctx, order); err != nil {
		return fmt.Errorf("failed to create provisioning order: %w", err)
	}

	assigned, err := s.Inventory.InstantAssign(ctx, req.AreaCode, req.NumberType)
	if err != nil {
		if cancelErr := s.OrderRepo.UpdateStatus(ctx, order.ID, models.OrderStatusCancelled); cancelErr != nil {
			log.Printf("[Provision] Failed to cancel order %d: %v", order.ID, cancelErr)
		}
		metrics.ProvisionOrdersTotal.WithLabelValues(string(models.ProvisionInstant), "rejected").Inc()
		return s.mapCarrierError(err)
	}

	if err := s.recordNumber(ctx, req.BusinessID, assigned, req.NumberType, "instant", 0); err != nil {
		return err
	}
	if err := s.OrderRepo.UpdateStatus(ctx, order.ID, models.OrderStatusCompleted); err != nil {
		log.Printf("[Provision] Failed to complete order %d: %v", order.ID, err)
	}

	metrics.ProvisionOrdersTotal.WithLabelValues(string(models.ProvisionInstant), "completed").Inc()
	log.Printf("[Provision] Instant-assigned %s to business %s", assigned, req.BusinessID)
	return nil
}

func (s *ProvisioningService) provisionCheckoutOrder(ctx context.Context, req models.ProvisionRequest) (*models.ProvisionOrder, error) {
	pending, err := s.OrderRepo.HasPendingForNumber(ctx, req.PhoneNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to check pending orders: %w", err)
	}
	if pending {
		return nil, &acquisition.ProvisionError{Code: acquisition.CodeDuplicateOrder}
	}

	taken, err := s.NumberRepo.ExistsByNumber(ctx, req.PhoneNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to check number availability: %w", err)
	}
	if taken {
		return nil, &acquisition.ProvisionError{Code: acquisition.CodeNumberUnavailable}
	}

	order := &models.ProvisionOrder{
		BusinessID:  req.BusinessID,
		Provider:    models.ProvisionCheckout,
		PhoneNumber: req.PhoneNumber,
		Status:      models.OrderStatusPending,
	}
	if err := s.OrderRepo.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to create provisioning order: %w", err)
	}
	return order, nil
}

func (s *ProvisioningService) provisionCheckout(ctx context.Context, req models.ProvisionRequest) error {
	order, err := s.provisionCheckoutOrder(ctx, req)
	if err != nil {
		return err
	}

	if err := s.recordNumber(ctx, req.BusinessID, req.PhoneNumber, req.NumberType, "checkout", 0); err != nil {
		if cancelErr := s.OrderRepo.UpdateStatus(ctx, order.ID, models.OrderStatusCancelled); cancelErr != nil {
			log.Printf("[Provision] Failed to cancel order %d: %v", order.ID, cancelErr)
		}
		return err
	}
	if err := s.OrderRepo.UpdateStatus(ctx, order.ID, models.OrderStatusCompleted); err != nil {
		log.Printf("[Provision] Failed to complete order %d: %v", order.ID, err)
	}

	metrics.ProvisionOrdersTotal.WithLabelValues(string(models.ProvisionCheckout), "completed").Inc()
	log.Printf("[Provision] Checkout number %s assigned to business %s", req.PhoneNumber, req.BusinessID)
	return nil
}

func (s *ProvisioningService) recordNumber(ctx context.Context, businessID, phoneNumber, numberType, source string, price float64) error {
	if numberType == "" {
		numberType = "phone"
	}
	n := &models.PhoneNumber{
		BusinessID:   businessID,
		PhoneNumber:  phoneNumber,
		NumberType:   numberType,
		Source:       source,
		MonthlyPrice: price,
	}
	if err := s.NumberRepo.Create(ctx, n); err != nil {
		return fmt.Errorf("failed to record assigned number: %w", err)
	}
	cache.InvalidateBusinessNumbers(ctx, businessID)
	return nil
}

// mapCarrierError attributes a code to a carrier rejection so the curated
// message table can resolve it. Carrier payloads that spell the same
// conditions their own way pass through on the code they carried.
func (s *ProvisioningService) mapCarrierError(err error) error {
	if errors.Is(err, inventory.ErrNoNumberAvailable) {
		return &acquisition.ProvisionError{Code: acquisition.CodeNumberUnavailable}
	}

	msg := err.Error()
	for _, raw := range []string{"PHONE_ORDER_DUPLICATE", "PHONE_NUMBER_UNAVAILABLE"} {
		if strings.Contains(msg, raw) {
			return &acquisition.ProvisionError{Code: raw}
		}
	}
	return err
}
