package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"time"

	"frontdesk-backend/internal/acquisition"
	"frontdesk-backend/internal/cache"
	"frontdesk-backend/internal/checkout"
	"frontdesk-backend/internal/clock"
	"frontdesk-backend/internal/config"
	"frontdesk-backend/internal/database"
	"frontdesk-backend/internal/db"
	"frontdesk-backend/internal/gateway"
	"frontdesk-backend/internal/handlers"
	"frontdesk-backend/internal/health"
	h "frontdesk-backend/internal/http"
	"frontdesk-backend/internal/inventory"
	"frontdesk-backend/internal/middleware"
	"frontdesk-backend/internal/models"
	"frontdesk-backend/internal/monitoring"
	"frontdesk-backend/internal/repositories"
	"frontdesk-backend/internal/services"
)

func main() {
	port := flag.Int("port", 0, "Server port (overrides config)")
	flag.Parse()

	// Load configuration
	cfg := config.Load()
	if *port != 0 {
		cfg.Server.Port = *port
	}

	// Connect to PostgreSQL
	pool := db.Connect(cfg)
	defer pool.Close()

	// Initialize Redis cache (optional - graceful fallback if unavailable)
	if err := cache.Init(); err != nil {
		log.Printf("[Redis] Cache unavailable: %v (reads go straight to Postgres)", err)
	} else {
		log.Println("[Redis] Cache connected successfully")
	}

	// Run database migrations
	log.Println("Running database migrations...")
	migrator := database.NewMigrator(pool)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := migrator.RunMigrations(ctx); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize health checker
	healthChecker := health.NewHealthChecker(pool, cache.GetClient())

	// Start monitoring dashboard server in background
	if cfg.Monitoring.Enabled {
		go monitoring.NewMonitoringServer(pool, cfg.Monitoring.Port).Start()
	}

	// Initialize repositories
	channelRepo := repositories.NewChannelRepository(pool)
	codeRepo := repositories.NewVerificationCodeRepository(pool)
	messageLogRepo := repositories.NewMessageLogRepository(pool)
	businessRepo := repositories.NewBusinessRepository(pool)
	numberRepo := repositories.NewPhoneNumberRepository(pool)
	orderRepo := repositories.NewProvisionOrderRepository(pool)
	sessionRepo := repositories.NewCheckoutSessionRepository(pool)
	systemSettingRepo := repositories.NewSystemSettingRepository(pool)

	// Initialize message gateways (mocks print to console when not configured)
	var smsProvider gateway.Provider
	if cfg.SMS.UseMock || cfg.SMS.APIKey == "" {
		log.Println("WARNING: SMS gateway not configured, using mock (codes print to logs)")
		smsProvider = gateway.NewMockProvider(models.ChannelSMS)
	} else {
		smsProvider = gateway.NewSMSService(cfg.SMS.APIKey, cfg.SMS.BaseURL)
	}
	var whatsappProvider gateway.Provider
	if cfg.WhatsApp.UseMock || cfg.WhatsApp.APIKey == "" {
		log.Println("WARNING: WhatsApp gateway not configured, using mock (codes print to logs)")
		whatsappProvider = gateway.NewMockProvider(models.ChannelWhatsApp)
	} else {
		whatsappProvider = gateway.NewWhatsAppService(cfg.WhatsApp.APIKey, cfg.WhatsApp.PhoneNumberID)
	}
	smsProvider.SetLogRepository(messageLogRepo)
	whatsappProvider.SetLogRepository(messageLogRepo)

	providers := map[models.ChannelKind]gateway.Provider{
		models.ChannelSMS:      smsProvider,
		models.ChannelWhatsApp: whatsappProvider,
	}

	// Initialize carrier inventory client
	var inventoryClient services.InventoryClient
	if cfg.Inventory.UseMock || cfg.Inventory.BaseURL == "" {
		log.Println("WARNING: Inventory provider not configured, using mock")
		inventoryClient = inventory.NewMockClient(
			models.CandidateNumber{PhoneNumber: "+14155550101", Locality: "San Francisco", Region: "CA", MonthlyPrice: 14.99},
			models.CandidateNumber{PhoneNumber: "+14155550102", Locality: "San Francisco", Region: "CA", MonthlyPrice: 14.99},
			models.CandidateNumber{PhoneNumber: "+12125550103", Locality: "New York", Region: "NY", MonthlyPrice: 19.99},
		)
	} else {
		inventoryClient = inventory.NewClient(cfg.Inventory.BaseURL, cfg.Inventory.APIKey)
	}

	// Initialize services
	settingsStore := services.NewChannelSettingsService(channelRepo, codeRepo, providers)
	settingsStore.SetSettingRepo(systemSettingRepo)

	channelManager := services.NewChannelManager(settingsStore, clock.New())

	provisioningService := services.NewProvisioningService(inventoryClient, orderRepo, numberRepo, businessRepo)

	checkoutService := checkout.NewRazorpayService(
		cfg.Razorpay.KeyID,
		cfg.Razorpay.KeySecret,
		cfg.Razorpay.WebhookSecret,
		cfg.Server.PublicURL,
		sessionRepo,
		systemSettingRepo,
	)

	workflow := acquisition.NewWorkflow(provisioningService, checkoutService, inventoryClient)
	acquisitionService := services.NewAcquisitionService(workflow, sessionRepo, provisioningService)

	notificationService := services.NewNotificationService(settingsStore, providers)
	systemSettingService := services.NewSystemSettingService(systemSettingRepo)

	// Initialize handlers
	channelHandler := handlers.NewChannelHandler(channelManager)
	acquisitionHandler := handlers.NewAcquisitionHandler(acquisitionService, checkoutService)
	businessHandler := handlers.NewBusinessHandler(businessRepo, numberRepo)
	notificationHandler := handlers.NewNotificationHandler(notificationService, messageLogRepo)
	systemSettingHandler := handlers.NewSystemSettingHandler(systemSettingService)
	healthHandler := handlers.NewHealthHandler(healthChecker)

	// Build router and middleware chain
	router := h.NewRouter(
		channelHandler,
		acquisitionHandler,
		businessHandler,
		notificationHandler,
		systemSettingHandler,
		healthHandler,
	)

	corsMiddleware := middleware.NewCORS(cfg)
	handler := middleware.PanicRecovery(middleware.MetricsMiddleware(corsMiddleware(router)))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("Server running on %s", addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
