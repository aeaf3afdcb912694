package http

import (
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"frontdesk-backend/internal/handlers"
)

func NewRouter(
	channelHandler *handlers.ChannelHandler,
	acquisitionHandler *handlers.AcquisitionHandler,
	businessHandler *handlers.BusinessHandler,
	notificationHandler *handlers.NotificationHandler,
	systemSettingHandler *handlers.SystemSettingHandler,
	healthHandler *handlers.HealthHandler,
) *mux.Router {
	r := mux.NewRouter()

	// Notification channels
	channelsAPI := r.PathPrefix("/api/channels").Subrouter()
	channelsAPI.HandleFunc("", channelHandler.ListChannels).Methods("GET")
	channelsAPI.HandleFunc("/{kind}", channelHandler.GetChannel).Methods("GET")
	channelsAPI.HandleFunc("/{kind}/mount", channelHandler.Mount).Methods("POST")
	channelsAPI.HandleFunc("/{kind}/number-input", channelHandler.SetNumberInput).Methods("PUT")
	channelsAPI.HandleFunc("/{kind}/code-input", channelHandler.SetCodeInput).Methods("PUT")
	channelsAPI.HandleFunc("/{kind}/submit-number", channelHandler.SubmitNumber).Methods("POST")
	channelsAPI.HandleFunc("/{kind}/submit-code", channelHandler.SubmitCode).Methods("POST")
	channelsAPI.HandleFunc("/{kind}/resend", channelHandler.Resend).Methods("POST")
	channelsAPI.HandleFunc("/{kind}/change-number", channelHandler.ChangeNumber).Methods("POST")
	channelsAPI.HandleFunc("/{kind}/enabled", channelHandler.SetEnabled).Methods("PUT")
	channelsAPI.HandleFunc("/{kind}/removal", channelHandler.RequestRemoval).Methods("POST")
	channelsAPI.HandleFunc("/{kind}/removal/cancel", channelHandler.CancelRemoval).Methods("POST")
	channelsAPI.HandleFunc("/{kind}/removal/confirm", channelHandler.ConfirmRemoval).Methods("POST")

	// Number acquisition drafts
	acquisitionsAPI := r.PathPrefix("/api/acquisitions").Subrouter()
	acquisitionsAPI.HandleFunc("", acquisitionHandler.OpenDraft).Methods("POST")
	acquisitionsAPI.HandleFunc("/{id}", acquisitionHandler.GetDraft).Methods("GET")
	acquisitionsAPI.HandleFunc("/{id}", acquisitionHandler.UpdateDraft).Methods("PATCH")
	acquisitionsAPI.HandleFunc("/{id}", acquisitionHandler.CloseDraft).Methods("DELETE")
	acquisitionsAPI.HandleFunc("/{id}/search", acquisitionHandler.SearchNumbers).Methods("POST")
	acquisitionsAPI.HandleFunc("/{id}/select", acquisitionHandler.SelectCandidate).Methods("POST")
	acquisitionsAPI.HandleFunc("/{id}/submit", acquisitionHandler.SubmitDraft).Methods("POST")
	acquisitionsAPI.HandleFunc("/{id}/return", acquisitionHandler.HandleReturn).Methods("GET")

	// Checkout provider webhook
	r.HandleFunc("/api/webhooks/razorpay", acquisitionHandler.HandleWebhook).Methods("POST")

	// Businesses and their numbers
	businessesAPI := r.PathPrefix("/api/businesses").Subrouter()
	businessesAPI.HandleFunc("", businessHandler.ListBusinesses).Methods("GET")
	businessesAPI.HandleFunc("", businessHandler.CreateBusiness).Methods("POST")
	businessesAPI.HandleFunc("/{id}", businessHandler.GetBusiness).Methods("GET")
	businessesAPI.HandleFunc("/{id}/numbers", businessHandler.ListNumbers).Methods("GET")

	// Notifications
	notificationsAPI := r.PathPrefix("/api/notifications").Subrouter()
	notificationsAPI.HandleFunc("", notificationHandler.Send).Methods("POST")
	notificationsAPI.HandleFunc("/logs", notificationHandler.ListLogs).Methods("GET")

	// System settings
	settingsAPI := r.PathPrefix("/api/settings").Subrouter()
	settingsAPI.HandleFunc("", systemSettingHandler.ListSettings).Methods("GET")
	settingsAPI.HandleFunc("/{key}", systemSettingHandler.GetSetting).Methods("GET")
	settingsAPI.HandleFunc("/{key}", systemSettingHandler.UpdateSetting).Methods("PUT")

	// Health endpoints (no auth required - for Kubernetes probes)
	r.HandleFunc("/health", healthHandler.BasicHealth).Methods("GET")
	r.HandleFunc("/health/ready", healthHandler.ReadinessHealth).Methods("GET")
	r.HandleFunc("/health/detailed", healthHandler.DetailedHealth).Methods("GET")

	// Metrics endpoint (Prometheus format)
	r.Handle("/metrics", promhttp.Handler())

	return r
}
