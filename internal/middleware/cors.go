package middleware

import (
	"net/http"

	"frontdesk-backend/internal/config"

	"github.com/rs/cors"
)

// NewCORS builds the cross-origin middleware from the configured dashboard
// origins. Credentials are allowed so the dashboard can send the account
// header alongside cookies.
func NewCORS(cfg *config.Config) func(http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.CorsAllowedOrigins,
		AllowedMethods:   cfg.Server.CorsAllowedMethods,
		AllowedHeaders:   cfg.Server.CorsAllowedHeaders,
		AllowCredentials: true,
		MaxAge:           300,
	})

	return c.Handler
}
