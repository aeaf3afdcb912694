package middleware

import (
	"log"
	"net/http"
	"runtime/debug"

	"frontdesk-backend/pkg/utils"
)

// PanicRecovery turns a handler panic into a 500 JSON response instead of
// dropping the connection.
func PanicRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				log.Printf("[Recover] %s %s panicked: %v\n%s", r.Method, r.URL.Path, err, debug.Stack())
				utils.Error(w, http.StatusInternalServerError, "internal server error")
			}
		}()

		next.ServeHTTP(w, r)
	})
}
