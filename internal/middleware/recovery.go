package middleware

import (
	"log"
	"net/http"
	"runtime/debug"

	"cylinder-backend/pkg/utils"
)

// PanicRecovery turns handler panics into 500 responses so one bad request
// cannot take the whole server down.
func PanicRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Printf("[Recovery] panic on %s %s: %v\n%s", r.Method, r.URL.Path, rec, debug.Stack())
				utils.Error(w, http.StatusInternalServerError, "internal server error")
			}
		}()

		next.ServeHTTP(w, r)
	})
}
