package restservice

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"
)

// Install a middleware that traces REST calls using logrus.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wrapped := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(wrapped, r)

		log.WithFields(log.Fields{
			"path":   r.RequestURI,
			"method": r.Method,
			"remote": r.RemoteAddr,
			"status": wrapped.Status(),
			"took":   time.Since(start),
		}).Debug("Served request")
	})
}
