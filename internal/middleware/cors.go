package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"
)

func CORS(allowedOrigins []string, log *logrus.Logger) func(http.Handler) http.Handler {
	log.WithField("origins", allowedOrigins).Info("CORS allowed origins")

	// Empty means allow all (development).
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}

	return cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           300,
	})
}
