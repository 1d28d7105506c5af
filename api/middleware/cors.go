package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

var defaultCORSOrigins = []string{
	"http://localhost:3000",      // local dev
	"https://mvarc.vercel.app",   // ARC frontend
	"https://qr.brasilito.org",   // QR gate frontend
	"https://portal.brasilito.org", // portal launcher
}

// CORS returns middleware applying the portal's allowed origin policy.
// An empty origin list falls back to the built-in defaults.
func CORS(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = defaultCORSOrigins
	}
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Service-Token", "X-Service-Name", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}
