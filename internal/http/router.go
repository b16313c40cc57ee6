package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
	"github.com/ulule/limiter/v3"

	"gymstay/backend/internal/domain/booking"
	"gymstay/backend/internal/domain/payments"
	"gymstay/backend/internal/httpjson"
	"gymstay/backend/internal/middleware"
)

type RouterDeps struct {
	AllowedOrigins []string
	Verifier       middleware.TokenVerifier
	Bookings       *booking.Service
	Gateway        payments.Gateway
	LimiterStore   limiter.Store
	PublicRate     string
	TrustProxy     bool
	InternalSecret string
	Log            *logrus.Logger
}

func NewRouter(d RouterDeps) http.Handler {
	if d.Log == nil {
		d.Log = logrus.StandardLogger()
	}
	h := &handlers{bookings: d.Bookings, gateway: d.Gateway, log: d.Log}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	if d.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORS(d.AllowedOrigins, d.Log))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httpjson.Write(w, http.StatusOK, map[string]any{"ok": true, "ts": time.Now().UTC().Format(time.RFC3339)})
	})

	// Signature-verified; never rate limited so provider retries always land.
	r.Post("/v1/webhooks/payments", h.paymentsWebhook)

	// Public guest routes
	r.Group(func(pub chi.Router) {
		if d.LimiterStore != nil {
			pub.Use(middleware.RateLimit(d.LimiterStore, d.PublicRate, d.Log))
		}
		pub.Post("/v1/pricing/quote", h.quote)
		pub.With(middleware.OptionalAuth(d.Verifier)).Post("/v1/bookings", h.createBooking)
		pub.Get("/v1/bookings/access", h.resolveAccess)
		pub.Post("/v1/bookings/lookup", h.lookup)
		pub.Post("/v1/bookings/{bookingId}/access-token", h.issueAccessToken)
	})

	// System calls from our own functions
	r.With(middleware.InternalAuth(d.InternalSecret, middleware.ScopeNotify)).
		Post("/v1/bookings/{bookingId}/notify", h.notify)

	// Operator routes
	r.Group(func(pr chi.Router) {
		pr.Use(middleware.WithAuth(d.Verifier))

		pr.With(requireOwnerOrAdmin).Post("/v1/bookings/{bookingId}/capture", h.capture)
		pr.With(requireOwnerOrAdmin).Post("/v1/bookings/{bookingId}/decline", h.decline)

		pr.With(requireAdmin).Post("/v1/bookings/{bookingId}/cancel", h.cancel)
		pr.With(requireAdmin).Post("/v1/bookings/{bookingId}/resend-confirmation", h.resendConfirmation)
		pr.With(requireAdmin).Post("/v1/bookings/{bookingId}/sync-stripe", h.syncStripe)
	})

	return r
}
