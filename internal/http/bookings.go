package http

import (
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"gymstay/backend/internal/authctx"
	"gymstay/backend/internal/domain/booking"
	"gymstay/backend/internal/domain/payments"
	"gymstay/backend/internal/httpjson"
	"gymstay/backend/internal/middleware"
)

// maxWebhookBody caps provider payloads before signature verification.
const maxWebhookBody = 65536

type handlers struct {
	bookings *booking.Service
	gateway  payments.Gateway
	log      *logrus.Logger
}

func actorFrom(r *http.Request) booking.Actor {
	a := booking.Actor{UserAgent: r.UserAgent()}
	if id, ok := authctx.IdentityFrom(r.Context()); ok {
		a.UID, a.Admin = id.UID, id.Admin
	}
	return a
}

func requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id, ok := authctx.IdentityFrom(r.Context()); !ok || !id.Admin {
			httpjson.Error(w, http.StatusForbidden, "forbidden")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requireOwnerOrAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := authctx.IdentityFrom(r.Context())
		if !ok || !(id.Admin || middleware.IsOwner(id.Claims)) {
			httpjson.Error(w, http.StatusForbidden, "forbidden")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bookingID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := strings.TrimSpace(chi.URLParam(r, "bookingId"))
	if id == "" {
		httpjson.Error(w, http.StatusBadRequest, "missing bookingId")
		return "", false
	}
	return id, true
}

// ===== Public =====

func (h *handlers) quote(w http.ResponseWriter, r *http.Request) {
	var in booking.QuoteInput
	if err := httpjson.Read(w, r, &in); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid json")
		return
	}
	q, err := h.bookings.Quote(r.Context(), in)
	if err != nil {
		status, msg := mapGuestError(err)
		httpjson.Error(w, status, msg)
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]any{"success": true, "quote": q})
}

func (h *handlers) createBooking(w http.ResponseWriter, r *http.Request) {
	var in booking.CreateInput
	if err := httpjson.Read(w, r, &in); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid json")
		return
	}
	actor := actorFrom(r)
	in.UserID = actor.UID

	out, err := h.bookings.Create(r.Context(), in, actor)
	if err != nil {
		status, msg := mapGuestError(err)
		if status == http.StatusInternalServerError {
			h.log.WithError(err).Error("create booking")
		}
		httpjson.Error(w, status, msg)
		return
	}
	httpjson.Write(w, http.StatusCreated, map[string]any{
		"success":         true,
		"booking":         out.Booking,
		"bookingPin":      out.Booking.PIN,
		"paymentIntentId": out.PaymentIntentID,
		"clientSecret":    out.ClientSecret,
	})
}

func (h *handlers) resolveAccess(w http.ResponseWriter, r *http.Request) {
	view, err := h.bookings.ResolveAccessToken(r.Context(), r.URL.Query().Get("token"))
	if err != nil {
		status, msg := mapGuestError(err)
		httpjson.Error(w, status, msg)
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]any{"success": true, "booking": view})
}

func (h *handlers) lookup(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Reference string `json:"reference"`
		PIN       string `json:"pin"`
	}
	if err := httpjson.Read(w, r, &in); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid json")
		return
	}
	view, err := h.bookings.LookupByReference(r.Context(), in.Reference, in.PIN)
	if err != nil {
		status, msg := mapGuestError(err)
		httpjson.Error(w, status, msg)
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]any{"success": true, "booking": view})
}

func (h *handlers) issueAccessToken(w http.ResponseWriter, r *http.Request) {
	id, ok := bookingID(w, r)
	if !ok {
		return
	}
	var in struct {
		Email         string `json:"email"`
		ExpiresInDays *int   `json:"expiresInDays,omitempty"`
	}
	if err := httpjson.Read(w, r, &in); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid json")
		return
	}
	issued, err := h.bookings.IssueAccessToken(r.Context(), id, in.Email, in.ExpiresInDays)
	if err != nil {
		status, msg := mapGuestError(err)
		httpjson.Error(w, status, msg)
		return
	}
	httpjson.Write(w, http.StatusCreated, map[string]any{
		"success":   true,
		"token":     issued.Token,
		"bookingId": issued.BookingID,
		"expiresAt": issued.ExpiresAt,
	})
}

// ===== Internal =====

func (h *handlers) notify(w http.ResponseWriter, r *http.Request) {
	id, ok := bookingID(w, r)
	if !ok {
		return
	}
	res, err := h.bookings.NotifyNewBooking(r.Context(), id)
	if err != nil {
		status, msg := mapBookingError(err)
		httpjson.Error(w, status, msg)
		return
	}
	httpjson.Write(w, http.StatusOK, struct {
		Success bool `json:"success"`
		*booking.NotifyResult
	}{true, res})
}

// ===== Operator =====

func (h *handlers) capture(w http.ResponseWriter, r *http.Request) {
	id, ok := bookingID(w, r)
	if !ok {
		return
	}
	res, err := h.bookings.Capture(r.Context(), id, actorFrom(r))
	if err != nil {
		status, msg := mapBookingError(err)
		httpjson.Error(w, status, msg)
		return
	}
	writeCapture(w, res)
}

func (h *handlers) resendConfirmation(w http.ResponseWriter, r *http.Request) {
	id, ok := bookingID(w, r)
	if !ok {
		return
	}
	res, err := h.bookings.ResendConfirmation(r.Context(), id, actorFrom(r))
	if err != nil {
		status, msg := mapBookingError(err)
		httpjson.Error(w, status, msg)
		return
	}
	writeCapture(w, res)
}

func writeCapture(w http.ResponseWriter, res *booking.CaptureResult) {
	httpjson.Write(w, http.StatusOK, struct {
		Success bool `json:"success"`
		*booking.CaptureResult
	}{true, res})
}

func (h *handlers) decline(w http.ResponseWriter, r *http.Request) {
	id, ok := bookingID(w, r)
	if !ok {
		return
	}
	h.writeDecision(w)(h.bookings.Decline(r.Context(), id, actorFrom(r)))
}

func (h *handlers) cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := bookingID(w, r)
	if !ok {
		return
	}
	h.writeDecision(w)(h.bookings.Cancel(r.Context(), id, actorFrom(r)))
}

func (h *handlers) writeDecision(w http.ResponseWriter) func(*booking.DecisionResult, error) {
	return func(res *booking.DecisionResult, err error) {
		if err != nil {
			status, msg := mapBookingError(err)
			httpjson.Error(w, status, msg)
			return
		}
		httpjson.Write(w, http.StatusOK, struct {
			Success bool `json:"success"`
			*booking.DecisionResult
		}{true, res})
	}
}

// syncStripe reports success=false with the gateway status when the payment has
// not succeeded yet; that is a normal outcome, not an error.
func (h *handlers) syncStripe(w http.ResponseWriter, r *http.Request) {
	id, ok := bookingID(w, r)
	if !ok {
		return
	}
	res, err := h.bookings.Sync(r.Context(), id, actorFrom(r))
	if err != nil {
		status, msg := mapBookingError(err)
		httpjson.Error(w, status, msg)
		return
	}
	httpjson.Write(w, http.StatusOK, struct {
		Success bool `json:"success"`
		*booking.SyncResult
	}{res.Synced, res})
}

// ===== Webhook =====

func (h *handlers) paymentsWebhook(w http.ResponseWriter, r *http.Request) {
	if h.gateway == nil {
		httpjson.Error(w, http.StatusInternalServerError, payments.ErrWebhookNotConfigured.Error())
		return
	}
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "unable to read body")
		return
	}

	ev, err := h.gateway.ParseWebhook(payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		if payments.IsErrWebhookNotConfigured(err) {
			httpjson.Error(w, http.StatusInternalServerError, err.Error())
			return
		}
		h.log.WithError(err).Warn("webhook rejected")
		httpjson.Error(w, http.StatusBadRequest, payments.ErrInvalidSignature.Error())
		return
	}

	res, err := h.bookings.HandlePaymentEvent(r.Context(), ev)
	if err != nil {
		h.log.WithError(err).WithFields(logrus.Fields{"event_id": ev.ID, "event_type": ev.Type}).
			Error("webhook processing failed")
		httpjson.Error(w, http.StatusInternalServerError, "webhook processing failed")
		return
	}
	httpjson.Write(w, http.StatusOK, struct {
		Received bool `json:"received"`
		*booking.WebhookResult
	}{true, res})
}
