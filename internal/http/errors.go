package http

import (
	"net/http"

	"gymstay/backend/internal/domain/booking"
	"gymstay/backend/internal/domain/payments"
)

const invalidLinkMessage = "invalid or expired link"

// mapBookingError is used by operator routes; messages carry the full error.
func mapBookingError(err error) (int, string) {
	if err == nil {
		return 500, "unknown error"
	}
	switch {
	case booking.IsErrForbidden(err):
		return http.StatusForbidden, "forbidden"
	case booking.IsErrNotFound(err):
		return http.StatusNotFound, err.Error()
	case booking.IsErrInvalidLink(err):
		return http.StatusNotFound, invalidLinkMessage
	case booking.IsErrBadRequest(err):
		return http.StatusBadRequest, err.Error()
	case booking.IsErrConflict(err):
		return http.StatusConflict, err.Error()
	case payments.IsErrGatewayUnavailable(err):
		return http.StatusServiceUnavailable, payments.ErrGatewayUnavailable.Error()
	case payments.IsErrPaymentFailed(err):
		return http.StatusPaymentRequired, err.Error()
	case payments.IsErrIntentNotFound(err):
		return http.StatusConflict, err.Error()
	default:
		return http.StatusInternalServerError, err.Error()
	}
}

// mapGuestError keeps guest-facing failures coarse.
func mapGuestError(err error) (int, string) {
	switch {
	case err == nil:
		return 500, "unknown error"
	case booking.IsErrInvalidLink(err), booking.IsErrNotFound(err):
		return http.StatusNotFound, invalidLinkMessage
	case booking.IsErrBadRequest(err):
		return http.StatusBadRequest, err.Error()
	case payments.IsErrGatewayUnavailable(err):
		return http.StatusServiceUnavailable, payments.ErrGatewayUnavailable.Error()
	case payments.IsErrPaymentFailed(err):
		return http.StatusPaymentRequired, "payment was declined"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}
