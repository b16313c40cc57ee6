package payments

import "errors"

var (
	// ErrGatewayUnavailable means the provider could not be reached or is not configured.
	// No state may be advanced on this error.
	ErrGatewayUnavailable   = errors.New("payment system unavailable")
	ErrIntentNotFound       = errors.New("payment intent not found")
	ErrPaymentFailed        = errors.New("payment failed")
	ErrAlreadyCaptured      = errors.New("payment already captured")
	ErrInvalidSignature     = errors.New("invalid webhook signature")
	ErrWebhookNotConfigured = errors.New("webhook not configured")
)

func IsErrGatewayUnavailable(err error) bool   { return errors.Is(err, ErrGatewayUnavailable) }
func IsErrIntentNotFound(err error) bool       { return errors.Is(err, ErrIntentNotFound) }
func IsErrPaymentFailed(err error) bool        { return errors.Is(err, ErrPaymentFailed) }
func IsErrAlreadyCaptured(err error) bool      { return errors.Is(err, ErrAlreadyCaptured) }
func IsErrInvalidSignature(err error) bool     { return errors.Is(err, ErrInvalidSignature) }
func IsErrWebhookNotConfigured(err error) bool { return errors.Is(err, ErrWebhookNotConfigured) }
