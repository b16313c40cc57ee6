package payments

import "context"

// Gateway is the payment provider as seen by the booking state machine.
// Every method fails with ErrGatewayUnavailable when the provider cannot be used.
type Gateway interface {
	CreateAuthorization(ctx context.Context, req AuthorizationRequest) (*Intent, error)
	CaptureAuthorization(ctx context.Context, intentID string) (CaptureOutcome, error)
	// CancelAuthorization releases a hold. Already-canceled intents are not an error.
	CancelAuthorization(ctx context.Context, intentID string) error
	// RetrieveAuthorization returns the intent with card details when available.
	RetrieveAuthorization(ctx context.Context, intentID string) (*Intent, error)
	SearchAuthorizationsByMetadata(ctx context.Context, key, value string) ([]Intent, error)
	ParseWebhook(payload []byte, signatureHeader string) (*Event, error)
}
