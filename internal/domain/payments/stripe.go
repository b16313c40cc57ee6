package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"
	"github.com/stripe/stripe-go/v78/webhook"
)

// StripeGateway implements Gateway with manual-capture PaymentIntents.
type StripeGateway struct {
	sc            *client.API
	configured    bool
	webhookSecret string
}

// NewStripeGateway builds a gateway around its own client. backends may be nil
// to use the default Stripe endpoints.
func NewStripeGateway(secretKey, webhookSecret string, backends *stripe.Backends) *StripeGateway {
	sc := &client.API{}
	sc.Init(secretKey, backends)
	return &StripeGateway{
		sc:            sc,
		configured:    strings.TrimSpace(secretKey) != "",
		webhookSecret: webhookSecret,
	}
}

func (g *StripeGateway) ready() error {
	if g == nil || !g.configured {
		return fmt.Errorf("%w: provider key not configured", ErrGatewayUnavailable)
	}
	return nil
}

func (g *StripeGateway) CreateAuthorization(ctx context.Context, req AuthorizationRequest) (*Intent, error) {
	if err := g.ready(); err != nil {
		return nil, err
	}
	currency := strings.ToLower(req.Currency)
	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(ToMinorUnits(req.Amount, currency)),
		Currency:      stripe.String(currency),
		CaptureMethod: stripe.String(string(stripe.PaymentIntentCaptureMethodManual)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	if req.Description != "" {
		params.Description = stripe.String(req.Description)
	}
	if req.ReceiptEmail != "" {
		params.ReceiptEmail = stripe.String(req.ReceiptEmail)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}
	params.Context = ctx

	pi, err := g.sc.PaymentIntents.New(params)
	if err != nil {
		return nil, classify(err, "create authorization")
	}
	return toIntent(pi), nil
}

func (g *StripeGateway) CaptureAuthorization(ctx context.Context, intentID string) (CaptureOutcome, error) {
	if err := g.ready(); err != nil {
		return "", err
	}
	params := &stripe.PaymentIntentCaptureParams{}
	params.Context = ctx
	params.SetIdempotencyKey("capture-" + intentID)

	_, err := g.sc.PaymentIntents.Capture(intentID, params)
	if err == nil {
		return Captured, nil
	}

	cerr := classify(err, "capture "+intentID)
	if IsErrGatewayUnavailable(cerr) || IsErrIntentNotFound(cerr) {
		return "", cerr
	}

	// The provider rejects a second capture. Look at the intent before calling it a failure.
	current, rerr := g.RetrieveAuthorization(ctx, intentID)
	if rerr == nil && current.Succeeded() {
		return AlreadyCaptured, nil
	}
	return "", cerr
}

func (g *StripeGateway) CancelAuthorization(ctx context.Context, intentID string) error {
	if err := g.ready(); err != nil {
		return err
	}
	params := &stripe.PaymentIntentCancelParams{
		CancellationReason: stripe.String(string(stripe.PaymentIntentCancellationReasonAbandoned)),
	}
	params.Context = ctx

	_, err := g.sc.PaymentIntents.Cancel(intentID, params)
	if err == nil {
		return nil
	}
	cerr := classify(err, "cancel "+intentID)
	if IsErrGatewayUnavailable(cerr) || IsErrIntentNotFound(cerr) {
		return cerr
	}

	current, rerr := g.RetrieveAuthorization(ctx, intentID)
	if rerr != nil {
		return cerr
	}
	switch current.Status {
	case StatusCanceled:
		return nil
	case StatusSucceeded:
		return fmt.Errorf("%w: %s", ErrAlreadyCaptured, intentID)
	}
	return cerr
}

func (g *StripeGateway) RetrieveAuthorization(ctx context.Context, intentID string) (*Intent, error) {
	if err := g.ready(); err != nil {
		return nil, err
	}
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	params.AddExpand("payment_method")

	pi, err := g.sc.PaymentIntents.Get(intentID, params)
	if err != nil {
		return nil, classify(err, "retrieve "+intentID)
	}
	return toIntent(pi), nil
}

func (g *StripeGateway) SearchAuthorizationsByMetadata(ctx context.Context, key, value string) ([]Intent, error) {
	if err := g.ready(); err != nil {
		return nil, err
	}
	params := &stripe.PaymentIntentSearchParams{}
	params.Context = ctx
	params.Query = fmt.Sprintf("metadata['%s']:'%s'", escapeQuery(key), escapeQuery(value))

	out := []Intent{}
	it := g.sc.PaymentIntents.Search(params)
	for it.Next() {
		out = append(out, *toIntent(it.PaymentIntent()))
	}
	if err := it.Err(); err != nil {
		return nil, classify(err, "search intents")
	}
	return out, nil
}

func (g *StripeGateway) ParseWebhook(payload []byte, signatureHeader string) (*Event, error) {
	if g == nil || g.webhookSecret == "" {
		return nil, ErrWebhookNotConfigured
	}
	event, err := webhook.ConstructEventWithOptions(payload, signatureHeader, g.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	out := &Event{ID: event.ID, Type: string(event.Type)}
	if strings.HasPrefix(out.Type, "payment_intent.") && event.Data != nil {
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return nil, fmt.Errorf("parse payment intent: %w", err)
		}
		out.Intent = toIntent(&pi)
	}
	return out, nil
}

func toIntent(pi *stripe.PaymentIntent) *Intent {
	if pi == nil {
		return nil
	}
	in := &Intent{
		ID:           pi.ID,
		Status:       string(pi.Status),
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
		ClientSecret: pi.ClientSecret,
		Metadata:     pi.Metadata,
	}
	if pi.Created > 0 {
		in.Created = time.Unix(pi.Created, 0).UTC()
	}
	if pi.PaymentMethod != nil && pi.PaymentMethod.Card != nil {
		in.Card = &Card{
			Brand: string(pi.PaymentMethod.Card.Brand),
			Last4: pi.PaymentMethod.Card.Last4,
		}
	}
	return in
}

// classify maps provider errors onto the package sentinels.
func classify(err error, op string) error {
	var se *stripe.Error
	if !errors.As(err, &se) {
		return fmt.Errorf("%w: %s: %v", ErrGatewayUnavailable, op, err)
	}
	switch {
	case se.Code == stripe.ErrorCodeResourceMissing:
		return fmt.Errorf("%w: %s", ErrIntentNotFound, op)
	case se.HTTPStatusCode >= http.StatusInternalServerError,
		se.HTTPStatusCode == http.StatusUnauthorized,
		se.HTTPStatusCode == http.StatusTooManyRequests,
		se.Type == stripe.ErrorTypeAPI:
		return fmt.Errorf("%w: %s: %s", ErrGatewayUnavailable, op, se.Msg)
	}
	return fmt.Errorf("%w: %s: %s", ErrPaymentFailed, op, se.Msg)
}

func escapeQuery(s string) string {
	return strings.ReplaceAll(s, "'", `\'`)
}
