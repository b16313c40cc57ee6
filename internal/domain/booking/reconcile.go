package booking

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"gymstay/backend/internal/domain/notifications"
	"gymstay/backend/internal/domain/payments"
)

var webhookActor = Actor{}

// HandlePaymentEvent applies a verified provider event. Deliveries are at-least-once;
// replays of an applied event are acknowledged without side effects. An error is
// returned only when the store failed, so the provider retries.
func (s *Service) HandlePaymentEvent(ctx context.Context, ev *payments.Event) (*WebhookResult, error) {
	res := &WebhookResult{EventType: ev.Type}
	if ev.Intent == nil {
		return res, nil
	}

	switch ev.Type {
	case payments.EventIntentSucceeded:
		return s.handleIntentSucceeded(ctx, ev.Intent, res)
	case payments.EventIntentCapturableUpdated:
		return s.handleIntentCapturable(ctx, ev.Intent, res)
	case payments.EventIntentCanceled:
		return s.handleIntentCanceled(ctx, ev.Intent, res)
	}
	return res, nil
}

func (s *Service) bookingForIntent(ctx context.Context, intentID string, res *WebhookResult) (*Booking, error) {
	b, err := s.store.FindByPaymentIntent(ctx, intentID)
	if err != nil {
		if IsErrNotFound(err) {
			s.log.WithFields(logrus.Fields{"intent_id": intentID, "event_type": res.EventType}).
				Info("webhook: no booking for payment intent")
			return nil, nil
		}
		return nil, fmt.Errorf("find booking for intent %s: %w", intentID, err)
	}
	res.BookingID = b.ID
	return b, nil
}

func (s *Service) handleIntentSucceeded(ctx context.Context, intent *payments.Intent, res *WebhookResult) (*WebhookResult, error) {
	b, err := s.bookingForIntent(ctx, intent.ID, res)
	if err != nil || b == nil {
		return res, err
	}
	res.Handled = true
	if b.Status == StatusConfirmed {
		res.AlreadyConfirmed = true
		return res, nil
	}
	if intent.Amount != 0 && intent.Amount != payments.ToMinorUnits(b.TotalPrice, b.Currency) {
		s.log.WithFields(logrus.Fields{
			"booking_id": b.ID,
			"intent_id":  intent.ID,
			"captured":   payments.FromMinorUnits(intent.Amount, intent.Currency),
			"expected":   b.TotalPrice,
		}).Warn("webhook: captured amount differs from booking total")
	}

	changed, err := s.confirm(ctx, b, webhookActor, SourceWebhook)
	if err != nil {
		return res, err
	}
	if !changed {
		res.AlreadyConfirmed = true
		return res, nil
	}
	res.EmailSent = s.sendConfirmationWith(ctx, b, intent, webhookActor, SourceWebhook)
	return res, nil
}

// handleIntentCapturable repairs bookings whose hold exists but whose status write was lost.
func (s *Service) handleIntentCapturable(ctx context.Context, intent *payments.Intent, res *WebhookResult) (*WebhookResult, error) {
	b, err := s.bookingForIntent(ctx, intent.ID, res)
	if err != nil || b == nil {
		return res, err
	}
	changed, err := s.store.Transition(ctx, b.ID, []Status{StatusPendingPayment}, StatusAwaitingApproval)
	if err != nil {
		return res, err
	}
	res.Handled = changed
	if changed {
		s.record(ctx, b, Event{
			Type:       EventAuthorized,
			Source:     SourceWebhook,
			FromStatus: StatusPendingPayment,
			ToStatus:   StatusAwaitingApproval,
		}, webhookActor)
	}
	return res, nil
}

// handleIntentCanceled reflects holds released outside this service, such as expiry.
func (s *Service) handleIntentCanceled(ctx context.Context, intent *payments.Intent, res *WebhookResult) (*WebhookResult, error) {
	b, err := s.bookingForIntent(ctx, intent.ID, res)
	if err != nil || b == nil {
		return res, err
	}
	from := b.Status
	changed, err := s.store.Transition(ctx, b.ID, releasableFrom, StatusCancelled)
	if err != nil {
		return res, err
	}
	res.Handled = changed
	if changed {
		b.Status = StatusCancelled
		s.record(ctx, b, Event{Type: EventCancelled, Source: SourceWebhook, FromStatus: from, ToStatus: StatusCancelled}, webhookActor)
		s.publish(ctx, b, StatusCancelled, SourceWebhook)
	}
	return res, nil
}

// Sync reconciles a booking against the gateway, ignoring local status. It
// relinks a missing or stale intent id using the metadata search.
func (s *Service) Sync(ctx context.Context, id string, actor Actor) (*SyncResult, error) {
	if !actor.Admin {
		return nil, ErrForbidden
	}
	b, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	gw, err := s.gw()
	if err != nil {
		return nil, err
	}

	res := &SyncResult{BookingID: b.ID, Status: b.Status.Canonical()}
	candidates, err := s.candidateIntents(ctx, gw, b)
	if err != nil {
		return nil, err
	}
	res.Candidates = len(candidates)

	pick, ok := payments.SelectIntent(candidates)
	if !ok {
		res.Message = "no payment intent found for booking"
		return res, nil
	}
	// Until money has moved, a stored intent the gateway still knows stays linked.
	// Switching to a newer abandoned intent would strand the live hold.
	if !pick.Succeeded() {
		if stored, found := findIntent(candidates, b.StripePaymentIntentID); found {
			pick = stored
		}
	}
	res.PaymentIntentID = pick.ID
	res.GatewayStatus = pick.Status

	if pick.ID != b.StripePaymentIntentID {
		if err := s.store.AttachPaymentIntent(ctx, b.ID, pick.ID); err != nil {
			return nil, fmt.Errorf("relink payment intent: %w", err)
		}
		s.record(ctx, b, Event{
			Type:     EventIntentRelinked,
			IntentID: pick.ID,
			Detail:   fmt.Sprintf("previous=%q", b.StripePaymentIntentID),
		}, actor)
		b.StripePaymentIntentID = pick.ID
		res.Relinked = true
	}

	if !pick.Succeeded() {
		res.Message = "payment not captured yet"
		return res, nil
	}

	res.Synced = true
	if b.Status == StatusConfirmed || b.Status == StatusCompleted {
		res.AlreadyConfirmed = true
		return res, nil
	}
	changed, err := s.confirm(ctx, b, actor, SourceAdmin)
	if err != nil {
		return nil, err
	}
	res.Status = StatusConfirmed
	res.AlreadyConfirmed = !changed
	if changed {
		res.EmailSent = s.sendConfirmationWith(ctx, b, pick, actor, SourceAdmin)
	}
	return res, nil
}

func findIntent(intents []payments.Intent, id string) (*payments.Intent, bool) {
	if id == "" {
		return nil, false
	}
	for i := range intents {
		if intents[i].ID == id {
			return &intents[i], true
		}
	}
	return nil, false
}

// candidateIntents gathers the stored intent plus metadata search hits. The search
// runs whenever the stored intent is missing, unknown to the gateway, or not succeeded.
func (s *Service) candidateIntents(ctx context.Context, gw payments.Gateway, b *Booking) ([]payments.Intent, error) {
	var out []payments.Intent
	seen := map[string]bool{}
	add := func(in payments.Intent) {
		if !seen[in.ID] {
			seen[in.ID] = true
			out = append(out, in)
		}
	}

	if b.StripePaymentIntentID != "" {
		in, err := gw.RetrieveAuthorization(ctx, b.StripePaymentIntentID)
		switch {
		case err == nil:
			if in.Succeeded() {
				return []payments.Intent{*in}, nil
			}
			add(*in)
		case payments.IsErrGatewayUnavailable(err):
			return nil, err
		default:
			s.log.WithError(err).WithField("booking_id", b.ID).Warn("sync: stored intent not retrievable")
		}
	}

	for _, q := range []struct{ key, value string }{
		{payments.MetaBookingID, b.ID},
		{payments.MetaBookingReference, b.Reference},
	} {
		if q.value == "" {
			continue
		}
		found, err := gw.SearchAuthorizationsByMetadata(ctx, q.key, q.value)
		if err != nil {
			if payments.IsErrGatewayUnavailable(err) {
				return nil, err
			}
			s.log.WithError(err).WithField("booking_id", b.ID).Warn("sync: metadata search failed")
			continue
		}
		for _, in := range found {
			add(in)
		}
	}
	return out, nil
}

// ResendConfirmation re-sends the guest confirmation of a confirmed booking.
func (s *Service) ResendConfirmation(ctx context.Context, id string, actor Actor) (*CaptureResult, error) {
	if !actor.Admin {
		return nil, ErrForbidden
	}
	b, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.Status != StatusConfirmed {
		return nil, fmt.Errorf("%w: booking is %s, not confirmed", ErrConflict, b.Status)
	}
	return &CaptureResult{
		BookingID:        b.ID,
		Status:           b.Status,
		AlreadyConfirmed: true,
		EmailSent:        s.sendConfirmation(ctx, b, actor),
	}, nil
}

func (s *Service) sendConfirmation(ctx context.Context, b *Booking, actor Actor) bool {
	return s.sendConfirmationWith(ctx, b, nil, actor, actor.Source())
}

// sendConfirmationWith mints a fresh access token and emails the guest. It never
// fails the caller; the return value only reports whether the email went out.
func (s *Service) sendConfirmationWith(ctx context.Context, b *Booking, intent *payments.Intent, actor Actor, source Source) bool {
	entry := s.log.WithFields(logrus.Fields{"booking_id": b.ID, "source": source})
	if s.mailer == nil || s.tokens == nil {
		entry.Warn("confirmation email skipped: mail not configured")
		s.record(ctx, b, Event{Type: EventEmailFailed, Source: source, Detail: "mail not configured"}, actor)
		return false
	}

	issued, err := s.tokens.Issue(ctx, b.ID, b.GuestEmail, s.tokens.DefaultTTLDays())
	if err != nil {
		entry.WithError(err).Error("issue access token")
		s.record(ctx, b, Event{Type: EventEmailFailed, Source: source, Detail: err.Error()}, actor)
		return false
	}

	conf := notifications.Confirmation{
		Booking:   s.details(ctx, b).Summary(),
		Token:     issued.Token,
		ExpiresAt: issued.ExpiresAt,
	}
	if card := s.cardFor(ctx, b, intent); card != nil {
		conf.CardBrand, conf.CardLast4 = card.Brand, card.Last4
	}

	if err := s.mailer.SendPaymentConfirmed(ctx, conf); err != nil {
		detail := err.Error()
		if notifications.IsErrNotConfigured(err) {
			entry.Warn("confirmation email skipped: mail not configured")
			detail = "mail not configured"
		} else {
			entry.WithError(err).Error("confirmation email failed")
		}
		s.record(ctx, b, Event{Type: EventEmailFailed, Source: source, Detail: detail}, actor)
		return false
	}
	s.record(ctx, b, Event{Type: EventEmailSent, Source: source, Detail: string(notifications.KindGuestPaymentConfirmed)}, actor)
	return true
}

// cardFor returns card details for email personalisation, or nil.
func (s *Service) cardFor(ctx context.Context, b *Booking, intent *payments.Intent) *payments.Card {
	if intent != nil && intent.Card != nil {
		return intent.Card
	}
	if b.StripePaymentIntentID == "" || s.gateway == nil {
		return nil
	}
	in, err := s.gateway.RetrieveAuthorization(ctx, b.StripePaymentIntentID)
	if err != nil {
		s.log.WithError(err).WithField("booking_id", b.ID).Debug("card details unavailable")
		return nil
	}
	return in.Card
}
