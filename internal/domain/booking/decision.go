package booking

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"gymstay/backend/internal/domain/payments"
)

// authorizeDecision lets admins through and limits owners to their own gyms.
func (s *Service) authorizeDecision(ctx context.Context, b *Booking, actor Actor) error {
	if actor.Admin {
		return nil
	}
	if actor.UID == "" {
		return ErrForbidden
	}
	g, err := s.catalog.GetGym(ctx, b.GymID)
	if err != nil || !g.IsOwner(actor.UID) {
		return ErrForbidden
	}
	return nil
}

// Capture accepts a booking: captures the hold and confirms. Calling it on a
// confirmed booking reports success without touching the gateway.
func (s *Service) Capture(ctx context.Context, id string, actor Actor) (*CaptureResult, error) {
	b, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeDecision(ctx, b, actor); err != nil {
		return nil, err
	}

	res := &CaptureResult{BookingID: b.ID, Status: b.Status.Canonical()}
	if b.Status == StatusConfirmed {
		res.AlreadyConfirmed = true
		return res, nil
	}
	if !b.Status.AwaitingDecision() {
		return nil, fmt.Errorf("%w: booking is %s", ErrConflict, b.Status)
	}
	if b.StripePaymentIntentID == "" {
		return nil, fmt.Errorf("%w: booking has no payment authorization", ErrConflict)
	}

	gw, err := s.gw()
	if err != nil {
		return nil, err
	}
	outcome, err := gw.CaptureAuthorization(ctx, b.StripePaymentIntentID)
	if err != nil {
		s.record(ctx, b, Event{Type: EventCaptureFailed, Detail: err.Error()}, actor)
		return nil, err
	}
	res.AlreadyCaptured = outcome == payments.AlreadyCaptured

	changed, err := s.confirm(ctx, b, actor, actor.Source())
	if err != nil {
		return nil, err
	}
	res.Status = StatusConfirmed
	res.AlreadyConfirmed = !changed
	if changed {
		res.EmailSent = s.sendConfirmation(ctx, b, actor)
	}
	return res, nil
}

// confirm flips the booking to confirmed. Only the caller that wins the
// conditional write gets changed=true and owns the follow-up email.
func (s *Service) confirm(ctx context.Context, b *Booking, actor Actor, source Source) (bool, error) {
	from := b.Status
	changed, err := s.store.Transition(ctx, b.ID, confirmableFrom, StatusConfirmed)
	if err != nil {
		return false, fmt.Errorf("confirm booking: %w", err)
	}
	if !changed {
		return false, nil
	}
	b.Status = StatusConfirmed
	s.record(ctx, b, Event{Type: EventConfirmed, Source: source, FromStatus: from, ToStatus: StatusConfirmed}, actor)
	s.publish(ctx, b, StatusConfirmed, source)
	s.log.WithFields(logrus.Fields{
		"booking_id": b.ID,
		"intent_id":  b.StripePaymentIntentID,
		"source":     source,
	}).Info("booking confirmed")
	return true, nil
}

// Decline releases the hold without capturing and marks the booking declined.
func (s *Service) Decline(ctx context.Context, id string, actor Actor) (*DecisionResult, error) {
	b, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeDecision(ctx, b, actor); err != nil {
		return nil, err
	}
	return s.release(ctx, b, StatusDeclined, EventDeclined, actor)
}

// Cancel is the admin variant of Decline for bookings that should not proceed.
func (s *Service) Cancel(ctx context.Context, id string, actor Actor) (*DecisionResult, error) {
	if !actor.Admin {
		return nil, ErrForbidden
	}
	b, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.release(ctx, b, StatusCancelled, EventCancelled, actor)
}

func (s *Service) release(ctx context.Context, b *Booking, to Status, eventType string, actor Actor) (*DecisionResult, error) {
	res := &DecisionResult{BookingID: b.ID, Status: b.Status.Canonical()}
	if b.Status == to {
		res.NoOp = true
		return res, nil
	}
	if !statusIn(b.Status, releasableFrom) {
		return nil, fmt.Errorf("%w: booking is %s", ErrConflict, b.Status)
	}

	if b.StripePaymentIntentID != "" {
		gw, err := s.gw()
		if err != nil {
			return nil, err
		}
		if err := gw.CancelAuthorization(ctx, b.StripePaymentIntentID); err != nil {
			if payments.IsErrAlreadyCaptured(err) {
				return nil, fmt.Errorf("%w: payment was already captured, run a sync", ErrConflict)
			}
			return nil, err
		}
	}

	from := b.Status
	changed, err := s.store.Transition(ctx, b.ID, releasableFrom, to)
	if err != nil {
		return nil, fmt.Errorf("%s booking: %w", to, err)
	}
	if !changed {
		cur, err := s.store.Get(ctx, b.ID)
		if err != nil {
			return nil, err
		}
		if cur.Status == to {
			res.Status, res.NoOp = to, true
			return res, nil
		}
		return nil, fmt.Errorf("%w: booking moved to %s", ErrConflict, cur.Status)
	}

	b.Status = to
	res.Status = to
	s.record(ctx, b, Event{Type: eventType, FromStatus: from, ToStatus: to}, actor)
	s.publish(ctx, b, to, actor.Source())
	return res, nil
}
