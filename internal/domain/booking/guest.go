package booking

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"gymstay/backend/internal/domain/accesstoken"
	"gymstay/backend/internal/utils"
)

// NotifyNewBooking sends the admin alert and the guest "request received" email.
// Email failures are reported in the result, not as an error.
func (s *Service) NotifyNewBooking(ctx context.Context, id string) (*NotifyResult, error) {
	b, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	res := &NotifyResult{BookingID: b.ID}
	if s.mailer == nil {
		s.log.WithField("booking_id", b.ID).Warn("new booking emails skipped: mail not configured")
		return res, nil
	}

	adminSent, guestSent, err := s.mailer.NotifyNewBooking(ctx, s.details(ctx, b).Summary())
	if err != nil {
		s.log.WithError(err).WithField("booking_id", b.ID).Warn("new booking emails partly failed")
		s.record(ctx, b, Event{Type: EventEmailFailed, Source: SourceSystem, Detail: err.Error()}, Actor{})
	}
	if guestSent {
		s.record(ctx, b, Event{Type: EventEmailSent, Source: SourceSystem, Detail: "guest_booking_received"}, Actor{})
	}
	res.AdminEmailSent, res.GuestEmailSent = adminSent, guestSent
	return res, nil
}

// IssueAccessToken mints a guest link for a booking. The email must match the
// guest email on file; a mismatch is reported exactly like an unknown booking.
// A nil ttlDays uses the issuer default.
func (s *Service) IssueAccessToken(ctx context.Context, id, email string, ttlDays *int) (*accesstoken.Issued, error) {
	if s.tokens == nil {
		return nil, errors.New("access tokens not configured")
	}
	days := s.tokens.DefaultTTLDays()
	if ttlDays != nil {
		days = *ttlDays
	}

	b, err := s.store.Get(ctx, strings.TrimSpace(id))
	if err != nil {
		if IsErrNotFound(err) {
			return nil, ErrInvalidLink
		}
		return nil, err
	}
	if !utils.SameEmail(email, b.GuestEmail) {
		return nil, ErrInvalidLink
	}

	issued, err := s.tokens.Issue(ctx, b.ID, b.GuestEmail, days)
	if err != nil {
		if accesstoken.IsErrBadRequest(err) {
			return nil, fmt.Errorf("%w: %v", ErrBadRequest, err)
		}
		return nil, err
	}
	s.record(ctx, b, Event{Type: EventAccessTokenIssued, Source: SourceAPI, Detail: fmt.Sprintf("ttl_days=%d", days)}, Actor{})
	return issued, nil
}

// ResolveAccessToken returns the guest view of the booking a token points to.
func (s *Service) ResolveAccessToken(ctx context.Context, token string) (*GuestView, error) {
	if s.tokens == nil {
		return nil, ErrInvalidLink
	}
	t, err := s.tokens.Resolve(ctx, token)
	if err != nil {
		if accesstoken.IsErrInvalid(err) {
			return nil, ErrInvalidLink
		}
		return nil, err
	}
	b, err := s.store.Get(ctx, t.BookingID)
	if err != nil {
		if IsErrNotFound(err) {
			return nil, ErrInvalidLink
		}
		return nil, err
	}
	v := s.details(ctx, b).GuestView()
	return &v, nil
}

// LookupByReference authenticates a guest by booking reference and PIN.
func (s *Service) LookupByReference(ctx context.Context, reference, pin string) (*GuestView, error) {
	reference = strings.ToUpper(strings.TrimSpace(reference))
	pin = strings.TrimSpace(pin)
	if reference == "" || pin == "" {
		return nil, ErrInvalidLink
	}
	b, err := s.store.GetByReference(ctx, reference)
	if err != nil {
		if IsErrNotFound(err) {
			return nil, ErrInvalidLink
		}
		return nil, err
	}
	if subtle.ConstantTimeCompare([]byte(b.PIN), []byte(pin)) != 1 {
		return nil, ErrInvalidLink
	}
	v := s.details(ctx, b).GuestView()
	return &v, nil
}
