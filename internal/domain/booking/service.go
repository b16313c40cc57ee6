package booking

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/sirupsen/logrus"

	"gymstay/backend/internal/domain/accesstoken"
	"gymstay/backend/internal/domain/gym"
	"gymstay/backend/internal/domain/notifications"
	"gymstay/backend/internal/domain/payments"
	"gymstay/backend/internal/domain/pricing"
	"gymstay/backend/internal/utils"
)

// Mailer is the part of the notification dispatcher the state machine uses.
type Mailer interface {
	NotifyNewBooking(ctx context.Context, b notifications.BookingSummary) (adminSent, guestSent bool, err error)
	SendPaymentConfirmed(ctx context.Context, c notifications.Confirmation) error
}

// EventPublisher receives lifecycle events after a status change.
type EventPublisher interface {
	PublishJSON(ctx context.Context, key string, v any) error
}

type Deps struct {
	Store     Store
	Catalog   gym.Catalog
	Gateway   payments.Gateway
	Tokens    *accesstoken.Service
	Mailer    Mailer
	Publisher EventPublisher
	Log       *logrus.Logger
}

// Service is the booking state machine. All entry points (API, webhook, admin
// reconciliation) funnel status changes through Store.Transition.
type Service struct {
	store     Store
	catalog   gym.Catalog
	gateway   payments.Gateway
	tokens    *accesstoken.Service
	mailer    Mailer
	publisher EventPublisher
	log       *logrus.Logger
	now       func() time.Time
}

func NewService(d Deps) *Service {
	log := d.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{
		store:     d.Store,
		catalog:   d.Catalog,
		gateway:   d.Gateway,
		tokens:    d.Tokens,
		mailer:    d.Mailer,
		publisher: d.Publisher,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) Get(ctx context.Context, id string) (*Booking, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: missing booking id", ErrBadRequest)
	}
	return s.store.Get(ctx, id)
}

// Quote prices a stay against a stored package without creating anything.
func (s *Service) Quote(ctx context.Context, in QuoteInput) (*pricing.Quote, error) {
	if in.GymID == "" || in.PackageID == "" {
		return nil, fmt.Errorf("%w: gymId and packageId are required", ErrBadRequest)
	}
	start, end, err := parseRange(in.StartDate, in.EndDate)
	if err != nil {
		return nil, err
	}
	plan, err := s.plan(ctx, in.GymID, in.PackageID, in.VariantID)
	if err != nil {
		return nil, err
	}
	q, err := pricing.Calculate(plan, pricing.Nights(start, end))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	return &q, nil
}

// Create validates and persists a booking, then places the payment hold.
// When the hold cannot be placed the booking stays pending_payment and the
// gateway error is returned.
func (s *Service) Create(ctx context.Context, in CreateInput, actor Actor) (*CreateResult, error) {
	in.Trim()
	if in.GymID == "" {
		return nil, fmt.Errorf("%w: gymId is required", ErrBadRequest)
	}
	if in.GuestName == "" || in.GuestEmail == "" {
		return nil, fmt.Errorf("%w: guestName and guestEmail are required", ErrBadRequest)
	}
	if addr, err := mail.ParseAddress(in.GuestEmail); err != nil || addr.Address != in.GuestEmail {
		return nil, fmt.Errorf("%w: guestEmail is invalid", ErrBadRequest)
	}
	start, end, err := parseRange(in.StartDate, in.EndDate)
	if err != nil {
		return nil, err
	}
	if start.Before(utils.DateOnly(s.now())) {
		return nil, fmt.Errorf("%w: startDate is in the past", ErrBadRequest)
	}

	g, err := s.catalog.GetGym(ctx, in.GymID)
	if err != nil {
		if gym.IsErrNotFound(err) {
			return nil, fmt.Errorf("%w: gym not found", ErrBadRequest)
		}
		return nil, err
	}
	if !g.Bookable() {
		return nil, fmt.Errorf("%w: %w", ErrBadRequest, gym.ErrNotBookable)
	}

	total := in.TotalPrice
	if in.PackageID != "" {
		plan, err := s.plan(ctx, in.GymID, in.PackageID, in.VariantID)
		if err != nil {
			return nil, err
		}
		q, err := pricing.Calculate(plan, pricing.Nights(start, end))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadRequest, err)
		}
		if q.BelowMinimumStay {
			return nil, fmt.Errorf("%w: minimum stay is %d days", ErrBadRequest, q.MinStayDays)
		}
		total = q.Total
	} else if in.VariantID != "" {
		return nil, fmt.Errorf("%w: variantId requires packageId", ErrBadRequest)
	}
	total = pricing.Round2(total)
	if total <= 0 {
		return nil, fmt.Errorf("%w: totalPrice must be positive", ErrBadRequest)
	}

	ref, err := utils.NewBookingReference()
	if err != nil {
		return nil, err
	}
	pin, err := utils.NewPIN(6)
	if err != nil {
		return nil, err
	}

	now := s.now()
	b := &Booking{
		Reference:       ref,
		PIN:             pin,
		GymID:           g.ID,
		PackageID:       in.PackageID,
		VariantID:       in.VariantID,
		UserID:          in.UserID,
		GuestName:       in.GuestName,
		GuestEmail:      in.GuestEmail,
		GuestPhone:      in.GuestPhone,
		Discipline:      in.Discipline,
		ExperienceLevel: in.ExperienceLevel,
		Notes:           in.Notes,
		StartDate:       start,
		EndDate:         end,
		TotalPrice:      total,
		PlatformFee:     pricing.PlatformFee(total),
		Currency:        g.CurrencyCode(),
		Status:          StatusPendingPayment,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.store.Create(ctx, b); err != nil {
		return nil, fmt.Errorf("create booking: %w", err)
	}
	s.record(ctx, b, Event{Type: EventCreated, ToStatus: StatusPendingPayment}, actor)

	intent, err := s.authorize(ctx, b)
	if err != nil {
		s.record(ctx, b, Event{Type: EventAuthorizeFailed, Detail: err.Error()}, actor)
		s.log.WithError(err).WithField("booking_id", b.ID).Warn("payment authorization failed")
		return nil, err
	}
	s.record(ctx, b, Event{
		Type:       EventAuthorized,
		FromStatus: StatusPendingPayment,
		ToStatus:   StatusAwaitingApproval,
		IntentID:   intent.ID,
	}, actor)

	return &CreateResult{Booking: b, PaymentIntentID: intent.ID, ClientSecret: intent.ClientSecret}, nil
}

// authorize places the manual-capture hold and moves the booking to awaiting_approval.
func (s *Service) authorize(ctx context.Context, b *Booking) (*payments.Intent, error) {
	gw, err := s.gw()
	if err != nil {
		return nil, err
	}
	intent, err := gw.CreateAuthorization(ctx, payments.AuthorizationRequest{
		Amount:       b.TotalPrice,
		Currency:     b.Currency,
		Description:  "Booking " + b.Reference,
		ReceiptEmail: b.GuestEmail,
		Metadata: map[string]string{
			payments.MetaBookingID:        b.ID,
			payments.MetaBookingReference: b.Reference,
			"gym_id":                      b.GymID,
		},
		IdempotencyKey: "booking-auth-" + b.ID,
	})
	if err != nil {
		return nil, err
	}
	if err := s.store.AttachPaymentIntent(ctx, b.ID, intent.ID); err != nil {
		return nil, fmt.Errorf("attach payment intent: %w", err)
	}
	b.StripePaymentIntentID = intent.ID

	if _, err := s.store.Transition(ctx, b.ID, []Status{StatusPendingPayment}, StatusAwaitingApproval); err != nil {
		return nil, fmt.Errorf("mark awaiting approval: %w", err)
	}
	b.Status = StatusAwaitingApproval
	return intent, nil
}

func (s *Service) gw() (payments.Gateway, error) {
	if s.gateway == nil {
		return nil, fmt.Errorf("%w: gateway not configured", payments.ErrGatewayUnavailable)
	}
	return s.gateway, nil
}

func (s *Service) plan(ctx context.Context, gymID, packageID, variantID string) (pricing.Plan, error) {
	pkg, err := s.catalog.GetPackage(ctx, gymID, packageID)
	if err != nil {
		if gym.IsErrNotFound(err) {
			return pricing.Plan{}, fmt.Errorf("%w: package not found", ErrBadRequest)
		}
		return pricing.Plan{}, err
	}
	if !pkg.Active {
		return pricing.Plan{}, fmt.Errorf("%w: package is not available", ErrBadRequest)
	}
	var variant *gym.Variant
	if variantID != "" {
		variant, err = s.catalog.GetVariant(ctx, gymID, packageID, variantID)
		if err != nil {
			if gym.IsErrNotFound(err) {
				return pricing.Plan{}, fmt.Errorf("%w: variant not found", ErrBadRequest)
			}
			return pricing.Plan{}, err
		}
	}
	return pkg.Plan(variant), nil
}

// details loads the gym, package and variant of a booking. Missing catalog entries
// are left nil; the booking itself is always present.
func (s *Service) details(ctx context.Context, b *Booking) Details {
	d := Details{Booking: b}
	entry := s.log.WithField("booking_id", b.ID)

	if g, err := s.catalog.GetGym(ctx, b.GymID); err == nil {
		d.Gym = g
	} else {
		entry.WithError(err).Warn("load gym for booking")
	}
	if b.PackageID != "" {
		if p, err := s.catalog.GetPackage(ctx, b.GymID, b.PackageID); err == nil {
			d.Package = p
		} else {
			entry.WithError(err).Warn("load package for booking")
		}
	}
	if b.PackageID != "" && b.VariantID != "" {
		if v, err := s.catalog.GetVariant(ctx, b.GymID, b.PackageID, b.VariantID); err == nil {
			d.Variant = v
		} else {
			entry.WithError(err).Warn("load variant for booking")
		}
	}
	return d
}

func (d Details) Summary() notifications.BookingSummary {
	b := d.Booking
	out := notifications.BookingSummary{
		BookingID:       b.ID,
		Reference:       b.Reference,
		PIN:             b.PIN,
		Status:          string(b.Status),
		GuestName:       b.GuestName,
		GuestEmail:      b.GuestEmail,
		GuestPhone:      b.GuestPhone,
		Discipline:      b.Discipline,
		ExperienceLevel: b.ExperienceLevel,
		Notes:           b.Notes,
		StartDate:       b.StartDate,
		EndDate:         b.EndDate,
		Nights:          b.Nights(),
		Total:           b.TotalPrice,
		PlatformFee:     b.PlatformFee,
		Currency:        b.Currency,
	}
	if d.Gym != nil {
		out.GymName = d.Gym.Name
		out.GymEmail = d.Gym.Email
	}
	if d.Package != nil {
		out.PackageName = d.Package.Name
	}
	if d.Variant != nil {
		out.VariantName = d.Variant.Name
	}
	return out
}

func (d Details) GuestView() GuestView {
	sum := d.Summary()
	b := d.Booking
	return GuestView{
		Reference:   b.Reference,
		Status:      b.Status.Canonical(),
		GymName:     sum.GymName,
		PackageName: sum.PackageName,
		VariantName: sum.VariantName,
		GuestName:   b.GuestName,
		StartDate:   b.StartDate,
		EndDate:     b.EndDate,
		Nights:      sum.Nights,
		TotalPrice:  b.TotalPrice,
		Currency:    b.Currency,
	}
}

func parseRange(startStr, endStr string) (time.Time, time.Time, error) {
	start, err := utils.ParseDate(startStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: startDate must be YYYY-MM-DD", ErrBadRequest)
	}
	end, err := utils.ParseDate(endStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: endDate must be YYYY-MM-DD", ErrBadRequest)
	}
	if !end.After(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: endDate must be after startDate", ErrBadRequest)
	}
	return start, end, nil
}
