package booking

import (
	"strings"
	"time"

	"gymstay/backend/internal/domain/gym"
	"gymstay/backend/internal/utils"
)

type Status string

const (
	StatusPendingPayment   Status = "pending_payment"
	StatusAwaitingApproval Status = "awaiting_approval"
	StatusConfirmed        Status = "confirmed"
	StatusDeclined         Status = "declined"
	StatusCompleted        Status = "completed"
	StatusCancelled        Status = "cancelled"

	// StatusPendingConfirmation is the legacy name of StatusAwaitingApproval.
	// It is still read but never written.
	StatusPendingConfirmation Status = "pending_confirmation"
)

// Canonical folds legacy names onto the current ones.
func (s Status) Canonical() Status {
	if s == StatusPendingConfirmation {
		return StatusAwaitingApproval
	}
	return s
}

// AwaitingDecision is true while the gym has yet to accept or decline.
func (s Status) AwaitingDecision() bool {
	return s.Canonical() == StatusAwaitingApproval
}

var (
	// Statuses a booking may be confirmed from. Completed bookings are never moved back.
	confirmableFrom = []Status{
		StatusPendingPayment, StatusAwaitingApproval, StatusPendingConfirmation,
		StatusDeclined, StatusCancelled,
	}
	// Statuses a booking may be declined or cancelled from.
	releasableFrom = []Status{StatusPendingPayment, StatusAwaitingApproval, StatusPendingConfirmation}
)

type Booking struct {
	ID        string `firestore:"id" json:"id" db:"id"`
	Reference string `firestore:"bookingReference" json:"bookingReference" db:"booking_reference"`
	PIN       string `firestore:"bookingPin" json:"-" db:"booking_pin"`

	GymID     string `firestore:"gymId" json:"gymId" db:"gym_id"`
	PackageID string `firestore:"packageId,omitempty" json:"packageId,omitempty" db:"package_id"`
	VariantID string `firestore:"variantId,omitempty" json:"variantId,omitempty" db:"variant_id"`
	UserID    string `firestore:"userId,omitempty" json:"userId,omitempty" db:"user_id"`

	GuestName  string `firestore:"guestName" json:"guestName" db:"guest_name"`
	GuestEmail string `firestore:"guestEmail" json:"guestEmail" db:"guest_email"`
	GuestPhone string `firestore:"guestPhone,omitempty" json:"guestPhone,omitempty" db:"guest_phone"`

	Discipline      string `firestore:"discipline,omitempty" json:"discipline,omitempty" db:"discipline"`
	ExperienceLevel string `firestore:"experienceLevel,omitempty" json:"experienceLevel,omitempty" db:"experience_level"`
	Notes           string `firestore:"notes,omitempty" json:"notes,omitempty" db:"notes"`

	StartDate time.Time `firestore:"startDate" json:"startDate" db:"start_date"`
	EndDate   time.Time `firestore:"endDate" json:"endDate" db:"end_date"`

	TotalPrice  float64 `firestore:"totalPrice" json:"totalPrice" db:"total_price"`
	PlatformFee float64 `firestore:"platformFee" json:"platformFee" db:"platform_fee"`
	Currency    string  `firestore:"currency" json:"currency" db:"currency"`

	Status                Status `firestore:"status" json:"status" db:"status"`
	StripePaymentIntentID string `firestore:"stripePaymentIntentId,omitempty" json:"stripePaymentIntentId,omitempty" db:"stripe_payment_intent_id"`

	ConfirmedAt *time.Time `firestore:"confirmedAt,omitempty" json:"confirmedAt,omitempty" db:"confirmed_at"`
	CreatedAt   time.Time  `firestore:"createdAt" json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time  `firestore:"updatedAt" json:"updatedAt" db:"updated_at"`
}

func (b *Booking) Nights() int {
	return int(b.EndDate.Sub(b.StartDate).Hours() / 24)
}

// Details is the booking joined with its gym and optional package and variant.
type Details struct {
	Booking *Booking
	Gym     *gym.Gym
	Package *gym.Package
	Variant *gym.Variant
}

// GuestView is what a guest holding a link or PIN may see.
type GuestView struct {
	Reference   string    `json:"bookingReference"`
	Status      Status    `json:"status"`
	GymName     string    `json:"gymName"`
	PackageName string    `json:"packageName,omitempty"`
	VariantName string    `json:"variantName,omitempty"`
	GuestName   string    `json:"guestName"`
	StartDate   time.Time `json:"startDate"`
	EndDate     time.Time `json:"endDate"`
	Nights      int       `json:"nights"`
	TotalPrice  float64   `json:"totalPrice"`
	Currency    string    `json:"currency"`
}

type Source string

const (
	SourceAPI     Source = "api"
	SourceWebhook Source = "webhook"
	SourceAdmin   Source = "admin"
	SourceOwner   Source = "owner"
	SourceSystem  Source = "system"
)

// Actor is the caller of an operation as established by the HTTP layer.
type Actor struct {
	UID       string
	Admin     bool
	UserAgent string
}

func (a Actor) Source() Source {
	switch {
	case a.Admin:
		return SourceAdmin
	case a.UID != "":
		return SourceOwner
	}
	return SourceSystem
}

// Event is one entry of a booking's audit trail.
type Event struct {
	ID         string           `firestore:"id" json:"id" db:"id"`
	BookingID  string           `firestore:"bookingId" json:"bookingId" db:"booking_id"`
	Type       string           `firestore:"type" json:"type" db:"type"`
	Source     Source           `firestore:"source" json:"source" db:"source"`
	ActorUID   string           `firestore:"actorUid,omitempty" json:"actorUid,omitempty" db:"actor_uid"`
	FromStatus Status           `firestore:"fromStatus,omitempty" json:"fromStatus,omitempty" db:"from_status"`
	ToStatus   Status           `firestore:"toStatus,omitempty" json:"toStatus,omitempty" db:"to_status"`
	IntentID   string           `firestore:"intentId,omitempty" json:"intentId,omitempty" db:"intent_id"`
	Detail     string           `firestore:"detail,omitempty" json:"detail,omitempty" db:"detail"`
	Device     utils.DeviceInfo `firestore:"device" json:"device" db:"-"`
	CreatedAt  time.Time        `firestore:"createdAt" json:"createdAt" db:"created_at"`
}

const (
	EventCreated           = "booking.created"
	EventAuthorized        = "payment.authorized"
	EventAuthorizeFailed   = "payment.authorize_failed"
	EventCaptureFailed     = "payment.capture_failed"
	EventConfirmed         = "booking.confirmed"
	EventDeclined          = "booking.declined"
	EventCancelled         = "booking.cancelled"
	EventIntentRelinked    = "payment.intent_relinked"
	EventEmailSent         = "email.sent"
	EventEmailFailed       = "email.failed"
	EventAccessTokenIssued = "access_token.issued"
)

type CreateInput struct {
	GymID           string  `json:"gymId"`
	PackageID       string  `json:"packageId,omitempty"`
	VariantID       string  `json:"variantId,omitempty"`
	StartDate       string  `json:"startDate"`
	EndDate         string  `json:"endDate"`
	Discipline      string  `json:"discipline,omitempty"`
	ExperienceLevel string  `json:"experienceLevel,omitempty"`
	Notes           string  `json:"notes,omitempty"`
	GuestName       string  `json:"guestName"`
	GuestEmail      string  `json:"guestEmail"`
	GuestPhone      string  `json:"guestPhone,omitempty"`
	TotalPrice      float64 `json:"totalPrice,omitempty"`
	// PlatformFee is accepted for client compatibility and always recomputed.
	PlatformFee float64 `json:"platformFee,omitempty"`
	// UserID is set from the verified session, never from the body.
	UserID string `json:"-"`
}

func (in *CreateInput) Trim() {
	in.GymID = strings.TrimSpace(in.GymID)
	in.PackageID = strings.TrimSpace(in.PackageID)
	in.VariantID = strings.TrimSpace(in.VariantID)
	in.StartDate = strings.TrimSpace(in.StartDate)
	in.EndDate = strings.TrimSpace(in.EndDate)
	in.Discipline = utils.TrimMax(in.Discipline, 64)
	in.ExperienceLevel = utils.TrimMax(in.ExperienceLevel, 64)
	in.Notes = utils.TrimMax(in.Notes, 2000)
	in.GuestName = utils.CollapseSpaces(in.GuestName)
	in.GuestEmail = strings.TrimSpace(in.GuestEmail)
	in.GuestPhone = strings.TrimSpace(in.GuestPhone)
}

type QuoteInput struct {
	GymID     string `json:"gymId"`
	PackageID string `json:"packageId"`
	VariantID string `json:"variantId,omitempty"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

type CreateResult struct {
	Booking         *Booking `json:"booking"`
	PaymentIntentID string   `json:"paymentIntentId"`
	ClientSecret    string   `json:"clientSecret"`
}

type CaptureResult struct {
	BookingID        string `json:"bookingId"`
	Status           Status `json:"status"`
	AlreadyConfirmed bool   `json:"alreadyConfirmed"`
	AlreadyCaptured  bool   `json:"alreadyCaptured"`
	EmailSent        bool   `json:"email_sent"`
}

type DecisionResult struct {
	BookingID string `json:"bookingId"`
	Status    Status `json:"status"`
	NoOp      bool   `json:"noop"`
}

type SyncResult struct {
	BookingID        string `json:"bookingId"`
	Synced           bool   `json:"synced"`
	Status           Status `json:"status"`
	PaymentIntentID  string `json:"paymentIntentId,omitempty"`
	GatewayStatus    string `json:"gatewayStatus,omitempty"`
	Candidates       int    `json:"candidates"`
	Relinked         bool   `json:"relinked"`
	AlreadyConfirmed bool   `json:"alreadyConfirmed"`
	EmailSent        bool   `json:"email_sent"`
	Message          string `json:"message,omitempty"`
}

type NotifyResult struct {
	BookingID      string `json:"bookingId"`
	AdminEmailSent bool   `json:"adminEmailSent"`
	GuestEmailSent bool   `json:"email_sent"`
}

type WebhookResult struct {
	EventType        string `json:"eventType"`
	BookingID        string `json:"bookingId,omitempty"`
	Handled          bool   `json:"handled"`
	AlreadyConfirmed bool   `json:"alreadyConfirmed,omitempty"`
	EmailSent        bool   `json:"email_sent"`
}
