package notifications

import (
	"errors"
	"time"
)

type Kind string

const (
	KindAdminNewBooking       Kind = "admin_new_booking"
	KindGuestBookingReceived  Kind = "guest_booking_received"
	KindGuestPaymentConfirmed Kind = "guest_payment_confirmed"
)

var (
	ErrNotConfigured = errors.New("mail not configured")
	ErrNoRecipient   = errors.New("no recipient")
)

func IsErrNotConfigured(err error) bool { return errors.Is(err, ErrNotConfigured) }

// Message is a rendered email ready for a Sender.
type Message struct {
	Kind    Kind
	To      string
	Subject string
	HTML    string
}

// BookingSummary is the flattened booking + gym + package view every template renders.
type BookingSummary struct {
	BookingID       string
	Reference       string
	PIN             string
	Status          string
	GymName         string
	GymEmail        string
	PackageName     string
	VariantName     string
	GuestName       string
	GuestEmail      string
	GuestPhone      string
	Discipline      string
	ExperienceLevel string
	Notes           string
	StartDate       time.Time
	EndDate         time.Time
	Nights          int
	Total           float64
	PlatformFee     float64
	Currency        string
}

// Confirmation carries what the payment-confirmed email adds on top of the summary.
type Confirmation struct {
	Booking   BookingSummary
	Token     string
	ExpiresAt time.Time
	CardBrand string
	CardLast4 string
}
