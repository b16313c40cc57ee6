package payments

import (
	"math"
	"strings"
	"time"
)

// Provider-side intent statuses this service acts on.
const (
	StatusRequiresPaymentMethod = "requires_payment_method"
	StatusRequiresConfirmation  = "requires_confirmation"
	StatusRequiresAction        = "requires_action"
	StatusProcessing            = "processing"
	StatusRequiresCapture       = "requires_capture"
	StatusSucceeded             = "succeeded"
	StatusCanceled              = "canceled"
)

// Metadata keys written on every authorization.
const (
	MetaBookingID        = "booking_id"
	MetaBookingReference = "booking_reference"
)

// Webhook event types handled by the reconciler.
const (
	EventIntentSucceeded         = "payment_intent.succeeded"
	EventIntentCapturableUpdated = "payment_intent.amount_capturable_updated"
	EventIntentCanceled          = "payment_intent.canceled"
)

type Card struct {
	Brand string `json:"brand"`
	Last4 string `json:"last4"`
}

// Intent is the part of a provider payment intent this service reads.
type Intent struct {
	ID           string            `json:"id"`
	Status       string            `json:"status"`
	Amount       int64             `json:"amount"`
	Currency     string            `json:"currency"`
	ClientSecret string            `json:"-"`
	Created      time.Time         `json:"created"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	Card         *Card             `json:"card,omitempty"`
}

func (i *Intent) Succeeded() bool { return i.Status == StatusSucceeded }

type AuthorizationRequest struct {
	Amount         float64
	Currency       string
	Description    string
	ReceiptEmail   string
	Metadata       map[string]string
	IdempotencyKey string
}

type CaptureOutcome string

const (
	Captured        CaptureOutcome = "captured"
	AlreadyCaptured CaptureOutcome = "already_captured"
)

// Event is a verified webhook delivery. Intent is set for payment_intent.* types.
type Event struct {
	ID     string
	Type   string
	Intent *Intent
}

// Currencies without a minor unit; amounts are sent as-is.
var zeroDecimal = map[string]bool{
	"bif": true, "clp": true, "djf": true, "gnf": true, "jpy": true, "kmf": true,
	"krw": true, "mga": true, "pyg": true, "rwf": true, "ugx": true, "vnd": true,
	"vuv": true, "xaf": true, "xof": true, "xpf": true,
}

// ToMinorUnits converts a decimal amount into the integer amount the provider expects.
func ToMinorUnits(amount float64, currency string) int64 {
	if zeroDecimal[strings.ToLower(currency)] {
		return int64(math.Round(amount))
	}
	return int64(math.Round(amount * 100))
}

func FromMinorUnits(amount int64, currency string) float64 {
	if zeroDecimal[strings.ToLower(currency)] {
		return float64(amount)
	}
	return float64(amount) / 100
}
