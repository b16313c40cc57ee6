package booking

import "context"

// Store persists bookings. Status and intent writes are narrow, conditional updates.
type Store interface {
	Create(ctx context.Context, b *Booking) error
	Get(ctx context.Context, id string) (*Booking, error)
	GetByReference(ctx context.Context, reference string) (*Booking, error)
	FindByPaymentIntent(ctx context.Context, intentID string) (*Booking, error)
	AttachPaymentIntent(ctx context.Context, id, intentID string) error
	// Transition sets status to `to` only if the current status is in `from`.
	// It reports whether this call changed the row.
	Transition(ctx context.Context, id string, from []Status, to Status) (bool, error)
	AppendEvent(ctx context.Context, ev Event) error
}

func statusIn(s Status, set []Status) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

func statusStrings(set []Status) []string {
	out := make([]string, len(set))
	for i, s := range set {
		out[i] = string(s)
	}
	return out
}
