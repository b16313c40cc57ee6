package booking

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"gymstay/backend/internal/utils"
)

// record appends an audit event. Failures are logged and never surface.
func (s *Service) record(ctx context.Context, b *Booking, ev Event, actor Actor) {
	ev.BookingID = b.ID
	if ev.Source == "" {
		ev.Source = actor.Source()
	}
	if ev.ActorUID == "" {
		ev.ActorUID = actor.UID
	}
	if ev.IntentID == "" {
		ev.IntentID = b.StripePaymentIntentID
	}
	if actor.UserAgent != "" {
		ev.Device = utils.ParseUserAgent(actor.UserAgent)
	}
	ev.CreatedAt = s.now()

	if err := s.store.AppendEvent(ctx, ev); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"booking_id": b.ID,
			"event_type": ev.Type,
		}).Warn("audit event not written")
	}
}

type lifecycleEvent struct {
	BookingID string `json:"bookingId"`
	Reference string `json:"bookingReference"`
	GymID     string `json:"gymId"`
	Status    Status `json:"status"`
	Source    Source `json:"source"`
	IntentID  string `json:"paymentIntentId,omitempty"`
	At        string `json:"occurredAt"`
}

// publish emits a lifecycle event such as booking.confirmed. Failures are logged only.
func (s *Service) publish(ctx context.Context, b *Booking, status Status, source Source) {
	if s.publisher == nil {
		return
	}
	key := "booking." + string(status)
	err := s.publisher.PublishJSON(ctx, key, lifecycleEvent{
		BookingID: b.ID,
		Reference: b.Reference,
		GymID:     b.GymID,
		Status:    status,
		Source:    source,
		IntentID:  b.StripePaymentIntentID,
		At:        s.now().Format(time.RFC3339),
	})
	if err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{"booking_id": b.ID, "routing_key": key}).
			Warn("lifecycle event not published")
	}
}
