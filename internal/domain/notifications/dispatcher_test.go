package notifications

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	mu   sync.Mutex
	sent []Message
	fail map[Kind]error
}

func (r *recordingSender) Send(_ context.Context, msg Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fail[msg.Kind]; err != nil {
		return err
	}
	r.sent = append(r.sent, msg)
	return nil
}

func summary() BookingSummary {
	return BookingSummary{
		BookingID:       "b-1",
		Reference:       "GS-ABCD2345",
		PIN:             "123456",
		GymName:         "Tiger Camp",
		GuestName:       "Sam",
		GuestEmail:      "sam@example.com",
		ExperienceLevel: "intermediate",
		StartDate:       time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		EndDate:         time.Date(2026, 6, 4, 0, 0, 0, 0, time.UTC),
		Nights:          3,
		Total:           300,
		PlatformFee:     45,
		Currency:        "usd",
	}
}

func TestNotifyNewBooking(t *testing.T) {
	sender := &recordingSender{}
	log, _ := logtest.NewNullLogger()
	d := NewDispatcher(sender, "ops@example.com", "https://app.example.com/", log)

	adminSent, guestSent, err := d.NotifyNewBooking(context.Background(), summary())
	require.NoError(t, err)
	assert.True(t, adminSent)
	assert.True(t, guestSent)
	require.Len(t, sender.sent, 2)

	assert.Equal(t, "ops@example.com", sender.sent[0].To)
	assert.Contains(t, sender.sent[0].HTML, "GS-ABCD2345")
	assert.Contains(t, sender.sent[0].HTML, "45.00 USD")

	assert.Equal(t, "sam@example.com", sender.sent[1].To)
	assert.Contains(t, sender.sent[1].HTML, "123456")
	assert.Contains(t, sender.sent[1].HTML, "300.00 USD")
}

func TestNotifyNewBooking_GuestFailureDoesNotBlockAdmin(t *testing.T) {
	sender := &recordingSender{fail: map[Kind]error{KindGuestBookingReceived: errors.New("smtp down")}}
	log, hook := logtest.NewNullLogger()
	d := NewDispatcher(sender, "ops@example.com", "https://app.example.com", log)

	adminSent, guestSent, err := d.NotifyNewBooking(context.Background(), summary())
	assert.Error(t, err)
	assert.True(t, adminSent)
	assert.False(t, guestSent)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}

func TestSendPaymentConfirmed(t *testing.T) {
	sender := &recordingSender{}
	log, _ := logtest.NewNullLogger()
	d := NewDispatcher(sender, "", "https://app.example.com/", log)

	err := d.SendPaymentConfirmed(context.Background(), Confirmation{
		Booking:   summary(),
		Token:     "tok_abc",
		ExpiresAt: time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		CardBrand: "visa",
		CardLast4: "4242",
	})
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)
	msg := sender.sent[0]
	assert.Equal(t, KindGuestPaymentConfirmed, msg.Kind)
	assert.Equal(t, "sam@example.com", msg.To)
	assert.Contains(t, msg.HTML, "https://app.example.com/bookings/access?token=tok_abc")
	assert.Contains(t, msg.HTML, "ending in 4242")
}

func TestUnconfiguredSender(t *testing.T) {
	log, _ := logtest.NewNullLogger()
	d := NewDispatcher(NewSMTPSender(SMTPConfig{}), "", "https://app.example.com", log)

	err := d.SendPaymentConfirmed(context.Background(), Confirmation{Booking: summary(), Token: "t"})
	assert.True(t, IsErrNotConfigured(err))
}
