package booking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gymstay/backend/internal/domain/payments"
)

func succeededEvent(intent *payments.Intent) *payments.Event {
	return &payments.Event{ID: "evt_1", Type: payments.EventIntentSucceeded, Intent: intent}
}

func TestHandlePaymentEvent(t *testing.T) {
	ctx := context.Background()

	t.Run("succeeded confirms once across replays", func(t *testing.T) {
		f := newFixture(t)
		b := f.createAwaiting(t)
		f.gateway.setStatus(b.StripePaymentIntentID, payments.StatusSucceeded)
		intent, err := f.gateway.RetrieveAuthorization(ctx, b.StripePaymentIntentID)
		require.NoError(t, err)

		first, err := f.svc.HandlePaymentEvent(ctx, succeededEvent(intent))
		require.NoError(t, err)
		assert.True(t, first.Handled)
		assert.True(t, first.EmailSent)
		assert.Equal(t, b.ID, first.BookingID)

		replay, err := f.svc.HandlePaymentEvent(ctx, succeededEvent(intent))
		require.NoError(t, err)
		assert.True(t, replay.AlreadyConfirmed)
		assert.False(t, replay.EmailSent)

		assert.Equal(t, StatusConfirmed, f.status(t, b.ID))
		sent := f.mailer.sent()
		require.Len(t, sent, 1)
		assert.Equal(t, "4242", sent[0].CardLast4)

		confirmed := f.store.Events(b.ID)
		var sources []Source
		for _, ev := range confirmed {
			if ev.Type == EventConfirmed {
				sources = append(sources, ev.Source)
			}
		}
		assert.Equal(t, []Source{SourceWebhook}, sources)
	})

	t.Run("amount mismatch is logged and still confirms", func(t *testing.T) {
		f := newFixture(t)
		b := f.createAwaiting(t)
		intent := &payments.Intent{
			ID:       b.StripePaymentIntentID,
			Status:   payments.StatusSucceeded,
			Amount:   12345,
			Currency: "usd",
		}

		res, err := f.svc.HandlePaymentEvent(ctx, succeededEvent(intent))
		require.NoError(t, err)
		assert.True(t, res.Handled)
		assert.Equal(t, StatusConfirmed, f.status(t, b.ID))

		var captured any
		for _, e := range f.logs.AllEntries() {
			if e.Message == "webhook: captured amount differs from booking total" {
				captured = e.Data["captured"]
			}
		}
		assert.Equal(t, 123.45, captured)
	})

	t.Run("unknown intent is acknowledged", func(t *testing.T) {
		f := newFixture(t)
		res, err := f.svc.HandlePaymentEvent(ctx, succeededEvent(&payments.Intent{ID: "pi_other", Status: payments.StatusSucceeded}))
		require.NoError(t, err)
		assert.False(t, res.Handled)
		assert.Empty(t, f.mailer.sent())
	})

	t.Run("confirms a cancelled booking whose payment succeeded", func(t *testing.T) {
		f := newFixture(t)
		b := f.createAwaiting(t)
		_, err := f.store.Transition(ctx, b.ID, []Status{StatusAwaitingApproval}, StatusCancelled)
		require.NoError(t, err)

		res, err := f.svc.HandlePaymentEvent(ctx, succeededEvent(&payments.Intent{ID: b.StripePaymentIntentID, Status: payments.StatusSucceeded}))
		require.NoError(t, err)
		assert.True(t, res.EmailSent)
		assert.Equal(t, StatusConfirmed, f.status(t, b.ID))
	})

	t.Run("capturable promotes pending payment", func(t *testing.T) {
		f := newFixture(t)
		b := f.createAwaiting(t)
		_, err := f.store.Transition(ctx, b.ID, []Status{StatusAwaitingApproval}, StatusPendingPayment)
		require.NoError(t, err)

		ev := &payments.Event{Type: payments.EventIntentCapturableUpdated, Intent: &payments.Intent{ID: b.StripePaymentIntentID}}
		res, err := f.svc.HandlePaymentEvent(ctx, ev)
		require.NoError(t, err)
		assert.True(t, res.Handled)
		assert.Equal(t, StatusAwaitingApproval, f.status(t, b.ID))

		res, err = f.svc.HandlePaymentEvent(ctx, ev)
		require.NoError(t, err)
		assert.False(t, res.Handled)
	})

	t.Run("canceled releases awaiting booking", func(t *testing.T) {
		f := newFixture(t)
		b := f.createAwaiting(t)

		ev := &payments.Event{Type: payments.EventIntentCanceled, Intent: &payments.Intent{ID: b.StripePaymentIntentID}}
		res, err := f.svc.HandlePaymentEvent(ctx, ev)
		require.NoError(t, err)
		assert.True(t, res.Handled)
		assert.Equal(t, StatusCancelled, f.status(t, b.ID))
		assert.Contains(t, f.publisher.keys, "booking.cancelled")
	})

	t.Run("other types are ignored", func(t *testing.T) {
		f := newFixture(t)
		res, err := f.svc.HandlePaymentEvent(ctx, &payments.Event{Type: "charge.refunded"})
		require.NoError(t, err)
		assert.False(t, res.Handled)
		assert.Equal(t, "charge.refunded", res.EventType)
	})
}

func TestSync(t *testing.T) {
	ctx := context.Background()

	t.Run("not captured yet", func(t *testing.T) {
		f := newFixture(t)
		b := f.createAwaiting(t)

		res, err := f.svc.Sync(ctx, b.ID, admin)
		require.NoError(t, err)
		assert.False(t, res.Synced)
		assert.Equal(t, payments.StatusRequiresCapture, res.GatewayStatus)
		assert.Equal(t, StatusAwaitingApproval, f.status(t, b.ID))
		assert.Empty(t, f.mailer.sent())
	})

	t.Run("confirms from stored intent", func(t *testing.T) {
		f := newFixture(t)
		b := f.createAwaiting(t)
		f.gateway.setStatus(b.StripePaymentIntentID, payments.StatusSucceeded)

		res, err := f.svc.Sync(ctx, b.ID, admin)
		require.NoError(t, err)
		assert.True(t, res.Synced)
		assert.False(t, res.Relinked)
		assert.True(t, res.EmailSent)
		assert.Equal(t, StatusConfirmed, f.status(t, b.ID))

		again, err := f.svc.Sync(ctx, b.ID, admin)
		require.NoError(t, err)
		assert.True(t, again.AlreadyConfirmed)
		assert.Len(t, f.mailer.sent(), 1)
	})

	t.Run("relinks via metadata search", func(t *testing.T) {
		f := newFixture(t)
		b := f.createAwaiting(t)
		f.gateway.put(payments.Intent{
			ID:       "pi_retry",
			Status:   payments.StatusSucceeded,
			Created:  testNow.Add(time.Hour),
			Metadata: map[string]string{payments.MetaBookingReference: b.Reference},
		})

		res, err := f.svc.Sync(ctx, b.ID, admin)
		require.NoError(t, err)
		assert.True(t, res.Synced)
		assert.True(t, res.Relinked)
		assert.Equal(t, "pi_retry", res.PaymentIntentID)
		assert.Equal(t, 2, res.Candidates)

		got, err := f.store.Get(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, "pi_retry", got.StripePaymentIntentID)
		assert.Equal(t, StatusConfirmed, got.Status)
		assert.Contains(t, eventTypes(f.store.Events(b.ID)), EventIntentRelinked)
	})

	t.Run("keeps live hold over newer abandoned intent", func(t *testing.T) {
		f := newFixture(t)
		b := f.createAwaiting(t)
		live := b.StripePaymentIntentID
		f.gateway.put(payments.Intent{
			ID:       "pi_abandoned",
			Status:   payments.StatusCanceled,
			Created:  testNow.Add(time.Hour),
			Metadata: map[string]string{payments.MetaBookingID: b.ID},
		})

		res, err := f.svc.Sync(ctx, b.ID, admin)
		require.NoError(t, err)
		assert.False(t, res.Synced)
		assert.False(t, res.Relinked)
		assert.Equal(t, live, res.PaymentIntentID)
		assert.Equal(t, payments.StatusRequiresCapture, res.GatewayStatus)
		assert.Equal(t, 2, res.Candidates)

		got, err := f.store.Get(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, live, got.StripePaymentIntentID)
		assert.NotContains(t, eventTypes(f.store.Events(b.ID)), EventIntentRelinked)

		captured, err := f.svc.Capture(ctx, b.ID, admin)
		require.NoError(t, err)
		assert.Equal(t, StatusConfirmed, captured.Status)
		in, err := f.gateway.RetrieveAuthorization(ctx, live)
		require.NoError(t, err)
		assert.Equal(t, payments.StatusSucceeded, in.Status)
	})

	t.Run("relinks when stored intent is unknown", func(t *testing.T) {
		f := newFixture(t)
		b := f.createAwaiting(t)
		require.NoError(t, f.store.AttachPaymentIntent(ctx, b.ID, "pi_gone"))
		f.gateway.put(payments.Intent{
			ID:       "pi_hold",
			Status:   payments.StatusRequiresCapture,
			Created:  testNow.Add(time.Hour),
			Metadata: map[string]string{payments.MetaBookingID: b.ID},
		})

		res, err := f.svc.Sync(ctx, b.ID, admin)
		require.NoError(t, err)
		assert.False(t, res.Synced)
		assert.True(t, res.Relinked)
		assert.Equal(t, "pi_hold", res.PaymentIntentID)

		got, err := f.store.Get(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, "pi_hold", got.StripePaymentIntentID)
	})

	t.Run("booking without intent", func(t *testing.T) {
		f := newFixture(t)
		f.gateway.createErr = payments.ErrGatewayUnavailable
		_, err := f.svc.Create(ctx, validInput(), Actor{})
		require.Error(t, err)
		f.gateway.createErr = nil
		var id string
		for k := range f.store.bookings {
			id = k
		}

		res, err := f.svc.Sync(ctx, id, admin)
		require.NoError(t, err)
		assert.False(t, res.Synced)
		assert.Zero(t, res.Candidates)
	})

	t.Run("gateway unavailable", func(t *testing.T) {
		f := newFixture(t)
		b := f.createAwaiting(t)
		f.gateway.retrieve = payments.ErrGatewayUnavailable

		_, err := f.svc.Sync(ctx, b.ID, admin)
		assert.True(t, payments.IsErrGatewayUnavailable(err))
	})

	t.Run("admin only", func(t *testing.T) {
		f := newFixture(t)
		b := f.createAwaiting(t)
		_, err := f.svc.Sync(ctx, b.ID, owner)
		assert.True(t, IsErrForbidden(err))
	})
}

func TestResendConfirmation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	b := f.createAwaiting(t)

	_, err := f.svc.ResendConfirmation(ctx, b.ID, admin)
	assert.True(t, IsErrConflict(err))

	_, err = f.svc.Capture(ctx, b.ID, admin)
	require.NoError(t, err)

	res, err := f.svc.ResendConfirmation(ctx, b.ID, admin)
	require.NoError(t, err)
	assert.True(t, res.EmailSent)

	sent := f.mailer.sent()
	require.Len(t, sent, 2)
	assert.NotEqual(t, sent[0].Token, sent[1].Token)
}
