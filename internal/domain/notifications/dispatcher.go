package notifications

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"
)

// Dispatcher composes the transactional emails of the booking flow.
type Dispatcher struct {
	sender     Sender
	adminEmail string
	appBaseURL string
	log        *logrus.Logger
}

func NewDispatcher(sender Sender, adminEmail, appBaseURL string, log *logrus.Logger) *Dispatcher {
	return &Dispatcher{
		sender:     sender,
		adminEmail: strings.TrimSpace(adminEmail),
		appBaseURL: strings.TrimRight(appBaseURL, "/"),
		log:        log,
	}
}

// AccessURL is the guest link embedding a raw access token.
func (d *Dispatcher) AccessURL(token string) string {
	return d.appBaseURL + "/bookings/access?token=" + url.QueryEscape(token)
}

// NotifyNewBooking sends the admin alert and the guest "request received" email.
// Each send is independent; the returned flags report which ones went out.
func (d *Dispatcher) NotifyNewBooking(ctx context.Context, b BookingSummary) (adminSent, guestSent bool, err error) {
	var errs []error

	if d.adminEmail != "" {
		if e := d.send(ctx, KindAdminNewBooking, d.adminEmail, "New booking request "+b.Reference, b); e != nil {
			errs = append(errs, e)
		} else {
			adminSent = true
		}
	}

	if e := d.send(ctx, KindGuestBookingReceived, b.GuestEmail, "Booking request received: "+b.GymName, b); e != nil {
		errs = append(errs, e)
	} else {
		guestSent = true
	}
	return adminSent, guestSent, errors.Join(errs...)
}

// SendPaymentConfirmed sends the guest confirmation with the access link.
func (d *Dispatcher) SendPaymentConfirmed(ctx context.Context, c Confirmation) error {
	data := struct {
		Confirmation
		AccessURL string
	}{c, d.AccessURL(c.Token)}
	return d.send(ctx, KindGuestPaymentConfirmed, c.Booking.GuestEmail, "Booking confirmed: "+c.Booking.GymName, data)
}

func (d *Dispatcher) send(ctx context.Context, kind Kind, to, subject string, data any) error {
	if d.sender == nil {
		return ErrNotConfigured
	}
	if strings.TrimSpace(to) == "" {
		return ErrNoRecipient
	}
	html, err := render(string(kind), data)
	if err != nil {
		return err
	}
	err = d.sender.Send(ctx, Message{Kind: kind, To: to, Subject: subject, HTML: html})
	entry := d.log.WithFields(logrus.Fields{"kind": kind, "to": to})
	if err != nil {
		entry.WithError(err).Warn("email not sent")
		return err
	}
	entry.Info("email sent")
	return nil
}
