package booking

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Repo is the Firestore store. Bookings live in "bookings", their audit trail in
// the "events" subcollection.
type Repo struct {
	fs *firestore.Client
}

func NewRepo(fs *firestore.Client) *Repo {
	return &Repo{fs: fs}
}

func (r *Repo) col() *firestore.CollectionRef {
	return r.fs.Collection("bookings")
}

func (r *Repo) Create(ctx context.Context, b *Booking) error {
	ref := r.col().NewDoc()
	if b.ID != "" {
		ref = r.col().Doc(b.ID)
	}
	b.ID = ref.ID
	if _, err := ref.Create(ctx, b); err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return fmt.Errorf("%w: booking %s already exists", ErrConflict, b.ID)
		}
		return err
	}
	return nil
}

func (r *Repo) Get(ctx context.Context, id string) (*Booking, error) {
	doc, err := r.col().Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("booking %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return decode(doc)
}

func (r *Repo) GetByReference(ctx context.Context, reference string) (*Booking, error) {
	return r.first(ctx, r.col().Where("bookingReference", "==", reference).Limit(1))
}

func (r *Repo) FindByPaymentIntent(ctx context.Context, intentID string) (*Booking, error) {
	if intentID == "" {
		return nil, ErrNotFound
	}
	return r.first(ctx, r.col().Where("stripePaymentIntentId", "==", intentID).Limit(1))
}

func (r *Repo) first(ctx context.Context, q firestore.Query) (*Booking, error) {
	it := q.Documents(ctx)
	defer it.Stop()
	doc, err := it.Next()
	if err == iterator.Done {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return decode(doc)
}

func (r *Repo) AttachPaymentIntent(ctx context.Context, id, intentID string) error {
	_, err := r.col().Doc(id).Update(ctx, []firestore.Update{
		{Path: "stripePaymentIntentId", Value: intentID},
		{Path: "updatedAt", Value: time.Now().UTC()},
	})
	if status.Code(err) == codes.NotFound {
		return fmt.Errorf("booking %s: %w", id, ErrNotFound)
	}
	return err
}

// Transition runs the status check and the write in one transaction, so concurrent
// callers racing on the same booking see exactly one success.
func (r *Repo) Transition(ctx context.Context, id string, from []Status, to Status) (bool, error) {
	ref := r.col().Doc(id)
	var changed bool
	err := r.fs.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		changed = false
		doc, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return fmt.Errorf("booking %s: %w", id, ErrNotFound)
			}
			return err
		}
		var cur struct {
			Status Status `firestore:"status"`
		}
		if err := doc.DataTo(&cur); err != nil {
			return err
		}
		if !statusIn(cur.Status, from) {
			return nil
		}

		now := time.Now().UTC()
		updates := []firestore.Update{
			{Path: "status", Value: string(to)},
			{Path: "updatedAt", Value: now},
		}
		if to == StatusConfirmed {
			updates = append(updates, firestore.Update{Path: "confirmedAt", Value: now})
		}
		changed = true
		return tx.Update(ref, updates)
	})
	if err != nil {
		return false, err
	}
	return changed, nil
}

func (r *Repo) AppendEvent(ctx context.Context, ev Event) error {
	ref := r.col().Doc(ev.BookingID).Collection("events").NewDoc()
	ev.ID = ref.ID
	_, err := ref.Create(ctx, ev)
	return err
}

func decode(doc *firestore.DocumentSnapshot) (*Booking, error) {
	if !doc.Exists() {
		return nil, ErrNotFound
	}
	var b Booking
	if err := doc.DataTo(&b); err != nil {
		return nil, err
	}
	if b.ID == "" {
		b.ID = doc.Ref.ID
	}
	return &b, nil
}
