package booking

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const bookingColumns = `
	id, booking_reference, booking_pin, gym_id,
	COALESCE(package_id, '') AS package_id, COALESCE(variant_id, '') AS variant_id,
	COALESCE(user_id, '') AS user_id,
	guest_name, guest_email, COALESCE(guest_phone, '') AS guest_phone,
	COALESCE(discipline, '') AS discipline, COALESCE(experience_level, '') AS experience_level,
	COALESCE(notes, '') AS notes,
	start_date, end_date, total_price, platform_fee, currency, status,
	COALESCE(stripe_payment_intent_id, '') AS stripe_payment_intent_id,
	confirmed_at, created_at, updated_at`

// PostgresRepo stores bookings in the bookings and booking_events tables.
type PostgresRepo struct {
	db *sqlx.DB
}

func NewPostgresRepo(db *sqlx.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) Create(ctx context.Context, b *Booking) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	query := `
		INSERT INTO bookings (
			id, booking_reference, booking_pin, gym_id, package_id, variant_id, user_id,
			guest_name, guest_email, guest_phone, discipline, experience_level, notes,
			start_date, end_date, total_price, platform_fee, currency, status,
			stripe_payment_intent_id, created_at, updated_at
		) VALUES (
			:id, :booking_reference, :booking_pin, :gym_id, NULLIF(:package_id, ''), NULLIF(:variant_id, ''),
			NULLIF(:user_id, ''), :guest_name, :guest_email, NULLIF(:guest_phone, ''), :discipline,
			:experience_level, :notes, :start_date, :end_date, :total_price, :platform_fee, :currency,
			:status, NULLIF(:stripe_payment_intent_id, ''), :created_at, :updated_at
		)`
	if _, err := r.db.NamedExecContext(ctx, query, b); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return fmt.Errorf("%w: booking %s already exists", ErrConflict, b.ID)
		}
		return fmt.Errorf("insert booking: %w", err)
	}
	return nil
}

func (r *PostgresRepo) Get(ctx context.Context, id string) (*Booking, error) {
	return r.one(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id)
}

func (r *PostgresRepo) GetByReference(ctx context.Context, reference string) (*Booking, error) {
	return r.one(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE booking_reference = $1`, reference)
}

func (r *PostgresRepo) FindByPaymentIntent(ctx context.Context, intentID string) (*Booking, error) {
	if intentID == "" {
		return nil, ErrNotFound
	}
	return r.one(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE stripe_payment_intent_id = $1 LIMIT 1`, intentID)
}

func (r *PostgresRepo) one(ctx context.Context, query string, arg any) (*Booking, error) {
	var b Booking
	if err := r.db.GetContext(ctx, &b, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (r *PostgresRepo) AttachPaymentIntent(ctx context.Context, id, intentID string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE bookings SET stripe_payment_intent_id = $1, updated_at = NOW() WHERE id = $2`,
		intentID, id)
	if err != nil {
		return fmt.Errorf("attach intent: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("booking %s: %w", id, ErrNotFound)
	}
	return nil
}

// Transition is a single conditional UPDATE; RowsAffected tells whether this call won.
func (r *PostgresRepo) Transition(ctx context.Context, id string, from []Status, to Status) (bool, error) {
	set := "status = ?, updated_at = NOW()"
	if to == StatusConfirmed {
		set += ", confirmed_at = NOW()"
	}
	query, args, err := sqlx.In(`UPDATE bookings SET `+set+` WHERE id = ? AND status IN (?)`,
		string(to), id, statusStrings(from))
	if err != nil {
		return false, err
	}
	res, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return false, fmt.Errorf("transition booking: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 1 {
		return true, nil
	}

	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM bookings WHERE id = $1)`, id); err != nil {
		return false, err
	}
	if !exists {
		return false, fmt.Errorf("booking %s: %w", id, ErrNotFound)
	}
	return false, nil
}

func (r *PostgresRepo) AppendEvent(ctx context.Context, ev Event) error {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	device, err := json.Marshal(ev.Device)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO booking_events (
			id, booking_id, type, source, actor_uid, from_status, to_status, intent_id, detail, device, created_at
		) VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''), NULLIF($8, ''), $9, $10, $11)`,
		ev.ID, ev.BookingID, ev.Type, string(ev.Source), ev.ActorUID, string(ev.FromStatus), string(ev.ToStatus),
		ev.IntentID, ev.Detail, device, ev.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert booking event: %w", err)
	}
	return nil
}
