package booking

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps bookings in process. Used for local development and tests.
type MemoryStore struct {
	mu       sync.Mutex
	bookings map[string]Booking
	events   map[string][]Event
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		bookings: map[string]Booking{},
		events:   map[string][]Event{},
	}
}

func (m *MemoryStore) Create(_ context.Context, b *Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if _, exists := m.bookings[b.ID]; exists {
		return fmt.Errorf("%w: booking %s already exists", ErrConflict, b.ID)
	}
	m.bookings[b.ID] = *b
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (*Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, fmt.Errorf("booking %s: %w", id, ErrNotFound)
	}
	return &b, nil
}

func (m *MemoryStore) GetByReference(_ context.Context, reference string) (*Booking, error) {
	return m.find(func(b Booking) bool { return b.Reference == reference })
}

func (m *MemoryStore) FindByPaymentIntent(_ context.Context, intentID string) (*Booking, error) {
	if intentID == "" {
		return nil, ErrNotFound
	}
	return m.find(func(b Booking) bool { return b.StripePaymentIntentID == intentID })
}

func (m *MemoryStore) find(match func(Booking) bool) (*Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.bookings {
		if match(b) {
			return &b, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) AttachPaymentIntent(_ context.Context, id, intentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return fmt.Errorf("booking %s: %w", id, ErrNotFound)
	}
	b.StripePaymentIntentID = intentID
	b.UpdatedAt = time.Now().UTC()
	m.bookings[id] = b
	return nil
}

func (m *MemoryStore) Transition(_ context.Context, id string, from []Status, to Status) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return false, fmt.Errorf("booking %s: %w", id, ErrNotFound)
	}
	if !statusIn(b.Status, from) {
		return false, nil
	}
	now := time.Now().UTC()
	b.Status = to
	b.UpdatedAt = now
	if to == StatusConfirmed {
		b.ConfirmedAt = &now
	}
	m.bookings[id] = b
	return true, nil
}

func (m *MemoryStore) AppendEvent(_ context.Context, ev Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	m.events[ev.BookingID] = append(m.events[ev.BookingID], ev)
	return nil
}

// Events returns the audit trail of a booking in insertion order.
func (m *MemoryStore) Events(bookingID string) []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Event, len(m.events[bookingID]))
	copy(out, m.events[bookingID])
	return out
}
