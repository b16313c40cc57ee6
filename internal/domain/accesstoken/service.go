package accesstoken

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

const (
	DefaultTTLDays = 90
	MaxTTLDays     = 365

	tokenBytes = 32
)

type Store interface {
	Save(ctx context.Context, t Token) error
	Get(ctx context.Context, id string) (*Token, error)
}

type Service struct {
	store      Store
	defaultTTL int
	now        func() time.Time
}

func NewService(store Store, defaultTTLDays int) *Service {
	if defaultTTLDays <= 0 {
		defaultTTLDays = DefaultTTLDays
	}
	return &Service{store: store, defaultTTL: defaultTTLDays, now: func() time.Time { return time.Now().UTC() }}
}

// DefaultTTLDays returns the lifetime applied when a caller does not ask for one.
func (s *Service) DefaultTTLDays() int { return s.defaultTTL }

// Issue mints a fresh token bound to bookingID and email. The email is captured as
// given; later changes to the booking do not affect it.
func (s *Service) Issue(ctx context.Context, bookingID, email string, ttlDays int) (*Issued, error) {
	bookingID = strings.TrimSpace(bookingID)
	email = strings.TrimSpace(email)
	if bookingID == "" || email == "" {
		return nil, fmt.Errorf("%w: booking id and email are required", ErrBadRequest)
	}
	if ttlDays < 0 || ttlDays > MaxTTLDays {
		return nil, fmt.Errorf("%w: expiresInDays must be between 0 and %d", ErrBadRequest, MaxTTLDays)
	}

	raw, err := newRawToken()
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	now := s.now()
	t := Token{
		ID:        HashToken(raw),
		BookingID: bookingID,
		Email:     email,
		ExpiresAt: now.AddDate(0, 0, ttlDays),
		CreatedAt: now,
	}
	if err := s.store.Save(ctx, t); err != nil {
		return nil, fmt.Errorf("save token: %w", err)
	}
	return &Issued{Token: raw, BookingID: bookingID, ExpiresAt: t.ExpiresAt}, nil
}

// Resolve returns the stored token for a raw bearer value.
func (s *Service) Resolve(ctx context.Context, raw string) (*Token, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrTokenNotFound
	}
	t, err := s.store.Get(ctx, HashToken(raw))
	if err != nil {
		return nil, err
	}
	if t.Expired(s.now()) {
		return nil, ErrTokenExpired
	}
	return t, nil
}

// HashToken derives the storage id of a raw token.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func newRawToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
