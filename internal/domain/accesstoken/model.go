package accesstoken

import "time"

// Token is the stored side of a guest access link. The raw bearer value is never
// persisted; ID is its SHA-256 digest.
type Token struct {
	ID        string    `firestore:"id" json:"id" db:"id"`
	BookingID string    `firestore:"bookingId" json:"bookingId" db:"booking_id"`
	Email     string    `firestore:"email" json:"email" db:"email"`
	ExpiresAt time.Time `firestore:"expiresAt" json:"expiresAt" db:"expires_at"`
	CreatedAt time.Time `firestore:"createdAt" json:"createdAt" db:"created_at"`
}

// Expired uses a strict comparison: a token is still valid at exactly ExpiresAt.
func (t *Token) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// Issued is returned once at issuance and carries the raw bearer value.
type Issued struct {
	Token     string    `json:"token"`
	BookingID string    `json:"bookingId"`
	ExpiresAt time.Time `json:"expiresAt"`
}
