package gym

import (
	"strings"
	"time"

	"gymstay/backend/internal/domain/pricing"
)

type VerificationStatus string

const (
	VerificationDraft    VerificationStatus = "draft"
	VerificationVerified VerificationStatus = "verified"
	VerificationTrusted  VerificationStatus = "trusted"
)

type Gym struct {
	ID                 string             `firestore:"id" json:"id" db:"id"`
	Name               string             `firestore:"name" json:"name" db:"name"`
	Email              string             `firestore:"email,omitempty" json:"email,omitempty" db:"email"`
	Currency           string             `firestore:"currency" json:"currency" db:"currency"`
	City               string             `firestore:"city,omitempty" json:"city,omitempty" db:"city"`
	Country            string             `firestore:"country,omitempty" json:"country,omitempty" db:"country"`
	VerificationStatus VerificationStatus `firestore:"verificationStatus" json:"verificationStatus" db:"verification_status"`

	OwnerUID string   `firestore:"ownerUid,omitempty" json:"ownerUid,omitempty" db:"owner_uid"`
	OwnerIds []string `firestore:"ownerIds,omitempty" json:"ownerIds,omitempty" db:"-"`

	CreatedAt time.Time `firestore:"createdAt" json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `firestore:"updatedAt" json:"updatedAt" db:"updated_at"`
}

// Bookable reports whether the gym may accept new bookings. Draft gyms may not.
func (g *Gym) Bookable() bool {
	switch g.VerificationStatus {
	case VerificationVerified, VerificationTrusted:
		return true
	}
	return false
}

func (g *Gym) IsOwner(uid string) bool {
	if uid == "" {
		return false
	}
	if g.OwnerUID == uid {
		return true
	}
	for _, o := range g.OwnerIds {
		if o == uid {
			return true
		}
	}
	return false
}

// CurrencyCode returns the lower-case ISO code, defaulting to usd.
func (g *Gym) CurrencyCode() string {
	c := strings.ToLower(strings.TrimSpace(g.Currency))
	if c == "" {
		return "usd"
	}
	return c
}

type Package struct {
	ID          string                `firestore:"id" json:"id" db:"id"`
	GymID       string                `firestore:"gymId" json:"gymId" db:"gym_id"`
	Name        string                `firestore:"name" json:"name" db:"name"`
	Type        pricing.PackageType   `firestore:"type" json:"type" db:"type"`
	PricingMode pricing.Mode          `firestore:"pricingMode" json:"pricingMode" db:"pricing_mode"`
	DailyRate   float64               `firestore:"dailyRate,omitempty" json:"dailyRate,omitempty" db:"daily_rate"`
	WeeklyRate  float64               `firestore:"weeklyRate,omitempty" json:"weeklyRate,omitempty" db:"weekly_rate"`
	MonthlyRate float64               `firestore:"monthlyRate,omitempty" json:"monthlyRate,omitempty" db:"monthly_rate"`
	Options     []pricing.FixedOption `firestore:"options,omitempty" json:"options,omitempty" db:"-"`
	MinStayDays int                   `firestore:"minStayDays,omitempty" json:"minStayDays,omitempty" db:"min_stay_days"`
	Active      bool                  `firestore:"active" json:"active" db:"active"`
}

// Variant is an accommodation tier of a package. Non-zero rates override the package rates.
type Variant struct {
	ID          string  `firestore:"id" json:"id" db:"id"`
	PackageID   string  `firestore:"packageId" json:"packageId" db:"package_id"`
	Name        string  `firestore:"name" json:"name" db:"name"`
	DailyRate   float64 `firestore:"dailyRate,omitempty" json:"dailyRate,omitempty" db:"daily_rate"`
	WeeklyRate  float64 `firestore:"weeklyRate,omitempty" json:"weeklyRate,omitempty" db:"weekly_rate"`
	MonthlyRate float64 `firestore:"monthlyRate,omitempty" json:"monthlyRate,omitempty" db:"monthly_rate"`
	Price       float64 `firestore:"price,omitempty" json:"price,omitempty" db:"price"`
}

// Plan builds the pricing input for the package, applying the variant when present.
func (p *Package) Plan(v *Variant) pricing.Plan {
	plan := pricing.Plan{
		Type:        p.Type,
		Mode:        p.PricingMode,
		Rates:       pricing.Rates{Daily: p.DailyRate, Weekly: p.WeeklyRate, Monthly: p.MonthlyRate},
		Options:     p.Options,
		MinStayDays: p.MinStayDays,
	}
	if v == nil {
		return plan
	}
	if v.DailyRate > 0 {
		plan.Rates.Daily = v.DailyRate
	}
	if v.WeeklyRate > 0 {
		plan.Rates.Weekly = v.WeeklyRate
	}
	if v.MonthlyRate > 0 {
		plan.Rates.Monthly = v.MonthlyRate
	}
	if plan.Mode == pricing.ModeFixed && v.Price > 0 && len(plan.Options) == 0 {
		plan.Options = []pricing.FixedOption{{DurationDays: pricing.MinStay(plan), Price: v.Price, Label: v.Name}}
	}
	return plan
}
