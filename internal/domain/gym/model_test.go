package gym

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"gymstay/backend/internal/domain/pricing"
)

func TestGym_Bookable(t *testing.T) {
	tests := []struct {
		status VerificationStatus
		want   bool
	}{
		{VerificationDraft, false},
		{"", false},
		{VerificationVerified, true},
		{VerificationTrusted, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			g := Gym{VerificationStatus: tt.status}
			assert.Equal(t, tt.want, g.Bookable())
		})
	}
}

func TestGym_IsOwner(t *testing.T) {
	g := Gym{OwnerUID: "owner-1", OwnerIds: []string{"owner-2"}}
	assert.True(t, g.IsOwner("owner-1"))
	assert.True(t, g.IsOwner("owner-2"))
	assert.False(t, g.IsOwner("someone"))
	assert.False(t, g.IsOwner(""))
}

func TestGym_CurrencyCode(t *testing.T) {
	assert.Equal(t, "thb", (&Gym{Currency: "THB"}).CurrencyCode())
	assert.Equal(t, "usd", (&Gym{}).CurrencyCode())
}

func TestPackage_PlanAppliesVariantRates(t *testing.T) {
	p := Package{
		Type:        pricing.TypeAccommodation,
		PricingMode: pricing.ModeRate,
		DailyRate:   40,
		WeeklyRate:  250,
		MinStayDays: 3,
	}

	plan := p.Plan(nil)
	assert.Equal(t, 40.0, plan.Rates.Daily)
	assert.Equal(t, 3, plan.MinStayDays)

	plan = p.Plan(&Variant{DailyRate: 60})
	assert.Equal(t, 60.0, plan.Rates.Daily)
	assert.Equal(t, 250.0, plan.Rates.Weekly)
}
