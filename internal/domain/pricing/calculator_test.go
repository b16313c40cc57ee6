package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculate_RateTiers(t *testing.T) {
	plan := Plan{
		Type:  TypeAccommodation,
		Mode:  ModeRate,
		Rates: Rates{Daily: 10, Weekly: 60, Monthly: 200},
	}

	tests := []struct {
		nights int
		total  float64
		basis  Basis
		label  string
	}{
		{5, 50, BasisDaily, "5 nights"},
		{10, 120, BasisWeekly, "2 weeks"},
		{7, 60, BasisWeekly, "1 week"},
		{27, 240, BasisWeekly, "4 weeks"},
		{28, 200, BasisMonthly, "1 month"},
		{30, 200, BasisMonthly, "1 month"},
		{45, 400, BasisMonthly, "2 months"},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			q, err := Calculate(plan, tt.nights)
			require.NoError(t, err)
			assert.Equal(t, tt.total, q.Total)
			assert.Equal(t, tt.basis, q.Basis)
			assert.Equal(t, tt.label, q.Label)
		})
	}
}

func TestCalculate_TrainingBillsInclusiveDays(t *testing.T) {
	rates := Rates{Daily: 100}

	training, err := Calculate(Plan{Type: TypeTraining, Mode: ModeRate, Rates: rates}, 3)
	require.NoError(t, err)
	assert.Equal(t, 4, training.Units)
	assert.Equal(t, 400.0, training.Total)
	assert.Equal(t, "4 days", training.Label)

	allIn, err := Calculate(Plan{Type: TypeAllInclusive, Mode: ModeRate, Rates: rates, MinStayDays: 1}, 3)
	require.NoError(t, err)
	assert.Equal(t, 400.0, allIn.Total)

	accommodation, err := Calculate(Plan{Type: TypeAccommodation, Mode: ModeRate, Rates: rates}, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, accommodation.Units)
	assert.Equal(t, 300.0, accommodation.Total)
}

func TestCalculate_MinimumStayIsFlaggedNotRejected(t *testing.T) {
	q, err := Calculate(Plan{Type: TypeAccommodation, Mode: ModeRate, Rates: Rates{Daily: 25}, MinStayDays: 7}, 3)
	require.NoError(t, err)
	assert.True(t, q.BelowMinimumStay)
	assert.Equal(t, 7, q.MinStayDays)
	assert.Equal(t, 75.0, q.Total)

	q, err = Calculate(Plan{Type: TypeAccommodation, Mode: ModeRate, Rates: Rates{Daily: 25}, MinStayDays: 7}, 7)
	require.NoError(t, err)
	assert.False(t, q.BelowMinimumStay)
}

func TestMinStayDefaults(t *testing.T) {
	assert.Equal(t, 1, MinStay(Plan{Type: TypeTraining}))
	assert.Equal(t, 7, MinStay(Plan{Type: TypeAccommodation}))
	assert.Equal(t, 7, MinStay(Plan{Type: TypeAllInclusive}))
	assert.Equal(t, 3, MinStay(Plan{Type: TypeAccommodation, MinStayDays: 3}))
}

func TestCalculate_Fixed(t *testing.T) {
	plan := Plan{
		Type: TypeTraining,
		Mode: ModeFixed,
		Options: []FixedOption{
			{DurationDays: 14, Price: 500, Label: "2 week camp"},
			{DurationDays: 7, Price: 300},
			{DurationDays: 30, Price: 900},
		},
	}

	q, err := Calculate(plan, 6) // 7 billable days
	require.NoError(t, err)
	assert.Equal(t, 300.0, q.Total)
	assert.Equal(t, "7 days", q.Label)
	assert.Equal(t, BasisFixed, q.Basis)

	q, err = Calculate(plan, 9) // 10 days -> next option up
	require.NoError(t, err)
	assert.Equal(t, 500.0, q.Total)
	assert.Equal(t, "2 week camp", q.Label)

	q, err = Calculate(plan, 60)
	require.NoError(t, err)
	assert.Equal(t, 900.0, q.Total)

	_, err = Calculate(Plan{Type: TypeTraining, Mode: ModeFixed}, 3)
	assert.ErrorIs(t, err, ErrNoOptions)
}

func TestCalculate_Errors(t *testing.T) {
	_, err := Calculate(Plan{Type: TypeAccommodation, Rates: Rates{Daily: 10}}, 0)
	assert.ErrorIs(t, err, ErrInvalidDuration)

	_, err = Calculate(Plan{Type: TypeTraining, Rates: Rates{Daily: 10}}, -1)
	assert.ErrorIs(t, err, ErrInvalidDuration)

	_, err = Calculate(Plan{Type: TypeTraining}, 3)
	assert.ErrorIs(t, err, ErrNoRate)

	_, err = Calculate(Plan{Type: TypeTraining, Mode: "auction", Rates: Rates{Daily: 10}}, 3)
	assert.ErrorIs(t, err, ErrUnknownMode)
}

func TestCalculate_FallsBackWhenPreferredRateMissing(t *testing.T) {
	q, err := Calculate(Plan{Type: TypeAccommodation, Rates: Rates{Daily: 10, Weekly: 60}}, 30)
	require.NoError(t, err)
	assert.Equal(t, BasisWeekly, q.Basis)
	assert.Equal(t, 300.0, q.Total)

	q, err = Calculate(Plan{Type: TypeAccommodation, Rates: Rates{Weekly: 60}}, 3)
	require.NoError(t, err)
	assert.Equal(t, 60.0, q.Total)
}

func TestNightsAndPlatformFee(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 3, Nights(start, end))

	assert.Equal(t, 45.0, PlatformFee(300))
	assert.Equal(t, 18.75, PlatformFee(125))
}
