package pricing

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// Nights returns the number of nights between check-in and check-out.
func Nights(start, end time.Time) int {
	return int(math.Round(end.Sub(start).Hours() / 24))
}

// BillableUnits converts nights into billed units. Training and all-inclusive
// packages count both the check-in and the check-out day.
func BillableUnits(t PackageType, nights int) int {
	switch t {
	case TypeTraining, TypeAllInclusive:
		return nights + 1
	default:
		return nights
	}
}

// MinStay returns the declared minimum stay or the default for the package type.
func MinStay(p Plan) int {
	if p.MinStayDays > 0 {
		return p.MinStayDays
	}
	if p.Type == TypeTraining {
		return DefaultTrainingMinStay
	}
	return DefaultOtherMinStay
}

// Calculate prices a stay of the given number of nights.
func Calculate(p Plan, nights int) (Quote, error) {
	if nights < 0 {
		return Quote{}, fmt.Errorf("%w: %d nights", ErrInvalidDuration, nights)
	}
	units := BillableUnits(p.Type, nights)
	if units < 1 {
		return Quote{}, fmt.Errorf("%w: stay must cover at least one night", ErrInvalidDuration)
	}

	q := Quote{
		Nights:      nights,
		Units:       units,
		MinStayDays: MinStay(p),
	}
	q.BelowMinimumStay = units < q.MinStayDays

	var err error
	switch p.Mode {
	case ModeRate, "":
		q.Total, q.Basis, q.Label, err = rateTotal(p, units)
	case ModeFixed:
		q.Total, q.Label, err = fixedTotal(p, units)
		q.Basis = BasisFixed
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownMode, p.Mode)
	}
	if err != nil {
		return Quote{}, err
	}
	q.Total = Round2(q.Total)
	return q, nil
}

func rateTotal(p Plan, units int) (float64, Basis, string, error) {
	r := p.Rates
	months := ceilDiv(units, daysPerMonth)
	weeks := ceilDiv(units, daysPerWeek)

	switch {
	case units >= monthlyThresholdDays && r.Monthly > 0:
		return float64(months) * r.Monthly, BasisMonthly, plural(months, "month"), nil
	case units >= weeklyThresholdDays && r.Weekly > 0:
		return float64(weeks) * r.Weekly, BasisWeekly, plural(weeks, "week"), nil
	case r.Daily > 0:
		return float64(units) * r.Daily, BasisDaily, dayLabel(p.Type, units), nil
	case r.Weekly > 0:
		return float64(weeks) * r.Weekly, BasisWeekly, plural(weeks, "week"), nil
	case r.Monthly > 0:
		return float64(months) * r.Monthly, BasisMonthly, plural(months, "month"), nil
	}
	return 0, "", "", ErrNoRate
}

// fixedTotal picks the exact option, else the shortest option covering the stay, else the longest.
func fixedTotal(p Plan, units int) (float64, string, error) {
	if len(p.Options) == 0 {
		return 0, "", ErrNoOptions
	}
	opts := make([]FixedOption, len(p.Options))
	copy(opts, p.Options)
	sort.SliceStable(opts, func(i, j int) bool { return opts[i].DurationDays < opts[j].DurationDays })

	chosen := opts[len(opts)-1]
	for _, o := range opts {
		if o.DurationDays >= units {
			chosen = o
			break
		}
	}
	label := chosen.Label
	if label == "" {
		label = dayLabel(p.Type, chosen.DurationDays)
	}
	return chosen.Price, label, nil
}

// PlatformFee is the fee stored alongside a booking total.
func PlatformFee(total float64) float64 {
	return Round2(total * PlatformFeeRate)
}

func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

func dayLabel(t PackageType, n int) string {
	if t == TypeAccommodation {
		return plural(n, "night")
	}
	return plural(n, "day")
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
