package pricing

// PackageType decides how a date range turns into billable units.
type PackageType string

const (
	TypeTraining      PackageType = "training"
	TypeAccommodation PackageType = "accommodation"
	TypeAllInclusive  PackageType = "all_inclusive"
)

// Mode is the billing mode of a package.
type Mode string

const (
	ModeFixed Mode = "fixed"
	ModeRate  Mode = "rate"
)

// Basis names the rate a quote was computed with.
type Basis string

const (
	BasisDaily   Basis = "daily"
	BasisWeekly  Basis = "weekly"
	BasisMonthly Basis = "monthly"
	BasisFixed   Basis = "fixed"
)

const (
	// PlatformFeeRate is the marketplace cut stored on every booking at creation.
	PlatformFeeRate = 0.15

	DefaultTrainingMinStay = 1
	DefaultOtherMinStay    = 7

	monthlyThresholdDays = 28
	weeklyThresholdDays  = 7
	daysPerMonth         = 30
	daysPerWeek          = 7
)

type Rates struct {
	Daily   float64 `json:"daily,omitempty"`
	Weekly  float64 `json:"weekly,omitempty"`
	Monthly float64 `json:"monthly,omitempty"`
}

// FixedOption is one (duration, price) tuple of a flat-priced package.
type FixedOption struct {
	DurationDays int     `json:"durationDays"`
	Price        float64 `json:"price"`
	Label        string  `json:"label,omitempty"`
}

// Plan is everything the calculator needs to know about a package.
type Plan struct {
	Type        PackageType
	Mode        Mode
	Rates       Rates
	Options     []FixedOption
	MinStayDays int
}

// Quote is the calculator result. BelowMinimumStay is a signal, the total is always computed.
type Quote struct {
	Nights           int     `json:"nights"`
	Units            int     `json:"units"`
	Total            float64 `json:"total"`
	Label            string  `json:"label"`
	Basis            Basis   `json:"basis"`
	MinStayDays      int     `json:"minStayDays"`
	BelowMinimumStay bool    `json:"belowMinimumStay"`
}
