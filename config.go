package portfolio

import "fmt"

// TaxPolicy defines how capital gains on a portfolio are taxed.
type TaxPolicy int

const (
	// NominalGain taxes the nominal realized gain.
	NominalGain TaxPolicy = iota
	// RealGain taxes the inflation-adjusted (CPI-indexed) gain.
	RealGain
	// TaxFree applies no capital-gains tax.
	TaxFree
)

func (p TaxPolicy) String() string {
	switch p {
	case NominalGain:
		return "nominal"
	case RealGain:
		return "real"
	case TaxFree:
		return "tax-free"
	default:
		return "unknown"
	}
}

// ParseTaxPolicy parses a string into a TaxPolicy.
func ParseTaxPolicy(s string) (TaxPolicy, error) {
	switch s {
	case "nominal":
		return NominalGain, nil
	case "real":
		return RealGain, nil
	case "tax-free":
		return TaxFree, nil
	default:
		return 0, fmt.Errorf("unknown tax policy: %q", s)
	}
}

// DividendPolicy defines how dividend income on a portfolio is treated.
type DividendPolicy int

const (
	// DividendCash is plain cash dividends: commission applies, no income tax.
	DividendCash DividendPolicy = iota
	// DividendExempt dividends carry neither commission nor income tax.
	DividendExempt
	// DividendRSU dividends are taxed as income at the incTax rate.
	DividendRSU
	// DividendHybrid dividends pay both commission and income tax.
	DividendHybrid
)

func (p DividendPolicy) String() string {
	switch p {
	case DividendCash:
		return "cash"
	case DividendExempt:
		return "exempt"
	case DividendRSU:
		return "rsu"
	case DividendHybrid:
		return "hybrid"
	default:
		return "unknown"
	}
}

// incomeTaxed reports whether dividend income tax applies under the policy.
func (p DividendPolicy) incomeTaxed() bool { return p == DividendRSU || p == DividendHybrid }

// commissioned reports whether the dividend commission applies under the policy.
func (p DividendPolicy) commissioned() bool { return p != DividendExempt }

// FeeType defines how a management fee is expressed.
type FeeType int

const (
	// FeePercentage charges a fraction of the holding's market value per accrual.
	FeePercentage FeeType = iota
	// FeeFixed charges a fixed amount in portfolio currency per accrual.
	FeeFixed
)

func (t FeeType) String() string {
	switch t {
	case FeePercentage:
		return "percentage"
	case FeeFixed:
		return "fixed"
	default:
		return "unknown"
	}
}

// ManagementFee is a recurring fee specification.
type ManagementFee struct {
	Value     float64 // fraction for percentage fees, amount for fixed fees
	Type      FeeType
	Frequency Period // Monthly, Quarterly or Yearly
}

// IsZero reports whether no fee is configured.
func (f ManagementFee) IsZero() bool { return f.Value == 0 }

// CommissionSchedule is a trade commission specification: a rate bounded by
// a minimum and maximum charge, all in portfolio currency.
type CommissionSchedule struct {
	Rate float64
	Min  float64
	Max  float64
}

// TaxRates are the effective tax rates of a portfolio at a point in time.
type TaxRates struct {
	CGT    float64 // capital-gains tax rate
	Income float64 // income tax rate, applied to taxable dividends
}

// FeeSchedule are the effective fee parameters of a portfolio at a point in time.
type FeeSchedule struct {
	Commission             CommissionSchedule
	DividendCommissionRate float64
	Management             ManagementFee
}

// TaxOverride is a dated override of a portfolio's tax rates. Nil fields fall
// back to the portfolio base values, not to the previous override.
type TaxOverride struct {
	EffectiveDate Date
	CGT           *float64
	Income        *float64
}

// FeeOverride is a dated override of a portfolio's fee schedule. Nil fields
// fall back to the portfolio base values, not to the previous override.
type FeeOverride struct {
	EffectiveDate          Date
	CommissionRate         *float64
	CommissionMin          *float64
	CommissionMax          *float64
	DividendCommissionRate *float64
	ManagementValue        *float64
	ManagementType         *FeeType
	ManagementFrequency    *Period
}

// Portfolio is the immutable configuration of one portfolio, supplied by the
// external store. The engine never mutates it.
type Portfolio struct {
	ID        string
	Name      string
	Currency  string
	Inception Date

	Tax            TaxRates
	Fees           FeeSchedule
	TaxPolicy      TaxPolicy
	DividendPolicy DividendPolicy

	// Dated override histories. Order does not matter; resolution sorts.
	FeeHistory []FeeOverride
	TaxHistory []TaxOverride
}
