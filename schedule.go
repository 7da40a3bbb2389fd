package portfolio

import "sort"

// EffectiveTaxRates resolves the tax rates that applied on a given date.
// Time-of-day never matters: both the query date and effective dates have
// day granularity. The latest override whose effective date is on or before
// the query date wins; absent fields fall back to the portfolio base values.
func EffectiveTaxRates(p *Portfolio, on Date) TaxRates {
	rates := p.Tax
	if o, ok := latestTaxOverride(p.TaxHistory, on); ok {
		if o.CGT != nil {
			rates.CGT = *o.CGT
		}
		if o.Income != nil {
			rates.Income = *o.Income
		}
	}
	return rates
}

// EffectiveFees resolves the fee schedule that applied on a given date,
// with the same per-field fallback rule as EffectiveTaxRates.
func EffectiveFees(p *Portfolio, on Date) FeeSchedule {
	fees := p.Fees
	o, ok := latestFeeOverride(p.FeeHistory, on)
	if !ok {
		return fees
	}
	if o.CommissionRate != nil {
		fees.Commission.Rate = *o.CommissionRate
	}
	if o.CommissionMin != nil {
		fees.Commission.Min = *o.CommissionMin
	}
	if o.CommissionMax != nil {
		fees.Commission.Max = *o.CommissionMax
	}
	if o.DividendCommissionRate != nil {
		fees.DividendCommissionRate = *o.DividendCommissionRate
	}
	if o.ManagementValue != nil {
		fees.Management.Value = *o.ManagementValue
	}
	if o.ManagementType != nil {
		fees.Management.Type = *o.ManagementType
	}
	if o.ManagementFrequency != nil {
		fees.Management.Frequency = *o.ManagementFrequency
	}
	return fees
}

func latestTaxOverride(history []TaxOverride, on Date) (TaxOverride, bool) {
	sorted := make([]TaxOverride, len(history))
	copy(sorted, history)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[j].EffectiveDate.Before(sorted[i].EffectiveDate)
	})
	for _, o := range sorted {
		if !o.EffectiveDate.After(on) {
			return o, true
		}
	}
	return TaxOverride{}, false
}

func latestFeeOverride(history []FeeOverride, on Date) (FeeOverride, bool) {
	sorted := make([]FeeOverride, len(history))
	copy(sorted, history)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[j].EffectiveDate.Before(sorted[i].EffectiveDate)
	})
	for _, o := range sorted {
		if !o.EffectiveDate.After(on) {
			return o, true
		}
	}
	return FeeOverride{}, false
}
