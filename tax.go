package portfolio

import "github.com/shopspring/decimal"

// realizeTax fills TaxableGain and Tax on a pending realization, using the
// portfolio's tax policy and the tax rates effective at the sell date.
//
// Under RealGain the cost basis is indexed by CPI between acquisition and
// disposal: adjustedCost = cost * cpiSell/cpiBuy, and the taxable gain is
// proceeds - adjustedCost - fees. When the CPI rose this is at most the
// nominal taxable gain. A missing index degrades to nominal behavior, with a
// warning rather than silently.
//
// Losses are taxed at zero and never offset other gains.
func (e *Engine) realizeTax(r *RealizedLot, p *Portfolio, lot *Lot, w *Warnings) {
	rates := EffectiveTaxRates(p, r.SellDate)

	switch p.TaxPolicy {
	case TaxFree:
		r.TaxableGain = M(0, p.Currency)
		r.Tax = M(0, p.Currency)
		return
	case RealGain:
		cpiBuy := lot.CPIAtBuy
		cpiSell := e.cpiAsOf(r.SellDate, r.Key, w)
		if cpiBuy > 0 && cpiSell > 0 {
			index := decimal.NewFromFloat(cpiSell).Div(decimal.NewFromFloat(cpiBuy))
			adjustedCost := Money{value: r.CostBasis.value.Mul(index), cur: p.Currency}
			r.TaxableGain = r.Proceeds.Sub(adjustedCost).Sub(r.BuyFee).Sub(r.SellFee)
		} else {
			// Index unavailable on one side or the other: nominal fallback.
			r.TaxableGain = r.GainNet
		}
	case NominalGain:
		r.TaxableGain = r.GainNet
	}

	taxable := r.TaxableGain
	if taxable.IsNegative() {
		taxable = M(0, p.Currency)
	}
	r.Tax = taxable.Mul(Q(rates.CGT))
}
