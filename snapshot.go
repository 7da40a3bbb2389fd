package portfolio

// HydratePrices installs live prices on holdings. Prices are keyed by
// "EXCHANGE:TICKER" and quoted in the instrument's native currency. This is
// an explicit second phase after BuildLedger: ledger state never depends on
// prices, so hydration may be repeated whenever prices refresh.
//
// A holding with no price stays PriceKnown=false and its unrealized gain is
// reported as unknown, not as a worthless position.
func (e *Engine) HydratePrices(res *Result, prices map[string]float64) {
	for _, h := range res.sortedHoldings() {
		price, ok := prices[h.Key.PriceKey()]
		if !ok {
			h.PriceKnown = false
			h.CurrentPrice = 0
			if h.ActiveQuantity().IsPositive() {
				res.Warnings.addOnce(e.Logger, WarnMissingPrice, h.Key.PriceKey(), Date{},
					"no live price, unrealized gain unknown")
			}
			continue
		}
		h.CurrentPrice = price
		h.PriceKnown = true
	}
}

// Snapshot recomputes every holding aggregate from the ledger output, the
// dividends and the recurring fees. It is idempotent: it derives everything
// from scratch, so it may be re-run after each HydratePrices without
// replaying transactions. 'on' dates the currency conversion of the
// unrealized gain.
func (e *Engine) Snapshot(res *Result, on Date) {
	for _, h := range res.sortedHoldings() {
		e.snapshotHolding(h, on, &res.Warnings)
	}
}

func (e *Engine) snapshotHolding(h *Holding, on Date, w *Warnings) {
	cur := h.PortfolioCurrency
	zero := M(0, cur)

	active := ActiveSummary{Quantity: Q(0), CostBasis: zero, Fees: zero, AvgPrice: zero}
	for _, l := range h.Lots {
		active.Quantity = active.Quantity.Add(l.Quantity)
		active.CostBasis = active.CostBasis.Add(l.CostBasis())
		active.Fees = active.Fees.Add(l.Fee)
	}
	if active.Quantity.IsPositive() {
		active.AvgPrice = active.CostBasis.Div(active.Quantity)
	}
	h.Active = active

	h.RealizedGainNet, h.RealizedTax, h.RealizedFees = zero, zero, zero
	for _, r := range h.Realized {
		h.RealizedGainNet = h.RealizedGainNet.Add(r.GainNet)
		h.RealizedTax = h.RealizedTax.Add(r.Tax)
		h.RealizedFees = h.RealizedFees.Add(r.Fees())
	}

	h.DividendsTotal = zero
	for _, d := range h.Dividends {
		h.DividendsTotal = h.DividendsTotal.Add(d.Net)
	}

	recurring := zero
	for _, c := range h.RecurringFees {
		recurring = recurring.Add(c.Amount)
	}
	// Active buy fees + realized buy fees + sell fees + recurring fees.
	h.FeesTotal = active.Fees.Add(h.RealizedFees).Add(recurring)

	if h.PriceKnown && active.Quantity.IsPositive() {
		value := e.convert(M(h.CurrentPrice, h.Currency).Mul(active.Quantity), cur, on, w)
		// Cost basis is fees-adjusted: the unallocated buy fees of the active
		// lots count against the position.
		h.UnrealizedGain = value.Sub(active.CostBasis).Sub(active.Fees)
		h.UnrealizedKnown = true
	} else if !active.Quantity.IsPositive() {
		h.UnrealizedGain = zero
		h.UnrealizedKnown = true
	} else {
		h.UnrealizedGain = zero
		h.UnrealizedKnown = false
	}
}
