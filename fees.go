package portfolio

import (
	"sort"
	"time"
)

// PriceLookup supplies a historical price for an instrument on a date, in
// the instrument's native currency. It is the only external collaborator of
// the recurring-fee generator; fetching, caching and retries live with the
// caller.
type PriceLookup func(ticker, exchange string, on Date) (float64, bool)

// AccrueRecurringFees synthesizes management-fee charges from each
// portfolio's fee schedule, from inception up to and including 'now'.
//
// Percentage fees accrue per holding on its market value at the accrual
// date; fixed fees accrue once per portfolio per accrual date. Accruals are
// anchored on the inception's day-of-month; a day beyond the target month's
// length clamps to the month's last day. Charges never change quantities.
//
// The pass is additive-only and runs after BuildLedger; re-running it would
// double-charge, so callers run it exactly once per Result.
func (e *Engine) AccrueRecurringFees(res *Result, prices PriceLookup, now Date) {
	ids := make([]string, 0, len(e.portfolios))
	for id := range e.portfolios {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		p := e.portfolios[id]
		holdings := res.portfolioHoldings(id)
		start := p.Inception
		if start.IsZero() {
			start = earliestActivity(holdings)
		}
		if start.IsZero() {
			continue // no inception and no activity, nothing to accrue
		}

		anchorDay := start.Day()
		prev := start
		for {
			fee := EffectiveFees(p, prev).Management
			months := fee.Frequency.Months()
			if months == 0 {
				months = Monthly.Months()
			}
			on := nextAccrual(prev, months, anchorDay)
			if on.After(now) {
				break
			}
			prev = on

			fee = EffectiveFees(p, on).Management
			if fee.IsZero() {
				continue
			}
			switch fee.Type {
			case FeeFixed:
				res.PortfolioFees[id] = append(res.PortfolioFees[id], FeeCharge{
					Date:   on,
					Amount: M(fee.Value, p.Currency),
					Source: "management",
				})
			case FeePercentage:
				for _, h := range holdings {
					e.accruePercentage(h, p, fee, on, prices, &res.Warnings)
				}
			}
		}
	}
}

// accruePercentage charges one percentage-fee accrual against one holding.
func (e *Engine) accruePercentage(h *Holding, p *Portfolio, fee ManagementFee, on Date, prices PriceLookup, w *Warnings) {
	qty := h.QuantityAsOf(on)
	if !qty.IsPositive() {
		return
	}
	price, ok := prices(h.Key.Ticker, h.Key.Exchange, on)
	if !ok {
		w.add(e.Logger, WarnMissingPrice, h.Key.PriceKey(), on, "no price for fee accrual, charge skipped")
		return
	}
	value := e.convert(M(price, h.Currency).Mul(qty), p.Currency, on, w)
	h.RecurringFees = append(h.RecurringFees, FeeCharge{
		Date:   on,
		Amount: value.Mul(Q(fee.Value)),
		Source: "management",
	})
}

// nextAccrual returns the accrual date 'months' after 'prev', re-anchored on
// the original day-of-month so that clamping in a short month does not drift
// later accruals (Jan 31 -> Feb 28 -> Mar 31).
func nextAccrual(prev Date, months, anchorDay int) Date {
	first := NewDate(prev.Year(), prev.Month()+time.Month(months), 1)
	last := NewDate(first.Year(), first.Month()+1, 0)
	day := anchorDay
	if day > last.Day() {
		day = last.Day()
	}
	return NewDate(first.Year(), first.Month(), day)
}

func earliestActivity(holdings []*Holding) Date {
	var first Date
	for _, h := range holdings {
		if len(h.qtyHistory) == 0 {
			continue
		}
		on := h.qtyHistory[0].on
		if first.IsZero() || on.Before(first) {
			first = on
		}
	}
	return first
}

// portfolioHoldings returns the portfolio's holdings in deterministic order.
func (r *Result) portfolioHoldings(id string) []*Holding {
	var out []*Holding
	for _, h := range r.Holdings {
		if h.Key.PortfolioID == id {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key.String() < out[j].Key.String() })
	return out
}
