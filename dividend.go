package portfolio

import "sort"

// processDividends computes gross, fee, income tax and net amounts for every
// dividend event against every holding of the event's instrument. The share
// quantity is the one held at the event date, replayed from the ledger's
// quantity history, not the final position.
//
// Events are deduplicated per holding by their idempotency key, so re-synced
// feeds cannot double-count a dividend.
func (e *Engine) processDividends(res *Result, events []DividendEvent) {
	ordered := make([]DividendEvent, len(events))
	copy(ordered, events)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Date.Before(ordered[j].Date) })

	holdings := res.sortedHoldings()
	for _, ev := range ordered {
		for _, h := range holdings {
			if h.Key.Ticker != ev.Ticker || h.Key.Exchange != ev.Exchange {
				continue
			}
			id := ev.idempotencyKey()
			if h.seenDividends[id] {
				res.Warnings.add(e.Logger, WarnDuplicateEvent, id, ev.Date, "duplicate dividend event skipped")
				continue
			}
			h.seenDividends[id] = true

			qty := h.QuantityAsOf(ev.Date)
			if !qty.IsPositive() {
				continue // no shares held at the event date
			}
			p := e.portfolios[h.Key.PortfolioID]
			h.Dividends = append(h.Dividends, e.dividendIncome(h, p, ev, qty, &res.Warnings))
		}
	}
}

// dividendIncome computes one holding's income from one event. The per-share
// amount is quoted in the instrument currency and converted at the event
// date; commission and income tax follow the portfolio's dividend policy and
// the schedules effective at the event date.
func (e *Engine) dividendIncome(h *Holding, p *Portfolio, ev DividendEvent, qty Quantity, w *Warnings) Dividend {
	perShare := M(ev.PerShareAmount, h.Currency)
	gross := e.convert(perShare.Mul(qty), p.Currency, ev.Date, w)

	fee := M(0, p.Currency)
	if p.DividendPolicy.commissioned() {
		rate := EffectiveFees(p, ev.Date).DividendCommissionRate
		fee = gross.Mul(Q(rate))
	}
	incomeTax := M(0, p.Currency)
	if p.DividendPolicy.incomeTaxed() {
		rate := EffectiveTaxRates(p, ev.Date).Income
		incomeTax = gross.Mul(Q(rate))
	}

	return Dividend{
		Date:      ev.Date,
		Quantity:  qty,
		PerShare:  perShare,
		Gross:     gross,
		Fee:       fee,
		IncomeTax: incomeTax,
		Net:       gross.Sub(fee).Sub(incomeTax),
		Source:    ev.Source,
	}
}
