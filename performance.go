package portfolio

import "sort"

// ValuationPoint is one day of the portfolio valuation series.
type ValuationPoint struct {
	Date Date

	// HoldingsValue is the mark-to-market value of all positions, in the
	// series' base currency.
	HoldingsValue float64

	// CostBasis is the net invested capital to date: cumulative buy cost
	// minus cumulative sell proceeds.
	CostBasis float64

	// GainsValue is realized-to-date plus unrealized-at-point. It equals
	// HoldingsValue - CostBasis by construction.
	GainsValue float64

	// TWR is the chain-linked time-weighted return index. It is 1.0 on the
	// series' first point when that day had no intraday move, and already
	// reflects a same-day price move after a buy.
	TWR float64
}

// PerformanceSeries is the daily valuation series of one transaction log.
type PerformanceSeries struct {
	BaseCurrency string
	Points       []ValuationPoint
	Warnings     Warnings
}

// instrument tracks the running state of one instrument during the series
// replay. Performance works in float64: it produces ratios, not ledger
// amounts.
type instrument struct {
	currency  string
	quantity  float64
	lastPrice float64 // last trade price, fallback when history has no point yet
}

// CalculatePortfolioPerformance builds the daily valuation series for a
// transaction log. The date axis is the union of transaction dates and
// price-history dates up to 'now'; priceHistory is keyed by
// "EXCHANGE:TICKER" in instrument currency.
//
// Sub-period returns are chain-linked between consecutive points with buys
// treated as start-of-day inflows and sell proceeds as end-of-day outflows:
//
//	r = (V + outflows) / (Vprev + inflows)
//
// so external cash flows do not distort the return, and a buy followed by a
// same-day price move shows up in that day's TWR.
func (e *Engine) CalculatePortfolioPerformance(txs []Transaction, baseCurrency string, priceHistory map[string]*History[float64], now Date) (*PerformanceSeries, error) {
	series := &PerformanceSeries{BaseCurrency: baseCurrency}
	for _, tx := range txs {
		if err := tx.validate(); err != nil {
			return nil, err
		}
	}
	if len(txs) == 0 {
		return series, nil
	}

	ordered := make([]Transaction, len(txs))
	copy(ordered, txs)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Date.Before(ordered[j].Date) })
	first := ordered[0].Date

	axis := dateAxis(ordered, priceHistory, first, now)

	instruments := map[string]*instrument{}
	txIdx := 0
	netInvested := 0.0
	twr := 1.0
	prevValue := 0.0

	for i, on := range axis {
		inflows, outflows := 0.0, 0.0
		for txIdx < len(ordered) && !ordered[txIdx].Date.After(on) {
			tx := ordered[txIdx]
			txIdx++
			key := tx.Key().PriceKey()
			inst, ok := instruments[key]
			if !ok {
				inst = &instrument{currency: tx.Currency}
				instruments[key] = inst
			}
			inst.lastPrice = tx.Price
			amount := tx.Quantity * tx.Price * e.rateAt(tx.Currency, baseCurrency, tx.Date, &series.Warnings)
			if tx.Type.isAcquisition() {
				inst.quantity += tx.Quantity
				inflows += amount
				netInvested += amount
			} else {
				inst.quantity -= tx.Quantity
				outflows += amount
				netInvested -= amount
			}
		}

		value := 0.0
		instKeys := make([]string, 0, len(instruments))
		for k := range instruments {
			instKeys = append(instKeys, k)
		}
		sort.Strings(instKeys)
		for _, k := range instKeys {
			inst := instruments[k]
			if inst.quantity == 0 {
				continue
			}
			price := inst.lastPrice
			if h := priceHistory[k]; h != nil {
				if p, ok := h.ValueAsOf(on); ok {
					price = p
				}
			}
			value += inst.quantity * price * e.rateAt(inst.currency, baseCurrency, on, &series.Warnings)
		}

		if i == 0 {
			if inflows > 0 {
				twr = (value + outflows) / inflows
			}
		} else {
			denom := prevValue + inflows
			if denom > 0 {
				twr *= (value + outflows) / denom
			}
		}
		prevValue = value

		series.Points = append(series.Points, ValuationPoint{
			Date:          on,
			HoldingsValue: value,
			CostBasis:     netInvested,
			GainsValue:    value - netInvested,
			TWR:           twr,
		})
	}
	return series, nil
}

// rateAt converts 1 unit of 'from' into 'to' at a date, degrading to 0 with
// a warning when unresolvable.
func (e *Engine) rateAt(from, to string, on Date, w *Warnings) float64 {
	if from == to || from == "" {
		return 1
	}
	if e.Rates == nil {
		w.add(e.Logger, WarnMissingRate, from+to, on, "no rate source configured, value degraded to 0")
		return 0
	}
	fromUSD, okFrom := e.Rates.RateVsUSD(from, on)
	toUSD, okTo := e.Rates.RateVsUSD(to, on)
	if !okFrom || !okTo || toUSD == 0 {
		w.add(e.Logger, WarnMissingRate, from+to, on, "unresolved exchange rate, value degraded to 0")
		return 0
	}
	return fromUSD / toUSD
}

// dateAxis merges transaction dates and price dates into a sorted unique
// axis bounded by [first, now].
func dateAxis(ordered []Transaction, priceHistory map[string]*History[float64], first, now Date) []Date {
	seen := map[Date]bool{}
	var axis []Date
	add := func(on Date) {
		if on.Before(first) || on.After(now) || seen[on] {
			return
		}
		seen[on] = true
		axis = append(axis, on)
	}
	for _, tx := range ordered {
		add(tx.Date)
	}
	for _, h := range priceHistory {
		if h == nil {
			continue
		}
		for on := range h.Values() {
			add(on)
		}
	}
	sort.Slice(axis, func(i, j int) bool { return axis[i].Before(axis[j]) })
	return axis
}
