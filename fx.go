package portfolio

import (
	"sort"

	"github.com/rs/zerolog"
)

// RatePeriod names one column of the exchange-rate table.
type RatePeriod string

const (
	PeriodCurrent RatePeriod = "current"
	PeriodAgo1d   RatePeriod = "ago1d"
	PeriodAgo1w   RatePeriod = "ago1w"
	PeriodAgo1m   RatePeriod = "ago1m"
	PeriodAgo3m   RatePeriod = "ago3m"
	PeriodYTD     RatePeriod = "ytd"
	PeriodAgo1y   RatePeriod = "ago1y"
	PeriodAgo3y   RatePeriod = "ago3y"
	PeriodAgo5y   RatePeriod = "ago5y"
)

// RatePeriods lists every period of the table, newest first.
var RatePeriods = []RatePeriod{
	PeriodCurrent, PeriodAgo1d, PeriodAgo1w, PeriodAgo1m, PeriodAgo3m,
	PeriodYTD, PeriodAgo1y, PeriodAgo3y, PeriodAgo5y,
}

// ReferenceCurrency anchors all resolved rates.
const ReferenceCurrency = "USD"

// MandatoryCurrencies must resolve in every period; a missing one defaults to
// 0 with a data-quality warning, and callers treat 0 as "unavailable".
var MandatoryCurrencies = []string{"USD", "EUR", "ILS"}

// RateTable holds raw currency-pair observations per period. Keys are
// 6-letter pair codes, e.g. "EURUSD" is the price of 1 EUR in USD.
type RateTable map[RatePeriod]map[string]float64

// pairRate returns the price of 1 unit of 'from' in 'to' using a single
// observed pair, in either orientation.
func pairRate(pairs map[string]float64, from, to string) (float64, bool) {
	if v, ok := pairs[from+to]; ok && v != 0 {
		return v, true
	}
	if v, ok := pairs[to+from]; ok && v != 0 {
		return 1 / v, true
	}
	return 0, false
}

// resolveIn resolves a currency against USD within one period's observations:
// the direct USD edge first, then the first 2-hop chain through an
// intermediate currency. The search never goes deeper than two hops.
func resolveIn(pairs map[string]float64, currency string) (float64, bool) {
	if currency == ReferenceCurrency {
		return 1, true
	}
	if v, ok := pairRate(pairs, currency, ReferenceCurrency); ok {
		return v, true
	}
	// 2-hop: currency -> mid -> USD. Pair keys are iterated sorted so the
	// "first found" chain is deterministic.
	keys := make([]string, 0, len(pairs))
	for k := range pairs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if len(k) != 6 {
			continue
		}
		base, quote := k[:3], k[3:]
		var mid string
		switch currency {
		case base:
			mid = quote
		case quote:
			mid = base
		default:
			continue
		}
		if mid == ReferenceCurrency {
			continue // that would be the direct edge, already tried
		}
		toMid, ok := pairRate(pairs, currency, mid)
		if !ok {
			continue
		}
		midToUSD, ok := pairRate(pairs, mid, ReferenceCurrency)
		if !ok {
			continue
		}
		return toMid * midToUSD, true
	}
	return 0, false
}

// Resolve answers "1 unit of currency in USD at period". The current period
// falls back to ago1d when unresolved; no other period has a fallback.
func (t RateTable) Resolve(period RatePeriod, currency string) (float64, bool) {
	if v, ok := resolveIn(t[period], currency); ok {
		return v, true
	}
	if period == PeriodCurrent {
		return resolveIn(t[PeriodAgo1d], currency)
	}
	return 0, false
}

// ResolveAll resolves every requested currency (plus the mandatory ones) for
// every period. Unresolvable entries are set to 0 and recorded as warnings,
// never as errors.
func (t RateTable) ResolveAll(currencies []string, log zerolog.Logger, w *Warnings) map[RatePeriod]map[string]float64 {
	wanted := make([]string, 0, len(currencies)+len(MandatoryCurrencies))
	seen := map[string]bool{}
	for _, c := range append(append([]string{}, MandatoryCurrencies...), currencies...) {
		if !seen[c] {
			seen[c] = true
			wanted = append(wanted, c)
		}
	}
	sort.Strings(wanted)

	resolved := make(map[RatePeriod]map[string]float64, len(RatePeriods))
	for _, period := range RatePeriods {
		resolved[period] = make(map[string]float64, len(wanted))
		for _, c := range wanted {
			v, ok := t.Resolve(period, c)
			if !ok {
				w.add(log, WarnMissingRate, c, Date{},
					"no rate vs "+ReferenceCurrency+" at period "+string(period)+", defaulting to 0")
			}
			resolved[period][c] = v
		}
	}
	return resolved
}

// RateSource answers dated currency conversions. The period table adapts to
// it through RateSource(); callers with true dated rate histories should use
// DatedRates instead.
type RateSource interface {
	RateVsUSD(currency string, on Date) (float64, bool)
}

// DatedRates is a per-currency dated history of rates vs USD.
type DatedRates map[string]*History[float64]

func (d DatedRates) RateVsUSD(currency string, on Date) (float64, bool) {
	if currency == ReferenceCurrency {
		return 1, true
	}
	h, ok := d[currency]
	if !ok || h == nil {
		return 0, false
	}
	v, ok := h.ValueAsOf(on)
	if !ok || v == 0 {
		return 0, false
	}
	return v, true
}

// RateSource adapts the period table for callers that only have period data:
// every date resolves through the current period (with its ago1d fallback).
func (t RateTable) RateSource() RateSource { return staticRates{t} }

type staticRates struct{ table RateTable }

func (s staticRates) RateVsUSD(currency string, _ Date) (float64, bool) {
	v, ok := s.table.Resolve(PeriodCurrent, currency)
	if !ok || v == 0 {
		return 0, false
	}
	return v, true
}
