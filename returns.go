package portfolio

// PeriodReturns are the trailing-window returns extracted from a valuation
// series: TWR-based percentages and absolute dollar gains per window.
type PeriodReturns struct {
	Perf1w  Percent
	Perf1m  Percent
	Perf3m  Percent
	PerfYtd Percent
	Perf1y  Percent
	Perf3y  Percent
	Perf5y  Percent
	PerfAll Percent

	Gain1w  float64
	Gain1m  float64
	Gain3m  float64
	GainYtd float64
	Gain1y  float64
	Gain3y  float64
	Gain5y  float64
	GainAll float64
}

// CalculatePeriodReturns extracts the named trailing windows from a series.
//
// Each window's target date is the calendar subtraction of the window length
// from the last point's date (YTD targets the end of the prior year). The
// baseline is the latest point dated at or before the target; a target that
// predates the series counts as "no change": TWR 1.0 and gains 0.
//
// The all-time window is measured against the index base (TWR 1.0, gains 0)
// rather than any calendar-derived date, so a series whose first and last
// points carry the same TWR still reports its full lifetime return.
//
// Dollar gains are deltas of GainsValue over the window, never back-solved
// from the percentage return and current value: back-solving misstates the
// dollar figure whenever large deposits occurred mid-window.
func CalculatePeriodReturns(s *PerformanceSeries) PeriodReturns {
	var pr PeriodReturns
	if s == nil || len(s.Points) == 0 {
		return pr
	}
	last := s.Points[len(s.Points)-1]

	pr.Perf1w, pr.Gain1w = s.windowFrom(last, last.Date.Add(-7))
	pr.Perf1m, pr.Gain1m = s.windowFrom(last, last.Date.AddMonths(-1))
	pr.Perf3m, pr.Gain3m = s.windowFrom(last, last.Date.AddMonths(-3))
	pr.PerfYtd, pr.GainYtd = s.windowFrom(last, last.Date.StartOf(Yearly).Add(-1))
	pr.Perf1y, pr.Gain1y = s.windowFrom(last, last.Date.AddYears(-1))
	pr.Perf3y, pr.Gain3y = s.windowFrom(last, last.Date.AddYears(-3))
	pr.Perf5y, pr.Gain5y = s.windowFrom(last, last.Date.AddYears(-5))

	pr.PerfAll = Percent(last.TWR - 1)
	pr.GainAll = last.GainsValue
	return pr
}

// windowFrom computes the return and gain between the baseline at 'target'
// and the last point.
func (s *PerformanceSeries) windowFrom(last ValuationPoint, target Date) (Percent, float64) {
	base, ok := s.pointAsOf(target)
	if !ok {
		// Pre-history: no change.
		return Percent(last.TWR - 1), last.GainsValue
	}
	ret := Percent(0)
	if base.TWR != 0 {
		ret = Percent(last.TWR/base.TWR - 1)
	}
	return ret, last.GainsValue - base.GainsValue
}

// pointAsOf returns the latest point dated at or before the target.
func (s *PerformanceSeries) pointAsOf(target Date) (ValuationPoint, bool) {
	for i := len(s.Points) - 1; i >= 0; i-- {
		if !s.Points[i].Date.After(target) {
			return s.Points[i], true
		}
	}
	return ValuationPoint{}, false
}
