package portfolio

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPerformance_DayOneIntradayGain(t *testing.T) {
	// Buy 10@100 and the instrument closes at 110 the same day: the first
	// point's TWR already carries the 10% move.
	prices := map[string]*History[float64]{
		"NASDAQ:AAPL": (&History[float64]{}).Append(NewDate(2023, time.January, 2), 110),
	}
	e := NewEngine(nil, nil, nil)
	s, err := e.CalculatePortfolioPerformance(
		[]Transaction{buy(NewDate(2023, time.January, 2), 10, 100, 0)},
		"USD", prices, NewDate(2023, time.January, 2))
	require.NoError(t, err)

	require.Len(t, s.Points, 1)
	pt := s.Points[0]
	assert.InDelta(t, 1100.0, pt.HoldingsValue, 1e-9)
	assert.InDelta(t, 1000.0, pt.CostBasis, 1e-9)
	assert.InDelta(t, 100.0, pt.GainsValue, 1e-9)
	assert.InDelta(t, 1.1, pt.TWR, 1e-9)
}

func TestPerformance_DepositDoesNotDistortTWR(t *testing.T) {
	prices := map[string]*History[float64]{
		"NASDAQ:AAPL": (&History[float64]{}).
			Append(NewDate(2023, time.February, 1), 110).
			Append(NewDate(2023, time.April, 1), 121),
	}
	e := NewEngine(nil, nil, nil)
	s, err := e.CalculatePortfolioPerformance([]Transaction{
		buy(NewDate(2023, time.January, 2), 10, 100, 0),
		buy(NewDate(2023, time.March, 1), 10, 110, 0), // doubles the money at work
	}, "USD", prices, NewDate(2023, time.April, 30))
	require.NoError(t, err)

	require.Len(t, s.Points, 4)
	assert.InDelta(t, 1.0, s.Points[0].TWR, 1e-9, "no move on the first trade day")
	assert.InDelta(t, 1.1, s.Points[1].TWR, 1e-9)
	// The mid-series deposit itself is return-neutral.
	assert.InDelta(t, 1.1, s.Points[2].TWR, 1e-9)
	assert.InDelta(t, 1.21, s.Points[3].TWR, 1e-9)
}

func TestPerformance_SellProceedsAreOutflows(t *testing.T) {
	prices := map[string]*History[float64]{
		"NASDAQ:AAPL": (&History[float64]{}).Append(NewDate(2023, time.February, 1), 110),
	}
	e := NewEngine(nil, nil, nil)
	s, err := e.CalculatePortfolioPerformance([]Transaction{
		buy(NewDate(2023, time.January, 2), 10, 100, 0),
		sell(NewDate(2023, time.March, 1), 10, 110, 0),
	}, "USD", prices, NewDate(2023, time.March, 31))
	require.NoError(t, err)

	last := s.Points[len(s.Points)-1]
	// Fully liquidated: nothing held, 1100 withdrawn against 1000 invested.
	assert.InDelta(t, 0.0, last.HoldingsValue, 1e-9)
	assert.InDelta(t, -100.0, last.CostBasis, 1e-9)
	assert.InDelta(t, 100.0, last.GainsValue, 1e-9)
	assert.InDelta(t, 1.1, last.TWR, 1e-9, "liquidation leaves the return index untouched")
}

func TestPerformance_GainsEqualValueMinusCostBasis(t *testing.T) {
	prices := map[string]*History[float64]{
		"NASDAQ:AAPL": (&History[float64]{}).
			Append(NewDate(2023, time.January, 20), 105).
			Append(NewDate(2023, time.February, 20), 95).
			Append(NewDate(2023, time.March, 20), 130),
	}
	e := NewEngine(nil, nil, nil)
	s, err := e.CalculatePortfolioPerformance([]Transaction{
		buy(NewDate(2023, time.January, 2), 10, 100, 0),
		sell(NewDate(2023, time.February, 25), 4, 96, 0),
		buy(NewDate(2023, time.March, 5), 8, 98, 0),
	}, "USD", prices, NewDate(2023, time.March, 31))
	require.NoError(t, err)

	require.NotEmpty(t, s.Points)
	for _, pt := range s.Points {
		assert.InDelta(t, pt.HoldingsValue-pt.CostBasis, pt.GainsValue, 1e-9, "on %s", pt.Date)
	}
}

func TestPerformance_QuietValuationDayChangesNothing(t *testing.T) {
	// An extra valuation point with an unchanged price and no transaction is
	// return-neutral: every trailing-window figure must stay identical.
	txs := []Transaction{
		buy(NewDate(2023, time.January, 2), 10, 100, 0),
		sell(NewDate(2023, time.February, 25), 4, 96, 0),
	}
	base := (&History[float64]{}).
		Append(NewDate(2023, time.January, 20), 105).
		Append(NewDate(2023, time.February, 20), 95).
		Append(NewDate(2023, time.March, 20), 130)
	quiet := (&History[float64]{}).
		Append(NewDate(2023, time.January, 20), 105).
		Append(NewDate(2023, time.February, 20), 95).
		Append(NewDate(2023, time.March, 10), 95). // no move since Feb 20
		Append(NewDate(2023, time.March, 20), 130)

	run := func(h *History[float64]) PeriodReturns {
		e := NewEngine(nil, nil, nil)
		s, err := e.CalculatePortfolioPerformance(txs, "USD",
			map[string]*History[float64]{"NASDAQ:AAPL": h}, NewDate(2023, time.March, 31))
		require.NoError(t, err)
		return CalculatePeriodReturns(s)
	}

	assert.Equal(t, run(base), run(quiet))
}

func TestPerformance_EmptyLog(t *testing.T) {
	e := NewEngine(nil, nil, nil)
	s, err := e.CalculatePortfolioPerformance(nil, "USD", nil, NewDate(2023, time.March, 31))
	require.NoError(t, err)
	assert.Empty(t, s.Points)
}

func TestPerformance_InvalidTransaction(t *testing.T) {
	e := NewEngine(nil, nil, nil)
	tx := buy(NewDate(2023, time.January, 2), 10, 100, 0)
	tx.Ticker = ""
	_, err := e.CalculatePortfolioPerformance([]Transaction{tx}, "USD", nil, NewDate(2023, time.March, 31))
	var integrity *IntegrityError
	assert.ErrorAs(t, err, &integrity)
}

func TestPerformance_ForeignCurrencyValuation(t *testing.T) {
	ils := (&History[float64]{}).Append(NewDate(2023, time.January, 1), 0.25)
	e := NewEngine(nil, DatedRates{"ILS": ils}, nil)

	tx := buy(NewDate(2023, time.January, 2), 10, 100, 0)
	tx.Currency = "ILS"
	s, err := e.CalculatePortfolioPerformance([]Transaction{tx}, "USD", nil, NewDate(2023, time.January, 31))
	require.NoError(t, err)

	require.Len(t, s.Points, 1)
	assert.InDelta(t, 250.0, s.Points[0].HoldingsValue, 1e-9)
	assert.InDelta(t, 250.0, s.Points[0].CostBasis, 1e-9)
}
