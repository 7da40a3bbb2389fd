package portfolio

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func feePortfolio(inception Date, fee ManagementFee) *Portfolio {
	return &Portfolio{
		ID: "p1", Currency: "USD",
		Inception: inception,
		Fees:      FeeSchedule{Management: fee},
	}
}

func flatPrice(v float64) PriceLookup {
	return func(string, string, Date) (float64, bool) { return v, true }
}

func TestAccrueRecurringFees_FixedMonthly(t *testing.T) {
	p := feePortfolio(NewDate(2023, time.January, 15),
		ManagementFee{Value: 100, Type: FeeFixed, Frequency: Monthly})
	e := NewEngine([]*Portfolio{p}, nil, nil)
	res, err := e.BuildLedger(nil, nil)
	require.NoError(t, err)

	e.AccrueRecurringFees(res, nil, NewDate(2023, time.June, 20))

	charges := res.PortfolioFees["p1"]
	require.Len(t, charges, 5, "Feb through Jun, one per month after inception")
	assert.Equal(t, NewDate(2023, time.February, 15), charges[0].Date)
	assert.Equal(t, NewDate(2023, time.June, 15), charges[4].Date)
	for _, c := range charges {
		assert.True(t, c.Amount.Equal(M(100, "USD")))
	}
}

func TestAccrueRecurringFees_MonthEndClamping(t *testing.T) {
	// Anchored on the 31st: short months clamp but do not drift the anchor.
	p := feePortfolio(NewDate(2023, time.January, 31),
		ManagementFee{Value: 10, Type: FeeFixed, Frequency: Monthly})
	e := NewEngine([]*Portfolio{p}, nil, nil)
	res, err := e.BuildLedger(nil, nil)
	require.NoError(t, err)

	e.AccrueRecurringFees(res, nil, NewDate(2023, time.April, 30))

	var dates []Date
	for _, c := range res.PortfolioFees["p1"] {
		dates = append(dates, c.Date)
	}
	assert.Equal(t, []Date{
		NewDate(2023, time.February, 28),
		NewDate(2023, time.March, 31),
		NewDate(2023, time.April, 30),
	}, dates)
}

func TestAccrueRecurringFees_PercentageOnHoldingValue(t *testing.T) {
	p := feePortfolio(NewDate(2023, time.January, 15),
		ManagementFee{Value: 0.01, Type: FeePercentage, Frequency: Monthly})
	e := NewEngine([]*Portfolio{p}, nil, nil)
	res, err := e.BuildLedger([]Transaction{
		buy(NewDate(2023, time.January, 15), 10, 40, 0),
	}, nil)
	require.NoError(t, err)

	e.AccrueRecurringFees(res, flatPrice(50), NewDate(2023, time.March, 20))

	h := res.Holdings[key()]
	require.Len(t, h.RecurringFees, 2)
	for _, c := range h.RecurringFees {
		// 10 shares at 50, 1% per accrual.
		assert.True(t, c.Amount.Equal(M(5, "USD")), "charge = %s", c.Amount)
	}
	assert.Empty(t, res.PortfolioFees["p1"], "percentage fees accrue per holding")
}

func TestAccrueRecurringFees_MissingPriceSkipsCharge(t *testing.T) {
	p := feePortfolio(NewDate(2023, time.January, 15),
		ManagementFee{Value: 0.01, Type: FeePercentage, Frequency: Monthly})
	e := NewEngine([]*Portfolio{p}, nil, nil)
	res, err := e.BuildLedger([]Transaction{
		buy(NewDate(2023, time.January, 15), 10, 40, 0),
	}, nil)
	require.NoError(t, err)

	noPrices := func(string, string, Date) (float64, bool) { return 0, false }
	e.AccrueRecurringFees(res, noPrices, NewDate(2023, time.March, 20))

	assert.Empty(t, res.Holdings[key()].RecurringFees)
	assert.True(t, res.Warnings.Has(WarnMissingPrice))
}

func TestAccrueRecurringFees_AnchorsOnFirstActivityWithoutInception(t *testing.T) {
	p := feePortfolio(Date{},
		ManagementFee{Value: 10, Type: FeeFixed, Frequency: Monthly})
	e := NewEngine([]*Portfolio{p}, nil, nil)
	res, err := e.BuildLedger([]Transaction{
		buy(NewDate(2023, time.March, 10), 10, 40, 0),
	}, nil)
	require.NoError(t, err)

	e.AccrueRecurringFees(res, nil, NewDate(2023, time.May, 15))

	charges := res.PortfolioFees["p1"]
	require.Len(t, charges, 2)
	assert.Equal(t, NewDate(2023, time.April, 10), charges[0].Date)
	assert.Equal(t, NewDate(2023, time.May, 10), charges[1].Date)
}

func TestAccrueRecurringFees_NoFeeConfigured(t *testing.T) {
	p := feePortfolio(NewDate(2023, time.January, 15), ManagementFee{})
	e := NewEngine([]*Portfolio{p}, nil, nil)
	res, err := e.BuildLedger([]Transaction{
		buy(NewDate(2023, time.January, 15), 10, 40, 0),
	}, nil)
	require.NoError(t, err)

	e.AccrueRecurringFees(res, flatPrice(50), NewDate(2024, time.January, 15))
	assert.Empty(t, res.PortfolioFees["p1"])
	assert.Empty(t, res.Holdings[key()].RecurringFees)
}
