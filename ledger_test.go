package portfolio

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPortfolio(id string) *Portfolio {
	return &Portfolio{
		ID:        id,
		Name:      "Test " + id,
		Currency:  "USD",
		Inception: NewDate(2023, time.January, 1),
		Tax:       TaxRates{CGT: 0.25, Income: 0.25},
	}
}

func buy(on Date, qty, price, commission float64) Transaction {
	return Transaction{
		Date: on, PortfolioID: "p1", Ticker: "AAPL", Exchange: "NASDAQ",
		Type: Buy, Quantity: qty, Price: price, Currency: "USD", Commission: commission,
	}
}

func sell(on Date, qty, price, commission float64) Transaction {
	tx := buy(on, qty, price, commission)
	tx.Type = Sell
	return tx
}

func key() HoldingKey { return HoldingKey{PortfolioID: "p1", Ticker: "AAPL", Exchange: "NASDAQ"} }

func TestBuildLedger_BuyFeeAllocation(t *testing.T) {
	// Two buy lots (10 units/$10 fee, 10 units/$20 fee), selling 5 units
	// FIFO from lot 1 with a $5 sell commission.
	e := NewEngine([]*Portfolio{testPortfolio("p1")}, nil, nil)
	res, err := e.BuildLedger([]Transaction{
		buy(NewDate(2023, time.February, 1), 10, 10, 10),
		buy(NewDate(2023, time.March, 1), 10, 10, 20),
		sell(NewDate(2023, time.April, 1), 5, 60, 5),
	}, nil)
	require.NoError(t, err)
	e.Snapshot(res, NewDate(2023, time.April, 1))

	h := res.Holdings[key()]
	require.NotNil(t, h)
	require.Len(t, h.Realized, 1)

	r := h.Realized[0]
	assert.True(t, r.GainNet.Equal(M(240, "USD")), "realizedGainNet = %s", r.GainNet)
	assert.True(t, h.RealizedFees.Equal(M(10, "USD")), "realizedFees = %s", h.RealizedFees)
	assert.True(t, h.FeesTotal.Equal(M(35, "USD")), "feesTotal = %s", h.FeesTotal)

	// Lot 1 keeps 5 units and half of its $10 fee.
	require.Len(t, h.Lots, 2)
	assert.True(t, h.Lots[0].Quantity.Equal(Q(5)))
	assert.True(t, h.Lots[0].Fee.Equal(M(5, "USD")))
	assert.True(t, h.Lots[1].Fee.Equal(M(20, "USD")))
}

func TestBuildLedger_FIFOOrder(t *testing.T) {
	e := NewEngine([]*Portfolio{testPortfolio("p1")}, nil, nil)
	res, err := e.BuildLedger([]Transaction{
		// Intentionally out of order: the ledger sorts by date before replay.
		buy(NewDate(2023, time.March, 1), 10, 20, 0),
		buy(NewDate(2023, time.January, 10), 10, 10, 0),
		sell(NewDate(2023, time.June, 1), 15, 30, 0),
	}, nil)
	require.NoError(t, err)

	h := res.Holdings[key()]
	require.Len(t, h.Realized, 2)
	// Oldest lot consumed first, and fully.
	assert.Equal(t, NewDate(2023, time.January, 10), h.Realized[0].BuyDate)
	assert.True(t, h.Realized[0].Quantity.Equal(Q(10)))
	assert.Equal(t, NewDate(2023, time.March, 1), h.Realized[1].BuyDate)
	assert.True(t, h.Realized[1].Quantity.Equal(Q(5)))
	// The younger lot keeps the remainder.
	require.Len(t, h.Lots, 1)
	assert.True(t, h.Lots[0].Quantity.Equal(Q(5)))
}

func TestBuildLedger_Conservation(t *testing.T) {
	e := NewEngine([]*Portfolio{testPortfolio("p1")}, nil, nil)
	txs := []Transaction{
		buy(NewDate(2023, time.January, 2), 10, 10, 1),
		sell(NewDate(2023, time.February, 2), 4, 12, 1),
		buy(NewDate(2023, time.March, 2), 7, 11, 1),
		sell(NewDate(2023, time.April, 2), 8, 13, 1),
		sell(NewDate(2023, time.May, 2), 2, 14, 1),
	}
	res, err := e.BuildLedger(txs, nil)
	require.NoError(t, err)

	h := res.Holdings[key()]
	bought, sold := Q(0), Q(0)
	for _, tx := range txs {
		if tx.Type.isAcquisition() {
			bought = bought.Add(Q(tx.Quantity))
		} else {
			sold = sold.Add(Q(tx.Quantity))
		}
	}
	// Active quantity matches the net signed sum, and active+realized
	// accounts for every unit ever bought.
	assert.True(t, h.ActiveQuantity().Equal(bought.Sub(sold)))
	assert.True(t, h.ActiveQuantity().Add(h.RealizedQuantity()).Equal(bought))
}

func TestBuildLedger_FeeConservation(t *testing.T) {
	e := NewEngine([]*Portfolio{testPortfolio("p1")}, nil, nil)
	res, err := e.BuildLedger([]Transaction{
		buy(NewDate(2023, time.January, 2), 10, 10, 7),
		buy(NewDate(2023, time.February, 2), 5, 10, 3),
		sell(NewDate(2023, time.March, 2), 12, 12, 0),
		sell(NewDate(2023, time.April, 2), 1, 12, 0),
	}, nil)
	require.NoError(t, err)

	h := res.Holdings[key()]
	allocated := M(0, "USD")
	for _, l := range h.Lots {
		allocated = allocated.Add(l.Fee)
	}
	for _, r := range h.Realized {
		allocated = allocated.Add(r.BuyFee)
	}
	assert.True(t, allocated.Equal(M(10, "USD")), "allocated buy fees = %s, want the $10 paid", allocated)
}

func TestBuildLedger_Oversell(t *testing.T) {
	e := NewEngine([]*Portfolio{testPortfolio("p1")}, nil, nil)
	_, err := e.BuildLedger([]Transaction{
		buy(NewDate(2023, time.January, 2), 10, 10, 0),
		sell(NewDate(2023, time.February, 2), 11, 12, 0),
	}, nil)
	var oversell *OversellError
	require.ErrorAs(t, err, &oversell)
	assert.True(t, oversell.Requested.Equal(Q(11)))
	assert.True(t, oversell.Available.Equal(Q(10)))
}

func TestBuildLedger_IntegrityErrors(t *testing.T) {
	e := NewEngine([]*Portfolio{testPortfolio("p1")}, nil, nil)
	tests := []struct {
		name   string
		mutate func(*Transaction)
	}{
		{"missing ticker", func(tx *Transaction) { tx.Ticker = "" }},
		{"missing exchange", func(tx *Transaction) { tx.Exchange = "" }},
		{"missing date", func(tx *Transaction) { tx.Date = Date{} }},
		{"unknown portfolio", func(tx *Transaction) { tx.PortfolioID = "nope" }},
		{"negative quantity", func(tx *Transaction) { tx.Quantity = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := buy(NewDate(2023, time.January, 2), 10, 10, 0)
			tt.mutate(&tx)
			_, err := e.BuildLedger([]Transaction{tx}, nil)
			var integrity *IntegrityError
			assert.ErrorAs(t, err, &integrity)
		})
	}
}

func TestBuildLedger_EqualDateTiesKeepInputOrder(t *testing.T) {
	e := NewEngine([]*Portfolio{testPortfolio("p1")}, nil, nil)
	on := NewDate(2023, time.May, 1)
	res, err := e.BuildLedger([]Transaction{
		buy(on, 10, 10, 0), // must be replayed before the same-day sell
		sell(on, 10, 12, 0),
	}, nil)
	require.NoError(t, err)
	h := res.Holdings[key()]
	assert.True(t, h.ActiveQuantity().IsZero())
	require.Len(t, h.Realized, 1)
}

func TestBuildLedger_Transfers(t *testing.T) {
	e := NewEngine([]*Portfolio{testPortfolio("p1")}, nil, nil)
	vest := NewDate(2022, time.June, 15)
	in := Transaction{
		Date: NewDate(2023, time.January, 2), PortfolioID: "p1", Ticker: "AAPL", Exchange: "NASDAQ",
		Type: BuyTransfer, Quantity: 10, Price: 10, Currency: "USD", CreationDate: vest,
	}
	out := Transaction{
		Date: NewDate(2023, time.March, 2), PortfolioID: "p1", Ticker: "AAPL", Exchange: "NASDAQ",
		Type: SellTransfer, Quantity: 4, Price: 10, Currency: "USD",
	}
	res, err := e.BuildLedger([]Transaction{in, out}, nil)
	require.NoError(t, err)

	h := res.Holdings[key()]
	// Transfer-in keeps the original acquisition date as basis date.
	require.Len(t, h.Lots, 1)
	assert.Equal(t, vest, h.Lots[0].BuyDate)
	// Transfer-out realizes nothing taxable.
	require.Len(t, h.Realized, 1)
	r := h.Realized[0]
	assert.True(t, r.Transfer)
	assert.True(t, r.GainNet.IsZero())
	assert.True(t, r.Tax.IsZero())
	assert.True(t, r.Proceeds.Equal(r.CostBasis))
}

func TestBuildLedger_MultiCurrency(t *testing.T) {
	// ILS-denominated trade in a USD portfolio, converted at the dated rate.
	ils := &History[float64]{}
	ils.Append(NewDate(2023, time.January, 1), 0.25) // 1 ILS = 0.25 USD
	ils.Append(NewDate(2023, time.July, 1), 0.30)
	rates := DatedRates{"ILS": ils}

	e := NewEngine([]*Portfolio{testPortfolio("p1")}, rates, nil)
	tx := buy(NewDate(2023, time.February, 1), 10, 100, 8)
	tx.Currency = "ILS"
	res, err := e.BuildLedger([]Transaction{tx}, nil)
	require.NoError(t, err)

	h := res.Holdings[key()]
	require.Len(t, h.Lots, 1)
	lot := h.Lots[0]
	assert.True(t, lot.Price.Equal(M(25, "USD")), "price = %s", lot.Price)
	assert.True(t, lot.Fee.Equal(M(2, "USD")), "fee = %s", lot.Fee)
	assert.Equal(t, "USD", lot.Price.Currency())
	assert.True(t, lot.NativePrice.Equal(M(100, "ILS")))
	assert.Empty(t, res.Warnings)
}

func TestBuildLedger_MissingRateWarnsAndDegrades(t *testing.T) {
	e := NewEngine([]*Portfolio{testPortfolio("p1")}, DatedRates{}, nil)
	tx := buy(NewDate(2023, time.February, 1), 10, 100, 0)
	tx.Currency = "GBP"
	res, err := e.BuildLedger([]Transaction{tx}, nil)
	require.NoError(t, err, "missing rates are a quality issue, not an integrity error")
	assert.True(t, res.Warnings.Has(WarnMissingRate))
	h := res.Holdings[key()]
	assert.True(t, h.Lots[0].Price.IsZero(), "unavailable rate degrades to 0")
}

func TestBuildLedger_Determinism(t *testing.T) {
	txs := []Transaction{
		buy(NewDate(2023, time.January, 2), 10, 10, 1),
		sell(NewDate(2023, time.February, 2), 4, 12, 1),
		buy(NewDate(2023, time.March, 2), 7, 11, 1),
	}
	run := func() *Result {
		e := NewEngine([]*Portfolio{testPortfolio("p1")}, nil, nil)
		res, err := e.BuildLedger(txs, nil)
		require.NoError(t, err)
		e.Snapshot(res, NewDate(2023, time.June, 1))
		return res
	}
	a, b := run(), run()
	ha, hb := a.Holdings[key()], b.Holdings[key()]
	assert.True(t, ha.RealizedGainNet.Equal(hb.RealizedGainNet))
	assert.True(t, ha.FeesTotal.Equal(hb.FeesTotal))
	assert.Equal(t, len(ha.Realized), len(hb.Realized))
}
