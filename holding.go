package portfolio

// Dividend is the computed income of one dividend event for one holding.
type Dividend struct {
	Date     Date
	Quantity Quantity // shares held at the event date
	PerShare Money    // instrument currency

	// Portfolio currency.
	Gross     Money
	Fee       Money
	IncomeTax Money
	Net       Money

	Source string
}

// FeeCharge is one recurring management-fee accrual.
type FeeCharge struct {
	Date   Date
	Amount Money // portfolio currency
	Source string
}

// ActiveSummary aggregates the active lots of a holding.
type ActiveSummary struct {
	Quantity  Quantity
	CostBasis Money // excluding fees
	Fees      Money // unallocated buy fees
	AvgPrice  Money // cost-weighted average per unit; zero when no position
}

// Holding owns every computed artifact for one (portfolio, ticker, exchange):
// active lots, realizations, dividends, recurring fees, and the aggregates
// derived from them. Aggregates are filled by Snapshot and may be recomputed
// whenever prices refresh, without replaying transactions.
type Holding struct {
	Key               HoldingKey
	Currency          string // instrument currency, from its first transaction
	PortfolioCurrency string

	Lots          []*Lot
	Realized      []RealizedLot
	Dividends     []Dividend
	RecurringFees []FeeCharge

	// CurrentPrice is hydrated externally after ledger construction, in
	// instrument currency. PriceKnown=false means "unavailable", and the
	// unrealized gain is then unknown rather than zero.
	CurrentPrice float64
	PriceKnown   bool

	// Aggregates, portfolio currency. Valid after Snapshot.
	Active          ActiveSummary
	DividendsTotal  Money
	RealizedGainNet Money
	RealizedTax     Money
	RealizedFees    Money
	FeesTotal       Money
	UnrealizedGain  Money
	UnrealizedKnown bool

	qtyHistory    []qtyPoint
	seenDividends map[string]bool
}

// qtyPoint is the holding's total active quantity right after a transaction.
type qtyPoint struct {
	on    Date
	total Quantity
}

func newHolding(key HoldingKey, instrumentCurrency, portfolioCurrency string) *Holding {
	return &Holding{
		Key:               key,
		Currency:          instrumentCurrency,
		PortfolioCurrency: portfolioCurrency,
		seenDividends:     map[string]bool{},
	}
}

// ActiveQuantity is the total quantity across active lots.
func (h *Holding) ActiveQuantity() Quantity {
	var total Quantity
	for _, l := range h.Lots {
		total = total.Add(l.Quantity)
	}
	return total
}

// RealizedQuantity is the total quantity across realized lots.
func (h *Holding) RealizedQuantity() Quantity {
	var total Quantity
	for _, r := range h.Realized {
		total = total.Add(r.Quantity)
	}
	return total
}

// QuantityAsOf replays the holding's quantity history and returns the shares
// held at end of the given date, transactions of that date included.
func (h *Holding) QuantityAsOf(on Date) Quantity {
	for i := len(h.qtyHistory) - 1; i >= 0; i-- {
		if !h.qtyHistory[i].on.After(on) {
			return h.qtyHistory[i].total
		}
	}
	return Q(0)
}

// recordQuantity appends the current active quantity to the history.
func (h *Holding) recordQuantity(on Date) {
	h.qtyHistory = append(h.qtyHistory, qtyPoint{on: on, total: h.ActiveQuantity()})
}
