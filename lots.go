package portfolio

// HoldingKey identifies one instrument within one portfolio.
type HoldingKey struct {
	PortfolioID string
	Ticker      string
	Exchange    string
}

func (k HoldingKey) String() string {
	return k.PortfolioID + "/" + k.Exchange + ":" + k.Ticker
}

// PriceKey returns the "EXCHANGE:TICKER" key used by the live price map.
func (k HoldingKey) PriceKey() string { return k.Exchange + ":" + k.Ticker }

// Lot is a quantity of a security acquired in one BUY event, tracked
// independently for cost basis. A SELL consumes lots oldest-first,
// decrementing Quantity and Fee proportionally; an exhausted lot is removed
// from the holding.
type Lot struct {
	Key              HoldingKey
	BuyDate          Date
	OriginalQuantity Quantity
	Quantity         Quantity // remaining
	NativePrice      Money    // per unit, instrument currency
	Price            Money    // per unit, portfolio currency
	OriginalFee      Money    // total buy fee of the lot, portfolio currency
	Fee              Money    // unallocated remainder of OriginalFee
	Currency         string   // instrument currency
	CPIAtBuy         float64  // index at acquisition; 0 when unknown. RealGain only.
}

// CostBasis is the remaining cost of the lot in portfolio currency,
// excluding fees.
func (l *Lot) CostBasis() Money { return l.Price.Mul(l.Quantity) }

// feeFor allocates the buy fee for a consumed quantity. The per-unit fee is
// constant over the lot's lifetime: fee(qty) = qty * OriginalFee/OriginalQuantity.
func (l *Lot) feeFor(qty Quantity) Money {
	return l.OriginalFee.Mul(qty).Div(l.OriginalQuantity)
}

// RealizedLot is the immutable record of one SELL-against-lot match.
type RealizedLot struct {
	Key      HoldingKey
	Quantity Quantity
	BuyDate  Date
	SellDate Date

	// Per unit, portfolio currency.
	BuyPrice  Money
	SellPrice Money

	Proceeds  Money // Quantity * SellPrice
	CostBasis Money // Quantity * BuyPrice
	BuyFee    Money // allocated from the source lot
	SellFee   Money // share of the sell commission

	GainGross Money // Proceeds - CostBasis
	GainNet   Money // GainGross - BuyFee - SellFee

	TaxableGain Money // CPI-adjusted under RealGain, GainNet otherwise
	Tax         Money

	// Transfer marks a SELL_TRANSFER realization: the position moved out at
	// cost, with no gain and no tax.
	Transfer bool
}

// Fees is the total of buy and sell fees allocated to this realization.
func (r RealizedLot) Fees() Money { return r.BuyFee.Add(r.SellFee) }
