package portfolio

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Engine derives holdings, gains, taxes and fees from a raw event log. It is
// a pure, synchronous transformation: given the same portfolios, rates, CPI
// and events, its output is reproducible bit for bit. It performs no I/O;
// prices and rates are injected by the caller.
type Engine struct {
	portfolios map[string]*Portfolio
	Rates      RateSource
	CPI        *History[float64] // inflation index for RealGain portfolios

	// Logger receives data-quality warnings. Defaults to a no-op logger.
	Logger zerolog.Logger
}

// NewEngine creates an engine over the given immutable portfolio
// configurations. rates may be nil when every event is already in portfolio
// currency; cpi may be nil when no portfolio uses RealGain.
func NewEngine(portfolios []*Portfolio, rates RateSource, cpi *History[float64]) *Engine {
	byID := make(map[string]*Portfolio, len(portfolios))
	for _, p := range portfolios {
		byID[p.ID] = p
	}
	return &Engine{portfolios: byID, Rates: rates, CPI: cpi, Logger: zerolog.Nop()}
}

// Portfolio returns a configured portfolio by id.
func (e *Engine) Portfolio(id string) (*Portfolio, bool) {
	p, ok := e.portfolios[id]
	return p, ok
}

// Result is the outcome of one engine run. Warnings list the data-quality
// issues encountered; they never abort the run.
type Result struct {
	Holdings map[HoldingKey]*Holding

	// PortfolioFees holds fixed-type recurring management fees, which accrue
	// per portfolio rather than per holding.
	PortfolioFees map[string][]FeeCharge

	Warnings Warnings
}

// sortedHoldings returns every holding in deterministic key order. Passes
// that emit warnings iterate holdings through it so identical runs produce
// identical warning sequences.
func (r *Result) sortedHoldings() []*Holding {
	keys := make([]HoldingKey, 0, len(r.Holdings))
	for k := range r.Holdings {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	out := make([]*Holding, 0, len(keys))
	for _, k := range keys {
		out = append(out, r.Holdings[k])
	}
	return out
}

// BuildLedger replays the transaction log into per-holding FIFO lot ledgers
// and processes dividend events against them. Transactions are grouped by
// (portfolio, ticker, exchange) and replayed in ascending date order; equal
// dates keep their input order, which is therefore part of the contract.
//
// Integrity failures (unknown portfolio, malformed transaction, oversell)
// abort the run with a typed error and no partial state.
func (e *Engine) BuildLedger(txs []Transaction, dividends []DividendEvent) (*Result, error) {
	for _, tx := range txs {
		if err := tx.validate(); err != nil {
			return nil, err
		}
		if _, ok := e.portfolios[tx.PortfolioID]; !ok {
			return nil, &IntegrityError{Reason: fmt.Sprintf("unknown portfolio %q", tx.PortfolioID), Tx: &tx}
		}
	}

	groups := make(map[HoldingKey][]Transaction)
	var keys []HoldingKey
	for _, tx := range txs {
		k := tx.Key()
		if _, ok := groups[k]; !ok {
			keys = append(keys, k)
		}
		groups[k] = append(groups[k], tx)
	}
	// Deterministic holding order regardless of input interleaving.
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })

	res := &Result{
		Holdings:      make(map[HoldingKey]*Holding, len(groups)),
		PortfolioFees: map[string][]FeeCharge{},
	}
	for _, key := range keys {
		group := groups[key]
		sort.SliceStable(group, func(i, j int) bool { return group[i].Date.Before(group[j].Date) })

		p := e.portfolios[key.PortfolioID]
		h := newHolding(key, group[0].Currency, p.Currency)
		if err := e.replay(h, p, group, &res.Warnings); err != nil {
			return nil, err
		}
		res.Holdings[key] = h
	}

	e.processDividends(res, dividends)
	return res, nil
}

// replay applies a holding's transactions, oldest first.
func (e *Engine) replay(h *Holding, p *Portfolio, group []Transaction, w *Warnings) error {
	for _, tx := range group {
		switch tx.Type {
		case Buy, BuyTransfer:
			e.applyBuy(h, p, tx, w)
		case Sell, SellTransfer:
			if err := e.applySell(h, p, tx, w); err != nil {
				return err
			}
		}
		h.recordQuantity(tx.Date)
	}
	return nil
}

// applyBuy converts the event to portfolio currency and pushes a new lot.
func (e *Engine) applyBuy(h *Holding, p *Portfolio, tx Transaction, w *Warnings) {
	qty := Q(tx.Quantity)
	nativePrice := M(tx.Price, tx.Currency)
	price := e.convert(nativePrice, p.Currency, tx.Date, w)

	fee := M(0, p.Currency)
	if tx.Type == Buy {
		fee = e.convert(M(tx.Commission, tx.Currency), p.Currency, tx.Date, w)
	}

	buyDate := tx.Date
	if tx.Type == BuyTransfer && !tx.CreationDate.IsZero() {
		buyDate = tx.CreationDate
	}

	lot := &Lot{
		Key:              h.Key,
		BuyDate:          buyDate,
		OriginalQuantity: qty,
		Quantity:         qty,
		NativePrice:      nativePrice,
		Price:            price,
		OriginalFee:      fee,
		Fee:              fee,
		Currency:         tx.Currency,
	}
	if p.TaxPolicy == RealGain {
		lot.CPIAtBuy = e.cpiAsOf(buyDate, h.Key, w)
	}
	h.Lots = append(h.Lots, lot)
}

// applySell consumes active lots oldest-first, producing one realized lot per
// lot touched. The sell commission is allocated across consumed lots
// proportionally to the quantity drawn from each.
func (e *Engine) applySell(h *Holding, p *Portfolio, tx Transaction, w *Warnings) error {
	qty := Q(tx.Quantity)
	available := h.ActiveQuantity()
	if qty.GreaterThan(available) {
		return &OversellError{Key: h.Key, Date: tx.Date, Requested: qty, Available: available}
	}

	transfer := tx.Type == SellTransfer
	sellPrice := e.convert(M(tx.Price, tx.Currency), p.Currency, tx.Date, w)
	sellFee := M(0, p.Currency)
	if !transfer {
		sellFee = e.convert(M(tx.Commission, tx.Currency), p.Currency, tx.Date, w)
	}

	remaining := qty
	for remaining.IsPositive() {
		lot := h.Lots[0]
		take := lot.Quantity
		if remaining.LessThan(take) {
			take = remaining
		}

		buyFee := lot.feeFor(take)
		r := RealizedLot{
			Key:       h.Key,
			Quantity:  take,
			BuyDate:   lot.BuyDate,
			SellDate:  tx.Date,
			BuyPrice:  lot.Price,
			SellPrice: sellPrice,
			CostBasis: lot.Price.Mul(take),
			BuyFee:    buyFee,
			Transfer:  transfer,
		}
		if transfer {
			// Position moves at cost: no proceeds beyond basis, no fees
			// charged, no gain, no tax. The allocated buy fee still travels
			// with the realization so that fee conservation holds.
			r.Proceeds = r.CostBasis
			r.SellPrice = lot.Price
			r.SellFee = M(0, p.Currency)
			r.GainGross = M(0, p.Currency)
			r.GainNet = M(0, p.Currency)
			r.TaxableGain = M(0, p.Currency)
			r.Tax = M(0, p.Currency)
		} else {
			r.Proceeds = sellPrice.Mul(take)
			r.SellFee = sellFee.Mul(take).Div(qty)
			r.GainGross = r.Proceeds.Sub(r.CostBasis)
			r.GainNet = r.GainGross.Sub(r.BuyFee).Sub(r.SellFee)
			e.realizeTax(&r, p, lot, w)
		}
		h.Realized = append(h.Realized, r)

		lot.Quantity = lot.Quantity.Sub(take)
		lot.Fee = lot.Fee.Sub(buyFee)
		if lot.Quantity.IsZero() {
			h.Lots = h.Lots[1:]
		}
		remaining = remaining.Sub(take)
	}
	return nil
}

// convert changes an amount to the target currency at a given date, crossing
// through the reference currency. A missing rate degrades to a zero amount
// with a warning; callers treat zero as "unavailable".
func (e *Engine) convert(m Money, to string, on Date, w *Warnings) Money {
	from := m.Currency()
	if from == "" || from == to {
		return Money{value: m.value, cur: to}
	}
	if e.Rates == nil {
		w.add(e.Logger, WarnMissingRate, from+to, on, "no rate source configured, amount degraded to 0")
		return M(0, to)
	}
	fromUSD, okFrom := e.Rates.RateVsUSD(from, on)
	toUSD, okTo := e.Rates.RateVsUSD(to, on)
	if !okFrom || !okTo || toUSD == 0 {
		w.add(e.Logger, WarnMissingRate, from+to, on, "unresolved exchange rate, amount degraded to 0")
		return M(0, to)
	}
	rate := decimal.NewFromFloat(fromUSD).Div(decimal.NewFromFloat(toUSD))
	return Money{value: m.value.Mul(rate), cur: to}
}

// cpiAsOf returns the nearest index value at or before the date, or 0 with a
// warning when the index has no usable point.
func (e *Engine) cpiAsOf(on Date, key HoldingKey, w *Warnings) float64 {
	if e.CPI == nil {
		w.add(e.Logger, WarnMissingCPI, key.String(), on, "no CPI index configured")
		return 0
	}
	v, ok := e.CPI.ValueAsOf(on)
	if !ok {
		w.add(e.Logger, WarnMissingCPI, key.String(), on, "no CPI value at or before date")
		return 0
	}
	return v
}
