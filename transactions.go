package portfolio

import "fmt"

// TxType is the kind of a securities transaction.
type TxType int

const (
	Buy TxType = iota
	Sell
	// BuyTransfer moves a position into the portfolio at its original cost.
	BuyTransfer
	// SellTransfer moves a position out of the portfolio at cost; it realizes
	// no gain, no tax and no sell fee.
	SellTransfer
)

func (t TxType) String() string {
	switch t {
	case Buy:
		return "BUY"
	case Sell:
		return "SELL"
	case BuyTransfer:
		return "BUY_TRANSFER"
	case SellTransfer:
		return "SELL_TRANSFER"
	default:
		return "unknown"
	}
}

// ParseTxType parses a string into a TxType.
func ParseTxType(s string) (TxType, error) {
	switch s {
	case "BUY":
		return Buy, nil
	case "SELL":
		return Sell, nil
	case "BUY_TRANSFER":
		return BuyTransfer, nil
	case "SELL_TRANSFER":
		return SellTransfer, nil
	default:
		return 0, fmt.Errorf("unknown transaction type: %q", s)
	}
}

// isAcquisition reports whether the transaction type opens lots.
func (t TxType) isAcquisition() bool { return t == Buy || t == BuyTransfer }

// Transaction is one raw event from the external store. Quantities and
// amounts are plain floats at the boundary; the engine converts them to
// exact decimals on ingestion.
type Transaction struct {
	Date        Date
	PortfolioID string
	Ticker      string
	Exchange    string
	Type        TxType
	Quantity    float64
	Price       float64 // per unit, in Currency
	Currency    string
	Commission  float64 // in Currency

	// CreationDate is the original acquisition (vest) date of a transferred
	// position. When set on a BuyTransfer it becomes the lot's basis date.
	CreationDate Date
	Source       string
	InstrumentID int64
}

// Key returns the holding key the transaction belongs to.
func (t Transaction) Key() HoldingKey {
	return HoldingKey{PortfolioID: t.PortfolioID, Ticker: t.Ticker, Exchange: t.Exchange}
}

// validate checks the integrity of a single transaction. Failures here are
// fatal for the whole engine run.
func (t Transaction) validate() error {
	switch {
	case t.Date.IsZero():
		return &IntegrityError{Reason: "transaction has no date", Tx: &t}
	case t.Ticker == "":
		return &IntegrityError{Reason: "transaction has no ticker", Tx: &t}
	case t.Exchange == "":
		return &IntegrityError{Reason: "transaction has no exchange", Tx: &t}
	case t.PortfolioID == "":
		return &IntegrityError{Reason: "transaction has no portfolio", Tx: &t}
	case t.Quantity <= 0:
		return &IntegrityError{Reason: "transaction quantity must be positive", Tx: &t}
	case t.Price < 0:
		return &IntegrityError{Reason: "transaction price must not be negative", Tx: &t}
	case t.Commission < 0:
		return &IntegrityError{Reason: "transaction commission must not be negative", Tx: &t}
	}
	return nil
}

// DividendEvent is one dividend announcement from the external store,
// expressed as a per-share amount in the instrument's native currency.
type DividendEvent struct {
	Ticker         string
	Exchange       string
	Date           Date
	PerShareAmount float64
	Source         string
}

// idempotencyKey identifies a dividend event, so that re-synced duplicates
// are suppressed without any process-global state.
func (d DividendEvent) idempotencyKey() string {
	return d.Exchange + ":" + d.Ticker + "|" + d.Date.String() + "|" + d.Source
}
