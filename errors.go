package portfolio

import "fmt"

// IntegrityError reports a transaction that cannot be processed at all.
// The engine fails fast on it and exposes no partial holding state.
type IntegrityError struct {
	Reason string
	Tx     *Transaction
}

func (e *IntegrityError) Error() string {
	if e.Tx == nil {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s %s %s on %s", e.Reason, e.Tx.Type, e.Tx.Exchange, e.Tx.Ticker, e.Tx.Date)
}

// OversellError reports a SELL whose quantity exceeds the active quantity of
// its holding. The ledger never fabricates negative-quantity lots and never
// opens short positions.
type OversellError struct {
	Key       HoldingKey
	Date      Date
	Requested Quantity
	Available Quantity
}

func (e *OversellError) Error() string {
	return fmt.Sprintf("sell of %s exceeds active quantity %s for %s on %s",
		e.Requested, e.Available, e.Key, e.Date)
}
