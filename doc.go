// Package portfolio is the accounting, tax and performance engine of a
// multi-portfolio, multi-currency holdings tracker. It derives everything
// from a raw event log supplied by an external store; it never fetches,
// persists, or renders anything itself.
//
// The core functionalities include:
//   - Lot Ledger: a FIFO cost-basis engine that replays BUY/SELL events per
//     (portfolio, ticker, exchange) into active lots and immutable realized
//     lots, with proportional buy/sell fee allocation.
//   - Tax Calculation: capital-gains tax per realized lot under nominal,
//     CPI-indexed real-gain, or tax-free jurisdictional policies.
//   - Dividend Processing: per-event gross/fee/net income against the share
//     quantity actually held at the event date.
//   - Fee and Tax Schedules: effective-dated per-field overrides of a
//     portfolio's base commission, management-fee and tax rates.
//   - Rate Resolution: currency rates vs USD from direct pair observations
//     and 2-hop chains, per named time period.
//   - Recurring Fees: periodic management-fee accrual with month-end
//     clamping, valued by an injected price lookup.
//   - Performance: a daily valuation series with a chain-linked
//     time-weighted-return index, and trailing-window return extraction.
//
// The engine is synchronous, deterministic, and free of shared mutable
// state: identical inputs produce identical outputs, with "now" always an
// explicit argument. Data-quality issues degrade to documented defaults and
// are reported as warnings on the result; data-integrity issues abort the
// run with typed errors before any partial state is exposed.
package portfolio
