package portfolio

import "github.com/rs/zerolog"

// WarningKind classifies a recoverable data-quality issue.
type WarningKind string

const (
	WarnMissingRate     WarningKind = "missing-rate"
	WarnMissingCPI      WarningKind = "missing-cpi"
	WarnMissingPrice    WarningKind = "missing-price"
	WarnDuplicateEvent  WarningKind = "duplicate-event"
	WarnMissingCurrency WarningKind = "missing-currency"
)

// Warning records a data-quality issue encountered during a run. Warnings
// never abort the computation; the affected value degrades to a documented
// default instead.
type Warning struct {
	Kind    WarningKind
	Subject string // currency code, "EXCHANGE:TICKER", pair code...
	Date    Date
	Message string
}

// Warnings collects warnings for one engine run.
type Warnings []Warning

// add records a warning and logs it through the given logger.
func (w *Warnings) add(log zerolog.Logger, kind WarningKind, subject string, on Date, msg string) {
	*w = append(*w, Warning{Kind: kind, Subject: subject, Date: on, Message: msg})
	ev := log.Warn().Str("kind", string(kind)).Str("subject", subject)
	if !on.IsZero() {
		ev = ev.Str("date", on.String())
	}
	ev.Msg(msg)
}

// addOnce records the warning unless an identical one is already present.
// Re-runnable passes like price hydration use it so repeated runs do not
// accumulate duplicates.
func (w *Warnings) addOnce(log zerolog.Logger, kind WarningKind, subject string, on Date, msg string) {
	for _, warning := range *w {
		if warning.Kind == kind && warning.Subject == subject && warning.Date == on && warning.Message == msg {
			return
		}
	}
	w.add(log, kind, subject, on, msg)
}

// Has reports whether a warning of the given kind was recorded.
func (w Warnings) Has(kind WarningKind) bool {
	for _, warning := range w {
		if warning.Kind == kind {
			return true
		}
	}
	return false
}
