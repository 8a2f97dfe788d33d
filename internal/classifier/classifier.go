// Package classifier decides what a plate scan means given the ledger state.
//
// A plain scan carries no direction and self-classifies from session
// presence. A scan with an explicit hint (secondary sensor, operator
// override) is checked against the ledger instead: when the two disagree the
// event is a conflict and the ledger must stay untouched. Ledger state always
// wins over the hint.
package classifier

// Disposition is the classifier's decision for one scan event.
type Disposition string

const (
	DispositionEnter    Disposition = "enter"
	DispositionExit     Disposition = "exit"
	DispositionConflict Disposition = "conflict"
)

// Hint is the optional direction supplied with a scan event.
type Hint string

const (
	HintNone  Hint = ""
	HintEnter Hint = "enter"
	HintExit  Hint = "exit"
)

// Valid reports whether the hint is one of the known values.
func (h Hint) Valid() bool {
	return h == HintNone || h == HintEnter || h == HintExit
}

// Classify maps (current ledger state, requested action) to a disposition.
//
//	no open session + enter/scan -> enter
//	open session    + exit/scan  -> exit
//	no open session + exit       -> conflict
//	open session    + enter      -> conflict
func Classify(hasOpenSession bool, hint Hint) Disposition {
	if hasOpenSession {
		if hint == HintEnter {
			return DispositionConflict
		}
		return DispositionExit
	}
	if hint == HintExit {
		return DispositionConflict
	}
	return DispositionEnter
}
