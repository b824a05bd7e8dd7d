package dialogue

import "strings"

// Kind identifies what the user asked for in one turn.
type Kind int

const (
	// KindUnknown is any request the dialogue has no handler for.
	KindUnknown Kind = iota
	KindLaunch
	KindStart
	KindList
	KindYes
	KindNo
	KindCancel
	KindHelp
)

var kindNames = [...]string{
	KindUnknown: "unknown",
	KindLaunch:  "launch",
	KindStart:   "start",
	KindList:    "list",
	KindYes:     "yes",
	KindNo:      "no",
	KindCancel:  "cancel",
	KindHelp:    "help",
}

// String returns the lower-case name of k.
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// Event is one user turn as the dialogue sees it. Slot carries the spoken
// presentation name of a [KindStart] event and is ignored otherwise.
type Event struct {
	Kind Kind
	Slot string
}

// Intent names understood by [EventFromTurn].
const (
	IntentStartPresentation = "StartPresentation"
	IntentListPresentations = "ListPresentations"
	IntentYes               = "AMAZON.YesIntent"
	IntentNo                = "AMAZON.NoIntent"
	IntentStop              = "AMAZON.StopIntent"
	IntentCancel            = "AMAZON.CancelIntent"
	IntentHelp              = "AMAZON.HelpIntent"

	// SlotPresentation is the slot holding the spoken presentation name.
	SlotPresentation = "Presentation"
)

// Turn is the platform-level input of one turn: an intent name and the
// value of its presentation slot, if any.
type Turn struct {
	Intent string
	Slot   string
}

// EventFromTurn maps a platform intent onto a dialogue event.
func EventFromTurn(t Turn) Event {
	switch t.Intent {
	case IntentStartPresentation:
		return Event{Kind: KindStart, Slot: strings.TrimSpace(t.Slot)}
	case IntentListPresentations:
		return Event{Kind: KindList}
	case IntentYes:
		return Event{Kind: KindYes}
	case IntentNo:
		return Event{Kind: KindNo}
	case IntentStop, IntentCancel:
		return Event{Kind: KindCancel}
	case IntentHelp:
		return Event{Kind: KindHelp}
	default:
		return Event{Kind: KindUnknown}
	}
}
