package httpcore

import "github.com/framewire/httpcore/internal/party"

// State is a party's position in the exchange. The transition tables live
// in internal/party; this alias keeps them private while still exposing
// the enum values callers need for OurState/TheirState.
type State = party.State

const (
	Idle                = party.Idle
	SendResponse        = party.SendResponse
	SendBody            = party.SendBody
	MightSwitchProtocol = party.MightSwitchProtocol
	Done                = party.Done
	MustClose           = party.MustClose
	Closed              = party.Closed
	SwitchedProtocol    = party.SwitchedProtocol
	ErrorState          = party.Error
)
