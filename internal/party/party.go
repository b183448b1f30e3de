// Package party implements the two per-role state machines and the linked
// (cross-party) rules that run after every transition: keep-alive downgrade
// and forced-close propagation between the client and server sides of one
// connection.
//
// State transition tables are exhaustive maps over (state, event kind),
// which statically documents every legal combination the way a
// goto-per-parser-state machine documents every legal byte transition.
package party

// State is one party's position in the exchange.
type State uint8

const (
	Idle State = iota
	// SendResponse is server-only: request headers are in, a response is owed.
	SendResponse
	SendBody
	// MightSwitchProtocol is client-only: a CONNECT request has been sent and
	// its outcome (tunnel established or refused) is still unknown.
	MightSwitchProtocol
	Done
	MustClose
	Closed
	// SwitchedProtocol is terminal for both parties: framing no longer
	// applies, following a successful CONNECT or a 101 Upgrade.
	SwitchedProtocol
	Error
)

func (s State) String() string {
	switch s {
	case Idle:
		return "IDLE"
	case SendResponse:
		return "SEND_RESPONSE"
	case SendBody:
		return "SEND_BODY"
	case MightSwitchProtocol:
		return "MIGHT_SWITCH_PROTOCOL"
	case Done:
		return "DONE"
	case MustClose:
		return "MUST_CLOSE"
	case Closed:
		return "CLOSED"
	case SwitchedProtocol:
		return "SWITCHED_PROTOCOL"
	case Error:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Kind is the discriminant of an outgoing/incoming event, used to index the
// transition tables. It mirrors the root package's Event tagged union.
type Kind uint8

const (
	KindRequest Kind = iota
	KindInformationalResponse
	KindResponse
	KindData
	KindEndOfMessage
	KindConnectionClosed
)

type edge struct {
	from State
	kind Kind
}

// clientTable is the request-sending side's transition table, plus
// MightSwitchProtocol's extension of SendBody's edges (a CONNECT request
// behaves like any other while it's being sent; only its post-Request state
// differs, which Connection applies as an override in place of this lookup).
var clientTable = map[edge]State{
	{Idle, KindRequest}:                 SendBody,
	{SendBody, KindData}:                SendBody,
	{SendBody, KindEndOfMessage}:        Done,
	{MightSwitchProtocol, KindData}:     MightSwitchProtocol,
	{MightSwitchProtocol, KindEndOfMessage}: MightSwitchProtocol,
}

// serverTable is the response-sending side's transition table. The IDLE ->
// SEND_RESPONSE edge is driven by the client reaching
// SEND_BODY/MightSwitchProtocol, which Connection applies directly rather
// than through a Kind (it isn't triggered by an event the server itself
// sent or received).
var serverTable = map[edge]State{
	{SendResponse, KindInformationalResponse}: SendResponse,
	{SendResponse, KindResponse}:              SendBody,
	{SendBody, KindData}:                      SendBody,
	{SendBody, KindEndOfMessage}:               Done,
}

var closeTable = map[State]bool{
	Idle: true, Done: true, MustClose: true, Closed: true, Error: true,
}

// Client looks up the client table, plus the ConnectionClosed edge shared by
// IDLE and every terminal-ish state (DONE, MUST_CLOSE, CLOSED, ERROR).
func Client(state State, kind Kind) (State, bool) {
	if kind == KindConnectionClosed && closeTable[state] {
		return Closed, true
	}

	next, ok := clientTable[edge{state, kind}]
	return next, ok
}

// Server looks up the server table, plus the same ConnectionClosed edge.
func Server(state State, kind Kind) (State, bool) {
	if kind == KindConnectionClosed && closeTable[state] {
		return Closed, true
	}

	next, ok := serverTable[edge{state, kind}]
	return next, ok
}

// Recompute applies the linked rules that run after every individual
// transition: the keep-alive downgrade (DONE -> MUST_CLOSE) and
// the forced-close propagation (one party CLOSED while the other is still
// DONE/IDLE forces MUST_CLOSE on it). ERROR is not touched here; it's sticky
// and set directly by Connection when a protocol violation is detected.
func Recompute(client, server State, keepAlive bool) (State, State) {
	if !keepAlive {
		client = downgrade(client)
		server = downgrade(server)
	}

	if client == Closed && (server == Done || server == Idle) {
		server = MustClose
	}

	if server == Closed && (client == Done || client == Idle) {
		client = MustClose
	}

	return client, server
}

func downgrade(s State) State {
	if s == Done {
		return MustClose
	}

	return s
}
