package httpcore

import (
	"github.com/framewire/httpcore/header"
	"github.com/framewire/httpcore/method"
	"github.com/framewire/httpcore/status"
	"github.com/framewire/httpcore/version"
)

// Event is the tagged union produced and consumed at the boundary of a
// Connection. Method, target, reason, header names and values are byte
// strings; no textual decoding happens beyond what RFC 7230 grammar
// requires.
type Event interface {
	isEvent()
}

// Request is a client->server event: the request line plus headers.
type Request struct {
	Method  method.Method
	Target  []byte
	Version version.Version
	Headers *header.List
}

// InformationalResponse is a server->client 1xx response (100-199).
type InformationalResponse struct {
	Status  status.Code
	Version version.Version
	Reason  []byte
	Headers *header.List
}

// Response is a server->client response with a status of 200 or above.
type Response struct {
	Status  status.Code
	Version version.Version
	Reason  []byte
	Headers *header.List
}

// Data carries a chunk of a message body, in either direction.
type Data struct {
	Payload []byte
}

// EndOfMessage terminates a message body, in either direction. Trailers is
// non-nil but possibly empty; it is only ever populated for chunked bodies.
type EndOfMessage struct {
	Trailers *header.List
}

// ConnectionClosed announces (or requests, on Send) that the connection is
// being shut down.
type ConnectionClosed struct{}

func (Request) isEvent()                {}
func (InformationalResponse) isEvent()  {}
func (Response) isEvent()               {}
func (Data) isEvent()                   {}
func (EndOfMessage) isEvent()           {}
func (ConnectionClosed) isEvent()       {}

// sentinel results returned only from NextEvent.
type needDataSentinel struct{}
type pausedSentinel struct{}

func (needDataSentinel) isEvent() {}
func (pausedSentinel) isEvent()   {}

// NeedData is returned by NextEvent when more bytes must be fed via
// ReceiveData before a full event can be produced.
var NeedData Event = needDataSentinel{}

// Paused is returned by NextEvent when framing is intentionally ambiguous
// and reading must stop: after our side sends into MUST_CLOSE but before
// the socket is actually closed, and after entering SWITCHED_PROTOCOL.
var Paused Event = pausedSentinel{}
