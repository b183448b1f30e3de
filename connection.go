// Package httpcore is a sans-I/O HTTP/1.1 protocol engine: a Connection
// turns bytes into Events and Events into bytes for one TCP connection,
// without ever touching a socket, a timer or a goroutine itself. The
// caller owns all I/O; Connection owns only the state machine.
package httpcore

import (
	"github.com/framewire/httpcore/header"
	"github.com/framewire/httpcore/internal/framing"
	"github.com/framewire/httpcore/internal/iobuf"
	"github.com/framewire/httpcore/internal/party"
	"github.com/framewire/httpcore/internal/reader"
	"github.com/framewire/httpcore/internal/wire"
	"github.com/framewire/httpcore/internal/writer"
	"github.com/framewire/httpcore/method"
	"github.com/framewire/httpcore/status"
	"github.com/framewire/httpcore/version"
)

// Connection is one side (Client or Server) of one HTTP/1.1 connection.
// It is not safe for concurrent use; a caller driving a real socket
// serializes access to it the same way it serializes reads and writes on
// the socket itself.
type Connection struct {
	role Role
	cfg  Config

	ourState   State
	theirState State
	keepAlive  bool
	errored    bool

	recvBuf *iobuf.Buffer

	reqReader  *reader.RequestReader
	respReader *reader.ResponseReader

	outFraming framing.Info
	outChunked bool
	sentMethod method.Method
	recvMethod method.Method

	theirVersion version.Version

	weAreWaitingFor100Continue   bool
	theyAreWaitingFor100Continue bool
}

// New builds a Connection for role over a fresh, empty connection.
func New(role Role, cfg Config) *Connection {
	c := &Connection{
		role:       role,
		cfg:        cfg,
		ourState:   Idle,
		theirState: Idle,
		keepAlive:  true,
		recvBuf:    iobuf.New(cfg.MaxBufferedBytes),
	}

	switch role {
	case Server:
		c.reqReader = reader.NewRequestReader(cfg.MaxHeaderBlockSize, cfg.MaxHeaderCount, cfg.MaxTrailerCount)
	default:
		c.respReader = reader.NewResponseReader(cfg.MaxHeaderBlockSize, cfg.MaxHeaderCount, cfg.MaxTrailerCount)
	}

	return c
}

// OurState reports this party's position in the exchange.
func (c *Connection) OurState() State { return c.ourState }

// TheirState reports the peer's position in the exchange, as inferred from
// what has been sent to or received from them.
func (c *Connection) TheirState() State { return c.theirState }

// OurRole reports which side of the connection this Connection drives.
func (c *Connection) OurRole() Role { return c.role }

// TheirHTTPVersion reports the version the peer negotiated in the most
// recently received message head. It is version.Unknown before any head
// has been received.
func (c *Connection) TheirHTTPVersion() version.Version { return c.theirVersion }

// ClientIsWaitingFor100Continue reports whether a request carrying
// "Expect: 100-continue" has been sent and no response has arrived yet.
// Meaningful only for a Client-role Connection.
func (c *Connection) ClientIsWaitingFor100Continue() bool {
	return c.weAreWaitingFor100Continue
}

// TheyAreWaitingFor100Continue reports whether the peer sent a request
// carrying "Expect: 100-continue" and no response has been sent yet.
// Meaningful only for a Server-role Connection.
func (c *Connection) TheyAreWaitingFor100Continue() bool {
	return c.theyAreWaitingFor100Continue
}

// TrailingData returns bytes fed via ReceiveData but not yet consumed, and
// clears them from the internal buffer. Used once SWITCHED_PROTOCOL is
// reached: whatever arrived after the 101/CONNECT boundary belongs to the
// tunneled protocol, not to this engine.
func (c *Connection) TrailingData() []byte {
	b := append([]byte(nil), c.recvBuf.Bytes()...)
	c.recvBuf.Advance(len(b))
	return b
}

// ReceiveData feeds bytes read from the peer. A zero-length chunk signals
// that the peer has closed its write side (EOF).
func (c *Connection) ReceiveData(data []byte) error {
	if c.errored {
		return ErrAlreadyErrored
	}

	if len(data) == 0 {
		c.recvBuf.SetEOF()
		return nil
	}

	if c.recvBuf.EOF() {
		c.setErrored()
		return ErrDataAfterClose
	}

	if !c.recvBuf.Feed(data) {
		c.setErrored()
		return ErrHeaderBlockTooLarge
	}

	return nil
}

// NextEvent decodes and returns the next Event available from previously
// fed bytes. It returns NeedData when a full event isn't available yet and
// Paused when reading must stop: until StartNextCycle is called, until the
// peer's EOF arrives once our side is MUST_CLOSE, or for good once
// SWITCHED_PROTOCOL is reached (the bytes that follow are then available
// through TrailingData).
func (c *Connection) NextEvent() (Event, error) {
	if c.errored {
		return nil, ErrAlreadyErrored
	}

	if c.ourState == SwitchedProtocol || c.theirState == SwitchedProtocol {
		return Paused, nil
	}

	if c.readingPaused() {
		return Paused, nil
	}

	if c.role == Server {
		return c.serverNextEvent()
	}

	return c.clientNextEvent()
}

// StartNextCycle resets both parties to IDLE after a DONE/DONE keep-alive
// cycle, so a pipelined next request already sitting in the receive buffer
// can be decoded. It refuses to run otherwise: a caller that hasn't
// finished consuming the previous message's EndOfMessage has no business
// asking for the next one.
func (c *Connection) StartNextCycle() error {
	if c.errored {
		return ErrAlreadyErrored
	}

	if c.ourState != Done || c.theirState != Done {
		return ErrNotDoneYet
	}

	c.ourState = Idle
	c.theirState = Idle
	c.keepAlive = true
	c.sentMethod = method.Unknown
	c.recvMethod = method.Unknown
	c.weAreWaitingFor100Continue = false
	c.theyAreWaitingFor100Continue = false
	return nil
}

// Send serializes e and applies its effect on our own state. The returned
// bytes, if any, are what the caller must write to the socket; an error
// means e was illegal in the current state and nothing was serialized.
func (c *Connection) Send(e Event) ([]byte, error) {
	if c.errored {
		return nil, ErrAlreadyErrored
	}

	if c.role == Client {
		return c.sendAsClient(e)
	}

	return c.sendAsServer(e)
}

func (c *Connection) sendAsClient(e Event) ([]byte, error) {
	switch v := e.(type) {
	case Request:
		return c.sendRequest(v)
	case Data:
		return c.sendData(v, party.Client)
	case EndOfMessage:
		return c.sendEndOfMessage(v, party.Client)
	case ConnectionClosed:
		return c.sendConnectionClosed(party.Client)
	default:
		c.setErrored()
		return nil, ErrEventNotPermitted
	}
}

func (c *Connection) sendAsServer(e Event) ([]byte, error) {
	switch v := e.(type) {
	case InformationalResponse:
		return c.sendInformationalResponse(v)
	case Response:
		return c.sendResponse(v)
	case Data:
		return c.sendData(v, party.Server)
	case EndOfMessage:
		return c.sendEndOfMessage(v, party.Server)
	case ConnectionClosed:
		return c.sendConnectionClosed(party.Server)
	default:
		c.setErrored()
		return nil, ErrEventNotPermitted
	}
}

func (c *Connection) sendRequest(v Request) ([]byte, error) {
	if c.ourState == Done {
		return nil, ErrPipeliningRefused
	}

	if c.ourState != Idle {
		c.setErrored()
		return nil, ErrEventNotPermitted
	}

	headers := v.Headers
	if headers == nil {
		headers = header.New(0)
	}

	info, ferr := framing.DecideRequest(headers)
	if ferr != nil {
		c.setErrored()
		return nil, newLocalError(ferr.Error())
	}

	keepAlive := computeKeepAlive(v.Version, headers, c.cfg.honorKeepAliveHTTP10)
	c.keepAlive = c.keepAlive && keepAlive
	headers = withConnectionClose(headers, c.keepAlive)

	if writer.ValidateHeaders(headers) != nil {
		c.setErrored()
		return nil, ErrForeignHeaderOnSend
	}

	var next State
	if v.Method == method.CONNECT {
		next = MightSwitchProtocol
	} else {
		var ok bool
		next, ok = party.Client(c.ourState, party.KindRequest)
		if !ok {
			c.setErrored()
			return nil, ErrEventNotPermitted
		}
	}

	c.outFraming = info
	c.outChunked = info.Mode == framing.Chunked
	c.sentMethod = v.Method
	c.respReader.SetRequestMethod(v.Method)
	if header.ContainsToken(headers, "Expect", "100-continue") {
		c.weAreWaitingFor100Continue = true
	}

	c.ourState = next
	// Sending a request line always puts the server side on the hook for a
	// response, whether or not the request itself carries a body.
	c.theirState = SendResponse
	c.recompute()

	buf := writer.AppendRequestLine(nil, v.Method, v.Target, v.Version)
	return writer.AppendHeaders(buf, headers), nil
}

func (c *Connection) sendInformationalResponse(v InformationalResponse) ([]byte, error) {
	if !v.Status.IsInformational() {
		c.setErrored()
		return nil, newLocalError("InformationalResponse requires a 1xx status")
	}

	next, ok := party.Server(c.ourState, party.KindInformationalResponse)
	if !ok {
		c.setErrored()
		return nil, ErrEventNotPermitted
	}

	headers := v.Headers
	if headers == nil {
		headers = header.New(0)
	}

	if ferr := framing.ValidateOutgoingHeaders(framing.NoBody, headers); ferr != nil {
		c.setErrored()
		return nil, newLocalError(ferr.Error())
	}

	if writer.ValidateHeaders(headers) != nil {
		c.setErrored()
		return nil, ErrForeignHeaderOnSend
	}

	if v.Status == status.Continue {
		c.theyAreWaitingFor100Continue = false
	}

	c.ourState = next
	c.recompute()

	buf := writer.AppendStatusLine(nil, v.Version, v.Status, v.Reason)
	return writer.AppendHeaders(buf, headers), nil
}

func (c *Connection) sendResponse(v Response) ([]byte, error) {
	if v.Status.IsInformational() {
		c.setErrored()
		return nil, newLocalError("Response requires a status of 200 or above")
	}

	headers := v.Headers
	if headers == nil {
		headers = header.New(0)
	}

	info, ferr := framing.DecideResponse(c.recvMethod, v.Status, headers)
	if ferr != nil {
		c.setErrored()
		return nil, newLocalError(ferr.Error())
	}

	// A response to HEAD may announce the length of the body it omits; only
	// the status- and CONNECT-driven no-body cases forbid the header.
	checkMode := info.Mode
	if c.recvMethod == method.HEAD && v.Status != status.NoContent && v.Status != status.NotModified {
		checkMode = framing.Fixed
	}

	if ferr := framing.ValidateOutgoingHeaders(checkMode, headers); ferr != nil {
		c.setErrored()
		return nil, newLocalError(ferr.Error())
	}

	keepAlive := computeKeepAlive(v.Version, headers, c.cfg.honorKeepAliveHTTP10)
	c.keepAlive = c.keepAlive && keepAlive
	headers = withConnectionClose(headers, c.keepAlive)

	if writer.ValidateHeaders(headers) != nil {
		c.setErrored()
		return nil, ErrForeignHeaderOnSend
	}

	switching := v.Status == status.SwitchingProtocols ||
		(c.recvMethod == method.CONNECT && v.Status.IsSuccess())

	var next State
	if switching {
		next = SwitchedProtocol
	} else {
		var ok bool
		next, ok = party.Server(c.ourState, party.KindResponse)
		if !ok {
			c.setErrored()
			return nil, ErrEventNotPermitted
		}
	}

	c.outFraming = info
	c.outChunked = info.Mode == framing.Chunked
	c.theyAreWaitingFor100Continue = false

	c.ourState = next
	if switching {
		c.theirState = SwitchedProtocol
	}
	c.recompute()

	buf := writer.AppendStatusLine(nil, v.Version, v.Status, v.Reason)
	return writer.AppendHeaders(buf, headers), nil
}

func (c *Connection) sendData(v Data, table func(State, party.Kind) (State, bool)) ([]byte, error) {
	if c.outFraming.Mode == framing.NoBody && len(v.Payload) > 0 {
		c.setErrored()
		return nil, ErrConflictingFraming
	}

	next, ok := table(c.ourState, party.KindData)
	if !ok {
		c.setErrored()
		return nil, ErrEventNotPermitted
	}

	c.ourState = next
	c.recompute()
	return writer.AppendData(nil, v.Payload, c.outChunked), nil
}

func (c *Connection) sendEndOfMessage(v EndOfMessage, table func(State, party.Kind) (State, bool)) ([]byte, error) {
	next, ok := table(c.ourState, party.KindEndOfMessage)
	if !ok {
		c.setErrored()
		return nil, ErrEventNotPermitted
	}

	c.ourState = next
	c.recompute()
	return writer.AppendEndOfMessage(nil, v.Trailers, c.outChunked), nil
}

func (c *Connection) sendConnectionClosed(table func(State, party.Kind) (State, bool)) ([]byte, error) {
	next, ok := table(c.ourState, party.KindConnectionClosed)
	if !ok {
		c.setErrored()
		return nil, ErrEventNotPermitted
	}

	c.ourState = next
	c.recompute()
	return nil, nil
}

func (c *Connection) serverNextEvent() (Event, error) {
	available := c.recvBuf.Bytes()
	eof := c.recvBuf.EOF()

	if len(available) == 0 && eof && c.reqReader.AtMessageBoundary() {
		return c.receiveConnectionClosed(party.Client)
	}

	outcome, head, payload, trailers, rest, err := c.reqReader.Next(available, eof)
	c.recvBuf.Advance(len(available) - len(rest))
	if err != nil {
		c.setErrored()
		return nil, wireErrToRemote(err)
	}

	switch outcome {
	case reader.NeedMore:
		if eof {
			c.setErrored()
			return nil, ErrPrematureEOF
		}

		return NeedData, nil
	case reader.GotRequestHead:
		return c.acceptRequestHead(head)
	case reader.GotData:
		next, ok := party.Client(c.theirState, party.KindData)
		if !ok {
			c.setErrored()
			return nil, newRemoteError(status.BadRequest, "unexpected body data")
		}

		c.theirState = next
		c.recompute()
		return Data{Payload: payload}, nil
	case reader.GotEndOfMessage:
		next, ok := party.Client(c.theirState, party.KindEndOfMessage)
		if !ok {
			c.setErrored()
			return nil, newRemoteError(status.BadRequest, "unexpected end of message")
		}

		c.theirState = next
		c.recompute()
		return EndOfMessage{Trailers: trailers}, nil
	default:
		return NeedData, nil
	}
}

func (c *Connection) acceptRequestHead(head *reader.RequestHead) (Event, error) {
	var next State
	if head.Method == method.CONNECT {
		next = MightSwitchProtocol
	} else {
		var ok bool
		next, ok = party.Client(c.theirState, party.KindRequest)
		if !ok {
			c.setErrored()
			return nil, newRemoteError(status.BadRequest, "unexpected request")
		}
	}

	c.theirState = next
	// Symmetric with sendRequest's override: decoding a full request head
	// puts us on the hook for a response before any Response event exists.
	c.ourState = SendResponse
	c.recvMethod = head.Method
	c.theirVersion = head.Version
	if header.ContainsToken(head.Headers, "Expect", "100-continue") {
		c.theyAreWaitingFor100Continue = true
	}

	keepAlive := computeKeepAlive(head.Version, head.Headers, c.cfg.honorKeepAliveHTTP10)
	c.keepAlive = c.keepAlive && keepAlive
	c.recompute()

	return Request{
		Method:  head.Method,
		Target:  head.Target,
		Version: head.Version,
		Headers: head.Headers,
	}, nil
}

func (c *Connection) clientNextEvent() (Event, error) {
	available := c.recvBuf.Bytes()
	eof := c.recvBuf.EOF()

	if len(available) == 0 && eof && c.respReader.AtMessageBoundary() {
		return c.receiveConnectionClosed(party.Server)
	}

	outcome, head, payload, trailers, rest, err := c.respReader.Next(available, eof)
	c.recvBuf.Advance(len(available) - len(rest))
	if err != nil {
		c.setErrored()
		return nil, wireErrToRemote(err)
	}

	switch outcome {
	case reader.NeedMore:
		if eof {
			c.setErrored()
			return nil, ErrPrematureEOF
		}

		return NeedData, nil
	case reader.GotResponseHead:
		return c.acceptResponseHead(head)
	case reader.GotData:
		next, ok := party.Server(c.theirState, party.KindData)
		if !ok {
			c.setErrored()
			return nil, newRemoteError(status.BadRequest, "unexpected body data")
		}

		c.theirState = next
		c.recompute()
		return Data{Payload: payload}, nil
	case reader.GotEndOfMessage:
		next, ok := party.Server(c.theirState, party.KindEndOfMessage)
		if !ok {
			c.setErrored()
			return nil, newRemoteError(status.BadRequest, "unexpected end of message")
		}

		c.theirState = next
		c.recompute()
		return EndOfMessage{Trailers: trailers}, nil
	default:
		return NeedData, nil
	}
}

func (c *Connection) acceptResponseHead(head *reader.ResponseHead) (Event, error) {
	c.weAreWaitingFor100Continue = false
	c.theirVersion = head.Version

	if head.Informational {
		next, ok := party.Server(c.theirState, party.KindInformationalResponse)
		if !ok {
			c.setErrored()
			return nil, newRemoteError(status.BadRequest, "unexpected informational response")
		}

		c.theirState = next
		c.recompute()
		return InformationalResponse{
			Status:  head.Status,
			Version: head.Version,
			Reason:  head.Reason,
			Headers: head.Headers,
		}, nil
	}

	keepAlive := computeKeepAlive(head.Version, head.Headers, c.cfg.honorKeepAliveHTTP10)
	c.keepAlive = c.keepAlive && keepAlive

	switching := head.Status == status.SwitchingProtocols ||
		(c.sentMethod == method.CONNECT && head.Status.IsSuccess())

	var next State
	if switching {
		next = SwitchedProtocol
	} else {
		var ok bool
		next, ok = party.Server(c.theirState, party.KindResponse)
		if !ok {
			c.setErrored()
			return nil, newRemoteError(status.BadRequest, "unexpected response")
		}
	}

	c.theirState = next
	if switching {
		c.ourState = SwitchedProtocol
	}
	c.recompute()

	return Response{
		Status:  head.Status,
		Version: head.Version,
		Reason:  head.Reason,
		Headers: head.Headers,
	}, nil
}

func (c *Connection) receiveConnectionClosed(table func(State, party.Kind) (State, bool)) (Event, error) {
	next, ok := table(c.theirState, party.KindConnectionClosed)
	if !ok {
		c.setErrored()
		return nil, ErrPrematureEOF
	}

	c.theirState = next
	c.recompute()
	return ConnectionClosed{}, nil
}

func (c *Connection) recompute() {
	c.ourState, c.theirState = party.Recompute(c.ourState, c.theirState, c.keepAlive)
}

func (c *Connection) setErrored() {
	c.errored = true
	c.ourState = ErrorState
	c.theirState = ErrorState
}

// computeKeepAlive applies the version-dependent default plus the explicit
// Connection header override: HTTP/1.1 defaults to keep-alive unless
// "close" is present; HTTP/1.0 defaults to close unless "keep-alive" is
// present and honorHTTP10 opts into recognizing it.
func computeKeepAlive(v version.Version, headers *header.List, honorHTTP10 bool) bool {
	if header.ContainsToken(headers, "Connection", "close") {
		return false
	}

	if v.AtLeast11() {
		return true
	}

	return honorHTTP10 && header.ContainsToken(headers, "Connection", "keep-alive")
}

// withConnectionClose returns headers unchanged if keepAlive is true or a
// "Connection: close" token is already present, otherwise a clone with the
// header appended so the peer can rely on it without inspecting our state.
func withConnectionClose(headers *header.List, keepAlive bool) *header.List {
	if keepAlive || header.ContainsToken(headers, "Connection", "close") {
		return headers
	}

	return headers.Clone().AddString("Connection", "close")
}

// readingPaused reports whether the party being read from — always
// theirState, regardless of which role we're driving — has reached a point
// where the next bytes in the buffer can't be interpreted yet. Our own state
// matters in one case only: once the peer's message is finished and our
// side is MUST_CLOSE, reading pauses until the peer's EOF arrives. Otherwise
// we may still be mid-response (or not yet have sent one) while the peer
// has already pipelined ahead of us, and that pipelined data must wait
// rather than be misread as a new cycle. DONE only pauses once bytes are
// actually buffered, since an empty buffer there might still resolve to a
// graceful ConnectionClosed rather than a real pause; MIGHT_SWITCH_PROTOCOL
// always pauses, since whether a CONNECT tunnel exists is still undecided
// and nothing arriving now can be parsed as an ordinary message.
func (c *Connection) readingPaused() bool {
	switch c.theirState {
	case MightSwitchProtocol:
		return true
	case Done, MustClose, Closed:
		if c.ourState == MustClose && !c.recvBuf.EOF() {
			return true
		}

		return c.recvBuf.Len() > 0
	default:
		return false
	}
}

// wireErrToRemote translates an internal tokenizer/framing error into the
// RemoteProtocolError callers see, carrying the same suggested status code.
func wireErrToRemote(err error) *RemoteProtocolError {
	switch err {
	case wire.ErrRequestLineTooLong:
		return ErrRequestLineTooLong
	case wire.ErrStatusLineTooLong:
		return ErrResponseLineTooLong
	case wire.ErrLineTooLong:
		return ErrHeaderBlockTooLarge
	}

	switch e := err.(type) {
	case *wire.Error:
		return newRemoteError(e.Code, e.Error())
	case *framing.FramingError:
		return newRemoteError(e.Code, e.Error())
	default:
		return newRemoteError(status.BadRequest, err.Error())
	}
}
