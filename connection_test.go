package httpcore

import (
	"strings"
	"testing"

	"github.com/framewire/httpcore/header"
	"github.com/framewire/httpcore/method"
	"github.com/framewire/httpcore/status"
	"github.com/framewire/httpcore/version"
	"github.com/stretchr/testify/require"
)

func TestNewSetsIdleBothSides(t *testing.T) {
	conn := New(Server, Default())
	require.Equal(t, Idle, conn.OurState())
	require.Equal(t, Idle, conn.TheirState())
	require.Equal(t, Server, conn.OurRole())
	require.Equal(t, version.Unknown, conn.TheirHTTPVersion())
}

func TestTheirHTTPVersionTracksReceivedRequest(t *testing.T) {
	conn := New(Server, Default())
	require.NoError(t, conn.ReceiveData([]byte("GET / HTTP/1.0\r\nHost: x\r\n\r\n")))

	_, err := conn.NextEvent()
	require.NoError(t, err)
	require.Equal(t, version.HTTP10, conn.TheirHTTPVersion())
}

func TestTheirHTTPVersionTracksReceivedResponse(t *testing.T) {
	conn := New(Client, Default())
	_, err := conn.Send(Request{Method: method.GET, Target: []byte("/"), Version: version.HTTP11, Headers: header.New(0)})
	require.NoError(t, err)

	require.NoError(t, conn.ReceiveData([]byte("HTTP/1.1 200 OK\r\nContent-Length: 0\r\n\r\n")))
	_, err = conn.NextEvent()
	require.NoError(t, err)
	require.Equal(t, version.HTTP11, conn.TheirHTTPVersion())
}

func TestSendDataUnderNoBodyFramingIsConflicting(t *testing.T) {
	conn := New(Server, Default())
	require.NoError(t, conn.ReceiveData([]byte("GET / HTTP/1.1\r\nHost: x\r\n\r\n")))

	_, err := conn.NextEvent()
	require.NoError(t, err)
	_, err = conn.NextEvent()
	require.NoError(t, err)

	_, err = conn.Send(Response{
		Status:  status.NoContent,
		Version: version.HTTP11,
		Headers: header.New(0),
	})
	require.NoError(t, err)

	_, err = conn.Send(Data{Payload: []byte("nope")})
	require.ErrorIs(t, err, ErrConflictingFraming)
}

func TestInformationalResponseRejectsNon1xx(t *testing.T) {
	conn := New(Server, Default())
	require.NoError(t, conn.ReceiveData([]byte("GET / HTTP/1.1\r\nHost: x\r\n\r\n")))
	_, err := conn.NextEvent()
	require.NoError(t, err)
	_, err = conn.NextEvent()
	require.NoError(t, err)

	_, err = conn.Send(InformationalResponse{
		Status:  status.OK,
		Version: version.HTTP11,
		Headers: header.New(0),
	})
	require.Error(t, err)
	_, ok := err.(*LocalProtocolError)
	require.True(t, ok, "expected a LocalProtocolError, got %T", err)
}

func TestResponseRejects1xxStatus(t *testing.T) {
	conn := New(Server, Default())
	require.NoError(t, conn.ReceiveData([]byte("GET / HTTP/1.1\r\nHost: x\r\n\r\n")))
	_, err := conn.NextEvent()
	require.NoError(t, err)
	_, err = conn.NextEvent()
	require.NoError(t, err)

	_, err = conn.Send(Response{
		Status:  status.Continue,
		Version: version.HTTP11,
		Headers: header.New(0),
	})
	require.Error(t, err)
	_, ok := err.(*LocalProtocolError)
	require.True(t, ok, "expected a LocalProtocolError, got %T", err)
}

func TestSendRequestFromNonIdleStateIsEventNotPermitted(t *testing.T) {
	conn := New(Client, Default())

	_, err := conn.Send(Request{
		Method:  method.GET,
		Target:  []byte("/"),
		Version: version.HTTP11,
		Headers: header.New(0),
	})
	require.NoError(t, err)

	// ourState is now SendBody, not Idle or Done: a second Request here is a
	// genuine misuse, not pipelining.
	_, err = conn.Send(Request{
		Method:  method.GET,
		Target:  []byte("/again"),
		Version: version.HTTP11,
		Headers: header.New(0),
	})
	require.ErrorIs(t, err, ErrEventNotPermitted)
}

func TestReceiveDataAfterEOFIsRemoteError(t *testing.T) {
	conn := New(Server, Default())
	require.NoError(t, conn.ReceiveData(nil))

	err := conn.ReceiveData([]byte("more"))
	require.ErrorIs(t, err, ErrDataAfterClose)
}

func TestReceiveDataOverBudgetIsHeaderBlockTooLarge(t *testing.T) {
	cfg := Default()
	cfg.MaxHeaderBlockSize = 8
	cfg.MaxBufferedBytes = 8
	conn := New(Server, cfg)

	err := conn.ReceiveData([]byte("GET / HTTP/1.1\r\nHost: example.com\r\n\r\n"))
	require.ErrorIs(t, err, ErrHeaderBlockTooLarge)
}

func TestRepeatedGracefulEOFIsIdempotent(t *testing.T) {
	conn := New(Server, Default())
	require.NoError(t, conn.ReceiveData(nil))
	require.NoError(t, conn.ReceiveData(nil))
}

func TestErroredConnectionRejectsFurtherCalls(t *testing.T) {
	conn := New(Client, Default())
	_, err := conn.Send(Request{Method: method.GET, Target: []byte("/"), Version: version.HTTP11, Headers: header.New(0)})
	require.NoError(t, err)

	// Response is not a legal event for a client to send.
	_, err = conn.Send(Response{Status: status.OK})
	require.Error(t, err)
	_, ok := err.(*LocalProtocolError)
	require.True(t, ok, "expected a LocalProtocolError, got %T", err)

	_, err = conn.NextEvent()
	require.ErrorIs(t, err, ErrAlreadyErrored)

	err = conn.ReceiveData([]byte("anything"))
	require.ErrorIs(t, err, ErrAlreadyErrored)
}

func TestStartNextCycleRequiresBothDone(t *testing.T) {
	conn := New(Client, Default())
	_, err := conn.Send(Request{Method: method.GET, Target: []byte("/"), Version: version.HTTP11, Headers: header.New(0)})
	require.NoError(t, err)

	err = conn.StartNextCycle()
	require.ErrorIs(t, err, ErrNotDoneYet)

	_, err = conn.Send(EndOfMessage{})
	require.NoError(t, err)

	// Our side is Done, but the server hasn't answered yet: still not both Done.
	err = conn.StartNextCycle()
	require.ErrorIs(t, err, ErrNotDoneYet)
}

func TestSendResponse204WithContentLengthIsRejected(t *testing.T) {
	conn := New(Server, Default())
	require.NoError(t, conn.ReceiveData([]byte("GET / HTTP/1.1\r\nHost: x\r\n\r\n")))
	_, err := conn.NextEvent()
	require.NoError(t, err)
	_, err = conn.NextEvent()
	require.NoError(t, err)

	_, err = conn.Send(Response{
		Status:  status.NoContent,
		Version: version.HTTP11,
		Headers: header.New(0).AddString("Content-Length", "5"),
	})
	require.Error(t, err)
	_, ok := err.(*LocalProtocolError)
	require.True(t, ok, "expected a LocalProtocolError, got %T", err)
	require.Equal(t, ErrorState, conn.OurState())
}

func TestSendResponseToConnectWithTransferEncodingIsRejected(t *testing.T) {
	conn := New(Server, Default())
	require.NoError(t, conn.ReceiveData([]byte("CONNECT example.com:443 HTTP/1.1\r\nHost: x\r\n\r\n")))
	_, err := conn.NextEvent()
	require.NoError(t, err)
	_, err = conn.NextEvent()
	require.NoError(t, err)

	_, err = conn.Send(Response{
		Status:  status.OK,
		Version: version.HTTP11,
		Headers: header.New(0).AddString("Transfer-Encoding", "chunked"),
	})
	require.Error(t, err)
	_, ok := err.(*LocalProtocolError)
	require.True(t, ok, "expected a LocalProtocolError, got %T", err)
}

func TestSendInformationalResponseWithContentLengthIsRejected(t *testing.T) {
	conn := New(Server, Default())
	require.NoError(t, conn.ReceiveData([]byte("GET / HTTP/1.1\r\nHost: x\r\nExpect: 100-continue\r\nContent-Length: 5\r\n\r\n")))
	_, err := conn.NextEvent()
	require.NoError(t, err)
	_, err = conn.NextEvent()
	require.NoError(t, err)

	_, err = conn.Send(InformationalResponse{
		Status:  status.Continue,
		Version: version.HTTP11,
		Headers: header.New(0).AddString("Content-Length", "0"),
	})
	require.Error(t, err)
	_, ok := err.(*LocalProtocolError)
	require.True(t, ok, "expected a LocalProtocolError, got %T", err)
}

func TestSendRequestWithForeignHeaderNameIsRejected(t *testing.T) {
	conn := New(Client, Default())

	_, err := conn.Send(Request{
		Method:  method.GET,
		Target:  []byte("/"),
		Version: version.HTTP11,
		Headers: header.New(0).Add([]byte("H\xffst"), []byte("x")),
	})
	require.ErrorIs(t, err, ErrForeignHeaderOnSend)
}

func TestSendResponseWithForeignHeaderNameIsRejected(t *testing.T) {
	conn := New(Server, Default())
	require.NoError(t, conn.ReceiveData([]byte("GET / HTTP/1.1\r\nHost: x\r\n\r\n")))
	_, err := conn.NextEvent()
	require.NoError(t, err)
	_, err = conn.NextEvent()
	require.NoError(t, err)

	_, err = conn.Send(Response{
		Status:  status.OK,
		Version: version.HTTP11,
		Headers: header.New(0).Add([]byte("H\xffst"), []byte("x")),
	})
	require.ErrorIs(t, err, ErrForeignHeaderOnSend)
}

func TestReceiveOversizeRequestLineInOneCallIsRejected(t *testing.T) {
	conn := New(Server, Default())

	oversize := "GET /" + strings.Repeat("A", 1<<20) + " HTTP/1.1\r\nHost: x\r\n\r\n"
	require.NoError(t, conn.ReceiveData([]byte(oversize)))

	_, err := conn.NextEvent()
	require.ErrorIs(t, err, ErrRequestLineTooLong)
}

func TestReceiveOversizeStatusLineInOneCallIsRejected(t *testing.T) {
	conn := New(Client, Default())
	_, err := conn.Send(Request{Method: method.GET, Target: []byte("/"), Version: version.HTTP11, Headers: header.New(0)})
	require.NoError(t, err)

	oversize := "HTTP/1.1 200 " + strings.Repeat("x", 1<<20) + "\r\n\r\n"
	require.NoError(t, conn.ReceiveData([]byte(oversize)))

	_, err = conn.NextEvent()
	require.ErrorIs(t, err, ErrResponseLineTooLong)
}

func TestPipelinedRequestPausesUntilResponseSent(t *testing.T) {
	conn := New(Server, Default())
	require.NoError(t, conn.ReceiveData([]byte(
		"GET /first HTTP/1.1\r\nHost: x\r\n\r\nGET /second HTTP/1.1\r\nHost: x\r\n\r\n",
	)))

	ev, err := conn.NextEvent()
	require.NoError(t, err)
	req, ok := ev.(Request)
	require.True(t, ok, "expected Request, got %T", ev)
	require.Equal(t, "/first", string(req.Target))

	ev, err = conn.NextEvent()
	require.NoError(t, err)
	_, ok = ev.(EndOfMessage)
	require.True(t, ok, "expected EndOfMessage, got %T", ev)

	// ourState is still SendResponse (the app hasn't answered yet) but
	// theirState is Done with a second request already buffered: reading
	// must pause rather than parse ahead into it.
	ev, err = conn.NextEvent()
	require.NoError(t, err)
	require.Equal(t, Paused, ev)

	_, err = conn.Send(Response{Status: status.OK, Version: version.HTTP11, Headers: header.New(0).AddString("Content-Length", "0")})
	require.NoError(t, err)
	_, err = conn.Send(EndOfMessage{})
	require.NoError(t, err)

	require.NoError(t, conn.StartNextCycle())

	ev, err = conn.NextEvent()
	require.NoError(t, err)
	req, ok = ev.(Request)
	require.True(t, ok, "expected Request, got %T", ev)
	require.Equal(t, "/second", string(req.Target))
}

func TestZeroLengthFixedBody(t *testing.T) {
	conn := New(Server, Default())
	require.NoError(t, conn.ReceiveData([]byte("GET / HTTP/1.1\r\nHost: x\r\nContent-Length: 0\r\n\r\n")))

	ev, err := conn.NextEvent()
	require.NoError(t, err)
	req, ok := ev.(Request)
	require.True(t, ok)
	require.Equal(t, method.GET, req.Method)

	ev, err = conn.NextEvent()
	require.NoError(t, err)
	_, ok = ev.(EndOfMessage)
	require.True(t, ok, "expected EndOfMessage directly, got %T", ev)
}
