package proto

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func parseRequestAllAtOnce(t *testing.T, raw []byte) (*RequestParser, ErrorKind) {
	t.Helper()
	p := NewRequestParser()
	kind, n := p.ParseBytes(raw)
	if kind == Ok {
		require.Equal(t, len(raw), n, "whole-buffer parse should consume all bytes on success")
	}
	return p, kind
}

func parseRequestByteAtATime(t *testing.T, raw []byte) (*RequestParser, ErrorKind) {
	t.Helper()
	p := NewRequestParser()
	var kind ErrorKind
	for _, b := range raw {
		kind = p.Parse(b)
		if kind != InProgress {
			break
		}
	}
	return p, kind
}

// Invariant: streaming equivalence — parsing byte-by-byte must reach the
// same terminal result as parsing the same bytes in one call.
func TestRequestParser_StreamingEquivalence(t *testing.T) {
	raw := []byte("GET /hello HTTP/1.1\r\nHost: example.com\r\nConnection: keep-alive\r\n\r\n")

	whole, wholeKind := parseRequestAllAtOnce(t, raw)
	byByte, byteKind := parseRequestByteAtATime(t, raw)

	require.Equal(t, Ok, wholeKind)
	require.Equal(t, Ok, byteKind)

	a := whole.Request()
	b := byByte.Request()
	require.Equal(t, a.Method, b.Method)
	require.Equal(t, a.URI, b.URI)
	require.Equal(t, a.Version, b.Version)
	require.Equal(t, a.KeepAlive(), b.KeepAlive())
}

func TestRequestParser_SimpleGET(t *testing.T) {
	raw := []byte("GET /index.html HTTP/1.1\r\nHost: example.com\r\n\r\n")
	p, kind := parseRequestAllAtOnce(t, raw)
	require.Equal(t, Ok, kind)

	req := p.Request()
	require.Equal(t, MethodGet, req.Method)
	require.Equal(t, "/index.html", req.URI)
	require.Equal(t, Version{1, 1}, req.Version)
	host, ok := req.Header.Get("Host")
	require.True(t, ok)
	require.Equal(t, "example.com", host)
}

func TestRequestParser_EmptyURINormalizedToSlash(t *testing.T) {
	// A parser never actually sees an empty URI token (the request-line FSM
	// rejects a bare space where the URI should be), but constructing a
	// Request directly must still normalize, matching proto.Request.SetURI.
	r := NewRequest(MethodGet, "", DefaultVersion, nil, nil)
	require.Equal(t, "/", r.URI)
}

func TestRequestParser_URITooLong(t *testing.T) {
	path := make([]byte, MaxURILength+1)
	for i := range path {
		path[i] = 'a'
	}
	raw := append([]byte("GET /"), path...)
	raw = append(raw, []byte(" HTTP/1.1\r\n\r\n")...)

	_, kind := parseRequestAllAtOnce(t, raw)
	require.Equal(t, IncorrectURISize, kind)
}

func TestRequestParser_UnknownMethod(t *testing.T) {
	raw := []byte("FOO / HTTP/1.1\r\n\r\n")
	_, kind := parseRequestAllAtOnce(t, raw)
	require.Equal(t, UnknownMethodType, kind)
}

func TestRequestParser_BadVersion(t *testing.T) {
	raw := []byte("GET / HTTP/2.0\r\n\r\n")
	_, kind := parseRequestAllAtOnce(t, raw)
	require.Equal(t, UnknowHttpVersion, kind)
}

func TestRequestParser_MissingCRLFAfterRequestLine(t *testing.T) {
	raw := []byte("GET / HTTP/1.1\n\r\n")
	_, kind := parseRequestAllAtOnce(t, raw)
	require.Equal(t, NewLine1Error, kind)
}

func TestRequestParser_MissingCRLFAfterHeaderLine(t *testing.T) {
	raw := []byte("GET / HTTP/1.1\r\nHost: example.com\n\r\n")
	_, kind := parseRequestAllAtOnce(t, raw)
	require.Equal(t, NewLine2Error, kind)
}

// Invariant: idempotent termination — once a parser reaches a terminal
// result, further Parse calls must return AlreadyParsed rather than
// re-running the state machine.
func TestRequestParser_AlreadyParsedAfterTerminal(t *testing.T) {
	raw := []byte("GET / HTTP/1.1\r\n\r\n")
	p, kind := parseRequestAllAtOnce(t, raw)
	require.Equal(t, Ok, kind)
	require.Equal(t, AlreadyParsed, p.Parse('X'))
}

func TestRequestParser_PostWithBody(t *testing.T) {
	raw := []byte("POST /submit HTTP/1.1\r\nContent-Length: 5\r\n\r\nhello")
	p, kind := parseRequestAllAtOnce(t, raw)
	require.Equal(t, Ok, kind)
	req := p.Request()
	require.Equal(t, "hello", string(req.Body))
}

func TestRequestParser_HeaderBlockTooBig(t *testing.T) {
	raw := []byte("GET / HTTP/1.1\r\n")
	value := make([]byte, MaxHeaderBlockSize)
	for i := range value {
		value[i] = 'a'
	}
	raw = append(raw, []byte("X-Big: ")...)
	raw = append(raw, value...)
	raw = append(raw, []byte("\r\n\r\n")...)

	_, kind := parseRequestAllAtOnce(t, raw)
	require.Equal(t, HttpHeadersSectionSizeIsBig, kind)
}

func TestRequestParser_KeepAliveTypoFixed(t *testing.T) {
	raw := []byte("GET / HTTP/1.1\r\nConnection: keep-alive\r\n\r\n")
	p, kind := parseRequestAllAtOnce(t, raw)
	require.Equal(t, Ok, kind)
	require.True(t, p.Request().KeepAlive(), "Connection: keep-alive must be detected (not the \"kepp-alive\" typo)")
}

func TestRequestParser_ObsFoldHeaderValue(t *testing.T) {
	raw := []byte("GET / HTTP/1.1\r\nX-Multi: line1\r\n line2\r\n\r\n")
	p, kind := parseRequestAllAtOnce(t, raw)
	require.Equal(t, Ok, kind)
	v, ok := p.Request().Header.Get("X-Multi")
	require.True(t, ok)
	require.Equal(t, "line1 line2", v)
}

// Round-trip: serializing a parsed request and re-parsing it must reproduce
// the same method/URI/version/body.
func TestRequestRoundTrip(t *testing.T) {
	h := NewHeader()
	h.Set("Host", "example.com")
	req := NewRequest(MethodPost, "/a", DefaultVersion, h, []byte("payload"))

	wire := WriteRequest(req)

	p, kind := parseRequestAllAtOnce(t, wire)
	require.Equal(t, Ok, kind)
	got := p.Request()
	require.Equal(t, req.Method, got.Method)
	require.Equal(t, req.URI, got.URI)
	require.Equal(t, req.Version, got.Version)
	require.Equal(t, string(req.Body), string(got.Body))
}
