package proto

import "strconv"

// Response is the shared HTTP response data model. StatusText defaults to
// the canonical reason phrase for StatusCode unless explicitly overridden.
type Response struct {
	StatusCode StatusCode
	StatusText string
	Version    Version
	Header     *Header
	Body       []byte
}

// NewResponse constructs a Response with the canonical status text for
// status and Content-Length synchronized from body.
func NewResponse(status StatusCode, version Version, header *Header, body []byte) *Response {
	if header == nil {
		header = NewHeader()
	}
	r := &Response{StatusCode: status, StatusText: status.Text(), Version: version, Header: header}
	r.SetBody(body)
	return r
}

// SetBody replaces the body and synchronizes Content-Length the same way
// Request.SetBody does.
func (r *Response) SetBody(body []byte) {
	r.Body = body
	if len(body) == 0 {
		r.Header.Del("Content-Length")
		return
	}
	r.Header.Set("Content-Length", strconv.Itoa(len(body)))
}

// StockResponse builds a canonical response for status: the default reason
// phrase, the default HTML body for status, Content-Type: text/html, and
// Connection: close — used by the server when it must terminate a
// connection without a handler having run (bad request, synthesized 500 on
// a dropped handler).
func StockResponse(status StatusCode, version Version) *Response {
	h := NewHeader()
	h.Set("Connection", "close")
	h.Set("Content-Type", "text/html")
	r := NewResponse(status, version, h, []byte(status.DefaultHTML()))
	return r
}
