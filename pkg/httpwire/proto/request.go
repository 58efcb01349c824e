package proto

import "strconv"

// Request is the shared HTTP request data model: a non-Unknown method, a
// URI normalized to always start with '/', a version, a header map, and a
// body. Content-Length is kept in sync with the body on every SetBody call,
// and KeepAlive is derived from the Connection header each time it changes.
type Request struct {
	Method  Method
	URI     string
	Version Version
	Header  *Header
	Body    []byte

	keepAlive bool
}

// NewRequest constructs a Request, normalizing uri and syncing Content-Length
// and KeepAlive from header/body as described on Request.
func NewRequest(method Method, uri string, version Version, header *Header, body []byte) *Request {
	if header == nil {
		header = NewHeader()
	}
	r := &Request{Method: method, Version: version, Header: header}
	r.SetURI(uri)
	r.syncKeepAlive()
	r.SetBody(body)
	return r
}

// SetURI normalizes uri to start with '/': empty becomes "/", anything not
// already starting with '/' gets one prepended.
func (r *Request) SetURI(uri string) {
	if uri == "" {
		r.URI = "/"
		return
	}
	if uri[0] != '/' {
		r.URI = "/" + uri
		return
	}
	r.URI = uri
}

// SetBody replaces the body and synchronizes Content-Length: removed if the
// body is empty, set to the body's length otherwise.
func (r *Request) SetBody(body []byte) {
	r.Body = body
	if len(body) == 0 {
		r.Header.Del("Content-Length")
		return
	}
	r.Header.Set("Content-Length", strconv.Itoa(len(body)))
}

// SetHeader sets name/value on the request's header map, additionally
// re-deriving KeepAlive when name is Connection (case-insensitive).
func (r *Request) SetHeader(name, value string) {
	r.Header.Set(name, value)
	if upperASCII(name) == "CONNECTION" {
		r.keepAlive = isKeepAliveToken(value)
	}
}

func (r *Request) syncKeepAlive() {
	if v, ok := r.Header.Get("Connection"); ok {
		r.keepAlive = isKeepAliveToken(v)
	}
}

// KeepAlive reports whether the request's Connection header requested
// keep-alive. Comparison is case-insensitive against "keep-alive" — the
// corrected form; an earlier, widely-copied implementation of this protocol
// compared against the misspelling "kepp-alive" and so never matched.
func (r *Request) KeepAlive() bool {
	return r.keepAlive
}

func isKeepAliveToken(v string) bool {
	return upperASCII(v) == "KEEP-ALIVE"
}
