package proto

import (
	"strconv"

	"github.com/valyala/bytebufferpool"
)

var bufPool bytebufferpool.Pool

// WriteRequest serializes req into the exact request-line + header-block +
// body wire format: "METHOD URI HTTP/major.minor\r\n", each header as
// "Name: Value\r\n" in insertion order, a blank line, then the body bytes.
func WriteRequest(req *Request) []byte {
	bb := bufPool.Get()
	defer bufPool.Put(bb)

	bb.WriteString(req.Method.String())
	bb.WriteByte(' ')
	bb.WriteString(req.URI)
	bb.WriteByte(' ')
	bb.WriteString(req.Version.String())
	bb.WriteString("\r\n")
	req.Header.VisitAll(func(name, value string) {
		bb.WriteString(name)
		bb.WriteString(": ")
		bb.WriteString(value)
		bb.WriteString("\r\n")
	})
	bb.WriteString("\r\n")
	bb.Write(req.Body)

	out := make([]byte, len(bb.B))
	copy(out, bb.B)
	return out
}

// WriteResponse serializes resp into the exact status-line + header-block +
// body wire format: "HTTP/major.minor CODE TEXT\r\n", headers, blank line,
// body.
func WriteResponse(resp *Response) []byte {
	bb := bufPool.Get()
	defer bufPool.Put(bb)

	bb.WriteString(resp.Version.String())
	bb.WriteByte(' ')
	bb.WriteString(strconv.Itoa(int(resp.StatusCode)))
	bb.WriteByte(' ')
	bb.WriteString(resp.StatusText)
	bb.WriteString("\r\n")
	resp.Header.VisitAll(func(name, value string) {
		bb.WriteString(name)
		bb.WriteString(": ")
		bb.WriteString(value)
		bb.WriteString("\r\n")
	})
	bb.WriteString("\r\n")
	bb.Write(resp.Body)

	out := make([]byte, len(bb.B))
	copy(out, bb.B)
	return out
}
