// Package proto implements the shared HTTP/1.1 message model: methods,
// versions, status codes, the case-insensitive header map, and the request
// and response types the server and client packages parse into and
// serialize from.
package proto

// Method identifies an HTTP request method. The zero value is MethodUnknown.
type Method uint8

const (
	MethodUnknown Method = iota
	MethodGet
	MethodPost
	MethodPut
	MethodOptions
	MethodConnect
	MethodHead
	MethodPatch
	MethodDelete
	MethodTrace
)

var methodBytesTable = [...][]byte{
	MethodUnknown: nil,
	MethodGet:     []byte("GET"),
	MethodPost:    []byte("POST"),
	MethodPut:     []byte("PUT"),
	MethodOptions: []byte("OPTIONS"),
	MethodConnect: []byte("CONNECT"),
	MethodHead:    []byte("HEAD"),
	MethodPatch:   []byte("PATCH"),
	MethodDelete:  []byte("DELETE"),
	MethodTrace:   []byte("TRACE"),
}

var methodStringTable = [...]string{
	MethodUnknown: "",
	MethodGet:     "GET",
	MethodPost:    "POST",
	MethodPut:     "PUT",
	MethodOptions: "OPTIONS",
	MethodConnect: "CONNECT",
	MethodHead:    "HEAD",
	MethodPatch:   "PATCH",
	MethodDelete:  "DELETE",
	MethodTrace:   "TRACE",
}

// ParseMethod converts a method token to its Method value, returning
// MethodUnknown for anything not in the fixed set. Comparison is
// case-sensitive: RFC 7230 method tokens are case-sensitive on the wire.
func ParseMethod(b []byte) Method {
	switch len(b) {
	case 3:
		if b[0] == 'G' && b[1] == 'E' && b[2] == 'T' {
			return MethodGet
		}
		if b[0] == 'P' && b[1] == 'U' && b[2] == 'T' {
			return MethodPut
		}
	case 4:
		if b[0] == 'P' && b[1] == 'O' && b[2] == 'S' && b[3] == 'T' {
			return MethodPost
		}
		if b[0] == 'H' && b[1] == 'E' && b[2] == 'A' && b[3] == 'D' {
			return MethodHead
		}
	case 5:
		if b[0] == 'P' && b[1] == 'A' && b[2] == 'T' && b[3] == 'C' && b[4] == 'H' {
			return MethodPatch
		}
		if b[0] == 'T' && b[1] == 'R' && b[2] == 'A' && b[3] == 'C' && b[4] == 'E' {
			return MethodTrace
		}
	case 6:
		if b[0] == 'D' && b[1] == 'E' && b[2] == 'L' && b[3] == 'E' && b[4] == 'T' && b[5] == 'E' {
			return MethodDelete
		}
	case 7:
		if b[0] == 'O' && b[1] == 'P' && b[2] == 'T' && b[3] == 'I' && b[4] == 'O' && b[5] == 'N' && b[6] == 'S' {
			return MethodOptions
		}
		if b[0] == 'C' && b[1] == 'O' && b[2] == 'N' && b[3] == 'N' && b[4] == 'E' && b[5] == 'C' && b[6] == 'T' {
			return MethodConnect
		}
	}
	return MethodUnknown
}

// String returns the wire token for m, or "" for MethodUnknown.
func (m Method) String() string {
	if int(m) >= len(methodStringTable) {
		return ""
	}
	return methodStringTable[m]
}

// Bytes returns the wire token for m as a byte slice, or nil for MethodUnknown.
func (m Method) Bytes() []byte {
	if int(m) >= len(methodBytesTable) {
		return nil
	}
	return methodBytesTable[m]
}

// Valid reports whether m is a recognized, non-Unknown method.
func (m Method) Valid() bool {
	return m >= MethodGet && m <= MethodTrace
}

// MaxMethodLength is the longest recognized method token ("OPTIONS"/"CONNECT").
const MaxMethodLength = 7
