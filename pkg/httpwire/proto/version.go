package proto

import "fmt"

// Version is an HTTP version number. Major is restricted to {0, 1} by the
// parser; DefaultVersion is what a constructed (not parsed) Request/Response
// carries unless told otherwise.
type Version struct {
	Major uint8
	Minor uint8
}

// DefaultVersion is HTTP/1.1.
var DefaultVersion = Version{Major: 1, Minor: 1}

// String renders the version as it appears on the wire, e.g. "HTTP/1.1".
func (v Version) String() string {
	return fmt.Sprintf("HTTP/%d.%d", v.Major, v.Minor)
}
