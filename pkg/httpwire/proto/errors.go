package proto

// ErrorKind is the closed set of parser/protocol outcomes. The zero value,
// Ok, means a unit of the message finished parsing cleanly; InProgress means
// more bytes are needed before any other outcome can be decided. Every other
// value is terminal: once a parser returns one, Parse must not be called
// again without a Reset (see AlreadyParsed).
type ErrorKind uint8

const (
	Ok ErrorKind = iota
	InProgress
	UnknownMethodType
	IncorrectURI
	IncorrectURISize
	UnknowHttpVersion
	NewLine1Error
	NewLine2Error
	UnknownState
	AlreadyParsed
	HttpHeaderKeyError
	HttpHeaderValueError
	HttpHeadersSectionSizeIsBig
	UnknownStatusCode
	IncorrectStatusText
	BodyChunkError
)

var errorKindMessage = [...]string{
	Ok:                          "ok",
	InProgress:                  "parse in progress",
	UnknownMethodType:           "unknown http method type",
	IncorrectURI:                "incorrect uri",
	IncorrectURISize:            "uri exceeds maximum size",
	UnknowHttpVersion:           "unknown http version",
	NewLine1Error:               "expected CRLF after request/status line",
	NewLine2Error:               "expected CRLF after header line",
	UnknownState:                "parser reached an unknown state",
	AlreadyParsed:                "parser already reached a terminal result",
	HttpHeaderKeyError:          "invalid header name",
	HttpHeaderValueError:        "invalid header value",
	HttpHeadersSectionSizeIsBig: "headers section exceeds maximum size",
	UnknownStatusCode:           "malformed status code",
	IncorrectStatusText:         "invalid or oversized status text",
	BodyChunkError:              "invalid chunked body encoding",
}

// Error implements the error interface so an ErrorKind can be returned,
// wrapped, and logged like any other error while still being switchable by
// callers that need the specific kind.
func (k ErrorKind) Error() string {
	if int(k) >= len(errorKindMessage) {
		return "unknown error kind"
	}
	return errorKindMessage[k]
}

// Terminal reports whether k ends parsing (anything but InProgress).
func (k ErrorKind) Terminal() bool {
	return k != InProgress
}

// Failed reports whether k is a terminal error outcome (not Ok, not InProgress).
func (k ErrorKind) Failed() bool {
	return k != Ok && k != InProgress
}
