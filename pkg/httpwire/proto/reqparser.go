package proto

// RequestParser is a byte-reentrant finite state machine for an HTTP
// request: the request line, the header block, and (for POST with a
// positive Content-Length) a fixed-length body. Feed it one byte at a time
// with Parse, or a whole chunk with ParseBytes; both return as soon as a
// terminal ErrorKind is reached (Ok or any error), and further calls without
// a Reset return AlreadyParsed. This gives the "streaming equivalence"
// property: parsing byte-by-byte or parsing a single pre-buffered slice
// reach the same result.
type RequestParser struct {
	lineState   requestLineState
	headState   headerBlockState

	method    Method
	methodBuf [MaxMethodNameLength]byte
	methodLen int

	uriBuf [MaxURILength]byte
	uriLen int

	major uint8
	minor uint16
	minorDigits int

	headerBytes int
	nameBuf     []byte
	valueBuf    []byte
	folding     bool

	hasContentLength bool
	contentLengthBuf int64

	header *Header

	bodyNeeded   int
	bodyReceived int
	body         []byte

	result ErrorKind
	done   bool
}

type requestLineState int8

const (
	stateMethodStart requestLineState = iota
	stateMethod
	stateURI
	stateVH
	stateVT1
	stateVT2
	stateVP
	stateVSlash
	stateMajorStart
	stateMajor
	stateMinorStart
	stateMinor
	stateExpectNL1
	stateRequestLineParsed
)

type headerBlockState int8

const (
	stateLineStart headerBlockState = iota
	stateHeaderLWS
	stateHeaderName
	stateHeaderValue
	stateExpectNL2
	stateExpectNL3
	stateHeaderBlockParsed
)

// NewRequestParser returns a parser ready to consume a new request.
func NewRequestParser() *RequestParser {
	p := &RequestParser{header: NewHeader()}
	return p
}

// Reset returns the parser to its initial state so it can parse another
// request, reusing its internal buffers.
func (p *RequestParser) Reset() {
	p.lineState = stateMethodStart
	p.headState = stateLineStart
	p.method = MethodUnknown
	p.methodLen = 0
	p.uriLen = 0
	p.major = 0
	p.minor = 0
	p.minorDigits = 0
	p.headerBytes = 0
	p.nameBuf = p.nameBuf[:0]
	p.valueBuf = p.valueBuf[:0]
	p.folding = false
	p.hasContentLength = false
	p.contentLengthBuf = 0
	p.header.Reset()
	p.bodyNeeded = 0
	p.bodyReceived = 0
	p.body = nil
	p.result = InProgress
	p.done = false
}

func isAlpha(b byte) bool { return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z') }
func isDigit(b byte) bool { return b >= '0' && b <= '9' }
func isCtl(b byte) bool   { return b < 0x20 && b != '\t' || b == 0x7f }

func toLowerByte(b byte) byte {
	if b >= 'A' && b <= 'Z' {
		return b + ('a' - 'A')
	}
	return b
}

// isSpecialHeaderByte reports whether b is one of the "special" characters
// a header name must never contain: ( ) < > @ , ; : \ " / [ ] ? = { } and
// the space/horizontal-tab bytes.
func isSpecialHeaderByte(b byte) bool {
	switch b {
	case '(', ')', '<', '>', '@', ',', ';', ':', '\\', '"', '/', '[', ']', '?', '=', '{', '}', ' ', '\t':
		return true
	default:
		return false
	}
}

// Request returns the parsed request. Valid only after Parse/ParseBytes
// returns Ok.
func (p *RequestParser) Request() *Request {
	r := &Request{
		Method:  p.method,
		Version: Version{Major: p.major, Minor: uint8(p.minor)},
		Header:  p.header,
		Body:    p.body,
	}
	r.SetURI(string(p.uriBuf[:p.uriLen]))
	r.syncKeepAlive()
	return r
}

// Parse feeds a single byte into the parser and returns the current
// outcome: InProgress if more input is needed, Ok once the full request
// (including any body) has been parsed, or a specific ErrorKind.
func (p *RequestParser) Parse(b byte) ErrorKind {
	if p.done {
		return AlreadyParsed
	}

	if p.lineState != stateRequestLineParsed {
		kind := p.parseRequestLineByte(b)
		if kind == InProgress {
			return InProgress
		}
		if kind != Ok {
			p.done = true
			p.result = kind
			return kind
		}
		return InProgress
	}

	if p.headState != stateHeaderBlockParsed {
		kind := p.parseHeaderByte(b)
		if kind == InProgress {
			return InProgress
		}
		if kind != Ok {
			p.done = true
			p.result = kind
			return kind
		}
		if p.bodyNeeded == 0 {
			p.done = true
			p.result = Ok
			return Ok
		}
		return InProgress
	}

	// Body phase: only reached when bodyNeeded > 0.
	p.body = append(p.body, b)
	p.bodyReceived++
	if p.bodyReceived >= p.bodyNeeded {
		p.done = true
		p.result = Ok
		return Ok
	}
	return InProgress
}

// ParseBytes feeds p with as much of buf as it takes to reach a terminal
// result, returning that result and the number of bytes consumed from buf.
func (p *RequestParser) ParseBytes(buf []byte) (ErrorKind, int) {
	for i, b := range buf {
		kind := p.Parse(b)
		if kind != InProgress {
			return kind, i + 1
		}
	}
	return InProgress, len(buf)
}

func (p *RequestParser) parseRequestLineByte(b byte) ErrorKind {
	switch p.lineState {
	case stateMethodStart:
		if !isAlpha(b) {
			return UnknownMethodType
		}
		p.methodBuf[0] = b
		p.methodLen = 1
		p.lineState = stateMethod
		return InProgress

	case stateMethod:
		if b == ' ' {
			p.method = ParseMethod(p.methodBuf[:p.methodLen])
			if p.method == MethodUnknown {
				return UnknownMethodType
			}
			p.lineState = stateURI
			return InProgress
		}
		if !isAlpha(b) {
			return UnknownMethodType
		}
		if p.methodLen >= MaxMethodNameLength {
			return UnknownMethodType
		}
		p.methodBuf[p.methodLen] = b
		p.methodLen++
		return InProgress

	case stateURI:
		if b == ' ' {
			if p.uriLen == 0 {
				return IncorrectURI
			}
			p.lineState = stateVH
			return InProgress
		}
		if isCtl(b) {
			return IncorrectURI
		}
		if p.uriLen >= MaxURILength {
			return IncorrectURISize
		}
		p.uriBuf[p.uriLen] = b
		p.uriLen++
		return InProgress

	case stateVH:
		if toLowerByte(b) != 'h' {
			return UnknowHttpVersion
		}
		p.lineState = stateVT1
		return InProgress
	case stateVT1:
		if toLowerByte(b) != 't' {
			return UnknowHttpVersion
		}
		p.lineState = stateVT2
		return InProgress
	case stateVT2:
		if toLowerByte(b) != 't' {
			return UnknowHttpVersion
		}
		p.lineState = stateVP
		return InProgress
	case stateVP:
		if toLowerByte(b) != 'p' {
			return UnknowHttpVersion
		}
		p.lineState = stateVSlash
		return InProgress
	case stateVSlash:
		if b != '/' {
			return UnknowHttpVersion
		}
		p.lineState = stateMajorStart
		return InProgress

	case stateMajorStart:
		if b != '0' && b != '1' {
			return UnknowHttpVersion
		}
		p.major = b - '0'
		p.lineState = stateMajor
		return InProgress
	case stateMajor:
		if b == '.' {
			p.lineState = stateMinorStart
			return InProgress
		}
		return UnknowHttpVersion

	case stateMinorStart:
		if !isDigit(b) {
			return UnknowHttpVersion
		}
		p.minor = uint16(b - '0')
		p.minorDigits = 1
		p.lineState = stateMinor
		return InProgress
	case stateMinor:
		if b == '\r' {
			p.lineState = stateExpectNL1
			return InProgress
		}
		if b == '\n' {
			return NewLine1Error
		}
		if !isDigit(b) {
			return UnknowHttpVersion
		}
		p.minorDigits++
		if p.minorDigits > MaxMinorVersionDigits {
			return UnknowHttpVersion
		}
		p.minor = p.minor*10 + uint16(b-'0')
		return InProgress

	case stateExpectNL1:
		if b != '\n' {
			return NewLine1Error
		}
		p.lineState = stateRequestLineParsed
		return Ok
	}
	return UnknownState
}

func (p *RequestParser) parseHeaderByte(b byte) ErrorKind {
	p.headerBytes++
	if p.headerBytes > MaxHeaderBlockSize {
		return HttpHeadersSectionSizeIsBig
	}

	switch p.headState {
	case stateLineStart:
		if b == '\r' {
			p.headState = stateExpectNL3
			return InProgress
		}
		if b == ' ' || b == '\t' {
			// obs-fold: continuation of the previous header's value.
			if len(p.header.entries) == 0 {
				return HttpHeaderValueError
			}
			p.folding = true
			p.valueBuf = p.valueBuf[:0]
			p.headState = stateHeaderLWS
			return InProgress
		}
		if isCtl(b) || isSpecialHeaderByte(b) {
			return HttpHeaderKeyError
		}
		p.nameBuf = append(p.nameBuf[:0], b)
		p.headState = stateHeaderName
		return InProgress

	case stateHeaderLWS:
		if b == ' ' || b == '\t' {
			return InProgress
		}
		p.headState = stateHeaderValue
		return p.continueHeaderValue(b)

	case stateHeaderName:
		if b == ':' {
			p.headState = stateHeaderValue
			p.valueBuf = p.valueBuf[:0]
			p.folding = false
			return InProgress
		}
		if isCtl(b) || isSpecialHeaderByte(b) {
			return HttpHeaderKeyError
		}
		if len(p.nameBuf) >= 256 {
			return HttpHeaderKeyError
		}
		p.nameBuf = append(p.nameBuf, b)
		return InProgress

	case stateHeaderValue:
		return p.continueHeaderValue(b)

	case stateExpectNL2:
		if b != '\n' {
			return NewLine2Error
		}
		p.headState = stateLineStart
		return InProgress

	case stateExpectNL3:
		if b != '\n' {
			return NewLine2Error
		}
		p.headState = stateHeaderBlockParsed
		return p.finishHeaders()
	}
	return UnknownState
}

// continueHeaderValue accumulates value bytes and commits the header (or, if
// p.folding, appends to the previous header's value with a single joining
// space) once CR is seen.
func (p *RequestParser) continueHeaderValue(b byte) ErrorKind {
	if b == '\r' {
		value := string(trimLeadingSpace(p.valueBuf))
		if p.folding {
			last := &p.header.entries[len(p.header.entries)-1]
			last.value += " " + value
			p.processSpecialHeader(last.name, last.value)
		} else {
			name := string(p.nameBuf)
			if !p.header.Has(name) {
				p.header.Add(name, value)
				p.processSpecialHeader(name, value)
			}
		}
		p.folding = false
		p.headState = stateExpectNL2
		return InProgress
	}
	if b == '\n' {
		return NewLine2Error
	}
	if isCtl(b) {
		return HttpHeaderValueError
	}
	p.valueBuf = append(p.valueBuf, b)
	return InProgress
}

func trimLeadingSpace(b []byte) []byte {
	i := 0
	for i < len(b) && (b[i] == ' ' || b[i] == '\t') {
		i++
	}
	return b[i:]
}

func (p *RequestParser) processSpecialHeader(name, value string) {
	if upperASCII(name) != "CONTENT-LENGTH" {
		return
	}
	n := int64(0)
	for i := 0; i < len(value); i++ {
		c := value[i]
		if !isDigit(c) {
			return
		}
		n = n*10 + int64(c-'0')
		if n > MaxContentLength {
			n = MaxContentLength + 1
			break
		}
	}
	p.hasContentLength = true
	p.contentLengthBuf = n
}

// finishHeaders decides whether a body follows: only POST with a positive,
// in-range Content-Length carries one.
func (p *RequestParser) finishHeaders() ErrorKind {
	if p.hasContentLength && p.contentLengthBuf > MaxContentLength {
		return HttpHeaderValueError
	}
	if p.method == MethodPost && p.hasContentLength && p.contentLengthBuf > 0 {
		p.bodyNeeded = int(p.contentLengthBuf)
		p.body = make([]byte, 0, p.bodyNeeded)
		return InProgress
	}
	return Ok
}
