package proto

import "strconv"

// ResponseParser is a byte-reentrant FSM for an HTTP status line plus
// header block, mirroring RequestParser's shape. Body framing (fixed-length
// via Content-Length, or chunked via Transfer-Encoding) is decided once
// headers finish parsing and is then driven externally through BodyMode,
// ContentLength, and a ChunkParser — the response body is not a fixed size
// known up front the way a request body is, so this parser stops at Ok
// once headers are complete and lets the caller choose how to read the
// body.
type ResponseParser struct {
	lineState statusLineState
	headState headerBlockState

	major uint8
	minor uint16
	minorDigits int

	codeDigits int
	code       int

	textBuf [MaxStatusTextLength]byte
	textLen int

	headerBytes int
	nameBuf     []byte
	valueBuf    []byte
	folding     bool

	hasContentLength  bool
	contentLengthBuf  int64
	transferEncoding  string
	connectionHeader  string

	header *Header

	result ErrorKind
	done   bool
}

type statusLineState int8

const (
	stateStatusVH statusLineState = iota
	stateStatusVT1
	stateStatusVT2
	stateStatusVP
	stateStatusVSlash
	stateStatusMajorStart
	stateStatusMajor
	stateStatusMinorStart
	stateStatusMinor
	stateStatusSpaceBeforeCode
	stateStatusCodeStart
	stateStatusCode
	stateStatusSpaceBeforeText
	stateStatusText
	stateStatusExpectNL1
	stateStatusLineParsed
)

// BodyMode describes how a parsed response's body should be read.
type BodyMode int

const (
	BodyModeNone BodyMode = iota
	BodyModeContentLength
	BodyModeChunked
	BodyModeUntilClose
)

// NewResponseParser returns a parser ready to consume a new response.
func NewResponseParser() *ResponseParser {
	return &ResponseParser{header: NewHeader()}
}

// Reset returns the parser to its initial state.
func (p *ResponseParser) Reset() {
	p.lineState = stateStatusVH
	p.headState = stateLineStart
	p.major = 0
	p.minor = 0
	p.minorDigits = 0
	p.codeDigits = 0
	p.code = 0
	p.textLen = 0
	p.headerBytes = 0
	p.nameBuf = p.nameBuf[:0]
	p.valueBuf = p.valueBuf[:0]
	p.folding = false
	p.hasContentLength = false
	p.contentLengthBuf = 0
	p.transferEncoding = ""
	p.connectionHeader = ""
	p.header.Reset()
	p.result = InProgress
	p.done = false
}

// StatusCode returns the parsed numeric status code.
func (p *ResponseParser) StatusCode() StatusCode { return StatusCode(p.code) }

// Version returns the parsed version.
func (p *ResponseParser) Version() Version { return Version{Major: p.major, Minor: uint8(p.minor)} }

// StatusText returns the parsed reason phrase.
func (p *ResponseParser) StatusText() string { return string(p.textBuf[:p.textLen]) }

// Header returns the parsed header map.
func (p *ResponseParser) Header() *Header { return p.header }

// BodyMode decides how the body following this response should be read:
// chunked if Transfer-Encoding names "chunked" (case-insensitive), else
// Content-Length if present, else read until the connection closes.
func (p *ResponseParser) BodyMode() BodyMode {
	if upperASCII(p.transferEncoding) == "CHUNKED" {
		return BodyModeChunked
	}
	if p.hasContentLength {
		return BodyModeContentLength
	}
	return BodyModeUntilClose
}

// ContentLength returns the parsed Content-Length value (only meaningful
// when BodyMode is BodyModeContentLength).
func (p *ResponseParser) ContentLength() int64 { return p.contentLengthBuf }

// KeepAlive reports whether the response's Connection header requested
// keep-alive.
func (p *ResponseParser) KeepAlive() bool {
	return isKeepAliveToken(p.connectionHeader)
}

// Parse feeds a single byte and returns the current outcome.
func (p *ResponseParser) Parse(b byte) ErrorKind {
	if p.done {
		return AlreadyParsed
	}

	if p.lineState != stateStatusLineParsed {
		kind := p.parseStatusLineByte(b)
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

	kind := p.parseHeaderByteShared(b)
	if kind == InProgress {
		return InProgress
	}
	p.done = true
	p.result = kind
	return kind
}

// ParseBytes feeds as much of buf as needed to reach a terminal result.
func (p *ResponseParser) ParseBytes(buf []byte) (ErrorKind, int) {
	for i, b := range buf {
		kind := p.Parse(b)
		if kind != InProgress {
			return kind, i + 1
		}
	}
	return InProgress, len(buf)
}

func (p *ResponseParser) parseStatusLineByte(b byte) ErrorKind {
	switch p.lineState {
	case stateStatusVH:
		if toLowerByte(b) != 'h' {
			return UnknowHttpVersion
		}
		p.lineState = stateStatusVT1
	case stateStatusVT1:
		if toLowerByte(b) != 't' {
			return UnknowHttpVersion
		}
		p.lineState = stateStatusVT2
	case stateStatusVT2:
		if toLowerByte(b) != 't' {
			return UnknowHttpVersion
		}
		p.lineState = stateStatusVP
	case stateStatusVP:
		if toLowerByte(b) != 'p' {
			return UnknowHttpVersion
		}
		p.lineState = stateStatusVSlash
	case stateStatusVSlash:
		if b != '/' {
			return UnknowHttpVersion
		}
		p.lineState = stateStatusMajorStart
	case stateStatusMajorStart:
		if b != '0' && b != '1' {
			return UnknowHttpVersion
		}
		p.major = b - '0'
		p.lineState = stateStatusMajor
	case stateStatusMajor:
		if b != '.' {
			return UnknowHttpVersion
		}
		p.lineState = stateStatusMinorStart
	case stateStatusMinorStart:
		if !isDigit(b) {
			return UnknowHttpVersion
		}
		p.minor = uint16(b - '0')
		p.minorDigits = 1
		p.lineState = stateStatusMinor
	case stateStatusMinor:
		if b == ' ' {
			p.lineState = stateStatusCodeStart
			return InProgress
		}
		if !isDigit(b) {
			return UnknowHttpVersion
		}
		p.minorDigits++
		if p.minorDigits > MaxMinorVersionDigits {
			return UnknowHttpVersion
		}
		p.minor = p.minor*10 + uint16(b-'0')
	case stateStatusCodeStart:
		if !isDigit(b) {
			return UnknownStatusCode
		}
		p.code = int(b - '0')
		p.codeDigits = 1
		p.lineState = stateStatusCode
	case stateStatusCode:
		if b == ' ' {
			if p.code > MaxStatusCodeValue {
				return UnknownStatusCode
			}
			p.lineState = stateStatusSpaceBeforeText
			return InProgress
		}
		if b == '\r' {
			if p.code > MaxStatusCodeValue {
				return UnknownStatusCode
			}
			p.lineState = stateStatusExpectNL1
			return InProgress
		}
		if !isDigit(b) {
			return UnknownStatusCode
		}
		p.codeDigits++
		if p.codeDigits > MaxStatusCodeDigits {
			return UnknownStatusCode
		}
		p.code = p.code*10 + int(b-'0')
	case stateStatusSpaceBeforeText:
		if b == '\r' {
			p.lineState = stateStatusExpectNL1
			return InProgress
		}
		if isCtl(b) {
			return IncorrectStatusText
		}
		p.textBuf[0] = b
		p.textLen = 1
		p.lineState = stateStatusText
	case stateStatusText:
		if b == '\r' {
			p.lineState = stateStatusExpectNL1
			return InProgress
		}
		if isCtl(b) {
			return IncorrectStatusText
		}
		if p.textLen >= MaxStatusTextLength {
			return IncorrectStatusText
		}
		p.textBuf[p.textLen] = b
		p.textLen++
	case stateStatusExpectNL1:
		if b != '\n' {
			return NewLine1Error
		}
		p.lineState = stateStatusLineParsed
		return Ok
	}
	return InProgress
}

// parseHeaderByteShared runs the same header-block state machine shape as
// RequestParser, adjusted to track Transfer-Encoding/Connection too and to
// stop (Ok) once the blank line is seen, leaving body framing to the caller.
func (p *ResponseParser) parseHeaderByteShared(b byte) ErrorKind {
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
		return Ok
	}
	return UnknownState
}

func (p *ResponseParser) continueHeaderValue(b byte) ErrorKind {
	if b == '\r' {
		value := string(trimLeadingSpace(p.valueBuf))
		if p.folding {
			last := &p.header.entries[len(p.header.entries)-1]
			last.value += " " + value
			p.processSpecialHeader(last.name, last.value)
		} else {
			name := string(p.nameBuf)
			p.header.Add(name, value)
			p.processSpecialHeader(name, value)
		}
		p.folding = false
		p.headState = stateExpectNL2
		return InProgress
	}
	if isCtl(b) {
		return HttpHeaderValueError
	}
	p.valueBuf = append(p.valueBuf, b)
	return InProgress
}

func (p *ResponseParser) processSpecialHeader(name, value string) {
	switch upperASCII(name) {
	case "CONTENT-LENGTH":
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil || n < 0 {
			return
		}
		p.hasContentLength = true
		p.contentLengthBuf = n
	case "TRANSFER-ENCODING":
		p.transferEncoding = value
	case "CONNECTION":
		p.connectionHeader = value
	}
}
