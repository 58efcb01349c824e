package proto

// Wire-format size caps, per the external interfaces cap table. These are
// authoritative over anything a donor implementation uses internally.
const (
	// MaxURILength is the longest Request-URI accepted before
	// IncorrectURISize.
	MaxURILength = 2048

	// MaxMethodNameLength bounds the method token scanned before giving up
	// with UnknownMethodType (method names are 1-20 alpha bytes).
	MaxMethodNameLength = 20

	// MaxStatusTextLength bounds the status-line reason phrase.
	MaxStatusTextLength = 100

	// MaxMinorVersionDigits is the most minor-version digits tolerated;
	// a 5th digit is rejected with UnknowHttpVersion.
	MaxMinorVersionDigits = 4

	// MaxStatusCodeDigits is the most status-code digits tolerated before
	// UnknownStatusCode; the resulting value is additionally capped by
	// MaxStatusCodeValue.
	MaxStatusCodeDigits = 6

	// MaxHeaderBlockSize bounds the total bytes of the header block
	// (header lines plus the terminating blank line), checked before a
	// pending header-block parse is allowed to report Ok.
	MaxHeaderBlockSize = 8192

	// ReadBufferSize is the fixed-capacity per-connection read buffer size.
	ReadBufferSize = 8192

	// MaxContentLength is the largest Content-Length value accepted
	// (4 MiB); Content-Length parsing is overflow-safe before this cap is
	// applied.
	MaxContentLength = 1 << 22
)
