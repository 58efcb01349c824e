// Package client implements the HTTP/1.1 client side: a per-call request
// pipeline (resolve, connect, write, read, parse) and a single-worker
// Sender that drains a queue of such calls.
package client

import (
	"context"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/wireproto/httpwire/pkg/httpwire/proto"
)

// Config controls how a single request call behaves.
type Config struct {
	// Address and Port name the default target; SendRequest may override
	// both per call.
	Address string
	Port    uint16

	// Timeout bounds the whole resolve+connect+write+read+parse pipeline
	// for one call.
	Timeout time.Duration
}

// DefaultConfig returns a Config with a 10s timeout; Address/Port are left
// for the caller to set.
func DefaultConfig() Config {
	return Config{Timeout: 10 * time.Second}
}

// Result is what a request call produces: either a parsed Response, or an
// error if any pipeline stage failed. Exactly one of the two is non-zero.
type Result struct {
	Response *proto.Response
	Err      error
}

// Do runs the resolve -> connect (first successful resolved address wins)
// -> write -> read -> parse pipeline for one request against cfg's
// default address/port, blocking until it completes or ctx is done.
// There is no connection reuse across calls: each Do dials its own
// connection and closes it (or hands it back to the caller to keep open
// for a pipelined follow-up is explicitly out of scope here).
func Do(ctx context.Context, cfg Config, req *proto.Request) Result {
	return do(ctx, cfg, cfg.Address, cfg.Port, req)
}

func do(ctx context.Context, cfg Config, address string, port uint16, req *proto.Request) Result {
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	hostPort := net.JoinHostPort(address, fmt.Sprintf("%d", port))
	conn, err := dialFirstSuccess(ctx, hostPort)
	if err != nil {
		return Result{Err: fmt.Errorf("httpwire: connect %s: %w", hostPort, err)}
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	wire := proto.WriteRequest(req)
	if _, err := conn.Write(wire); err != nil {
		return Result{Err: fmt.Errorf("httpwire: write request: %w", err)}
	}

	resp, err := readResponse(conn, req.Method)
	if err != nil {
		return Result{Err: err}
	}
	return Result{Response: resp}
}

// dialFirstSuccess resolves hostPort and connects to the first address that
// succeeds, per the "first successful resolved endpoint wins" rule — Go's
// net.Dialer already implements exactly this (Happy Eyeballs-lite: it tries
// resolved addresses in order until one connects), so this is a thin,
// context-aware wrapper rather than a hand-rolled resolve loop.
func dialFirstSuccess(ctx context.Context, hostPort string) (net.Conn, error) {
	var d net.Dialer
	return d.DialContext(ctx, "tcp", hostPort)
}

func readResponse(r io.Reader, method proto.Method) (*proto.Response, error) {
	parser := proto.NewResponseParser()
	buf := make([]byte, proto.ReadBufferSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			kind, consumed := parser.ParseBytes(buf[:n])
			if kind == proto.Ok {
				// Body bytes for the same response can arrive in this same
				// read (the common case for short responses); hand off
				// whatever is left in buf after the header block before
				// issuing any further Reads.
				leftover := append([]byte(nil), buf[consumed:n]...)
				return finishResponse(r, parser, method, buf, leftover)
			}
			if kind != proto.InProgress {
				return nil, fmt.Errorf("httpwire: parse response: %w", kind)
			}
		}
		if err != nil {
			return nil, fmt.Errorf("httpwire: read response: %w", err)
		}
	}
}

// finishResponse reads the body according to the framing the header block
// selected: chunked if Transfer-Encoding says so, else Content-Length,
// else read until the connection closes. A response to HEAD is never read
// past its header block. leftover holds any body bytes
// already read alongside the header block and is consumed before any
// further Read on r.
func finishResponse(r io.Reader, parser *proto.ResponseParser, method proto.Method, scratch []byte, leftover []byte) (*proto.Response, error) {
	var body []byte
	mode := parser.BodyMode()
	if method == proto.MethodHead {
		// A response to HEAD carries no body, whatever its framing headers say.
		mode = proto.BodyModeNone
	}
	switch mode {
	case proto.BodyModeNone:
		// no body expected (e.g. HEAD)
	case proto.BodyModeContentLength:
		n := parser.ContentLength()
		body = make([]byte, 0, n)
		remaining := n
		if int64(len(leftover)) > remaining {
			leftover = leftover[:remaining]
		}
		body = append(body, leftover...)
		remaining -= int64(len(leftover))
		for remaining > 0 {
			toRead := int64(len(scratch))
			if remaining < toRead {
				toRead = remaining
			}
			read, err := r.Read(scratch[:toRead])
			if read > 0 {
				body = append(body, scratch[:read]...)
				remaining -= int64(read)
			}
			if err != nil {
				if err == io.EOF && remaining == 0 {
					break
				}
				return nil, fmt.Errorf("httpwire: read body: %w", err)
			}
		}
	case proto.BodyModeChunked:
		cp := proto.NewChunkParser()
		kind, _ := cp.ParseBytes(leftover)
		for kind == proto.InProgress {
			n, err := r.Read(scratch)
			if n > 0 {
				kind, _ = cp.ParseBytes(scratch[:n])
			}
			if err != nil && kind == proto.InProgress {
				return nil, fmt.Errorf("httpwire: read chunked body: %w", err)
			}
		}
		if kind != proto.Ok {
			return nil, fmt.Errorf("httpwire: parse chunked body: %w", kind)
		}
		body = cp.Body()
	case proto.BodyModeUntilClose:
		rest, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("httpwire: read body until close: %w", err)
		}
		body = append(leftover, rest...)
	}

	if method == proto.MethodHead {
		body = nil
	}

	resp := &proto.Response{
		StatusCode: parser.StatusCode(),
		StatusText: parser.StatusText(),
		Version:    parser.Version(),
		Header:     parser.Header(),
		Body:       body,
	}
	return resp, nil
}
