package server

import (
	"context"
	"log/slog"
	"net"
	"sync/atomic"
	"time"

	"github.com/looplab/fsm"
	"github.com/valyala/bytebufferpool"

	"github.com/wireproto/httpwire/pkg/httpwire/proto"
)

// Connection states, matching the lifecycle diagram: Accepted -> Reading ->
// (parse error -> write stock 400 -> Closed) | (ok -> Dispatched ->
// AwaitingResponse -> Writing -> (keep-alive ? Reading : Closed)).
const (
	StateAccepted         = "accepted"
	StateReading          = "reading"
	StateDispatched       = "dispatched"
	StateAwaitingResponse = "awaiting_response"
	StateWriting          = "writing"
	StateClosed           = "closed"
)

var connectionIDCounter atomic.Int64

var readBufPool bytebufferpool.Pool

// Connection owns one accepted socket end to end: the goroutine that calls
// Serve is the only goroutine that ever reads, writes, or lets this
// connection's deadline fire, which is what makes "at most one of
// {read, write, timer-fire} executes concurrently per connection" structural
// rather than something a mutex has to enforce.
type Connection struct {
	id     int64
	conn   net.Conn
	cfg    Config
	stats  *Stats
	logger *slog.Logger

	state  *fsm.FSM
	parser *proto.RequestParser

	startedAt time.Time
}

// NewConnection wraps an accepted net.Conn, assigning it the next
// process-wide monotonic connection id (wraparound is cosmetic — ids are
// for logging/correlation only, never used for equality-sensitive logic).
func NewConnection(conn net.Conn, cfg Config, stats *Stats, logger *slog.Logger) *Connection {
	id := connectionIDCounter.Add(1)
	return &Connection{
		id:        id,
		conn:      conn,
		cfg:       cfg,
		stats:     stats,
		logger:    logger,
		parser:    proto.NewRequestParser(),
		startedAt: time.Now(),
		state:     newConnectionFSM(),
	}
}

func newConnectionFSM() *fsm.FSM {
	return fsm.NewFSM(
		StateAccepted,
		fsm.Events{
			{Name: "read", Src: []string{StateAccepted, StateReading}, Dst: StateReading},
			{Name: "dispatch", Src: []string{StateReading}, Dst: StateDispatched},
			{Name: "await_response", Src: []string{StateDispatched}, Dst: StateAwaitingResponse},
			{Name: "write", Src: []string{StateAwaitingResponse}, Dst: StateWriting},
			{Name: "reset", Src: []string{StateWriting}, Dst: StateReading},
			{Name: "close", Src: []string{StateAccepted, StateReading, StateDispatched, StateAwaitingResponse, StateWriting}, Dst: StateClosed},
		},
		nil,
	)
}

// Serve drives this connection's full lifecycle to completion: read/parse a
// request, dispatch it to the handler, write the response, and either loop
// back to read the next request (keep-alive) or close. It returns when the
// connection is closed, by any means (peer close, protocol error, idle
// timeout, or a non-keep-alive response).
func (c *Connection) Serve(ctx context.Context) {
	c.stats.connectionOpened()
	defer func() {
		c.stats.connectionClosed()
		c.conn.Close()
	}()

	for {
		c.setDeadline()
		req, kind, dropped := c.readRequest()
		if dropped {
			return
		}
		if kind != proto.Ok {
			c.stats.parseError()
			c.writeStockAndClose(proto.StatusBadRequest)
			return
		}

		_ = c.state.Event(ctx, "dispatch")
		c.stats.requestDispatched()
		resp := c.dispatch(req)
		_ = c.state.Event(ctx, "await_response")

		_ = c.state.Event(ctx, "write")
		if err := c.writeResponse(resp); err != nil {
			c.logger.Debug("write failed", "connection_id", c.id, "error", err)
			_ = c.state.Event(ctx, "close")
			return
		}

		if !c.shouldKeepAlive(req, resp) {
			_ = c.state.Event(ctx, "close")
			return
		}
		_ = c.state.Event(ctx, "reset")
		c.parser.Reset()
	}
}

// readRequest reads and parses one request from the connection, one chunk
// at a time. The third return value is true when the connection was
// dropped before a request could be completed — peer close, I/O error, or
// the idle deadline firing (net.Conn.Read then returns a timeout error) —
// in which case the caller must not write a stock response, only close.
func (c *Connection) readRequest() (*proto.Request, proto.ErrorKind, bool) {
	_ = c.state.Event(context.Background(), "read")

	buf := readBufPool.Get()
	defer readBufPool.Put(buf)
	if len(buf.B) < proto.ReadBufferSize {
		buf.B = make([]byte, proto.ReadBufferSize)
	}

	for {
		n, err := c.conn.Read(buf.B[:proto.ReadBufferSize])
		if n > 0 {
			kind, consumed := c.parser.ParseBytes(buf.B[:n])
			if kind == proto.Ok {
				return c.parser.Request(), proto.Ok, false
			}
			if kind != proto.InProgress {
				return nil, kind, false
			}
			_ = consumed
		}
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				c.stats.timeout()
			}
			return nil, proto.Ok, true
		}
	}
}

func (c *Connection) dispatch(req *proto.Request) *proto.Response {
	if c.cfg.Handler == nil {
		return proto.StockResponse(proto.StatusInternalServerError, proto.DefaultVersion)
	}
	resp := c.cfg.Handler(req)
	if resp == nil {
		// The handler dropped the request without replying: synthesize a
		// 500 rather than hang the connection, mirroring the
		// handler-destroyed-without-reply rule.
		resp = proto.StockResponse(proto.StatusInternalServerError, proto.DefaultVersion)
	}
	return resp
}

func (c *Connection) writeResponse(resp *proto.Response) error {
	wire := proto.WriteResponse(resp)
	_, err := c.conn.Write(wire)
	return err
}

func (c *Connection) writeStockAndClose(status proto.StatusCode) {
	resp := proto.StockResponse(status, proto.DefaultVersion)
	_ = c.writeResponse(resp)
	_ = c.state.Event(context.Background(), "close")
}

func (c *Connection) shouldKeepAlive(req *proto.Request, resp *proto.Response) bool {
	if v, ok := resp.Header.Get("Connection"); ok && upperEquals(v, "close") {
		return false
	}
	return req.KeepAlive()
}

func upperEquals(s, want string) bool {
	if len(s) != len(want) {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		w := want[i]
		if w >= 'A' && w <= 'Z' {
			w += 'a' - 'A'
		}
		if c != w {
			return false
		}
	}
	return true
}

func (c *Connection) setDeadline() {
	if c.cfg.IdleTimeout <= 0 {
		return
	}
	_ = c.conn.SetDeadline(time.Now().Add(c.cfg.IdleTimeout))
}
