package server

import (
	"context"
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wireproto/httpwire/pkg/httpwire/proto"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func newTestConnection(t *testing.T, clientConn net.Conn, cfg Config) *Connection {
	t.Helper()
	stats := NewStats(nil, true)
	return NewConnection(clientConn, cfg, stats, discardLogger)
}

func TestConnection_SimpleRequestResponse(t *testing.T) {
	client, srv := net.Pipe()
	defer client.Close()

	cfg := DefaultConfig()
	cfg.Handler = func(req *proto.Request) *proto.Response {
		require.Equal(t, proto.MethodGet, req.Method)
		require.Equal(t, "/hello", req.URI)
		return proto.NewResponse(proto.StatusOK, req.Version, proto.NewHeader(), []byte("hi"))
	}
	conn := newTestConnection(t, srv, cfg)

	done := make(chan struct{})
	go func() {
		conn.Serve(context.Background())
		close(done)
	}()

	_, err := client.Write([]byte("GET /hello HTTP/1.1\r\nConnection: close\r\n\r\n"))
	require.NoError(t, err)

	out, err := io.ReadAll(client)
	require.NoError(t, err)
	require.Contains(t, string(out), "200 OK")
	require.Contains(t, string(out), "hi")

	<-done
}

func TestConnection_KeepAliveResumesParser(t *testing.T) {
	clientConn, srv := net.Pipe()

	var handled int
	cfg := DefaultConfig()
	cfg.Handler = func(req *proto.Request) *proto.Response {
		handled++
		return proto.NewResponse(proto.StatusOK, req.Version, proto.NewHeader(), nil)
	}
	conn := newTestConnection(t, srv, cfg)

	done := make(chan struct{})
	go func() {
		conn.Serve(context.Background())
		close(done)
	}()

	_, err := clientConn.Write([]byte("GET /one HTTP/1.1\r\nConnection: keep-alive\r\n\r\n"))
	require.NoError(t, err)

	buf := make([]byte, 4096)
	n, err := clientConn.Read(buf)
	require.NoError(t, err)
	require.Contains(t, string(buf[:n]), "200 OK")

	_, err = clientConn.Write([]byte("GET /two HTTP/1.1\r\nConnection: close\r\n\r\n"))
	require.NoError(t, err)

	out, err := io.ReadAll(clientConn)
	require.NoError(t, err)
	require.Contains(t, string(out), "200 OK")

	<-done
	require.Equal(t, 2, handled)
}

func TestConnection_MalformedRequestGetsStock400AndCloses(t *testing.T) {
	clientConn, srv := net.Pipe()
	defer clientConn.Close()

	cfg := DefaultConfig()
	cfg.Handler = func(req *proto.Request) *proto.Response {
		t.Fatal("handler should not run for a malformed request")
		return nil
	}
	conn := newTestConnection(t, srv, cfg)

	done := make(chan struct{})
	go func() {
		conn.Serve(context.Background())
		close(done)
	}()

	_, err := clientConn.Write([]byte("BOGUS REQUEST LINE THAT IS NOT VALID\r\n\r\n"))
	require.NoError(t, err)

	out, err := io.ReadAll(clientConn)
	require.NoError(t, err)
	require.Contains(t, string(out), "400")

	<-done
}

func TestConnection_NilHandlerResponseSynthesizes500(t *testing.T) {
	clientConn, srv := net.Pipe()
	defer clientConn.Close()

	cfg := DefaultConfig()
	cfg.Handler = func(req *proto.Request) *proto.Response { return nil }
	conn := newTestConnection(t, srv, cfg)

	done := make(chan struct{})
	go func() {
		conn.Serve(context.Background())
		close(done)
	}()

	_, err := clientConn.Write([]byte("GET / HTTP/1.1\r\nConnection: close\r\n\r\n"))
	require.NoError(t, err)

	out, err := io.ReadAll(clientConn)
	require.NoError(t, err)
	require.Contains(t, string(out), "500")

	<-done
}

func TestConnection_IdleTimeoutClosesWithoutStockResponse(t *testing.T) {
	clientConn, srv := net.Pipe()
	defer clientConn.Close()

	cfg := DefaultConfig()
	cfg.IdleTimeout = 20 * time.Millisecond
	cfg.Handler = func(req *proto.Request) *proto.Response { return nil }
	conn := newTestConnection(t, srv, cfg)

	done := make(chan struct{})
	go func() {
		conn.Serve(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("connection did not close on idle timeout")
	}
}
