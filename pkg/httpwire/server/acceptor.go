package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/prometheus/client_golang/prometheus"
)

// Acceptor binds a listener and drives it with Config.Threads worker
// goroutines, each directly calling Accept — the Go analogue of N OS
// threads contending on one shared executor's accept handler. Each accepted
// connection then runs its full lifecycle on its own goroutine, so a slow
// or long-lived connection never blocks a worker from accepting the next
// one; Threads bounds accept concurrency, not the number of connections
// in flight.
type Acceptor struct {
	cfg    Config
	stats  *Stats
	logger *slog.Logger

	listener net.Listener
	stopped  atomic.Bool
	acceptWg sync.WaitGroup
	connWg   sync.WaitGroup
}

// NewAcceptor builds an Acceptor. If logger is nil, a logger that writes
// warnings and errors to stderr is used. If reg is nil, Prometheus collectors are not registered.
func NewAcceptor(cfg Config, reg prometheus.Registerer, logger *slog.Logger) *Acceptor {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	}
	if cfg.Threads <= 0 {
		cfg.Threads = 1
	}
	return &Acceptor{
		cfg:    cfg,
		stats:  NewStats(reg, cfg.DisableStats),
		logger: logger,
	}
}

// Stats exposes the acceptor's connection/request counters.
func (a *Acceptor) Stats() *Stats { return a.stats }

// listenConfig binds with SO_REUSEADDR, matching "address-reuse enabled".
var listenConfig = net.ListenConfig{
	Control: func(network, address string, c syscall.RawConn) error {
		var sockErr error
		err := c.Control(func(fd uintptr) {
			sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
		})
		if err != nil {
			return err
		}
		return sockErr
	},
}

// ListenAndServe binds cfg.Addr and runs Serve on it, blocking until
// Shutdown is called or a termination signal arrives.
func (a *Acceptor) ListenAndServe(ctx context.Context) error {
	l, err := listenConfig.Listen(ctx, "tcp", a.cfg.Addr)
	if err != nil {
		return fmt.Errorf("httpwire: listen %s: %w", a.cfg.Addr, err)
	}
	return a.Serve(ctx, l)
}

// Serve runs Config.Threads worker goroutines against l and installs
// SIGINT/SIGTERM/SIGQUIT handlers that trigger an idempotent shutdown. It
// blocks until all workers have returned.
func (a *Acceptor) Serve(ctx context.Context, l net.Listener) error {
	a.listener = l

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case sig := <-sigCh:
			a.logger.Info("received signal, shutting down", "signal", sig.String())
			a.Shutdown()
		case <-ctx.Done():
			a.Shutdown()
		}
	}()

	for i := 0; i < a.cfg.Threads; i++ {
		a.acceptWg.Add(1)
		go a.acceptLoop(ctx)
	}

	a.Wait()
	return nil
}

func (a *Acceptor) acceptLoop(ctx context.Context) {
	defer a.acceptWg.Done()
	for {
		if a.stopped.Load() {
			return
		}
		conn, err := a.listener.Accept()
		if err != nil {
			if a.stopped.Load() {
				return
			}
			a.logger.Warn("accept error", "error", err)
			continue
		}
		c := NewConnection(conn, a.cfg, a.stats, a.logger)
		a.connWg.Add(1)
		go func() {
			defer a.connWg.Done()
			c.Serve(ctx)
		}()
	}
}

// Shutdown stops the acceptor exactly once (subsequent calls are no-ops, the
// CAS-once rule) and closes the listener so outstanding Accept calls
// unblock. It does not wait; the join on accept workers and in-flight
// connections is Wait (called by Serve) — a sync.WaitGroup join, not the
// busy-spin an earlier version of this protocol used.
func (a *Acceptor) Shutdown() {
	if !a.stopped.CompareAndSwap(false, true) {
		return
	}
	if a.listener != nil {
		_ = a.listener.Close()
	}
}

// Wait blocks until every accept worker has returned and every in-flight
// connection has finished or been closed.
func (a *Acceptor) Wait() {
	a.acceptWg.Wait()
	a.connWg.Wait()
}
