// Command http_server serves a document root over HTTP/1.1.
//
// Usage: http_server <address> <port> <threads> <doc_root>
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/wireproto/httpwire/pkg/httpwire/server"
	"github.com/wireproto/httpwire/pkg/httpwire/staticfile"

	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	os.Exit(run(os.Args))
}

func run(args []string) int {
	if len(args) != 5 {
		fmt.Fprintln(os.Stderr, "Usage: http_server <address> <port> <threads> <doc_root>")
		return 1
	}

	address, portStr, threadsStr, docRoot := args[1], args[2], args[3], args[4]

	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		fmt.Fprintf(os.Stderr, "exception: invalid port %q: %v\n", portStr, err)
		return 2
	}
	threads, err := strconv.Atoi(threadsStr)
	if err != nil || threads <= 0 {
		fmt.Fprintf(os.Stderr, "exception: invalid thread count %q\n", threadsStr)
		return 2
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	handler := staticfile.New(docRoot)

	cfg := server.DefaultConfig()
	cfg.Addr = fmt.Sprintf("%s:%d", address, port)
	cfg.Threads = threads
	cfg.Handler = handler.Serve

	acceptor := server.NewAcceptor(cfg, prometheus.DefaultRegisterer, logger)
	if err := acceptor.ListenAndServe(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "exception: %v\n", err)
		return 2
	}
	return 0
}
