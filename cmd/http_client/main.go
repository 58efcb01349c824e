// Command http_client issues a single GET request and prints the response.
//
// Usage: http_client <address> <port> <url>
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/wireproto/httpwire/pkg/httpwire/client"
	"github.com/wireproto/httpwire/pkg/httpwire/proto"
)

func main() {
	os.Exit(run(os.Args))
}

func run(args []string) int {
	if len(args) != 4 {
		fmt.Fprintln(os.Stderr, "Usage: http_client <address> <port> <url>")
		return 1
	}

	address, portStr, url := args[1], args[2], args[3]
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		fmt.Fprintf(os.Stderr, "exception: invalid port %q: %v\n", portStr, err)
		return 2
	}

	req := proto.NewRequest(proto.MethodGet, url, proto.DefaultVersion, proto.NewHeader(), nil)
	fmt.Println(string(proto.WriteRequest(req)))

	cfg := client.DefaultConfig()
	cfg.Address = address
	cfg.Port = uint16(port)

	result := client.Do(context.Background(), cfg, req)
	if result.Err != nil {
		fmt.Println("////////////////////ERROR////////////////////")
		fmt.Fprintf(os.Stderr, "exception: %v\n", result.Err)
		return 2
	}
	fmt.Print(string(proto.WriteResponse(result.Response)))
	return 0
}
