// Package portalloc implements the dynamic per-session port allocator:
// given a starting port, it scans upward until it finds one it can bind.
package portalloc

import (
	"fmt"
	"net"
	"strconv"
)

// maxAttempts bounds the upward scan. The protocol allows an unbounded
// scan in principle (the OS will eventually refuse); a finite cap just
// keeps a pathological run from spinning forever.
const maxAttempts = 4096

// Allocate binds a TCP listener on host, trying start and then
// incrementing on failure, returning the listener and the port actually
// used. Two workers starting concurrently may race for the same port;
// the loser observes a bind error and advances, which is an accepted
// cost of this scheme (see spec.md §4.6/§9).
func Allocate(host string, start int) (net.Listener, int, error) {
	port := start
	for attempt := 0; attempt < maxAttempts; attempt++ {
		addr := net.JoinHostPort(host, strconv.Itoa(port))
		ln, err := net.Listen("tcp", addr)
		if err == nil {
			return ln, port, nil
		}
		port++
	}
	return nil, 0, fmt.Errorf("portalloc: no free port found in [%d, %d) on %s", start, port, host)
}
