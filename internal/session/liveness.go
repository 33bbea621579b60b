package session

import (
	"bufio"
	"errors"
	"io"
	"net"
	"time"
)

// stillConnected probes whether the peer has closed its side of conn
// without consuming any buffered frame bytes. It sets an already-expired
// read deadline and peeks one byte: a closed peer's FIN makes the socket
// immediately readable with io.EOF regardless of deadline, while a live
// but silent peer yields a deadline-exceeded error. This is how the
// session loop answers spec.md §4.2's "query current connections" check
// without a transport-level connection-count statistic, which Go's
// net.Conn has no equivalent of.
func stillConnected(conn net.Conn, r *bufio.Reader) bool {
	_ = conn.SetReadDeadline(time.Now())
	_, err := r.Peek(1)
	if err == nil {
		return true
	}
	if errors.Is(err, io.EOF) {
		return false
	}
	return true
}

func isTimeout(err error) bool {
	var ne net.Error
	if errors.As(err, &ne) {
		return ne.Timeout()
	}
	return false
}
