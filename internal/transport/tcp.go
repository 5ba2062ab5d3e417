package transport

import (
	"context"
	"fmt"
	"net"
	"time"
)

// TCPDialer establishes plain TCP connections.  Socket creation and
// connect both happen inside net.Dialer, which closes the socket when
// connect fails.
type TCPDialer struct {
	Timeout time.Duration // zero means no dial timeout
}

// Dial connects to address over TCP.
func (d *TCPDialer) Dial(ctx context.Context, network, address string) (Conn, error) {
	dialer := net.Dialer{Timeout: d.Timeout}

	nc, err := dialer.DialContext(ctx, network, address)
	if err != nil {
		return nil, err
	}
	conn, ok := nc.(Conn)
	if !ok {
		nc.Close()
		return nil, fmt.Errorf("dial %s %s: %T cannot half-close", network, address, nc)
	}
	return conn, nil
}
