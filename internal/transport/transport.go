// Package transport provides connection establishment.  A Dialer opens
// one stream to one address; the Connector walks an ordered candidate
// list with a Dialer and keeps the first stream that connects.
package transport

import (
	"context"
	"net"
	"syscall"
)

// Conn is an established bidirectional stream whose write direction can
// be shut down on its own and whose descriptor is reachable for
// readiness polling.  *net.TCPConn and *net.UnixConn satisfy it.
type Conn interface {
	net.Conn
	syscall.Conn
	CloseWrite() error
}

// Dialer opens outbound stream connections.
type Dialer interface {
	// Dial establishes a connection to the given network address.  On
	// failure no descriptor is left open.
	Dial(ctx context.Context, network, address string) (Conn, error)
}
