package util

import (
	"fmt"
	"net"
)

// FormatAddr returns "host:port", bracketing IPv6 literals.
func FormatAddr(host, port string) string {
	return net.JoinHostPort(host, port)
}

// FindFreePort returns a TCP port on 127.0.0.1 that was free a moment
// ago.  Tests use it to get an address nothing listens on.
func FindFreePort() (int, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, fmt.Errorf("finding free port: %w", err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}
