package transport

import (
	"context"
	"fmt"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	evErrors "evrelay/internal/errors"
	"evrelay/internal/resolve"
	"evrelay/util"
)

// TestTCPDialer_Connect verifies that TCPDialer can reach a local
// TCP server and exchange data.
func TestTCPDialer_Connect(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	// Server: accept, send greeting, close.
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		conn.Write([]byte("hello from server\n")) //nolint:errcheck
	}()

	d := &TCPDialer{Timeout: 2 * time.Second}

	conn, err := d.Dial(context.Background(), "tcp", ln.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	buf := make([]byte, 256)
	n, err := conn.Read(buf)
	if err != nil && err != io.EOF {
		t.Fatalf("read: %v", err)
	}
	if got := string(buf[:n]); got != "hello from server\n" {
		t.Errorf("got %q, want %q", got, "hello from server\n")
	}
}

// TestTCPDialer_ContextCancel verifies that a cancelled context stops the dial.
func TestTCPDialer_ContextCancel(t *testing.T) {
	d := &TCPDialer{Timeout: 5 * time.Second}

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // cancel immediately

	_, err := d.Dial(ctx, "tcp", "127.0.0.1:1")
	if err == nil {
		t.Fatal("expected error from cancelled context")
	}
}

// recordingDialer fails every address in refuse and dials the rest
// for real, recording the order of attempts.
type recordingDialer struct {
	refuse   map[string]bool
	attempts []string
}

func (d *recordingDialer) Dial(ctx context.Context, network, address string) (Conn, error) {
	d.attempts = append(d.attempts, address)
	if d.refuse[address] {
		return nil, fmt.Errorf("dial %s %s: connection refused", network, address)
	}
	return (&TCPDialer{Timeout: 2 * time.Second}).Dial(ctx, network, address)
}

func candidate(t *testing.T, addr string) resolve.Candidate {
	t.Helper()
	a, err := net.ResolveTCPAddr("tcp4", addr)
	if err != nil {
		t.Fatal(err)
	}
	return resolve.Candidate{Network: "tcp4", Addr: a}
}

func acceptLoop(ln net.Listener) {
	for {
		c, err := ln.Accept()
		if err != nil {
			return
		}
		c.Close()
	}
}

// TestConnector_FirstSuccessWins verifies that a failed first candidate
// falls through to the second, and the third is never attempted.
func TestConnector_FirstSuccessWins(t *testing.T) {
	ln2, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln2.Close()
	go acceptLoop(ln2)

	ln3, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln3.Close()
	go acceptLoop(ln3)

	c1 := candidate(t, "127.0.0.1:9")
	c2 := candidate(t, ln2.Addr().String())
	c3 := candidate(t, ln3.Addr().String())

	d := &recordingDialer{refuse: map[string]bool{c1.String(): true}}
	conn := &Connector{Dialer: d, Logger: util.NewLogger(0)}

	got, err := conn.Connect(context.Background(), resolve.Target{Host: "agent", Port: "7946"},
		[]resolve.Candidate{c1, c2, c3})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer got.Close()

	if got.RemoteAddr().String() != c2.String() {
		t.Errorf("connected to %s, want %s", got.RemoteAddr(), c2)
	}
	want := []string{c1.String(), c2.String()}
	if fmt.Sprint(d.attempts) != fmt.Sprint(want) {
		t.Errorf("attempts = %v, want %v", d.attempts, want)
	}
}

// TestConnector_Exhausted verifies a ConnectError listing every attempt.
func TestConnector_Exhausted(t *testing.T) {
	c1 := candidate(t, "127.0.0.1:9")
	c2 := candidate(t, "127.0.0.1:10")
	d := &recordingDialer{refuse: map[string]bool{c1.String(): true, c2.String(): true}}
	conn := &Connector{Dialer: d, Logger: util.NewLogger(0)}

	_, err := conn.Connect(context.Background(), resolve.Target{Host: "h", Port: "1"},
		[]resolve.Candidate{c1, c2})

	var ce *evErrors.ConnectError
	if !evErrors.As(err, &ce) {
		t.Fatalf("expected *ConnectError, got %T: %v", err, err)
	}
	if len(ce.Attempts) != 2 {
		t.Errorf("attempts = %d, want 2", len(ce.Attempts))
	}
	if ce.Target != "h:1" {
		t.Errorf("target = %q", ce.Target)
	}
}

// TestConnector_Empty verifies an empty list fails without dialing.
func TestConnector_Empty(t *testing.T) {
	d := &recordingDialer{}
	conn := &Connector{Dialer: d, Logger: util.NewLogger(0)}

	_, err := conn.Connect(context.Background(), resolve.Target{Host: "h", Port: "1"}, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "no candidate endpoints") {
		t.Errorf("unexpected error: %v", err)
	}
	if len(d.attempts) != 0 {
		t.Errorf("dialer called %d times", len(d.attempts))
	}
}
