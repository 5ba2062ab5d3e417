// Package listener is the receiving end of the forwarding protocol.  It
// accepts streams, decodes the environment block into an event, prints
// the event as a JSON line, and answers query events through an
// optional Responder before closing the stream.
package listener

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"evrelay/internal/envwire"
	"evrelay/internal/event"
	"evrelay/internal/metrics"
	"evrelay/util"
)

// Mode accepts inbound forwarder connections.  With KeepOpen=true it
// spawns a goroutine per connection; otherwise it handles one
// connection and returns.
type Mode struct {
	Address   string // host:port
	KeepOpen  bool
	ModeVar   string // variable that marks a query
	ModeValue string
	Responder *Responder // nil: queries get an empty response
	Stdout    io.Writer
	Logger    *util.Logger
	Metrics   *metrics.Collector

	// Listener, when set, is used instead of listening on Address.
	Listener net.Listener

	mu sync.Mutex // serialises Stdout
}

// Run starts listening and serves connections until the context is
// cancelled or, without KeepOpen, the first connection is done.
func (m *Mode) Run(ctx context.Context) error {
	ln := m.Listener
	if ln == nil {
		var err error
		ln, err = net.Listen("tcp", m.Address)
		if err != nil {
			return fmt.Errorf("listen on %s: %w", m.Address, err)
		}
	}
	defer ln.Close()

	m.Logger.Info("listening on %s (tcp)", ln.Addr())

	stop := context.AfterFunc(ctx, func() { ln.Close() })
	defer stop()

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return fmt.Errorf("accept: %w", err)
			}
		}

		m.Logger.Verbose("connection from %s", conn.RemoteAddr())

		if !m.KeepOpen {
			return m.serveConn(ctx, conn)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := m.serveConn(ctx, conn); err != nil {
				m.Logger.Error("%s: %v", conn.RemoteAddr(), err)
			}
		}()
	}
}

// serveConn reads one event and, for queries, writes the response.
func (m *Mode) serveConn(ctx context.Context, conn net.Conn) error {
	defer conn.Close()

	env, payload, err := envwire.Decode(conn)
	if err != nil {
		m.Metrics.RecordError(err.Error())
		return fmt.Errorf("decode event: %w", err)
	}
	m.Metrics.EnvReceived(int64(envwire.EncodedLen(env)))
	m.Metrics.BytesReceived(int64(len(payload)))

	ev := event.New(env, payload)
	if err := m.print(ev); err != nil {
		return err
	}

	if v, ok := envwire.Lookup(env, m.ModeVar); !ok || v != m.ModeValue {
		return nil
	}

	var resp []byte
	if m.Responder != nil {
		resp, err = m.Responder.Respond(ctx, ev)
		switch {
		case errors.Is(err, ErrNoResponder):
			m.Logger.Verbose("%v", err)
		case err != nil:
			m.Metrics.RecordError(err.Error())
			m.Logger.Warn("responder: %v", err)
		}
	}
	if _, err := conn.Write(resp); err != nil {
		return fmt.Errorf("write response: %w", err)
	}
	m.Metrics.BytesSent(int64(len(resp)))
	m.Logger.Verbose("answered %s %q with %d bytes", ev.Type, ev.QueryName, len(resp))
	return nil
}

// record is the JSON line written per event.
type record struct {
	*event.Event
	Members []event.Member `json:"members,omitempty"`
}

func (m *Mode) print(ev *event.Event) error {
	line, err := json.Marshal(record{Event: ev, Members: ev.Members()})
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	line = append(line, '\n')

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.Stdout.Write(line); err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	return nil
}
