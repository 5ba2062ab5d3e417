package core

import (
	"context"
	"io"

	"evrelay/internal/envwire"
	evErrors "evrelay/internal/errors"
	"evrelay/internal/metrics"
	"evrelay/internal/pump"
	"evrelay/internal/resolve"
	"evrelay/internal/transport"
	"evrelay/util"
)

// State is a step of the forwarding sequence.  States only move
// forward.
type State int

const (
	StateInit State = iota
	StateResolved
	StateConnected
	StateEnvSent
	StateStdinPumped
	StateWriteHalfClosed
	StateResponsePumped
	StateClosed
)

var stateNames = [...]string{
	"Init", "Resolved", "Connected", "EnvSent",
	"StdinPumped", "WriteHalfClosed", "ResponsePumped", "Closed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "Unknown"
	}
	return stateNames[s]
}

// Resolver produces ordered candidates for a target.
type Resolver interface {
	Resolve(ctx context.Context, t resolve.Target) ([]resolve.Candidate, error)
}

// Connector opens the first connectable candidate.
type Connector interface {
	Connect(ctx context.Context, t resolve.Target, candidates []resolve.Candidate) (transport.Conn, error)
}

// Mission forwards one event: environment block, then stdin, then
// (in FullDuplex) the peer's response to Stdout.  It owns the
// candidate list and the connection, and releases both exactly once
// however Run ends.
type Mission struct {
	Target    resolve.Target
	Env       []string
	Duplex    Duplex
	Resolver  Resolver
	Connector Connector
	Pump      *pump.Pump
	Stdin     pump.Source
	Stdout    io.Writer
	Logger    *util.Logger
	Metrics   *metrics.Collector

	candidates []resolve.Candidate
	conn       transport.Conn
	state      State
	reached    State
	closed     bool
}

// State returns the mission's current state.
func (m *Mission) State() State { return m.state }

// Reached returns the furthest state before teardown.
func (m *Mission) Reached() State { return m.reached }

// Run executes the whole sequence.  Any error is terminal; teardown has
// already happened when Run returns.
func (m *Mission) Run(ctx context.Context) (err error) {
	defer m.close()
	defer func() {
		if err != nil {
			m.Metrics.RecordError(err.Error())
			m.Logger.Debug("failed after %s: %v", m.state, err)
		}
	}()

	candidates, err := m.Resolver.Resolve(ctx, m.Target)
	if err != nil {
		return err
	}
	m.candidates = candidates
	m.enter(StateResolved)

	conn, err := m.Connector.Connect(ctx, m.Target, m.candidates)
	m.candidates = nil
	if err != nil {
		return err
	}
	m.conn = conn
	m.enter(StateConnected)

	addr := conn.RemoteAddr().String()

	n, err := envwire.Encode(conn, m.Env)
	m.Metrics.EnvSent(n)
	if err != nil {
		return evErrors.Wrap("send environment", addr, err)
	}
	m.Logger.Debug("sent %d environment entries (%d bytes)", len(m.Env), n)
	m.enter(StateEnvSent)

	n, err = m.Pump.Run(m.Stdin, conn)
	m.Metrics.BytesSent(n)
	if err != nil {
		return err
	}
	m.Logger.Debug("forwarded %d bytes of %s", n, m.Stdin.Name())
	m.enter(StateStdinPumped)

	if err := conn.CloseWrite(); err != nil {
		return evErrors.Wrap("shutdown", addr, err)
	}
	m.enter(StateWriteHalfClosed)

	if m.Duplex != FullDuplex {
		return nil
	}

	src, err := pump.NewSocketSource("socket", conn)
	if err != nil {
		return &evErrors.ReadinessError{Source: "socket", Err: err}
	}
	n, err = m.Pump.Run(src, m.Stdout)
	m.Metrics.BytesReceived(n)
	if err != nil {
		return err
	}
	m.Logger.Debug("relayed %d response bytes", n)
	m.enter(StateResponsePumped)
	return nil
}

func (m *Mission) enter(s State) {
	m.state = s
	m.Metrics.Phase(s.String())
	m.Logger.Verbose("%s", s)
}

// close releases the connection and candidate list.  It is safe to
// call more than once; only the first call has an effect.
func (m *Mission) close() {
	if m.closed {
		return
	}
	m.closed = true

	if m.conn != nil {
		if err := m.conn.Close(); err != nil {
			m.Logger.Debug("close: %v", err)
		}
		m.conn = nil
	}
	m.candidates = nil
	m.reached = m.state
	m.enter(StateClosed)
	m.Logger.Debug("stats %s", m.Metrics.JSON())
}
