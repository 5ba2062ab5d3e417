package transport

import (
	"context"

	evErrors "evrelay/internal/errors"
	"evrelay/internal/metrics"
	"evrelay/internal/resolve"
	"evrelay/util"
)

// Connector tries candidates strictly in order and returns the first
// connection that succeeds.  Later candidates are never attempted once
// one connects, and the list is never reordered.
type Connector struct {
	Dialer  Dialer
	Logger  *util.Logger
	Metrics *metrics.Collector
}

// Connect walks candidates front to back.  If every attempt fails it
// returns a *errors.ConnectError carrying each attempt's error.
func (c *Connector) Connect(ctx context.Context, target resolve.Target, candidates []resolve.Candidate) (Conn, error) {
	var attempts []error

	for i, cand := range candidates {
		c.Logger.Verbose("trying candidate %d/%d: %s (%s)",
			i+1, len(candidates), cand, cand.Network)

		conn, err := c.Dialer.Dial(ctx, cand.Network, cand.String())
		if err != nil {
			c.Metrics.CandidateTried(false)
			c.Logger.Verbose("candidate %s: %v", cand, err)
			attempts = append(attempts, err)
			continue
		}

		c.Metrics.CandidateTried(true)
		c.Logger.Verbose("connected to %s", conn.RemoteAddr())
		return conn, nil
	}

	return nil, &evErrors.ConnectError{Target: target.String(), Attempts: attempts}
}
