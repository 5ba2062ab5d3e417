// Package metrics provides lightweight counters describing one
// forwarding run: how many candidates were tried, how many bytes moved
// in each phase, and the last failure.
//
// A nil *Collector is a valid no-op receiver, so callers never need to
// nil-check.  Counters are atomic so the listener, which serves
// connections concurrently, can share one collector.
package metrics

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"
)

// Collector tracks runtime metrics.
// A nil Collector is safe to use; all methods become no-ops.
type Collector struct {
	candidatesTried atomic.Int64
	connectFailures atomic.Int64
	connections     atomic.Int64
	envBytes        atomic.Int64
	envBytesIn      atomic.Int64
	bytesOut        atomic.Int64
	bytesIn         atomic.Int64
	errorsTotal     atomic.Int64

	mu           sync.RWMutex
	startTime    time.Time
	lastPhase    string
	lastError    time.Time
	lastErrorMsg string
}

// New creates a metrics collector with the start time set to now.
func New() *Collector {
	return &Collector{startTime: time.Now()}
}

// ── Connection metrics ───────────────────────────────────────────────

// CandidateTried records one connection attempt and its outcome.
func (c *Collector) CandidateTried(ok bool) {
	if c == nil {
		return
	}
	c.candidatesTried.Add(1)
	if ok {
		c.connections.Add(1)
	} else {
		c.connectFailures.Add(1)
	}
}

// CandidatesTried returns the number of connection attempts.
func (c *Collector) CandidatesTried() int64 {
	if c == nil {
		return 0
	}
	return c.candidatesTried.Load()
}

// ConnectFailures returns the number of failed attempts.
func (c *Collector) ConnectFailures() int64 {
	if c == nil {
		return 0
	}
	return c.connectFailures.Load()
}

// Connections returns the number of established connections.
func (c *Collector) Connections() int64 {
	if c == nil {
		return 0
	}
	return c.connections.Load()
}

// ── I/O metrics ──────────────────────────────────────────────────────

// EnvSent records n bytes of the environment block written to the peer.
func (c *Collector) EnvSent(n int64) {
	if c == nil {
		return
	}
	c.envBytes.Add(n)
}

// EnvReceived records n bytes of an environment block read from a
// forwarder.  Only the listener receives environment blocks.
func (c *Collector) EnvReceived(n int64) {
	if c == nil {
		return
	}
	c.envBytesIn.Add(n)
}

// BytesSent records n payload bytes written to the peer.
func (c *Collector) BytesSent(n int64) {
	if c == nil {
		return
	}
	c.bytesOut.Add(n)
}

// BytesReceived records n response bytes read from the peer.
func (c *Collector) BytesReceived(n int64) {
	if c == nil {
		return
	}
	c.bytesIn.Add(n)
}

// TotalEnvBytes returns the environment block size.
func (c *Collector) TotalEnvBytes() int64 {
	if c == nil {
		return 0
	}
	return c.envBytes.Load()
}

// TotalEnvBytesIn returns the size of all environment blocks received.
func (c *Collector) TotalEnvBytesIn() int64 {
	if c == nil {
		return 0
	}
	return c.envBytesIn.Load()
}

// TotalBytesOut returns total payload bytes sent.
func (c *Collector) TotalBytesOut() int64 {
	if c == nil {
		return 0
	}
	return c.bytesOut.Load()
}

// TotalBytesIn returns total response bytes received.
func (c *Collector) TotalBytesIn() int64 {
	if c == nil {
		return 0
	}
	return c.bytesIn.Load()
}

// ── Phase / error metrics ────────────────────────────────────────────

// Phase records the most recently entered phase.
func (c *Collector) Phase(name string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.lastPhase = name
	c.mu.Unlock()
}

// RecordError increments the error counter and stores the message.
func (c *Collector) RecordError(msg string) {
	if c == nil {
		return
	}
	c.errorsTotal.Add(1)
	c.mu.Lock()
	c.lastError = time.Now()
	c.lastErrorMsg = msg
	c.mu.Unlock()
}

// ErrorCount returns the total number of errors recorded.
func (c *Collector) ErrorCount() int64 {
	if c == nil {
		return 0
	}
	return c.errorsTotal.Load()
}

// ── Snapshot ─────────────────────────────────────────────────────────

// Snapshot is a point-in-time view of all metrics.
type Snapshot struct {
	Elapsed          string `json:"elapsed"`
	Phase            string `json:"phase,omitempty"`
	CandidatesTried  int64  `json:"candidates_tried"`
	ConnectFailures  int64  `json:"connect_failures"`
	Connections      int64  `json:"connections"`
	EnvBytes         int64  `json:"env_bytes"`
	EnvBytesIn       int64  `json:"env_bytes_in,omitempty"`
	BytesOut         int64  `json:"bytes_out"`
	BytesIn          int64  `json:"bytes_in"`
	ErrorsTotal      int64  `json:"errors_total"`
	LastError        string `json:"last_error,omitempty"`
	LastErrorMessage string `json:"last_error_message,omitempty"`
}

// Snapshot returns a copy of all current metrics.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Snapshot{
		Elapsed:         time.Since(c.startTime).Round(time.Microsecond).String(),
		Phase:           c.lastPhase,
		CandidatesTried: c.candidatesTried.Load(),
		ConnectFailures: c.connectFailures.Load(),
		Connections:     c.connections.Load(),
		EnvBytes:        c.envBytes.Load(),
		EnvBytesIn:      c.envBytesIn.Load(),
		BytesOut:        c.bytesOut.Load(),
		BytesIn:         c.bytesIn.Load(),
		ErrorsTotal:     c.errorsTotal.Load(),
	}
	if !c.lastError.IsZero() {
		s.LastError = c.lastError.Format(time.RFC3339)
		s.LastErrorMessage = c.lastErrorMsg
	}
	return s
}

// JSON returns the snapshot as a single JSON line.
func (c *Collector) JSON() string {
	b, err := json.Marshal(c.Snapshot())
	if err != nil {
		return "{}"
	}
	return string(b)
}
