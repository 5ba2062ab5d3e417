// Package resolve turns a host/port pair into an ordered list of
// stream endpoints.  The order is whatever the system resolver
// returned; no family preference or reordering is applied.
package resolve

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"strconv"

	evErrors "evrelay/internal/errors"
	"evrelay/util"
)

// Target is the user-supplied destination.  It is never modified
// after construction.
type Target struct {
	Host string
	Port string
}

// String returns "host:port".
func (t Target) String() string { return util.FormatAddr(t.Host, t.Port) }

// Candidate is one resolved stream endpoint.
type Candidate struct {
	Network string // "tcp4" or "tcp6"
	Addr    *net.TCPAddr
}

// String returns the dialable address.
func (c Candidate) String() string { return c.Addr.String() }

// Lookup is the subset of *net.Resolver that Resolver needs.  Tests
// substitute a fake to control the candidate order.
type Lookup interface {
	LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error)
	LookupPort(ctx context.Context, network, service string) (int, error)
}

// Resolver produces candidate endpoints for a Target.
type Resolver struct {
	Lookup Lookup
	Logger *util.Logger
}

// New returns a Resolver backed by the system resolver.
func New(logger *util.Logger) *Resolver {
	return &Resolver{Lookup: net.DefaultResolver, Logger: logger}
}

// Resolve maps t to stream candidates of any address family.  Numeric
// hosts and ports bypass the lookup.  Any failure, including an empty
// result, is a *errors.ResolutionError.
func (r *Resolver) Resolve(ctx context.Context, t Target) ([]Candidate, error) {
	fail := func(err error) error {
		return &evErrors.ResolutionError{Host: t.Host, Port: t.Port, Err: err}
	}

	if t.Host == "" {
		return nil, fail(fmt.Errorf("empty host"))
	}

	port, err := r.port(ctx, t.Port)
	if err != nil {
		return nil, fail(err)
	}

	if ip, err := netip.ParseAddr(t.Host); err == nil {
		c := newCandidate(net.IPAddr{IP: net.IP(ip.AsSlice()), Zone: ip.Zone()}, port)
		r.debug("%s is numeric: %s", t.Host, c)
		return []Candidate{c}, nil
	}

	addrs, err := r.Lookup.LookupIPAddr(ctx, t.Host)
	if err != nil {
		return nil, fail(err)
	}
	if len(addrs) == 0 {
		return nil, fail(evErrors.ErrNoCandidates)
	}

	out := make([]Candidate, 0, len(addrs))
	for _, a := range addrs {
		out = append(out, newCandidate(a, port))
	}
	r.debug("%s resolved to %d candidate(s)", t, len(out))
	return out, nil
}

func (r *Resolver) port(ctx context.Context, service string) (int, error) {
	if service == "" {
		return 0, fmt.Errorf("empty port")
	}
	if n, err := strconv.ParseUint(service, 10, 16); err == nil {
		return int(n), nil
	}
	n, err := r.Lookup.LookupPort(ctx, "tcp", service)
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (r *Resolver) debug(format string, args ...interface{}) {
	if r.Logger != nil {
		r.Logger.Debug(format, args...)
	}
}

func newCandidate(a net.IPAddr, port int) Candidate {
	network := "tcp6"
	if a.IP.To4() != nil {
		network = "tcp4"
	}
	return Candidate{
		Network: network,
		Addr:    &net.TCPAddr{IP: a.IP, Port: port, Zone: a.Zone},
	}
}
