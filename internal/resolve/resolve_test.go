package resolve

import (
	"context"
	"fmt"
	"net"
	"testing"

	evErrors "evrelay/internal/errors"
	"evrelay/util"
)

// fakeLookup returns canned answers and counts calls.
type fakeLookup struct {
	addrs   []net.IPAddr
	ports   map[string]int
	err     error
	ipCalls int
}

func (f *fakeLookup) LookupIPAddr(_ context.Context, host string) ([]net.IPAddr, error) {
	f.ipCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.addrs, nil
}

func (f *fakeLookup) LookupPort(_ context.Context, _, service string) (int, error) {
	if p, ok := f.ports[service]; ok {
		return p, nil
	}
	return 0, fmt.Errorf("unknown port %s", service)
}

func newTestResolver(l Lookup) *Resolver {
	return &Resolver{Lookup: l, Logger: util.NewLogger(0)}
}

// TestResolve_PreservesOrder verifies candidates come back in resolver
// order with the family derived from each address.
func TestResolve_PreservesOrder(t *testing.T) {
	fl := &fakeLookup{addrs: []net.IPAddr{
		{IP: net.ParseIP("::1")},
		{IP: net.ParseIP("127.0.0.1")},
		{IP: net.ParseIP("10.0.0.2")},
	}}
	r := newTestResolver(fl)

	got, err := r.Resolve(context.Background(), Target{Host: "agent.local", Port: "7946"})
	if err != nil {
		t.Fatal(err)
	}

	want := []struct{ network, addr string }{
		{"tcp6", "[::1]:7946"},
		{"tcp4", "127.0.0.1:7946"},
		{"tcp4", "10.0.0.2:7946"},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d candidates, want %d", len(got), len(want))
	}
	for i, w := range want {
		if got[i].Network != w.network || got[i].String() != w.addr {
			t.Errorf("candidate %d = %s %s, want %s %s",
				i, got[i].Network, got[i], w.network, w.addr)
		}
	}
}

// TestResolve_NumericHost verifies IP literals skip the lookup.
func TestResolve_NumericHost(t *testing.T) {
	fl := &fakeLookup{}
	r := newTestResolver(fl)

	for _, host := range []string{"127.0.0.1", "::1"} {
		got, err := r.Resolve(context.Background(), Target{Host: host, Port: "80"})
		if err != nil {
			t.Fatalf("%s: %v", host, err)
		}
		if len(got) != 1 {
			t.Fatalf("%s: got %d candidates", host, len(got))
		}
	}
	if fl.ipCalls != 0 {
		t.Errorf("lookup called %d times for numeric hosts", fl.ipCalls)
	}
}

// TestResolve_NamedPort verifies service names go through LookupPort.
func TestResolve_NamedPort(t *testing.T) {
	fl := &fakeLookup{ports: map[string]int{"serf": 7946}}
	r := newTestResolver(fl)

	got, err := r.Resolve(context.Background(), Target{Host: "127.0.0.1", Port: "serf"})
	if err != nil {
		t.Fatal(err)
	}
	if got[0].Addr.Port != 7946 {
		t.Errorf("port = %d, want 7946", got[0].Addr.Port)
	}
}

// TestResolve_Errors verifies every failure is a ResolutionError.
func TestResolve_Errors(t *testing.T) {
	tests := []struct {
		name   string
		lookup *fakeLookup
		target Target
	}{
		{"empty host", &fakeLookup{}, Target{Host: "", Port: "1"}},
		{"empty port", &fakeLookup{}, Target{Host: "h", Port: ""}},
		{"unknown service", &fakeLookup{}, Target{Host: "127.0.0.1", Port: "nope"}},
		{"port out of range", &fakeLookup{}, Target{Host: "127.0.0.1", Port: "70000"}},
		{"lookup failure", &fakeLookup{err: fmt.Errorf("no such host")}, Target{Host: "x.invalid", Port: "1"}},
		{"empty answer", &fakeLookup{}, Target{Host: "x.invalid", Port: "1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestResolver(tt.lookup).Resolve(context.Background(), tt.target)
			if err == nil {
				t.Fatal("expected error")
			}
			var re *evErrors.ResolutionError
			if !evErrors.As(err, &re) {
				t.Fatalf("expected *ResolutionError, got %T: %v", err, err)
			}
			if re.Host != tt.target.Host || re.Port != tt.target.Port {
				t.Errorf("error carries %q/%q, want %q/%q", re.Host, re.Port, tt.target.Host, tt.target.Port)
			}
		})
	}
}

func TestTarget_String(t *testing.T) {
	if got := (Target{Host: "::1", Port: "7946"}).String(); got != "[::1]:7946" {
		t.Errorf("got %q", got)
	}
}
