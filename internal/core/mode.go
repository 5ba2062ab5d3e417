// Package core is the orchestration layer.  It composes the resolver,
// connector, environment encoder, and stream pump into the forwarding
// Mission, and provides a builder that selects the right Mode from a
// Config.
//
// Architecture layers (bottom → top):
//
//	resolve / transport / envwire / pump  →  core  →  cmd (CLI)
package core

import (
	"context"

	"evrelay/internal/envwire"
)

// Mode represents a complete operational mode of evrelay (forward or
// listen).  Each mode owns its full lifecycle from connection
// establishment to teardown.
type Mode interface {
	Run(ctx context.Context) error
}

// Duplex says whether the peer's response is relayed to stdout after
// the write half is closed.
type Duplex int

const (
	// HalfDuplex forwards stdin to the peer only.
	HalfDuplex Duplex = iota
	// FullDuplex additionally relays the peer's response to stdout.
	FullDuplex
)

func (d Duplex) String() string {
	if d == FullDuplex {
		return "full-duplex"
	}
	return "half-duplex"
}

// SelectDuplex returns FullDuplex when env sets modeVar to exactly
// modeValue.  Absence or any other value selects HalfDuplex; selection
// never fails.
func SelectDuplex(env []string, modeVar, modeValue string) Duplex {
	if v, ok := envwire.Lookup(env, modeVar); ok && v == modeValue {
		return FullDuplex
	}
	return HalfDuplex
}
