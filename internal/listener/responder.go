package listener

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"evrelay/internal/event"
)

// ErrNoResponder is returned for a query that no route and no default
// command answers.
var ErrNoResponder = errors.New("no responder for query")

// Responder answers query events by running a child process.  The
// event payload is the child's stdin, the event environment is appended
// to the child's environment, and the child's stdout is the response.
//
// Routes are consulted first, by query name.  A query without a route
// falls back to Command (-c) or Program (-e).
type Responder struct {
	Program string            // -e: execute a program directly
	Command string            // -c: execute via /bin/sh
	Routes  map[string]string // query name -> shell command
}

// Respond runs the child for ev and returns its standard output.
func (r *Responder) Respond(ctx context.Context, ev *event.Event) ([]byte, error) {
	if ev == nil {
		return nil, ErrNoResponder
	}

	var cmd *exec.Cmd
	route, routed := r.Routes[ev.QueryName]

	switch {
	case routed:
		cmd = exec.CommandContext(ctx, "/bin/sh", "-c", route)
	case r.Command != "":
		cmd = exec.CommandContext(ctx, "/bin/sh", "-c", r.Command)
	case r.Program != "":
		cmd = exec.CommandContext(ctx, r.Program)
	default:
		return nil, fmt.Errorf("%w %q", ErrNoResponder, ev.QueryName)
	}

	var stdout bytes.Buffer
	cmd.Stdin = strings.NewReader(ev.Payload)
	cmd.Stdout = &stdout
	cmd.Stderr = os.Stderr
	cmd.Env = append(os.Environ(), ev.Env...)

	if err := cmd.Run(); err != nil {
		return stdout.Bytes(), fmt.Errorf("exec %q: %w", cmd.Path, err)
	}
	return stdout.Bytes(), nil
}
