// Package pump copies bytes from a readiness-monitored descriptor to a
// sink until the descriptor reports end of stream.
//
// The loop is deliberately select-style rather than a plain io.Copy:
// the source is switched to non-blocking mode once, every read is
// preceded by a blocking poll(2) with no timeout, and a read that
// reports EAGAIN after a readiness notification simply goes back to
// waiting.  A zero-length read is end of stream.
package pump

import (
	"errors"
	"io"

	"golang.org/x/sys/unix"

	evErrors "evrelay/internal/errors"
	"evrelay/util"
)

// Source is a readable descriptor driven by the pump.  FileSource and
// SocketSource differ only in the read primitive they use.
type Source interface {
	// Name identifies the source in diagnostics ("stdin", "socket").
	Name() string
	// SetNonblock switches the descriptor to non-blocking mode.  The
	// change is persistent.
	SetNonblock() error
	// WaitReadable blocks until the descriptor is readable, hung up, or
	// in error.  There is no timeout.
	WaitReadable() error
	// ReadNonblock performs one non-blocking read.  It returns
	// unix.EAGAIN when no data is available and (0, nil) at end of
	// stream.
	ReadNonblock(p []byte) (int, error)
}

// Pump moves bytes in fixed-size chunks.
type Pump struct {
	Logger *util.Logger
}

// New returns a Pump that logs through logger.
func New(logger *util.Logger) *Pump {
	return &Pump{Logger: logger}
}

// Run copies src to dst until src reaches end of stream and returns the
// number of bytes written to dst.  A failure to wait for readiness is a
// *errors.ReadinessError; a failed read or sink write is a
// *errors.PumpError.
func (p *Pump) Run(src Source, dst io.Writer) (int64, error) {
	if err := src.SetNonblock(); err != nil {
		return 0, &evErrors.ReadinessError{Source: src.Name(), Err: err}
	}

	bufp := util.GetBuf()
	defer util.PutBuf(bufp)
	buf := *bufp

	var total int64
	for {
		if err := src.WaitReadable(); err != nil {
			return total, &evErrors.ReadinessError{Source: src.Name(), Err: err}
		}

		n, err := src.ReadNonblock(buf)
		switch {
		case wouldBlock(err):
			p.debug("%s: spurious wakeup", src.Name())
			continue
		case err != nil:
			return total, &evErrors.PumpError{Op: "read", Source: src.Name(), Err: err}
		case n == 0:
			p.debug("%s: end of stream after %d bytes", src.Name(), total)
			return total, nil
		}

		if _, err := dst.Write(buf[:n]); err != nil {
			return total, &evErrors.PumpError{Op: "write", Source: src.Name(), Err: err}
		}
		total += int64(n)
	}
}

func (p *Pump) debug(format string, args ...interface{}) {
	if p.Logger != nil {
		p.Logger.Debug(format, args...)
	}
}

// wouldBlock reports whether err means "try again after the next
// readiness notification".  EINTR on a non-blocking read is folded in
// because the Go runtime delivers preemption signals to every thread.
func wouldBlock(err error) bool {
	return errors.Is(err, unix.EAGAIN) ||
		errors.Is(err, unix.EWOULDBLOCK) ||
		errors.Is(err, unix.EINTR)
}
