package pump

import (
	"fmt"
	"io"
	"syscall"

	"golang.org/x/sys/unix"

	evErrors "evrelay/internal/errors"
)

// fdSource drives a raw descriptor reached through syscall.RawConn,
// which keeps the descriptor alive for the duration of each call.
type fdSource struct {
	name string
	raw  syscall.RawConn
	read func(fd int, p []byte) (int, error)
}

// NewFileSource returns a Source that reads c's descriptor with
// read(2).  Use it for stdin, pipes, and other plain files.
func NewFileSource(name string, c syscall.Conn) (Source, error) {
	return newFdSource(name, c, func(fd int, p []byte) (int, error) {
		return unix.Read(fd, p)
	})
}

// NewSocketSource returns a Source that reads c's descriptor with
// recv(2).
func NewSocketSource(name string, c syscall.Conn) (Source, error) {
	return newFdSource(name, c, func(fd int, p []byte) (int, error) {
		n, _, err := unix.Recvfrom(fd, p, 0)
		return n, err
	})
}

func newFdSource(name string, c syscall.Conn, read func(int, []byte) (int, error)) (*fdSource, error) {
	raw, err := c.SyscallConn()
	if err != nil {
		return nil, fmt.Errorf("%s: raw descriptor: %w", name, err)
	}
	return &fdSource{name: name, raw: raw, read: read}, nil
}

func (s *fdSource) Name() string { return s.name }

func (s *fdSource) SetNonblock() error {
	return s.control(func(fd int) error { return unix.SetNonblock(fd, true) })
}

func (s *fdSource) WaitReadable() error {
	return s.control(func(fd int) error { return waitFor(fd, unix.POLLIN) })
}

func (s *fdSource) ReadNonblock(p []byte) (int, error) {
	var n int
	err := s.control(func(fd int) error {
		var rerr error
		n, rerr = s.read(fd, p)
		if n < 0 {
			n = 0
		}
		return rerr
	})
	return n, err
}

func (s *fdSource) control(f func(fd int) error) error {
	var ferr error
	if err := s.raw.Control(func(fd uintptr) { ferr = f(int(fd)) }); err != nil {
		return err
	}
	return ferr
}

// waitFor blocks in poll(2) until fd reports one of events, a hangup,
// or an error condition.  Interrupted waits are restarted.
func waitFor(fd int, events int16) error {
	fds := []unix.PollFd{{Fd: int32(fd), Events: events}}
	for {
		_, err := unix.Poll(fds, -1)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return err
		}
		if fds[0].Revents&unix.POLLNVAL != 0 {
			return evErrors.ErrInvalidFd
		}
		return nil
	}
}

// ── Sink ─────────────────────────────────────────────────────────────

// fileSink writes to a raw descriptor that may have been left in
// non-blocking mode, for example stdout sharing its open file with a
// stdin the pump already switched.  EAGAIN waits for POLLOUT.
type fileSink struct {
	name string
	raw  syscall.RawConn
}

// NewFileSink returns a writer for c's descriptor that always writes
// the full buffer or fails.
func NewFileSink(name string, c syscall.Conn) (io.Writer, error) {
	raw, err := c.SyscallConn()
	if err != nil {
		return nil, fmt.Errorf("%s: raw descriptor: %w", name, err)
	}
	return &fileSink{name: name, raw: raw}, nil
}

func (s *fileSink) Write(p []byte) (int, error) {
	written := 0
	for written < len(p) {
		var n int
		var werr error
		err := s.raw.Control(func(fd uintptr) {
			n, werr = unix.Write(int(fd), p[written:])
			if werr == unix.EAGAIN {
				werr = waitFor(int(fd), unix.POLLOUT)
				n = 0
			}
		})
		if err != nil {
			return written, err
		}
		if werr == unix.EINTR {
			continue
		}
		if werr != nil {
			return written, werr
		}
		if n > 0 {
			written += n
		}
	}
	return written, nil
}
