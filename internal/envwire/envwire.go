// Package envwire implements the environment block that opens every
// forwarded stream:
//
//	KEY=VALUE \x00 KEY=VALUE \x00 ... \x00
//
// Each entry is its raw bytes followed by one zero byte, and one extra
// lone zero byte ends the block, so an empty environment is the single
// byte 0x00.  Everything after the block is the untouched event payload.
package envwire

import (
	"bufio"
	"io"
	"strings"

	evErrors "evrelay/internal/errors"
)

// Terminator ends every entry and, alone, the block itself.
const Terminator = 0x00

// ErrTruncated is returned by the decoder when the stream ends before
// the block's closing zero byte.
var ErrTruncated = evErrors.New("environment block truncated")

// Encode writes env to w in order, followed by the end-of-block byte.
// Short writes are retried until the whole block is written or w
// returns an error.  It returns the number of bytes written.
func Encode(w io.Writer, env []string) (int64, error) {
	var total int64
	var rec []byte
	for _, entry := range env {
		rec = append(rec[:0], entry...)
		rec = append(rec, Terminator)
		n, err := writeFull(w, rec)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	n, err := writeFull(w, []byte{Terminator})
	total += int64(n)
	return total, err
}

// EncodedLen returns the size of the block Encode would write for env.
func EncodedLen(env []string) int {
	n := 1
	for _, e := range env {
		n += len(e) + 1
	}
	return n
}

// writeFull writes all of p.  A writer that reports progress of zero
// bytes without an error is treated as io.ErrShortWrite so the loop
// always terminates.
func writeFull(w io.Writer, p []byte) (int, error) {
	written := 0
	for written < len(p) {
		n, err := w.Write(p[written:])
		written += n
		if err != nil {
			return written, err
		}
		if n == 0 {
			return written, io.ErrShortWrite
		}
	}
	return written, nil
}

// ── Decoding ─────────────────────────────────────────────────────────

// Decoder reads an environment block and then hands out the payload.
type Decoder struct {
	r    *bufio.Reader
	done bool
}

// NewDecoder returns a Decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: bufio.NewReader(r)}
}

// Next returns the next entry.  It returns io.EOF once the block's
// closing zero byte has been consumed, and ErrTruncated if the stream
// ends first.
func (d *Decoder) Next() (string, error) {
	if d.done {
		return "", io.EOF
	}
	rec, err := d.r.ReadString(Terminator)
	if err != nil {
		if err == io.EOF {
			return "", ErrTruncated
		}
		return "", err
	}
	rec = rec[:len(rec)-1]
	if rec == "" {
		d.done = true
		return "", io.EOF
	}
	return rec, nil
}

// Env reads every remaining entry of the block.
func (d *Decoder) Env() ([]string, error) {
	env := []string{}
	for {
		rec, err := d.Next()
		if err == io.EOF {
			return env, nil
		}
		if err != nil {
			return env, err
		}
		env = append(env, rec)
	}
}

// Payload returns the stream positioned after the block.  It is only
// meaningful once Next has returned io.EOF.
func (d *Decoder) Payload() io.Reader { return d.r }

// Decode splits a complete message into its environment and payload.
func Decode(r io.Reader) (env []string, payload []byte, err error) {
	d := NewDecoder(r)
	if env, err = d.Env(); err != nil {
		return env, nil, err
	}
	payload, err = io.ReadAll(d.Payload())
	return env, payload, err
}

// ── Pairs ────────────────────────────────────────────────────────────

// Pair is one decoded KEY=VALUE entry.
type Pair struct {
	Key   string
	Value string
}

// ParsePair splits entry at its first '='.  An entry without '=' is a
// key with an empty value.
func ParsePair(entry string) Pair {
	k, v, _ := strings.Cut(entry, "=")
	return Pair{Key: k, Value: v}
}

// Pairs parses env in order.
func Pairs(env []string) []Pair {
	out := make([]Pair, 0, len(env))
	for _, e := range env {
		out = append(out, ParsePair(e))
	}
	return out
}

// Lookup returns the value of the first entry named key.
func Lookup(env []string, key string) (string, bool) {
	for _, e := range env {
		if p := ParsePair(e); p.Key == key {
			return p.Value, true
		}
	}
	return "", false
}
