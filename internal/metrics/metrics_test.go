package metrics

import (
	"encoding/json"
	"testing"
)

func TestCollector_Candidates(t *testing.T) {
	c := New()

	c.CandidateTried(false)
	c.CandidateTried(false)
	c.CandidateTried(true)

	if c.CandidatesTried() != 3 {
		t.Errorf("tried = %d, want 3", c.CandidatesTried())
	}
	if c.ConnectFailures() != 2 {
		t.Errorf("failures = %d, want 2", c.ConnectFailures())
	}
	if c.Connections() != 1 {
		t.Errorf("connections = %d, want 1", c.Connections())
	}
}

func TestCollector_Bytes(t *testing.T) {
	c := New()

	c.EnvSent(64)
	c.BytesSent(2048)
	c.BytesSent(10)
	c.BytesReceived(5)

	if c.TotalEnvBytes() != 64 {
		t.Errorf("env bytes = %d, want 64", c.TotalEnvBytes())
	}
	if c.TotalBytesOut() != 2058 {
		t.Errorf("bytes out = %d, want 2058", c.TotalBytesOut())
	}
	if c.TotalBytesIn() != 5 {
		t.Errorf("bytes in = %d, want 5", c.TotalBytesIn())
	}
}

// TestCollector_EnvDirections verifies received environment blocks are
// counted apart from sent ones.
func TestCollector_EnvDirections(t *testing.T) {
	c := New()

	c.EnvSent(10)
	c.EnvReceived(30)
	c.EnvReceived(2)

	if c.TotalEnvBytes() != 10 {
		t.Errorf("env bytes out = %d, want 10", c.TotalEnvBytes())
	}
	if c.TotalEnvBytesIn() != 32 {
		t.Errorf("env bytes in = %d, want 32", c.TotalEnvBytesIn())
	}
	if snap := c.Snapshot(); snap.EnvBytes != 10 || snap.EnvBytesIn != 32 {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestCollector_Errors(t *testing.T) {
	c := New()

	c.RecordError("first error")
	c.RecordError("second error")

	if c.ErrorCount() != 2 {
		t.Errorf("errors = %d, want 2", c.ErrorCount())
	}
	if msg := c.Snapshot().LastErrorMessage; msg != "second error" {
		t.Errorf("last error = %q", msg)
	}
}

func TestCollector_Snapshot(t *testing.T) {
	c := New()
	c.Phase("EnvSent")
	c.CandidateTried(true)
	c.BytesReceived(100)
	c.RecordError("test")

	snap := c.Snapshot()
	if snap.Phase != "EnvSent" {
		t.Errorf("snap phase = %q", snap.Phase)
	}
	if snap.Connections != 1 {
		t.Errorf("snap connections = %d", snap.Connections)
	}
	if snap.BytesIn != 100 {
		t.Errorf("snap bytes in = %d", snap.BytesIn)
	}
	if snap.LastError == "" {
		t.Error("expected error timestamp")
	}
}

func TestCollector_JSON(t *testing.T) {
	c := New()
	c.CandidateTried(true)
	c.BytesSent(42)

	raw := c.JSON()
	var snap Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		t.Fatalf("JSON parse error: %v", err)
	}
	if snap.CandidatesTried != 1 {
		t.Errorf("JSON tried = %d", snap.CandidatesTried)
	}
	if snap.BytesOut != 42 {
		t.Errorf("JSON bytes out = %d", snap.BytesOut)
	}
}

func TestNilCollector_NoOps(t *testing.T) {
	var c *Collector

	// None of these should panic.
	c.CandidateTried(true)
	c.EnvSent(1)
	c.EnvReceived(1)
	c.BytesReceived(100)
	c.BytesSent(100)
	c.Phase("x")
	c.RecordError("test")

	if c.CandidatesTried() != 0 || c.TotalBytesIn() != 0 || c.TotalEnvBytesIn() != 0 || c.ErrorCount() != 0 {
		t.Error("nil collector should return 0")
	}

	if snap := c.Snapshot(); snap.Connections != 0 {
		t.Error("nil snapshot should be zero")
	}

	var snap Snapshot
	if err := json.Unmarshal([]byte(c.JSON()), &snap); err != nil {
		t.Errorf("nil JSON should be valid: %v", err)
	}
}

func BenchmarkCollector_BytesSent(b *testing.B) {
	c := New()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.BytesSent(2048)
	}
}
