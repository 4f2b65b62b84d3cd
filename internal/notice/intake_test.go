package notice

import (
	"io"
	"log/slog"
	"testing"

	"otaagent/internal/otaqueue"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func validFields() map[string]string {
	return map[string]string{
		"version": "2",
		"size":    "1024",
		"url":     "https://h/f",
		"sas":     "sig=x",
		"sha256":  "AA",
	}
}

func TestSubmitAcceptsValidNotice(t *testing.T) {
	q := otaqueue.New()
	in := New(q, testLogger())

	in.Submit(validFields())

	if q.Len() != 1 {
		t.Fatalf("expected 1 queued request, got %d", q.Len())
	}
	req := q.Dequeue()
	if req.Version != 2 || req.Size != 1024 {
		t.Errorf("unexpected request: %+v", req)
	}
}

func TestSubmitDropsMissingFields(t *testing.T) {
	cases := []string{"version", "size", "url", "sas", "sha256"}
	for _, missing := range cases {
		t.Run(missing, func(t *testing.T) {
			q := otaqueue.New()
			in := New(q, testLogger())
			fields := validFields()
			delete(fields, missing)
			in.Submit(fields)
			if q.Len() != 0 {
				t.Errorf("expected notice missing %q to be dropped", missing)
			}
		})
	}
}

func TestSubmitDropsZeroVersion(t *testing.T) {
	q := otaqueue.New()
	in := New(q, testLogger())
	fields := validFields()
	fields["version"] = "0"
	in.Submit(fields)
	if q.Len() != 0 {
		t.Error("expected zero version to be dropped")
	}
}

func TestSubmitDropsWhenQueueFull(t *testing.T) {
	q := otaqueue.New()
	in := New(q, testLogger())
	for i := 0; i < otaqueue.Capacity; i++ {
		in.Submit(validFields())
	}
	// Enqueue beyond capacity overwrites rather than rejecting; Submit
	// itself never blocks regardless of queue state.
	in.Submit(validFields())
	if q.Len() != otaqueue.Capacity {
		t.Errorf("expected queue to remain at capacity %d, got %d", otaqueue.Capacity, q.Len())
	}
}
